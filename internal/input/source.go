package input

import (
	"context"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// KeySource blocks until the next key press is available.
// It returns io.EOF once no more keys will arrive.
type KeySource interface {
	ReadKey(ctx context.Context) (tea.KeyMsg, error)
}

// defaultQueue is the ChanSource buffer size.
const defaultQueue = 64

// ChanSource is a KeySource fed by the render driver. Push never blocks;
// keys arriving while the queue is full are dropped.
type ChanSource struct {
	ch        chan tea.KeyMsg
	done      chan struct{}
	closeOnce sync.Once
}

// NewChanSource creates a ChanSource holding up to size pending keys.
func NewChanSource(size int) *ChanSource {
	if size <= 0 {
		size = defaultQueue
	}
	return &ChanSource{
		ch:   make(chan tea.KeyMsg, size),
		done: make(chan struct{}),
	}
}

// Push queues msg and reports whether it was accepted.
func (s *ChanSource) Push(msg tea.KeyMsg) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.ch <- msg:
		return true
	default:
		return false
	}
}

// ReadKey implements KeySource.
func (s *ChanSource) ReadKey(ctx context.Context) (tea.KeyMsg, error) {
	select {
	case msg := <-s.ch:
		return msg, nil
	case <-s.done:
		return tea.KeyMsg{}, io.EOF
	case <-ctx.Done():
		return tea.KeyMsg{}, ctx.Err()
	}
}

// Close makes ReadKey return io.EOF. Safe to call more than once.
func (s *ChanSource) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}
