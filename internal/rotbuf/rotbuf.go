// Package rotbuf provides Buffer, an ordered list that scrolls by physically
// moving elements from one end to the other.
package rotbuf

// Buffer owns an ordered sequence and a cursor.
//
// idx counts how far the logical origin has shifted through MoveForward and
// MoveBackward and bounds navigation at both ends: 0 <= idx < Len() whenever
// the buffer is non-empty, and idx == 0 when it is empty.
//
// Buffer is not safe for concurrent use. The dashboard loop goroutine is its
// only owner.
type Buffer[T any] struct {
	items []T
	idx   int
}

// New creates a Buffer holding a copy of items.
func New[T any](items ...T) *Buffer[T] {
	b := &Buffer[T]{}
	b.Append(items...)
	return b
}

// Len returns the number of elements.
func (b *Buffer[T]) Len() int {
	return len(b.items)
}

// Index returns the navigation cursor.
func (b *Buffer[T]) Index() int {
	return b.idx
}

// Items returns a copy of the elements in their current order.
func (b *Buffer[T]) Items() []T {
	out := make([]T, len(b.items))
	copy(out, b.items)
	return out
}

// Scroll moves the front element to the back. No-op when empty.
func (b *Buffer[T]) Scroll() {
	b.frontToBack()
}

// MoveForward scrolls one step and advances the cursor, unless the cursor is
// already on the last element.
func (b *Buffer[T]) MoveForward() {
	if b.idx < len(b.items)-1 {
		b.frontToBack()
		b.idx++
	}
}

// MoveBackward moves the back element to the front and retreats the cursor,
// unless the cursor is at 0.
func (b *Buffer[T]) MoveBackward() {
	if b.idx > 0 {
		b.backToFront()
		b.idx--
	}
}

// Append pushes items to the back in order. Existing elements are kept, so
// repeated appends of a refreshed feed accumulate.
func (b *Buffer[T]) Append(items ...T) {
	b.items = append(b.items, items...)
}

// Replace swaps in a copy of items and resets the cursor.
func (b *Buffer[T]) Replace(items []T) {
	b.items = make([]T, len(items))
	copy(b.items, items)
	b.idx = 0
}

// Get returns the element at i.
func (b *Buffer[T]) Get(i int) (T, bool) {
	if i < 0 || i >= len(b.items) {
		var zero T
		return zero, false
	}
	return b.items[i], true
}

// Set overwrites the element at i. Returns false if i is out of range.
func (b *Buffer[T]) Set(i int, v T) bool {
	if i < 0 || i >= len(b.items) {
		return false
	}
	b.items[i] = v
	return true
}

func (b *Buffer[T]) frontToBack() {
	n := len(b.items)
	if n < 2 {
		return
	}
	first := b.items[0]
	copy(b.items, b.items[1:])
	b.items[n-1] = first
}

func (b *Buffer[T]) backToFront() {
	n := len(b.items)
	if n < 2 {
		return
	}
	last := b.items[n-1]
	copy(b.items[1:], b.items[:n-1])
	b.items[0] = last
}
