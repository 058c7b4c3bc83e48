// Package config holds ctfterm's settings and the layered loader that builds
// them from defaults, an optional YAML file, the environment and flags.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Merge policies for refreshed feed data.
const (
	MergeReplace = "replace"
	MergeAppend  = "append"
	MergeDedupe  = "dedupe"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the application configuration. Keys are flat so that
// CTFTERM_FETCH_TIMEOUT maps straight onto fetch_timeout.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// DataDir holds the log files, the event log and the feed cache.
	DataDir string `koanf:"data_dir"`

	// BaseURL and the *_path keys locate the four feeds.
	BaseURL         string `koanf:"base_url"`
	RunningPath     string `koanf:"running_path"`
	PastPath        string `koanf:"past_path"`
	WriteupsPath    string `koanf:"writeups_path"`
	LeaderboardPath string `koanf:"leaderboard_path"`
	UserAgent       string `koanf:"user_agent"`

	// FetchTimeout bounds each feed fetch, retries included.
	FetchTimeout time.Duration `koanf:"fetch_timeout"`
	FetchRetries int           `koanf:"fetch_retries"`
	// RateLimit is the maximum number of requests per second to BaseURL.
	RateLimit float64 `koanf:"rate_limit"`

	// RefreshInterval re-fetches every feed periodically. Zero fetches once.
	RefreshInterval time.Duration `koanf:"refresh_interval"`

	// FrameInterval is the redraw period of the dashboard loop.
	FrameInterval time.Duration `koanf:"frame_interval"`
	// ScrollTicks is the number of frames between autoscroll steps.
	ScrollTicks int `koanf:"scroll_ticks"`
	// ScrollMinRows is the past-events length at which autoscroll starts.
	ScrollMinRows int `koanf:"scroll_min_rows"`

	// MergePolicy is one of replace, append, dedupe.
	MergePolicy string `koanf:"merge_policy"`

	// Watchlist terms select writeups for the watchlist panel.
	Watchlist []string `koanf:"watchlist"`

	// Cache keeps the last good rows of each feed in SQLite.
	Cache bool `koanf:"cache"`

	// MetricsAddr serves Prometheus metrics when non-empty, e.g. ":9464".
	MetricsAddr string `koanf:"metrics_addr"`
}

// New returns the defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		DataDir:         DefaultDataDir(),
		BaseURL:         "https://ctftime.org",
		RunningPath:     "/event/list/running/rss/",
		PastPath:        "/event/list/past",
		WriteupsPath:    "/writeups",
		LeaderboardPath: "/stats/",
		UserAgent:       "ctfterm/0.2 (+https://github.com/abelbrown/ctfterm)",
		FetchTimeout:    30 * time.Second,
		FetchRetries:    2,
		RateLimit:       2,
		RefreshInterval: 10 * time.Minute,
		FrameInterval:   100 * time.Millisecond,
		ScrollTicks:     20,
		ScrollMinRows:   10,
		MergePolicy:     MergeReplace,
		Cache:           true,
	}
}

// DefaultDataDir returns ~/.ctfterm, or .ctfterm if the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ctfterm"
	}
	return filepath.Join(home, ".ctfterm")
}

// DefaultPath returns the config file looked up when none is given.
func DefaultPath() string {
	return filepath.Join(DefaultDataDir(), "config.yaml")
}

// FeedURL joins BaseURL and path.
func (c *Config) FeedURL(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// CachePath is the SQLite file used for the feed cache.
func (c *Config) CachePath() string {
	return filepath.Join(c.DataDir, "cache.db")
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: base_url %q is not an absolute URL", ErrInvalidConfig, c.BaseURL)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("%w: fetch_timeout must be positive", ErrInvalidConfig)
	}
	if c.FetchRetries < 0 {
		return fmt.Errorf("%w: fetch_retries must not be negative", ErrInvalidConfig)
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("%w: rate_limit must be positive", ErrInvalidConfig)
	}
	if c.RefreshInterval < 0 {
		return fmt.Errorf("%w: refresh_interval must not be negative", ErrInvalidConfig)
	}
	if c.FrameInterval <= 0 {
		return fmt.Errorf("%w: frame_interval must be positive", ErrInvalidConfig)
	}
	if c.ScrollTicks <= 0 {
		return fmt.Errorf("%w: scroll_ticks must be positive", ErrInvalidConfig)
	}
	if c.ScrollMinRows < 0 {
		return fmt.Errorf("%w: scroll_min_rows must not be negative", ErrInvalidConfig)
	}
	switch c.MergePolicy {
	case MergeReplace, MergeAppend, MergeDedupe:
	default:
		return fmt.Errorf("%w: merge_policy %q (want replace, append or dedupe)", ErrInvalidConfig, c.MergePolicy)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return nil
}
