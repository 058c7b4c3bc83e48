package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// Flag names understood by ApplyFlags.
const (
	FlagConfig      = "config"
	FlagLogLevel    = "log-level"
	FlagDataDir     = "data-dir"
	FlagRefresh     = "refresh"
	FlagMerge       = "merge"
	FlagWatch       = "watch"
	FlagMetricsAddr = "metrics-addr"
	FlagNoCache     = "no-cache"
)

// RegisterFlags adds the command line overrides to fs. Defaults are
// empty so that only flags the user set take effect.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP(FlagConfig, "c", "", "path to config.yaml (default ~/.ctfterm/config.yaml)")
	fs.String(FlagLogLevel, "", "log level: debug, info, warn, error")
	fs.String(FlagDataDir, "", "directory for logs, events and the feed cache")
	fs.Duration(FlagRefresh, 0, "refresh interval, 0 fetches once")
	fs.String(FlagMerge, "", "merge policy: replace, append, dedupe")
	fs.StringSlice(FlagWatch, nil, "watchlist terms matched against writeup events and tags")
	fs.String(FlagMetricsAddr, "", "serve Prometheus metrics on this address")
	fs.Bool(FlagNoCache, false, "disable the SQLite feed cache")
}

// ApplyFlags copies every flag the user set onto cfg and validates the
// result. fs must have been populated by RegisterFlags and parsed.
func ApplyFlags(cfg *Config, fs *pflag.FlagSet) error {
	var err error
	set := func(name string, apply func() error) {
		if err != nil || !fs.Changed(name) {
			return
		}
		if e := apply(); e != nil {
			err = fmt.Errorf("flag --%s: %w", name, e)
		}
	}

	set(FlagLogLevel, func() (e error) { cfg.LogLevel, e = fs.GetString(FlagLogLevel); return })
	set(FlagDataDir, func() (e error) { cfg.DataDir, e = fs.GetString(FlagDataDir); return })
	set(FlagRefresh, func() (e error) { cfg.RefreshInterval, e = fs.GetDuration(FlagRefresh); return })
	set(FlagMerge, func() (e error) { cfg.MergePolicy, e = fs.GetString(FlagMerge); return })
	set(FlagWatch, func() (e error) { cfg.Watchlist, e = fs.GetStringSlice(FlagWatch); return })
	set(FlagMetricsAddr, func() (e error) { cfg.MetricsAddr, e = fs.GetString(FlagMetricsAddr); return })
	set(FlagNoCache, func() error {
		off, e := fs.GetBool(FlagNoCache)
		cfg.Cache = !off
		return e
	})
	if err != nil {
		return err
	}
	return cfg.Validate()
}
