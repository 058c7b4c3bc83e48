package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
	"github.com/spf13/pflag"

	"github.com/abelbrown/ctfterm/internal/config"
)

// isolate points HOME at an empty directory and clears CTFTERM_ variables.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{
		"CTFTERM_CONFIG", "CTFTERM_MERGE_POLICY", "CTFTERM_FETCH_TIMEOUT",
		"CTFTERM_WATCHLIST", "CTFTERM_CACHE", "CTFTERM_SCROLL_TICKS",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return home
}

func TestConfig_New(t *testing.T) {
	convey.Convey("Given the default config", t, func() {
		cfg := config.New()

		convey.Convey("Then it points at ctftime and validates", func() {
			convey.So(cfg.BaseURL, convey.ShouldEqual, "https://ctftime.org")
			convey.So(cfg.FeedURL(cfg.RunningPath), convey.ShouldEqual, "https://ctftime.org/event/list/running/rss/")
			convey.So(cfg.FeedURL(cfg.LeaderboardPath), convey.ShouldEqual, "https://ctftime.org/stats/")
			convey.So(cfg.MergePolicy, convey.ShouldEqual, config.MergeReplace)
			convey.So(cfg.ScrollMinRows, convey.ShouldEqual, 10)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with bad values", t, func() {
		cases := []struct {
			name   string
			mutate func(c *config.Config)
		}{
			{"relative base url", func(c *config.Config) { c.BaseURL = "ctftime.org" }},
			{"zero timeout", func(c *config.Config) { c.FetchTimeout = 0 }},
			{"negative retries", func(c *config.Config) { c.FetchRetries = -1 }},
			{"zero rate", func(c *config.Config) { c.RateLimit = 0 }},
			{"zero frame", func(c *config.Config) { c.FrameInterval = 0 }},
			{"zero scroll ticks", func(c *config.Config) { c.ScrollTicks = 0 }},
			{"unknown policy", func(c *config.Config) { c.MergePolicy = "keep" }},
			{"unknown log level", func(c *config.Config) { c.LogLevel = "trace" }},
		}

		for _, tc := range cases {
			cfg := config.New()
			tc.mutate(cfg)
			err := cfg.Validate()

			convey.Convey("Then "+tc.name+" is rejected", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}

func TestConfig_Load(t *testing.T) {
	home := isolate(t)

	convey.Convey("Given a config loader", t, func() {
		convey.Convey("When nothing is configured", func() {
			cfg, err := config.Load("")

			convey.Convey("Then defaults are returned", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.FetchTimeout, convey.ShouldEqual, 30*time.Second)
				convey.So(cfg.DataDir, convey.ShouldEqual, filepath.Join(home, ".ctfterm"))
			})
		})

		convey.Convey("When a YAML file is given", func() {
			path := filepath.Join(t.TempDir(), "ctfterm.yaml")
			yaml := "merge_policy: dedupe\nfetch_timeout: 5s\nwatchlist:\n  - pwn\n  - crypto\ncache: false\n"
			convey.So(os.WriteFile(path, []byte(yaml), 0o600), convey.ShouldBeNil)

			cfg, err := config.Load(path)

			convey.Convey("Then file values override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.MergePolicy, convey.ShouldEqual, config.MergeDedupe)
				convey.So(cfg.FetchTimeout, convey.ShouldEqual, 5*time.Second)
				convey.So(cfg.Watchlist, convey.ShouldResemble, []string{"pwn", "crypto"})
				convey.So(cfg.Cache, convey.ShouldBeFalse)
				convey.So(cfg.ScrollTicks, convey.ShouldEqual, 20)
			})
		})

		convey.Convey("When environment variables are set", func() {
			os.Setenv("CTFTERM_MERGE_POLICY", "append")
			os.Setenv("CTFTERM_SCROLL_TICKS", "7")
			os.Setenv("CTFTERM_WATCHLIST", "web, rev")
			convey.Reset(func() {
				os.Unsetenv("CTFTERM_MERGE_POLICY")
				os.Unsetenv("CTFTERM_SCROLL_TICKS")
				os.Unsetenv("CTFTERM_WATCHLIST")
			})

			cfg, err := config.Load("")

			convey.Convey("Then env overrides defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.MergePolicy, convey.ShouldEqual, config.MergeAppend)
				convey.So(cfg.ScrollTicks, convey.ShouldEqual, 7)
				convey.So(cfg.Watchlist, convey.ShouldResemble, []string{"web", "rev"})
			})
		})

		convey.Convey("When the named file does not exist", func() {
			_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))

			convey.Convey("Then loading fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the file holds an invalid value", func() {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			convey.So(os.WriteFile(path, []byte("merge_policy: sometimes\n"), 0o600), convey.ShouldBeNil)

			_, err := config.Load(path)

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func TestConfig_ApplyFlags(t *testing.T) {
	convey.Convey("Given registered flags", t, func() {
		fs := pflag.NewFlagSet("ctfterm", pflag.ContinueOnError)
		config.RegisterFlags(fs)
		cfg := config.New()

		convey.Convey("When no flag is set", func() {
			convey.So(fs.Parse(nil), convey.ShouldBeNil)
			convey.So(config.ApplyFlags(cfg, fs), convey.ShouldBeNil)

			convey.Convey("Then the config keeps its values", func() {
				convey.So(cfg.RefreshInterval, convey.ShouldEqual, 10*time.Minute)
				convey.So(cfg.Cache, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When flags override settings", func() {
			err := fs.Parse([]string{"--refresh=0s", "--merge", "dedupe", "--watch", "pwn,heap", "--no-cache", "--log-level", "debug"})
			convey.So(err, convey.ShouldBeNil)
			convey.So(config.ApplyFlags(cfg, fs), convey.ShouldBeNil)

			convey.Convey("Then only the set flags change the config", func() {
				convey.So(cfg.RefreshInterval, convey.ShouldEqual, time.Duration(0))
				convey.So(cfg.MergePolicy, convey.ShouldEqual, config.MergeDedupe)
				convey.So(cfg.Watchlist, convey.ShouldResemble, []string{"pwn", "heap"})
				convey.So(cfg.Cache, convey.ShouldBeFalse)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.BaseURL, convey.ShouldEqual, "https://ctftime.org")
			})
		})

		convey.Convey("When a flag carries an invalid value", func() {
			convey.So(fs.Parse([]string{"--merge", "keep"}), convey.ShouldBeNil)
			err := config.ApplyFlags(cfg, fs)

			convey.Convey("Then validation rejects it", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}
