// Command ctfterm is a terminal dashboard for CTFtime: running and past
// events, write-ups and the team leaderboard, refreshed in the background.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/abelbrown/ctfterm/internal/config"
	"github.com/abelbrown/ctfterm/internal/coord"
	"github.com/abelbrown/ctfterm/internal/dashboard"
	"github.com/abelbrown/ctfterm/internal/fetch"
	"github.com/abelbrown/ctfterm/internal/input"
	"github.com/abelbrown/ctfterm/internal/logging"
	"github.com/abelbrown/ctfterm/internal/metrics"
	"github.com/abelbrown/ctfterm/internal/otel"
	"github.com/abelbrown/ctfterm/internal/store"
	"github.com/abelbrown/ctfterm/internal/ui"
)

// keyBuffer absorbs key repeat while the controller waits on the loop.
const keyBuffer = 16

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ctfterm: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flagSet := pflag.NewFlagSet("ctfterm", pflag.ContinueOnError)
	config.RegisterFlags(flagSet)
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	path, _ := flagSet.GetString(config.FlagConfig)
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := config.ApplyFlags(cfg, flagSet); err != nil {
		return err
	}

	if err := logging.Init(cfg.DataDir, cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}
	defer logging.Close()

	events, err := otel.OpenFile(cfg.DataDir)
	if err != nil {
		logging.Warn("event log unavailable", "err", err)
		events = otel.NewNullLogger()
	}
	defer events.Close()
	ring := otel.NewRingBuffer(otel.DefaultRingSize)
	events.SetRingBuffer(ring)
	events.Info(otel.KindStartup, "main", "ctfterm starting")
	logging.Info("ctfterm starting", "session", events.SessionID(), "data_dir", cfg.DataDir, "refresh", cfg.RefreshInterval, "merge", cfg.MergePolicy)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := prometheus.NewRegistry()
	rec := metrics.New(reg)
	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: metrics.Handler(reg), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("metrics server failed", "addr", cfg.MetricsAddr, "err", err)
			}
		}()
		defer srv.Close()
		logging.Info("metrics listening", "addr", cfg.MetricsAddr)
	}

	opts := coord.Options{Timeout: cfg.FetchTimeout, Metrics: rec, Events: events}
	if cfg.Cache {
		st, err := store.Open(cfg.CachePath())
		if err != nil {
			logging.Warn("feed cache unavailable", "path", cfg.CachePath(), "err", err)
			events.Warn(otel.KindStartup, "main", "feed cache unavailable, running without stale fallback")
		} else {
			defer st.Close()
			opts.Cache = st
			logging.Info("feed cache opened", "path", cfg.CachePath())
			logCacheStatus(ctx, st)
		}
	}

	fetcher := fetch.NewFetcher(fetch.OptionsFromConfig(cfg))
	coordinator := coord.NewCoordinator(fetcher, fetch.DefaultSources(cfg), opts)

	keys := input.NewChanSource(keyBuffer)
	controller := input.NewController(keys, input.DefaultKeyMap, events)

	program := tea.NewProgram(ui.NewApp(input.DefaultKeyMap, keys.Push), tea.WithAltScreen())
	renderer := ui.NewProgramRenderer(program)

	dashOpts := dashboard.OptionsFromConfig(cfg)
	dashOpts.Metrics, dashOpts.Events, dashOpts.Ring = rec, events, ring
	loop := dashboard.NewLoop(coordinator, controller.Actions(), renderer, dashOpts)

	controller.Start(ctx)
	loopDone := make(chan error, 1)
	go func() {
		err := loop.Run(ctx)
		loopDone <- err
		renderer.Stop(err)
	}()

	_, uiErr := program.Run()
	if uiErr != nil {
		logging.Error("UI error", "err", uiErr)
		events.Error(otel.KindShutdown, "main", uiErr)
	}

	// The UI is gone; unblock every goroutine and join them.
	cancel()
	keys.Close()
	controller.Wait()
	loopErr := <-loopDone
	coordinator.Wait()

	events.Info(otel.KindShutdown, "main", "ctfterm exiting")
	logging.Info("ctfterm exiting", "dropped_events", events.Dropped())

	if uiErr != nil {
		return uiErr
	}
	if loopErr != nil && !errors.Is(loopErr, context.Canceled) {
		return loopErr
	}
	return nil
}

func logCacheStatus(ctx context.Context, st *store.Store) {
	statuses, err := st.Statuses(ctx)
	if err != nil {
		logging.Warn("feed cache status unavailable", "err", err)
		return
	}
	for _, s := range statuses {
		logging.Debug("cached feed", "feed", s.Kind, "rows", s.Rows, "fetched_at", s.FetchedAt, "last_error", s.LastError)
	}
}
