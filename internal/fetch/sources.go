package fetch

import (
	"github.com/abelbrown/ctfterm/internal/config"
	"github.com/abelbrown/ctfterm/internal/model"
)

// DefaultSources returns the four CTFtime feeds resolved against cfg,
// in model.AllFeeds order.
func DefaultSources(cfg *config.Config) []model.Source {
	paths := map[model.FeedKind]string{
		model.FeedRunning:     cfg.RunningPath,
		model.FeedPast:        cfg.PastPath,
		model.FeedWriteups:    cfg.WriteupsPath,
		model.FeedLeaderboard: cfg.LeaderboardPath,
	}
	sources := make([]model.Source, 0, len(paths))
	for _, kind := range model.AllFeeds() {
		sources = append(sources, model.Source{Kind: kind, URL: cfg.FeedURL(paths[kind])})
	}
	return sources
}

// OptionsFromConfig maps the fetch settings of cfg onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Timeout:   cfg.FetchTimeout,
		Retries:   cfg.FetchRetries,
		RateLimit: cfg.RateLimit,
		UserAgent: cfg.UserAgent,
	}
}
