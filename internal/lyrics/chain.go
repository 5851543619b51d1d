package lyrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cadence/cadence/internal/provider"
)

// Source is a named lyric fetcher used in a Chain.
type Source struct {
	Name    string
	Fetcher provider.LyricsFetcher
}

// Chain asks each source in order and returns the first found result.
type Chain struct {
	sources []Source
	logger  *slog.Logger
}

// NewChain creates a chain over sources. A nil logger uses slog.Default().
func NewChain(logger *slog.Logger, sources ...Source) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{sources: sources, logger: logger}
}

// FetchLyrics implements provider.LyricsFetcher. A not-found answer from any
// source makes the overall result a clean not-found; an error is returned
// only when every source failed.
func (c *Chain) FetchLyrics(ctx context.Context, q provider.LyricsQuery) (provider.LyricsResult, error) {
	var errs []error
	answered := false
	for _, src := range c.sources {
		if err := ctx.Err(); err != nil {
			return provider.LyricsResult{}, err
		}
		res, err := src.Fetcher.FetchLyrics(ctx, q)
		if err != nil {
			c.logger.Warn("lyrics source failed, trying next",
				slog.String("source", src.Name), slog.String("artist", q.Artist),
				slog.String("title", q.Title), slog.Bool("retryable", provider.IsRetryable(err)),
				slog.Any("err", err))
			errs = append(errs, fmt.Errorf("%s: %w", src.Name, err))
			continue
		}
		answered = true
		if res.Found {
			if res.Source == "" {
				res.Source = src.Name
			}
			c.logger.Debug("lyrics found", slog.String("source", res.Source),
				slog.Bool("synced", res.SyncedText != ""), slog.Bool("instrumental", res.Instrumental))
			return res, nil
		}
	}
	if answered || len(errs) == 0 {
		return provider.LyricsResult{}, nil
	}
	return provider.LyricsResult{}, errors.Join(errs...)
}
