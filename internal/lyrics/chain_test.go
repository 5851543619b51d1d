package lyrics

import (
	"context"
	"errors"
	"testing"

	"github.com/cadence/cadence/internal/provider"
)

func fixed(res provider.LyricsResult, err error) provider.LyricsFetcher {
	return provider.LyricsFetcherFunc(func(ctx context.Context, q provider.LyricsQuery) (provider.LyricsResult, error) {
		return res, err
	})
}

func TestChainFirstFoundWins(t *testing.T) {
	c := NewChain(nil,
		Source{Name: "embedded", Fetcher: fixed(provider.LyricsResult{}, nil)},
		Source{Name: "lrclib", Fetcher: fixed(provider.LyricsResult{PlainText: "hi", Found: true}, nil)},
		Source{Name: "never", Fetcher: fixed(provider.LyricsResult{PlainText: "no", Found: true}, nil)},
	)
	res, err := c.FetchLyrics(context.Background(), provider.LyricsQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if res.PlainText != "hi" || res.Source != "lrclib" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestChainSkipsFailures(t *testing.T) {
	c := NewChain(nil,
		Source{Name: "broken", Fetcher: fixed(provider.LyricsResult{}, provider.ErrOffline)},
		Source{Name: "ok", Fetcher: fixed(provider.LyricsResult{SyncedText: "[00:01.00]x", Found: true}, nil)},
	)
	res, err := c.FetchLyrics(context.Background(), provider.LyricsQuery{})
	if err != nil || !res.Found {
		t.Fatalf("expected found result, got %+v %v", res, err)
	}
}

func TestChainNotFoundVersusFailure(t *testing.T) {
	c := NewChain(nil,
		Source{Name: "broken", Fetcher: fixed(provider.LyricsResult{}, provider.ErrOffline)},
		Source{Name: "empty", Fetcher: fixed(provider.LyricsResult{}, nil)},
	)
	res, err := c.FetchLyrics(context.Background(), provider.LyricsQuery{})
	if err != nil || res.Found {
		t.Fatalf("expected clean not found, got %+v %v", res, err)
	}

	c = NewChain(nil,
		Source{Name: "a", Fetcher: fixed(provider.LyricsResult{}, provider.ErrOffline)},
		Source{Name: "b", Fetcher: fixed(provider.LyricsResult{}, provider.ErrRateLimited)},
	)
	_, err = c.FetchLyrics(context.Background(), provider.LyricsQuery{})
	if !errors.Is(err, provider.ErrOffline) || !errors.Is(err, provider.ErrRateLimited) {
		t.Fatalf("expected joined errors, got %v", err)
	}
}

func TestChainHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewChain(nil, Source{Name: "a", Fetcher: fixed(provider.LyricsResult{Found: true}, nil)})
	if _, err := c.FetchLyrics(ctx, provider.LyricsQuery{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
