package lyrics

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cadence/cadence/internal/provider"
)

type countingFetcher struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (f *countingFetcher) FetchLyrics(ctx context.Context, q provider.LyricsQuery) (provider.LyricsResult, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return provider.LyricsResult{}, f.err
	}
	return provider.LyricsResult{PlainText: q.Artist + " - " + q.Title, Found: true}, nil
}

func TestCachingFetcherMemoizes(t *testing.T) {
	upstream := &countingFetcher{}
	c, err := NewCachingFetcher(upstream, 4)
	if err != nil {
		t.Fatalf("NewCachingFetcher: %v", err)
	}
	ctx := context.Background()
	q := provider.LyricsQuery{Artist: "Band", Title: "Song"}
	for i := 0; i < 3; i++ {
		res, err := c.FetchLyrics(ctx, q)
		if err != nil || !res.Found {
			t.Fatalf("fetch %d: %+v %v", i, res, err)
		}
	}
	// Keys are case and whitespace insensitive.
	if _, err := c.FetchLyrics(ctx, provider.LyricsQuery{Artist: " band", Title: "SONG "}); err != nil {
		t.Fatal(err)
	}
	if got := upstream.calls.Load(); got != 1 {
		t.Fatalf("expected 1 upstream call, got %d", got)
	}
}

func TestCachingFetcherBounded(t *testing.T) {
	upstream := &countingFetcher{}
	c, _ := NewCachingFetcher(upstream, 2)
	ctx := context.Background()
	for _, title := range []string{"a", "b", "c"} {
		_, _ = c.FetchLyrics(ctx, provider.LyricsQuery{Artist: "x", Title: title})
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 cached entries, got %d", c.Len())
	}
	_, _ = c.FetchLyrics(ctx, provider.LyricsQuery{Artist: "x", Title: "a"})
	if got := upstream.calls.Load(); got != 4 {
		t.Fatalf("evicted entry should be refetched, calls=%d", got)
	}
}

func TestCachingFetcherDoesNotCacheErrors(t *testing.T) {
	upstream := &countingFetcher{err: provider.ErrTemporary}
	c, _ := NewCachingFetcher(upstream, 0)
	ctx := context.Background()
	q := provider.LyricsQuery{Artist: "x", Title: "y"}
	for i := 0; i < 2; i++ {
		if _, err := c.FetchLyrics(ctx, q); !errors.Is(err, provider.ErrTemporary) {
			t.Fatalf("expected temporary error, got %v", err)
		}
	}
	if upstream.calls.Load() != 2 || c.Len() != 0 {
		t.Fatalf("errors must not be cached: calls=%d len=%d", upstream.calls.Load(), c.Len())
	}
}

func TestCachingFetcherCoalescesConcurrentLookups(t *testing.T) {
	upstream := &countingFetcher{delay: 50 * time.Millisecond}
	c, _ := NewCachingFetcher(upstream, 4)
	q := provider.LyricsQuery{Artist: "x", Title: "y"}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.FetchLyrics(context.Background(), q)
		}()
	}
	wg.Wait()
	if got := upstream.calls.Load(); got != 1 {
		t.Fatalf("expected a single upstream call, got %d", got)
	}
}
