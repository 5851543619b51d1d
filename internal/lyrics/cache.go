package lyrics

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/cadence/cadence/internal/provider"
)

// DefaultCacheSize bounds how many (artist, title) results are memoized.
const DefaultCacheSize = 32

// CachingFetcher memoizes results of another fetcher keyed by artist and
// title. Concurrent lookups of the same key share one upstream call. Errors
// are never cached.
type CachingFetcher struct {
	next  provider.LyricsFetcher
	cache *lru.Cache[string, provider.LyricsResult]
	group singleflight.Group
}

// NewCachingFetcher wraps next with a cache of the given size. size <= 0 uses
// DefaultCacheSize.
func NewCachingFetcher(next provider.LyricsFetcher, size int) (*CachingFetcher, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, provider.LyricsResult](size)
	if err != nil {
		return nil, fmt.Errorf("create lyrics cache: %w", err)
	}
	return &CachingFetcher{next: next, cache: cache}, nil
}

func cacheKey(q provider.LyricsQuery) string {
	return strings.ToLower(strings.TrimSpace(q.Artist)) + "\x00" + strings.ToLower(strings.TrimSpace(q.Title))
}

// FetchLyrics implements provider.LyricsFetcher.
func (c *CachingFetcher) FetchLyrics(ctx context.Context, q provider.LyricsQuery) (provider.LyricsResult, error) {
	key := cacheKey(q)
	if res, ok := c.cache.Get(key); ok {
		return res, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		res, err := c.next.FetchLyrics(ctx, q)
		if err != nil {
			return provider.LyricsResult{}, err
		}
		c.cache.Add(key, res)
		return res, nil
	})
	if err != nil {
		return provider.LyricsResult{}, err
	}
	return v.(provider.LyricsResult), nil
}

// Len returns the number of cached entries.
func (c *CachingFetcher) Len() int { return c.cache.Len() }
