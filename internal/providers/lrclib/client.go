// Package lrclib fetches lyrics from an LRCLIB server.
package lrclib

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cadence/cadence/internal/provider"
)

const (
	DefaultBaseURL = "https://lrclib.net"
	userAgent      = "cadence (https://github.com/cadence/cadence)"
)

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client implements provider.LyricsFetcher against the /api/get endpoint.
type Client struct {
	base   *url.URL
	client *http.Client
	logger *slog.Logger
}

var _ provider.LyricsFetcher = (*Client)(nil)

type getResponse struct {
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
}

func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("lrclib base url %q: %w", cfg.BaseURL, provider.ErrInvalidConfig)
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 8 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{base: base, client: client, logger: logger}, nil
}

// FetchLyrics looks up a track by artist and title, narrowed by album and
// duration when known. A 404 is a clean not-found.
func (c *Client) FetchLyrics(ctx context.Context, q provider.LyricsQuery) (provider.LyricsResult, error) {
	if strings.TrimSpace(q.Artist) == "" || strings.TrimSpace(q.Title) == "" {
		return provider.LyricsResult{}, nil
	}
	u := *c.base
	u.Path += "/api/get"
	params := url.Values{}
	params.Set("artist_name", q.Artist)
	params.Set("track_name", q.Title)
	if q.Album != "" {
		params.Set("album_name", q.Album)
	}
	if q.DurationSeconds > 0 {
		params.Set("duration", strconv.Itoa(int(math.Round(q.DurationSeconds))))
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return provider.LyricsResult{}, fmt.Errorf("build lrclib request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("lrclib request", slog.String("artist", q.Artist), slog.String("title", q.Title))
	resp, err := c.client.Do(req)
	if err != nil {
		return provider.LyricsResult{}, mapHTTPError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return provider.LyricsResult{}, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return provider.LyricsResult{}, provider.ErrRateLimited
	case resp.StatusCode >= 500:
		return provider.LyricsResult{}, fmt.Errorf("lrclib status %d: %w", resp.StatusCode, provider.ErrTemporary)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return provider.LyricsResult{}, fmt.Errorf("lrclib status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var data getResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return provider.LyricsResult{}, fmt.Errorf("decode lrclib response: %w", err)
	}
	res := provider.LyricsResult{
		SyncedText:   data.SyncedLyrics,
		PlainText:    data.PlainLyrics,
		Instrumental: data.Instrumental,
		Source:       "lrclib",
	}
	res.Found = res.Instrumental || strings.TrimSpace(res.SyncedText) != "" || strings.TrimSpace(res.PlainText) != ""
	return res, nil
}

func mapHTTPError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("lrclib request: %w", provider.ErrTemporary)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("lrclib request: %w", provider.ErrTemporary)
	}
	return fmt.Errorf("lrclib request: %w: %v", provider.ErrOffline, err)
}
