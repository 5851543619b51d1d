package provider

import "context"

// Track is an immutable playable item. Collections own their tracks; the
// playback core only holds references by value and never mutates them.
type Track struct {
	ID         string
	Title      string
	ArtistName string
	AlbumTitle string
	DurationMs int
	TrackNo    int
	DiscNo     int
	Codec      string
	ArtworkRef string

	// StreamURL is what the media backend loads.
	StreamURL string
	// Path is set for tracks backed by a local file.
	Path string
}

// DurationSeconds returns the known track length in seconds.
func (t Track) DurationSeconds() float64 {
	if t.DurationMs <= 0 {
		return 0
	}
	return float64(t.DurationMs) / 1000
}

// SourceRef returns the reference handed to the media backend.
func (t Track) SourceRef() string {
	if t.StreamURL != "" {
		return t.StreamURL
	}
	if t.Path != "" {
		return "file://" + t.Path
	}
	return ""
}

// LyricsQuery identifies the track lyrics are requested for.
type LyricsQuery struct {
	Artist          string
	Title           string
	Album           string
	DurationSeconds float64
	Path            string
}

// QueryFor builds a lyrics query for a track.
func QueryFor(t Track) LyricsQuery {
	return LyricsQuery{
		Artist:          t.ArtistName,
		Title:           t.Title,
		Album:           t.AlbumTitle,
		DurationSeconds: t.DurationSeconds(),
		Path:            t.Path,
	}
}

// LyricsResult is the normalized answer of a lyric source.
type LyricsResult struct {
	SyncedText   string
	PlainText    string
	Instrumental bool
	Found        bool
	Source       string
}

// LyricsFetcher retrieves lyric text for a track. Implementations own their
// timeout and retry policy; a missing lyric is reported with Found=false, not
// an error.
type LyricsFetcher interface {
	FetchLyrics(ctx context.Context, q LyricsQuery) (LyricsResult, error)
}

// LyricsFetcherFunc adapts a function to LyricsFetcher.
type LyricsFetcherFunc func(ctx context.Context, q LyricsQuery) (LyricsResult, error)

func (f LyricsFetcherFunc) FetchLyrics(ctx context.Context, q LyricsQuery) (LyricsResult, error) {
	return f(ctx, q)
}

// Library yields the track collection playback starts from.
type Library interface {
	ID() string
	Tracks(ctx context.Context) ([]Track, error)
}
