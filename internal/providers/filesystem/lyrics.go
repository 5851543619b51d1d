package filesystem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dhowden/tag"

	"github.com/cadence/cadence/internal/lyrics"
	"github.com/cadence/cadence/internal/provider"
)

// EmbeddedLyrics reads the lyrics tag (ID3 USLT, Vorbis LYRICS, MP4 ©lyr) of
// local files. Text carrying LRC time tags is reported as synced.
type EmbeddedLyrics struct{}

var _ provider.LyricsFetcher = EmbeddedLyrics{}

func (EmbeddedLyrics) FetchLyrics(ctx context.Context, q provider.LyricsQuery) (provider.LyricsResult, error) {
	if q.Path == "" {
		return provider.LyricsResult{}, nil
	}
	if err := ctx.Err(); err != nil {
		return provider.LyricsResult{}, err
	}
	f, err := os.Open(q.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return provider.LyricsResult{}, nil
		}
		return provider.LyricsResult{}, fmt.Errorf("open %q: %w", q.Path, err)
	}
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	if err != nil {
		if errors.Is(err, tag.ErrNoTagsFound) {
			return provider.LyricsResult{}, nil
		}
		return provider.LyricsResult{}, fmt.Errorf("read tags %q: %w", q.Path, err)
	}
	text := strings.TrimSpace(meta.Lyrics())
	if text == "" {
		return provider.LyricsResult{}, nil
	}
	res := provider.LyricsResult{Found: true, Source: "embedded"}
	if lyrics.ParseSynced(text).Synced() {
		res.SyncedText = text
	} else {
		res.PlainText = text
	}
	return res, nil
}
