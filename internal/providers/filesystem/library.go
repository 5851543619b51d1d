// Package filesystem builds a track collection from local music directories
// and reads lyrics embedded in their tags.
package filesystem

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"github.com/cadence/cadence/internal/provider"
)

var allowedExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".m4a":  true,
	".ogg":  true,
	".wav":  true,
	".opus": true,
}

type Config struct {
	Roots []string
	// ProbeDuration runs ffprobe per file to fill DurationMs.
	ProbeDuration bool
	Logger        *slog.Logger
}

// Library scans configured roots on demand.
type Library struct {
	cfg Config
}

var _ provider.Library = (*Library)(nil)

func New(cfg Config) (*Library, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	roots := make([]string, 0, len(cfg.Roots))
	for _, r := range cfg.Roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			return nil, fmt.Errorf("library root %q: %w", r, err)
		}
		roots = append(roots, abs)
	}
	cfg.Roots = roots
	return &Library{cfg: cfg}, nil
}

func (l *Library) ID() string { return "filesystem" }

// Tracks walks every root and returns the playable files found, in walk
// order.
func (l *Library) Tracks(ctx context.Context) ([]provider.Track, error) {
	return l.Scan(ctx, l.cfg.Roots...)
}

// Scan reads the given files and directories. Unreadable entries are
// skipped; a path that does not exist is an error.
func (l *Library) Scan(ctx context.Context, paths ...string) ([]provider.Track, error) {
	var out []provider.Track
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("scan %q: %w", root, err)
		}
		if !info.IsDir() {
			if t, ok := l.readTrack(root); ok {
				out = append(out, t)
			}
			continue
		}
		err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil || d.IsDir() {
				return nil
			}
			if t, ok := l.readTrack(path); ok {
				out = append(out, t)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	l.cfg.Logger.Info("library scanned", slog.Int("roots", len(paths)), slog.Int("tracks", len(out)))
	return out, nil
}

func (l *Library) readTrack(path string) (provider.Track, bool) {
	if !allowedExtensions[strings.ToLower(filepath.Ext(path))] {
		return provider.Track{}, false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return provider.Track{}, false
	}
	f, err := os.Open(abs)
	if err != nil {
		l.cfg.Logger.Debug("skipping unreadable file", slog.String("path", abs), slog.Any("err", err))
		return provider.Track{}, false
	}
	defer f.Close()

	t := provider.Track{ID: hash(abs), Path: abs}
	meta, err := tag.ReadFrom(f)
	if err == nil {
		t.ArtistName = meta.Artist()
		t.AlbumTitle = meta.Album()
		t.Title = meta.Title()
		t.TrackNo, _ = meta.Track()
		t.DiscNo, _ = meta.Disc()
		t.Codec = string(meta.FileType())
	}
	if t.ArtistName == "" {
		t.ArtistName = "Unknown Artist"
	}
	if t.AlbumTitle == "" {
		t.AlbumTitle = filepath.Base(filepath.Dir(abs))
		if t.AlbumTitle == "." || t.AlbumTitle == "/" {
			t.AlbumTitle = "Unknown Album"
		}
	}
	if t.Title == "" {
		t.Title = strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	}
	if l.cfg.ProbeDuration {
		t.DurationMs = getDurationMs(abs)
	}
	return t, true
}

func hash(parts ...string) string {
	h := sha1.New()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// getDurationMs asks ffprobe for the container duration. 0 when ffprobe is
// missing or the file cannot be probed.
func getDurationMs(path string) int {
	cmd := exec.Command("ffprobe", "-v", "quiet", "-print_format", "json", "-show_format", path)
	out, err := cmd.Output()
	if err != nil {
		return 0
	}
	var result struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if json.Unmarshal(out, &result) != nil || result.Format.Duration == "" {
		return 0
	}
	var secs float64
	fmt.Sscanf(result.Format.Duration, "%f", &secs)
	return int(secs * 1000)
}
