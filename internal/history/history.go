// Package history keeps the bounded, deduplicated list of recently played
// tracks.
package history

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/samber/lo"

	"github.com/cadence/cadence/internal/provider"
	"github.com/cadence/cadence/internal/store"
)

// MaxSize is the number of entries kept.
const MaxSize = 20

// Buffer is the recent-history list, most recent first. When a store is
// attached every mutation is written through; write failures are logged and
// never returned.
type Buffer struct {
	mu      sync.Mutex
	entries []provider.Track
	store   store.Store
	logger  *slog.Logger
}

// New returns an empty, unpersisted buffer.
func New() *Buffer {
	return &Buffer{logger: slog.Default()}
}

// Load restores the buffer from st. Missing or unreadable data yields an
// empty buffer.
func Load(ctx context.Context, st store.Store, logger *slog.Logger) *Buffer {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Buffer{store: st, logger: logger}
	if st == nil {
		return b
	}
	raw, ok, err := st.Get(ctx, store.KeyHistory)
	if err != nil {
		logger.Warn("history unavailable, starting empty", slog.Any("err", err))
		return b
	}
	if !ok || raw == "" {
		return b
	}
	var entries []provider.Track
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		logger.Warn("history corrupt, starting empty", slog.Any("err", err))
		return b
	}
	entries = lo.Filter(entries, func(t provider.Track, _ int) bool { return t.ID != "" })
	b.entries = lo.UniqBy(entries, func(t provider.Track) string { return t.ID })
	if len(b.entries) > MaxSize {
		b.entries = b.entries[:MaxSize]
	}
	return b
}

// Add moves track to the front, dropping any earlier entry with the same ID.
func (b *Buffer) Add(ctx context.Context, track provider.Track) {
	if track.ID == "" {
		return
	}
	b.mu.Lock()
	rest := lo.Reject(b.entries, func(t provider.Track, _ int) bool { return t.ID == track.ID })
	entries := append([]provider.Track{track}, rest...)
	if len(entries) > MaxSize {
		entries = entries[:MaxSize]
	}
	b.entries = entries
	snapshot := b.snapshotLocked()
	b.mu.Unlock()
	b.persist(ctx, snapshot)
}

// Clear empties the buffer.
func (b *Buffer) Clear(ctx context.Context) {
	b.mu.Lock()
	b.entries = nil
	b.mu.Unlock()
	b.persist(ctx, []provider.Track{})
}

// Entries returns a copy of the history, most recent first.
func (b *Buffer) Entries() []provider.Track {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

func (b *Buffer) snapshotLocked() []provider.Track {
	out := make([]provider.Track, len(b.entries))
	copy(out, b.entries)
	return out
}

func (b *Buffer) persist(ctx context.Context, entries []provider.Track) {
	if b.store == nil {
		return
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		b.logger.Warn("encode history", slog.Any("err", err))
		return
	}
	if err := b.store.Set(ctx, store.KeyHistory, string(raw)); err != nil {
		b.logger.Warn("save history", slog.Any("err", err))
	}
}
