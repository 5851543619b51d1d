package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cadence/cadence/internal/store"
)

// ErrCorruptSnapshot is returned when persisted queue data cannot be decoded.
var ErrCorruptSnapshot = errors.New("queue: corrupt persisted snapshot")

// Save persists the queue snapshot under store.KeyQueue.
func Save(ctx context.Context, st store.Store, q *Queue) error {
	b, err := json.Marshal(q.Snapshot())
	if err != nil {
		return fmt.Errorf("marshal queue: %w", err)
	}
	if err := st.Set(ctx, store.KeyQueue, string(b)); err != nil {
		return fmt.Errorf("save queue: %w", err)
	}
	return nil
}

// Load reads a persisted snapshot. ok is false when nothing was saved.
func Load(ctx context.Context, st store.Store) (Snapshot, bool, error) {
	raw, ok, err := st.Get(ctx, store.KeyQueue)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("load queue: %w", err)
	}
	if !ok || raw == "" {
		return Snapshot{}, false, nil
	}
	var s Snapshot
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Snapshot{}, false, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	return s, true, nil
}
