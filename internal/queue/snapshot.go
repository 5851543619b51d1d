package queue

import (
	"github.com/samber/lo"

	"github.com/cadence/cadence/internal/provider"
)

// Snapshot is a copy of the queue state safe to hand to callers.
type Snapshot struct {
	ID            string           `json:"id"`
	Tracks        []provider.Track `json:"tracks"`
	CurrentIndex  int              `json:"current_index"`
	Shuffled      bool             `json:"shuffled"`
	Repeat        RepeatMode       `json:"repeat"`
	OriginalOrder []provider.Track `json:"original_order,omitempty"`
}

// Current returns the current track of the snapshot.
func (s Snapshot) Current() (provider.Track, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Tracks) {
		return provider.Track{}, false
	}
	return s.Tracks[s.CurrentIndex], true
}

func (q *Queue) Snapshot() Snapshot {
	s := Snapshot{
		ID:           q.id,
		Tracks:       q.Items(),
		CurrentIndex: q.current,
		Shuffled:     q.shuffled,
		Repeat:       q.repeatMode,
	}
	if q.shuffled {
		s.OriginalOrder = q.OriginalOrder()
	}
	return s
}

// Restore replaces the queue state with s after validating it. An
// out-of-range index is clamped; a shuffle restore order that is not a
// permutation of the tracks is dropped, leaving shuffle off.
func (q *Queue) Restore(s Snapshot) {
	q.id = s.ID
	q.items = cloneTracks(s.Tracks)
	q.SetRepeatMode(s.Repeat)
	q.original = nil
	q.originalIndex = -1
	q.shuffled = false
	if s.Shuffled && samePermutation(s.Tracks, s.OriginalOrder) {
		q.shuffled = true
		q.original = cloneTracks(s.OriginalOrder)
	}
	switch {
	case len(q.items) == 0:
		q.current = -1
	default:
		q.current = clamp(s.CurrentIndex, 0, len(q.items)-1)
	}
}

func samePermutation(a, b []provider.Track) bool {
	if len(a) != len(b) {
		return false
	}
	count := lo.CountValuesBy(a, func(t provider.Track) string { return t.ID })
	for _, t := range b {
		if count[t.ID] == 0 {
			return false
		}
		count[t.ID]--
	}
	return true
}
