package queue

import (
	"errors"
	"math/rand"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/cadence/cadence/internal/provider"
)

type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatAll
	RepeatOne
)

func (m RepeatMode) String() string {
	switch m {
	case RepeatOff:
		return "off"
	case RepeatAll:
		return "all"
	case RepeatOne:
		return "one"
	default:
		return "unknown"
	}
}

// Next returns the following mode in the off -> all -> one -> off cycle.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatOff:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatOff
	}
}

// Shuffler permutes n elements through swap. rand.Shuffle is a Fisher-Yates
// implementation with this signature.
type Shuffler func(n int, swap func(i, j int))

// Queue maintains an ordered list of tracks and the current position.
// All methods are total: out-of-range indices are no-ops, never panics.
type Queue struct {
	id         string
	items      []provider.Track
	current    int
	repeatMode RepeatMode
	shuffled   bool
	shuffle    Shuffler

	// original is the order captured when shuffle was enabled and
	// originalIndex the current index at that moment.
	original      []provider.Track
	originalIndex int
}

var ErrEmpty = errors.New("queue is empty")

func New() *Queue {
	return NewWithShuffler(rand.Shuffle)
}

// NewWithShuffler returns a queue that uses fn to permute upcoming tracks.
func NewWithShuffler(fn Shuffler) *Queue {
	if fn == nil {
		fn = rand.Shuffle
	}
	return &Queue{items: []provider.Track{}, current: -1, shuffle: fn}
}

// ID identifies the queue instance; it changes every time Replace installs a
// new track list.
func (q *Queue) ID() string { return q.id }

func (q *Queue) Items() []provider.Track {
	out := make([]provider.Track, len(q.items))
	copy(out, q.items)
	return out
}

// OriginalOrder returns the pre-shuffle order, empty when shuffle is off.
func (q *Queue) OriginalOrder() []provider.Track {
	out := make([]provider.Track, len(q.original))
	copy(out, q.original)
	return out
}

func (q *Queue) Len() int { return len(q.items) }

func (q *Queue) Current() (provider.Track, error) {
	if q.current < 0 || q.current >= len(q.items) {
		return provider.Track{}, ErrEmpty
	}
	return q.items[q.current], nil
}

func (q *Queue) CurrentIndex() int {
	return q.current
}

// Replace installs tracks as the new queue starting at startIndex, which is
// clamped into range. With shuffle on, the start track is pinned at position
// 0 and the rest permuted; the caller order becomes the restore order.
// An empty list leaves the queue untouched and returns false.
func (q *Queue) Replace(tracks []provider.Track, startIndex int) bool {
	if len(tracks) == 0 {
		return false
	}
	startIndex = clamp(startIndex, 0, len(tracks)-1)
	q.id = uuid.NewString()

	if !q.shuffled {
		q.items = cloneTracks(tracks)
		q.current = startIndex
		q.original = nil
		return true
	}

	q.original = cloneTracks(tracks)
	q.originalIndex = startIndex
	items := make([]provider.Track, 0, len(tracks))
	items = append(items, tracks[startIndex])
	items = append(items, tracks[:startIndex]...)
	items = append(items, tracks[startIndex+1:]...)
	q.permute(items[1:])
	q.items = items
	q.current = 0
	return true
}

func (q *Queue) Add(tracks ...provider.Track) {
	q.items = append(q.items, tracks...)
	if q.shuffled {
		q.original = append(q.original, tracks...)
	}
	if q.current == -1 && len(q.items) > 0 {
		q.current = 0
	}
}

// AddNext inserts track right after the current one.
func (q *Queue) AddNext(track provider.Track) {
	if q.current == -1 {
		q.Add(track)
		return
	}
	q.items = insertAt(q.items, q.current+1, track)
	if q.shuffled {
		cur := q.items[q.current]
		_, pos, ok := lo.FindIndexOf(q.original, func(t provider.Track) bool { return t.ID == cur.ID })
		if !ok {
			pos = len(q.original) - 1
		}
		q.original = insertAt(q.original, pos+1, track)
	}
}

// Remove deletes the track at idx. A removal before the current position
// keeps the same logical track current; removing the current track leaves the
// index on whatever now occupies that slot.
func (q *Queue) Remove(idx int) bool {
	if idx < 0 || idx >= len(q.items) {
		return false
	}
	removed := q.items[idx]
	q.items = append(q.items[:idx:idx], q.items[idx+1:]...)
	if q.shuffled {
		if _, pos, ok := lo.FindIndexOf(q.original, func(t provider.Track) bool { return t.ID == removed.ID }); ok {
			q.original = append(q.original[:pos:pos], q.original[pos+1:]...)
		}
	}
	if len(q.items) == 0 {
		q.current = -1
		return true
	}
	if idx < q.current {
		q.current--
	} else if idx == q.current && q.current >= len(q.items) {
		q.current = len(q.items) - 1
	}
	return true
}

func (q *Queue) Move(from, to int) bool {
	if from < 0 || from >= len(q.items) || to < 0 || to >= len(q.items) {
		return false
	}
	if from == to {
		return true
	}
	item := q.items[from]
	if from < to {
		copy(q.items[from:], q.items[from+1:to+1])
	} else {
		copy(q.items[to+1:], q.items[to:from])
	}
	q.items[to] = item
	if q.current == from {
		q.current = to
	} else if from < q.current && to >= q.current {
		q.current--
	} else if from > q.current && to <= q.current {
		q.current++
	}
	return true
}

// ToggleShuffle flips shuffle mode. Enabling keeps everything up to and
// including the current track in place and permutes only what follows.
// Disabling restores the saved order and relocates the current track by ID.
func (q *Queue) ToggleShuffle() {
	if !q.shuffled {
		q.shuffled = true
		q.original = cloneTracks(q.items)
		q.originalIndex = q.current
		start := q.current + 1
		if start < 0 {
			start = 0
		}
		if start < len(q.items) {
			q.permute(q.items[start:])
		}
		return
	}

	cur, err := q.Current()
	q.shuffled = false
	q.items = q.original
	if q.items == nil {
		q.items = []provider.Track{}
	}
	q.original = nil
	switch {
	case len(q.items) == 0:
		q.current = -1
	case err != nil:
		q.current = 0
	case q.originalIndex >= 0 && q.originalIndex < len(q.items) && q.items[q.originalIndex].ID == cur.ID:
		q.current = q.originalIndex
	default:
		_, idx, ok := lo.FindIndexOf(q.items, func(t provider.Track) bool { return t.ID == cur.ID })
		if !ok {
			// Current track no longer in the saved order.
			idx = 0
		}
		q.current = idx
	}
}

func (q *Queue) permute(tracks []provider.Track) {
	q.shuffle(len(tracks), func(i, j int) {
		tracks[i], tracks[j] = tracks[j], tracks[i]
	})
}

func (q *Queue) CycleRepeat() RepeatMode {
	q.repeatMode = q.repeatMode.Next()
	return q.repeatMode
}

func (q *Queue) SetRepeatMode(m RepeatMode) {
	if m < RepeatOff || m > RepeatOne {
		m = RepeatOff
	}
	q.repeatMode = m
}

func (q *Queue) RepeatMode() RepeatMode {
	return q.repeatMode
}

func (q *Queue) IsShuffled() bool {
	return q.shuffled
}

// NextIndex returns the position Next would move to. ok is false at the end
// of the queue unless repeat all wraps it.
func (q *Queue) NextIndex() (int, bool) {
	if len(q.items) == 0 {
		return 0, false
	}
	next := q.current + 1
	if next < len(q.items) {
		return next, true
	}
	if q.repeatMode == RepeatAll {
		return 0, true
	}
	return q.current, false
}

// PrevIndex returns the position Prev would move to. ok is false at the start
// of the queue unless repeat all wraps it.
func (q *Queue) PrevIndex() (int, bool) {
	if len(q.items) == 0 {
		return 0, false
	}
	prev := q.current - 1
	if prev >= 0 {
		return prev, true
	}
	if q.repeatMode == RepeatAll {
		return len(q.items) - 1, true
	}
	return q.current, false
}

// Next advances the current position. At the end without repeat all it
// returns false and leaves the position unchanged.
func (q *Queue) Next() (provider.Track, bool) {
	idx, ok := q.NextIndex()
	if !ok {
		return provider.Track{}, false
	}
	q.current = idx
	return q.items[idx], true
}

// Prev moves back one position, wrapping only under repeat all.
func (q *Queue) Prev() (provider.Track, bool) {
	idx, ok := q.PrevIndex()
	if !ok {
		return provider.Track{}, false
	}
	q.current = idx
	return q.items[idx], true
}

// PeekNext returns the track Next would move to without moving.
func (q *Queue) PeekNext() (provider.Track, bool) {
	idx, ok := q.NextIndex()
	if !ok {
		return provider.Track{}, false
	}
	return q.items[idx], true
}

func (q *Queue) SetCurrent(idx int) bool {
	if idx < 0 || idx >= len(q.items) {
		return false
	}
	q.current = idx
	return true
}

// Clear empties the queue. Shuffle and repeat modes are kept.
func (q *Queue) Clear() {
	q.items = []provider.Track{}
	q.original = nil
	q.current = -1
}

func cloneTracks(in []provider.Track) []provider.Track {
	out := make([]provider.Track, len(in))
	copy(out, in)
	return out
}

func insertAt(s []provider.Track, idx int, t provider.Track) []provider.Track {
	idx = clamp(idx, 0, len(s))
	s = append(s, provider.Track{})
	copy(s[idx+1:], s[idx:])
	s[idx] = t
	return s
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
