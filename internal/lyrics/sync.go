package lyrics

import (
	"math"
	"sort"
)

// FindCurrentLine returns the index of the last line whose time is <= t, or
// -1 when no line qualifies or the document is not synced. When several lines
// share a time the later one wins.
func FindCurrentLine(doc Document, t float64) int {
	if !doc.synced || len(doc.lines) == 0 || math.IsNaN(t) {
		return -1
	}
	next := sort.Search(len(doc.lines), func(i int) bool {
		return doc.lines[i].Time > t
	})
	return next - 1
}

// SeekToLine returns the time of line i. ok is false for untimed or missing
// lines; callers should not seek in that case.
func SeekToLine(doc Document, i int) (seconds float64, ok bool) {
	line, found := doc.Line(i)
	if !found || !line.Timed {
		return 0, false
	}
	return line.Time, true
}

// Synchronizer tracks the active line of one document across playback ticks.
type Synchronizer struct {
	doc     Document
	current int
}

// NewSynchronizer returns a synchronizer with no line resolved.
func NewSynchronizer(doc Document) *Synchronizer {
	return &Synchronizer{doc: doc, current: -1}
}

// Update resolves the line for t. changed is true only when the index differs
// from the previously resolved one.
func (s *Synchronizer) Update(t float64) (index int, changed bool) {
	idx := FindCurrentLine(s.doc, t)
	if idx == s.current {
		return idx, false
	}
	s.current = idx
	return idx, true
}

// Current returns the last resolved index, -1 when none.
func (s *Synchronizer) Current() int { return s.current }

// Document returns the document being tracked.
func (s *Synchronizer) Document() Document { return s.doc }

// Reset drops resolution state. Used after a backward seek or restart.
func (s *Synchronizer) Reset() { s.current = -1 }

// Load swaps the tracked document and resets resolution state.
func (s *Synchronizer) Load(doc Document) {
	s.doc = doc
	s.current = -1
}
