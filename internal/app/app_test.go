package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cadence/cadence/internal/media"
	"github.com/cadence/cadence/internal/playback"
	"github.com/cadence/cadence/internal/provider"
	"github.com/cadence/cadence/internal/ui"
)

func sampleTracks(n int) []provider.Track {
	var out []provider.Track
	for i := 0; i < n; i++ {
		out = append(out, provider.Track{
			ID:         fmt.Sprintf("t%d", i),
			Title:      fmt.Sprintf("Track %d", i),
			ArtistName: "Artist",
			DurationMs: 200000,
			StreamURL:  fmt.Sprintf("mem://t%d", i),
		})
	}
	return out
}

func newTestModel(t *testing.T, tracks int) (Model, *playback.Controller, *media.Recorder) {
	t.Helper()
	rec := &media.Recorder{}
	ctrl, err := playback.New(context.Background(), playback.Options{Backend: rec})
	if err != nil {
		t.Fatalf("controller: %v", err)
	}
	t.Cleanup(ctrl.Close)
	if tracks > 0 {
		ctrl.PlayQueue(context.Background(), sampleTracks(tracks), 0)
	}
	rec.Reset()
	m := New(context.Background(), Options{Controller: ctrl, Theme: ui.NoColor(), NoEmoji: true, SeekStep: 10, VolumeStep: 0.1})
	return m, ctrl, rec
}

func press(t *testing.T, m Model, keys ...tea.KeyMsg) Model {
	t.Helper()
	for _, k := range keys {
		updated, _ := m.Update(k)
		m = updated.(Model)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTransportKeys(t *testing.T) {
	m, ctrl, rec := newTestModel(t, 3)

	m = press(t, m, runes("n"))
	if cur, _ := ctrl.CurrentTrack(); cur.ID != "t1" {
		t.Fatalf("n should advance, current %s", cur.ID)
	}
	m = press(t, m, runes("p"))
	if cur, _ := ctrl.CurrentTrack(); cur.ID != "t0" {
		t.Fatalf("p should go back, current %s", cur.ID)
	}

	rec.Reset()
	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if got := rec.Commands(); len(got) != 1 || got[0] != "pause" {
		t.Fatalf("space should pause, got %v", got)
	}

	rec.Reset()
	m = press(t, m, runes("l"))
	if got := rec.Commands(); len(got) != 1 || got[0] != "seek 10" {
		t.Fatalf("l should seek forward, got %v", got)
	}
	m = press(t, m, runes("h"), runes("h"))
	if st := ctrl.State(); st.Elapsed != 0 {
		t.Fatalf("seek back should clamp at 0, got %v", st.Elapsed)
	}

	m = press(t, m, runes("-"))
	if v := ctrl.Volume(); v < 0.89 || v > 0.91 {
		t.Fatalf("volume down expected 0.9, got %v", v)
	}
	if !strings.Contains(m.status, "90%") {
		t.Fatalf("status should show volume, got %q", m.status)
	}
}

func TestModeKeysUpdateStatus(t *testing.T) {
	m, ctrl, _ := newTestModel(t, 3)
	m = press(t, m, runes("s"))
	if !ctrl.State().Shuffled || m.status != "Shuffle on" {
		t.Fatalf("expected shuffle on, status %q", m.status)
	}
	m = press(t, m, runes("r"))
	if m.status != "Repeat: all" {
		t.Fatalf("expected repeat all status, got %q", m.status)
	}
}

func TestQueueSelectionKeys(t *testing.T) {
	m, ctrl, rec := newTestModel(t, 3)

	m = press(t, m, runes("k"))
	if m.selection != 0 {
		t.Fatalf("selection should clamp at 0, got %d", m.selection)
	}
	m = press(t, m, runes("j"), runes("j"), runes("j"), runes("j"))
	if m.selection != 2 {
		t.Fatalf("selection should clamp at last row, got %d", m.selection)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cur, _ := ctrl.CurrentTrack(); cur.ID != "t2" {
		t.Fatalf("enter should play selected, current %s", cur.ID)
	}
	if got := rec.Commands(); len(got) == 0 || got[len(got)-1] != "load mem://t2" {
		t.Fatalf("expected load of t2, got %v", got)
	}

	m = press(t, m, runes("d"))
	if n := len(ctrl.QueueSnapshot().Tracks); n != 2 {
		t.Fatalf("d should remove selected, queue has %d", n)
	}
	if m.selection != 1 {
		t.Fatalf("selection should follow shrinking queue, got %d", m.selection)
	}

	m = press(t, m, runes("c"))
	if _, ok := ctrl.CurrentTrack(); ok {
		t.Fatalf("c should clear the queue")
	}
	if m.selection != 0 {
		t.Fatalf("selection should reset on empty queue")
	}
}

func yieldsQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	switch msg := cmd().(type) {
	case tea.QuitMsg:
		return true
	case tea.BatchMsg:
		for _, c := range msg {
			if yieldsQuit(c) {
				return true
			}
		}
	}
	return false
}

func TestQuitKey(t *testing.T) {
	m, _, _ := newTestModel(t, 0)
	updated, cmd := m.Update(runes("q"))
	m = updated.(Model)
	if !m.quitting || cmd == nil {
		t.Fatalf("q should quit")
	}
	if !yieldsQuit(cmd) {
		t.Fatalf("expected quit message")
	}
	if m.View() != "" {
		t.Fatalf("view should be empty after quit")
	}
}

func TestEventMessagesReachController(t *testing.T) {
	m, ctrl, _ := newTestModel(t, 2)
	updated, _ := m.Update(eventMsg(media.StartedEvent()))
	m = updated.(Model)
	updated, _ = m.Update(eventMsg(media.TimeUpdateEvent(42)))
	m = updated.(Model)
	if st := ctrl.State(); st.Elapsed != 42 {
		t.Fatalf("time update not applied, elapsed %v", st.Elapsed)
	}

	updated, _ = m.Update(eventMsg(media.ErrorEvent(errors.New("decode failed"))))
	m = updated.(Model)
	if m.errorMsg != "decode failed" || m.diag.PlayerErrors != 1 {
		t.Fatalf("expected error surfaced, got %q", m.errorMsg)
	}
	updated, _ = m.Update(clearErrorMsg{})
	m = updated.(Model)
	if m.errorMsg != "" {
		t.Fatalf("error should clear")
	}
}

func TestWatchEventsForwardsChannel(t *testing.T) {
	events := make(chan media.Event, 1)
	m, _, _ := newTestModel(t, 1)
	m.events = events
	events <- media.DurationEvent(99)
	msg := m.watchEventsCmd()()
	if ev, ok := msg.(eventMsg); !ok || ev.Kind != media.DurationKnown {
		t.Fatalf("expected duration event, got %#v", msg)
	}
	close(events)
	if _, ok := m.watchEventsCmd()().(eventsClosedMsg); !ok {
		t.Fatalf("expected closed message")
	}
}

func TestViewShowsQueueAndLyricState(t *testing.T) {
	m, _, _ := newTestModel(t, 2)
	view := m.View()
	for _, want := range []string{"Track 0", "Queue (2)", "Recently Played", "> Artist — Track 0", "Up next: Artist — Track 1"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
	m = press(t, m, runes("?"))
	if !strings.Contains(m.View(), "space") {
		t.Fatalf("help should list keys")
	}
}

func TestClearHistoryKey(t *testing.T) {
	m, ctrl, _ := newTestModel(t, 3)
	m = press(t, m, runes("n"), runes("n"))
	if len(ctrl.RecentHistory()) != 2 {
		t.Fatalf("expected two history entries, got %d", len(ctrl.RecentHistory()))
	}
	m = press(t, m, runes("x"))
	if len(ctrl.RecentHistory()) != 0 || m.status != "History cleared" {
		t.Fatalf("x should clear history, status %q", m.status)
	}
	if !strings.Contains(m.View(), "(none)") {
		t.Fatalf("view should show empty history")
	}
}
