package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cadence/cadence/internal/playback"
	"github.com/cadence/cadence/internal/provider"
	"github.com/cadence/cadence/internal/queue"
)

const (
	lyricContext = 2
	queueRows    = 10
	historyRows  = 5
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.showDiag {
		return m.diag.Render(&m)
	}
	top := m.theme.Title.Render("Cadence")
	status := m.theme.Dim.Render(m.status)
	if m.errorMsg != "" {
		status = m.theme.Error.Render(m.errorMsg)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		top,
		m.renderNowPlaying(),
		m.renderLyrics(),
		m.renderQueue(),
		m.renderHistory(),
		status,
		m.renderPlayerBar(),
	)
}

func (m Model) renderNowPlaying() string {
	var b strings.Builder
	cur, ok := m.ctrl.CurrentTrack()
	if !ok {
		b.WriteString(m.theme.Dim.Render("Nothing playing") + "\n")
		return b.String()
	}
	b.WriteString(m.theme.Accent.Render(cur.Title) + "\n")
	b.WriteString(m.theme.Text.Render(cur.ArtistName) + "\n")
	if cur.AlbumTitle != "" {
		b.WriteString(m.theme.Dim.Render(cur.AlbumTitle) + "\n")
	}

	st := m.ctrl.State()
	width := m.width - 4
	if width < 10 {
		width = 10
	}
	pct := 0.0
	if st.Duration > 0 {
		pct = st.Elapsed / st.Duration
	}
	filled := clamp(int(float64(width)*pct), 0, width)
	bar := strings.Repeat("━", filled) + strings.Repeat("─", width-filled)
	b.WriteString(m.theme.Border.Render(bar) + "\n")
	b.WriteString(m.theme.Dim.Render(fmt.Sprintf("%s / %s", formatClock(st.Elapsed), formatClock(st.Duration))) + "\n")
	if next, ok := m.ctrl.UpNext(); ok {
		b.WriteString(m.theme.Dim.Render("Up next: "+trackLine(next)) + "\n")
	}
	return b.String()
}

func (m Model) renderLyrics() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Lyrics") + "\n")
	switch m.ctrl.LyricsStatus() {
	case playback.LyricsIdle:
		b.WriteString(m.theme.Dim.Render("-") + "\n")
		return b.String()
	case playback.LyricsLoading:
		b.WriteString(m.theme.Dim.Render("Looking up lyrics…") + "\n")
		return b.String()
	case playback.LyricsNotFound:
		b.WriteString(m.theme.Dim.Render("No lyrics found") + "\n")
		return b.String()
	case playback.LyricsInstrumental:
		b.WriteString(m.theme.Dim.Render(m.glyph("♪ Instrumental ♪", "(instrumental)")) + "\n")
		return b.String()
	case playback.LyricsError:
		b.WriteString(m.theme.Error.Render("Lyrics unavailable") + "\n")
		return b.String()
	}

	lines := m.ctrl.LyricLines()
	if !m.ctrl.LyricsSynced() {
		for i, l := range lines {
			if i >= 2*lyricContext+1 {
				b.WriteString(m.theme.Dim.Render("…") + "\n")
				break
			}
			b.WriteString(m.theme.Text.Render(l.Text) + "\n")
		}
		return b.String()
	}

	active := m.ctrl.CurrentLyricLine()
	start := active - lyricContext
	if start < 0 {
		start = 0
	}
	end := start + 2*lyricContext + 1
	if end > len(lines) {
		end = len(lines)
	}
	for i := start; i < end; i++ {
		style := m.theme.LyricNear
		if i == active {
			style = m.theme.LyricActive
		}
		b.WriteString(style.Render(lines[i].Text) + "\n")
	}
	return b.String()
}

func (m Model) renderQueue() string {
	var b strings.Builder
	snap := m.ctrl.QueueSnapshot()
	b.WriteString(m.theme.Title.Render(fmt.Sprintf("Queue (%d)", len(snap.Tracks))) + "\n")
	if len(snap.Tracks) == 0 {
		b.WriteString(m.theme.Dim.Render("(empty)") + "\n")
		return b.String()
	}
	start := clamp(m.selection-queueRows/2, 0, max(len(snap.Tracks)-queueRows, 0))
	end := min(start+queueRows, len(snap.Tracks))
	for i := start; i < end; i++ {
		t := snap.Tracks[i]
		marker := "  "
		if i == snap.CurrentIndex {
			marker = m.glyph("▶ ", "> ")
		}
		line := marker + trackLine(t)
		switch {
		case i == m.selection:
			b.WriteString(m.theme.Selected.Render(line) + "\n")
		case i == snap.CurrentIndex:
			b.WriteString(m.theme.Playing.Render(line) + "\n")
		default:
			b.WriteString(m.theme.Text.Render(line) + "\n")
		}
	}
	return b.String()
}

func (m Model) renderHistory() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Recently Played") + "\n")
	hist := m.ctrl.RecentHistory()
	if len(hist) == 0 {
		b.WriteString(m.theme.Dim.Render("(none)") + "\n")
		return b.String()
	}
	for i, t := range hist {
		if i >= historyRows {
			break
		}
		b.WriteString(m.theme.Dim.Render(trackLine(t)) + "\n")
	}
	return b.String()
}

func (m Model) renderPlayerBar() string {
	st := m.ctrl.State()
	name := "(stopped)"
	if cur, ok := m.ctrl.CurrentTrack(); ok {
		name = trackLine(cur)
	}
	state := m.glyph("⏸", "||")
	if st.Playing {
		state = m.glyph("⏵", ">")
	}
	shuffle := ""
	if st.Shuffled {
		shuffle = m.glyph(" 🔀", " [shuffle]")
	}
	repeat := ""
	switch st.Repeat {
	case queue.RepeatAll:
		repeat = m.glyph(" 🔁", " [repeat all]")
	case queue.RepeatOne:
		repeat = m.glyph(" 🔂", " [repeat one]")
	}
	return fmt.Sprintf("%s %s  Vol: %.0f%%%s%s", state, name, st.Volume*100, shuffle, repeat)
}

func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Keys") + "\n\n")
	for _, cmd := range m.commands.All() {
		labels := make([]string, len(cmd.Keys))
		for i, k := range cmd.Keys {
			labels[i] = keyLabel(k)
		}
		line := fmt.Sprintf("%-14s %s", strings.Join(labels, "/"), cmd.Name)
		if cmd.Description != "" {
			line += m.theme.Dim.Render("  " + cmd.Description)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n" + m.theme.Dim.Render("? help  ctrl+d diagnostics  esc close"))
	return b.String()
}

func (m Model) glyph(emoji, plain string) string {
	if m.noEmoji {
		return plain
	}
	return emoji
}

func trackLine(t provider.Track) string {
	if t.ArtistName == "" {
		return t.Title
	}
	return fmt.Sprintf("%s — %s", t.ArtistName, t.Title)
}

func formatClock(seconds float64) string {
	s := int(seconds)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
