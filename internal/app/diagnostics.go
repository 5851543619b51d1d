package app

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// DiagnosticsState holds metrics for the debug overlay.
type DiagnosticsState struct {
	// Player state
	PlayerErrors      int
	LastPlayerError   string
	LastPlayerErrorAt time.Time

	// App stats
	StartTime      time.Time
	LastUpdate     time.Time
	MemoryUsage    uint64
	GoroutineCount int

	cacheLen func() int
}

// NewDiagnosticsState creates a new diagnostics state. cacheLen may be nil.
func NewDiagnosticsState(cacheLen func() int) *DiagnosticsState {
	return &DiagnosticsState{
		StartTime: time.Now(),
		cacheLen:  cacheLen,
	}
}

// RecordPlayerError records a media backend error.
func (d *DiagnosticsState) RecordPlayerError(err string) {
	d.PlayerErrors++
	d.LastPlayerError = err
	d.LastPlayerErrorAt = time.Now()
}

// CachedLyrics returns the number of memoized lyric lookups, -1 when unknown.
func (d *DiagnosticsState) CachedLyrics() int {
	if d.cacheLen == nil {
		return -1
	}
	return d.cacheLen()
}

// Update refreshes runtime stats.
func (d *DiagnosticsState) Update() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	d.MemoryUsage = m.Alloc
	d.GoroutineCount = runtime.NumGoroutine()
	d.LastUpdate = time.Now()
}

// Uptime returns the application uptime.
func (d *DiagnosticsState) Uptime() time.Duration {
	return time.Since(d.StartTime)
}

// Render renders the diagnostics overlay.
func (d *DiagnosticsState) Render(m *Model) string {
	d.Update()

	var b strings.Builder
	b.WriteString(m.theme.Title.Render(" ═══ Diagnostics ═══ "))
	b.WriteString("\n\n")

	uptime := d.Uptime().Round(time.Second)
	b.WriteString(m.theme.Dim.Render("Uptime: "))
	b.WriteString(m.theme.Text.Render(uptime.String()))
	b.WriteString("\n\n")

	b.WriteString(m.theme.Accent.Render("Runtime"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  Memory: %s\n", formatBytes(d.MemoryUsage)))
	b.WriteString(fmt.Sprintf("  Goroutines: %d\n", d.GoroutineCount))
	b.WriteString("\n")

	b.WriteString(m.theme.Accent.Render("Player"))
	b.WriteString("\n")
	if d.PlayerErrors == 0 {
		b.WriteString("  No errors\n")
	} else {
		b.WriteString(fmt.Sprintf("  Errors: %d\n", d.PlayerErrors))
		if time.Since(d.LastPlayerErrorAt) < 5*time.Minute {
			b.WriteString(m.theme.Error.Render(fmt.Sprintf("  Last error: %s", d.LastPlayerError)))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")

	b.WriteString(m.theme.Accent.Render("Lyrics"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  Status: %s\n", m.ctrl.LyricsStatus()))
	if n := d.CachedLyrics(); n >= 0 {
		b.WriteString(fmt.Sprintf("  Cached lookups: %d\n", n))
	}
	b.WriteString("\n")

	st := m.ctrl.State()
	snap := m.ctrl.QueueSnapshot()
	b.WriteString(m.theme.Accent.Render("Queue"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  Items: %d\n", len(snap.Tracks)))
	b.WriteString(fmt.Sprintf("  Current: %d\n", snap.CurrentIndex))
	b.WriteString(fmt.Sprintf("  Shuffle: %v\n", st.Shuffled))
	b.WriteString(fmt.Sprintf("  Repeat: %v\n", st.Repeat))
	b.WriteString(fmt.Sprintf("  History: %d\n", len(m.ctrl.RecentHistory())))

	b.WriteString("\n")
	b.WriteString(m.theme.Dim.Render("Press Ctrl+D to close"))

	diagBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(1, 2).
		Width(40).
		Render(b.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Right, lipgloss.Top, diagBox)
}

// formatBytes formats bytes as human-readable string.
func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
