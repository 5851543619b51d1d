package ui

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// Theme holds the styles used by the terminal front end.
type Theme struct {
	Name   string
	Accent lipgloss.Style
	Dim    lipgloss.Style
	Text   lipgloss.Style
	Title  lipgloss.Style
	Error  lipgloss.Style
	Border lipgloss.Style

	// Playing marks the current queue entry, Selected the cursor row.
	Playing  lipgloss.Style
	Selected lipgloss.Style
	// LyricActive is the line being sung; LyricNear its neighbours.
	LyricActive lipgloss.Style
	LyricNear   lipgloss.Style
}

type palette struct {
	accent, dim, text, title, err, border, lyric lipgloss.Color
}

var palettes = map[string]palette{
	"rainbow": {
		accent: "#FF6FF7", dim: "#6C6F93", text: "#E6E6FA", title: "#8EEBFF",
		err: "#FF5F56", border: "#7C7CFF", lyric: "#FFD166",
	},
	"mono": {
		accent: "#FFFFFF", dim: "#666666", text: "#CCCCCC", title: "#FFFFFF",
		err: "#FFFFFF", border: "#888888", lyric: "#FFFFFF",
	},
	"green": {
		accent: "#00FF00", dim: "#005500", text: "#00CC00", title: "#00FF00",
		err: "#00FF00", border: "#008800", lyric: "#00FF00",
	},
}

func (p palette) theme(name string) Theme {
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	return Theme{
		Name:        name,
		Accent:      fg(p.accent),
		Dim:         fg(p.dim),
		Text:        fg(p.text),
		Title:       fg(p.title).Bold(true),
		Error:       fg(p.err).Bold(true),
		Border:      fg(p.border),
		Playing:     fg(p.accent).Bold(true),
		Selected:    fg(p.text).Reverse(true),
		LyricActive: fg(p.lyric).Bold(true),
		LyricNear:   fg(p.dim),
	}
}

// ThemeNames returns the available theme names, sorted.
func ThemeNames() []string {
	names := []string{"nocolor"}
	for name := range palettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetTheme returns a theme by name, falling back to rainbow. noColor (the
// NO_COLOR convention) overrides the name.
func GetTheme(name string, noColor bool) Theme {
	if noColor || name == "nocolor" {
		return NoColor()
	}
	if p, ok := palettes[name]; ok {
		return p.theme(name)
	}
	return palettes["rainbow"].theme("rainbow")
}

func ValidTheme(name string) bool {
	_, ok := palettes[name]
	return ok || name == "nocolor"
}

// NoColor uses only bold, underline and reverse.
func NoColor() Theme {
	reset := lipgloss.NewStyle()
	return Theme{
		Name:        "nocolor",
		Accent:      reset.Bold(true),
		Dim:         reset,
		Text:        reset,
		Title:       reset.Bold(true),
		Error:       reset.Bold(true),
		Border:      reset,
		Playing:     reset.Bold(true),
		Selected:    reset.Reverse(true),
		LyricActive: reset.Bold(true).Underline(true),
		LyricNear:   reset,
	}
}
