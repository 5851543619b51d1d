package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestPaletteThemesHaveColors(t *testing.T) {
	for _, name := range []string{"rainbow", "mono", "green"} {
		theme := GetTheme(name, false)
		if theme.Name != name {
			t.Errorf("expected name %q, got %q", name, theme.Name)
		}
		if _, none := theme.LyricActive.GetForeground().(lipgloss.NoColor); none {
			t.Errorf("%s: lyric style should have a color", name)
		}
		if !theme.LyricActive.GetBold() {
			t.Errorf("%s: active lyric should be bold", name)
		}
	}
}

func TestNoColor(t *testing.T) {
	theme := NoColor()
	if theme.Name != "nocolor" {
		t.Errorf("expected name 'nocolor', got %q", theme.Name)
	}
	if !theme.Title.GetBold() {
		t.Error("NoColor should use bold for title")
	}
	if !theme.Selected.GetReverse() {
		t.Error("NoColor should reverse the selected row")
	}
}

func TestGetTheme(t *testing.T) {
	tests := []struct {
		name     string
		noColor  bool
		expected string
	}{
		{"rainbow", false, "rainbow"},
		{"mono", false, "mono"},
		{"green", false, "green"},
		{"nocolor", false, "nocolor"},
		{"invalid", false, "rainbow"}, // defaults to rainbow
		{"rainbow", true, "nocolor"},  // noColor overrides
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			theme := GetTheme(tt.name, tt.noColor)
			if theme.Name != tt.expected {
				t.Errorf("GetTheme(%q, %v) = %q, want %q", tt.name, tt.noColor, theme.Name, tt.expected)
			}
		})
	}
}

func TestValidThemeAndNames(t *testing.T) {
	names := ThemeNames()
	if len(names) != 4 || names[0] != "green" {
		t.Errorf("unexpected theme names %v", names)
	}
	for _, name := range names {
		if !ValidTheme(name) {
			t.Errorf("ValidTheme(%q) should be true", name)
		}
	}
	if ValidTheme("invalid") {
		t.Error("ValidTheme('invalid') should be false")
	}
}
