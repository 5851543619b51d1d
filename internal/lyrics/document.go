// Package lyrics parses lyric text into ordered line documents and resolves
// the active line for a playback position.
package lyrics

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cadence/cadence/internal/provider"
)

// Line is one lyric line. Timed is false for lines without a timestamp.
type Line struct {
	Time  float64
	Timed bool
	Text  string
}

// Document is an immutable, ordered list of lyric lines. The zero value is a
// valid empty, unsynced document.
type Document struct {
	lines  []Line
	synced bool
}

// timeTag matches [mm:ss.ff] and [mm:ss.fff].
var timeTag = regexp.MustCompile(`\[(\d{2}):(\d{2})\.(\d{2,3})\]`)

// ParseSynced builds a synced document from LRC-style text. Lines without a
// valid time tag, or with nothing but whitespace after the tag, are skipped.
// Several leading tags on one line produce one entry per tag.
func ParseSynced(raw string) Document {
	var lines []Line
	for _, src := range splitLines(raw) {
		lines = append(lines, parseTaggedLine(src)...)
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Time < lines[j].Time })
	return Document{lines: lines, synced: len(lines) > 0}
}

func parseTaggedLine(src string) []Line {
	matches := timeTag.FindAllStringSubmatchIndex(src, -1)
	if len(matches) == 0 {
		return nil
	}
	var out []Line
	var pending []float64
	for i, m := range matches {
		pending = append(pending, tagSeconds(src[m[2]:m[3]], src[m[4]:m[5]], src[m[6]:m[7]]))

		end := len(src)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		text := strings.TrimSpace(src[m[1]:end])
		if text == "" {
			if i+1 < len(matches) {
				continue
			}
			pending = nil
			break
		}
		for _, ts := range pending {
			out = append(out, Line{Time: ts, Timed: true, Text: text})
		}
		pending = nil
	}
	return out
}

func tagSeconds(mm, ss, frac string) float64 {
	minutes, _ := strconv.Atoi(mm)
	seconds, _ := strconv.Atoi(ss)
	for len(frac) < 3 {
		frac += "0"
	}
	millis, _ := strconv.Atoi(frac)
	return float64(minutes*60+seconds) + float64(millis)/1000
}

// ParsePlain builds an unsynced document, one line per non-blank source line
// in source order.
func ParsePlain(raw string) Document {
	var lines []Line
	for _, src := range splitLines(raw) {
		text := strings.TrimSpace(src)
		if text == "" {
			continue
		}
		lines = append(lines, Line{Text: text})
	}
	return Document{lines: lines}
}

// FromResult converts a fetch result, preferring synced text.
func FromResult(res provider.LyricsResult) Document {
	if res.SyncedText != "" {
		if doc := ParseSynced(res.SyncedText); doc.Synced() {
			return doc
		}
	}
	return ParsePlain(res.PlainText)
}

func splitLines(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
}

// Synced reports whether at least one line carries a time.
func (d Document) Synced() bool { return d.synced }

// Len returns the number of lines.
func (d Document) Len() int { return len(d.lines) }

// Empty reports whether the document has no lines.
func (d Document) Empty() bool { return len(d.lines) == 0 }

// Line returns the line at index i.
func (d Document) Line(i int) (Line, bool) {
	if i < 0 || i >= len(d.lines) {
		return Line{}, false
	}
	return d.lines[i], true
}

// Lines returns a copy of all lines.
func (d Document) Lines() []Line {
	out := make([]Line, len(d.lines))
	copy(out, d.lines)
	return out
}
