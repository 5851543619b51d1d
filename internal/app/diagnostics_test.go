package app

import (
	"testing"
	"time"
)

func TestDiagnosticsState(t *testing.T) {
	t.Run("initial state", func(t *testing.T) {
		d := NewDiagnosticsState(nil)
		if d.PlayerErrors != 0 {
			t.Errorf("expected 0 errors, got %d", d.PlayerErrors)
		}
		if d.StartTime.IsZero() {
			t.Error("expected start time to be set")
		}
		if d.CachedLyrics() != -1 {
			t.Errorf("expected unknown cache size, got %d", d.CachedLyrics())
		}
	})

	t.Run("player error tracking", func(t *testing.T) {
		d := NewDiagnosticsState(func() int { return 3 })
		d.RecordPlayerError("connection lost")
		d.RecordPlayerError("decode failed")
		if d.PlayerErrors != 2 {
			t.Errorf("expected 2 errors, got %d", d.PlayerErrors)
		}
		if d.LastPlayerError != "decode failed" {
			t.Errorf("expected 'decode failed', got '%s'", d.LastPlayerError)
		}
		if d.CachedLyrics() != 3 {
			t.Errorf("expected 3 cached lyrics, got %d", d.CachedLyrics())
		}
	})

	t.Run("update refreshes stats", func(t *testing.T) {
		d := NewDiagnosticsState(nil)
		d.Update()
		if d.MemoryUsage == 0 {
			t.Error("expected memory usage to be set")
		}
		if d.GoroutineCount == 0 {
			t.Error("expected goroutine count to be set")
		}
		if d.LastUpdate.IsZero() {
			t.Error("expected last update to be set")
		}
	})

	t.Run("uptime increases", func(t *testing.T) {
		d := NewDiagnosticsState(nil)
		time.Sleep(10 * time.Millisecond)
		if uptime := d.Uptime(); uptime < 10*time.Millisecond {
			t.Errorf("expected uptime > 10ms, got %v", uptime)
		}
	})
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    uint64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{1073741824, "1.0 GB"},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			result := formatBytes(tc.bytes)
			if result != tc.expected {
				t.Errorf("formatBytes(%d) = %s, want %s", tc.bytes, result, tc.expected)
			}
		})
	}
}
