package playback

import "github.com/cadence/cadence/internal/queue"

// LyricsStatus describes the lyric state of the current track.
type LyricsStatus int

const (
	LyricsIdle LyricsStatus = iota
	LyricsLoading
	LyricsLoaded
	LyricsNotFound
	LyricsInstrumental
	LyricsError
)

func (s LyricsStatus) String() string {
	switch s {
	case LyricsIdle:
		return "idle"
	case LyricsLoading:
		return "loading"
	case LyricsLoaded:
		return "loaded"
	case LyricsNotFound:
		return "not_found"
	case LyricsInstrumental:
		return "instrumental"
	case LyricsError:
		return "error"
	default:
		return "unknown"
	}
}

// State is a point-in-time view of transport state. Times are in seconds.
type State struct {
	Playing  bool
	Elapsed  float64
	Duration float64
	Volume   float64
	Repeat   queue.RepeatMode
	Shuffled bool
	Lyrics   LyricsStatus
}
