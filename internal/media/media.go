// Package media defines the contract between the playback core and a media
// backend: the commands the core issues and the events it consumes.
package media

import "fmt"

// Backend plays one source at a time. Commands are fire-and-forget: a nil
// error means the command was issued, not that the backend finished it.
type Backend interface {
	Load(sourceRef string) error
	Play() error
	Pause() error
	// Seek moves to an absolute position in seconds.
	Seek(seconds float64) error
	// SetVolume takes a level in [0, 1].
	SetVolume(level float64) error
}

type EventKind int

const (
	TimeUpdate EventKind = iota + 1
	DurationKnown
	Ended
	Error
	Paused
	VolumeChanged
	// Started reports that the most recently loaded source began playing.
	Started
)

func (k EventKind) String() string {
	switch k {
	case TimeUpdate:
		return "time_update"
	case DurationKnown:
		return "duration_known"
	case Ended:
		return "ended"
	case Error:
		return "error"
	case Paused:
		return "paused"
	case VolumeChanged:
		return "volume_changed"
	case Started:
		return "started"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is a report from the backend. Seconds is set for TimeUpdate and
// DurationKnown, Level for VolumeChanged, Paused for Paused, Err for Error.
type Event struct {
	Kind    EventKind
	Seconds float64
	Level   float64
	Paused  bool
	Err     error
}

func TimeUpdateEvent(seconds float64) Event { return Event{Kind: TimeUpdate, Seconds: seconds} }
func DurationEvent(seconds float64) Event   { return Event{Kind: DurationKnown, Seconds: seconds} }
func EndedEvent() Event                     { return Event{Kind: Ended} }
func ErrorEvent(err error) Event            { return Event{Kind: Error, Err: err} }
func StartedEvent() Event                   { return Event{Kind: Started} }
