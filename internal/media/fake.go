package media

import (
	"fmt"
	"sync"
)

// Recorder is a Backend that records commands instead of playing them. Tests
// of the playback core and the front end drive it.
type Recorder struct {
	mu       sync.Mutex
	commands []string
	// Fail makes every command return this error when set.
	Fail error
}

func (r *Recorder) record(cmd string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmd)
	return r.Fail
}

func (r *Recorder) Load(ref string) error     { return r.record("load " + ref) }
func (r *Recorder) Play() error               { return r.record("play") }
func (r *Recorder) Pause() error              { return r.record("pause") }
func (r *Recorder) Seek(s float64) error      { return r.record(fmt.Sprintf("seek %g", s)) }
func (r *Recorder) SetVolume(v float64) error { return r.record(fmt.Sprintf("volume %g", v)) }

// Commands returns the recorded commands in order.
func (r *Recorder) Commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.commands))
	copy(out, r.commands)
	return out
}

// Reset forgets recorded commands.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = nil
}
