package app

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Command is an action bound to one or more keys.
type Command struct {
	ID          string
	Name        string
	Description string
	Keys        []string
	Handler     func(m *Model) tea.Cmd
}

// CommandRegistry holds all available commands in display order.
type CommandRegistry struct {
	commands []Command
	byKey    map[string]int
}

// NewCommandRegistry creates a registry with all available commands.
func NewCommandRegistry() *CommandRegistry {
	r := &CommandRegistry{byKey: map[string]int{}}

	r.register(Command{
		ID: "playback.toggle", Name: "Play/Pause", Keys: []string{" "},
		Description: "Pause or resume; loads a restored track",
		Handler: func(m *Model) tea.Cmd {
			m.ctrl.TogglePause()
			return nil
		},
	})
	r.register(Command{
		ID: "playback.next", Name: "Next", Keys: []string{"n"},
		Description: "Skip to the next track",
		Handler: func(m *Model) tea.Cmd {
			m.ctrl.Next(m.ctx)
			return nil
		},
	})
	r.register(Command{
		ID: "playback.previous", Name: "Previous", Keys: []string{"p"},
		Description: "Restart the track, or go back near its start",
		Handler: func(m *Model) tea.Cmd {
			m.ctrl.Previous(m.ctx)
			return nil
		},
	})
	r.register(Command{
		ID: "queue.shuffle", Name: "Shuffle", Keys: []string{"s"},
		Description: "Shuffle tracks after the current one",
		Handler: func(m *Model) tea.Cmd {
			if m.ctrl.ToggleShuffle(m.ctx) {
				m.status = "Shuffle on"
			} else {
				m.status = "Shuffle off"
			}
			return nil
		},
	})
	r.register(Command{
		ID: "queue.repeat", Name: "Repeat", Keys: []string{"r"},
		Description: "Cycle repeat off, all, one",
		Handler: func(m *Model) tea.Cmd {
			m.status = "Repeat: " + m.ctrl.CycleRepeat(m.ctx).String()
			return nil
		},
	})
	r.register(Command{
		ID: "volume.up", Name: "Volume Up", Keys: []string{"+", "="},
		Handler: func(m *Model) tea.Cmd {
			m.ctrl.SetVolume(m.ctx, m.ctrl.Volume()+m.volumeStep)
			m.status = fmt.Sprintf("Volume %.0f%%", m.ctrl.Volume()*100)
			return nil
		},
	})
	r.register(Command{
		ID: "volume.down", Name: "Volume Down", Keys: []string{"-"},
		Handler: func(m *Model) tea.Cmd {
			m.ctrl.SetVolume(m.ctx, m.ctrl.Volume()-m.volumeStep)
			m.status = fmt.Sprintf("Volume %.0f%%", m.ctrl.Volume()*100)
			return nil
		},
	})
	r.register(Command{
		ID: "seek.forward", Name: "Seek Forward", Keys: []string{"l", "right"},
		Handler: func(m *Model) tea.Cmd {
			m.ctrl.Seek(m.ctrl.State().Elapsed + m.seekStep)
			return nil
		},
	})
	r.register(Command{
		ID: "seek.backward", Name: "Seek Backward", Keys: []string{"h", "left"},
		Handler: func(m *Model) tea.Cmd {
			m.ctrl.Seek(m.ctrl.State().Elapsed - m.seekStep)
			return nil
		},
	})
	r.register(Command{
		ID: "lyrics.next", Name: "Next Lyric Line", Keys: []string{"]"},
		Description: "Jump to the next timed lyric line",
		Handler: func(m *Model) tea.Cmd {
			m.ctrl.SeekToLyricLine(m.ctrl.CurrentLyricLine() + 1)
			return nil
		},
	})
	r.register(Command{
		ID: "lyrics.previous", Name: "Previous Lyric Line", Keys: []string{"["},
		Description: "Jump back to the previous timed lyric line",
		Handler: func(m *Model) tea.Cmd {
			cur := m.ctrl.CurrentLyricLine()
			if cur > 0 {
				m.ctrl.SeekToLyricLine(cur - 1)
			}
			return nil
		},
	})
	r.register(Command{
		ID: "queue.down", Name: "Select Down", Keys: []string{"j", "down"},
		Handler: func(m *Model) tea.Cmd {
			m.selection++
			return nil
		},
	})
	r.register(Command{
		ID: "queue.up", Name: "Select Up", Keys: []string{"k", "up"},
		Handler: func(m *Model) tea.Cmd {
			m.selection--
			return nil
		},
	})
	r.register(Command{
		ID: "queue.play", Name: "Play Selected", Keys: []string{"enter"},
		Handler: func(m *Model) tea.Cmd {
			m.ctrl.PlayIndex(m.ctx, m.selection)
			return nil
		},
	})
	r.register(Command{
		ID: "queue.remove", Name: "Remove Selected", Keys: []string{"d"},
		Handler: func(m *Model) tea.Cmd {
			if m.ctrl.RemoveFromQueue(m.ctx, m.selection) {
				m.status = "Removed from queue"
			}
			return nil
		},
	})
	r.register(Command{
		ID: "queue.clear", Name: "Clear Queue", Keys: []string{"c"},
		Handler: func(m *Model) tea.Cmd {
			m.ctrl.ClearQueue(m.ctx)
			m.status = "Queue cleared"
			return nil
		},
	})
	r.register(Command{
		ID: "history.clear", Name: "Clear History", Keys: []string{"x"},
		Handler: func(m *Model) tea.Cmd {
			m.ctrl.ClearHistory(m.ctx)
			m.status = "History cleared"
			return nil
		},
	})
	r.register(Command{
		ID: "app.quit", Name: "Quit", Keys: []string{"q", "ctrl+c"},
		Handler: func(m *Model) tea.Cmd {
			m.quitting = true
			return tea.Quit
		},
	})

	return r
}

func (r *CommandRegistry) register(cmd Command) {
	r.commands = append(r.commands, cmd)
	for _, k := range cmd.Keys {
		r.byKey[k] = len(r.commands) - 1
	}
}

// Lookup returns the command bound to key, as reported by tea.KeyMsg.String.
func (r *CommandRegistry) Lookup(key string) (Command, bool) {
	i, ok := r.byKey[key]
	if !ok {
		return Command{}, false
	}
	return r.commands[i], true
}

// All returns all commands in display order.
func (r *CommandRegistry) All() []Command {
	return r.commands
}

// keyLabel renders a key for the help overlay.
func keyLabel(k string) string {
	if k == " " {
		return "space"
	}
	return k
}
