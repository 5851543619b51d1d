package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cadence/cadence/internal/media"
	"github.com/cadence/cadence/internal/playback"
	"github.com/cadence/cadence/internal/ui"
)

const refreshInterval = 200 * time.Millisecond

// Options configures the front end. Controller is required.
type Options struct {
	Controller *playback.Controller
	// Events are forwarded to the controller. Nil means no backend events.
	Events     <-chan media.Event
	Theme      ui.Theme
	NoEmoji    bool
	SeekStep   float64
	VolumeStep float64
	// CacheLen reports cached lyric entries for the diagnostics overlay.
	CacheLen func() int
}

// Model is the bubbletea model. All playback state lives in the controller;
// the model only holds view state.
type Model struct {
	ctx        context.Context
	ctrl       *playback.Controller
	events     <-chan media.Event
	theme      ui.Theme
	commands   *CommandRegistry
	diag       *DiagnosticsState
	noEmoji    bool
	seekStep   float64
	volumeStep float64

	selection int
	width     int
	height    int
	showHelp  bool
	showDiag  bool
	status    string
	errorMsg  string
	lastErr   error
	quitting  bool
}

func New(ctx context.Context, opts Options) Model {
	if opts.SeekStep <= 0 {
		opts.SeekStep = 5
	}
	if opts.VolumeStep <= 0 {
		opts.VolumeStep = 0.05
	}
	if opts.Theme.Name == "" {
		opts.Theme = ui.GetTheme("rainbow", false)
	}
	return Model{
		ctx:        ctx,
		ctrl:       opts.Controller,
		events:     opts.Events,
		theme:      opts.Theme,
		commands:   NewCommandRegistry(),
		diag:       NewDiagnosticsState(opts.CacheLen),
		noEmoji:    opts.NoEmoji,
		seekStep:   opts.SeekStep,
		volumeStep: opts.VolumeStep,
		status:     "Ready",
	}
}

type eventMsg media.Event

type eventsClosedMsg struct{}

type tickMsg time.Time

type clearErrorMsg struct{}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.watchEventsCmd(), tickCmd())
}

func (m Model) watchEventsCmd() tea.Cmd {
	if m.events == nil {
		return nil
	}
	events := m.events
	return func() tea.Msg {
		evt, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(evt)
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) clearErrorCmd() tea.Cmd {
	return tea.Tick(3*time.Second, func(t time.Time) tea.Msg {
		return clearErrorMsg{}
	})
}

// checkError surfaces a new controller error in the status line.
func (m *Model) checkError() tea.Cmd {
	err := m.ctrl.LastError()
	if err == nil || err == m.lastErr {
		return nil
	}
	m.lastErr = err
	m.errorMsg = err.Error()
	m.diag.RecordPlayerError(err.Error())
	return m.clearErrorCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case eventMsg:
		m.ctrl.HandleEvent(m.ctx, media.Event(msg))
		return m, tea.Batch(m.checkError(), m.watchEventsCmd())
	case eventsClosedMsg:
		m.errorMsg = "player disconnected"
		m.diag.RecordPlayerError(m.errorMsg)
		return m, nil
	case tickMsg:
		return m, tea.Batch(m.checkError(), tickCmd())
	case clearErrorMsg:
		m.errorMsg = ""
		return m, nil
	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "?":
			m.showHelp = !m.showHelp
			return m, nil
		case "ctrl+d":
			m.showDiag = !m.showDiag
			return m, nil
		case "esc":
			m.showHelp = false
			m.showDiag = false
			return m, nil
		}
		cmd, ok := m.commands.Lookup(key)
		if !ok {
			return m, nil
		}
		out := cmd.Handler(&m)
		m.clampSelection()
		return m, tea.Batch(out, m.checkError())
	}
	return m, nil
}

func (m *Model) clampSelection() {
	n := len(m.ctrl.QueueSnapshot().Tracks)
	if n == 0 {
		m.selection = 0
		return
	}
	m.selection = clamp(m.selection, 0, n-1)
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
