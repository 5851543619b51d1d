// Package player drives an mpv process over its JSON IPC socket.
package player

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/cadence/cadence/internal/media"
)

const (
	dialAttempts  = 10
	dialBaseDelay = 50 * time.Millisecond
	dialMaxDelay  = 500 * time.Millisecond
)

var errNotConnected = errors.New("mpv: not connected")

// Options configures the Controller.
type Options struct {
	MPVPath string
	// IPCPath is the socket mpv listens on. Empty uses a path in the temp dir.
	IPCPath string
	Logger  *slog.Logger
	// DisableProcess connects to an already running mpv.
	DisableProcess bool
}

// Controller owns the mpv process and IPC connection. It implements
// media.Backend and reports playback progress as media events.
type Controller struct {
	opts   Options
	logger *slog.Logger
	events chan media.Event

	mu   sync.Mutex
	cmd  *exec.Cmd
	conn net.Conn
}

var _ media.Backend = (*Controller)(nil)

func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.IPCPath == "" {
		opts.IPCPath = defaultIPCPath()
	}
	return &Controller{
		opts:   opts,
		logger: logger.With(slog.String("component", "mpv")),
		events: make(chan media.Event, 32),
	}
}

func defaultIPCPath() string {
	if runtime.GOOS == "windows" {
		return `\\.\pipe\cadence-mpv`
	}
	return filepath.Join(os.TempDir(), "cadence-mpv.sock")
}

// Start launches mpv unless DisableProcess is set, connects to its socket and
// begins forwarding events.
func (c *Controller) Start(ctx context.Context) error {
	if !c.opts.DisableProcess {
		if err := c.spawn(ctx); err != nil {
			return err
		}
	}
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	for i, prop := range []string{"time-pos", "duration", "pause", "volume"} {
		if err := c.command("observe_property", i+1, prop); err != nil {
			return fmt.Errorf("observe %s: %w", prop, err)
		}
	}
	go c.readLoop(conn)
	c.logger.Info("mpv connected", slog.String("ipc_path", c.opts.IPCPath))
	return nil
}

func (c *Controller) spawn(ctx context.Context) error {
	args := []string{
		"--idle=yes",
		"--force-window=no",
		"--no-terminal",
		"--no-video",
		"--input-ipc-server=" + c.opts.IPCPath,
	}
	cmd := exec.CommandContext(ctx, c.opts.MPVPath, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}
	c.mu.Lock()
	c.cmd = cmd
	c.mu.Unlock()
	c.logger.Debug("mpv spawned", slog.String("path", c.opts.MPVPath), slog.Int("pid", cmd.Process.Pid))
	return nil
}

// dial retries with capped exponential backoff while mpv creates its socket.
func (c *Controller) dial(ctx context.Context) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: 5 * time.Second}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	delay := dialBaseDelay
	var lastErr error
	for attempt := 1; attempt <= dialAttempts; attempt++ {
		conn, err := dialer.DialContext(ctx, "unix", c.opts.IPCPath)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		if attempt == dialAttempts {
			break
		}
		wait := delay + time.Duration(rng.Int63n(int64(delay)/5+1))
		c.logger.Debug("ipc socket not ready", slog.Int("attempt", attempt), slog.Duration("wait", wait), slog.Any("err", err))
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connect mpv ipc: %w", ctx.Err())
		case <-time.After(wait):
		}
		delay = min(delay*2, dialMaxDelay)
	}
	return nil, fmt.Errorf("connect mpv ipc after %d attempts: %w", dialAttempts, lastErr)
}

// Events returns the event channel. It is closed when the IPC connection ends.
func (c *Controller) Events() <-chan media.Event { return c.events }

func (c *Controller) command(args ...any) error {
	b, err := json.Marshal(map[string]any{"command": args})
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return errNotConnected
	}
	if _, err := c.conn.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("mpv %v: %w", args[0], err)
	}
	return nil
}

// Load replaces the current file in mpv. Playback starts unpaused.
func (c *Controller) Load(sourceRef string) error {
	c.logger.Debug("load", slog.String("ref", sourceRef))
	if err := c.command("loadfile", sourceRef, "replace"); err != nil {
		return err
	}
	return c.setPaused(false)
}

func (c *Controller) Play() error  { return c.setPaused(false) }
func (c *Controller) Pause() error { return c.setPaused(true) }

func (c *Controller) setPaused(paused bool) error {
	return c.command("set_property", "pause", paused)
}

// Seek moves to an absolute position in seconds.
func (c *Controller) Seek(seconds float64) error {
	return c.command("seek", max(seconds, 0), "absolute")
}

// SetVolume takes a level in [0, 1]; mpv works in percent.
func (c *Controller) SetVolume(level float64) error {
	level = min(max(level, 0), 1)
	return c.command("set_property", "volume", level*100)
}

// Stop asks mpv to quit, closes the connection and reaps the process. It is
// safe to call more than once.
func (c *Controller) Stop() error {
	c.mu.Lock()
	conn, cmd := c.conn, c.cmd
	c.conn, c.cmd = nil, nil
	c.mu.Unlock()

	if conn != nil {
		if b, err := json.Marshal(map[string]any{"command": []any{"quit"}}); err == nil {
			_, _ = conn.Write(append(b, '\n'))
		}
		_ = conn.Close()
	}
	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}
	return nil
}

type ipcMessage struct {
	Event     string `json:"event"`
	Name      string `json:"name"`
	Data      any    `json:"data"`
	Reason    string `json:"reason"`
	FileError string `json:"file_error"`
}

func (c *Controller) readLoop(conn net.Conn) {
	defer close(c.events)
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var msg ipcMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			c.logger.Warn("undecodable mpv message", slog.Any("err", err))
			continue
		}
		if ev, ok := translate(msg); ok {
			c.events <- ev
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		c.events <- media.ErrorEvent(err)
	}
}

// translate maps an IPC message onto a media event. Command replies and
// end-file reasons other than eof and error ("stop" when a file is replaced,
// "quit" on exit) produce nothing.
func translate(msg ipcMessage) (media.Event, bool) {
	switch msg.Event {
	case "file-loaded":
		return media.StartedEvent(), true
	case "end-file":
		switch msg.Reason {
		case "eof":
			return media.EndedEvent(), true
		case "error":
			return media.ErrorEvent(fmt.Errorf("mpv: playback error: %s", msg.FileError)), true
		}
	case "property-change":
		switch msg.Name {
		case "time-pos":
			if v, ok := msg.Data.(float64); ok {
				return media.TimeUpdateEvent(v), true
			}
		case "duration":
			if v, ok := msg.Data.(float64); ok {
				return media.DurationEvent(v), true
			}
		case "pause":
			if b, ok := msg.Data.(bool); ok {
				return media.Event{Kind: media.Paused, Paused: b}, true
			}
		case "volume":
			if v, ok := msg.Data.(float64); ok {
				return media.Event{Kind: media.VolumeChanged, Level: v / 100}, true
			}
		}
	}
	return media.Event{}, false
}
