package player

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cadence/cadence/internal/media"
)

func startFakeMPV(t *testing.T) (*Controller, net.Conn) {
	t.Helper()
	socketPath := filepath.Join(os.TempDir(), "cadence-player-test.sock")
	_ = os.Remove(socketPath)
	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, _ := ln.Accept()
		accepted <- conn
	}()

	ctrl := New(Options{
		MPVPath:        "mpv",
		IPCPath:        socketPath,
		DisableProcess: true,
	})
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start controller: %v", err)
	}
	conn := <-accepted
	t.Cleanup(func() {
		conn.Close()
		ctrl.Stop()
	})
	return ctrl, conn
}

func writeEvent(conn net.Conn, evt map[string]any) {
	b, _ := json.Marshal(evt)
	conn.Write(append(b, '\n'))
}

func TestControllerLoadAndEvents(t *testing.T) {
	ctrl, conn := startFakeMPV(t)

	if err := ctrl.Load("file:///tmp/test.mp3"); err != nil {
		t.Fatalf("load: %v", err)
	}

	go func() {
		writeEvent(conn, map[string]any{"event": "property-change", "name": "time-pos", "data": 12.5})
		writeEvent(conn, map[string]any{"event": "property-change", "name": "volume", "data": 40.0})
		writeEvent(conn, map[string]any{"event": "end-file", "reason": "stop"})
		writeEvent(conn, map[string]any{"event": "end-file", "reason": "eof"})
	}()

	timeout := time.After(2 * time.Second)
	var kinds []media.EventKind
	receivedPos := false
loop:
	for {
		select {
		case evt := <-ctrl.Events():
			if evt.Err != nil {
				t.Fatalf("event err: %v", evt.Err)
			}
			kinds = append(kinds, evt.Kind)
			switch evt.Kind {
			case media.TimeUpdate:
				receivedPos = evt.Seconds == 12.5
			case media.VolumeChanged:
				if evt.Level != 0.4 {
					t.Fatalf("expected volume level 0.4, got %v", evt.Level)
				}
			case media.Ended:
				break loop
			}
		case <-timeout:
			t.Fatalf("timeout waiting for events")
		}
	}
	if !receivedPos {
		t.Fatalf("expected time-pos event 12.5")
	}
	if len(kinds) != 3 {
		t.Fatalf("stop end-file must not produce an event, got %v", kinds)
	}
}

func TestControllerCommands(t *testing.T) {
	ctrl, conn := startFakeMPV(t)

	lines := make(chan string, 16)
	go func() {
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	if err := ctrl.Seek(30); err != nil {
		t.Fatalf("seek: %v", err)
	}
	if err := ctrl.SetVolume(1.5); err != nil {
		t.Fatalf("volume: %v", err)
	}
	if err := ctrl.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}

	want := []string{`"seek",30,"absolute"`, `"volume",100`, `"pause",true`}
	timeout := time.After(2 * time.Second)
	for _, w := range want {
		for {
			var line string
			select {
			case line = <-lines:
			case <-timeout:
				t.Fatalf("timeout waiting for %s", w)
			}
			if strings.Contains(line, "observe_property") {
				continue
			}
			if !strings.Contains(line, w) {
				t.Fatalf("expected command containing %s, got %s", w, line)
			}
			break
		}
	}
}

func TestEndFileErrorBecomesErrorEvent(t *testing.T) {
	ctrl, conn := startFakeMPV(t)
	go writeEvent(conn, map[string]any{"event": "end-file", "reason": "error", "file_error": "unrecognized file format"})

	select {
	case evt := <-ctrl.Events():
		if evt.Kind != media.Error || evt.Err == nil {
			t.Fatalf("expected error event, got %+v", evt)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for error event")
	}
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		msg  ipcMessage
		want media.EventKind
		ok   bool
	}{
		{"file loaded", ipcMessage{Event: "file-loaded"}, media.Started, true},
		{"eof", ipcMessage{Event: "end-file", Reason: "eof"}, media.Ended, true},
		{"replaced", ipcMessage{Event: "end-file", Reason: "stop"}, 0, false},
		{"quit", ipcMessage{Event: "end-file", Reason: "quit"}, 0, false},
		{"time", ipcMessage{Event: "property-change", Name: "time-pos", Data: 3.5}, media.TimeUpdate, true},
		{"time unavailable", ipcMessage{Event: "property-change", Name: "time-pos"}, 0, false},
		{"duration", ipcMessage{Event: "property-change", Name: "duration", Data: 200.0}, media.DurationKnown, true},
		{"pause", ipcMessage{Event: "property-change", Name: "pause", Data: true}, media.Paused, true},
		{"reply", ipcMessage{}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := translate(tt.msg)
			if ok != tt.ok || (ok && ev.Kind != tt.want) {
				t.Fatalf("translate = %v %v, want %v %v", ev.Kind, ok, tt.want, tt.ok)
			}
		})
	}
}
