package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func fakeMPV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mpv")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestValidate(t *testing.T) {
	mpvPath := fakeMPV(t)
	valid := func() Config {
		cfg := Default()
		cfg.Player.MPVPath = mpvPath
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "volume out of range", mutate: func(c *Config) { c.Player.InitialVolume = 150 }, wantErr: true},
		{name: "invalid mpv path", mutate: func(c *Config) { c.Player.MPVPath = "/invalid/mpv/path" }, wantErr: true},
		{name: "relative lrclib url", mutate: func(c *Config) { c.Lyrics.LRCLibURL = "lrclib.net" }, wantErr: true},
		{name: "lrclib url ignored when disabled", mutate: func(c *Config) {
			c.Lyrics.Enabled = false
			c.Lyrics.LRCLibURL = "lrclib.net"
		}},
		{name: "negative cache", mutate: func(c *Config) { c.Lyrics.CacheSize = -1 }, wantErr: true},
		{name: "missing root", mutate: func(c *Config) { c.Library.Roots = []string{"/no/such/root"} }, wantErr: true},
		{name: "empty root", mutate: func(c *Config) { c.Library.Roots = []string{""} }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "verbose" }, wantErr: true},
		{name: "unknown theme", mutate: func(c *Config) { c.UI.Theme = "plaid" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	orig := execLookPath
	execLookPath = func(string) (string, error) { return "/usr/bin/mpv", nil }
	defer func() { execLookPath = orig }()

	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, resolved, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if resolved != path {
		t.Fatalf("resolved path %s", resolved)
	}
	if !cfg.Lyrics.Enabled || !cfg.Lyrics.Embedded || !cfg.State.PersistQueue {
		t.Fatalf("boolean defaults not applied: %+v", cfg)
	}
	if cfg.Player.InitialVolume != 70 || cfg.Lyrics.CacheSize != 32 || cfg.Player.MPVPath != "mpv" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	mpvPath := fakeMPV(t)
	path := filepath.Join(dir, "config.toml")
	data := `
[player]
mpv_path = "` + mpvPath + `"
initial_volume = 40

[lyrics]
embedded = false
timeout_ms = 2500

[library]
roots = ["` + dir + `"]

[state]
persist_queue = false

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, _, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Lyrics.Embedded || !cfg.Lyrics.Enabled || cfg.State.PersistQueue {
		t.Fatalf("booleans not decoded: %+v", cfg)
	}
	if cfg.Volume() != 0.4 || cfg.FetchTimeout().Milliseconds() != 2500 || len(cfg.Library.Roots) != 1 {
		t.Fatalf("unexpected values %+v", cfg)
	}
}

func TestLoadRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[player\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err := Load(path)
	if err == nil {
		t.Fatalf("expected parse error")
	}
	var notExist *os.PathError
	if errors.As(err, &notExist) {
		t.Fatalf("expected parse error, got %v", err)
	}
}
