package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/cadence/cadence/internal/logging"
	"github.com/cadence/cadence/internal/ui"
)

// Config holds Cadence runtime configuration loaded from TOML.
type Config struct {
	Player  PlayerConfig  `toml:"player"`
	Lyrics  LyricsConfig  `toml:"lyrics"`
	Library LibraryConfig `toml:"library"`
	State   StateConfig   `toml:"state"`
	UI      UIConfig      `toml:"ui"`
	Log     LogConfig     `toml:"log"`
}

type PlayerConfig struct {
	MPVPath       string `toml:"mpv_path"`
	IPC           string `toml:"ipc"`
	InitialVolume int    `toml:"initial_volume"`
	SeekSmall     int    `toml:"seek_small_seconds"`
	VolumeStep    int    `toml:"volume_step"`
}

// LyricsConfig controls lyric lookup. Embedded tags are consulted before
// LRCLIB.
type LyricsConfig struct {
	Enabled   bool   `toml:"enabled"`
	LRCLibURL string `toml:"lrclib_url"`
	TimeoutMs int    `toml:"timeout_ms"`
	CacheSize int    `toml:"cache_size"`
	Embedded  bool   `toml:"embedded"`
}

type LibraryConfig struct {
	Roots         []string `toml:"roots"`
	ProbeDuration bool     `toml:"probe_duration"`
}

// StateConfig holds persistence settings. An empty DBPath uses the state
// directory.
type StateConfig struct {
	DBPath       string `toml:"db_path"`
	PersistQueue bool   `toml:"persist_queue"`
}

type UIConfig struct {
	Theme   string `toml:"theme"`
	NoEmoji bool   `toml:"no_emoji"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when no file exists. Load decodes
// on top of it, so booleans absent from the file keep these values.
func Default() Config {
	cfg := Config{
		Lyrics: LyricsConfig{Enabled: true, Embedded: true},
		State:  StateConfig{PersistQueue: true},
	}
	applyDefaults(&cfg)
	return cfg
}

// Load reads configuration from disk. If path is empty, a default OS-specific
// location is used. A missing file yields Default().
func Load(path string) (*Config, string, error) {
	cfgPath := path
	if cfgPath == "" {
		var err error
		cfgPath, err = defaultPath()
		if err != nil {
			return nil, "", fmt.Errorf("resolve config path: %w", err)
		}
	}

	cfg := Default()
	data, err := os.ReadFile(cfgPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, cfgPath, fmt.Errorf("read config: %w", err)
	}
	if err == nil {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, cfgPath, fmt.Errorf("parse config: %w", err)
		}
	}

	applyDefaults(&cfg)

	if err := Validate(cfg); err != nil {
		return nil, cfgPath, err
	}

	return &cfg, cfgPath, nil
}

func defaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	name := "cadence"
	if runtime.GOOS == "windows" {
		name = "Cadence"
	}
	base := filepath.Join(dir, name)
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(base, "config.toml"), nil
}

func applyDefaults(cfg *Config) {
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = "rainbow"
	}
	if cfg.Player.MPVPath == "" {
		cfg.Player.MPVPath = "mpv"
	}
	if cfg.Player.InitialVolume == 0 {
		cfg.Player.InitialVolume = 70
	}
	if cfg.Player.SeekSmall == 0 {
		cfg.Player.SeekSmall = 5
	}
	if cfg.Player.VolumeStep == 0 {
		cfg.Player.VolumeStep = 5
	}
	if cfg.Lyrics.LRCLibURL == "" {
		cfg.Lyrics.LRCLibURL = "https://lrclib.net"
	}
	if cfg.Lyrics.TimeoutMs == 0 {
		cfg.Lyrics.TimeoutMs = 8000
	}
	if cfg.Lyrics.CacheSize == 0 {
		cfg.Lyrics.CacheSize = 32
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.State.DBPath == "" {
		if dir, err := logging.StateDir(); err == nil {
			cfg.State.DBPath = filepath.Join(dir, "state.db")
		}
	}
}

// Validate performs semantic validation of config.
func Validate(cfg Config) error {
	if cfg.Player.InitialVolume < 0 || cfg.Player.InitialVolume > 100 {
		return fmt.Errorf("player.initial_volume must be 0-100")
	}
	if cfg.Player.SeekSmall < 0 {
		return fmt.Errorf("player.seek_small_seconds must not be negative")
	}
	if cfg.Player.VolumeStep < 0 || cfg.Player.VolumeStep > 100 {
		return fmt.Errorf("player.volume_step must be 0-100")
	}
	if _, err := os.Stat(cfg.Player.MPVPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if _, lookErr := execLookPath(cfg.Player.MPVPath); lookErr != nil {
				return fmt.Errorf("mpv not found (%s): %w", cfg.Player.MPVPath, lookErr)
			}
		}
	}
	if cfg.Lyrics.Enabled {
		u, err := url.Parse(cfg.Lyrics.LRCLibURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("lyrics.lrclib_url %q is not an absolute URL", cfg.Lyrics.LRCLibURL)
		}
	}
	if cfg.Lyrics.TimeoutMs < 0 {
		return errors.New("lyrics.timeout_ms must not be negative")
	}
	if cfg.Lyrics.CacheSize < 0 {
		return errors.New("lyrics.cache_size must not be negative")
	}
	for _, r := range cfg.Library.Roots {
		if r == "" {
			return errors.New("library.roots contains empty path")
		}
		if _, err := os.Stat(r); err != nil {
			return fmt.Errorf("library root %s: %w", r, err)
		}
	}
	if !ui.ValidTheme(cfg.UI.Theme) {
		return fmt.Errorf("ui.theme %q is unknown (available: %v)", cfg.UI.Theme, ui.ThemeNames())
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// FetchTimeout is the lyric lookup deadline.
func (c Config) FetchTimeout() time.Duration {
	d := time.Duration(c.Lyrics.TimeoutMs) * time.Millisecond
	if d == 0 {
		d = 8 * time.Second
	}
	return d
}

// Volume returns the initial volume as a level in [0, 1].
func (c Config) Volume() float64 {
	return float64(c.Player.InitialVolume) / 100
}

// execLookPath is a test seam.
var execLookPath = func(file string) (string, error) {
	return exec.LookPath(file)
}
