package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/exec"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cadence/cadence/internal/app"
	"github.com/cadence/cadence/internal/config"
	"github.com/cadence/cadence/internal/history"
	"github.com/cadence/cadence/internal/logging"
	"github.com/cadence/cadence/internal/lyrics"
	"github.com/cadence/cadence/internal/playback"
	"github.com/cadence/cadence/internal/player"
	"github.com/cadence/cadence/internal/provider"
	"github.com/cadence/cadence/internal/providers/filesystem"
	"github.com/cadence/cadence/internal/providers/lrclib"
	"github.com/cadence/cadence/internal/store"
	"github.com/cadence/cadence/internal/ui"
)

var version = "0.1.0"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Cadence - a terminal music player with synced lyrics

Usage: cadence [options] [paths...]

Options:
  -config string
        Path to config file (default: ~/.config/cadence/config.toml)
  -version
        Print version and exit
  -doctor
        Check configuration and dependencies

Playback:
  -play
        Scan the given paths (or library roots) and start playing
  -shuffle
        Enable shuffle before playing

Examples:
  cadence                                  # Resume the saved queue
  cadence -doctor                          # Check setup
  cadence -play ~/Music/Album              # Play a directory
  cadence -play -shuffle                   # Shuffle the whole library

`)
	}

	cfgPath := flag.String("config", "", "")
	doctor := flag.Bool("doctor", false, "")
	showVersion := flag.Bool("version", false, "")
	autoPlay := flag.Bool("play", false, "")
	shuffle := flag.Bool("shuffle", false, "")
	flag.Parse()

	if *showVersion {
		fmt.Println("cadence", version)
		return
	}

	cfg, resolvedPath, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, logFile, err := logging.Setup(cfg.Log.Level)
	if err != nil {
		log.Fatalf("setup logging: %v", err)
	}
	defer logFile.Close()
	slog.SetDefault(logger)
	logger.Info("starting cadence", slog.String("config", resolvedPath), slog.String("version", version))

	if *doctor {
		runDoctor(cfg, logger)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var st store.Store
	db, err := store.OpenSQLite(cfg.State.DBPath)
	if err != nil {
		logger.Warn("state store unavailable, using memory", slog.Any("err", err))
		st = store.NewMemory()
	} else {
		defer db.Close()
		st = db
	}

	mpv := player.New(player.Options{
		MPVPath: cfg.Player.MPVPath,
		IPCPath: cfg.Player.IPC,
		Logger:  logger,
	})
	if err := mpv.Start(ctx); err != nil {
		logger.Error("start player", slog.Any("err", err))
		log.Fatalf("start player: %v", err)
	}
	defer mpv.Stop()

	fetcher, cache, err := buildLyrics(cfg, logger)
	if err != nil {
		log.Fatalf("lyrics: %v", err)
	}

	opts := playback.Options{
		Backend:       mpv,
		Store:         st,
		PersistQueue:  cfg.State.PersistQueue,
		History:       history.Load(ctx, st, logger),
		Logger:        logger,
		Fetcher:       fetcher,
		FetchTimeout:  cfg.FetchTimeout(),
		InitialVolume: cfg.Volume(),
	}
	ctrl, err := playback.New(ctx, opts)
	if err != nil {
		log.Fatalf("playback: %v", err)
	}

	if *autoPlay {
		if err := startPlayback(ctx, ctrl, cfg, logger, flag.Args(), *shuffle); err != nil {
			log.Fatalf("play: %v", err)
		}
	} else if err := ctrl.RestoreQueue(ctx); err != nil {
		logger.Warn("restore queue", slog.Any("err", err))
	}

	noColor := os.Getenv("NO_COLOR") != "" || cfg.UI.NoEmoji
	model := app.New(ctx, app.Options{
		Controller: ctrl,
		Events:     mpv.Events(),
		Theme:      ui.GetTheme(cfg.UI.Theme, noColor),
		NoEmoji:    cfg.UI.NoEmoji,
		SeekStep:   float64(cfg.Player.SeekSmall),
		VolumeStep: float64(cfg.Player.VolumeStep) / 100,
		CacheLen:   cache,
	})
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		logger.Error("run tui", slog.Any("err", err))
		log.Fatalf("tui: %v", err)
	}

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	cancel()
	ctrl.Close()
	if err := ctrl.Wait(waitCtx); err != nil {
		logger.Warn("lyric fetches still running at exit", slog.Any("err", err))
	}
}

// buildLyrics wires embedded tags and LRCLIB behind the cache. A nil fetcher
// means lyrics are disabled.
func buildLyrics(cfg *config.Config, logger *slog.Logger) (provider.LyricsFetcher, func() int, error) {
	if !cfg.Lyrics.Enabled {
		return nil, nil, nil
	}
	var sources []lyrics.Source
	if cfg.Lyrics.Embedded {
		sources = append(sources, lyrics.Source{Name: "embedded", Fetcher: filesystem.EmbeddedLyrics{}})
	}
	client, err := lrclib.New(lrclib.Config{
		BaseURL: cfg.Lyrics.LRCLibURL,
		Timeout: cfg.FetchTimeout(),
		Logger:  logger,
	})
	if err != nil {
		return nil, nil, err
	}
	sources = append(sources, lyrics.Source{Name: "lrclib", Fetcher: client})
	cached, err := lyrics.NewCachingFetcher(lyrics.NewChain(logger, sources...), cfg.Lyrics.CacheSize)
	if err != nil {
		return nil, nil, err
	}
	return cached, cached.Len, nil
}

func startPlayback(ctx context.Context, ctrl *playback.Controller, cfg *config.Config, logger *slog.Logger, paths []string, shuffle bool) error {
	lib, err := filesystem.New(filesystem.Config{
		Roots:         cfg.Library.Roots,
		ProbeDuration: cfg.Library.ProbeDuration,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	start := time.Now()
	var tracks []provider.Track
	if len(paths) > 0 {
		tracks, err = lib.Scan(ctx, paths...)
	} else {
		tracks, err = lib.Tracks(ctx)
	}
	if err != nil {
		return err
	}
	logger.Info("scan complete", slog.Int("tracks", len(tracks)), slog.Duration("duration", time.Since(start)))
	if len(tracks) == 0 {
		return fmt.Errorf("no playable files found")
	}
	if shuffle {
		ctrl.ToggleShuffle(ctx)
	}
	ctrl.PlayQueue(ctx, tracks, 0)
	return nil
}

func runDoctor(cfg *config.Config, logger *slog.Logger) {
	fmt.Println("Cadence doctor")
	fmt.Println("Config file: OK")

	mpvPath, err := exec.LookPath(cfg.Player.MPVPath)
	if err != nil {
		fmt.Printf("mpv (%s): NOT FOUND\n", cfg.Player.MPVPath)
	} else {
		fmt.Printf("mpv: OK (%s)\n", mpvPath)
	}

	ffprobePath, err := exec.LookPath("ffprobe")
	if err != nil {
		fmt.Println("ffprobe: NOT FOUND (optional, for duration detection)")
	} else {
		fmt.Printf("ffprobe: OK (%s)\n", ffprobePath)
	}

	db, err := store.OpenSQLite(cfg.State.DBPath)
	if err != nil {
		fmt.Printf("State db (%s): ERROR - %v\n", cfg.State.DBPath, err)
	} else {
		db.Close()
		fmt.Printf("State db: OK (%s)\n", cfg.State.DBPath)
	}

	if !cfg.Lyrics.Enabled {
		fmt.Println("Lyrics: disabled")
	} else if _, err := lrclib.New(lrclib.Config{BaseURL: cfg.Lyrics.LRCLibURL}); err != nil {
		fmt.Printf("LRCLIB: ERROR - %v\n", err)
	} else {
		fmt.Printf("LRCLIB: OK (%s)\n", cfg.Lyrics.LRCLibURL)
	}

	fmt.Printf("Library roots: %d\n", len(cfg.Library.Roots))
	logger.Info("doctor complete")
}
