package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hpungsan/voxnote/internal/app"
	"github.com/hpungsan/voxnote/internal/audio"
	"github.com/hpungsan/voxnote/internal/config"
	"github.com/hpungsan/voxnote/internal/db"
	"github.com/hpungsan/voxnote/internal/logging"
	"github.com/hpungsan/voxnote/internal/note"
	"github.com/hpungsan/voxnote/internal/speech/wsrecognizer"
	"github.com/hpungsan/voxnote/internal/vad"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"record": true, "note": true, "folder": true,
	"export": true, "import": true, "export-note": true,
	"summarize": true, "settings": true, "recordings": true,
	"serve": true, "mcp": true, "help": true,
}

// isCLIMode determines if we should run the CLI vs the default surface.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v"
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// logOutput picks where logs go for the command about to run. The TUI and
// the stdio MCP server own the terminal streams.
func logOutput() logging.Output {
	if len(os.Args) < 2 {
		return logging.OutputFile
	}
	switch os.Args[1] {
	case "mcp":
		return logging.OutputFile
	case "record":
		for _, a := range os.Args[2:] {
			if a == "--headless" || a == "-headless" {
				return logging.OutputStderr
			}
		}
		return logging.OutputFile
	}
	return logging.OutputStderr
}

func main() {
	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion() {
		cliApp := newCLIApp(nil)
		if err := cliApp.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if len(os.Args) >= 2 && !isCLIMode() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'voxnote --help' for usage.\n")
		os.Exit(1)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("could not determine home directory: %w", err)
	}
	baseDir := filepath.Join(homeDir, ".voxnote")

	database, err := db.Init(baseDir)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	cfg, err := config.Load(baseDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	db.ConfigurePool(database, cfg)

	logger, closer, err := logging.New(cfg, baseDir, logOutput())
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := buildDeps(ctx, cfg, database, logger)
	if err != nil {
		return err
	}
	a, err := app.New(ctx, cfg, baseDir, database, deps)
	if err != nil {
		return fmt.Errorf("failed to load notes: %w", err)
	}

	appCtx, cancelApp := context.WithCancel(context.Background())
	appDone := make(chan struct{})
	go func() {
		a.Run(appCtx)
		close(appDone)
	}()
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Flush(flushCtx); err != nil {
			logger.Error("final save failed", "error", err)
		}
		cancelApp()
		<-appDone
	}()

	go func() {
		err := config.Watch(ctx, baseDir, logger, func(next *config.Config) {
			if err := a.ApplyConfig(ctx, next); err != nil {
				logger.Warn("config reload rejected", "error", err)
			}
		})
		if err != nil {
			logger.Warn("config watch disabled", "error", err)
		}
	}()

	e := &env{app: a, cfg: cfg, logger: logger}

	// No args: the terminal UI, or the MCP server when stdin is piped
	if len(os.Args) < 2 {
		if isTerminal() {
			return runTUI(ctx, e)
		}
		return runMCP(e)
	}
	return newCLIApp(e).RunContext(ctx, os.Args)
}

// buildDeps wires the capture, recognition, VAD and playback collaborators.
// A missing recognizer endpoint leaves recognition unset so recording reports
// CAPABILITY_MISSING instead of failing at startup.
func buildDeps(ctx context.Context, cfg *config.Config, database *sql.DB, logger *slog.Logger) (app.Deps, error) {
	settings, err := loadSettings(ctx, database)
	if err != nil {
		return app.Deps{}, err
	}

	deps := app.Deps{
		Microphone: &audio.PortAudioMicrophone{SampleRate: cfg.SampleRate},
		Player:     &audio.PortAudioPlayer{},
		Logger:     logger,
	}
	if cfg.RecognizerURL == "" {
		logger.Info("no recognizer_url configured; live recognition disabled")
		return deps, nil
	}

	rec := wsrecognizer.New(wsrecognizer.Config{
		URL:        cfg.RecognizerURL,
		Language:   settings.Language,
		DocTitle:   note.FormatTitle(settings.DocTitleFormat, time.Now()),
		SampleRate: cfg.SampleRate,
		Logger:     logger,
	})
	deps.Recognizer = rec

	vcfg := vad.DefaultConfig()
	vcfg.SampleRate = cfg.SampleRate
	vcfg.Mode = cfg.VADMode
	vcfg.Hangover = time.Duration(cfg.VADHangoverMS) * time.Millisecond
	det, err := vad.New(vcfg, rec, logger)
	if err != nil {
		logger.Warn("voice activity detection unavailable", "error", err)
		return deps, nil
	}
	deps.VAD = det
	return deps, nil
}

// loadSettings reads the stored settings ahead of the store so the recognizer
// can be configured with the user's language.
func loadSettings(ctx context.Context, database *sql.DB) (note.Settings, error) {
	settings := note.DefaultSettings()
	slot, err := db.GetSlot(ctx, database, db.SlotSettings)
	if err != nil || slot == nil {
		return settings, err
	}
	var stored note.Settings
	if err := json.Unmarshal(slot.Value, &stored); err != nil {
		return settings, nil
	}
	return note.MergeSettings(settings, stored), nil
}
