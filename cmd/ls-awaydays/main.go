// Command ls-awaydays animates a football team's season of away trips on a terminal globe.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/litescript/ls-awaydays/internal/config"
	"github.com/litescript/ls-awaydays/internal/export"
	"github.com/litescript/ls-awaydays/internal/fixture"
	"github.com/litescript/ls-awaydays/internal/logging"
	"github.com/litescript/ls-awaydays/internal/publisher"
	"github.com/litescript/ls-awaydays/internal/scene"
	"github.com/litescript/ls-awaydays/internal/server"
	"github.com/litescript/ls-awaydays/internal/state"
	"github.com/litescript/ls-awaydays/internal/timeline"
	"github.com/litescript/ls-awaydays/internal/ui"
)

func main() {
	config.LoadDotEnv("")
	cfg, err := config.Parse(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	interactive := !cfg.Headless() && cfg.ServerAddr == "" && isTTY
	if !cfg.Headless() && cfg.ServerAddr == "" && !isTTY {
		// Nothing to draw on: print the summary instead
		cfg.Summary = true
	}

	logger, closeLog, err := setupLogging(cfg, interactive)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	// Create context with cancellation
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ds, loadErr := fixture.Load(ctx, fixture.Source{
		Trips:    cfg.Data,
		Stadiums: cfg.Stadiums,
		Log:      logger.Named("fixture"),
	})

	switch {
	case cfg.ServerAddr != "":
		exitOn(loadErr)
		exitOn(runServer(ctx, cfg, ds, logger))
	case cfg.Headless():
		exitOn(loadErr)
		exitOn(runHeadless(ctx, cfg, ds, logger))
	default:
		exitOn(runTUI(ctx, cfg, ds, loadErr, logger))
	}
}

func exitOn(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// setupLogging keeps log lines off the alt screen: in TUI mode they go to the log file or nowhere.
func setupLogging(cfg *config.Config, interactive bool) (*logging.Logger, func(), error) {
	level := logging.ParseLevel(cfg.LogLevel)
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		return logging.NewWithOutput(level, f), func() { f.Close() }, nil
	}
	if interactive {
		return logging.NewWithOutput(level, io.Discard), func() {}, nil
	}
	return logging.New(level), func() {}, nil
}

func runTUI(ctx context.Context, cfg *config.Config, ds *fixture.Dataset, loadErr error, logger *logging.Logger) error {
	var model ui.Model
	if loadErr != nil {
		logger.Error("load dataset: %v", loadErr)
		model = ui.NewError(loadErr)
	} else {
		opts := ui.Options{
			Timings: cfg.Timings,
			Texture: loadTexture(cfg, logger),
			State:   state.NewManager(state.DefaultConfig()),
			Log:     logger,
		}
		if cfg.RedisURL != "" {
			rs, err := startRedisStream(ctx, cfg, logger)
			if err != nil {
				logger.Warn("redis disabled: %v", err)
			} else {
				opts.Extra = rs
			}
		}
		model = ui.New(ds, cfg.Team, opts)
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

func loadTexture(cfg *config.Config, logger *logging.Logger) scene.Texture {
	if cfg.Texture == "" {
		return scene.NewSolidTexture(scene.FallbackColor)
	}
	return scene.LoadTexture(cfg.Texture, logger.Named("scene"))
}

func startRedisStream(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*publisher.RedisStream, error) {
	client, err := publisher.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	rs := publisher.NewRedisStream(client, cfg.Team, publisher.DefaultBuffer, logger.Named("redis"))
	go func() {
		defer client.Close()
		if err := rs.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("redis stream: %v", err)
		}
	}()
	return rs, nil
}

func runServer(ctx context.Context, cfg *config.Config, ds *fixture.Dataset, logger *logging.Logger) error {
	opts := server.Options{
		Timings:     cfg.Timings,
		CORSOrigins: cfg.CORSOrigins,
	}
	if cfg.RedisURL != "" {
		client, err := publisher.Connect(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("redis disabled: %v", err)
		} else {
			defer client.Close()
			opts.Streamer = client
		}
	}

	srv := server.New(ds, opts, logger.Named("server"))
	return srv.ListenAndServe(ctx, cfg.ServerAddr)
}

// runHeadless handles all headless modes without starting the TUI.
func runHeadless(ctx context.Context, cfg *config.Config, ds *fixture.Dataset, logger *logging.Logger) error {
	if cfg.ExportSQLite != "" {
		if err := exportSQLite(ctx, cfg.ExportSQLite, ds); err != nil {
			return err
		}
		logger.Info("wrote %d teams to %s", len(ds.Teams()), cfg.ExportSQLite)
	}

	if cfg.List {
		export.WriteTeamList(os.Stdout, ds)
	}

	if !cfg.Summary && cfg.SnapshotPath == "" {
		return nil
	}

	it, err := ds.Team(cfg.Team)
	if err != nil {
		return err
	}
	cursor := cfg.At
	if cursor == config.AtEnd || cursor > it.Len() {
		cursor = it.Len()
	}
	snap := timeline.Replay(it, ds, cursor, logger.Named("timeline"))

	// Export JSON if requested
	if cfg.SnapshotPath != "" {
		exp := export.ExportSnapshot(it, snap, time.Now())
		if cfg.SnapshotPath == "-" {
			if err := exp.WriteJSON(os.Stdout); err != nil {
				return fmt.Errorf("write JSON to stdout: %w", err)
			}
		} else {
			f, err := os.Create(cfg.SnapshotPath)
			if err != nil {
				return fmt.Errorf("create snapshot file: %w", err)
			}
			defer f.Close()
			if err := exp.WriteJSON(f); err != nil {
				return fmt.Errorf("write JSON to file: %w", err)
			}
		}
	}

	// Print summary table if requested
	if cfg.Summary {
		export.WriteSummaryTable(os.Stdout, it, snap)
	}
	return nil
}

func exportSQLite(ctx context.Context, path string, ds *fixture.Dataset) error {
	db, err := fixture.OpenSQL(ctx, fixture.DialectSQLite, path)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := fixture.WriteSQL(ctx, db, fixture.DialectSQLite, ds); err != nil {
		return fmt.Errorf("export sqlite: %w", err)
	}
	return nil
}
