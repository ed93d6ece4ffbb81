package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}

	closeLog, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLog.Close()

	prefsDir = cfg.PrefsDir
	prefs, err := LoadPreferences()
	if err != nil {
		slog.Warn("loading preferences, using defaults", "error", err)
	}

	capturer, method, err := NewCapturer(cfg.Backend)
	if err != nil {
		return fmt.Errorf("selecting capture backend: %w", err)
	}
	defer capturer.Close()
	slog.Info("capture backend selected", "backend", method)

	tracker := NewCursorTracker(robotPointer{}, newScreenDisplays())
	aperture := NewAperture(tracker, capturer)
	defer aperture.Close()
	prefs.ApplyTo(aperture)
	aperture.SetCaptureOptions(cfg.CaptureOptions())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var pointer <-chan struct{}
	if cfg.EventTap {
		pointer = WatchPointer(ctx)
	}

	p := tea.NewProgram(newModel(ctx, tracker, aperture, cfg.Interval, pointer, method), tea.WithAltScreen())
	aperture.SetDelegate(ApertureDelegateFunc(func(a *Aperture) {
		p.Send(snapshotMsg(a.Snapshot()))
	}))

	if _, err := p.Run(); err != nil {
		return err
	}
	// Stop in-flight captures before the deferred Close calls run.
	cancel()

	if err := SavePreferences(PreferencesFrom(aperture)); err != nil {
		slog.Warn("saving preferences", "error", err)
	}
	return nil
}

// setupLogging routes slog to a file when debugging. The terminal belongs
// to the UI, so nothing is ever written to stderr while it runs.
func setupLogging(cfg Config) (io.Closer, error) {
	if !cfg.Debug {
		slog.SetDefault(slog.New(slog.DiscardHandler))
		return io.NopCloser(nil), nil
	}
	f, err := tea.LogToFile(cfg.LogFile, "labmeter")
	if err != nil {
		return nil, fmt.Errorf("opening debug log: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return f, nil
}
