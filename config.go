package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultInterval = 50 * time.Millisecond
	minInterval     = 10 * time.Millisecond
)

// Config holds process settings. Values come from a .env file, then the
// environment, then command-line flags, each overriding the previous.
type Config struct {
	Backend       string
	Interval      time.Duration
	EventTap      bool
	IncludeCursor bool
	Interactive   bool
	Debug         bool
	LogFile       string
	PrefsDir      string
}

// LoadConfig resolves the configuration for the given command-line args.
func LoadConfig(args []string) (Config, error) {
	envPath := getEnvWithDefault("LABMETER_ENV", ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return Config{}, fmt.Errorf("loading %s: %w", envPath, err)
		}
	}

	cfg := Config{
		Backend:       getEnvWithDefault("LABMETER_BACKEND", "auto"),
		Interval:      defaultInterval,
		EventTap:      envBool("LABMETER_EVENT_TAP"),
		IncludeCursor: envBool("LABMETER_INCLUDE_CURSOR"),
		Interactive:   envBool("LABMETER_PORTAL_INTERACTIVE"),
		Debug:         envBool("LABMETER_DEBUG"),
		LogFile:       getEnvWithDefault("LABMETER_LOG", "labmeter-debug.log"),
		PrefsDir:      os.Getenv("LABMETER_PREFS"),
	}
	if v := os.Getenv("LABMETER_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Interval = time.Duration(n) * time.Millisecond
		}
	}

	fs := flag.NewFlagSet("labmeter", flag.ContinueOnError)
	fs.StringVar(&cfg.Backend, "backend", cfg.Backend, "capture backend: auto, native, portal or ffmpeg")
	fs.DurationVar(&cfg.Interval, "interval", cfg.Interval, "polling interval")
	fs.BoolVar(&cfg.EventTap, "event-tap", cfg.EventTap, "wake on global mouse events between polls")
	fs.BoolVar(&cfg.IncludeCursor, "include-cursor", cfg.IncludeCursor, "draw the pointer into captures where supported")
	fs.BoolVar(&cfg.Interactive, "interactive", cfg.Interactive, "let the desktop portal confirm each screenshot")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "write debug log to -log")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "debug log path")
	fs.StringVar(&cfg.PrefsDir, "prefs", cfg.PrefsDir, "preferences directory (default ~/.labmeter)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	cfg.Interval = max(cfg.Interval, minInterval)
	return cfg, nil
}

// CaptureOptions returns the capture settings chosen by the user.
func (c Config) CaptureOptions() CaptureOptions {
	return CaptureOptions{IncludeCursor: c.IncludeCursor, Interactive: c.Interactive}
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}
