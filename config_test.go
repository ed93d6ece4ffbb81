package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LABMETER_ENV", filepath.Join(t.TempDir(), "missing.env"))
	for _, k := range []string{
		"LABMETER_BACKEND", "LABMETER_INTERVAL_MS", "LABMETER_EVENT_TAP",
		"LABMETER_INCLUDE_CURSOR", "LABMETER_PORTAL_INTERACTIVE", "LABMETER_DEBUG", "LABMETER_LOG", "LABMETER_PREFS",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Backend != "auto" || cfg.Interval != defaultInterval || cfg.EventTap || cfg.Debug {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestLoadConfig_EnvThenFlags(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("LABMETER_BACKEND", " FFmpeg ")
	t.Setenv("LABMETER_INTERVAL_MS", "120")
	t.Setenv("LABMETER_EVENT_TAP", "true")

	cfg, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Backend != "ffmpeg" {
		t.Errorf("expected normalized backend ffmpeg, got %q", cfg.Backend)
	}
	if cfg.Interval != 120*time.Millisecond || !cfg.EventTap {
		t.Errorf("expected env values, got %+v", cfg)
	}

	cfg, err = LoadConfig([]string{"-backend", "native", "-interval", "30ms", "-event-tap=false"})
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Backend != "native" || cfg.Interval != 30*time.Millisecond || cfg.EventTap {
		t.Errorf("expected flags to override env, got %+v", cfg)
	}
}

func TestLoadConfig_IntervalFloor(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfig([]string{"-interval", "1ms"})
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Interval != minInterval {
		t.Errorf("expected interval %v, got %v", minInterval, cfg.Interval)
	}
}

func TestLoadConfig_DotEnv(t *testing.T) {
	clearConfigEnv(t)
	path := filepath.Join(t.TempDir(), "labmeter.env")
	if err := os.WriteFile(path, []byte("LABMETER_BACKEND=portal\nLABMETER_DEBUG=1\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LABMETER_ENV", path)

	cfg, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Backend != "portal" || !cfg.Debug {
		t.Errorf("expected values from .env, got %+v", cfg)
	}
}

func TestLoadConfig_BadFlag(t *testing.T) {
	clearConfigEnv(t)

	if _, err := LoadConfig([]string{"-no-such-flag"}); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

func TestLoadConfig_CaptureOptions(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("LABMETER_PORTAL_INTERACTIVE", "true")

	cfg, err := LoadConfig([]string{"-include-cursor"})
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got := cfg.CaptureOptions(); got != (CaptureOptions{IncludeCursor: true, Interactive: true}) {
		t.Errorf("unexpected capture options %+v", got)
	}

	cfg, err = LoadConfig([]string{"-interactive=false"})
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.CaptureOptions().Interactive {
		t.Error("expected -interactive=false to override the environment")
	}
}
