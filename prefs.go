package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Preferences are the user-adjustable meter settings kept between runs.
type Preferences struct {
	ApertureSize        int  `yaml:"aperture_size"`
	ZoomLevel           int  `yaml:"zoom_level"`
	PreviewSize         int  `yaml:"preview_size"`
	UpdatesContinuously bool `yaml:"updates_continuously"`
}

// DefaultPreferences returns the settings used when nothing is stored.
func DefaultPreferences() Preferences {
	return Preferences{
		ApertureSize:        DefaultApertureSize,
		ZoomLevel:           DefaultZoomLevel,
		PreviewSize:         DefaultPreviewSize,
		UpdatesContinuously: true,
	}
}

// prefsDir overrides the default preferences directory.
// When empty, ~/.labmeter is used.
var prefsDir string

func prefsPath() (string, error) {
	if prefsDir != "" {
		return filepath.Join(prefsDir, "prefs.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".labmeter", "prefs.yaml"), nil
}

// LoadPreferences reads the stored preferences. A missing file yields the
// defaults; fields absent from the file keep their default values.
func LoadPreferences() (Preferences, error) {
	prefs := DefaultPreferences()

	path, err := prefsPath()
	if err != nil {
		return prefs, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return prefs, nil
	}
	if err != nil {
		return prefs, fmt.Errorf("reading preferences: %w", err)
	}

	if err := yaml.Unmarshal(data, &prefs); err != nil {
		return DefaultPreferences(), fmt.Errorf("parsing %s: %w", path, err)
	}
	return prefs, nil
}

// SavePreferences writes prefs, creating the directory with 0700 if needed.
func SavePreferences(prefs Preferences) error {
	path, err := prefsPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(prefs)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// ApplyTo configures a with the stored settings.
func (p Preferences) ApplyTo(a *Aperture) {
	a.SetApertureSize(p.ApertureSize)
	a.SetZoomLevel(p.ZoomLevel)
	a.SetPreviewSize(p.PreviewSize)
	a.SetUpdatesContinuously(p.UpdatesContinuously)
}

// PreferencesFrom captures a's current settings.
func PreferencesFrom(a *Aperture) Preferences {
	return Preferences{
		ApertureSize:        a.ApertureSize(),
		ZoomLevel:           a.ZoomLevel(),
		PreviewSize:         a.PreviewSize(),
		UpdatesContinuously: a.UpdatesContinuously(),
	}
}
