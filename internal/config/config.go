// Package config loads .specrun.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/roach88/specrun/internal/report"
	"github.com/roach88/specrun/internal/snapshot"
)

// FileName is the config file picked up from the working directory.
const FileName = ".specrun.toml"

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds run settings. Command-line flags override it.
type Config struct {
	SnapshotDir string
	UpdateEnv   string
	Format      string
	Color       report.ColorMode
	History     string // sqlite path; empty disables history
}

type fileConfig struct {
	SnapshotDir string `toml:"snapshot_dir"`
	UpdateEnv   string `toml:"update_env"`
	Format      string `toml:"format"`
	Color       string `toml:"color"`
	History     string `toml:"history"`
}

// Default returns the settings used when no config file exists.
func Default() Config {
	return Config{
		SnapshotDir: snapshot.DefaultDir,
		UpdateEnv:   snapshot.DefaultEnvVar,
		Format:      FormatText,
		Color:       report.ColorAuto,
	}
}

// Load reads path over the defaults. Only keys present in the file are applied.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("load config: unknown keys: %s", strings.Join(keys, ", "))
	}

	if meta.IsDefined("snapshot_dir") {
		if dir := strings.TrimSpace(raw.SnapshotDir); dir != "" {
			cfg.SnapshotDir = dir
		}
	}

	if meta.IsDefined("update_env") {
		if env := strings.TrimSpace(raw.UpdateEnv); env != "" {
			cfg.UpdateEnv = env
		}
	}

	if meta.IsDefined("format") {
		cfg.Format = strings.TrimSpace(raw.Format)
	}

	if meta.IsDefined("color") {
		mode, err := report.ParseColorMode(strings.TrimSpace(raw.Color))
		if err != nil {
			return Config{}, fmt.Errorf("parse color: %w", err)
		}
		cfg.Color = mode
	}

	if meta.IsDefined("history") {
		cfg.History = strings.TrimSpace(raw.History)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDefault loads FileName from dir when it exists, and returns the
// defaults otherwise.
func LoadDefault(dir string) (Config, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks values that flags may also set.
func (c Config) Validate() error {
	switch c.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("invalid format %q: must be text or json", c.Format)
	}
	if _, err := report.ParseColorMode(string(c.Color)); err != nil {
		return err
	}
	return nil
}
