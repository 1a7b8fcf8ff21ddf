package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/Faultbox/mesh-retarget/internal/fileformat"
)

var (
	ErrNoSource = errors.New("no source file configured")
	ErrNoTarget = errors.New("no target file configured")
	ErrBadFPS   = errors.New("fps must be positive")

	ErrBadPositionScale = errors.New("position scale must be positive")
)

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Try to load from file (explicit path takes priority)
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	// Apply CLI flags (highest priority)
	applyFlags(cfg)

	return cfg, nil
}

// Validate reports settings the retargeter cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if c.Retarget.Source == "" {
		errs = append(errs, ErrNoSource)
	}
	if c.Retarget.Target == "" {
		errs = append(errs, ErrNoTarget)
	}
	if c.Playback.FPS <= 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrBadFPS, c.Playback.FPS))
	}
	if c.Retarget.PositionScale <= 0 {
		errs = append(errs, fmt.Errorf("%w: %g", ErrBadPositionScale, c.Retarget.PositionScale))
	}
	return errors.Join(errs...)
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./retarget.yaml",
		"./retarget.toml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "MeshRetarget")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "MeshRetarget")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "mesh-retarget")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "mesh-retarget")
	}
}

// loadFromFile loads config from a YAML or TOML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	return fileformat.DecodeFile(path, cfg)
}
