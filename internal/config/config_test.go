package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Test retarget defaults
	if cfg.Retarget.Chains != "chains.yaml" {
		t.Errorf("expected chains chains.yaml, got %s", cfg.Retarget.Chains)
	}
	if cfg.Retarget.Source != "" || cfg.Retarget.Target != "" {
		t.Error("expected no default source or target")
	}

	// Test playback defaults
	if cfg.Playback.FPS != 30 {
		t.Errorf("expected fps 30, got %d", cfg.Playback.FPS)
	}
	if !cfg.Playback.Loop {
		t.Error("expected loop to be true by default")
	}
	if cfg.Playback.TimeScale != 1 {
		t.Errorf("expected time scale 1, got %f", cfg.Playback.TimeScale)
	}
	if cfg.Retarget.PositionScale != 1 || cfg.Retarget.RotationsOnly {
		t.Errorf("expected clips to play unmodified, got scale %f rotations only %v",
			cfg.Retarget.PositionScale, cfg.Retarget.RotationsOnly)
	}

	// Test logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
	if !cfg.Logging.Sampling {
		t.Error("expected sampling to be enabled by default")
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
retarget:
  source: "mixamo/walk.yaml"
  target: "avatar.yaml"
  chains: "mapping.toml"
  clip: "walk"
  additives:
    - chain: armL
      degrees: 45
  rotations_only: true
  root_bone: "mixamorig:Hips"
  position_scale: 0.01

playback:
  fps: 60
  frames: 120
  loop: false
  time_scale: 0.5

logging:
  level: "debug"
  log_file: "retarget.log"
  sampling: false
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Load config
	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Verify values were loaded
	if cfg.Retarget.Source != "mixamo/walk.yaml" {
		t.Errorf("expected source mixamo/walk.yaml, got %s", cfg.Retarget.Source)
	}
	if cfg.Retarget.Target != "avatar.yaml" {
		t.Errorf("expected target avatar.yaml, got %s", cfg.Retarget.Target)
	}
	if cfg.Retarget.Chains != "mapping.toml" {
		t.Errorf("expected chains mapping.toml, got %s", cfg.Retarget.Chains)
	}
	if cfg.Retarget.Clip != "walk" {
		t.Errorf("expected clip walk, got %s", cfg.Retarget.Clip)
	}
	if len(cfg.Retarget.Additives) != 1 || cfg.Retarget.Additives[0].Chain != "armL" || cfg.Retarget.Additives[0].Degrees != 45 {
		t.Errorf("unexpected additives %+v", cfg.Retarget.Additives)
	}
	if !cfg.Retarget.RotationsOnly || cfg.Retarget.RootBone != "mixamorig:Hips" {
		t.Errorf("unexpected clip filtering %v %q", cfg.Retarget.RotationsOnly, cfg.Retarget.RootBone)
	}
	if cfg.Retarget.PositionScale != 0.01 {
		t.Errorf("expected position scale 0.01, got %f", cfg.Retarget.PositionScale)
	}

	if cfg.Playback.FPS != 60 {
		t.Errorf("expected fps 60, got %d", cfg.Playback.FPS)
	}
	if cfg.Playback.Frames != 120 {
		t.Errorf("expected frames 120, got %d", cfg.Playback.Frames)
	}
	if cfg.Playback.Loop {
		t.Error("expected loop to be false")
	}
	if cfg.Playback.TimeScale != 0.5 {
		t.Errorf("expected time scale 0.5, got %f", cfg.Playback.TimeScale)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "retarget.log" {
		t.Errorf("expected log file 'retarget.log', got %s", cfg.Logging.LogFile)
	}
	if cfg.Logging.Sampling {
		t.Error("expected sampling to be false")
	}
}

func TestLoadFromTOMLFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "retarget.toml")

	tomlContent := `
[retarget]
source = "src.yaml"
target = "dst.toml"

[playback]
fps = 24
`

	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Retarget.Source != "src.yaml" || cfg.Retarget.Target != "dst.toml" {
		t.Errorf("unexpected retarget section %+v", cfg.Retarget)
	}
	if cfg.Playback.FPS != 24 {
		t.Errorf("expected fps 24, got %d", cfg.Playback.FPS)
	}
	// Untouched values keep their defaults
	if cfg.Retarget.Chains != "chains.yaml" {
		t.Errorf("expected default chains, got %s", cfg.Retarget.Chains)
	}
	if !cfg.Playback.Loop {
		t.Error("expected loop to keep its default")
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	// Create temporary config file with invalid YAML
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
playback:
  fps: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Try to load - should error
	cfg := Default()
	err := loadFromFile(cfg, configPath)
	if err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	for _, name := range []string{"out.yaml", "out.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)

			cfg := Default()
			cfg.Retarget.Source = "walk.yaml"
			cfg.Retarget.Additives = []AdditiveConfig{{Chain: "armR", Degrees: -30}}
			cfg.Playback.FPS = 48

			if err := cfg.SaveTo(path); err != nil {
				t.Fatalf("failed to save config: %v", err)
			}

			loaded := Default()
			if err := loadFromFile(loaded, path); err != nil {
				t.Fatalf("failed to reload config: %v", err)
			}
			if loaded.Retarget.Source != "walk.yaml" || loaded.Playback.FPS != 48 {
				t.Errorf("unexpected reloaded config %+v", loaded)
			}
			if len(loaded.Retarget.Additives) != 1 || loaded.Retarget.Additives[0].Degrees != -30 {
				t.Errorf("unexpected additives %+v", loaded.Retarget.Additives)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	if !errors.Is(err, ErrNoSource) || !errors.Is(err, ErrNoTarget) {
		t.Errorf("expected missing source and target, got %v", err)
	}

	cfg.Retarget.Source = "a.yaml"
	cfg.Retarget.Target = "b.yaml"
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	cfg.Playback.FPS = 0
	if err := cfg.Validate(); !errors.Is(err, ErrBadFPS) {
		t.Errorf("expected fps error, got %v", err)
	}

	cfg.Playback.FPS = 30
	cfg.Retarget.PositionScale = 0
	if err := cfg.Validate(); !errors.Is(err, ErrBadPositionScale) {
		t.Errorf("expected position scale error, got %v", err)
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	// Just verify it returns a non-empty path
	// Actual path depends on OS
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}

	// Verify path is absolute
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	// Save current directory
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	// Create temp directory and change to it
	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	// No config file exists - should return empty
	path := findConfigFile()
	if path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	// Create retarget.yaml in current directory
	configPath := filepath.Join(tmpDir, "retarget.yaml")
	if err := os.WriteFile(configPath, []byte("playback:\n  fps: 12\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	// Should find it now
	path = findConfigFile()
	if path == "" {
		t.Error("expected to find retarget.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*Config)
		teardown func()
	}{
		{
			name: "debug flag",
			setup: func() {
				*flagDebug = true
			},
			verify: func(cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
				if cfg.Logging.Sampling {
					t.Error("expected sampling to be disabled with debug flag")
				}
			},
			teardown: func() {
				*flagDebug = false
			},
		},
		{
			name: "input flags",
			setup: func() {
				*flagSource = "src.yaml"
				*flagTarget = "dst.yaml"
				*flagChains = "map.toml"
				*flagClip = "run"
			},
			verify: func(cfg *Config) {
				if cfg.Retarget.Source != "src.yaml" || cfg.Retarget.Target != "dst.yaml" {
					t.Errorf("unexpected inputs %+v", cfg.Retarget)
				}
				if cfg.Retarget.Chains != "map.toml" {
					t.Errorf("expected chains map.toml, got %s", cfg.Retarget.Chains)
				}
				if cfg.Retarget.Clip != "run" {
					t.Errorf("expected clip run, got %s", cfg.Retarget.Clip)
				}
			},
			teardown: func() {
				*flagSource = ""
				*flagTarget = ""
				*flagChains = ""
				*flagClip = ""
			},
		},
		{
			name: "fps and frames flags",
			setup: func() {
				*flagFPS = 120
				*flagFrames = 0
			},
			verify: func(cfg *Config) {
				if cfg.Playback.FPS != 120 {
					t.Errorf("expected fps 120, got %d", cfg.Playback.FPS)
				}
				if cfg.Playback.Frames != 0 {
					t.Errorf("expected frames 0, got %d", cfg.Playback.Frames)
				}
			},
			teardown: func() {
				*flagFPS = 0
				*flagFrames = -1
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			tt.setup()
			defer tt.teardown()

			// Apply flags to default config
			cfg := Default()
			applyFlags(cfg)

			// Verify
			tt.verify(cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
playback:
  fps: 50
  frames: 10
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Set flag to override config file
	*flagConfig = configPath
	*flagFPS = 25
	defer func() {
		*flagConfig = ""
		*flagFPS = 0
	}()

	// Load config
	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// FPS should be from flag (25), not file (50)
	if cfg.Playback.FPS != 25 {
		t.Errorf("expected fps 25 from flag, got %d", cfg.Playback.FPS)
	}

	// Frames should be from file (10) since no flag override
	if cfg.Playback.Frames != 10 {
		t.Errorf("expected frames 10 from file, got %d", cfg.Playback.Frames)
	}
}
