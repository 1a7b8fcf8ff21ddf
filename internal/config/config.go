// Package config handles retarget configuration loading and management.
package config

// Config holds all retarget settings.
type Config struct {
	Retarget RetargetConfig `yaml:"retarget" toml:"retarget"`
	Playback PlaybackConfig `yaml:"playback" toml:"playback"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
}

// RetargetConfig holds the input files and corrections.
type RetargetConfig struct {
	Source    string           `yaml:"source" toml:"source"` // Source skeleton and clips
	Target    string           `yaml:"target" toml:"target"` // Target skeleton
	Chains    string           `yaml:"chains" toml:"chains"` // Chain mapping
	Clip      string           `yaml:"clip" toml:"clip"`     // Clip name, empty for the first
	Additives []AdditiveConfig `yaml:"additives" toml:"additives"`

	// RotationsOnly drops position and scale keys except the root bone's positions.
	RotationsOnly bool    `yaml:"rotations_only" toml:"rotations_only"`
	RootBone      string  `yaml:"root_bone" toml:"root_bone"` // Empty for the source pelvis joint
	// PositionScale multiplies every position key of the clip.
	PositionScale float32 `yaml:"position_scale" toml:"position_scale"`
}

// AdditiveConfig is a fixed twist applied to one target chain.
type AdditiveConfig struct {
	Chain   string  `yaml:"chain" toml:"chain"`
	Degrees float32 `yaml:"degrees" toml:"degrees"`
}

// PlaybackConfig holds sampling settings.
type PlaybackConfig struct {
	FPS       int     `yaml:"fps" toml:"fps"`
	Frames    int     `yaml:"frames" toml:"frames"` // 0 plays the clip once
	Loop      bool    `yaml:"loop" toml:"loop"`
	TimeScale float32 `yaml:"time_scale" toml:"time_scale"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level    string `yaml:"level" toml:"level"`
	LogFile  string `yaml:"log_file" toml:"log_file"`
	Sampling bool   `yaml:"sampling" toml:"sampling"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Retarget: RetargetConfig{
			Chains:        "chains.yaml",
			PositionScale: 1,
		},
		Playback: PlaybackConfig{
			FPS:       30,
			Frames:    0,
			Loop:      true,
			TimeScale: 1,
		},
		Logging: LoggingConfig{
			Level:    "info",
			LogFile:  "",
			Sampling: true,
		},
	}
}
