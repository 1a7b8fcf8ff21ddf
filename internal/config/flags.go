package config

import "flag"

var (
	flagConfig = flag.String("config", "", "Path to config file")
	flagDebug  = flag.Bool("debug", false, "Enable debug logging")
	flagSource = flag.String("source", "", "Source skeleton and clips file")
	flagTarget = flag.String("target", "", "Target skeleton file")
	flagChains = flag.String("chains", "", "Chain mapping file")
	flagClip   = flag.String("clip", "", "Clip name to play")
	flagFPS    = flag.Int("fps", 0, "Sampling rate in frames per second")
	flagFrames = flag.Int("frames", -1, "Number of frames to sample (0 = one clip length)")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the arguments left after the flags, starting with the command.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Logging.Sampling = false
	}
	if *flagSource != "" {
		cfg.Retarget.Source = *flagSource
	}
	if *flagTarget != "" {
		cfg.Retarget.Target = *flagTarget
	}
	if *flagChains != "" {
		cfg.Retarget.Chains = *flagChains
	}
	if *flagClip != "" {
		cfg.Retarget.Clip = *flagClip
	}
	if *flagFPS > 0 {
		cfg.Playback.FPS = *flagFPS
	}
	if *flagFrames >= 0 {
		cfg.Playback.Frames = *flagFrames
	}
}
