// retarget is a CLI for retargeting skeletal animation between rigs.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/mesh-retarget/internal/config"
	"github.com/Faultbox/mesh-retarget/internal/logger"
	"github.com/Faultbox/mesh-retarget/internal/session"
	"github.com/Faultbox/mesh-retarget/internal/watch"
	"github.com/Faultbox/mesh-retarget/pkg/rig"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := initLogger(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	command := args[0]
	rest := args[1:]

	var cmdErr error
	switch command {
	case "run":
		cmdErr = cmdRun(cfg, rest)
	case "chains":
		cmdErr = cmdChains(cfg, rest)
	case "validate":
		cmdErr = cmdValidate(cfg)
	case "watch":
		cmdErr = cmdWatch(cfg, rest)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if cmdErr != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(cmdErr))
		fmt.Fprintf(os.Stderr, "Error: %v\n", cmdErr)
		logger.Sync()
		os.Exit(1)
	}
}

func initLogger(cfg *config.Config) error {
	var fileCfg logger.FileConfig
	if cfg.Logging.LogFile != "" {
		fileCfg = logger.DefaultFileConfig(cfg.Logging.LogFile)
	}
	var sampling *logger.SamplingConfig
	if cfg.Logging.Sampling {
		s := logger.DefaultSampling()
		sampling = &s
	}
	return logger.InitWithOptions(cfg.Logging.Level, fileCfg, true, sampling)
}

func printUsage() {
	fmt.Println(`retarget - skeletal animation retargeting

Usage:
  retarget [flags] <command> [options]

Flags:
  -config <file>   Config file (YAML or TOML)
  -source <file>   Source skeleton and clips
  -target <file>   Target skeleton
  -chains <file>   Chain mapping
  -clip <name>     Clip to play (default: first)
  -fps <n>         Sampling rate
  -frames <n>      Frames to sample (0 = one clip length)
  -debug           Debug logging

Commands:
  run [-matrices]            Retarget the clip and print every frame as YAML
  chains [-side target]      Print a rig's resolved chains
  validate                   Check the chain mapping against both skeletons
  watch [-matrices]          Re-run whenever an input file changes

Examples:
  retarget -source walk.yaml -target avatar.yaml -chains mapping.yaml run
  retarget -config retarget.toml chains -side source
  retarget -config retarget.toml watch`)
}

func cmdRun(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	matrices := fs.Bool("matrices", false, "Include every target bone's world and skin matrix")
	fs.Parse(args)

	s, err := session.New(cfg)
	if err != nil {
		return err
	}
	return s.Run(os.Stdout, session.RunOptions{Matrices: *matrices})
}

func cmdChains(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("chains", flag.ExitOnError)
	side := fs.String("side", "target", "Rig to describe: source or target")
	fs.Parse(args)

	m, err := rig.LoadMapping(cfg.Retarget.Chains)
	if err != nil {
		return err
	}

	var r *rig.Rig
	switch *side {
	case "source":
		r, err = session.LoadRig(cfg.Retarget.Source, m.Source)
	case "target":
		r, err = session.LoadRig(cfg.Retarget.Target, m.Target)
	default:
		return fmt.Errorf("unknown side %q", *side)
	}
	if err != nil {
		return err
	}

	session.DescribeRig(os.Stdout, r)
	return nil
}

func cmdValidate(cfg *config.Config) error {
	s, err := session.New(cfg)
	if err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}
	fmt.Println("OK")
	return nil
}

func cmdWatch(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	matrices := fs.Bool("matrices", false, "Include every target bone's world and skin matrix")
	fs.Parse(args)
	opts := session.RunOptions{Matrices: *matrices}

	w, err := watch.New(config.ConfigPath(), cfg.Retarget.Source, cfg.Retarget.Target, cfg.Retarget.Chains)
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runOnce := func(cfg *config.Config) {
		s, err := session.New(cfg)
		if err == nil {
			err = s.Run(os.Stdout, opts)
		}
		if err != nil {
			logger.Error("run failed", zap.Error(err))
		}
	}

	runOnce(cfg)
	logger.Info("watching for changes", zap.Strings("files", w.Files()))

	return w.Run(ctx, func(changed []string) {
		names := make([]string, len(changed))
		for i, c := range changed {
			names[i] = filepath.Base(c)
		}
		logger.Info("inputs changed, re-running", zap.Strings("files", names))

		next, err := config.Load()
		if err != nil {
			logger.Error("config reload failed", zap.Error(err))
			return
		}
		runOnce(next)
	})
}

