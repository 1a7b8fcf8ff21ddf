package rig

import (
	"sort"

	"github.com/Faultbox/mesh-retarget/internal/fileformat"
)

// ChainConfig lists a chain's joint names from the chain root outward.
type ChainConfig struct {
	Names []string `yaml:"names" toml:"names"`
}

// Config maps chain names to their joints for one skeleton.
type Config map[string]ChainConfig

// ConfigFromNames builds a Config from plain name lists.
func ConfigFromNames(chains map[string][]string) Config {
	cfg := make(Config, len(chains))
	for k, names := range chains {
		cfg[k] = ChainConfig{Names: append([]string(nil), names...)}
	}
	return cfg
}

func (c Config) sortedNames() []string {
	names := make([]string, 0, len(c))
	for k := range c {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Mapping holds the chain configuration of a source and a target skeleton.
type Mapping struct {
	Source Config `yaml:"source" toml:"source"`
	Target Config `yaml:"target" toml:"target"`
}

// LoadConfig reads a single skeleton's chain configuration from YAML or TOML.
func LoadConfig(path string) (Config, error) {
	cfg := Config{}
	if err := fileformat.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadMapping reads a source and target chain configuration from one file.
// A file without source and target sections is a single Config shared by
// both rigs.
func LoadMapping(path string) (*Mapping, error) {
	m := &Mapping{}
	if err := fileformat.DecodeFile(path, m); err != nil {
		return nil, err
	}
	if len(m.Source) > 0 || len(m.Target) > 0 {
		return m, nil
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return &Mapping{Source: cfg, Target: cfg}, nil
}
