package config

import (
	"path/filepath"

	"github.com/Faultbox/mesh-retarget/internal/fileformat"
)

// Save writes the config to the user's config directory.
func (c *Config) Save() error {
	return c.SaveTo(filepath.Join(ConfigDir(), "config.yaml"))
}

// SaveTo writes the config to a specific path. The extension picks YAML or TOML.
func (c *Config) SaveTo(path string) error {
	return fileformat.EncodeFile(path, c)
}
