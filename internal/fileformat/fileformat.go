// Package fileformat reads and writes the YAML and TOML documents used for
// configuration, chain definitions and skeleton descriptions.
package fileformat

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for file extensions other than YAML or TOML.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Format identifies a document encoding.
type Format int

const (
	YAML Format = iota
	TOML
)

func (f Format) String() string {
	switch f {
	case TOML:
		return "toml"
	default:
		return "yaml"
	}
}

// FormatOf picks the encoding from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".toml":
		return TOML, nil
	default:
		return YAML, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Unmarshal decodes data in the given format into v.
func Unmarshal(f Format, data []byte, v any) error {
	if f == TOML {
		return toml.Unmarshal(data, v)
	}
	return yaml.Unmarshal(data, v)
}

// Marshal encodes v in the given format.
func Marshal(f Format, v any) ([]byte, error) {
	if f == TOML {
		return toml.Marshal(v)
	}
	return yaml.Marshal(v)
}

// DecodeFile reads path and decodes it into v, merging with existing values.
func DecodeFile(path string, v any) error {
	f, err := FormatOf(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := Unmarshal(f, data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

// EncodeFile writes v to path, creating the parent directory if needed.
func EncodeFile(path string, v any) error {
	f, err := FormatOf(path)
	if err != nil {
		return err
	}
	data, err := Marshal(f, v)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
