package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/klyr/sfcroute/internal/errors"
)

// Load reads a rules file. The format follows the extension: .toml is
// decoded with go-toml, everything else (.yaml, .yml, .json) with yaml.v3.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "read config")
	}

	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "resolve config path")
	}
	cfg.baseDir = filepath.Dir(absPath)

	return cfg, nil
}

// Parse decodes a rules document. ext selects the decoder (".toml" or any
// YAML-compatible extension).
func Parse(data []byte, ext string) (*Config, error) {
	var cfg Config
	switch strings.ToLower(ext) {
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigParse, "parse config")
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&cfg); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigParse, "parse config")
		}
	}
	return &cfg, nil
}

func (c *Config) resolvePath(p string) string {
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	base := c.baseDir
	if base == "" {
		base = "."
	}
	return filepath.Join(base, p)
}

// ContextDir is the project directory used to probe installed packages.
// It defaults to the directory of the rules file.
func (c *Config) ContextDir() string {
	if c.Context == "" {
		if c.baseDir == "" {
			return "."
		}
		return c.baseDir
	}
	return c.resolvePath(c.Context)
}
