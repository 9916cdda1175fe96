// Package cmcfg loads the optional YAML configuration file. Values from the
// file act as defaults; command-line flags override them.
package cmcfg

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Config carries the file-provided defaults for cmpush.
type Config struct {
	RepoPath    string `yaml:"repoPath"`
	Port        int    `yaml:"port"`
	RedrawDelay int    `yaml:"redrawDelayMs"`
	NoInteract  bool   `yaml:"noInteract"`
	HideURL     bool   `yaml:"hideUrl"`
	LogDir      string `yaml:"logDir"`
	Author      string `yaml:"author"`
	AuthorEmail string `yaml:"authorEmail"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		RepoPath:    ".",
		Port:        47362,
		RedrawDelay: 250,
	}
}

// Load parses a config file over the defaults. Unknown keys are rejected so
// typos don't silently fall back to defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "read config file %s", path)
	}
	if err := yaml.UnmarshalStrict(raw, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config file %s", path)
	}
	return cfg, nil
}
