// Package config loads the optional per-repository .codegraph.yaml file
// that supplies default analyze flags (sink, filters, concurrency) so a
// project doesn't need to repeat the same CLI invocation on every run.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the config file's expected name at a repository's root.
const FileName = ".codegraph.yaml"

// Config mirrors the analyze command's tunable flags. Zero values mean
// "unset" — the CLI only applies a field when its own flag wasn't
// explicitly passed, so a missing or empty file changes nothing.
type Config struct {
	Sink         string `yaml:"sink"`
	DB           string `yaml:"db"`
	FolderFilter string `yaml:"folder_filter"`
	FilePattern  string `yaml:"file_pattern"`
	MaxFileSize  int64  `yaml:"max_file_size"`
	Concurrency  int    `yaml:"concurrency"`
}

// Load reads <repoPath>/.codegraph.yaml if present. A missing file is not
// an error — it returns a zero-value Config so callers can fall back to
// their own defaults unconditionally.
func Load(repoPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Join(repoPath, FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
