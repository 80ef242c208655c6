// Package config loads the interpreter's optional YAML configuration
// file: where save games and downloaded stories live on disk.
package config

import (
	"os"
	"path/filepath"

	"sigs.k8s.io/yaml"
)

// Config holds the interpreter-wide settings that aren't specific to
// any one story.
type Config struct {
	// SaveDirectory holds .sav files written by the save opcode. Empty
	// means alongside the story file.
	SaveDirectory string `json:"saveDirectory,omitempty"`

	// CacheDirectory holds story files downloaded through the story
	// picker. Empty means the user's default cache directory.
	CacheDirectory string `json:"cacheDirectory,omitempty"`
}

// Default returns the settings used when no config file is found.
func Default() Config {
	return Config{}
}

// Load reads a YAML config file from path, falling back to Default
// when path is empty or the file does not exist. Any other read or
// parse error is returned.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ResolveCacheDirectory returns CacheDirectory if set, otherwise a
// per-user default under os.UserCacheDir.
func (c Config) ResolveCacheDirectory() string {
	if c.CacheDirectory != "" {
		return c.CacheDirectory
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "zmcore")
}

// ResolveSavePath joins SaveDirectory with filename when set, otherwise
// returns filename unchanged so saves land next to the story file.
func (c Config) ResolveSavePath(filename string) string {
	if c.SaveDirectory == "" {
		return filename
	}
	return filepath.Join(c.SaveDirectory, filepath.Base(filename))
}
