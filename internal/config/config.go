// Package config parses the project-local .wok/config.toml file and
// resolves the daemon's user-level state directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/wok-dev/wok/internal/wokerr"
)

// ErrNotInitialized is returned by FindProjectRoot when no ancestor
// directory contains a .wok/config.toml.
var ErrNotInitialized = wokerr.New(wokerr.KindNotFound, ".wok/config.toml", "project not initialized")

// Config is the parsed shape of .wok/config.toml.
type Config struct {
	Prefix  string `toml:"prefix"`
	Private bool   `toml:"private"`
}

// Load parses dir/.wok/config.toml.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, ".wok", "config.toml")
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return nil, wokerr.Wrap(wokerr.KindNotFound, path, err)
		}
		return nil, wokerr.Wrap(wokerr.KindInput, path, err)
	}
	return &cfg, nil
}

// Save writes cfg to dir/.wok/config.toml, creating the .wok directory
// if needed.
func Save(dir string, cfg *Config) error {
	wokDir := filepath.Join(dir, ".wok")
	if err := os.MkdirAll(wokDir, 0o755); err != nil {
		return wokerr.Wrap(wokerr.KindDurability, wokDir, err)
	}
	f, err := os.Create(filepath.Join(wokDir, "config.toml"))
	if err != nil {
		return wokerr.Wrap(wokerr.KindDurability, wokDir, err)
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// FindProjectRoot walks upward from start until a directory containing
// .wok/config.toml is found.
func FindProjectRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", wokerr.Wrap(wokerr.KindInput, start, err)
	}

	for {
		marker := filepath.Join(dir, ".wok", "config.toml")
		if info, err := os.Stat(marker); err == nil && !info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotInitialized
		}
		dir = parent
	}
}

// ResolveStateDir resolves the daemon's user-level state directory:
// WOK_STATE_DIR, then XDG_STATE_HOME/wok, then ~/.local/state/wok.
func ResolveStateDir() (string, error) {
	if v := os.Getenv("WOK_STATE_DIR"); v != "" {
		return v, nil
	}
	if v := os.Getenv("XDG_STATE_HOME"); v != "" {
		return filepath.Join(v, "wok"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home dir: %w", err)
	}
	return filepath.Join(home, ".local", "state", "wok"), nil
}
