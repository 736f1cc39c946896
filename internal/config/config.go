// Package config handles configuration loading and management.
// Resolution order: built-in defaults, then testguard.yml at the project
// root, then environment variables (a .env file is loaded by the root
// command before this runs).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the per-project configuration file.
const ConfigFileName = "testguard.yml"

// dataSubdir is where run outputs live, relative to the project root.
const dataSubdir = ".testguard"

// Storage backends.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
)

// ErrUnknownBackend indicates a storage backend outside {file, badger}.
var ErrUnknownBackend = errors.New("unknown storage backend")

// Config holds the application configuration.
type Config struct {
	// ProjectRoot anchors the result store and relative module IDs.
	ProjectRoot string `yaml:"project_root"`
	// StorageBackend selects where run outputs are persisted.
	StorageBackend string `yaml:"storage_backend"`
	// DefaultFramework is used by `run` when detection from argv fails.
	DefaultFramework string `yaml:"default_framework"`
	// LogLevel is a logrus level name.
	LogLevel string `yaml:"log_level"`
}

// Load reads configuration for the given project root. An empty root means
// the current working directory. A missing testguard.yml is fine; defaults
// and environment variables still apply.
func Load(projectRoot string) (*Config, error) {
	cfg := &Config{
		StorageBackend: BackendFile,
		LogLevel:       "info",
	}

	if projectRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolving working directory: %w", err)
		}
		projectRoot = wd
	}

	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}
	cfg.ProjectRoot = abs

	if err := cfg.loadFile(filepath.Join(abs, ConfigFileName)); err != nil {
		return nil, err
	}
	cfg.applyEnv()

	// The config file must not relocate the project it belongs to.
	cfg.ProjectRoot = abs

	if cfg.StorageBackend != BackendFile && cfg.StorageBackend != BackendBadger {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.StorageBackend)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TESTGUARD_STORAGE"); v != "" {
		c.StorageBackend = v
	}
	if v := os.Getenv("TESTGUARD_FRAMEWORK"); v != "" {
		c.DefaultFramework = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// DataDir returns the directory holding persisted run outputs.
func (c *Config) DataDir() string {
	return filepath.Join(c.ProjectRoot, dataSubdir, "data")
}

// BadgerDir returns the badger database directory.
func (c *Config) BadgerDir() string {
	return filepath.Join(c.ProjectRoot, dataSubdir, "badger")
}

// Save writes the configuration to testguard.yml at the project root.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	path := filepath.Join(c.ProjectRoot, ConfigFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return nil
}

func (c *Config) String() string {
	framework := c.DefaultFramework
	if framework == "" {
		framework = "(auto-detect)"
	}

	return fmt.Sprintf(`Current Configuration:
======================
Project Root:      %s
Storage Backend:   %s
Data Directory:    %s
Default Framework: %s
Log Level:         %s`,
		c.ProjectRoot,
		c.StorageBackend,
		c.DataDir(),
		framework,
		c.LogLevel,
	)
}
