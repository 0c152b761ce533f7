package cli

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds file-based defaults for connection flags. Flags given on the
// command line win over config values.
type Config struct {
	// Driver is the default database driver (sqlite|postgres).
	Driver string `yaml:"driver,omitempty"`

	// DSN is the default connection string (file path for sqlite).
	DSN string `yaml:"dsn,omitempty"`

	// Chunk is the default rows-per-fetch for query streaming.
	Chunk int `yaml:"chunk,omitempty"`
}

// LoadConfig reads a YAML config file. Unknown fields are rejected so a
// typoed key fails loudly instead of being ignored.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Driver != "" && !isValidDriver(cfg.Driver) {
		return nil, fmt.Errorf("invalid config driver %q: must be one of %v", cfg.Driver, ValidDrivers)
	}
	if cfg.Chunk < 0 {
		return nil, fmt.Errorf("config chunk must be non-negative")
	}
	return &cfg, nil
}

// loadConfigIfSet loads the config named by the root --config flag, or
// returns an empty config when the flag is unset.
func loadConfigIfSet(opts *RootOptions) (*Config, error) {
	if opts.ConfigPath == "" {
		return &Config{}, nil
	}
	return LoadConfig(opts.ConfigPath)
}

func isValidDriver(name string) bool {
	for _, d := range ValidDrivers {
		if d == name {
			return true
		}
	}
	return false
}
