// Package config loads the unitsd TOML configuration file: defaulted
// storage, runtime, and server sections, the way the teacher's node
// package loaded its NodeConfig, but parsed by a real TOML decoder
// instead of hand-rolled string splitting.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// StorageType selects the ObjectStorage/WriteAheadLog backend.
type StorageType string

const (
	StorageMemory StorageType = "memory"
	StorageFile   StorageType = "file"
)

// StorageConfig is the [storage] section.
type StorageConfig struct {
	Type          StorageType `toml:"type"`
	DataDir       string      `toml:"data_dir"`
	MaxObjectSize int         `toml:"max_object_size"`
}

// RuntimeConfig is the [runtime] section: controller execution limits
// handed to the RISC-V host. Native module dispatch does not use them.
type RuntimeConfig struct {
	MaxExecutionTimeMs int   `toml:"max_execution_time_ms"`
	MaxMemoryBytes     int64 `toml:"max_memory_bytes"`
	MaxInstructions    int64 `toml:"max_instructions"`
}

// ServerConfig is the [server] section: JSON-RPC front-end limits.
type ServerConfig struct {
	MaxConnections    int `toml:"max_connections"`
	RequestTimeoutSec int `toml:"request_timeout_secs"`
}

// Config is the full unitsd configuration file.
type Config struct {
	Storage StorageConfig `toml:"storage"`
	Runtime RuntimeConfig `toml:"runtime"`
	Server  ServerConfig  `toml:"server"`
}

// Default returns a Config with sensible defaults, matching what a node
// gets when no config file is supplied at all.
func Default() Config {
	return Config{
		Storage: StorageConfig{
			Type:          StorageMemory,
			MaxObjectSize: 1 << 20,
		},
		Runtime: RuntimeConfig{
			MaxExecutionTimeMs: 5_000,
			MaxMemoryBytes:     64 << 20,
			MaxInstructions:    10_000_000,
		},
		Server: ServerConfig{
			MaxConnections:    256,
			RequestTimeoutSec: 30,
		},
	}
}

// Load reads and parses the TOML file at path, filling any fields the
// file omits from Default(). A missing path is not an error; Default()
// is returned unchanged, the same way unitsd runs with no --config flag.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for correctness.
func (c Config) Validate() error {
	switch c.Storage.Type {
	case StorageMemory, StorageFile:
	default:
		return fmt.Errorf("config: unknown storage.type %q", c.Storage.Type)
	}
	if c.Storage.Type == StorageFile && c.Storage.DataDir == "" {
		return errors.New("config: storage.data_dir must be set when storage.type is \"file\"")
	}
	if c.Storage.MaxObjectSize <= 0 {
		return errors.New("config: storage.max_object_size must be greater than 0")
	}
	if c.Runtime.MaxExecutionTimeMs <= 0 {
		return errors.New("config: runtime.max_execution_time_ms must be greater than 0")
	}
	if c.Runtime.MaxMemoryBytes <= 0 {
		return errors.New("config: runtime.max_memory_bytes must be greater than 0")
	}
	if c.Runtime.MaxInstructions <= 0 {
		return errors.New("config: runtime.max_instructions must be greater than 0")
	}
	if c.Server.MaxConnections <= 0 {
		return errors.New("config: server.max_connections must be greater than 0")
	}
	if c.Server.RequestTimeoutSec <= 0 {
		return errors.New("config: server.request_timeout_secs must be greater than 0")
	}
	return nil
}
