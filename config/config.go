package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sandfs/sandfs/internal/util"
	"gopkg.in/yaml.v3"
)

// Bytes per MB
const MB = 1024 * 1024

// Default configuration constants. See [Config] for field descriptions.
const (
	// DefaultPoolSize is the number of tree-operation tasks allowed in
	// flight at once
	DefaultPoolSize = 5

	// DefaultChunkSize is the buffer size for streaming file copies
	DefaultChunkSize = 1 * MB

	// DefaultQueueDepth is the bridge worker's request queue depth
	DefaultQueueDepth = 64

	// DefaultQuotaBytes of 0 means no quota is enforced
	DefaultQuotaBytes = int64(0)

	// DefaultLogLvl is the default logging level
	DefaultLogLvl = util.InfoLevel
)

// CLI verbosity ladder; maps onto util.LogLevel in reverse order.
const (
	ErrorVerbose = iota + 1
	WarnVerbose
	InfoVerbose
	DebugVerbose
	TraceVerbose
)

// Config contains runtime configuration values for the storage area.
type Config struct {
	PoolSize   int           // Max concurrent tasks per tree operation (Default 5)
	ChunkSize  int           // Streaming copy buffer size in bytes (Default 1MB)
	QueueDepth int           // Bridge request queue depth (Default 64)
	QuotaBytes int64         // Total byte budget, 0 = unlimited (Default 0)
	LogLvl     util.LogLevel // Internal log level derived from verbosity
}

// ConfigOverride uses pointer fields to distinguish between unset and zero
// values when loading partial configuration. See [Config] for field
// descriptions. LogLvl takes the CLI verbosity (1 error .. 5 trace).
type ConfigOverride struct {
	PoolSize   *int   `yaml:"pool_size,omitempty" json:"pool_size,omitempty"`
	ChunkSize  *int   `yaml:"chunk_size,omitempty" json:"chunk_size,omitempty"`
	QueueDepth *int   `yaml:"queue_depth,omitempty" json:"queue_depth,omitempty"`
	QuotaBytes *int64 `yaml:"quota_bytes,omitempty" json:"quota_bytes,omitempty"`
	LogLvl     *int   `yaml:"verbose,omitempty" json:"verbose,omitempty"`
}

// NewConfig creates a Config from defaults with any non-nil override
// fields applied on top. A nil override yields pure defaults.
func NewConfig(override *ConfigOverride) *Config {
	cfg := &Config{
		PoolSize:   DefaultPoolSize,
		ChunkSize:  DefaultChunkSize,
		QueueDepth: DefaultQueueDepth,
		QuotaBytes: DefaultQuotaBytes,
		LogLvl:     DefaultLogLvl,
	}
	if override != nil {
		cfg.Merge(override)
	}
	return cfg
}

// Merge applies non-nil values from override onto this Config.
// This allows partial configuration updates while preserving existing values.
func (c *Config) Merge(override *ConfigOverride) {
	if override.PoolSize != nil {
		c.PoolSize = *override.PoolSize
	}
	if override.ChunkSize != nil {
		c.ChunkSize = *override.ChunkSize
	}
	if override.QueueDepth != nil {
		c.QueueDepth = *override.QueueDepth
	}
	if override.QuotaBytes != nil {
		c.QuotaBytes = *override.QuotaBytes
	}
	if override.LogLvl != nil {
		c.LogLvl = verboseToLevel(*override.LogLvl)
	}
}

// verboseToLevel clamps a CLI verbosity (1-5) and maps it to a log level
func verboseToLevel(verbose int) util.LogLevel {
	if verbose < ErrorVerbose {
		verbose = ErrorVerbose
	}
	if verbose > TraceVerbose {
		verbose = TraceVerbose
	}
	levels := [5]util.LogLevel{
		util.ErrorLevel, util.WarnLevel, util.InfoLevel, util.DebugLevel, util.TraceLevel,
	}
	return levels[verbose-1]
}

// LoadConfigOverrideFile loads configuration overrides from a file without merging.
// Supports both YAML (.yaml, .yml) and JSON (.json) formats.
func LoadConfigOverrideFile(path string) (*ConfigOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override ConfigOverride

	// Determine format by file extension
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config file extension: %s", path)
	}

	return &override, nil
}

// NewConfigFromFile creates a new Config by merging file overrides with defaults.
// This is a convenience function that combines NewConfig, LoadConfigOverrideFile, and Merge.
func NewConfigFromFile(path string) (*Config, error) {
	override, err := LoadConfigOverrideFile(path)
	if err != nil {
		return nil, err
	}
	return NewConfig(override), nil
}
