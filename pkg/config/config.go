package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

var GlobalConfig *Config

// Config global configuration
type Config struct {
	Server ServerConfig `yaml:"server"`
	Engine EngineConfig `yaml:"engine"`
	Logger LoggerConfig `yaml:"logger"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release
}

// EngineConfig dispatch/worker engine configuration
type EngineConfig struct {
	DispatchBuffer     int `yaml:"dispatch_buffer"`      // dispatch queue capacity
	SerialBuffer       int `yaml:"serial_buffer"`        // serial queue capacity
	ParallelBuffer     int `yaml:"parallel_buffer"`      // parallel queue capacity
	HighPriorityBuffer int `yaml:"high_priority_buffer"` // high-priority queue capacity
	ParallelWorkers    int `yaml:"parallel_workers"`     // parallel pool size
}

// LoggerConfig logger configuration
type LoggerConfig struct {
	Level  string           `yaml:"level"`  // debug, info, warn, error
	Output string           `yaml:"output"` // console, file, both
	File   LoggerFileConfig `yaml:"file"`
}

// LoggerFileConfig logger file configuration
type LoggerFileConfig struct {
	Path string `yaml:"path"`
}

// DefaultEngineConfig returns the engine defaults applied when values are
// missing or invalid.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		DispatchBuffer:     500,
		SerialBuffer:       500,
		ParallelBuffer:     50,
		HighPriorityBuffer: 50,
		ParallelWorkers:    4,
	}
}

// validateAndApplyDefaults clamps invalid configuration values back to
// defaults so a bad config file cannot leave the engine inoperable.
func validateAndApplyDefaults(cfg *Config) {
	defaults := DefaultEngineConfig()

	if cfg.Engine.DispatchBuffer <= 0 {
		cfg.Engine.DispatchBuffer = defaults.DispatchBuffer
	}
	if cfg.Engine.SerialBuffer <= 0 {
		cfg.Engine.SerialBuffer = defaults.SerialBuffer
	}
	if cfg.Engine.ParallelBuffer <= 0 {
		cfg.Engine.ParallelBuffer = defaults.ParallelBuffer
	}
	if cfg.Engine.HighPriorityBuffer <= 0 {
		cfg.Engine.HighPriorityBuffer = defaults.HighPriorityBuffer
	}
	if cfg.Engine.ParallelWorkers <= 0 {
		cfg.Engine.ParallelWorkers = defaults.ParallelWorkers
	}
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
}

// Init initializes configuration
func Init() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return err
	}

	validateAndApplyDefaults(&cfg)

	GlobalConfig = &cfg
	return nil
}
