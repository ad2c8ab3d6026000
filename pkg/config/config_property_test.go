// Package config provides property-based tests for configuration fallback.
// These tests verify that invalid engine values can never disable dispatch:
// whatever a config file contains, the applied configuration is operable.
package config

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestProperty_InvalidBuffersFallBackToDefaults tests that non-positive
// queue capacities and worker counts fall back to the defaults.
func TestProperty_InvalidBuffersFallBackToDefaults(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)
	defaults := DefaultEngineConfig()

	properties.Property("non-positive engine values fall back to defaults", prop.ForAll(
		func(value int) bool {
			cfg := &Config{
				Engine: EngineConfig{
					DispatchBuffer:     value,
					SerialBuffer:       value,
					ParallelBuffer:     value,
					HighPriorityBuffer: value,
					ParallelWorkers:    value,
				},
			}

			validateAndApplyDefaults(cfg)

			return cfg.Engine == defaults
		},
		gen.IntRange(-1000, 0),
	))

	properties.Property("valid engine values are preserved", prop.ForAll(
		func(value int) bool {
			cfg := &Config{
				Engine: EngineConfig{
					DispatchBuffer:     value,
					SerialBuffer:       value,
					ParallelBuffer:     value,
					HighPriorityBuffer: value,
					ParallelWorkers:    value,
				},
			}

			validateAndApplyDefaults(cfg)

			return cfg.Engine.DispatchBuffer == value &&
				cfg.Engine.SerialBuffer == value &&
				cfg.Engine.ParallelBuffer == value &&
				cfg.Engine.HighPriorityBuffer == value &&
				cfg.Engine.ParallelWorkers == value
		},
		gen.IntRange(1, 10000),
	))

	properties.TestingRun(t)
}

// TestProperty_ServerPortFallsBackToDefault tests the server port fallback.
func TestProperty_ServerPortFallsBackToDefault(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("non-positive ports fall back to 8080", prop.ForAll(
		func(port int) bool {
			cfg := &Config{Server: ServerConfig{Port: port}}
			validateAndApplyDefaults(cfg)
			return cfg.Server.Port == 8080
		},
		gen.IntRange(-100, 0),
	))

	properties.TestingRun(t)
}
