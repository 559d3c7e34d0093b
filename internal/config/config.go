// Package config holds the fixed capacities of the compiler and interpreter
// and loads them from an optional TOML file.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Limits are the fixed capacities of every internal buffer. Exceeding any of
// them is an error; nothing grows at run time.
type Limits struct {
	MaxInstructions int `toml:"max_instructions"`
	MaxIdentLen     int `toml:"max_ident_len"`
	MaxLocals       int `toml:"max_locals"`
	MaxStack        int `toml:"max_stack"`
}

// Run configures program execution.
type Run struct {
	MaxSteps int `toml:"max_steps"` // 0 means unlimited
}

// Config is the contents of a weebasic.toml file.
type Config struct {
	Limits Limits `toml:"limits"`
	Run    Run    `toml:"run"`
}

// DefaultLimits returns the built-in capacities.
func DefaultLimits() Limits {
	return Limits{
		MaxInstructions: 1024,
		MaxIdentLen:     31,
		MaxLocals:       128,
		MaxStack:        256,
	}
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{Limits: DefaultLimits()}
}

// Load parses a TOML file on top of the defaults. Keys missing from the
// file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("cannot read %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse error in %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid %s: %w", path, err)
	}

	return cfg, nil
}

// Validate rejects capacities that could never hold a program.
func (c Config) Validate() error {
	checks := []struct {
		name  string
		value int
	}{
		{"limits.max_instructions", c.Limits.MaxInstructions},
		{"limits.max_ident_len", c.Limits.MaxIdentLen},
		{"limits.max_locals", c.Limits.MaxLocals},
		{"limits.max_stack", c.Limits.MaxStack},
	}

	for _, check := range checks {
		if check.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", check.name, check.value)
		}
	}

	if c.Run.MaxSteps < 0 {
		return fmt.Errorf("run.max_steps must not be negative, got %d", c.Run.MaxSteps)
	}

	return nil
}
