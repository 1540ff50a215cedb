// Package config provides the dakota configuration model and its loaders.
package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/corey/dakota/internal/ports"
)

// Engine names accepted by Config.Engine.
const (
	EngineMerge = "merge"
	EngineAho   = "aho"
)

// Config represents the dakota configuration model.
// All fields are optional (zero value = not set). CLI flags take precedence.
type Config struct {
	// Preprocessor
	IncludeDirs []string          `yaml:"includeDirs,omitempty"`
	Defines     map[string]string `yaml:"defines,omitempty"`

	// Substitution
	Engine    string `yaml:"engine,omitempty"` // "merge" or "aho"
	Set       string `yaml:"set,omitempty"`    // stored pattern set applied by default
	MaxSource int    `yaml:"maxSource,omitempty"`

	// Output
	LogLevel string `yaml:"logLevel,omitempty"`

	// Files the configuration was loaded from, in merge order.
	Sources []string `yaml:"-"`
}

// Validate checks enumerated and numeric fields.
func (c *Config) Validate() error {
	switch c.Engine {
	case "", EngineMerge, EngineAho:
	default:
		return fmt.Errorf("unknown engine %q (want %s or %s)", c.Engine, EngineMerge, EngineAho)
	}
	if c.MaxSource < 0 {
		return fmt.Errorf("maxSource must not be negative: %d", c.MaxSource)
	}
	for name := range c.Defines {
		if name == "" {
			return fmt.Errorf("defines: empty name")
		}
	}
	return nil
}

// EngineName returns the configured engine, defaulting to merge.
func (c *Config) EngineName() string {
	if c.Engine == "" {
		return EngineMerge
	}
	return c.Engine
}

// DefinePatterns returns Defines as patterns in name order.
func (c *Config) DefinePatterns() []ports.Pattern {
	names := make([]string, 0, len(c.Defines))
	for name := range c.Defines {
		names = append(names, name)
	}
	slices.Sort(names)
	out := make([]ports.Pattern, 0, len(names))
	for _, name := range names {
		out = append(out, ports.Pattern{Name: name, Value: c.Defines[name]})
	}
	return out
}

// ParseDefine splits a NAME=VALUE command line definition. A bare NAME
// defines an empty value.
func ParseDefine(s string) (ports.Pattern, error) {
	name, value, _ := strings.Cut(s, "=")
	if name == "" {
		return ports.Pattern{}, fmt.Errorf("invalid definition %q: empty name", s)
	}
	return ports.Pattern{Name: name, Value: value}, nil
}
