// Package config handles meshtools configuration loading and management.
package config

import (
	"fmt"
	"strings"
)

// Config holds all processing settings.
type Config struct {
	Solidify SolidifyConfig `yaml:"solidify"`
	Repair   RepairConfig   `yaml:"repair"`
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`

	// Steps is the ordered pipeline, e.g. ["rotate:x:90", "flat", "fix"].
	Steps []string `yaml:"steps"`
}

// SolidifyConfig holds settings for closing open surfaces.
type SolidifyConfig struct {
	Depth float64 `yaml:"depth"` // flat back plane; the lowest vertex wins if it is deeper
	Mode  string  `yaml:"mode"`  // "flat" or "mirror"
}

// RepairConfig holds mesh repair settings.
type RepairConfig struct {
	Epsilon    float64 `yaml:"epsilon"` // welding tolerance relative to the bounding box diagonal
	CloseHoles bool    `yaml:"close_holes"`
	FixNormals bool    `yaml:"fix_normals"`
}

// OutputConfig controls where and how results are written.
type OutputConfig struct {
	Dir      string         `yaml:"dir"`    // empty: next to the input
	Name     string         `yaml:"name"`   // base name override; empty: input name
	Format   string         `yaml:"format"` // "stl", "obj"; empty: same as input
	Suffixes SuffixesConfig `yaml:"suffixes"`
}

// SuffixesConfig names the outputs of each step as <input>_<suffix>.<ext>.
type SuffixesConfig struct {
	Rotated string `yaml:"rotated"`
	Solid   string `yaml:"solid"`
	Mirror  string `yaml:"mirror"`
	Fixed   string `yaml:"fixed"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Solidify: SolidifyConfig{
			Depth: 0.0,
			Mode:  "flat",
		},
		Repair: RepairConfig{
			Epsilon:    1e-6,
			CloseHoles: true,
			FixNormals: false,
		},
		Output: OutputConfig{
			Suffixes: SuffixesConfig{
				Rotated: "rotated",
				Solid:   "solid",
				Mirror:  "mirror",
				Fixed:   "fixed",
			},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks values that YAML decoding cannot.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Solidify.Mode) {
	case "flat", "mirror":
	default:
		return fmt.Errorf("solidify.mode: unknown mode %q", c.Solidify.Mode)
	}
	if c.Repair.Epsilon < 0 {
		return fmt.Errorf("repair.epsilon: must not be negative, got %g", c.Repair.Epsilon)
	}
	switch strings.ToLower(c.Output.Format) {
	case "", "stl", "obj":
	default:
		return fmt.Errorf("output.format: unsupported format %q", c.Output.Format)
	}
	s := c.Output.Suffixes
	for _, v := range []struct{ name, value string }{
		{"rotated", s.Rotated}, {"solid", s.Solid}, {"mirror", s.Mirror}, {"fixed", s.Fixed},
	} {
		if v.value == "" {
			return fmt.Errorf("output.suffixes.%s: must not be empty", v.name)
		}
	}
	return nil
}
