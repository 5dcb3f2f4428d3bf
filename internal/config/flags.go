package config

import (
	"flag"
	"fmt"
	"strings"
)

// Flags holds command-line overrides. Every option has a long and a short
// name, e.g. -flat and -f.
type Flags struct {
	ConfigPath string
	Flat       bool
	Mirror     bool
	Fix        bool
	Normals    bool
	Rotate     string
	Depth      float64
	Output     string
	OutputDir  string
	Verbose    bool

	fs *flag.FlagSet
}

// RegisterFlags binds the processing flags to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVar(&f.ConfigPath, "config", "", "Path to config file")
	boolFlag(fs, &f.Flat, "flat", "f", "Solidify the mesh with a flat back")
	boolFlag(fs, &f.Mirror, "mirror", "m", "Solidify the mesh with a mirrored back")
	boolFlag(fs, &f.Fix, "fix", "x", "Repair the mesh")
	boolFlag(fs, &f.Normals, "normals", "n", "Also fix winding and normals when repairing")
	boolFlag(fs, &f.Verbose, "verbose", "v", "Enable debug logging")
	fs.StringVar(&f.Rotate, "rotate", "", "Rotate by axis:degrees first, e.g. x:90")
	fs.StringVar(&f.Rotate, "r", "", "Shorthand for -rotate")
	fs.Float64Var(&f.Depth, "depth", 0, "Flat back depth; the lowest vertex wins if it is deeper")
	fs.Float64Var(&f.Depth, "d", 0, "Shorthand for -depth")
	fs.StringVar(&f.Output, "output", "", "Output base name (default: input name)")
	fs.StringVar(&f.Output, "o", "", "Shorthand for -output")
	fs.StringVar(&f.OutputDir, "dir", "", "Output directory (default: next to the input)")
	return f
}

func boolFlag(fs *flag.FlagSet, p *bool, name, short, usage string) {
	fs.BoolVar(p, name, false, usage)
	fs.BoolVar(p, short, false, "Shorthand for -"+name)
}

// isSet reports whether any of the names was given on the command line.
func (f *Flags) isSet(names ...string) bool {
	if f.fs == nil {
		return false
	}
	found := false
	f.fs.Visit(func(fl *flag.Flag) {
		for _, n := range names {
			if fl.Name == n {
				found = true
			}
		}
	})
	return found
}

// Steps returns the pipeline requested by the operation flags, always in
// the order rotate, flat, mirror, fix. It is empty when no operation flag
// was given.
func (f *Flags) Steps() ([]string, error) {
	var steps []string
	if f.Rotate != "" {
		axis, deg, ok := strings.Cut(f.Rotate, ":")
		if !ok || axis == "" || deg == "" {
			return nil, fmt.Errorf("invalid -rotate %q: want axis:degrees", f.Rotate)
		}
		steps = append(steps, "rotate:"+axis+":"+deg)
	}
	if f.Flat {
		steps = append(steps, "flat")
	}
	if f.Mirror {
		steps = append(steps, "mirror-back")
	}
	if f.Fix {
		steps = append(steps, "fix")
	}
	return steps, nil
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config, f *Flags) error {
	if f == nil {
		return nil
	}
	if f.Verbose {
		cfg.Logging.Level = "debug"
	}
	if f.isSet("depth", "d") {
		cfg.Solidify.Depth = f.Depth
	}
	if f.Normals {
		cfg.Repair.FixNormals = true
	}
	if f.Output != "" {
		cfg.Output.Name = f.Output
	}
	if f.OutputDir != "" {
		cfg.Output.Dir = f.OutputDir
	}
	steps, err := f.Steps()
	if err != nil {
		return err
	}
	if len(steps) > 0 {
		cfg.Steps = steps
	}
	return nil
}
