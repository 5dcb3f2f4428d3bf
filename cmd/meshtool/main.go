// meshtool is a CLI utility for closing, mirroring and repairing triangle meshes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/meshtools/internal/config"
	"github.com/Faultbox/meshtools/internal/logger"
	"github.com/Faultbox/meshtools/internal/pipeline"
	"github.com/Faultbox/meshtools/internal/report"
	"github.com/Faultbox/meshtools/pkg/formats"
	"github.com/Faultbox/meshtools/pkg/mesh"
	"github.com/Faultbox/meshtools/pkg/repair"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "process", "p":
		cmdProcess(args)
	case "info", "i":
		cmdInfo(args)
	case "init-config":
		cmdInitConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshtool - triangle mesh solidify and repair utility

Usage:
  meshtool <command> [options]

Commands:
  process [flags] <input>...   Run the pipeline on each input (file, glob or directory)
  info <input>...              Print a statistics report
  init-config [path]           Write the default config file

Process flags:
  -r, -rotate axis:deg   Rotate first, e.g. x:90
  -f, -flat              Solidify with a flat back
  -m, -mirror            Solidify with a mirrored back
  -x, -fix               Repair the mesh
  -n, -normals           Also fix winding and normals when repairing
  -d, -depth value       Flat back depth (default 0; the lowest vertex wins if deeper)
  -o, -output name       Output base name (single input only)
  -dir path              Output directory (default: next to the input)
  -format stl|obj        Output format (default: same as input)
  -stats                 Print a statistics report for every output
  -v, -verbose           Debug logging
  -config path           Config file (default: ./meshtools.yaml, then the user config dir)

Operations always run in the order rotate, flat, mirror, fix. Use the
steps list of the config file for any other order.

Examples:
  meshtool process -f -d -2 relief.stl
  meshtool process -r x:90 -m -x -n "scans/*.obj"
  meshtool info relief_solid.stl`)
}

func cmdProcess(args []string) {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	format := fs.String("format", "", "Output format: stl or obj")
	stats := fs.Bool("stats", false, "Print a statistics report for every output")
	fs.Usage = printUsage
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool process [flags] <input>...")
		os.Exit(1)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *format != "" {
		cfg.Output.Format = *format
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	steps, err := pipeline.ParseSteps(expandSteps(cfg.Steps, cfg.Solidify.Mode))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(steps) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no operation requested; use -f, -m, -x or -r")
		os.Exit(1)
	}

	inputs, err := resolveInputs(fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if cfg.Output.Name != "" && len(inputs) > 1 {
		fmt.Fprintf(os.Stderr, "Error: -output names a single result but %d inputs matched\n", len(inputs))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p := &processor{cfg: cfg, steps: steps, stats: *stats, log: logger.Named("meshtool")}
	var errs error
	for _, input := range inputs {
		if err := ctx.Err(); err != nil {
			errs = multierr.Append(errs, err)
			break
		}
		if err := p.run(ctx, input); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", input, err))
		}
	}

	if errs != nil {
		for _, err := range multierr.Errors(errs) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		logger.Sync()
		os.Exit(1)
	}
}

// processor runs the configured pipeline on one input at a time.
type processor struct {
	cfg   *config.Config
	steps []pipeline.Step
	stats bool
	log   *zap.Logger
}

func (p *processor) run(ctx context.Context, input string) error {
	log := p.log.With(zap.String("input", input))

	m, err := formats.ReadFile(input)
	if err != nil {
		return err
	}
	log.Info("loaded", zap.Int("vertices", m.VertexCount()), zap.Int("faces", m.FaceCount()))

	session := pipeline.NewSession(m, pipeline.Options{
		Depth: p.cfg.Solidify.Depth,
		Repair: repair.Options{
			Epsilon:    p.cfg.Repair.Epsilon,
			CloseHoles: p.cfg.Repair.CloseHoles,
			FixNormals: p.cfg.Repair.FixNormals,
		},
		Suffixes: pipeline.Suffixes(p.cfg.Output.Suffixes),
		Logger:   log,
	})
	runErr := session.Run(ctx, p.steps)

	// Outputs of the steps that finished are written even if a later step failed.
	base := outputBase(input, p.cfg.Output.Name)
	var reports []report.Report
	for _, out := range session.Outputs() {
		path := pipeline.OutputPath(base, out.Suffix, p.cfg.Output.Dir, p.cfg.Output.Format)
		if err := formats.WriteFile(path, out.Mesh); err != nil {
			return multierr.Append(runErr, err)
		}
		log.Info("wrote output",
			zap.String("step", out.Step),
			zap.String("path", path),
			zap.Int("vertices", out.Mesh.VertexCount()),
			zap.Int("faces", out.Mesh.FaceCount()))
		if p.stats {
			reports = append(reports, report.New(path, out.Mesh, time.Now()))
		}
	}
	if len(reports) > 0 {
		if err := report.Write(os.Stdout, reports...); err != nil {
			return multierr.Append(runErr, err)
		}
	}
	return runErr
}

func cmdInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool info <input>...")
		os.Exit(1)
	}

	inputs, err := resolveInputs(fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	failed := false
	for i, input := range inputs {
		m, err := formats.ReadFile(input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			failed = true
			continue
		}
		if i > 0 {
			fmt.Println()
		}
		if err := report.Write(os.Stdout, report.New(input, m, time.Now())); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		printIssues(m)
	}
	if failed {
		os.Exit(1)
	}
}

// printIssues lists the first few problem edges of an input that is not closed.
func printIssues(m *mesh.Mesh) {
	const limit = 5
	t := mesh.NewTopology(m)
	for _, group := range []struct {
		name  string
		edges []mesh.Edge
	}{
		{"boundary", t.BoundaryEdges()},
		{"non-manifold", t.NonManifoldEdges()},
	} {
		if len(group.edges) == 0 {
			continue
		}
		fmt.Printf("  first %s edges:", group.name)
		for i, e := range group.edges {
			if i == limit {
				fmt.Print(" ...")
				break
			}
			fmt.Printf(" %s", e)
		}
		fmt.Println()
	}
}

func cmdInitConfig(args []string) {
	fs := flag.NewFlagSet("init-config", flag.ExitOnError)
	force := fs.Bool("force", false, "Overwrite an existing file")
	fs.Parse(args)

	cfg := config.Default()
	path := filepath.Join(config.ConfigDir(), config.FileName)
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	if _, err := os.Stat(path); err == nil && !*force {
		fmt.Fprintf(os.Stderr, "Error: %s already exists (use -force to overwrite)\n", path)
		os.Exit(1)
	}

	var err error
	if fs.NArg() > 0 {
		err = cfg.SaveTo(path)
	} else {
		err = cfg.Save()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", path)
}
