// Package pipeline runs an ordered list of mesh operations against one mesh
// and tracks every mesh the run produces.
//
// The primary mesh is changed by Rotate, Solidify and Repair; after each of
// them a snapshot is recorded as an output. Mirror leaves the primary alone
// and records its reflected copy as an auxiliary output. Steps run in the
// order given and are never reordered or silently skipped.
//
// Only the first Solidify closes the primary. A later one, say mirror-back
// after flat, closes a copy of the surface as it was before the first and
// records that as an auxiliary output, so one run can produce both solids.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/meshtools/pkg/mesh"
	"github.com/Faultbox/meshtools/pkg/repair"
	"github.com/Faultbox/meshtools/pkg/solidify"
	"github.com/Faultbox/meshtools/pkg/transform"
)

// Suffixes names the outputs of each kind of step.
type Suffixes struct {
	Rotated string
	Solid   string
	Mirror  string
	Fixed   string
}

// DefaultSuffixes returns the suffixes used when none are configured.
func DefaultSuffixes() Suffixes {
	return Suffixes{Rotated: "rotated", Solid: "solid", Mirror: "mirror", Fixed: "fixed"}
}

// Options configures a Session.
type Options struct {
	Depth    float64 // flat back depth for steps without their own
	Repair   repair.Options
	Suffixes Suffixes
	Logger   *zap.Logger
}

// DefaultOptions returns options with default repair settings and suffixes.
func DefaultOptions() Options {
	return Options{
		Repair:   repair.DefaultOptions(),
		Suffixes: DefaultSuffixes(),
	}
}

// Output is a mesh produced by a step.
type Output struct {
	Suffix    string
	Step      string
	Auxiliary bool // true when the primary mesh was not changed
	Mesh      *mesh.Mesh
}

// StepResult describes how one step went. Skipped holds a non-fatal
// precondition failure, in which case the mesh was left unchanged and no
// output was recorded.
type StepResult struct {
	Step     string
	Output   *Output
	Skipped  error
	Solidify *solidify.Result
	Repair   *repair.Report
}

// Session owns one primary mesh and the outputs derived from it.
type Session struct {
	primary *mesh.Mesh
	surface *mesh.Mesh // open primary from before the first Solidify
	opts    Options
	log     *zap.Logger
	outputs []Output
	results []StepResult
}

// NewSession starts a session on m. The session mutates m.
func NewSession(m *mesh.Mesh, opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Suffixes == (Suffixes{}) {
		opts.Suffixes = DefaultSuffixes()
	}
	// Core packages log under their own names below the session logger.
	opts.Repair.Logger = log
	return &Session{primary: m, opts: opts, log: log.Named("pipeline")}
}

// Primary returns the current primary mesh.
func (s *Session) Primary() *mesh.Mesh { return s.primary }

// Outputs returns the outputs recorded so far, in step order.
func (s *Session) Outputs() []Output { return s.outputs }

// Results returns one result per completed step.
func (s *Session) Results() []StepResult { return s.results }

// Run applies steps in order. The context is only consulted between steps;
// a step that started always finishes. The first fatal error stops the run
// and is returned wrapped with the step that failed. Steps completed before
// it keep their outputs.
func (s *Session) Run(ctx context.Context, steps []Step) error {
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("pipeline stopped before step %d (%s): %w", i+1, step, err)
		}
		s.log.Debug("running step", zap.Int("index", i+1), zap.Stringer("step", step))

		res, err := step.run(s)
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step, err)
		}
		res.Step = step.String()
		if res.Skipped != nil {
			s.log.Warn("step skipped", zap.Stringer("step", step), zap.Error(res.Skipped))
		}
		if res.Output != nil {
			res.Output.Step = res.Step
			s.outputs = append(s.outputs, *res.Output)
		}
		s.results = append(s.results, res)
	}
	return nil
}

// snapshot records a copy of the primary so later steps do not alter it.
func (s *Session) snapshot(suffix string) *Output {
	return &Output{Suffix: suffix, Mesh: s.primary.Clone()}
}

func (r Rotate) run(s *Session) (StepResult, error) {
	transform.Rotate(s.primary, r.Axis, r.Degrees)
	if s.surface != nil {
		transform.Rotate(s.surface, r.Axis, r.Degrees)
	}
	s.log.Info("rotated", zap.Stringer("axis", r.Axis), zap.Float64("degrees", r.Degrees))
	return StepResult{Output: s.snapshot(s.opts.Suffixes.Rotated)}, nil
}

func (st Solidify) run(s *Session) (StepResult, error) {
	depth := s.opts.Depth
	if st.Depth != nil {
		depth = *st.Depth
	}
	suffix := s.opts.Suffixes.Solid
	if st.Mode == solidify.Mirror {
		suffix = s.opts.Suffixes.Mirror
	}

	target, aux := s.primary, s.surface != nil
	var before *mesh.Mesh
	if aux {
		target = s.surface.Clone()
	} else {
		before = s.primary.Clone()
	}
	res, err := solidify.Solidify(target, st.Mode, depth, solidify.Options{Logger: s.log})
	if errors.Is(err, mesh.ErrAlreadyClosed) {
		return StepResult{Skipped: err}, nil
	}
	if err != nil {
		return StepResult{}, err
	}
	s.log.Info("solidified",
		zap.Stringer("mode", res.Mode),
		zap.Bool("auxiliary", aux),
		zap.Float64("back_z", res.BackZ),
		zap.Int("loops", res.Loops),
		zap.Int("faces_added", res.FacesAdded))
	if aux {
		return StepResult{Solidify: res, Output: &Output{Suffix: suffix, Auxiliary: true, Mesh: target}}, nil
	}
	s.surface = before
	return StepResult{Solidify: res, Output: s.snapshot(suffix)}, nil
}

func (m Mirror) run(s *Session) (StepResult, error) {
	if err := s.primary.Validate(); err != nil {
		return StepResult{}, err
	}
	mirrored := transform.Mirror(s.primary, m.Axis, transform.Copy)
	s.log.Info("mirrored", zap.Stringer("axis", m.Axis))
	return StepResult{Output: &Output{Suffix: s.opts.Suffixes.Mirror, Auxiliary: true, Mesh: mirrored}}, nil
}

func (r Repair) run(s *Session) (StepResult, error) {
	opts := s.opts.Repair
	if r.Normals {
		opts.FixNormals = true
	}
	rep, err := repair.Repair(s.primary, opts)
	if err != nil {
		return StepResult{}, err
	}
	s.log.Info("repaired",
		zap.Int("merged", rep.VerticesMerged),
		zap.Int("duplicate_faces", rep.DuplicateFaces),
		zap.Int("holes_closed", rep.Holes.Closed),
		zap.Int("flipped", rep.Normals.Flipped),
		zap.Bool("changed", rep.Changed()))
	return StepResult{Repair: rep, Output: s.snapshot(s.opts.Suffixes.Fixed)}, nil
}
