// Package repair cleans up triangle meshes: vertex welding, removal of
// unreferenced vertices and duplicate faces, hole closing and winding
// and normal repair.
//
// The stages run in a fixed order and each one is idempotent, so running a
// Repairer twice leaves the mesh exactly as the first run did.
package repair

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/meshtools/pkg/mesh"
)

// DefaultEpsilon is the vertex welding tolerance relative to the bounding
// box diagonal.
const DefaultEpsilon = 1e-6

// Stage is a point in the repair state machine.
type Stage int

const (
	Raw Stage = iota
	DedupedVertices
	DedupedFaces
	HolesClosed
	NormalsFixed
	Repaired
)

var stageNames = [...]string{"raw", "deduped-vertices", "deduped-faces", "holes-closed", "normals-fixed", "repaired"}

func (s Stage) String() string {
	if s < Raw || s > Repaired {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// Options configures a Repairer.
type Options struct {
	// Epsilon is the welding tolerance as a fraction of the bounding box
	// diagonal. For a mesh without extent it is used as an absolute
	// distance. Zero welds only identical positions.
	Epsilon    float64
	CloseHoles bool
	FixNormals bool
	Logger     *zap.Logger
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Epsilon:    DefaultEpsilon,
		CloseHoles: true,
	}
}

// Report summarizes a repair run. Issues aggregates every non-fatal problem
// met on the way; use multierr.Errors to list them.
type Report struct {
	Epsilon             float64 // absolute welding distance used
	VerticesMerged      int
	UnreferencedRemoved int
	DegenerateFaces     int
	DuplicateFaces      int
	Holes               HoleResult
	Normals             NormalResult
	NormalsRecalculated bool
	Issues              error
}

// Changed reports whether the run modified the topology.
func (r *Report) Changed() bool {
	return r.VerticesMerged+r.UnreferencedRemoved+r.DegenerateFaces+r.DuplicateFaces+
		r.Holes.FacesAdded+r.Normals.Flipped > 0
}

// Repairer runs the repair stages over a mesh.
type Repairer struct {
	opts  Options
	log   *zap.Logger
	stage Stage
}

// New creates a Repairer.
func New(opts Options) *Repairer {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Repairer{opts: opts, log: log.Named("repair")}
}

// Stage returns the last stage the Repairer completed.
func (r *Repairer) Stage() Stage {
	return r.stage
}

// Run repairs m in place. A mesh with out-of-range face indices is rejected
// before anything is changed. Problems that only affect part of the mesh,
// such as holes that cannot be closed, are logged, collected in
// Report.Issues and do not stop the run.
func (r *Repairer) Run(m *mesh.Mesh) (*Report, error) {
	r.stage = Raw
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("repair: %w", err)
	}
	rep := &Report{}

	var err error
	if rep.UnreferencedRemoved, err = RemoveUnreferencedVertices(m); err != nil {
		return nil, err
	}
	// The tolerance is relative to the bounding box, which welding and the
	// removal of stranded vertices can shrink. Weld until nothing changes so
	// a second run sees the same box and has nothing left to merge.
	for {
		rep.Epsilon = r.absoluteEpsilon(m)
		merged, degenerate, err := DeduplicateVertices(m, rep.Epsilon)
		if err != nil {
			return nil, err
		}
		// Faces that collapsed can leave vertices behind.
		n, err := RemoveUnreferencedVertices(m)
		if err != nil {
			return nil, err
		}
		rep.VerticesMerged += merged
		rep.DegenerateFaces += degenerate
		rep.UnreferencedRemoved += n
		if merged == 0 && n == 0 {
			break
		}
	}
	r.advance(DedupedVertices, zap.Int("merged", rep.VerticesMerged),
		zap.Int("unreferenced", rep.UnreferencedRemoved),
		zap.Int("degenerate_faces", rep.DegenerateFaces))

	rep.DuplicateFaces = DeduplicateFaces(m)
	r.advance(DedupedFaces, zap.Int("duplicates", rep.DuplicateFaces))

	if r.opts.CloseHoles {
		holes, issues := CloseHoles(m)
		rep.Holes = holes
		rep.Issues = multierr.Append(rep.Issues, issues)
	}
	r.advance(HolesClosed, zap.Int("loops", rep.Holes.Loops),
		zap.Int("closed", rep.Holes.Closed),
		zap.Int("faces_added", rep.Holes.FacesAdded))

	if r.opts.FixNormals {
		normals, issues := FixNormals(m)
		rep.Normals = normals
		rep.NormalsRecalculated = true
		rep.Issues = multierr.Append(rep.Issues, issues)
		r.advance(NormalsFixed, zap.Int("components", normals.Components),
			zap.Int("flipped", normals.Flipped))
	}

	for _, issue := range multierr.Errors(rep.Issues) {
		r.log.Warn("repair issue", zap.Error(issue))
	}
	r.advance(Repaired, zap.Int("vertices", m.VertexCount()), zap.Int("faces", m.FaceCount()))
	return rep, nil
}

func (r *Repairer) advance(s Stage, fields ...zap.Field) {
	r.stage = s
	r.log.Debug("stage complete", append([]zap.Field{zap.Stringer("stage", s)}, fields...)...)
}

func (r *Repairer) absoluteEpsilon(m *mesh.Mesh) float64 {
	if r.opts.Epsilon <= 0 {
		return 0
	}
	if d := mesh.Diagonal(m); d > 0 {
		return r.opts.Epsilon * d
	}
	return r.opts.Epsilon
}

// Repair runs a Repairer with opts over m.
func Repair(m *mesh.Mesh, opts Options) (*Report, error) {
	return New(opts).Run(m)
}
