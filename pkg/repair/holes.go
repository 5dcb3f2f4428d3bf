package repair

import (
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/meshtools/pkg/mesh"
)

// HoleResult counts the work done by CloseHoles.
type HoleResult struct {
	Loops      int
	Closed     int
	FacesAdded int
}

// CloseHoles fills every boundary loop with a triangulated patch. The patch
// is built on the reversed loop so each new face traverses its boundary edge
// opposite to the face already there. On a rim whose faces disagree the
// patch follows the majority; FixNormals settles the rest.
//
// Loops that cannot be closed are skipped and reported in the returned
// error: loops of fewer than three vertices and loops whose patch would
// duplicate an existing face as mesh.ErrDegenerateHole, loops touching a
// non-manifold edge as mesh.ErrNonManifoldEdge. Open boundary chains are
// reported as mesh.ErrDegenerateHole.
func CloseHoles(m *mesh.Mesh) (HoleResult, error) {
	var res HoleResult
	if err := m.Validate(); err != nil {
		return res, err
	}
	topo := mesh.NewTopology(m)
	loops, issues := mesh.BoundaryLoops(m, topo)
	res.Loops = len(loops)
	if len(loops) == 0 {
		return res, issues
	}

	nonManifold := make(map[int]mesh.Edge)
	for _, e := range topo.NonManifoldEdges() {
		for _, v := range []int{e.A, e.B} {
			if _, ok := nonManifold[v]; !ok {
				nonManifold[v] = e
			}
		}
	}

	existing := make(map[[3]int]bool, len(m.Faces))
	for _, f := range m.Faces {
		existing[f.Key()] = true
	}

	var added []mesh.Face
	for _, l := range loops {
		if l.Len() < 3 {
			issues = multierr.Append(issues, mesh.LoopError("CloseHoles", l.Vertices[0], mesh.ErrDegenerateHole))
			continue
		}
		if e, ok := touchesEdge(l, nonManifold); ok {
			issues = multierr.Append(issues, mesh.EdgeError("CloseHoles", e, mesh.ErrNonManifoldEdge))
			continue
		}

		rev := l.Reversed()
		points := make([]r3.Vec, rev.Len())
		for i, v := range rev.Vertices {
			points[i] = m.Vertices[v]
		}
		patch := make([]mesh.Face, 0, rev.Len()-2)
		clash := false
		for _, tri := range mesh.TriangulateLoop(points) {
			f := mesh.Face{rev.Vertices[tri[0]], rev.Vertices[tri[1]], rev.Vertices[tri[2]]}
			if f.Degenerate() || existing[f.Key()] {
				clash = true
				break
			}
			patch = append(patch, f)
		}
		if clash {
			issues = multierr.Append(issues, mesh.LoopError("CloseHoles", l.Vertices[0], mesh.ErrDegenerateHole))
			continue
		}
		for _, f := range patch {
			existing[f.Key()] = true
		}
		added = append(added, patch...)
		res.Closed++
	}

	if err := m.AddFaces(added); err != nil {
		return HoleResult{Loops: res.Loops}, err
	}
	res.FacesAdded = len(added)
	return res, issues
}

func touchesEdge(l mesh.Loop, edges map[int]mesh.Edge) (mesh.Edge, bool) {
	for _, v := range l.Vertices {
		if e, ok := edges[v]; ok {
			return e, true
		}
	}
	return mesh.Edge{}, false
}
