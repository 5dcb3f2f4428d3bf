package repair

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/meshtools/pkg/mesh"
)

// cellKey quantizes p to a grid of cell size eps. With eps <= 0 positions
// must match exactly.
func cellKey(p r3.Vec, eps float64) [3]float64 {
	if eps <= 0 {
		return [3]float64{p.X, p.Y, p.Z}
	}
	return [3]float64{math.Round(p.X / eps), math.Round(p.Y / eps), math.Round(p.Z / eps)}
}

// DeduplicateVertices merges vertices that fall into the same grid cell of
// size eps. Each cell keeps its first vertex, with its attributes, and all
// faces are rewritten to it. Faces that become degenerate, or already were,
// are dropped. Returns the number of merged vertices and dropped faces.
func DeduplicateVertices(m *mesh.Mesh, eps float64) (merged, dropped int, err error) {
	if err := m.Validate(); err != nil {
		return 0, 0, err
	}
	cells := make(map[[3]float64]int, len(m.Vertices))
	remap := make([]int, len(m.Vertices))
	next := 0
	for i, v := range m.Vertices {
		key := cellKey(v, eps)
		if rep, ok := cells[key]; ok {
			remap[i] = rep
			merged++
			continue
		}
		cells[key] = next
		remap[i] = next
		next++
	}
	if merged > 0 {
		if _, err := m.Reindex(remap); err != nil {
			return 0, 0, err
		}
	}
	dropped = removeFacesWhere(m, func(f mesh.Face) bool { return f.Degenerate() })
	return merged, dropped, nil
}

// RemoveUnreferencedVertices deletes every vertex no face uses and returns
// how many were removed.
func RemoveUnreferencedVertices(m *mesh.Mesh) (int, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}
	topo := mesh.NewTopology(m)
	var unused []int
	for v := range m.Vertices {
		if !topo.Referenced(v) {
			unused = append(unused, v)
		}
	}
	if len(unused) == 0 {
		return 0, nil
	}
	return len(unused), m.RemoveVertices(unused)
}

// DeduplicateFaces removes faces that reference the same unordered vertex
// triple as an earlier face, whatever their winding. The first occurrence
// is kept as it is. Returns the number of removed faces.
func DeduplicateFaces(m *mesh.Mesh) int {
	seen := make(map[[3]int]bool, len(m.Faces))
	return removeFacesWhere(m, func(f mesh.Face) bool {
		k := f.Key()
		if seen[k] {
			return true
		}
		seen[k] = true
		return false
	})
}

func removeFacesWhere(m *mesh.Mesh, drop func(mesh.Face) bool) int {
	kept := m.Faces[:0]
	removed := 0
	for _, f := range m.Faces {
		if drop(f) {
			removed++
			continue
		}
		kept = append(kept, f)
	}
	m.Faces = kept
	return removed
}
