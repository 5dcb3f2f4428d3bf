package repair

import (
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/meshtools/pkg/mesh"
)

// NormalResult counts the work done by FixNormals.
type NormalResult struct {
	Components int
	Flipped    int
}

// FixNormals makes the winding of every connected component consistent and
// recomputes the vertex normals.
//
// Winding is propagated breadth-first from the lowest face index of each
// component: a neighbour that traverses a shared edge in the same direction
// as the current face is flipped. Non-manifold edges are not crossed and are
// reported as mesh.ErrNonManifoldEdge. A closed component whose signed
// volume is negative is then flipped as a whole so it faces outwards.
// Finally each vertex normal is set to the normalized sum of the unit
// normals of its faces.
func FixNormals(m *mesh.Mesh) (NormalResult, error) {
	var res NormalResult
	if err := m.Validate(); err != nil {
		return res, err
	}
	orig := make([]mesh.Face, len(m.Faces))
	copy(orig, m.Faces)

	topo := mesh.NewTopology(m)
	reported := make(map[mesh.Edge]bool)
	var issues error

	visited := make([]bool, len(m.Faces))
	for seed := range m.Faces {
		if visited[seed] {
			continue
		}
		res.Components++
		visited[seed] = true
		component := []int{seed}
		closed := true

		for q := 0; q < len(component); q++ {
			fi := component[q]
			f := m.Faces[fi]
			for j := 0; j < 3; j++ {
				a, b := f[j], f[(j+1)%3]
				if a == b {
					continue
				}
				e := mesh.MakeEdge(a, b)
				faces := topo.EdgeFaces[e]
				switch {
				case len(faces) > 2:
					closed = false
					if !reported[e] {
						reported[e] = true
						issues = multierr.Append(issues, mesh.EdgeError("FixNormals", e, mesh.ErrNonManifoldEdge))
					}
					continue
				case len(faces) < 2:
					closed = false
					continue
				}
				g := faces[0]
				if g == fi {
					g = faces[1]
				}
				if visited[g] {
					continue
				}
				visited[g] = true
				if m.Faces[g].HasDirectedEdge(a, b) {
					m.Faces[g] = m.Faces[g].Flipped()
				}
				component = append(component, g)
			}
		}

		if closed && mesh.FacesVolume(m, component) < 0 {
			for _, fi := range component {
				m.Faces[fi] = m.Faces[fi].Flipped()
			}
		}
	}

	for i, f := range m.Faces {
		if f != orig[i] {
			res.Flipped++
		}
	}
	m.Normals = VertexNormals(m)
	return res, issues
}

// VertexNormals returns, per vertex, the normalized sum of the unit normals
// of the faces using it. Vertices without faces get a zero normal.
func VertexNormals(m *mesh.Mesh) []r3.Vec {
	normals := make([]r3.Vec, len(m.Vertices))
	for _, f := range m.Faces {
		n, _ := mesh.FaceNormal(m, f)
		for j, v := range f {
			if j > 0 && (v == f[0] || (j == 2 && v == f[1])) {
				continue
			}
			normals[v] = r3.Add(normals[v], n)
		}
	}
	for i, n := range normals {
		if l := r3.Norm(n); l > 0 {
			normals[i] = r3.Scale(1/l, n)
		}
	}
	return normals
}
