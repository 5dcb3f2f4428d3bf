package mesh

import (
	"fmt"
	"sort"
)

// Edge is an undirected edge stored as a sorted vertex index pair (A < B).
type Edge struct {
	A, B int
}

// MakeEdge returns the undirected edge between a and b.
func MakeEdge(a, b int) Edge {
	if a > b {
		a, b = b, a
	}
	return Edge{A: a, B: b}
}

func (e Edge) String() string {
	return fmt.Sprintf("(%d,%d)", e.A, e.B)
}

// BuildVertexToFaces returns, for each vertex, the ascending indices of the
// faces that reference it.
func (m *Mesh) BuildVertexToFaces() [][]int {
	out := make([][]int, len(m.Vertices))
	for fi, f := range m.Faces {
		for j, v := range f {
			// A degenerate face lists a vertex once.
			if j > 0 && (v == f[0] || (j == 2 && v == f[1])) {
				continue
			}
			out[v] = append(out[v], fi)
		}
	}
	return out
}

// BuildEdgeToFaces returns, for each undirected edge, the indices of the
// faces containing it in face order.
func (m *Mesh) BuildEdgeToFaces() map[Edge][]int {
	out := make(map[Edge][]int, len(m.Faces)*3/2)
	for fi, f := range m.Faces {
		for j := 0; j < 3; j++ {
			a, b := f[j], f[(j+1)%3]
			if a == b {
				continue
			}
			e := MakeEdge(a, b)
			out[e] = append(out[e], fi)
		}
	}
	return out
}

// Topology is a read-only adjacency snapshot of a mesh. It must be rebuilt
// after any change to the mesh's vertex or face buffers.
type Topology struct {
	VertexFaces [][]int
	EdgeFaces   map[Edge][]int

	faces       []Face
	vertexCount int
	faceCount   int
}

// NewTopology builds both adjacency maps for m.
func NewTopology(m *Mesh) *Topology {
	return &Topology{
		VertexFaces: m.BuildVertexToFaces(),
		EdgeFaces:   m.BuildEdgeToFaces(),
		faces:       m.Faces,
		vertexCount: len(m.Vertices),
		faceCount:   len(m.Faces),
	}
}

// Stale reports whether m no longer has the shape this snapshot was built for.
func (t *Topology) Stale(m *Mesh) bool {
	return t.vertexCount != len(m.Vertices) || t.faceCount != len(m.Faces)
}

// EdgeCount returns the number of distinct undirected edges.
func (t *Topology) EdgeCount() int {
	return len(t.EdgeFaces)
}

// Referenced reports whether any face uses vertex v.
func (t *Topology) Referenced(v int) bool {
	return len(t.VertexFaces[v]) > 0
}

// BoundaryEdges returns the edges with exactly one incident face, sorted.
func (t *Topology) BoundaryEdges() []Edge {
	return t.edgesWhere(func(n int) bool { return n == 1 })
}

// NonManifoldEdges returns the edges with more than two incident faces, sorted.
func (t *Topology) NonManifoldEdges() []Edge {
	return t.edgesWhere(func(n int) bool { return n > 2 })
}

func (t *Topology) edgesWhere(match func(int) bool) []Edge {
	var edges []Edge
	for e, faces := range t.EdgeFaces {
		if match(len(faces)) {
			edges = append(edges, e)
		}
	}
	sortEdges(edges)
	return edges
}

// IsWatertight reports whether every edge is shared by exactly two faces.
// An empty mesh is not watertight.
func (t *Topology) IsWatertight() bool {
	if len(t.EdgeFaces) == 0 {
		return false
	}
	for _, faces := range t.EdgeFaces {
		if len(faces) != 2 {
			return false
		}
	}
	return true
}

// Neighbors returns the faces sharing an edge with face f, excluding f.
// Faces across non-manifold edges are included.
func (t *Topology) Neighbors(f int) []int {
	var out []int
	face := t.faces[f]
	for j := 0; j < 3; j++ {
		if face[j] == face[(j+1)%3] {
			continue
		}
		for _, g := range t.EdgeFaces[MakeEdge(face[j], face[(j+1)%3])] {
			if g != f {
				out = append(out, g)
			}
		}
	}
	return out
}

func sortEdges(edges []Edge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].A != edges[j].A {
			return edges[i].A < edges[j].A
		}
		return edges[i].B < edges[j].B
	})
}
