package mesh

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Stats is a read-only summary of a mesh. It is computed on demand and
// never cached, so it always reflects the current buffers.
type Stats struct {
	Vertices         int
	Faces            int
	Edges            int
	Bounds           r3.Box
	Centroid         r3.Vec
	Area             float64
	Volume           float64
	EulerNumber      int
	BoundaryEdges    int
	NonManifoldEdges int
	Watertight       bool
	Components       int
}

// ComputeStats summarizes m without modifying it.
func ComputeStats(m *Mesh) Stats {
	t := NewTopology(m)
	s := Stats{
		Vertices:         len(m.Vertices),
		Faces:            len(m.Faces),
		Edges:            t.EdgeCount(),
		Bounds:           Bounds(m),
		Area:             SurfaceArea(m),
		Volume:           SignedVolume(m),
		BoundaryEdges:    len(t.BoundaryEdges()),
		NonManifoldEdges: len(t.NonManifoldEdges()),
		Watertight:       t.IsWatertight(),
		Components:       ConnectedComponents(m),
	}
	s.EulerNumber = s.Vertices - s.Edges + s.Faces
	s.Centroid = Centroid(m)
	return s
}

// Bounds returns the axis-aligned bounding box of all vertices. The box of
// an empty mesh is the zero box.
func Bounds(m *Mesh) r3.Box {
	if len(m.Vertices) == 0 {
		return r3.Box{}
	}
	b := r3.Box{Min: m.Vertices[0], Max: m.Vertices[0]}
	for _, v := range m.Vertices[1:] {
		b.Min.X = min(b.Min.X, v.X)
		b.Min.Y = min(b.Min.Y, v.Y)
		b.Min.Z = min(b.Min.Z, v.Z)
		b.Max.X = max(b.Max.X, v.X)
		b.Max.Y = max(b.Max.Y, v.Y)
		b.Max.Z = max(b.Max.Z, v.Z)
	}
	return b
}

// Diagonal returns the length of the bounding box diagonal.
func Diagonal(m *Mesh) float64 {
	b := Bounds(m)
	return r3.Norm(r3.Sub(b.Max, b.Min))
}

// FaceNormal returns the unit normal of face f and the face area. A
// zero-area face has a zero normal.
func FaceNormal(m *Mesh, f Face) (r3.Vec, float64) {
	a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
	cross := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
	l := r3.Norm(cross)
	if l == 0 {
		return r3.Vec{}, 0
	}
	return r3.Scale(1/l, cross), l / 2
}

// SurfaceArea returns the total face area.
func SurfaceArea(m *Mesh) float64 {
	var area float64
	for _, f := range m.Faces {
		_, a := FaceNormal(m, f)
		area += a
	}
	return area
}

// SignedVolume returns the volume enclosed by the faces using the divergence
// theorem. It is positive for a closed mesh with outward-facing winding and
// meaningless for an open one.
func SignedVolume(m *Mesh) float64 {
	return signedVolume(m, nil)
}

func signedVolume(m *Mesh, faces []int) float64 {
	var vol float64
	add := func(f Face) {
		a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		vol += r3.Dot(a, r3.Cross(b, c))
	}
	if faces == nil {
		for _, f := range m.Faces {
			add(f)
		}
	} else {
		for _, fi := range faces {
			add(m.Faces[fi])
		}
	}
	return vol / 6
}

// FacesVolume returns the signed volume enclosed by a subset of faces.
func FacesVolume(m *Mesh, faces []int) float64 {
	if len(faces) == 0 {
		return 0
	}
	return signedVolume(m, faces)
}

// Centroid returns the area-weighted centroid of the surface, or the mean
// vertex position when the surface has no area.
func Centroid(m *Mesh) r3.Vec {
	var (
		sum   r3.Vec
		total float64
	)
	for _, f := range m.Faces {
		_, a := FaceNormal(m, f)
		if a == 0 {
			continue
		}
		c := r3.Scale(1.0/3, r3.Add(m.Vertices[f[0]], r3.Add(m.Vertices[f[1]], m.Vertices[f[2]])))
		sum = r3.Add(sum, r3.Scale(a, c))
		total += a
	}
	if total > 0 {
		return r3.Scale(1/total, sum)
	}
	if len(m.Vertices) == 0 {
		return r3.Vec{}
	}
	for _, v := range m.Vertices {
		sum = r3.Add(sum, v)
	}
	return r3.Scale(1/float64(len(m.Vertices)), sum)
}

// ConnectedComponents counts groups of faces connected through shared
// vertices. Unreferenced vertices do not form components.
func ConnectedComponents(m *Mesh) int {
	parent := make([]int, len(m.Vertices))
	for i := range parent {
		parent[i] = i
	}
	find := func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	used := make([]bool, len(m.Vertices))
	for _, f := range m.Faces {
		for _, v := range f {
			used[v] = true
		}
		r0 := find(f[0])
		for _, v := range f[1:] {
			if r := find(v); r != r0 {
				parent[r] = r0
			}
		}
	}
	count := 0
	for v := range parent {
		if used[v] && find(v) == v {
			count++
		}
	}
	return count
}
