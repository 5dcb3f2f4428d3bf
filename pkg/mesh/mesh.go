// Package mesh provides an indexed triangle mesh store together with the
// derived adjacency structures, boundary loop detection, polygon
// triangulation and read-only statistics used by the transform, solidify and
// repair packages.
//
// A Mesh exclusively owns its buffers. Derived structures such as Topology
// are snapshots: any change to the vertex or face count invalidates them.
package mesh

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/meshtools/pkg/math"
)

// Removed marks a vertex dropped by a remap.
const Removed = -1

// Face is an ordered triangle of vertex indices. The winding determines the
// outward normal by the right-hand rule.
type Face [3]int

// Degenerate reports whether any two indices are equal.
func (f Face) Degenerate() bool {
	return f[0] == f[1] || f[1] == f[2] || f[0] == f[2]
}

// Flipped returns the face with reversed winding.
func (f Face) Flipped() Face {
	return Face{f[0], f[2], f[1]}
}

// Key returns the indices sorted ascending. Two faces with the same key
// reference the same unordered vertex triple.
func (f Face) Key() [3]int {
	a, b, c := f[0], f[1], f[2]
	if a > b {
		a, b = b, a
	}
	if b > c {
		b, c = c, b
	}
	if a > b {
		a, b = b, a
	}
	return [3]int{a, b, c}
}

// HasDirectedEdge reports whether the face traverses a then b.
func (f Face) HasDirectedEdge(a, b int) bool {
	for i := 0; i < 3; i++ {
		if f[i] == a && f[(i+1)%3] == b {
			return true
		}
	}
	return false
}

// Vertex is a single vertex with its optional attributes. Attributes are
// only stored when the mesh carries the corresponding buffer.
type Vertex struct {
	Position r3.Vec
	Normal   r3.Vec
	Color    [4]uint8 // RGBA
	UV       math.Vec2
}

// Mesh is an indexed triangle mesh. Normals, Colors and UVs are optional:
// each is either empty or holds exactly one entry per vertex.
type Mesh struct {
	Vertices []r3.Vec
	Normals  []r3.Vec
	Colors   [][4]uint8
	UVs      []math.Vec2
	Faces    []Face
}

// New returns an empty mesh.
func New() *Mesh {
	return &Mesh{}
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// FaceCount returns the number of faces.
func (m *Mesh) FaceCount() int {
	return len(m.Faces)
}

// IsEmpty returns true if the mesh has no faces.
func (m *Mesh) IsEmpty() bool {
	return len(m.Faces) == 0
}

// HasNormals reports whether per-vertex normals are present.
func (m *Mesh) HasNormals() bool { return len(m.Normals) > 0 }

// HasColors reports whether per-vertex colors are present.
func (m *Mesh) HasColors() bool { return len(m.Colors) > 0 }

// HasUVs reports whether per-vertex texture coordinates are present.
func (m *Mesh) HasUVs() bool { return len(m.UVs) > 0 }

// Clone returns a deep copy.
func (m *Mesh) Clone() *Mesh {
	return &Mesh{
		Vertices: cloneSlice(m.Vertices),
		Normals:  cloneSlice(m.Normals),
		Colors:   cloneSlice(m.Colors),
		UVs:      cloneSlice(m.UVs),
		Faces:    cloneSlice(m.Faces),
	}
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

// Vertex returns vertex i with whatever attributes the mesh carries.
func (m *Mesh) Vertex(i int) Vertex {
	v := Vertex{Position: m.Vertices[i]}
	if m.HasNormals() {
		v.Normal = m.Normals[i]
	}
	if m.HasColors() {
		v.Color = m.Colors[i]
	}
	if m.HasUVs() {
		v.UV = m.UVs[i]
	}
	return v
}

// Validate checks attribute alignment and that every face index is in range.
func (m *Mesh) Validate() error {
	n := len(m.Vertices)
	buffers := []struct {
		name string
		len  int
	}{
		{"normals", len(m.Normals)},
		{"colors", len(m.Colors)},
		{"uvs", len(m.UVs)},
	}
	for _, b := range buffers {
		if b.len != 0 && b.len != n {
			return fmt.Errorf("%s buffer has %d entries for %d vertices: %w", b.name, b.len, n, ErrIndexOutOfRange)
		}
	}
	for fi, f := range m.Faces {
		if idx, ok := outOfRange(f, n); ok {
			return indexError("Validate", fi, idx, ErrInvalidIndex)
		}
	}
	return nil
}

func outOfRange(f Face, n int) (int, bool) {
	for _, idx := range f {
		if idx < 0 || idx >= n {
			return idx, true
		}
	}
	return 0, false
}

// AddVertex appends a vertex and returns its index. Attribute buffers that
// are present grow with it.
func (m *Mesh) AddVertex(v Vertex) int {
	m.Vertices = append(m.Vertices, v.Position)
	if m.HasNormals() {
		m.Normals = append(m.Normals, v.Normal)
	}
	if m.HasColors() {
		m.Colors = append(m.Colors, v.Color)
	}
	if m.HasUVs() {
		m.UVs = append(m.UVs, v.UV)
	}
	return len(m.Vertices) - 1
}

// AddFace appends a face and returns its index. It fails with
// ErrInvalidIndex, leaving the mesh unchanged, if any index is out of range.
func (m *Mesh) AddFace(f Face) (int, error) {
	if idx, ok := outOfRange(f, len(m.Vertices)); ok {
		return 0, indexError("AddFace", len(m.Faces), idx, ErrInvalidIndex)
	}
	m.Faces = append(m.Faces, f)
	return len(m.Faces) - 1, nil
}

// AddFaces appends all faces or none of them.
func (m *Mesh) AddFaces(faces []Face) error {
	for i, f := range faces {
		if idx, ok := outOfRange(f, len(m.Vertices)); ok {
			return indexError("AddFaces", len(m.Faces)+i, idx, ErrInvalidIndex)
		}
	}
	m.Faces = append(m.Faces, faces...)
	return nil
}

// SetVertices replaces the position buffer. Faces must stay in range of the
// new buffer, otherwise ErrInvalidIndex is returned and nothing changes.
// When the vertex count changes the optional attribute buffers are cleared.
func (m *Mesh) SetVertices(vertices []r3.Vec) error {
	for fi, f := range m.Faces {
		if idx, ok := outOfRange(f, len(vertices)); ok {
			return indexError("SetVertices", fi, idx, ErrInvalidIndex)
		}
	}
	if len(vertices) != len(m.Vertices) {
		m.Normals, m.Colors, m.UVs = nil, nil, nil
	}
	m.Vertices = vertices
	return nil
}

// SetFaces replaces the face buffer after validating every index.
func (m *Mesh) SetFaces(faces []Face) error {
	for fi, f := range faces {
		if idx, ok := outOfRange(f, len(m.Vertices)); ok {
			return indexError("SetFaces", fi, idx, ErrInvalidIndex)
		}
	}
	m.Faces = faces
	return nil
}

// RemoveVertices deletes the given vertices, renumbers the remaining ones and
// drops every face that referenced a deleted vertex. It fails with
// ErrIndexOutOfRange, leaving the mesh unchanged, if any index is invalid.
func (m *Mesh) RemoveVertices(indices []int) error {
	remove := make([]bool, len(m.Vertices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(m.Vertices) {
			return indexError("RemoveVertices", NoIndex, idx, ErrIndexOutOfRange)
		}
		remove[idx] = true
	}
	remap := make([]int, len(m.Vertices))
	next := 0
	for i := range remap {
		if remove[i] {
			remap[i] = Removed
			continue
		}
		remap[i] = next
		next++
	}
	_, err := m.Reindex(remap)
	return err
}

// RemoveFaces deletes the given faces, keeping the order of the rest.
func (m *Mesh) RemoveFaces(indices []int) error {
	remove := make(map[int]bool, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(m.Faces) {
			return indexError("RemoveFaces", idx, NoIndex, ErrIndexOutOfRange)
		}
		remove[idx] = true
	}
	kept := m.Faces[:0]
	for i, f := range m.Faces {
		if !remove[i] {
			kept = append(kept, f)
		}
	}
	m.Faces = kept
	return nil
}

// Reindex rewrites the vertex buffers through remap, where remap[old] is the
// new index or Removed. Several old vertices may share a new index; the new
// slot keeps the attributes of the first of them. The targets must cover
// 0..n-1 without gaps. Faces are rewritten in one pass and any face that
// references a removed vertex is dropped. Returns the number of dropped faces.
func (m *Mesh) Reindex(remap []int) (int, error) {
	if len(remap) != len(m.Vertices) {
		return 0, fmt.Errorf("remap has %d entries for %d vertices: %w", len(remap), len(m.Vertices), ErrIndexOutOfRange)
	}
	n := 0
	for old, r := range remap {
		if r < Removed || r >= len(remap) {
			return 0, indexError("Reindex", NoIndex, old, ErrIndexOutOfRange)
		}
		if r >= n {
			n = r + 1
		}
	}

	source := make([]int, n)
	for i := range source {
		source[i] = Removed
	}
	for old, r := range remap {
		if r != Removed && source[r] == Removed {
			source[r] = old
		}
	}
	for slot, old := range source {
		if old == Removed {
			return 0, indexError("Reindex", NoIndex, slot, ErrIndexOutOfRange)
		}
	}

	m.Vertices = gather(m.Vertices, source)
	m.Normals = gather(m.Normals, source)
	m.Colors = gather(m.Colors, source)
	m.UVs = gather(m.UVs, source)

	dropped := 0
	kept := m.Faces[:0]
	for _, f := range m.Faces {
		nf := Face{remap[f[0]], remap[f[1]], remap[f[2]]}
		if nf[0] == Removed || nf[1] == Removed || nf[2] == Removed {
			dropped++
			continue
		}
		kept = append(kept, nf)
	}
	m.Faces = kept
	return dropped, nil
}

func gather[T any](s []T, source []int) []T {
	if len(s) == 0 {
		return s
	}
	out := make([]T, len(source))
	for i, old := range source {
		out[i] = s[old]
	}
	return out
}

// Append merges other into m and returns the index offset applied to the
// other mesh's vertices. An attribute buffer survives only when both meshes
// carry it.
func (m *Mesh) Append(other *Mesh) int {
	offset := len(m.Vertices)
	keepNormals := (m.HasNormals() || offset == 0) && other.HasNormals()
	keepColors := (m.HasColors() || offset == 0) && other.HasColors()
	keepUVs := (m.HasUVs() || offset == 0) && other.HasUVs()

	m.Vertices = append(m.Vertices, other.Vertices...)
	m.Normals = appendOrClear(m.Normals, other.Normals, keepNormals)
	m.Colors = appendOrClear(m.Colors, other.Colors, keepColors)
	m.UVs = appendOrClear(m.UVs, other.UVs, keepUVs)

	for _, f := range other.Faces {
		m.Faces = append(m.Faces, Face{f[0] + offset, f[1] + offset, f[2] + offset})
	}
	return offset
}

func appendOrClear[T any](dst, src []T, keep bool) []T {
	if !keep {
		return nil
	}
	return append(dst, src...)
}

// MinMaxZ returns the smallest and largest Z coordinate. ok is false for a
// mesh without vertices.
func (m *Mesh) MinMaxZ() (lo, hi float64, ok bool) {
	if len(m.Vertices) == 0 {
		return 0, 0, false
	}
	lo, hi = m.Vertices[0].Z, m.Vertices[0].Z
	for _, v := range m.Vertices[1:] {
		if v.Z < lo {
			lo = v.Z
		}
		if v.Z > hi {
			hi = v.Z
		}
	}
	return lo, hi, true
}
