// Package solidify turns an open surface into a closed solid by adding a
// back side and stitching it to the front along every boundary loop.
package solidify

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/meshtools/pkg/mesh"
	"github.com/Faultbox/meshtools/pkg/transform"
)

// Mode selects how the back side is built.
type Mode int

const (
	// Flat closes the surface with a planar back below the lowest point.
	Flat Mode = iota
	// Mirror closes the surface with its own reflection across the Z mid-plane.
	Mirror
)

func (m Mode) String() string {
	switch m {
	case Flat:
		return "flat"
	case Mirror:
		return "mirror"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "flat" or "mirror".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "flat", "":
		return Flat, nil
	case "mirror", "mirror-back":
		return Mirror, nil
	}
	return 0, fmt.Errorf("invalid solidify mode %q: want flat or mirror", s)
}

// Options configures a solidify run.
type Options struct {
	Logger *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Result describes what a solidify run added.
type Result struct {
	Mode          Mode
	BackZ         float64 // back plane for Flat, mirror plane for Mirror
	Loops         int
	VerticesAdded int
	FacesAdded    int
}

// front is the boundary of the surface as found before any mutation.
type front struct {
	loops []mesh.Loop
	edges [][2]int // directed boundary half-edges as traversed by their face
}

// scanFront validates m and collects its boundary loops. It fails with
// mesh.ErrAlreadyClosed when there is nothing to stitch.
func scanFront(op string, m *mesh.Mesh) (*front, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	topo := mesh.NewTopology(m)
	loops, err := mesh.BoundaryLoops(m, topo)
	if err != nil {
		return nil, fmt.Errorf("%s: boundary is not a set of closed loops: %w", op, err)
	}
	if len(loops) == 0 {
		return nil, fmt.Errorf("%s: %w", op, mesh.ErrAlreadyClosed)
	}
	f := &front{loops: loops}
	for _, l := range loops {
		if l.Len() < 3 {
			return nil, mesh.LoopError(op, l.Vertices[0], mesh.ErrDegenerateHole)
		}
		f.edges = append(f.edges, l.HalfEdges(m, topo)...)
	}
	return f, nil
}

// sideWalls connects every front half-edge a->b to its back counterpart
// a'->b'. The two triangles traverse b->a, a'->b' and the vertical edges
// opposite to their neighbours, so the strip closes the gap between a front
// whose faces wind a->b and a back whose faces wind b'->a'. Each wall
// follows the winding of the front face it is attached to.
func sideWalls(edges [][2]int, back func(int) int) []mesh.Face {
	faces := make([]mesh.Face, 0, 2*len(edges))
	for _, e := range edges {
		a, b := e[0], e[1]
		ab, bb := back(a), back(b)
		faces = append(faces, mesh.Face{b, a, ab}, mesh.Face{b, ab, bb})
	}
	return faces
}

// FlatBack closes m with a planar back at min(lowest Z, depth). Every
// boundary vertex gets one back vertex straight below it, each loop is
// capped with a downward-facing polygon and stitched with side walls.
//
// When m has no boundary the call fails with mesh.ErrAlreadyClosed and m is
// left unchanged. The same holds for any other error.
func FlatBack(m *mesh.Mesh, depth float64, opts Options) (*Result, error) {
	log := opts.logger()
	f, err := scanFront("FlatBack", m)
	if err != nil {
		return nil, err
	}
	minZ, _, _ := m.MinMaxZ()
	backZ := min(minZ, depth)

	backOf := make(map[int]int)
	var backVerts []int
	for _, l := range f.loops {
		for _, v := range l.Vertices {
			if _, ok := backOf[v]; !ok {
				backOf[v] = len(m.Vertices) + len(backVerts)
				backVerts = append(backVerts, v)
			}
		}
	}
	back := func(v int) int { return backOf[v] }

	var faces []mesh.Face
	for _, l := range f.loops {
		rev := l.Reversed()
		points := make([]r3.Vec, rev.Len())
		for i, v := range rev.Vertices {
			p := m.Vertices[v]
			points[i] = r3.Vec{X: p.X, Y: p.Y, Z: backZ}
		}
		for _, tri := range mesh.TriangulateLoop(points) {
			faces = append(faces, mesh.Face{
				back(rev.Vertices[tri[0]]),
				back(rev.Vertices[tri[1]]),
				back(rev.Vertices[tri[2]]),
			})
		}
	}
	faces = append(faces, sideWalls(f.edges, back)...)

	for _, v := range backVerts {
		vert := m.Vertex(v)
		vert.Position.Z = backZ
		vert.Normal = r3.Vec{Z: -1}
		m.AddVertex(vert)
	}
	if err := m.AddFaces(faces); err != nil {
		// Unreachable: every index was allocated above.
		return nil, fmt.Errorf("FlatBack: %w", err)
	}

	res := &Result{
		Mode:          Flat,
		BackZ:         backZ,
		Loops:         len(f.loops),
		VerticesAdded: len(backVerts),
		FacesAdded:    len(faces),
	}
	log.Debug("flat back added",
		zap.Float64("back_z", backZ),
		zap.Float64("requested_depth", depth),
		zap.Int("loops", res.Loops),
		zap.Int("vertices", res.VerticesAdded),
		zap.Int("faces", res.FacesAdded))
	return res, nil
}

// MirrorBack closes m with a reflected copy of itself. The copy is mirrored
// across the plane halfway between the lowest and highest Z, appended, and
// stitched to the original along every boundary loop.
//
// When m has no boundary the call fails with mesh.ErrAlreadyClosed and m is
// left unchanged.
func MirrorBack(m *mesh.Mesh, opts Options) (*Result, error) {
	log := opts.logger()
	f, err := scanFront("MirrorBack", m)
	if err != nil {
		return nil, err
	}
	minZ, maxZ, _ := m.MinMaxZ()
	mid := (minZ + maxZ) / 2

	mirrored := transform.MirrorAbout(m, transform.Z, mid, transform.Copy)
	facesBefore := m.FaceCount()
	offset := m.Append(mirrored)
	walls := sideWalls(f.edges, func(v int) int { return v + offset })
	if err := m.AddFaces(walls); err != nil {
		return nil, fmt.Errorf("MirrorBack: %w", err)
	}

	res := &Result{
		Mode:          Mirror,
		BackZ:         mid,
		Loops:         len(f.loops),
		VerticesAdded: offset,
		FacesAdded:    m.FaceCount() - facesBefore,
	}
	log.Debug("mirrored back added",
		zap.Float64("mid_z", mid),
		zap.Int("loops", res.Loops),
		zap.Int("vertices", res.VerticesAdded),
		zap.Int("faces", res.FacesAdded))
	return res, nil
}

// Solidify dispatches to FlatBack or MirrorBack.
func Solidify(m *mesh.Mesh, mode Mode, depth float64, opts Options) (*Result, error) {
	switch mode {
	case Flat:
		return FlatBack(m, depth, opts)
	case Mirror:
		return MirrorBack(m, opts)
	}
	return nil, fmt.Errorf("unknown solidify mode %v", mode)
}
