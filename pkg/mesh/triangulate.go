package mesh

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/meshtools/pkg/math"
)

// NewellNormal returns the unnormalized normal of a closed polygon. Its
// length is twice the projected area; it points towards the side from which
// the polygon appears counter-clockwise.
func NewellNormal(points []r3.Vec) r3.Vec {
	var n r3.Vec
	for i, p := range points {
		q := points[(i+1)%len(points)]
		n.X += (p.Y - q.Y) * (p.Z + q.Z)
		n.Y += (p.Z - q.Z) * (p.X + q.X)
		n.Z += (p.X - q.X) * (p.Y + q.Y)
	}
	return n
}

// projectPolygon maps points onto the plane orthogonal to normal. The 2D
// basis is chosen so a polygon that is counter-clockwise about normal stays
// counter-clockwise.
func projectPolygon(points []r3.Vec, normal r3.Vec) []math.Vec2 {
	n := r3.Unit(normal)
	// Start from the world axis least aligned with n.
	axis := r3.Vec{X: 1}
	if abs(n.X) > abs(n.Y) || abs(n.X) > abs(n.Z) {
		axis = r3.Vec{Y: 1}
		if abs(n.Y) > abs(n.Z) {
			axis = r3.Vec{Z: 1}
		}
	}
	u := r3.Unit(r3.Cross(axis, n))
	v := r3.Cross(n, u)

	out := make([]math.Vec2, len(points))
	for i, p := range points {
		out[i] = math.Vec2{X: r3.Dot(p, u), Y: r3.Dot(p, v)}
	}
	return out
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// TriangulateLoop triangulates a closed polygon given by its corner
// positions and returns triangles as indices into points. Every triangle
// keeps the winding of the input order, and a polygon of n >= 3 corners
// always yields exactly n-2 triangles.
//
// The polygon is projected onto the plane of its Newell normal and ear
// clipped. When no proper ear exists (self-intersecting or degenerate
// input) the most convex corner is clipped instead. A polygon without any
// projected area falls back to a fan from the first corner.
func TriangulateLoop(points []r3.Vec) [][3]int {
	n := len(points)
	if n < 3 {
		return nil
	}
	if n == 3 {
		return [][3]int{{0, 1, 2}}
	}

	normal := NewellNormal(points)
	if r3.Norm2(normal) == 0 {
		return fan(n)
	}
	p := projectPolygon(points, normal)

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	tris := make([][3]int, 0, n-2)
	start := 0
	for len(idx) > 3 {
		ear := findEar(p, idx, start)
		m := len(idx)
		prev, cur, next := idx[(ear+m-1)%m], idx[ear], idx[(ear+1)%m]
		tris = append(tris, [3]int{prev, cur, next})
		idx = append(idx[:ear], idx[ear+1:]...)
		start = ear % len(idx)
	}
	return append(tris, [3]int{idx[0], idx[1], idx[2]})
}

// findEar returns the position in idx of the first ear at or after start,
// or of the most convex corner when there is none.
func findEar(p []math.Vec2, idx []int, start int) int {
	m := len(idx)
	best, bestTurn := start, -1.0
	first := true
	for k := 0; k < m; k++ {
		i := (start + k) % m
		a, b, c := p[idx[(i+m-1)%m]], p[idx[i]], p[idx[(i+1)%m]]
		turn := math.Orient2D(a, b, c)
		if first || turn > bestTurn {
			best, bestTurn, first = i, turn, false
		}
		if turn <= 0 {
			continue
		}
		if !containsReflex(p, idx, i, a, b, c) {
			return i
		}
	}
	return best
}

// containsReflex reports whether any other reflex corner of the polygon lies
// inside triangle (a, b, c). Only reflex corners can intrude into an ear of a
// simple polygon.
func containsReflex(p []math.Vec2, idx []int, ear int, a, b, c math.Vec2) bool {
	m := len(idx)
	for k := 0; k < m; k++ {
		if k == ear || k == (ear+m-1)%m || k == (ear+1)%m {
			continue
		}
		q := p[idx[k]]
		if q == a || q == b || q == c {
			continue
		}
		if math.Orient2D(p[idx[(k+m-1)%m]], q, p[idx[(k+1)%m]]) > 0 {
			continue
		}
		if math.PointInTriangle(q, a, b, c) {
			return true
		}
	}
	return false
}

func fan(n int) [][3]int {
	tris := make([][3]int, 0, n-2)
	for i := 1; i < n-1; i++ {
		tris = append(tris, [3]int{0, i, i + 1})
	}
	return tris
}
