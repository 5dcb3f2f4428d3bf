// Package math provides the small vector and matrix types used by the mesh
// transforms. 3D positions use gonum's r3.Vec; this package adds the 2D type
// for texture coordinates and projected polygons, and 3x3 rotation matrices.
package math

// Vec2 is a 2D vector.
type Vec2 struct {
	X, Y float64
}

// Sub returns v - other.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{v.X - other.X, v.Y - other.Y}
}

// Cross returns the z component of the 3D cross product of v and other.
// Positive when other is counter-clockwise from v.
func (v Vec2) Cross(other Vec2) float64 {
	return v.X*other.Y - v.Y*other.X
}

// Orient2D returns twice the signed area of triangle (a, b, c).
// Positive for counter-clockwise order.
func Orient2D(a, b, c Vec2) float64 {
	return b.Sub(a).Cross(c.Sub(a))
}

// PointInTriangle reports whether p lies inside or on the counter-clockwise
// triangle (a, b, c).
func PointInTriangle(p, a, b, c Vec2) bool {
	return Orient2D(a, b, p) >= 0 && Orient2D(b, c, p) >= 0 && Orient2D(c, a, p) >= 0
}
