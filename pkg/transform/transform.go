// Package transform implements rigid rotations and reflections of a mesh.
//
// Rotations move positions and normals only. Reflections also reverse the
// winding of every face, because a reflection inverts handedness and the
// outward side would otherwise flip.
package transform

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/meshtools/pkg/math"
	"github.com/Faultbox/meshtools/pkg/mesh"
)

// Axis is a principal coordinate axis.
type Axis int

const (
	X Axis = iota
	Y
	Z
)

func (a Axis) String() string {
	switch a {
	case X:
		return "x"
	case Y:
		return "y"
	case Z:
		return "z"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// ParseAxis parses "x", "y" or "z" (case-insensitive).
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x":
		return X, nil
	case "y":
		return Y, nil
	case "z":
		return Z, nil
	}
	return 0, fmt.Errorf("invalid axis %q: want x, y or z", s)
}

// Target selects whether a reflection mutates its input or produces a copy.
type Target int

const (
	// InPlace rewrites the input mesh and returns it.
	InPlace Target = iota
	// Copy leaves the input untouched and returns a new mesh.
	Copy
)

// Matrix returns the rotation matrix for the given axis and angle in degrees.
func Matrix(axis Axis, degrees float64) math.Mat3 {
	rad := math.Radians(degrees)
	switch axis {
	case X:
		return math.RotateX(rad)
	case Y:
		return math.RotateY(rad)
	default:
		return math.RotateZ(rad)
	}
}

// Rotate rotates every vertex position and normal of m about the origin.
// Faces, colors and texture coordinates are not touched.
func Rotate(m *mesh.Mesh, axis Axis, degrees float64) {
	Apply(m, Matrix(axis, degrees))
}

// Apply multiplies every position and normal by rot, which must be
// orthogonal. A matrix with negative determinant is a reflection, so the
// winding of every face is reversed as Mirror does.
func Apply(m *mesh.Mesh, rot math.Mat3) {
	for i, v := range m.Vertices {
		m.Vertices[i] = rot.MulVec(v)
	}
	for i, n := range m.Normals {
		m.Normals[i] = rot.MulVec(n)
	}
	if rot.Det() < 0 {
		for i, f := range m.Faces {
			m.Faces[i] = f.Flipped()
		}
	}
}

// Mirror reflects m about the plane through the origin orthogonal to axis.
func Mirror(m *mesh.Mesh, axis Axis, target Target) *mesh.Mesh {
	return MirrorAbout(m, axis, 0, target)
}

// MirrorAbout reflects m about the plane orthogonal to axis at coordinate
// plane. With InPlace the input is rewritten and returned; with Copy a fresh
// mesh is returned and m is left as it was.
func MirrorAbout(m *mesh.Mesh, axis Axis, plane float64, target Target) *mesh.Mesh {
	dst := m
	if target == Copy {
		dst = &mesh.Mesh{
			Vertices: make([]r3.Vec, len(m.Vertices)),
			Faces:    make([]mesh.Face, len(m.Faces)),
		}
		if m.HasNormals() {
			dst.Normals = make([]r3.Vec, len(m.Normals))
		}
		dst.Colors = append(dst.Colors, m.Colors...)
		dst.UVs = append(dst.UVs, m.UVs...)
	}
	reflect(dst, m, axis, plane)
	return dst
}

// reflect writes the reflection of src into dst. dst must have buffers of
// the same length as src and may be src itself.
func reflect(dst, src *mesh.Mesh, axis Axis, plane float64) {
	for i, v := range src.Vertices {
		dst.Vertices[i] = reflectPoint(v, axis, plane)
	}
	for i, n := range src.Normals {
		dst.Normals[i] = reflectPoint(n, axis, 0)
	}
	for i, f := range src.Faces {
		dst.Faces[i] = f.Flipped()
	}
}

func reflectPoint(v r3.Vec, axis Axis, plane float64) r3.Vec {
	switch axis {
	case X:
		v.X = 2*plane - v.X
	case Y:
		v.Y = 2*plane - v.Y
	default:
		v.Z = 2*plane - v.Z
	}
	return v
}
