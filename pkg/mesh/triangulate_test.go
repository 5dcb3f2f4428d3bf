package mesh

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func triangleNormal(points []r3.Vec, tri [3]int) r3.Vec {
	a, b, c := points[tri[0]], points[tri[1]], points[tri[2]]
	return r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
}

func TestTriangulateLoop(t *testing.T) {
	tests := []struct {
		name   string
		points []r3.Vec
		area   float64
	}{
		{
			name:   "triangle",
			points: []r3.Vec{{}, {X: 1}, {Y: 1}},
			area:   0.5,
		},
		{
			name:   "square",
			points: []r3.Vec{{}, {X: 1}, {X: 1, Y: 1}, {Y: 1}},
			area:   1,
		},
		{
			name:   "L shape",
			points: []r3.Vec{{}, {X: 2}, {X: 2, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 2}, {Y: 2}},
			area:   3,
		},
		{
			name: "comb",
			points: []r3.Vec{
				{}, {X: 5}, {X: 5, Y: 3}, {X: 4, Y: 3}, {X: 4, Y: 1}, {X: 3, Y: 1},
				{X: 3, Y: 3}, {X: 2, Y: 3}, {X: 2, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 3}, {Y: 3},
			},
			area: 11,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tris := TriangulateLoop(tt.points)
			if len(tris) != len(tt.points)-2 {
				t.Fatalf("got %d triangles, want %d", len(tris), len(tt.points)-2)
			}
			var area float64
			for _, tri := range tris {
				n := triangleNormal(tt.points, tri)
				if n.Z < 0 {
					t.Errorf("triangle %v is wound clockwise", tri)
				}
				area += n.Z / 2
			}
			if !approx(area, tt.area) {
				t.Errorf("covered area = %v, want %v", area, tt.area)
			}
		})
	}
}

func TestTriangulateLoopKeepsClockwiseWinding(t *testing.T) {
	points := []r3.Vec{{Y: 1}, {X: 1, Y: 1}, {X: 1}, {}}
	tris := TriangulateLoop(points)
	if len(tris) != 2 {
		t.Fatalf("got %d triangles, want 2", len(tris))
	}
	for _, tri := range tris {
		if triangleNormal(points, tri).Z > 0 {
			t.Errorf("triangle %v flipped to counter-clockwise", tri)
		}
	}
}

func TestTriangulateLoopTilted(t *testing.T) {
	// A square in the XZ plane, counter-clockwise seen from -Y.
	points := []r3.Vec{{}, {X: 1}, {X: 1, Z: 1}, {Z: 1}}
	normal := NewellNormal(points)
	if normal.Y >= 0 {
		t.Fatalf("NewellNormal() = %v, want -Y", normal)
	}
	for _, tri := range TriangulateLoop(points) {
		if r3.Dot(triangleNormal(points, tri), normal) <= 0 {
			t.Errorf("triangle %v disagrees with polygon normal", tri)
		}
	}
}

func TestTriangulateLoopDegenerate(t *testing.T) {
	if tris := TriangulateLoop([]r3.Vec{{}, {X: 1}}); tris != nil {
		t.Errorf("two points triangulated to %v", tris)
	}

	collinear := []r3.Vec{{}, {X: 1}, {X: 2}, {X: 3}}
	tris := TriangulateLoop(collinear)
	want := [][3]int{{0, 1, 2}, {0, 2, 3}}
	if len(tris) != len(want) {
		t.Fatalf("got %v, want %v", tris, want)
	}
	for i := range want {
		if tris[i] != want[i] {
			t.Errorf("triangle %d = %v, want %v", i, tris[i], want[i])
		}
	}
}

func TestTriangulateLoopUsesEveryCorner(t *testing.T) {
	points := []r3.Vec{{}, {X: 2}, {X: 2, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 2}, {Y: 2}}
	used := make([]bool, len(points))
	for _, tri := range TriangulateLoop(points) {
		for _, i := range tri {
			used[i] = true
		}
	}
	for i, u := range used {
		if !u {
			t.Errorf("corner %d not used", i)
		}
	}
}
