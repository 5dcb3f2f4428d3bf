// Package report renders mesh statistics as a timestamped text report.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/meshtools/pkg/mesh"
)

// TimeLayout is the timestamp format of the report header.
const TimeLayout = "2006-01-02 15:04:05"

// Report is a statistics snapshot of one mesh.
type Report struct {
	Name  string
	Time  time.Time
	Stats mesh.Stats
}

// New computes the statistics of m. m is only read.
func New(name string, m *mesh.Mesh, at time.Time) Report {
	return Report{Name: name, Time: at, Stats: mesh.ComputeStats(m)}
}

// WriteTo writes the report in a fixed two-column layout.
func (r Report) WriteTo(w io.Writer) (int64, error) {
	s := r.Stats
	var b strings.Builder

	fmt.Fprintf(&b, "Mesh:        %s\n", r.Name)
	fmt.Fprintf(&b, "Generated:   %s\n", r.Time.Format(TimeLayout))
	fmt.Fprintf(&b, "Vertices:    %d\n", s.Vertices)
	fmt.Fprintf(&b, "Faces:       %d\n", s.Faces)
	fmt.Fprintf(&b, "Edges:       %d\n", s.Edges)
	fmt.Fprintf(&b, "Euler:       %d\n", s.EulerNumber)
	fmt.Fprintf(&b, "Components:  %d\n", s.Components)
	fmt.Fprintf(&b, "Watertight:  %s\n", yesNo(s.Watertight))
	if !s.Watertight {
		fmt.Fprintf(&b, "  boundary edges:     %d\n", s.BoundaryEdges)
		fmt.Fprintf(&b, "  non-manifold edges: %d\n", s.NonManifoldEdges)
	}
	if s.Vertices > 0 {
		fmt.Fprintf(&b, "Bounds min:  %s\n", vec(s.Bounds.Min))
		fmt.Fprintf(&b, "Bounds max:  %s\n", vec(s.Bounds.Max))
		fmt.Fprintf(&b, "Size:        %s\n", vec(r3.Sub(s.Bounds.Max, s.Bounds.Min)))
		fmt.Fprintf(&b, "Centroid:    %s\n", vec(s.Centroid))
	}
	fmt.Fprintf(&b, "Area:        %.6g\n", s.Area)
	// Volume is only meaningful for a closed surface.
	if s.Watertight {
		fmt.Fprintf(&b, "Volume:      %.6g\n", s.Volume)
	} else {
		fmt.Fprintf(&b, "Volume:      n/a (open surface)\n")
	}

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// Write writes one report per entry, separated by a blank line.
func Write(w io.Writer, reports ...Report) error {
	for i, r := range reports {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := r.WriteTo(w); err != nil {
			return err
		}
	}
	return nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func vec(v r3.Vec) string {
	return fmt.Sprintf("(%.6g, %.6g, %.6g)", v.X, v.Y, v.Z)
}
