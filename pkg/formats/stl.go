package formats

// STL (stereolithography) codec. Both the binary and the ASCII flavour are
// read; corners with bit-identical positions are welded into shared
// vertices so the result is an indexed mesh.

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/meshtools/pkg/encoding"
	"github.com/Faultbox/meshtools/pkg/mesh"
)

// STL format errors.
var (
	ErrTruncatedSTLData = errors.New("truncated STL data")
	ErrInvalidSTLFacet  = errors.New("invalid STL facet")
)

const (
	stlHeaderSize   = 80
	stlTriangleSize = 50
)

// stlTriangle is the on-disk layout of one binary STL facet.
type stlTriangle struct {
	Normal    [3]float32
	Corners   [3][3]float32
	Attribute uint16
}

// welder merges corners with identical positions into one vertex.
type welder struct {
	m     *mesh.Mesh
	index map[r3.Vec]int
}

func newWelder(capacity int) *welder {
	return &welder{m: mesh.New(), index: make(map[r3.Vec]int, capacity)}
}

func (w *welder) vertex(p r3.Vec) int {
	if i, ok := w.index[p]; ok {
		return i
	}
	i := w.m.AddVertex(mesh.Vertex{Position: p})
	w.index[p] = i
	return i
}

func (w *welder) face(a, b, c r3.Vec) {
	w.m.Faces = append(w.m.Faces, mesh.Face{w.vertex(a), w.vertex(b), w.vertex(c)})
}

// IsBinarySTL reports whether data looks like a binary STL file. Binary
// files may also start with "solid", or with bytes that read as a byte order
// mark, so the triangle count is checked against the file size first.
func IsBinarySTL(data []byte) bool {
	if len(data) < stlHeaderSize+4 {
		return false
	}
	count := binary.LittleEndian.Uint32(data[stlHeaderSize:])
	if uint64(len(data)) == stlHeaderSize+4+uint64(count)*stlTriangleSize {
		return true
	}
	if encoding.HasBOM(data) {
		return false
	}
	return !bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid"))
}

// ParseSTL parses binary or ASCII STL data. ASCII data may carry a UTF-8
// or UTF-16 byte order mark. Binary data is used as is.
func ParseSTL(data []byte) (*mesh.Mesh, error) {
	if IsBinarySTL(data) {
		return parseBinarySTL(data)
	}
	return parseASCIISTL(encoding.DecodeText(data))
}

func parseBinarySTL(data []byte) (*mesh.Mesh, error) {
	if len(data) < stlHeaderSize+4 {
		return nil, ErrTruncatedSTLData
	}
	count := binary.LittleEndian.Uint32(data[stlHeaderSize:])
	if uint64(len(data)) < stlHeaderSize+4+uint64(count)*stlTriangleSize {
		return nil, fmt.Errorf("%w: header declares %d triangles", ErrTruncatedSTLData, count)
	}

	r := bytes.NewReader(data[stlHeaderSize+4:])
	w := newWelder(int(count) / 2)
	w.m.Faces = make([]mesh.Face, 0, count)
	var tri stlTriangle
	for i := uint32(0); i < count; i++ {
		if err := binary.Read(r, binary.LittleEndian, &tri); err != nil {
			return nil, fmt.Errorf("reading triangle %d: %w", i, ErrTruncatedSTLData)
		}
		w.face(vec32(tri.Corners[0]), vec32(tri.Corners[1]), vec32(tri.Corners[2]))
	}
	return w.m, nil
}

func vec32(c [3]float32) r3.Vec {
	return r3.Vec{X: float64(c[0]), Y: float64(c[1]), Z: float64(c[2])}
}

func parseASCIISTL(data []byte) (*mesh.Mesh, error) {
	w := newWelder(0)
	var corners []r3.Vec
	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "vertex":
			p, err := parseVec(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			corners = append(corners, p)
		case "endloop":
			if len(corners) != 3 {
				return nil, fmt.Errorf("line %d: %w: %d corners", line, ErrInvalidSTLFacet, len(corners))
			}
			w.face(corners[0], corners[1], corners[2])
			corners = corners[:0]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning STL: %w", err)
	}
	if len(corners) != 0 {
		return nil, ErrTruncatedSTLData
	}
	return w.m, nil
}

func parseVec(fields []string) (r3.Vec, error) {
	if len(fields) < 3 {
		return r3.Vec{}, fmt.Errorf("expected 3 coordinates, got %d", len(fields))
	}
	var c [3]float64
	for i := range c {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return r3.Vec{}, err
		}
		c[i] = v
	}
	return r3.Vec{X: c[0], Y: c[1], Z: c[2]}, nil
}

// WriteSTL writes m as binary or ASCII STL. Facet normals are derived from
// the face winding.
func WriteSTL(w io.Writer, m *mesh.Mesh, binaryFormat bool) error {
	if binaryFormat {
		return writeBinarySTL(w, m)
	}
	return writeASCIISTL(w, m)
}

func writeBinarySTL(w io.Writer, m *mesh.Mesh) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(encoding.FixedString("binary STL written by meshtools", stlHeaderSize)); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(m.Faces))); err != nil {
		return err
	}
	for _, f := range m.Faces {
		n, _ := mesh.FaceNormal(m, f)
		tri := stlTriangle{Normal: float32s(n)}
		for j, v := range f {
			tri.Corners[j] = float32s(m.Vertices[v])
		}
		if err := binary.Write(bw, binary.LittleEndian, &tri); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func float32s(v r3.Vec) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}

func writeASCIISTL(w io.Writer, m *mesh.Mesh) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "solid meshtools")
	for _, f := range m.Faces {
		n, _ := mesh.FaceNormal(m, f)
		fmt.Fprintf(bw, "  facet normal %s\n    outer loop\n", formatVec(n))
		for _, v := range f {
			fmt.Fprintf(bw, "      vertex %s\n", formatVec(m.Vertices[v]))
		}
		fmt.Fprint(bw, "    endloop\n  endfacet\n")
	}
	fmt.Fprintln(bw, "endsolid meshtools")
	return bw.Flush()
}

func formatVec(v r3.Vec) string {
	return formatFloat(v.X) + " " + formatFloat(v.Y) + " " + formatFloat(v.Z)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
