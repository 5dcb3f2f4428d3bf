package formats

// Wavefront OBJ codec. Polygons are fan-triangulated on read. OBJ indexes
// positions, texture coordinates and normals separately, so per-vertex
// attributes are taken from the first face corner that uses a position.

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/meshtools/pkg/encoding"
	"github.com/Faultbox/meshtools/pkg/math"
	"github.com/Faultbox/meshtools/pkg/mesh"
)

// OBJ format errors.
var (
	ErrInvalidOBJRecord = errors.New("invalid OBJ record")
	ErrInvalidOBJIndex  = errors.New("OBJ index out of range")
)

// objCorner is one "v/vt/vn" reference of a face, resolved to 0-based
// indices. Missing parts are -1.
type objCorner struct {
	v, vt, vn int
}

type objReader struct {
	positions []r3.Vec
	colors    [][4]uint8
	hasColor  bool
	uvs       []math.Vec2
	normals   []r3.Vec

	faces [][3]objCorner
}

// ParseOBJ parses Wavefront OBJ data. Groups, objects, smoothing groups and
// material references are ignored.
func ParseOBJ(data []byte) (*mesh.Mesh, error) {
	r := &objReader{}
	sc := bufio.NewScanner(bytes.NewReader(encoding.DecodeText(data)))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		if err := r.record(fields); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning OBJ: %w", err)
	}
	return r.build(), nil
}

func (r *objReader) record(fields []string) error {
	switch fields[0] {
	case "v":
		p, err := parseVec(fields[1:])
		if err != nil {
			return fmt.Errorf("%w: v: %v", ErrInvalidOBJRecord, err)
		}
		r.positions = append(r.positions, p)
		color := [4]uint8{255, 255, 255, 255}
		if len(fields) >= 7 {
			c, err := parseVec(fields[4:])
			if err != nil {
				return fmt.Errorf("%w: v color: %v", ErrInvalidOBJRecord, err)
			}
			color = [4]uint8{unitToByte(c.X), unitToByte(c.Y), unitToByte(c.Z), 255}
			r.hasColor = true
		}
		r.colors = append(r.colors, color)
	case "vt":
		if len(fields) < 3 {
			return fmt.Errorf("%w: vt needs u and v", ErrInvalidOBJRecord)
		}
		u, err1 := strconv.ParseFloat(fields[1], 64)
		v, err2 := strconv.ParseFloat(fields[2], 64)
		if err := errors.Join(err1, err2); err != nil {
			return fmt.Errorf("%w: vt: %v", ErrInvalidOBJRecord, err)
		}
		r.uvs = append(r.uvs, math.Vec2{X: u, Y: v})
	case "vn":
		n, err := parseVec(fields[1:])
		if err != nil {
			return fmt.Errorf("%w: vn: %v", ErrInvalidOBJRecord, err)
		}
		r.normals = append(r.normals, n)
	case "f":
		if len(fields) < 4 {
			return fmt.Errorf("%w: face with %d corners", ErrInvalidOBJRecord, len(fields)-1)
		}
		corners := make([]objCorner, len(fields)-1)
		for i, f := range fields[1:] {
			c, err := r.corner(f)
			if err != nil {
				return err
			}
			corners[i] = c
		}
		for i := 1; i < len(corners)-1; i++ {
			r.faces = append(r.faces, [3]objCorner{corners[0], corners[i], corners[i+1]})
		}
	}
	return nil
}

// corner parses "v", "v/vt", "v//vn" or "v/vt/vn". Negative indices count
// back from the last element read so far.
func (r *objReader) corner(s string) (objCorner, error) {
	parts := strings.Split(s, "/")
	c := objCorner{v: -1, vt: -1, vn: -1}
	var err error
	if c.v, err = resolveIndex(parts[0], len(r.positions)); err != nil {
		return c, err
	}
	if len(parts) > 1 && parts[1] != "" {
		if c.vt, err = resolveIndex(parts[1], len(r.uvs)); err != nil {
			return c, err
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if c.vn, err = resolveIndex(parts[2], len(r.normals)); err != nil {
			return c, err
		}
	}
	return c, nil
}

func resolveIndex(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: index %q", ErrInvalidOBJRecord, s)
	}
	switch {
	case i > 0 && i <= n:
		return i - 1, nil
	case i < 0 && -i <= n:
		return n + i, nil
	}
	return 0, fmt.Errorf("%w: %d of %d", ErrInvalidOBJIndex, i, n)
}

func (r *objReader) build() *mesh.Mesh {
	m := &mesh.Mesh{
		Vertices: r.positions,
		Faces:    make([]mesh.Face, len(r.faces)),
	}
	if r.hasColor {
		m.Colors = r.colors
	}
	assigned := make([]bool, len(r.positions))
	if len(r.uvs) > 0 {
		m.UVs = make([]math.Vec2, len(r.positions))
	}
	if len(r.normals) > 0 {
		m.Normals = make([]r3.Vec, len(r.positions))
	}
	for i, corners := range r.faces {
		for j, c := range corners {
			m.Faces[i][j] = c.v
			if assigned[c.v] {
				continue
			}
			assigned[c.v] = true
			if c.vt >= 0 && m.UVs != nil {
				m.UVs[c.v] = r.uvs[c.vt]
			}
			if c.vn >= 0 && m.Normals != nil {
				m.Normals[c.v] = r.normals[c.vn]
			}
		}
	}
	return m
}

func unitToByte(f float64) uint8 {
	if f <= 0 {
		return 0
	}
	if f >= 1 {
		return 255
	}
	return uint8(f*255 + 0.5)
}

// WriteOBJ writes m as Wavefront OBJ. Colors are written as trailing RGB
// values of the "v" records; texture coordinates and normals share the
// position index.
func WriteOBJ(w io.Writer, m *mesh.Mesh) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# meshtools\n# %d vertices, %d faces\n", m.VertexCount(), m.FaceCount())
	for i, v := range m.Vertices {
		fmt.Fprintf(bw, "v %s", formatVec(v))
		if m.HasColors() {
			c := m.Colors[i]
			fmt.Fprintf(bw, " %s %s %s", formatFloat(float64(c[0])/255), formatFloat(float64(c[1])/255), formatFloat(float64(c[2])/255))
		}
		bw.WriteByte('\n')
	}
	for _, uv := range m.UVs {
		fmt.Fprintf(bw, "vt %s %s\n", formatFloat(uv.X), formatFloat(uv.Y))
	}
	for _, n := range m.Normals {
		fmt.Fprintf(bw, "vn %s\n", formatVec(n))
	}
	for _, f := range m.Faces {
		bw.WriteString("f")
		for _, v := range f {
			bw.WriteString(" " + objRef(v+1, m.HasUVs(), m.HasNormals()))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func objRef(i int, uv, normal bool) string {
	s := strconv.Itoa(i)
	switch {
	case uv && normal:
		return s + "/" + s + "/" + s
	case uv:
		return s + "/" + s
	case normal:
		return s + "//" + s
	}
	return s
}
