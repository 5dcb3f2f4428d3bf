package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/meshtools/pkg/mesh"
)

func testSquare() *mesh.Mesh {
	return &mesh.Mesh{
		Vertices: []r3.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}},
		Faces:    []mesh.Face{{0, 1, 2}, {0, 2, 3}},
	}
}

// makeBinarySTL builds a binary STL with the given triangles.
func makeBinarySTL(header string, tris [][3][3]float32) []byte {
	var buf bytes.Buffer
	h := make([]byte, stlHeaderSize)
	copy(h, header)
	buf.Write(h)
	binary.Write(&buf, binary.LittleEndian, uint32(len(tris)))
	for _, t := range tris {
		binary.Write(&buf, binary.LittleEndian, stlTriangle{Corners: t})
	}
	return buf.Bytes()
}

const asciiSquare = `solid square
  facet normal 0 0 1
    outer loop
      vertex 0 0 0
      vertex 1 0 0
      vertex 1 1 0
    endloop
  endfacet
  facet normal 0 0 1
    outer loop
      vertex 0 0 0
      vertex 1 1 0
      vertex 0 1 0
    endloop
  endfacet
endsolid square
`

func TestParseSTL_Binary(t *testing.T) {
	// The header starts with "solid" on purpose: the size check wins.
	data := makeBinarySTL("solid but binary", [][3][3]float32{
		{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}},
		{{0, 0, 0}, {1, 1, 0}, {0, 1, 0}},
	})
	if !IsBinarySTL(data) {
		t.Fatal("IsBinarySTL() = false")
	}
	m, err := ParseSTL(data)
	if err != nil {
		t.Fatalf("ParseSTL() error = %v", err)
	}
	if m.VertexCount() != 4 || m.FaceCount() != 2 {
		t.Errorf("counts = %d/%d, want 4/2", m.VertexCount(), m.FaceCount())
	}
	if m.Faces[1] != (mesh.Face{0, 2, 3}) {
		t.Errorf("second face = %v, want welded [0 2 3]", m.Faces[1])
	}
}

func TestParseSTL_ASCII(t *testing.T) {
	data := []byte(asciiSquare)
	if IsBinarySTL(data) {
		t.Fatal("IsBinarySTL() = true for ASCII data")
	}
	m, err := ParseSTL(data)
	if err != nil {
		t.Fatalf("ParseSTL() error = %v", err)
	}
	if m.VertexCount() != 4 || m.FaceCount() != 2 {
		t.Errorf("counts = %d/%d, want 4/2", m.VertexCount(), m.FaceCount())
	}
	if m.Vertices[2] != (r3.Vec{X: 1, Y: 1}) {
		t.Errorf("vertex 2 = %v", m.Vertices[2])
	}
}

func TestParseSTL_ASCIIWithBOM(t *testing.T) {
	utf8 := append([]byte{0xEF, 0xBB, 0xBF}, asciiSquare...)

	// UTF-16LE with BOM, as some Windows exporters write it.
	utf16 := []byte{0xFF, 0xFE}
	for _, c := range []byte(asciiSquare) {
		utf16 = append(utf16, c, 0)
	}

	for name, data := range map[string][]byte{"utf8": utf8, "utf16le": utf16} {
		t.Run(name, func(t *testing.T) {
			m, err := ParseSTL(data)
			if err != nil {
				t.Fatalf("ParseSTL() error = %v", err)
			}
			if m.VertexCount() != 4 || m.FaceCount() != 2 {
				t.Errorf("counts = %d/%d, want 4/2", m.VertexCount(), m.FaceCount())
			}
		})
	}
}

func TestParseSTL_BinaryHeaderLooksLikeBOM(t *testing.T) {
	tris := [][3][3]float32{
		{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}},
		{{0, 0, 0}, {1, 1, 0}, {0, 1, 0}},
	}
	for name, header := range map[string]string{
		"utf8":    "\xEF\xBB\xBFexported",
		"utf16le": "\xFF\xFEexported",
		"utf16be": "\xFE\xFF",
	} {
		t.Run(name, func(t *testing.T) {
			data := makeBinarySTL(header, tris)
			if !IsBinarySTL(data) {
				t.Fatal("IsBinarySTL() = false")
			}
			m, err := ParseSTL(data)
			if err != nil {
				t.Fatalf("ParseSTL() error = %v", err)
			}
			if m.VertexCount() != 4 || m.FaceCount() != 2 {
				t.Errorf("counts = %d/%d, want 4/2", m.VertexCount(), m.FaceCount())
			}
			if m.Vertices[2] != (r3.Vec{X: 1, Y: 1}) {
				t.Errorf("vertex 2 = %v, want (1,1,0)", m.Vertices[2])
			}
		})
	}
}

func TestParseSTL_Errors(t *testing.T) {
	truncated := makeBinarySTL("x", [][3][3]float32{{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}})
	binary.LittleEndian.PutUint32(truncated[stlHeaderSize:], 3)

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"truncated binary", truncated, ErrTruncatedSTLData},
		{"facet with two corners", []byte("solid x\nouter loop\nvertex 0 0 0\nvertex 1 0 0\nendloop\n"), ErrInvalidSTLFacet},
		{"unterminated facet", []byte("solid x\nouter loop\nvertex 0 0 0\n"), ErrTruncatedSTLData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSTL(tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseSTL() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := ParseSTL([]byte("solid x\nvertex 0 zero 0\n")); err == nil {
		t.Error("ParseSTL() accepted a malformed coordinate")
	}
}

func TestWriteSTL_RoundTrip(t *testing.T) {
	for _, bin := range []bool{true, false} {
		var buf bytes.Buffer
		if err := WriteSTL(&buf, testSquare(), bin); err != nil {
			t.Fatalf("WriteSTL(binary=%v) error = %v", bin, err)
		}
		if IsBinarySTL(buf.Bytes()) != bin {
			t.Errorf("binary=%v output detected as binary=%v", bin, !bin)
		}
		m, err := ParseSTL(buf.Bytes())
		if err != nil {
			t.Fatalf("ParseSTL() error = %v", err)
		}
		want := testSquare()
		if m.VertexCount() != 4 || m.FaceCount() != 2 || m.Faces[1] != want.Faces[1] {
			t.Errorf("binary=%v read back %v", bin, m.Faces)
		}
	}
}

func TestWriteSTL_FacetNormals(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSTL(&buf, testSquare(), false); err != nil {
		t.Fatalf("WriteSTL() error = %v", err)
	}
	if n := strings.Count(buf.String(), "facet normal 0 0 1"); n != 2 {
		t.Errorf("found %d +Z facet normals, want 2:\n%s", n, buf.String())
	}
}
