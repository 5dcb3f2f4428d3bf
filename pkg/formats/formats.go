// Package formats reads and writes triangle meshes in the STL and Wavefront
// OBJ file formats.
package formats

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/meshtools/pkg/mesh"
)

// ErrUnsupportedFormat is returned for file extensions no codec handles.
var ErrUnsupportedFormat = errors.New("unsupported mesh format")

// Format identifies a mesh file format by its extension, without the dot.
type Format string

const (
	STL Format = "stl"
	OBJ Format = "obj"
)

// SupportedFormats lists the formats ReadFile and WriteFile handle.
var SupportedFormats = []Format{STL, OBJ}

// ParseFormat returns the format named by s, with or without a leading dot.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(s, ".")))
	for _, known := range SupportedFormats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// FormatOf returns the format implied by the extension of path.
func FormatOf(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Parse decodes data in the given format.
func Parse(data []byte, format Format) (*mesh.Mesh, error) {
	var (
		m   *mesh.Mesh
		err error
	)
	switch format {
	case STL:
		m, err = ParseSTL(data)
	case OBJ:
		m, err = ParseOBJ(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("decoded %s mesh: %w", format, err)
	}
	return m, nil
}

// ReadFile loads a mesh, choosing the codec from the file extension.
func ReadFile(path string) (*mesh.Mesh, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	m, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m, nil
}

// Write encodes m in the given format. STL is written in binary.
func Write(w io.Writer, m *mesh.Mesh, format Format) error {
	switch format {
	case STL:
		return WriteSTL(w, m, true)
	case OBJ:
		return WriteOBJ(w, m)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// WriteFile saves m, choosing the codec from the file extension. The file
// is only created once encoding succeeded.
func WriteFile(path string, m *mesh.Mesh) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Write(&buf, m, format); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
