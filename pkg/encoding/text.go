// Package encoding normalizes the text and fixed-size string fields of mesh
// file formats.
package encoding

import (
	"bytes"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// HasBOM reports whether data starts with a UTF-8 or UTF-16 byte order mark.
func HasBOM(data []byte) bool {
	return bytes.HasPrefix(data, bomUTF8) ||
		bytes.HasPrefix(data, bomUTF16LE) ||
		bytes.HasPrefix(data, bomUTF16BE)
}

// DecodeText returns data as UTF-8 without a byte order mark. UTF-16 input
// is recognized by its BOM. Data without a BOM is returned unchanged, as is
// data that fails to decode.
func DecodeText(data []byte) []byte {
	if !HasBOM(data) {
		return data
	}
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	result, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return data
	}
	return result
}

// FixedString converts s to a null-padded field of exactly size bytes,
// truncating if needed.
func FixedString(s string, size int) []byte {
	result := make([]byte, size)
	copy(result, s)
	return result
}
