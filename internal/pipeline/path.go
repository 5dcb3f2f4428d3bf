package pipeline

import (
	"path/filepath"
	"strings"
)

// OutputPath returns <dir>/<name>_<suffix>.<ext>, where name is the base
// name of input without its extension. An empty dir keeps the directory of
// input and an empty ext keeps its extension.
func OutputPath(input, suffix, dir, ext string) string {
	inExt := filepath.Ext(input)
	name := strings.TrimSuffix(filepath.Base(input), inExt)
	if dir == "" {
		dir = filepath.Dir(input)
	}
	if ext == "" {
		ext = inExt
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return filepath.Join(dir, name+"_"+suffix+ext)
}
