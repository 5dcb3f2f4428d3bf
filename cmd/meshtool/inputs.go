package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"github.com/Faultbox/meshtools/pkg/formats"
)

// resolveInputs expands command-line arguments into mesh files. An argument
// may be a file, a glob pattern or a directory; a directory stands for its
// most recently modified mesh file. Duplicates are dropped and the order of
// first appearance is kept.
func resolveInputs(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		if strings.ContainsAny(arg, "*?[") {
			matches, err := filepath.Glob(arg)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
			}
			matches = lo.Filter(matches, func(p string, _ int) bool { return isMeshFile(p) })
			if len(matches) == 0 {
				return nil, fmt.Errorf("no mesh files match %s", arg)
			}
			files = append(files, matches...)
			continue
		}

		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("input not found: %s", arg)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		newest, err := newestMeshFile(arg)
		if err != nil {
			return nil, err
		}
		files = append(files, newest)
	}
	return lo.Uniq(lo.Map(files, func(p string, _ int) string { return filepath.Clean(p) })), nil
}

func isMeshFile(path string) bool {
	_, err := formats.FormatOf(path)
	return err == nil
}

// newestMeshFile returns the most recently modified mesh file in dir.
func newestMeshFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	type candidate struct {
		path string
		mod  int64
	}
	var found []candidate
	for _, e := range entries {
		if e.IsDir() || !isMeshFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		found = append(found, candidate{filepath.Join(dir, e.Name()), info.ModTime().UnixNano()})
	}
	if len(found) == 0 {
		return "", fmt.Errorf("no mesh files in %s", dir)
	}
	newest := lo.MaxBy(found, func(a, b candidate) bool { return a.mod > b.mod })
	return newest.path, nil
}

// expandSteps maps the generic "solidify" step onto the configured mode.
func expandSteps(steps []string, mode string) []string {
	back := "flat"
	if strings.EqualFold(mode, "mirror") {
		back = "mirror-back"
	}
	return lo.Map(steps, func(s string, _ int) string {
		if strings.EqualFold(strings.TrimSpace(s), "solidify") {
			return back
		}
		return s
	})
}

// outputBase is the path output names are derived from: the input itself,
// or the -output name placed next to it.
func outputBase(input, name string) string {
	if name == "" {
		return input
	}
	return filepath.Join(filepath.Dir(input), name+filepath.Ext(input))
}
