// Package cases enumerates UI test case files from a directory tree.
package cases

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// CaseFile is one discovered test case. Index fixes final-report ordering
// regardless of execution order.
type CaseFile struct {
	Index   int
	Path    string // relative to the cases directory, slash separated
	Content string
}

var caseExtensions = []string{".md", ".case"}

const templateStem = "template"

// Discover collects case files under dir, applies the optional
// comma-token substring filter (OR semantics over relative paths), sorts
// lexicographically and assigns indices 0..N-1. An empty result is not an
// error.
func Discover(dir string, filters []string) ([]CaseFile, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			return nil
		}
		// Only hidden file names are skipped, not hidden directories.
		if strings.HasPrefix(name, ".") {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(name))
		if !isCaseExtension(ext) {
			return nil
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		if strings.EqualFold(stem, templateStem) {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if len(filters) > 0 && !matchesAny(rel, filters) {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk cases dir %s: %w", dir, err)
	}

	sort.Strings(paths)

	out := make([]CaseFile, 0, len(paths))
	for i, rel := range paths {
		content, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			return nil, fmt.Errorf("failed to read case %s: %w", rel, err)
		}
		out = append(out, CaseFile{Index: i, Path: rel, Content: string(content)})
	}
	return out, nil
}

// Name is the case's run name: the file stem without directories.
func (c CaseFile) Name() string {
	base := filepath.Base(filepath.FromSlash(c.Path))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func isCaseExtension(ext string) bool {
	for _, e := range caseExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func matchesAny(rel string, filters []string) bool {
	for _, f := range filters {
		if f != "" && strings.Contains(rel, f) {
			return true
		}
	}
	return false
}
