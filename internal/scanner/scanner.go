// Package scanner provides output-tree discovery for the inline stage.
//
// The scanner traverses a finished build output directory and collects every
// HTML document in it. Traversal uses an explicit work-list rather than
// recursion so stack depth stays bounded on deep trees, and results are
// returned in a deterministic order so downstream logging is stable across
// runs.
package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	stageerrors "github.com/conneroisu/inliner/internal/errors"
)

// HTMLExtension is the file suffix the scanner matches, case-insensitively.
const HTMLExtension = ".html"

// OutputScanner discovers HTML documents under an output root.
type OutputScanner struct {
	root string
}

// NewOutputScanner creates a scanner for the given output root.
func NewOutputScanner(root string) *OutputScanner {
	return &OutputScanner{root: root}
}

// Root returns the output root this scanner traverses.
func (s *OutputScanner) Root() string {
	return s.root
}

// Scan walks the output tree and returns the paths of all HTML files found,
// sorted lexically. A missing root returns an ERR_OUTPUT_MISSING error, which
// the orchestrator treats as a run-level abort.
func (s *OutputScanner) Scan() ([]string, error) {
	info, err := os.Stat(s.root)
	if err != nil || !info.IsDir() {
		return nil, stageerrors.NewOutputMissingError(s.root)
	}

	var files []string

	// Depth-first over an explicit stack.
	stack := []string{s.root}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(dir)
		if err != nil {
			// An unreadable subdirectory costs its contents, not the run.
			continue
		}

		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())
			if entry.IsDir() {
				stack = append(stack, path)
				continue
			}
			if strings.EqualFold(filepath.Ext(entry.Name()), HTMLExtension) {
				files = append(files, path)
			}
		}
	}

	sort.Strings(files)

	return files, nil
}
