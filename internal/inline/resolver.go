package inline

import (
	"os"
	"path/filepath"
	"strings"

	stageerrors "github.com/conneroisu/inliner/internal/errors"
)

// Candidates returns the ordered list of locations tried when resolving a
// referenced script path. The order is fixed: the document's own directory,
// the output root, the working directory, then each extra source directory
// in listed order. For the extra directories a leading "./" is stripped from
// the source first, since bundler-emitted references are relative to the
// document rather than to a source root.
//
// Candidates is pure so the chain can be tested without touching a
// filesystem; Resolve applies the existence check.
func Candidates(source, docDir, outputRoot, workDir string, sourceDirs []string) []string {
	candidates := []string{
		filepath.Join(docDir, source),
		filepath.Join(outputRoot, source),
		filepath.Join(workDir, source),
	}

	trimmed := strings.TrimPrefix(source, "./")
	for _, dir := range sourceDirs {
		candidates = append(candidates, filepath.Join(dir, trimmed))
	}

	return candidates
}

// SourceResolver maps referenced script paths to on-disk files by walking an
// ordered fallback chain. The first existing candidate wins.
type SourceResolver struct {
	outputRoot string
	workDir    string
	sourceDirs []string

	// stat is injectable for tests; defaults to os.Stat.
	stat func(string) (os.FileInfo, error)
}

// NewSourceResolver creates a resolver over the given roots.
func NewSourceResolver(outputRoot, workDir string, sourceDirs []string) *SourceResolver {
	return &SourceResolver{
		outputRoot: outputRoot,
		workDir:    workDir,
		sourceDirs: sourceDirs,
		stat:       os.Stat,
	}
}

// Resolve returns the absolute path of the first existing candidate for the
// given source reference. When no candidate exists it returns a
// *ResolutionError carrying every attempted path for diagnostic reporting;
// that failure is non-fatal and leaves the reference unmodified.
func (r *SourceResolver) Resolve(source, docDir string) (string, error) {
	candidates := Candidates(source, docDir, r.outputRoot, r.workDir, r.sourceDirs)

	for _, candidate := range candidates {
		info, err := r.stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}

		abs, err := filepath.Abs(candidate)
		if err != nil {
			abs = candidate
		}

		return abs, nil
	}

	return "", &stageerrors.ResolutionError{Source: source, Attempted: candidates}
}
