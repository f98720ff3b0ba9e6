package inline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stageerrors "github.com/conneroisu/inliner/internal/errors"
)

func TestCandidatesOrder(t *testing.T) {
	candidates := Candidates("./app.js", "/out/pages", "/out", "/work", []string{"/src", "/public"})

	assert.Equal(t, []string{
		filepath.Join("/out/pages", "./app.js"),
		filepath.Join("/out", "./app.js"),
		filepath.Join("/work", "./app.js"),
		filepath.Join("/src", "app.js"),
		filepath.Join("/public", "app.js"),
	}, candidates)
}

func TestCandidatesCleansRelativeMarker(t *testing.T) {
	candidates := Candidates("./js/app.js", "docdir", "out", "work", []string{"extra"})

	assert.Equal(t, []string{
		filepath.Join("docdir", "js", "app.js"),
		filepath.Join("out", "js", "app.js"),
		filepath.Join("work", "js", "app.js"),
		filepath.Join("extra", "js", "app.js"),
	}, candidates)
}

func TestResolveFirstMatchWins(t *testing.T) {
	root := t.TempDir()
	docDir := filepath.Join(root, "out", "pages")
	sourceDir := filepath.Join(root, "src")
	writeScript(t, filepath.Join(docDir, "app.js"), "doc-relative")
	writeScript(t, filepath.Join(sourceDir, "app.js"), "source-dir")

	r := NewSourceResolver(filepath.Join(root, "out"), root, []string{sourceDir})

	resolved, err := r.Resolve("./app.js", docDir)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(resolved))

	content, err := os.ReadFile(resolved)
	require.NoError(t, err)
	assert.Equal(t, "doc-relative", string(content))
}

func TestResolveFallsBackToSourceDirs(t *testing.T) {
	root := t.TempDir()
	docDir := filepath.Join(root, "out", "pages")
	sourceDir := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(docDir, 0755))
	writeScript(t, filepath.Join(sourceDir, "app.js"), "source-dir")

	r := NewSourceResolver(filepath.Join(root, "out"), root, []string{sourceDir})

	resolved, err := r.Resolve("./app.js", docDir)
	require.NoError(t, err)

	content, err := os.ReadFile(resolved)
	require.NoError(t, err)
	assert.Equal(t, "source-dir", string(content))
}

func TestResolveSkipsDirectories(t *testing.T) {
	root := t.TempDir()
	docDir := filepath.Join(root, "out")
	// A directory named like the script must not satisfy resolution.
	require.NoError(t, os.MkdirAll(filepath.Join(docDir, "app.js"), 0755))
	sourceDir := filepath.Join(root, "src")
	writeScript(t, filepath.Join(sourceDir, "app.js"), "real file")

	r := NewSourceResolver(docDir, root, []string{sourceDir})

	resolved, err := r.Resolve("app.js", docDir)
	require.NoError(t, err)

	content, err := os.ReadFile(resolved)
	require.NoError(t, err)
	assert.Equal(t, "real file", string(content))
}

func TestResolveReportsEveryAttemptedPath(t *testing.T) {
	root := t.TempDir()
	r := NewSourceResolver(root, root, []string{filepath.Join(root, "src"), filepath.Join(root, "public")})

	_, err := r.Resolve("missing.js", filepath.Join(root, "pages"))
	require.Error(t, err)

	var resErr *stageerrors.ResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, "missing.js", resErr.Source)
	assert.Len(t, resErr.Attempted, 5)
	assert.Contains(t, err.Error(), "missing.js")
}

func TestResolveWithInjectedStat(t *testing.T) {
	r := NewSourceResolver("/out", "/work", []string{"/src"})

	var attempted []string
	r.stat = func(path string) (os.FileInfo, error) {
		attempted = append(attempted, path)
		return nil, os.ErrNotExist
	}

	_, err := r.Resolve("lib.js", "/out/docs")
	require.Error(t, err)
	assert.Equal(t, Candidates("lib.js", "/out/docs", "/out", "/work", []string{"/src"}), attempted)
}

func writeScript(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}
