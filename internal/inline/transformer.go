package inline

import (
	"context"
	"sync"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/js"

	stageerrors "github.com/conneroisu/inliner/internal/errors"
	"github.com/conneroisu/inliner/internal/logging"
)

const jsMediaType = "application/javascript"

// TransformFunc is a user-supplied pure transform applied to script content
// before minification. It receives the content and the resolved source path.
type TransformFunc func(content, sourcePath string) string

// MinifyOutcome describes what happened to a script in the minification step.
type MinifyOutcome int

const (
	// MinifySkipped means minification was not requested for this run.
	MinifySkipped MinifyOutcome = iota
	// MinifySuccess means the script was minified.
	MinifySuccess
	// MinifyDegraded means the minifier is unavailable and the script was
	// passed through unminified.
	MinifyDegraded
	// MinifyFailed means the minifier errored on this script and the
	// unminified content was used as fallback.
	MinifyFailed
)

// TransformResult carries the final script text together with the outcome of
// the minification step and the observed sizes.
type TransformResult struct {
	Content    string
	Outcome    MinifyOutcome
	SizeBefore int
	SizeAfter  int
}

// MinifierHandle is the run-scoped handle to the optional minifier. It is
// resolved at most once per run and shared read-only across all files;
// absence is a valid steady state in which inlining proceeds unminified.
type MinifierHandle struct {
	once   sync.Once
	loader func() (*minify.M, error)
	m      *minify.M
	err    error
}

// NewMinifierHandle creates a handle backed by the default JavaScript
// minifier configuration: name mangling and comment stripping on, console
// output preserved.
func NewMinifierHandle() *MinifierHandle {
	return &MinifierHandle{loader: loadMinifier}
}

// NewMinifierHandleWithLoader creates a handle with a custom loader, used by
// tests to exercise the unavailable-minifier path.
func NewMinifierHandleWithLoader(loader func() (*minify.M, error)) *MinifierHandle {
	return &MinifierHandle{loader: loader}
}

func loadMinifier() (*minify.M, error) {
	m := minify.New()
	m.Add(jsMediaType, &js.Minifier{})

	return m, nil
}

// Get resolves the minifier, loading it on first use. The result, success or
// failure, is latched for the remainder of the run.
func (h *MinifierHandle) Get() (*minify.M, error) {
	h.once.Do(func() {
		h.m, h.err = h.loader()
	})

	return h.m, h.err
}

// ContentTransformer applies the user transform and optional minification to
// resolved script content.
type ContentTransformer struct {
	transform TransformFunc
	minify    bool
	handle    *MinifierHandle
	disabled  bool
	logger    logging.Logger
}

// NewContentTransformer creates a transformer. transform may be nil for
// identity; handle may be nil, in which case a default handle is created.
func NewContentTransformer(transform TransformFunc, enableMinify bool, handle *MinifierHandle, logger logging.Logger) *ContentTransformer {
	if handle == nil {
		handle = NewMinifierHandle()
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}

	return &ContentTransformer{
		transform: transform,
		minify:    enableMinify,
		handle:    handle,
		logger:    logger,
	}
}

// Transform runs the user transform, then minifies if enabled and available.
// Minifier load failure disables minification for the remainder of the run
// with a single warning; a per-script minify error falls back to the
// transformed text for that script only.
func (t *ContentTransformer) Transform(ctx context.Context, content, sourcePath string) TransformResult {
	if t.transform != nil {
		content = t.transform(content, sourcePath)
	}

	result := TransformResult{
		Content:    content,
		Outcome:    MinifySkipped,
		SizeBefore: len(content),
		SizeAfter:  len(content),
	}

	if !t.minify {
		return result
	}
	if t.disabled {
		result.Outcome = MinifyDegraded
		return result
	}

	m, err := t.handle.Get()
	if err != nil {
		t.disabled = true
		t.logger.Warn(ctx, stageerrors.NewMinifierUnavailableError(err),
			"minifier failed to load, continuing without minification")
		result.Outcome = MinifyDegraded

		return result
	}

	minified, err := m.String(jsMediaType, content)
	if err != nil {
		t.logger.Warn(ctx, stageerrors.NewMinifyError(sourcePath, err),
			"using unminified content for script")
		result.Outcome = MinifyFailed

		return result
	}

	result.Content = minified
	result.Outcome = MinifySuccess
	result.SizeAfter = len(minified)

	savings := 0.0
	if result.SizeBefore > 0 {
		savings = float64(result.SizeBefore-result.SizeAfter) / float64(result.SizeBefore) * 100
	}
	t.logger.Info(ctx, "minified script",
		"source", sourcePath,
		"bytes_before", result.SizeBefore,
		"bytes_after", result.SizeAfter,
		"savings_pct", savings)

	return result
}
