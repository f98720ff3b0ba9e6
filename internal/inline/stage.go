package inline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/conneroisu/inliner/internal/config"
	stageerrors "github.com/conneroisu/inliner/internal/errors"
	"github.com/conneroisu/inliner/internal/logging"
	"github.com/conneroisu/inliner/internal/scanner"
)

// StageComponent is the identifier attached to every log line the stage
// emits, so its output can be filtered out of the surrounding build's logs.
const StageComponent = "inline-scripts"

// Options configures one inline stage.
type Options struct {
	// OutputRoot is the finished build output tree to process.
	OutputRoot string
	// Minify enables optional minification of inlined scripts.
	Minify bool
	// InlineAll treats every local script reference as eligible, ignoring
	// the marker requirement.
	InlineAll bool
	// Marker is the inline-intent attribute token; defaults to
	// config.DefaultMarker.
	Marker string
	// Pattern overrides the tag-matching pattern; defaults to
	// config.DefaultPattern.
	Pattern string
	// SourceDirs are extra roots tried last during resolution.
	SourceDirs []string
	// Transform is an optional pure content transform applied before
	// minification.
	Transform TransformFunc
	// WorkDir overrides the process working directory used in resolution;
	// defaults to os.Getwd.
	WorkDir string
	// Logger receives stage diagnostics; defaults to a no-op logger.
	Logger logging.Logger
}

// Report summarizes one run of the stage.
type Report struct {
	FilesScanned   int           `json:"files_scanned"`
	FilesModified  int           `json:"files_modified"`
	FilesSkipped   int           `json:"files_skipped"`
	ScriptsInlined int           `json:"scripts_inlined"`
	ScriptsFailed  int           `json:"scripts_failed"`
	BytesSaved     int64         `json:"bytes_saved"`
	Duration       time.Duration `json:"duration_ns"`
}

// WriteFile writes the report as indented JSON.
func (r *Report) WriteFile(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return stageerrors.NewFileIOError("failed to write report", err).WithFile(path)
	}

	return nil
}

// Stage drives the scan → locate → resolve → transform → rewrite pipeline
// across an output tree, file by file, isolating failures per reference and
// per file so one bad input never aborts the run.
type Stage struct {
	opts        Options
	scanner     *scanner.OutputScanner
	locator     *Locator
	resolver    *SourceResolver
	transformer *ContentTransformer
	rewriter    DocumentRewriter
	logger      logging.Logger
}

// NewStage builds a stage from options, applying defaults for the marker,
// pattern, working directory, and logger.
func NewStage(opts Options) (*Stage, error) {
	if opts.Marker == "" {
		opts.Marker = config.DefaultMarker
	}
	if opts.Pattern == "" {
		opts.Pattern = config.DefaultPattern
	}
	if opts.WorkDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, stageerrors.NewFileIOError("failed to determine working directory", err)
		}
		opts.WorkDir = wd
	}
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger{}
	}

	locator, err := NewLocator(opts.Pattern)
	if err != nil {
		return nil, stageerrors.NewConfigError(err.Error())
	}

	logger := opts.Logger.WithComponent(StageComponent)

	return &Stage{
		opts:        opts,
		scanner:     scanner.NewOutputScanner(opts.OutputRoot),
		locator:     locator,
		resolver:    NewSourceResolver(opts.OutputRoot, opts.WorkDir, opts.SourceDirs),
		transformer: NewContentTransformer(opts.Transform, opts.Minify, nil, logger),
		logger:      logger,
	}, nil
}

// Run processes the whole output tree once and returns a run report.
//
// A missing output root aborts the run with a single warning and a nil
// error: the stage degrades, the surrounding build does not fail. All other
// failures are recovered at the narrowest scope and reflected in the report.
func (s *Stage) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{}

	files, err := s.scanner.Scan()
	if err != nil {
		if stageerrors.IsOutputMissing(err) {
			s.logger.Warn(ctx, err, "output directory missing, skipping script inlining")
			return report, nil
		}

		return nil, err
	}

	s.logger.Info(ctx, "inlining scripts", "output", s.opts.OutputRoot, "files", len(files))
	report.FilesScanned = len(files)

	for _, file := range files {
		if err := s.processFile(ctx, file, report); err != nil {
			s.logger.Error(ctx, err, "failed to process document, skipping", "file", file)
			report.FilesSkipped++
		}
	}

	report.Duration = time.Since(start)
	s.logger.Info(ctx, "script inlining complete",
		"files_scanned", report.FilesScanned,
		"files_modified", report.FilesModified,
		"scripts_inlined", report.ScriptsInlined,
		"scripts_failed", report.ScriptsFailed,
		"bytes_saved", report.BytesSaved,
		"duration", report.Duration.String())

	return report, nil
}

// processFile runs the per-file portion of the pipeline. Per-reference
// failures are logged and skipped; only a failure to read or write the
// document itself surfaces to the caller.
func (s *Stage) processFile(ctx context.Context, path string, report *Report) error {
	s.logger.Debug(ctx, "processing document", "file", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return stageerrors.NewFileIOError("failed to read document", err).WithFile(path)
	}
	doc := string(data)
	docDir := filepath.Dir(path)

	var subs []Substitution
	seen := make(map[string]bool)
	for _, ref := range s.locator.References(doc) {
		// Duplicate byte-identical tags get one substitution per pass.
		if seen[ref.Tag] {
			continue
		}
		if ref.IsExternal() {
			s.logger.Debug(ctx, "skipping external script", "file", path, "src", ref.Source)
			continue
		}
		if !s.opts.InlineAll && !ref.HasMarker(s.opts.Marker) {
			s.logger.Debug(ctx, "skipping unmarked script", "file", path, "src", ref.Source)
			continue
		}

		resolved, err := s.resolver.Resolve(ref.Source, docDir)
		if err != nil {
			s.logger.Warn(ctx, err, "could not resolve script source, leaving reference as-is",
				"file", path, "src", ref.Source)
			report.ScriptsFailed++
			continue
		}

		content, err := os.ReadFile(resolved)
		if err != nil {
			s.logger.Warn(ctx, stageerrors.NewFileIOError("failed to read script", err).WithFile(resolved),
				"leaving reference as-is", "file", path, "src", ref.Source)
			report.ScriptsFailed++
			continue
		}

		result := s.transformer.Transform(ctx, string(content), resolved)
		subs = append(subs, Substitution{Tag: ref.Tag, Body: result.Content})
		seen[ref.Tag] = true
		report.ScriptsInlined++
		if result.Outcome == MinifySuccess {
			report.BytesSaved += int64(result.SizeBefore - result.SizeAfter)
		}
	}

	updated, changed := s.rewriter.Apply(doc, subs)
	if !changed {
		return nil
	}

	if err := s.rewriter.Persist(path, updated, changed); err != nil {
		return err
	}

	report.FilesModified++
	s.logger.Info(ctx, "rewrote document", "file", path, "scripts", len(subs))

	return nil
}
