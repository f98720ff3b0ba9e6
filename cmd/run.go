package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/conneroisu/inliner/internal/config"
	"github.com/conneroisu/inliner/internal/inline"
	"github.com/conneroisu/inliner/internal/logging"
	"github.com/conneroisu/inliner/internal/watcher"
)

var runCmd = &cobra.Command{
	Use:   "run [output-dir]",
	Short: "Run the inline stage against a build output tree",
	Long: `Run the inline stage once against a finished build output tree.

Scripts referenced by <script src="..."> tags are inlined when the tag
carries the inline-intent marker (or --inline-all is set) and the referenced
file can be found on disk. Remote scripts are always left untouched.

Examples:
  inliner run dist                        # Inline marked scripts under ./dist
  inliner run dist --minify               # Minify while inlining
  inliner run dist --inline-all           # Treat every local script as eligible
  inliner run dist --source-dir assets    # Extra resolution root
  inliner run dist --report report.json   # Write a JSON run report`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInline,
}

func init() {
	rootCmd.AddCommand(runCmd)
	bindRunFlags(runCmd.Flags())
}

// bindRunFlags registers the run command's flags and binds them into viper so
// file, env, and flag configuration share one precedence chain.
func bindRunFlags(fs *pflag.FlagSet) {
	fs.StringP("output", "o", "", "Output directory to process (also the first positional argument)")
	fs.Bool("minify", false, "Minify scripts while inlining")
	fs.Bool("inline-all", false, "Inline every local script reference, ignoring the marker")
	fs.String("marker", "", "Inline-intent attribute token (default \"inline\")")
	fs.String("pattern", "", "Override the script tag matching pattern")
	fs.StringSlice("source-dir", nil, "Extra source roots tried last during resolution (repeatable)")
	fs.String("report", "", "Write a JSON run report to this path")
	fs.Bool("watch", false, "Keep running and re-inline when the output tree changes")

	viper.BindPFlag("output", fs.Lookup("output"))
	viper.BindPFlag("inline.minify", fs.Lookup("minify"))
	viper.BindPFlag("inline.inline_all", fs.Lookup("inline-all"))
	viper.BindPFlag("inline.marker", fs.Lookup("marker"))
	viper.BindPFlag("inline.pattern", fs.Lookup("pattern"))
	viper.BindPFlag("inline.source_dirs", fs.Lookup("source-dir"))
	viper.BindPFlag("inline.report", fs.Lookup("report"))
	viper.BindPFlag("watch.enabled", fs.Lookup("watch"))
}

func runInline(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		viper.Set("output", args[0])
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := newLogger()

	stage, err := inline.NewStage(inline.Options{
		OutputRoot: cfg.Output,
		Minify:     cfg.Inline.Minify,
		InlineAll:  cfg.Inline.InlineAll,
		Marker:     cfg.Inline.Marker,
		Pattern:    cfg.Inline.Pattern,
		SourceDirs: cfg.Inline.SourceDirs,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("failed to configure inline stage: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	report, err := stage.Run(ctx)
	if err != nil {
		return err
	}

	if cfg.Inline.Report != "" {
		if werr := report.WriteFile(cfg.Inline.Report); werr != nil {
			logger.Warn(ctx, werr, "failed to write run report", "path", cfg.Inline.Report)
		}
	}

	if !cfg.Watch.Enabled {
		return nil
	}

	return watchAndRerun(ctx, cfg, logger)
}

// watchAndRerun blocks until interrupted, re-running the stage whenever HTML
// or script files under the output tree change. Each re-run uses a fresh
// stage so the minifier handle and run-scoped state start clean.
func watchAndRerun(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	fw, err := watcher.NewFileWatcher(cfg.Watch.Debounce, logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Stop()

	fw.AddFilter(watcher.HTMLAndScriptFilter)
	fw.AddHandler(func(events []watcher.ChangeEvent) error {
		logger.Info(ctx, "output tree changed, re-running inline stage", "changes", len(events))

		stage, err := inline.NewStage(inline.Options{
			OutputRoot: cfg.Output,
			Minify:     cfg.Inline.Minify,
			InlineAll:  cfg.Inline.InlineAll,
			Marker:     cfg.Inline.Marker,
			Pattern:    cfg.Inline.Pattern,
			SourceDirs: cfg.Inline.SourceDirs,
			Logger:     logger,
		})
		if err != nil {
			return err
		}

		_, err = stage.Run(ctx)

		return err
	})

	if err := fw.AddRecursive(cfg.Output); err != nil {
		return fmt.Errorf("failed to watch output tree: %w", err)
	}

	fw.Start(ctx)
	logger.Info(ctx, "watching output tree", "output", cfg.Output)

	<-ctx.Done()

	return nil
}
