// Package cmd provides the command-line interface for the inliner with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	The CLI supports flexible configuration through multiple sources with clear precedence:
//	1. Command-line flags (--config, --minify, etc.) - highest priority
//	2. INLINER_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (INLINER_INLINE_MINIFY, etc.)
//	4. Configuration files (.inliner.yml) - lowest priority
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/inliner/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "inliner",
	Short: "Inline referenced scripts into finished HTML build output",
	Long: `Inliner is the terminal stage of a static build pipeline: it walks a
finished output tree, finds HTML documents referencing local script files,
and embeds eligible scripts directly into the documents, optionally
minifying them first. The result is a self-contained deliverable that makes
no external script requests.

Quick Start:
  inliner run dist                Inline marked scripts under ./dist
  inliner run dist --minify       Minify scripts while inlining
  inliner run dist --inline-all   Inline every local script reference
  inliner run dist --watch        Re-run whenever the output tree changes`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .inliner.yml, can also use INLINER_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log-format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig initializes the configuration system.
//
// Configuration Loading Priority (highest to lowest):
//  1. --config flag: Explicitly specified config file path
//  2. INLINER_CONFIG_FILE environment variable: Custom config file path
//  3. Default: .inliner.yml in current directory
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("INLINER_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".inliner")
	}

	// Enable automatic environment variable binding with INLINER_ prefix
	// Examples: INLINER_OUTPUT, INLINER_INLINE_MINIFY, INLINER_INLINE_INLINE_ALL
	viper.SetEnvPrefix("INLINER")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Missing or malformed config files fall back to defaults without failing.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the CLI logger from the log-level and log-format settings.
func newLogger() logging.Logger {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(viper.GetString("log-level"))
	cfg.Format = viper.GetString("log-format")

	return logging.NewLogger(cfg)
}
