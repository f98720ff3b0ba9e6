// Package config provides configuration management for the inliner using
// Viper for flexible configuration loading from files, environment variables,
// and command-line flags.
//
// The configuration system supports YAML files, environment variable
// overrides with INLINER_ prefix, and validation. It manages the output tree
// location, inlining policy (marker, pattern, extra source roots,
// minification), and watch-mode options.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultMarker is the inline-intent token a script tag must carry to be
// eligible for inlining unless inline_all is set.
const DefaultMarker = "inline"

// DefaultPattern matches script elements carrying a src attribute. The
// attribute name is anchored on preceding whitespace so lookalikes such as
// data-src do not count. It is a text-level pattern, not an HTML grammar:
// nested quotes and multi-line tags are out of scope.
const DefaultPattern = `<script\s(?:[^>]*\s)?src="([^"]+)"[^>]*>\s*</script>`

type Config struct {
	Output string       `mapstructure:"output"`
	Inline InlineConfig `mapstructure:"inline"`
	Watch  WatchConfig  `mapstructure:"watch"`
}

type InlineConfig struct {
	Minify     bool     `mapstructure:"minify"`
	InlineAll  bool     `mapstructure:"inline_all"`
	Marker     string   `mapstructure:"marker"`
	Pattern    string   `mapstructure:"pattern"`
	SourceDirs []string `mapstructure:"source_dirs"`
	Report     string   `mapstructure:"report"`
}

type WatchConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Debounce time.Duration `mapstructure:"debounce"`
}

func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Handle source_dirs set via viper (workaround for viper slice handling)
	if viper.IsSet("inline.source_dirs") && len(config.Inline.SourceDirs) == 0 {
		sourceDirs := viper.GetStringSlice("inline.source_dirs")
		if len(sourceDirs) > 0 {
			config.Inline.SourceDirs = sourceDirs
		}
	}

	if config.Output == "" {
		config.Output = "dist"
	}
	if config.Inline.Marker == "" {
		config.Inline.Marker = DefaultMarker
	}
	if config.Inline.Pattern == "" {
		config.Inline.Pattern = DefaultPattern
	}
	if len(config.Inline.SourceDirs) == 0 {
		config.Inline.SourceDirs = []string{"src", "public"}
	}
	if config.Watch.Debounce == 0 {
		config.Watch.Debounce = 300 * time.Millisecond
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validatePath(config.Output); err != nil {
		return fmt.Errorf("invalid output directory '%s': %w", config.Output, err)
	}

	for _, dir := range config.Inline.SourceDirs {
		if err := validatePath(dir); err != nil {
			return fmt.Errorf("invalid source dir '%s': %w", dir, err)
		}
	}

	if config.Inline.Marker != "" && strings.ContainsAny(config.Inline.Marker, "<>\"'") {
		return fmt.Errorf("marker contains markup characters: %s", config.Inline.Marker)
	}

	return nil
}

// validatePath validates a file path for security
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	cleanPath := filepath.Clean(path)

	// Reject path traversal attempts
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains traversal: %s", path)
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}
