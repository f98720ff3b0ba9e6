// Package errors defines the structured error types used by the inline stage.
//
// Every failure mode in the stage maps onto one of a small set of typed
// errors so callers can decide recovery scope (per reference, per file, per
// run) with errors.As instead of string matching. All errors here degrade
// functionality rather than corrupt output: the worst outcome of any of them
// is that a script is left referenced instead of inlined.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeResolution ErrorType = "resolution"
	ErrorTypeMinify     ErrorType = "minify"
	ErrorTypeInternal   ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeOutputMissing       = "ERR_OUTPUT_MISSING"
	ErrCodeResolutionFailed    = "ERR_RESOLUTION_FAILED"
	ErrCodeMinifierUnavailable = "ERR_MINIFIER_UNAVAILABLE"
	ErrCodeMinifyFailed        = "ERR_MINIFY_FAILED"
	ErrCodeFileIO              = "ERR_FILE_IO"
	ErrCodeConfigInvalid       = "ERR_CONFIG_INVALID"
)

// StageError is a structured error type with context.
type StageError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	FilePath    string
	Recoverable bool
}

// Error implements the error interface.
func (e *StageError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *StageError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *StageError) Is(target error) bool {
	var t *StageError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithFile adds the path of the document being processed.
func (e *StageError) WithFile(path string) *StageError {
	e.FilePath = path

	return e
}

// NewOutputMissingError reports an absent output root. This is the only
// run-level failure in the stage; it aborts before any file is touched.
func NewOutputMissingError(root string) *StageError {
	return &StageError{
		Type:        ErrorTypeConfig,
		Code:        ErrCodeOutputMissing,
		Message:     "output directory does not exist: " + root,
		Recoverable: false,
	}
}

// NewMinifierUnavailableError reports that the optional minifier could not be
// loaded. Minification is disabled for the rest of the run.
func NewMinifierUnavailableError(cause error) *StageError {
	return &StageError{
		Type:        ErrorTypeMinify,
		Code:        ErrCodeMinifierUnavailable,
		Message:     "minifier unavailable, scripts will be inlined unminified",
		Cause:       cause,
		Recoverable: true,
	}
}

// NewMinifyError reports a minification failure for one script. The script
// falls back to its unminified content.
func NewMinifyError(source string, cause error) *StageError {
	return &StageError{
		Type:        ErrorTypeMinify,
		Code:        ErrCodeMinifyFailed,
		Message:     "failed to minify " + source,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewFileIOError reports a read or write failure on a specific file. The file
// is skipped and the run continues.
func NewFileIOError(message string, cause error) *StageError {
	return &StageError{
		Type:        ErrorTypeIO,
		Code:        ErrCodeFileIO,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(message string) *StageError {
	return &StageError{
		Type:        ErrorTypeConfig,
		Code:        ErrCodeConfigInvalid,
		Message:     message,
		Recoverable: false,
	}
}

// ResolutionError reports that a referenced script path could not be mapped
// to an on-disk file. Attempted holds every candidate path that was tried, in
// resolution-chain order, for diagnostic reporting.
type ResolutionError struct {
	Source    string
	Attempted []string
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("[%s] could not resolve %q (tried %d locations: %s)",
		ErrCodeResolutionFailed, e.Source, len(e.Attempted), strings.Join(e.Attempted, ", "))
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var re *ResolutionError
	if errors.As(err, &re) {
		return true
	}

	var se *StageError
	if errors.As(err, &se) {
		return se.Recoverable
	}

	return false
}

// IsOutputMissing checks for the run-aborting missing output root error.
func IsOutputMissing(err error) bool {
	var se *StageError
	if errors.As(err, &se) {
		return se.Code == ErrCodeOutputMissing
	}

	return false
}
