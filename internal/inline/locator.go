// Package inline implements the script-inlining stage that runs after all
// other build stages have written their output. It locates script tags in
// finished HTML documents, resolves the referenced files on disk, optionally
// minifies their content, and rewrites the documents with the scripts
// embedded inline.
//
// The stage operates on raw document text. It deliberately does not parse
// HTML into a DOM: the tag pattern is a text-level scanner, so multi-line
// tags and attributes with nested quotes are not recognized. Widening the
// pattern is configuration, not a code change.
package inline

import (
	"fmt"
	"regexp"
	"strings"
)

// ScriptRef is one script-tag occurrence found in a document: the full
// matched tag text and the source path extracted from its src attribute.
type ScriptRef struct {
	Tag    string
	Source string
}

// IsExternal reports whether the reference points at a remote resource.
// Protocol-prefixed sources (https://cdn..., data:, and protocol-relative
// //host/...) are never inlined regardless of configuration.
func (r ScriptRef) IsExternal() bool {
	if strings.HasPrefix(r.Source, "//") {
		return true
	}

	return externalScheme.MatchString(r.Source)
}

var externalScheme = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)

// HasMarker reports whether the tag text carries the inline-intent marker as
// a bare attribute token. Quoted attribute values are blanked before
// tokenizing, so a marker of "inline" does not fire on src="inline.js" or on
// a path segment like src="js/inline/app.js".
func (r ScriptRef) HasMarker(marker string) bool {
	if marker == "" {
		return false
	}

	stripped := quotedValue.ReplaceAllString(r.Tag, `""`)
	fields := strings.FieldsFunc(stripped, func(c rune) bool {
		return c == ' ' || c == '\t' || c == '<' || c == '>' || c == '/'
	})
	for _, field := range fields {
		if field == marker {
			return true
		}
	}

	return false
}

var quotedValue = regexp.MustCompile(`"[^"]*"`)

// Locator scans document text for script-tag occurrences matching a
// configurable pattern. The pattern's first capture group must extract the
// source path.
type Locator struct {
	pattern *regexp.Regexp
}

// NewLocator compiles the tag-matching pattern. The pattern is configuration:
// callers may widen or narrow what counts as a script tag, as long as one
// capture group yields the src value.
func NewLocator(pattern string) (*Locator, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid script tag pattern: %w", err)
	}
	if re.NumSubexp() < 1 {
		return nil, fmt.Errorf("script tag pattern must capture the src value: %s", pattern)
	}

	return &Locator{pattern: re}, nil
}

// References returns every match in document order. Each call re-scans the
// text, so after a rewrite the sequence restarts against the updated
// document and inlined scripts no longer appear.
func (l *Locator) References(doc string) []ScriptRef {
	matches := l.pattern.FindAllStringSubmatch(doc, -1)
	if len(matches) == 0 {
		return nil
	}

	refs := make([]ScriptRef, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, ScriptRef{Tag: m[0], Source: m[1]})
	}

	return refs
}
