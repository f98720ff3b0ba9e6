package inline

import (
	"os"
	"strings"

	stageerrors "github.com/conneroisu/inliner/internal/errors"
)

// Substitution pairs one matched tag with the inline script body replacing it.
type Substitution struct {
	Tag  string
	Body string
}

// DocumentRewriter substitutes matched script tags with inline script blocks
// and persists the document only when something actually changed.
type DocumentRewriter struct{}

// Apply replaces, for each substitution, the first occurrence of its tag text
// with an inline script element wrapping the body, and reports whether at
// least one substitution occurred.
//
// Matching is exact-text and first-occurrence-only: a document containing two
// byte-identical tags for the same source has exactly one of them replaced
// per pass. That single-substitution behavior is kept deliberately; a second
// pass picks up the remaining occurrence.
func (DocumentRewriter) Apply(doc string, subs []Substitution) (string, bool) {
	updated := doc
	changed := false

	for _, sub := range subs {
		replacement := "<script>" + sub.Body + "</script>"
		next := strings.Replace(updated, sub.Tag, replacement, 1)
		if next != updated {
			changed = true
			updated = next
		}
	}

	return updated, changed
}

// Persist writes the updated document back to path, but only when a
// substitution was applied. Untouched documents stay byte-identical on disk.
func (DocumentRewriter) Persist(path, updated string, changed bool) error {
	if !changed {
		return nil
	}

	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		return stageerrors.NewFileIOError("failed to write document", err).WithFile(path)
	}

	return nil
}
