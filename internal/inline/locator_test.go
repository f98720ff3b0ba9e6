package inline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/inliner/internal/config"
)

func newTestLocator(t *testing.T) *Locator {
	t.Helper()
	locator, err := NewLocator(config.DefaultPattern)
	require.NoError(t, err)

	return locator
}

func TestReferencesExtractsTagAndSource(t *testing.T) {
	locator := newTestLocator(t)

	doc := `<html><head>
<script src="./app.js" inline></script>
<script src="https://cdn.example.com/lib.js"></script>
</head></html>`

	refs := locator.References(doc)
	require.Len(t, refs, 2)

	assert.Equal(t, `<script src="./app.js" inline></script>`, refs[0].Tag)
	assert.Equal(t, "./app.js", refs[0].Source)
	assert.Equal(t, "https://cdn.example.com/lib.js", refs[1].Source)
}

func TestReferencesIsRestartable(t *testing.T) {
	locator := newTestLocator(t)
	doc := `<script src="a.js"></script>`

	first := locator.References(doc)
	second := locator.References(doc)
	assert.Equal(t, first, second)
}

func TestReferencesIgnoresInlineScriptBlocks(t *testing.T) {
	locator := newTestLocator(t)
	doc := `<script>console.log("already inline");</script>`

	assert.Empty(t, locator.References(doc))
}

func TestReferencesIgnoresTagsWithBodies(t *testing.T) {
	locator := newTestLocator(t)
	doc := `<script src="a.js">fallback();</script>`

	assert.Empty(t, locator.References(doc))
}

func TestNewLocatorRejectsInvalidPattern(t *testing.T) {
	_, err := NewLocator("[unclosed")
	assert.Error(t, err)
}

func TestNewLocatorRequiresCaptureGroup(t *testing.T) {
	_, err := NewLocator(`<script src="[^"]+"></script>`)
	assert.Error(t, err)
}

func TestReferencesIgnoreSrcLookalikeAttributes(t *testing.T) {
	locator := newTestLocator(t)

	doc := `<script data-src="lazy.js"></script>
<script type="module" src="app.js"></script>`

	refs := locator.References(doc)
	require.Len(t, refs, 1)
	assert.Equal(t, "app.js", refs[0].Source)
}

func TestCustomPatternWidensMatching(t *testing.T) {
	locator, err := NewLocator(`<script data-src="([^"]+)"></script>`)
	require.NoError(t, err)

	refs := locator.References(`<script data-src="bundle.js"></script>`)
	require.Len(t, refs, 1)
	assert.Equal(t, "bundle.js", refs[0].Source)
}

func TestIsExternal(t *testing.T) {
	tests := []struct {
		source   string
		external bool
	}{
		{"https://cdn.example.com/lib.js", true},
		{"http://example.com/lib.js", true},
		{"//cdn.example.com/lib.js", true},
		{"data:text/javascript,alert(1)", true},
		{"./app.js", false},
		{"app.js", false},
		{"/assets/app.js", false},
		{"../shared/app.js", false},
	}

	for _, tt := range tests {
		ref := ScriptRef{Source: tt.source}
		assert.Equal(t, tt.external, ref.IsExternal(), "source %q", tt.source)
	}
}

func TestHasMarker(t *testing.T) {
	tests := []struct {
		name   string
		tag    string
		marker string
		want   bool
	}{
		{"bare attribute", `<script src="a.js" inline></script>`, "inline", true},
		{"marker before src", `<script inline src="a.js"></script>`, "inline", true},
		{"absent", `<script src="a.js"></script>`, "inline", false},
		{"marker inside src value does not count", `<script src="inline.js"></script>`, "inline", false},
		{"marker as src path segment does not count", `<script src="js/inline/app.js"></script>`, "inline", false},
		{"marker attribute alongside marker-named path", `<script src="js/inline/app.js" inline></script>`, "inline", true},
		{"custom marker", `<script src="a.js" data-embed></script>`, "data-embed", true},
		{"empty marker never matches", `<script src="a.js" inline></script>`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := ScriptRef{Tag: tt.tag}
			assert.Equal(t, tt.want, ref.HasMarker(tt.marker))
		})
	}
}
