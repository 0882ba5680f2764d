package watch

import (
	"path"
	"strings"
	"testing"

	"github.com/maxbolgarin/relwatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRule(t *testing.T, cfg Config) *Rule {
	t.Helper()
	r, err := NewRule(cfg)
	require.NoError(t, err)
	return r
}

func TestRuleMatch(t *testing.T) {
	r := newTestRule(t, Config{Folder: "/packages/block-library/src/"})

	cases := []struct {
		path string
		want bool
	}{
		{"packages/block-library/src/button/view.js", true},
		{"packages/block-library/src/button/view.mjs", true},
		{"packages/block-library/src/button/block.json", true},
		{"packages/block-library/src/button/style.scss", true},
		{"packages/block-library/src/button/editor.css", true},
		{"packages/block-library/src/button/index.js", false},
		{"packages/block-library/src/navigation/interactivity-view-helpers.ts", true},
		{"packages/block-library/src/view/index.js", false},
		{"packages/components/src/button/style.scss", false},
		{"docs/view.js", false},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, r.Match(c.path), c.path)
	}
}

func TestRuleMatchDisableFallback(t *testing.T) {
	r := newTestRule(t, Config{Folder: "src/", DisableFallback: true})

	assert.True(t, r.Match("src/a/view.js"))
	assert.False(t, r.Match("src/a/preview-helper.ts"))
}

func TestRuleMatchIsPrefixAndNameOrFallback(t *testing.T) {
	r := newTestRule(t, Config{Folder: "src/", Patterns: []string{`^block\.json$`}})

	paths := []string{"src/x/block.json", "src/x/overview.go", "src/x/main.go", "lib/view.go", "lib/block.json"}
	for _, p := range paths {
		inFolder := strings.HasPrefix(p, "src/")
		name := path.Base(p)
		want := (inFolder && name == "block.json") || (inFolder && strings.Contains(name, "view"))
		assert.Equal(t, want, r.Match(p), p)
	}
}

func TestFilterIdempotent(t *testing.T) {
	r := newTestRule(t, Config{Folder: "src/"})

	files := []model.FileChange{
		{Path: "src/a/view.js", Status: model.StatusModified},
		{Path: "src/a/index.js", Status: model.StatusModified},
		{Path: "src/b/style.css", Status: model.StatusAdded},
		{Path: "test/view.js", Status: model.StatusRemoved},
		{Path: "src/c/block.json", Status: model.StatusRemoved},
	}

	once := r.Filter(files)
	twice := r.Filter(once)

	require.Len(t, once, 3)
	assert.Equal(t, once, twice)
	assert.Equal(t, "src/a/view.js", once[0].Path)
	assert.Equal(t, "src/b/style.css", once[1].Path)
	assert.Equal(t, "src/c/block.json", once[2].Path)
}

func TestFilterEmpty(t *testing.T) {
	r := newTestRule(t, Config{Folder: "src/"})
	assert.Empty(t, r.Filter(nil))
	assert.Empty(t, r.Filter([]model.FileChange{{Path: "README.md"}}))
}

func TestGroup(t *testing.T) {
	groups := Group([]model.FileChange{
		{Path: "src/z.css", Status: model.StatusAdded},
		{Path: "src/a.css", Status: model.StatusAdded},
		{Path: "src/m.css", Status: model.StatusRemoved},
	})

	require.Len(t, groups[model.StatusAdded], 2)
	assert.Equal(t, "src/a.css", groups[model.StatusAdded][0].Path)
	assert.Equal(t, "src/z.css", groups[model.StatusAdded][1].Path)
	assert.Empty(t, groups[model.StatusModified])
	assert.Len(t, groups[model.StatusRemoved], 1)
}

func TestNewRuleInvalidPattern(t *testing.T) {
	_, err := NewRule(Config{Patterns: []string{"("}})
	assert.Error(t, err)
}
