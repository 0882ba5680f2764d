package watch

import (
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/relwatch/internal/model"
)

// Rule decides whether a changed file is relevant.
//
// A file matches when its path starts with the watched folder and its file name
// either matches one of the patterns or contains the fallback substring.
type Rule struct {
	folder   string
	patterns []*regexp.Regexp
	fallback string
}

// NewRule compiles a rule from the config
func NewRule(cfg Config) (*Rule, error) {
	if err := cfg.PrepareAndValidate(); err != nil {
		return nil, errm.Wrap(err, "validate config")
	}

	r := &Rule{
		folder:   cfg.Folder,
		fallback: cfg.FallbackSubstring,
		patterns: make([]*regexp.Regexp, 0, len(cfg.Patterns)),
	}
	for _, p := range cfg.Patterns {
		r.patterns = append(r.patterns, regexp.MustCompile(p))
	}

	return r, nil
}

// Folder returns the watched path prefix
func (r *Rule) Folder() string {
	return r.folder
}

// Match reports whether the file path is watched
func (r *Rule) Match(filePath string) bool {
	if !strings.HasPrefix(filePath, r.folder) {
		return false
	}

	name := path.Base(filePath)
	for _, p := range r.patterns {
		if p.MatchString(name) {
			return true
		}
	}

	return r.fallback != "" && strings.Contains(name, r.fallback)
}

// Filter returns the matching files, keeping their order
func (r *Rule) Filter(files []model.FileChange) []model.FileChange {
	var out []model.FileChange
	for _, f := range files {
		if r.Match(f.Path) {
			out = append(out, f)
		}
	}
	return out
}

// Group splits files by status, each group sorted by path
func Group(files []model.FileChange) map[model.ChangeStatus][]model.FileChange {
	groups := make(map[model.ChangeStatus][]model.FileChange, len(model.Statuses))
	for _, f := range files {
		groups[f.Status] = append(groups[f.Status], f)
	}
	for _, g := range groups {
		slices.SortFunc(g, func(a, b model.FileChange) int {
			return strings.Compare(a.Path, b.Path)
		})
	}
	return groups
}
