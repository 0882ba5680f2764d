package report

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/maxbolgarin/relwatch/internal/model"
	"github.com/maxbolgarin/relwatch/internal/watch"
)

const dateLayout = "2006-01-02"

var sectionTitles = map[model.ChangeStatus]string{
	model.StatusAdded:    "Added Files",
	model.StatusModified: "Modified Files",
	model.StatusRemoved:  "Removed Files",
}

// Options controls report rendering
type Options struct {
	// FileAnchors links each file to its diff on the comparison page (GitHub only)
	FileAnchors bool
}

// Input is everything a report is rendered from
type Input struct {
	Repository string
	Pair       model.RevisionPair
	Comparison *model.Comparison
	Files      []model.FileChange
}

// Summary holds the per-status counts of matched files
type Summary struct {
	Added    int `json:"added"`
	Modified int `json:"modified"`
	Removed  int `json:"removed"`
	Total    int `json:"total"`
}

// Summarize counts files per status
func Summarize(files []model.FileChange) Summary {
	var s Summary
	for _, f := range files {
		switch f.Status {
		case model.StatusAdded:
			s.Added++
		case model.StatusRemoved:
			s.Removed++
		default:
			s.Modified++
		}
	}
	s.Total = len(files)
	return s
}

// Renderer renders Markdown reports
type Renderer struct {
	opts Options
}

// NewRenderer creates a new renderer
func NewRenderer(opts Options) *Renderer {
	return &Renderer{opts: opts}
}

// Render returns the Markdown report. Output depends only on the input.
func (r *Renderer) Render(in Input) string {
	var b strings.Builder
	summary := Summarize(in.Files)
	groups := watch.Group(in.Files)
	compareURL := ""
	if in.Comparison != nil {
		compareURL = in.Comparison.URL
	}

	b.WriteString("# Release Comparison Report\n\n")
	if in.Repository != "" {
		fmt.Fprintf(&b, "**Repository:** %s\n", in.Repository)
	}
	if in.Pair.Head != nil {
		fmt.Fprintf(&b, "**Release:** %s%s\n", in.Pair.Head.ID, formatDate(in.Pair.Head.Date))
	}
	if in.Pair.Base != nil {
		fmt.Fprintf(&b, "**Compared with:** %s\n", in.Pair.Base.ID)
	}

	b.WriteString("\n## Summary\n\n")
	fmt.Fprintf(&b, "- Added: %d\n", summary.Added)
	fmt.Fprintf(&b, "- Modified: %d\n", summary.Modified)
	fmt.Fprintf(&b, "- Removed: %d\n", summary.Removed)
	fmt.Fprintf(&b, "- Total: %d\n", summary.Total)

	for _, status := range model.Statuses {
		files := groups[status]
		if len(files) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n", sectionTitles[status])
		for _, f := range files {
			b.WriteString("- ")
			b.WriteString(r.fileLink(compareURL, f.Path))
			fmt.Fprintf(&b, " (%d changes: +%d/-%d)\n", f.Changes, f.Additions, f.Deletions)
		}
	}

	if compareURL != "" {
		fmt.Fprintf(&b, "\n[View full comparison](%s)\n", compareURL)
	}

	return b.String()
}

// Subject returns the notification subject line
func (r *Renderer) Subject(in Input) string {
	head := ""
	if in.Pair.Head != nil {
		head = in.Pair.Head.ID
	}
	subject := fmt.Sprintf("Release %s: %d watched files changed", head, len(in.Files))
	if in.Repository != "" {
		subject = "[" + in.Repository + "] " + subject
	}
	return subject
}

func (r *Renderer) fileLink(compareURL, path string) string {
	if compareURL == "" {
		return "`" + path + "`"
	}
	if !r.opts.FileAnchors {
		return "[`" + path + "`](" + compareURL + ")"
	}
	return "[`" + path + "`](" + compareURL + "#diff-" + FileAnchor(path) + ")"
}

// FileAnchor returns the anchor GitHub uses for a file on comparison pages
func FileAnchor(path string) string {
	sum := sha256.Sum256([]byte(path))
	return hex.EncodeToString(sum[:])
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return " (" + t.UTC().Format(dateLayout) + ")"
}
