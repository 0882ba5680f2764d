package report

import (
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/relwatch/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Document is the machine-readable companion of a rendered report
type Document struct {
	Repository string             `json:"repository"`
	Base       string             `json:"base"`
	Head       string             `json:"head"`
	CompareURL string             `json:"compare_url,omitempty"`
	Summary    Summary            `json:"summary"`
	Files      []model.FileChange `json:"files"`
}

// NewDocument builds the JSON document for a report input
func NewDocument(in Input) Document {
	doc := Document{
		Repository: in.Repository,
		Summary:    Summarize(in.Files),
		Files:      in.Files,
	}
	if in.Pair.Base != nil {
		doc.Base = in.Pair.Base.ID
	}
	if in.Pair.Head != nil {
		doc.Head = in.Pair.Head.ID
	}
	if in.Comparison != nil {
		doc.CompareURL = in.Comparison.URL
	}
	if doc.Files == nil {
		doc.Files = []model.FileChange{}
	}
	return doc
}

// Store persists rendered reports to a directory
type Store struct {
	dir string
}

// NewStore creates a report store; an empty dir disables persistence
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Enabled reports whether reports are written to disk
func (s *Store) Enabled() bool {
	return s.dir != ""
}

// Save writes the Markdown report and its JSON document, returning the Markdown path
func (s *Store) Save(in Input, markdown string) (string, error) {
	if !s.Enabled() {
		return "", nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", errm.Wrap(err, "failed to create report directory")
	}

	head := "unknown"
	if in.Pair.Head != nil {
		head = in.Pair.Head.ID
	}
	base := filepath.Join(s.dir, "report-"+sanitize(head))

	mdPath := base + ".md"
	if err := os.WriteFile(mdPath, []byte(markdown), 0o644); err != nil {
		return "", errm.Wrap(err, "failed to write report")
	}

	data, err := json.MarshalIndent(NewDocument(in), "", "  ")
	if err != nil {
		return "", errm.Wrap(err, "failed to marshal report document")
	}
	if err := os.WriteFile(base+".json", data, 0o644); err != nil {
		return "", errm.Wrap(err, "failed to write report document")
	}

	return mdPath, nil
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
