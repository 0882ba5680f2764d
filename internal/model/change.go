package model

// ChangeStatus is the status of a file between two revisions
type ChangeStatus string

const (
	StatusAdded    ChangeStatus = "added"
	StatusModified ChangeStatus = "modified"
	StatusRemoved  ChangeStatus = "removed"
)

// Statuses lists the change statuses in report order
var Statuses = []ChangeStatus{StatusAdded, StatusModified, StatusRemoved}

// ParseChangeStatus maps a host status to one of the three report statuses.
// Renames, copies and mode changes are reported as modifications.
func ParseChangeStatus(s string) ChangeStatus {
	switch s {
	case "added", "new":
		return StatusAdded
	case "removed", "deleted":
		return StatusRemoved
	default:
		return StatusModified
	}
}

// FileChange represents a single changed file in a comparison
type FileChange struct {
	Path      string       `json:"path"`
	Status    ChangeStatus `json:"status"`
	Changes   int          `json:"changes"`
	Additions int          `json:"additions"`
	Deletions int          `json:"deletions"`
}

// Comparison is the result of comparing two revisions
type Comparison struct {
	Base         string
	Head         string
	URL          string
	TotalCommits int
	Files        []FileChange
}

// Marker is an idempotency record stored on the host, keyed by the head revision
type Marker struct {
	Key    string // Tag name of the marker release
	Name   string
	Body   string
	Target string // Commit the marker tag points to
}
