package model

import (
	"time"
)

// ProviderConfig represents provider-specific configuration
type ProviderConfig struct {
	BaseURL string
	Token   string
	Branch  string
}

// Revision represents a tag, release or commit in the monitored repository
type Revision struct {
	ID         string // Tag name or commit SHA the revision was resolved by
	SHA        string
	Name       string
	URL        string
	Date       time.Time
	Prerelease bool
	Draft      bool
	Parent     string // First parent SHA, filled for commits only
}

// RevisionPair is an ordered pair of revisions, oldest first
type RevisionPair struct {
	Base *Revision
	Head *Revision
}

// Validate checks that both revisions are set and differ
func (p RevisionPair) Validate() error {
	if p.Base == nil || p.Head == nil {
		return ErrInsufficientData
	}
	if p.Base.ID == p.Head.ID {
		return ErrSameRevision
	}
	return nil
}

func (p RevisionPair) String() string {
	if p.Base == nil || p.Head == nil {
		return "<incomplete>"
	}
	return p.Base.ID + "..." + p.Head.ID
}
