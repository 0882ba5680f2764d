package interfaces

import (
	"context"

	"github.com/maxbolgarin/relwatch/internal/model"
)

// CodeProvider defines the source control host operations used by a run (GitHub, GitLab)
type CodeProvider interface {
	// Releases
	ListReleases(ctx context.Context, projectID string, limit int) ([]*model.Revision, error)
	GetReleaseByTag(ctx context.Context, projectID, tag string) (*model.Revision, error)

	// Commits
	GetCommit(ctx context.Context, projectID, sha string) (*model.Revision, error)
	GetLatestCommit(ctx context.Context, projectID, branch string) (*model.Revision, error)

	// Compare returns every changed file between base and head in a single call
	Compare(ctx context.Context, projectID, base, head string) (*model.Comparison, error)

	// Markers
	GetMarker(ctx context.Context, projectID, key string) (bool, error)
	CreateMarker(ctx context.Context, projectID string, marker model.Marker) error
}

// Notifier delivers a rendered report to its recipients
type Notifier interface {
	Notify(ctx context.Context, msg model.Message) error
}
