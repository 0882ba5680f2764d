// Package memory provides an in-memory source control host used in tests.
package memory

import (
	"context"
	"sync"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/relwatch/internal/model"
	"github.com/maxbolgarin/relwatch/internal/model/interfaces"
)

var _ interfaces.CodeProvider = (*Provider)(nil)

// Provider keeps releases, commits, comparisons and markers in memory
type Provider struct {
	mu sync.Mutex

	Releases    []*model.Revision
	Commits     map[string]*model.Revision
	Latest      *model.Revision
	Comparisons map[string]*model.Comparison
	Markers     map[string]model.Marker

	// Err, when set, is returned by every call
	Err error

	CompareCalls      int
	CreateMarkerCalls int
	Lookups           []string
}

// New creates an empty provider
func New() *Provider {
	return &Provider{
		Commits:     make(map[string]*model.Revision),
		Comparisons: make(map[string]*model.Comparison),
		Markers:     make(map[string]model.Marker),
	}
}

// AddComparison registers the result of comparing base with head
func (p *Provider) AddComparison(cmp *model.Comparison) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Comparisons[cmp.Base+"..."+cmp.Head] = cmp
}

func (p *Provider) ListReleases(ctx context.Context, projectID string, limit int) ([]*model.Revision, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	if limit > 0 && len(p.Releases) > limit {
		return p.Releases[:limit], nil
	}
	return p.Releases, nil
}

func (p *Provider) GetReleaseByTag(ctx context.Context, projectID, tag string) (*model.Revision, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Lookups = append(p.Lookups, tag)
	if p.Err != nil {
		return nil, p.Err
	}
	for _, r := range p.Releases {
		if r.ID == tag {
			return r, nil
		}
	}
	return nil, errm.Wrap(model.ErrNotFound, "release "+tag)
}

func (p *Provider) GetCommit(ctx context.Context, projectID, sha string) (*model.Revision, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	if c, ok := p.Commits[sha]; ok {
		return c, nil
	}
	return nil, errm.Wrap(model.ErrNotFound, "commit "+sha)
}

func (p *Provider) GetLatestCommit(ctx context.Context, projectID, branch string) (*model.Revision, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	if p.Latest == nil {
		return nil, errm.Wrap(model.ErrInsufficientData, "no commits")
	}
	return p.Latest, nil
}

func (p *Provider) Compare(ctx context.Context, projectID, base, head string) (*model.Comparison, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CompareCalls++
	if p.Err != nil {
		return nil, p.Err
	}
	if cmp, ok := p.Comparisons[base+"..."+head]; ok {
		return cmp, nil
	}
	return nil, errm.Wrap(model.ErrNotFound, "comparison "+base+"..."+head)
}

func (p *Provider) GetMarker(ctx context.Context, projectID, key string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return false, p.Err
	}
	_, ok := p.Markers[key]
	return ok, nil
}

func (p *Provider) CreateMarker(ctx context.Context, projectID string, marker model.Marker) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CreateMarkerCalls++
	if p.Err != nil {
		return p.Err
	}
	if _, ok := p.Markers[marker.Key]; ok {
		return errm.Errorf("marker %s already exists", marker.Key)
	}
	p.Markers[marker.Key] = marker
	return nil
}
