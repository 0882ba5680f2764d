package gitlab

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/lang"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/relwatch/internal/model"
	"github.com/maxbolgarin/relwatch/internal/model/interfaces"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

const (
	defaultBaseURL = "https://gitlab.com"
)

var _ interfaces.CodeProvider = (*Provider)(nil)

// Provider implements the CodeProvider interface for GitLab
type Provider struct {
	client  *gitlab.Client
	config  model.ProviderConfig
	logger  logze.Logger
	baseURL string
}

// New creates a new GitLab provider
func New(config model.ProviderConfig) (*Provider, error) {
	if config.Token == "" {
		return nil, errm.New("GitLab token is required")
	}
	logger := logze.With("provider", "gitlab", "component", "provider")

	baseURL := strings.TrimSuffix(lang.Check(config.BaseURL, defaultBaseURL), "/")

	client, err := gitlab.NewClient(config.Token, gitlab.WithBaseURL(baseURL))
	if err != nil {
		return nil, errm.Wrap(err, "failed to create GitLab client")
	}

	return &Provider{
		client:  client,
		config:  config,
		logger:  logger,
		baseURL: baseURL,
	}, nil
}

// ListReleases returns the most recent releases, newest first
func (p *Provider) ListReleases(ctx context.Context, projectID string, limit int) ([]*model.Revision, error) {
	opts := &gitlab.ListReleasesOptions{
		ListOptions: gitlab.ListOptions{
			PerPage: lang.Check(limit, 30),
		},
		OrderBy: gitlab.Ptr("released_at"),
		Sort:    gitlab.Ptr("desc"),
	}

	releases, resp, err := p.client.Releases.ListReleases(projectID, opts, gitlab.WithContext(ctx))
	if err != nil {
		return nil, wrapError(resp, err, "failed to list releases")
	}

	result := make([]*model.Revision, 0, len(releases))
	for _, r := range releases {
		result = append(result, p.convertRelease(projectID, r))
	}

	return result, nil
}

// GetReleaseByTag retrieves a release by its tag name
func (p *Provider) GetReleaseByTag(ctx context.Context, projectID, tag string) (*model.Revision, error) {
	release, resp, err := p.client.Releases.GetRelease(projectID, tag, gitlab.WithContext(ctx))
	if err != nil {
		return nil, wrapError(resp, err, "failed to get release "+tag)
	}
	return p.convertRelease(projectID, release), nil
}

// GetCommit retrieves a single commit by SHA
func (p *Provider) GetCommit(ctx context.Context, projectID, sha string) (*model.Revision, error) {
	commit, resp, err := p.client.Commits.GetCommit(projectID, sha, nil, gitlab.WithContext(ctx))
	if err != nil {
		return nil, wrapError(resp, err, "failed to get commit "+sha)
	}

	rev := convertCommit(commit)
	rev.ID = sha

	return rev, nil
}

// GetLatestCommit retrieves the newest commit on a branch, or the default branch when empty
func (p *Provider) GetLatestCommit(ctx context.Context, projectID, branch string) (*model.Revision, error) {
	opts := &gitlab.ListCommitsOptions{
		ListOptions: gitlab.ListOptions{PerPage: 1},
	}
	if ref := lang.Check(branch, p.config.Branch); ref != "" {
		opts.RefName = gitlab.Ptr(ref)
	}

	commits, resp, err := p.client.Commits.ListCommits(projectID, opts, gitlab.WithContext(ctx))
	if err != nil {
		return nil, wrapError(resp, err, "failed to list commits")
	}
	if len(commits) == 0 {
		return nil, errm.Wrap(model.ErrInsufficientData, "repository has no commits")
	}

	return convertCommit(commits[0]), nil
}

// Compare returns all changed files between two revisions with one API call
func (p *Provider) Compare(ctx context.Context, projectID, base, head string) (*model.Comparison, error) {
	opts := &gitlab.CompareOptions{
		From: gitlab.Ptr(base),
		To:   gitlab.Ptr(head),
	}

	cmp, resp, err := p.client.Repositories.Compare(projectID, opts, gitlab.WithContext(ctx))
	if err != nil {
		return nil, wrapError(resp, err, fmt.Sprintf("failed to compare %s...%s", base, head))
	}

	files := make([]model.FileChange, 0, len(cmp.Diffs))
	for _, d := range cmp.Diffs {
		files = append(files, convertDiff(d))
	}

	p.logger.Debug("compared revisions",
		"base", base,
		"head", head,
		"files", len(files),
		"commits", len(cmp.Commits),
	)

	return &model.Comparison{
		Base:         base,
		Head:         head,
		URL:          p.webURL(projectID, "compare", base+"..."+head),
		TotalCommits: len(cmp.Commits),
		Files:        files,
	}, nil
}

// GetMarker reports whether a marker release with the given tag exists
func (p *Provider) GetMarker(ctx context.Context, projectID, key string) (bool, error) {
	_, err := p.GetReleaseByTag(ctx, projectID, key)
	switch {
	case err == nil:
		return true, nil
	case errm.Is(err, model.ErrNotFound):
		return false, nil
	default:
		return false, errm.Wrap(err, "failed to check marker")
	}
}

// CreateMarker creates a release with a new tag named after the marker key
func (p *Provider) CreateMarker(ctx context.Context, projectID string, marker model.Marker) error {
	opts := &gitlab.CreateReleaseOptions{
		Name:        gitlab.Ptr(lang.Check(marker.Name, marker.Key)),
		TagName:     gitlab.Ptr(marker.Key),
		Description: gitlab.Ptr(marker.Body),
	}
	if ref := lang.Check(marker.Target, p.config.Branch); ref != "" {
		opts.Ref = gitlab.Ptr(ref)
	}

	_, resp, err := p.client.Releases.CreateRelease(projectID, opts, gitlab.WithContext(ctx))
	if err != nil {
		return wrapError(resp, err, "failed to create marker release")
	}

	return nil
}

func (p *Provider) convertRelease(projectID string, r *gitlab.Release) *model.Revision {
	rev := &model.Revision{
		ID:         r.TagName,
		SHA:        r.Commit.ID,
		Name:       r.Name,
		URL:        p.webURL(projectID, "releases", r.TagName),
		Date:       lang.Deref(r.ReleasedAt),
		Prerelease: r.UpcomingRelease,
	}
	if rev.Date.IsZero() {
		rev.Date = lang.Deref(r.CreatedAt)
	}
	return rev
}

func (p *Provider) webURL(projectID, kind, ref string) string {
	return p.baseURL + "/" + projectID + "/-/" + kind + "/" + url.PathEscape(ref)
}

func convertCommit(c *gitlab.Commit) *model.Revision {
	rev := &model.Revision{
		ID:   c.ID,
		SHA:  c.ID,
		Name: c.Title,
		URL:  c.WebURL,
		Date: lang.Deref(c.CommittedDate),
	}
	if len(c.ParentIDs) > 0 {
		rev.Parent = c.ParentIDs[0]
	}
	return rev
}

func convertDiff(d *gitlab.Diff) model.FileChange {
	status := model.StatusModified
	switch {
	case d.NewFile:
		status = model.StatusAdded
	case d.DeletedFile:
		status = model.StatusRemoved
	}

	path := d.NewPath
	if d.DeletedFile {
		path = d.OldPath
	}

	additions, deletions := countDiffLines(d.Diff)

	return model.FileChange{
		Path:      path,
		Status:    status,
		Changes:   additions + deletions,
		Additions: additions,
		Deletions: deletions,
	}
}

// countDiffLines counts added and removed lines of a unified diff body
func countDiffLines(diff string) (additions, deletions int) {
	inHunk := false
	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "@@"):
			inHunk = true
		case !inHunk && (strings.HasPrefix(line, "+++ ") || strings.HasPrefix(line, "--- ")):
		case strings.HasPrefix(line, "+"):
			additions++
		case strings.HasPrefix(line, "-"):
			deletions++
		}
	}
	return additions, deletions
}

// wrapError maps GitLab API failures to model errors
func wrapError(resp *gitlab.Response, err error, msg string) error {
	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}
	var respErr *gitlab.ErrorResponse
	if status == 0 && errors.As(err, &respErr) && respErr.Response != nil {
		status = respErr.Response.StatusCode
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errm.Wrap(model.ErrAuthentication, msg+": "+err.Error())
	case http.StatusNotFound:
		return errm.Wrap(model.ErrNotFound, msg)
	}
	return errm.Wrap(err, msg)
}
