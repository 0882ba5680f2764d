package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/go-github/v57/github"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/lang"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/relwatch/internal/model"
	"github.com/maxbolgarin/relwatch/internal/model/interfaces"
	"golang.org/x/oauth2"
)

var _ interfaces.CodeProvider = (*Provider)(nil)

// GitHub returns at most this many files from the compare endpoint.
const maxCompareFiles = 300

var fullSHARegexp = regexp.MustCompile(`^[0-9a-f]{40}$`)

const (
	defaultBaseURL = "https://github.com"
)

// Provider implements the CodeProvider interface for GitHub
type Provider struct {
	client *github.Client
	config model.ProviderConfig
	logger logze.Logger
}

// New creates a new GitHub provider
func New(config model.ProviderConfig) (*Provider, error) {
	if config.Token == "" {
		return nil, errm.New("GitHub token is required")
	}
	log := logze.With("provider", "github", "component", "provider")

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: config.Token},
	)
	tc := oauth2.NewClient(context.Background(), ts)

	client := github.NewClient(tc)

	// GitHub Enterprise
	if config.BaseURL != "" && config.BaseURL != defaultBaseURL {
		var err error
		client, err = github.NewClient(tc).WithEnterpriseURLs(config.BaseURL, config.BaseURL)
		if err != nil {
			return nil, errm.Wrap(err, "failed to create GitHub Enterprise client")
		}
	}

	return &Provider{
		client: client,
		config: config,
		logger: log,
	}, nil
}

// ListReleases returns the most recent releases, newest first
func (p *Provider) ListReleases(ctx context.Context, projectID string, limit int) ([]*model.Revision, error) {
	owner, repo, err := splitProjectID(projectID)
	if err != nil {
		return nil, err
	}

	opts := &github.ListOptions{PerPage: lang.Check(limit, 30)}
	releases, _, err := p.client.Repositories.ListReleases(ctx, owner, repo, opts)
	if err != nil {
		return nil, wrapError(err, "failed to list releases")
	}

	result := make([]*model.Revision, 0, len(releases))
	for _, r := range releases {
		result = append(result, convertRelease(r))
	}

	return result, nil
}

// GetReleaseByTag retrieves a published release by its tag name
func (p *Provider) GetReleaseByTag(ctx context.Context, projectID, tag string) (*model.Revision, error) {
	owner, repo, err := splitProjectID(projectID)
	if err != nil {
		return nil, err
	}

	release, _, err := p.client.Repositories.GetReleaseByTag(ctx, owner, repo, tag)
	if err != nil {
		return nil, wrapError(err, "failed to get release "+tag)
	}

	return convertRelease(release), nil
}

// GetCommit retrieves a single commit by SHA
func (p *Provider) GetCommit(ctx context.Context, projectID, sha string) (*model.Revision, error) {
	owner, repo, err := splitProjectID(projectID)
	if err != nil {
		return nil, err
	}

	commit, _, err := p.client.Repositories.GetCommit(ctx, owner, repo, sha, nil)
	if err != nil {
		return nil, wrapError(err, "failed to get commit "+sha)
	}

	rev := convertCommit(commit)
	rev.ID = sha

	return rev, nil
}

// GetLatestCommit retrieves the newest commit on a branch, or the default branch when empty
func (p *Provider) GetLatestCommit(ctx context.Context, projectID, branch string) (*model.Revision, error) {
	owner, repo, err := splitProjectID(projectID)
	if err != nil {
		return nil, err
	}

	opts := &github.CommitsListOptions{
		SHA:         lang.Check(branch, p.config.Branch),
		ListOptions: github.ListOptions{PerPage: 1},
	}
	commits, _, err := p.client.Repositories.ListCommits(ctx, owner, repo, opts)
	if err != nil {
		return nil, wrapError(err, "failed to list commits")
	}
	if len(commits) == 0 {
		return nil, errm.Wrap(model.ErrInsufficientData, "repository has no commits")
	}

	return convertCommit(commits[0]), nil
}

// Compare returns all changed files between two revisions with one API call
func (p *Provider) Compare(ctx context.Context, projectID, base, head string) (*model.Comparison, error) {
	owner, repo, err := splitProjectID(projectID)
	if err != nil {
		return nil, err
	}

	cmp, _, err := p.client.Repositories.CompareCommits(ctx, owner, repo, base, head, nil)
	if err != nil {
		return nil, wrapError(err, fmt.Sprintf("failed to compare %s...%s", base, head))
	}

	files := make([]model.FileChange, 0, len(cmp.Files))
	for _, f := range cmp.Files {
		files = append(files, model.FileChange{
			Path:      f.GetFilename(),
			Status:    model.ParseChangeStatus(f.GetStatus()),
			Changes:   f.GetChanges(),
			Additions: f.GetAdditions(),
			Deletions: f.GetDeletions(),
		})
	}

	if len(cmp.Files) >= maxCompareFiles {
		p.logger.Warn("comparison is truncated", "base", base, "head", head, "files", len(files))
	}

	p.logger.Debug("compared revisions",
		"base", base,
		"head", head,
		"files", len(files),
		"commits", cmp.GetTotalCommits(),
	)

	return &model.Comparison{
		Base:         base,
		Head:         head,
		URL:          cmp.GetHTMLURL(),
		TotalCommits: cmp.GetTotalCommits(),
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

// CreateMarker creates a prerelease tagged with the marker key.
// Being a prerelease keeps it out of latest-release selection.
// A target that is a tag or branch name is resolved to its commit first,
// since target_commitish only accepts a branch or a commit SHA.
func (p *Provider) CreateMarker(ctx context.Context, projectID string, marker model.Marker) error {
	owner, repo, err := splitProjectID(projectID)
	if err != nil {
		return err
	}

	if marker.Target != "" && !fullSHARegexp.MatchString(marker.Target) {
		sha, _, err := p.client.Repositories.GetCommitSHA1(ctx, owner, repo, marker.Target, "")
		if err != nil {
			return wrapError(err, "failed to resolve marker target "+marker.Target)
		}
		marker.Target = strings.TrimSpace(sha)
	}

	release := &github.RepositoryRelease{
		TagName:    github.String(marker.Key),
		Name:       github.String(lang.Check(marker.Name, marker.Key)),
		Body:       github.String(marker.Body),
		Prerelease: github.Bool(true),
		MakeLatest: github.String("false"),
	}
	if marker.Target != "" {
		release.TargetCommitish = github.String(marker.Target)
	}

	if _, _, err := p.client.Repositories.CreateRelease(ctx, owner, repo, release); err != nil {
		return wrapError(err, "failed to create marker release")
	}

	return nil
}

func convertRelease(r *github.RepositoryRelease) *model.Revision {
	date := r.GetPublishedAt().Time
	if date.IsZero() {
		date = r.GetCreatedAt().Time
	}
	return &model.Revision{
		ID:         r.GetTagName(),
		Name:       r.GetName(),
		URL:        r.GetHTMLURL(),
		Date:       date,
		Prerelease: r.GetPrerelease(),
		Draft:      r.GetDraft(),
	}
}

func convertCommit(c *github.RepositoryCommit) *model.Revision {
	rev := &model.Revision{
		ID:  c.GetSHA(),
		SHA: c.GetSHA(),
		URL: c.GetHTMLURL(),
	}
	if c.Commit != nil {
		rev.Name, _, _ = strings.Cut(c.Commit.GetMessage(), "\n")
		rev.Date = c.Commit.GetCommitter().GetDate().Time
	}
	if len(c.Parents) > 0 {
		rev.Parent = c.Parents[0].GetSHA()
	}
	return rev
}

func splitProjectID(projectID string) (string, string, error) {
	parts := strings.Split(projectID, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errm.New("invalid GitHub project ID format, expected 'owner/repo'")
	}
	return parts[0], parts[1], nil
}

// wrapError maps GitHub API failures to model errors
func wrapError(err error, msg string) error {
	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return errm.Wrap(model.ErrAuthentication, msg+": "+respErr.Message)
		case http.StatusNotFound:
			return errm.Wrap(model.ErrNotFound, msg)
		}
	}
	return errm.Wrap(err, msg)
}
