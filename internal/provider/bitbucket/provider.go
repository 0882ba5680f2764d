package bitbucket

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/maxbolgarin/cliex"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/lang"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/relwatch/internal/model"
	"github.com/maxbolgarin/relwatch/internal/model/interfaces"
)

var _ interfaces.CodeProvider = (*Provider)(nil)

var fullSHARegexp = regexp.MustCompile(`^[0-9a-f]{40}$`)

const (
	defaultBaseURL = "https://api.bitbucket.org/2.0"
	defaultWebURL  = "https://bitbucket.org"

	// diffstat page size limit
	maxDiffStatPage = 500
	maxTagsPage     = 100
)

// Provider implements the CodeProvider interface for Bitbucket Cloud.
// Bitbucket has no releases, so tags stand in for them and markers are plain tags.
type Provider struct {
	config model.ProviderConfig
	logger logze.Logger
	client *cliex.HTTP
}

// New creates a new Bitbucket provider
func New(config model.ProviderConfig) (*Provider, error) {
	if config.Token == "" {
		return nil, errm.New("Bitbucket token is required")
	}
	log := logze.With("provider", "bitbucket", "component", "provider")

	baseURL := strings.TrimSuffix(lang.Check(config.BaseURL, defaultBaseURL), "/")

	cli, err := cliex.New(cliex.WithBaseURL(baseURL), cliex.WithLogger(log))
	if err != nil {
		return nil, errm.Wrap(err, "failed to create Bitbucket client")
	}
	cli.C().SetAuthToken(config.Token)

	return &Provider{
		client: cli,
		config: config,
		logger: log,
	}, nil
}

// ListReleases returns the most recent tags, newest first
func (p *Provider) ListReleases(ctx context.Context, projectID string, limit int) ([]*model.Revision, error) {
	workspace, repoSlug, err := splitProjectID(projectID)
	if err != nil {
		return nil, err
	}

	apiURL := fmt.Sprintf("repositories/%s/%s/refs/tags?sort=-target.date&pagelen=%d",
		workspace, repoSlug, min(lang.Check(limit, maxTagsPage), maxTagsPage))

	var response bitbucketRefs
	resp, err := p.client.Get(ctx, apiURL, &response)
	if err := checkResponse(resp, err, "failed to list tags"); err != nil {
		return nil, err
	}

	out := make([]*model.Revision, 0, len(response.Values))
	for _, ref := range response.Values {
		out = append(out, convertTag(ref))
	}

	return out, nil
}

// GetReleaseByTag retrieves a tag by name
func (p *Provider) GetReleaseByTag(ctx context.Context, projectID, tag string) (*model.Revision, error) {
	workspace, repoSlug, err := splitProjectID(projectID)
	if err != nil {
		return nil, err
	}

	apiURL := fmt.Sprintf("repositories/%s/%s/refs/tags/%s", workspace, repoSlug, url.PathEscape(tag))

	var ref bitbucketRef
	resp, err := p.client.Get(ctx, apiURL, &ref)
	if err := checkResponse(resp, err, "failed to get tag "+tag); err != nil {
		return nil, err
	}

	return convertTag(ref), nil
}

// GetCommit retrieves a commit by SHA
func (p *Provider) GetCommit(ctx context.Context, projectID, sha string) (*model.Revision, error) {
	workspace, repoSlug, err := splitProjectID(projectID)
	if err != nil {
		return nil, err
	}

	apiURL := fmt.Sprintf("repositories/%s/%s/commit/%s", workspace, repoSlug, url.PathEscape(sha))

	var commit bitbucketCommit
	resp, err := p.client.Get(ctx, apiURL, &commit)
	if err := checkResponse(resp, err, "failed to get commit "+sha); err != nil {
		return nil, err
	}

	rev := convertCommit(commit)
	rev.ID = sha

	return rev, nil
}

// GetLatestCommit retrieves the head commit of a branch, or of the main branch when empty
func (p *Provider) GetLatestCommit(ctx context.Context, projectID, branch string) (*model.Revision, error) {
	workspace, repoSlug, err := splitProjectID(projectID)
	if err != nil {
		return nil, err
	}

	branch = lang.Check(branch, p.config.Branch)
	if branch == "" {
		var repo bitbucketRepository
		resp, err := p.client.Get(ctx, fmt.Sprintf("repositories/%s/%s", workspace, repoSlug), &repo)
		if err := checkResponse(resp, err, "failed to get repository"); err != nil {
			return nil, err
		}
		branch = repo.MainBranch.Name
		if branch == "" {
			return nil, errm.Wrap(model.ErrInsufficientData, "repository has no main branch")
		}
	}

	apiURL := fmt.Sprintf("repositories/%s/%s/refs/branches/%s", workspace, repoSlug, url.PathEscape(branch))

	var ref bitbucketRef
	resp, err := p.client.Get(ctx, apiURL, &ref)
	if err := checkResponse(resp, err, "failed to get branch "+branch); err != nil {
		return nil, err
	}
	if ref.Target.Hash == "" {
		return nil, errm.Wrap(model.ErrInsufficientData, "branch has no commits")
	}

	return convertCommit(ref.Target), nil
}

// Compare returns the changed files between two revisions with one diffstat call
func (p *Provider) Compare(ctx context.Context, projectID, base, head string) (*model.Comparison, error) {
	workspace, repoSlug, err := splitProjectID(projectID)
	if err != nil {
		return nil, err
	}

	// Bitbucket ranges are "<new>..<old>"
	revRange := url.PathEscape(head) + ".." + url.PathEscape(base)
	apiURL := fmt.Sprintf("repositories/%s/%s/diffstat/%s?pagelen=%d", workspace, repoSlug, revRange, maxDiffStatPage)

	var stats bitbucketDiffStats
	resp, err := p.client.Get(ctx, apiURL, &stats)
	if err := checkResponse(resp, err, fmt.Sprintf("failed to compare %s...%s", base, head)); err != nil {
		return nil, err
	}
	if stats.Next != "" {
		p.logger.Warn("diffstat is truncated", "base", base, "head", head, "files", len(stats.Values))
	}

	files := make([]model.FileChange, 0, len(stats.Values))
	for _, s := range stats.Values {
		files = append(files, convertDiffStat(s))
	}

	p.logger.Debug("compared revisions", "base", base, "head", head, "files", len(files))

	return &model.Comparison{
		Base:  base,
		Head:  head,
		URL:   fmt.Sprintf("%s/%s/%s/branches/compare/%s%%0D%s", defaultWebURL, workspace, repoSlug, url.PathEscape(head), url.PathEscape(base)),
		Files: files,
	}, nil
}

// GetMarker reports whether a marker tag exists
func (p *Provider) GetMarker(ctx context.Context, projectID, key string) (bool, error) {
	_, err := p.GetReleaseByTag(ctx, projectID, key)
	switch {
	case err == nil:
		return true, nil
	case errm.Is(err, model.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// CreateMarker creates a tag named after the marker key.
// A named target is resolved to its commit; without a target the tag points at
// the head of the configured branch.
func (p *Provider) CreateMarker(ctx context.Context, projectID string, marker model.Marker) error {
	workspace, repoSlug, err := splitProjectID(projectID)
	if err != nil {
		return err
	}

	target := marker.Target
	switch {
	case target == "":
		latest, err := p.GetLatestCommit(ctx, projectID, "")
		if err != nil {
			return errm.Wrap(err, "failed to resolve marker target")
		}
		target = latest.SHA

	case !fullSHARegexp.MatchString(target):
		commit, err := p.GetCommit(ctx, projectID, target)
		if err != nil {
			return errm.Wrap(err, "failed to resolve marker target")
		}
		target = commit.SHA
	}

	tag := bitbucketCreateTag{
		Name:    marker.Key,
		Message: marker.Body,
	}
	tag.Target.Hash = target

	resp, err := p.client.Post(ctx, fmt.Sprintf("repositories/%s/%s/refs/tags", workspace, repoSlug), tag)
	if err := checkResponse(resp, err, "failed to create marker tag"); err != nil {
		return err
	}

	return nil
}

func convertTag(ref bitbucketRef) *model.Revision {
	rev := &model.Revision{
		ID:   ref.Name,
		SHA:  ref.Target.Hash,
		Name: ref.Name,
		URL:  lang.Check(ref.Links.HTML.Href, ref.Target.Links.HTML.Href),
		Date: parseTime(lang.Check(ref.Date, ref.Target.Date)),
	}
	return rev
}

func convertCommit(c bitbucketCommit) *model.Revision {
	rev := &model.Revision{
		ID:   c.Hash,
		SHA:  c.Hash,
		URL:  c.Links.HTML.Href,
		Date: parseTime(c.Date),
	}
	rev.Name, _, _ = strings.Cut(c.Message, "\n")
	if len(c.Parents) > 0 {
		rev.Parent = c.Parents[0].Hash
	}
	return rev
}

func convertDiffStat(s bitbucketDiffStat) model.FileChange {
	change := model.FileChange{
		Status:    model.ParseChangeStatus(s.Status),
		Additions: s.LinesAdded,
		Deletions: s.LinesRemoved,
		Changes:   s.LinesAdded + s.LinesRemoved,
	}
	switch {
	case s.New != nil:
		change.Path = s.New.Path
	case s.Old != nil:
		change.Path = s.Old.Path
	}
	return change
}

func parseTime(value string) time.Time {
	t, _ := time.Parse(time.RFC3339, value)
	return t
}

func splitProjectID(projectID string) (string, string, error) {
	parts := strings.Split(projectID, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errm.New("invalid Bitbucket project ID format, expected 'workspace/repo_slug'")
	}
	return parts[0], parts[1], nil
}

// checkResponse maps Bitbucket API failures to model errors.
// cliex turns 4xx and 5xx replies into errors and returns no response for them.
func checkResponse(resp *resty.Response, err error, msg string) error {
	if err == nil && resp != nil && resp.IsError() {
		err = errm.Errorf("Bitbucket API returned status %d", resp.StatusCode())
	}
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, cliex.ErrUnauthorized), errors.Is(err, cliex.ErrForbidden):
		return errm.Wrap(model.ErrAuthentication, msg+": "+err.Error())
	case errors.Is(err, cliex.ErrNotFound):
		return errm.Wrap(model.ErrNotFound, msg)
	}

	return errm.Wrap(err, msg)
}
