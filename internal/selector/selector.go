package selector

import (
	"context"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/lang"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/relwatch/internal/model"
	"github.com/maxbolgarin/relwatch/internal/model/interfaces"
)

var commitSHARegexp = regexp.MustCompile(`^[0-9a-f]{7,40}$`)

// Selector resolves the pair of revisions a run compares
type Selector struct {
	provider  interfaces.CodeProvider
	projectID string

	cfg Config
	log logze.Logger
}

// New creates a new release selector
func New(cfg Config, provider interfaces.CodeProvider, projectID string) (*Selector, error) {
	if err := cfg.PrepareAndValidate(); err != nil {
		return nil, errm.Wrap(err, "validate config")
	}
	return &Selector{
		provider:  provider,
		projectID: projectID,
		cfg:       cfg,
		log:       logze.With("component", "selector", "mode", cfg.Mode),
	}, nil
}

// Mode returns the configured selection mode
func (s *Selector) Mode() Mode {
	return s.cfg.Mode
}

// Select returns the base and head revisions, oldest first
func (s *Selector) Select(ctx context.Context) (model.RevisionPair, error) {
	var (
		pair model.RevisionPair
		err  error
	)
	switch s.cfg.Mode {
	case ModeExplicit:
		pair, err = s.selectExplicit(ctx)
	case ModeCommit:
		pair, err = s.selectCommit(ctx)
	default:
		pair, err = s.selectLatest(ctx)
	}
	if err != nil {
		return model.RevisionPair{}, err
	}

	if err := pair.Validate(); err != nil {
		return model.RevisionPair{}, errm.Wrap(err, "invalid revision pair "+pair.String())
	}

	s.log.Debug("selected revisions", "base", pair.Base.ID, "head", pair.Head.ID)

	return pair, nil
}

type versionedRelease struct {
	rev     *model.Revision
	version *semver.Version
}

func (s *Selector) selectLatest(ctx context.Context) (model.RevisionPair, error) {
	releases, err := s.provider.ListReleases(ctx, s.projectID, s.cfg.ReleaseLimit)
	if err != nil {
		return model.RevisionPair{}, errm.Wrap(err, "failed to list releases")
	}

	stable := LatestStable(releases, s.log)
	if len(stable) < 2 {
		return model.RevisionPair{}, errm.Wrap(model.ErrInsufficientData,
			"found "+strconv.Itoa(len(stable))+" stable releases, need at least 2")
	}

	return model.RevisionPair{Base: stable[1], Head: stable[0]}, nil
}

// LatestStable drops drafts, prereleases and non-semver tags and sorts the rest
// by semantic version, newest first
func LatestStable(releases []*model.Revision, log logze.Logger) []*model.Revision {
	candidates := make([]versionedRelease, 0, len(releases))
	for _, r := range releases {
		if r == nil || r.Draft || r.Prerelease {
			continue
		}
		v, err := semver.NewVersion(r.ID)
		if err != nil {
			log.Debug("skipping non-semver tag", "tag", r.ID)
			continue
		}
		if v.Prerelease() != "" {
			continue
		}
		candidates = append(candidates, versionedRelease{rev: r, version: v})
	}

	slices.SortStableFunc(candidates, func(a, b versionedRelease) int {
		return b.version.Compare(a.version)
	})

	out := make([]*model.Revision, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.rev)
	}
	return out
}

func (s *Selector) selectExplicit(ctx context.Context) (model.RevisionPair, error) {
	base, err := s.resolve(ctx, s.cfg.Base)
	if err != nil {
		return model.RevisionPair{}, errm.Wrap(err, "failed to resolve base")
	}
	head, err := s.resolve(ctx, s.cfg.Head)
	if err != nil {
		return model.RevisionPair{}, errm.Wrap(err, "failed to resolve head")
	}
	return model.RevisionPair{Base: base, Head: head}, nil
}

// resolve looks a name up as a commit SHA (when it looks like one), then as a
// prefixed tag, then as a bare tag
func (s *Selector) resolve(ctx context.Context, name string) (*model.Revision, error) {
	name = strings.TrimSpace(name)

	if commitSHARegexp.MatchString(name) {
		rev, err := s.provider.GetCommit(ctx, s.projectID, name)
		switch {
		case err == nil:
			return rev, nil
		case !errm.Is(err, model.ErrNotFound):
			return nil, err
		}
	}

	for i, tag := range TagCandidates(name, s.cfg.VersionPrefix) {
		rev, err := s.provider.GetReleaseByTag(ctx, s.projectID, tag)
		if err == nil {
			return rev, nil
		}
		if !errm.Is(err, model.ErrNotFound) {
			return nil, err
		}
		s.log.DebugIf(i == 0, "tag not found, retrying without prefix", "tag", tag)
	}

	return nil, errm.Wrap(model.ErrNotFound, "revision "+name+" does not exist")
}

// TagCandidates returns the tag names tried for a version, prefixed form first
func TagCandidates(name, prefix string) []string {
	bare := strings.TrimPrefix(name, prefix)
	if prefix == "" || bare == "" {
		return []string{name}
	}
	return []string{prefix + bare, bare}
}

func (s *Selector) selectCommit(ctx context.Context) (model.RevisionPair, error) {
	head, err := s.provider.GetLatestCommit(ctx, s.projectID, s.cfg.Branch)
	if err != nil {
		return model.RevisionPair{}, errm.Wrap(err, "failed to get latest commit")
	}
	if head.Parent == "" {
		return model.RevisionPair{}, errm.Wrap(model.ErrInsufficientData, "latest commit has no parent")
	}

	base := &model.Revision{
		ID:  head.Parent,
		SHA: head.Parent,
	}
	s.log.Debug("comparing latest commit with its parent", "commit", lang.TruncateString(head.SHA, 8))

	return model.RevisionPair{Base: base, Head: head}, nil
}
