package monitor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/relwatch/internal/model"
	"github.com/maxbolgarin/relwatch/internal/provider/memory"
	"github.com/maxbolgarin/relwatch/internal/report"
	"github.com/maxbolgarin/relwatch/internal/selector"
	"github.com/maxbolgarin/relwatch/internal/watch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	messages []model.Message
	err      error
}

func (n *recordingNotifier) Notify(ctx context.Context, msg model.Message) error {
	if n.err != nil {
		return n.err
	}
	n.messages = append(n.messages, msg)
	return nil
}

func newProvider(files ...model.FileChange) *memory.Provider {
	p := memory.New()
	p.Releases = []*model.Revision{
		{ID: "v1.2.0", SHA: "abc1234"},
		{ID: "v1.1.0"},
		{ID: "v1.0.0"},
	}
	p.AddComparison(&model.Comparison{
		Base:         "v1.1.0",
		Head:         "v1.2.0",
		URL:          "https://github.com/owner/repo/compare/v1.1.0...v1.2.0",
		TotalCommits: 3,
		Files:        files,
	})
	return p
}

func newTestMonitor(t *testing.T, cfg Config, p *memory.Provider, n *recordingNotifier, outDir string) *Monitor {
	t.Helper()

	sel, err := selector.New(selector.Config{}, p, "owner/repo")
	require.NoError(t, err)
	rule, err := watch.NewRule(watch.Config{Folder: "src/blocks"})
	require.NoError(t, err)

	m, err := New(cfg, Deps{
		Provider:  p,
		Notifier:  n,
		Selector:  sel,
		Rule:      rule,
		Renderer:  report.NewRenderer(report.Options{FileAnchors: true}),
		Store:     report.NewStore(outDir),
		ProjectID: "owner/repo",
	})
	require.NoError(t, err)
	return m
}

var watchedFiles = []model.FileChange{
	{Path: "src/blocks/hero/view.js", Status: model.StatusModified, Changes: 4, Additions: 3, Deletions: 1},
	{Path: "src/blocks/hero/style.scss", Status: model.StatusAdded, Changes: 10, Additions: 10},
	{Path: "README.md", Status: model.StatusModified, Changes: 1, Additions: 1},
}

func TestRunNotifiesAndWritesMarker(t *testing.T) {
	p := newProvider(watchedFiles...)
	n := &recordingNotifier{}
	dir := t.TempDir()

	res, err := newTestMonitor(t, Config{}, p, n, dir).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeNotified, res.Outcome)
	assert.Equal(t, 2, res.Changed)
	assert.Equal(t, report.Summary{Added: 1, Modified: 1, Total: 2}, res.Summary)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "v1.1.0", res.Pair.Base.ID)
	assert.Equal(t, "v1.2.0", res.Pair.Head.ID)
	assert.Equal(t, 1, p.CompareCalls)

	require.Len(t, n.messages, 1)
	assert.Contains(t, n.messages[0].Subject, "v1.2.0")
	assert.Contains(t, n.messages[0].Body, "src/blocks/hero/view.js")
	assert.NotContains(t, n.messages[0].Body, "README.md")

	assert.Equal(t, "relwatch-notified-v1.2.0", res.MarkerKey)
	marker, ok := p.Markers[res.MarkerKey]
	require.True(t, ok)
	assert.Equal(t, "abc1234", marker.Target)
	assert.Contains(t, marker.Body, "v1.1.0...v1.2.0")

	require.NotEmpty(t, res.ReportPath)
	data, err := os.ReadFile(res.ReportPath)
	require.NoError(t, err)
	assert.Equal(t, n.messages[0].Body, string(data))
	assert.FileExists(t, filepath.Join(dir, "report-v1.2.0.json"))
}

func TestRunNoMatch(t *testing.T) {
	p := newProvider(model.FileChange{Path: "docs/view.md", Status: model.StatusModified})
	n := &recordingNotifier{}

	res, err := newTestMonitor(t, Config{}, p, n, "").Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeNoMatch, res.Outcome)
	assert.Zero(t, res.Changed)
	assert.Empty(t, n.messages)
	assert.Empty(t, p.Markers)
	assert.Zero(t, p.CreateMarkerCalls)
	assert.Empty(t, res.ReportPath)
}

func TestRunTwiceNotifiesOnce(t *testing.T) {
	p := newProvider(watchedFiles...)
	n := &recordingNotifier{}
	m := newTestMonitor(t, Config{}, p, n, "")

	first, err := m.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotified, first.Outcome)

	second, err := m.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyNotified, second.Outcome)

	assert.Len(t, n.messages, 1)
	assert.Equal(t, 1, p.CreateMarkerCalls)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRunTransportFailureLeavesNoMarker(t *testing.T) {
	p := newProvider(watchedFiles...)
	n := &recordingNotifier{err: errm.Wrap(model.ErrTransport, "dial smtp")}
	dir := t.TempDir()

	res, err := newTestMonitor(t, Config{}, p, n, dir).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errm.Is(err, model.ErrTransport))

	assert.Equal(t, OutcomeNotifyFailed, res.Outcome)
	assert.Empty(t, p.Markers)
	assert.FileExists(t, res.ReportPath)

	// next run retries the notification
	n.err = nil
	res, err = newTestMonitor(t, Config{}, p, n, dir).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotified, res.Outcome)
	assert.Len(t, n.messages, 1)
}

func TestRunDryRun(t *testing.T) {
	p := newProvider(watchedFiles...)
	n := &recordingNotifier{}
	dir := t.TempDir()

	res, err := newTestMonitor(t, Config{DryRun: true}, p, n, dir).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeDryRun, res.Outcome)
	assert.Empty(t, n.messages)
	assert.Empty(t, p.Markers)
	assert.FileExists(t, res.ReportPath)
}

func TestRunMarkerDisabled(t *testing.T) {
	p := newProvider(watchedFiles...)
	p.Markers["relwatch-notified-v1.2.0"] = model.Marker{Key: "relwatch-notified-v1.2.0"}
	n := &recordingNotifier{}

	res, err := newTestMonitor(t, Config{Marker: MarkerConfig{Disable: true}}, p, n, "").Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeNotified, res.Outcome)
	assert.Empty(t, res.MarkerKey)
	assert.Len(t, n.messages, 1)
	assert.Zero(t, p.CreateMarkerCalls)
}

func TestRunCustomMarkerPrefix(t *testing.T) {
	p := newProvider(watchedFiles...)
	n := &recordingNotifier{}

	res, err := newTestMonitor(t, Config{Marker: MarkerConfig{Prefix: "notified/"}}, p, n, "").Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "notified/v1.2.0", res.MarkerKey)
	assert.Contains(t, p.Markers, "notified/v1.2.0")
}

func TestRunProviderErrors(t *testing.T) {
	p := newProvider(watchedFiles...)
	p.Err = errm.Wrap(model.ErrAuthentication, "bad credentials")
	n := &recordingNotifier{}

	res, err := newTestMonitor(t, Config{}, p, n, "").Run(context.Background())
	require.Error(t, err)
	assert.True(t, errm.Is(err, model.ErrAuthentication))
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Empty(t, n.messages)
}

func TestRunMissingComparison(t *testing.T) {
	p := newProvider()
	p.Comparisons = map[string]*model.Comparison{}
	n := &recordingNotifier{}

	res, err := newTestMonitor(t, Config{}, p, n, "").Run(context.Background())
	require.Error(t, err)
	assert.True(t, errm.Is(err, model.ErrNotFound))
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, 1, p.CompareCalls)
}

func TestNewRequiresDeps(t *testing.T) {
	_, err := New(Config{}, Deps{})
	assert.Error(t, err)
}

func TestRunMarkerTargetsHeadWithoutSHA(t *testing.T) {
	p := newProvider(watchedFiles...)
	p.Releases[0].SHA = ""
	n := &recordingNotifier{}

	res, err := newTestMonitor(t, Config{}, p, n, "").Run(context.Background())
	require.NoError(t, err)

	marker, ok := p.Markers[res.MarkerKey]
	require.True(t, ok)
	assert.Equal(t, "v1.2.0", marker.Target)
}
