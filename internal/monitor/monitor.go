package monitor

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/maxbolgarin/abstract"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/lang"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/relwatch/internal/model"
	"github.com/maxbolgarin/relwatch/internal/model/interfaces"
	"github.com/maxbolgarin/relwatch/internal/report"
	"github.com/maxbolgarin/relwatch/internal/selector"
	"github.com/maxbolgarin/relwatch/internal/watch"
)

// Monitor runs one change detection pass:
// resolve revisions, compare, filter, check marker, render, notify, write marker.
type Monitor struct {
	provider  interfaces.CodeProvider
	notifier  interfaces.Notifier
	selector  *selector.Selector
	rule      *watch.Rule
	renderer  *report.Renderer
	store     *report.Store
	projectID string

	cfg Config
	log logze.Logger
}

// Deps are the collaborators of a monitor
type Deps struct {
	Provider  interfaces.CodeProvider
	Notifier  interfaces.Notifier
	Selector  *selector.Selector
	Rule      *watch.Rule
	Renderer  *report.Renderer
	Store     *report.Store
	ProjectID string
}

// New creates a new monitor
func New(cfg Config, deps Deps) (*Monitor, error) {
	if err := cfg.PrepareAndValidate(); err != nil {
		return nil, errm.Wrap(err, "validate config")
	}
	if deps.Provider == nil || deps.Notifier == nil || deps.Selector == nil || deps.Rule == nil {
		return nil, errm.New("provider, notifier, selector and rule are required")
	}
	if deps.Renderer == nil {
		deps.Renderer = report.NewRenderer(report.Options{})
	}
	if deps.Store == nil {
		deps.Store = report.NewStore("")
	}

	return &Monitor{
		provider:  deps.Provider,
		notifier:  deps.Notifier,
		selector:  deps.Selector,
		rule:      deps.Rule,
		renderer:  deps.Renderer,
		store:     deps.Store,
		projectID: deps.ProjectID,
		cfg:       cfg,
		log:       logze.With("component", "monitor", "project_id", deps.ProjectID),
	}, nil
}

// Run performs a single pass. The returned result is never nil.
func (m *Monitor) Run(ctx context.Context) (*Result, error) {
	timer := abstract.StartTimer()
	result := &Result{
		RunID:   uuid.NewString(),
		Outcome: OutcomeFailed,
	}
	log := m.log.WithFields("run_id", result.RunID)

	defer func() {
		result.Elapsed = timer.ElapsedTime()
	}()

	pair, err := m.selector.Select(ctx)
	if err != nil {
		return result, errm.Wrap(err, "failed to resolve revisions")
	}
	result.Pair = pair
	log = log.WithFields("base", pair.Base.ID, "head", pair.Head.ID)
	m.logFlow(log, "revisions resolved")

	cmp, err := m.provider.Compare(ctx, m.projectID, pair.Base.ID, pair.Head.ID)
	if err != nil {
		return result, errm.Wrap(err, "failed to fetch comparison")
	}
	m.logFlow(log, "comparison fetched", "files", len(cmp.Files), "commits", cmp.TotalCommits)

	matched := m.rule.Filter(cmp.Files)
	result.Changed = len(matched)
	result.Summary = report.Summarize(matched)
	if len(matched) == 0 {
		log.Info("no watched files changed", "folder", m.rule.Folder())
		result.Outcome = OutcomeNoMatch
		return result, nil
	}
	log.Info("watched files changed", "count", len(matched))

	if !m.cfg.Marker.Disable {
		result.MarkerKey = MarkerKey(m.cfg.Marker.Prefix, pair.Head.ID)
		exists, err := m.provider.GetMarker(ctx, m.projectID, result.MarkerKey)
		if err != nil {
			return result, errm.Wrap(err, "failed to check marker")
		}
		if exists {
			log.Info("already notified for this release", "marker", result.MarkerKey)
			result.Outcome = OutcomeAlreadyNotified
			return result, nil
		}
	}

	input := report.Input{
		Repository: m.projectID,
		Pair:       pair,
		Comparison: cmp,
		Files:      matched,
	}
	body := m.renderer.Render(input)

	result.ReportPath, err = m.store.Save(input, body)
	if err != nil {
		log.Err(err, "failed to persist report")
	} else if result.ReportPath != "" {
		m.logFlow(log, "report persisted", "path", result.ReportPath)
	}

	if m.cfg.DryRun {
		log.Info("dry run, skipping notification")
		log.Debug("rendered report\n" + body)
		result.Outcome = OutcomeDryRun
		return result, nil
	}

	msg := model.Message{
		Subject: m.renderer.Subject(input),
		Body:    body,
	}
	if err := m.notifier.Notify(ctx, msg); err != nil {
		result.Outcome = OutcomeNotifyFailed
		return result, errm.Wrap(err, "failed to send notification")
	}
	result.Outcome = OutcomeNotified
	log.Info("notification sent")

	if !m.cfg.Marker.Disable {
		marker := model.Marker{
			Key:    result.MarkerKey,
			Name:   "relwatch: " + pair.Head.ID,
			Body:   markerBody(pair, cmp, len(matched)),
			Target: lang.Check(pair.Head.SHA, pair.Head.ID),
		}
		if err := m.provider.CreateMarker(ctx, m.projectID, marker); err != nil {
			return result, errm.Wrap(err, "failed to write marker")
		}
		m.logFlow(log, "marker written", "marker", marker.Key)
	}

	return result, nil
}

func (m *Monitor) logFlow(log logze.Logger, msg string, fields ...any) {
	if m.cfg.Verbose {
		log.Info(msg, fields...)
	} else {
		log.Debug(msg, fields...)
	}
}

func markerBody(pair model.RevisionPair, cmp *model.Comparison, matched int) string {
	body := fmt.Sprintf("Notification sent for %s: %d watched files changed.", pair.String(), matched)
	if cmp.URL != "" {
		body += "\n\n" + cmp.URL
	}
	return body
}
