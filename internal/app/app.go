package app

import (
	"context"
	"fmt"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/lang"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/relwatch/internal/config"
	"github.com/maxbolgarin/relwatch/internal/model"
	"github.com/maxbolgarin/relwatch/internal/model/interfaces"
	"github.com/maxbolgarin/relwatch/internal/monitor"
	"github.com/maxbolgarin/relwatch/internal/notify"
	"github.com/maxbolgarin/relwatch/internal/provider"
	"github.com/maxbolgarin/relwatch/internal/report"
	"github.com/maxbolgarin/relwatch/internal/selector"
	"github.com/maxbolgarin/relwatch/internal/watch"
)

const (
	testMailSubject = "Test Email - Repository Monitor"
	testMailBody    = "This is a test email from the monitoring system."
)

// Relwatch wires the source control host, watch rule, report and notifiers into a monitor
type Relwatch struct {
	provider interfaces.CodeProvider
	notifier interfaces.Notifier
	alert    interfaces.Notifier
	monitor  *monitor.Monitor

	cfg config.Config
	log logze.Logger
}

// New creates the application from a validated configuration
func New(cfg config.Config) (*Relwatch, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errm.Wrap(err, "validate config")
	}

	prov, err := provider.NewProvider(cfg.Provider)
	if err != nil {
		return nil, errm.Wrap(err, "failed to create source control provider")
	}

	notifier, err := notify.New(cfg.Notify)
	if err != nil {
		return nil, errm.Wrap(err, "failed to create notifier")
	}

	var alert interfaces.Notifier
	if a := notify.NewOperatorAlert(cfg.Notify); a != nil {
		alert = a
	}

	return newWithDeps(cfg, prov, notifier, alert)
}

func newWithDeps(cfg config.Config, prov interfaces.CodeProvider, notifier, alert interfaces.Notifier) (*Relwatch, error) {
	s := &Relwatch{
		provider: prov,
		notifier: notifier,
		alert:    alert,
		cfg:      cfg,
		log:      logze.With("component", "app", "repository", cfg.Provider.Repository),
	}

	cfg.Selector.Branch = lang.Check(cfg.Selector.Branch, cfg.Provider.Branch)
	sel, err := selector.New(cfg.Selector, prov, cfg.Provider.Repository)
	if err != nil {
		return nil, errm.Wrap(err, "failed to create release selector")
	}

	rule, err := watch.NewRule(cfg.Watch)
	if err != nil {
		return nil, errm.Wrap(err, "failed to create watch rule")
	}

	s.monitor, err = monitor.New(cfg.Monitor, monitor.Deps{
		Provider:  prov,
		Notifier:  notifier,
		Selector:  sel,
		Rule:      rule,
		Renderer:  report.NewRenderer(report.Options{FileAnchors: cfg.FileAnchors()}),
		Store:     report.NewStore(cfg.Report.OutputDir),
		ProjectID: cfg.Provider.Repository,
	})
	if err != nil {
		return nil, errm.Wrap(err, "failed to create monitor")
	}

	return s, nil
}

// RunCheck performs one change detection pass and logs its outcome
func (s *Relwatch) RunCheck(ctx context.Context) (*monitor.Result, error) {
	s.log.Info("starting check",
		"provider", s.cfg.Provider.Type,
		"mode", s.cfg.Selector.Mode,
		"folder", s.cfg.Watch.Folder,
		"dry_run", s.cfg.Monitor.DryRun,
	)

	res, err := s.monitor.Run(ctx)

	log := s.log.WithFields(
		"run_id", res.RunID,
		"outcome", res.Outcome,
		"changed", res.Changed,
		"elapsed", res.Elapsed,
	)
	if res.Pair.Head != nil {
		log = log.WithFields("base", res.Pair.Base.ID, "head", res.Pair.Head.ID)
	}
	if res.ReportPath != "" {
		log = log.WithFields("report", res.ReportPath)
	}

	if err != nil {
		log.Err(err, "check failed")
		if errm.Is(err, model.ErrAuthentication) {
			s.sendAlert(ctx, err)
		}
		return res, err
	}

	log.Info("check finished",
		"added", res.Summary.Added,
		"modified", res.Summary.Modified,
		"removed", res.Summary.Removed,
	)

	return res, nil
}

func (s *Relwatch) sendAlert(ctx context.Context, cause error) {
	if s.alert == nil {
		s.log.Warn("operator alert is not configured")
		return
	}

	msg := model.Message{
		Subject: fmt.Sprintf("[%s] Repository monitor cannot authenticate", s.cfg.Provider.Repository),
		Body: fmt.Sprintf("The repository monitor failed to authenticate with the %s API.\n\nError: %s\n\n"+
			"Check that the access token is valid and has access to %s.",
			s.cfg.Provider.Type, cause, s.cfg.Provider.Repository),
	}
	if err := s.alert.Notify(ctx, msg); err != nil {
		s.log.Err(err, "failed to send operator alert")
		return
	}
	s.log.Info("operator alert sent")
}

// SendTestMail sends a fixed message through the mail channel to verify delivery settings
func SendTestMail(ctx context.Context, cfg notify.Config) error {
	if err := cfg.SMTP.PrepareAndValidate(); err != nil {
		return errm.Wrap(err, "validate smtp config")
	}
	if len(cfg.Recipients) == 0 {
		return errm.New("at least one recipient is required")
	}

	mail, err := notify.NewMail(cfg.SMTP, cfg.Recipients)
	if err != nil {
		return errm.Wrap(err, "failed to create mail notifier")
	}

	log := logze.With("component", "app", "server", cfg.SMTP.Server, "recipients", len(cfg.Recipients))
	log.Info("sending test email")

	if err := mail.Notify(ctx, model.Message{Subject: testMailSubject, Body: testMailBody}); err != nil {
		return errm.Wrap(err, "failed to send test email")
	}

	log.Info("test email sent")
	return nil
}
