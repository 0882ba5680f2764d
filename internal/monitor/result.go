package monitor

import (
	"time"

	"github.com/maxbolgarin/relwatch/internal/model"
	"github.com/maxbolgarin/relwatch/internal/report"
)

// Outcome is the terminal state of a run
type Outcome string

const (
	OutcomeFailed          Outcome = "failed"
	OutcomeNoMatch         Outcome = "no_match"
	OutcomeAlreadyNotified Outcome = "already_notified"
	OutcomeDryRun          Outcome = "dry_run"
	OutcomeNotifyFailed    Outcome = "notify_failed"
	OutcomeNotified        Outcome = "notified"
)

// Result describes what a run did
type Result struct {
	RunID      string
	Outcome    Outcome
	Pair       model.RevisionPair
	Changed    int
	Summary    report.Summary
	ReportPath string
	MarkerKey  string
	Elapsed    time.Duration
}
