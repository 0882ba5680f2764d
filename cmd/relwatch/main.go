package main

import (
	"fmt"

	"github.com/alecthomas/kingpin/v2"
	"github.com/maxbolgarin/contem"
	"github.com/maxbolgarin/erro"
	"github.com/maxbolgarin/lang"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/relwatch/internal/app"
	"github.com/maxbolgarin/relwatch/internal/config"
	"github.com/maxbolgarin/relwatch/internal/selector"
)

var (
	Version, Branch, Commit, BuildDate string
)

var (
	configPath = kingpin.Flag("config", "path to config file").Short('c').String()
	verbose    = kingpin.Flag("verbose", "log every step of the run").Short('v').Bool()

	checkCmd = kingpin.Command("check", "compare releases and notify about watched file changes").Default()
	base     = checkCmd.Flag("base", "base revision (tag or commit SHA)").String()
	head     = checkCmd.Flag("head", "head revision (tag or commit SHA)").String()
	dryRun   = checkCmd.Flag("dry-run", "render the report without notifying or writing the marker").Bool()

	testMailCmd = kingpin.Command("test-mail", "send a test email with the configured mail settings")
)

func main() {
	kingpin.Version(fmt.Sprintf("%s (branch %s, commit %s, built %s)", Version, Branch, Commit, BuildDate))
	command := kingpin.Parse()

	var err error
	ctx := contem.New(contem.WithLogger(logze.DefaultPtr()), contem.Exit(&err))
	defer ctx.Shutdown()

	err = run(ctx, command)
	if err != nil {
		logze.DefaultPtr().Error("cannot run", "error", err)
	}
}

func run(ctx contem.Context, command string) error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return erro.Wrap(err, "load config")
	}

	level := logze.LevelInfo
	if *verbose || cfg.Log.Debug {
		level = logze.LevelDebug
	}
	logze.Init(logze.C().WithConsole().WithLevel(level))

	switch command {
	case testMailCmd.FullCommand():
		if err := app.SendTestMail(ctx, cfg.Notify); err != nil {
			return erro.Wrap(err, "send test mail")
		}
		return nil
	}

	if *base != "" || *head != "" {
		cfg.Selector.Mode = selector.ModeExplicit
		cfg.Selector.Base = lang.Check(*base, cfg.Selector.Base)
		cfg.Selector.Head = lang.Check(*head, cfg.Selector.Head)
	}
	cfg.Monitor.DryRun = cfg.Monitor.DryRun || *dryRun
	cfg.Monitor.Verbose = cfg.Monitor.Verbose || *verbose

	relwatch, err := app.New(cfg)
	if err != nil {
		return erro.Wrap(err, "new app")
	}

	if _, err := relwatch.RunCheck(ctx); err != nil {
		return erro.Wrap(err, "run check")
	}

	return nil
}
