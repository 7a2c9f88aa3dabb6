package cmd

import (
	"fmt"

	"alexa-manager/core/batch"
	"alexa-manager/core/config"
	"alexa-manager/core/console"
	"alexa-manager/core/logger"
	"alexa-manager/core/remote"
	"alexa-manager/feature/alexa"
	"alexa-manager/feature/homeassistant"

	"go.uber.org/zap"
)

// app bundles the wired-up collaborators every command needs. Construction
// is identical across commands; only the dry-run and auto-confirm flags
// vary.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	runID    string
	reporter console.Reporter
	invoker  *remote.Invoker
	alexa    alexa.Client
	hub      homeassistant.Client
	executor *batch.Executor
}

// newApp loads configuration and wires the clients. hub is nil when the
// Home Assistant integration is not configured.
func newApp(dryRun, autoYes bool) (*app, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	base, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	l, runID := logger.WithRunID(base)

	reporter := console.NewZapReporter(l)
	invoker := remote.NewInvoker(cfg.Remote, dryRun, reporter)

	a := &app{
		cfg:      cfg,
		log:      l,
		runID:    runID,
		reporter: reporter,
		invoker:  invoker,
		alexa:    alexa.NewHTTPClient(cfg.Alexa, invoker, cfg.Remote.Timeout(), l),
		executor: batch.NewExecutor(&console.StdinConfirmer{AutoYes: autoYes}, reporter),
	}
	if cfg.HomeAssistant.Configured() {
		a.hub = homeassistant.NewHTTPClient(cfg.HomeAssistant, invoker, cfg.Remote.Timeout())
	}
	return a, nil
}

func (a *app) close() {
	_ = a.log.Sync()
}
