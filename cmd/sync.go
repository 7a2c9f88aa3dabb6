package cmd

import (
	"context"
	"fmt"

	syncfeature "alexa-manager/feature/sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the sync command
	syncDryRun    bool
	syncYes       bool
	syncAlexaOnly bool
)

// syncCmd runs the full synchronization pipeline.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize Alexa entities and groups with Home Assistant areas",
	Long: `Run the full synchronization pipeline: delete stale Alexa entities,
endpoints and groups, trigger device rediscovery, wait for it to settle,
then rebuild Alexa groups to mirror Home Assistant areas.

Examples:
  # Preview everything without mutating (no confirmation needed)
  alexa-manager sync --dry-run

  # Full sync with interactive confirmation per destructive phase
  alexa-manager sync

  # Non-interactive full sync
  alexa-manager sync --yes

  # Only clean up Alexa state, skip all Home Assistant phases
  alexa-manager sync --alexa-only --yes`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Simulate all mutations (no confirmation needed)")
	syncCmd.Flags().BoolVar(&syncYes, "yes", false, "Auto-confirm destructive actions (non-interactive)")
	syncCmd.Flags().BoolVar(&syncAlexaOnly, "alexa-only", false, "Skip all Home Assistant phases (delete only)")

	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(syncDryRun, syncYes)
	if err != nil {
		return err
	}
	defer a.close()

	alexaOnly := syncAlexaOnly || a.hub == nil
	if alexaOnly && !syncAlexaOnly {
		a.log.Info("Home Assistant not configured, running in alexa-only mode")
	}

	a.log.Info("Starting sync",
		zap.Bool("dry_run", syncDryRun),
		zap.Bool("alexa_only", alexaOnly),
		zap.String("mode", a.cfg.Sync.Mode))

	o := &syncfeature.Orchestrator{
		Alexa:        a.alexa,
		Hub:          a.hub,
		Executor:     a.executor,
		Reporter:     a.reporter,
		Log:          a.log,
		Cfg:          a.cfg.Sync,
		Filter:       a.cfg.Alexa.DescriptionFilter,
		IgnoredAreas: a.cfg.HomeAssistant.IgnoredList(),
		AlexaOnly:    alexaOnly,
		DryRun:       syncDryRun,
	}

	summary := o.Run(ctx)
	summary.RunID = a.runID
	printSummary(a.log, summary)

	if !summary.OK() {
		return fmt.Errorf("sync did not complete")
	}
	return nil
}

// printSummary renders the per-phase outcome through the logger.
func printSummary(l *zap.Logger, s *syncfeature.Summary) {
	for _, p := range s.Phases {
		fields := []zap.Field{zap.String("phase", string(p.Phase))}
		if !p.Ran {
			fields = append(fields, zap.String("skipped", p.SkipReason))
			l.Info("Phase skipped", fields...)
			continue
		}
		fields = append(fields,
			zap.String("status", string(p.Status)),
			zap.Int("succeeded", p.Succeeded),
			zap.Int("skipped", p.Skipped),
			zap.Int("failed", p.Failed),
		)
		if p.Detail != "" {
			fields = append(fields, zap.String("detail", p.Detail))
		}
		if p.Err != nil {
			fields = append(fields, zap.Error(p.Err))
			l.Error("Phase failed", fields...)
			continue
		}
		l.Info("Phase finished", fields...)
	}

	switch {
	case s.Aborted:
		l.Warn("Sync aborted before completion")
	case s.Degraded:
		l.Warn("Sync completed degraded: discovery did not converge")
	case s.DryRun:
		l.Info("Dry-run complete: no changes were made")
	default:
		l.Info("Sync complete")
	}
}
