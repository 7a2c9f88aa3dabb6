package cmd

import (
	"context"
	"fmt"
	"strings"

	"alexa-manager/core/batch"
	"alexa-manager/feature/alexa"
	syncfeature "alexa-manager/feature/sync"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags shared by the delete subcommands
	deleteDryRun bool
	deleteYes    bool
)

// deleteCmd is the parent command for standalone deletions, for operators
// who want one phase of the pipeline without a full sync.
var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete Alexa entities, endpoints or groups",
	Long: `Delete a single category of Alexa state. Entities and endpoints are
filtered by the configured description filter; groups are deleted wholesale.

Examples:
  # Preview which entities would be deleted
  alexa-manager delete entities --dry-run

  # Delete all groups non-interactively
  alexa-manager delete groups --yes`,
}

var deleteEntitiesCmd = &cobra.Command{
	Use:   "entities",
	Short: "Delete skill entities matching the description filter",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDelete(string(syncfeature.PhaseDeleteEntities))
	},
}

var deleteEndpointsCmd = &cobra.Command{
	Use:   "endpoints",
	Short: "Delete discovered endpoints matching the description filter",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDelete(string(syncfeature.PhaseDeleteEndpoints))
	},
}

var deleteGroupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Delete all Alexa groups",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDelete(string(syncfeature.PhaseDeleteGroups))
	},
}

func init() {
	deleteCmd.AddCommand(deleteEntitiesCmd)
	deleteCmd.AddCommand(deleteEndpointsCmd)
	deleteCmd.AddCommand(deleteGroupsCmd)

	deleteCmd.PersistentFlags().BoolVar(&deleteDryRun, "dry-run", false, "Simulate deletions (no confirmation needed)")
	deleteCmd.PersistentFlags().BoolVar(&deleteYes, "yes", false, "Auto-confirm destructive actions (non-interactive)")

	RootCmd.AddCommand(deleteCmd)
}

func runDelete(phase string) error {
	ctx := context.Background()

	a, err := newApp(deleteDryRun, deleteYes)
	if err != nil {
		return err
	}
	defer a.close()

	switch phase {
	case string(syncfeature.PhaseDeleteGroups):
		groups, err := a.alexa.ListGroups(ctx)
		if err != nil {
			return fmt.Errorf("failed to list groups: %w", err)
		}
		res := batch.Run(ctx, a.executor, groups,
			func(g alexa.ExpandedGroup) string { return g.Name },
			func(ctx context.Context, g alexa.ExpandedGroup) error {
				return a.alexa.DeleteGroup(ctx, g)
			},
			batch.Options{
				Phase:   phase,
				Confirm: true,
				Prompt:  fmt.Sprintf("About to delete %d Alexa groups", len(groups)),
				DryRun:  deleteDryRun,
			})
		return reportDeletion(a.log, phase, res.Status, res.Succeeded(), res.Skipped(), res.Failed())

	default:
		list := a.alexa.ListEntities
		action := a.alexa.DeleteEntity
		noun := "entities"
		if phase == string(syncfeature.PhaseDeleteEndpoints) {
			list = a.alexa.ListEndpoints
			action = a.alexa.DeleteEndpoint
			noun = "endpoints"
		}

		entities, err := list(ctx)
		if err != nil {
			return fmt.Errorf("failed to list %s: %w", noun, err)
		}
		filter := a.cfg.Alexa.DescriptionFilter
		items := lo.Filter(entities, func(e alexa.Entity, _ int) bool {
			return filter == "" || strings.Contains(e.Description, filter)
		})

		res := batch.Run(ctx, a.executor, items,
			func(e alexa.Entity) string { return e.DisplayName },
			func(ctx context.Context, e alexa.Entity) error {
				return action(ctx, e)
			},
			batch.Options{
				Phase:   phase,
				Confirm: true,
				Prompt:  fmt.Sprintf("About to delete %d Alexa %s", len(items), noun),
				DryRun:  deleteDryRun,
			})
		return reportDeletion(a.log, phase, res.Status, res.Succeeded(), res.Skipped(), res.Failed())
	}
}

func reportDeletion(l *zap.Logger, phase string, status batch.Status, succeeded, skipped, failed int) error {
	l.Info("Deletion finished",
		zap.String("phase", phase),
		zap.String("status", string(status)),
		zap.Int("succeeded", succeeded),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed))

	switch status {
	case batch.StatusDeclined:
		l.Warn("Operation cancelled by user. No changes were made.")
		return nil
	case batch.StatusAborted:
		return fmt.Errorf("deletion aborted before all items were attempted")
	}
	return nil
}
