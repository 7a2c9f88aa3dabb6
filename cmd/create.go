package cmd

import (
	"context"
	"fmt"

	"alexa-manager/core/batch"
	syncfeature "alexa-manager/feature/sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the create groups command
	createDryRun bool
	createYes    bool
)

// createCmd is the parent command for standalone creation operations.
var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create Alexa state from Home Assistant",
}

// createGroupsCmd rebuilds groups from the current area mapping without
// running the deletion or discovery phases first.
var createGroupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Create or update Alexa groups from Home Assistant areas",
	Long: `Compute the area-to-group mapping and apply the resulting creates and
updates against the current Alexa groups. Deletion and rediscovery are
skipped; use the sync command for the full pipeline.`,
	RunE: runCreateGroups,
}

func init() {
	createCmd.AddCommand(createGroupsCmd)

	createGroupsCmd.Flags().BoolVar(&createDryRun, "dry-run", false, "Simulate group changes")
	createGroupsCmd.Flags().BoolVar(&createYes, "yes", false, "Auto-confirm (non-interactive)")

	RootCmd.AddCommand(createCmd)
}

func runCreateGroups(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(createDryRun, createYes)
	if err != nil {
		return err
	}
	defer a.close()
	if a.hub == nil {
		return fmt.Errorf("home assistant is not configured")
	}

	areas, err := a.hub.ListAreas(ctx)
	if err != nil {
		return fmt.Errorf("failed to list areas: %w", err)
	}
	endpoints, err := a.alexa.ListEndpoints(ctx)
	if err != nil {
		return fmt.Errorf("failed to list endpoints: %w", err)
	}
	groups, err := a.alexa.ListGroups(ctx)
	if err != nil {
		return fmt.Errorf("failed to list groups: %w", err)
	}

	mapping := syncfeature.ComputeMapping(
		areas,
		a.cfg.HomeAssistant.IgnoredList(),
		endpoints,
		a.cfg.Alexa.DescriptionFilter,
		syncfeature.DefaultDeriver(),
	)
	actions := syncfeature.PlanGroupActions(mapping, groups, a.cfg.Sync.Mode)
	if len(actions) == 0 {
		a.log.Info("Groups already match the area mapping; nothing to do")
		return nil
	}

	res := batch.Run(ctx, a.executor, actions,
		syncfeature.GroupAction.Describe,
		func(ctx context.Context, action syncfeature.GroupAction) error {
			switch action.Type {
			case syncfeature.ActionCreate:
				return a.alexa.CreateGroup(ctx, action.Name, action.ApplianceIDs)
			default:
				return a.alexa.UpdateGroup(ctx, action.Current.WithMembers(action.ApplianceIDs))
			}
		},
		batch.Options{
			Phase:  string(syncfeature.PhaseApplyGroups),
			DryRun: createDryRun,
		})

	a.log.Info("Group changes applied",
		zap.String("status", string(res.Status)),
		zap.Int("succeeded", res.Succeeded()),
		zap.Int("skipped", res.Skipped()),
		zap.Int("failed", res.Failed()))

	if res.Status == batch.StatusAborted {
		return fmt.Errorf("group changes aborted before all items were attempted")
	}
	return nil
}
