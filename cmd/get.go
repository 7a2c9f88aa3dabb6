package cmd

import (
	"context"
	"fmt"

	syncfeature "alexa-manager/feature/sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// getCmd is the parent command for read-only listings.
var getCmd = &cobra.Command{
	Use:   "get",
	Short: "List remote state (read-only)",
	Long:  `Inspect Alexa and Home Assistant state without changing anything.`,
}

var getEntitiesCmd = &cobra.Command{
	Use:   "entities",
	Short: "List Alexa skill entities",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := newApp(false, false)
		if err != nil {
			return err
		}
		defer a.close()

		entities, err := a.alexa.ListEntities(ctx)
		if err != nil {
			return fmt.Errorf("failed to list entities: %w", err)
		}
		for _, e := range entities {
			a.log.Info("Entity",
				zap.String("id", e.ID),
				zap.String("name", e.DisplayName),
				zap.String("description", e.Description))
		}
		a.log.Info("Listed entities", zap.Int("count", len(entities)))
		return nil
	},
}

var getEndpointsCmd = &cobra.Command{
	Use:   "endpoints",
	Short: "List discovered Alexa endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := newApp(false, false)
		if err != nil {
			return err
		}
		defer a.close()

		endpoints, err := a.alexa.ListEndpoints(ctx)
		if err != nil {
			return fmt.Errorf("failed to list endpoints: %w", err)
		}
		for _, e := range endpoints {
			a.log.Info("Endpoint",
				zap.String("name", e.DisplayName),
				zap.String("appliance_id", e.ApplianceID),
				zap.String("description", e.Description))
		}
		a.log.Info("Listed endpoints", zap.Int("count", len(endpoints)))
		return nil
	},
}

var getGroupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List Alexa groups and their members",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := newApp(false, false)
		if err != nil {
			return err
		}
		defer a.close()

		groups, err := a.alexa.ListGroups(ctx)
		if err != nil {
			return fmt.Errorf("failed to list groups: %w", err)
		}
		for _, g := range groups {
			a.log.Info("Group",
				zap.String("id", g.ID),
				zap.String("name", g.Name),
				zap.Int("members", len(g.ApplianceIDs)))
		}
		a.log.Info("Listed groups", zap.Int("count", len(groups)))
		return nil
	},
}

var getAreasCmd = &cobra.Command{
	Use:   "areas",
	Short: "List Home Assistant areas and their entities",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := newApp(false, false)
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
		for _, area := range areas {
			a.log.Info("Area",
				zap.String("name", area.Name),
				zap.Strings("entity_ids", area.EntityIDs))
		}
		a.log.Info("Listed areas", zap.Int("count", len(areas)))
		return nil
	},
}

// getMappingCmd previews the desired area-to-group mapping without touching
// remote state. The mapping computation is pure, so this is the same plan
// the sync pipeline would apply.
var getMappingCmd = &cobra.Command{
	Use:   "mapping",
	Short: "Preview the area-to-group mapping",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := newApp(false, false)
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

		mapping := syncfeature.ComputeMapping(
			areas,
			a.cfg.HomeAssistant.IgnoredList(),
			endpoints,
			a.cfg.Alexa.DescriptionFilter,
			syncfeature.DefaultDeriver(),
		)

		for _, g := range mapping.Groups {
			fields := []zap.Field{
				zap.String("area", g.AreaName),
				zap.String("group", g.GroupName),
				zap.Int("members", len(g.ApplianceIDs)),
			}
			if len(g.Unmatched) > 0 {
				fields = append(fields, zap.Strings("unmatched", g.Unmatched))
			}
			a.log.Info("Planned group", fields...)
		}
		if len(mapping.IgnoredAreas) > 0 {
			a.log.Info("Ignored areas", zap.Strings("areas", mapping.IgnoredAreas))
		}
		return nil
	},
}

func init() {
	getCmd.AddCommand(getEntitiesCmd)
	getCmd.AddCommand(getEndpointsCmd)
	getCmd.AddCommand(getGroupsCmd)
	getCmd.AddCommand(getAreasCmd)
	getCmd.AddCommand(getMappingCmd)

	RootCmd.AddCommand(getCmd)
}
