package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Read persisted summaries from the server",
	}

	cmd.AddCommand(newSnapshotLatestCmd())

	return cmd
}

func newSnapshotLatestCmd() *cobra.Command {
	var metrics bool

	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Show the latest network inventory or metrics summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			project := viper.GetString("project_id")

			latest := apiClient.Snapshots().LatestInventory
			if metrics {
				latest = apiClient.Snapshots().LatestMetricsSummary
			}

			doc, err := latest(ctx, project)
			if err != nil {
				return fmt.Errorf("failed to get latest summary: %w", err)
			}
			return renderDocument(doc)
		},
	}

	cmd.Flags().BoolVar(&metrics, "metrics", false, "show the metrics summary instead of the inventory")

	return cmd
}
