package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newTriggerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Trigger a collection cycle on the server",
	}

	cmd.AddCommand(newTriggerNetworkCmd())
	cmd.AddCommand(newTriggerMetricsCmd())

	return cmd
}

func newTriggerNetworkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "network",
		Short: "Run a network inventory cycle on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := apiClient.Collect().Network(context.Background())
			if err != nil {
				return fmt.Errorf("failed to trigger network cycle: %w", err)
			}
			return renderNetworkCollection(res)
		},
	}
}

func newTriggerMetricsCmd() *cobra.Command {
	var duration int

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Run a metrics cycle on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := apiClient.Collect().Metrics(context.Background(), duration)
			if err != nil {
				return fmt.Errorf("failed to trigger metrics cycle: %w", err)
			}
			return renderMetricsCollection(res)
		},
	}

	cmd.Flags().IntVar(&duration, "duration", 0, "lookback window in minutes (server default when unset)")

	return cmd
}
