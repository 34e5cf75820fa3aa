package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server health and the latest cycles",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			project := viper.GetString("project_id")

			summary := map[string]interface{}{}

			health, err := apiClient.Health(ctx)
			if err != nil {
				summary["server"] = fmt.Sprintf("error: %v", err)
			} else {
				summary["server"] = health.Status
			}
			if inv, err := apiClient.Snapshots().LatestInventory(ctx, project); err == nil {
				summary["last_network_cycle"] = inv.Data["timestamp"]
			} else {
				summary["last_network_cycle"] = "none"
			}
			if m, err := apiClient.Snapshots().LatestMetricsSummary(ctx, project); err == nil {
				summary["last_metrics_cycle"] = m.Data["timestamp"]
				summary["last_metrics_count"] = m.Data["metrics_count"]
			} else {
				summary["last_metrics_cycle"] = "none"
			}

			if getOutputFormat() != "table" {
				return printOutput(summary)
			}

			fmt.Fprintln(stdout, "Network Monitor")
			fmt.Fprintln(stdout, strings.Repeat("=", 40))
			fmt.Fprintf(stdout, "  Server:          %v\n", summary["server"])
			fmt.Fprintf(stdout, "  Network cycle:   %v\n", summary["last_network_cycle"])
			fmt.Fprintf(stdout, "  Metrics cycle:   %v", summary["last_metrics_cycle"])
			if n, ok := summary["last_metrics_count"]; ok {
				fmt.Fprintf(stdout, " (%v points)", n)
			}
			fmt.Fprintln(stdout)
			return nil
		},
	}
}
