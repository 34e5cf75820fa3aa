package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/LizBugFree/network-monitor-demo/internal/config"
	"github.com/LizBugFree/network-monitor-demo/internal/domain/network"
	"github.com/LizBugFree/network-monitor-demo/internal/pkg/logger"
	"github.com/LizBugFree/network-monitor-demo/internal/providers"
	"github.com/LizBugFree/network-monitor-demo/internal/repository/docstore"
	"github.com/LizBugFree/network-monitor-demo/internal/services"
	"github.com/LizBugFree/network-monitor-demo/pkg/client"
)

func newCollectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Run a collection cycle locally against the configured store",
	}

	cmd.PersistentFlags().String("project", "", "GCP project id (default from config or GOOGLE_CLOUD_PROJECT)")
	_ = viper.BindPFlag("project_id", cmd.PersistentFlags().Lookup("project"))

	cmd.AddCommand(newCollectNetworkCmd())
	cmd.AddCommand(newCollectMetricsCmd())

	return cmd
}

func newCollectNetworkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "network",
		Short: "Collect the network inventory",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			local, err := openLocal(ctx)
			if err != nil {
				return err
			}
			defer local.close()

			res, err := local.collection.Network.Run(ctx, local.projectID)
			if err != nil {
				return fmt.Errorf("network cycle failed: %w", err)
			}
			return renderNetworkCollection(networkCollection(res))
		},
	}
}

func newCollectMetricsCmd() *cobra.Command {
	var duration int

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Collect network traffic metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			local, err := openLocal(ctx)
			if err != nil {
				return err
			}
			defer local.close()

			res, err := local.collection.Metrics.Run(ctx, local.projectID, providers.ClampDuration(duration))
			if err != nil {
				return fmt.Errorf("metrics cycle failed: %w", err)
			}
			return renderMetricsCollection(metricsCollection(res))
		},
	}

	cmd.Flags().IntVar(&duration, "duration", providers.DefaultDurationMinutes, "lookback window in minutes (5-1440)")

	return cmd
}

type localRun struct {
	collection *services.Collection
	store      docstore.Store
	projectID  string
}

func (l *localRun) close() {
	_ = l.collection.Close()
	_ = l.store.Close()
}

// openLocal wires the pipelines the same way the server does, with logs on stderr
func openLocal(ctx context.Context) (*localRun, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if p := viper.GetString("project_id"); p != "" {
		cfg.GCP.ProjectID = p
	}
	if cfg.GCP.ProjectID == "" {
		return nil, errors.New(services.MissingProjectMessage)
	}

	log := logger.New(logger.Config{
		Level:      viper.GetString("log_level"),
		Format:     "console",
		OutputPath: "stderr",
	})

	store, err := docstore.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open document store: %w", err)
	}

	collection, err := services.NewCollection(ctx, cfg, store, services.NewGCPClientFactory(cfg.GCP), log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &localRun{collection: collection, store: store, projectID: cfg.GCP.ProjectID}, nil
}

func networkCollection(res *services.NetworkCycleResult) *client.NetworkCollection {
	rc := res.ResourcesCollected
	out := &client.NetworkCollection{
		Status:    "success",
		Timestamp: res.Timestamp,
		ResourcesCollected: client.ResourceCounts{
			Networks:      rc.Networks,
			Subnetworks:   rc.Subnetworks,
			FirewallRules: rc.FirewallRules,
			Routers:       rc.Routers,
			NatGateways:   rc.NatGateways,
			Instances:     rc.Instances,
		},
		Insights:      convertInsights(res.Insights),
		FailedSources: res.FailedSources,
	}
	return out
}

func convertInsights(in *network.Insights) *client.Insights {
	if in == nil {
		return nil
	}
	out := &client.Insights{
		Security: make([]client.SecurityInsight, 0, len(in.Security)),
		Cost:     make([]client.CostInsight, 0, len(in.Cost)),
	}
	for _, s := range in.Security {
		out.Security = append(out.Security, client.SecurityInsight{Rule: s.Rule, Message: s.Message})
	}
	for _, c := range in.Cost {
		out.Cost = append(out.Cost, client.CostInsight{Kind: c.Kind, Count: c.Count, Message: c.Message})
	}
	return out
}

func metricsCollection(res *services.MetricsCycleResult) *client.MetricsCollection {
	return &client.MetricsCollection{
		Status:                "success",
		Timestamp:             res.Timestamp,
		DurationMinutes:       res.DurationMinutes,
		TotalMetricsCollected: res.TotalMetricsCollected,
		MetricsBreakdown:      res.MetricsBreakdown,
		FailedSources:         res.FailedSources,
	}
}
