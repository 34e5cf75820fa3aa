package services

import (
	"context"
	"testing"
	"time"

	"github.com/LizBugFree/network-monitor-demo/internal/config"
	"github.com/LizBugFree/network-monitor-demo/internal/repository/docstore"
	"github.com/LizBugFree/network-monitor-demo/internal/testutil"
)

func TestNewCollection_WithoutSinks(t *testing.T) {
	cfg := &config.Config{
		GCP: config.GCPConfig{ProjectID: testutil.ProjectID},
		Collector: config.CollectorConfig{
			Parallel:          true,
			RegionConcurrency: 2,
			BatchSize:         DefaultBatchSize,
			CycleTimeout:      time.Minute,
		},
	}
	store := docstore.NewMemoryStore()
	f := newFakeClientFactory()

	c, err := NewCollection(context.Background(), cfg, store, f, testutil.NewTestLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if c.Network.archive != nil || c.Metrics.exporter != nil {
		t.Error("sinks enabled without configuration")
	}

	res, err := c.Network.Run(context.Background(), testutil.ProjectID)
	if err != nil {
		t.Fatal(err)
	}
	latest, err := c.Reader.LatestInventory(context.Background(), testutil.ProjectID)
	if err != nil {
		t.Fatal(err)
	}
	if latest.ID != res.DocumentID {
		t.Errorf("latest = %s, want %s", latest.ID, res.DocumentID)
	}
}
