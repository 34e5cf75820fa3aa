package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	apperrors "github.com/LizBugFree/network-monitor-demo/internal/pkg/errors"
	"github.com/LizBugFree/network-monitor-demo/internal/repository/docstore"
	"github.com/LizBugFree/network-monitor-demo/internal/testutil"
)

func newTestNetworkPipeline(f ClientFactory, store docstore.Store, parallel bool) *NetworkPipeline {
	log := testutil.NewTestLogger()
	p := NewNetworkPipeline(f, NewSnapshotWriter(store, DefaultBatchSize, log), PipelineOptions{
		Parallel:          parallel,
		RegionConcurrency: 2,
		CycleTimeout:      time.Minute,
	}, log)
	p.now = func() time.Time { return time.Date(2024, 3, 1, 11, 30, 45, 0, time.UTC) }
	return p
}

func TestNetworkPipeline_EndToEnd(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		f := newFakeClientFactory()
		store := testutil.NewTestStore(t)
		p := newTestNetworkPipeline(f, store, parallel)

		res, err := p.Run(context.Background(), testutil.ProjectID)
		if err != nil {
			t.Fatalf("parallel=%v: Run() error = %v", parallel, err)
		}

		rc := res.ResourcesCollected
		if rc.Networks != 2 || rc.Subnetworks != 3 || rc.FirewallRules != 1 ||
			rc.Routers != 1 || rc.NatGateways != 1 || rc.Instances != 2 {
			t.Errorf("parallel=%v: resources = %+v", parallel, rc)
		}
		if len(res.FailedSources) != 0 {
			t.Errorf("failed sources = %v", res.FailedSources)
		}

		if len(res.Insights.Security) != 1 || res.Insights.Security[0].Rule != "allow-ssh-anywhere" {
			t.Errorf("security insights = %+v", res.Insights.Security)
		}
		if len(res.Insights.Cost) != 2 {
			t.Errorf("cost insights = %+v", res.Insights.Cost)
		}

		if res.Timestamp != "2024-03-01T11:30:45.000000Z" || res.DocumentID != "demo-project_1709292645" {
			t.Errorf("identity = %s %s", res.Timestamp, res.DocumentID)
		}
		if last := res.History[len(res.History)-1]; last.To != StateDone {
			t.Errorf("final state = %s, want done", last.To)
		}
		if f.opened != 1 || f.closed != 1 {
			t.Errorf("clients opened=%d closed=%d, want 1/1", f.opened, f.closed)
		}

		reader := NewSnapshotReader(store)
		subnets, err := reader.Records(context.Background(), CollectionSubnetworks, testutil.ProjectID, res.Timestamp)
		if err != nil {
			t.Fatal(err)
		}
		found := false
		for _, r := range subnets {
			if r.Data["ip_cidr_range"] == "10.0.0.0/24" {
				found = true
				if r.Data["available_ips"] != float64(253) {
					t.Errorf("available_ips = %v, want 253", r.Data["available_ips"])
				}
			}
		}
		if !found {
			t.Error("10.0.0.0/24 subnet not persisted")
		}

		latest, err := reader.LatestInventory(context.Background(), testutil.ProjectID)
		if err != nil || latest.ID != res.DocumentID {
			t.Errorf("LatestInventory() = %v, %v", latest.ID, err)
		}
	}
}

func TestNetworkPipeline_FaultIsolation(t *testing.T) {
	f := newFakeClientFactory()
	f.inventory.Errors["firewall_rules"] = errUpstream
	store := docstore.NewMemoryStore()
	p := newTestNetworkPipeline(f, store, true)

	res, err := p.Run(context.Background(), testutil.ProjectID)
	if err != nil {
		t.Fatalf("Run() error = %v, a failing collector must not fail the cycle", err)
	}
	if res.ResourcesCollected.Networks != 2 || res.ResourcesCollected.FirewallRules != 0 {
		t.Errorf("resources = %+v", res.ResourcesCollected)
	}
	if len(res.FailedSources) != 1 || res.FailedSources[0] != "firewall_rules" {
		t.Errorf("failed sources = %v", res.FailedSources)
	}
	if len(res.Insights.Security) != 0 {
		t.Errorf("no rules means no security insights, got %+v", res.Insights.Security)
	}
	if store.Count(CollectionNetworks) != 2 || store.Count(CollectionFirewallRules) != 0 {
		t.Errorf("stored networks=%d firewall=%d", store.Count(CollectionNetworks), store.Count(CollectionFirewallRules))
	}
}

func TestNetworkPipeline_RouterFailureReportsNats(t *testing.T) {
	f := newFakeClientFactory()
	f.inventory.Errors["routers"] = errUpstream
	p := newTestNetworkPipeline(f, docstore.NewMemoryStore(), false)

	res, err := p.Run(context.Background(), testutil.ProjectID)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := []string{"routers", "nat_gateways"}
	if len(res.FailedSources) != 2 || res.FailedSources[0] != want[0] || res.FailedSources[1] != want[1] {
		t.Errorf("failed sources = %v, want %v", res.FailedSources, want)
	}
	if res.ResourcesCollected.Subnetworks != 3 {
		t.Errorf("subnetworks = %d, other regional classes must be unaffected", res.ResourcesCollected.Subnetworks)
	}
}

func TestNetworkPipeline_Failures(t *testing.T) {
	tests := []struct {
		name       string
		projectID  string
		setup      func(f *fakeClientFactory, s *testutil.FailingStore)
		wantStatus int
		wantOpened int
	}{
		{
			name:       "missing project",
			projectID:  "",
			wantStatus: http.StatusBadRequest,
			wantOpened: 0,
		},
		{
			name:      "client cannot be opened",
			projectID: testutil.ProjectID,
			setup: func(f *fakeClientFactory, s *testutil.FailingStore) {
				f.openErr = apperrors.ProviderAPI("compute", errUpstream)
			},
			wantStatus: http.StatusBadGateway,
			wantOpened: 0,
		},
		{
			name:      "summary write fails",
			projectID: testutil.ProjectID,
			setup: func(f *fakeClientFactory, s *testutil.FailingStore) {
				s.SetError = errors.New("disk full")
			},
			wantStatus: http.StatusInternalServerError,
			wantOpened: 1,
		},
		{
			name:      "batch commit fails",
			projectID: testutil.ProjectID,
			setup: func(f *fakeClientFactory, s *testutil.FailingStore) {
				s.FailOn[CollectionInstances] = errors.New("aborted")
			},
			wantStatus: http.StatusInternalServerError,
			wantOpened: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeClientFactory()
			store := testutil.NewFailingStore(docstore.NewMemoryStore())
			if tt.setup != nil {
				tt.setup(f, store)
			}
			p := newTestNetworkPipeline(f, store, true)

			res, err := p.Run(context.Background(), tt.projectID)
			if err == nil {
				t.Fatalf("Run() = %+v, want error", res)
			}
			if got := apperrors.StatusCode(err); got != tt.wantStatus {
				t.Errorf("status = %d, want %d (err=%v)", got, tt.wantStatus, err)
			}
			if f.opened != tt.wantOpened || f.closed != tt.wantOpened {
				t.Errorf("opened=%d closed=%d, want %d", f.opened, f.closed, tt.wantOpened)
			}
		})
	}
}

func TestNetworkPipeline_Archive(t *testing.T) {
	f := newFakeClientFactory()
	archive := &recordingArchive{err: errors.New("bucket missing")}
	p := newTestNetworkPipeline(f, docstore.NewMemoryStore(), true).WithArchive(archive)

	if _, err := p.Run(context.Background(), testutil.ProjectID); err != nil {
		t.Fatalf("Run() error = %v, archive failures are not fatal", err)
	}
	if len(archive.objects) != 1 || archive.objects[0] != "demo-project/demo-project_1709292645.json" {
		t.Errorf("archived objects = %v", archive.objects)
	}
}
