package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/LizBugFree/network-monitor-demo/internal/domain/network"
	apperrors "github.com/LizBugFree/network-monitor-demo/internal/pkg/errors"
	"github.com/LizBugFree/network-monitor-demo/internal/pkg/logger"
	"github.com/LizBugFree/network-monitor-demo/internal/pkg/metrics"
	"github.com/LizBugFree/network-monitor-demo/internal/pkg/utils"
	"github.com/LizBugFree/network-monitor-demo/internal/repository/docstore"
)

// Document collections
const (
	CollectionNetworkInventory = "network-inventory"
	CollectionNetworks         = "networks"
	CollectionSubnetworks      = "subnetworks"
	CollectionFirewallRules    = "firewall-rules"
	CollectionRouters          = "routers"
	CollectionNatGateways      = "nat-gateways"
	CollectionInstances        = "instances"
	CollectionMetricsSummaries = "metrics-summaries"
	CollectionNetworkMetrics   = "network-metrics"
)

// DefaultBatchSize keeps every commit under docstore.MaxBatchOps
const DefaultBatchSize = 450

// Stamp is the cycle metadata written into every persisted record
type Stamp struct {
	// Field receives Timestamp: "timestamp" for resources, "collection_timestamp" for metric points
	Field     string
	Timestamp string
	ProjectID string
}

func (s Stamp) apply(doc docstore.Document) {
	doc[s.Field] = s.Timestamp
	doc[docstore.FieldProjectID] = s.ProjectID
}

// WriteReport counts the batch commits issued per collection
type WriteReport struct {
	mu      sync.Mutex
	Commits map[string]int
}

func newWriteReport() *WriteReport {
	return &WriteReport{Commits: make(map[string]int)}
}

func (r *WriteReport) add(collection string, commits int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Commits[collection] += commits
}

// SnapshotWriter persists snapshots as a summary document plus batched
// per-record collections
type SnapshotWriter struct {
	store     docstore.Store
	batchSize int
	logger    *logger.Logger
}

// NewSnapshotWriter creates a writer committing at most batchSize records per batch
func NewSnapshotWriter(store docstore.Store, batchSize int, log *logger.Logger) *SnapshotWriter {
	if batchSize <= 0 || batchSize > docstore.MaxBatchOps {
		batchSize = DefaultBatchSize
	}
	return &SnapshotWriter{
		store:     store,
		batchSize: batchSize,
		logger:    log.Component("snapshot_writer"),
	}
}

// WriteCollection stamps docs and commits them in consecutive chunks, one
// chunk at a time. The first failed commit stops the write and is returned;
// earlier chunks stay committed. It returns the number of successful commits.
func (w *SnapshotWriter) WriteCollection(ctx context.Context, collection string, docs []docstore.Document, stamp Stamp) (int, error) {
	chunks := utils.Chunk(docs, w.batchSize)
	commits := 0
	for i, chunk := range chunks {
		batch := w.store.NewBatch()
		for _, doc := range chunk {
			stamp.apply(doc)
			batch.Add(collection, doc)
		}

		start := time.Now()
		err := batch.Commit(ctx)
		metrics.RecordBatchCommit(collection, err, time.Since(start))
		if err != nil {
			w.logger.WithFields(map[string]interface{}{
				"collection": collection,
				"chunk":      i + 1,
				"chunks":     len(chunks),
				"project_id": stamp.ProjectID,
			}).ErrorWithErr(err, "Batch commit failed")
			return commits, apperrors.Persistence(
				fmt.Sprintf("failed to commit %s chunk %d/%d", collection, i+1, len(chunks)), err)
		}
		commits++
	}
	return commits, nil
}

type collectionWrite struct {
	collection string
	docs       []docstore.Document
}

// writeCollections writes independent collections concurrently. Each
// collection still commits its own chunks in order. All failures are joined.
func (w *SnapshotWriter) writeCollections(ctx context.Context, writes []collectionWrite, stamp Stamp, report *WriteReport) error {
	errs := make([]error, len(writes))

	var g errgroup.Group
	for i, cw := range writes {
		g.Go(func() error {
			commits, err := w.WriteCollection(ctx, cw.collection, cw.docs, stamp)
			report.add(cw.collection, commits)
			errs[i] = err
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

// WriteNetworkSnapshot stores every record class in its own collection, then
// the inventory summary at the snapshot's document id. A summary exists only
// for cycles whose records were all committed.
func (w *SnapshotWriter) WriteNetworkSnapshot(ctx context.Context, s *network.Snapshot) (*WriteReport, error) {
	report := newWriteReport()
	stamp := Stamp{Field: docstore.FieldTimestamp, Timestamp: s.TimestampString(), ProjectID: s.ProjectID()}

	summary, err := docstore.ToDocument(struct {
		Timestamp string                 `json:"timestamp"`
		ProjectID string                 `json:"project_id"`
		Summary   network.ResourceCounts `json:"summary"`
	}{s.TimestampString(), s.ProjectID(), s.Counts()})
	if err != nil {
		return report, apperrors.Internal("failed to encode inventory summary", err)
	}

	writes, err := networkWrites(s)
	if err != nil {
		return report, apperrors.Internal("failed to encode snapshot records", err)
	}
	if err := w.writeCollections(ctx, writes, stamp, report); err != nil {
		return report, err
	}

	// The summary marks the cycle as committed, so it goes last
	if err := w.store.Set(ctx, CollectionNetworkInventory, s.DocumentID(), summary); err != nil {
		return report, apperrors.Persistence("failed to write inventory summary", err)
	}

	w.logger.WithFields(map[string]interface{}{
		"project_id":  s.ProjectID(),
		"document_id": s.DocumentID(),
		"commits":     report.Commits,
	}).Info("Network snapshot persisted")
	return report, nil
}

// WriteMetricsSnapshot stores every point of every family in the
// network-metrics collection, then the metrics summary
func (w *SnapshotWriter) WriteMetricsSnapshot(ctx context.Context, m *network.MetricsSnapshot) (*WriteReport, error) {
	report := newWriteReport()
	stamp := Stamp{Field: docstore.FieldCollectionTimestamp, Timestamp: m.TimestampString(), ProjectID: m.ProjectID()}

	summary, err := docstore.ToDocument(struct {
		Timestamp               string         `json:"timestamp"`
		ProjectID               string         `json:"project_id"`
		CollectionPeriodMinutes int            `json:"collection_period_minutes"`
		MetricsCount            map[string]int `json:"metrics_count"`
	}{m.TimestampString(), m.ProjectID(), m.DurationMinutes, m.Breakdown()})
	if err != nil {
		return report, apperrors.Internal("failed to encode metrics summary", err)
	}

	docs, err := toDocuments(m.AllPoints())
	if err != nil {
		return report, apperrors.Internal("failed to encode metric points", err)
	}
	commits, err := w.WriteCollection(ctx, CollectionNetworkMetrics, docs, stamp)
	report.add(CollectionNetworkMetrics, commits)
	if err != nil {
		return report, err
	}

	if err := w.store.Set(ctx, CollectionMetricsSummaries, m.DocumentID(), summary); err != nil {
		return report, apperrors.Persistence("failed to write metrics summary", err)
	}

	w.logger.WithFields(map[string]interface{}{
		"project_id": m.ProjectID(),
		"points":     len(docs),
		"commits":    commits,
	}).Info("Metrics snapshot persisted")
	return report, nil
}

func networkWrites(s *network.Snapshot) ([]collectionWrite, error) {
	var writes []collectionWrite
	add := func(collection string, docs []docstore.Document, err error) error {
		if err != nil {
			return fmt.Errorf("%s: %w", collection, err)
		}
		writes = append(writes, collectionWrite{collection: collection, docs: docs})
		return nil
	}

	networks, err := toDocuments(s.Networks)
	if err := add(CollectionNetworks, networks, err); err != nil {
		return nil, err
	}
	subnets, err := toDocuments(s.Subnetworks)
	if err := add(CollectionSubnetworks, subnets, err); err != nil {
		return nil, err
	}
	rules, err := toDocuments(s.FirewallRules)
	if err := add(CollectionFirewallRules, rules, err); err != nil {
		return nil, err
	}
	routers, err := toDocuments(s.Routers)
	if err := add(CollectionRouters, routers, err); err != nil {
		return nil, err
	}
	nats, err := toDocuments(s.NatGateways)
	if err := add(CollectionNatGateways, nats, err); err != nil {
		return nil, err
	}
	instances, err := toDocuments(s.Instances)
	if err := add(CollectionInstances, instances, err); err != nil {
		return nil, err
	}
	return writes, nil
}

func toDocuments[T any](records []T) ([]docstore.Document, error) {
	docs := make([]docstore.Document, 0, len(records))
	for _, r := range records {
		doc, err := docstore.ToDocument(r)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
