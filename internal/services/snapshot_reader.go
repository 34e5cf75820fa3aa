package services

import (
	"context"

	apperrors "github.com/LizBugFree/network-monitor-demo/internal/pkg/errors"
	"github.com/LizBugFree/network-monitor-demo/internal/repository/docstore"
)

// SnapshotReader serves the latest persisted summaries
type SnapshotReader struct {
	store docstore.Store
}

// NewSnapshotReader creates a reader over store
func NewSnapshotReader(store docstore.Store) *SnapshotReader {
	return &SnapshotReader{store: store}
}

// LatestInventory returns the newest network-inventory summary of projectID
func (r *SnapshotReader) LatestInventory(ctx context.Context, projectID string) (docstore.Record, error) {
	return r.latest(ctx, CollectionNetworkInventory, projectID, "network inventory")
}

// LatestMetricsSummary returns the newest metrics summary of projectID
func (r *SnapshotReader) LatestMetricsSummary(ctx context.Context, projectID string) (docstore.Record, error) {
	return r.latest(ctx, CollectionMetricsSummaries, projectID, "metrics summary")
}

// Records returns the records of collection written by the cycle at timestamp
func (r *SnapshotReader) Records(ctx context.Context, collection, projectID, timestamp string) ([]docstore.Record, error) {
	records, err := r.store.Query(ctx, collection, docstore.Query{}.
		Where(docstore.FieldProjectID, docstore.OpEqual, projectID).
		Where(StampField(collection), docstore.OpEqual, timestamp))
	if err != nil {
		return nil, apperrors.Persistence("failed to query "+collection, err)
	}
	return records, nil
}

// IsRecordCollection reports whether collection holds per-cycle records
// rather than summaries
func IsRecordCollection(collection string) bool {
	switch collection {
	case CollectionNetworks, CollectionSubnetworks, CollectionFirewallRules, CollectionRouters,
		CollectionNatGateways, CollectionInstances, CollectionNetworkMetrics:
		return true
	}
	return false
}

// StampField names the field carrying the cycle timestamp in collection.
// Metric points are stamped with collection_timestamp.
func StampField(collection string) string {
	if collection == CollectionNetworkMetrics {
		return docstore.FieldCollectionTimestamp
	}
	return docstore.FieldTimestamp
}

func (r *SnapshotReader) latest(ctx context.Context, collection, projectID, what string) (docstore.Record, error) {
	q := docstore.Query{
		OrderBy:    docstore.FieldTimestamp,
		Descending: true,
		Limit:      1,
	}.Where(docstore.FieldProjectID, docstore.OpEqual, projectID)

	records, err := r.store.Query(ctx, collection, q)
	if err != nil {
		return docstore.Record{}, apperrors.Persistence("failed to query "+collection, err)
	}
	if len(records) == 0 {
		return docstore.Record{}, apperrors.NotFound(what)
	}
	return records[0], nil
}
