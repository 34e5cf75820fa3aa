package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/bigquery"

	"github.com/LizBugFree/network-monitor-demo/internal/domain/network"
	"github.com/LizBugFree/network-monitor-demo/internal/pkg/utils"
)

// maxInsertRows bounds one streaming insert request
const maxInsertRows = 500

// BigQueryExporter streams metric points into a BigQuery table
type BigQueryExporter struct {
	client  *bigquery.Client
	dataset string
	table   string
}

// NewBigQueryExporter opens a BigQuery client for the project in creds
func NewBigQueryExporter(ctx context.Context, creds GCPCredentials, dataset, table string) (*BigQueryExporter, error) {
	client, err := bigquery.NewClient(ctx, creds.ProjectID, creds.clientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create BigQuery client: %w", err)
	}
	return &BigQueryExporter{client: client, dataset: dataset, table: table}, nil
}

// ExportPoints inserts points stamped with the cycle timestamp
func (e *BigQueryExporter) ExportPoints(ctx context.Context, projectID, collectionTimestamp string, points []network.MetricPoint) error {
	rows := make([]*MetricPointRow, 0, len(points))
	for i, p := range points {
		rows = append(rows, &MetricPointRow{
			Point:               p,
			ProjectID:           projectID,
			CollectionTimestamp: collectionTimestamp,
			InsertID:            fmt.Sprintf("%s_%s_%d", projectID, collectionTimestamp, i),
		})
	}

	inserter := e.client.Dataset(e.dataset).Table(e.table).Inserter()
	for i, chunk := range utils.Chunk(rows, maxInsertRows) {
		if err := inserter.Put(ctx, chunk); err != nil {
			return fmt.Errorf("BigQuery insert chunk %d: %w", i, err)
		}
	}
	return nil
}

// Close releases the BigQuery client
func (e *BigQueryExporter) Close() error {
	return e.client.Close()
}

// MetricPointRow is one exported row. Labels are stored as JSON strings.
type MetricPointRow struct {
	Point               network.MetricPoint
	ProjectID           string
	CollectionTimestamp string
	InsertID            string
}

// Save implements bigquery.ValueSaver
func (r *MetricPointRow) Save() (map[string]bigquery.Value, string, error) {
	resourceLabels, err := json.Marshal(r.Point.ResourceLabels)
	if err != nil {
		return nil, "", err
	}
	metricLabels, err := json.Marshal(r.Point.MetricLabels)
	if err != nil {
		return nil, "", err
	}

	var value bigquery.Value
	if r.Point.Value != nil {
		value = *r.Point.Value
	}

	return map[string]bigquery.Value{
		"project_id":           r.ProjectID,
		"collection_timestamp": r.CollectionTimestamp,
		"metric_type":          r.Point.MetricType,
		"resource_type":        r.Point.ResourceType,
		"resource_labels":      string(resourceLabels),
		"metric_labels":        string(metricLabels),
		"timestamp":            r.Point.Timestamp,
		"value":                value,
		"value_type":           r.Point.ValueType,
		"metric_kind":          r.Point.MetricKind,
	}, r.InsertID, nil
}
