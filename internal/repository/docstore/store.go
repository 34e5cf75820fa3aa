// Package docstore is a small document store with Firestore-like semantics:
// documents are JSON objects addressed by (collection, id), written singly or
// through atomic batches, and read back with simple field filters.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// MaxBatchOps is the largest number of writes one batch may commit
const MaxBatchOps = 500

// Fields the store indexes for project filters and timestamp ordering
const (
	FieldProjectID           = "project_id"
	FieldTimestamp           = "timestamp"
	FieldCollectionTimestamp = "collection_timestamp"
)

var (
	// ErrBatchTooLarge is returned by Commit when a batch exceeds MaxBatchOps
	ErrBatchTooLarge = errors.New("docstore: batch exceeds maximum operations")
	// ErrInvalidFilter is returned by Query for an unknown operator
	ErrInvalidFilter = errors.New("docstore: invalid filter operator")
)

// Document is a JSON object
type Document map[string]any

// Record is a stored document with its id
type Record struct {
	ID   string
	Data Document
}

// Filter operators
const (
	OpEqual          = "=="
	OpLess           = "<"
	OpLessOrEqual    = "<="
	OpGreater        = ">"
	OpGreaterOrEqual = ">="
)

// Filter compares one document field against a value
type Filter struct {
	Field string
	Op    string
	Value any
}

// Query selects documents of one collection. OrderBy sorts by a field
// ascending unless Descending is set; Limit 0 means unbounded.
type Query struct {
	Filters    []Filter
	OrderBy    string
	Descending bool
	Limit      int
}

// Where returns q with an additional filter
func (q Query) Where(field, op string, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Op: op, Value: value})
	return q
}

// Store is implemented by every backend
type Store interface {
	// Set creates or replaces the document at collection/id
	Set(ctx context.Context, collection, id string, doc Document) error
	// Add stores doc under a generated id and returns it
	Add(ctx context.Context, collection string, doc Document) (string, error)
	// NewBatch starts an atomic group of writes
	NewBatch() Batch
	// Query returns matching documents of collection
	Query(ctx context.Context, collection string, q Query) ([]Record, error)
	Ping(ctx context.Context) error
	Close() error
}

// Batch collects writes that Commit applies all-or-nothing
type Batch interface {
	Set(collection, id string, doc Document)
	// Add queues doc under a generated id and returns it
	Add(collection string, doc Document) string
	Len() int
	Commit(ctx context.Context) error
}

// write is one queued batch operation
type write struct {
	collection string
	id         string
	doc        Document
}

// ToDocument converts a JSON-serializable value to a Document
func ToDocument(v any) (Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("document is not a JSON object: %w", err)
	}
	return doc, nil
}

// Decode unmarshals the record data into v
func (r Record) Decode(v any) error {
	data, err := json.Marshal(r.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// indexTimestamp returns the timestamp the store orders a document by
func indexTimestamp(doc Document) string {
	if ts, ok := doc[FieldTimestamp].(string); ok {
		return ts
	}
	if ts, ok := doc[FieldCollectionTimestamp].(string); ok {
		return ts
	}
	return ""
}

func indexProjectID(doc Document) string {
	if p, ok := doc[FieldProjectID].(string); ok {
		return p
	}
	return ""
}

func validateQuery(q Query) error {
	for _, f := range q.Filters {
		switch f.Op {
		case OpEqual, OpLess, OpLessOrEqual, OpGreater, OpGreaterOrEqual:
		default:
			return fmt.Errorf("%w: %q", ErrInvalidFilter, f.Op)
		}
	}
	return nil
}

// apply filters, orders and limits records in memory
func apply(records []Record, q Query) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if matches(r.Data, q.Filters) {
			out = append(out, r)
		}
	}

	if q.OrderBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			c, _ := compare(out[i].Data[q.OrderBy], out[j].Data[q.OrderBy])
			if q.Descending {
				return c > 0
			}
			return c < 0
		})
	}

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func matches(doc Document, filters []Filter) bool {
	for _, f := range filters {
		c, ok := compare(doc[f.Field], f.Value)
		if !ok {
			return false
		}
		switch f.Op {
		case OpEqual:
			if c != 0 {
				return false
			}
		case OpLess:
			if c >= 0 {
				return false
			}
		case OpLessOrEqual:
			if c > 0 {
				return false
			}
		case OpGreater:
			if c <= 0 {
				return false
			}
		case OpGreaterOrEqual:
			if c < 0 {
				return false
			}
		}
	}
	return true
}

// compare orders two scalar values of the same kind. ok is false when the
// values are not comparable.
func compare(a, b any) (int, bool) {
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	case bool:
		y, ok := b.(bool)
		if !ok || x != y {
			return 1, ok
		}
		return 0, true
	}

	x, ok := toFloat(a)
	if !ok {
		return 0, false
	}
	y, ok := toFloat(b)
	if !ok {
		return 0, false
	}
	switch {
	case x < y:
		return -1, true
	case x > y:
		return 1, true
	}
	return 0, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
