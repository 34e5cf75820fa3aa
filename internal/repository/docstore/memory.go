package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps documents in process memory
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
	commits     int
}

type memCollection struct {
	order []string
	docs  map[string]Document
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memCollection)}
}

// Set creates or replaces a document
func (m *MemoryStore) Set(ctx context.Context, collection, id string, doc Document) error {
	cp, err := clone(doc)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(collection, id, cp)
	return nil
}

// Add stores doc under a new uuid
func (m *MemoryStore) Add(ctx context.Context, collection string, doc Document) (string, error) {
	id := uuid.NewString()
	return id, m.Set(ctx, collection, id, doc)
}

// NewBatch starts a batch
func (m *MemoryStore) NewBatch() Batch {
	return &memBatch{store: m}
}

// Query returns matching documents
func (m *MemoryStore) Query(ctx context.Context, collection string, q Query) ([]Record, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	m.mu.RLock()
	c, ok := m.collections[collection]
	var records []Record
	if ok {
		records = make([]Record, 0, len(c.order))
		for _, id := range c.order {
			records = append(records, Record{ID: id, Data: c.docs[id]})
		}
	}
	m.mu.RUnlock()

	out := apply(records, q)
	for i := range out {
		cp, err := clone(out[i].Data)
		if err != nil {
			return nil, err
		}
		out[i].Data = cp
	}
	return out, nil
}

// Count returns the number of documents in collection
func (m *MemoryStore) Count(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.collections[collection]; ok {
		return len(c.docs)
	}
	return 0
}

// Commits returns how many batches were committed
func (m *MemoryStore) Commits() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.commits
}

// Ping always succeeds
func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

// Close is a no-op
func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) put(collection, id string, doc Document) {
	c, ok := m.collections[collection]
	if !ok {
		c = &memCollection{docs: make(map[string]Document)}
		m.collections[collection] = c
	}
	if _, exists := c.docs[id]; !exists {
		c.order = append(c.order, id)
	}
	c.docs[id] = doc
}

type memBatch struct {
	store  *MemoryStore
	writes []write
}

func (b *memBatch) Set(collection, id string, doc Document) {
	b.writes = append(b.writes, write{collection: collection, id: id, doc: doc})
}

func (b *memBatch) Add(collection string, doc Document) string {
	id := uuid.NewString()
	b.Set(collection, id, doc)
	return id
}

func (b *memBatch) Len() int { return len(b.writes) }

func (b *memBatch) Commit(ctx context.Context) error {
	if len(b.writes) > MaxBatchOps {
		return fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(b.writes), MaxBatchOps)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	copies := make([]Document, len(b.writes))
	for i, w := range b.writes {
		cp, err := clone(w.doc)
		if err != nil {
			return err
		}
		copies[i] = cp
	}

	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	for i, w := range b.writes {
		b.store.put(w.collection, w.id, copies[i])
	}
	b.store.commits++
	return nil
}

// clone deep-copies doc through its JSON form, which also normalizes
// numbers the way the SQL backend stores them
func clone(doc Document) (Document, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var out Document
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
