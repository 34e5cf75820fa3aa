package docstore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/LizBugFree/network-monitor-demo/internal/config"
)

func newTestStores(t *testing.T) map[string]Store {
	t.Helper()

	sqlStore, err := Open(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "docstore.db"),
	})
	if err != nil {
		t.Fatalf("Open(sqlite) error = %v", err)
	}
	t.Cleanup(func() { sqlStore.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlStore,
	}
}

func TestStore_SetAndQuery(t *testing.T) {
	ctx := context.Background()

	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			docs := []struct {
				id  string
				doc Document
			}{
				{"p1_1", Document{"project_id": "p1", "timestamp": "2024-03-01T10:00:00.000000Z", "networks": 1}},
				{"p1_3", Document{"project_id": "p1", "timestamp": "2024-03-01T12:00:00.000000Z", "networks": 3}},
				{"p1_2", Document{"project_id": "p1", "timestamp": "2024-03-01T11:00:00.000000Z", "networks": 2}},
				{"p2_1", Document{"project_id": "p2", "timestamp": "2024-03-01T13:00:00.000000Z", "networks": 9}},
			}
			for _, d := range docs {
				if err := store.Set(ctx, "network-inventory", d.id, d.doc); err != nil {
					t.Fatalf("Set(%s) error = %v", d.id, err)
				}
			}

			tests := []struct {
				name    string
				query   Query
				wantIDs []string
			}{
				{
					name: "latest for project",
					query: Query{OrderBy: FieldTimestamp, Descending: true, Limit: 1}.
						Where(FieldProjectID, OpEqual, "p1"),
					wantIDs: []string{"p1_3"},
				},
				{
					name:    "ascending order",
					query:   Query{OrderBy: FieldTimestamp}.Where(FieldProjectID, OpEqual, "p1"),
					wantIDs: []string{"p1_1", "p1_2", "p1_3"},
				},
				{
					name: "timestamp range",
					query: Query{OrderBy: FieldTimestamp}.
						Where(FieldTimestamp, OpGreaterOrEqual, "2024-03-01T11:00:00.000000Z").
						Where(FieldTimestamp, OpLess, "2024-03-01T13:00:00.000000Z"),
					wantIDs: []string{"p1_2", "p1_3"},
				},
				{
					name:    "numeric filter",
					query:   Query{OrderBy: "networks"}.Where("networks", OpGreater, 2),
					wantIDs: []string{"p1_3", "p2_1"},
				},
				{
					name:    "no match",
					query:   Query{}.Where(FieldProjectID, OpEqual, "missing"),
					wantIDs: nil,
				},
			}

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					got, err := store.Query(ctx, "network-inventory", tt.query)
					if err != nil {
						t.Fatalf("Query() error = %v", err)
					}
					if len(got) != len(tt.wantIDs) {
						t.Fatalf("Query() returned %d records, want %d", len(got), len(tt.wantIDs))
					}
					for i, r := range got {
						if r.ID != tt.wantIDs[i] {
							t.Errorf("record %d id = %s, want %s", i, r.ID, tt.wantIDs[i])
						}
					}
				})
			}
		})
	}
}

func TestStore_SetReplaces(t *testing.T) {
	ctx := context.Background()

	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Set(ctx, "c", "id", Document{"v": "old"}); err != nil {
				t.Fatal(err)
			}
			if err := store.Set(ctx, "c", "id", Document{"v": "new"}); err != nil {
				t.Fatal(err)
			}

			got, err := store.Query(ctx, "c", Query{})
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != 1 || got[0].Data["v"] != "new" {
				t.Errorf("Query() = %+v, want single replaced document", got)
			}
		})
	}
}

func TestStore_Batch(t *testing.T) {
	ctx := context.Background()

	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			batch := store.NewBatch()
			ids := make(map[string]bool)
			for i := 0; i < 10; i++ {
				ids[batch.Add("subnetworks", Document{"project_id": "p1", "n": i})] = true
			}
			if batch.Len() != 10 {
				t.Errorf("Len() = %d, want 10", batch.Len())
			}
			if len(ids) != 10 {
				t.Errorf("generated %d unique ids, want 10", len(ids))
			}
			if err := batch.Commit(ctx); err != nil {
				t.Fatalf("Commit() error = %v", err)
			}

			got, err := store.Query(ctx, "subnetworks", Query{}.Where(FieldProjectID, OpEqual, "p1"))
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != 10 {
				t.Errorf("Query() returned %d records, want 10", len(got))
			}
		})
	}
}

func TestStore_BatchTooLarge(t *testing.T) {
	ctx := context.Background()

	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			batch := store.NewBatch()
			for i := 0; i <= MaxBatchOps; i++ {
				batch.Set("instances", fmt.Sprintf("id-%d", i), Document{"n": i})
			}

			err := batch.Commit(ctx)
			if !errors.Is(err, ErrBatchTooLarge) {
				t.Fatalf("Commit() error = %v, want ErrBatchTooLarge", err)
			}

			got, err := store.Query(ctx, "instances", Query{})
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != 0 {
				t.Errorf("rejected batch wrote %d documents", len(got))
			}
		})
	}
}

func TestStore_InvalidFilter(t *testing.T) {
	ctx := context.Background()

	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Query(ctx, "c", Query{}.Where("x", "!=", 1))
			if !errors.Is(err, ErrInvalidFilter) {
				t.Errorf("Query() error = %v, want ErrInvalidFilter", err)
			}
		})
	}
}

func TestToDocument(t *testing.T) {
	type rec struct {
		Name  string   `json:"name"`
		Ports []string `json:"ports"`
	}

	doc, err := ToDocument(rec{Name: "allow-ssh", Ports: []string{"22"}})
	if err != nil {
		t.Fatalf("ToDocument() error = %v", err)
	}
	if doc["name"] != "allow-ssh" {
		t.Errorf("name = %v, want allow-ssh", doc["name"])
	}

	if _, err := ToDocument([]int{1, 2}); err == nil {
		t.Error("ToDocument(slice) should fail")
	}

	var back rec
	if err := (Record{Data: doc}).Decode(&back); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if back.Name != "allow-ssh" || len(back.Ports) != 1 {
		t.Errorf("Decode() = %+v", back)
	}
}

func TestSQLStore_Rebind(t *testing.T) {
	pg := &SQLStore{driver: "postgres"}
	lite := &SQLStore{driver: "sqlite"}

	q := "SELECT * FROM documents WHERE collection = ? AND project_id = ?"
	if got := pg.rebind(q); got != "SELECT * FROM documents WHERE collection = $1 AND project_id = $2" {
		t.Errorf("postgres rebind = %q", got)
	}
	if got := lite.rebind(q); got != q {
		t.Errorf("sqlite rebind = %q", got)
	}
}

func TestSelectDocuments(t *testing.T) {
	latest := Query{OrderBy: FieldTimestamp, Descending: true, Limit: 1}.Where(FieldProjectID, OpEqual, "p1")

	tests := []struct {
		name     string
		query    Query
		wantSQL  string
		wantArgs int
	}{
		{
			name:     "latest for project pushes order and limit",
			query:    latest,
			wantSQL:  "SELECT id, data FROM documents WHERE collection = ? AND project_id = ? ORDER BY ts DESC, id LIMIT ?",
			wantArgs: 3,
		},
		{
			name:     "timestamp equality",
			query:    Query{}.Where(FieldProjectID, OpEqual, "p1").Where(FieldTimestamp, OpEqual, "t1"),
			wantSQL:  "SELECT id, data FROM documents WHERE collection = ? AND project_id = ? AND ts = ? ORDER BY ts, id",
			wantArgs: 3,
		},
		{
			name:     "unindexed filter keeps limit in memory",
			query:    Query{OrderBy: FieldTimestamp, Limit: 1}.Where("networks", OpGreater, 2),
			wantSQL:  "SELECT id, data FROM documents WHERE collection = ? ORDER BY ts, id",
			wantArgs: 1,
		},
		{
			name:     "order by other field keeps limit in memory",
			query:    Query{OrderBy: "networks", Descending: true, Limit: 2},
			wantSQL:  "SELECT id, data FROM documents WHERE collection = ? ORDER BY ts, id",
			wantArgs: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotSQL, gotArgs := selectDocuments("network-inventory", tt.query)
			if gotSQL != tt.wantSQL {
				t.Errorf("sql = %q\nwant  %q", gotSQL, tt.wantSQL)
			}
			if len(gotArgs) != tt.wantArgs {
				t.Errorf("args = %v, want %d", gotArgs, tt.wantArgs)
			}
		})
	}
}

func TestSQLStore_LatestAmongManyCycles(t *testing.T) {
	ctx := context.Background()
	store := newTestStores(t)["sqlite"]

	batch := store.NewBatch()
	for i := 0; i < 400; i++ {
		ts := fmt.Sprintf("2024-03-01T%02d:%02d:00.000000Z", i/60, i%60)
		batch.Set("network-inventory", fmt.Sprintf("p1_%03d", i), Document{FieldProjectID: "p1", FieldTimestamp: ts})
	}
	batch.Set("network-inventory", "p2_999", Document{FieldProjectID: "p2", FieldTimestamp: "2024-03-02T00:00:00.000000Z"})
	if err := batch.Commit(ctx); err != nil {
		t.Fatal(err)
	}

	got, err := store.Query(ctx, "network-inventory",
		Query{OrderBy: FieldTimestamp, Descending: true, Limit: 2}.Where(FieldProjectID, OpEqual, "p1"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "p1_399" || got[1].ID != "p1_398" {
		t.Errorf("latest = %+v", got)
	}
}
