package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/LizBugFree/network-monitor-demo/internal/config"
)

const upsert = `INSERT INTO documents (collection, id, project_id, ts, data) VALUES (?, ?, ?, ?, ?)
ON CONFLICT (collection, id) DO UPDATE SET project_id = excluded.project_id, ts = excluded.ts, data = excluded.data`

// Open returns the store selected by cfg.Driver
func Open(cfg config.DatabaseConfig) (Store, error) {
	if cfg.Driver == "memory" {
		return NewMemoryStore(), nil
	}
	db, err := OpenDB(cfg)
	if err != nil {
		return nil, err
	}
	store, err := NewSQLStore(context.Background(), db, cfg.Driver)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// OpenDB opens and pings the sqlite or postgres database described by cfg
func OpenDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = sql.Open("sqlite", cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}

		if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}

		// SQLite only supports one writer at a time
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(time.Hour)

	case "postgres":
		dsn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode,
		)

		db, err = sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres database: %w", err)
		}

		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// SQLStore keeps documents as JSON rows of a single table
type SQLStore struct {
	db     *sql.DB
	driver string
}

// NewSQLStore wraps db and applies pending schema migrations
func NewSQLStore(ctx context.Context, db *sql.DB, driver string) (*SQLStore, error) {
	if _, err := Migrate(ctx, db, driver); err != nil {
		return nil, err
	}
	return &SQLStore{db: db, driver: driver}, nil
}

// Set creates or replaces a document
func (s *SQLStore) Set(ctx context.Context, collection, id string, doc Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.rebind(upsert),
		collection, id, indexProjectID(doc), indexTimestamp(doc), string(data))
	if err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", collection, id, err)
	}
	return nil
}

// Add stores doc under a new uuid
func (s *SQLStore) Add(ctx context.Context, collection string, doc Document) (string, error) {
	id := uuid.NewString()
	return id, s.Set(ctx, collection, id, doc)
}

// NewBatch starts a batch committed in one transaction
func (s *SQLStore) NewBatch() Batch {
	return &sqlBatch{store: s}
}

// Query evaluates project_id equality and timestamp comparisons in SQL. When
// every filter is handled there and the order is by timestamp, ORDER BY and
// LIMIT are pushed down as well. The rest of the query runs in memory.
func (s *SQLStore) Query(ctx context.Context, collection string, q Query) ([]Record, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	query, args := selectDocuments(collection, q)
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", collection, err)
		}
		var doc Document
		if err := json.Unmarshal([]byte(data), &doc); err != nil {
			return nil, fmt.Errorf("corrupt document %s/%s: %w", collection, id, err)
		}
		records = append(records, Record{ID: id, Data: doc})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return apply(records, q), nil
}

var sqlOps = map[string]string{
	OpEqual:          "=",
	OpLess:           "<",
	OpLessOrEqual:    "<=",
	OpGreater:        ">",
	OpGreaterOrEqual: ">=",
}

// selectDocuments builds the SELECT for q over the indexed columns. The ts
// column holds the timestamp field, or collection_timestamp when a document
// has no timestamp.
func selectDocuments(collection string, q Query) (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT id, data FROM documents WHERE collection = ?")
	args := []any{collection}

	pushed := 0
	for _, f := range q.Filters {
		v, ok := f.Value.(string)
		if !ok {
			continue
		}
		switch {
		case f.Field == FieldProjectID && f.Op == OpEqual:
			b.WriteString(" AND project_id = ?")
		case f.Field == FieldTimestamp:
			b.WriteString(" AND ts " + sqlOps[f.Op] + " ?")
		default:
			continue
		}
		args = append(args, v)
		pushed++
	}

	complete := pushed == len(q.Filters) && (q.OrderBy == "" || q.OrderBy == FieldTimestamp)
	if complete && q.OrderBy == FieldTimestamp && q.Descending {
		b.WriteString(" ORDER BY ts DESC, id")
	} else {
		b.WriteString(" ORDER BY ts, id")
	}
	if complete && q.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
	}
	return b.String(), args
}

// Ping checks the database connection
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) rebind(query string) string {
	return rebind(s.driver, query)
}

// rebind rewrites ? placeholders to $n for postgres
func rebind(driver, query string) string {
	if driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type sqlBatch struct {
	store  *SQLStore
	writes []write
}

func (b *sqlBatch) Set(collection, id string, doc Document) {
	b.writes = append(b.writes, write{collection: collection, id: id, doc: doc})
}

func (b *sqlBatch) Add(collection string, doc Document) string {
	id := uuid.NewString()
	b.Set(collection, id, doc)
	return id
}

func (b *sqlBatch) Len() int { return len(b.writes) }

func (b *sqlBatch) Commit(ctx context.Context) error {
	if len(b.writes) > MaxBatchOps {
		return fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(b.writes), MaxBatchOps)
	}

	tx, err := b.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, b.store.rebind(upsert))
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}
	defer stmt.Close()

	for _, w := range b.writes {
		data, err := json.Marshal(w.doc)
		if err != nil {
			return fmt.Errorf("marshal document %s/%s: %w", w.collection, w.id, err)
		}
		if _, err := stmt.ExecContext(ctx, w.collection, w.id, indexProjectID(w.doc), indexTimestamp(w.doc), string(data)); err != nil {
			return fmt.Errorf("failed to write %s/%s: %w", w.collection, w.id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}
