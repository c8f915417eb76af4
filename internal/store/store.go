// Package store keeps package data entries in SQLite and notifies
// subscribers when they change.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/quantmind-br/pkgstatus/internal/core"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a package id is not in the store
var ErrNotFound = errors.New("package not found")

// Store is the package-data store with separate read/write pools
type Store struct {
	write  *sql.DB
	read   *sql.DB
	path   string
	broker *Broker
}

// Record is a stored entry with its bookkeeping columns
type Record struct {
	ID        string                 `json:"id"`
	Revision  int64                  `json:"revision"`
	UpdatedAt time.Time              `json:"updated_at"`
	Entry     *core.PackageDataEntry `json:"entry"`
}

// SyncResult lists the ids touched by Sync
type SyncResult struct {
	Updated []string
	Deleted []string
}

// Changed reports whether Sync modified anything
func (r SyncResult) Changed() bool {
	return len(r.Updated) > 0 || len(r.Deleted) > 0
}

// New opens (or creates) the store at dbPath
func New(ctx context.Context, dbPath string) (*Store, error) {
	// Connection string with pragmas
	connStr := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dbPath)

	// Write pool: MUST be 1 connection only
	write, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open write connection: %w", err)
	}
	write.SetMaxOpenConns(1)
	write.SetMaxIdleConns(1)
	write.SetConnMaxIdleTime(time.Minute)
	write.SetConnMaxLifetime(time.Hour)

	read, err := sql.Open("sqlite", connStr)
	if err != nil {
		write.Close()
		return nil, fmt.Errorf("open read connection: %w", err)
	}
	read.SetMaxOpenConns(10)
	read.SetMaxIdleConns(5)
	read.SetConnMaxIdleTime(time.Minute)
	read.SetConnMaxLifetime(time.Hour)

	s := &Store{
		write:  write,
		read:   read,
		path:   dbPath,
		broker: NewBroker(),
	}

	if err := s.initSchema(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return s, nil
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

// Close ends all subscriptions and closes both connection pools
func (s *Store) Close() error {
	s.broker.Close()
	writeErr := s.write.Close()
	readErr := s.read.Close()
	if writeErr != nil {
		return writeErr
	}
	return readErr
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS packages (
    id TEXT PRIMARY KEY,
    data TEXT NOT NULL,
    revision INTEGER NOT NULL DEFAULT 1,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS schema_migrations (
    version INTEGER PRIMARY KEY,
    applied_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    description TEXT
);

INSERT OR IGNORE INTO schema_migrations (version, description) VALUES (1, 'package data');
	`

	if _, err := s.write.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// Subscribe streams changes to package id, or to every package when id is
// empty. See Subscription for ownership rules.
func (s *Store) Subscribe(ctx context.Context, id string) *Subscription {
	return s.broker.Subscribe(ctx, id)
}

// Subscribers returns the number of active subscriptions
func (s *Store) Subscribers() int {
	return s.broker.Len()
}

type execer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const upsertQuery = `
INSERT INTO packages (id, data, revision, updated_at)
VALUES (?, ?, 1, CURRENT_TIMESTAMP)
ON CONFLICT(id) DO UPDATE SET
    data = excluded.data,
    revision = packages.revision + 1,
    updated_at = CURRENT_TIMESTAMP
RETURNING revision
`

func upsert(ctx context.Context, db execer, id string, data []byte) (int64, error) {
	var revision int64
	if err := db.QueryRowContext(ctx, upsertQuery, id, string(data)).Scan(&revision); err != nil {
		return 0, fmt.Errorf("upsert package %s: %w", id, err)
	}
	return revision, nil
}

// Put inserts or replaces entry and returns its new revision
func (s *Store) Put(ctx context.Context, entry *core.PackageDataEntry) (int64, error) {
	id := entry.ID()
	if id == "" {
		return 0, fmt.Errorf("put package: missing manifest id")
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return 0, fmt.Errorf("marshal package %s: %w", id, err)
	}

	revision, err := upsert(ctx, s.write, id, data)
	if err != nil {
		return 0, err
	}

	s.broker.Publish(Event{Type: EventPut, ID: id, Revision: revision, Entry: entry})
	return revision, nil
}

// Get retrieves a package by id
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	query := `SELECT id, data, revision, updated_at FROM packages WHERE id = ?`

	rec, err := scanRecord(s.read.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query package: %w", err)
	}
	return rec, nil
}

// List retrieves every package ordered by id
func (s *Store) List(ctx context.Context) ([]Record, error) {
	query := `SELECT id, data, revision, updated_at FROM packages ORDER BY id`

	rows, err := s.read.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query packages: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan package: %w", err)
		}
		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return records, nil
}

// Entries returns the entries of every stored package ordered by id
func (s *Store) Entries(ctx context.Context) ([]*core.PackageDataEntry, error) {
	records, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]*core.PackageDataEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, rec.Entry)
	}
	return entries, nil
}

// Delete removes a package by id
func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.write.ExecContext(ctx, "DELETE FROM packages WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete package: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	s.broker.Publish(Event{Type: EventDelete, ID: id})
	return nil
}

// Sync makes the store hold exactly entries. Unchanged entries keep their
// revision. Events are published after the transaction commits.
func (s *Store) Sync(ctx context.Context, entries []*core.PackageDataEntry) (SyncResult, error) {
	var result SyncResult

	tx, err := s.write.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("begin sync: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := storedData(ctx, tx)
	if err != nil {
		return result, err
	}

	var events []Event
	wanted := make(map[string]bool, len(entries))
	for _, entry := range entries {
		id := entry.ID()
		if id == "" {
			return result, fmt.Errorf("sync package: missing manifest id")
		}
		wanted[id] = true

		data, err := json.Marshal(entry)
		if err != nil {
			return result, fmt.Errorf("marshal package %s: %w", id, err)
		}
		if old, ok := existing[id]; ok && old == string(data) {
			continue
		}

		revision, err := upsert(ctx, tx, id, data)
		if err != nil {
			return result, err
		}
		result.Updated = append(result.Updated, id)
		events = append(events, Event{Type: EventPut, ID: id, Revision: revision, Entry: entry})
	}

	for id := range existing {
		if wanted[id] {
			continue
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM packages WHERE id = ?", id); err != nil {
			return result, fmt.Errorf("delete package %s: %w", id, err)
		}
		result.Deleted = append(result.Deleted, id)
		events = append(events, Event{Type: EventDelete, ID: id})
	}

	if err := tx.Commit(); err != nil {
		return SyncResult{}, fmt.Errorf("commit sync: %w", err)
	}

	for _, evt := range events {
		s.broker.Publish(evt)
	}
	return result, nil
}

func storedData(ctx context.Context, tx *sql.Tx) (map[string]string, error) {
	rows, err := tx.QueryContext(ctx, "SELECT id, data FROM packages")
	if err != nil {
		return nil, fmt.Errorf("query packages: %w", err)
	}
	defer rows.Close()

	data := make(map[string]string)
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan package: %w", err)
		}
		data[id] = raw
	}
	return data, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var rec Record
	var raw string

	if err := row.Scan(&rec.ID, &raw, &rec.Revision, &rec.UpdatedAt); err != nil {
		return nil, err
	}

	rec.Entry = &core.PackageDataEntry{}
	if err := json.Unmarshal([]byte(raw), rec.Entry); err != nil {
		return nil, fmt.Errorf("unmarshal package %s: %w", rec.ID, err)
	}
	return &rec, nil
}
