package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Compile-time interface check.
var _ SlotStore = (*SQLStore)(nil)

// Dialect selects placeholder syntax for the slots table queries.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

func (d Dialect) String() string {
	switch d {
	case DialectPostgres:
		return "postgres"
	default:
		return "sqlite"
	}
}

func (d Dialect) bind(n int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// SQLStore keeps each slot as one row of the `slots` table:
// slot TEXT PRIMARY KEY, payload BLOB, updated_at.
// The table is created by the database package (migrations for SQLite,
// EnsureSchema for Postgres).
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// NewSQLStore wraps an open database handle.
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect, now: time.Now}
}

func (s *SQLStore) Get(ctx context.Context, slot string) ([]byte, error) {
	query := fmt.Sprintf(`SELECT payload FROM slots WHERE slot = %s`, s.dialect.bind(1))

	var payload []byte
	err := s.db.QueryRowContext(ctx, query, slot).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select slot %s: %w", slot, err)
	}
	return payload, nil
}

func (s *SQLStore) Put(ctx context.Context, slot string, data []byte) error {
	query := fmt.Sprintf(`INSERT INTO slots (slot, payload, updated_at) VALUES (%s, %s, %s)
		ON CONFLICT (slot) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		s.dialect.bind(1), s.dialect.bind(2), s.dialect.bind(3))

	if _, err := s.db.ExecContext(ctx, query, slot, data, s.now().UTC()); err != nil {
		return fmt.Errorf("failed to upsert slot %s: %w", slot, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, slot string) error {
	query := fmt.Sprintf(`DELETE FROM slots WHERE slot = %s`, s.dialect.bind(1))
	if _, err := s.db.ExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("failed to delete slot %s: %w", slot, err)
	}
	return nil
}
