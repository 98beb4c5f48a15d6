package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Drivers SQL registrados.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS order_details (
	id TEXT PRIMARY KEY,
	record TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

const upsertQuery = `
INSERT INTO order_details (id, record, updated_at) VALUES (?, ?, ?)
ON CONFLICT (id) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at`

// SQLStore guarda un registro por fila. La misma implementación sirve para
// SQLite (modernc) y Postgres (lib/pq); sqlx adapta los placeholders.
type SQLStore struct {
	db *sqlx.DB
}

func OpenSQL(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// SQLite admite un solo escritor
		db.SetMaxOpenConns(1)
	}
	s, err := NewSQL(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func NewSQL(ctx context.Context, db *sqlx.DB) (*SQLStore, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("migrate order_details: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (json.RawMessage, bool, error) {
	var record string
	err := s.db.GetContext(ctx, &record, s.db.Rebind(`SELECT record FROM order_details WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get order %s: %w", id, err)
	}
	return json.RawMessage(record), true, nil
}

func (s *SQLStore) Put(ctx context.Context, records map[string]json.RawMessage) (err error) {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(upsertQuery))
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for id, raw := range records {
		if _, err = stmt.ExecContext(ctx, id, string(raw), now); err != nil {
			return fmt.Errorf("upsert order %s: %w", id, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLStore) Enumerate(ctx context.Context, fn func(id string, raw json.RawMessage) error) error {
	rows, err := s.db.QueryxContext(ctx, `SELECT id, record FROM order_details ORDER BY id`)
	if err != nil {
		return fmt.Errorf("list order_details: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, record string
		if err := rows.Scan(&id, &record); err != nil {
			return fmt.Errorf("scan order_details: %w", err)
		}
		if err := fn(id, json.RawMessage(record)); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
