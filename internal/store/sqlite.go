package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"

	perr "github.com/example/checkout-reconciler/pkg/errors"
)

func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// SQLiteStore works against any database/sql SQLite driver.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			gateway_payment_id TEXT,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS orders_gateway_payment_id_idx
			ON orders (gateway_payment_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return perr.Wrap(perr.CodeStoreWrite, "migrate orders", err)
		}
	}
	return nil
}

func (s *SQLiteStore) GetOrderByID(ctx context.Context, id string) (*OrderRecord, error) {
	return s.queryOne(ctx,
		`SELECT id, status, COALESCE(gateway_payment_id, ''), updated_at
		 FROM orders
		 WHERE id = ?`,
		id,
	)
}

func (s *SQLiteStore) GetOrderByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*OrderRecord, error) {
	return s.queryOne(ctx,
		`SELECT id, status, COALESCE(gateway_payment_id, ''), updated_at
		 FROM orders
		 WHERE gateway_payment_id = ?
		 ORDER BY updated_at DESC
		 LIMIT 1`,
		gatewayPaymentID,
	)
}

func (s *SQLiteStore) UpsertOrder(ctx context.Context, o *OrderRecord) error {
	updatedAt := o.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO orders (id, status, gateway_payment_id, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			gateway_payment_id = excluded.gateway_payment_id,
			updated_at = excluded.updated_at`,
		o.ID,
		o.Status,
		nullIfEmpty(o.GatewayPaymentID),
		updatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return perr.Wrap(perr.CodeStoreWrite, "upsert order "+o.ID, err)
	}
	return nil
}

func (s *SQLiteStore) queryOne(ctx context.Context, query string, arg string) (*OrderRecord, error) {
	var (
		o         OrderRecord
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&o.ID, &o.Status, &o.GatewayPaymentID, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, perr.Wrap(perr.CodeStoreRead, "query order", err)
	}
	if o.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, perr.Wrap(perr.CodeStoreRead, "parse updated_at", err)
	}
	return &o, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
