package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	perr "github.com/example/checkout-reconciler/pkg/errors"
)

// pgxConn is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type pgxConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func OpenPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

type PostgresStore struct {
	conn pgxConn
}

func NewPostgresStore(conn pgxConn) *PostgresStore {
	return &PostgresStore{conn: conn}
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			gateway_payment_id TEXT,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS orders_gateway_payment_id_idx ON orders (gateway_payment_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.conn.Exec(ctx, stmt); err != nil {
			return perr.Wrap(perr.CodeStoreWrite, "migrate orders", err)
		}
	}
	return nil
}

func (s *PostgresStore) GetOrderByID(ctx context.Context, id string) (*OrderRecord, error) {
	return s.queryOne(ctx,
		`SELECT id, status, COALESCE(gateway_payment_id, ''), updated_at
		 FROM orders
		 WHERE id = $1`,
		id,
	)
}

func (s *PostgresStore) GetOrderByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*OrderRecord, error) {
	return s.queryOne(ctx,
		`SELECT id, status, COALESCE(gateway_payment_id, ''), updated_at
		 FROM orders
		 WHERE gateway_payment_id = $1
		 ORDER BY updated_at DESC
		 LIMIT 1`,
		gatewayPaymentID,
	)
}

func (s *PostgresStore) UpsertOrder(ctx context.Context, o *OrderRecord) error {
	updatedAt := o.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	_, err := s.conn.Exec(ctx,
		`INSERT INTO orders (id, status, gateway_payment_id, updated_at)
		 VALUES ($1, $2, NULLIF($3, ''), $4)
		 ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			gateway_payment_id = EXCLUDED.gateway_payment_id,
			updated_at = EXCLUDED.updated_at`,
		o.ID, o.Status, o.GatewayPaymentID, updatedAt,
	)
	if err != nil {
		return perr.Wrap(perr.CodeStoreWrite, "upsert order "+o.ID, err)
	}
	return nil
}

func (s *PostgresStore) queryOne(ctx context.Context, query, arg string) (*OrderRecord, error) {
	var o OrderRecord
	err := s.conn.QueryRow(ctx, query, arg).Scan(&o.ID, &o.Status, &o.GatewayPaymentID, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, perr.Wrap(perr.CodeStoreRead, "query order", err)
	}
	return &o, nil
}
