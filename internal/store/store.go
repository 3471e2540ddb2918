// Package store is the local order store the reconciler polls. It is the
// cheaper and more authoritative of the two sources of truth: a server-side
// webhook can land here before the gateway answers the client.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrOrderNotFound = errors.New("order not found")

type OrderRecord struct {
	ID               string    `json:"id"`
	Status           string    `json:"status"`
	GatewayPaymentID string    `json:"gateway_payment_id,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// OrderReader is what the reconciler needs: a cheap, repeatable read.
type OrderReader interface {
	GetOrderByID(ctx context.Context, id string) (*OrderRecord, error)
}

// OrderFinder also resolves an order from the gateway's payment id.
type OrderFinder interface {
	OrderReader
	GetOrderByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*OrderRecord, error)
}

type OrderStore interface {
	OrderFinder
	UpsertOrder(ctx context.Context, o *OrderRecord) error
}

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open builds the store for driver. The returned close func is never nil.
func Open(ctx context.Context, driver, dsn string) (OrderStore, func(), error) {
	switch driver {
	case "", DriverMemory:
		return NewMemoryStore(), func() {}, nil

	case DriverSQLite:
		db, err := OpenSQLite(dsn)
		if err != nil {
			return nil, func() {}, err
		}
		s := NewSQLiteStore(db)
		if err := s.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, func() {}, err
		}
		return s, func() { _ = db.Close() }, nil

	case DriverPostgres:
		pool, err := OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, func() {}, err
		}
		s := NewPostgresStore(pool)
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, func() {}, err
		}
		return s, pool.Close, nil
	}
	return nil, func() {}, fmt.Errorf("unknown store driver %q", driver)
}
