package store

import (
	"context"
	"sync"
	"time"
)

type MemoryStore struct {
	mu     sync.RWMutex
	orders map[string]OrderRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{orders: map[string]OrderRecord{}}
}

func (s *MemoryStore) GetOrderByID(_ context.Context, id string) (*OrderRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return &o, nil
}

func (s *MemoryStore) GetOrderByGatewayPaymentID(_ context.Context, gatewayPaymentID string) (*OrderRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, o := range s.orders {
		if o.GatewayPaymentID == gatewayPaymentID {
			return &o, nil
		}
	}
	return nil, ErrOrderNotFound
}

// UpsertOrder is idempotent; a zero UpdatedAt is stamped with now.
func (s *MemoryStore) UpsertOrder(_ context.Context, o *OrderRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := *o
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	s.orders[rec.ID] = rec
	return nil
}
