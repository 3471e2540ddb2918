package gateway

import (
	"context"

	"github.com/example/checkout-reconciler/internal/inflight"
	m "github.com/example/checkout-reconciler/pkg/metrics"
)

// SharedFetcher puts a Fetcher behind an inflight.Group keyed by gateway
// payment id, so concurrent checks for one payment cost one remote call.
type SharedFetcher struct {
	fetcher *Fetcher
	group   *inflight.Group[FetchResult]
}

func NewSharedFetcher(f *Fetcher, group *inflight.Group[FetchResult]) *SharedFetcher {
	return &SharedFetcher{fetcher: f, group: group}
}

// Fetch returns the shared result for gatewayPaymentID. When ctx ends before
// the shared fetch settles the caller gets a degraded result; the fetch keeps
// running for everyone else.
func (s *SharedFetcher) Fetch(ctx context.Context, gatewayPaymentID string) FetchResult {
	res, shared, err := s.group.Do(ctx, gatewayPaymentID, func(ctx context.Context) FetchResult {
		return s.fetcher.Fetch(ctx, gatewayPaymentID)
	})
	if err != nil {
		return degraded(err, 0)
	}
	m.IncDedupe(shared)
	return res
}
