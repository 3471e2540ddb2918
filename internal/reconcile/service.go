package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/example/checkout-reconciler/internal/gateway"
	"github.com/example/checkout-reconciler/internal/status"
	"github.com/example/checkout-reconciler/internal/store"
	m "github.com/example/checkout-reconciler/pkg/metrics"
)

const notifyTimeout = 5 * time.Second

// Notifier publishes decisions to downstream consumers.
type Notifier interface {
	Notify(ctx context.Context, d Decision) error
}

// Service is the entry point used by the delivery surfaces (HTTP, gRPC,
// CLI). It seeds sessions from the store and fans decisions out.
type Service struct {
	Store    store.OrderFinder
	Poller   *Poller
	Gateway  StatusFetcher
	Notifier Notifier
	Logger   *slog.Logger
}

func NewService(st store.OrderFinder, p *Poller, gw StatusFetcher, n Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{Store: st, Poller: p, Gateway: gw, Notifier: n, Logger: logger}
}

// Await blocks until ref reaches a decision or ctx ends. Whichever id is
// missing is filled from the order record when one exists.
func (s *Service) Await(ctx context.Context, ref PaymentAttemptRef) (Decision, error) {
	known := status.Pending
	initial, err := s.initialOrder(ctx, ref)
	switch {
	case err == nil:
		known = status.Normalize(initial.Status)
		if ref.OrderID == "" {
			ref.OrderID = initial.ID
		}
		if ref.GatewayPaymentID == "" {
			ref.GatewayPaymentID = initial.GatewayPaymentID
		}
	case !errors.Is(err, store.ErrOrderNotFound):
		s.Logger.Warn("initial order read failed, starting from pending",
			"order_id", ref.OrderID,
			"gateway_payment_id", ref.GatewayPaymentID,
			"error", err,
		)
	}

	d, err := s.Poller.Run(ctx, ref, known)
	if err != nil {
		return Decision{}, err
	}
	if d.Order == nil {
		d.Order = s.latestOrder(ctx, ref.OrderID, initial)
	}

	m.ObserveDecision(string(d.Outcome), string(d.Source), d.Attempts)
	s.Logger.Info("payment decided",
		"session_id", d.SessionID,
		"order_id", ref.OrderID,
		"gateway_payment_id", ref.GatewayPaymentID,
		"outcome", d.Outcome,
		"status", d.Status,
		"source", d.Source,
		"attempts", d.Attempts,
	)
	s.publish(d)
	return d, nil
}

// CheckStatus performs one deduplicated gateway check. Placeholder ids are
// answered locally with Pending.
func (s *Service) CheckStatus(ctx context.Context, gatewayPaymentID string) gateway.FetchResult {
	if IsPlaceholder(gatewayPaymentID, s.Poller.Config.PlaceholderPrefix) {
		return gateway.FetchResult{Status: status.Pending, Source: gateway.SourcePlaceholder}
	}
	return s.Gateway.Fetch(ctx, gatewayPaymentID)
}

func (s *Service) initialOrder(ctx context.Context, ref PaymentAttemptRef) (*store.OrderRecord, error) {
	switch {
	case ref.OrderID != "":
		return s.Store.GetOrderByID(ctx, ref.OrderID)
	case ref.GatewayPaymentID != "":
		return s.Store.GetOrderByGatewayPaymentID(ctx, ref.GatewayPaymentID)
	}
	return nil, store.ErrOrderNotFound
}

func (s *Service) latestOrder(ctx context.Context, orderID string, fallback *store.OrderRecord) *store.OrderRecord {
	if orderID == "" {
		return fallback
	}
	o, err := s.Store.GetOrderByID(ctx, orderID)
	if err != nil {
		return fallback
	}
	return o
}

func (s *Service) publish(d Decision) {
	if s.Notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.Notifier.Notify(ctx, d); err != nil {
			s.Logger.Error("decision publish failed",
				"session_id", d.SessionID,
				"order_id", d.Ref.OrderID,
				"error", err,
			)
		}
	}()
}
