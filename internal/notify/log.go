package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/checkout-reconciler/internal/reconcile"
)

// LogNotifier records decisions in the structured log. It is the fallback
// when no brokers are configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, d reconcile.Decision) error {
	log := n.Logger
	if log == nil {
		log = slog.Default()
	}
	log.InfoContext(ctx, "decision",
		"session_id", d.SessionID,
		"order_id", d.Ref.OrderID,
		"outcome", d.Outcome,
		"status", d.Status,
		"source", d.Source,
	)
	return nil
}

// Multi fans a decision out to every notifier and joins their errors.
type Multi []reconcile.Notifier

func (m Multi) Notify(ctx context.Context, d reconcile.Decision) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
