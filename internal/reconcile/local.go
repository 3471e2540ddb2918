package reconcile

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/checkout-reconciler/internal/status"
	"github.com/example/checkout-reconciler/internal/store"
)

// LocalReconciler re-reads the order record to catch out-of-band updates,
// e.g. a webhook that confirmed the payment while the client was polling.
type LocalReconciler struct {
	Store  store.OrderReader
	Logger *slog.Logger
}

func NewLocalReconciler(s store.OrderReader, logger *slog.Logger) *LocalReconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalReconciler{Store: s, Logger: logger}
}

// Check never fails: a missing order id, a missing order or a store error
// all mean "nothing new this tick".
func (r *LocalReconciler) Check(ctx context.Context, ref PaymentAttemptRef) Result {
	if ref.OrderID == "" {
		return unchanged()
	}

	o, err := r.Store.GetOrderByID(ctx, ref.OrderID)
	if err != nil {
		if !errors.Is(err, store.ErrOrderNotFound) {
			r.Logger.Warn("local store read failed",
				"order_id", ref.OrderID,
				"error", err,
			)
		}
		return unchanged()
	}

	st := status.Normalize(o.Status)
	if !status.Classify(st).Terminal {
		return unchanged()
	}
	return Result{StatusChanged: true, Status: st, Source: SourceLocalStore, Order: o}
}
