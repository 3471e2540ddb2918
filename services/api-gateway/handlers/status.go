// services/api-gateway/handlers/status.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/example/checkout-reconciler/internal/gateway"
	"github.com/example/checkout-reconciler/internal/reconcile"
	perr "github.com/example/checkout-reconciler/pkg/errors"
)

// Reconciler is the slice of reconcile.Service the handlers need.
type Reconciler interface {
	Await(ctx context.Context, ref reconcile.PaymentAttemptRef) (reconcile.Decision, error)
	CheckStatus(ctx context.Context, gatewayPaymentID string) gateway.FetchResult
}

type Deps struct {
	Service Reconciler
	// MaxWait caps one long-poll request; zero means only the client's
	// own disconnect ends it.
	MaxWait time.Duration
}

// DecisionHandler long-polls until the payment for {orderId} is decided.
// Closing the connection tears the session down.
func DecisionHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref := reconcile.PaymentAttemptRef{
			OrderID:          mux.Vars(r)["orderId"],
			GatewayPaymentID: r.URL.Query().Get("gateway_payment_id"),
		}
		if ref.OrderID == "" {
			writeJSON(w, http.StatusBadRequest, ErrorOut{Code: perr.CodeInvalidInput, Reason: "missing_order_id"})
			return
		}

		ctx := r.Context()
		if d.MaxWait > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d.MaxWait)
			defer cancel()
		}

		dec, err := d.Service.Await(ctx, ref)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				writeJSON(w, http.StatusGatewayTimeout, ErrorOut{Reason: "decision_timeout"})
				return
			}
			// client went away; nobody is listening
			writeJSON(w, http.StatusServiceUnavailable, ErrorOut{Reason: "cancelled"})
			return
		}

		writeJSON(w, http.StatusOK, DecisionOut{
			SessionID:        dec.SessionID,
			OrderID:          dec.Ref.OrderID,
			GatewayPaymentID: dec.Ref.GatewayPaymentID,
			Outcome:          string(dec.Outcome),
			Status:           string(dec.Status),
			Source:           string(dec.Source),
			Attempts:         dec.Attempts,
		})
	}
}

// StatusHandler runs one deduplicated status check. Degraded results are
// still 200: the caller is told to keep treating the payment as pending.
func StatusHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["gatewayPaymentId"]
		if id == "" {
			writeJSON(w, http.StatusBadRequest, ErrorOut{Code: perr.CodeInvalidInput, Reason: "missing_gateway_payment_id"})
			return
		}

		res := d.Service.CheckStatus(r.Context(), id)
		writeJSON(w, http.StatusOK, StatusOut{
			GatewayPaymentID: id,
			Status:           string(res.Status),
			Source:           string(res.Source),
			Degraded:         res.Degraded(),
			Error:            res.ErrorText(),
			ErrorCode:        perr.CodeOf(res.Err),
		})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
