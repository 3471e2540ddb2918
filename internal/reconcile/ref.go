// Package reconcile decides, from the local order store and the remote
// gateway, whether a payment attempt has reached a final status, and drives
// a bounded polling loop until it has.
package reconcile

import (
	"strings"

	"github.com/example/checkout-reconciler/internal/status"
	"github.com/example/checkout-reconciler/internal/store"
)

// DefaultPlaceholderPrefix marks gateway ids minted locally before the
// gateway has provisioned the payment.
const DefaultPlaceholderPrefix = "temp_"

// PaymentAttemptRef identifies one payment attempt.
type PaymentAttemptRef struct {
	OrderID          string `json:"order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
}

// IsPlaceholder reports whether id must stay local. An empty id counts: it
// can never be sent upstream either.
func IsPlaceholder(id, prefix string) bool {
	if prefix == "" {
		prefix = DefaultPlaceholderPrefix
	}
	return id == "" || strings.HasPrefix(id, prefix)
}

// Source is where a reconciliation result came from.
type Source string

const (
	SourceLocalStore Source = "local-store"
	SourceGateway    Source = "gateway"
	SourceNone       Source = "none"
)

// Result is the outcome of one reconciliation pass against a single source.
// It is built fresh every tick and never persisted.
type Result struct {
	StatusChanged bool
	Status        status.Status
	Source        Source
	Order         *store.OrderRecord
}

func unchanged() Result { return Result{Source: SourceNone} }
