// Package notify publishes reconciliation decisions so that downstream
// consumers (fulfilment, receipts) can react without polling.
package notify

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/example/checkout-reconciler/internal/reconcile"
)

// DecisionEvent is the wire form of a decision on the bus.
type DecisionEvent struct {
	EventID          string    `json:"event_id"`
	SessionID        string    `json:"session_id"`
	OrderID          string    `json:"order_id,omitempty"`
	GatewayPaymentID string    `json:"gateway_payment_id,omitempty"`
	Outcome          string    `json:"outcome"`
	Status           string    `json:"status"`
	Source           string    `json:"source"`
	Attempts         int       `json:"attempts"`
	DecidedAt        time.Time `json:"decided_at"`
}

func NewEvent(d reconcile.Decision) DecisionEvent {
	return DecisionEvent{
		EventID:          uuid.NewString(),
		SessionID:        d.SessionID,
		OrderID:          d.Ref.OrderID,
		GatewayPaymentID: d.Ref.GatewayPaymentID,
		Outcome:          string(d.Outcome),
		Status:           string(d.Status),
		Source:           string(d.Source),
		Attempts:         d.Attempts,
		DecidedAt:        d.DecidedAt,
	}
}

// Key partitions events per order so one order's decisions stay ordered.
func (e DecisionEvent) Key() []byte {
	if e.OrderID != "" {
		return []byte(e.OrderID)
	}
	return []byte(e.GatewayPaymentID)
}

func Decode(b []byte) (DecisionEvent, error) {
	var e DecisionEvent
	err := json.Unmarshal(b, &e)
	return e, err
}
