// Package status holds the canonical payment status vocabulary, the
// normalizer that maps raw gateway codes onto it, and the terminal
// classifier used by the reconciliation loop.
package status

import "strings"

type Status string

const (
	Pending   Status = "PENDING"
	Overdue   Status = "OVERDUE"
	Confirmed Status = "CONFIRMED"
	Declined  Status = "DECLINED"
	Failed    Status = "FAILED"
	Cancelled Status = "CANCELLED"
	Refunded  Status = "REFUNDED"
)

// All lists the canonical vocabulary in a stable order.
var All = []Status{Pending, Overdue, Confirmed, Declined, Failed, Cancelled, Refunded}

// synonyms maps gateway-specific codes onto canonical ones.
var synonyms = map[string]Status{
	"RECEIVED":         Confirmed,
	"RECEIVED_IN_CASH": Confirmed,
	"CANCELED":         Cancelled,
}

func (s Status) String() string { return string(s) }

// Valid reports whether s belongs to the canonical vocabulary.
func (s Status) Valid() bool {
	switch s {
	case Pending, Overdue, Confirmed, Declined, Failed, Cancelled, Refunded:
		return true
	}
	return false
}

// Normalize maps a raw status string onto the canonical vocabulary.
// Unknown values, including the empty string, degrade to Pending.
func Normalize(raw string) Status {
	key := strings.ToUpper(strings.TrimSpace(raw))
	if s := Status(key); s.Valid() {
		return s
	}
	if s, ok := synonyms[key]; ok {
		return s
	}
	return Pending
}
