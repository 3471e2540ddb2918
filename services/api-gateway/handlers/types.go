// services/api-gateway/handlers/types.go
package handlers

type DecisionOut struct {
	SessionID        string `json:"session_id,omitempty"`
	OrderID          string `json:"order_id,omitempty"`
	GatewayPaymentID string `json:"gateway_payment_id,omitempty"`
	Outcome          string `json:"outcome"` // success / failure / timeout_success
	Status           string `json:"status"`
	Source           string `json:"source"` // local-store / gateway / none
	Attempts         int    `json:"attempts"`
}

type StatusOut struct {
	GatewayPaymentID string `json:"gateway_payment_id"`
	Status           string `json:"status"`
	Source           string `json:"source"` // gateway / client_fallback / placeholder
	Degraded         bool   `json:"degraded"`
	Error            string `json:"error,omitempty"`
	ErrorCode        string `json:"error_code,omitempty"`
}

type ErrorOut struct {
	Code   string `json:"code,omitempty"`
	Reason string `json:"reason"`
}
