// checkout-reconciler/pkg/errors/errors.go
package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes shared across the reconciler.
const (
	CodeGatewayTransport = "gateway_transport"
	CodeGatewayStatus    = "gateway_status"
	CodeGatewayDecode    = "gateway_decode"
	CodeStoreRead        = "store_read"
	CodeStoreWrite       = "store_write"
	CodeInvalidInput     = "invalid_input"
)

type E struct {
	Code    string
	Message string
	Err     error
}

func (e E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e E) Unwrap() error { return e.Err }

func Wrap(code, msg string, err error) error {
	return E{Code: code, Message: msg, Err: err}
}

// CodeOf returns the code of the first E in err's chain, or "" if none.
func CodeOf(err error) string {
	var e E
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}
