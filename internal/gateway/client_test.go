package gateway_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/checkout-reconciler/internal/gateway"
	perr "github.com/example/checkout-reconciler/pkg/errors"
)

func TestClient_GetPaymentStatus_SendsCacheBustingHeaders(t *testing.T) {
	reqs := make(chan *http.Request, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqs <- r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pay_123","status":"RECEIVED"}`))
	}))
	defer srv.Close()

	c := gateway.NewClient(gateway.ClientConfig{BaseURL: srv.URL + "/", APIKey: "secret"})
	raw, err := c.GetPaymentStatus(context.Background(), "pay_123")

	require.NoError(t, err)
	assert.Equal(t, "RECEIVED", raw)
	got := <-reqs
	assert.Equal(t, "/payments/pay_123", got.URL.Path)
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Contains(t, got.Header.Get("Cache-Control"), "no-cache")
	assert.Equal(t, "no-cache", got.Header.Get("Pragma"))
	assert.Equal(t, "secret", got.Header.Get("access_token"))
}

func TestClient_GetPaymentStatus_NonSuccessIsCodedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := gateway.NewClient(gateway.ClientConfig{BaseURL: srv.URL})
	_, err := c.GetPaymentStatus(context.Background(), "pay_1")

	require.Error(t, err)
	assert.Equal(t, perr.CodeGatewayStatus, perr.CodeOf(err))
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "upstream exploded")
}

func TestClient_GetPaymentStatus_BadJSONIsDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := gateway.NewClient(gateway.ClientConfig{BaseURL: srv.URL})
	_, err := c.GetPaymentStatus(context.Background(), "pay_1")

	assert.Equal(t, perr.CodeGatewayDecode, perr.CodeOf(err))
}

func TestClient_GetPaymentStatus_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := gateway.NewClient(gateway.ClientConfig{BaseURL: url})
	_, err := c.GetPaymentStatus(context.Background(), "pay_1")

	assert.Equal(t, perr.CodeGatewayTransport, perr.CodeOf(err))
}
