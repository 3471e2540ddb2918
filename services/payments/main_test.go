package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/checkout-reconciler/internal/gateway"
)

func newTestServer(t *testing.T, failRate float64, apiKey string) *httptest.Server {
	t.Helper()
	s := &server{ledger: newLedger(), failRate: failRate, apiKey: apiKey}
	srv := httptest.NewServer(s.routes())
	t.Cleanup(srv.Close)
	return srv
}

// The reconciler's own client must be able to read this mock.
func TestMockGateway_ServesGatewayClient(t *testing.T) {
	srv := newTestServer(t, 0, "k-1")
	c := gateway.NewClient(gateway.ClientConfig{BaseURL: srv.URL, APIKey: "k-1"})
	ctx := context.Background()

	raw, err := c.GetPaymentStatus(ctx, "pay_1")
	require.NoError(t, err)
	assert.Equal(t, "PENDING", raw)

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/payments/pay_1", strings.NewReader(`{"status":"RECEIVED"}`))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err = c.GetPaymentStatus(ctx, "pay_1")
	require.NoError(t, err)
	assert.Equal(t, "RECEIVED", raw)
}

func TestMockGateway_FailRateAndAuth(t *testing.T) {
	srv := newTestServer(t, 1, "")
	_, err := gateway.NewClient(gateway.ClientConfig{BaseURL: srv.URL}).GetPaymentStatus(context.Background(), "pay_1")
	assert.Error(t, err)

	locked := newTestServer(t, 0, "secret")
	_, err = gateway.NewClient(gateway.ClientConfig{BaseURL: locked.URL}).GetPaymentStatus(context.Background(), "pay_1")
	assert.Error(t, err)
}

func TestMockGateway_PutRequiresStatus(t *testing.T) {
	srv := newTestServer(t, 0, "")
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/payments/pay_1", strings.NewReader(`{}`))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
