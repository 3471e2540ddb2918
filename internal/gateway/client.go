// Package gateway talks to the remote payment gateway: a plain HTTP client,
// a retrying fetcher on top of it, and a deduplicated variant of that.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	perr "github.com/example/checkout-reconciler/pkg/errors"
)

// DefaultTimeout bounds a single gateway request.
const DefaultTimeout = 10 * time.Second

// ClientConfig configures the HTTP gateway client
type ClientConfig struct {
	// BaseURL of the payment gateway API, e.g. https://gateway.example.com/api/v3
	BaseURL string

	// APIKey is sent as the access_token header when set
	APIKey string

	// HTTPClient overrides the default client (optional)
	HTTPClient *http.Client

	// Timeout for requests when HTTPClient is nil (defaults to 10s)
	Timeout time.Duration
}

// Client reads payment status from the remote gateway over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type paymentResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}
}

// GetPaymentStatus returns the raw status string the gateway reports for
// gatewayPaymentID. Any non-2xx response is an error carrying the body text.
func (c *Client) GetPaymentStatus(ctx context.Context, gatewayPaymentID string) (string, error) {
	endpoint := c.baseURL + "/payments/" + url.PathEscape(gatewayPaymentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", perr.Wrap(perr.CodeGatewayTransport, "build request", err)
	}

	// status must never be served from an intermediate cache
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Expires", "0")
	if c.apiKey != "" {
		req.Header.Set("access_token", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", perr.Wrap(perr.CodeGatewayTransport, "get payment "+gatewayPaymentID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", perr.Wrap(perr.CodeGatewayTransport, "read response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", perr.Wrap(perr.CodeGatewayStatus, fmt.Sprintf("gateway responded %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var out paymentResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", perr.Wrap(perr.CodeGatewayDecode, "decode payment response", err)
	}
	return out.Status, nil
}
