package gateway

import (
	"context"
	"log/slog"
	"time"

	"github.com/andres-erbsen/clock"

	"github.com/example/checkout-reconciler/internal/status"
	perr "github.com/example/checkout-reconciler/pkg/errors"
	m "github.com/example/checkout-reconciler/pkg/metrics"
)

const (
	DefaultMaxRetries = 2
	DefaultBaseDelay  = 500 * time.Millisecond
)

// StatusGetter is the remote gateway collaborator.
type StatusGetter interface {
	GetPaymentStatus(ctx context.Context, gatewayPaymentID string) (string, error)
}

// Source tells where a FetchResult's status came from.
type Source string

const (
	SourceGateway        Source = "gateway"
	SourceClientFallback Source = "client_fallback"
	// SourcePlaceholder marks a result answered locally for an id the
	// gateway has not provisioned yet.
	SourcePlaceholder Source = "placeholder"
)

// FetchResult is the outcome of one logical status check. A degraded result
// (Source == SourceClientFallback) always carries Pending and the last error.
type FetchResult struct {
	Status   status.Status
	Source   Source
	Err      error
	Attempts int
}

func (r FetchResult) Degraded() bool { return r.Source == SourceClientFallback }

// ErrorText returns the failure description of a degraded result.
func (r FetchResult) ErrorText() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

func degraded(err error, attempts int) FetchResult {
	return FetchResult{Status: status.Pending, Source: SourceClientFallback, Err: err, Attempts: attempts}
}

// Fetcher performs a status check with bounded retry and exponential
// backoff. It never returns an error: exhausted retries degrade to Pending.
// Callers must not pass placeholder ids.
type Fetcher struct {
	Gateway    StatusGetter
	MaxRetries int
	BaseDelay  time.Duration
	// Deadline bounds one logical fetch, retries and backoff included. It
	// is applied on the wall clock; zero leaves only ctx in charge.
	Deadline time.Duration
	Clock    clock.Clock
	Logger   *slog.Logger
}

func NewFetcher(gw StatusGetter) *Fetcher {
	return &Fetcher{
		Gateway:    gw,
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		Clock:      clock.New(),
		Logger:     slog.Default(),
	}
}

// WorstCase is how long a fetch may take when every try runs into timeout:
// tries*timeout plus the backoff between them.
func WorstCase(maxRetries int, baseDelay, timeout time.Duration) time.Duration {
	tries := max(maxRetries, 0) + 1
	total := time.Duration(tries) * timeout
	for retry := 0; retry < tries-1; retry++ {
		total += Backoff(baseDelay, retry)
	}
	return total
}

// Backoff is the wait before retry n (0-based): base, 2*base, 4*base, ...
func Backoff(base time.Duration, retry int) time.Duration {
	return base * time.Duration(1<<uint(retry))
}

func (f *Fetcher) Fetch(ctx context.Context, gatewayPaymentID string) FetchResult {
	if f.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Deadline)
		defer cancel()
	}
	tries := max(f.MaxRetries, 0) + 1
	clk := f.Clock
	if clk == nil {
		clk = clock.New()
	}
	log := f.Logger
	if log == nil {
		log = slog.Default()
	}

	var lastErr error
	for attempt := 0; attempt < tries; attempt++ {
		if attempt > 0 {
			select {
			case <-clk.After(Backoff(f.BaseDelay, attempt-1)):
			case <-ctx.Done():
				return degraded(ctx.Err(), attempt)
			}
		}

		raw, err := f.Gateway.GetPaymentStatus(ctx, gatewayPaymentID)
		if err == nil {
			m.IncFetchAttempt("ok")
			return FetchResult{Status: status.Normalize(raw), Source: SourceGateway, Attempts: attempt + 1}
		}

		m.IncFetchAttempt("error")
		lastErr = err
		log.Warn("gateway status fetch failed",
			"gateway_payment_id", gatewayPaymentID,
			"attempt", attempt+1,
			"of", tries,
			"code", perr.CodeOf(err),
			"error", err,
		)
	}

	log.Error("gateway status fetch exhausted, assuming pending",
		"gateway_payment_id", gatewayPaymentID,
		"error", lastErr,
	)
	return degraded(lastErr, tries)
}
