// Package app wires the reconciler's collaborators from configuration. It is
// shared by every binary so that they all build the engine the same way.
package app

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/andres-erbsen/clock"

	"github.com/example/checkout-reconciler/internal/config"
	"github.com/example/checkout-reconciler/internal/gateway"
	"github.com/example/checkout-reconciler/internal/inflight"
	"github.com/example/checkout-reconciler/internal/notify"
	"github.com/example/checkout-reconciler/internal/reconcile"
	"github.com/example/checkout-reconciler/internal/store"
)

type App struct {
	Config  *config.Config
	Store   store.OrderStore
	Service *reconcile.Service
	Logger  *slog.Logger

	closers []func()
}

// Options overrides collaborators that tests or tools need to swap.
type Options struct {
	Clock   clock.Clock
	Gateway gateway.StatusGetter
	Store   store.OrderStore
	Logger  *slog.Logger
}

// NewLogger returns the JSON slog logger every binary installs as default.
func NewLogger(w io.Writer, service string) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewJSONHandler(w, nil)).With("service", service)
}

func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	a := &App{Config: cfg, Logger: opts.Logger}
	if a.Logger == nil {
		a.Logger = slog.Default()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}

	a.Store = opts.Store
	if a.Store == nil {
		s, closeFn, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
		if err != nil {
			return nil, err
		}
		a.Store = s
		a.closers = append(a.closers, closeFn)
	}

	gw := opts.Gateway
	if gw == nil {
		gw = gateway.NewClient(gateway.ClientConfig{
			BaseURL: cfg.Gateway.BaseURL,
			APIKey:  cfg.Gateway.APIKey,
			Timeout: cfg.Gateway.Timeout,
		})
	}
	fetcher := &gateway.Fetcher{
		Gateway:    gw,
		MaxRetries: cfg.Fetch.MaxRetries,
		BaseDelay:  cfg.Fetch.BaseDelay,
		Deadline:   cfg.Poll.Interval,
		Clock:      clk,
		Logger:     a.Logger,
	}
	shared := gateway.NewSharedFetcher(fetcher, inflight.New[gateway.FetchResult](cfg.Dedupe.TTL, clk))

	poller := reconcile.NewPoller(
		reconcile.NewLocalReconciler(a.Store, a.Logger),
		shared,
		reconcile.Config{
			TickInterval:      cfg.Poll.Interval,
			MaxAttempts:       cfg.Poll.MaxAttempts,
			PlaceholderDelay:  cfg.Poll.PlaceholderDelay,
			PlaceholderPrefix: cfg.Poll.PlaceholderPrefix,
		},
		clk,
		a.Logger,
	)

	a.Service = reconcile.NewService(a.Store, poller, shared, a.notifier(), a.Logger)
	return a, nil
}

func (a *App) notifier() reconcile.Notifier {
	logN := notify.LogNotifier{Logger: a.Logger}
	if len(a.Config.Kafka.Brokers) == 0 {
		return logN
	}
	pub := notify.NewKafkaPublisher(a.Config.Kafka.Brokers, a.Config.Kafka.Topic)
	a.closers = append(a.closers, func() {
		if err := pub.Close(); err != nil {
			a.Logger.Warn("kafka publisher close failed", "error", err)
		}
	})
	return notify.Multi{logN, pub}
}

// Close releases the store and publisher in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
