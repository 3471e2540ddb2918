// services/api-gateway/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/example/checkout-reconciler/internal/app"
	"github.com/example/checkout-reconciler/internal/config"
	"github.com/example/checkout-reconciler/internal/store"
	m "github.com/example/checkout-reconciler/pkg/metrics"
	"github.com/example/checkout-reconciler/services/api-gateway/admin"
	"github.com/example/checkout-reconciler/services/api-gateway/handlers"
)

const serviceName = "api-gateway"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("[%s] config: %v", serviceName, err)
	}
	logger := app.NewLogger(os.Stderr, serviceName)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, app.Options{Logger: logger})
	if err != nil {
		log.Fatalf("[%s] init: %v", serviceName, err)
	}
	defer a.Close()

	// a decision can take the whole poll budget; leave room to write it
	maxWait := cfg.Poll.Interval*time.Duration(cfg.Poll.MaxAttempts) + 5*time.Second

	r := newRouter(handlers.Deps{Service: a.Service, MaxWait: maxWait}, a.Store, logger)
	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      cors.AllowAll().Handler(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: maxWait + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Printf("[%s] shutting down...", serviceName)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[%s] http shutdown: %v", serviceName, err)
		}
	}()

	log.Printf("[%s] listening at %s (store=%s)", serviceName, cfg.HTTP.Addr, cfg.Store.Driver)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("[%s] serve: %v", serviceName, err)
	}
	log.Printf("[%s] bye", serviceName)
}

func newRouter(d handlers.Deps, st store.Upserter, logger *slog.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(m.Middleware(serviceName))

	// metrics & health
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":      true,
			"service": serviceName,
			"ts":      time.Now().UTC(),
		})
	}).Methods(http.MethodGet)

	// API
	r.HandleFunc("/api/payments/{orderId}/decision", handlers.DecisionHandler(d)).Methods(http.MethodGet)
	r.HandleFunc("/api/gateway-payments/{gatewayPaymentId}/status", handlers.StatusHandler(d)).Methods(http.MethodGet)

	// admin
	r.HandleFunc("/admin/orders", admin.OrdersHandler(st, logger)).Methods(http.MethodPost)
	return r
}
