// services/payments/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	m "github.com/example/checkout-reconciler/pkg/metrics"
)

// The mock gateway answers payment status lookups the way the real one does,
// so the reconciler stack can run end to end without credentials.
const serviceName = "payments"

type payment struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// ledger is the in-memory status table. Unknown ids read as PENDING.
type ledger struct {
	mu       sync.RWMutex
	statuses map[string]string
}

func newLedger() *ledger { return &ledger{statuses: map[string]string{}} }

func (l *ledger) get(id string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if s, ok := l.statuses[id]; ok {
		return s
	}
	return "PENDING"
}

func (l *ledger) set(id, status string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.statuses[id] = status
}

type server struct {
	ledger   *ledger
	failRate float64
	latency  func() time.Duration
	apiKey   string
}

func main() {
	_ = godotenv.Load()

	s := &server{
		ledger:   newLedger(),
		failRate: failRate(),
		latency:  func() time.Duration { return time.Duration(50+rand.Intn(300)) * time.Millisecond },
		apiKey:   os.Getenv("GATEWAY_API_KEY"),
	}

	addr := getEnv("HTTP_ADDR", ":8090")
	srv := &http.Server{Addr: addr, Handler: s.routes()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("[%s] listening at %s (fail_rate=%.2f)", serviceName, addr, s.failRate)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("[%s] serve: %v", serviceName, err)
	}
}

func (s *server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(m.Middleware(serviceName))

	// health
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "service": serviceName})
	}).Methods(http.MethodGet)

	r.HandleFunc("/payments/{id}", s.getPayment).Methods(http.MethodGet)
	r.HandleFunc("/payments/{id}", s.putPayment).Methods(http.MethodPut)

	r.Handle("/metrics", promhttp.Handler())
	return r
}

func (s *server) getPayment(w http.ResponseWriter, r *http.Request) {
	if s.apiKey != "" && r.Header.Get("access_token") != s.apiKey {
		http.Error(w, `{"status":"error","message":"invalid access_token"}`, http.StatusUnauthorized)
		return
	}
	if s.latency != nil {
		time.Sleep(s.latency())
	}
	// FAIL_RATE (0.0-1.0) simulates upstream 5xx
	if rand.Float64() < s.failRate {
		http.Error(w, `{"status":"error","message":"upstream failed"}`, http.StatusInternalServerError)
		return
	}

	id := mux.Vars(r)["id"]
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payment{ID: id, Status: s.ledger.get(id)})
}

// putPayment lets a demo move a payment along, e.g. to RECEIVED.
func (s *server) putPayment(w http.ResponseWriter, r *http.Request) {
	var in payment
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Status == "" {
		http.Error(w, `{"status":"error","message":"status required"}`, http.StatusBadRequest)
		return
	}
	id := mux.Vars(r)["id"]
	s.ledger.set(id, in.Status)
	log.Printf("[%s] payment %s -> %s", serviceName, id, in.Status)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payment{ID: id, Status: in.Status})
}

/******************** Utils ********************/
func getEnv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func failRate() float64 {
	if v := os.Getenv("FAIL_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 1 {
			return f
		}
	}
	return 0.0
}
