// cmd/reconciler-grpc/main.go
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	gp "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"

	"github.com/example/checkout-reconciler/internal/app"
	"github.com/example/checkout-reconciler/internal/config"
	"github.com/example/checkout-reconciler/internal/grpcserver"
)

const serviceName = "reconciler-grpc"

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

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(gp.UnaryServerInterceptor),
		grpc.StreamInterceptor(gp.StreamServerInterceptor),
	)
	grpcserver.Register(grpcServer, &grpcserver.ReconcilerServer{Service: a.Service})

	// Default gRPC metrics
	gp.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		log.Fatalf("[%s] listen %s: %v", serviceName, cfg.GRPC.Addr, err)
	}
	go func() {
		log.Printf("[%s] serving gRPC on %s", serviceName, cfg.GRPC.Addr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("[%s] grpc serve: %v", serviceName, err)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
	go func() {
		log.Printf("[%s] serving metrics on %s /metrics", serviceName, cfg.Metrics.Addr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[%s] metrics serve: %v", serviceName, err)
		}
	}()

	<-ctx.Done()
	log.Printf("[%s] shutting down...", serviceName)
	grpcServer.GracefulStop()
	_ = metricsSrv.Shutdown(context.Background())
	log.Printf("[%s] bye", serviceName)
}
