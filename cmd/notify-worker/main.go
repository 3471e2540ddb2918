// cmd/notify-worker/main.go
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/example/checkout-reconciler/internal/app"
	"github.com/example/checkout-reconciler/internal/config"
	"github.com/example/checkout-reconciler/internal/notify"
)

const serviceName = "notify-worker"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("[%s] config: %v", serviceName, err)
	}
	if len(cfg.Kafka.Brokers) == 0 {
		log.Fatalf("[%s] kafka.brokers is empty; set RECONCILER_KAFKA_BROKERS", serviceName)
	}
	logger := app.NewLogger(os.Stderr, serviceName)
	slog.SetDefault(logger)

	sub := notify.NewSubscriber(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, logger)
	defer sub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("[%s] started (topic=%s group=%s)", serviceName, cfg.Kafka.Topic, cfg.Kafka.GroupID)
	if err := sub.Run(ctx, handler(logger)); err != nil {
		log.Printf("[%s] read err: %v", serviceName, err)
		return
	}
	log.Printf("[%s] bye", serviceName)
}

// handler is where outbound notifications (chat, e-mail) hang off; for now
// each decision is logged with a human readable summary.
func handler(logger *slog.Logger) func(context.Context, notify.DecisionEvent) error {
	return func(ctx context.Context, ev notify.DecisionEvent) error {
		logger.InfoContext(ctx, summary(ev),
			"event_id", ev.EventID,
			"order_id", ev.OrderID,
			"gateway_payment_id", ev.GatewayPaymentID,
			"outcome", ev.Outcome,
			"source", ev.Source,
			"attempts", ev.Attempts,
		)
		return nil
	}
}

func summary(ev notify.DecisionEvent) string {
	switch ev.Outcome {
	case "success":
		return "payment confirmed"
	case "timeout_success":
		return "payment assumed confirmed after polling timed out"
	case "failure":
		return "payment failed with status " + ev.Status
	default:
		return "payment decision " + ev.Outcome
	}
}
