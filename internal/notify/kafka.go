package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/checkout-reconciler/internal/reconcile"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaPublisher writes one DecisionEvent per decision to Topic.
type KafkaPublisher struct {
	Topic string
	w     messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		Topic: topic,
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *KafkaPublisher) Notify(ctx context.Context, d reconcile.Decision) error {
	ev := NewEvent(d)
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, kafka.Message{Key: ev.Key(), Value: b, Time: time.Now()})
}

func (p *KafkaPublisher) Close() error { return p.w.Close() }

// Subscriber reads DecisionEvents from a topic as part of a consumer group.
type Subscriber struct {
	r      messageReader
	logger *slog.Logger
}

func NewSubscriber(brokers []string, topic, groupID string, logger *slog.Logger) *Subscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &Subscriber{
		r: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
		logger: logger,
	}
}

// Run hands every decodable event to handle until ctx ends. Malformed
// messages and handler errors are logged and skipped. It returns nil on a
// clean shutdown.
func (s *Subscriber) Run(ctx context.Context, handle func(context.Context, DecisionEvent) error) error {
	for {
		m, err := s.r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		ev, err := Decode(m.Value)
		if err != nil {
			s.logger.Warn("skipping malformed decision event",
				"offset", m.Offset,
				"partition", m.Partition,
				"error", err,
			)
			continue
		}
		if err := handle(ctx, ev); err != nil {
			s.logger.Error("decision handler failed",
				"event_id", ev.EventID,
				"order_id", ev.OrderID,
				"error", err,
			)
		}
	}
}

func (s *Subscriber) Close() error { return s.r.Close() }
