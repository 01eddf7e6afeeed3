package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"stockpos/internal/dto"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
)

// EventSink delivers one already-encoded event. key groups related events
// (the sale id, or "stock").
type EventSink interface {
	Name() string
	Publish(ctx context.Context, key string, payload []byte) error
}

// ── Redis pub/sub sink ────────────────────────────────────────────────────────

// RedisSink publishes events on a pub/sub channel; a dashboard or a WebSocket
// gateway subscribes on the other side.
type RedisSink struct {
	rdb     *redis.Client
	channel string
}

func NewRedisSink(rdb *redis.Client, channel string) *RedisSink {
	return &RedisSink{rdb: rdb, channel: channel}
}

func (s *RedisSink) Name() string { return "redis:" + s.channel }

func (s *RedisSink) Publish(ctx context.Context, _ string, payload []byte) error {
	return s.rdb.Publish(ctx, s.channel, payload).Err()
}

// ── Kafka sink ────────────────────────────────────────────────────────────────

// messageWriter is the subset of *kafka.Writer the sink needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaSink struct {
	writer messageWriter
	topic  string
}

func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaSink{writer: w, topic: topic}
}

func (s *KafkaSink) Name() string { return "kafka:" + s.topic }

func (s *KafkaSink) Publish(ctx context.Context, key string, payload []byte) error {
	return s.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: payload})
}

func (s *KafkaSink) Close() error { return s.writer.Close() }

// ── Fan-out notifier ──────────────────────────────────────────────────────────

// EventNotifier encodes sale and stock alerts and hands them to every sink,
// each behind its own circuit breaker. It implements service.Notifier.
type EventNotifier struct {
	sinks    []EventSink
	breakers []*CircuitBreaker
}

func NewEventNotifier(sinks ...EventSink) *EventNotifier {
	n := &EventNotifier{}
	for _, s := range sinks {
		if s == nil {
			continue
		}
		n.sinks = append(n.sinks, s)
		n.breakers = append(n.breakers, NewCircuitBreaker(s.Name(), DefaultCBConfig()))
	}
	return n
}

func (n *EventNotifier) BroadcastSaleAlert(ctx context.Context, alert dto.SaleAlert) error {
	return n.broadcast(ctx, alert.SaleID, alert)
}

func (n *EventNotifier) BroadcastStockAlert(ctx context.Context, alert dto.StockAlert) error {
	return n.broadcast(ctx, "stock", alert)
}

// broadcast tries every sink; one failing sink does not stop the others.
func (n *EventNotifier) broadcast(ctx context.Context, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var errs []error
	for i, s := range n.sinks {
		err := n.breakers[i].Execute(func() error { return s.Publish(ctx, key, payload) })
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
