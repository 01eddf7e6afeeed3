package infra

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"stockpos/internal/dto"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWriter captures Kafka messages in memory.
type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

// failingSink always errors and counts attempts.
type failingSink struct{ calls int }

func (s *failingSink) Name() string { return "failing" }
func (s *failingSink) Publish(context.Context, string, []byte) error {
	s.calls++
	return errors.New("unreachable")
}

func sampleSaleAlert() dto.SaleAlert {
	return dto.SaleAlert{
		Type:          "sale.created",
		SaleID:        "2b4f7d2c-0000-4000-8000-000000000001",
		InvoiceNumber: "INV-2026-000001",
		TotalAmount:   decimal.NewFromInt(600),
		ItemCount:     1,
		Source:        "rfid",
		DeviceID:      "reader-1",
		At:            "2026-01-01T00:00:00Z",
	}
}

func TestRedisSink_PublishesToChannel(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := rdb.Subscribe(ctx, "stockpos:events")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	n := NewEventNotifier(NewRedisSink(rdb, "stockpos:events"))
	require.NoError(t, n.BroadcastSaleAlert(ctx, sampleSaleAlert()))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var got dto.SaleAlert
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, "INV-2026-000001", got.InvoiceNumber)
	assert.Equal(t, "reader-1", got.DeviceID)
	assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(600)))
}

func TestKafkaSink_KeysBySaleID(t *testing.T) {
	w := &fakeWriter{}
	sink := &KafkaSink{writer: w, topic: "sales"}
	n := NewEventNotifier(sink)

	alert := sampleSaleAlert()
	require.NoError(t, n.BroadcastSaleAlert(context.Background(), alert))
	require.NoError(t, n.BroadcastStockAlert(context.Background(), dto.StockAlert{Type: "stock.low"}))

	require.Len(t, w.msgs, 2)
	assert.Equal(t, alert.SaleID, string(w.msgs[0].Key))
	assert.Equal(t, "stock", string(w.msgs[1].Key))
	assert.Contains(t, string(w.msgs[1].Value), `"stock.low"`)

	require.NoError(t, sink.Close())
	assert.True(t, w.closed)
	assert.Equal(t, "kafka:sales", sink.Name())
}

func TestEventNotifier_OneFailingSinkDoesNotBlockOthers(t *testing.T) {
	bad := &failingSink{}
	w := &fakeWriter{}
	n := NewEventNotifier(bad, &KafkaSink{writer: w, topic: "sales"}, nil)

	err := n.BroadcastSaleAlert(context.Background(), sampleSaleAlert())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failing")
	assert.Len(t, w.msgs, 1)
}

func TestEventNotifier_BreakerShortCircuitsDeadSink(t *testing.T) {
	bad := &failingSink{}
	n := NewEventNotifier(bad)

	for i := 0; i < 5; i++ {
		_ = n.BroadcastSaleAlert(context.Background(), sampleSaleAlert())
	}
	assert.Equal(t, DefaultCBConfig().FailureThreshold, bad.calls)

	err := n.BroadcastSaleAlert(context.Background(), sampleSaleAlert())
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestEventNotifier_NoSinks(t *testing.T) {
	n := NewEventNotifier()
	assert.NoError(t, n.BroadcastSaleAlert(context.Background(), sampleSaleAlert()))
}
