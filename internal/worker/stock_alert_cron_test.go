package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"stockpos/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubLowStock struct {
	low []dto.LowStockResponse
	err error
}

func (s *stubLowStock) LowStock(context.Context) ([]dto.LowStockResponse, error) { return s.low, s.err }

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) BroadcastSaleAlert(ctx context.Context, a dto.SaleAlert) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockNotifier) BroadcastStockAlert(ctx context.Context, a dto.StockAlert) error {
	return m.Called(ctx, a).Error(0)
}

func TestStockAlertCron_DeduplicatesUnchangedShortage(t *testing.T) {
	d, rdb, _ := newTestDispatcher(t)
	src := &stubLowStock{low: []dto.LowStockResponse{{ProductID: "p1", Name: "Mug", Stock: 1, LowStockThreshold: 3}}}
	n := &mockNotifier{}
	n.On("BroadcastStockAlert", mock.Anything, mock.Anything).Return(nil)

	cron := NewStockAlertCron(StockAlertCronConfig{Inventory: src, Notifier: n, Dispatcher: d, AlertEmail: "ops@example.com"})
	ctx := context.Background()

	require.NoError(t, cron.Sweep(ctx))
	require.NoError(t, cron.Sweep(ctx))
	n.AssertNumberOfCalls(t, "BroadcastStockAlert", 1)

	qlen, err := rdb.LLen(ctx, QueueEmail).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), qlen)

	raw, err := rdb.RPop(ctx, QueueEmail).Result()
	require.NoError(t, err)
	var job Job
	require.NoError(t, json.Unmarshal([]byte(raw), &job))
	assert.Equal(t, JobStockAlertEmail, job.Type)

	// A further sale changes the picture: alert again.
	src.low[0].Stock = 0
	require.NoError(t, cron.Sweep(ctx))
	n.AssertNumberOfCalls(t, "BroadcastStockAlert", 2)
}

func TestStockAlertCron_RecoveryResetsState(t *testing.T) {
	src := &stubLowStock{low: []dto.LowStockResponse{{ProductID: "p1", Stock: 1}}}
	n := &mockNotifier{}
	n.On("BroadcastStockAlert", mock.Anything, mock.Anything).Return(nil)
	cron := NewStockAlertCron(StockAlertCronConfig{Inventory: src, Notifier: n})
	ctx := context.Background()

	require.NoError(t, cron.Sweep(ctx))
	src.low = nil
	require.NoError(t, cron.Sweep(ctx))
	src.low = []dto.LowStockResponse{{ProductID: "p1", Stock: 1}}
	require.NoError(t, cron.Sweep(ctx))

	n.AssertNumberOfCalls(t, "BroadcastStockAlert", 2)
}

func TestStockAlertCron_BroadcastFailureIsNotFatal(t *testing.T) {
	src := &stubLowStock{low: []dto.LowStockResponse{{ProductID: "p1", Stock: 1}}}
	n := &mockNotifier{}
	n.On("BroadcastStockAlert", mock.Anything, mock.Anything).Return(errors.New("down"))
	cron := NewStockAlertCron(StockAlertCronConfig{Inventory: src, Notifier: n})

	assert.NoError(t, cron.Sweep(context.Background()))
}

func TestStockAlertCron_QueryError(t *testing.T) {
	cron := NewStockAlertCron(StockAlertCronConfig{Inventory: &stubLowStock{err: errors.New("db gone")}})
	assert.Error(t, cron.Sweep(context.Background()))
}
