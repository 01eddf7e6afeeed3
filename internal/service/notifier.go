package service

import (
	"context"
	"fmt"
	"time"

	"stockpos/internal/dto"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Notifier receives sale and stock events after the data is committed.
// Implementations live in internal/infra.
type Notifier interface {
	BroadcastSaleAlert(ctx context.Context, alert dto.SaleAlert) error
	BroadcastStockAlert(ctx context.Context, alert dto.StockAlert) error
}

// SaleRecorder is the metrics hook of the sale engine.
type SaleRecorder interface {
	SaleCompleted(source string, units int, total decimal.Decimal)
	SaleRejected(reason string)
	SaleRefunded()
}

const notifyTimeout = 2 * time.Second

// notifySafely runs fn detached from request cancellation under a short
// timeout. Errors and panics are logged and swallowed: a committed sale is
// never reported as failed because its notification was lost.
func notifySafely(ctx context.Context, kind string, fn func(ctx context.Context) error) {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("event", kind).Str("panic", fmt.Sprint(r)).Msg("notifier: panic recovered")
		}
	}()
	if err := fn(nctx); err != nil {
		log.Warn().Err(err).Str("event", kind).Msg("notifier: delivery failed")
	}
}
