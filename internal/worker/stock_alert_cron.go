package worker

// stock_alert_cron.go
// Background goroutine that periodically sweeps for low-stock products,
// broadcasts them through the notifier and queues an alert e-mail.
// It never runs on the sale path.

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"stockpos/internal/dto"
	"stockpos/internal/service"

	"github.com/rs/zerolog/log"
)

// LowStockSource is satisfied by service.InventoryService.
type LowStockSource interface {
	LowStock(ctx context.Context) ([]dto.LowStockResponse, error)
}

// StockAlertCronConfig holds all dependencies for the sweep goroutine.
type StockAlertCronConfig struct {
	Inventory  LowStockSource
	Notifier   service.Notifier // may be nil
	Dispatcher *Dispatcher      // may be nil
	AlertEmail string           // empty disables e-mails
	Interval   time.Duration
}

// StockAlertCron remembers the last reported set so an unchanged shortage is
// not re-announced on every tick.
type StockAlertCron struct {
	cfg  StockAlertCronConfig
	last string
	now  func() time.Time
}

func NewStockAlertCron(cfg StockAlertCronConfig) *StockAlertCron {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	return &StockAlertCron{cfg: cfg, now: time.Now}
}

// Start launches the ticker goroutine. It respects ctx for graceful shutdown.
func (c *StockAlertCron) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(c.cfg.Interval)
		defer ticker.Stop()

		log.Info().Dur("interval", c.cfg.Interval).Msg("stock_alert_cron: started")
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("stock_alert_cron: shutting down")
				return
			case <-ticker.C:
				if err := c.Sweep(ctx); err != nil {
					log.Error().Err(err).Msg("stock_alert_cron: sweep failed")
				}
			}
		}
	}()
}

// Sweep runs one check. It returns the error of the low-stock query only;
// delivery failures are logged.
func (c *StockAlertCron) Sweep(ctx context.Context) error {
	low, err := c.cfg.Inventory.LowStock(ctx)
	if err != nil {
		return err
	}
	fp := fingerprint(low)
	if fp == c.last {
		return nil
	}
	c.last = fp
	if len(low) == 0 {
		return nil
	}

	alert := dto.StockAlert{Type: "stock.low", Products: low, At: c.now().UTC().Format(time.RFC3339)}
	log.Info().Int("products", len(low)).Msg("stock_alert_cron: low stock detected")

	if c.cfg.Notifier != nil {
		if err := c.cfg.Notifier.BroadcastStockAlert(ctx, alert); err != nil {
			log.Warn().Err(err).Msg("stock_alert_cron: broadcast failed")
		}
	}
	if c.cfg.Dispatcher != nil && c.cfg.AlertEmail != "" {
		payload := StockAlertEmailPayload{ToEmail: c.cfg.AlertEmail, Alert: alert}
		if err := c.cfg.Dispatcher.EnqueueStockAlertEmail(ctx, payload); err != nil {
			log.Warn().Err(err).Msg("stock_alert_cron: enqueue e-mail failed")
		}
	}
	return nil
}

func fingerprint(low []dto.LowStockResponse) string {
	parts := make([]string, 0, len(low))
	for _, p := range low {
		parts = append(parts, fmt.Sprintf("%s=%d", p.ProductID, p.Stock))
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}
