package worker

// email_worker.go
// Processes low-stock alert e-mail jobs from QueueEmail.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"stockpos/internal/dto"

	"github.com/rs/zerolog/log"
)

// StockAlertEmailPayload is the job payload sent to QueueEmail.
type StockAlertEmailPayload struct {
	ToEmail string         `json:"to_email"`
	Alert   dto.StockAlert `json:"alert"`
}

// StockAlertMailer is satisfied by *infra.Mailer.
type StockAlertMailer interface {
	SendStockAlert(to string, alert dto.StockAlert) error
}

// EmailWorker sends stock alert e-mails via SMTP.
type EmailWorker struct {
	mailer StockAlertMailer
}

func NewEmailWorker(mailer StockAlertMailer) *EmailWorker {
	return &EmailWorker{mailer: mailer}
}

// errSkip marks payloads that can never succeed; they are logged and dropped
// rather than retried.
var errSkip = errors.New("skip")

// Process is a worker.Handler.
func (w *EmailWorker) Process(_ context.Context, raw json.RawMessage) error {
	err := w.process(raw)
	if errors.Is(err, errSkip) {
		log.Warn().Err(err).Msg("email_worker: dropping job")
		return nil
	}
	return err
}

func (w *EmailWorker) process(raw json.RawMessage) error {
	var payload StockAlertEmailPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("%w: invalid payload: %v", errSkip, err)
	}
	if payload.ToEmail == "" {
		return fmt.Errorf("%w: empty to_email", errSkip)
	}
	if len(payload.Alert.Products) == 0 {
		return fmt.Errorf("%w: alert has no products", errSkip)
	}

	if err := w.mailer.SendStockAlert(payload.ToEmail, payload.Alert); err != nil {
		return fmt.Errorf("email_worker: send to %s: %w", payload.ToEmail, err)
	}
	log.Info().Str("to", payload.ToEmail).Int("products", len(payload.Alert.Products)).Msg("email_worker: stock alert sent")
	return nil
}
