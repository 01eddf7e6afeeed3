package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueEmail = "jobs:email"

	JobStockAlertEmail = "stock_alert_email"

	unknownJobType = "unknown"

	// MaxJobAttempts is how often a job runs before it is dead-lettered.
	MaxJobAttempts = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// Handler processes one job payload. A returned error schedules a retry.
type Handler func(ctx context.Context, payload json.RawMessage) error

// JobRecorder receives job outcomes. *infra.Metrics implements it.
type JobRecorder interface {
	JobFinished(jobType, outcome string)
}

// Dispatcher enqueues async jobs into Redis lists and routes dequeued jobs
// to the handler registered for their type.
type Dispatcher struct {
	rdb     *redis.Client
	metrics JobRecorder

	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewDispatcher(rdb *redis.Client, metrics JobRecorder) *Dispatcher {
	return &Dispatcher{rdb: rdb, metrics: metrics, handlers: make(map[string]Handler)}
}

// Register binds a job type to its handler.
func (d *Dispatcher) Register(jobType string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[jobType] = h
}

// EnqueueStockAlertEmail pushes a low-stock e-mail job to Redis.
func (d *Dispatcher) EnqueueStockAlertEmail(ctx context.Context, payload StockAlertEmailPayload) error {
	return d.enqueue(ctx, QueueEmail, Job{Type: JobStockAlertEmail}, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue string, job Job, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job.Payload = data
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// StartWorkerPool launches numWorkers goroutines consuming the job queues.
// Each goroutine blocks on BRPOP, so idle workers cost no CPU. The returned
// WaitGroup is done once every worker has observed ctx cancellation.
func StartWorkerPool(ctx context.Context, d *Dispatcher, numWorkers int) *sync.WaitGroup {
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			d.runWorker(ctx, id)
		}(i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
	return &wg
}

func (d *Dispatcher) runWorker(ctx context.Context, id int) {
	queues := []string{QueueEmail}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := d.rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			d.processJob(ctx, result[0], result[1])
		}
	}
}

// processJob runs one raw job. Failures are re-queued until MaxJobAttempts,
// then dead-lettered together with malformed and unroutable jobs.
func (d *Dispatcher) processJob(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		payload, _ := json.Marshal(raw)
		d.deadLetter(ctx, queue, Job{Type: unknownJobType, Payload: payload}, "malformed job: "+err.Error())
		return
	}

	d.mu.RLock()
	h, ok := d.handlers[job.Type]
	d.mu.RUnlock()
	if !ok {
		d.deadLetter(ctx, queue, job, "no handler registered")
		return
	}

	job.Attempts++
	err := runHandler(ctx, h, job.Payload)
	if err == nil {
		log.Info().Str("type", job.Type).Int("attempt", job.Attempts).Msg("job done")
		d.record(job.Type, "ok")
		return
	}

	if job.Attempts >= MaxJobAttempts {
		d.deadLetter(ctx, queue, job, err.Error())
		return
	}
	log.Warn().Err(err).Str("type", job.Type).Int("attempt", job.Attempts).Msg("job failed, re-queued")
	if encoded, mErr := json.Marshal(job); mErr == nil {
		if pErr := d.rdb.LPush(ctx, queue, encoded).Err(); pErr != nil {
			log.Error().Err(pErr).Str("queue", queue).Msg("failed to re-queue job")
		}
	}
	d.record(job.Type, "retry")
}

func runHandler(ctx context.Context, h Handler, payload json.RawMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(fmt.Sprint("handler panic: ", r))
		}
	}()
	return h(ctx, payload)
}

func (d *Dispatcher) record(jobType, outcome string) {
	if d.metrics != nil {
		d.metrics.JobFinished(jobType, outcome)
	}
}
