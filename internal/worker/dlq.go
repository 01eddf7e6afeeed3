package worker

// Dead-letter store: one Redis list per source queue, dlq:<queue>. Entries
// stay until an operator replays them.

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DLQPrefix = "dlq:"

// DLQEntry is a dead job plus why it died.
type DLQEntry struct {
	Queue    string          `json:"queue"`
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Reason   string          `json:"reason"`
	Attempts int             `json:"attempts"`
	FailedAt time.Time       `json:"failedAt"`
}

func dlqKey(queue string) string { return DLQPrefix + queue }

// deadLetter parks job under dlq:<queue> and counts it as dead. A failed push
// is logged; the job is lost.
func (d *Dispatcher) deadLetter(ctx context.Context, queue string, job Job, reason string) {
	d.record(job.Type, "dead")

	data, err := json.Marshal(DLQEntry{
		Queue:    queue,
		Type:     job.Type,
		Payload:  job.Payload,
		Reason:   reason,
		Attempts: job.Attempts,
		FailedAt: time.Now().UTC(),
	})
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: marshal entry")
		return
	}
	if err := d.rdb.LPush(ctx, dlqKey(queue), data).Err(); err != nil {
		log.Error().Err(err).Str("queue", queue).Str("type", job.Type).Msg("dlq: push failed, job lost")
		return
	}
	log.Warn().
		Str("queue", queue).
		Str("type", job.Type).
		Str("reason", reason).
		Int("attempts", job.Attempts).
		Msg("dlq: job dead-lettered")
}

// DLQLength reports how many dead jobs wait under queue.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, dlqKey(queue)).Result()
}

// PeekDLQ returns up to n of the newest entries without removing them.
// Entries that no longer decode are skipped.
func PeekDLQ(ctx context.Context, rdb *redis.Client, queue string, n int64) ([]DLQEntry, error) {
	if n <= 0 {
		return []DLQEntry{}, nil
	}
	raws, err := rdb.LRange(ctx, dlqKey(queue), 0, n-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]DLQEntry, 0, len(raws))
	for _, raw := range raws {
		var e DLQEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// ReplayDLQ moves up to n of the oldest entries back onto queue with a fresh
// attempt budget and returns how many were re-queued. Entries without a job
// type came from malformed input and are discarded.
func ReplayDLQ(ctx context.Context, rdb *redis.Client, queue string, n int) (int, error) {
	replayed := 0
	for i := 0; i < n; i++ {
		raw, err := rdb.RPop(ctx, dlqKey(queue)).Result()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return replayed, err
		}

		var e DLQEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil || e.Type == "" || e.Type == unknownJobType {
			log.Warn().Str("queue", queue).Msg("dlq: discarding unreplayable entry")
			continue
		}
		encoded, err := json.Marshal(Job{Type: e.Type, Payload: e.Payload})
		if err != nil {
			return replayed, err
		}
		if err := rdb.LPush(ctx, queue, encoded).Err(); err != nil {
			// Put it back so nothing is lost.
			_ = rdb.RPush(ctx, dlqKey(queue), raw).Err()
			return replayed, err
		}
		replayed++
	}
	if replayed > 0 {
		log.Info().Str("queue", queue).Int("replayed", replayed).Msg("dlq: jobs replayed")
	}
	return replayed, nil
}
