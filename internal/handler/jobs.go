package handler

import (
	"net/http"

	"stockpos/internal/middleware"
	"stockpos/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// JobsHandler lets admins inspect and replay dead-lettered background jobs.
type JobsHandler struct{ rdb *redis.Client }

func NewJobsHandler(rdb *redis.Client) *JobsHandler { return &JobsHandler{rdb: rdb} }

type dlqQuery struct {
	Queue string `form:"queue" validate:"omitempty,oneof=jobs:email"`
	Limit int    `form:"limit" validate:"omitempty,min=1,max=200"`
}

func (q *dlqQuery) defaults() {
	if q.Queue == "" {
		q.Queue = worker.QueueEmail
	}
	if q.Limit == 0 {
		q.Limit = 50
	}
}

// DeadLetters godoc
// @Summary      List dead-lettered jobs, newest first
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        queue query string false "Source queue" default(jobs:email)
// @Param        limit query int false "Max entries" default(50)
// @Success      200 {object} map[string]interface{}
// @Router       /v1/admin/jobs/dlq [get]
func (h *JobsHandler) DeadLetters(c *gin.Context) {
	var q dlqQuery
	if !bindQuery(c, &q) {
		return
	}
	q.defaults()

	ctx := c.Request.Context()
	total, err := worker.DLQLength(ctx, h.rdb, q.Queue)
	if err != nil {
		writeError(c, err)
		return
	}
	entries, err := worker.PeekDLQ(ctx, h.rdb, q.Queue, int64(q.Limit))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"queue": q.Queue, "total": total, "data": entries})
}

// Replay godoc
// @Summary      Re-queue the oldest dead-lettered jobs
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        queue query string false "Source queue" default(jobs:email)
// @Param        limit query int false "Max jobs to replay" default(50)
// @Success      200 {object} map[string]interface{}
// @Router       /v1/admin/jobs/dlq/replay [post]
func (h *JobsHandler) Replay(c *gin.Context) {
	var q dlqQuery
	if !bindQuery(c, &q) {
		return
	}
	q.defaults()

	n, err := worker.ReplayDLQ(c.Request.Context(), h.rdb, q.Queue, q.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	middleware.ReqLog(c).Info().Str("queue", q.Queue).Int("replayed", n).Msg("dlq replay requested")
	c.JSON(http.StatusOK, gin.H{"queue": q.Queue, "replayed": n})
}
