package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockpos/internal/config"
	"stockpos/internal/infra"
	"stockpos/internal/middleware"
	"stockpos/internal/router"
	"stockpos/internal/service"
	"stockpos/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger — dev: pretty, prod: JSON
	if cfg.Env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	devices, err := service.NewDeviceRegistryFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid device credentials")
	}
	if devices.Len() == 0 {
		log.Warn().Msg("no RFID devices configured; every scan will be rejected")
	}

	// ── Notification sinks ───────────────────────────────────────────────────
	sinks := []infra.EventSink{infra.NewRedisSink(rdb, cfg.SaleEventsChannel)}
	var kafkaSink *infra.KafkaSink
	if brokers := cfg.KafkaBrokerList(); len(brokers) > 0 {
		kafkaSink = infra.NewKafkaSink(brokers, cfg.KafkaTopic)
		sinks = append(sinks, kafkaSink)
		log.Info().Strs("brokers", brokers).Str("topic", cfg.KafkaTopic).Msg("kafka event sink enabled")
	}
	notifier := infra.NewEventNotifier(sinks...)

	metrics := infra.NewMetrics()
	svcs := router.NewServices(db, rdb, notifier, metrics, devices)

	// ── Background work ──────────────────────────────────────────────────────
	// Handlers are wired here (composition root) so the pool has access to
	// all infrastructure dependencies.
	mailer := infra.NewMailer(cfg)
	dispatcher := worker.NewDispatcher(rdb, metrics)
	dispatcher.Register(worker.JobStockAlertEmail, worker.NewEmailWorker(mailer).Process)
	workers := worker.StartWorkerPool(ctx, dispatcher, cfg.WorkerPoolSize)
	metrics.TrackQueue(worker.QueueEmail, listDepth(rdb, worker.QueueEmail))
	metrics.TrackQueue(worker.DLQPrefix+worker.QueueEmail, listDepth(rdb, worker.DLQPrefix+worker.QueueEmail))

	alertEmail := cfg.StockAlertEmail
	if !mailer.Enabled() {
		alertEmail = ""
	}
	worker.NewStockAlertCron(worker.StockAlertCronConfig{
		Inventory:  svcs.Inventory,
		Notifier:   notifier,
		Dispatcher: dispatcher,
		AlertEmail: alertEmail,
		Interval:   cfg.StockAlertInterval,
	}).Start(ctx)

	limiter := middleware.NewIPRateLimiter(cfg.RateLimitRPM)
	limiter.StartPurge(ctx)

	r := router.New(cfg, svcs, db, rdb, metrics, limiter)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("stockpos listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	cancel()
	workers.Wait()
	if kafkaSink != nil {
		if err := kafkaSink.Close(); err != nil {
			log.Warn().Err(err).Msg("kafka writer close")
		}
	}
	_ = rdb.Close()
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server exited")
}

// listDepth reports the length of a Redis list at scrape time; -1 means
// Redis did not answer.
func listDepth(rdb *redis.Client, key string) func() float64 {
	return func() float64 {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		n, err := rdb.LLen(ctx, key).Result()
		if err != nil {
			return -1
		}
		return float64(n)
	}
}
