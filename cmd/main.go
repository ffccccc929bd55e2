package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"observation-service/internal/config"
	"observation-service/internal/database/minio"
	"observation-service/internal/database/postgres"
	"observation-service/internal/database/redis"
	"observation-service/internal/event"
	"observation-service/internal/handlers"
	"observation-service/internal/metrics"
	"observation-service/internal/repository"
	"observation-service/internal/services"
	"observation-service/internal/utils"
	"observation-service/internal/worker"

	"github.com/gofiber/fiber/v3"
	"github.com/natefinch/lumberjack"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func setupLogging(cfg config.LogConfig) (*lumberjack.Logger, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Dir, "observation_service.log"),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}

	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handler := slog.NewTextHandler(io.MultiWriter(os.Stdout, rotator), &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
	})
	slog.SetDefault(slog.New(handler))

	return rotator, nil
}

func main() {
	cfg := config.New()

	rotator, err := setupLogging(cfg.LogCfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer rotator.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.ConnectWithRetry(ctx, cfg.PostgresCfg)
	if err != nil {
		log.Fatalf("error connect to database: %s", err)
	}
	defer db.Close()

	observationRepo := repository.NewObservationRepository(db)
	siteRepo := repository.NewPlantingSiteRepository(db)
	t0Repo := repository.NewT0DensityRepository(db)
	totalsRepo := repository.NewObservedTotalsRepository(db)

	var publisher services.ObservationEventPublisher
	var observationPublisher *event.ObservationPublisher
	if cfg.RabbitMQCfg.Enabled {
		conn, err := event.ConnectRabbitMQ(cfg.RabbitMQCfg)
		if err != nil {
			slog.Warn("RabbitMQ unavailable, observation events disabled", "error", err)
		} else {
			defer conn.Close()
			observationPublisher = event.NewObservationPublisher(conn)
			publisher = observationPublisher
		}
	}

	var cache services.ResultsCache
	if cfg.RedisCfg.Enabled {
		redisClient, err := redis.NewRedisClient(cfg.RedisCfg)
		if err != nil {
			slog.Warn("Redis unavailable, results cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			cache = redis.NewResultsCache(redisClient, cfg.RedisCfg.ResultsTTL)
		}
	}

	var archive services.ResultsArchive
	if cfg.MinioCfg.Enabled {
		minioClient, err := minio.NewMinioClient(cfg.MinioCfg)
		if err != nil {
			slog.Warn("MinIO unavailable, results archive disabled", "error", err)
		} else {
			archive = minio.NewResultsArchive(minioClient, cfg.MinioCfg.ResultsBucket)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	observationMetrics := metrics.NewObservationMetrics(registry)

	rng := services.NewLockedRandom(uint64(time.Now().UnixNano()), uint64(os.Getpid()))
	observationService := services.NewObservationService(observationRepo, publisher, rng, observationMetrics)
	resultsService := services.NewObservationResultsService(observationRepo, siteRepo, t0Repo, totalsRepo, cache, archive)

	var wg sync.WaitGroup
	pool := worker.NewWorkingPool(cfg.WorkerCfg.NumWorkers, cfg.WorkerCfg.QueueSize)
	wg.Add(1)
	go pool.Start(ctx, &wg)

	scheduler := worker.NewObservationStartScheduler(
		cfg.WorkerCfg.StartInterval, pool, observationRepo, observationService,
		services.ErrObservationAlreadyStarted, services.ErrObservationHasNoPlots)
	go scheduler.Run(ctx)

	metricsServer := &http.Server{
		Addr:              ":" + cfg.MetricsCfg.Port,
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server stopped", "error", err)
		}
	}()

	app := fiber.New()
	app.Get("/checkhealth", func(c fiber.Ctx) error {
		status := map[string]any{
			"service":  "observation-service",
			"database": postgres.Healthy(),
		}
		if observationPublisher != nil {
			status["events"] = observationPublisher.HealthCheck()
		}
		if !postgres.Healthy() {
			return c.Status(fiber.StatusServiceUnavailable).JSON(
				utils.CreateErrorResponse("UNHEALTHY", "Database connection unavailable"))
		}
		return c.Status(fiber.StatusOK).JSON(utils.CreateSuccessResponse(status))
	})
	handlers.NewObservationHandler(observationService, resultsService).Register(app)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			slog.Error("Failed to shut down HTTP server", "error", err)
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shut down metrics server", "error", err)
		}
	}()

	slog.Info("Observation service listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("HTTP server stopped", "error", err)
	}

	stop()
	wg.Wait()
}
