package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/course-conditions/internal/config"
	"github.com/course-conditions/internal/handler"
	"github.com/course-conditions/internal/identity"
	"github.com/course-conditions/internal/kafka"
	"github.com/course-conditions/internal/postgres"
	"github.com/course-conditions/internal/redis"
	"github.com/course-conditions/internal/service"
	"github.com/course-conditions/internal/worker"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warn("failed to load config file, using defaults", "error", err)
		cfg = config.DefaultConfig()
	}

	if cfg.Auth.JWTSecret == "" {
		logger.Error("auth.jwt_secret is required")
		os.Exit(1)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize PostgreSQL
	logger.Info("connecting to PostgreSQL", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
	repo, err := postgres.NewRepository(&cfg.Postgres, logger)
	if err != nil {
		logger.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to PostgreSQL")

	// Run database migrations
	if err := repo.RunMigrations(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// The batched condition queries depend on the composite report index;
	// surface the exact definition to create when it is missing
	if err := repo.VerifyReportIndex(ctx); err != nil {
		logger.Error("report index check failed", "error", err)
		os.Exit(1)
	}

	// Initialize services
	conditionService := service.NewConditionService(repo, repo, &cfg.Conditions, logger)
	courseService := service.NewCourseService(repo, conditionService, logger)

	provider := identity.NewProvider(&cfg.Auth, logger)
	profileService := service.NewProfileService(repo, provider, logger)

	// Initialize submission rate limiter
	var limiter *redis.RateLimiter
	if cfg.RateLimit.Enabled {
		logger.Info("connecting to Redis", "addr", cfg.Redis.Addr)
		limiter, err = redis.NewRateLimiter(&cfg.Redis, &cfg.RateLimit, logger)
		if err != nil {
			logger.Warn("failed to connect to Redis, continuing without rate limiting", "error", err)
		} else {
			defer limiter.Close()
			conditionService.SetRateLimiter(limiter)
			logger.Info("submission rate limiting enabled",
				"max_submissions", cfg.RateLimit.MaxSubmissions,
				"window", cfg.RateLimit.Window,
			)
		}
	}

	// Initialize Kafka producer for report events
	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		logger.Info("initializing Kafka producer", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
		producer, err = kafka.NewProducer(&cfg.Kafka, logger)
		if err != nil {
			logger.Warn("failed to create Kafka producer, continuing without report events", "error", err)
		} else {
			conditionService.SetEventPublisher(producer)
			logger.Info("Kafka producer started")
		}
	}

	// Start store health worker
	healthWorker := worker.NewHealthWorker(repo, &cfg.Worker, logger)
	if cfg.Worker.Enabled {
		if err := healthWorker.Start(ctx); err != nil {
			logger.Error("failed to start health worker", "error", err)
			os.Exit(1)
		}
	}

	// Initialize HTTP handler
	verifier := identity.NewJWTVerifier(cfg.Auth.JWTSecret)
	httpHandler := handler.NewHandler(courseService, conditionService, profileService, verifier, &cfg.Server, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpHandler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop health worker
	if cfg.Worker.Enabled {
		if err := healthWorker.Stop(); err != nil {
			logger.Error("failed to stop health worker", "error", err)
		}
	}

	// Stop Kafka producer
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("failed to stop Kafka producer", "error", err)
		}
	}

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	}

	logger.Info("server stopped")
}
