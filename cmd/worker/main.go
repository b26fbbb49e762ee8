package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/reset-mailer/internal/config"
	"github.com/jwalitptl/reset-mailer/internal/email"
	"github.com/jwalitptl/reset-mailer/internal/handler/health"
	promhandler "github.com/jwalitptl/reset-mailer/internal/handler/prometheus"
	"github.com/jwalitptl/reset-mailer/internal/middleware"
	"github.com/jwalitptl/reset-mailer/internal/repository/postgres"
	"github.com/jwalitptl/reset-mailer/internal/service/notification"
	"github.com/jwalitptl/reset-mailer/internal/tasks"
	"github.com/jwalitptl/reset-mailer/pkg/logger"
	"github.com/jwalitptl/reset-mailer/pkg/messaging"
	"github.com/jwalitptl/reset-mailer/pkg/messaging/redis"
	"github.com/jwalitptl/reset-mailer/pkg/metrics"
	"github.com/jwalitptl/reset-mailer/pkg/tracker"
)

const serviceName = "reset-mailer"

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	settings, err := config.LoadSettings()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load settings")
	}

	// Initialize logger
	appLogger := newLogger(cfg.Log)
	zl := appLogger.ZL

	// Initialize database
	db, err := postgres.NewDB(context.Background(), cfg.Database)
	if err != nil {
		appLogger.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()

	if cfg.Database.Migrate {
		if err := postgres.Migrate(context.Background(), db); err != nil {
			appLogger.Fatal(err, "Failed to migrate database")
		}
		appLogger.Info("Database migrated")
	}

	// Initialize Redis broker
	broker, err := redis.NewRedisBroker(cfg.Redis.ToBrokerConfig(), &zl)
	if err != nil {
		appLogger.Fatal(err, "Failed to create Redis broker")
	}
	defer broker.Close()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New("reset_mailer", registry)

	// Repositories and services
	baseRepo := postgres.NewBaseRepository(db)
	configRepo := postgres.NewConfigurationRepository(baseRepo)

	notifier := notification.NewPasswordResetNotifier(
		email.NewTemplateRenderer(),
		configRepo,
		email.NewGomailDialer(),
		settings,
		appLogger,
		m,
	)
	var errTracker tracker.Tracker = tracker.NewLogTracker(appLogger)
	if settings.TrackerChannel != "" {
		errTracker = tracker.NewBrokerTracker(
			messaging.NewChannelPublisher(broker, settings.TrackerChannel),
			serviceName,
			appLogger,
		)
	}

	// Tasks
	taskRegistry := tasks.NewRegistry()
	taskRegistry.Register(tasks.ForgotPasswordTask, tasks.ForgotPassword(notifier, errTracker, settings, appLogger, m))

	worker := tasks.NewWorker(broker, taskRegistry, tasks.WorkerConfig{
		Channel:     cfg.Worker.Channel,
		Concurrency: cfg.Worker.Concurrency,
	}, appLogger, m)

	// Admin server with health and metrics endpoints
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: newAdminRouter(appLogger.WithComponent("admin_http"), registry, &baseRepo, broker),
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal(err, "Admin server failed")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Shutting down...")
		cancel()
	}()

	if err := worker.Start(ctx); err != nil {
		appLogger.Error(err, "Worker stopped with error")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(err, "Admin server forced to shutdown")
	}

	appLogger.Info("Worker exited properly")
}

func newLogger(cfg config.LogConfig) *logger.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return logger.NewLogger(&logger.Config{
		Level:  level,
		Output: os.Stdout,
		JSON:   cfg.Format == "json",
	}).WithFields(map[string]interface{}{"service": serviceName})
}

func newAdminRouter(reqLog *logger.Logger, registry *prometheus.Registry, db health.Pinger, broker health.Pinger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Logger(reqLog), middleware.Recovery(reqLog))

	prom := promhandler.New(registry)
	r.Use(prom.Middleware())
	prom.RegisterRoutes(r)

	health.NewHandler(map[string]health.Pinger{
		"database": db,
		"redis":    broker,
	}).RegisterRoutes(r)

	return r
}
