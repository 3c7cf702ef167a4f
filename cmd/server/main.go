// Package main is the entry point for the application.
// It initializes all dependencies, sets up the HTTP server,
// and starts the application.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"walletledger/internal/config"
	"walletledger/internal/handlers"
	"walletledger/internal/logger"
	"walletledger/internal/metrics"
	"walletledger/internal/middleware"
	"walletledger/internal/repositories"
	"walletledger/internal/repositories/cache"
	"walletledger/internal/routes"
	"walletledger/internal/scheduler"
	"walletledger/internal/services/audit"
	"walletledger/internal/services/export"
	"walletledger/internal/services/notification"
	"walletledger/internal/services/wallet"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	version         = "1.0.0"
	shutdownTimeout = 15 * time.Second
)

// main initializes and starts the HTTP server and the background jobs.
// It performs the following setup:
// - Loads configuration
// - Initializes the database and Redis connections
// - Builds the audit, alert and metrics sinks
// - Configures routes and scheduled jobs
// - Runs until SIGINT or SIGTERM
func main() {
	// Load environment variables
	config.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}
	log := logger.New(cfg.LogLevel, cfg.Env == "production")

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped with error")
	}
	log.Info("server stopped")
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repositories.InitDB(cfg.DB, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := repositories.CloseDB(db); err != nil {
			log.WithError(err).Warn("failed to close database connection")
		}
	}()

	redisClient := cache.NewRedisClient(&cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	cacheService := cache.NewCacheService(redisClient)
	defer func() {
		if err := cacheService.Close(); err != nil {
			log.WithError(err).Warn("failed to close Redis connection")
		}
	}()
	if err := cacheService.HealthCheck(ctx); err != nil {
		// The rate limiter fails open while Redis is down.
		log.WithError(err).Warn("redis unavailable at startup")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	auditSink, closeAudit := newAuditSink(cfg.Kafka, log)
	defer closeAudit()
	alerts, closeAlerts := newAlertDispatcher(cfg.AMQP, log)
	defer closeAlerts()

	engineCfg, loc, err := engineConfig(cfg.Engine)
	if err != nil {
		return err
	}
	repo := repositories.NewWalletRepository(db, cfg.DB.LockTimeout)
	walletService := wallet.NewService(wallet.Dependencies{
		Repo:    repo,
		Audit:   auditSink,
		Alerts:  alerts,
		Metrics: collector,
		Logger:  log,
	}, engineCfg)

	jobs, err := newScheduler(ctx, cfg, log, collector, loc, walletService, repo)
	if err != nil {
		return err
	}

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimit > 0 {
		limiter = middleware.NewRateLimiter(cacheService, cfg.HTTP.RateLimit, cfg.HTTP.RateLimitWindow, collector, log)
	}
	health := handlers.NewHealthHandler(version, map[string]handlers.CheckFunc{
		"database": func(ctx context.Context) error { return repositories.PingDB(ctx, db) },
		"redis":    cacheService.HealthCheck,
	}).WithStats("redis_pool", func() interface{} { return cacheService.GetStats() })

	app := newApp(cfg, log)
	routes.SetupRoutes(app, routes.Dependencies{
		WalletService: walletService,
		Auth:          middleware.NewAuthMiddleware(cfg.JWT.Secret, cfg.JWT.Issuer, log),
		Health:        health,
		RateLimiter:   limiter,
		Gatherer:      registry,
		Logger:        log,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("port", cfg.HTTP.Port).Info("http server listening")
		return app.Listen(":" + cfg.HTTP.Port)
	})
	g.Go(func() error {
		jobs.Start()
		<-gctx.Done()
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		var errs []error
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			errs = append(errs, err)
		}
		if err := jobs.Shutdown(); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

func newApp(cfg *config.Config, log *logrus.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "walletledger",
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		DisableStartupMessage: cfg.Env == "production",
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.HTTP.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,HEAD",
	}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
		Output: log.Writer(),
	}))
	return app
}

func newAuditSink(cfg config.KafkaConfig, log *logrus.Logger) (audit.Sink, func()) {
	if !cfg.Enabled {
		return audit.NewLogSink(log), func() {}
	}
	sink := audit.NewKafkaSink(audit.NewKafkaWriter(cfg.Brokers, cfg.AuditTopic, log))
	log.WithField("topic", cfg.AuditTopic).Info("audit events go to kafka")
	return sink, func() {
		if err := sink.Close(); err != nil {
			log.WithError(err).Warn("failed to close kafka writer")
		}
	}
}

// newAlertDispatcher falls back to logging alerts when the broker cannot
// be reached, so a broker outage never blocks startup.
func newAlertDispatcher(cfg config.AMQPConfig, log *logrus.Logger) (notification.Dispatcher, func()) {
	if !cfg.Enabled {
		return notification.NewLogDispatcher(log), func() {}
	}
	publisher, err := notification.NewAMQPPublisher(cfg.URL, cfg.Exchange, log)
	if err != nil {
		log.WithError(err).Warn("amqp unavailable, alerts will only be logged")
		return notification.NewLogDispatcher(log), func() {}
	}
	return publisher, func() {
		if err := publisher.Close(); err != nil {
			log.WithError(err).Warn("failed to close amqp publisher")
		}
	}
}

func engineConfig(c config.EngineConfig) (wallet.Config, *time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return wallet.Config{}, nil, err
	}
	return wallet.Config{
		DefaultCurrency:               c.DefaultCurrency,
		SupportedCurrencies:           c.SupportedCurrencies,
		Location:                      loc,
		DefaultMinimumBalance:         c.DefaultMinimumBalance,
		DefaultDailyWithdrawalLimit:   c.DefaultDailyLimit,
		DefaultMonthlyWithdrawalLimit: c.DefaultMonthlyLimit,
		MinDepositAmount:              c.MinDepositAmount,
		MaxDepositAmount:              c.MaxDepositAmount,
		MinWithdrawalAmount:           c.MinWithdrawalAmount,
		LargeWithdrawalThreshold:      c.LargeWithdrawalThreshold,
		LowBalanceThreshold:           c.LowBalanceThreshold,
		InterestDayCount:              c.InterestDayCount,
		InterestScale:                 int32(c.InterestScale),
		PostCommitTimeout:             c.PostCommitTimeout,
	}, loc, nil
}

func newScheduler(
	ctx context.Context,
	cfg *config.Config,
	log *logrus.Logger,
	recorder scheduler.JobRecorder,
	loc *time.Location,
	accruer scheduler.Accruer,
	source export.EntrySource,
) (*scheduler.Scheduler, error) {
	jobs, err := scheduler.New(log, recorder, loc, cfg.Jobs.Timeout)
	if err != nil {
		return nil, err
	}
	if err := jobs.AddInterestAccrual(accruer, cfg.Jobs.InterestInterval); err != nil {
		return nil, err
	}

	if !cfg.S3.Enabled || !cfg.Jobs.ExportEnabled {
		return jobs, nil
	}
	client, err := export.NewS3Client(ctx, export.S3Options{
		Region:          cfg.S3.Region,
		Endpoint:        cfg.S3.Endpoint,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
	})
	if err != nil {
		return nil, err
	}
	exporter := export.NewStatementExporter(source, client, cfg.S3.Bucket, cfg.S3.Prefix, loc, log)
	if err := jobs.AddStatementExport(exporter, cfg.Jobs.ExportInterval); err != nil {
		return nil, err
	}
	return jobs, nil
}
