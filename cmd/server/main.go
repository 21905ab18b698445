package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ckeepapp/ckeep-whatsapp-go/internal/bot"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/buildinfo"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/config"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/extract"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/logger"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/metrics"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/r2client"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/ratelimit"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/sentry"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/snapshot"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/storage"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/webhook"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/whatsapp"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewWithOptions(cfg.LogLevel, os.Stdout, logger.Options{
		BetterStackToken:    cfg.BetterStackToken,
		BetterStackEndpoint: cfg.BetterStackEndpoint,
	})
	log.WithField("version", buildinfo.Version).
		WithField("commit", buildinfo.Commit).
		Info("Starting CKeep WhatsApp Bot Server")

	// Initialize Sentry error tracking
	if cfg.SentryEnabled {
		if err := sentry.Initialize(sentry.Config{
			DSN:         cfg.SentryDSN,
			Environment: cfg.SentryEnvironment,
			Release:     buildinfo.Version,
			SampleRate:  cfg.SentrySampleRate,
		}); err != nil {
			log.WithError(err).Error("Failed to initialize Sentry")
			os.Exit(1)
		}
		defer sentry.Flush(2 * time.Second)
		log.Info("Sentry initialized")
	}

	// Create R2 client for database backups
	var r2 *r2client.Client
	if cfg.R2Enabled {
		r2, err = r2client.New(context.Background(), r2client.Config{
			Endpoint:    cfg.R2Endpoint,
			AccessKeyID: cfg.R2AccessKeyID,
			SecretKey:   cfg.R2SecretAccessKey,
			BucketName:  cfg.R2BucketName,
		})
		if err != nil {
			log.WithError(err).Error("Failed to create R2 client")
			os.Exit(1)
		}

		// Fresh deployments start from the latest backup
		restored, err := snapshot.RestoreIfMissing(context.Background(), r2, cfg.R2SnapshotKey, cfg.SQLitePath())
		if err != nil {
			log.WithError(err).Error("Failed to restore database snapshot")
			os.Exit(1)
		}
		if restored {
			log.WithField("key", cfg.R2SnapshotKey).Info("Database restored from snapshot")
		}
	}

	// Connect to database
	db, err := storage.New(cfg.SQLitePath())
	if err != nil {
		log.WithError(err).Error("Failed to connect to database")
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()
	log.WithField("path", cfg.SQLitePath()).Info("Database connected")

	// Create Prometheus registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewBuildInfoCollector())

	m := metrics.New(registry)
	log.Info("Metrics initialized")

	// Create LLM extraction gateway
	extractor, err := extract.New(context.Background(), cfg, m)
	if err != nil {
		log.WithError(err).Error("Failed to create extraction gateway")
		os.Exit(1)
	}
	defer func() { _ = extractor.Close() }()
	if extractor.IsEnabled() {
		log.Info("Extraction gateway created")
	} else {
		log.Warn("No LLM provider configured, coupon extraction disabled")
	}

	// Create WhatsApp Cloud API transport
	transport := whatsapp.New(
		cfg.GraphAPIBaseURL,
		cfg.WhatsAppToken,
		cfg.WhatsAppPhoneNumberID,
		cfg.TransportTimeout,
		log.Logger,
		whatsapp.WithMetrics(m),
	)
	log.Info("WhatsApp transport created")

	// Create message dispatcher
	dispatcher := bot.New(bot.Options{
		DB:            db,
		Extractor:     extractor,
		Transport:     transport,
		Logger:        log.Logger,
		Metrics:       m,
		BotNumber:     cfg.WhatsAppPhoneNumber,
		MinTextLength: cfg.ExtractionMinLength,
	})

	// Per-sender rate limiter
	limiter := ratelimit.NewPerSender(cfg.UserRateBurst, cfg.UserRateRefill, 10*time.Minute, m)
	defer limiter.Close()

	// Create webhook handler
	webhookHandler := webhook.NewHandler(webhook.HandlerConfig{
		VerifyToken: cfg.VerifyToken,
		AppSecret:   cfg.AppSecret,
		Dispatcher:  dispatcher,
		Limiter:     limiter,
		Metrics:     m,
		Logger:      log,
		Timeout:     cfg.WebhookTimeout,
	})
	log.Info("Webhook handler created")

	// Set Gin mode based on log level
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(log))
	if cfg.SentryEnabled {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}

	setupRoutes(router, cfg, webhookHandler, db, extractor, registry)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  config.HTTPReadTimeout,
		WriteTimeout: config.HTTPWriteTimeout,
		IdleTimeout:  config.HTTPIdleTimeout,
	}

	// Start background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()
	jobs, jobCtx := errgroup.WithContext(jobCtx)

	if cfg.ExpiryReminderEnabled {
		jobs.Go(func() error {
			runExpiryReminders(jobCtx, cfg, db, transport, log)
			return nil
		})
	}

	if cfg.R2Enabled {
		snapshots := snapshot.New(r2, db, snapshot.Config{
			SnapshotKey: cfg.R2SnapshotKey,
			Interval:    cfg.SnapshotInterval,
		}, log.Logger, m)
		jobs.Go(func() error {
			snapshots.Run(jobCtx)
			return nil
		})
	}

	// Start server
	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Failed to start server")
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Stop accepting new requests first
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	// Let in-flight webhook processing drain
	webhookHandler.Wait()

	// Stop background jobs
	cancelJobs()
	if err := jobs.Wait(); err != nil {
		log.WithError(err).Error("Background job failed")
	}

	log.Info("Server stopped")
}
