package main

import (
	"net/http"

	"github.com/ckeepapp/ckeep-whatsapp-go/internal/buildinfo"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/config"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/extract"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/storage"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/webhook"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRoutes configures all HTTP routes
func setupRoutes(router *gin.Engine, cfg *config.Config, webhookHandler *webhook.Handler, db *storage.DB, extractor extract.Extractor, registry *prometheus.Registry) {
	rootHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "ckeep-whatsapp-bot",
			"version": buildinfo.Version,
		})
	}
	router.GET("/", rootHandler)
	router.HEAD("/", rootHandler)

	// Liveness Probe - checks if the application is alive (minimal check)
	// This should NEVER check dependencies - only that the process is running
	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/healthz", healthHandler)
	router.HEAD("/healthz", healthHandler)

	// Readiness Probe - checks if the application is ready to serve traffic
	readyHandler := func(c *gin.Context) {
		if err := db.Conn().PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"reason": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":     "ready",
			"database":   "connected",
			"extraction": extractor.IsEnabled(),
		})
	}
	router.GET("/ready", readyHandler)
	router.HEAD("/ready", readyHandler)

	// Meta webhook endpoints: GET for the subscription handshake,
	// POST for message notifications
	router.GET("/webhook", webhookHandler.HandleVerify)
	router.POST("/webhook", webhookHandler.Handle)

	// Prometheus metrics endpoint, Basic Auth when a password is configured
	metricsHandler := gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	if cfg.MetricsPassword != "" {
		authorized := router.Group("/", gin.BasicAuth(gin.Accounts{
			cfg.MetricsUsername: cfg.MetricsPassword,
		}))
		authorized.GET("/metrics", metricsHandler)
	} else {
		router.GET("/metrics", metricsHandler)
	}
}
