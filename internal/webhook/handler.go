// Package webhook receives Meta webhook callbacks: hub verification,
// signature checking and asynchronous dispatch of inbound messages to the
// bot.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ckeepapp/ckeep-whatsapp-go/internal/bot"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/ctxutil"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/logger"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/metrics"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

// maxBodyBytes caps the webhook request body.
const maxBodyBytes = 1 << 20

// signatureHeader carries the HMAC of the body, prefixed "sha256=".
const signatureHeader = "X-Hub-Signature-256"

// Handler handles Meta webhook callbacks.
type Handler struct {
	verifyToken string
	appSecret   string
	dispatcher  *bot.Dispatcher
	limiter     *ratelimit.PerSender
	metrics     *metrics.Metrics
	logger      *logger.Logger
	timeout     time.Duration
	wg          sync.WaitGroup
}

// HandlerConfig holds configuration for creating a new Handler.
type HandlerConfig struct {
	VerifyToken string
	// AppSecret enables signature verification when non-empty.
	AppSecret  string
	Dispatcher *bot.Dispatcher
	Limiter    *ratelimit.PerSender
	Metrics    *metrics.Metrics
	Logger     *logger.Logger
	// Timeout bounds the processing of one inbound message.
	Timeout time.Duration
}

// NewHandler creates a webhook handler.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Handler{
		verifyToken: cfg.VerifyToken,
		appSecret:   cfg.AppSecret,
		dispatcher:  cfg.Dispatcher,
		limiter:     cfg.Limiter,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		timeout:     cfg.Timeout,
	}
}

// HandleVerify is the Gin handler for Meta's GET subscription handshake.
func (h *Handler) HandleVerify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")

	if mode == "subscribe" && token == h.verifyToken {
		c.String(http.StatusOK, c.Query("hub.challenge"))
		return
	}

	h.logger.Warn("webhook verification rejected")
	c.String(http.StatusForbidden, "Verification token mismatch")
}

// Handle is the Gin handler for webhook notifications. It acknowledges
// with 200 before processing; Meta redelivers on anything else.
func (h *Handler) Handle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		h.logger.WithError(err).Error("reading webhook body failed")
		c.Status(http.StatusInternalServerError)
		return
	}

	if !h.verifySignature(body, c.GetHeader(signatureHeader)) {
		h.logger.Warn("invalid webhook signature")
		h.metrics.RecordHTTPError("invalid_signature", "webhook")
		c.Status(http.StatusUnauthorized)
		return
	}

	// Content problems are acknowledged with 200 so Meta does not keep
	// redelivering a payload that will never parse.
	var envelope Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		h.logger.WithError(err).Warn("malformed webhook payload")
		h.metrics.RecordHTTPError("malformed_payload", "webhook")
		c.Status(http.StatusOK)
		return
	}

	c.Status(http.StatusOK)

	inbound := envelope.Normalize()
	if len(inbound) == 0 {
		return
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				h.logger.WithField("panic", r).Error("panic in webhook processing")
			}
		}()
		for _, in := range inbound {
			h.process(in)
		}
	}()
}

// Wait blocks until all in-flight message processing finishes. Called
// during graceful shutdown.
func (h *Handler) Wait() {
	h.wg.Wait()
}

func (h *Handler) process(in *bot.Inbound) {
	start := time.Now()

	if h.limiter != nil && !h.limiter.Allow(in.From) {
		h.logger.WithField("from", in.From).Warn("dropping rate limited message")
		h.metrics.RecordWebhook(string(in.Kind), "rate_limited", time.Since(start).Seconds())
		return
	}

	ctx := context.Background()
	ctx = ctxutil.WithUserID(ctx, in.From)
	ctx = ctxutil.WithMessageID(ctx, in.MessageID)
	ctx = ctxutil.WithRequestID(ctx, in.MessageID)
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	err := h.dispatcher.Dispatch(ctx, in)

	status := "success"
	if err != nil {
		status = "error"
		h.logger.WithError(err).
			WithField("from", in.From).
			WithField("kind", string(in.Kind)).
			Error("message processing failed")
	}
	h.metrics.RecordWebhook(string(in.Kind), status, time.Since(start).Seconds())
}

// verifySignature checks the sha256 HMAC Meta signs request bodies with.
// Verification is skipped when no app secret is configured.
func (h *Handler) verifySignature(body []byte, header string) bool {
	if h.appSecret == "" {
		return true
	}

	provided, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	providedMAC, err := hex.DecodeString(provided)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.appSecret))
	mac.Write(body)
	return hmac.Equal(providedMAC, mac.Sum(nil))
}
