// Package whatsapp implements the WhatsApp Cloud API transport: sending
// messages, reactions and read receipts, and downloading inbound media.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/ckeepapp/ckeep-whatsapp-go/internal/errors"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/wamsg"
)

// maxMediaBytes caps inbound media downloads. The Cloud API itself limits
// images to 5MB and documents to 100MB; anything near that is not a coupon.
const maxMediaBytes = 32 << 20

// MetricsRecorder records transport call outcomes. Duration is in seconds.
type MetricsRecorder interface {
	RecordTransport(operation, status string, duration float64)
}

// Client talks to the Graph API /messages endpoint for one phone number id.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	token         string
	phoneNumberID string
	logger        *slog.Logger
	metrics       MetricsRecorder
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a Cloud API client. baseURL is the Graph API root without a
// trailing slash, e.g. "https://graph.facebook.com/v19.0".
func New(baseURL, token, phoneNumberID string, timeout time.Duration, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient:    &http.Client{Timeout: timeout},
		baseURL:       baseURL,
		token:         token,
		phoneNumberID: phoneNumberID,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendText sends a plain text message. replyToID threads it as a reply
// when non-empty.
func (c *Client) SendText(ctx context.Context, to, body, replyToID string) error {
	return c.send(ctx, "send_text", wamsg.NewText(to, body, replyToID))
}

// SendInteractive sends an interactive message (buttons, list or CTA).
func (c *Client) SendInteractive(ctx context.Context, to string, interactive *wamsg.Interactive) error {
	return c.send(ctx, "send_interactive", wamsg.NewInteractive(to, interactive))
}

// SendReaction attaches an emoji reaction to messageID. An empty emoji
// clears a previous reaction.
func (c *Client) SendReaction(ctx context.Context, to, messageID, emoji string) error {
	return c.send(ctx, "send_reaction", wamsg.NewReaction(to, messageID, emoji))
}

// SendReadReceipt marks an inbound message as read.
func (c *Client) SendReadReceipt(ctx context.Context, messageID string) error {
	return c.send(ctx, "send_read_receipt", wamsg.NewReadReceipt(messageID))
}

func (c *Client) send(ctx context.Context, operation string, msg *wamsg.Message) error {
	start := time.Now()
	err := c.post(ctx, operation, msg)
	c.record(operation, err, time.Since(start))
	if err != nil {
		c.logger.ErrorContext(ctx, "whatsapp send failed",
			slog.String("operation", operation),
			slog.Any("error", err),
		)
	}
	return err
}

func (c *Client) post(ctx context.Context, operation string, msg *wamsg.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return apperrors.NewTransportError(operation, 0, err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return apperrors.NewTransportError(operation, 0, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewTransportError(operation, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return apperrors.NewTransportError(operation, resp.StatusCode,
			fmt.Errorf("graph api: %s", bytes.TrimSpace(body)))
	}

	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// mediaInfo is the Graph API media metadata response.
type mediaInfo struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
}

// DownloadMedia resolves a media id to its short-lived URL and downloads
// the content. It returns the raw bytes and the reported MIME type.
func (c *Client) DownloadMedia(ctx context.Context, mediaID string) ([]byte, string, error) {
	start := time.Now()
	data, mimeType, err := c.downloadMedia(ctx, mediaID)
	c.record("download_media", err, time.Since(start))
	if err != nil {
		c.logger.ErrorContext(ctx, "media download failed",
			slog.String("media_id", mediaID),
			slog.Any("error", err),
		)
	}
	return data, mimeType, err
}

func (c *Client) downloadMedia(ctx context.Context, mediaID string) ([]byte, string, error) {
	var info mediaInfo
	if err := c.getJSON(ctx, fmt.Sprintf("%s/%s", c.baseURL, mediaID), &info); err != nil {
		return nil, "", err
	}
	if info.URL == "" {
		return nil, "", apperrors.NewTransportError("download_media", 0,
			fmt.Errorf("no download url for media %s", mediaID))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, info.URL, nil)
	if err != nil {
		return nil, "", apperrors.NewTransportError("download_media", 0, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", apperrors.NewTransportError("download_media", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", apperrors.NewTransportError("download_media", resp.StatusCode,
			fmt.Errorf("media content fetch for %s", mediaID))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes+1))
	if err != nil {
		return nil, "", apperrors.NewTransportError("download_media", 0, err)
	}
	if len(data) > maxMediaBytes {
		return nil, "", apperrors.NewTransportError("download_media", 0,
			fmt.Errorf("media %s exceeds %d bytes", mediaID, maxMediaBytes))
	}
	return data, info.MimeType, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return apperrors.NewTransportError("download_media", 0, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewTransportError("download_media", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.NewTransportError("download_media", resp.StatusCode,
			fmt.Errorf("media metadata fetch"))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewTransportError("download_media", 0, err)
	}
	return nil
}

func (c *Client) record(operation string, err error, duration time.Duration) {
	if c.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	c.metrics.RecordTransport(operation, status, duration.Seconds())
}
