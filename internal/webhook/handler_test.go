package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ckeepapp/ckeep-whatsapp-go/internal/bot"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/extract"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/logger"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/metrics"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/ratelimit"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/storage"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/wamsg"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type nullTransport struct {
	mu       sync.Mutex
	receipts []string
}

func (n *nullTransport) SendText(context.Context, string, string, string) error { return nil }
func (n *nullTransport) SendInteractive(context.Context, string, *wamsg.Interactive) error {
	return nil
}
func (n *nullTransport) SendReaction(context.Context, string, string, string) error { return nil }
func (n *nullTransport) SendReadReceipt(_ context.Context, messageID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.receipts = append(n.receipts, messageID)
	return nil
}
func (n *nullTransport) DownloadMedia(context.Context, string) ([]byte, string, error) {
	return nil, "", nil
}

func (n *nullTransport) receiptCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.receipts)
}

type nullExtractor struct{}

func (nullExtractor) ParseText(context.Context, string) []extract.Result { return nil }
func (nullExtractor) ParseImage(context.Context, []byte, string, string) []extract.Result {
	return nil
}
func (nullExtractor) ParseUpdate(context.Context, map[string]string, string) extract.Result {
	return extract.Result{}
}
func (nullExtractor) SearchCoupons(context.Context, []extract.CouponRow, string) []string {
	return nil
}
func (nullExtractor) IsEnabled() bool { return true }
func (nullExtractor) Close() error    { return nil }

func newTestHandler(t *testing.T, appSecret string, limiter *ratelimit.PerSender) (*Handler, *nullTransport) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := storage.NewTestDB()
	if err != nil {
		t.Fatalf("NewTestDB() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	transport := &nullTransport{}
	log := logger.NewWithWriter("error", io.Discard)
	dispatcher := bot.New(bot.Options{
		DB:        db,
		Extractor: nullExtractor{},
		Transport: transport,
		Logger:    log.Logger,
		BotNumber: "972500000099",
	})

	h := NewHandler(HandlerConfig{
		VerifyToken: "verify-me",
		AppSecret:   appSecret,
		Dispatcher:  dispatcher,
		Limiter:     limiter,
		Metrics:     metrics.New(prometheus.NewRegistry()),
		Logger:      log,
		Timeout:     5 * time.Second,
	})
	return h, transport
}

func newRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.GET("/webhook", h.HandleVerify)
	r.POST("/webhook", h.Handle)
	return r
}

func textEnvelope(from, messageID, text string) string {
	return fmt.Sprintf(`{
		"object": "whatsapp_business_account",
		"entry": [{"id": "1", "changes": [{"field": "messages", "value": {
			"messaging_product": "whatsapp",
			"messages": [{"from": %q, "id": %q, "type": "text", "text": {"body": %q}}]
		}}]}]
	}`, from, messageID, text)
}

// TestHandleVerify tests the subscription handshake
func TestHandleVerify(t *testing.T) {
	h, _ := newTestHandler(t, "", nil)
	router := newRouter(h)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantBody   string
	}{
		{"valid", "hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=12345", http.StatusOK, "12345"},
		{"wrong token", "hub.mode=subscribe&hub.verify_token=nope&hub.challenge=12345", http.StatusForbidden, "Verification token mismatch"},
		{"wrong mode", "hub.mode=unsubscribe&hub.verify_token=verify-me", http.StatusForbidden, "Verification token mismatch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/webhook?"+tt.query, nil)
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if w.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

// TestHandleDispatches tests end-to-end async processing
func TestHandleDispatches(t *testing.T) {
	h, transport := newTestHandler(t, "", nil)
	router := newRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook",
		bytes.NewBufferString(textEnvelope("972500000001", "wamid.1", "/list")))
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	h.Wait()
	if transport.receiptCount() != 1 {
		t.Errorf("read receipts = %d, want 1", transport.receiptCount())
	}
}

// TestHandleStatusOnlyEnvelope tests entries without messages
func TestHandleStatusOnlyEnvelope(t *testing.T) {
	h, transport := newTestHandler(t, "", nil)
	router := newRouter(h)

	body := `{"object":"whatsapp_business_account","entry":[{"id":"1","changes":[{"field":"messages","value":{"messaging_product":"whatsapp"}}]}]}`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(body)))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	h.Wait()
	if transport.receiptCount() != 0 {
		t.Errorf("read receipts = %d, want 0", transport.receiptCount())
	}
}

// TestHandleMalformedBody tests that unparseable payloads are acknowledged
// so Meta does not redeliver them, and that nothing reaches the dispatcher.
func TestHandleMalformedBody(t *testing.T) {
	h, transport := newTestHandler(t, "", nil)
	router := newRouter(h)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString("{not json")))
	h.Wait()

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if n := transport.receiptCount(); n != 0 {
		t.Errorf("dispatched %d messages from a malformed payload, want 0", n)
	}
}

// TestSignatureVerification tests the HMAC check
func TestSignatureVerification(t *testing.T) {
	const secret = "app-secret"
	body := textEnvelope("972500000001", "wamid.1", "hi")

	sign := func(payload string) string {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write([]byte(payload))
		return "sha256=" + hex.EncodeToString(mac.Sum(nil))
	}

	tests := []struct {
		name       string
		signature  string
		wantStatus int
	}{
		{"valid", sign(body), http.StatusOK},
		{"tampered", sign(body + "x"), http.StatusUnauthorized},
		{"missing", "", http.StatusUnauthorized},
		{"not hex", "sha256=zzzz", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(t, secret, nil)
			router := newRouter(h)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(body))
			if tt.signature != "" {
				req.Header.Set(signatureHeader, tt.signature)
			}
			router.ServeHTTP(w, req)
			h.Wait()

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

// TestSignatureSkippedWithoutSecret tests the no-secret passthrough
func TestSignatureSkippedWithoutSecret(t *testing.T) {
	h, _ := newTestHandler(t, "", nil)
	router := newRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook",
		bytes.NewBufferString(textEnvelope("972500000001", "wamid.1", "hi")))
	router.ServeHTTP(w, req)
	h.Wait()

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 without configured secret", w.Code)
	}
}

// TestRateLimitedSenderDropped tests the per-sender limiter integration
func TestRateLimitedSenderDropped(t *testing.T) {
	limiter := ratelimit.NewPerSender(1, 0.0001, time.Hour, nil)
	defer limiter.Close()
	h, transport := newTestHandler(t, "", limiter)
	router := newRouter(h)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/webhook",
			bytes.NewBufferString(textEnvelope("972500000001", fmt.Sprintf("wamid.%d", i), "/list")))
		router.ServeHTTP(w, req)
		h.Wait()
	}

	if transport.receiptCount() != 1 {
		t.Errorf("processed = %d, want 1 after rate limiting", transport.receiptCount())
	}
}

// TestNormalizeKinds tests envelope flattening per message type
func TestNormalizeKinds(t *testing.T) {
	envelope := Envelope{
		Entry: []Entry{{
			Changes: []Change{{
				Value: Value{Messages: []RawMessage{
					{From: "a", ID: "1", Type: "text", Text: &RawText{Body: "hi"}},
					{From: "a", ID: "2", Type: "image", Image: &RawMedia{ID: "m1", MimeType: "image/jpeg", Caption: "cap"}},
					{From: "a", ID: "3", Type: "document", Document: &RawMedia{ID: "m2", MimeType: "application/pdf"}},
					{From: "a", ID: "4", Type: "interactive", Interactive: &Interactive{Type: "button_reply", ButtonReply: &Reply{ID: "how_to_add"}}},
					{From: "a", ID: "5", Type: "interactive", Interactive: &Interactive{Type: "list_reply", ListReply: &Reply{ID: "coupon:a:c1"}}},
					{From: "a", ID: "6", Type: "audio"},
					{From: "a", ID: "7", Type: "text"}, // missing body
				}},
			}},
		}},
	}

	inbound := envelope.Normalize()
	if len(inbound) != 6 {
		t.Fatalf("normalized = %d messages, want 6", len(inbound))
	}

	wantKinds := []bot.Kind{bot.KindText, bot.KindImage, bot.KindDocument, bot.KindButtonReply, bot.KindListReply, bot.KindUnknown}
	for i, want := range wantKinds {
		if inbound[i].Kind != want {
			t.Errorf("inbound[%d].Kind = %q, want %q", i, inbound[i].Kind, want)
		}
	}
	if inbound[1].Text != "cap" {
		t.Errorf("image caption = %q, want cap", inbound[1].Text)
	}
	if inbound[3].InteractiveID != "how_to_add" {
		t.Errorf("button id = %q", inbound[3].InteractiveID)
	}
}
