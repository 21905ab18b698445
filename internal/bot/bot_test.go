package bot

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/ckeepapp/ckeep-whatsapp-go/internal/extract"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/storage"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/wamsg"
)

const (
	userAlice = "972500000001"
	userBob   = "972500000002"
	botNumber = "972500000099"
)

type sentMessage struct {
	kind        string // "text", "interactive", "reaction", "read"
	to          string
	body        string
	replyTo     string
	interactive *wamsg.Interactive
	emoji       string
	messageID   string
}

type fakeTransport struct {
	sent      []sentMessage
	media     []byte
	mediaMime string
	mediaErr  error
}

func (f *fakeTransport) SendText(_ context.Context, to, body, replyToID string) error {
	f.sent = append(f.sent, sentMessage{kind: "text", to: to, body: body, replyTo: replyToID})
	return nil
}

func (f *fakeTransport) SendInteractive(_ context.Context, to string, interactive *wamsg.Interactive) error {
	f.sent = append(f.sent, sentMessage{kind: "interactive", to: to, interactive: interactive})
	return nil
}

func (f *fakeTransport) SendReaction(_ context.Context, to, messageID, emoji string) error {
	f.sent = append(f.sent, sentMessage{kind: "reaction", to: to, messageID: messageID, emoji: emoji})
	return nil
}

func (f *fakeTransport) SendReadReceipt(_ context.Context, messageID string) error {
	f.sent = append(f.sent, sentMessage{kind: "read", messageID: messageID})
	return nil
}

func (f *fakeTransport) DownloadMedia(_ context.Context, _ string) ([]byte, string, error) {
	return f.media, f.mediaMime, f.mediaErr
}

// last returns the most recent message of the given kind, or nil.
func (f *fakeTransport) last(kind string) *sentMessage {
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].kind == kind {
			return &f.sent[i]
		}
	}
	return nil
}

func (f *fakeTransport) reactions() []string {
	var emojis []string
	for _, m := range f.sent {
		if m.kind == "reaction" {
			emojis = append(emojis, m.emoji)
		}
	}
	return emojis
}

type fakeExtractor struct {
	textResults  []extract.Result
	imageResults []extract.Result
	updateResult extract.Result
	searchIDs    []string

	lastText   string
	lastUpdate string
}

func (f *fakeExtractor) ParseText(_ context.Context, text string) []extract.Result {
	f.lastText = text
	return f.textResults
}

func (f *fakeExtractor) ParseImage(_ context.Context, _ []byte, _, _ string) []extract.Result {
	return f.imageResults
}

func (f *fakeExtractor) ParseUpdate(_ context.Context, _ map[string]string, request string) extract.Result {
	f.lastUpdate = request
	return f.updateResult
}

func (f *fakeExtractor) SearchCoupons(_ context.Context, _ []extract.CouponRow, _ string) []string {
	return f.searchIDs
}

func (f *fakeExtractor) IsEnabled() bool { return true }
func (f *fakeExtractor) Close() error    { return nil }

func newTestDispatcher(t *testing.T) (*Dispatcher, *fakeTransport, *fakeExtractor, *storage.DB) {
	t.Helper()
	db, err := storage.NewTestDB()
	if err != nil {
		t.Fatalf("NewTestDB() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	transport := &fakeTransport{}
	extractor := &fakeExtractor{}
	d := New(Options{
		DB:        db,
		Extractor: extractor,
		Transport: transport,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		BotNumber: botNumber,
	})
	return d, transport, extractor, db
}

func textMessage(from, text string) *Inbound {
	return &Inbound{From: from, MessageID: "wamid.in", Kind: KindText, Text: text}
}

func buttonMessage(from, id string) *Inbound {
	return &Inbound{From: from, MessageID: "wamid.in", Kind: KindButtonReply, InteractiveID: id}
}

func listMessage(from, id string) *Inbound {
	return &Inbound{From: from, MessageID: "wamid.in", Kind: KindListReply, InteractiveID: id}
}

func storeTestCoupon(t *testing.T, db *storage.DB, owner, id, store string) *storage.Coupon {
	t.Helper()
	c := &storage.Coupon{
		OwnerID:        owner,
		CouponID:       id,
		OriginMsgID:    "wamid.origin." + id,
		Store:          store,
		CouponCode:     "CODE-" + id,
		ExpirationDate: "2026-12-31",
		Category:       storage.CategoryOther,
	}
	if err := db.StoreCoupon(context.Background(), c); err != nil {
		t.Fatalf("StoreCoupon() error = %v", err)
	}
	return c
}

// TestDispatchSendsReadReceiptFirst tests receipt ordering
func TestDispatchSendsReadReceiptFirst(t *testing.T) {
	d, transport, _, _ := newTestDispatcher(t)

	if err := d.Dispatch(context.Background(), textMessage(userAlice, "/list")); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if len(transport.sent) == 0 || transport.sent[0].kind != "read" {
		t.Fatalf("first send = %+v, want read receipt", transport.sent)
	}
}

// TestListCommand tests /list and the bare bang alias
func TestListCommand(t *testing.T) {
	for _, cmd := range []string{"/list", "!"} {
		t.Run(cmd, func(t *testing.T) {
			d, transport, _, db := newTestDispatcher(t)
			storeTestCoupon(t, db, userAlice, "c1", "Fox")

			if err := d.Dispatch(context.Background(), textMessage(userAlice, cmd)); err != nil {
				t.Fatalf("Dispatch() error = %v", err)
			}
			msg := transport.last("interactive")
			if msg == nil || msg.interactive.Type != "list" {
				t.Fatalf("expected a coupon list, got %+v", msg)
			}
		})
	}
}

// TestListThreshold tests the switch to the category index
func TestListThreshold(t *testing.T) {
	ctx := context.Background()

	t.Run("at threshold", func(t *testing.T) {
		d, transport, _, db := newTestDispatcher(t)
		for i := 0; i < 10; i++ {
			storeTestCoupon(t, db, userAlice, string(rune('a'+i)), "Store")
		}
		if err := d.Dispatch(ctx, textMessage(userAlice, "/list")); err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
		msg := transport.last("interactive")
		if msg.interactive.Action.Button != "בחר קופון" {
			t.Errorf("expected the flat list at the threshold, got button %q", msg.interactive.Action.Button)
		}
	})

	t.Run("above threshold", func(t *testing.T) {
		d, transport, _, db := newTestDispatcher(t)
		for i := 0; i < 11; i++ {
			storeTestCoupon(t, db, userAlice, string(rune('a'+i)), "Store")
		}
		if err := d.Dispatch(ctx, textMessage(userAlice, "/list")); err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
		msg := transport.last("interactive")
		if msg.interactive.Action.Button != "בחר קטגוריה" {
			t.Errorf("expected the category index above the threshold, got button %q", msg.interactive.Action.Button)
		}
	})
}

// TestShortTextGetsWelcome tests the short message guard
func TestShortTextGetsWelcome(t *testing.T) {
	d, transport, extractor, _ := newTestDispatcher(t)

	if err := d.Dispatch(context.Background(), textMessage(userAlice, "היי")); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if extractor.lastText != "" {
		t.Error("short text must not reach the extractor")
	}
	msg := transport.last("interactive")
	if msg == nil || len(msg.interactive.Action.Buttons) != 3 {
		t.Fatalf("expected the welcome menu, got %+v", msg)
	}
	if !strings.Contains(msg.interactive.Body.Text, "היי! 😊") {
		t.Errorf("user without coupons should get the new user welcome, got %q", msg.interactive.Body.Text)
	}
}

// TestIdleTextStoresCoupon tests the happy extraction path
func TestIdleTextStoresCoupon(t *testing.T) {
	d, transport, extractor, db := newTestDispatcher(t)
	extractor.textResults = []extract.Result{{
		Valid:          true,
		Store:          "Fox",
		CouponCode:     "SAVE20",
		ExpirationDate: "2026-06-30",
		Category:       storage.CategoryClothingAndFashion,
	}}

	if err := d.Dispatch(context.Background(), textMessage(userAlice, "קופון 20% הנחה בפוקס קוד SAVE20")); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	reactions := transport.reactions()
	if len(reactions) != 2 || reactions[0] != wamsg.ReactionProcessing || reactions[1] != wamsg.ReactionBookmark {
		t.Errorf("reactions = %v, want [⏳ 🔖]", reactions)
	}

	coupons, err := db.GetUserCoupons(context.Background(), userAlice)
	if err != nil {
		t.Fatalf("GetUserCoupons() error = %v", err)
	}
	if len(coupons) != 1 || coupons[0].Store != "Fox" {
		t.Fatalf("stored coupons = %+v", coupons)
	}
	if coupons[0].OriginMsgID != "wamid.in" {
		t.Errorf("OriginMsgID = %q, want the inbound message id", coupons[0].OriginMsgID)
	}

	card := transport.last("interactive")
	if card == nil || !strings.Contains(card.interactive.Body.Text, "*קופון ל-Fox*") {
		t.Fatalf("expected the coupon card, got %+v", card)
	}
}

// TestIdleTextMultipleCoupons tests fan out over several results
func TestIdleTextMultipleCoupons(t *testing.T) {
	d, transport, extractor, db := newTestDispatcher(t)
	extractor.textResults = []extract.Result{
		{Valid: true, Store: "Fox"},
		{Valid: false},
		{Valid: true, Store: "Zara"},
	}

	if err := d.Dispatch(context.Background(), textMessage(userAlice, "שני קופונים ביחד בהודעה")); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	coupons, _ := db.GetUserCoupons(context.Background(), userAlice)
	if len(coupons) != 2 {
		t.Fatalf("stored coupons = %d, want 2", len(coupons))
	}

	var cards int
	for _, m := range transport.sent {
		if m.kind == "interactive" {
			cards++
		}
	}
	if cards != 2 {
		t.Errorf("cards sent = %d, want 2", cards)
	}
}

// TestIdleTextInvalid tests reaction clear and returning welcome
func TestIdleTextInvalid(t *testing.T) {
	d, transport, extractor, db := newTestDispatcher(t)
	storeTestCoupon(t, db, userAlice, "c1", "Fox")
	extractor.textResults = []extract.Result{{Valid: false}}

	if err := d.Dispatch(context.Background(), textMessage(userAlice, "סתם הודעה ארוכה בלי קופון")); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	reactions := transport.reactions()
	if reactions[len(reactions)-1] != wamsg.ReactionNone {
		t.Errorf("reactions = %v, want trailing clear", reactions)
	}
	msg := transport.last("interactive")
	if !strings.Contains(msg.interactive.Body.Text, "היי שוב!") {
		t.Errorf("user with coupons should get the returning welcome, got %q", msg.interactive.Body.Text)
	}
}

// TestUpdateFlow tests the full edit state machine
func TestUpdateFlow(t *testing.T) {
	ctx := context.Background()
	d, transport, extractor, db := newTestDispatcher(t)
	storeTestCoupon(t, db, userAlice, "c1", "Castro")

	// tapping update details enters the edit state and prompts
	if err := d.Dispatch(ctx, buttonMessage(userAlice, "update_coupon_details:c1")); err != nil {
		t.Fatalf("Dispatch(button) error = %v", err)
	}
	state, _ := db.GetUserState(ctx, userAlice)
	if state != "update_coupon:c1" {
		t.Fatalf("state = %q, want update_coupon:c1", state)
	}
	prompt := transport.last("interactive")
	if prompt.interactive.Body.Text != wamsg.TextUpdatePrompt {
		t.Errorf("prompt = %q", prompt.interactive.Body.Text)
	}
	if prompt.interactive.Action.Buttons[0].Reply.ID != "cancel_update_coupon:"+userAlice+":c1" {
		t.Errorf("cancel button = %q", prompt.interactive.Action.Buttons[0].Reply.ID)
	}

	// a parsable request updates and returns to idle
	extractor.updateResult = extract.Result{
		Valid:          true,
		Store:          "Fox",
		ExpirationDate: "2025-08-01",
	}
	if err := d.Dispatch(ctx, textMessage(userAlice, "עדכן את שם החנות ל-Fox ואת התוקף ל-1.8.25")); err != nil {
		t.Fatalf("Dispatch(update) error = %v", err)
	}

	coupon, _ := db.GetCoupon(ctx, userAlice, "c1")
	if coupon.Store != "Fox" || coupon.ExpirationDate != "2025-08-01" {
		t.Errorf("coupon after update = %+v", coupon)
	}
	if coupon.CouponCode != "CODE-c1" {
		t.Error("fields not named in the update must keep their values")
	}
	state, _ = db.GetUserState(ctx, userAlice)
	if state != "idle" {
		t.Errorf("state = %q, want idle", state)
	}
	card := transport.last("interactive")
	if !strings.Contains(card.interactive.Body.Text, "*קופון ל-Fox*") {
		t.Errorf("expected the refreshed card, got %q", card.interactive.Body.Text)
	}
}

// TestUpdateFlowRejected tests the re-prompt with examples
func TestUpdateFlowRejected(t *testing.T) {
	ctx := context.Background()
	d, transport, extractor, db := newTestDispatcher(t)
	storeTestCoupon(t, db, userAlice, "c1", "Castro")
	_ = db.SetUserState(ctx, userAlice, "update_coupon:c1")
	extractor.updateResult = extract.Result{Valid: false, Examples: []string{"שנה את הקוד ל-XYZ"}}

	if err := d.Dispatch(ctx, textMessage(userAlice, "משהו לגמרי לא קשור לעדכון")); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	reactions := transport.reactions()
	if reactions[len(reactions)-1] != wamsg.ReactionError {
		t.Errorf("reactions = %v, want trailing ✖️", reactions)
	}
	prompt := transport.last("interactive")
	if !strings.Contains(prompt.interactive.Body.Text, "שנה את הקוד ל-XYZ") {
		t.Errorf("re-prompt should carry the parser examples, got %q", prompt.interactive.Body.Text)
	}
	state, _ := db.GetUserState(ctx, userAlice)
	if state != "update_coupon:c1" {
		t.Errorf("state = %q, rejection must keep the edit state", state)
	}
}

// TestUpdateFlowShortText tests rejection without calling the parser
func TestUpdateFlowShortText(t *testing.T) {
	ctx := context.Background()
	d, _, extractor, db := newTestDispatcher(t)
	storeTestCoupon(t, db, userAlice, "c1", "Castro")
	_ = db.SetUserState(ctx, userAlice, "update_coupon:c1")

	if err := d.Dispatch(ctx, textMessage(userAlice, "קצר")); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if extractor.lastUpdate != "" {
		t.Error("short text must not reach the update parser")
	}
}

// TestCancelUpdateButton tests leaving the edit state
func TestCancelUpdateButton(t *testing.T) {
	ctx := context.Background()
	d, transport, _, db := newTestDispatcher(t)
	_ = db.SetUserState(ctx, userAlice, "update_coupon:c1")

	if err := d.Dispatch(ctx, buttonMessage(userAlice, "cancel_update_coupon:"+userAlice+":c1")); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	state, _ := db.GetUserState(ctx, userAlice)
	if state != "idle" {
		t.Errorf("state = %q, want idle", state)
	}
	if r := transport.last("reaction"); r == nil || r.emoji != wamsg.ReactionSuccess {
		t.Errorf("expected 👍, got %+v", r)
	}
}

// TestImportSharedCoupon tests token redemption
func TestImportSharedCoupon(t *testing.T) {
	ctx := context.Background()
	d, transport, _, db := newTestDispatcher(t)
	storeTestCoupon(t, db, userBob, "c1", "Fox")
	token, err := db.GenerateSharingToken(ctx, userBob, "c1")
	if err != nil {
		t.Fatalf("GenerateSharingToken() error = %v", err)
	}

	if err := d.Dispatch(ctx, textMessage(userAlice, "/add_shared_coupon "+token)); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	shared, _ := db.GetSharedCoupons(ctx, userAlice)
	if len(shared) != 1 || shared[0].CouponID != "c1" {
		t.Fatalf("shared coupons = %+v", shared)
	}
	if r := transport.last("reaction"); r.emoji != wamsg.ReactionSuccess {
		t.Errorf("reaction = %q, want 👍", r.emoji)
	}
	card := transport.last("interactive")
	if !strings.Contains(card.interactive.Body.Text, " 👥 ") {
		t.Error("imported coupon card should carry the shared marker")
	}
}

// TestImportSharedCouponBadToken tests the apology path
func TestImportSharedCouponBadToken(t *testing.T) {
	d, transport, _, _ := newTestDispatcher(t)

	if err := d.Dispatch(context.Background(), textMessage(userAlice, "/add_shared_coupon NOPE1234")); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if r := transport.last("reaction"); r.emoji != wamsg.ReactionError {
		t.Errorf("reaction = %q, want ✖️", r.emoji)
	}
	if m := transport.last("text"); m.body != wamsg.TextSharedCouponNotFound {
		t.Errorf("text = %q", m.body)
	}
}

// TestShareListCommand tests both invite directions
func TestShareListCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("without target", func(t *testing.T) {
		d, transport, _, _ := newTestDispatcher(t)
		if err := d.Dispatch(ctx, textMessage(userAlice, "/share_list")); err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
		msg := transport.last("interactive")
		if msg.interactive.Type != "cta_url" {
			t.Errorf("expected the share CTA, got %q", msg.interactive.Type)
		}
	})

	t.Run("with target", func(t *testing.T) {
		d, transport, _, db := newTestDispatcher(t)
		if err := d.Dispatch(ctx, textMessage(userAlice, "/share_list "+userBob)); err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
		pairing, _ := db.GetPairing(ctx, userAlice)
		if pairing == nil || pairing.PartnerID != userBob {
			t.Fatalf("pairing = %+v", pairing)
		}
		confirm := transport.last("interactive")
		if confirm.to != userBob {
			t.Errorf("confirmation sent to %q, want %q", confirm.to, userBob)
		}
		if confirm.interactive.Action.Buttons[0].Reply.ID != "confirm_pair:"+userAlice {
			t.Errorf("confirm button = %q", confirm.interactive.Action.Buttons[0].Reply.ID)
		}
	})
}

// TestConfirmAndCancelPairing tests the consent and teardown buttons
func TestConfirmAndCancelPairing(t *testing.T) {
	ctx := context.Background()
	d, transport, _, db := newTestDispatcher(t)

	// alice invited bob
	if err := db.ConfirmPairing(ctx, userAlice, userBob); err != nil {
		t.Fatalf("ConfirmPairing() error = %v", err)
	}

	if err := d.Dispatch(ctx, buttonMessage(userBob, "confirm_pair:"+userAlice)); err != nil {
		t.Fatalf("Dispatch(confirm) error = %v", err)
	}
	pairing, _ := db.GetPairing(ctx, userBob)
	if pairing == nil || pairing.PartnerID != userAlice {
		t.Fatalf("pairing = %+v", pairing)
	}

	if err := d.Dispatch(ctx, textMessage(userAlice, "/cancel_sharing")); err != nil {
		t.Fatalf("Dispatch(cancel) error = %v", err)
	}
	if p, _ := db.GetPairing(ctx, userAlice); p != nil {
		t.Errorf("pairing should be gone, got %+v", p)
	}
	if p, _ := db.GetPairing(ctx, userBob); p != nil {
		t.Errorf("reverse pairing should be gone, got %+v", p)
	}
	if r := transport.last("reaction"); r.emoji != wamsg.ReactionSuccess {
		t.Errorf("reaction = %q, want 👍", r.emoji)
	}
}

// TestDeclinePairing tests the decline acknowledgment
func TestDeclinePairing(t *testing.T) {
	d, transport, _, _ := newTestDispatcher(t)

	if err := d.Dispatch(context.Background(), buttonMessage(userBob, "decline_pair:"+userAlice)); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if m := transport.last("text"); m.body != wamsg.TextPairingDeclined {
		t.Errorf("text = %q", m.body)
	}
}

// TestMarkAsUsed tests marking through the owner embedded in the button
func TestMarkAsUsed(t *testing.T) {
	ctx := context.Background()
	d, transport, _, db := newTestDispatcher(t)
	storeTestCoupon(t, db, userBob, "c1", "Fox")

	// alice marks bob's shared coupon as used
	if err := d.Dispatch(ctx, buttonMessage(userAlice, "mark_as_used:"+userBob+":c1")); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	remaining, _ := db.GetUserCoupons(ctx, userBob)
	if len(remaining) != 0 {
		t.Errorf("coupon should no longer list as unused, got %+v", remaining)
	}
	if r := transport.last("reaction"); r.emoji != wamsg.ReactionSuccess {
		t.Errorf("reaction = %q, want 👍", r.emoji)
	}
}

// TestButtonOnMissingCoupon tests the apology for stale action buttons
func TestButtonOnMissingCoupon(t *testing.T) {
	ctx := context.Background()
	tags := []string{
		"mark_as_used:" + userAlice + ":ghost",
		"cancel_coupon:ghost",
		"cancel_share:ghost",
	}
	for _, tag := range tags {
		t.Run(tag, func(t *testing.T) {
			d, transport, _, _ := newTestDispatcher(t)
			if err := d.Dispatch(ctx, buttonMessage(userAlice, tag)); err != nil {
				t.Fatalf("Dispatch() error = %v", err)
			}
			if r := transport.last("reaction"); r.emoji != wamsg.ReactionError {
				t.Errorf("reaction = %q, want ✖️", r.emoji)
			}
			if m := transport.last("text"); m.body != wamsg.TextCouponNotFound {
				t.Errorf("text = %q, want the not-found apology", m.body)
			}
		})
	}
}

// TestMarkAsUsedAfterCancel tests that a closed coupon rejects further taps
func TestMarkAsUsedAfterCancel(t *testing.T) {
	ctx := context.Background()
	d, transport, _, db := newTestDispatcher(t)
	storeTestCoupon(t, db, userAlice, "c1", "Fox")

	if err := d.Dispatch(ctx, buttonMessage(userAlice, "cancel_coupon:c1")); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if err := d.Dispatch(ctx, buttonMessage(userAlice, "mark_as_used:"+userAlice+":c1")); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	coupon, _ := db.GetCoupon(ctx, userAlice, "c1")
	if coupon.Status != storage.StatusCanceled {
		t.Errorf("status = %q, canceled coupons must stay canceled", coupon.Status)
	}
	if r := transport.last("reaction"); r.emoji != wamsg.ReactionError {
		t.Errorf("reaction = %q, want ✖️", r.emoji)
	}
	if m := transport.last("text"); m.body != wamsg.TextCouponNotFound {
		t.Errorf("text = %q, want the not-found apology", m.body)
	}
}

// TestShareCouponButton tests token generation and the CTA
func TestShareCouponButton(t *testing.T) {
	ctx := context.Background()
	d, transport, _, db := newTestDispatcher(t)
	storeTestCoupon(t, db, userAlice, "c1", "Fox")

	if err := d.Dispatch(ctx, buttonMessage(userAlice, "share_coupon:c1")); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	coupon, _ := db.GetCoupon(ctx, userAlice, "c1")
	if coupon.SharingToken == "" {
		t.Fatal("sharing token should be set")
	}
	msg := transport.last("interactive")
	if msg.interactive.Type != "cta_url" {
		t.Fatalf("expected the share CTA, got %q", msg.interactive.Type)
	}
}

// TestShowOriginalCoupon tests the threaded pointer reply
func TestShowOriginalCoupon(t *testing.T) {
	ctx := context.Background()
	d, transport, _, db := newTestDispatcher(t)
	storeTestCoupon(t, db, userAlice, "c1", "Fox")

	if err := d.Dispatch(ctx, buttonMessage(userAlice, "show_coupon:c1")); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	m := transport.last("text")
	if m.body != wamsg.TextOriginalCoupon {
		t.Errorf("text = %q", m.body)
	}
	if m.replyTo != "wamid.origin.c1" {
		t.Errorf("replyTo = %q, want the origin message id", m.replyTo)
	}
}

// TestShowOriginalCouponMissing tests the apology
func TestShowOriginalCouponMissing(t *testing.T) {
	d, transport, _, _ := newTestDispatcher(t)

	if err := d.Dispatch(context.Background(), buttonMessage(userAlice, "show_coupon:nope")); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if r := transport.last("reaction"); r.emoji != wamsg.ReactionError {
		t.Errorf("reaction = %q, want ✖️", r.emoji)
	}
	if m := transport.last("text"); m.body != wamsg.TextCouponNotFound {
		t.Errorf("text = %q", m.body)
	}
}

// TestListSelection tests the card plus standalone code message
func TestListSelection(t *testing.T) {
	ctx := context.Background()
	d, transport, _, db := newTestDispatcher(t)
	storeTestCoupon(t, db, userBob, "c1", "Fox")

	if err := d.Dispatch(ctx, listMessage(userAlice, "coupon:"+userBob+":c1")); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	card := transport.last("interactive")
	if !strings.Contains(card.interactive.Body.Text, " 👥 ") {
		t.Error("a selection owned by another user should render as shared")
	}
	code := transport.last("text")
	if code.body != "CODE-c1" {
		t.Errorf("standalone code = %q, want CODE-c1", code.body)
	}
}

// TestCategorySelection tests the filtered list
func TestCategorySelection(t *testing.T) {
	ctx := context.Background()
	d, transport, _, db := newTestDispatcher(t)
	storeTestCoupon(t, db, userAlice, "c1", "Fox")
	other := &storage.Coupon{
		OwnerID:  userAlice,
		CouponID: "c2",
		Store:    "Zara",
		Category: storage.CategoryClothingAndFashion,
	}
	if err := db.StoreCoupon(ctx, other); err != nil {
		t.Fatalf("StoreCoupon() error = %v", err)
	}

	if err := d.Dispatch(ctx, listMessage(userAlice, "category:clothing_and_fashion")); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	msg := transport.last("interactive")
	rows := msg.interactive.Action.Sections[0].Rows
	if len(rows) != 1 || rows[0].Title != "Zara" {
		t.Errorf("rows = %+v, want only the fashion coupon", rows)
	}
	if msg.interactive.Header.Text != wamsg.CategoryLabel(storage.CategoryClothingAndFashion) {
		t.Errorf("header = %q", msg.interactive.Header.Text)
	}
}

// TestSearchCommand tests the query flow and id filtering
func TestSearchCommand(t *testing.T) {
	ctx := context.Background()
	d, transport, extractor, db := newTestDispatcher(t)
	storeTestCoupon(t, db, userAlice, "c1", "Fox")
	storeTestCoupon(t, db, userAlice, "c2", "Shufersal")
	extractor.searchIDs = []string{"c2"}

	if err := d.Dispatch(ctx, textMessage(userAlice, "! קופון לסופר")); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	msg := transport.last("interactive")
	rows := msg.interactive.Action.Sections[0].Rows
	if len(rows) != 1 || !strings.Contains(rows[0].ID, "c2") {
		t.Errorf("rows = %+v, want only the matched coupon", rows)
	}
}

// TestSearchNoResults tests the empty result reply
func TestSearchNoResults(t *testing.T) {
	d, transport, _, db := newTestDispatcher(t)
	storeTestCoupon(t, db, userAlice, "c1", "Fox")

	if err := d.Dispatch(context.Background(), textMessage(userAlice, "! טיסה לירח")); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	m := transport.last("text")
	if m == nil || !strings.Contains(m.body, "לא מצאתי") {
		t.Errorf("expected a no results reply, got %+v", m)
	}
}

// TestMediaError tests download failure handling
func TestMediaError(t *testing.T) {
	d, transport, _, _ := newTestDispatcher(t)
	transport.mediaErr = context.DeadlineExceeded

	in := &Inbound{From: userAlice, MessageID: "wamid.in", Kind: KindImage, MediaID: "media-1"}
	if err := d.Dispatch(context.Background(), in); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	reactions := transport.reactions()
	if reactions[len(reactions)-1] != wamsg.ReactionError {
		t.Errorf("reactions = %v, want trailing ✖️", reactions)
	}
	if m := transport.last("text"); m.body != wamsg.TextMediaError {
		t.Errorf("text = %q", m.body)
	}
}

// TestHowToAddButton tests the static help reply
func TestHowToAddButton(t *testing.T) {
	d, transport, _, _ := newTestDispatcher(t)

	if err := d.Dispatch(context.Background(), buttonMessage(userAlice, "how_to_add")); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if m := transport.last("text"); m.body != wamsg.TextHowToAdd {
		t.Errorf("text = %q", m.body)
	}
}
