// Package wamsg builds WhatsApp Cloud API message payloads.
// The types here marshal to the JSON the /messages Graph API endpoint
// expects; the builders produce the bot's user-facing responses.
package wamsg

// Cloud API payload limits.
// Reference: https://developers.facebook.com/docs/whatsapp/cloud-api/reference/messages
const (
	MaxReplyButtons    = 3  // Reply buttons per interactive button message
	MaxRowTitleLength  = 24 // Interactive list row title (runes)
	MaxSectionRows     = 10 // Rows per interactive list section
	MaxFooterLength    = 60 // Interactive message footer (runes)
	MaxButtonTitle     = 20 // Reply button title (runes)
	MaxListButtonLabel = 20 // Interactive list open-button label (runes)
)

// Message is the top-level /messages request payload. Exactly one of the
// typed bodies is set, matching the Type field.
type Message struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to,omitempty"`
	Type             string       `json:"type,omitempty"`
	Text             *TextBody    `json:"text,omitempty"`
	Interactive      *Interactive `json:"interactive,omitempty"`
	Reaction         *Reaction    `json:"reaction,omitempty"`
	Context          *Context     `json:"context,omitempty"`

	// Read receipt fields (Status "read" + MessageID, no To/Type)
	Status    string `json:"status,omitempty"`
	MessageID string `json:"message_id,omitempty"`
}

// TextBody is the body of a plain text message.
type TextBody struct {
	Body string `json:"body"`
}

// Context threads a message as a reply to a previous message.
type Context struct {
	MessageID string `json:"message_id"`
}

// Reaction attaches an emoji to a message. An empty emoji clears a
// previously sent reaction.
type Reaction struct {
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

// Interactive is the payload of an interactive message. Type is one of
// "button", "list" or "cta_url".
type Interactive struct {
	Type   string  `json:"type"`
	Header *Header `json:"header,omitempty"`
	Body   *Body   `json:"body"`
	Footer *Footer `json:"footer,omitempty"`
	Action *Action `json:"action"`
}

// Header is the optional header of an interactive message.
type Header struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Body is the body text of an interactive message.
type Body struct {
	Text string `json:"text"`
}

// Footer is the optional footer of an interactive message.
type Footer struct {
	Text string `json:"text"`
}

// Action holds the type-specific action of an interactive message.
type Action struct {
	// Button messages
	Buttons []ReplyButton `json:"buttons,omitempty"`

	// List messages
	Button   string    `json:"button,omitempty"`
	Sections []Section `json:"sections,omitempty"`

	// CTA URL messages
	Name       string         `json:"name,omitempty"`
	Parameters *CTAParameters `json:"parameters,omitempty"`
}

// ReplyButton is one tappable reply button.
type ReplyButton struct {
	Type  string      `json:"type"`
	Reply ButtonReply `json:"reply"`
}

// ButtonReply carries the button's id (the colon-delimited action tag the
// dispatcher routes on) and its visible title.
type ButtonReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Section is one titled group of rows in an interactive list.
type Section struct {
	Title string `json:"title"`
	Rows  []Row  `json:"rows"`
}

// Row is one selectable row in an interactive list.
type Row struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// CTAParameters is the action of a cta_url interactive message.
type CTAParameters struct {
	DisplayText string `json:"display_text"`
	URL         string `json:"url"`
}

// NewText builds a plain text message, optionally threaded as a reply to
// the message identified by replyToID.
func NewText(to, body, replyToID string) *Message {
	m := &Message{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             &TextBody{Body: body},
	}
	if replyToID != "" {
		m.Context = &Context{MessageID: replyToID}
	}
	return m
}

// NewReaction builds a reaction message. An empty emoji clears the
// reaction from the target message.
func NewReaction(to, messageID, emoji string) *Message {
	return &Message{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "reaction",
		Reaction:         &Reaction{MessageID: messageID, Emoji: emoji},
	}
}

// NewReadReceipt builds a read-status update for an inbound message.
func NewReadReceipt(messageID string) *Message {
	return &Message{
		MessagingProduct: "whatsapp",
		Status:           "read",
		MessageID:        messageID,
	}
}

// NewInteractive wraps an interactive payload in a sendable message.
func NewInteractive(to string, interactive *Interactive) *Message {
	return &Message{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "interactive",
		Interactive:      interactive,
	}
}

// truncateRunes shortens s to at most limit runes.
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
