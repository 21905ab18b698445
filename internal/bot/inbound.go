package bot

// Kind classifies an inbound message.
type Kind string

const (
	KindText        Kind = "text"
	KindImage       Kind = "image"
	KindDocument    Kind = "document"
	KindButtonReply Kind = "button_reply"
	KindListReply   Kind = "list_reply"
	KindUnknown     Kind = "unknown"
)

// Inbound is a normalized inbound WhatsApp message. The webhook layer
// flattens the Cloud API envelope into this before dispatch.
type Inbound struct {
	From      string
	MessageID string
	Kind      Kind

	// Text body, or the media caption for image and document messages.
	Text string

	// Media fields for image and document messages.
	MediaID   string
	MediaMime string

	// InteractiveID is the tapped button id or the selected list row id.
	InteractiveID string
}
