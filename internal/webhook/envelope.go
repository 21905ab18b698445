package webhook

import "github.com/ckeepapp/ckeep-whatsapp-go/internal/bot"

// Envelope is the Cloud API webhook notification body.
type Envelope struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry is one account-level notification entry.
type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

// Change is one field change inside an entry.
type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

// Value carries the inbound messages (and statuses, which are ignored).
type Value struct {
	MessagingProduct string       `json:"messaging_product"`
	Messages         []RawMessage `json:"messages"`
}

// RawMessage is one inbound message as delivered by the Cloud API.
type RawMessage struct {
	From        string       `json:"from"`
	ID          string       `json:"id"`
	Timestamp   string       `json:"timestamp"`
	Type        string       `json:"type"`
	Text        *RawText     `json:"text"`
	Image       *RawMedia    `json:"image"`
	Document    *RawMedia    `json:"document"`
	Interactive *Interactive `json:"interactive"`
}

// RawText is the body of a text message.
type RawText struct {
	Body string `json:"body"`
}

// RawMedia is an inbound image or document reference.
type RawMedia struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	Caption  string `json:"caption"`
	Filename string `json:"filename"`
}

// Interactive is an inbound button tap or list selection.
type Interactive struct {
	Type        string `json:"type"`
	ButtonReply *Reply `json:"button_reply"`
	ListReply   *Reply `json:"list_reply"`
}

// Reply carries the id and title of the tapped element.
type Reply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Normalize flattens the envelope into dispatchable messages. Entries
// without messages (delivery statuses and the like) yield nothing.
func (e *Envelope) Normalize() []*bot.Inbound {
	var inbound []*bot.Inbound
	for _, entry := range e.Entry {
		for _, change := range entry.Changes {
			for i := range change.Value.Messages {
				if in := normalizeMessage(&change.Value.Messages[i]); in != nil {
					inbound = append(inbound, in)
				}
			}
		}
	}
	return inbound
}

func normalizeMessage(raw *RawMessage) *bot.Inbound {
	in := &bot.Inbound{
		From:      raw.From,
		MessageID: raw.ID,
	}

	switch raw.Type {
	case "text":
		if raw.Text == nil {
			return nil
		}
		in.Kind = bot.KindText
		in.Text = raw.Text.Body

	case "image":
		if raw.Image == nil {
			return nil
		}
		in.Kind = bot.KindImage
		in.MediaID = raw.Image.ID
		in.MediaMime = raw.Image.MimeType
		in.Text = raw.Image.Caption

	case "document":
		if raw.Document == nil {
			return nil
		}
		in.Kind = bot.KindDocument
		in.MediaID = raw.Document.ID
		in.MediaMime = raw.Document.MimeType
		in.Text = raw.Document.Caption

	case "interactive":
		if raw.Interactive == nil {
			return nil
		}
		switch {
		case raw.Interactive.ButtonReply != nil:
			in.Kind = bot.KindButtonReply
			in.InteractiveID = raw.Interactive.ButtonReply.ID
		case raw.Interactive.ListReply != nil:
			in.Kind = bot.KindListReply
			in.InteractiveID = raw.Interactive.ListReply.ID
		default:
			return nil
		}

	default:
		in.Kind = bot.KindUnknown
	}

	return in
}
