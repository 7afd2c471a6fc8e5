package moderation

// MessageType classifies a normalized inbound message.
type MessageType string

const (
	TypeText        MessageType = "text"
	TypeImage       MessageType = "image"
	TypeUnsupported MessageType = "unsupported"
)

// MessageKey identifies one exact message for later revocation. Field names
// follow the wire format: the backend stores the key and echoes it back
// verbatim in delete_message instructions, so it must round-trip unchanged.
type MessageKey struct {
	ID          string `json:"id"`
	RemoteJID   string `json:"remoteJid"`
	FromMe      bool   `json:"fromMe"`
	Participant string `json:"participant,omitempty"`
}

// InboundMessage is the canonical record built from one transport event.
// It lives only for the duration of its handling and is never persisted.
type InboundMessage struct {
	SenderID     string
	RealSenderID string
	ChatID       string
	IsGroup      bool
	PushName     string
	Type         MessageType
	Content      string
	Key          MessageKey
	ReplyJID     string
}
