package moderation

import (
	"context"
	"encoding/json"
)

// IngestRequest is the payload for a monitored-group moderation candidate.
type IngestRequest struct {
	Phone          string      `json:"phone"`
	RealPhone      string      `json:"real_phone"`
	Name           string      `json:"name"`
	ChatID         string      `json:"chat_id"`
	IsGroup        bool        `json:"is_group"`
	MessageType    MessageType `json:"message_type"`
	Content        string      `json:"content"`
	MessageKey     MessageKey  `json:"whatsapp_message_key"`
	ParticipantJID string      `json:"participant_jid"`
}

// ModeratorReplyRequest carries a moderator's menu choice.
type ModeratorReplyRequest struct {
	Phone    string `json:"phone"`
	Response string `json:"response"`
}

// ConversationRequest carries a free-form direct message.
type ConversationRequest struct {
	Phone     string `json:"phone"`
	RealPhone string `json:"real_phone"`
	Message   string `json:"message"`
	Name      string `json:"name"`
	ReplyJID  string `json:"reply_jid"`
}

// APIResponse is the part of a backend response this system acts on. The
// instructions payload stays raw until the executor parses it.
type APIResponse struct {
	Instructions json.RawMessage `json:"instructions,omitempty"`
}

// IModerationAPI is the backend moderation service contract.
type IModerationAPI interface {
	IngestMessage(ctx context.Context, request IngestRequest) (*APIResponse, error)
	SubmitResponse(ctx context.Context, request ModeratorReplyRequest) (*APIResponse, error)
	Conversation(ctx context.Context, request ConversationRequest) (*APIResponse, error)
}
