package moderation

import "context"

// ParticipantAction is a group membership operation.
type ParticipantAction string

const (
	ParticipantAdd    ParticipantAction = "add"
	ParticipantRemove ParticipantAction = "remove"
)

// ParticipantResult is the per-participant outcome of a membership update.
// Status "200" means the operation succeeded for that participant.
type ParticipantResult struct {
	JID    string
	Status string
}

// IMessenger is the outbound chat-session contract the executor drives.
type IMessenger interface {
	SendText(ctx context.Context, to string, text string) error
	SendImage(ctx context.Context, to string, data []byte, caption string) error
	RevokeMessage(ctx context.Context, key MessageKey) error
	UpdateParticipants(ctx context.Context, chatID string, participants []string, action ParticipantAction) ([]ParticipantResult, error)
}
