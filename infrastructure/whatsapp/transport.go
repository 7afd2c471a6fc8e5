package whatsapp

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/modsentry/modsentry/domains/moderation"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"google.golang.org/protobuf/proto"
)

// parseJID accepts a full JID or a bare phone number.
func parseJID(id string) (types.JID, error) {
	if strings.Contains(id, "@") {
		return types.ParseJID(id)
	}
	return types.NewJID(id, types.DefaultUserServer), nil
}

// SendText sends a plain text message.
func (s *Session) SendText(ctx context.Context, to string, text string) error {
	jid, err := parseJID(to)
	if err != nil {
		return fmt.Errorf("invalid JID %s: %w", to, err)
	}

	msg := &waE2E.Message{
		ExtendedTextMessage: &waE2E.ExtendedTextMessage{
			Text: proto.String(text),
		},
	}

	_, err = s.client.SendMessage(ctx, jid, msg)
	return err
}

// SendImage uploads image bytes and sends them with an optional caption.
func (s *Session) SendImage(ctx context.Context, to string, data []byte, caption string) error {
	jid, err := parseJID(to)
	if err != nil {
		return fmt.Errorf("invalid JID %s: %w", to, err)
	}

	uploaded, err := s.client.Upload(ctx, data, whatsmeow.MediaImage)
	if err != nil {
		return fmt.Errorf("failed to upload image: %w", err)
	}

	msg := &waE2E.Message{
		ImageMessage: &waE2E.ImageMessage{
			URL:           proto.String(uploaded.URL),
			DirectPath:    proto.String(uploaded.DirectPath),
			MediaKey:      uploaded.MediaKey,
			Mimetype:      proto.String("image/jpeg"),
			FileEncSHA256: uploaded.FileEncSHA256,
			FileSHA256:    uploaded.FileSHA256,
			FileLength:    proto.Uint64(uploaded.FileLength),
			Caption:       proto.String(caption),
		},
	}

	_, err = s.client.SendMessage(ctx, jid, msg)
	return err
}

// RevokeMessage deletes a previously captured message for everyone.
func (s *Session) RevokeMessage(ctx context.Context, key moderation.MessageKey) error {
	chat, err := types.ParseJID(key.RemoteJID)
	if err != nil {
		return fmt.Errorf("invalid chat JID %s: %w", key.RemoteJID, err)
	}

	sender := chat
	if key.Participant != "" {
		sender, err = types.ParseJID(key.Participant)
		if err != nil {
			return fmt.Errorf("invalid participant JID %s: %w", key.Participant, err)
		}
	} else if key.FromMe && s.client.Store.ID != nil {
		sender = *s.client.Store.ID
	}

	_, err = s.client.SendMessage(ctx, chat, s.client.BuildRevoke(chat, sender, key.ID))
	return err
}

// UpdateParticipants adds or removes group members, reporting a per-member
// status string where "200" is success and anything else is the transport's
// numeric error code.
func (s *Session) UpdateParticipants(ctx context.Context, chatID string, participants []string, action moderation.ParticipantAction) ([]moderation.ParticipantResult, error) {
	gJID, err := parseJID(chatID)
	if err != nil {
		return nil, fmt.Errorf("invalid group JID %s: %w", chatID, err)
	}

	pJIDs := make([]types.JID, 0, len(participants))
	for _, p := range participants {
		jid, err := parseJID(p)
		if err != nil {
			return nil, fmt.Errorf("invalid participant JID %s: %w", p, err)
		}
		pJIDs = append(pJIDs, jid)
	}

	waAction := whatsmeow.ParticipantChangeAdd
	if action == moderation.ParticipantRemove {
		waAction = whatsmeow.ParticipantChangeRemove
	}

	res, err := s.client.UpdateGroupParticipants(ctx, gJID, pJIDs, waAction)
	if err != nil {
		return nil, err
	}

	results := make([]moderation.ParticipantResult, 0, len(res))
	for _, p := range res {
		status := "200"
		if p.Error != 0 {
			status = strconv.Itoa(p.Error)
		}
		results = append(results, moderation.ParticipantResult{JID: p.JID.String(), Status: status})
	}
	return results, nil
}
