package whatsapp

import (
	"context"

	"github.com/dustin/go-humanize"
	"github.com/modsentry/modsentry/domains/moderation"
	"github.com/modsentry/modsentry/pkg/imagestore"
	"github.com/modsentry/modsentry/pkg/jidutil"
	"github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

const defaultPushName = "usuario"

// MediaDownloader fetches the decoded binary payload of a media message.
type MediaDownloader interface {
	Download(ctx context.Context, msg whatsmeow.DownloadableMessage) ([]byte, error)
}

// PNResolver maps a privacy-relay JID to its direct-routing counterpart.
type PNResolver func(ctx context.Context, lid types.JID) (types.JID, error)

// Normalizer converts raw transport events into canonical inbound messages.
type Normalizer struct {
	downloader MediaDownloader
	images     *imagestore.Store
	resolvePN  PNResolver
}

func NewNormalizer(cli *whatsmeow.Client, images *imagestore.Store) *Normalizer {
	return &Normalizer{
		downloader: cli,
		images:     images,
		resolvePN:  cli.Store.LIDs.GetPNForLID,
	}
}

// Normalize returns the canonical record for one inbound event, or nil when
// the event is dropped. Drop rules, in order: no payload, self-originated,
// audio/video, unsupported content, failed image download.
func (n *Normalizer) Normalize(ctx context.Context, evt *events.Message) *moderation.InboundMessage {
	if evt == nil || evt.Message == nil {
		return nil
	}
	if evt.Info.IsFromMe {
		return nil
	}
	if evt.Message.GetAudioMessage() != nil || evt.Message.GetVideoMessage() != nil {
		return nil
	}

	sender := evt.Info.Sender
	senderID := jidutil.ShortID(sender.String())
	realSenderID := senderID
	if sender.Server == types.HiddenUserServer && n.resolvePN != nil {
		if pn, err := n.resolvePN(ctx, sender); err == nil && !pn.IsEmpty() {
			realSenderID = jidutil.ShortID(pn.String())
		}
	}

	chat := evt.Info.Chat
	msg := &moderation.InboundMessage{
		SenderID:     senderID,
		RealSenderID: realSenderID,
		ChatID:       chat.String(),
		IsGroup:      chat.Server == types.GroupServer,
		PushName:     evt.Info.PushName,
		Key: moderation.MessageKey{
			ID:        evt.Info.ID,
			RemoteJID: chat.String(),
			FromMe:    evt.Info.IsFromMe,
		},
	}
	if msg.PushName == "" {
		msg.PushName = defaultPushName
	}
	if msg.IsGroup {
		msg.Key.Participant = sender.String()
	} else {
		msg.ReplyJID = chat.ToNonAD().String()
	}

	switch {
	case evt.Message.GetConversation() != "":
		msg.Type = moderation.TypeText
		msg.Content = evt.Message.GetConversation()
	case evt.Message.GetExtendedTextMessage().GetText() != "":
		msg.Type = moderation.TypeText
		msg.Content = evt.Message.GetExtendedTextMessage().GetText()
	case evt.Message.GetImageMessage() != nil:
		img := evt.Message.GetImageMessage()
		data, err := n.downloader.Download(ctx, img)
		if err != nil {
			logrus.WithError(err).Warnf("[WHATSAPP] image download failed for %s, dropping message", evt.Info.ID)
			return nil
		}
		logrus.Debugf("[WHATSAPP] downloaded image %s (%s)", evt.Info.ID, humanize.Bytes(uint64(len(data))))
		name, err := n.images.Save(msg.SenderID, data)
		if err != nil {
			logrus.WithError(err).Warnf("[WHATSAPP] image store failed for %s, dropping message", evt.Info.ID)
			return nil
		}
		msg.Type = moderation.TypeImage
		msg.Content = name
	default:
		// unsupported payload (stickers, documents, reactions, ...)
		return nil
	}

	return msg
}
