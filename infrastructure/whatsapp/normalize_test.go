package whatsapp

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/modsentry/modsentry/domains/moderation"
	"github.com/modsentry/modsentry/pkg/imagestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"
)

type fakeDownloader struct {
	data []byte
	err  error
}

func (f *fakeDownloader) Download(ctx context.Context, msg whatsmeow.DownloadableMessage) ([]byte, error) {
	return f.data, f.err
}

func testNormalizer(t *testing.T, dl MediaDownloader) *Normalizer {
	t.Helper()
	return &Normalizer{
		downloader: dl,
		images:     imagestore.New(t.TempDir()),
	}
}

func groupEvent(sender, chat string, msg *waE2E.Message) *events.Message {
	senderJID, _ := types.ParseJID(sender)
	chatJID, _ := types.ParseJID(chat)
	return &events.Message{
		Info: types.MessageInfo{
			MessageSource: types.MessageSource{
				Chat:   chatJID,
				Sender: senderJID,
			},
			ID:       "3EB0TESTID",
			PushName: "Aziel",
		},
		Message: msg,
	}
}

func TestNormalizeTextMessage(t *testing.T) {
	n := testNormalizer(t, &fakeDownloader{})
	evt := groupEvent("5219991234567@s.whatsapp.net", "120363025246125486@g.us",
		&waE2E.Message{Conversation: proto.String("vendo celular")})

	msg := n.Normalize(context.Background(), evt)
	require.NotNil(t, msg)
	assert.Equal(t, moderation.TypeText, msg.Type)
	assert.Equal(t, "vendo celular", msg.Content)
	assert.Equal(t, "5219991234567", msg.SenderID)
	assert.Equal(t, "5219991234567", msg.RealSenderID)
	assert.True(t, msg.IsGroup)
	assert.Equal(t, "Aziel", msg.PushName)
	assert.Equal(t, "3EB0TESTID", msg.Key.ID)
	assert.Equal(t, "120363025246125486@g.us", msg.Key.RemoteJID)
	assert.Equal(t, "5219991234567@s.whatsapp.net", msg.Key.Participant)
	assert.False(t, msg.Key.FromMe)
}

func TestNormalizeExtendedText(t *testing.T) {
	n := testNormalizer(t, &fakeDownloader{})
	evt := groupEvent("5219991234567@s.whatsapp.net", "5219991234567@s.whatsapp.net",
		&waE2E.Message{ExtendedTextMessage: &waE2E.ExtendedTextMessage{Text: proto.String("hola")}})

	msg := n.Normalize(context.Background(), evt)
	require.NotNil(t, msg)
	assert.Equal(t, moderation.TypeText, msg.Type)
	assert.Equal(t, "hola", msg.Content)
	assert.False(t, msg.IsGroup)
	assert.Equal(t, "5219991234567@s.whatsapp.net", msg.ReplyJID)
}

func TestNormalizeDropsAudioAndVideo(t *testing.T) {
	n := testNormalizer(t, &fakeDownloader{})

	audio := groupEvent("1@s.whatsapp.net", "g@g.us", &waE2E.Message{AudioMessage: &waE2E.AudioMessage{}})
	video := groupEvent("1@s.whatsapp.net", "g@g.us", &waE2E.Message{VideoMessage: &waE2E.VideoMessage{}})

	assert.Nil(t, n.Normalize(context.Background(), audio))
	assert.Nil(t, n.Normalize(context.Background(), video))
}

func TestNormalizeDropsSelfAndEmpty(t *testing.T) {
	n := testNormalizer(t, &fakeDownloader{})

	self := groupEvent("1@s.whatsapp.net", "g@g.us", &waE2E.Message{Conversation: proto.String("mio")})
	self.Info.IsFromMe = true
	assert.Nil(t, n.Normalize(context.Background(), self))

	assert.Nil(t, n.Normalize(context.Background(), groupEvent("1@s.whatsapp.net", "g@g.us", nil)))
	assert.Nil(t, n.Normalize(context.Background(), nil))
}

func TestNormalizeDropsUnsupported(t *testing.T) {
	n := testNormalizer(t, &fakeDownloader{})
	evt := groupEvent("1@s.whatsapp.net", "g@g.us",
		&waE2E.Message{StickerMessage: &waE2E.StickerMessage{}})

	assert.Nil(t, n.Normalize(context.Background(), evt))
}

func TestNormalizeImageStoresFile(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))

	store := imagestore.New(t.TempDir())
	n := &Normalizer{downloader: &fakeDownloader{data: buf.Bytes()}, images: store}

	evt := groupEvent("5219991234567@s.whatsapp.net", "120363025246125486@g.us",
		&waE2E.Message{ImageMessage: &waE2E.ImageMessage{}})

	msg := n.Normalize(context.Background(), evt)
	require.NotNil(t, msg)
	assert.Equal(t, moderation.TypeImage, msg.Type)
	assert.True(t, strings.HasPrefix(msg.Content, "img_"))
	assert.True(t, strings.HasSuffix(msg.Content, "_5219991234567.jpg"))

	data, err := store.Read(msg.Content)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestNormalizeImageDownloadFailureDrops(t *testing.T) {
	n := testNormalizer(t, &fakeDownloader{err: errors.New("media gone")})
	evt := groupEvent("1@s.whatsapp.net", "g@g.us",
		&waE2E.Message{ImageMessage: &waE2E.ImageMessage{}})

	assert.Nil(t, n.Normalize(context.Background(), evt))
}

func TestNormalizeResolvesAlternateSender(t *testing.T) {
	n := testNormalizer(t, &fakeDownloader{})
	n.resolvePN = func(ctx context.Context, lid types.JID) (types.JID, error) {
		return types.NewJID("5219991234567", types.DefaultUserServer), nil
	}

	evt := groupEvent("98765432101@lid", "120363025246125486@g.us",
		&waE2E.Message{Conversation: proto.String("precio?")})

	msg := n.Normalize(context.Background(), evt)
	require.NotNil(t, msg)
	assert.Equal(t, "98765432101", msg.SenderID)
	assert.Equal(t, "5219991234567", msg.RealSenderID)
}

func TestNormalizePushNamePlaceholder(t *testing.T) {
	n := testNormalizer(t, &fakeDownloader{})
	evt := groupEvent("1@s.whatsapp.net", "1@s.whatsapp.net",
		&waE2E.Message{Conversation: proto.String("hola")})
	evt.Info.PushName = ""

	msg := n.Normalize(context.Background(), evt)
	require.NotNil(t, msg)
	assert.Equal(t, "usuario", msg.PushName)
}
