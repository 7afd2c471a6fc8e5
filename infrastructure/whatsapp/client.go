// Package whatsapp owns the transport session: auth-state persistence, the
// event stream, message normalization and the outbound send operations.
package whatsapp

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mdp/qrterminal/v3"
	"github.com/modsentry/modsentry/config"
	"github.com/modsentry/modsentry/domains/moderation"
	"github.com/modsentry/modsentry/pkg/imagestore"
	"github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
)

// InitWaDB opens the credential store for the session. The URI picks the
// driver: postgres: for PostgreSQL, anything else is treated as sqlite3.
func InitWaDB(ctx context.Context, dbURI string) *sqlstore.Container {
	container, err := initDatabase(ctx, waLog.Stdout("Database", config.WhatsappLogLevel, true), dbURI)
	if err != nil {
		logrus.Fatalf("[WHATSAPP] database initialization error: %v", err)
	}
	return container
}

func initDatabase(ctx context.Context, dbLog waLog.Logger, dbURI string) (*sqlstore.Container, error) {
	if strings.HasPrefix(dbURI, "postgres:") {
		return sqlstore.New(ctx, "postgres", dbURI, dbLog)
	}
	// Default to sqlite3 (file:)
	return sqlstore.New(ctx, "sqlite3", dbURI, dbLog)
}

// Session wraps a whatsmeow client with the moderation pipeline hooks: it
// normalizes inbound messages, drives reconnects and implements IMessenger.
type Session struct {
	client         *whatsmeow.Client
	state          *moderation.ConnectionState
	normalizer     *Normalizer
	onMessage      func(*moderation.InboundMessage)
	reconnectDelay time.Duration

	// dial and connected wrap the client so the reconnect loop can be
	// exercised without a socket.
	dial      func() error
	connected func() bool

	reconnecting atomic.Bool
	terminated   atomic.Bool
}

func NewSession(ctx context.Context, container *sqlstore.Container, state *moderation.ConnectionState, images *imagestore.Store) (*Session, error) {
	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}
	if device == nil {
		device = container.NewDevice()
	}

	configureDeviceProps()

	cli := whatsmeow.NewClient(device, waLog.Stdout("Client", config.WhatsappLogLevel, true))
	cli.EnableAutoReconnect = false
	cli.AutoTrustIdentity = true

	s := &Session{
		client:         cli,
		state:          state,
		reconnectDelay: config.ReconnectDelay,
	}
	s.dial = cli.Connect
	s.connected = cli.IsConnected
	s.normalizer = NewNormalizer(cli, images)
	cli.AddEventHandler(s.handleEvent)

	return s, nil
}

func configureDeviceProps() {
	store.DeviceProps.PlatformType = &config.AppPlatform
	store.DeviceProps.Os = proto.String(config.AppOs)
}

// OnMessage registers the sink for normalized inbound messages. Must be set
// before Connect.
func (s *Session) OnMessage(fn func(*moderation.InboundMessage)) {
	s.onMessage = fn
}

// Connect opens the transport session. A device without stored credentials
// goes through QR pairing: the code is rendered on the terminal until the
// phone confirms the link.
func (s *Session) Connect(ctx context.Context) error {
	if s.client.Store.ID == nil {
		qrChan, err := s.client.GetQRChannel(ctx)
		if err != nil {
			return fmt.Errorf("failed to get QR channel: %w", err)
		}
		if err := s.client.Connect(); err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		go func() {
			for evt := range qrChan {
				if evt.Event == "code" {
					qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, os.Stdout)
					logrus.Info("[WHATSAPP] scan the QR code above to pair this device")
					continue
				}
				logrus.Infof("[WHATSAPP] pairing event: %s", evt.Event)
			}
		}()
		return nil
	}
	return s.client.Connect()
}

// Disconnect tears the session down for good; any pending reconnect loop
// exits on its next wakeup.
func (s *Session) Disconnect() {
	s.terminated.Store(true)
	s.client.Disconnect()
}

func (s *Session) IsConnected() bool {
	return s.client.IsConnected()
}

func (s *Session) IsLoggedIn() bool {
	return s.client.IsLoggedIn()
}

// DeviceID returns the paired device JID, or "" before pairing.
func (s *Session) DeviceID() string {
	if s.client.Store.ID == nil {
		return ""
	}
	return s.client.Store.ID.String()
}
