package config

import (
	"time"

	"go.mau.fi/whatsmeow/proto/waCompanionReg"
)

var (
	AppVersion  = "v1.2.0"
	AppPort     = "3000"
	AppDebug    = false
	AppOs       = "ModSentry"
	AppPlatform = waCompanionReg.DeviceProps_PlatformType(1) // Chrome

	PathImages   = "statics/images"
	PathStorages = "storages"

	DBURI = "file:storages/whatsapp.db?_foreign_keys=on"

	WhatsappLogLevel = "ERROR"

	// Moderation backend
	APIBaseURL       = "http://localhost:8000"
	APIIngestTimeout = 15 * time.Second

	// Monitored group and the classification vocabulary. The keyword match is
	// a case-insensitive substring test; the menu digits are the moderator's
	// reply choices as sent by the backend's decision menu.
	ModeratedGroupJID    = ""
	SalesKeywords        = []string{"vendo", "venta", "precio", "promo", "oferta"}
	ModeratorMenuOptions = []string{"1", "2", "3"}

	PipelineQueueSize = 1000
	ReconnectDelay    = 5 * time.Second
)
