package rest

import (
	"github.com/gofiber/fiber/v2"
	"github.com/modsentry/modsentry/config"
	"github.com/modsentry/modsentry/domains/moderation"
	"github.com/modsentry/modsentry/infrastructure/whatsapp"
	"github.com/modsentry/modsentry/pkg/utils"
	"github.com/modsentry/modsentry/usecase"
)

type App struct {
	Session  *whatsapp.Session
	State    *moderation.ConnectionState
	Pipeline *usecase.Pipeline
}

func InitRestApp(app fiber.Router, session *whatsapp.Session, state *moderation.ConnectionState, pipeline *usecase.Pipeline) App {
	handler := App{Session: session, State: state, Pipeline: pipeline}

	app.Get("/health", handler.Health)

	group := app.Group("/app")
	group.Get("/status", handler.Status)

	return handler
}

func (h *App) Health(c *fiber.Ctx) error {
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "ok",
	})
}

func (h *App) Status(c *fiber.Ctx) error {
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Status fetched",
		Results: map[string]any{
			"version":       config.AppVersion,
			"connected":     h.Session.IsConnected(),
			"logged_in":     h.Session.IsLoggedIn(),
			"ready":         h.State.Ready(),
			"device":        h.Session.DeviceID(),
			"queue_dropped": h.Pipeline.Dropped(),
		},
	})
}
