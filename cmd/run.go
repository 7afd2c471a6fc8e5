package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/modsentry/modsentry/config"
	"github.com/modsentry/modsentry/domains/moderation"
	"github.com/modsentry/modsentry/infrastructure/whatsapp"
	"github.com/modsentry/modsentry/integrations/modapi"
	"github.com/modsentry/modsentry/pkg/imagestore"
	"github.com/modsentry/modsentry/ui/rest"
	"github.com/modsentry/modsentry/usecase"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the moderation bridge",
	Long:  `Connects the WhatsApp session, starts the message pipeline and serves the status API.`,
	Run:   runBridge,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runBridge(_ *cobra.Command, _ []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db := whatsapp.InitWaDB(ctx, config.DBURI)
	state := &moderation.ConnectionState{}
	images := imagestore.New(config.PathImages)

	session, err := whatsapp.NewSession(ctx, db, state, images)
	if err != nil {
		logrus.Fatalf("[APP] failed to initialize session: %v", err)
	}

	api := modapi.NewClient(config.APIBaseURL)
	executor := usecase.NewExecutor(session, images, state)
	router := usecase.NewRouter(api, executor, config.ModeratedGroupJID, config.SalesKeywords, config.ModeratorMenuOptions)

	pipeline := usecase.NewPipeline(config.PipelineQueueSize, router)
	pipeline.Start(ctx)
	session.OnMessage(pipeline.Enqueue)

	if config.ModeratedGroupJID == "" {
		logrus.Warn("[APP] MODERATED_GROUP_JID not set, group messages will be ignored")
	}

	if err := session.Connect(ctx); err != nil {
		logrus.Fatalf("[APP] failed to connect: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName:               "ModSentry " + config.AppVersion,
		DisableStartupMessage: true,
		Network:               "tcp",
	})
	app.Use(recover.New())
	if config.AppDebug {
		app.Use(logger.New())
	}

	apiGroup := app.Group("/api")
	rest.InitRestApp(apiGroup, session, state, pipeline)

	go func() {
		logrus.Infof("[APP] status API listening on :%s", config.AppPort)
		if err := app.Listen(":" + config.AppPort); err != nil {
			logrus.Errorf("[APP] status API stopped: %v", err)
		}
	}()

	// Graceful shutdown handler
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logrus.Info("[APP] termination signal received, shutting down gracefully...")
	if err := app.Shutdown(); err != nil {
		logrus.Errorf("[APP] error during shutdown: %v", err)
	}
	session.Disconnect()
	cancel()
	pipeline.Wait()
	logrus.Info("[APP] stopped cleanly")
}
