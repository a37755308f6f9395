package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fly-messenger/config"
	"fly-messenger/controller"
	"fly-messenger/database"
	"fly-messenger/event"
	"fly-messenger/logger"
	"fly-messenger/router"
	"fly-messenger/service"
	"fly-messenger/ws"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"
)

func main() {
	log, err := logger.New(config.Config("LOG_LEVEL"))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	rest := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		StrictRouting:         true,
		AppName:               "fly-messenger",
		BodyLimit:             10 * 1024 * 1024,
	})

	rest.Use(cors.New())

	database.RedisConnect()
	database.PostgresConnect()

	event.RabbitMQConnect([]string{
		// Connect to queues
		"mailer",
	})

	publicDir := config.Config("PUBLIC_DIR")
	if publicDir == "" {
		publicDir = "./public"
	}
	rest.Static("/public", publicDir)

	users := service.NewUserService(database.Postgres, database.Redis[1])
	sessions := service.NewSessionService(database.Postgres)
	blacklist := service.NewBlacklistService(database.Postgres)
	messages := service.NewMessageService(database.Postgres)
	dialogs := service.NewDialogService(database.Postgres, users, messages, blacklist)
	presence := service.NewPresenceService(users)
	images := service.NewImageService(publicDir, config.Config("PUBLIC_URL"))
	mailer := service.NewMailService()
	location := service.NewLocationService()

	registry := ws.NewRegistry(log)
	realtime := ws.NewRouter(registry, users, sessions, blacklist, dialogs, messages, presence, images, log)

	controller.Setup(users, sessions, blacklist, dialogs, messages, images, mailer, location, realtime, log)

	router.Rest(rest)
	router.Socket(rest, registry, realtime, presence, log)

	go func() {
		if err := rest.Listen(fmt.Sprintf(":%s", config.Config("SERVER_PORT"))); err != nil {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	log.Info("fly-messenger started", zap.String("port", config.Config("SERVER_PORT")))

	exit := make(chan struct{})
	SignalC := make(chan os.Signal, 1)

	signal.Notify(SignalC, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range SignalC {
			switch s {
			case syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				close(exit)
				return
			}
		}
	}()

	<-exit
	rest.Shutdown()
	event.RabbitMQChannel.Close()
	event.RabbitMQConnection.Close()
	os.Exit(0)
}
