package main

import (
	"log"

	"frontdesk-server/config"
	"frontdesk-server/routes"
	"frontdesk-server/services"
	"frontdesk-server/storage"
	"frontdesk-server/utils"

	"github.com/kataras/iris/v12"
	"github.com/sirupsen/logrus"
)

func openStore(cfg *config.Config, logger *logrus.Logger) (storage.Store, error) {
	if cfg.DBConnection == "" {
		logger.WithField("path", "main").Warn("DB_CONNECTION_STRING not set, using in-memory store")
		return storage.NewMemoryStore(), nil
	}
	return storage.OpenPostgres(cfg.DBConnection, logger)
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, closer := config.NewLogger(cfg)
	defer closer.Close()

	store, err := openStore(cfg, logger)
	if err != nil {
		logger.WithField("path", "main").Fatalf("open store: %v", err)
	}
	iris.RegisterOnInterrupt(func() {
		if err := store.Close(); err != nil {
			logger.WithField("path", "main").Errorf("close store: %v", err)
		}
	})

	opts := []services.Option{
		services.WithClock(services.SystemClock(cfg.Location)),
		services.WithLogger(logger),
	}
	if cfg.RedisURL != "" {
		client, err := storage.NewRedisClient(cfg.RedisURL)
		if err != nil {
			logger.WithField("path", "main").Fatalf("redis: %v", err)
		}
		opts = append(opts, services.WithCalendarCache(storage.NewCalendarCache(client, cfg.CalendarTTL, logger)))
	}
	hotel := services.New(store, opts...)

	policy, err := utils.NewPolicy()
	if err != nil {
		logger.WithField("path", "main").Fatalf("policy: %v", err)
	}

	app := routes.NewApplication(&routes.Handler{Hotel: hotel, Logger: logger}, cfg.AccessTokenSecret, policy)
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.WithField("path", "main").Fatalf("server failed: %v", err)
	}
}
