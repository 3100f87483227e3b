package main

import (
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/server"
	"storefront/internal/services"
	"storefront/pkg/logger"
	"storefront/pkg/rabbitmq"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load(viper.New())
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Init("storefront", cfg.IsDevelopment())
	logger.SetLevel(cfg.LogLevel)

	// --- Database ---
	db, err := database.Open(cfg.Database)
	if err != nil {
		logger.Logger.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("Failed to open database")
	}

	// --- Product events ---
	// Publishing is optional; without RABBITMQ_URL events are dropped.
	var events services.EventPublisher
	if cfg.RabbitMQ.URL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL, Queue: cfg.RabbitMQ.Queue})
		if err != nil {
			logger.Logger.Warn().Err(err).Msg("RabbitMQ unavailable, product events disabled")
		} else {
			defer mqClient.Close()
			events = mqClient
			logger.Logger.Info().Str("queue", cfg.RabbitMQ.Queue).Msg("Publishing product events")
		}
	}

	// --- Upload storage ---
	fs := afero.NewOsFs()
	if err := fs.MkdirAll(cfg.Upload.Dir, 0o755); err != nil {
		logger.Logger.Fatal().Err(err).Str("dir", cfg.Upload.Dir).Msg("Failed to create upload directory")
	}

	app, _ := server.NewApp(cfg, db, fs, events)

	// --- Start HTTP Server ---
	go func() {
		logger.Logger.Info().Str("port", cfg.AppPort).Msg("Starting server")
		if err := app.Listen(cfg.AppPort); err != nil {
			logger.Logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Logger.Info().Msg("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		logger.Logger.Error().Err(err).Msg("Error during Fiber shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Logger.Info().Msg("Server gracefully stopped")
}
