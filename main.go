package main

import (
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/ulternae/kcchat/api"
	"github.com/ulternae/kcchat/db"
	"github.com/ulternae/kcchat/service/mail"
	"github.com/ulternae/kcchat/service/pubsub"
	"github.com/ulternae/kcchat/service/worker"
	"github.com/ulternae/kcchat/util"
)

func main() {
	// Initialize logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Load config from .env
	config := util.LoadConfig(".env")

	// Connect to database
	queries, err := db.NewQueries(config)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Run auto migration
	if err = queries.AutoMigration(); err != nil {
		logger.Error("Failed to run auto migration", "error", err)
		os.Exit(1)
	}

	// Create websocket hub and mail service
	hub := pubsub.NewHub(logger)
	mailService := mail.NewEmailService(config)

	// Create task distributor and start the task processor
	redisOpts := asynq.RedisClientOpt{Addr: config.RedisAddr}
	distributor := worker.NewRedisTaskDistributor(redisOpts, logger)
	processor := worker.NewRedisTaskProcessor(redisOpts, queries, mailService, hub, logger)
	go func() {
		if err := processor.Start(); err != nil {
			logger.Error("Failed to start task processor", "error", err)
			os.Exit(1)
		}
	}()

	// Create and start server
	server := api.NewServer(queries, config, hub, distributor, logger)
	if err = server.Start(); err != nil {
		logger.Error("Failed to run the server or server shutdown unexpectedly", "error", err)
		os.Exit(1)
	}
}
