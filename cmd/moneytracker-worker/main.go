package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"moneytracker/internal/amqp"
	"moneytracker/internal/backend"
	"moneytracker/internal/cli"
	"moneytracker/internal/config"
	"moneytracker/internal/log"
	gsheet "moneytracker/internal/sheets/google"
	"moneytracker/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting moneytracker-worker", log.FieldOperation, log.OpStartup)

	if err := cfg.ValidateMirror(); err != nil {
		logger.Error("Mirror configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if !backend.BackendType(cfg.DataBackend).Persistent() {
		logger.Error("The mirror worker reads entries from a shared store; memory backend is not supported",
			"backend", cfg.DataBackend)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	if err := run(ctx, logger, cfg); err != nil {
		logger.Error("Worker failed", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}

// run owns every resource it opens, so deferred cleanup happens on all
// return paths before main decides the exit code.
func run(ctx context.Context, logger *log.Logger, cfg *config.Config) error {
	res := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	}()

	mirror, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		IncomeSheet:     cfg.GoogleIncomeSheetName,
		ExpenseSheet:    cfg.GoogleExpenseSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
		OAuthClientJSON: cfg.GoogleOAuthClientJSON,
		OAuthClientFile: cfg.GoogleOAuthClientFile,
		OAuthTokenFile:  cfg.GoogleOAuthTokenFile,
	})
	if err != nil {
		return fmt.Errorf("initialize Google Sheets client: %w", err)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("initialize AMQP client: %w", err)
	}
	defer consumer.Close()

	w := worker.NewMirrorWorker(res.Store, mirror)
	if err := w.Run(ctx, consumer); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("consume messages: %w", err)
	}
	return nil
}
