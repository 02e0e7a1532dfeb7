package main

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"fintrack/internal/cli"
	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/sheets"
	"fintrack/internal/sheets/google"
	sheetsmem "fintrack/internal/sheets/memory"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Stdout, os.Getenv("LOG_LEVEL"), applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	res, err := cli.OpenBackend(context.Background(), logger, cfg, true)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	mirror, err := openMirror(logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize Sheets mirror", applog.FieldError, err)
		_ = res.Cleanup()
		os.Exit(1)
	}

	w := worker.NewMirrorWorker(res.Store, mirror)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if closer, ok := mirror.(io.Closer); ok {
			_ = closer.Close()
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err)
		}
	})

	// Catch up on anything missed while the worker was down.
	go func() {
		if _, _, err := w.StartupSync(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("Startup sync failed", applog.FieldError, err)
		}
	}()

	logger.Info("Starting fintrack mirror worker",
		"backend", cfg.DataBackend,
		"queue", cfg.AMQPQueue,
		"sheets", cfg.SheetsEnabled())
	if err := res.AMQP.Consume(ctx, w.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer stopped", applog.FieldError, err)
		_ = res.Cleanup()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}

func openMirror(logger *applog.Logger, cfg *config.Config) (sheets.Mirror, error) {
	if !cfg.SheetsEnabled() {
		logger.WithComponent(applog.ComponentMirror).Info("GOOGLE_SPREADSHEET_ID not set, mirroring to memory only")
		return sheetsmem.New(), nil
	}
	client, err := google.New(context.Background(), google.Config{
		SpreadsheetID:     cfg.GoogleSpreadsheetID,
		TransactionsSheet: cfg.GoogleTransactionsSheet,
		BudgetsSheet:      cfg.GoogleBudgetsSheet,
		CredentialsFile:   cfg.GoogleServiceAccountFile,
		CredentialsJSON:   cfg.GoogleServiceAccountJSON,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}
