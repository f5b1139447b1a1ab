package main

import (
	"context"
	"os"
	"time"

	"propledger/internal/amqp"
	"propledger/internal/cli"
	applog "propledger/internal/log"
	"propledger/internal/services"
	ports "propledger/internal/sheets"
	gsheet "propledger/internal/sheets/google"
	sheetmem "propledger/internal/sheets/memory"
	"propledger/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT")).WithComponent(applog.ComponentWorker)
	logger.Info("Starting propledger-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.DataBackend == "memory" {
		logger.Warn("Worker running on the memory backend sees none of the server's data")
	}
	store := cli.InitStore(context.Background(), logger, cfg)

	var exporter ports.ReportExporter
	if cfg.SheetsEnabled() {
		client, err := gsheet.New(context.Background(), gsheet.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleReportSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
			PerOwnerSheets:  cfg.GoogleReportPerOwner,
		}, logger.WithComponent(applog.ComponentSheets).Slog())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err.Error())
			os.Exit(1)
		}
		exporter = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		exporter = sheetmem.New()
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, keeping report rows in memory")
	}

	var consumer worker.Consumer
	var amqpClient *amqp.Client
	if cfg.AMQPEnabled() {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger.WithComponent(applog.ComponentAMQP).Slog())
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err.Error())
			os.Exit(1)
		}
		consumer = amqpClient
	} else {
		logger.Info("AMQP disabled - regenerating reports on the interval only", "interval", cfg.ReportInterval.String())
	}

	closeAll := func() {
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("Failed to close AMQP client", applog.FieldError, err.Error())
			}
		}
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close store", applog.FieldError, err.Error())
		}
	}

	reports := services.NewReportService(store.Store, exporter, logger)
	w := worker.NewReportWorker(reports, consumer, cfg.ReportInterval, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)
	if err := w.Run(ctx); err != nil {
		logger.Error("Report worker stopped", applog.FieldError, err.Error())
		closeAll()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	closeAll()
	logger.Info("Worker stopped gracefully")
}
