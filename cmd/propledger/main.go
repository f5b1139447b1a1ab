package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"propledger/internal/amqp"
	"propledger/internal/auth"
	"propledger/internal/cache"
	"propledger/internal/cli"
	"propledger/internal/core"
	apphttp "propledger/internal/http"
	applog "propledger/internal/log"
	"propledger/internal/services"
	ports "propledger/internal/sheets"
	gsheet "propledger/internal/sheets/google"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	cfg := cli.LoadAndValidateConfig(logger)

	store := cli.InitStore(context.Background(), logger, cfg)

	summaries := cache.NewLRUCache[core.Summary](cfg.SummaryCacheSize, cfg.SummaryCacheTTL)
	cacheManager := cache.NewManager(logger.WithComponent(applog.ComponentCache).Slog())
	cacheManager.Register(summaries)
	cacheManager.StartCleanup(time.Minute)

	// Change messages are optional; without a broker the worker only
	// regenerates on its own schedule.
	var publisher services.Publisher
	var amqpClient *amqp.Client
	if cfg.AMQPEnabled() {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger.WithComponent(applog.ComponentAMQP).Slog())
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err.Error())
			os.Exit(1)
		}
		publisher = amqpClient
		logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

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
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	}

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	financial := services.NewFinancialService(store.Store, store.Store, summaries, logger)
	svc := apphttp.Services{
		Users:        services.NewUserService(store.Store, issuer, cfg.AdminEmails, nil, logger),
		Portfolio:    services.NewPortfolioService(store.Store, financial, logger),
		Transactions: services.NewTransactionService(store.Store, publisher, financial, logger),
		Financial:    financial,
		Dashboard:    services.NewDashboardService(store.Store, logger),
		Reports:      services.NewReportService(store.Store, exporter, logger),
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		Logger:             logger,
		Issuer:             issuer,
		Store:              store.Store,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err.Error())
		}
		cacheManager.Stop()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("Failed to close AMQP client", applog.FieldError, err.Error())
			}
		}
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close store", applog.FieldError, err.Error())
		}
	})

	logger.Info("Starting propledger server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
