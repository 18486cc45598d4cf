package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/salonhq/billing/internal/application/service"
	"github.com/salonhq/billing/internal/config"
	"github.com/salonhq/billing/internal/infrastructure/auth"
	"github.com/salonhq/billing/internal/infrastructure/notify"
	"github.com/salonhq/billing/internal/infrastructure/persistence/repository"
	"github.com/salonhq/billing/internal/infrastructure/persistence/sqlite"
	httpserver "github.com/salonhq/billing/internal/interfaces/http"
	"github.com/salonhq/billing/pkg/database"
	"github.com/salonhq/billing/pkg/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting salon billing service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	// Initialize database
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Create report output directory
	if err := os.MkdirAll(cfg.Report.OutputDir, 0755); err != nil {
		logger.Fatal("Failed to create report directory", zap.Error(err))
	}

	// Initialize repositories and transaction manager
	txManager := sqlite.NewDB(db.DB, logger)
	rulesRepo := repository.NewApprovalRulesRepository(db.DB, logger)
	lineItemRepo := repository.NewLineItemRepository(db.DB, logger)
	overrideRepo := repository.NewPriceOverrideRepository(db.DB, logger)
	suggestionRepo := repository.NewStaffSuggestionRepository(db.DB, logger)
	billRepo := repository.NewBillRepository(db.DB, logger)

	// Initialize collaborators
	authorizer := auth.NewPINAuthorizer(db.DB, logger)
	notifier := notify.NewWebhookNotifier(cfg.Notify.WebhookURL, logger)

	// Initialize services
	svcLogger := utils.NewSugaredAdapter(logger)
	overrideService := service.NewOverrideService(
		rulesRepo, lineItemRepo, overrideRepo, authorizer, txManager, svcLogger)
	suggestionService := service.NewSuggestionService(
		rulesRepo, suggestionRepo, notifier, svcLogger)
	billingService := service.NewBillingService(
		lineItemRepo, billRepo, txManager,
		service.BillingConfig{
			GSTPercent:            decimal.NewFromFloat(cfg.Billing.GSTPercent),
			LoyaltyRupeesPerPoint: decimal.NewFromFloat(cfg.Billing.LoyaltyRupeesPerPoint),
		},
		svcLogger)
	rulesService := service.NewRulesService(rulesRepo, svcLogger)
	reportService := service.NewReportService(billRepo, cfg.Report.OutputDir, svcLogger)

	// Initialize HTTP server
	server := httpserver.NewServer(
		httpserver.ServerConfig{
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		overrideService,
		suggestionService,
		billingService,
		rulesService,
		reportService,
		svcLogger,
	)

	// Run until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}
