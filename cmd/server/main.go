package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/openfin/budget-approval/internal/application/dispatcher"
	"github.com/openfin/budget-approval/internal/application/service"
	"github.com/openfin/budget-approval/internal/config"
	"github.com/openfin/budget-approval/internal/domain/routing"
	"github.com/openfin/budget-approval/internal/infrastructure/persistence/repository"
	httpadapter "github.com/openfin/budget-approval/internal/interfaces/http"
	"github.com/openfin/budget-approval/pkg/database"
	"github.com/openfin/budget-approval/pkg/utils"
)

func main() {
	_ = gotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

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

	logger.Info("Starting budget approval service",
		zap.Int("port", cfg.Server.Port),
		zap.String("threshold", cfg.Approval.PlanningThreshold))

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

	migrator := database.NewMigrator(db, logger)
	if err := migrator.Run(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Repositories
	lineRepo := repository.NewLineRepository(db.DB, logger)
	commitmentRepo := repository.NewCommitmentRepository(db.DB, logger)
	requestRepo := repository.NewRequestRepository(db.DB, logger)
	auditRepo := repository.NewAuditRepository(db.DB, logger)
	sequenceRepo := repository.NewSequenceRepository(db.DB, logger)
	notificationRepo := repository.NewNotificationRepository(db.DB, logger)
	txManager := repository.NewTxManager(db.DB, logger)

	kv := utils.NewKVLogger(logger)

	// Event bus and the outbox consumer
	bus := dispatcher.New(dispatcher.WithLogger(kv))
	notificationService := service.NewNotificationService(notificationRepo, kv)
	notificationService.RegisterHandlers(bus)

	// Routing table from the configured threshold
	thresholdCents, err := cfg.Approval.PlanningThresholdCents()
	if err != nil {
		logger.Fatal("Invalid planning threshold", zap.Error(err))
	}
	router, err := routing.NewRouter(routing.DefaultRules(thresholdCents))
	if err != nil {
		logger.Fatal("Invalid routing table", zap.Error(err))
	}

	// Services
	ledgerService := service.NewLedgerService(lineRepo, commitmentRepo, txManager, kv)
	workflowService := service.NewWorkflowService(
		requestRepo,
		commitmentRepo,
		auditRepo,
		sequenceRepo,
		ledgerService,
		router,
		txManager,
		bus,
		kv,
		service.WithRequestKind(cfg.Approval.RequestKind),
	)
	auditService := service.NewAuditService(auditRepo, kv)

	server := httpadapter.NewServer(httpadapter.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, workflowService, ledgerService, auditService, kv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Error("Server error", zap.Error(err))
	}

	if err := bus.Close(); err != nil {
		logger.Error("Dispatcher shutdown error", zap.Error(err))
	}

	logger.Info("Server exited")
}
