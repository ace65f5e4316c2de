package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maigenai/fingenius/internal/api"
	"github.com/maigenai/fingenius/internal/api/handlers"
	"github.com/maigenai/fingenius/internal/llm"
	"github.com/maigenai/fingenius/internal/pipeline"
	"github.com/maigenai/fingenius/internal/repository"
	"github.com/maigenai/fingenius/internal/service"
	"github.com/maigenai/fingenius/internal/storage"
	"github.com/maigenai/fingenius/internal/worker"
	"github.com/maigenai/fingenius/pkg/auth"
	"github.com/maigenai/fingenius/pkg/config"
	"github.com/maigenai/fingenius/pkg/logger"
	"github.com/maigenai/fingenius/pkg/postgres"

	"go.uber.org/zap"
)

// @title FinGenius API
// @version 1.0
// @description Financial document analysis: statements and receipts in, transactions, insights and dispute letters out.

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logger); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting FinGenius service", zap.String("llm_provider", cfg.LLM.Provider))

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			appLogger.Error("Invalid configuration", zap.String("field", e.Field), zap.String("message", e.Message))
		}
		appLogger.Fatal("Configuration validation failed", zap.Int("errors", len(errs)))
	}

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	userRepo := repository.NewUserRepository(db, appLogger)
	docRepo := repository.NewDocumentRepository(db, appLogger)
	txRepo := repository.NewTransactionRepository(db, appLogger)
	insightRepo := repository.NewInsightRepository(db, appLogger)
	disputeRepo := repository.NewDisputeRepository(db, appLogger)

	files, closeFiles, err := storage.New(ctx, &cfg.Storage, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer closeFiles()

	llmClient, err := llm.New(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize LLM client", zap.Error(err))
	}
	defer llmClient.Close()

	images, err := service.NewImageRecognizer(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize image recognizer", zap.Error(err))
	}

	stages := cfg.LLM.Stages
	orchestrator := pipeline.NewOrchestrator(docRepo, txRepo, insightRepo, files, pipeline.Stages{
		Text:         service.NewTextExtractor(images, appLogger),
		Structured:   service.NewStructuredExtractor(llmClient, llm.StageParams(stages.Structured), appLogger),
		Transactions: service.NewTransactionExtractor(llmClient, llm.StageParams(stages.Transactions), appLogger),
		Insights:     service.NewInsightGenerator(llmClient, llm.StageParams(stages.Insights), appLogger),
	}, appLogger)

	queue := worker.NewQueue(orchestrator, appLogger,
		worker.WithWorkers(cfg.Worker.Workers),
		worker.WithQueueSize(cfg.Worker.QueueSize),
		worker.WithJobTimeout(cfg.Worker.JobTimeout),
	)

	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)

	// Services
	authService := service.NewAuthService(userRepo, jwtManager, appLogger)
	docService := service.NewDocumentService(docRepo, txRepo, insightRepo, files, queue, appLogger)
	disputeService := service.NewDisputeService(
		docService,
		disputeRepo,
		service.NewDisputeGenerator(llmClient, llm.StageParams(stages.Dispute), appLogger),
		appLogger,
	)

	app := api.SetupRouter(api.Handlers{
		Auth:     handlers.NewAuthHandler(authService, appLogger),
		Document: handlers.NewDocumentHandler(docService, appLogger),
		Dispute:  handlers.NewDisputeHandler(disputeService, appLogger),
	}, jwtManager, &cfg.Server, appLogger)

	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := queue.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Queue shutdown error", zap.Error(err))
	}
}
