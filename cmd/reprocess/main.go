// Command reprocess runs the document pipeline synchronously for selected documents,
// e.g. everything left failed after a provider outage.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/maigenai/fingenius/internal/llm"
	"github.com/maigenai/fingenius/internal/models"
	"github.com/maigenai/fingenius/internal/pipeline"
	"github.com/maigenai/fingenius/internal/repository"
	"github.com/maigenai/fingenius/internal/service"
	"github.com/maigenai/fingenius/internal/storage"
	"github.com/maigenai/fingenius/pkg/config"
	"github.com/maigenai/fingenius/pkg/logger"
	"github.com/maigenai/fingenius/pkg/postgres"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

type options struct {
	ids    string
	status string
	dryRun bool
}

func main() {
	var opts options
	flag.StringVar(&opts.ids, "ids", "", "Comma-separated document IDs to process")
	flag.StringVar(&opts.status, "status", string(models.DocumentStatusFailed), "Process every document in this status when -ids is empty")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "List the selected documents without processing them")
	flag.Parse()

	if err := run(opts); err != nil {
		log.Fatal(err)
	}
}

func run(opts options) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, color.RedString("config: %s", e.Error()))
		}
		return fmt.Errorf("invalid configuration")
	}

	if err := logger.Init(cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		return err
	}
	defer db.Close()

	docRepo := repository.NewDocumentRepository(db, appLogger)

	ids, err := selectDocuments(ctx, docRepo, opts)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println(color.YellowString("No documents selected"))
		return nil
	}
	if opts.dryRun {
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	}

	files, closeFiles, err := storage.New(ctx, &cfg.Storage, appLogger)
	if err != nil {
		return err
	}
	defer closeFiles()

	llmClient, err := llm.New(ctx, cfg, appLogger)
	if err != nil {
		return err
	}
	defer llmClient.Close()

	images, err := service.NewImageRecognizer(cfg, appLogger)
	if err != nil {
		return err
	}

	stages := cfg.LLM.Stages
	orchestrator := pipeline.NewOrchestrator(
		docRepo,
		repository.NewTransactionRepository(db, appLogger),
		repository.NewInsightRepository(db, appLogger),
		files,
		pipeline.Stages{
			Text:         service.NewTextExtractor(images, appLogger),
			Structured:   service.NewStructuredExtractor(llmClient, llm.StageParams(stages.Structured), appLogger),
			Transactions: service.NewTransactionExtractor(llmClient, llm.StageParams(stages.Transactions), appLogger),
			Insights:     service.NewInsightGenerator(llmClient, llm.StageParams(stages.Insights), appLogger),
		},
		appLogger,
	)

	bar := getProgressBar(len(ids), "Processing documents")
	var failed []pipeline.Outcome
	completed := 0

	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		out := orchestrator.Run(ctx, id)
		if out.Err != nil {
			failed = append(failed, out)
			appLogger.Warn("Document failed", zap.String("document_id", id.String()), zap.Error(out.Err))
		} else {
			completed++
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	fmt.Println()

	fmt.Println(color.GreenString("Completed: %d", completed))
	if len(failed) > 0 {
		fmt.Println(color.RedString("Failed: %d", len(failed)))
		for _, out := range failed {
			fmt.Printf("  %s  %v\n", out.DocumentID, out.Err)
		}
	}
	if ctx.Err() != nil {
		fmt.Println(color.YellowString("Interrupted: %d not processed", len(ids)-completed-len(failed)))
	}
	return nil
}

func selectDocuments(ctx context.Context, docs *repository.DocumentRepository, opts options) ([]uuid.UUID, error) {
	if strings.TrimSpace(opts.ids) != "" {
		var ids []uuid.UUID
		for _, raw := range strings.Split(opts.ids, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			id, err := uuid.Parse(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid document id %q: %w", raw, err)
			}
			ids = append(ids, id)
		}
		return ids, nil
	}

	list, err := docs.ListByStatus(ctx, models.DocumentStatus(opts.status))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s documents: %w", opts.status, err)
	}
	ids := make([]uuid.UUID, len(list))
	for i, d := range list {
		ids[i] = d.ID
	}
	return ids, nil
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("docs"),
		progressbar.OptionShowCount(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}
