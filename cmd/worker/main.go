package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"headwear_backend/internal/catalog"
	"headwear_backend/internal/conversations"
	"headwear_backend/internal/email"
	"headwear_backend/internal/events"
	"headwear_backend/internal/pdf"
	"headwear_backend/internal/quotes"
	"headwear_backend/internal/scheduler"
	"headwear_backend/internal/storage"
	"headwear_backend/platform/config"
	"headwear_backend/platform/db"
	"headwear_backend/platform/logger"
	"headwear_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// workerPoolOptions keeps the worker's share of database connections small.
var workerPoolOptions = db.PoolOptions{MaxConns: 5, MinConns: 1}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env, "queue", cfg.GetAsynqQueueName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg, workerPoolOptions)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	// Worker-side quote rendering (no HTTP handlers required).
	val := validator.New()
	catalogModule := catalog.NewModule(pool, cfg.GetCatalogCacheTTL(), val, log)
	quotesModule := quotes.NewModule(pool, catalogModule.Loader(), events.NewInMemoryBus(log), val, log)
	quotesModule.Service().SetPDFRenderer(pdf.NewRenderer(log))

	var summarizer conversations.Summarizer
	if cfg.IsAIEnabled() {
		s, err := conversations.NewAgentSummarizer(cfg.GetMoonshotAPIKey(), cfg.GetMoonshotModel())
		if err != nil {
			log.Error("failed to initialize conversation titler", "error", err)
		} else {
			summarizer = s
		}
	}

	handlers := &scheduler.Handlers{
		Titles:   conversations.New(conversations.NewRepository(pool), summarizer, log),
		Renderer: quotesModule.Service(),
		Sender:   sender,
		Log:      log,
	}

	store, err := storage.New(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	if store != nil {
		handlers.PDFs = store
	} else {
		log.Warn("MINIO_ENDPOINT not configured; quote pdf tasks will be dropped")
	}

	worker, err := scheduler.NewWorker(cfg, handlers, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
