package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"headwear_backend/internal/catalog"
	"headwear_backend/internal/conversations"
	"headwear_backend/internal/email"
	"headwear_backend/internal/events"
	apphttp "headwear_backend/internal/http"
	"headwear_backend/internal/http/router"
	"headwear_backend/internal/pdf"
	"headwear_backend/internal/quotes"
	"headwear_backend/internal/scheduler"
	"headwear_backend/internal/storage"
	"headwear_backend/migrations"
	"headwear_backend/platform/config"
	"headwear_backend/platform/db"
	"headwear_backend/platform/logger"
	"headwear_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg, db.DefaultPoolOptions)
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
	log.Info("database connection established")

	if err := db.RunMigrations(ctx, pool, migrations.FS); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	fileStore := initStorage(ctx, cfg, log)

	queueClient, closeQueue := initQueueClient(cfg, log)
	if closeQueue != nil {
		defer closeQueue()
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	catalogModule := catalog.NewModule(pool, cfg.GetCatalogCacheTTL(), val, log)
	if err := catalogModule.SeedDefaults(ctx); err != nil {
		log.Warn("catalog seed skipped", "error", err)
	}

	quotesModule := quotes.NewModule(pool, catalogModule.Loader(), eventBus, val, log)
	quotesSvc := quotesModule.Service()
	quotesSvc.SetPDFRenderer(pdf.NewCachedRenderer(pdf.NewRenderer(log), cfg.GetPDFCacheTTL()))
	if fileStore != nil {
		quotesSvc.SetFileStore(fileStore)
	}

	notifier := email.NewNotifier(sender, cfg.GetAdminNotifyEmail(), cfg.GetAppBaseURL(), log)
	quotesSvc.SetNotifier(notifier)

	conversationsSvc := conversations.New(conversations.NewRepository(pool), initSummarizer(cfg, log), log)

	// Side effects run on the worker when Redis is configured, in-process otherwise.
	handlers := &scheduler.Handlers{
		Titles:   conversationsSvc,
		Renderer: quotesSvc,
		Sender:   sender,
		Log:      log,
	}
	if fileStore != nil {
		handlers.PDFs = fileStore
	}
	dispatcher := scheduler.NewDispatcher(queueClient, scheduler.NewInlineExecutor(0, log), handlers, log)
	if dispatcher.Queued() {
		notifier.SetQueue(dispatcher)
	}
	scheduler.RegisterSubscribers(eventBus, dispatcher, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			catalogModule,
			quotesModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initStorage returns nil when MinIO is not configured.
func initStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) *storage.Store {
	store, err := storage.New(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	if store == nil {
		log.Warn("MINIO_ENDPOINT not configured; quote PDF archiving and attachment uploads disabled")
		return nil
	}
	if err := withRetry(ctx, log, "ensure storage buckets", 5, 2*time.Second, func() error {
		return store.EnsureBuckets(ctx)
	}); err != nil {
		log.Error("failed to ensure storage buckets exist", "error", err)
		panic("failed to ensure storage buckets exist: " + err.Error())
	}
	log.Info("storage service initialized",
		"quotePDFsBucket", cfg.GetMinioBucketQuotePDFs(),
		"quoteFilesBucket", cfg.GetMinioBucketQuoteFiles(),
	)
	return store
}

func initQueueClient(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; background tasks run in-process")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize task queue client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func initSummarizer(cfg config.AIConfig, log *logger.Logger) conversations.Summarizer {
	if !cfg.IsAIEnabled() {
		log.Info("MOONSHOT_API_KEY not configured; conversation titles use the built-in template")
		return nil
	}
	s, err := conversations.NewAgentSummarizer(cfg.GetMoonshotAPIKey(), cfg.GetMoonshotModel())
	if err != nil {
		log.Error("failed to initialize conversation titler", "error", err)
		return nil
	}
	return s
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
