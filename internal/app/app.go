package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/SAP-F-2025/question-bank-service/internal/cache"
	"github.com/SAP-F-2025/question-bank-service/internal/config"
	"github.com/SAP-F-2025/question-bank-service/internal/events"
	"github.com/SAP-F-2025/question-bank-service/internal/handlers"
	"github.com/SAP-F-2025/question-bank-service/internal/repositories"
	"github.com/SAP-F-2025/question-bank-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/question-bank-service/internal/services"
	"github.com/SAP-F-2025/question-bank-service/internal/utils"
	"github.com/SAP-F-2025/question-bank-service/internal/validator"
	"github.com/SAP-F-2025/question-bank-service/pkg"
	"github.com/SAP-F-2025/question-bank-service/pkg/monitoring"
	"github.com/SAP-F-2025/question-bank-service/pkg/security"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	Config *config.Config
	Logger utils.Logger

	Metrics      *monitoring.Metrics
	Publisher    events.EventPublisher
	Validator    *validator.Validator
	BankService  services.QuestionBankService
	ImportExport services.ImportExportService
	Router       *gin.Engine

	closers []func() error
}

// New wires every component. ctx bounds background work such as the rate
// limiter janitor and must live as long as the server.
func New(ctx context.Context, cfg *config.Config, logger utils.Logger) (*App, error) {
	a := &App{
		Config:    cfg,
		Logger:    logger,
		Metrics:   monitoring.New(),
		Validator: validator.New(),
	}

	publisher, err := cfg.Events.CreateEventPublisher(logger.Slog())
	if err != nil {
		return nil, fmt.Errorf("create event publisher: %w", err)
	}
	a.Publisher = publisher
	a.closers = append(a.closers, publisher.Close)

	source, closeSource, err := NewSource(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, closeSource)

	a.BankService, err = services.NewQuestionBankService(ctx, source, logger.Slog(),
		services.WithValidator(a.Validator),
		services.WithEventPublisher(a.Publisher),
		services.WithBankObserver(a.Metrics),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.ImportExport = services.NewImportExportService(logger.Slog(), a.Validator)

	a.Router = a.setupRouter(ctx)
	return a, nil
}

func (a *App) setupRouter(ctx context.Context) *gin.Engine {
	if a.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(a.Logger))
	router.Use(utils.ContextLogger(a.Logger))
	router.Use(a.Metrics.MetricsMiddleware())
	router.Use(security.RateLimiter(ctx, a.Config.RateLimit.MaxRequests, a.Config.RateLimit.Window))

	router.GET("/metrics", a.Metrics.PrometheusHandler())

	var adminAuth gin.HandlerFunc
	if a.Config.Auth.Enabled {
		adminAuth = handlers.RequireAdmin(handlers.NewCasdoorTokenParser(a.Config.Auth))
	} else {
		a.Logger.Warn("Admin authentication disabled")
	}

	handlers.NewHandlerManager(a.BankService, a.ImportExport, a.Validator, a.Logger).
		SetupRoutes(router, adminAuth)
	return router
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.Config.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("Server running", "port", a.Config.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.Logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// NewSource builds the question source named by QUESTION_SOURCE. The returned
// func releases whatever connections the source holds.
func NewSource(ctx context.Context, cfg *config.Config, logger utils.Logger) (services.QuestionSource, func() error, error) {
	noop := func() error { return nil }

	switch cfg.QuestionSource {
	case config.SourceEmbedded, "":
		return services.NewEmbeddedSource(), noop, nil
	case config.SourceFile:
		if cfg.QuestionFile == "" {
			return nil, nil, fmt.Errorf("QUESTION_FILE is required when QUESTION_SOURCE=%s", config.SourceFile)
		}
		return services.NewFileSource(cfg.QuestionFile), noop, nil
	case config.SourcePostgres:
		repo, closeRepo, err := OpenRepository(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return services.NewRepositorySource(repo), closeRepo, nil
	default:
		return nil, nil, fmt.Errorf("unknown QUESTION_SOURCE %q", cfg.QuestionSource)
	}
}

// OpenRepository connects to postgres, migrates the question table and, when
// caching is enabled, fronts the repository with redis.
func OpenRepository(ctx context.Context, cfg *config.Config, logger utils.Logger) (repositories.QuestionRepository, func() error, error) {
	db, err := pkg.InitDatabase(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	pgRepo := postgres.NewQuestionPostgreSQL(db)
	if err := pgRepo.Migrate(ctx); err != nil {
		pkg.CloseDatabase(db)
		return nil, nil, err
	}

	if !cfg.CacheEnabled {
		return pgRepo, func() error { return pkg.CloseDatabase(db) }, nil
	}

	client, err := pkg.NewRedisClient(ctx, cfg)
	if err != nil {
		pkg.CloseDatabase(db)
		return nil, nil, err
	}

	cached := cache.NewCachedQuestionRepository(pgRepo, cache.NewRedisCache(client, logger), cfg.CacheTTL, logger)
	closeAll := func() error {
		return errors.Join(client.Close(), pkg.CloseDatabase(db))
	}
	return cached, closeAll, nil
}
