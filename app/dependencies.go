package app

import (
	"context"
	"fmt"

	"github.com/gramgyan/backend/auth"
	"github.com/gramgyan/backend/config"
	"github.com/gramgyan/backend/firebase"
	"github.com/gramgyan/backend/handlers"
	"github.com/gramgyan/backend/internal/observability"
	"github.com/gramgyan/backend/middleware"
	"github.com/gramgyan/backend/repositories"
	"github.com/gramgyan/backend/repositories/postgres"
	"github.com/gramgyan/backend/services/account"
	"github.com/gramgyan/backend/services/advisory"
	"github.com/gramgyan/backend/services/providers"
	"github.com/gramgyan/backend/services/providers/gemini"
	"github.com/gramgyan/backend/services/providers/sarvam"
	"github.com/gramgyan/backend/services/ratelimit"
	"github.com/gramgyan/backend/services/reports"
	"github.com/gramgyan/backend/services/rotation"
	"github.com/gramgyan/backend/services/speech"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const serviceName = "gramgyan-backend"

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger
	Tracer trace.Tracer

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Users     repositories.UserRepository
	Knowledge repositories.KnowledgeRepository
	TxManager repositories.TransactionManager

	// Credential rotation
	Pools    *rotation.Registry
	Executor *rotation.Executor

	// Providers
	Speech     providers.SpeechProvider
	Generative providers.GenerativeProvider

	// Services
	SpeechService   *speech.Service
	AdvisoryService *advisory.Service
	AccountService  *account.Service
	ReportService   *reports.Service
	RateLimiter     *ratelimit.Service

	// HTTP
	AuthHandler     *auth.Handler
	AuthMiddleware  *middleware.AuthMiddleware
	HealthHandler   *handlers.HealthHandler
	StatusHandler   *handlers.StatusHandler
	SpeechHandler   *handlers.SpeechHandler
	AdvisoryHandler *handlers.AdvisoryHandler
	UserHandler     *handlers.UserHandler
	ReportHandler   *handlers.ReportHandler

	shutdownTracer observability.ShutdownFunc
}

// NewDependencies connects to PostgreSQL, applies migrations when enabled
// and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps, err := NewDependenciesWithFactory(ctx, cfg, logger, factory)
	if err != nil {
		_ = factory.Close()
		return nil, err
	}
	return deps, nil
}

// NewDependenciesWithFactory wires everything on top of an existing repository factory.
func NewDependenciesWithFactory(ctx context.Context, cfg *config.Config, logger *zap.Logger, factory *postgres.RepositoryFactory) (*Dependencies, error) {
	deps := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		RepoFactory: factory,
		DB:          factory.GetDB(),
	}

	if err := deps.initTracing(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	deps.initRepositories()

	if err := deps.initProviders(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	deps.initServices(cfg)
	deps.initHTTP(cfg)

	logger.Info("all dependencies initialized successfully",
		zap.Int("credential_pools", deps.Pools.Count()))
	return deps, nil
}

func (d *Dependencies) initTracing(ctx context.Context, cfg *config.Config) error {
	tracer, shutdown, err := observability.InitTracer(ctx, serviceName, cfg.Observability)
	if err != nil {
		return err
	}
	d.Tracer = tracer
	d.shutdownTracer = shutdown
	return nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()

	d.Users = repos.Users
	d.Knowledge = repos.Knowledge
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
}

// initProviders builds one credential pool per provider and the adapters that rotate through them
func (d *Dependencies) initProviders(cfg *config.Config) error {
	sarvamPool := rotation.LoadPool("sarvam", cfg.Sarvam.APIKey, cfg.Sarvam.APIKeys)
	geminiPool := rotation.LoadPool("gemini", cfg.Gemini.APIKey, cfg.Gemini.APIKeys)

	registry := rotation.NewRegistry()
	for _, pool := range []*rotation.Pool{sarvamPool, geminiPool} {
		if err := registry.Register(pool); err != nil {
			return err
		}
		if pool.Len() == 0 {
			d.Logger.Warn("no API keys configured", zap.String("provider", pool.Name()))
			continue
		}
		d.Logger.Info("credential pool loaded",
			zap.String("provider", pool.Name()),
			zap.Int("keys", pool.Len()))
	}
	d.Pools = registry
	d.Executor = rotation.NewExecutor(d.Logger, d.Tracer)

	d.Speech = sarvam.NewAdapter(
		providers.Config{BaseURL: cfg.Sarvam.BaseURL, Timeout: cfg.Sarvam.Timeout},
		sarvam.Models{
			STT:           cfg.Sarvam.STTModel,
			Translate:     cfg.Sarvam.TranslateModel,
			TTS:           cfg.Sarvam.TTSModel,
			Speaker:       cfg.Sarvam.Speaker,
			SpeakerGender: cfg.Sarvam.SpeakerGender,
			Mode:          cfg.Sarvam.Mode,
		},
		sarvamPool, d.Executor, d.Logger.Named("sarvam"))

	d.Generative = gemini.NewAdapter(
		providers.Config{BaseURL: cfg.Gemini.BaseURL, Timeout: cfg.Gemini.Timeout, MaxAttempts: cfg.Gemini.MaxAttempts},
		gemini.Models{
			Generate:          cfg.Gemini.Model,
			Embedding:         cfg.Gemini.EmbeddingModel,
			FallbackEmbedding: cfg.Gemini.FallbackEmbeddingModel,
		},
		geminiPool, d.Executor, d.Logger.Named("gemini"))

	return nil
}

func (d *Dependencies) initServices(cfg *config.Config) {
	d.SpeechService = speech.NewService(d.Speech, d.Generative, d.Logger.Named("speech"))
	d.AdvisoryService = advisory.NewService(d.Generative, d.Logger.Named("advisory"))

	verifier := firebase.NewValidator(firebase.Config{
		ProjectID:   cfg.Firebase.ProjectID,
		JWKSURL:     cfg.Firebase.JWKSURL,
		CacheTTL:    cfg.Firebase.CacheTTL,
		HTTPTimeout: cfg.Firebase.HTTPTimeout,
	})
	issuer := auth.NewSessionIssuer(cfg.Session)
	d.AccountService = account.NewService(d.Users, d.TxManager, verifier, issuer, d.Logger.Named("account"))
	d.ReportService = reports.NewService(d.Knowledge, d.TxManager, d.Generative, d.AdvisoryService, d.Logger.Named("reports"))

	d.AuthMiddleware = middleware.NewAuthMiddleware(issuer, d.Logger)
	if cfg.Firebase.ProjectID == "" {
		d.Logger.Warn("firebase not configured, sign-in will fail")
	}

	if cfg.RateLimit.Enabled {
		d.RateLimiter = ratelimit.NewService(ratelimit.Config{
			RPS:   cfg.RateLimit.RPS,
			Burst: cfg.RateLimit.Burst,
		}, d.Logger.Named("ratelimit"))
	}
}

func (d *Dependencies) initHTTP(cfg *config.Config) {
	stager := speech.NewStager(cfg.Uploads.TempDir, cfg.Uploads.MaxBytes)

	d.AuthHandler = auth.NewHandler(d.AccountService, cfg.IsProduction(), handlers.HandleServiceError, d.Logger)
	d.HealthHandler = handlers.NewHealthHandler(d.DB.DB, cfg.AppName, d.Logger)
	d.StatusHandler = handlers.NewStatusHandler(cfg.AppName, cfg.Environment, d.Pools)
	d.SpeechHandler = handlers.NewSpeechHandler(d.SpeechService, stager, cfg.Uploads.MaxBytes, d.Logger)
	d.AdvisoryHandler = handlers.NewAdvisoryHandler(d.AdvisoryService, cfg.Uploads.MaxBytes, d.Logger)
	d.UserHandler = handlers.NewUserHandler(d.AccountService, d.Logger)
	d.ReportHandler = handlers.NewReportHandler(d.ReportService, d.Logger)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.shutdownTracer != nil {
		if err := d.shutdownTracer(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to flush traces: %w", err))
		}
	}

	// Close database connection
	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
