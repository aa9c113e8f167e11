// Package container provides dependency injection using Uber FX
package container

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/wellpack/engine/internal/application/plan"
	"github.com/wellpack/engine/internal/domain/reference"
	"github.com/wellpack/engine/internal/infrastructure/ai"
	"github.com/wellpack/engine/internal/infrastructure/ai/ollama"
	"github.com/wellpack/engine/internal/infrastructure/ai/openai"
	"github.com/wellpack/engine/internal/infrastructure/config"
	"github.com/wellpack/engine/internal/infrastructure/http/handlers"
	"github.com/wellpack/engine/internal/infrastructure/http/server"
	"github.com/wellpack/engine/internal/infrastructure/monitoring"
	gormrepo "github.com/wellpack/engine/internal/infrastructure/persistence/gorm"
	"github.com/wellpack/engine/internal/infrastructure/persistence/memory"
	"github.com/wellpack/engine/internal/infrastructure/persistence/migrations"
	"github.com/wellpack/engine/internal/infrastructure/persistence/postgres"
	rediscache "github.com/wellpack/engine/internal/infrastructure/persistence/redis"
	"github.com/wellpack/engine/internal/infrastructure/persistence/sqlite"
	"github.com/wellpack/engine/internal/infrastructure/referencedata"
	"github.com/wellpack/engine/internal/infrastructure/security"
	"github.com/wellpack/engine/internal/ports/inbound"
	"github.com/wellpack/engine/internal/ports/outbound"
	"github.com/wellpack/engine/pkg/healthcheck"
	"github.com/wellpack/engine/pkg/logger"
)

// ConfigPath is the optional config file location; empty searches the default paths
type ConfigPath string

// New returns the full application graph
func New(path string) fx.Option {
	return fx.Options(
		fx.Supply(ConfigPath(path)),
		Module,
	)
}

// Module provides all dependency injection modules
var Module = fx.Options(
	// Infrastructure modules
	ConfigModule,
	LoggerModule,
	ObservabilityModule,
	ReferenceModule,
	DatabaseModule,
	CacheModule,

	// Repository modules
	RepositoryModule,

	// Generator and service modules
	GeneratorModule,
	ServiceModule,

	// HTTP modules
	HealthModule,
	HTTPModule,

	// Lifecycle hooks
	LifecycleModule,
)

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func(path ConfigPath) (*config.Config, error) {
		return config.Load(string(path))
	},
)

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
			Service:     cfg.App.Name,
			Version:     cfg.App.Version,
		})
	},
)

// ObservabilityModule provides metrics and tracing
var ObservabilityModule = fx.Provide(
	monitoring.NewMetricsCollector,
	func(m *monitoring.MetricsCollector) plan.Metrics { return m },
	NewTracing,
)

// ReferenceModule provides the read-only rule tables
var ReferenceModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) (*reference.Data, error) {
		return referencedata.Load(cfg.Engine.ReferenceData, log)
	},
)

// DatabaseModule provides the database connection
var DatabaseModule = fx.Provide(
	NewDatabase,
)

// CacheModule provides the generator payload cache
var CacheModule = fx.Provide(
	NewCache,
)

// RepositoryModule provides repository implementations
var RepositoryModule = fx.Provide(
	fx.Annotate(
		gormrepo.NewPlanRepository,
		fx.As(new(outbound.PlanRepository)),
	),
	gormrepo.NewProductRepository,
	func(r *gormrepo.ProductRepository) outbound.ProductCatalog { return r },
)

// GeneratorModule provides the candidate generator chain
var GeneratorModule = fx.Provide(
	NewGenerator,
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	NewAssembler,
	fx.Annotate(
		plan.NewService,
		fx.As(new(inbound.PlanService)),
	),
)

// HealthModule provides the health check aggregator
var HealthModule = fx.Provide(
	NewHealthCheck,
)

// HTTPModule provides HTTP server and handlers
var HTTPModule = fx.Provide(
	security.NewValidationService,
	handlers.NewPlanHandlers,
	handlers.NewReferenceHandlers,
	func(cfg *config.Config, log *zap.Logger, plans *handlers.PlanHandlers, ref *handlers.ReferenceHandlers,
		health *healthcheck.HealthCheck, metrics *monitoring.MetricsCollector) *server.Server {
		return server.NewServer(cfg, log, server.Handlers{
			Plans:     plans,
			Reference: ref,
			Health:    health,
			Metrics:   metrics,
		})
	},
)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
)

// NewTracing installs the tracer provider and flushes it on stop
func NewTracing(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
	tp, err := monitoring.NewTracingProvider(context.Background(), monitoring.TracingConfig{
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		OTLPEndpoint:   cfg.Monitoring.OTLPEndpoint,
		SamplingRate:   cfg.Monitoring.SamplingRate,
		Enabled:        cfg.Monitoring.EnableTracing,
	}, log.Named("tracing"))
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: tp.Shutdown})
	return tp, nil
}

// NewDatabase opens the configured database and brings its schema up to date
func NewDatabase(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	gl := gormrepo.NewLogger(log, cfg.Database.LogLevel, cfg.Database.SlowQuery)
	ctx := context.Background()

	var db *gorm.DB
	var err error
	switch cfg.Database.Driver {
	case "postgres":
		if cfg.Database.AutoMigrate {
			if err := migratePostgres(ctx, cfg, log); err != nil {
				return nil, err
			}
		}
		db, err = postgres.Open(ctx, cfg, gl, log)
		if err != nil {
			return nil, err
		}
	default:
		db, err = sqlite.Open(cfg.GetDSN(), gl)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := gormrepo.AutoMigrate(db); err != nil {
				return nil, fmt.Errorf("failed to migrate sqlite schema: %w", err)
			}
		}
		log.Info("Connected to SQLite database", zap.String("path", cfg.GetDSN()))
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
	return db, nil
}

// migratePostgres runs the embedded migrations over a dedicated connection
func migratePostgres(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	db, err := postgres.Open(ctx, cfg, gormrepo.NewLogger(log, "silent", 0), log)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	m, err := migrations.New(sqlDB, cfg.Database.Database, log)
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()
	return m.Up()
}

// NewCache returns the Redis cache when enabled, otherwise the in-process cache.
// The Redis client is nil for the in-process cache.
func NewCache(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (outbound.CacheRepository, goredis.UniversalClient, error) {
	if !cfg.Redis.Enabled {
		repo := memory.NewCacheRepository()
		lc.Append(fx.Hook{OnStop: func(context.Context) error { return repo.Close() }})
		log.Info("Using in-memory generation cache")
		return repo, nil, nil
	}

	client, err := rediscache.NewClient(context.Background(), cfg.Redis, log)
	if err != nil {
		return nil, nil, err
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return client.Close() }})
	return rediscache.NewCacheRepository(client, log), client, nil
}

// Generator is the assembled generator chain plus the providers behind it
type Generator struct {
	fx.Out

	Chain     outbound.CandidateGenerator
	Providers []ai.Pinger
}

// NewGenerator builds cache -> rate limit -> fallback(breaker(primary), breaker(secondary)).
// A nil chain means every plan comes from the deterministic fallback.
func NewGenerator(cfg *config.Config, cache outbound.CacheRepository, log *zap.Logger) Generator {
	var providers []outbound.CandidateGenerator
	var pingers []ai.Pinger

	for _, name := range uniqueProviders(cfg.AI.Provider, cfg.AI.FallbackProvider) {
		var p interface {
			outbound.CandidateGenerator
			ai.Pinger
		}
		switch name {
		case "ollama":
			p = ollama.NewClient(ollama.Config{
				BaseURL:     cfg.AI.OllamaURL,
				Model:       cfg.AI.OllamaModel,
				Temperature: cfg.AI.Temperature,
				MaxTokens:   cfg.AI.MaxTokens,
				Timeout:     cfg.Engine.GenerationTimeout,
			}, log)
		case "openai":
			p = openai.NewClient(openai.Config{
				APIKey:      cfg.AI.OpenAIKey,
				BaseURL:     cfg.AI.OpenAIBaseURL,
				Model:       cfg.AI.OpenAIModel,
				Temperature: cfg.AI.Temperature,
				MaxTokens:   cfg.AI.MaxTokens,
				Timeout:     cfg.Engine.GenerationTimeout,
			}, log)
		default:
			continue
		}
		pingers = append(pingers, p)

		var g outbound.CandidateGenerator = p
		if cfg.Breaker.Enabled {
			g = ai.NewBreakerGenerator(g, ai.BreakerSettings{
				MaxRequests:  cfg.Breaker.MaxRequests,
				Interval:     cfg.Breaker.Interval,
				Timeout:      cfg.Breaker.Timeout,
				FailureRatio: cfg.Breaker.FailureRatio,
				MinRequests:  cfg.Breaker.MinRequests,
			}, log)
		}
		providers = append(providers, g)
	}

	if len(providers) == 0 {
		log.Warn("No generation provider configured, plans use the deterministic fallback")
		return Generator{Providers: pingers}
	}

	var chain outbound.CandidateGenerator = ai.NewFallbackGenerator(log, providers...)
	if cfg.RateLimit.Enable {
		chain = ai.NewRateLimitedGenerator(chain, cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstSize)
	}
	if cfg.AI.EnableCache {
		chain = ai.NewCachedGenerator(chain, cache, cfg.AI.CacheTTL, log)
	}

	log.Info("Generator chain ready", zap.String("providers", chain.Name()))
	return Generator{Chain: chain, Providers: pingers}
}

func uniqueProviders(names ...string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" || n == "none" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// NewAssembler wires the engine over the reference data.
// The tracing provider is taken so the global tracer is installed first.
func NewAssembler(
	cfg *config.Config,
	data *reference.Data,
	generator outbound.CandidateGenerator,
	products outbound.ProductCatalog,
	metrics plan.Metrics,
	_ *monitoring.TracingProvider,
	log *zap.Logger,
) *plan.Assembler {
	return plan.NewAssembler(data, generator, products, plan.Config{
		PackSize:           cfg.Engine.PackSize,
		GenerationTimeout:  cfg.Engine.GenerationTimeout,
		InteractionPolicy:  cfg.InteractionPolicy(),
		BackfillConfidence: cfg.Engine.BackfillConfidence,
		Tiers:              cfg.Tiers,
	}, log, plan.WithMetrics(metrics))
}

// NewHealthCheck registers the database, cache and generator checks
func NewHealthCheck(cfg *config.Config, db *gorm.DB, client goredis.UniversalClient, providers []ai.Pinger, log *zap.Logger) (*healthcheck.HealthCheck, error) {
	hc := healthcheck.New(cfg.App.Version, log.Named("health"))

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	hc.Register("database", healthcheck.NewDatabaseChecker(sqlDB))
	if client != nil {
		hc.Register("redis", healthcheck.NewRedisChecker(client))
	}
	hc.Register("generator", ai.NewHealthChecker(log, providers...))
	return hc, nil
}

// RegisterLifecycleHooks seeds products and runs the HTTP server
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	log *zap.Logger,
	data *reference.Data,
	products *gormrepo.ProductRepository,
	srv *server.Server,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting Wellpack",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
				zap.Int("catalog_items", data.Catalog().Len()),
			)

			if cfg.Database.SeedProducts {
				n, err := products.SeedFromCatalog(ctx, data.Catalog())
				if err != nil {
					return fmt.Errorf("failed to seed products: %w", err)
				}
				log.Info("Product catalog seeded", zap.Int("inserted", n))
			}

			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("HTTP server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down Wellpack")
			if err := srv.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}
			_ = log.Sync()
			return nil
		},
	})
}
