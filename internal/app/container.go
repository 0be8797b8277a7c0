package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/localift/engage/internal/catalog/builtin"
	"github.com/localift/engage/internal/catalog/registry"
	"github.com/localift/engage/internal/catalog/sdk"
	"github.com/localift/engage/internal/engagement/application"
	"github.com/localift/engage/internal/engagement/application/commands"
	"github.com/localift/engage/internal/engagement/application/queries"
	"github.com/localift/engage/internal/engagement/domain/cycle"
	"github.com/localift/engage/internal/engagement/domain/task"
	engagementPersistence "github.com/localift/engage/internal/engagement/infrastructure/persistence"
	"github.com/localift/engage/internal/gamification/application/services"
	"github.com/localift/engage/internal/gamification/application/subscribers"
	gamification "github.com/localift/engage/internal/gamification/domain"
	"github.com/localift/engage/internal/gamification/infrastructure/cache"
	gamificationPersistence "github.com/localift/engage/internal/gamification/infrastructure/persistence"
	"github.com/localift/engage/internal/listing"
	sharedApplication "github.com/localift/engage/internal/shared/application"
	"github.com/localift/engage/internal/shared/infrastructure/database"
	_ "github.com/localift/engage/internal/shared/infrastructure/database/postgres" // register postgres driver
	_ "github.com/localift/engage/internal/shared/infrastructure/database/sqlite"   // register sqlite driver
	"github.com/localift/engage/internal/shared/infrastructure/eventbus"
	"github.com/localift/engage/internal/shared/infrastructure/migrations"
	"github.com/localift/engage/internal/shared/infrastructure/outbox"
	"github.com/localift/engage/pkg/config"
	"github.com/localift/engage/pkg/observability"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Database
	DBConn   database.Connection
	DBDriver database.Driver

	// Redis
	RedisClient *redis.Client

	// Repositories
	TaskRepo     task.Repository
	CycleRepo    cycle.Repository
	LedgerRepo   gamification.LedgerRepository
	SnapshotRepo gamification.SnapshotRepository
	UnlockRepo   gamification.UnlockRepository
	OutboxRepo   outbox.Repository

	// Unit of Work
	UnitOfWork sharedApplication.UnitOfWork

	// Publishers
	EventPublisher eventbus.Publisher

	// Gamification
	StateCache   services.StateCache
	StateService *services.StateService
	ScoreService *services.ScoreService

	// Catalog
	RulesetRegistry *registry.Registry

	// Listing collaborator
	Applier listing.Applier

	// Engagement handlers and facade
	RefreshHandler  *commands.RefreshTasksHandler
	CompleteHandler *commands.CompleteTaskHandler
	ExcludeHandler  *commands.ExcludeTaskHandler
	BoardHandler    *queries.GetBoardHandler
	Engagement      *application.Service

	// Event consumers
	InProcessEventBus *eventbus.InProcessEventBus
	Consumers         *eventbus.ConsumerRegistry
	StateWarmer       *subscribers.StateWarmer

	// Outbox Processor
	OutboxProcessor *outbox.Processor

	// Observability
	Metrics observability.Metrics
	Health  *observability.HealthRegistry
}

// NewContainer creates and wires all dependencies. The database backend
// follows the config: embedded SQLite in local mode, PostgreSQL otherwise.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewInMemoryMetrics(),
		Health:  observability.NewHealthRegistry(),
	}

	conn, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	c.DBConn = conn
	c.DBDriver = conn.Driver()
	logger.Info("connected to database", "driver", c.DBDriver)

	c.Health.Register("database", func(ctx context.Context) observability.HealthCheckResult {
		if err := conn.Ping(ctx); err != nil {
			return observability.HealthCheckResult{Status: observability.HealthStatusUnhealthy, Message: err.Error()}
		}
		return observability.HealthCheckResult{Status: observability.HealthStatusHealthy}
	})

	// Redis backs the game-state cache. Local mode and development fall
	// back to the in-memory cache when no Redis is reachable.
	c.StateCache = cache.NewInMemoryStateCache()
	if cfg.RedisURL != "" && !cfg.IsLocalMode() {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			if !cfg.IsDevelopment() {
				conn.Close()
				return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
			}
			logger.Warn("invalid Redis URL, state cache will use in-memory fallback", "error", err)
		} else {
			redisClient := redis.NewClient(opt)
			if err := redisClient.Ping(ctx).Err(); err != nil {
				if !cfg.IsDevelopment() {
					conn.Close()
					return nil, fmt.Errorf("failed to connect to Redis: %w", err)
				}
				logger.Warn("Redis not available, state cache will use in-memory fallback", "error", err)
			} else {
				c.RedisClient = redisClient
				c.StateCache = cache.NewRedisStateCache(redisClient, cfg.StateCacheTTL)
				c.Health.Register("redis", func(ctx context.Context) observability.HealthCheckResult {
					if err := redisClient.Ping(ctx).Err(); err != nil {
						return observability.HealthCheckResult{Status: observability.HealthStatusDegraded, Message: err.Error()}
					}
					return observability.HealthCheckResult{Status: observability.HealthStatusHealthy}
				})
				logger.Info("connected to Redis")
			}
		}
	}

	// Create repositories
	factory := NewRepositoryFactory(conn)

	c.TaskRepo, err = factory.TaskRepository()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create task repository: %w", err)
	}
	c.CycleRepo, err = factory.CycleRepository()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create cycle repository: %w", err)
	}
	c.LedgerRepo, err = factory.LedgerRepository()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create ledger repository: %w", err)
	}
	c.SnapshotRepo, err = factory.SnapshotRepository()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create snapshot repository: %w", err)
	}
	c.UnlockRepo, err = factory.UnlockRepository()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create unlock repository: %w", err)
	}
	c.OutboxRepo, err = factory.OutboxRepository()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create outbox repository: %w", err)
	}
	c.UnitOfWork = database.NewUnitOfWork(conn)

	// The in-process bus dispatches to registered consumers. In local mode
	// it doubles as the publisher, so relayed events reach consumers without
	// a broker; in server mode the worker feeds the same registry from
	// RabbitMQ.
	c.InProcessEventBus = eventbus.NewInProcessEventBus(logger)
	c.Consumers = c.InProcessEventBus.GetRegistry()

	if cfg.IsLocalMode() {
		c.EventPublisher = eventbus.NewInProcessPublisher(c.InProcessEventBus, logger)
	} else {
		publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
		if err != nil {
			// Fall back to noop publisher in development
			if cfg.IsDevelopment() {
				logger.Warn("RabbitMQ not available, using noop publisher", "error", err)
				c.EventPublisher = eventbus.NewNoopPublisher(logger)
			} else {
				conn.Close()
				return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
			}
		} else {
			c.EventPublisher = publisher
		}
	}

	c.wire()

	logger.Info("container initialized",
		"driver", c.DBDriver,
		"ruleset", cfg.ActiveRuleset,
		"rulesets_registered", c.RulesetRegistry.Count(),
	)

	return c, nil
}

// NewMemoryContainer wires the full application over in-memory
// repositories. Tests and dry runs get working handlers without any
// external service.
func NewMemoryContainer(cfg *config.Config, logger *slog.Logger) *Container {
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewInMemoryMetrics(),
		Health:  observability.NewHealthRegistry(),
	}

	c.TaskRepo = engagementPersistence.NewInMemoryTaskRepository()
	c.CycleRepo = engagementPersistence.NewInMemoryCycleRepository()
	c.LedgerRepo = gamificationPersistence.NewInMemoryLedgerRepository()
	c.SnapshotRepo = gamificationPersistence.NewInMemorySnapshotRepository()
	c.UnlockRepo = gamificationPersistence.NewInMemoryUnlockRepository()
	c.OutboxRepo = outbox.NewInMemoryRepository()
	c.UnitOfWork = sharedApplication.NewNoopUnitOfWork()
	c.StateCache = cache.NewInMemoryStateCache()

	c.InProcessEventBus = eventbus.NewInProcessEventBus(logger)
	c.Consumers = c.InProcessEventBus.GetRegistry()
	c.EventPublisher = eventbus.NewInProcessPublisher(c.InProcessEventBus, logger)

	c.wire()

	return c
}

// wire builds the services, handlers and facade over the repositories,
// publisher and cache chosen by the constructor.
func (c *Container) wire() {
	cfg := c.Config
	logger := c.Logger

	c.StateService = services.NewStateService(c.LedgerRepo, c.StateCache, cfg.LevelStep, logger)
	c.ScoreService = services.NewScoreService(c.LedgerRepo, c.SnapshotRepo, gamification.ScoringConfig{
		PhotoTarget:      cfg.ScorePhotoTarget,
		CategoryTarget:   cfg.ScoreCategoryTarget,
		EngagementTarget: cfg.ScoreEngagementTarget,
		ContentTarget:    cfg.ScoreContentTarget,
		Window:           cfg.ScoreWindow,
	})

	// Catalog rulesets: the builtin is always available, plugin rulesets
	// are discovered from the search paths and launched on first use.
	loader := registry.NewLoader(logger)
	c.RulesetRegistry = registry.NewRegistry(loader, logger)
	if err := c.RulesetRegistry.RegisterBuiltin(builtin.New()); err != nil {
		logger.Warn("failed to register builtin ruleset", "error", err)
	}

	searchPaths := cfg.RulesetSearchPaths
	if len(searchPaths) == 0 {
		searchPaths = registry.DefaultSearchPaths()
	}
	discovery := registry.NewDiscovery(searchPaths, logger)
	for _, discovered := range discovery.Discover() {
		if c.RulesetRegistry.Has(discovered.Manifest.Name) {
			logger.Debug("skipping discovered ruleset, already registered",
				"ruleset", discovered.Manifest.Name,
			)
			continue
		}
		if err := c.RulesetRegistry.RegisterManifest(discovered.Manifest); err != nil {
			logger.Warn("failed to register discovered ruleset",
				"ruleset", discovered.Manifest.Name,
				"path", discovered.Path,
				"error", err,
			)
		}
	}

	rulesets := commands.RulesetSourceFunc(func(ctx context.Context) (sdk.Ruleset, error) {
		return c.RulesetRegistry.Get(ctx, cfg.ActiveRuleset)
	})

	// Listing collaborator: the engine ships no provider client, so the
	// breaker wraps the noop applier until a real one is configured.
	c.Applier = listing.NewBreakerApplier(listing.NoopApplier{}, listing.BreakerConfig{
		FailureThreshold: uint32(cfg.BreakerFailureThreshold),
		Timeout:          cfg.BreakerTimeout,
	}, logger)

	c.RefreshHandler = commands.NewRefreshTasksHandler(
		c.TaskRepo,
		c.CycleRepo,
		c.SnapshotRepo,
		rulesets,
		c.OutboxRepo,
		c.UnitOfWork,
		c.StateService,
		cfg.RefreshInterval,
	)
	c.CompleteHandler = commands.NewCompleteTaskHandler(
		c.TaskRepo,
		c.LedgerRepo,
		c.UnlockRepo,
		c.Applier,
		c.OutboxRepo,
		c.UnitOfWork,
		c.StateService,
		cfg.LevelStep,
	)
	c.ExcludeHandler = commands.NewExcludeTaskHandler(c.TaskRepo, c.OutboxRepo, c.UnitOfWork, c.StateService)
	c.BoardHandler = queries.NewGetBoardHandler(c.TaskRepo, c.CycleRepo, c.UnlockRepo, c.StateService, c.ScoreService)
	c.Engagement = application.NewService(c.RefreshHandler, c.CompleteHandler, c.ExcludeHandler, c.BoardHandler, logger)

	// Completions and refreshes warm the game-state cache off the hot path.
	c.StateWarmer = subscribers.NewStateWarmer(c.StateService, logger)
	c.InProcessEventBus.RegisterConsumer(c.StateWarmer)

	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, outbox.ProcessorConfig{
		PollInterval: cfg.OutboxPollInterval,
		BatchSize:    cfg.OutboxBatchSize,
		MaxRetries:   cfg.OutboxMaxRetries,
	}, logger).WithMetrics(c.Metrics)
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.RulesetRegistry != nil {
		c.RulesetRegistry.Close()
	}

	if c.OutboxProcessor != nil {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		}
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err)
		} else {
			c.Logger.Info("database connection closed", "driver", c.DBDriver)
		}
	}
}

// openDatabase connects to the backend the config selects and prepares
// the schema in local mode.
func openDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (database.Connection, error) {
	dbCfg := database.Config{
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
	}
	switch {
	case cfg.IsSQLite():
		dbCfg.Driver = database.DriverSQLite
	case cfg.IsPostgres():
		dbCfg.Driver = database.DriverPostgres
	}

	conn, err := database.NewConnection(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// SQLite migrates on open so local mode stays zero-config. The
	// postgres schema is managed through the migrate command.
	if conn.Driver() == database.DriverSQLite {
		sqliteConn, ok := conn.(interface{ DB() *sql.DB })
		if !ok {
			conn.Close()
			return nil, fmt.Errorf("sqlite connection does not expose DB()")
		}
		if err := migrations.RunSQLiteMigrations(ctx, sqliteConn.DB()); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("sqlite schema ready", "path", cfg.SQLitePath)
	}

	return conn, nil
}
