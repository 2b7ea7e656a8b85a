package initialization

import (
	"context"
	"fmt"

	"github.com/flowdeck/flowdeck/internal/controllers"
	"github.com/flowdeck/flowdeck/pkg/connectors"
	"github.com/flowdeck/flowdeck/pkg/domain"
	"github.com/flowdeck/flowdeck/pkg/engine"
	"github.com/flowdeck/flowdeck/pkg/executors"
	"github.com/flowdeck/flowdeck/pkg/storage"

	"github.com/rs/zerolog/log"
)

// Container holds the wired application graph for a serve process.
type Container struct {
	Config            *Config
	Engine            *engine.Engine
	SessionController *controllers.SessionController

	mongoStore *storage.MongoStore
	redisBus   *connectors.RedisDataBus
	postgres   *connectors.PostgresQueryService
	warehouse  *connectors.WarehouseQueryService
}

// NewContainer builds the full dependency graph from configuration: stores,
// connectors, executor registry and engine. Connectors whose configuration is
// absent are left nil; the node types that need them fail at execution with a
// configuration error rather than blocking startup.
func NewContainer(ctx context.Context, config *Config) (*Container, error) {
	log.Info().Msg("Building engine dependencies")

	mongoStore, err := storage.NewMongoStore(ctx, config.Mongo)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mongodb store: %w", err)
	}

	redisBus, err := connectors.NewRedisDataBus(ctx, config.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis data bus: %w", err)
	}

	container := &Container{
		Config:     config,
		mongoStore: mongoStore,
		redisBus:   redisBus,
	}

	deps := domain.ExecutorDeps{
		Definitions: mongoStore,
	}

	if config.PostgresDSN != "" {
		postgres, err := connectors.NewPostgresQueryService(ctx, config.PostgresDSN, config.Engine.MaxQueryRows)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres connector: %w", err)
		}

		container.postgres = postgres
		deps.Postgres = postgres
	}

	if config.Warehouse.Account != "" {
		warehouse, err := connectors.NewWarehouseQueryService(config.Warehouse, config.Engine.MaxQueryRows)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize warehouse connector: %w", err)
		}

		container.warehouse = warehouse
		deps.Warehouse = warehouse
	}

	if config.APIQueryEndpoint != "" {
		deps.APIQuery = connectors.NewAPIQueryService(
			config.APIQueryEndpoint,
			config.APIQueryKey,
			config.Engine.QueryTimeout,
			config.Engine.MaxQueryRows,
		)
	}

	if config.Completion.APIKey != "" {
		completion, err := connectors.NewCompletionService(config.Completion)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize completion connector: %w", err)
		}

		deps.Completion = completion
	}

	deps.HTTPCaller = connectors.NewHTTPClient(config.Engine.HTTPTimeout)
	deps.Vector = connectors.NewMongoVectorSearcher(
		mongoStore.Client(),
		config.VectorDatabase,
		config.VectorCollection,
		config.VectorIndex,
	)

	eng := engine.NewEngine(engine.EngineDeps{
		SessionStore: mongoStore,
		RecordStore:  mongoStore,
		DataBus:      redisBus,
		Config:       config.Engine,
	})

	deps.Nested = eng

	registry := executors.NewRegistry(deps, config.Engine)
	eng.SetRegistry(registry)

	container.Engine = eng
	container.SessionController = controllers.NewSessionController(controllers.SessionControllerDependencies{
		Engine: eng,
	})

	return container, nil
}

// Close releases every connection the container owns.
func (c *Container) Close(ctx context.Context) {
	if c.postgres != nil {
		c.postgres.Close()
	}

	if c.warehouse != nil {
		if err := c.warehouse.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close warehouse connection")
		}
	}

	if c.redisBus != nil {
		if err := c.redisBus.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close redis connection")
		}
	}

	if c.mongoStore != nil {
		if err := c.mongoStore.Close(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to close mongodb connection")
		}
	}
}
