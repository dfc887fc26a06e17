package di

import (
	"context"
	"fmt"
	"sync"

	"docbase/internal/auth"
	authcfg "docbase/internal/auth/config"
	"docbase/internal/collection"
	collcfg "docbase/internal/collection/config"
	"docbase/internal/function"
	funccfg "docbase/internal/function/config"
	"docbase/internal/shared/logger"

	"go.mongodb.org/mongo-driver/mongo"
)

// Container owns the module instances and their shared connections with a
// defined initialization order: auth first (the other modules need its
// claims middleware), then collection, then function.
type Container struct {
	mu sync.RWMutex

	AuthModule       *auth.AuthModule
	CollectionModule *collection.CollectionModule
	FunctionModule   *function.FunctionModule

	// DataDB holds user collections; CoreDB holds system records such as
	// cloud functions.
	DataDB *mongo.Database
	CoreDB *mongo.Database

	Logger logger.Logger
}

// NewContainer creates a new container
func NewContainer(log logger.Logger) *Container {
	return &Container{Logger: log}
}

// InitializeAuth wires the identity module against the data database.
func (c *Container) InitializeAuth(dataDB *mongo.Database, cfg *authcfg.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.DataDB = dataDB
	module, err := auth.NewAuthModule(dataDB, cfg, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to create auth module: %w", err)
	}
	c.AuthModule = module
	return nil
}

// InitializeCollection wires the dynamic collection module.
func (c *Container) InitializeCollection(cfg *collcfg.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.DataDB == nil {
		return fmt.Errorf("auth module must be initialized before the collection module")
	}
	c.CollectionModule = collection.NewCollectionModule(c.DataDB, cfg, c.Logger)
	return nil
}

// InitializeFunction wires the cloud function module against the core
// database.
func (c *Container) InitializeFunction(coreDB *mongo.Database, cfg *funccfg.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.CoreDB = coreDB
	c.FunctionModule = function.NewFunctionModule(coreDB, cfg, c.Logger)
	return nil
}

// GetAuthModule returns the auth module instance
func (c *Container) GetAuthModule() *auth.AuthModule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.AuthModule
}

// GetCollectionModule returns the collection module instance
func (c *Container) GetCollectionModule() *collection.CollectionModule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.CollectionModule
}

// GetFunctionModule returns the function module instance
func (c *Container) GetFunctionModule() *function.FunctionModule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.FunctionModule
}

// HealthCheck pings the storage backends.
func (c *Container) HealthCheck(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.DataDB != nil {
		if err := c.DataDB.Client().Ping(ctx, nil); err != nil {
			return fmt.Errorf("data database health check failed: %w", err)
		}
	}
	if c.CoreDB != nil && (c.DataDB == nil || c.CoreDB.Client() != c.DataDB.Client()) {
		if err := c.CoreDB.Client().Ping(ctx, nil); err != nil {
			return fmt.Errorf("core database health check failed: %w", err)
		}
	}
	return nil
}

// Close drops the module references. Database clients are owned and closed
// by the caller that opened them.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.FunctionModule = nil
	c.CollectionModule = nil
	c.AuthModule = nil
	return nil
}
