package collection

import (
	collhttp "docbase/internal/collection/adapter/http"
	"docbase/internal/collection/adapter/persistence/mongodb"
	"docbase/internal/collection/config"
	"docbase/internal/collection/registry"
	"docbase/internal/collection/usecase"
	"docbase/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

// CollectionModule wires the dynamic collection feature: model registry,
// document repository, usecase and the guarded HTTP surface.
type CollectionModule struct {
	registry *registry.Registry
	usecase  usecase.CollectionUsecaseInterface
	handler  *collhttp.CollectionHandler
	config   *config.Config
}

// NewCollectionModule creates a new collection module instance
func NewCollectionModule(db *mongodriver.Database, cfg *config.Config, log logger.Logger) *CollectionModule {
	reg := registry.NewRegistry(db, log)
	repo := mongodb.NewDocumentRepository(reg, db, log)
	uc := usecase.NewCollectionUsecase(repo, log)
	guards := collhttp.NewGuards(cfg, uc, log)
	handler := collhttp.NewCollectionHandler(uc, guards)

	return &CollectionModule{
		registry: reg,
		usecase:  uc,
		handler:  handler,
		config:   cfg,
	}
}

// RegisterRoutes registers the collection and superpower routes
func (cm *CollectionModule) RegisterRoutes(router fiber.Router) {
	cm.handler.RegisterRoutes(router)
	cm.handler.RegisterSuperpowerRoutes(router)
}

// GetRegistry exposes the model registry for other modules
func (cm *CollectionModule) GetRegistry() *registry.Registry {
	return cm.registry
}
