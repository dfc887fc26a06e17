package function

import (
	"docbase/internal/function/adapter/cache"
	funchttp "docbase/internal/function/adapter/http"
	"docbase/internal/function/adapter/persistence/mongodb"
	"docbase/internal/function/config"
	"docbase/internal/function/domain/repository"
	"docbase/internal/function/sandbox"
	"docbase/internal/function/usecase"
	"docbase/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

// FunctionModule wires the cloud function feature: core-database repository,
// optional redis code cache, sandbox executor and HTTP surface.
type FunctionModule struct {
	repository repository.FunctionRepository
	usecase    usecase.FunctionUsecaseInterface
	handler    *funchttp.FunctionHandler
	config     *config.Config
}

// NewFunctionModule creates a new function module instance. coreDB is the
// core database holding function records, separate from user data.
func NewFunctionModule(coreDB *mongodriver.Database, cfg *config.Config, log logger.Logger) *FunctionModule {
	repo := mongodb.NewMongoFunctionRepository(coreDB, log)

	var codeCache repository.CodeCache = cache.NoopCodeCache{}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		codeCache = cache.NewRedisCodeCache(client, cfg.CacheTTL, log)
	}

	executor := sandbox.New(cfg.ExecutionTimeout)
	uc := usecase.NewFunctionUsecase(repo, codeCache, executor, log)

	return &FunctionModule{
		repository: repo,
		usecase:    uc,
		handler:    funchttp.NewFunctionHandler(uc),
		config:     cfg,
	}
}

// RegisterRoutes registers the cloud function routes
func (fm *FunctionModule) RegisterRoutes(router fiber.Router) {
	fm.handler.RegisterRoutes(router)
}
