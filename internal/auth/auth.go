package auth

import (
	"fmt"

	authhttp "docbase/internal/auth/adapter/http"
	"docbase/internal/auth/adapter/persistence/mongodb"
	"docbase/internal/auth/adapter/security"
	"docbase/internal/auth/config"
	"docbase/internal/auth/domain/repository"
	"docbase/internal/auth/usecase"
	"docbase/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/mongo"
)

// AuthModule wires the identity feature: mongo repository, token service,
// usecase and HTTP surface.
type AuthModule struct {
	repository repository.UserRepository
	tokenSvc   repository.TokenService
	usecase    usecase.AuthUsecaseInterface
	handler    *authhttp.AuthHTTPHandler
	config     *config.Config
}

// NewAuthModule creates a new authentication module instance
func NewAuthModule(db *mongo.Database, cfg *config.Config, log logger.Logger) (*AuthModule, error) {
	userRepo, err := mongodb.NewMongoUserRepository(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create user repository: %w", err)
	}

	tokenSvc, err := security.NewJWTokenService(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}

	authUsecase := usecase.NewAuthUsecase(userRepo, tokenSvc, cfg, log)
	handler := authhttp.NewAuthHTTPHandler(authUsecase)

	return &AuthModule{
		repository: userRepo,
		tokenSvc:   tokenSvc,
		usecase:    authUsecase,
		handler:    handler,
		config:     cfg,
	}, nil
}

// RegisterRoutes registers the identity routes with the provided router
func (am *AuthModule) RegisterRoutes(router fiber.Router) {
	am.handler.RegisterRoutes(router)
}

// GetMiddleware returns the claims-decoding middleware
func (am *AuthModule) GetMiddleware() *authhttp.AuthMiddleware {
	return authhttp.NewAuthMiddleware(am.tokenSvc)
}

// GetTokenService exposes the token service for other modules
func (am *AuthModule) GetTokenService() repository.TokenService {
	return am.tokenSvc
}
