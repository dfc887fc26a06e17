package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	authcfg "docbase/internal/auth/config"
	collcfg "docbase/internal/collection/config"
	funccfg "docbase/internal/function/config"
	"docbase/internal/di"
	"docbase/internal/shared/httputil"
	"docbase/internal/shared/logger"

	"github.com/caarlos0/env/v6"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ServerConfig holds server configuration
type ServerConfig struct {
	Host     string `env:"SERVER_HOST" envDefault:"localhost"`
	Port     string `env:"SERVER_PORT" envDefault:"3000"`
	MongoURI string `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	serverCfg := &ServerConfig{}
	if err := env.Parse(serverCfg); err != nil {
		log.Fatalf("Failed to load server configuration: %v", err)
	}

	appLogger := logger.NewLogger()
	appLogger.Info("Application configuration loaded")

	accessLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create access logger: %v", err)
	}
	defer accessLogger.Sync()

	container := di.NewContainer(appLogger)
	defer func() {
		if err := container.Close(); err != nil {
			appLogger.Errorf("Failed to close container: %v", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(serverCfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			appLogger.Errorf("Failed to disconnect MongoDB: %v", err)
		}
	}()

	if err := mongoClient.Ping(ctx, nil); err != nil {
		log.Fatalf("Failed to ping MongoDB: %v", err)
	}
	appLogger.Info("MongoDB connection established")

	authConfig, err := authcfg.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load auth configuration: %v", err)
	}
	collConfig, err := collcfg.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load collection configuration: %v", err)
	}
	funcConfig, err := funccfg.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load function configuration: %v", err)
	}

	dataDB := mongoClient.Database(collConfig.DatabaseName)
	coreDB := mongoClient.Database(funcConfig.CoreDatabaseName)

	if err := container.InitializeAuth(dataDB, authConfig); err != nil {
		log.Fatalf("Failed to initialize auth module: %v", err)
	}
	appLogger.Info("Auth module initialized")

	if err := container.InitializeCollection(collConfig); err != nil {
		log.Fatalf("Failed to initialize collection module: %v", err)
	}
	appLogger.Info("Collection module initialized")

	if err := container.InitializeFunction(coreDB, funcConfig); err != nil {
		log.Fatalf("Failed to initialize function module: %v", err)
	}
	appLogger.Info("Function module initialized")

	app := fiber.New(fiber.Config{
		AppName:      "docbase API v1.0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: httputil.ErrorHandler(appLogger),
	})

	app.Use(recover.New())
	app.Use(httputil.RequestID())
	app.Use(httputil.AccessLog(accessLogger))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Bearer tokens are decoded once for every route; the guards downstream
	// decide what an anonymous caller may do.
	app.Use(container.GetAuthModule().GetMiddleware().DecodeClaims())

	app.Get("/health", func(c *fiber.Ctx) error {
		healthCtx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
		defer cancel()

		if err := container.HealthCheck(healthCtx); err != nil {
			appLogger.Errorf("Health check failed: %v", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "UNHEALTHY",
				"error":  err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"status":    "HEALTHY",
			"timestamp": time.Now().UTC(),
		})
	})

	container.GetAuthModule().RegisterRoutes(app)
	container.GetCollectionModule().RegisterRoutes(app)
	container.GetFunctionModule().RegisterRoutes(app)
	appLogger.Info("Routes registered")

	serverAddr := fmt.Sprintf("%s:%s", serverCfg.Host, serverCfg.Port)
	appLogger.Infof("Starting HTTP server on %s", serverAddr)

	serverShutdown := make(chan error, 1)
	go func() {
		serverShutdown <- app.Listen(serverAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverShutdown:
		if err != nil {
			log.Fatalf("Server startup failed: %v", err)
		}
	case sig := <-quit:
		appLogger.Infof("Received shutdown signal: %v", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			appLogger.Errorf("Server forced to shutdown: %v", err)
		}
		appLogger.Info("HTTP server stopped")
	}
}
