package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/openride/backend/internal/api/handlers"
	"github.com/openride/backend/internal/api/routes"
	"github.com/openride/backend/internal/config"
	"github.com/openride/backend/internal/domain/location"
	"github.com/openride/backend/internal/service/lifecycle"
	"github.com/openride/backend/internal/service/matching"
	"github.com/openride/backend/internal/service/token"
	"github.com/openride/backend/internal/storage"
	"github.com/openride/backend/internal/storage/memory"
	pgstore "github.com/openride/backend/internal/storage/postgres"
	"github.com/openride/backend/pkg/cache"
	"github.com/openride/backend/pkg/database"
	"github.com/openride/backend/pkg/logger"
	"github.com/openride/backend/pkg/monitoring"
	"github.com/openride/backend/pkg/websocket"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting OpenRide backend",
		logger.String("env", cfg.Server.Env),
		logger.String("port", cfg.Server.Port),
		logger.String("store", cfg.Store.Driver),
	)

	nrApp, err := monitoring.New(monitoring.Config{
		LicenseKey: cfg.NewRelic.LicenseKey,
		AppName:    cfg.NewRelic.AppName,
		Enabled:    cfg.NewRelic.Enabled,
	})
	if err != nil {
		appLogger.Warn("Failed to initialize New Relic", logger.Err(err))
		nrApp, _ = monitoring.New(monitoring.Config{})
	}
	defer nrApp.Shutdown(10 * time.Second)

	var redisClient *redis.Client
	redisClient, err = cache.NewRedisClient(cache.Config{
		Host:        cfg.Redis.Host,
		Port:        cfg.Redis.Port,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		MaxRetries:  cfg.Redis.MaxRetries,
		PoolSize:    cfg.Redis.PoolSize,
		DialTimeout: cfg.Redis.DialTimeout,
		ReadTimeout: cfg.Redis.ReadTimeout,
	})
	if err != nil {
		// Redis only backs idempotency replay; the engine works without it.
		appLogger.Warn("Redis unavailable, continuing without idempotency cache", logger.Err(err))
		redisClient = nil
	} else {
		defer cache.Close(redisClient)
		appLogger.Info("Connected to Redis successfully")
	}

	var store storage.Store
	switch cfg.Store.Driver {
	case "memory":
		memStore := memory.New()
		if cfg.Store.SeedDemo {
			if err := memStore.SeedDemoRoutes(context.Background()); err != nil {
				appLogger.Fatal("Failed to seed demo routes", logger.Err(err))
			}
			appLogger.Info("Seeded demo routes")
		}
		store = memStore
	default:
		db, err := database.NewPostgresDB(database.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.Name,
			SSLMode:  cfg.Database.SSLMode,
			MaxConns: cfg.Database.MaxConnections,
			MaxIdle:  cfg.Database.MaxIdleConns,
		})
		if err != nil {
			appLogger.Fatal("Failed to connect to PostgreSQL", logger.Err(err))
		}
		defer db.Close()
		appLogger.Info("Connected to PostgreSQL successfully")
		store = pgstore.New(db)
	}

	wsHub := websocket.NewHub(appLogger)
	go wsHub.Run()

	scorer := matching.NewScorer(location.DefaultTable())
	ranker := matching.NewRanker(scorer)
	tokens := token.New(cfg.Token.TTL)
	controller := lifecycle.New(store, tokens, appLogger)

	h := handlers.NewHandlers(store, ranker, controller, redisClient, appLogger, nrApp, wsHub, cfg.Matching.MaxResults)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	routes.SetupRoutes(router, h, nrApp.Application)
	appLogger.Info("Routes configured successfully")

	srv := &http.Server{
		Addr:           fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		appLogger.Info("Server starting", logger.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", logger.Err(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", logger.Err(err))
	}

	appLogger.Info("Server stopped gracefully")
}
