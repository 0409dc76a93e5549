package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dataset-hub-service/internal/adapters/primary/http/handlers"
	"dataset-hub-service/internal/adapters/primary/http/middleware"
	"dataset-hub-service/internal/adapters/secondary/blobstore"
	"dataset-hub-service/internal/adapters/secondary/events"
	"dataset-hub-service/internal/adapters/secondary/postgres"
	"dataset-hub-service/internal/config"
	output "dataset-hub-service/internal/core/ports/output"
	"dataset-hub-service/internal/core/services"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	initLogger(cfg)

	// Create database pool
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		log.Fatalf("parse db config: %v", err)
	}
	poolCfg.MaxConns = int32(cfg.Database.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.Database.MaxIdleConns)
	poolCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		log.Fatalf("create db pool: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		log.Fatalf("ping db: %v", err)
	}
	if err := postgres.Migrate(context.Background(), pool); err != nil {
		log.Fatalf("migrate db: %v", err)
	}
	log.Info("database connection established")

	// ============================================================================
	// Hexagonal Architecture Wiring
	// ============================================================================

	// Secondary Adapters (Output Ports)
	datasetRepo := postgres.NewDatasetRepository(pool)
	promptRepo := postgres.NewPromptRepository(pool)
	userRepo := postgres.NewUserRepository(pool)

	blobs, err := blobstore.NewMinIOStore(context.Background(), &cfg.Storage)
	if err != nil {
		log.Fatalf("init blob store: %v", err)
	}
	archiver := blobstore.NewZipArchiver(cfg.Server.TempDir)

	checks := map[string]pinger{"database": pool, "storage": blobs}

	// Event publisher (Optional - based on config)
	var publisher output.EventPublisher = events.Noop{}
	if cfg.AMQP.Enabled {
		p, err := events.NewAMQPPublisher(&cfg.AMQP)
		if err != nil {
			log.Warnf("event publisher init failed (continuing without events): %v", err)
		} else {
			publisher = p
			checks["events"] = p
		}
	} else {
		log.Info("event publishing disabled")
	}
	defer publisher.Close()

	// Core Services (Application Layer)
	userSvc := services.NewUserService(userRepo, datasetRepo, promptRepo)
	datasetSvc := services.NewDatasetService(datasetRepo, userRepo, blobs, archiver, publisher)
	promptSvc := services.NewPromptService(promptRepo, userSvc, publisher)

	// Primary Adapter (HTTP Handlers)
	h := handlers.New(datasetSvc, promptSvc, userSvc, cfg.Server.MaxUploadBytes)

	// Setup router
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logging(), gin.Recovery())
	if cfg.RateLimit.Enabled {
		limit, err := middleware.RateLimit(cfg.RateLimit.Rate)
		if err != nil {
			log.Fatalf("rate limit: %v", err)
		}
		router.Use(limit)
	}

	var guard []gin.HandlerFunc
	if cfg.Auth.JWTSecret != "" {
		guard = append(guard, middleware.Auth(cfg.Auth.JWTSecret))
	} else {
		log.Warn("AUTH_JWT_SECRET not set, write endpoints trust the uid sent by the client")
	}
	h.RegisterRoutes(router.Group(""), guard...)

	router.GET("/healthz", func(c *gin.Context) {
		for name, p := range checks {
			if err := p.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "component": name, "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Infof("starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced shutdown: %v", err)
	}

	log.Info("server stopped")
}

func initLogger(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Logger.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
