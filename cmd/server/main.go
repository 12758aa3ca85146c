package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"jornada/internal/cache"
	"jornada/internal/config"
	"jornada/internal/logger"
	"jornada/internal/repository"
	"jornada/internal/service"
	"jornada/internal/transport/rest"
)

func main() {
	log := logger.New()
	cfg := config.Load()
	ctx := context.Background()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.WithError(err).Fatal("Failed to ping MongoDB")
	}
	log.Info("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDatabase)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.WithError(err).Fatal("Failed to ping Redis")
	}
	log.Info("Connected to Redis")

	// Initialize repository and make sure the unique index on code exists
	// before taking traffic: it is what enforces one session per code.
	sessionRepo := repository.NewSessionRepo(db)
	if err := sessionRepo.EnsureIndexes(ctx); err != nil {
		log.WithError(err).Fatal("Failed to create session indexes")
	}

	sessionCache := cache.NewSessionCache(rdb, cfg.CacheTTL)
	sessionSvc := service.NewSessionService(sessionRepo, sessionCache, log)

	router := rest.NewRouter(&rest.Container{
		SessionService: sessionSvc,
		Logger:         log,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Infof("Server starting on :%s", cfg.HTTPPort)
		log.Info("Endpoints:")
		log.Info("  GET  /active/{code}")
		log.Info("  POST /start")
		log.Info("  POST /end")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("ListenAndServe")
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("Server forced to shutdown")
	}

	log.Info("Server exited")
}
