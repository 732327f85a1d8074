package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/recipebox/backend/config"
	"github.com/recipebox/backend/internal/database"
	"github.com/recipebox/backend/internal/server"
	"github.com/recipebox/backend/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisClient, err := optionalRedis(cfg)
	if err != nil {
		log.Printf("Redis unavailable, recipe creation rate limiting disabled: %v", err)
	}

	imageService, err := optionalImageService(cfg)
	if err != nil {
		log.Printf("S3 unavailable, recipe image upload disabled: %v", err)
	}

	srv := server.NewServer(db, cfg.JWTSecret, redisClient, imageService)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start(cfg.ServerPort)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-quit:
		log.Printf("Received signal: %v", sig)
	}

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}

// optionalRedis connects to Redis when configured; an empty REDIS_HOST
// means the deployment runs without it.
func optionalRedis(cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisHost == "" {
		return nil, nil
	}
	return database.NewRedisClient(cfg)
}

// optionalImageService initializes S3-backed image storage when an
// S3 bucket is configured.
func optionalImageService(cfg *config.Config) (*service.ImageService, error) {
	if cfg.S3Bucket == "" {
		return nil, nil
	}
	s3cfg, err := config.NewS3Config(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	return service.NewImageService(s3cfg), nil
}
