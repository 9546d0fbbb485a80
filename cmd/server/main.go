package main

import (
	"context"
	"log"
	"time"

	"anoa.com/datingapp/internal/bootstrap"
	"anoa.com/datingapp/internal/config"
	"anoa.com/datingapp/internal/server"
	"anoa.com/datingapp/pkg/database"
	"anoa.com/datingapp/pkg/logger"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.Init(cfg.LogLevel, cfg.IsDevelopment())
	defer logger.Sync()

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("failed to connect database", err)
	}

	if err := bootstrap.Migrate(db); err != nil {
		logger.Fatal("migration failed", err)
	}
	if err := bootstrap.SeedRoles(db); err != nil {
		logger.Fatal("failed to seed roles", err)
	}
	if err := bootstrap.SeedAdmin(db); err != nil {
		logger.Fatal("failed to seed admin user", err)
	}
	if cfg.IsDevelopment() {
		if err := bootstrap.SeedMembers(db); err != nil {
			logger.Fatal("failed to seed members", err)
		}
	}

	redisClient := connectRedis(cfg.RedisURL)
	if redisClient != nil {
		defer redisClient.Close()
	}

	srv := server.NewServer(cfg, db, redisClient)

	logger.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv)
	if err := srv.Run(":" + cfg.Port); err != nil {
		logger.Fatal("server exited with error", err)
	}
}

// connectRedis returns nil when REDIS_URL is unset or unreachable.
func connectRedis(url string) *redis.Client {
	if url == "" {
		logger.Warn("REDIS_URL is not set, message rate limiting and live feed disabled")
		return nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		logger.Warn("invalid REDIS_URL, redis disabled", "error", err)
		return nil
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis is unreachable, redis disabled", "error", err)
		_ = client.Close()
		return nil
	}

	logger.Info("redis connected", "addr", opts.Addr)
	return client
}
