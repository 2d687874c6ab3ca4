package main

import (
	"assetmarket/internal/account"    // Accounts and profiles
	"assetmarket/internal/api"        // Custom package for API handlers
	"assetmarket/internal/catalog"    // Catalog query engine
	"assetmarket/internal/config"     // Custom package for configuration
	"assetmarket/internal/db"         // Entity stores
	"assetmarket/internal/moderation" // Moderation state machine
	"assetmarket/internal/storage"    // Upload storage
	"assetmarket/internal/utils"      // Redis page cache
	"assetmarket/internal/wishlist"   // Wishlist consistency layer
	"context"                         // context package is needed for Redis operations

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// entityStore is satisfied by both the MySQL and the in-memory store
type entityStore interface {
	catalog.Repository
	moderation.Repository
	wishlist.Repository
	account.Repository
}

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	store := openStore(cfg) // MySQL or in-memory entity store

	// Setup Redis page cache when configured
	var pages catalog.PageCache // nil disables caching
	var invalidator moderation.Invalidator
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		// Test Redis connection
		if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
		cache := utils.NewRedisCache(redisClient, "catalog", cfg.CacheTTL)
		pages, invalidator = cache, cache
	}

	policy := moderation.DefaultPolicy()
	policy.RejectClearsFeatured = !cfg.RejectKeepsFeatured
	policy.FeatureRequiresApproval = !cfg.AllowFeaturePending

	accounts := account.NewService(store)
	if cfg.AdminEmail != "" {
		if _, err := accounts.EnsureAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPass); err != nil {
			logrus.Fatalf("failed to prepare admin account: %v", err)
		}
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}
	r.MaxMultipartMemory = 8 << 20 // Larger uploads spill to temporary files

	api.RegisterRoutes(r, api.Deps{
		Accounts:   accounts,
		Catalog:    catalog.NewService(store, pages),
		Moderation: moderation.NewService(store, invalidator, policy),
		Wishlist:   wishlist.NewService(store),
		Users:      store,
		Files:      storage.NewLocal(cfg.UploadDir, "/uploads"),
		UploadDir:  cfg.UploadDir,
		JWTSecret:  cfg.JWTSecret,
	})

	logrus.Info("Server running on " + cfg.AppPort)  // Log server start
	if err := r.Run(":" + cfg.AppPort); err != nil { // Start the server on port cfg.AppPort
		logrus.Fatalf("server stopped: %v", err)
	}
}

// openStore picks the entity store named by DB_DRIVER
func openStore(cfg *config.Config) entityStore {
	switch cfg.DBDriver {
	case "memory":
		logrus.Warn("Using the in-memory store; data is lost on restart")
		return db.NewMemoryStore()
	case "mysql":
		gdb, err := db.Open(cfg) // Setup Data Source Name (DSN) and connect to the database
		if err != nil {
			logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
		}
		return db.NewStore(gdb)
	default:
		logrus.Fatalf("unknown DB_DRIVER %q", cfg.DBDriver)
		return nil
	}
}
