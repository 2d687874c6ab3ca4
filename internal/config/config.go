package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"time"    // For cache TTL

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort    string        // Application port
	DBDriver   string        // "mysql" or "memory"
	DBUser     string        // Database user
	DBPassword string        // Database password
	DBHost     string        // Database host
	DBPort     string        // Database port
	DBName     string        // Database name
	JWTSecret  string        // JWT secret key
	RedisAddr  string        // Redis server address, empty disables the page cache
	RedisPass  string        // Redis password
	RedisDB    int           // Redis database number
	CacheTTL   time.Duration // Lifetime of cached catalog pages
	UploadDir  string        // Directory for uploaded archives and previews
	AdminEmail string        // Account promoted to admin at startup
	AdminPass  string        // Password used when the admin account has to be created
	IsProd     bool          // Is production environment

	RejectKeepsFeatured bool // Leave isFeatured untouched on reject
	AllowFeaturePending bool // Allow featuring assets that are not approved
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	ttl, err := strconv.Atoi(os.Getenv("CACHE_TTL_SECONDS"))
	if err != nil || ttl <= 0 {
		ttl = 60 // Default cache lifetime in seconds
	}
	return &Config{
		AppPort:    getEnv("APP_PORT", "8080"),       // Application port
		DBDriver:   getEnv("DB_DRIVER", "mysql"),     // Store backend
		DBUser:     os.Getenv("DB_USER"),             // Database user
		DBPassword: os.Getenv("DB_PASSWORD"),         // Database password
		DBHost:     getEnv("DB_HOST", "127.0.0.1"),   // Database host
		DBPort:     getEnv("DB_PORT", "3306"),        // Database port
		DBName:     os.Getenv("DB_NAME"),             // Database name
		JWTSecret:  os.Getenv("JWT_SECRET"),          // JWT secret key
		RedisAddr:  os.Getenv("REDIS_ADDR"),          // Redis server address
		RedisPass:  os.Getenv("REDIS_PASS"),          // Redis password
		RedisDB:    redisDB,                          // Redis database number
		CacheTTL:   time.Duration(ttl) * time.Second, // Cached page lifetime
		UploadDir:  getEnv("UPLOAD_DIR", "uploads"),  // Upload directory
		AdminEmail: os.Getenv("ADMIN_EMAIL"),         // Bootstrap admin
		AdminPass:  os.Getenv("ADMIN_PASSWORD"),      // Bootstrap admin password
		IsProd:     os.Getenv("IS_PROD") == "true",   // Is production environment

		RejectKeepsFeatured: os.Getenv("MODERATION_REJECT_KEEPS_FEATURED") == "true",
		AllowFeaturePending: os.Getenv("MODERATION_ALLOW_FEATURE_PENDING") == "true",
	}
}

// getEnv returns the variable or a fallback when it is unset
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
