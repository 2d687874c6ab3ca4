package db

import (
	"time"

	"assetmarket/internal/config" // Database settings
	"assetmarket/internal/domain" // Importing domain models

	"github.com/go-sql-driver/mysql" // DSN builder
	"github.com/sirupsen/logrus"
	gormmysql "gorm.io/driver/mysql" // MySQL driver for GORM
	"gorm.io/gorm"                   // GORM ORM library
)

// DSN builds the MySQL data source name from configuration
func DSN(cfg *config.Config) string {
	c := mysql.NewConfig()
	c.User = cfg.DBUser
	c.Passwd = cfg.DBPassword
	c.Net = "tcp"
	c.Addr = cfg.DBHost + ":" + cfg.DBPort
	c.DBName = cfg.DBName
	c.ParseTime = true
	c.Loc = time.UTC
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c.FormatDSN()
}

// Open connects to MySQL. Duplicate-key errors are translated to gorm.ErrDuplicatedKey
// so the store can report conflicts.
func Open(cfg *config.Config) (*gorm.DB, error) {
	return gorm.Open(gormmysql.Open(DSN(cfg)), &gorm.Config{TranslateError: true})
}

// Models lists every persisted model in creation order
var Models = []any{&domain.User{}, &domain.Asset{}, &domain.Review{}, &domain.WishlistItem{}}

// Migrate performs automatic migration for the database schema
func Migrate(cfg *config.Config) {
	db, err := Open(cfg) // Open a connection to the database
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err) // Log fatal error if connection fails
	}
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	if err := db.AutoMigrate(Models...); err != nil {
		logrus.Fatalf("migration failed: %v", err) // Log fatal error if migration fails
	}
	logrus.Info("Migration completed.") // Log successful migration
}
