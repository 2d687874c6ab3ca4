package main

import (
	"assetmarket/internal/config" // Custom import path (Config)
	"assetmarket/internal/db"     // Custom import path (Database)
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration
	db.Migrate(cfg)            // Create or update the marketplace tables
}
