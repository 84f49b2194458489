// @title Gamified DS Backend API
// @version 1.0
// @description Score, level and leaderboard backend for the gamified data structures learning app.

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"flag"
	"log"

	"gamified_ds_backend/internal/app"
	"gamified_ds_backend/internal/config"
	"gamified_ds_backend/pkg/configwatcher"
	"gamified_ds_backend/pkg/database"
	"gamified_ds_backend/pkg/logger"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "run database migrations and exit")
	migrate := flag.Bool("migrate", false, "force database migrations on startup, even in release mode")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Migrate-only runs need the database and nothing else: no Redis, no
	// router, no middleware.
	if *migrateOnly {
		db, err := database.InitDB(&cfg.Database)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		if err := database.Migrate(db); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		log.Println("Database migration finished, exiting")
		return
	}

	cfg.ForceMigrate = *migrate

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	go configwatcher.WatchConfig("configs/config.yaml", application.ApplyConfig)

	application.Run()
}
