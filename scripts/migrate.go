package main

import (
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/johnquangdev/dubbing-service/internal/infrastructure/database"
	"github.com/johnquangdev/dubbing-service/pkg/config"
)

func main() {
	down := flag.Bool("down", false, "roll back migrations instead of applying them")
	steps := flag.Int("steps", 1, "number of migrations to roll back, 0 for all")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database using GORM
	db, err := database.NewPostgresDB(cfg, logger)
	if err != nil {
		logger.Fatal("❌ Failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB(db)

	if *down {
		n, err := database.Rollback(db, cfg.Database.MigrationsDir, *steps, logger)
		if err != nil {
			logger.Fatal("❌ Rollback failed", zap.Error(err))
		}
		logger.Info("✅ Rolled back migrations", zap.Int("count", n))
		return
	}

	n, err := database.Migrate(db, cfg.Database.MigrationsDir, logger)
	if err != nil {
		logger.Fatal("❌ Migration failed", zap.Error(err))
	}
	logger.Info("✅ Successfully applied migrations", zap.Int("count", n))
}
