package main

import (
	"os"
	"path/filepath"

	"kazinest/api/internal/config"
	"kazinest/api/internal/db"
	"kazinest/api/internal/db/seeds"
	"kazinest/api/internal/logger"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		logger.Fatalf("create data directory: %v", err)
	}

	sqlite, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Fatalf("open db: %v", err)
	}
	defer sqlite.Close()

	if err := db.Migrate(sqlite); err != nil {
		logger.Fatalf("run migrations: %v", err)
	}

	logger.Infof("running seeds...")
	if err := seeds.Run(sqlite); err != nil {
		logger.Fatalf("run seeds: %v", err)
	}
	logger.Infof("seeds finished")
}
