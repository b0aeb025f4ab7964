package main

import (
	"context"

	"google.golang.org/api/option"

	"cafe-pos-backend/internal/config"
	"cafe-pos-backend/internal/database"
	"cafe-pos-backend/internal/logging"
	"cafe-pos-backend/internal/sheets"
)

func main() {
	// 1. Load env
	hasEnv := config.LoadDotEnv()
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	if !hasEnv {
		log.Warn("No .env file found, using system environment")
	}

	// 2. Sheets only need their header rows
	if cfg.DBDriver == "sheets" {
		var opts []option.ClientOption
		if cfg.GoogleCredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.GoogleCredentialsFile))
		}
		ctx := context.Background()
		s, err := sheets.New(ctx, cfg.SheetsSpreadsheetID, opts...)
		if err != nil {
			log.WithError(err).Fatal("Failed to open spreadsheet")
		}
		if err := s.Migrate(ctx); err != nil {
			log.WithError(err).Fatal("Failed to create sheet headers")
		}
		log.Info("Sheet headers ready")
		return
	}

	// 3. Connect database and run migrations
	dbCfg := cfg.Database
	dbCfg.Logger = log
	db, err := database.Connect(dbCfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	if err := database.Migrate(db, cfg.SeedFile, log); err != nil {
		log.WithError(err).Fatal("Migration failed")
	}
	log.Info("Migrations and seeding completed successfully")
}
