package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"cafe-pos-backend/internal/assets"
	"cafe-pos-backend/internal/config"
	"cafe-pos-backend/internal/database"
	"cafe-pos-backend/internal/gateway"
	"cafe-pos-backend/internal/handlers"
	"cafe-pos-backend/internal/logging"
	"cafe-pos-backend/internal/middleware"
	"cafe-pos-backend/internal/notify"
	"cafe-pos-backend/internal/sheets"
	"cafe-pos-backend/internal/slipcheck"
	"cafe-pos-backend/internal/store"
)

func main() {
	// 1. Load .env first
	hasEnv := config.LoadDotEnv()
	cfg := config.Load()

	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	if !hasEnv {
		log.Warn("No .env file found, using system environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Row store
	st, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to open store")
	}
	defer closeStore()

	// 3. Assets, notifications, slip checks
	uploader, closeAssets, err := openAssets(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to set up asset store")
	}
	defer closeAssets()

	sink := notify.New(cfg.WebhookURL, log)
	if !sink.Enabled() {
		log.Warn("WEBHOOK_URL not set, notifications disabled")
	}

	opts := gateway.Options{
		Store:    st,
		Assets:   uploader,
		Notifier: sink,
		LockWait: cfg.LockWait,
		CacheTTL: cfg.CacheTTL,
		Logger:   log,
	}
	if v := slipcheck.New(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL); v != nil {
		opts.Verifier = v
	} else {
		log.Warn("OPENAI_API_KEY not set, slip verification disabled")
	}

	// 4. Staff login
	auth := middleware.NewStaffAuth(cfg.AdminUsername, cfg.AdminPasswordHash, cfg.JWTSecret)
	opts.RequireStaff = auth.Enabled()
	if !auth.Enabled() {
		log.Warn("ADMIN_USERNAME/ADMIN_PASSWORD_HASH not set, staff actions are open")
	} else if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET not set, tokens will not survive a restart")
	}

	gw, err := gateway.New(opts)
	if err != nil {
		log.WithError(err).Fatal("Failed to create gateway")
	}
	defer gw.Close()

	// 5. HTTP
	appCfg := handlers.AppConfig{Logger: log}
	if cfg.AssetBackend == "local" {
		appCfg.UploadDir = cfg.AssetDir
		appCfg.UploadURL = cfg.LocalUploadURL()
	}
	app := handlers.NewApp(handlers.New(gw, auth, log), appCfg)

	go func() {
		<-ctx.Done()
		log.Info("Shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Error("Shutdown failed")
		}
	}()

	log.WithFields(logrus.Fields{
		"port":   cfg.Port,
		"store":  cfg.DBDriver,
		"assets": cfg.AssetBackend,
	}).Info("Server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
	sink.Wait()
}

func openStore(ctx context.Context, cfg config.Config, log *logrus.Logger) (store.Store, func(), error) {
	if cfg.DBDriver == "sheets" {
		var opts []option.ClientOption
		if cfg.GoogleCredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.GoogleCredentialsFile))
		}
		s, err := sheets.New(ctx, cfg.SheetsSpreadsheetID, opts...)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	}

	dbCfg := cfg.Database
	dbCfg.Logger = log
	db, err := database.Connect(dbCfg)
	if err != nil {
		return nil, nil, err
	}
	// Tables must exist before the first request.
	if err := database.Migrate(db, "", log); err != nil {
		return nil, nil, err
	}
	log.WithField("driver", dbCfg.Driver).Info("Database connected")

	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return database.NewStore(db), closeDB, nil
}

func openAssets(ctx context.Context, cfg config.Config) (assets.Uploader, func(), error) {
	switch cfg.AssetBackend {
	case "local":
		return assets.Local{Dir: cfg.AssetDir, BaseURL: cfg.LocalUploadURL()}, func() {}, nil
	case "gcs":
		if cfg.GCSBucket == "" {
			return nil, nil, fmt.Errorf("GCS_BUCKET is required for the gcs asset backend")
		}
		var opts []option.ClientOption
		if cfg.GoogleCredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.GoogleCredentialsFile))
		}
		client, err := storage.NewClient(ctx, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("create storage client: %w", err)
		}
		return assets.NewGCS(client, cfg.GCSBucket, cfg.AssetBaseURL), func() { client.Close() }, nil
	case "none":
		return assets.Disabled{}, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown ASSET_BACKEND %q", cfg.AssetBackend)
}
