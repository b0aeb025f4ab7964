// Package config reads settings from the environment, optionally seeded
// from a .env file.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"cafe-pos-backend/internal/database"
)

type Config struct {
	Port string

	DBDriver string // postgres, mysql, sqlite or sheets
	Database database.Config
	SeedFile string

	SheetsSpreadsheetID   string
	GoogleCredentialsFile string

	AssetBackend string // local, gcs or none
	AssetDir     string
	AssetBaseURL string // empty: /public/uploads locally, the bucket URL on gcs
	GCSBucket    string

	WebhookURL string

	LockWait time.Duration
	CacheTTL time.Duration

	AdminUsername     string
	AdminPasswordHash string
	JWTSecret         string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	LogLevel  string
	LogFormat string
}

// ClientConfig is what cafectl needs.
type ClientConfig struct {
	APIURL    string
	MirrorDir string
	Token     string
	Timeout   time.Duration
}

// LoadDotEnv loads .env if present. It reports whether a file was read.
func LoadDotEnv(files ...string) bool {
	return godotenv.Load(files...) == nil
}

func Load() Config {
	driver := getEnv("DB_DRIVER", "sqlite")
	return Config{
		Port:     getEnv("PORT", "8080"),
		DBDriver: driver,
		Database: database.Config{
			Driver:     driver,
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", ""),
			Name:       getEnv("DB_NAME", "cafe"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			SQLitePath: getEnv("SQLITE_PATH", "cafe.db"),
		},
		SeedFile:              getEnv("SEED_FILE", "migrations/000001_seed_menu.up.sql"),
		SheetsSpreadsheetID:   getEnv("SHEETS_SPREADSHEET_ID", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		AssetBackend:          strings.ToLower(getEnv("ASSET_BACKEND", "local")),
		AssetDir:              getEnv("ASSET_DIR", "./public/uploads"),
		AssetBaseURL:          getEnv("ASSET_BASE_URL", ""),
		GCSBucket:             getEnv("GCS_BUCKET", ""),
		WebhookURL:            getEnv("WEBHOOK_URL", ""),
		LockWait:              getDuration("LOCK_WAIT", 15*time.Second),
		CacheTTL:              getDuration("CACHE_TTL", 10*time.Minute),
		AdminUsername:         getEnv("ADMIN_USERNAME", ""),
		AdminPasswordHash:     getEnv("ADMIN_PASSWORD_HASH", ""),
		JWTSecret:             getEnv("JWT_SECRET", ""),
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:           getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:         getEnv("OPENAI_BASE_URL", ""),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "text"),
	}
}

// LocalUploadURL is the path local uploads are served from.
func (c Config) LocalUploadURL() string {
	if c.AssetBaseURL == "" {
		return "/public/uploads"
	}
	return c.AssetBaseURL
}

func LoadClient() ClientConfig {
	return ClientConfig{
		APIURL:    getEnv("CAFE_API_URL", "http://localhost:8080/api/v1/exec"),
		MirrorDir: getEnv("CAFE_MIRROR_DIR", ".cafe-mirror"),
		Token:     getEnv("CAFE_TOKEN", ""),
		Timeout:   getDuration("CAFE_TIMEOUT", 20*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
