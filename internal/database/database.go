package database

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config describes the SQL connection. Driver is postgres, mysql or sqlite.
type Config struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
	Logger     *logrus.Logger
}

func dialector(cfg Config) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres", "":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, cfg.SSLMode)
		return postgres.Open(dsn), nil
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
		return mysql.Open(dsn), nil
	case "sqlite":
		path := cfg.SQLitePath
		if path == "" {
			path = "cafe.db"
		}
		return sqlite.Open(path), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

// Connect only opens the connection; schema creation lives in Migrate.
func Connect(cfg Config) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	gormLogger := logger.Default.LogMode(logger.Warn)
	if cfg.Logger != nil {
		gormLogger = logger.New(cfg.Logger, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		})
	}

	db, err := gorm.Open(d, &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == "sqlite" {
		// sqlite allows a single writer; one connection keeps in-memory databases shared.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
	}
	return db, nil
}

// Migrate creates the tables and, when seedFile exists and the menu is still
// empty, runs it as raw SQL.
func Migrate(db *gorm.DB, seedFile string, log *logrus.Logger) error {
	log.Info("Running schema migrations (gorm AutoMigrate)")
	if err := db.AutoMigrate(&productRow{}, &categoryRow{}, &orderRow{}); err != nil {
		return fmt.Errorf("schema migration: %w", err)
	}
	log.Info("Schema migrations completed")

	if seedFile == "" {
		return nil
	}
	seedSQL, err := os.ReadFile(seedFile)
	if errors.Is(err, os.ErrNotExist) {
		log.WithField("file", seedFile).Warn("Seed file not found, skipping seeding")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read seed file %s: %w", seedFile, err)
	}

	var existing int64
	if err := db.Model(&productRow{}).Count(&existing).Error; err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if existing > 0 {
		log.WithField("products", existing).Info("Menu already present, skipping seeding")
		return nil
	}

	var rows int64
	err = db.Transaction(func(tx *gorm.DB) error {
		for _, stmt := range statements(string(seedSQL)) {
			result := tx.Exec(stmt)
			if result.Error != nil {
				return result.Error
			}
			rows += result.RowsAffected
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("seeding: %w", err)
	}
	log.WithField("rows", rows).Info("Seeding completed")
	return nil
}

// statements splits a SQL script on semicolons that end a line. Lines
// starting with -- are dropped.
func statements(script string) []string {
	var out []string
	var cur strings.Builder
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		cur.WriteString(line)
		cur.WriteString("\n")
		if strings.HasSuffix(trimmed, ";") {
			if stmt := strings.TrimSpace(cur.String()); stmt != ";" {
				out = append(out, strings.TrimSuffix(stmt, ";"))
			}
			cur.Reset()
		}
	}
	if rest := strings.TrimSpace(cur.String()); rest != "" {
		out = append(out, rest)
	}
	return out
}
