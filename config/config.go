package config

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gorm.io/gorm/logger"
)

const (
	DefaultDatabasePath     = "archive.sqlite"
	DefaultInitialRootName  = "for_doni"
	defaultDBMaxOpenConns   = 16
	defaultDBMaxIdleConns   = 4
	defaultDBBusyTimeoutMS  = 5000
	defaultServerListenPort = "8844"
)

type Config struct {
	// durable store location
	DatabasePath string `env:"DATABASE_PATH" envDefault:"archive.sqlite"`

	// root registered on first initialization only; an empty path skips the bootstrap
	InitialRootName string `env:"INITIAL_ROOT_NAME" envDefault:"for_doni"`
	InitialRootPath string `env:"INITIAL_ROOT_PATH"`

	// store tuning
	DBLogLevel      string `env:"DB_LOG_LEVEL" envDefault:"warn"` // silent, error, warn, info
	DBMaxOpenConns  int    `env:"DB_MAX_OPEN_CONNS" envDefault:"16"`
	DBMaxIdleConns  int    `env:"DB_MAX_IDLE_CONNS" envDefault:"4"`
	DBBusyTimeoutMS int    `env:"DB_BUSY_TIMEOUT_MS" envDefault:"5000"`

	Port string `env:"PORT" envDefault:"8844"`
}

// LoadConfig reads the configuration from the environment. Call godotenv.Load
// first if a .env file should be honored.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}

	if strings.TrimSpace(cfg.DatabasePath) == "" {
		cfg.DatabasePath = DefaultDatabasePath
	}
	absDB, err := filepath.Abs(cfg.DatabasePath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for database '%s': %w", cfg.DatabasePath, err)
	}
	cfg.DatabasePath = absDB

	if strings.TrimSpace(cfg.InitialRootName) == "" {
		cfg.InitialRootName = DefaultInitialRootName
	}
	if cfg.InitialRootPath != "" {
		absRoot, err := filepath.Abs(cfg.InitialRootPath)
		if err != nil {
			return Config{}, fmt.Errorf("failed to get absolute path for initial root '%s': %w", cfg.InitialRootPath, err)
		}
		cfg.InitialRootPath = absRoot
	}

	cfg.DBMaxOpenConns = positiveOrDefault("DB_MAX_OPEN_CONNS", cfg.DBMaxOpenConns, defaultDBMaxOpenConns)
	cfg.DBMaxIdleConns = positiveOrDefault("DB_MAX_IDLE_CONNS", cfg.DBMaxIdleConns, defaultDBMaxIdleConns)
	cfg.DBBusyTimeoutMS = positiveOrDefault("DB_BUSY_TIMEOUT_MS", cfg.DBBusyTimeoutMS, defaultDBBusyTimeoutMS)
	if cfg.Port == "" {
		cfg.Port = defaultServerListenPort
	}

	return cfg, nil
}

// GormLogLevel maps DBLogLevel to the GORM logger level, falling back to warn.
func (c Config) GormLogLevel() logger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(c.DBLogLevel)) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	case "warn", "":
		return logger.Warn
	default:
		log.Printf("Warning: Invalid DB_LOG_LEVEL '%s'. Using warn.", c.DBLogLevel)
		return logger.Warn
	}
}

func positiveOrDefault(envVar string, val, defaultVal int) int {
	if val <= 0 {
		log.Printf("Warning: Invalid %s '%d'. Using default %d.", envVar, val, defaultVal)
		return defaultVal
	}
	return val
}
