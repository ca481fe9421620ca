package database

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options tune the connection pool and the GORM logger.
type Options struct {
	LogLevel     logger.LogLevel
	MaxOpenConns int
	MaxIdleConns int
	BusyTimeout  time.Duration
}

// DefaultOptions keeps query logging to warnings and slow statements.
func DefaultOptions() Options {
	return Options{
		LogLevel:     logger.Warn,
		MaxOpenConns: 16,
		MaxIdleConns: 4,
		BusyTimeout:  5 * time.Second,
	}
}

// DSN builds the driver connection string for the store at path. Every pooled
// connection gets WAL, NORMAL sync and foreign key enforcement on connect.
// The path is URI-escaped, so '#', '%' and '?' in directory names reach
// SQLite unchanged.
func DSN(path string, busyTimeout time.Duration) string {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_synchronous", "NORMAL")
	params.Set("_foreign_keys", "1")
	params.Set("_busy_timeout", fmt.Sprintf("%d", busyTimeout.Milliseconds()))

	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	slashed := filepath.ToSlash(path)
	if !strings.HasPrefix(slashed, "/") {
		// drive-letter paths: file:///C:/archive/archive.sqlite
		slashed = "/" + slashed
	}
	u := &url.URL{Scheme: "file", Path: slashed, RawQuery: params.Encode()}
	return u.String()
}

// Open opens (creating if needed) the SQLite store at path. It does not touch
// the schema; call EnsureSchemaCurrent before any other access.
func Open(path string, opts Options) (*gorm.DB, error) {
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  opts.LogLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(DSN(path, opts.BusyTimeout)), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, &StorageUnavailableError{Path: path, Err: err}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, &StorageUnavailableError{Path: path, Err: fmt.Errorf("failed to get underlying sql.DB from GORM: %w", err)}
	}

	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("archive store opened at", path)
	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
