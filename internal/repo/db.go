// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping helpers for
// SQLite (pure Go driver) and schema migrations.
package repo

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/trailhead-app/go-tours-backend/internal/domain"
)

// Open opens (or creates) the SQLite database at dsn, applies PRAGMAs,
// bounds the connection pool, and installs the OTel tracing plugin.
// The returned handle is safe for concurrent use and is owned by the
// process supervisor, which closes it exactly once during shutdown.
func Open(dsn string) (*gorm.DB, error) {
	// Fail early if the parent directory does not exist (instead of a
	// confusing sqlite "out of memory (14)" later).
	if path := filePathOf(dsn); path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if _, err := os.Stat(dir); err != nil {
				return nil, err
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}

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

// AutoMigrate creates or updates the schema for all domain models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Tour{},
		&domain.User{},
		&domain.Review{},
		&domain.Booking{},
		&domain.WebhookEvent{},
	)
}

// filePathOf extracts the filesystem path from a SQLite DSN, stripping the
// optional file: scheme and query options. Returns "" for :memory: DSNs.
func filePathOf(dsn string) string {
	s := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[:i]
	}
	if s == ":memory:" || s == "" {
		return ""
	}
	return s
}
