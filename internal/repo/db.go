// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping helpers for
// SQLite (pure Go driver), PostgreSQL and MySQL, plus schema migrations.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-agency-backoffice/internal/domain"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Open connects to the configured database, verifies the connection, tunes
// the pool and attaches the OpenTelemetry GORM plugin. For SQLite the dsn is
// a file path.
func Open(driver, dsn string) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch driver {
	case DriverSQLite, "":
		db, err = OpenSQLite(dsn)
	case DriverPostgres:
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	case DriverMySQL:
		db, err = gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if driver != DriverSQLite && driver != "" {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, fmt.Errorf("gorm tracing plugin: %w", err)
	}
	return db, nil
}

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	// Pool. A single writer connection keeps PRAGMAs and transactions on
	// the same handle.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(0)
	}

	return db, nil
}

// AutoMigrate creates or updates all tables, then adds the partial unique
// indexes that forbid binding a posting to two in-progress matchings.
// MySQL has no partial indexes; there the posting row locks taken by matching
// creation (GetPostingForUpdate) serialize the check-then-insert.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.Customer{},
		&domain.JobPosting{},
		&domain.JobSeekingPosting{},
		&domain.Matching{},
		&domain.Memo{},
		&domain.Idempotency{},
	); err != nil {
		return err
	}

	if db.Dialector.Name() == DriverMySQL {
		return nil
	}
	stmts := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_matchings_active_job_posting
			ON matchings (job_posting_id) WHERE matching_status = 'in_progress'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_matchings_active_job_seeking
			ON matchings (job_seeking_posting_id) WHERE matching_status = 'in_progress'`,
	}
	for _, s := range stmts {
		if err := db.Exec(s).Error; err != nil {
			return fmt.Errorf("create partial index: %w", err)
		}
	}
	return nil
}
