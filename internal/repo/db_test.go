package repo

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/tbourn/go-agency-backoffice/internal/domain"
)

func TestOpenSQLite_ErrorOnBadPath(t *testing.T) {
	base := t.TempDir()
	bad := filepath.Join(base, "does-not-exist", "app.db")

	db, err := OpenSQLite(bad)
	if err == nil || db != nil {
		t.Fatalf("expected error opening %q, got db=%v err=%v", bad, db, err)
	}

	// Be tolerant across platforms/drivers:
	// - Windows: *os.PathError ("CreateFile ... cannot find the file specified")
	// - SQLite:  "unable to open database file" / "out of memory (14)"
	// - Unix:    "no such file or directory"
	lower := strings.ToLower(err.Error())
	if !(os.IsNotExist(err) ||
		strings.Contains(lower, "unable to open database file") ||
		strings.Contains(lower, "no such file or directory") ||
		strings.Contains(lower, "out of memory")) {
		t.Fatalf("unexpected error opening %q: %v", bad, err)
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := Open("oracle", "x"); err == nil || !strings.Contains(err.Error(), "unsupported db driver") {
		t.Fatalf("expected unsupported driver error, got %v", err)
	}
}

func TestOpen_SQLite_SetsPragmas_Pool_AndAutoMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backoffice.db")

	db, err := Open(DriverSQLite, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	var (
		journalMode string
		fkOn        int
		busyMS      int
	)
	if err := db.Raw("PRAGMA journal_mode;").Row().Scan(&journalMode); err != nil {
		t.Fatalf("PRAGMA journal_mode: %v", err)
	}
	if strings.ToLower(journalMode) != "wal" {
		t.Fatalf("expected journal_mode=wal, got %q", journalMode)
	}
	if err := db.Raw("PRAGMA foreign_keys;").Row().Scan(&fkOn); err != nil {
		t.Fatalf("PRAGMA foreign_keys: %v", err)
	}
	if fkOn != 1 {
		t.Fatalf("expected foreign_keys=1, got %d", fkOn)
	}
	if err := db.Raw("PRAGMA busy_timeout;").Row().Scan(&busyMS); err != nil {
		t.Fatalf("PRAGMA busy_timeout: %v", err)
	}
	if busyMS != 5000 {
		t.Fatalf("expected busy_timeout=5000, got %d", busyMS)
	}
	if stats := sqlDB.Stats(); stats.MaxOpenConnections != 1 {
		t.Fatalf("expected MaxOpenConnections=1, got %d", stats.MaxOpenConnections)
	}

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	// Running twice must be harmless.
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate (second run): %v", err)
	}
	m := db.Migrator()
	for _, tbl := range []any{&domain.Customer{}, &domain.JobPosting{}, &domain.JobSeekingPosting{}, &domain.Matching{}, &domain.Memo{}, &domain.Idempotency{}} {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}
	for _, idx := range []string{"ux_matchings_active_job_posting", "ux_matchings_active_job_seeking"} {
		if !m.HasIndex(&domain.Matching{}, idx) {
			t.Fatalf("expected partial index %s", idx)
		}
	}
}

func TestAutoMigrate_PartialIndexRejectsSecondActiveMatching(t *testing.T) {
	db := newRepoDB(t, true)
	ctx := context.Background()
	s := seedPair(t, db)

	first := newMatching(s.job.ID, s.seeking.ID, domain.MatchingInProgress, 100, 50)
	if err := CreateMatching(ctx, db, first); err != nil {
		t.Fatalf("create first: %v", err)
	}
	second := newMatching(s.job.ID, s.seeking.ID, domain.MatchingInProgress, 100, 50)
	err := CreateMatching(ctx, db, second)
	if err == nil || !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation for second active matching, got %v", err)
	}

	// Historical matchings on the same postings are allowed.
	done := newMatching(s.job.ID, s.seeking.ID, domain.MatchingCompleted, 100, 50)
	if err := CreateMatching(ctx, db, done); err != nil {
		t.Fatalf("create completed: %v", err)
	}
}

// Compile-time guard to ensure signature stability.
var (
	_ func(string) (*gorm.DB, error)         = OpenSQLite
	_ func(string, string) (*gorm.DB, error) = Open
)
