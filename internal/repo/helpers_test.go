package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-agency-backoffice/internal/domain"
)

// newRepoDB opens a private in-memory database. With migrate=true the full
// schema (including partial indexes) is created.
func newRepoDB(t *testing.T, migrate bool) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
		t.Cleanup(func() { _ = sqlDB.Close() })
	}
	if migrate {
		if err := AutoMigrate(db); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

type seeded struct {
	customer *domain.Customer
	job      *domain.JobPosting
	seeking  *domain.JobSeekingPosting
}

func seedPair(t *testing.T, db *gorm.DB) seeded {
	t.Helper()
	ctx := context.Background()
	c := &domain.Customer{Name: "ACME", CustomerType: domain.CustomerBoth}
	if err := CreateCustomer(ctx, db, c); err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	jp := &domain.JobPosting{CustomerID: c.ID, Salary: decimal.NewFromInt(4_000_000)}
	if err := CreateJobPosting(ctx, db, jp); err != nil {
		t.Fatalf("seed job posting: %v", err)
	}
	js := &domain.JobSeekingPosting{CustomerID: c.ID, DesiredSalary: decimal.NewFromInt(3_800_000)}
	if err := CreateJobSeekingPosting(ctx, db, js); err != nil {
		t.Fatalf("seed job seeking posting: %v", err)
	}
	return seeded{customer: c, job: jp, seeking: js}
}

func newMatching(jobID, seekingID int64, status domain.MatchingStatus, employerFee, employeeFee int64) *domain.Matching {
	er := decimal.NewFromInt(employerFee)
	ee := decimal.NewFromInt(employeeFee)
	return &domain.Matching{
		JobPostingID:        jobID,
		JobSeekingPostingID: seekingID,
		MatchedAt:           time.Now().UTC(),
		AgreedSalary:        decimal.NewFromInt(1_000_000),
		EmployerFeeRate:     decimal.NewFromInt(10),
		EmployeeFeeRate:     decimal.NewFromInt(5),
		EmployerFeeAmount:   &er,
		EmployeeFeeAmount:   &ee,
		Status:              status,
	}
}
