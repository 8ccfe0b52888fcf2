package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-agency-backoffice/internal/domain"
	"github.com/tbourn/go-agency-backoffice/internal/events"
	"github.com/tbourn/go-agency-backoffice/internal/repo"
)

var fixedNow = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", time.Now().UnixNano())
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
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func strPtr(s string) *string { return &s }

func mustEqualDec(t *testing.T, what string, got decimal.Decimal, want int64) {
	t.Helper()
	if !got.Equal(decimal.NewFromInt(want)) {
		t.Fatalf("%s = %s; want %d", what, got, want)
	}
}

type pair struct {
	customer *domain.Customer
	job      *domain.JobPosting
	seeking  *domain.JobSeekingPosting
}

// seedPair creates a customer owning one job posting and one job seeking
// posting. Rate overrides are optional.
func seedPair(t *testing.T, db *gorm.DB, employerRate, employeeRate *decimal.Decimal) pair {
	t.Helper()
	ctx := context.Background()
	c := &domain.Customer{Name: "Hanbit Staffing", CustomerType: domain.CustomerBoth}
	if err := repo.CreateCustomer(ctx, db, c); err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	jp := &domain.JobPosting{CustomerID: c.ID, Salary: dec(4_000_000), EmployerFeeRate: employerRate}
	if err := repo.CreateJobPosting(ctx, db, jp); err != nil {
		t.Fatalf("seed job posting: %v", err)
	}
	js := &domain.JobSeekingPosting{CustomerID: c.ID, DesiredSalary: dec(3_800_000), EmployeeFeeRate: employeeRate}
	if err := repo.CreateJobSeekingPosting(ctx, db, js); err != nil {
		t.Fatalf("seed job seeking posting: %v", err)
	}
	return pair{customer: c, job: jp, seeking: js}
}

type fixture struct {
	db          *gorm.DB
	matchings   *MatchingService
	settlements *SettlementService
	events      *events.Recorder
	cache       *memCache
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := newTestDB(t)
	rec := &events.Recorder{}
	cache := newMemCache()

	ms := NewMatchingService(db)
	ms.Events = rec
	ms.Cache = cache
	ms.Now = clock

	ss := NewSettlementService(db)
	ss.Events = rec
	ss.Cache = cache
	ss.Now = clock

	return fixture{db: db, matchings: ms, settlements: ss, events: rec, cache: cache}
}

func (f fixture) create(t *testing.T, p pair, salary, employerRate, employeeRate int64) *domain.Matching {
	t.Helper()
	m, err := f.matchings.Create(context.Background(), "op-1", CreateMatchingInput{
		JobPostingID:        p.job.ID,
		JobSeekingPostingID: p.seeking.ID,
		AgreedSalary:        dec(salary),
		EmployerFeeRate:     decPtr(employerRate),
		EmployeeFeeRate:     decPtr(employeeRate),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return m
}

func posting(t *testing.T, db *gorm.DB, kind domain.PostingKind, id int64) domain.SettleablePosting {
	t.Helper()
	p, err := repo.GetPosting(context.Background(), db, kind, id)
	if err != nil {
		t.Fatalf("GetPosting(%s,%d): %v", kind, id, err)
	}
	return p
}

func asValidation(t *testing.T, err error, field string) {
	t.Helper()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError on %q, got %v", field, err)
	}
	if ve.Field != field {
		t.Fatalf("validation field = %q; want %q (%v)", ve.Field, field, err)
	}
}

// memCache is an in-process StatsCache.
type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deletes int
	getErr  error
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return false, c.getErr
	}
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *memCache) Set(_ context.Context, key string, v any, _ time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = b
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	c.deletes++
	return nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}
