package repo

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tbourn/go-agency-backoffice/internal/domain"
)

func TestCountLive_IgnoresSoftDeleted(t *testing.T) {
	db := newRepoDB(t, true)
	ctx := context.Background()
	seedPair(t, db)
	extra := &domain.Customer{Name: "Gone"}
	if err := CreateCustomer(ctx, db, extra); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := db.Delete(extra).Error; err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	n, err := CountLive(ctx, db, &domain.Customer{})
	if err != nil || n != 1 {
		t.Fatalf("CountLive(customers) = %d, %v; want 1", n, err)
	}
}

func TestCountLive_Error_NoTable(t *testing.T) {
	db := newRepoDB(t, false)
	if _, err := CountLive(context.Background(), db, &domain.Customer{}); err == nil {
		t.Fatalf("expected error without table")
	}
}

func TestMatchingTotals_GroupsAndTreatsNullAsZero(t *testing.T) {
	db := newRepoDB(t, true)
	ctx := context.Background()
	s := seedPair(t, db)

	for _, m := range []*domain.Matching{
		newMatching(s.job.ID, s.seeking.ID, domain.MatchingCompleted, 300_000, 150_000),
		newMatching(s.job.ID, s.seeking.ID, domain.MatchingCompleted, 100_000, 50_000),
		newMatching(s.job.ID, s.seeking.ID, domain.MatchingCancelled, 70, 30),
		newMatching(s.job.ID, s.seeking.ID, domain.MatchingInProgress, 10, 5),
	} {
		if err := CreateMatching(ctx, db, m); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	legacy := newMatching(s.job.ID, s.seeking.ID, domain.MatchingCompleted, 0, 0)
	legacy.EmployerFeeAmount, legacy.EmployeeFeeAmount = nil, nil
	if err := CreateMatching(ctx, db, legacy); err != nil {
		t.Fatalf("seed legacy: %v", err)
	}

	// Settle the job posting so only the employee side stays pending.
	if _, err := SettlePosting(ctx, db, domain.KindJobPosting, s.job.ID, decimal.NewFromInt(400_000), nil, time.Now()); err != nil {
		t.Fatalf("settle: %v", err)
	}

	rows, err := MatchingTotals(ctx, db)
	if err != nil {
		t.Fatalf("MatchingTotals: %v", err)
	}
	byStatus := map[domain.MatchingStatus]MatchingStatusTotals{}
	for _, r := range rows {
		byStatus[r.Status] = r
	}
	c := byStatus[domain.MatchingCompleted]
	if c.Count != 3 {
		t.Fatalf("completed count = %d; want 3", c.Count)
	}
	if !c.EmployerFees.Decimal.Equal(decimal.NewFromInt(400_000)) || !c.EmployeeFees.Decimal.Equal(decimal.NewFromInt(200_000)) {
		t.Fatalf("completed fee sums unexpected: %+v", c)
	}
	if !c.PendingEmployer.Decimal.IsZero() || !c.PendingEmployee.Decimal.Equal(decimal.NewFromInt(200_000)) {
		t.Fatalf("pending sums unexpected: %+v", c)
	}
	if byStatus[domain.MatchingInProgress].Count != 1 || byStatus[domain.MatchingCancelled].Count != 1 {
		t.Fatalf("status counts unexpected: %+v", byStatus)
	}
}

func TestSettlementTotals(t *testing.T) {
	db := newRepoDB(t, true)
	ctx := context.Background()
	s := seedPair(t, db)
	second := &domain.JobPosting{CustomerID: s.customer.ID, Salary: decimal.NewFromInt(1)}
	if err := CreateJobPosting(ctx, db, second); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := AccrueFee(ctx, db, domain.KindJobPosting, s.job.ID, decimal.NewFromInt(500)); err != nil {
		t.Fatalf("accrue: %v", err)
	}
	if err := AccrueFee(ctx, db, domain.KindJobPosting, second.ID, decimal.NewFromInt(200)); err != nil {
		t.Fatalf("accrue: %v", err)
	}
	if _, err := SettlePosting(ctx, db, domain.KindJobPosting, second.ID, decimal.NewFromInt(180), nil, time.Now()); err != nil {
		t.Fatalf("settle: %v", err)
	}

	rows, err := SettlementTotals(ctx, db, domain.KindJobPosting)
	if err != nil {
		t.Fatalf("SettlementTotals: %v", err)
	}
	got := map[domain.SettlementStatus]SettlementStatusTotals{}
	for _, r := range rows {
		got[r.SettlementStatus] = r
	}
	u, st := got[domain.SettlementUnsettled], got[domain.SettlementSettled]
	if u.Count != 1 || !u.AccruedAmount.Decimal.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("unsettled totals unexpected: %+v", u)
	}
	if st.Count != 1 || !st.SettledAmount.Decimal.Equal(decimal.NewFromInt(180)) {
		t.Fatalf("settled totals unexpected: %+v", st)
	}
}

func TestMatchingsStats_ZeroRowsAndMax(t *testing.T) {
	db := newRepoDB(t, true)
	ctx := context.Background()

	n, ts, err := MatchingsStats(ctx, db, nil)
	if err != nil || n != 0 || ts != nil {
		t.Fatalf("empty stats = %d, %v, %v", n, ts, err)
	}

	s := seedPair(t, db)
	a := newMatching(s.job.ID, s.seeking.ID, domain.MatchingCompleted, 1, 1)
	b := newMatching(s.job.ID, s.seeking.ID, domain.MatchingInProgress, 1, 1)
	for _, m := range []*domain.Matching{a, b} {
		if err := CreateMatching(ctx, db, m); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	later := time.Now().UTC().Add(time.Hour)
	if err := db.Model(&domain.Matching{}).Where("id = ?", a.ID).UpdateColumn("updated_at", later).Error; err != nil {
		t.Fatalf("bump updated_at: %v", err)
	}

	n, ts, err = MatchingsStats(ctx, db, nil)
	if err != nil || n != 2 || ts == nil || ts.Sub(later).Abs() > time.Millisecond {
		t.Fatalf("stats = %d, %v, %v; want 2 and %v", n, ts, err, later)
	}
	inProgress := domain.MatchingInProgress
	n, _, err = MatchingsStats(ctx, db, &inProgress)
	if err != nil || n != 1 {
		t.Fatalf("filtered stats = %d, %v; want 1", n, err)
	}
}

func TestMatchingsStats_CountError_NoTable(t *testing.T) {
	db := newRepoDB(t, false)
	if _, _, err := MatchingsStats(context.Background(), db, nil); err == nil {
		t.Fatalf("expected error without table")
	}
}
