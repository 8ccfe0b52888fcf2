package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tbourn/go-agency-backoffice/internal/domain"
	"github.com/tbourn/go-agency-backoffice/internal/events"
)

func TestSettle_DefaultsToAccruedAndRejectsSecondSettle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := seedPair(t, f.db, nil, nil)
	m := f.create(t, p, 4_000_000, 10, 8)
	if _, err := f.matchings.Complete(ctx, "op-1", m.ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	got, err := f.settlements.Settle(ctx, "op-9", domain.KindJobPosting, p.job.ID, nil, strPtr(" 계좌이체 완료 "))
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	st := got.SettlementInfo()
	if st.SettlementStatus != domain.SettlementSettled || st.SettledAt == nil || !st.SettledAt.Equal(fixedNow) {
		t.Fatalf("unexpected settlement: %+v", st)
	}
	mustEqualDec(t, "default settled amount", *st.SettlementAmount, 400_000)
	if st.SettlementMemo == nil || *st.SettlementMemo != "계좌이체 완료" {
		t.Fatalf("memo = %v", st.SettlementMemo)
	}

	_, err = f.settlements.Settle(ctx, "op-9", domain.KindJobPosting, p.job.ID, decPtr(1), nil)
	var te *TransitionError
	if !errors.Is(err, ErrInvalidTransition) || !errors.As(err, &te) || te.Entity != string(domain.KindJobPosting) {
		t.Fatalf("second settle: expected TransitionError, got %v", err)
	}

	last := f.events.Events[len(f.events.Events)-1]
	if last.Type != events.TypePostingSettled || last.PostingID != p.job.ID || last.PostingKind != domain.KindJobPosting {
		t.Fatalf("unexpected event: %+v", last)
	}
}

func TestSettle_ExplicitAmountAndValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := seedPair(t, f.db, nil, nil)

	_, err := f.settlements.Settle(ctx, "op-1", domain.KindJobSeeking, p.seeking.ID, decPtr(-10), nil)
	asValidation(t, err, "settlement_amount")

	tooFine := decimal.RequireFromString("1500.00005")
	_, err = f.settlements.Settle(ctx, "op-1", domain.KindJobSeeking, p.seeking.ID, &tooFine, nil)
	asValidation(t, err, "settlement_amount")

	got, err := f.settlements.Settle(ctx, "op-1", domain.KindJobSeeking, p.seeking.ID, decPtr(150_000), nil)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	mustEqualDec(t, "explicit amount", *got.SettlementInfo().SettlementAmount, 150_000)

	if _, err := f.settlements.Settle(ctx, "op-1", domain.KindJobSeeking, 9999, nil, nil); !errors.Is(err, ErrPostingNotFound) {
		t.Fatalf("expected ErrPostingNotFound, got %v", err)
	}
}

func TestUnsettle_ClearsAmountKeepsMemo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := seedPair(t, f.db, nil, nil)

	if _, err := f.settlements.Unsettle(ctx, "op-1", domain.KindJobPosting, p.job.ID, nil); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("unsettle of unsettled: expected ErrInvalidTransition, got %v", err)
	}

	if _, err := f.settlements.Settle(ctx, "op-1", domain.KindJobPosting, p.job.ID, decPtr(50_000), strPtr("paid")); err != nil {
		t.Fatalf("Settle: %v", err)
	}
	got, err := f.settlements.Unsettle(ctx, "op-1", domain.KindJobPosting, p.job.ID, nil)
	if err != nil {
		t.Fatalf("Unsettle: %v", err)
	}
	st := got.SettlementInfo()
	if st.SettlementStatus != domain.SettlementUnsettled || st.SettlementAmount != nil || st.SettledAt != nil {
		t.Fatalf("unsettle must clear amount and settled_at: %+v", st)
	}
	if st.SettlementMemo == nil || *st.SettlementMemo != "paid" {
		t.Fatalf("memo should be kept: %v", st.SettlementMemo)
	}
	if last := f.events.Events[len(f.events.Events)-1]; last.Type != events.TypePostingUnsettled {
		t.Fatalf("last event = %s", last.Type)
	}
}

func TestSettlementApply_Dispatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := seedPair(t, f.db, nil, nil)
	settled := domain.SettlementSettled
	unsettled := domain.SettlementUnsettled

	// memo-only edit on an unsettled posting
	got, err := f.settlements.Apply(ctx, "op-1", domain.KindJobPosting, p.job.ID, SettlementInput{Memo: strPtr("call back friday")})
	if err != nil {
		t.Fatalf("memo edit: %v", err)
	}
	if got.SettlementInfo().SettlementStatus != domain.SettlementUnsettled || *got.SettlementInfo().SettlementMemo != "call back friday" {
		t.Fatalf("unexpected after memo edit: %+v", got.SettlementInfo())
	}

	_, err = f.settlements.Apply(ctx, "op-1", domain.KindJobPosting, p.job.ID, SettlementInput{Amount: decPtr(10)})
	asValidation(t, err, "settlement_amount")

	if _, err := f.settlements.Apply(ctx, "op-1", domain.KindJobPosting, p.job.ID, SettlementInput{Status: &settled, Amount: decPtr(70_000)}); err != nil {
		t.Fatalf("apply settled: %v", err)
	}

	// amount correction while settled
	got, err = f.settlements.Apply(ctx, "op-1", domain.KindJobPosting, p.job.ID, SettlementInput{Amount: decPtr(75_000)})
	if err != nil {
		t.Fatalf("amount edit: %v", err)
	}
	mustEqualDec(t, "corrected amount", *got.SettlementInfo().SettlementAmount, 75_000)

	_, err = f.settlements.Apply(ctx, "op-1", domain.KindJobPosting, p.job.ID, SettlementInput{Status: &unsettled, Amount: decPtr(1)})
	asValidation(t, err, "settlement_amount")

	got, err = f.settlements.Apply(ctx, "op-1", domain.KindJobPosting, p.job.ID, SettlementInput{Status: &unsettled})
	if err != nil || got.SettlementInfo().SettlementStatus != domain.SettlementUnsettled {
		t.Fatalf("apply unsettled: %+v %v", got, err)
	}

	bogus := domain.SettlementStatus("refunded")
	_, err = f.settlements.Apply(ctx, "op-1", domain.KindJobPosting, p.job.ID, SettlementInput{Status: &bogus})
	asValidation(t, err, "settlement_status")
}

func TestSettlementStats_FoldsBothKinds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty, err := f.settlements.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats on empty db: %v", err)
	}
	if empty.SettledCount != 0 || empty.UnsettledCount != 0 || !empty.SettledAmountSum.IsZero() {
		t.Fatalf("unexpected empty stats: %+v", empty)
	}

	a := seedPair(t, f.db, nil, nil)
	b := seedPair(t, f.db, nil, nil)
	ma := f.create(t, a, 4_000_000, 10, 8)
	mb := f.create(t, b, 1_000_000, 10, 5)
	for _, id := range []int64{ma.ID, mb.ID} {
		if _, err := f.matchings.Complete(ctx, "op-1", id); err != nil {
			t.Fatalf("Complete: %v", err)
		}
	}
	if _, err := f.settlements.Settle(ctx, "op-1", domain.KindJobPosting, a.job.ID, nil, nil); err != nil {
		t.Fatalf("Settle: %v", err)
	}

	s, err := f.settlements.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if s.SettledCount != 1 || s.UnsettledCount != 3 {
		t.Fatalf("counts: settled=%d unsettled=%d", s.SettledCount, s.UnsettledCount)
	}
	mustEqualDec(t, "settled sum", s.SettledAmountSum, 400_000)
	// 320,000 (a seeking) + 100,000 (b job) + 50,000 (b seeking)
	mustEqualDec(t, "unsettled sum", s.UnsettledAmountSum, 470_000)
}

func TestReconcile_RequiresCompletedMatching(t *testing.T) {
	f := newFixture(t)
	p := seedPair(t, f.db, nil, nil)
	m := f.create(t, p, 1_000_000, 10, 5)

	err := reconcile(context.Background(), f.db, m)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	// legacy rows without fee amounts accrue nothing
	m.Status = domain.MatchingCompleted
	m.EmployerFeeAmount = nil
	m.EmployeeFeeAmount = nil
	if err := reconcile(context.Background(), f.db, m); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	mustEqualDec(t, "null fee accrues zero", posting(t, f.db, domain.KindJobPosting, p.job.ID).SettlementInfo().AccruedFeeAmount, 0)
}

func TestSettlementStats_FractionalAmountsSumExactly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	amounts := []string{"0.10", "0.20", "1234.5678"}
	for _, a := range amounts {
		p := seedPair(t, f.db, nil, nil)
		amt := decimal.RequireFromString(a)
		if _, err := f.settlements.Settle(ctx, "op-1", domain.KindJobPosting, p.job.ID, &amt, nil); err != nil {
			t.Fatalf("Settle %s: %v", a, err)
		}
	}

	s, err := f.settlements.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if want := decimal.RequireFromString("1234.8678"); !s.SettledAmountSum.Equal(want) {
		t.Fatalf("settled sum = %s; want %s", s.SettledAmountSum, want)
	}
}

func TestUnsettle_ReadsClockOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := seedPair(t, f.db, nil, nil)

	if _, err := f.settlements.Settle(ctx, "op-1", domain.KindJobPosting, p.job.ID, decPtr(10_000), nil); err != nil {
		t.Fatalf("Settle: %v", err)
	}

	calls := 0
	f.settlements.Now = func() time.Time {
		calls++
		return fixedNow.Add(time.Duration(calls) * time.Minute)
	}
	if _, err := f.settlements.Unsettle(ctx, "op-1", domain.KindJobPosting, p.job.ID, nil); err != nil {
		t.Fatalf("Unsettle: %v", err)
	}
	if calls != 1 {
		t.Fatalf("clock read %d times; want 1", calls)
	}
	last := f.events.Events[len(f.events.Events)-1]
	if want := fixedNow.Add(time.Minute); !last.OccurredAt.Equal(want) {
		t.Fatalf("event time = %v; want %v", last.OccurredAt, want)
	}
}
