// Package services – SettlementService
//
// SettlementService keeps the fee bookkeeping of job postings and job
// seeking postings. Completed matchings accrue their fees onto the two
// postings (reconcile, called by MatchingService.Complete); operators then record collection (Settle) or revert
// it (Unsettle). Both posting kinds go through the same code path via
// domain.SettleablePosting and domain.PostingKind.
//
// Observability: public methods are OpenTelemetry-instrumented and every
// operation increments backoffice_settlement_operations_total.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tbourn/go-agency-backoffice/internal/domain"
	"github.com/tbourn/go-agency-backoffice/internal/events"
	"github.com/tbourn/go-agency-backoffice/internal/fee"
	"github.com/tbourn/go-agency-backoffice/internal/metrics"
	"github.com/tbourn/go-agency-backoffice/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SettlementInput is a settlement change requested by an operator.
// A nil Status edits the amount and memo in place.
type SettlementInput struct {
	Status *domain.SettlementStatus
	Amount *decimal.Decimal
	Memo   *string
}

// SettlementStats summarizes both posting kinds.
type SettlementStats struct {
	UnsettledCount     int64           `json:"unsettled_count"`
	SettledCount       int64           `json:"settled_count"`
	UnsettledAmountSum decimal.Decimal `json:"unsettled_amount_sum"`
	SettledAmountSum   decimal.Decimal `json:"settled_amount_sum"`
}

// SettlementService records fee collection on postings.
type SettlementService struct {
	DB     *gorm.DB
	Events events.Publisher
	Cache  StatsCache

	// Now is the clock; defaults to UTC wall time.
	Now func() time.Time
}

// NewSettlementService returns a service with a no-op event sink.
func NewSettlementService(db *gorm.DB) *SettlementService {
	return &SettlementService{DB: db, Events: events.Noop{}, Now: utcNow}
}

func (s *SettlementService) now() time.Time {
	if s.Now == nil {
		return utcNow()
	}
	return s.Now()
}

// reconcile accrues the fees of a completed matching onto its postings. It
// must run inside the transaction that completed the matching. Settlement
// status is never changed here.
func reconcile(ctx context.Context, tx *gorm.DB, m *domain.Matching) error {
	if m.Status != domain.MatchingCompleted {
		return fmt.Errorf("reconcile matching %d in status %s: %w", m.ID, m.Status, ErrInvalidTransition)
	}
	sides := []struct {
		kind   domain.PostingKind
		id     int64
		amount decimal.Decimal
	}{
		{domain.KindJobPosting, m.JobPostingID, domain.OrZero(m.EmployerFeeAmount)},
		{domain.KindJobSeeking, m.JobSeekingPostingID, domain.OrZero(m.EmployeeFeeAmount)},
	}
	for _, side := range sides {
		if err := repo.AccrueFee(ctx, tx, side.kind, side.id, side.amount); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrPostingNotFound
			}
			return fmt.Errorf("accrue %s %d: %w", side.kind, side.id, err)
		}
		metrics.SettlementOps.WithLabelValues(string(side.kind), "accrue").Inc()
	}
	return nil
}

// Apply dispatches an operator request to Settle, Unsettle or an in-place
// edit of amount and memo.
func (s *SettlementService) Apply(ctx context.Context, userID string, kind domain.PostingKind, id int64, in SettlementInput) (domain.SettleablePosting, error) {
	if in.Status == nil {
		return s.edit(ctx, userID, kind, id, in.Amount, in.Memo)
	}
	switch *in.Status {
	case domain.SettlementSettled:
		return s.Settle(ctx, userID, kind, id, in.Amount, in.Memo)
	case domain.SettlementUnsettled:
		if in.Amount != nil {
			return nil, invalid("settlement_amount", "must be omitted when unsettling")
		}
		return s.Unsettle(ctx, userID, kind, id, in.Memo)
	}
	return nil, invalid("settlement_status", "must be settled or unsettled")
}

// Settle marks an unsettled posting as settled. When amount is nil the
// accrued fee amount is recorded. Settling a settled posting fails with a
// TransitionError.
func (s *SettlementService) Settle(ctx context.Context, userID string, kind domain.PostingKind, id int64, amount *decimal.Decimal, memo *string) (domain.SettleablePosting, error) {
	tr := otel.Tracer("services/SettlementService")
	ctx, span := tr.Start(ctx, "Settle",
		trace.WithAttributes(
			attribute.String("posting.kind", string(kind)),
			attribute.Int64("posting.id", id),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	if err := validateSettlementAmount(amount); err != nil {
		return nil, err
	}
	memo = normalizeMemo(memo)

	now := s.now()
	var out domain.SettleablePosting
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := loadPosting(ctx, tx, kind, id)
		if err != nil {
			return err
		}
		st := p.SettlementInfo()
		if st.SettlementStatus == domain.SettlementSettled {
			return &TransitionError{Entity: string(kind), From: string(st.SettlementStatus), To: string(domain.SettlementSettled)}
		}
		value := st.AccruedFeeAmount
		if amount != nil {
			value = *amount
		}
		n, err := repo.SettlePosting(ctx, tx, kind, id, value, memo, now)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrConcurrentUpdate
		}
		out, err = loadPosting(ctx, tx, kind, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.SettlementOps.WithLabelValues(string(kind), "settle").Inc()
	afterCommit(ctx, s.Events, s.Cache, events.Event{
		Type:        events.TypePostingSettled,
		PostingID:   id,
		PostingKind: kind,
		Status:      string(domain.SettlementSettled),
		Actor:       userID,
		OccurredAt:  now,
	})
	return out, nil
}

// Unsettle reverts a settled posting. The collected amount and settled_at
// are cleared; the memo is kept unless a new one is supplied.
func (s *SettlementService) Unsettle(ctx context.Context, userID string, kind domain.PostingKind, id int64, memo *string) (domain.SettleablePosting, error) {
	tr := otel.Tracer("services/SettlementService")
	ctx, span := tr.Start(ctx, "Unsettle",
		trace.WithAttributes(
			attribute.String("posting.kind", string(kind)),
			attribute.Int64("posting.id", id),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	memo = normalizeMemo(memo)

	now := s.now()
	var out domain.SettleablePosting
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := loadPosting(ctx, tx, kind, id)
		if err != nil {
			return err
		}
		if st := p.SettlementInfo().SettlementStatus; st != domain.SettlementSettled {
			return &TransitionError{Entity: string(kind), From: string(st), To: string(domain.SettlementUnsettled)}
		}
		n, err := repo.UnsettlePosting(ctx, tx, kind, id, memo)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrConcurrentUpdate
		}
		out, err = loadPosting(ctx, tx, kind, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.SettlementOps.WithLabelValues(string(kind), "unsettle").Inc()
	afterCommit(ctx, s.Events, s.Cache, events.Event{
		Type:        events.TypePostingUnsettled,
		PostingID:   id,
		PostingKind: kind,
		Status:      string(domain.SettlementUnsettled),
		Actor:       userID,
		OccurredAt:  now,
	})
	return out, nil
}

// edit changes memo and amount without a status change. The amount may only
// be corrected while the posting is settled.
func (s *SettlementService) edit(ctx context.Context, userID string, kind domain.PostingKind, id int64, amount *decimal.Decimal, memo *string) (domain.SettleablePosting, error) {
	tr := otel.Tracer("services/SettlementService")
	ctx, span := tr.Start(ctx, "Edit",
		trace.WithAttributes(
			attribute.String("posting.kind", string(kind)),
			attribute.Int64("posting.id", id),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	if err := validateSettlementAmount(amount); err != nil {
		return nil, err
	}
	memo = normalizeMemo(memo)

	var out domain.SettleablePosting
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := loadPosting(ctx, tx, kind, id)
		if err != nil {
			return err
		}
		if amount != nil && p.SettlementInfo().SettlementStatus != domain.SettlementSettled {
			return invalid("settlement_amount", "can only be changed while settled")
		}
		if err := repo.UpdateSettlementDetails(ctx, tx, kind, id, amount, memo); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrPostingNotFound
			}
			return err
		}
		out, err = loadPosting(ctx, tx, kind, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.SettlementOps.WithLabelValues(string(kind), "edit").Inc()
	if amount != nil {
		afterCommit(ctx, nil, s.Cache, events.Event{})
	}
	return out, nil
}

// Stats summarizes settlement across both posting kinds. The unsettled sum
// is the accrued fee of unsettled postings; the settled sum is the recorded
// settlement amount of settled postings.
func (s *SettlementService) Stats(ctx context.Context) (*SettlementStats, error) {
	tr := otel.Tracer("services/SettlementService")
	ctx, span := tr.Start(ctx, "Stats")
	defer span.End()

	out := &SettlementStats{UnsettledAmountSum: decimal.Zero, SettledAmountSum: decimal.Zero}
	for _, kind := range []domain.PostingKind{domain.KindJobPosting, domain.KindJobSeeking} {
		rows, err := repo.SettlementTotals(ctx, s.DB, kind)
		if err != nil {
			return nil, fmt.Errorf("settlement totals for %s: %w", kind, err)
		}
		for _, r := range rows {
			switch r.SettlementStatus {
			case domain.SettlementSettled:
				out.SettledCount += r.Count
				out.SettledAmountSum = out.SettledAmountSum.Add(r.SettledAmount.Decimal)
			case domain.SettlementUnsettled:
				out.UnsettledCount += r.Count
				out.UnsettledAmountSum = out.UnsettledAmountSum.Add(r.AccruedAmount.Decimal)
			}
		}
	}
	return out, nil
}

func validateSettlementAmount(amount *decimal.Decimal) error {
	if amount == nil {
		return nil
	}
	switch err := fee.ValidateAmount(*amount); {
	case errors.Is(err, fee.ErrInvalidAmount):
		return invalid("settlement_amount", "must not be negative")
	case err != nil:
		return invalid("settlement_amount", err.Error())
	}
	return nil
}

func loadPosting(ctx context.Context, db *gorm.DB, kind domain.PostingKind, id int64) (domain.SettleablePosting, error) {
	p, err := repo.GetPosting(ctx, db, kind, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrPostingNotFound
	}
	return p, err
}

func normalizeMemo(memo *string) *string {
	if memo == nil {
		return nil
	}
	v := normalizeText(*memo)
	return &v
}
