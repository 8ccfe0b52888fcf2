// Package services – MatchingService
//
// MatchingService owns the lifecycle of a matching between a job posting and
// a job seeking posting:
//
//	Create ──► InProgress ──► Completed (fees accrue onto both postings)
//	                 │
//	                 └──────► Cancelled
//
// Fees are computed with the fee Calculator at creation, recomputed on
// salary or rate edits while InProgress, and frozen at completion. Every
// transition is a conditional UPDATE guarded by the current status, so a
// concurrent writer that loses the race gets ErrConcurrentUpdate (or a
// TransitionError when the winner moved the row to a terminal state).
//
// Side effects after commit (domain event, dashboard cache invalidation) are
// best effort and never fail the request.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tbourn/go-agency-backoffice/internal/domain"
	"github.com/tbourn/go-agency-backoffice/internal/events"
	"github.com/tbourn/go-agency-backoffice/internal/fee"
	"github.com/tbourn/go-agency-backoffice/internal/metrics"
	"github.com/tbourn/go-agency-backoffice/internal/repo"
	"github.com/tbourn/go-agency-backoffice/internal/utils"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxReasonRunes caps cancellation reasons.
const DefaultMaxReasonRunes = 1000

// CreateMatchingInput carries the fields of a new matching. A nil rate falls
// back to the posting's own fee-rate override.
type CreateMatchingInput struct {
	JobPostingID        int64
	JobSeekingPostingID int64
	AgreedSalary        decimal.Decimal
	EmployerFeeRate     *decimal.Decimal
	EmployeeFeeRate     *decimal.Decimal

	// MarkPostingsInProgress overrides the service default when non-nil.
	MarkPostingsInProgress *bool
}

// UpdateMatchingInput is a partial update. Nil fields are left unchanged.
type UpdateMatchingInput struct {
	AgreedSalary       *decimal.Decimal
	EmployerFeeRate    *decimal.Decimal
	EmployeeFeeRate    *decimal.Decimal
	Status             *domain.MatchingStatus
	CancellationReason *string
}

func (in UpdateMatchingInput) changesFees() bool {
	return in.AgreedSalary != nil || in.EmployerFeeRate != nil || in.EmployeeFeeRate != nil
}

// MatchingService coordinates matching persistence, fee calculation and
// reconciliation.
type MatchingService struct {
	DB     *gorm.DB
	Fees   fee.Calculator
	Events events.Publisher
	Cache  StatsCache

	// MarkPostingsInProgress moves both postings to in_progress on Create
	// unless the request says otherwise.
	MarkPostingsInProgress bool
	MaxReasonRunes         int

	// Now is the clock; defaults to UTC wall time.
	Now func() time.Time
}

// NewMatchingService constructs a MatchingService with whole-unit fees and a
// no-op event sink.
func NewMatchingService(db *gorm.DB) *MatchingService {
	return &MatchingService{
		DB:             db,
		Fees:           fee.Calculator{Scale: fee.DefaultScale},
		Events:         events.Noop{},
		MaxReasonRunes: DefaultMaxReasonRunes,
		Now:            utcNow,
	}
}

func (s *MatchingService) now() time.Time {
	if s.Now == nil {
		return utcNow()
	}
	return s.Now()
}

// Create opens a new InProgress matching between two open postings that are
// not already bound to another InProgress matching.
func (s *MatchingService) Create(ctx context.Context, userID string, in CreateMatchingInput) (*domain.Matching, error) {
	tr := otel.Tracer("services/MatchingService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(
			attribute.Int64("job_posting.id", in.JobPostingID),
			attribute.Int64("job_seeking_posting.id", in.JobSeekingPostingID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	if in.JobPostingID <= 0 {
		return nil, invalid("job_posting_id", "is required")
	}
	if in.JobSeekingPostingID <= 0 {
		return nil, invalid("job_seeking_posting_id", "is required")
	}
	if err := validateSalary(in.AgreedSalary); err != nil {
		return nil, err
	}
	if err := validateRate("employer_fee_rate", in.EmployerFeeRate); err != nil {
		return nil, err
	}
	if err := validateRate("employee_fee_rate", in.EmployeeFeeRate); err != nil {
		return nil, err
	}

	mark := s.MarkPostingsInProgress
	if in.MarkPostingsInProgress != nil {
		mark = *in.MarkPostingsInProgress
	}

	now := s.now()
	var m *domain.Matching
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Postings are locked job posting first, always in that order.
		jp, err := openPosting(ctx, tx, domain.KindJobPosting, in.JobPostingID, "job_posting_id")
		if err != nil {
			return err
		}
		js, err := openPosting(ctx, tx, domain.KindJobSeeking, in.JobSeekingPostingID, "job_seeking_posting_id")
		if err != nil {
			return err
		}

		for _, p := range []domain.SettleablePosting{jp, js} {
			bound, err := repo.HasActiveMatching(ctx, tx, p.Kind(), p.PostingID())
			if err != nil {
				return err
			}
			if bound {
				return ErrPostingBound
			}
		}

		er, err := resolveRate("employer_fee_rate", in.EmployerFeeRate, jp.FeeRateOverride())
		if err != nil {
			return err
		}
		ee, err := resolveRate("employee_fee_rate", in.EmployeeFeeRate, js.FeeRateOverride())
		if err != nil {
			return err
		}

		b, err := s.Fees.Breakdown(in.AgreedSalary, er, ee)
		if err != nil {
			return feeError(err)
		}
		m = &domain.Matching{
			JobPostingID:        in.JobPostingID,
			JobSeekingPostingID: in.JobSeekingPostingID,
			MatchedAt:           now,
			AgreedSalary:        in.AgreedSalary,
			EmployerFeeRate:     er,
			EmployeeFeeRate:     ee,
			EmployerFeeAmount:   &b.EmployerFee,
			EmployeeFeeAmount:   &b.EmployeeFee,
			Status:              domain.MatchingInProgress,
		}
		if err := repo.CreateMatching(ctx, tx, m); err != nil {
			if repo.IsUniqueViolation(err) {
				return ErrPostingBound
			}
			return err
		}

		if mark {
			for _, p := range []domain.SettleablePosting{jp, js} {
				if err := repo.SetPostingStatus(ctx, tx, p.Kind(), p.PostingID(), domain.PostingInProgress); err != nil {
					return fmt.Errorf("mark %s %d in progress: %w", p.Kind(), p.PostingID(), err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.MatchingTransitions.WithLabelValues(domain.MatchingInProgress.String()).Inc()
	afterCommit(ctx, s.Events, s.Cache, s.event(events.TypeMatchingCreated, userID, now, m))
	return m, nil
}

// Get returns a matching by ID.
func (s *MatchingService) Get(ctx context.Context, id int64) (*domain.Matching, error) {
	tr := otel.Tracer("services/MatchingService")
	ctx, span := tr.Start(ctx, "Get", trace.WithAttributes(attribute.Int64("matching.id", id)))
	defer span.End()

	m, err := repo.GetMatching(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrMatchingNotFound
	}
	return m, err
}

// ListPage returns a page of matchings, newest first, optionally filtered by
// status, together with the total count.
func (s *MatchingService) ListPage(ctx context.Context, status *domain.MatchingStatus, page, pageSize int) ([]domain.Matching, int64, error) {
	tr := otel.Tracer("services/MatchingService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	_, pageSize, offset := utils.Paginate(page, pageSize, 0)

	total, err := repo.CountMatchings(ctx, s.DB, status)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Matching{}, 0, nil
	}
	items, err := repo.ListMatchingsPage(ctx, s.DB, status, offset, pageSize)
	return items, total, err
}

// Complete moves an InProgress matching to Completed and accrues its fees
// onto both postings in the same transaction.
func (s *MatchingService) Complete(ctx context.Context, userID string, id int64) (*domain.Matching, error) {
	to := domain.MatchingCompleted
	return s.Update(ctx, userID, id, UpdateMatchingInput{Status: &to})
}

// Cancel moves an InProgress matching to Cancelled. No fees accrue.
func (s *MatchingService) Cancel(ctx context.Context, userID string, id int64, reason *string) (*domain.Matching, error) {
	to := domain.MatchingCancelled
	return s.Update(ctx, userID, id, UpdateMatchingInput{Status: &to, CancellationReason: reason})
}

// Update applies a partial edit to an InProgress matching. Salary or rate
// changes recompute both fees. A Completed or Cancelled status performs the
// corresponding transition after the edits, in the same transaction.
func (s *MatchingService) Update(ctx context.Context, userID string, id int64, in UpdateMatchingInput) (*domain.Matching, error) {
	target := domain.MatchingInProgress
	if in.Status != nil {
		target = *in.Status
	}

	tr := otel.Tracer("services/MatchingService")
	ctx, span := tr.Start(ctx, "Update",
		trace.WithAttributes(
			attribute.Int64("matching.id", id),
			attribute.String("matching.target_status", target.String()),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	if in.AgreedSalary != nil {
		if err := validateSalary(*in.AgreedSalary); err != nil {
			return nil, err
		}
	}
	if err := validateRate("employer_fee_rate", in.EmployerFeeRate); err != nil {
		return nil, err
	}
	if err := validateRate("employee_fee_rate", in.EmployeeFeeRate); err != nil {
		return nil, err
	}
	reason, err := s.cancellationReason(in.CancellationReason, target)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var (
		m       *domain.Matching
		changed bool
	)
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := repo.GetMatchingForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrMatchingNotFound
			}
			return err
		}
		if cur.Status != domain.MatchingInProgress {
			return rejectedTransition(cur.Status, in.Status)
		}
		if target != domain.MatchingInProgress && !domain.CanTransition(cur.Status, target) {
			return rejectedTransition(cur.Status, in.Status)
		}

		fields := map[string]any{}
		if in.changesFees() {
			salary := pick(in.AgreedSalary, cur.AgreedSalary)
			er := pick(in.EmployerFeeRate, cur.EmployerFeeRate)
			ee := pick(in.EmployeeFeeRate, cur.EmployeeFeeRate)
			b, err := s.Fees.Breakdown(salary, er, ee)
			if err != nil {
				return feeError(err)
			}
			fields["agreed_salary"] = salary
			fields["employer_fee_rate"] = er
			fields["employee_fee_rate"] = ee
			fields["employer_fee_amount"] = b.EmployerFee
			fields["employee_fee_amount"] = b.EmployeeFee
		}
		switch target {
		case domain.MatchingCompleted:
			fields["matching_status"] = domain.MatchingCompleted
			fields["completed_at"] = now
		case domain.MatchingCancelled:
			fields["matching_status"] = domain.MatchingCancelled
			fields["cancelled_at"] = now
			fields["cancelled_by"] = userID
			if reason != nil {
				fields["cancellation_reason"] = *reason
			}
		}
		if len(fields) == 0 {
			m = cur
			return nil
		}

		n, err := repo.UpdateMatchingIf(ctx, tx, id, domain.MatchingInProgress, fields)
		if err != nil {
			return err
		}
		if n == 0 {
			return lostRace(ctx, tx, id, in.Status)
		}
		changed = true

		m, err = repo.GetMatching(ctx, tx, id)
		if err != nil {
			return err
		}
		if m.Status == domain.MatchingCompleted {
			return reconcile(ctx, tx, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return m, nil
	}

	eventType := events.TypeMatchingUpdated
	switch target {
	case domain.MatchingCompleted:
		eventType = events.TypeMatchingCompleted
		metrics.MatchingTransitions.WithLabelValues(target.String()).Inc()
	case domain.MatchingCancelled:
		eventType = events.TypeMatchingCancelled
		metrics.MatchingTransitions.WithLabelValues(target.String()).Inc()
	}
	afterCommit(ctx, s.Events, s.Cache, s.event(eventType, userID, now, m))
	return m, nil
}

func (s *MatchingService) event(typ, userID string, at time.Time, m *domain.Matching) events.Event {
	return events.Event{
		Type:       typ,
		MatchingID: m.ID,
		Status:     m.Status.String(),
		Actor:      userID,
		OccurredAt: at,
		Matching:   m,
	}
}

// cancellationReason normalizes the reason and checks that it accompanies a
// cancellation.
func (s *MatchingService) cancellationReason(reason *string, target domain.MatchingStatus) (*string, error) {
	if reason == nil {
		return nil, nil
	}
	if target != domain.MatchingCancelled {
		return nil, invalid("cancellation_reason", "is only accepted when cancelling")
	}
	v := normalizeText(*reason)
	if v == "" {
		return nil, nil
	}
	if s.MaxReasonRunes > 0 && utf8.RuneCountInString(v) > s.MaxReasonRunes {
		return nil, invalid("cancellation_reason", fmt.Sprintf("must be at most %d characters", s.MaxReasonRunes))
	}
	return &v, nil
}

// lostRace classifies a conditional update that matched no row.
func lostRace(ctx context.Context, tx *gorm.DB, id int64, to *domain.MatchingStatus) error {
	cur, err := repo.GetMatching(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrMatchingNotFound
		}
		return err
	}
	if cur.Status.IsTerminal() {
		return rejectedTransition(cur.Status, to)
	}
	return ErrConcurrentUpdate
}

func rejectedTransition(from domain.MatchingStatus, to *domain.MatchingStatus) error {
	e := &TransitionError{Entity: "matching", From: from.String()}
	if to != nil {
		e.To = to.String()
	}
	return e
}

func openPosting(ctx context.Context, tx *gorm.DB, kind domain.PostingKind, id int64, field string) (domain.SettleablePosting, error) {
	p, err := repo.GetPostingForUpdate(ctx, tx, kind, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrPostingNotFound
	}
	if err != nil {
		return nil, err
	}
	if !p.Status().IsOpen() {
		return nil, invalid(field, fmt.Sprintf("posting is %s and cannot be matched", p.Status()))
	}
	return p, nil
}

func resolveRate(field string, requested, override *decimal.Decimal) (decimal.Decimal, error) {
	if requested != nil {
		return *requested, nil
	}
	if override != nil {
		return *override, nil
	}
	return decimal.Zero, invalid(field, "is required")
}

func validateSalary(v decimal.Decimal) error {
	if !v.IsPositive() {
		return invalid("agreed_salary", "must be greater than 0")
	}
	if !fee.FitsScale(v) {
		return invalid("agreed_salary", fee.ErrTooPrecise.Error())
	}
	return nil
}

func validateRate(field string, r *decimal.Decimal) error {
	if r == nil {
		return nil
	}
	switch err := fee.ValidateRate(*r); {
	case errors.Is(err, fee.ErrTooPrecise):
		return invalid(field, err.Error())
	case err != nil:
		return invalid(field, "must be between 0 and 100")
	}
	return nil
}

func feeError(err error) error {
	switch {
	case errors.Is(err, fee.ErrInvalidRate):
		return invalid("fee_rate", err.Error())
	case errors.Is(err, fee.ErrInvalidAmount), errors.Is(err, fee.ErrTooPrecise):
		return invalid("agreed_salary", err.Error())
	}
	return err
}

func pick(v *decimal.Decimal, def decimal.Decimal) decimal.Decimal {
	if v != nil {
		return *v
	}
	return def
}
