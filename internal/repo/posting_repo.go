package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-agency-backoffice/internal/domain"
	"github.com/tbourn/go-agency-backoffice/internal/fee"
)

var accrueExpr = fmt.Sprintf("ROUND(COALESCE(accrued_fee_amount, 0) + ?, %d)", fee.MaxScale)

// GetPosting loads a live (not soft-deleted) posting of the given kind.
func GetPosting(ctx context.Context, db *gorm.DB, kind domain.PostingKind, id int64) (domain.SettleablePosting, error) {
	p := kind.NewModel()
	if err := db.WithContext(ctx).First(p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// GetPostingForUpdate is GetPosting holding the row lock until the
// transaction ends. Matching creation takes it on both postings so two
// creates on the same posting serialize on drivers without partial indexes.
func GetPostingForUpdate(ctx context.Context, db *gorm.DB, kind domain.PostingKind, id int64) (domain.SettleablePosting, error) {
	p := kind.NewModel()
	if err := forUpdate(db.WithContext(ctx)).First(p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// forUpdate adds FOR UPDATE except on SQLite, which has no row locks and
// serializes writers anyway.
func forUpdate(q *gorm.DB) *gorm.DB {
	if q.Dialector.Name() == DriverSQLite {
		return q
	}
	return q.Clauses(clause.Locking{Strength: "UPDATE"})
}

// CreateJobPosting inserts a job posting. Postings are owned by an external
// CRUD surface; this exists for seeding and tests.
func CreateJobPosting(ctx context.Context, db *gorm.DB, p *domain.JobPosting) error {
	if p.SettlementStatus == "" {
		p.SettlementStatus = domain.SettlementUnsettled
	}
	if p.PostingStatus == "" {
		p.PostingStatus = domain.PostingPublished
	}
	return db.WithContext(ctx).Omit("Customer").Create(p).Error
}

// CreateJobSeekingPosting inserts a job seeking posting.
func CreateJobSeekingPosting(ctx context.Context, db *gorm.DB, p *domain.JobSeekingPosting) error {
	if p.SettlementStatus == "" {
		p.SettlementStatus = domain.SettlementUnsettled
	}
	if p.PostingStatus == "" {
		p.PostingStatus = domain.PostingPublished
	}
	return db.WithContext(ctx).Omit("Customer").Create(p).Error
}

// SetPostingStatus changes the publication status of a posting.
func SetPostingStatus(ctx context.Context, db *gorm.DB, kind domain.PostingKind, id int64, status domain.PostingStatus) error {
	res := db.WithContext(ctx).
		Model(kind.NewModel()).
		Where("id = ?", id).
		Update("posting_status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AccrueFee adds amount to the posting's accrued fee in a single UPDATE so
// concurrent completions on different matchings cannot lose an increment.
// The sum is rounded to the column scale because SQLite adds REAL values.
func AccrueFee(ctx context.Context, db *gorm.DB, kind domain.PostingKind, id int64, amount decimal.Decimal) error {
	res := db.WithContext(ctx).
		Table(kind.Table()).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"accrued_fee_amount": gorm.Expr(accrueExpr, amount),
			"updated_at":         time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SettlePosting marks an unsettled posting as settled. It returns the number
// of rows changed; zero means the posting is missing or already settled.
func SettlePosting(ctx context.Context, db *gorm.DB, kind domain.PostingKind, id int64, amount decimal.Decimal, memo *string, at time.Time) (int64, error) {
	fields := map[string]any{
		"settlement_status": domain.SettlementSettled,
		"settlement_amount": amount,
		"settled_at":        at,
	}
	if memo != nil {
		fields["settlement_memo"] = *memo
	}
	res := db.WithContext(ctx).
		Model(kind.NewModel()).
		Where("id = ? AND settlement_status = ?", id, domain.SettlementUnsettled).
		Updates(fields)
	return res.RowsAffected, res.Error
}

// UnsettlePosting reverts a settled posting. The collected amount and
// settled_at are cleared; the memo is replaced only when memo is non-nil.
func UnsettlePosting(ctx context.Context, db *gorm.DB, kind domain.PostingKind, id int64, memo *string) (int64, error) {
	fields := map[string]any{
		"settlement_status": domain.SettlementUnsettled,
		"settlement_amount": nil,
		"settled_at":        nil,
	}
	if memo != nil {
		fields["settlement_memo"] = *memo
	}
	res := db.WithContext(ctx).
		Model(kind.NewModel()).
		Where("id = ? AND settlement_status = ?", id, domain.SettlementSettled).
		Updates(fields)
	return res.RowsAffected, res.Error
}

// UpdateSettlementDetails edits the memo and, when non-nil, the collected
// amount of a posting without changing its settlement status.
func UpdateSettlementDetails(ctx context.Context, db *gorm.DB, kind domain.PostingKind, id int64, amount *decimal.Decimal, memo *string) error {
	fields := map[string]any{}
	if amount != nil {
		fields["settlement_amount"] = *amount
	}
	if memo != nil {
		fields["settlement_memo"] = *memo
	}
	if len(fields) == 0 {
		return nil
	}
	res := db.WithContext(ctx).
		Model(kind.NewModel()).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
