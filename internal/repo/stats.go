// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the aggregate queries behind the
// dashboard, the settlement overview and conditional list responses (ETag).
// Each aggregate touches exactly one collection with one statement.
package repo

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tbourn/go-agency-backoffice/internal/domain"
	"github.com/tbourn/go-agency-backoffice/internal/fee"
)

// CountLive returns the number of non-deleted rows of model.
func CountLive(ctx context.Context, db *gorm.DB, model any) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(model).Count(&n).Error
	return n, err
}

// MatchingStatusTotals is one row of the per-status matching aggregate.
//
// Fee sums treat NULL fee amounts as zero. PendingEmployer/PendingEmployee
// only include matchings whose corresponding posting is still unsettled.
type MatchingStatusTotals struct {
	Status          domain.MatchingStatus
	Count           int64
	EmployerFees    decimal.NullDecimal
	EmployeeFees    decimal.NullDecimal
	PendingEmployer decimal.NullDecimal
	PendingEmployee decimal.NullDecimal
}

// MatchingTotals aggregates matchings grouped by status in a single query.
// Statuses without rows are absent from the result.
func MatchingTotals(ctx context.Context, db *gorm.DB) ([]MatchingStatusTotals, error) {
	var rows []MatchingStatusTotals
	err := db.WithContext(ctx).
		Table("matchings AS m").
		Select(`m.matching_status AS status,
			COUNT(*) AS count,
			SUM(COALESCE(m.employer_fee_amount, 0)) AS employer_fees,
			SUM(COALESCE(m.employee_fee_amount, 0)) AS employee_fees,
			SUM(CASE WHEN jp.settlement_status = ? THEN COALESCE(m.employer_fee_amount, 0) ELSE 0 END) AS pending_employer,
			SUM(CASE WHEN js.settlement_status = ? THEN COALESCE(m.employee_fee_amount, 0) ELSE 0 END) AS pending_employee`,
			domain.SettlementUnsettled, domain.SettlementUnsettled).
		Joins("LEFT JOIN job_postings AS jp ON jp.id = m.job_posting_id").
		Joins("LEFT JOIN job_seeking_postings AS js ON js.id = m.job_seeking_posting_id").
		Group("m.matching_status").
		Scan(&rows).Error
	for i := range rows {
		r := &rows[i]
		for _, d := range []*decimal.NullDecimal{&r.EmployerFees, &r.EmployeeFees, &r.PendingEmployer, &r.PendingEmployee} {
			roundSum(d)
		}
	}
	return rows, err
}

// SettlementStatusTotals is one row of the per-status settlement aggregate
// of a posting table.
type SettlementStatusTotals struct {
	SettlementStatus domain.SettlementStatus
	Count            int64
	SettledAmount    decimal.NullDecimal
	AccruedAmount    decimal.NullDecimal
}

// SettlementTotals aggregates live postings of one kind grouped by
// settlement status in a single query.
func SettlementTotals(ctx context.Context, db *gorm.DB, kind domain.PostingKind) ([]SettlementStatusTotals, error) {
	var rows []SettlementStatusTotals
	err := db.WithContext(ctx).
		Model(kind.NewModel()).
		Select(`settlement_status,
			COUNT(*) AS count,
			SUM(COALESCE(settlement_amount, 0)) AS settled_amount,
			SUM(COALESCE(accrued_fee_amount, 0)) AS accrued_amount`).
		Group("settlement_status").
		Scan(&rows).Error
	for i := range rows {
		roundSum(&rows[i].SettledAmount)
		roundSum(&rows[i].AccruedAmount)
	}
	return rows, err
}

// roundSum brings a SUM back to the column scale. SQLite stores decimal
// columns as REAL, so its sums carry binary float error (0.1+0.2 scans as
// 0.30000000000000004).
func roundSum(d *decimal.NullDecimal) {
	if d.Valid {
		d.Decimal = d.Decimal.Round(fee.MaxScale)
	}
}

// MatchingsStats returns the number of matchings (optionally filtered by
// status) and the greatest UpdatedAt among them, for ETag generation. When
// there are no rows, maxUpdatedAt is nil.
func MatchingsStats(ctx context.Context, db *gorm.DB, status *domain.MatchingStatus) (count int64, maxUpdatedAt *time.Time, err error) {
	q := matchingScope(db.WithContext(ctx), status)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = matchingScope(db.WithContext(ctx), status).Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
