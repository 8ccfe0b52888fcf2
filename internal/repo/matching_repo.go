// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Matching
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, so they can
// run inside a transaction opened by the service layer. They hold no
// business rules: state checks that must be atomic with the write are
// expressed as conditional WHERE clauses and reported through the affected
// row count.
//
// Error semantics:
//   - Missing rows surface as gorm.ErrRecordNotFound (ErrNotFound).
//   - Other DB errors are propagated unchanged.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-agency-backoffice/internal/domain"
)

// CreateMatching inserts m without touching its posting associations.
func CreateMatching(ctx context.Context, db *gorm.DB, m *domain.Matching) error {
	return db.WithContext(ctx).Omit(clause.Associations).Create(m).Error
}

// GetMatching fetches a matching by ID, or ErrNotFound.
func GetMatching(ctx context.Context, db *gorm.DB, id int64) (*domain.Matching, error) {
	var m domain.Matching
	if err := db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMatchingForUpdate is GetMatching with a row lock on drivers that
// support SELECT ... FOR UPDATE. SQLite serializes writers and ignores it.
func GetMatchingForUpdate(ctx context.Context, db *gorm.DB, id int64) (*domain.Matching, error) {
	var m domain.Matching
	if err := forUpdate(db.WithContext(ctx)).First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func matchingScope(db *gorm.DB, status *domain.MatchingStatus) *gorm.DB {
	q := db.Model(&domain.Matching{})
	if status != nil {
		q = q.Where("matching_status = ?", *status)
	}
	return q
}

// CountMatchings returns the number of matchings, optionally filtered by status.
func CountMatchings(ctx context.Context, db *gorm.DB, status *domain.MatchingStatus) (int64, error) {
	var total int64
	err := matchingScope(db.WithContext(ctx), status).Count(&total).Error
	return total, err
}

// ListMatchingsPage returns a page of matchings ordered newest first.
// The caller computes offset and limit.
func ListMatchingsPage(ctx context.Context, db *gorm.DB, status *domain.MatchingStatus, offset, limit int) ([]domain.Matching, error) {
	var out []domain.Matching
	err := matchingScope(db.WithContext(ctx), status).
		Order("matched_at desc").
		Order("id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// HasActiveMatching reports whether the posting is bound to an in-progress
// matching.
func HasActiveMatching(ctx context.Context, db *gorm.DB, kind domain.PostingKind, postingID int64) (bool, error) {
	col := "job_posting_id"
	if kind == domain.KindJobSeeking {
		col = "job_seeking_posting_id"
	}
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Matching{}).
		Where(col+" = ? AND matching_status = ?", postingID, domain.MatchingInProgress).
		Count(&n).Error
	return n > 0, err
}

// UpdateMatchingIf applies fields to matching id only while it is in status
// from. It returns the number of rows changed; zero means the row is missing
// or has moved on.
func UpdateMatchingIf(ctx context.Context, db *gorm.DB, id int64, from domain.MatchingStatus, fields map[string]any) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Matching{}).
		Where("id = ? AND matching_status = ?", id, from).
		Updates(fields)
	return res.RowsAffected, res.Error
}
