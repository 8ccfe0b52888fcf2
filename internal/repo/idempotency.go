package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-agency-backoffice/internal/domain"
)

// GetIdempotency finds the live record an operator stored for (scope, key).
// Blank scopes or keys never match. Expired records read as ErrNotFound.
func GetIdempotency(ctx context.Context, db *gorm.DB, operator, scope, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(scope) == "" || strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	q := db.WithContext(ctx).
		Where("user_id = ?", operator).
		Where("scope = ?", scope).
		Where(keyColumn(db)+" = ?", key).
		Where("expires_at > ?", now)
	if err := q.First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// CreateIdempotency remembers which resource a keyed request produced. A
// second record for the same (operator, scope, key) yields ErrDuplicate.
func CreateIdempotency(ctx context.Context, db *gorm.DB, operator, scope, key string, resourceID int64, status int, ttl time.Duration) (*domain.Idempotency, error) {
	created := time.Now().UTC()
	rec := domain.Idempotency{
		ID:         uuid.NewString(),
		UserID:     operator,
		Scope:      scope,
		Key:        key,
		ResourceID: resourceID,
		Status:     status,
		CreatedAt:  created,
		ExpiresAt:  created.Add(ttl),
	}
	err := db.WithContext(ctx).Create(&rec).Error
	switch {
	case err == nil:
		return &rec, nil
	case IsUniqueViolation(err):
		return nil, ErrDuplicate
	default:
		return nil, err
	}
}

// PurgeExpiredIdempotency deletes records that expired before now and
// returns how many were removed.
func PurgeExpiredIdempotency(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.Idempotency{})
	return res.RowsAffected, res.Error
}

// keyColumn returns the key column name, backquoted on MySQL where KEY is
// reserved.
func keyColumn(db *gorm.DB) string {
	if db.Dialector.Name() == DriverMySQL {
		return "`key`"
	}
	return "key"
}
