package domain

import "time"

// Idempotency records the outcome of a previously processed write, keyed by
// (user_id, scope, key). Scope is the route plus its path target, e.g.
// "POST /matchings" or "POST /matchings/:id/complete#42", so the same
// Idempotency-Key may be reused across unrelated operations. A retry within
// the TTL is answered with the recorded resource instead of re-executing
// side effects.
type Idempotency struct {
	ID         string    `gorm:"type:varchar(36);not null;primaryKey"`
	UserID     string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_user_scope_key,priority:1"`
	Scope      string    `gorm:"type:varchar(128);not null;uniqueIndex:ux_user_scope_key,priority:2"`
	Key        string    `gorm:"type:varchar(128);not null;uniqueIndex:ux_user_scope_key,priority:3"`
	ResourceID int64     `gorm:"not null"`
	Status     int       `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt  time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
