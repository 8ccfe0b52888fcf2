package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-agency-backoffice/internal/domain"
)

// CreateMemo inserts a memo attached to subject.
func CreateMemo(ctx context.Context, db *gorm.DB, subject domain.Subject, author, content string) (*domain.Memo, error) {
	m := &domain.Memo{
		SubjectType: subject.Type,
		SubjectID:   subject.ID,
		Content:     content,
		CreatedBy:   author,
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// CountMemos returns the number of live memos on subject.
func CountMemos(ctx context.Context, db *gorm.DB, subject domain.Subject) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Memo{}).
		Where("subject_type = ? AND subject_id = ?", subject.Type, subject.ID).
		Count(&total).Error
	return total, err
}

// ListMemosPage returns a page of memos on subject, newest first.
func ListMemosPage(ctx context.Context, db *gorm.DB, subject domain.Subject, offset, limit int) ([]domain.Memo, error) {
	var out []domain.Memo
	err := db.WithContext(ctx).
		Where("subject_type = ? AND subject_id = ?", subject.Type, subject.ID).
		Order("created_at desc").
		Order("id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetMemo fetches a live memo by ID, or ErrNotFound.
func GetMemo(ctx context.Context, db *gorm.DB, id int64) (*domain.Memo, error) {
	var m domain.Memo
	if err := db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// UpdateMemoContent replaces the content of memo id.
func UpdateMemoContent(ctx context.Context, db *gorm.DB, id int64, content string) error {
	res := db.WithContext(ctx).
		Model(&domain.Memo{}).
		Where("id = ?", id).
		Update("content", content)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMemo soft-deletes memo id.
func DeleteMemo(ctx context.Context, db *gorm.DB, id int64) error {
	res := db.WithContext(ctx).Delete(&domain.Memo{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SubjectExists reports whether the memo subject is a live record.
func SubjectExists(ctx context.Context, db *gorm.DB, subject domain.Subject) (bool, error) {
	var model any
	switch subject.Type {
	case domain.SubjectMatching:
		model = &domain.Matching{}
	case domain.SubjectCustomer:
		model = &domain.Customer{}
	default:
		return false, nil
	}
	var n int64
	err := db.WithContext(ctx).Model(model).Where("id = ?", subject.ID).Count(&n).Error
	return n > 0, err
}

// CreateCustomer inserts a customer. Customers are owned by an external CRUD
// surface; this exists for seeding and tests.
func CreateCustomer(ctx context.Context, db *gorm.DB, c *domain.Customer) error {
	if c.CustomerType == "" {
		c.CustomerType = domain.CustomerEmployer
	}
	return db.WithContext(ctx).Create(c).Error
}
