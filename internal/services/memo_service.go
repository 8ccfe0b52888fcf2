// Package services – MemoService
//
// MemoService attaches free-text memos to matchings and customers. Memos are
// independent of matching state: they can be added to a completed or
// cancelled matching, and matching transitions never touch them.
package services

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/tbourn/go-agency-backoffice/internal/domain"
	"github.com/tbourn/go-agency-backoffice/internal/repo"
	"github.com/tbourn/go-agency-backoffice/internal/utils"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxMemoRunes caps memo content.
const DefaultMaxMemoRunes = 5000

// Annotatable is the memo capability offered to matchings and customers.
type Annotatable interface {
	Add(ctx context.Context, subject domain.Subject, author, content string) (*domain.Memo, error)
	List(ctx context.Context, subject domain.Subject, page, pageSize int) ([]domain.Memo, int64, error)
	Update(ctx context.Context, memoID int64, content string) (*domain.Memo, error)
	Delete(ctx context.Context, memoID int64) error
}

var _ Annotatable = (*MemoService)(nil)

// MemoService stores memos.
type MemoService struct {
	DB              *gorm.DB
	MaxContentRunes int
}

// NewMemoService constructs a MemoService with the default content limit.
func NewMemoService(db *gorm.DB) *MemoService {
	return &MemoService{DB: db, MaxContentRunes: DefaultMaxMemoRunes}
}

// Add attaches a memo written by author to subject.
func (s *MemoService) Add(ctx context.Context, subject domain.Subject, author, content string) (*domain.Memo, error) {
	tr := otel.Tracer("services/MemoService")
	ctx, span := tr.Start(ctx, "Add",
		trace.WithAttributes(
			attribute.String("subject.type", string(subject.Type)),
			attribute.Int64("subject.id", subject.ID),
			attribute.String("user.id", author),
		),
	)
	defer span.End()

	content, err := s.content(content)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSubject(ctx, subject); err != nil {
		return nil, err
	}
	return repo.CreateMemo(ctx, s.DB, subject, author, content)
}

// List returns a page of memos on subject, newest first.
func (s *MemoService) List(ctx context.Context, subject domain.Subject, page, pageSize int) ([]domain.Memo, int64, error) {
	tr := otel.Tracer("services/MemoService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(
			attribute.String("subject.type", string(subject.Type)),
			attribute.Int64("subject.id", subject.ID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if err := s.ensureSubject(ctx, subject); err != nil {
		return nil, 0, err
	}
	_, pageSize, offset := utils.Paginate(page, pageSize, 0)

	total, err := repo.CountMemos(ctx, s.DB, subject)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Memo{}, 0, nil
	}
	items, err := repo.ListMemosPage(ctx, s.DB, subject, offset, pageSize)
	return items, total, err
}

// Update replaces the content of a memo.
func (s *MemoService) Update(ctx context.Context, memoID int64, content string) (*domain.Memo, error) {
	tr := otel.Tracer("services/MemoService")
	ctx, span := tr.Start(ctx, "Update", trace.WithAttributes(attribute.Int64("memo.id", memoID)))
	defer span.End()

	content, err := s.content(content)
	if err != nil {
		return nil, err
	}
	var out *domain.Memo
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.UpdateMemoContent(ctx, tx, memoID, content); err != nil {
			return err
		}
		m, err := repo.GetMemo(ctx, tx, memoID)
		out = m
		return err
	})
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrMemoNotFound
	}
	return out, err
}

// Delete removes a memo.
func (s *MemoService) Delete(ctx context.Context, memoID int64) error {
	tr := otel.Tracer("services/MemoService")
	ctx, span := tr.Start(ctx, "Delete", trace.WithAttributes(attribute.Int64("memo.id", memoID)))
	defer span.End()

	if err := repo.DeleteMemo(ctx, s.DB, memoID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrMemoNotFound
		}
		return err
	}
	return nil
}

func (s *MemoService) content(raw string) (string, error) {
	v := normalizeText(raw)
	if v == "" {
		return "", invalid("content", "must not be empty")
	}
	if s.MaxContentRunes > 0 && utf8.RuneCountInString(v) > s.MaxContentRunes {
		return "", invalid("content", fmt.Sprintf("must be at most %d characters", s.MaxContentRunes))
	}
	return v, nil
}

func (s *MemoService) ensureSubject(ctx context.Context, subject domain.Subject) error {
	var missing error
	switch subject.Type {
	case domain.SubjectMatching:
		missing = ErrMatchingNotFound
	case domain.SubjectCustomer:
		missing = ErrCustomerNotFound
	default:
		return invalid("subject_type", "must be matching or customer")
	}
	ok, err := repo.SubjectExists(ctx, s.DB, subject)
	if err != nil {
		return err
	}
	if !ok {
		return missing
	}
	return nil
}
