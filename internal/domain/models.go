// Package domain defines the persistence models of the back office:
// customers, job postings, job seeking postings, the matchings that pair
// them, and the memos attached to matchings and customers. These types are
// mapped with GORM and shared by the repository, service and HTTP layers.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Customer is an employer, a job seeker, or both. Customers are managed by an
// external CRUD surface; the back office only needs them for foreign keys,
// dashboard counts and memos.
type Customer struct {
	ID           int64          `json:"id"            gorm:"primaryKey;autoIncrement"`
	Name         string         `json:"name"          gorm:"type:varchar(128);not null"`
	Phone        *string        `json:"phone,omitempty" gorm:"type:varchar(32)"`
	CustomerType CustomerType   `json:"customer_type" gorm:"type:varchar(16);not null;default:'employer';check:customer_type IN ('employer','employee','both')"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-"             gorm:"index"`
}

// TableName returns the database table name for Customer.
func (Customer) TableName() string { return "customers" }

// Settlement holds the fee bookkeeping shared by both posting kinds.
//
// Fields:
//   - SettlementStatus: unsettled until an operator records collection.
//   - SettlementAmount: amount collected; only non-null while settled.
//   - SettlementMemo: free text kept across settle/unsettle.
//   - AccruedFeeAmount: running sum of fees from completed matchings.
//   - SettledAt: when the posting was last settled.
type Settlement struct {
	SettlementStatus SettlementStatus `json:"settlement_status"  gorm:"type:varchar(16);not null;default:'unsettled';index;check:settlement_status IN ('unsettled','settled')"`
	SettlementAmount *decimal.Decimal `json:"settlement_amount"  gorm:"type:decimal(20,4)"`
	SettlementMemo   *string          `json:"settlement_memo"    gorm:"type:text"`
	AccruedFeeAmount decimal.Decimal  `json:"accrued_fee_amount" gorm:"type:decimal(20,4);not null;default:0"`
	SettledAt        *time.Time       `json:"settled_at"`
}

// JobPosting is an employer's opening. The employer side of a matching fee
// accrues here.
type JobPosting struct {
	ID              int64            `json:"id"                gorm:"primaryKey;autoIncrement"`
	CustomerID      int64            `json:"customer_id"       gorm:"not null;index"`
	Salary          decimal.Decimal  `json:"salary"            gorm:"type:decimal(20,4);not null"`
	EmployerFeeRate *decimal.Decimal `json:"employer_fee_rate" gorm:"type:decimal(7,4)"`
	Description     *string          `json:"description"       gorm:"type:text"`
	PostingStatus   PostingStatus    `json:"posting_status"    gorm:"type:varchar(16);not null;default:'published';index"`
	IsFavorite      bool             `json:"is_favorite"       gorm:"not null;default:false"`
	Settlement
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Customer Customer `json:"-" gorm:"foreignKey:CustomerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for JobPosting.
func (JobPosting) TableName() string { return "job_postings" }

// JobSeekingPosting is a job seeker's profile. The employee side of a
// matching fee accrues here.
type JobSeekingPosting struct {
	ID                int64            `json:"id"                 gorm:"primaryKey;autoIncrement"`
	CustomerID        int64            `json:"customer_id"        gorm:"not null;index"`
	DesiredSalary     decimal.Decimal  `json:"desired_salary"     gorm:"type:decimal(20,4);not null"`
	EmployeeFeeRate   *decimal.Decimal `json:"employee_fee_rate"  gorm:"type:decimal(7,4)"`
	Description       *string          `json:"description"        gorm:"type:text"`
	PreferredLocation *string          `json:"preferred_location" gorm:"type:varchar(128)"`
	PostingStatus     PostingStatus    `json:"posting_status"     gorm:"type:varchar(16);not null;default:'published';index"`
	IsFavorite        bool             `json:"is_favorite"        gorm:"not null;default:false"`
	Settlement
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Customer Customer `json:"-" gorm:"foreignKey:CustomerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for JobSeekingPosting.
func (JobSeekingPosting) TableName() string { return "job_seeking_postings" }

// Matching pairs one job posting with one job seeking posting and carries
// the agreed salary and the fees derived from it.
//
// Fee amounts are nullable for rows that predate fee tracking; every
// aggregate treats a null fee as zero. Matchings are never deleted.
type Matching struct {
	ID                  int64            `json:"id"                     gorm:"primaryKey;autoIncrement"`
	JobPostingID        int64            `json:"job_posting_id"         gorm:"not null;index"`
	JobSeekingPostingID int64            `json:"job_seeking_posting_id" gorm:"not null;index"`
	MatchedAt           time.Time        `json:"matched_at"             gorm:"not null"`
	AgreedSalary        decimal.Decimal  `json:"agreed_salary"          gorm:"type:decimal(20,4);not null"`
	EmployerFeeRate     decimal.Decimal  `json:"employer_fee_rate"      gorm:"type:decimal(7,4);not null"`
	EmployeeFeeRate     decimal.Decimal  `json:"employee_fee_rate"      gorm:"type:decimal(7,4);not null"`
	EmployerFeeAmount   *decimal.Decimal `json:"employer_fee_amount"    gorm:"type:decimal(20,4)"`
	EmployeeFeeAmount   *decimal.Decimal `json:"employee_fee_amount"    gorm:"type:decimal(20,4)"`
	Status              MatchingStatus   `json:"matching_status"        gorm:"column:matching_status;type:varchar(16);not null;default:'in_progress';index;check:matching_status IN ('in_progress','completed','cancelled')"`
	CancellationReason  *string          `json:"cancellation_reason"    gorm:"type:text"`
	CancelledBy         *string          `json:"cancelled_by"           gorm:"type:varchar(64)"`
	CompletedAt         *time.Time       `json:"completed_at"`
	CancelledAt         *time.Time       `json:"cancelled_at"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`

	JobPosting        JobPosting        `json:"-" gorm:"foreignKey:JobPostingID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	JobSeekingPosting JobSeekingPosting `json:"-" gorm:"foreignKey:JobSeekingPostingID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for Matching.
func (Matching) TableName() string { return "matchings" }

// TotalFee is the employer plus employee fee, with missing amounts as zero.
func (m Matching) TotalFee() decimal.Decimal {
	return OrZero(m.EmployerFeeAmount).Add(OrZero(m.EmployeeFeeAmount))
}

// OrZero dereferences d, returning zero for nil.
func OrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

// Memo is a free-text note attached to a matching or a customer. Memos are
// edited and deleted one at a time and are independent of matching state.
type Memo struct {
	ID          int64          `json:"id"           gorm:"primaryKey;autoIncrement"`
	SubjectType SubjectType    `json:"subject_type" gorm:"type:varchar(16);not null;index:idx_memo_subject,priority:1"`
	SubjectID   int64          `json:"subject_id"   gorm:"not null;index:idx_memo_subject,priority:2"`
	Content     string         `json:"content"      gorm:"type:text;not null"`
	CreatedBy   string         `json:"created_by"   gorm:"type:varchar(64);not null"`
	CreatedAt   time.Time      `json:"created_at"   gorm:"index:idx_memo_subject,priority:3"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"            gorm:"index"`
}

// TableName returns the database table name for Memo.
func (Memo) TableName() string { return "memos" }

// SubjectType names the kind of record a memo is attached to.
type SubjectType string

const (
	SubjectMatching SubjectType = "matching"
	SubjectCustomer SubjectType = "customer"
)

// Subject identifies an annotatable record.
type Subject struct {
	Type SubjectType
	ID   int64
}
