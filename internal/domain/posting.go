package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// PostingKind distinguishes the two settleable posting tables.
type PostingKind string

const (
	KindJobPosting PostingKind = "job_posting"
	KindJobSeeking PostingKind = "job_seeking"
)

// ParsePostingKind accepts the kind name or its plural URL segment
// ("job-postings", "job-seekings").
func ParsePostingKind(s string) (PostingKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "job_posting", "job-posting", "job-postings", "job_postings":
		return KindJobPosting, nil
	case "job_seeking", "job-seeking", "job-seekings", "job_seeking_postings":
		return KindJobSeeking, nil
	}
	return "", fmt.Errorf("unknown posting kind %q", s)
}

// Table returns the table that stores postings of this kind.
func (k PostingKind) Table() string {
	if k == KindJobSeeking {
		return JobSeekingPosting{}.TableName()
	}
	return JobPosting{}.TableName()
}

// NewModel returns an empty model for this kind, ready to be loaded by GORM.
func (k PostingKind) NewModel() SettleablePosting {
	if k == KindJobSeeking {
		return &JobSeekingPosting{}
	}
	return &JobPosting{}
}

// SettleablePosting is the capability shared by job postings and job
// seeking postings: they can be matched, accrue fees, and be settled.
type SettleablePosting interface {
	Kind() PostingKind
	PostingID() int64
	OwnerID() int64
	BaseSalary() decimal.Decimal
	FeeRateOverride() *decimal.Decimal
	Status() PostingStatus
	SettlementInfo() Settlement
}

func (p *JobPosting) Kind() PostingKind { return KindJobPosting }
func (p *JobPosting) PostingID() int64 { return p.ID }
func (p *JobPosting) OwnerID() int64 { return p.CustomerID }
func (p *JobPosting) BaseSalary() decimal.Decimal { return p.Salary }
func (p *JobPosting) FeeRateOverride() *decimal.Decimal { return p.EmployerFeeRate }
func (p *JobPosting) Status() PostingStatus { return p.PostingStatus }
func (p *JobPosting) SettlementInfo() Settlement { return p.Settlement }

func (p *JobSeekingPosting) Kind() PostingKind { return KindJobSeeking }
func (p *JobSeekingPosting) PostingID() int64 { return p.ID }
func (p *JobSeekingPosting) OwnerID() int64 { return p.CustomerID }
func (p *JobSeekingPosting) BaseSalary() decimal.Decimal { return p.DesiredSalary }
func (p *JobSeekingPosting) FeeRateOverride() *decimal.Decimal { return p.EmployeeFeeRate }
func (p *JobSeekingPosting) Status() PostingStatus { return p.PostingStatus }
func (p *JobSeekingPosting) SettlementInfo() Settlement { return p.Settlement }
