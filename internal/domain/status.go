package domain

import (
	"fmt"
	"strings"
)

// MatchingStatus is the lifecycle state of a Matching.
//
//	InProgress ──► Completed
//	     │
//	     └───────► Cancelled
//
// Completed and Cancelled are terminal. Values are stored lowercase
// ("in_progress") and rendered in JSON as "InProgress".
type MatchingStatus string

const (
	MatchingInProgress MatchingStatus = "in_progress"
	MatchingCompleted  MatchingStatus = "completed"
	MatchingCancelled  MatchingStatus = "cancelled"
)

var matchingTransitions = map[MatchingStatus][]MatchingStatus{
	MatchingInProgress: {MatchingCompleted, MatchingCancelled},
	// Completed and Cancelled are terminal
}

// ParseMatchingStatus accepts both the stored form ("in_progress") and the
// API form ("InProgress"), case-insensitively.
func ParseMatchingStatus(s string) (MatchingStatus, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", ""))
	switch key {
	case "inprogress":
		return MatchingInProgress, nil
	case "completed":
		return MatchingCompleted, nil
	case "cancelled", "canceled":
		return MatchingCancelled, nil
	}
	return "", fmt.Errorf("unknown matching status %q", s)
}

// CanTransition reports whether a matching may move from → to.
func CanTransition(from, to MatchingStatus) bool {
	for _, s := range matchingTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s MatchingStatus) IsTerminal() bool {
	return len(matchingTransitions[s]) == 0
}

// String returns the API spelling.
func (s MatchingStatus) String() string {
	switch s {
	case MatchingInProgress:
		return "InProgress"
	case MatchingCompleted:
		return "Completed"
	case MatchingCancelled:
		return "Cancelled"
	}
	return string(s)
}

// MarshalText implements encoding.TextMarshaler.
func (s MatchingStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *MatchingStatus) UnmarshalText(b []byte) error {
	v, err := ParseMatchingStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// PostingStatus is the publication state of a job posting or job seeking
// posting.
type PostingStatus string

const (
	PostingPublished  PostingStatus = "published"
	PostingInProgress PostingStatus = "in_progress"
	PostingClosed     PostingStatus = "closed"
	PostingCancelled  PostingStatus = "cancelled"
)

// IsOpen reports whether a posting may take part in a new matching.
func (s PostingStatus) IsOpen() bool {
	return s == PostingPublished || s == PostingInProgress
}

// SettlementStatus records whether the agency fee on a posting was collected.
type SettlementStatus string

const (
	SettlementUnsettled SettlementStatus = "unsettled"
	SettlementSettled   SettlementStatus = "settled"
)

// ParseSettlementStatus converts raw input to a SettlementStatus.
func ParseSettlementStatus(s string) (SettlementStatus, error) {
	switch st := SettlementStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case SettlementUnsettled, SettlementSettled:
		return st, nil
	}
	return "", fmt.Errorf("unknown settlement status %q", s)
}

// CustomerType classifies a customer as hiring, seeking, or both.
type CustomerType string

const (
	CustomerEmployer CustomerType = "employer"
	CustomerEmployee CustomerType = "employee"
	CustomerBoth     CustomerType = "both"
)
