// Package events publishes matching lifecycle events to an external sink.
// Delivery is best effort: callers log failures and never roll back the
// state change that produced the event.
package events

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/tbourn/go-agency-backoffice/internal/domain"
)

// Event types.
const (
	TypeMatchingCreated   = "matching.created"
	TypeMatchingUpdated   = "matching.updated"
	TypeMatchingCompleted = "matching.completed"
	TypeMatchingCancelled = "matching.cancelled"
	TypePostingSettled    = "posting.settled"
	TypePostingUnsettled  = "posting.unsettled"
)

// Event is the envelope written to the sink.
type Event struct {
	Type        string             `json:"type"`
	MatchingID  int64              `json:"matching_id,omitempty"`
	PostingID   int64              `json:"posting_id,omitempty"`
	PostingKind domain.PostingKind `json:"posting_kind,omitempty"`
	Status      string             `json:"status,omitempty"`
	Actor       string             `json:"actor"`
	OccurredAt  time.Time          `json:"occurred_at"`
	Matching    *domain.Matching   `json:"matching,omitempty"`
}

// Key returns the partition key: events about one record stay ordered.
func (e Event) Key() string {
	if e.MatchingID != 0 {
		return "matching:" + strconv.FormatInt(e.MatchingID, 10)
	}
	return string(e.PostingKind) + ":" + strconv.FormatInt(e.PostingID, 10)
}

// Encode marshals the event as JSON.
func (e Event) Encode() ([]byte, error) { return json.Marshal(e) }

// Publisher delivers events to a sink.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error { return nil }

// Recorder keeps published events in memory. Useful in tests.
type Recorder struct {
	mu     sync.Mutex
	Events []Event
	Err    error
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Events = append(r.Events, e)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Types returns the recorded event types in order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		out = append(out, e.Type)
	}
	return out
}
