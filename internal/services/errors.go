// Package services defines the business logic of the back office: the
// matching lifecycle, fee settlement, dashboard aggregates and memos.
// This file centralizes the service-level error values so that they can be
// returned consistently by service methods and checked by callers with
// errors.Is / errors.As.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import (
	"errors"
	"fmt"
)

// Error classes. Specific errors wrap one of these so handlers only need to
// test the class.
var (
	// ErrNotFound indicates that a referenced record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition is returned when an operation is not allowed from
	// the current state of the record.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrConflict is returned when the operation collides with concurrent
	// state, such as a posting already bound to an active matching.
	ErrConflict = errors.New("conflict")
)

var (
	ErrMatchingNotFound = fmt.Errorf("matching %w", ErrNotFound)
	ErrPostingNotFound  = fmt.Errorf("posting %w", ErrNotFound)
	ErrCustomerNotFound = fmt.Errorf("customer %w", ErrNotFound)
	ErrMemoNotFound     = fmt.Errorf("memo %w", ErrNotFound)

	// ErrPostingBound means a posting already takes part in an InProgress
	// matching.
	ErrPostingBound = fmt.Errorf("posting is already bound to an active matching: %w", ErrConflict)

	// ErrConcurrentUpdate means the record changed between read and write.
	ErrConcurrentUpdate = fmt.Errorf("record was modified concurrently: %w", ErrConflict)
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// TransitionError describes a rejected state change. It unwraps to
// ErrInvalidTransition. An empty To means the record was edited without a
// status change.
type TransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	if e.To == "" {
		return fmt.Sprintf("%s is %s and can no longer be changed", e.Entity, e.From)
	}
	return fmt.Sprintf("%s cannot move from %s to %s", e.Entity, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
