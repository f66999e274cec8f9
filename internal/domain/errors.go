// Package domain holds the error taxonomy shared by the service layers.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel categories. Typed errors below wrap one of these so callers can
// match with errors.Is without caring about the concrete type.
var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicate    = errors.New("duplicate")
	ErrBlacklisted  = errors.New("blacklisted")
	ErrConflict     = errors.New("conflict")
	ErrInvalidToken = errors.New("invalid token")
)

// NotFoundError indicates a record could not be resolved. Invalid or tampered
// external references surface as NotFoundError as well, so a caller cannot
// tell a bad token from a missing record.
type NotFoundError struct {
	Entity string
	Ref    string
}

func NewNotFoundError(entity, ref string) *NotFoundError {
	return &NotFoundError{Entity: entity, Ref: ref}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Ref)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// DuplicateFieldError indicates a uniqueness violation on a named field.
type DuplicateFieldError struct {
	Field string
}

func NewDuplicateFieldError(field string) *DuplicateFieldError {
	return &DuplicateFieldError{Field: field}
}

func (e *DuplicateFieldError) Error() string {
	return fmt.Sprintf("%s is already registered to another subscriber", e.Field)
}

func (e *DuplicateFieldError) Unwrap() error { return ErrDuplicate }

// BlacklistedError indicates an operation was refused because the subscriber
// is blacklisted.
type BlacklistedError struct {
	SubscriberID uint64
}

func NewBlacklistedError(subscriberID uint64) *BlacklistedError {
	return &BlacklistedError{SubscriberID: subscriberID}
}

func (e *BlacklistedError) Error() string {
	return fmt.Sprintf("subscriber %d is blacklisted and cannot be renewed", e.SubscriberID)
}

func (e *BlacklistedError) Unwrap() error { return ErrBlacklisted }

// ConflictError indicates a concurrent modification was detected.
type ConflictError struct {
	Reason string
}

func NewConflictError(reason string) *ConflictError {
	return &ConflictError{Reason: reason}
}

func (e *ConflictError) Error() string { return e.Reason }

func (e *ConflictError) Unwrap() error { return ErrConflict }

// InvalidTokenError indicates an external reference token failed to decode or
// authenticate. It stays internal to the tokenizer's callers; the API maps it
// to NotFoundError before responding.
type InvalidTokenError struct {
	Cause error
}

func (e *InvalidTokenError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid token: %v", e.Cause)
	}
	return "invalid token"
}

func (e *InvalidTokenError) Unwrap() error { return ErrInvalidToken }
