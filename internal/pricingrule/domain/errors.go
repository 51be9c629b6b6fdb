package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidEvent     = errors.New("invalid_event")
	ErrInvalidID        = errors.New("invalid_id")
	ErrEventNotFound    = errors.New("event_not_found")
	ErrNotFound         = errors.New("pricing_rule_not_found")
	ErrStoreUnavailable = errors.New("store_unavailable")
)

// ValidationError reports the first write-time constraint a rule violates.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
