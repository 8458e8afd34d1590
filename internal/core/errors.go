package core

import (
	"context"
	"errors"
	"fmt"
)

// ValidationError reports malformed user input. It is recovered locally by
// re-prompting and never advances consultation state.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for the given field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Capability names the external collaborators that can fail or time out.
type Capability string

const (
	CapGeneration Capability = "generation"
	CapRetrieval  Capability = "retrieval"
	CapWebSearch  Capability = "web_search"
	CapStorage    Capability = "storage"
)

// CapabilityError wraps a failure of an external capability. Timeout marks
// deadline expiry as opposed to outright unavailability.
type CapabilityError struct {
	Capability Capability
	Timeout    bool
	Err        error
}

func (e *CapabilityError) Error() string {
	kind := "unavailable"
	if e.Timeout {
		kind = "timeout"
	}
	return fmt.Sprintf("%s %s: %v", e.Capability, kind, e.Err)
}

func (e *CapabilityError) Unwrap() error { return e.Err }

// WrapCapability classifies err as a capability failure, marking context
// deadline errors as timeouts. A nil err returns nil.
func WrapCapability(c Capability, err error) error {
	if err == nil {
		return nil
	}
	return &CapabilityError{
		Capability: c,
		Timeout:    errors.Is(err, context.DeadlineExceeded),
		Err:        err,
	}
}

// PersistenceError marks a storage-write failure at a session boundary.
// Unlike other capability failures it is surfaced to the caller: silently
// losing a profile update is unacceptable.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// GenerationError marks a fatal generation failure at a terminal step
// (the summarize node). Non-terminal generation failures degrade instead.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
