package errors

import (
	"fmt"
	"strings"
)

// ErrNotFound indicates a resource does not exist
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnauthorized indicates a failed authentication check
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	return e.Message
}

// ErrInvalidStateTransition indicates a disallowed order status change
type ErrInvalidStateTransition struct {
	From interface{}
	To   interface{}
}

func (e *ErrInvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid state transition from %v to %v", e.From, e.To)
}

// ErrValidation carries the enumerated human-readable messages for a
// rejected client payload.
type ErrValidation struct {
	Messages []string
}

func (e *ErrValidation) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// ErrGateway indicates a payment provider call that failed at the
// transport or API level (not a declined payment).
type ErrGateway struct {
	StatusCode int
	Body       string
}

func (e *ErrGateway) Error() string {
	return fmt.Sprintf("payment gateway error: status %d, body: %s", e.StatusCode, e.Body)
}
