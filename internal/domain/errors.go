package domain

import (
	"errors"
	"fmt"
)

// Validation failures: reported to the caller as a rejected request.
var (
	ErrInvalidModel   = errors.New("invalid model")
	ErrRuleOutOfRange = errors.New("rule index out of range")
	ErrEmptyMessage   = errors.New("message is empty")
)

// Lookup failures.
var (
	ErrConversationNotFound = errors.New("conversation not found")
)

// IsValidation reports whether err is a rejected-request error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidModel) ||
		errors.Is(err, ErrRuleOutOfRange) ||
		errors.Is(err, ErrEmptyMessage)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrConversationNotFound)
}

// DispatchErrorKind classifies why an upstream call produced no reply.
type DispatchErrorKind string

const (
	DispatchTransport DispatchErrorKind = "transport"
	DispatchEmpty     DispatchErrorKind = "empty"
	DispatchMalformed DispatchErrorKind = "malformed"
)

// DispatchError is the failure half of a dispatch result. It never reaches
// the end user as-is; ReplyFor turns it into assistant text.
type DispatchError struct {
	Kind DispatchErrorKind
	Err  error
}

func (e *DispatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dispatch %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("dispatch %s", e.Kind)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
