package services

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInvalidTransition = errors.New("invalid transition")
)

// Error is a domain failure tagged with one of the sentinel kinds above.
// errors.Is(err, ErrNotFound) and friends match through Unwrap.
type Error struct {
	Kind    error
	Entity  string
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Kind }

func notFound(entity string) error {
	return &Error{Kind: ErrNotFound, Entity: entity, Message: fmt.Sprintf("%s not found", entity)}
}

func validationf(field, format string, args ...any) error {
	return &Error{Kind: ErrValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

func conflict(entity, field string) error {
	return &Error{Kind: ErrConflict, Entity: entity, Field: field, Message: fmt.Sprintf("%s already registered", field)}
}

func invalidTransition(msg string) error {
	return &Error{Kind: ErrInvalidTransition, Entity: "task", Message: msg}
}

// AsError extracts the domain error carried by err, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
