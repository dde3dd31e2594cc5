package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("item not found")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrUnauthenticated  = errors.New("unauthenticated")
)

// Error carries a client-facing message and the kind it belongs to.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ValidationError reports payload problems. Fields is keyed by field name;
// Problems lists failures that do not belong to a single field.
type ValidationError struct {
	Fields   map[string]string
	Problems []string
}

func (e *ValidationError) Error() string {
	n := len(e.Fields) + len(e.Problems)
	return fmt.Sprintf("validation failed with %d problem(s)", n)
}
