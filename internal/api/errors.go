package api

import (
	"errors"
	"fmt"
)

const genericMessage = "An unexpected error occurred."

type Kind int

const (
	KindNetwork Kind = iota
	KindValidation
	KindServerRejected
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindValidation:
		return "validation"
	case KindServerRejected:
		return "server-rejected"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Error is the single failure type the gateway raises. Consumers branch
// on Kind instead of matching message strings.
type Error struct {
	Kind   Kind
	Status int
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message is the user-facing text: the structured detail when the
// server provided one, a generic fallback otherwise.
func (e *Error) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	return genericMessage
}

// IsUnauthorized reports whether err is a gateway error carrying a 401.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindUnauthorized
}
