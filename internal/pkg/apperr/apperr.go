// internal/pkg/apperr/apperr.go
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error into one of the stable categories the API
// surfaces to callers. Kinds survive wrapping and map 1:1 to HTTP statuses.
type Kind int

const (
	Internal Kind = iota
	InvalidArgument
	NotFound
	Forbidden
	OutOfStock
	ProductUnavailable
	EmptyCart
	InvalidTransition
	Conflict
)

// String returns the kind name used in logs and error payloads
func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid_argument"
	case NotFound:
		return "not_found"
	case Forbidden:
		return "forbidden"
	case OutOfStock:
		return "out_of_stock"
	case ProductUnavailable:
		return "product_unavailable"
	case EmptyCart:
		return "empty_cart"
	case InvalidTransition:
		return "invalid_transition"
	case Conflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a kinded application error
type Error struct {
	Kind    Kind
	Message string
	Err     error // wrapped cause, if any
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the wrapped cause to errors.Is/As
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new application error with the given kind
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates an application error around a lower-level cause
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// KindOf extracts the kind from an error chain.
// Unclassified errors are Internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error to the HTTP status code the API returns for it
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case InvalidArgument, EmptyCart:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Forbidden:
		return http.StatusForbidden
	case OutOfStock, ProductUnavailable, InvalidTransition, Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the caller-safe message for an error. Internal errors
// are collapsed to a generic message so lower-level details never leak.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != Internal {
		return appErr.Message
	}
	return "internal server error"
}
