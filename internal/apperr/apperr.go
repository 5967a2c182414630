// Package apperr defines coded domain errors shared by services and controllers.
package apperr

import (
	"errors"
	"net/http"
)

// Code is a stable machine-readable error code returned to API clients.
type Code string

const (
	CodeValidation            Code = "VALIDATION_ERROR"
	CodeNotFound              Code = "NOT_FOUND"
	CodeUnauthorized          Code = "UNAUTHORIZED"
	CodeForbidden             Code = "FORBIDDEN"
	CodeRateLimited           Code = "RATE_LIMITED"
	CodeInsufficientCredits   Code = "INSUFFICIENT_CREDITS"
	CodeTokenInvalid          Code = "TOKEN_INVALID"
	CodeTokenExpired          Code = "TOKEN_EXPIRED"
	CodeAlreadyConsumed       Code = "ALREADY_CONSUMED"
	CodeAttemptNotInProgress  Code = "ATTEMPT_NOT_IN_PROGRESS"
	CodeDeadlinePassed        Code = "DEADLINE_PASSED"
	CodeAlreadySubmitted      Code = "ALREADY_SUBMITTED"
	CodeTemplateLocked        Code = "TEMPLATE_LOCKED"
	CodeReservationNotFound   Code = "RESERVATION_NOT_FOUND"
	CodeAmountExceedsReserved Code = "AMOUNT_EXCEEDS_RESERVED"
	CodeInternal              Code = "INTERNAL"
)

// HTTPStatus maps a code to the response status controllers should use.
// Ledger integrity failures are internal: they never occur in correct operation.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeInsufficientCredits:
		return http.StatusPaymentRequired
	case CodeTokenInvalid:
		return http.StatusNotFound
	case CodeTokenExpired:
		return http.StatusGone
	case CodeAlreadyConsumed, CodeAttemptNotInProgress,
		CodeDeadlinePassed, CodeAlreadySubmitted, CodeTemplateLocked:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error carrying a stable code.
type Error struct {
	Code    Code
	Message string
	Details []string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same code, so wrapped sentinels compare by code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithDetails returns a copy of a sentinel with per-call details attached.
func WithDetails(base *Error, details ...string) *Error {
	return &Error{Code: base.Code, Message: base.Message, Details: details, Cause: base.Cause}
}

// Wrap attaches a cause to a copy of a sentinel, keeping its code and message.
func Wrap(base *Error, cause error) *Error {
	return &Error{Code: base.Code, Message: base.Message, Details: base.Details, Cause: cause}
}

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
