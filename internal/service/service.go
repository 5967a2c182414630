package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lshigami/skillcheck/internal/apperr"
	"github.com/lshigami/skillcheck/internal/notify"
)

// Clock returns the current time. Services read time only through it.
type Clock func() time.Time

// SystemClock is the wall clock in UTC.
func SystemClock() Clock {
	return func() time.Time { return time.Now().UTC() }
}

// Notifier queues invite emails. Enqueue must not block.
type Notifier interface {
	Enqueue(email notify.InviteEmail) bool
}

// Domain errors returned by services. Controllers map them to HTTP responses by code.
var (
	ErrValidation            = apperr.New(apperr.CodeValidation, "request validation failed")
	ErrForbidden             = apperr.New(apperr.CodeForbidden, "not allowed to access this resource")
	ErrTemplateNotFound      = apperr.New(apperr.CodeNotFound, "assessment template not found")
	ErrAttemptNotFound       = apperr.New(apperr.CodeNotFound, "attempt not found")
	ErrTemplateLocked        = apperr.New(apperr.CodeTemplateLocked, "template is referenced by an invite and can no longer be changed")
	ErrInsufficientCredits   = apperr.New(apperr.CodeInsufficientCredits, "cannot send assessment: company has insufficient credits")
	ErrTokenInvalid          = apperr.New(apperr.CodeTokenInvalid, "invite link is not valid")
	ErrTokenExpired          = apperr.New(apperr.CodeTokenExpired, "invite link has expired")
	ErrAlreadyConsumed       = apperr.New(apperr.CodeAlreadyConsumed, "invite link has already been used")
	ErrAttemptNotInProgress  = apperr.New(apperr.CodeAttemptNotInProgress, "attempt is no longer in progress")
	ErrDeadlinePassed        = apperr.New(apperr.CodeDeadlinePassed, "attempt time limit has passed")
	ErrAlreadySubmitted      = apperr.New(apperr.CodeAlreadySubmitted, "attempt has already been submitted")
	ErrReservationNotFound   = apperr.New(apperr.CodeReservationNotFound, "no active credit reservation")
	ErrAmountExceedsReserved = apperr.New(apperr.CodeAmountExceedsReserved, "amount exceeds reserved credits")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateStruct runs the struct's validate tags and converts failures to ErrValidation.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Wrap(ErrValidation, err)
	}
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, describeFieldError(fe))
	}
	return apperr.WithDetails(ErrValidation, details...)
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
