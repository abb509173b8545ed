package optimistic

import (
	"context"
	"errors"
	"fmt"

	"circles/internal/models"
	"circles/internal/session"
	"circles/internal/validation"
)

// ErrorKind classifies a failed mutation for the view.
type ErrorKind string

const (
	// KindValidation is a rejected input; the cache was not touched.
	KindValidation ErrorKind = "validation"
	// KindAuthorization is an action the current user may not take.
	KindAuthorization ErrorKind = "authorization"
	// KindTransport covers network, server and cancellation failures.
	KindTransport ErrorKind = "transport"
)

// MutationError is returned by every coordinator mutation that did not
// commit. All kinds are recoverable: the cache holds the last good state and
// the input is kept in Drafts when the mutation has a form.
type MutationError struct {
	Op        string
	Kind      ErrorKind
	Retryable bool
	Err       error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s failed (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// IsKind reports whether err is a MutationError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var me *MutationError
	return errors.As(err, &me) && me.Kind == kind
}

func mutationError(op string, err error) *MutationError {
	return &MutationError{Op: op, Kind: classify(err), Retryable: true, Err: err}
}

func classify(err error) ErrorKind {
	var fe *validation.FieldError
	switch {
	case errors.As(err, &fe):
		return KindValidation
	case errors.Is(err, session.ErrNoSession):
		return KindAuthorization
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindTransport
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case models.CodeValidation:
			return KindValidation
		case models.CodeUnauthorized, models.CodeForbidden:
			return KindAuthorization
		}
	}
	return KindTransport
}
