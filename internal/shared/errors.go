package shared

import (
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Local precondition failures; no network request was made
	ErrValidation      = fmt.Errorf("validation failed")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")

	// Authentication & session errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenRejected    = fmt.Errorf("session token rejected")
	ErrTokenExpired     = fmt.Errorf("session token expired")
	ErrBusy             = fmt.Errorf("operation already in progress")

	// Upload saga errors
	ErrUploadFailed    = fmt.Errorf("upload failed")
	ErrMetadataFailed  = fmt.Errorf("catalog registration failed")
	ErrPublishInFlight = fmt.Errorf("publish already in flight for draft")

	// Transport & service errors
	ErrTransport          = fmt.Errorf("transport error")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrStorageUnavailable = fmt.Errorf("storage unavailable")
	ErrNotFound           = fmt.Errorf("not found")
)

// Error is a component-level failure carrying a short user-facing message.
//
// Kind is one of the sentinel errors above and is matched by [errors.Is].
// Status is the HTTP status of the response that caused it (0 when no response was received).
type Error struct {
	Kind    error
	Status  int
	Message string
	Err     error
}

// NewError creates an [Error] of the given kind.
func NewError(kind error, status int, message string, cause error) *Error {
	return &Error{Kind: kind, Status: status, Message: message, Err: cause}
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Kind != nil {
		return e.Kind.Error()
	}
	return "unknown error"
}

// Unwrap exposes both the kind and the underlying cause to [errors.Is] and [errors.As].
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Validationf creates an [ErrValidation] error with a formatted message.
func Validationf(format string, args ...any) *Error {
	return NewError(ErrValidation, 0, fmt.Sprintf(format, args...), nil)
}

// UserMessage returns the short message to show for err.
//
// For an [Error] this is its Message; otherwise the full error string.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}

// StatusOf returns the HTTP status attached to err, or 0.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}
