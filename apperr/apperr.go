// ABOUTME: Error taxonomy shared by services, handlers and the HTTP API
// ABOUTME: Sentinel errors wrapped with context so callers can match with errors.Is
package apperr

import (
	"github.com/go-faster/errors"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
)

// NotFound wraps ErrNotFound with a formatted message.
func NotFound(format string, args ...any) error {
	return errors.Wrapf(ErrNotFound, format, args...)
}

// Invalid wraps ErrInvalidArgument with a formatted message.
func Invalid(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidArgument, format, args...)
}

// Unauthorized wraps ErrUnauthorized with a formatted message.
func Unauthorized(format string, args ...any) error {
	return errors.Wrapf(ErrUnauthorized, format, args...)
}

// Forbidden wraps ErrForbidden with a formatted message.
func Forbidden(format string, args ...any) error {
	return errors.Wrapf(ErrForbidden, format, args...)
}

// Kind names the taxonomy bucket of err. Anything outside the known
// sentinels is reported as "unexpected".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	default:
		return "unexpected"
	}
}
