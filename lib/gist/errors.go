package gist

import (
	"errors"
	"fmt"
)

// Kind classifies failures returned by the client.
type Kind int

const (
	// KindUnexpected is any transport or internal failure that is not a timeout.
	KindUnexpected Kind = iota
	// KindAuth means no credential is configured or a token source is unusable.
	KindAuth
	// KindInvalidArgument means caller input violates a stated constraint,
	// detected before any network call.
	KindInvalidArgument
	// KindTimeout means single attempts exceeded their deadline until the retry
	// budget ran out.
	KindTimeout
	// KindNotFound means declared content paths do not exist on disk.
	KindNotFound
)

// String returns a human-readable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "authentication"
	case KindInvalidArgument:
		return "invalid argument"
	case KindTimeout:
		return "timeout"
	case KindNotFound:
		return "not found"
	default:
		return "unexpected"
	}
}

// Error is the failure type returned by all client operations. Callers should
// match on Kind via the Is* helpers or errors.As, never on message text.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("gist: %s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("gist: %s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error { return e.Cause }

// errf builds an *Error with a formatted message and optional cause.
func errf(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func isKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// IsAuth reports whether the error is an authentication failure.
func IsAuth(err error) bool { return isKind(err, KindAuth) }

// IsInvalidArgument reports whether the error is a caller input violation.
func IsInvalidArgument(err error) bool { return isKind(err, KindInvalidArgument) }

// IsTimeout reports whether the error is a timeout after the retry budget.
func IsTimeout(err error) bool { return isKind(err, KindTimeout) }

// IsNotFound reports whether the error is a missing local content path.
func IsNotFound(err error) bool { return isKind(err, KindNotFound) }

// IsUnexpected reports whether the error is an unclassified transport failure.
func IsUnexpected(err error) bool { return isKind(err, KindUnexpected) }
