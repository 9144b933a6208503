package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an operation failure so callers can distinguish
// "try later" from "not allowed" from "gone" without parsing strings.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindForbidden
	KindInvalidState
	KindRateLimited
	KindAlreadyVoted
	KindInvalidInput
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindInvalidState:
		return "invalid_state"
	case KindRateLimited:
		return "rate_limited"
	case KindAlreadyVoted:
		return "already_voted"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "unknown"
	}
}

// Error pairs a machine-readable Kind with a human-readable reason.
// Room state stays consistent when an Error is returned: operations
// validate fully before mutating.
type Error struct {
	Kind   Kind
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Reason: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Reason: fmt.Sprintf(format, args...)}
}

func InvalidState(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidState, Reason: fmt.Sprintf(format, args...)}
}

func RateLimited(format string, args ...any) *Error {
	return &Error{Kind: KindRateLimited, Reason: fmt.Sprintf(format, args...)}
}

func AlreadyVoted(format string, args ...any) *Error {
	return &Error{Kind: KindAlreadyVoted, Reason: fmt.Sprintf(format, args...)}
}

func InvalidInput(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Reason: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from any error in the chain.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}
