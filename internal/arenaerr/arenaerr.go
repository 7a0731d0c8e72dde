// Package arenaerr is the arena's closed error taxonomy (spec §7),
// independent of transport. The API adapter maps Kind to an HTTP status;
// nothing else should string-match error text.
package arenaerr

import "fmt"

// Kind is one of the fixed error categories the core ever raises.
type Kind string

const (
	NotFound            Kind = "not_found"
	QuotaExceeded       Kind = "quota_exceeded"
	CapacityExceeded    Kind = "capacity_exceeded"
	NoGamesAvailable    Kind = "no_games_available"
	InvalidInput        Kind = "invalid_input"
	AuthRequired        Kind = "auth_required"
	AuthInvalid         Kind = "auth_invalid"
	Forbidden           Kind = "forbidden"
	RuntimeUnavailable  Kind = "runtime_unavailable"
	CompetitionDisabled Kind = "competition_disabled"
	Gamebattle          Kind = "gamebattle_error"
)

// Error is a tagged, loggable domain error.
type Error struct {
	Kind    Kind
	Message string
	Wrapped error
}

func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Wrapped }

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}

// New builds an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind wrapping an underlying cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Wrapped: cause}
}
