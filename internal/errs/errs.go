// Package errs defines the error kinds surfaced by the item engine (see
// spec.md §7). Every exported engine operation that can fail returns an
// error; callers that need to branch on kind (fatal vs item-local) use
// errors.As against *errs.Error.
package errs

import "fmt"

// Kind identifies one of the error categories the engine distinguishes.
type Kind string

const (
	ConnectionError       Kind = "ConnectionError"
	AuthError             Kind = "AuthError"
	RateLimitExhausted    Kind = "RateLimitExhausted"
	NotFound              Kind = "NotFound"
	Conflict              Kind = "Conflict"
	VersionUnsupported    Kind = "VersionUnsupported"
	InvalidBackup         Kind = "InvalidBackup"
	NameCollision         Kind = "NameCollision"
	ActionTimeout         Kind = "ActionTimeout"
	DependencyUnresolved  Kind = "DependencyUnresolved"
	InvalidTag            Kind = "InvalidTag"
	InvalidRecipe         Kind = "InvalidRecipe"
	InvalidArg            Kind = "InvalidArg"
)

// Fatal reports whether errors of this kind abort the task they occurred in
// (as opposed to accumulating as an item-local failure in the task report).
func (k Kind) Fatal() bool {
	switch k {
	case ConnectionError, AuthError, RateLimitExhausted, NameCollision,
		InvalidTag, InvalidRecipe, InvalidArg:
		return true
	default:
		return false
	}
}

// Error wraps an underlying error with a Kind and optional contextual
// fields (item kind/name, HTTP status, etc.) used for log messages and
// report entries.
type Error struct {
	Kind    Kind
	Item    string // "kind/name", empty if not item-scoped
	Err     error
}

func New(kind Kind, item string, err error) *Error {
	return &Error{Kind: kind, Item: item, Err: err}
}

func (e *Error) Error() string {
	if e.Item == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s[%s]: %v", e.Kind, e.Item, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is enables errors.Is(err, SomeKindSentinel)-style matching by Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel returns a comparable *Error carrying only a Kind, for use with
// errors.Is when the caller does not care about the wrapped error or item.
func Sentinel(kind Kind) *Error { return &Error{Kind: kind} }
