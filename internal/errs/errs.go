// Package errs définit la taxonomie d'erreurs partagée par la couche d'accès
// aux données, la couche de requêtes et les handlers HTTP.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinelles comparées avec errors.Is.
var (
	ErrValidation   = errors.New("validation failure")
	ErrNotFound     = errors.New("not found")
	ErrRemote       = errors.New("remote service error")
	ErrConsistency  = errors.New("consistency warning")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error is the typed failure returned by every data access operation.
// Kind is one of the sentinels above. Resources lists the ids left orphaned
// or dangling when Kind is ErrConsistency.
type Error struct {
	Op        string
	Kind      error
	Err       error
	Resources []string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if len(e.Resources) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.Resources, ", "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == e.Kind }

func Validation(op, format string, args ...any) error {
	return &Error{Op: op, Kind: ErrValidation, Err: fmt.Errorf(format, args...)}
}

func NotFound(op string, err error) error {
	return &Error{Op: op, Kind: ErrNotFound, Err: err}
}

func Remote(op string, err error) error {
	return &Error{Op: op, Kind: ErrRemote, Err: err}
}

func Unauthorized(op string, err error) error {
	return &Error{Op: op, Kind: ErrUnauthorized, Err: err}
}

// Consistency reports a failed cleanup. cause is the failure that triggered the
// cleanup (nil when the primary operation committed), cleanup is the cleanup
// failure itself.
func Consistency(op string, cause, cleanup error, resources ...string) error {
	return &Error{Op: op, Kind: ErrConsistency, Err: errors.Join(cause, cleanup), Resources: resources}
}

// KindOf returns the sentinel carried by err, or ErrRemote for untyped errors.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrRemote
}

// ResourcesOf returns the orphaned resources attached to err, if any.
func ResourcesOf(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.Resources
	}
	return nil
}

// IsKind reports whether err carries one of kinds.
func IsKind(err error, kinds ...error) bool {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}
