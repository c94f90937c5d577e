package loom

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code identifies one of the user-visible error conditions named in the
// specification (§6, §7). Compare with errors.Is against the sentinel
// Err* values below, not by string matching.
type Code uint8

const (
	CodeNone Code = iota
	CodeEntityNotAlive
	CodeComponentAlreadyPresent
	CodeComponentNotPresent
	CodeNullComponentValue
	CodeStructurallyModifiedDuringIteration
	CodeInvalidIdentityKind
	CodeRowOutOfBounds
)

func (c Code) String() string {
	switch c {
	case CodeEntityNotAlive:
		return "EntityNotAlive"
	case CodeComponentAlreadyPresent:
		return "ComponentAlreadyPresent"
	case CodeComponentNotPresent:
		return "ComponentNotPresent"
	case CodeNullComponentValue:
		return "NullComponentValue"
	case CodeStructurallyModifiedDuringIteration:
		return "StructurallyModifiedDuringIteration"
	case CodeInvalidIdentityKind:
		return "InvalidIdentityKind"
	case CodeRowOutOfBounds:
		return "RowOutOfBounds"
	default:
		return "None"
	}
}

// Error is the concrete error type for every usage and concurrency-contract
// error the core raises. It carries a Code so callers can branch on the
// failure kind without parsing strings.
type Error struct {
	Code Code
	msg  string
}

func (e *Error) Error() string {
	if e.msg == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.msg)
}

// Is allows errors.Is(err, ErrEntityNotAlive) style comparisons: two *Error
// values are equivalent if their Codes match, regardless of message.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == other.Code
}

func newError(code Code, format string, args ...any) error {
	e := &Error{Code: code, msg: fmt.Sprintf(format, args...)}
	return errors.WithStack(e)
}

// Sentinel errors, one per Code, for use with errors.Is.
var (
	ErrEntityNotAlive                   = &Error{Code: CodeEntityNotAlive}
	ErrComponentAlreadyPresent           = &Error{Code: CodeComponentAlreadyPresent}
	ErrComponentNotPresent               = &Error{Code: CodeComponentNotPresent}
	ErrNullComponentValue                = &Error{Code: CodeNullComponentValue}
	ErrStructurallyModifiedDuringIteration = &Error{Code: CodeStructurallyModifiedDuringIteration}
	ErrInvalidIdentityKind               = &Error{Code: CodeInvalidIdentityKind}
	ErrRowOutOfBounds                    = &Error{Code: CodeRowOutOfBounds}
)
