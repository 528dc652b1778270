// Package martianerrors defines the error taxonomy a stage adapter
// reports through its failure substrate: initialization errors, user-stage
// errors, serialization errors, panics, and asserts.
package martianerrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies why an invocation failed.
type Kind int

const (
	// Initialization covers failures before user code ever runs: the
	// jobinfo file couldn't be read, the requested stage isn't registered,
	// or the args couldn't be decoded.
	Initialization Kind = iota
	// UserStage is any error a split/main/join implementation returned.
	UserStage
	// Serialization covers JSON encode/decode failures against the
	// metadata directory.
	Serialization
	// Panic is an uncaught programming error recovered by the runner.
	Panic
	// Assert marks a failure as an unrecoverable configuration problem;
	// the Host will not retry the pipeline without operator intervention.
	Assert
)

func (k Kind) String() string {
	switch k {
	case Initialization:
		return "initialization"
	case UserStage:
		return "user_stage"
	case Serialization:
		return "serialization"
	case Panic:
		return "panic"
	case Assert:
		return "assert"
	default:
		return "unknown"
	}
}

// Error is the envelope every failure in this module is wrapped in before it
// reaches the failure substrate. Cause, when present, is preserved so
// errors.Cause can unwrap through it.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	// Stack is a captured backtrace, filled in for Panic and, where
	// available, UserStage errors. May be empty.
	Stack string
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Cause.Error())
	}
	return e.Message
}

// Unwrap lets errors.Is/errors.As see through the envelope to the
// underlying cause. pkg/errors.Cause follows only Cause() methods, so it
// stops at an *Error.
func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error of the given kind, capturing a stack trace via
// pkg/errors so the wrapped error carries one even if cause does not.
func New(kind Kind, message string, cause error) *Error {
	var stack string
	if cause != nil {
		stack = fmt.Sprintf("%+v", errors.WithStack(cause))
	}
	return &Error{Kind: kind, Message: message, Cause: cause, Stack: stack}
}

// Initf builds an Initialization error with a formatted message.
func Initf(cause error, format string, args ...interface{}) *Error {
	return New(Initialization, fmt.Sprintf(format, args...), cause)
}

// IsAssertFunc classifies whether an error returned by user code should be
// reported to the Host as an ASSERT (unrecoverable configuration problem)
// rather than a plain user error. The zero value is nil and must not be
// called; adapter.Run uses Never in place of a nil Options.IsAssert.
type IsAssertFunc func(error) bool

// Never is an IsAssertFunc that never classifies an error as an assert.
func Never(error) bool { return false }

// KindOf walks err's cause chain (via errors.Cause) looking for a *Error and
// returns its Kind, or UserStage if none is found.
func KindOf(err error) Kind {
	for err != nil {
		if me, ok := err.(*Error); ok { //nolint:errorlint
			return me.Kind
		}
		cause := errors.Cause(err)
		if cause == err {
			break
		}
		err = cause
	}
	return UserStage
}

// StackOf walks err's cause chain looking for a captured stack trace,
// falling back to a freshly captured one rooted at the original error.
func StackOf(err error) string {
	orig := err
	for e := err; e != nil; {
		if me, ok := e.(*Error); ok && me.Stack != "" { //nolint:errorlint
			return me.Stack
		}
		cause := errors.Cause(e)
		if cause == e {
			break
		}
		e = cause
	}
	if orig == nil {
		return ""
	}
	return fmt.Sprintf("%+v", errors.WithStack(orig))
}
