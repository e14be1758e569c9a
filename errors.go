package sandfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// Distinguished error names surfaced to callers.
const (
	NameNotFound              = "NotFoundError"
	NameAlreadyExists         = "AlreadyExistsError"
	NameInvalidState          = "InvalidStateError"
	NameNotSupported          = "NotSupportedError"
	NameNoModificationAllowed = "NoModificationAllowedError"
	NameQuotaExceeded         = "QuotaExceededError"
	NameTypeError             = "TypeError"
	NameAbort                 = "AbortError"
)

// Error is the exception type the storage layer exposes: a distinguished
// Name from the fixed taxonomy plus a human-readable Message. An optional
// wrapped cause is preserved for errors.Is/As chains.
type Error struct {
	Name    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Name, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds an *Error with the given taxonomy name.
func NewError(name, format string, args ...any) *Error {
	return &Error{Name: name, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches a cause to a named error.
func WrapError(name string, err error, format string, args ...any) *Error {
	return &Error{Name: name, Message: fmt.Sprintf(format, args...), Err: err}
}

func NotFound(path string) *Error {
	return NewError(NameNotFound, "no entry at %s", path)
}

func AlreadyExists(path string) *Error {
	return NewError(NameAlreadyExists, "entry already exists at %s", path)
}

func InvalidState(format string, args ...any) *Error {
	return NewError(NameInvalidState, format, args...)
}

func NotSupported(format string, args ...any) *Error {
	return NewError(NameNotSupported, format, args...)
}

func NoModificationAllowed(format string, args ...any) *Error {
	return NewError(NameNoModificationAllowed, format, args...)
}

func QuotaExceeded(format string, args ...any) *Error {
	return NewError(NameQuotaExceeded, format, args...)
}

func TypeErr(format string, args ...any) *Error {
	return NewError(NameTypeError, format, args...)
}

func Abort(format string, args ...any) *Error {
	return NewError(NameAbort, format, args...)
}

// HasName reports whether err carries the given taxonomy name anywhere in
// its chain.
func HasName(err error, name string) bool {
	var e *Error
	return errors.As(err, &e) && e.Name == name
}

func IsNotFound(err error) bool      { return HasName(err, NameNotFound) }
func IsAlreadyExists(err error) bool { return HasName(err, NameAlreadyExists) }
func IsInvalidState(err error) bool  { return HasName(err, NameInvalidState) }
func IsAbort(err error) bool         { return HasName(err, NameAbort) }
func IsQuotaExceeded(err error) bool { return HasName(err, NameQuotaExceeded) }

// Convert maps an arbitrary error onto the taxonomy. Errors that already
// carry a name pass through unchanged; well-known stdlib conditions get the
// matching name; anything else surfaces as an invalid-state condition so it
// is never silently swallowed.
func Convert(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return WrapError(NameNotFound, err, "entry does not exist")
	case errors.Is(err, fs.ErrExist):
		return WrapError(NameAlreadyExists, err, "entry already exists")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return WrapError(NameAbort, err, "operation aborted")
	default:
		return WrapError(NameInvalidState, err, "storage operation failed")
	}
}

// ChildFailure records one failed child inside a tree-wide operation.
type ChildFailure struct {
	Path string
	Err  error
}

// TreeError aggregates per-child failures from a fan-out operation
// (directory copy, root removal). Siblings that succeeded are not listed;
// the point is to expose which children failed and why instead of
// collapsing the batch to a single opaque error.
type TreeError struct {
	Op       string
	Failures []ChildFailure
}

func (e *TreeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d child operation(s) failed", e.Op, len(e.Failures))
	for _, f := range e.Failures {
		fmt.Fprintf(&b, "; %s: %v", f.Path, f.Err)
	}
	return b.String()
}

// Unwrap exposes the child errors to errors.Is/As.
func (e *TreeError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}
