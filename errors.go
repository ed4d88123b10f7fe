package lash

import (
	"errors"
	"fmt"
)

// Kind classifies a marshaling or binding failure so callers can branch
// without parsing the message.
type Kind uint8

const (
	// KindTypeMismatch: a slot's dynamic type cannot convert to the
	// requested native type.
	KindTypeMismatch Kind = iota + 1
	// KindArityMismatch: overload dispatch found no candidate accepting
	// the argument count.
	KindArityMismatch
	// KindDispatchFailure: some candidate accepted the count, but no
	// candidate's parameter types converted.
	KindDispatchFailure
	// KindRuntimeScript: the runtime itself raised an error.
	KindRuntimeScript
	// KindNativeException: a Go panic escaped a bound callable and was
	// translated into a runtime error string.
	KindNativeException
	// KindHandlerFailure: the protected-call error handler itself failed
	// to produce a usable string.
	KindHandlerFailure
)

func (k Kind) String() string {
	switch k {
	case KindTypeMismatch:
		return "type mismatch"
	case KindArityMismatch:
		return "arity mismatch"
	case KindDispatchFailure:
		return "dispatch failure"
	case KindRuntimeScript:
		return "runtime error"
	case KindNativeException:
		return "native exception"
	case KindHandlerFailure:
		return "handler failure"
	}
	return "unknown"
}

// Error carries one human-readable message plus the machine-checkable
// kind. errors.Is matches on Kind alone, so sentinel comparison works:
//
//	errors.Is(err, &Error{Kind: KindTypeMismatch})
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Msg == "" && e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Cause.Error())
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// KindOf extracts the Kind from an error chain, or 0 when the error did
// not come from this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func typeMismatch(format string, args ...any) *Error {
	return &Error{Kind: KindTypeMismatch, Msg: fmt.Sprintf(format, args...)}
}

func scriptError(err error) *Error {
	return &Error{Kind: KindRuntimeScript, Msg: err.Error(), Cause: err}
}
