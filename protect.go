package lash

import (
	"errors"

	"github.com/lashvm/lash/lashvm"
)

// Result is the outcome of a protected invocation. It must be checked for
// validity before use: either the call's values are available, or the
// handled error is.
type Result struct {
	vals []any
	err  error
}

func (r Result) OK() bool {
	return r.err == nil
}

func (r Result) Err() error {
	return r.err
}

// Values returns every result the call produced, in order.
func (r Result) Values() []any {
	return r.vals
}

// Value returns the first result, or nil for a void call.
func (r Result) Value() any {
	if len(r.vals) == 0 {
		return nil
	}
	return r.vals[0]
}

// ResultAs reads one typed result out of a protected call.
func ResultAs[T any](st *State, r Result, i int) (T, error) {
	var zero T
	if r.err != nil {
		return zero, r.err
	}
	if i < 0 || i >= len(r.vals) {
		return zero, typeMismatch("result %d is out of range (%d results)", i, len(r.vals))
	}
	st.vm.Push(r.vals[i])
	v, err := Read[T](st, -1)
	st.vm.Drop(1)
	return v, err
}

// SetHandler replaces the handle-wide default protected-call handler: a
// reference to a runtime callable taking one string and returning one
// string. Passing nil restores the pass-through default.
func (st *State) SetHandler(h *Ref) {
	st.handler = h
}

// Call invokes a callable unprotected: a failure propagates to the caller
// as a native error. fn may be a *Ref, a runtime function value, a
// *Callable, or the name of a global.
func (st *State) Call(fn any, args ...any) ([]any, error) {
	return st.rawCall(fn, args)
}

// Protect invokes a callable inside an error boundary using the handler
// configured on this handle.
func (st *State) Protect(fn any, args ...any) Result {
	return st.protect(st.handler, fn, args)
}

// ProtectWith is Protect with a per-call handler override.
func (st *State) ProtectWith(handler *Ref, fn any, args ...any) Result {
	return st.protect(handler, fn, args)
}

func (st *State) resolveCallee(fn any) (any, error) {
	switch f := fn.(type) {
	case *Ref:
		return f.value()
	case string:
		return st.vm.Globals().Get(f), nil
	case *Callable:
		return st.newNative(f.name, f.inv), nil
	default:
		return st.canonical(fn)
	}
}

func (st *State) rawCall(fn any, args []any) ([]any, error) {
	callee, err := st.resolveCallee(fn)
	if err != nil {
		return nil, err
	}

	top := st.vm.Top()
	st.vm.Push(callee)
	for _, a := range args {
		if _, err := st.push(a); err != nil {
			st.vm.SetTop(top)
			return nil, err
		}
	}

	if err := st.vm.PCall(len(args), lashvm.MultRet); err != nil {
		st.vm.SetTop(top)
		return nil, asLashError(err)
	}

	nres := st.vm.Top() - top
	vals := make([]any, nres)
	for i := range nres {
		vals[i] = st.vm.Get(top + i + 1)
	}
	st.vm.SetTop(top)
	return vals, nil
}

func (st *State) protect(handler *Ref, fn any, args []any) Result {
	vals, err := st.rawCall(fn, args)
	if err == nil {
		return Result{vals: vals}
	}
	if st.logger != nil {
		st.logger.Debug("protected call failed", "error", err)
	}

	if handler == nil {
		// Pass-through default: the raw error is the payload.
		return Result{err: err}
	}

	msg, herr := st.runHandler(handler, err.Error())
	if herr != nil {
		return Result{err: &Error{Kind: KindHandlerFailure, Msg: herr.Error(), Cause: err}}
	}
	return Result{err: &Error{Kind: KindOf(err), Msg: msg, Cause: err}}
}

// runHandler invokes the string -> string handler callable. The handler
// reference is validated here, at invocation time, not earlier.
func (st *State) runHandler(handler *Ref, msg string) (string, error) {
	callee, err := handler.value()
	if err != nil {
		return "", err
	}

	top := st.vm.Top()
	st.vm.Push(callee)
	st.vm.Push(msg)
	if err := st.vm.PCall(1, 1); err != nil {
		st.vm.SetTop(top)
		return "", err
	}
	out, err := Read[string](st, -1)
	st.vm.SetTop(top)
	if err != nil {
		return "", err
	}
	return out, nil
}

// asLashError maps runtime errors crossing the boundary into the
// machine-checkable kinds; errors already carrying a kind pass through.
func asLashError(err error) error {
	var le *Error
	if errors.As(err, &le) {
		return le
	}
	return scriptError(err)
}
