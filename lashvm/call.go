package lashvm

import (
	"errors"
	"fmt"
)

// MultRet asks Call to keep every result the callee produced.
const MultRet = -1

// ScriptError is an error raised by the runtime itself: calling a
// non-function, indexing a non-indexable value, or an error raised from
// inside a callable.
type ScriptError struct {
	Msg string
}

func (e *ScriptError) Error() string {
	return e.Msg
}

// Raise builds a ScriptError; native callables return it to abort the
// running call with a runtime-visible error.
func Raise(format string, args ...any) error {
	return &ScriptError{Msg: fmt.Sprintf(format, args...)}
}

// Call invokes the callee sitting below its nargs arguments on the stack.
// On return the callee and arguments are replaced by the results, padded
// or truncated to nrets unless nrets is MultRet. On error the callee and
// arguments are removed and nothing is pushed.
func (v *VM) Call(nargs, nrets int) error {
	if nargs < 0 || v.Top() < nargs+1 {
		return &ScriptError{Msg: "stack underflow during call"}
	}
	calleeIdx := v.sp - nargs - 1
	callee := v.stack[calleeIdx]

	fn, ok := callee.(*Native)
	if !ok {
		err := &ScriptError{Msg: fmt.Sprintf("calling non-function: %s", TypeOf(callee))}
		for i := calleeIdx; i < v.sp; i++ {
			v.stack[i] = nil
		}
		v.sp = calleeIdx
		return err
	}

	nres, err := fn.call(v, calleeIdx)
	if err != nil {
		return err
	}

	if nrets == MultRet {
		return nil
	}
	for nres < nrets {
		v.Push(nil)
		nres++
	}
	v.Drop(nres - nrets)
	return nil
}

// PCall is Call inside an error boundary: a raised error is returned as a
// value instead of propagating, and the stack is left balanced (callee and
// arguments consumed, no results pushed) so callers can recover in place.
// A Go panic escaping the callee is also confined here.
func (v *VM) PCall(nargs, nrets int) (err error) {
	if nargs < 0 || v.Top() < nargs+1 {
		return &ScriptError{Msg: "stack underflow during call"}
	}
	calleeIdx := v.sp - nargs - 1
	defer func() {
		if r := recover(); r != nil {
			for i := calleeIdx; i < v.sp; i++ {
				v.stack[i] = nil
			}
			v.sp = calleeIdx
			err = &ScriptError{Msg: fmt.Sprint(r)}
		}
	}()
	return v.Call(nargs, nrets)
}

// Index reads target[key], consulting a userdata's metatable.
func (v *VM) Index(target, key any) (any, error) {
	switch t := target.(type) {
	case *Table:
		return t.Get(key), nil
	case *Userdata:
		if t.Meta == nil || t.Meta.GetField == nil {
			return nil, &ScriptError{Msg: "userdata is not indexable"}
		}
		return t.Meta.GetField(v, t, key)
	case nil:
		return nil, &ScriptError{Msg: "indexing nil"}
	}
	return nil, &ScriptError{Msg: fmt.Sprintf("type %s is not indexable", TypeOf(target))}
}

// SetIndex writes target[key] = val, consulting a userdata's metatable.
func (v *VM) SetIndex(target, key, val any) error {
	switch t := target.(type) {
	case *Table:
		t.Set(key, val)
		return nil
	case *Userdata:
		if t.Meta == nil || t.Meta.SetField == nil {
			return &ScriptError{Msg: "userdata is not writable"}
		}
		return t.Meta.SetField(v, t, key, val)
	case nil:
		return &ScriptError{Msg: "assignment to nil"}
	}
	return &ScriptError{Msg: fmt.Sprintf("type %s is not indexable", TypeOf(target))}
}

// IsScriptError reports whether err originated inside the runtime.
func IsScriptError(err error) bool {
	var se *ScriptError
	return errors.As(err, &se)
}
