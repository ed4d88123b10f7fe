package lash

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/lashvm/lash/lashvm"
)

// invoker is the boxed, type-erased capture record stored in a runtime
// closure's first upvalue slot. One concrete variant exists per binding
// kind: free function or closure, bound method, overload set.
type invoker interface {
	invoke(st *State, args []any) ([]reflect.Value, error)
}

// candidate is one reified callable: a reflect function value plus its
// cached signature, used both for direct invocation and for per-call
// overload dispatch.
type candidate struct {
	fnVal      reflect.Value
	fnType     reflect.Type
	numIn      int
	isVariadic bool
	inTypes    []reflect.Type
	errorIndex int
}

func newCandidate(fnVal reflect.Value) (*candidate, error) {
	if fnVal.Kind() != reflect.Func {
		return nil, typeMismatch("not a bindable function: %s", fnVal.Type())
	}
	c := &candidate{
		fnVal:  fnVal,
		fnType: fnVal.Type(),
	}
	c.numIn = c.fnType.NumIn()
	c.isVariadic = c.fnType.IsVariadic()
	c.inTypes = make([]reflect.Type, c.numIn)
	for i := range c.numIn {
		c.inTypes[i] = c.fnType.In(i)
	}
	c.errorIndex = -1
	numOut := c.fnType.NumOut()
	if numOut > 0 && c.fnType.Out(numOut-1).Implements(errorType) {
		c.errorIndex = numOut - 1
	}
	return c, nil
}

// tryConvert matches the call's actual arguments against this candidate's
// declared parameter types. It has no side effects: a rejected candidate
// leaves nothing behind.
func (c *candidate) tryConvert(st *State, args []any) ([]reflect.Value, error) {
	if c.isVariadic {
		if len(args) < c.numIn-1 {
			return nil, &Error{Kind: KindArityMismatch,
				Msg: fmt.Sprintf("want at least %d arguments, got %d", c.numIn-1, len(args))}
		}
	} else if len(args) != c.numIn {
		return nil, &Error{Kind: KindArityMismatch,
			Msg: fmt.Sprintf("want %d arguments, got %d", c.numIn, len(args))}
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		var pt reflect.Type
		if c.isVariadic && i >= c.numIn-1 {
			pt = c.inTypes[c.numIn-1].Elem()
		} else {
			pt = c.inTypes[i]
		}
		v, err := st.toGo(arg, pt)
		if err != nil {
			return nil, err
		}
		in[i] = v
	}
	return in, nil
}

func (c *candidate) call(in []reflect.Value) ([]reflect.Value, error) {
	outs := c.fnVal.Call(in)
	if c.errorIndex >= 0 {
		last := outs[c.errorIndex]
		if !last.IsNil() {
			// An error result raises inside the runtime, same as a
			// runtime-detected failure.
			return nil, &lashvm.ScriptError{Msg: last.Interface().(error).Error()}
		}
		outs = outs[:c.errorIndex]
	}
	return outs, nil
}

func (c *candidate) invoke(st *State, args []any) ([]reflect.Value, error) {
	in, err := c.tryConvert(st, args)
	if err != nil {
		return nil, err
	}
	return c.call(in)
}

// overloadSet dispatches per call: candidates are tried in registration
// order and the first one whose parameter list fully converts wins.
type overloadSet struct {
	cands []*candidate
}

func (o *overloadSet) invoke(st *State, args []any) ([]reflect.Value, error) {
	countMatched := false
	for _, c := range o.cands {
		in, err := c.tryConvert(st, args)
		if err != nil {
			if KindOf(err) != KindArityMismatch {
				countMatched = true
			}
			continue
		}
		return c.call(in)
	}

	kinds := make([]string, len(args))
	for i, a := range args {
		kinds[i] = lashvm.TypeOf(a).String()
	}
	if !countMatched {
		return nil, &Error{Kind: KindArityMismatch,
			Msg: fmt.Sprintf("no overload takes %d arguments", len(args))}
	}
	return nil, &Error{Kind: KindDispatchFailure,
		Msg: fmt.Sprintf("no overload matches (%s)", strings.Join(kinds, ", "))}
}

// Callable is a binding-ready native function, method, closure, or
// overload set. It is self-contained: everything needed to invoke it
// travels with the runtime closure it becomes.
type Callable struct {
	name string
	inv  invoker
}

// Func wraps a free function or closure. The function value itself is the
// captured-state record; any last error result raises in the runtime.
func Func(fn any) (*Callable, error) {
	c, err := newCandidate(reflect.ValueOf(fn))
	if err != nil {
		return nil, err
	}
	return &Callable{inv: c}, nil
}

// Method binds the named method together with its receiver. A ByValue
// receiver is copied in at binding time; pointer and InRef receivers
// alias the original object.
func Method(recv any, name string) (*Callable, error) {
	var rv reflect.Value
	switch r := recv.(type) {
	case Owned:
		switch r.tag {
		case TagValue:
			base := reflect.ValueOf(r.val)
			copied := reflect.New(base.Type())
			copied.Elem().Set(base)
			rv = copied
		case TagReference, TagPointer:
			rv = reflect.ValueOf(r.val)
		default:
			return nil, typeMismatch("tag %d cannot be a method receiver", r.tag)
		}
	default:
		rv = reflect.ValueOf(recv)
	}

	m := rv.MethodByName(name)
	if !m.IsValid() && rv.Kind() != reflect.Pointer {
		// Retry through a copy's address for pointer-receiver methods.
		copied := reflect.New(rv.Type())
		copied.Elem().Set(rv)
		m = copied.MethodByName(name)
	}
	if !m.IsValid() {
		return nil, typeMismatch("%s has no method %s", rv.Type(), name)
	}
	c, err := newCandidate(m)
	if err != nil {
		return nil, err
	}
	return &Callable{name: name, inv: c}, nil
}

// Overload groups callables under one runtime-visible name. Dispatch is
// first match in the order given here.
func Overload(fns ...any) (*Callable, error) {
	set := &overloadSet{}
	for _, fn := range fns {
		switch f := fn.(type) {
		case *Callable:
			switch inv := f.inv.(type) {
			case *candidate:
				set.cands = append(set.cands, inv)
			case *overloadSet:
				set.cands = append(set.cands, inv.cands...)
			}
		default:
			c, err := newCandidate(reflect.ValueOf(fn))
			if err != nil {
				return nil, err
			}
			set.cands = append(set.cands, c)
		}
	}
	if len(set.cands) == 0 {
		return nil, typeMismatch("empty overload set")
	}
	return &Callable{inv: set}, nil
}

// newNative packs an invoker into the runtime's closure mechanism: the
// shared trampoline entry point plus upvalues carrying the boxed record
// and the owning state.
func (st *State) newNative(name string, inv invoker) *lashvm.Native {
	return &lashvm.Native{
		Name:     name,
		Upvalues: []any{inv, st},
		Fn:       trampoline,
	}
}

// trampoline is the single Go entry point behind every bound callable.
// It reconstructs the typed call: arguments off the stack, conversion per
// the callable's declared parameters, invocation, results pushed back.
func trampoline(vm *lashvm.VM) (nres int, err error) {
	inv := vm.Upvalue(0).(invoker)
	st := vm.Upvalue(1).(*State)

	args := make([]any, vm.Top())
	for i := range args {
		args[i] = vm.Get(i + 1)
	}

	outs, err := func() (outs []reflect.Value, err error) {
		defer func() {
			if r := recover(); r != nil {
				// A native exception escaping a bound callable becomes a
				// runtime-visible error carrying the panic text.
				err = &Error{Kind: KindNativeException, Msg: fmt.Sprint(r)}
			}
		}()
		return inv.invoke(st, args)
	}()
	if err != nil {
		return 0, err
	}

	count := 0
	for _, out := range outs {
		n, err := st.push(out.Interface())
		if err != nil {
			return 0, err
		}
		count += n
	}
	return count, nil
}
