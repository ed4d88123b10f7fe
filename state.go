package lash

import (
	"log/slog"
	"reflect"

	"github.com/lashvm/lash/lashvm"
)

// State is one runtime handle: the VM, the installed usertype metadata,
// and the handle-scoped protected-call configuration. Everything here is
// single-threaded; callers serialize access externally.
type State struct {
	vm      *lashvm.VM
	metas   map[reflect.Type]*lashvm.Meta
	handler *Ref // default protected-call handler; nil means pass-through
	logger  *slog.Logger
}

type Option func(*State)

// WithLogger attaches a logger used for registration and
// protected-call-failure debug lines.
func WithLogger(l *slog.Logger) Option {
	return func(st *State) {
		st.logger = l
	}
}

func NewState(opts ...Option) *State {
	st := &State{
		vm:    lashvm.NewVM(),
		metas: make(map[reflect.Type]*lashvm.Meta),
	}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

// VM exposes the underlying runtime handle.
func (st *State) VM() *lashvm.VM {
	return st.vm
}

// Close releases every runtime-owned object, running finalizers.
func (st *State) Close() {
	if st.handler != nil {
		st.handler.Release()
		st.handler = nil
	}
	st.vm.Close()
}

// Set marshals v and stores it under a global name.
func (st *State) Set(name string, v any) error {
	n, err := st.push(v)
	if err != nil {
		return err
	}
	if n != 1 {
		st.vm.Drop(n)
		return typeMismatch("global %s needs exactly one value, got %d", name, n)
	}
	st.vm.Globals().Set(name, st.vm.Pop())
	return nil
}

// Get reads a global as T.
func Get[T any](st *State, name string) (T, error) {
	st.vm.Push(st.vm.Globals().Get(name))
	v, err := Read[T](st, -1)
	st.vm.Drop(1)
	return v, err
}

// BindFunc installs a callable under a global name. fn may be a plain
// function value or a *Callable built with Func, Method, or Overload.
func (st *State) BindFunc(name string, fn any) error {
	c, ok := fn.(*Callable)
	if !ok {
		var err error
		c, err = Func(fn)
		if err != nil {
			return err
		}
	}
	st.vm.Globals().Set(name, st.newNative(name, c.inv))
	if st.logger != nil {
		st.logger.Debug("bind function", "name", name)
	}
	return nil
}

// Traverse tunnels through nested tables: each key indexes the value the
// previous one produced, starting at the globals. The stack is left
// exactly as found.
func (st *State) Traverse(keys ...any) (any, error) {
	var cur any = st.vm.Globals()
	for _, key := range keys {
		k, err := st.canonical(key)
		if err != nil {
			return nil, err
		}
		next, err := st.vm.Index(cur, k)
		if err != nil {
			return nil, scriptError(err)
		}
		cur = next
	}
	return cur, nil
}

// TraverseSet writes v at the end of a nested key path.
func (st *State) TraverseSet(v any, keys ...any) error {
	if len(keys) == 0 {
		return typeMismatch("TraverseSet needs at least one key")
	}
	parent, err := st.Traverse(keys[:len(keys)-1]...)
	if err != nil {
		return err
	}
	k, err := st.canonical(keys[len(keys)-1])
	if err != nil {
		return err
	}
	val, err := st.canonical(v)
	if err != nil {
		return err
	}
	if err := st.vm.SetIndex(parent, k, val); err != nil {
		return scriptError(err)
	}
	return nil
}

// NewTable builds a runtime table from alternating key/value pairs.
func (st *State) NewTable(pairs ...any) (*lashvm.Table, error) {
	if len(pairs)%2 != 0 {
		return nil, typeMismatch("NewTable needs key/value pairs, got %d values", len(pairs))
	}
	t := lashvm.NewTable()
	for i := 0; i < len(pairs); i += 2 {
		k, err := st.canonical(pairs[i])
		if err != nil {
			return nil, err
		}
		v, err := st.canonical(pairs[i+1])
		if err != nil {
			return nil, err
		}
		t.Set(k, v)
	}
	return t, nil
}

// canonical marshals one native value through the stack and hands back
// its runtime representation, leaving the stack balanced.
func (st *State) canonical(v any) (any, error) {
	n, err := st.push(v)
	if err != nil {
		return nil, err
	}
	if n != 1 {
		st.vm.Drop(n)
		return nil, typeMismatch("expected exactly one value, got %d", n)
	}
	return st.vm.Pop(), nil
}
