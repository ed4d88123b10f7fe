package lash

import (
	"math"
	"reflect"

	"github.com/lashvm/lash/lashvm"
)

// Push writes one native value into stack slots and returns how many
// slots were written. Every supported value occupies exactly one slot;
// the count exists so multi-value results can report zero or several.
func (st *State) Push(v any) (int, error) {
	return st.push(v)
}

// TypeAt reports the dynamic type tag of the slot at idx.
func (st *State) TypeAt(idx int) lashvm.Type {
	return lashvm.TypeOf(st.vm.Get(idx))
}

// Read converts the slot at idx to T, failing with a type-mismatch error
// instead of coercing. The stack is never mutated by a read.
func Read[T any](st *State, idx int) (T, error) {
	var zero T
	rv, err := st.toGo(st.vm.Get(idx), reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	out := rv.Interface()
	if out == nil {
		return zero, nil
	}
	return out.(T), nil
}

// ReadInto converts the slot at idx into the value out points at.
func (st *State) ReadInto(idx int, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return typeMismatch("ReadInto needs a non-nil pointer, got %T", out)
	}
	converted, err := st.toGo(st.vm.Get(idx), rv.Type().Elem())
	if err != nil {
		return err
	}
	rv.Elem().Set(converted)
	return nil
}

func (st *State) push(v any) (int, error) {
	switch x := v.(type) {
	case nil:
		st.vm.Push(nil)
		return 1, nil
	case bool:
		st.vm.Push(x)
		return 1, nil
	case int:
		st.vm.Push(int64(x))
		return 1, nil
	case int8:
		st.vm.Push(int64(x))
		return 1, nil
	case int16:
		st.vm.Push(int64(x))
		return 1, nil
	case int32:
		st.vm.Push(int64(x))
		return 1, nil
	case int64:
		st.vm.Push(x)
		return 1, nil
	case uint:
		st.vm.Push(int64(x))
		return 1, nil
	case uint8:
		st.vm.Push(int64(x))
		return 1, nil
	case uint16:
		st.vm.Push(int64(x))
		return 1, nil
	case uint32:
		st.vm.Push(int64(x))
		return 1, nil
	case uint64:
		st.vm.Push(int64(x))
		return 1, nil
	case float32:
		st.vm.Push(float64(x))
		return 1, nil
	case float64:
		st.vm.Push(x)
		return 1, nil
	case string:
		st.vm.Push(x)
		return 1, nil
	case []byte:
		st.vm.Push(string(x))
		return 1, nil
	case *lashvm.Table, *lashvm.Native, *lashvm.Userdata:
		st.vm.Push(x)
		return 1, nil
	case *Ref:
		val, err := x.value()
		if err != nil {
			return 0, err
		}
		st.vm.Push(val)
		return 1, nil
	case Owned:
		return st.pushOwned(x)
	case uniqueOwner:
		return st.pushUnique(x)
	case sharedOwner:
		return st.pushShared(x)
	case *Callable:
		st.vm.Push(st.newNative(x.name, x.inv))
		return 1, nil
	}
	return st.pushReflect(reflect.ValueOf(v))
}

func (st *State) pushReflect(rv reflect.Value) (int, error) {
	switch rv.Kind() {
	case reflect.Func:
		c, err := Func(rv.Interface())
		if err != nil {
			return 0, err
		}
		st.vm.Push(st.newNative(c.name, c.inv))
		return 1, nil
	case reflect.Pointer:
		if rv.IsNil() {
			st.vm.Push(nil)
			return 1, nil
		}
		// A raw pointer aliases the native object: no finalizer is
		// installed and the caller keeps responsibility for the lifetime.
		return st.installTagged(TagPointer, rv)
	case reflect.Slice, reflect.Array:
		return st.pushSeq(rv)
	case reflect.Map:
		return st.pushMapValue(rv)
	case reflect.Struct:
		if _, registered := st.metas[rv.Type()]; registered {
			return st.installTagged(TagValue, rv)
		}
		return st.pushStruct(rv)
	}
	return 0, typeMismatch("cannot marshal %s to a runtime value", rv.Type())
}

// toGo is the fallible conversion at the heart of reading and dispatch:
// it converts one canonical runtime value to the requested Go type,
// or reports a type mismatch. It has no side effects.
func (st *State) toGo(v any, t reflect.Type) (reflect.Value, error) {
	if t == anyType {
		return reflect.ValueOf(&v).Elem(), nil
	}

	switch x := v.(type) {
	case nil:
		switch t.Kind() {
		case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func,
			reflect.Interface, reflect.Chan:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, typeMismatch("nil is not convertible to %s", t)

	case bool:
		if t.Kind() == reflect.Bool {
			return reflect.ValueOf(x).Convert(t), nil
		}

	case int64:
		switch t.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			return reflect.ValueOf(x).Convert(t), nil
		}

	case float64:
		switch t.Kind() {
		case reflect.Float32, reflect.Float64:
			return reflect.ValueOf(x).Convert(t), nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if x == math.Trunc(x) {
				return reflect.ValueOf(x).Convert(t), nil
			}
			return reflect.Value{}, typeMismatch("float %v has no integral representation as %s", x, t)
		}

	case string:
		switch t.Kind() {
		case reflect.String:
			return reflect.ValueOf(x).Convert(t), nil
		case reflect.Slice:
			if t.Elem().Kind() == reflect.Uint8 {
				return reflect.ValueOf([]byte(x)).Convert(t), nil
			}
		}

	case *lashvm.Table:
		if t == tableType {
			return reflect.ValueOf(x), nil
		}
		return st.readTable(x, t)

	case *lashvm.Native:
		if t == nativeType {
			return reflect.ValueOf(x), nil
		}
		if t.Kind() == reflect.Func {
			return st.makeFunc(x, t), nil
		}

	case *lashvm.Userdata:
		if t == userdataType {
			return reflect.ValueOf(x), nil
		}
		return unwrapUserdata(x, t)
	}

	return reflect.Value{}, typeMismatch("%s is not convertible to %s", lashvm.TypeOf(v), t)
}

// unwrapUserdata converts a boxed host object to the requested type:
// the payload itself, the pointee for value targets, or any interface the
// payload satisfies.
func unwrapUserdata(ud *lashvm.Userdata, t reflect.Type) (reflect.Value, error) {
	pv := reflect.ValueOf(ud.Value)
	if !pv.IsValid() {
		return reflect.Value{}, typeMismatch("empty userdata is not convertible to %s", t)
	}
	if pv.Type().AssignableTo(t) {
		return pv, nil
	}
	if pv.Kind() == reflect.Pointer && pv.Type().Elem() == t {
		return pv.Elem(), nil
	}
	if t.Kind() == reflect.Interface && pv.Type().Implements(t) {
		return pv.Convert(t), nil
	}
	name := pv.Type().String()
	if ud.Meta != nil && ud.Meta.Name != "" {
		name = ud.Meta.Name
	}
	return reflect.Value{}, typeMismatch("userdata %s is not convertible to %s", name, t)
}

var (
	anyType      = reflect.TypeFor[any]()
	errorType    = reflect.TypeFor[error]()
	tableType    = reflect.TypeFor[*lashvm.Table]()
	nativeType   = reflect.TypeFor[*lashvm.Native]()
	userdataType = reflect.TypeFor[*lashvm.Userdata]()
)
