package lash

import (
	"reflect"

	"github.com/lashvm/lash/lashvm"
)

// Sequential containers marshal to tables with contiguous 1-based integer
// keys; associative containers keep their natural keys; structs become
// tables keyed by exported field name.

func (st *State) pushSeq(rv reflect.Value) (int, error) {
	t := lashvm.NewTable()
	for i := range rv.Len() {
		v, err := st.canonical(rv.Index(i).Interface())
		if err != nil {
			return 0, err
		}
		t.Set(int64(i+1), v)
	}
	st.vm.Push(t)
	return 1, nil
}

func (st *State) pushMapValue(rv reflect.Value) (int, error) {
	t := lashvm.NewTable()
	iter := rv.MapRange()
	for iter.Next() {
		k, err := st.canonical(iter.Key().Interface())
		if err != nil {
			return 0, err
		}
		v, err := st.canonical(iter.Value().Interface())
		if err != nil {
			return 0, err
		}
		t.Set(k, v)
	}
	st.vm.Push(t)
	return 1, nil
}

func (st *State) pushStruct(rv reflect.Value) (int, error) {
	t := lashvm.NewTable()
	rt := rv.Type()
	for i := range rt.NumField() {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		v, err := st.canonical(rv.Field(i).Interface())
		if err != nil {
			return 0, err
		}
		t.Set(f.Name, v)
	}
	st.vm.Push(t)
	return 1, nil
}

// readTable converts a runtime table to a typed Go container. The element
// type must be requested explicitly by the target: the runtime has no
// static element type of its own.
func (st *State) readTable(t *lashvm.Table, target reflect.Type) (reflect.Value, error) {
	switch target.Kind() {
	case reflect.Slice:
		out := reflect.MakeSlice(target, 0, t.Len())
		for i := int64(1); ; i++ {
			v := t.Get(i)
			if v == nil {
				break
			}
			ev, err := st.toGo(v, target.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out = reflect.Append(out, ev)
		}
		return out, nil

	case reflect.Map:
		out := reflect.MakeMapWithSize(target, t.Len())
		var k, v any
		var ok bool
		for k, v, ok = t.Next(nil); ok; k, v, ok = t.Next(k) {
			kv, err := st.toGo(k, target.Key())
			if err != nil {
				return reflect.Value{}, err
			}
			vv, err := st.toGo(v, target.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out.SetMapIndex(kv, vv)
		}
		return out, nil

	case reflect.Struct:
		out := reflect.New(target).Elem()
		for i := range target.NumField() {
			f := target.Field(i)
			if !f.IsExported() {
				continue
			}
			v := t.Get(f.Name)
			if v == nil {
				continue
			}
			fv, err := st.toGo(v, f.Type)
			if err != nil {
				return reflect.Value{}, err
			}
			out.Field(i).Set(fv)
		}
		return out, nil
	}
	return reflect.Value{}, typeMismatch("table is not convertible to %s", target)
}

// ReadSlice converts the table in the slot at idx to a []T.
func ReadSlice[T any](st *State, idx int) ([]T, error) {
	return Read[[]T](st, idx)
}

// ReadMap converts the table in the slot at idx to a map[K]V.
func ReadMap[K comparable, V any](st *State, idx int) (map[K]V, error) {
	return Read[map[K]V](st, idx)
}

// makeFunc wraps a runtime function as a native closure of type t. The
// wrapper performs a protected call and converts results back; when t's
// last result is an error it carries the failure, otherwise a failure
// panics out of the wrapper.
func (st *State) makeFunc(fn *lashvm.Native, t reflect.Type) reflect.Value {
	numOut := t.NumOut()
	outErr := numOut > 0 && t.Out(numOut-1) == errorType
	valOuts := numOut
	if outErr {
		valOuts--
	}

	return reflect.MakeFunc(t, func(in []reflect.Value) []reflect.Value {
		args := make([]any, len(in))
		for i, v := range in {
			args[i] = v.Interface()
		}
		res := st.Protect(fn, args...)

		outs := make([]reflect.Value, numOut)
		if err := res.Err(); err != nil {
			if !outErr {
				panic(err)
			}
			for i := range valOuts {
				outs[i] = reflect.Zero(t.Out(i))
			}
			outs[numOut-1] = reflect.ValueOf(&err).Elem().Convert(errorType)
			return outs
		}

		vals := res.Values()
		for i := range valOuts {
			var raw any
			if i < len(vals) {
				raw = vals[i]
			}
			v, err := st.toGo(raw, t.Out(i))
			if err != nil {
				if !outErr {
					panic(err)
				}
				for j := range valOuts {
					outs[j] = reflect.Zero(t.Out(j))
				}
				outs[numOut-1] = reflect.ValueOf(&err).Elem().Convert(errorType)
				return outs
			}
			outs[i] = v
		}
		if outErr {
			outs[numOut-1] = reflect.Zero(errorType)
		}
		return outs
	})
}
