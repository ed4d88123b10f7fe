package debugs

import (
	"fmt"

	"github.com/lashvm/lash"
	"github.com/lashvm/lash/lashvm"
	"go.starlark.net/starlark"
)

// StateDict exposes a state's globals to a starlark thread. Bound
// functions become builtins dispatching through the protected-call
// boundary; everything else converts by value. Non-string global keys are
// not representable as starlark names and are skipped.
func StateDict(st *lash.State) starlark.StringDict {
	dict := make(starlark.StringDict)
	globals := st.VM().Globals()
	var k, v any
	var ok bool
	for k, v, ok = globals.Next(nil); ok; k, v, ok = globals.Next(k) {
		name, isString := k.(string)
		if !isString {
			continue
		}
		if fn, isFunc := v.(*lashvm.Native); isFunc {
			dict[name] = bindNative(st, fn)
			continue
		}
		dict[name] = toStarlarkValue(v)
	}
	return dict
}

func bindNative(st *lash.State, fn *lashvm.Native) starlark.Value {
	return starlark.NewBuiltin(fn.Name, func(
		thread *starlark.Thread,
		b *starlark.Builtin,
		args starlark.Tuple,
		kwargs []starlark.Tuple,
	) (starlark.Value, error) {
		if len(kwargs) > 0 {
			return nil, fmt.Errorf("%s: keyword arguments are not supported", b.Name())
		}
		goArgs := make([]any, 0, len(args))
		for _, arg := range args {
			v, err := fromStarlarkValue(arg)
			if err != nil {
				return nil, err
			}
			goArgs = append(goArgs, v)
		}
		res := st.Protect(fn, goArgs...)
		if err := res.Err(); err != nil {
			return nil, err
		}
		vals := res.Values()
		switch len(vals) {
		case 0:
			return starlark.None, nil
		case 1:
			return toStarlarkValue(vals[0]), nil
		}
		elems := make([]starlark.Value, len(vals))
		for i, v := range vals {
			elems[i] = toStarlarkValue(v)
		}
		return starlark.Tuple(elems), nil
	})
}

func fromStarlarkValue(v starlark.Value) (any, error) {
	switch v := v.(type) {

	case starlark.NoneType:
		return nil, nil

	case starlark.Bool:
		return bool(v), nil

	case starlark.Int:
		i, ok := v.Int64()
		if !ok {
			return nil, fmt.Errorf("integer out of range: %v", v)
		}
		return i, nil

	case starlark.Float:
		return float64(v), nil

	case starlark.String:
		return string(v), nil

	case starlark.Bytes:
		return []byte(v), nil

	case starlark.Tuple:
		out := make([]any, len(v))
		for i, elem := range v {
			e, err := fromStarlarkValue(elem)
			if err != nil {
				return nil, err
			}
			out[i] = e
		}
		return out, nil

	case *starlark.List:
		out := make([]any, v.Len())
		for i := range v.Len() {
			e, err := fromStarlarkValue(v.Index(i))
			if err != nil {
				return nil, err
			}
			out[i] = e
		}
		return out, nil

	case *starlark.Dict:
		out := make(map[any]any, v.Len())
		for _, item := range v.Items() {
			key, err := fromStarlarkValue(item[0])
			if err != nil {
				return nil, err
			}
			val, err := fromStarlarkValue(item[1])
			if err != nil {
				return nil, err
			}
			out[key] = val
		}
		return out, nil

	}
	return nil, fmt.Errorf("unsupported starlark value: %s", v.Type())
}
