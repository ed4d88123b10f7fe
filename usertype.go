package lash

import (
	"reflect"

	"github.com/lashvm/lash/lashvm"
)

// Usertype describes how one native type appears inside the runtime:
// constructor overloads, field accessors, methods, statics, an optional
// stringification hook, and an optional destructor override. The builder
// only carries intent; BindType copies everything the runtime needs into
// runtime-owned metadata, so the builder may be discarded after install.
type Usertype struct {
	name     string
	typ      reflect.Type
	ctors    []any
	fields   []fieldSpec
	methods  []methodSpec
	statics  []staticSpec
	tostring any
	ondrop   func(any)
}

type fieldSpec struct {
	name    string
	goField string
}

type methodSpec struct {
	name string
	fn   any // method name string, or func taking the receiver first
}

type staticSpec struct {
	name string
	fn   any
}

// NewUsertype starts a descriptor for T exposed under the given
// runtime-visible name.
func NewUsertype[T any](name string) *Usertype {
	return &Usertype{
		name: name,
		typ:  reflect.TypeFor[T](),
	}
}

// Ctor adds constructor overloads, resolved per call in registration
// order. Each must return T, *T, or either paired with an error.
func (u *Usertype) Ctor(fns ...any) *Usertype {
	u.ctors = append(u.ctors, fns...)
	return u
}

// Field exposes a struct field as a pseudo-table entry readable and
// writable under name.
func (u *Usertype) Field(name, goField string) *Usertype {
	u.fields = append(u.fields, fieldSpec{name: name, goField: goField})
	return u
}

// Method exposes a method. fn is either the Go method name, or a free
// function taking the receiver as its first parameter.
func (u *Usertype) Method(name string, fn any) *Usertype {
	u.methods = append(u.methods, methodSpec{name: name, fn: fn})
	return u
}

// Static exposes a function on the type's table, with no receiver.
func (u *Usertype) Static(name string, fn any) *Usertype {
	u.statics = append(u.statics, staticSpec{name: name, fn: fn})
	return u
}

// OnString sets the stringification hook used by the runtime's default
// string conversion. fn takes *T or T and returns string.
func (u *Usertype) OnString(fn any) *Usertype {
	u.tostring = fn
	return u
}

// OnDrop overrides the finalizer for runtime-owned instances. The default
// invokes Drop when the type implements Dropper.
func (u *Usertype) OnDrop(fn func(any)) *Usertype {
	u.ondrop = fn
	return u
}

// BindType installs the usertype: a global table named after the type
// carrying `new` plus statics, and instance metadata for field access,
// methods, and finalization. Re-binding a name is last-registration-wins;
// nothing checks for shadowing.
func (st *State) BindType(u *Usertype) error {
	meta := &lashvm.Meta{Name: u.name}

	// Everything below is copied out of the builder into state captured
	// by the metadata closures; the builder itself is not retained.
	fieldIdx := make(map[string][]int, len(u.fields))
	for _, f := range u.fields {
		sf, ok := u.typ.FieldByName(f.goField)
		if !ok {
			return typeMismatch("%s has no field %s", u.typ, f.goField)
		}
		fieldIdx[f.name] = sf.Index
	}

	methods := make(map[string]*lashvm.Native, len(u.methods))
	for _, m := range u.methods {
		c, err := u.methodCandidate(m.fn)
		if err != nil {
			return err
		}
		methods[m.name] = st.newNative(u.name+"."+m.name, c)
	}

	meta.GetField = func(vm *lashvm.VM, ud *lashvm.Userdata, key any) (any, error) {
		name, ok := key.(string)
		if !ok {
			return nil, lashvm.Raise("%s index must be a string", meta.Name)
		}
		if m, ok := methods[name]; ok {
			return m, nil
		}
		if idx, ok := fieldIdx[name]; ok {
			rv, err := payloadStruct(ud)
			if err != nil {
				return nil, err
			}
			return st.canonical(rv.FieldByIndex(idx).Interface())
		}
		return nil, nil
	}

	meta.SetField = func(vm *lashvm.VM, ud *lashvm.Userdata, key, val any) error {
		name, ok := key.(string)
		if !ok {
			return lashvm.Raise("%s index must be a string", meta.Name)
		}
		idx, ok := fieldIdx[name]
		if !ok {
			return lashvm.Raise("%s has no writable field %q", meta.Name, name)
		}
		rv, err := payloadStruct(ud)
		if err != nil {
			return err
		}
		f := rv.FieldByIndex(idx)
		conv, err := st.toGo(val, f.Type())
		if err != nil {
			return err
		}
		f.Set(conv)
		return nil
	}

	if u.tostring != nil {
		c, err := newCandidate(reflect.ValueOf(u.tostring))
		if err != nil {
			return err
		}
		meta.ToString = func(ud *lashvm.Userdata) string {
			outs, err := c.invoke(st, []any{ud})
			if err != nil || len(outs) == 0 {
				return meta.Name
			}
			s, _ := outs[0].Interface().(string)
			return s
		}
	}

	typeTable := lashvm.NewTable()
	if len(u.ctors) > 0 {
		ctorSet := &overloadSet{}
		for _, ctor := range u.ctors {
			c, err := st.ctorCandidate(u, ctor, meta)
			if err != nil {
				return err
			}
			ctorSet.cands = append(ctorSet.cands, c)
		}
		typeTable.Set("new", st.newNative(u.name+".new", ctorSet))
	}
	for _, s := range u.statics {
		c, err := newCandidate(reflect.ValueOf(s.fn))
		if err != nil {
			return err
		}
		typeTable.Set(s.name, st.newNative(u.name+"."+s.name, c))
	}

	st.vm.Globals().Set(u.name, typeTable)
	st.metas[u.typ] = meta
	if st.logger != nil {
		st.logger.Debug("bind type", "name", u.name, "type", u.typ.String())
	}
	return nil
}

// methodCandidate reifies one method spec into a callable whose first
// parameter is the receiver.
func (u *Usertype) methodCandidate(fn any) (*candidate, error) {
	switch f := fn.(type) {
	case string:
		m, ok := reflect.PointerTo(u.typ).MethodByName(f)
		if !ok {
			return nil, typeMismatch("%s has no method %s", u.typ, f)
		}
		return newCandidate(m.Func)
	default:
		return newCandidate(reflect.ValueOf(fn))
	}
}

// ctorCandidate wraps a constructor so its product is boxed as a
// runtime-owned instance of the usertype: the runtime finalizes it like
// any Value-tagged object.
func (st *State) ctorCandidate(u *Usertype, ctor any, meta *lashvm.Meta) (*candidate, error) {
	inner, err := newCandidate(reflect.ValueOf(ctor))
	if err != nil {
		return nil, err
	}
	numOut := inner.fnType.NumOut()
	if inner.errorIndex >= 0 {
		numOut--
	}
	if numOut != 1 {
		return nil, typeMismatch("constructor for %s must return one value", u.name)
	}
	produced := inner.fnType.Out(0)
	if produced != u.typ && produced != reflect.PointerTo(u.typ) {
		return nil, typeMismatch("constructor for %s returns %s", u.name, produced)
	}

	fin := u.ondrop
	if fin == nil {
		fin = dropPayload
	}

	boxed := reflect.MakeFunc(
		reflect.FuncOf(inner.inTypes, []reflect.Type{userdataType, errorType}, inner.isVariadic),
		func(in []reflect.Value) []reflect.Value {
			outs, err := inner.call(in)
			if err != nil {
				return []reflect.Value{
					reflect.Zero(userdataType),
					reflect.ValueOf(&err).Elem(),
				}
			}
			out := outs[0]
			var payload any
			if out.Kind() == reflect.Pointer {
				payload = out.Interface()
			} else {
				copied := reflect.New(out.Type())
				copied.Elem().Set(out)
				payload = copied.Interface()
			}
			ud := st.vm.NewUserdata(payload, meta, fin)
			return []reflect.Value{reflect.ValueOf(ud), reflect.Zero(errorType)}
		},
	)
	return newCandidate(boxed)
}

// payloadStruct returns the addressable struct a userdata payload points
// at.
func payloadStruct(ud *lashvm.Userdata) (reflect.Value, error) {
	rv := reflect.ValueOf(ud.Value)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, lashvm.Raise("%s is not a struct-backed userdata", lashvm.ToString(ud))
	}
	return rv.Elem(), nil
}
