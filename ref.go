package lash

// Ref is a persistent handle to a runtime value, kept alive through the
// registry so it outlives the stack frame that produced it. A Ref is
// released exactly once, by its own Release; nothing releases it
// implicitly.
type Ref struct {
	st       *State
	handle   int
	released bool
}

// RefOf marshals v and pins its runtime representation in the registry.
func (st *State) RefOf(v any) (*Ref, error) {
	val, err := st.canonical(v)
	if err != nil {
		return nil, err
	}
	return &Ref{st: st, handle: st.vm.Ref(val)}, nil
}

// RefAt pins the value currently in the slot at idx. The stack is not
// mutated.
func (st *State) RefAt(idx int) *Ref {
	return &Ref{st: st, handle: st.vm.Ref(st.vm.Get(idx))}
}

// GlobalRef pins the current value of a global.
func (st *State) GlobalRef(name string) *Ref {
	return &Ref{st: st, handle: st.vm.Ref(st.vm.Globals().Get(name))}
}

func (r *Ref) value() (any, error) {
	if r.released {
		return nil, typeMismatch("reference was already released")
	}
	v, ok := r.st.vm.RegistryGet(r.handle)
	if !ok {
		return nil, typeMismatch("reference handle %d is not in the registry", r.handle)
	}
	return v, nil
}

// Value reads the referenced runtime value.
func (r *Ref) Value() (any, error) {
	return r.value()
}

// Release drops the registry slot. Safe to call once; later calls are
// no-ops.
func (r *Ref) Release() {
	if r.released {
		return
	}
	r.released = true
	r.st.vm.Unref(r.handle)
}
