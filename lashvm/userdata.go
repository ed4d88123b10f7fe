package lashvm

// Userdata boxes one host object inside the runtime. The payload is opaque
// to the VM; field access and stringification go through the metatable,
// and the finalizer (if any) runs exactly once when the object is
// collected or the VM closes.
type Userdata struct {
	Value any
	Meta  *Meta

	finalizer func(any)
	finalized bool
	marked    bool
}

// Meta is runtime-owned metadata shared by every instance of one exposed
// host type. It must stay valid independently of whatever built it.
type Meta struct {
	Name     string
	GetField func(vm *VM, ud *Userdata, key any) (any, error)
	SetField func(vm *VM, ud *Userdata, key, val any) error
	ToString func(ud *Userdata) string
}

// NewUserdata boxes value and registers it with the collector. finalizer
// may be nil for host objects the runtime must never destroy.
func (v *VM) NewUserdata(value any, meta *Meta, finalizer func(any)) *Userdata {
	ud := &Userdata{
		Value:     value,
		Meta:      meta,
		finalizer: finalizer,
	}
	v.objects = append(v.objects, ud)
	return ud
}

func (ud *Userdata) finalize() {
	if ud.finalized {
		return
	}
	ud.finalized = true
	if ud.finalizer != nil {
		ud.finalizer(ud.Value)
	}
}
