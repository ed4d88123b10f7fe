package lashvm

// registry is the host-global persistent value store. Handles are small
// positive integers recycled through a free list. The VM is single
// threaded, so there is no locking here.
type registry struct {
	entries  []regEntry
	freeList []int
}

type regEntry struct {
	value any
	valid bool
}

// Ref stores val in the registry and returns its handle.
func (v *VM) Ref(val any) int {
	e := regEntry{value: val, valid: true}
	r := &v.registry
	if n := len(r.freeList); n > 0 {
		h := r.freeList[n-1]
		r.freeList = r.freeList[:n-1]
		r.entries[h-1] = e
		return h
	}
	r.entries = append(r.entries, e)
	return len(r.entries)
}

// RegistryGet reads the value stored under handle h.
func (v *VM) RegistryGet(h int) (any, bool) {
	if h <= 0 || h > len(v.registry.entries) {
		return nil, false
	}
	e := v.registry.entries[h-1]
	if !e.valid {
		return nil, false
	}
	return e.value, true
}

// Unref releases handle h. Releasing an already-released or unknown
// handle is a no-op.
func (v *VM) Unref(h int) {
	if h <= 0 || h > len(v.registry.entries) {
		return
	}
	e := &v.registry.entries[h-1]
	if !e.valid {
		return
	}
	e.value = nil
	e.valid = false
	v.registry.freeList = append(v.registry.freeList, h)
}
