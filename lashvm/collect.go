package lashvm

// Collect runs a mark/sweep pass over everything reachable from the
// globals, the registry, and the operand stack, then finalizes and
// forgets unreachable host objects. Userdata payloads are opaque: the
// collector does not look inside them.
func (v *VM) Collect() {
	for _, ud := range v.objects {
		ud.marked = false
	}

	v.markValue(v.globals)
	for _, e := range v.registry.entries {
		if e.valid {
			v.markValue(e.value)
		}
	}
	for i := 0; i < v.sp; i++ {
		v.markValue(v.stack[i])
	}
	for _, up := range v.upvalues {
		v.markValue(up)
	}

	live := v.objects[:0]
	for _, ud := range v.objects {
		if ud.marked {
			live = append(live, ud)
		} else {
			ud.finalize()
		}
	}
	for i := len(live); i < len(v.objects); i++ {
		v.objects[i] = nil
	}
	v.objects = live
}

func (v *VM) markValue(val any) {
	switch x := val.(type) {
	case *Table:
		// Tables can be self-referential.
		v.markTable(x, make(map[*Table]bool))
	case *Native:
		for _, up := range x.Upvalues {
			v.markValue(up)
		}
	case *Userdata:
		x.marked = true
	}
}

func (v *VM) markTable(t *Table, seen map[*Table]bool) {
	if t == nil || seen[t] {
		return
	}
	seen[t] = true
	for k, val := range t.hash {
		v.markInto(k, seen)
		v.markInto(val, seen)
	}
}

func (v *VM) markInto(val any, seen map[*Table]bool) {
	switch x := val.(type) {
	case *Table:
		v.markTable(x, seen)
	case *Native:
		for _, up := range x.Upvalues {
			v.markInto(up, seen)
		}
	case *Userdata:
		x.marked = true
	}
}

// Close finalizes every still-live host object and clears the VM. The
// handle must not be used afterwards.
func (v *VM) Close() {
	// Reverse creation order, matching destruction of a scope.
	for i := len(v.objects) - 1; i >= 0; i-- {
		v.objects[i].finalize()
		v.objects[i] = nil
	}
	v.objects = nil
	v.registry = registry{}
	v.globals = NewTable()
	for i := range v.sp {
		v.stack[i] = nil
	}
	v.sp = 0
	v.base = 0
	v.upvalues = nil
}
