package lashvm

import "testing"

func TestCollectUnreachable(t *testing.T) {
	vm := NewVM()
	var finalized int
	vm.NewUserdata("loose", nil, func(any) {
		finalized++
	})
	vm.Collect()
	if finalized != 1 {
		t.Fatalf("got %d", finalized)
	}
	// a second pass must not re-finalize
	vm.Collect()
	if finalized != 1 {
		t.Fatalf("got %d", finalized)
	}
}

func TestCollectRoots(t *testing.T) {
	vm := NewVM()
	var finalized int
	fin := func(any) { finalized++ }

	global := vm.NewUserdata("global", nil, fin)
	vm.Globals().Set("g", global)

	pinned := vm.NewUserdata("pinned", nil, fin)
	h := vm.Ref(pinned)

	onStack := vm.NewUserdata("stack", nil, fin)
	vm.Push(onStack)

	nested := vm.NewUserdata("nested", nil, fin)
	inner := NewTable()
	inner.Set("ud", nested)
	outer := NewTable()
	outer.Set("inner", inner)
	vm.Globals().Set("t", outer)

	captured := vm.NewUserdata("captured", nil, fin)
	vm.Globals().Set("fn", &Native{Upvalues: []any{captured}})

	vm.Collect()
	if finalized != 0 {
		t.Fatalf("finalized %d reachable objects", finalized)
	}

	// cut the roots one by one
	vm.Globals().Set("g", nil)
	vm.Collect()
	if finalized != 1 {
		t.Fatalf("got %d", finalized)
	}

	vm.Unref(h)
	vm.Collect()
	if finalized != 2 {
		t.Fatalf("got %d", finalized)
	}

	vm.Pop()
	vm.Collect()
	if finalized != 3 {
		t.Fatalf("got %d", finalized)
	}

	vm.Globals().Set("t", nil)
	vm.Globals().Set("fn", nil)
	vm.Collect()
	if finalized != 5 {
		t.Fatalf("got %d", finalized)
	}
}

func TestCollectCyclicTable(t *testing.T) {
	vm := NewVM()
	var finalized int
	ud := vm.NewUserdata("x", nil, func(any) { finalized++ })

	a := NewTable()
	b := NewTable()
	a.Set("b", b)
	b.Set("a", a)
	b.Set("ud", ud)
	vm.Globals().Set("a", a)

	vm.Collect()
	if finalized != 0 {
		t.Fatalf("got %d", finalized)
	}

	vm.Globals().Set("a", nil)
	vm.Collect()
	if finalized != 1 {
		t.Fatalf("got %d", finalized)
	}
}

func TestCloseFinalizesInReverse(t *testing.T) {
	vm := NewVM()
	var order []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		ud := vm.NewUserdata(name, nil, func(any) {
			order = append(order, name)
		})
		vm.Globals().Set(name, ud)
	}

	vm.Close()
	if len(order) != 3 {
		t.Fatalf("got %v", order)
	}
	if order[0] != "third" || order[2] != "first" {
		t.Fatalf("got %v", order)
	}
	if vm.Top() != 0 {
		t.Fatalf("got %d", vm.Top())
	}
	if vm.Globals().Len() != 0 {
		t.Fatalf("got %d", vm.Globals().Len())
	}
}

func TestCollectThenClose(t *testing.T) {
	vm := NewVM()
	var finalized int
	fin := func(any) { finalized++ }

	vm.NewUserdata("a", nil, fin)
	kept := vm.NewUserdata("b", nil, fin)
	vm.Globals().Set("b", kept)

	vm.Collect()
	if finalized != 1 {
		t.Fatalf("got %d", finalized)
	}
	vm.Close()
	if finalized != 2 {
		t.Fatalf("got %d", finalized)
	}
}
