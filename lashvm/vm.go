package lashvm

// VM is one runtime handle: a shared operand stack, a global table, a
// registry for persistent references, and the set of live host objects.
// A VM is single-threaded cooperative; nothing here locks.
type VM struct {
	stack []any
	sp    int
	base  int // frame base of the running native call; 0 at top level

	upvalues []any // upvalues of the running native call

	globals  *Table
	registry registry
	objects  []*Userdata
}

func NewVM() *VM {
	return &VM{
		stack:   make([]any, 1024),
		globals: NewTable(),
	}
}

// Globals returns the global table.
func (v *VM) Globals() *Table {
	return v.globals
}

// Top returns the number of slots in the current frame.
func (v *VM) Top() int {
	return v.sp - v.base
}

// SetTop truncates or nil-extends the current frame to n slots.
func (v *VM) SetTop(n int) {
	target := v.base + n
	for v.sp > target {
		v.sp--
		v.stack[v.sp] = nil
	}
	for v.sp < target {
		v.Push(nil)
	}
}

// abs converts a 1-based or negative (from the top) frame index into an
// absolute stack position, or -1 if out of range.
func (v *VM) abs(idx int) int {
	var pos int
	switch {
	case idx > 0:
		pos = v.base + idx - 1
	case idx < 0:
		pos = v.sp + idx
	default:
		return -1
	}
	if pos < v.base || pos >= v.sp {
		return -1
	}
	return pos
}

// Get reads the slot at idx without mutating the stack. Out-of-range
// indices read as nil, like absent values.
func (v *VM) Get(idx int) any {
	pos := v.abs(idx)
	if pos < 0 {
		return nil
	}
	return v.stack[pos]
}

// Set overwrites the slot at idx.
func (v *VM) Set(idx int, val any) {
	pos := v.abs(idx)
	if pos < 0 {
		return
	}
	v.stack[pos] = val
}

func (v *VM) Push(val any) {
	if v.sp >= len(v.stack) {
		v.growStack()
	}
	v.stack[v.sp] = val
	v.sp++
}

func (v *VM) growStack() {
	newCap := len(v.stack) * 2
	if newCap == 0 {
		newCap = 8
	}
	newStack := make([]any, newCap)
	copy(newStack, v.stack)
	v.stack = newStack
}

func (v *VM) Pop() any {
	if v.sp <= v.base {
		return nil
	}
	v.sp--
	val := v.stack[v.sp]
	v.stack[v.sp] = nil
	return val
}

// Drop removes the top n slots of the current frame.
func (v *VM) Drop(n int) {
	if n <= 0 {
		return
	}
	if n > v.sp-v.base {
		n = v.sp - v.base
	}
	start := v.sp - n
	for i := range n {
		v.stack[start+i] = nil
	}
	v.sp = start
}

// Upvalue reads one of the running native closure's upvalue slots.
func (v *VM) Upvalue(i int) any {
	if i < 0 || i >= len(v.upvalues) {
		return nil
	}
	return v.upvalues[i]
}
