package lashvm

import "fmt"

// Native is a runtime-callable backed by a single Go entry point.
// Upvalues carry whatever state the entry point needs: a Native is
// self-contained and outlives the code path that created it.
//
// The calling convention mirrors the operand stack: when Fn runs, the
// frame holds exactly the call's arguments at indices 1..Top(); Fn pushes
// its results and returns how many of the topmost slots are results.
type Native struct {
	Name     string
	Upvalues []any
	Fn       func(vm *VM) (int, error)
}

func (n *Native) call(vm *VM, calleeIdx int) (int, error) {
	if n.Fn == nil {
		return 0, &ScriptError{Msg: fmt.Sprintf("native function %s is missing", n.Name)}
	}

	savedBase := vm.base
	savedUp := vm.upvalues
	vm.base = calleeIdx + 1
	vm.upvalues = n.Upvalues
	// Restore via defer so a panic escaping Fn (confined by PCall) does
	// not leave the VM pointing at the dead frame.
	defer func() {
		vm.base = savedBase
		vm.upvalues = savedUp
	}()

	nres, err := n.Fn(vm)

	if err != nil {
		// Unwind the whole call: callee, args, and anything Fn left behind.
		for i := calleeIdx; i < vm.sp; i++ {
			vm.stack[i] = nil
		}
		vm.sp = calleeIdx
		return 0, err
	}

	if nres < 0 {
		nres = 0
	}
	if max := vm.sp - (calleeIdx + 1); nres > max {
		nres = max
	}

	// Slide results down over the callee slot.
	resStart := vm.sp - nres
	copy(vm.stack[calleeIdx:], vm.stack[resStart:vm.sp])
	for i := calleeIdx + nres; i < vm.sp; i++ {
		vm.stack[i] = nil
	}
	vm.sp = calleeIdx + nres
	return nres, nil
}
