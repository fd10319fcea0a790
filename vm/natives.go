package vm

import (
	"fmt"
	"strings"
	"time"

	"loxvm/bytecode"
)

func (vm *VM) defineNative(name string, fn bytecode.NativeFn) {
	h := vm.GC.Intern(name)
	vm.Globals[h] = bytecode.Native(fn)
}

// registerNatives installs the builtins every Lox program can call
// without an import: process timing, a fatal panic, type predicates,
// n-ary min/max, and a same-class instanceof check.
func registerNatives(vm *VM) {
	vm.defineNative("clock", func(args []bytecode.Value) (bytecode.Value, error) {
		return bytecode.Number(time.Since(vm.startTime).Seconds()), nil
	})

	vm.defineNative("panic", func(args []bytecode.Value) (bytecode.Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = vm.GC.Stringify(a)
		}
		return bytecode.Nil, fmt.Errorf("%s", strings.Join(parts, " "))
	})

	vm.defineNative("isBool", typePredicate(bytecode.KindBool))
	vm.defineNative("isClass", typePredicate(bytecode.KindClass))
	vm.defineNative("isClosure", typePredicate(bytecode.KindClosure))
	vm.defineNative("isFunction", typePredicate(bytecode.KindFunction))
	vm.defineNative("isInstance", typePredicate(bytecode.KindInstance))
	vm.defineNative("isNil", typePredicate(bytecode.KindNil))
	vm.defineNative("isNumber", typePredicate(bytecode.KindNumber))
	vm.defineNative("isString", typePredicate(bytecode.KindString))

	vm.defineNative("min", extremumNative(false))
	vm.defineNative("max", extremumNative(true))

	vm.defineNative("instanceof", func(args []bytecode.Value) (bytecode.Value, error) {
		if len(args) != 2 || args[0].Kind != bytecode.KindInstance || args[1].Kind != bytecode.KindClass {
			return bytecode.Nil, fmt.Errorf("instanceof expects (instance, class)")
		}
		inst := vm.GC.Instance(args[0].Handle)
		return bytecode.Bool_(inst.ClassHandle == args[1].Handle), nil
	})
}

func typePredicate(kind bytecode.Kind) bytecode.NativeFn {
	return func(args []bytecode.Value) (bytecode.Value, error) {
		if len(args) != 1 {
			return bytecode.Nil, fmt.Errorf("expected exactly 1 argument")
		}
		return bytecode.Bool_(args[0].Kind == kind), nil
	}
}

func extremumNative(wantMax bool) bytecode.NativeFn {
	return func(args []bytecode.Value) (bytecode.Value, error) {
		if len(args) == 0 {
			return bytecode.Nil, fmt.Errorf("expected at least 1 argument")
		}
		best := args[0]
		if best.Kind != bytecode.KindNumber {
			return bytecode.Nil, fmt.Errorf("arguments must be numbers")
		}
		for _, a := range args[1:] {
			if a.Kind != bytecode.KindNumber {
				return bytecode.Nil, fmt.Errorf("arguments must be numbers")
			}
			if (wantMax && a.Number > best.Number) || (!wantMax && a.Number < best.Number) {
				best = a
			}
		}
		return best, nil
	}
}
