package vm

import (
	"fmt"
	"math"
	"unicode/utf8"

	"loxvm/bytecode"
)

// primitiveMethod resolves method-style natives on the non-instance
// value kinds that carry them: strings, numbers, and arrays. It
// returns a bound native (the receiver already captured by closure)
// so both the INVOKE fast path and the plain GET_PROPERTY fallback
// can share the lookup.
func (vm *VM) primitiveMethod(receiver bytecode.Value, name string) (bytecode.Value, bool) {
	switch receiver.Kind {
	case bytecode.KindString:
		return vm.stringMethod(receiver, name)
	case bytecode.KindNumber:
		return vm.numberMethod(receiver, name)
	case bytecode.KindArray:
		return vm.arrayMethod(receiver, name)
	default:
		return bytecode.Nil, false
	}
}

func (vm *VM) stringMethod(receiver bytecode.Value, name string) (bytecode.Value, bool) {
	s := vm.GC.String(receiver.Handle).Chars
	switch name {
	case "length":
		return bytecode.Native(func(args []bytecode.Value) (bytecode.Value, error) {
			return bytecode.Number(float64(utf8.RuneCountInString(s))), nil
		}), true
	}
	return bytecode.Nil, false
}

func (vm *VM) numberMethod(receiver bytecode.Value, name string) (bytecode.Value, bool) {
	n := receiver.Number
	switch name {
	case "sqrt":
		return bytecode.Native(func(args []bytecode.Value) (bytecode.Value, error) {
			return bytecode.Number(math.Sqrt(n)), nil
		}), true
	}
	return bytecode.Nil, false
}

func (vm *VM) arrayMethod(receiver bytecode.Value, name string) (bytecode.Value, bool) {
	handle := receiver.Handle
	switch name {
	case "length":
		return bytecode.Native(func(args []bytecode.Value) (bytecode.Value, error) {
			return bytecode.Number(float64(len(vm.GC.Array(handle).Elements))), nil
		}), true
	case "push":
		return bytecode.Native(func(args []bytecode.Value) (bytecode.Value, error) {
			if len(args) != 1 {
				return bytecode.Nil, fmt.Errorf("push expects exactly 1 argument")
			}
			arr := vm.GC.Array(handle)
			arr.Elements = append(arr.Elements, args[0])
			return bytecode.Nil, nil
		}), true
	}
	return bytecode.Nil, false
}
