package vm

import (
	"math"

	"loxvm/bytecode"
)

func (vm *VM) callValue(callee bytecode.Value, argc int) error {
	switch callee.Kind {
	case bytecode.KindClosure:
		return vm.call(callee.Handle, argc)
	case bytecode.KindNative:
		args := vm.Stack[len(vm.Stack)-argc:]
		result, nativeErr := callee.Native(args)
		if nativeErr != nil {
			return vm.runtimeError("%s", nativeErr.Error())
		}
		vm.Stack = vm.Stack[:len(vm.Stack)-argc-1]
		vm.push(result)
		return nil
	case bytecode.KindClass:
		instHandle := vm.GC.NewInstance(callee.Handle)
		vm.Stack[len(vm.Stack)-argc-1] = bytecode.HandleValue(bytecode.KindInstance, instHandle)
		class := vm.GC.Class(callee.Handle)
		if init, ok := class.Methods[vm.InitHandle]; ok {
			return vm.call(init.Handle, argc)
		}
		if argc != 0 {
			return vm.runtimeError("Expected 0 arguments but got %d.", argc)
		}
		return nil
	case bytecode.KindBoundMethod:
		bm := vm.GC.BoundMethod(callee.Handle)
		vm.Stack[len(vm.Stack)-argc-1] = bm.Receiver
		return vm.call(bm.MethodHandle, argc)
	default:
		return vm.runtimeError("Can only call functions and classes.")
	}
}

func (vm *VM) call(closureHandle int32, argc int) error {
	closure := vm.GC.Closure(closureHandle)
	fn := vm.GC.Function(closure.FunctionHandle)
	if fn.Arity != argc {
		return vm.runtimeError("Expected %d arguments but got %d.", fn.Arity, argc)
	}
	if len(vm.Frames) >= maxFrames {
		return vm.runtimeError("Stack overflow.")
	}
	vm.Frames = append(vm.Frames, CallFrame{
		Closure: closureHandle,
		Slot:    len(vm.Stack) - argc - 1,
	})
	return nil
}

func (vm *VM) invoke(nameHandle int32, argc int) error {
	receiver := vm.peek(argc)
	if receiver.Kind != bytecode.KindInstance {
		if method, ok := vm.primitiveMethod(receiver, vm.GC.String(nameHandle).Chars); ok {
			vm.Stack[len(vm.Stack)-argc-1] = method
			return vm.callValue(method, argc)
		}
		return vm.runtimeError("Only instances have methods.")
	}
	inst := vm.GC.Instance(receiver.Handle)
	if field, ok := inst.Fields[nameHandle]; ok {
		vm.Stack[len(vm.Stack)-argc-1] = field
		return vm.callValue(field, argc)
	}
	return vm.invokeFromClass(inst.ClassHandle, nameHandle, argc)
}

func (vm *VM) invokeFromClass(classHandle, nameHandle int32, argc int) error {
	class := vm.GC.Class(classHandle)
	method, ok := class.Methods[nameHandle]
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", vm.GC.String(nameHandle).Chars)
	}
	return vm.call(method.Handle, argc)
}

func (vm *VM) getProperty(nameHandle int32) error {
	v := vm.pop()
	if v.Kind != bytecode.KindInstance {
		if method, ok := vm.primitiveMethod(v, vm.GC.String(nameHandle).Chars); ok {
			vm.push(method)
			return nil
		}
		return vm.runtimeError("Only instances have properties.")
	}
	inst := vm.GC.Instance(v.Handle)
	if field, ok := inst.Fields[nameHandle]; ok {
		vm.push(field)
		return nil
	}
	class := vm.GC.Class(inst.ClassHandle)
	method, ok := class.Methods[nameHandle]
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", vm.GC.String(nameHandle).Chars)
	}
	bound := vm.GC.NewBoundMethod(v, method.Handle)
	vm.push(bytecode.HandleValue(bytecode.KindBoundMethod, bound))
	return nil
}

func (vm *VM) setProperty(nameHandle int32) error {
	value := vm.pop()
	target := vm.pop()
	if target.Kind != bytecode.KindInstance {
		return vm.runtimeError("Only instances have fields.")
	}
	inst := vm.GC.Instance(target.Handle)
	inst.Fields[nameHandle] = value
	vm.push(value)
	return nil
}

func (vm *VM) getSuper(nameHandle int32) error {
	superVal := vm.pop()
	receiver := vm.pop()
	class := vm.GC.Class(superVal.Handle)
	method, ok := class.Methods[nameHandle]
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", vm.GC.String(nameHandle).Chars)
	}
	bound := vm.GC.NewBoundMethod(receiver, method.Handle)
	vm.push(bytecode.HandleValue(bytecode.KindBoundMethod, bound))
	return nil
}

func (vm *VM) indexGet() error {
	idxVal := vm.pop()
	arrVal := vm.pop()
	if arrVal.Kind != bytecode.KindArray {
		return vm.runtimeError("Can only index arrays.")
	}
	if idxVal.Kind != bytecode.KindNumber {
		return vm.runtimeError("Array index must be a number.")
	}
	arr := vm.GC.Array(arrVal.Handle)
	i := int(idxVal.Number)
	if i < 0 || i >= len(arr.Elements) {
		return vm.runtimeError("Array index out of bounds.")
	}
	vm.push(arr.Elements[i])
	return nil
}

func (vm *VM) indexSet() error {
	value := vm.pop()
	idxVal := vm.pop()
	arrVal := vm.pop()
	if arrVal.Kind != bytecode.KindArray {
		return vm.runtimeError("Can only index arrays.")
	}
	if idxVal.Kind != bytecode.KindNumber {
		return vm.runtimeError("Array index must be a number.")
	}
	arr := vm.GC.Array(arrVal.Handle)
	i := int(idxVal.Number)
	if i < 0 || i >= len(arr.Elements) {
		return vm.runtimeError("Array index out of bounds.")
	}
	arr.Elements[i] = value
	vm.push(value)
	return nil
}

func (vm *VM) modulo() error {
	b, a := vm.pop(), vm.pop()
	if a.Kind != bytecode.KindNumber || b.Kind != bytecode.KindNumber {
		return vm.runtimeError("Operands to '%%' must be numbers.")
	}
	if a.Number != math.Trunc(a.Number) || b.Number != math.Trunc(b.Number) {
		return vm.runtimeError("Operands to '%%' must be integer-valued.")
	}
	bi := int64(b.Number)
	if bi == 0 {
		return vm.runtimeError("Division by zero in '%%' operator.")
	}
	ai := int64(a.Number)
	vm.push(bytecode.Number(float64(ai % bi)))
	return nil
}

func (vm *VM) captureUpvalue(stackIndex int) int32 {
	for _, h := range vm.OpenUpvalues {
		if vm.GC.Upvalue(h).Location == stackIndex {
			return h
		}
	}
	h := vm.GC.NewUpvalue(stackIndex)
	vm.OpenUpvalues = append(vm.OpenUpvalues, h)
	return h
}

func (vm *VM) closeUpvalues(fromIndex int) {
	remaining := vm.OpenUpvalues[:0]
	for _, h := range vm.OpenUpvalues {
		uv := vm.GC.Upvalue(h)
		if uv.Location >= fromIndex {
			uv.Closed = vm.Stack[uv.Location]
			uv.Open = false
		} else {
			remaining = append(remaining, h)
		}
	}
	vm.OpenUpvalues = remaining
}

func (vm *VM) readUpvalue(h int32) bytecode.Value {
	uv := vm.GC.Upvalue(h)
	if uv.Open {
		return vm.Stack[uv.Location]
	}
	return uv.Closed
}

func (vm *VM) writeUpvalue(h int32, v bytecode.Value) {
	uv := vm.GC.Upvalue(h)
	if uv.Open {
		vm.Stack[uv.Location] = v
	} else {
		uv.Closed = v
	}
}
