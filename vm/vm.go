// Package vm implements the stack-based virtual machine: the heap
// (objects plus the tracing garbage collector), call frames, and the
// instruction dispatch loop that runs compiled chunks.
package vm

import (
	"fmt"
	"io"
	"strings"
	"time"

	"loxvm/bytecode"
)

const maxFrames = 512

// CallFrame is one activation record: a closure, an instruction
// pointer into that closure's function chunk, and the stack-slot base
// where the frame's locals begin on the shared value stack.
type CallFrame struct {
	Closure int32
	IP      int
	Slot    int
}

// VM owns the entire runtime: the value stack, the frame stack, the
// global-variable table, the open-upvalue list, and the GC heap. It is
// not safe to share a VM across goroutines.
type VM struct {
	GC           *GC
	Stack        []bytecode.Value
	Frames       []CallFrame
	Globals      map[int32]bytecode.Value
	OpenUpvalues []int32
	InitHandle   int32
	Debug        bool
	Out          io.Writer

	startTime time.Time
}

// New returns a VM ready to Interpret compiled functions, with the
// standard native functions already installed in its global table.
func New(out io.Writer) *VM {
	vm := &VM{
		GC:        NewGC(),
		Globals:   make(map[int32]bytecode.Value),
		Out:       out,
		startTime: time.Now(),
	}
	vm.GC.MarkRoots = vm.markRoots
	vm.InitHandle = vm.GC.Intern("init")
	registerNatives(vm)
	return vm
}

func (vm *VM) markRoots() {
	for _, v := range vm.Stack {
		vm.GC.MarkValue(v)
	}
	for _, f := range vm.Frames {
		vm.GC.Mark(f.Closure)
	}
	for _, h := range vm.OpenUpvalues {
		vm.GC.Mark(h)
	}
	for k, v := range vm.Globals {
		vm.GC.Mark(k)
		vm.GC.MarkValue(v)
	}
	vm.GC.Mark(vm.InitHandle)
}

func (vm *VM) push(v bytecode.Value) { vm.Stack = append(vm.Stack, v) }

func (vm *VM) pop() bytecode.Value {
	n := len(vm.Stack) - 1
	v := vm.Stack[n]
	vm.Stack = vm.Stack[:n]
	return v
}

func (vm *VM) peek(distance int) bytecode.Value {
	return vm.Stack[len(vm.Stack)-1-distance]
}

func (vm *VM) pushString(s string) {
	vm.push(bytecode.HandleValue(bytecode.KindString, vm.GC.Intern(s)))
}

// Interpret runs the top-level function produced by compiling a
// source file: it wraps it in a closure, pushes the initial frame, and
// drives the dispatch loop to completion.
func (vm *VM) Interpret(functionHandle int32) error {
	// The function is kept on the stack while its closure is allocated,
	// so a collection triggered by that allocation still sees it.
	vm.push(bytecode.HandleValue(bytecode.KindFunction, functionHandle))
	closureHandle := vm.GC.NewClosure(functionHandle, nil)
	vm.pop()
	vm.push(bytecode.HandleValue(bytecode.KindClosure, closureHandle))
	if err := vm.call(closureHandle, 0); err != nil {
		vm.Stack = vm.Stack[:0]
		return err
	}
	if err := vm.run(); err != nil {
		vm.Stack = vm.Stack[:0]
		vm.Frames = vm.Frames[:0]
		vm.OpenUpvalues = nil
		return err
	}
	return nil
}

func (vm *VM) runtimeError(format string, args ...any) *RuntimeError {
	msg := fmt.Sprintf(format, args...)
	trace := make([]string, 0, len(vm.Frames))
	for i := len(vm.Frames) - 1; i >= 0; i-- {
		f := vm.Frames[i]
		closure := vm.GC.Closure(f.Closure)
		fn := vm.GC.Function(closure.FunctionHandle)
		line := fn.Chunk.GetLine(f.IP - 1)
		name := "<script>"
		if fn.NameHandle >= 0 {
			name = vm.GC.String(fn.NameHandle).Chars
		}
		trace = append(trace, fmt.Sprintf("[line %d] in %s", line, name))
	}
	return &RuntimeError{Message: msg, Trace: trace}
}

func readUint16(code []byte, ip int) uint16 {
	return uint16(code[ip])<<8 | uint16(code[ip+1])
}

func (vm *VM) run() error {
	for {
		frame := &vm.Frames[len(vm.Frames)-1]
		closure := vm.GC.Closure(frame.Closure)
		fn := vm.GC.Function(closure.FunctionHandle)
		chunk := &fn.Chunk

		if vm.Debug {
			vm.traceStack()
			line, _ := bytecode.DisassembleInstruction(chunk, frame.IP, vm.GC.ValueStringer())
			fmt.Fprint(vm.Out, line)
		}

		op := bytecode.Op(chunk.Code[frame.IP])
		frame.IP++

		var err error
		switch op {
		case bytecode.OP_CONSTANT:
			idx := chunk.Code[frame.IP]
			frame.IP++
			vm.push(chunk.Constants[idx])

		case bytecode.OP_NIL:
			vm.push(bytecode.Nil)
		case bytecode.OP_TRUE:
			vm.push(bytecode.Bool_(true))
		case bytecode.OP_FALSE:
			vm.push(bytecode.Bool_(false))
		case bytecode.OP_POP:
			vm.pop()

		case bytecode.OP_GET_LOCAL:
			slot := int(chunk.Code[frame.IP])
			frame.IP++
			vm.push(vm.Stack[frame.Slot+slot])
		case bytecode.OP_SET_LOCAL:
			slot := int(chunk.Code[frame.IP])
			frame.IP++
			vm.Stack[frame.Slot+slot] = vm.peek(0)

		case bytecode.OP_GET_GLOBAL:
			idx := chunk.Code[frame.IP]
			frame.IP++
			name := chunk.Constants[idx].Handle
			v, ok := vm.Globals[name]
			if !ok {
				err = vm.runtimeError("Undefined variable '%s'.", vm.GC.String(name).Chars)
				break
			}
			vm.push(v)
		case bytecode.OP_DEFINE_GLOBAL:
			idx := chunk.Code[frame.IP]
			frame.IP++
			name := chunk.Constants[idx].Handle
			vm.Globals[name] = vm.pop()
		case bytecode.OP_SET_GLOBAL:
			idx := chunk.Code[frame.IP]
			frame.IP++
			name := chunk.Constants[idx].Handle
			if _, ok := vm.Globals[name]; !ok {
				err = vm.runtimeError("Undefined variable '%s'.", vm.GC.String(name).Chars)
				break
			}
			vm.Globals[name] = vm.peek(0)

		case bytecode.OP_GET_UPVALUE:
			slot := int(chunk.Code[frame.IP])
			frame.IP++
			vm.push(vm.readUpvalue(closure.Upvalues[slot]))
		case bytecode.OP_SET_UPVALUE:
			slot := int(chunk.Code[frame.IP])
			frame.IP++
			vm.writeUpvalue(closure.Upvalues[slot], vm.peek(0))

		case bytecode.OP_GET_PROPERTY:
			idx := chunk.Code[frame.IP]
			frame.IP++
			err = vm.getProperty(chunk.Constants[idx].Handle)
		case bytecode.OP_SET_PROPERTY:
			idx := chunk.Code[frame.IP]
			frame.IP++
			err = vm.setProperty(chunk.Constants[idx].Handle)
		case bytecode.OP_GET_SUPER:
			idx := chunk.Code[frame.IP]
			frame.IP++
			err = vm.getSuper(chunk.Constants[idx].Handle)

		case bytecode.OP_EQUAL:
			b, a := vm.pop(), vm.pop()
			vm.push(bytecode.Bool_(bytecode.Equal(a, b)))
		case bytecode.OP_GREATER:
			err = vm.compare(op)
		case bytecode.OP_LESS:
			err = vm.compare(op)
		case bytecode.OP_ADD:
			err = vm.add()
		case bytecode.OP_SUBTRACT, bytecode.OP_MULTIPLY, bytecode.OP_DIVIDE:
			err = vm.arith(op)
		case bytecode.OP_MODULO:
			err = vm.modulo()
		case bytecode.OP_NOT:
			vm.push(bytecode.Bool_(bytecode.IsFalsey(vm.pop())))
		case bytecode.OP_NEGATE:
			v := vm.pop()
			if v.Kind != bytecode.KindNumber {
				err = vm.runtimeError("Operand must be a number.")
				break
			}
			vm.push(bytecode.Number(-v.Number))

		case bytecode.OP_PRINT:
			fmt.Fprintln(vm.Out, vm.GC.Stringify(vm.pop()))

		case bytecode.OP_JUMP:
			offset := readUint16(chunk.Code, frame.IP)
			frame.IP += 2 + int(offset)
		case bytecode.OP_JUMP_IF_FALSE:
			offset := readUint16(chunk.Code, frame.IP)
			frame.IP += 2
			if bytecode.IsFalsey(vm.peek(0)) {
				frame.IP += int(offset)
			}
		case bytecode.OP_LOOP:
			offset := readUint16(chunk.Code, frame.IP)
			frame.IP += 2 - int(offset)

		case bytecode.OP_CALL:
			argc := int(chunk.Code[frame.IP])
			frame.IP++
			err = vm.callValue(vm.peek(argc), argc)
		case bytecode.OP_INVOKE:
			idx := chunk.Code[frame.IP]
			argc := int(chunk.Code[frame.IP+1])
			frame.IP += 2
			err = vm.invoke(chunk.Constants[idx].Handle, argc)
		case bytecode.OP_SUPER_INVOKE:
			idx := chunk.Code[frame.IP]
			argc := int(chunk.Code[frame.IP+1])
			frame.IP += 2
			superclass := vm.pop()
			err = vm.invokeFromClass(superclass.Handle, chunk.Constants[idx].Handle, argc)

		case bytecode.OP_CLOSURE:
			idx := chunk.Code[frame.IP]
			frame.IP++
			fnVal := chunk.Constants[idx]
			upvalueCount := int(chunk.Code[frame.IP])
			frame.IP++
			upvalues := make([]int32, upvalueCount)
			for i := 0; i < upvalueCount; i++ {
				isLocal := chunk.Code[frame.IP]
				index := int(chunk.Code[frame.IP+1])
				frame.IP += 2
				if isLocal != 0 {
					upvalues[i] = vm.captureUpvalue(frame.Slot + index)
				} else {
					upvalues[i] = closure.Upvalues[index]
				}
			}
			h := vm.GC.NewClosure(fnVal.Handle, upvalues)
			vm.push(bytecode.HandleValue(bytecode.KindClosure, h))
		case bytecode.OP_CLOSE_UPVALUE:
			vm.closeUpvalues(len(vm.Stack) - 1)
			vm.pop()

		case bytecode.OP_RETURN:
			result := vm.pop()
			vm.closeUpvalues(frame.Slot)
			vm.Frames = vm.Frames[:len(vm.Frames)-1]
			vm.Stack = vm.Stack[:frame.Slot]
			if len(vm.Frames) == 0 {
				return nil
			}
			vm.push(result)

		case bytecode.OP_CLASS:
			idx := chunk.Code[frame.IP]
			frame.IP++
			name := chunk.Constants[idx].Handle
			h := vm.GC.NewClass(name)
			vm.push(bytecode.HandleValue(bytecode.KindClass, h))
		case bytecode.OP_INHERIT:
			superVal := vm.peek(1)
			if superVal.Kind != bytecode.KindClass {
				err = vm.runtimeError("Superclass must be a class.")
				break
			}
			subVal := vm.peek(0)
			super := vm.GC.Class(superVal.Handle)
			sub := vm.GC.Class(subVal.Handle)
			for name, method := range super.Methods {
				sub.Methods[name] = method
			}
			vm.pop()
		case bytecode.OP_METHOD:
			idx := chunk.Code[frame.IP]
			frame.IP++
			name := chunk.Constants[idx].Handle
			method := vm.pop()
			class := vm.GC.Class(vm.peek(0).Handle)
			class.Methods[name] = method

		case bytecode.OP_ARRAY:
			n := int(chunk.Code[frame.IP])
			frame.IP++
			elems := make([]bytecode.Value, n)
			copy(elems, vm.Stack[len(vm.Stack)-n:])
			vm.Stack = vm.Stack[:len(vm.Stack)-n]
			h := vm.GC.NewArray(elems)
			vm.push(bytecode.HandleValue(bytecode.KindArray, h))
		case bytecode.OP_INDEX_GET:
			err = vm.indexGet()
		case bytecode.OP_INDEX_SET:
			err = vm.indexSet()

		default:
			err = vm.runtimeError("unknown opcode %v", op)
		}

		if err != nil {
			return err
		}
	}
}

func (vm *VM) traceStack() {
	parts := make([]string, len(vm.Stack))
	for i, v := range vm.Stack {
		parts[i] = vm.GC.Stringify(v)
	}
	fmt.Fprintf(vm.Out, "          [ %s ]\n", strings.Join(parts, ", "))
}

func (vm *VM) add() error {
	b, a := vm.peek(0), vm.peek(1)
	switch {
	case a.Kind == bytecode.KindNumber && b.Kind == bytecode.KindNumber:
		vm.pop()
		vm.pop()
		vm.push(bytecode.Number(a.Number + b.Number))
	case a.Kind == bytecode.KindString && b.Kind == bytecode.KindString:
		vm.pop()
		vm.pop()
		vm.pushString(vm.GC.String(a.Handle).Chars + vm.GC.String(b.Handle).Chars)
	case a.Kind == bytecode.KindString && b.Kind == bytecode.KindNumber:
		vm.pop()
		vm.pop()
		vm.pushString(vm.GC.String(a.Handle).Chars + formatNumber(b.Number))
	case a.Kind == bytecode.KindNumber && b.Kind == bytecode.KindString:
		vm.pop()
		vm.pop()
		vm.pushString(formatNumber(a.Number) + vm.GC.String(b.Handle).Chars)
	case a.Kind == bytecode.KindArray && b.Kind == bytecode.KindArray:
		vm.pop()
		vm.pop()
		left := vm.GC.Array(a.Handle).Elements
		right := vm.GC.Array(b.Handle).Elements
		combined := make([]bytecode.Value, 0, len(left)+len(right))
		combined = append(combined, left...)
		combined = append(combined, right...)
		h := vm.GC.NewArray(combined)
		vm.push(bytecode.HandleValue(bytecode.KindArray, h))
	default:
		return vm.runtimeError("Operands must be two numbers, two strings, two arrays, or a string and a number.")
	}
	return nil
}

func (vm *VM) arith(op bytecode.Op) error {
	b, a := vm.pop(), vm.pop()
	if a.Kind != bytecode.KindNumber || b.Kind != bytecode.KindNumber {
		return vm.runtimeError("Operands must be numbers.")
	}
	var r float64
	switch op {
	case bytecode.OP_SUBTRACT:
		r = a.Number - b.Number
	case bytecode.OP_MULTIPLY:
		r = a.Number * b.Number
	case bytecode.OP_DIVIDE:
		r = a.Number / b.Number
	}
	vm.push(bytecode.Number(r))
	return nil
}

func (vm *VM) compare(op bytecode.Op) error {
	b, a := vm.pop(), vm.pop()
	var result bool
	switch {
	case a.Kind == bytecode.KindNumber && b.Kind == bytecode.KindNumber:
		if op == bytecode.OP_GREATER {
			result = a.Number > b.Number
		} else {
			result = a.Number < b.Number
		}
	case a.Kind == bytecode.KindString && b.Kind == bytecode.KindString:
		as, bs := vm.GC.String(a.Handle).Chars, vm.GC.String(b.Handle).Chars
		if op == bytecode.OP_GREATER {
			result = as > bs
		} else {
			result = as < bs
		}
	default:
		return vm.runtimeError("Operands must be two numbers or two strings.")
	}
	vm.push(bytecode.Bool_(result))
	return nil
}
