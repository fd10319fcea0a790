package vm

import "loxvm/bytecode"

// heapObject is implemented by every variant the GC owns. trace marks
// every handle and Value the object directly references, feeding the
// GC's grey worklist during a collection cycle.
type heapObject interface {
	trace(gc *GC)
}

// UpvalueDesc describes, at the function-template level, how a
// closure's upvalue slot i is populated when a CLOSURE instruction
// runs: captured directly from the enclosing frame's locals (IsLocal)
// or copied from the enclosing closure's own upvalue list.
type UpvalueDesc struct {
	Index   int
	IsLocal bool
}

// StringObject is an immutable, interned byte sequence.
type StringObject struct {
	Chars string
}

func (s *StringObject) trace(gc *GC) {}

// FunctionObject is a compiled function template: its arity, its own
// bytecode chunk, an optional name (the top-level script has none),
// and the upvalue descriptors the compiler recorded for it.
type FunctionObject struct {
	Arity      int
	Chunk      bytecode.Chunk
	NameHandle int32 // -1 for the implicit top-level script
	Upvalues   []UpvalueDesc
}

func (f *FunctionObject) trace(gc *GC) {
	gc.Mark(f.NameHandle)
	for _, c := range f.Chunk.Constants {
		gc.MarkValue(c)
	}
}

// ClosureObject pairs a function template with the upvalue cells it
// captured at creation time.
type ClosureObject struct {
	FunctionHandle int32
	Upvalues       []int32
}

func (c *ClosureObject) trace(gc *GC) {
	gc.Mark(c.FunctionHandle)
	for _, u := range c.Upvalues {
		gc.Mark(u)
	}
}

// UpvalueObject is either OPEN (Location indexes the VM's value stack)
// or CLOSED (Closed holds the owned value). It transitions OPEN ->
// CLOSED exactly once, when its stack slot is about to leave scope.
type UpvalueObject struct {
	Open     bool
	Location int
	Closed   bytecode.Value
}

func (u *UpvalueObject) trace(gc *GC) {
	if !u.Open {
		gc.MarkValue(u.Closed)
	}
}

// ClassObject is a class's name plus its method table. Inheritance
// copies entries eagerly (see OP_INHERIT), so lookup at call time is
// always a single table hit.
type ClassObject struct {
	NameHandle int32
	Methods    map[int32]bytecode.Value
}

func (c *ClassObject) trace(gc *GC) {
	gc.Mark(c.NameHandle)
	for name, v := range c.Methods {
		gc.Mark(name)
		gc.MarkValue(v)
	}
}

// InstanceObject is a class handle plus a per-instance field table.
type InstanceObject struct {
	ClassHandle int32
	Fields      map[int32]bytecode.Value
}

func (i *InstanceObject) trace(gc *GC) {
	gc.Mark(i.ClassHandle)
	for name, v := range i.Fields {
		gc.Mark(name)
		gc.MarkValue(v)
	}
}

// BoundMethodObject pairs a receiver with the closure resolved for it,
// produced by a plain (non-fused) property load of a method.
type BoundMethodObject struct {
	Receiver     bytecode.Value
	MethodHandle int32
}

func (b *BoundMethodObject) trace(gc *GC) {
	gc.MarkValue(b.Receiver)
	gc.Mark(b.MethodHandle)
}

// ArrayObject is a growable sequence of values, backing `[e1, e2, …]`
// literals and the index get/set opcodes.
type ArrayObject struct {
	Elements []bytecode.Value
}

func (a *ArrayObject) trace(gc *GC) {
	for _, v := range a.Elements {
		gc.MarkValue(v)
	}
}
