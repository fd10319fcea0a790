// Package compiler implements Nilan's single-pass compiler: a
// recursive-descent parser for statements and a Pratt (precedence
// climbing) parser for expressions that emit bytecode.Op instructions
// directly as they parse. No AST is ever materialized; scope and
// upvalue questions are resolved while the enclosing function is still
// being parsed, the same way the reference compiler this is grounded
// on does it.
package compiler

import (
	"loxvm/bytecode"
	"loxvm/lexer"
	"loxvm/token"
	"loxvm/vm"
)

// Precedence levels for the expression grammar, lowest to highest. A
// rule's infix precedence gates whether parsePrecedence consumes it:
// it keeps going while the next token's precedence is >= the minimum
// the caller asked for.
type Precedence int

const (
	PrecNone Precedence = iota
	PrecAssignment
	PrecOr
	PrecAnd
	PrecEquality
	PrecComparison
	PrecTerm
	PrecFactor
	PrecUnary
	PrecCall
	PrecPrimary
)

// parseFn is a Pratt rule action: either a prefix rule (invoked with
// no left-hand side yet) or an infix rule (invoked with one already on
// the value stack the chunk being built will produce).
type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

// funcType distinguishes the four shapes a compiled function body can
// take; it controls the fall-off-the-end return and the legality of
// `this`/`return value`.
type funcType int

const (
	typeFunction funcType = iota
	typeMethod
	typeInitializer
	typeScript
)

// localVar is one entry in a function compiler's local-variable
// stack. depth == -1 means "declared but not yet initialized" (between
// binding the name and compiling its initializer).
type localVar struct {
	name       string
	depth      int
	isCaptured bool
}

// upvalueRef mirrors vm.UpvalueDesc during compilation; it is
// converted verbatim into the function template's upvalue list.
type upvalueRef struct {
	index   int
	isLocal bool
}

// funcCompiler holds the state private to compiling one function body:
// its own chunk, its locals, its upvalues, and a link to the compiler
// for the lexically enclosing function (nil for the top-level script).
type funcCompiler struct {
	enclosing *funcCompiler

	kind   funcType
	name   string
	arity  int
	chunk  bytecode.Chunk
	locals []localVar
	depth  int

	upvalues []upvalueRef
}

func newFuncCompiler(enclosing *funcCompiler, kind funcType, name string) *funcCompiler {
	fc := &funcCompiler{enclosing: enclosing, kind: kind, name: name}
	// Slot 0 is reserved: the receiver for methods/initializers, the
	// callee itself (inaccessible) for plain functions and the script.
	slotName := ""
	if kind == typeMethod || kind == typeInitializer {
		slotName = "this"
	}
	fc.locals = append(fc.locals, localVar{name: slotName, depth: 0})
	return fc
}

// classCompiler tracks nested class-body compilation, needed so
// `this`/`super` can be validated and so a superclass's synthetic
// `super` local can be resolved as an upvalue from inside a method.
type classCompiler struct {
	enclosing     *classCompiler
	hasSuperclass bool
}

// Compiler drives a single Compile call: one parser over one token
// stream, one chain of funcCompilers (innermost = current), and one
// chain of classCompilers (innermost = current).
type Compiler struct {
	lex     *lexer.Lexer
	gc      *vm.GC
	current token.Token
	prev    token.Token

	hadError  bool
	panicMode bool
	errors    []error

	fc    *funcCompiler
	class *classCompiler

	// pinned holds every string/function handle this Compile call has
	// allocated through internString/endCompiler; handles are never
	// removed, so each stays pinned for the rest of the call. This
	// covers the window between gc.Intern/gc.NewFunction returning and
	// the caller storing the handle away. markRoots marks these
	// directly, in addition to walking the funcCompiler chain's
	// constant pools.
	pinned []int32

	rules map[token.TokenType]parseRule
}

// Compile compiles source into a top-level function template (the
// implicit "script" function, arity 0, slot 0 unused) ready to be
// wrapped in a closure and run by a vm.VM. On a compile error it
// returns every diagnostic collected (the parser synchronizes and
// keeps going after the first one) and a -1 handle.
func Compile(source string, gc *vm.GC) (int32, []error) {
	c := &Compiler{lex: lexer.New(source), gc: gc}
	c.fc = newFuncCompiler(nil, typeScript, "")
	c.buildRules()

	// Compilation allocates (interned identifiers, nested function
	// templates) long before a VM exists to root the value stack or
	// frames, so it registers its own root source for the duration of
	// the call. Without this, running under GC.Stress sweeps away
	// already-interned constants and already-compiled nested functions
	// mid-compile.
	gc.PushRootSource(c.markRoots)
	defer gc.PopRootSource()

	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}
	c.consume(token.EOF, "Expect end of expression.")

	fn := c.endCompiler()
	if c.hadError {
		return -1, c.errors
	}
	return fn, nil
}

// endCompiler emits the implicit trailing return, installs the
// function's name and upvalue descriptors in a GC-owned Function
// template, and pops back to the enclosing funcCompiler (if any).
func (c *Compiler) endCompiler() int32 {
	c.emitReturn()

	nameHandle := int32(-1)
	if c.fc.name != "" {
		nameHandle = c.internString(c.fc.name)
	}
	upvalues := make([]vm.UpvalueDesc, len(c.fc.upvalues))
	for i, u := range c.fc.upvalues {
		upvalues[i] = vm.UpvalueDesc{Index: u.index, IsLocal: u.isLocal}
	}
	h := c.gc.NewFunction(c.fc.arity, c.fc.chunk, nameHandle, upvalues)
	c.pinned = append(c.pinned, h)
	c.fc = c.fc.enclosing
	return h
}

// internString interns s and pins the resulting handle for the rest of
// the Compile call. The caller always stores the handle into a constant pool
// or a function template within the next instruction or two, but that
// window is itself enough for a Stress-mode collection to run.
func (c *Compiler) internString(s string) int32 {
	h := c.gc.Intern(s)
	c.pinned = append(c.pinned, h)
	return h
}

// markRoots is registered with the GC for the duration of Compile. It
// marks every constant already emitted into the current function and
// every enclosing one still being compiled, plus every handle pinned
// so far in this Compile call, so nothing Compile has already built gets
// swept out from under it before Interpret ever runs.
func (c *Compiler) markRoots() {
	for fc := c.fc; fc != nil; fc = fc.enclosing {
		for _, v := range fc.chunk.Constants {
			c.gc.MarkValue(v)
		}
	}
	for _, h := range c.pinned {
		c.gc.Mark(h)
	}
}

// ---- token stream plumbing ----

func (c *Compiler) advance() {
	c.prev = c.current
	for {
		c.current = c.lex.Next()
		if c.current.TokenType != token.ERROR {
			return
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) check(tt token.TokenType) bool {
	return c.current.TokenType == tt
}

func (c *Compiler) match(tt token.TokenType) bool {
	if !c.check(tt) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(tt token.TokenType, message string) {
	if c.current.TokenType == tt {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

func (c *Compiler) errorAtCurrent(message string) { c.errorAt(c.current, message) }
func (c *Compiler) error(message string)          { c.errorAt(c.prev, message) }

func (c *Compiler) errorAt(tok token.Token, message string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true
	c.errors = append(c.errors, CompileError{Line: tok.Line, Message: message})
}

// synchronize discards tokens until it finds one that plausibly starts
// a new statement, so one diagnostic per real mistake is reported
// instead of a cascade of follow-on parse errors.
func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.TokenType != token.EOF {
		if c.prev.TokenType == token.SEMICOLON {
			return
		}
		switch c.current.TokenType {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		c.advance()
	}
}

// ---- byte emission ----

func (c *Compiler) chunk() *bytecode.Chunk { return &c.fc.chunk }

func (c *Compiler) emitByte(b byte) { c.chunk().Write(b, c.prev.Line) }

func (c *Compiler) emitOp(op bytecode.Op) { c.chunk().WriteOp(op, c.prev.Line) }

func (c *Compiler) emitOps(op1, op2 bytecode.Op) {
	c.emitOp(op1)
	c.emitOp(op2)
}

func (c *Compiler) emitOpByte(op bytecode.Op, b byte) {
	c.emitOp(op)
	c.emitByte(b)
}

func (c *Compiler) emitConstant(v bytecode.Value) {
	idx := c.makeConstant(v)
	c.emitOpByte(bytecode.OP_CONSTANT, idx)
}

func (c *Compiler) makeConstant(v bytecode.Value) byte {
	idx := c.chunk().AddConstant(v)
	if idx > 255 {
		c.error("Too many constants in one chunk.")
		return 0
	}
	return byte(idx)
}

func (c *Compiler) identifierConstant(name string) byte {
	return c.makeConstant(bytecode.HandleValue(bytecode.KindString, c.internString(name)))
}

// emitJump emits op followed by a two-byte placeholder operand and
// returns the offset of that placeholder for a later patchJump.
func (c *Compiler) emitJump(op bytecode.Op) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.chunk().Code) - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := len(c.chunk().Code) - offset - 2
	if jump > 0xffff {
		c.error("Too much code to jump over.")
		return
	}
	c.chunk().Code[offset] = byte(jump >> 8)
	c.chunk().Code[offset+1] = byte(jump)
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(bytecode.OP_LOOP)
	offset := len(c.chunk().Code) - loopStart + 2
	if offset > 0xffff {
		c.error("Loop body too large.")
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset))
}

func (c *Compiler) emitReturn() {
	if c.fc.kind == typeInitializer {
		c.emitOpByte(bytecode.OP_GET_LOCAL, 0)
	} else {
		c.emitOp(bytecode.OP_NIL)
	}
	c.emitOp(bytecode.OP_RETURN)
}
