package compiler

import (
	"loxvm/bytecode"
	"loxvm/token"
)

func (c *Compiler) beginScope() { c.fc.depth++ }

// endScope pops every local declared in the scope being left. A local
// that was captured by a nested closure is released with
// CLOSE_UPVALUE (promoting it to the heap) instead of a plain POP.
func (c *Compiler) endScope() {
	c.fc.depth--
	for len(c.fc.locals) > 0 && c.fc.locals[len(c.fc.locals)-1].depth > c.fc.depth {
		last := c.fc.locals[len(c.fc.locals)-1]
		if last.isCaptured {
			c.emitOp(bytecode.OP_CLOSE_UPVALUE)
		} else {
			c.emitOp(bytecode.OP_POP)
		}
		c.fc.locals = c.fc.locals[:len(c.fc.locals)-1]
	}
}

// parseVariable consumes an identifier token and, for a global-scope
// binding, returns the constant-pool index of its name. For a local
// it declares the local and returns 0 (defineVariable ignores the
// index for locals).
func (c *Compiler) parseVariable(message string) byte {
	c.consume(token.IDENTIFIER, message)
	c.declareVariable()
	if c.fc.depth > 0 {
		return 0
	}
	return c.identifierConstant(c.prev.Lexeme)
}

// declareVariable adds the just-consumed identifier as a local in the
// current scope (a no-op at global scope, where binding happens via
// the globals table instead). Shadowing an outer scope's local is
// fine; redeclaring one in the *same* scope is a compile error.
func (c *Compiler) declareVariable() {
	if c.fc.depth == 0 {
		return
	}
	name := c.prev.Lexeme
	for i := len(c.fc.locals) - 1; i >= 0; i-- {
		local := c.fc.locals[i]
		if local.depth != -1 && local.depth < c.fc.depth {
			break
		}
		if local.name == name {
			c.error("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

func (c *Compiler) addLocal(name string) {
	if len(c.fc.locals) >= 256 {
		c.error("Too many local variables in function.")
		return
	}
	c.fc.locals = append(c.fc.locals, localVar{name: name, depth: -1})
}

// markInitialized sets the most recently declared local's depth to
// the current scope depth, making it legal to read. It is a no-op at
// global scope (defineVariable handles globals instead).
func (c *Compiler) markInitialized() {
	if c.fc.depth == 0 {
		return
	}
	c.fc.locals[len(c.fc.locals)-1].depth = c.fc.depth
}

// defineVariable completes a binding: DEFINE_GLOBAL for a global name,
// or simply marking the local initialized (its value is already
// sitting in the right stack slot from the initializer expression).
func (c *Compiler) defineVariable(global byte) {
	if c.fc.depth > 0 {
		c.markInitialized()
		return
	}
	c.emitOpByte(bytecode.OP_DEFINE_GLOBAL, global)
}

// resolveLocal walks this function's locals innermost-first looking
// for name, returning its slot or -1 if name isn't a local here.
func resolveLocal(fc *funcCompiler, name string) int {
	for i := len(fc.locals) - 1; i >= 0; i-- {
		if fc.locals[i].name == name {
			return i
		}
	}
	return -1
}

func resolveLocalChecked(c *Compiler, fc *funcCompiler, name string) int {
	idx := resolveLocal(fc, name)
	if idx == -1 {
		return -1
	}
	if fc.locals[idx].depth == -1 {
		c.error("Can't read local variable in its own initializer.")
	}
	return idx
}

// resolveUpvalue walks the enclosing-function chain looking for name
// as either a local (capturing it directly) or an upvalue further up
// (threading the capture through every intervening function). Returns
// -1 if name is not found anywhere in the chain (it must then be a
// global).
func resolveUpvalue(c *Compiler, fc *funcCompiler, name string) int {
	if fc.enclosing == nil {
		return -1
	}
	if local := resolveLocalChecked(c, fc.enclosing, name); local != -1 {
		fc.enclosing.locals[local].isCaptured = true
		return addUpvalue(c, fc, local, true)
	}
	if up := resolveUpvalue(c, fc.enclosing, name); up != -1 {
		return addUpvalue(c, fc, up, false)
	}
	return -1
}

// addUpvalue records upvalue (index, isLocal) on fc, deduplicating
// against an existing entry with the same (index, isLocal) pair so
// repeated references to the same captured name share one slot.
func addUpvalue(c *Compiler, fc *funcCompiler, index int, isLocal bool) int {
	for i, u := range fc.upvalues {
		if u.index == index && u.isLocal == isLocal {
			return i
		}
	}
	if len(fc.upvalues) >= 256 {
		c.error("Too many closure variables in function.")
		return 0
	}
	fc.upvalues = append(fc.upvalues, upvalueRef{index: index, isLocal: isLocal})
	return len(fc.upvalues) - 1
}
