package compiler

import (
	"loxvm/bytecode"
	"loxvm/token"
)

// declaration compiles one top-level grammar production: a var/fun/
// class declaration or, failing those, a plain statement. It
// synchronizes to the next statement boundary after a compile error
// so one bad line doesn't cascade into spurious follow-on diagnostics.
func (c *Compiler) declaration() {
	switch {
	case c.match(token.VAR):
		c.varDeclaration()
	case c.match(token.FUN):
		c.funDeclaration()
	case c.match(token.CLASS):
		c.classDeclaration()
	default:
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")
	if c.match(token.ASSIGN) {
		c.expression()
	} else {
		c.emitOp(bytecode.OP_NIL)
	}
	c.consume(token.SEMICOLON, "Expect ';' after variable declaration.")
	c.defineVariable(global)
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.PRINT):
		c.printStatement()
	case c.match(token.IF):
		c.ifStatement()
	case c.match(token.WHILE):
		c.whileStatement()
	case c.match(token.FOR):
		c.forStatement()
	case c.match(token.RETURN):
		c.returnStatement()
	case c.match(token.LCUR):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after value.")
	c.emitOp(bytecode.OP_PRINT)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after expression.")
	c.emitOp(bytecode.OP_POP)
}

func (c *Compiler) block() {
	for !c.check(token.RCUR) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RCUR, "Expect '}' after block.")
}

func (c *Compiler) ifStatement() {
	c.consume(token.LPA, "Expect '(' after 'if'.")
	c.expression()
	c.consume(token.RPA, "Expect ')' after condition.")

	thenJump := c.emitJump(bytecode.OP_JUMP_IF_FALSE)
	c.emitOp(bytecode.OP_POP)
	c.statement()

	elseJump := c.emitJump(bytecode.OP_JUMP)
	c.patchJump(thenJump)
	c.emitOp(bytecode.OP_POP)

	if c.match(token.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.chunk().Code)
	c.consume(token.LPA, "Expect '(' after 'while'.")
	c.expression()
	c.consume(token.RPA, "Expect ')' after condition.")

	exitJump := c.emitJump(bytecode.OP_JUMP_IF_FALSE)
	c.emitOp(bytecode.OP_POP)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(bytecode.OP_POP)
}

// forStatement lowers `for (init; cond; incr) body` into the while-loop
// shape, splicing the increment in after the body by first jumping
// over it, then looping back to it instead of to the condition.
func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(token.LPA, "Expect '(' after 'for'.")

	switch {
	case c.match(token.SEMICOLON):
		// no initializer
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.chunk().Code)
	exitJump := -1
	if !c.check(token.SEMICOLON) {
		c.expression()
		c.consume(token.SEMICOLON, "Expect ';' after loop condition.")
		exitJump = c.emitJump(bytecode.OP_JUMP_IF_FALSE)
		c.emitOp(bytecode.OP_POP)
	} else {
		c.advance()
	}

	if !c.check(token.RPA) {
		bodyJump := c.emitJump(bytecode.OP_JUMP)
		incrementStart := len(c.chunk().Code)
		c.expression()
		c.emitOp(bytecode.OP_POP)
		c.consume(token.RPA, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	} else {
		c.advance()
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(bytecode.OP_POP)
	}
	c.endScope()
}

func (c *Compiler) returnStatement() {
	if c.fc.kind == typeScript {
		c.error("Can't return from top-level code.")
	}
	if c.match(token.SEMICOLON) {
		c.emitReturn()
		return
	}
	if c.fc.kind == typeInitializer {
		c.error("Can't return a value from an initializer.")
	}
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after return value.")
	c.emitOp(bytecode.OP_RETURN)
}

// funDeclaration compiles `fun name(params) block` at either global or
// local scope: the name binds like any other variable, and the
// function body itself is compiled by a fresh funcCompiler pushed
// under this one.
func (c *Compiler) funDeclaration() {
	global := c.parseVariable("Expect function name.")
	c.markInitialized()
	c.function(typeFunction, c.prev.Lexeme)
	c.defineVariable(global)
}

// function compiles one function body (parameter list plus block) in
// its own funcCompiler, then emits CLOSURE with the resulting
// template's upvalue descriptors so the VM can wire up captures at
// runtime.
func (c *Compiler) function(kind funcType, name string) {
	c.fc = newFuncCompiler(c.fc, kind, name)
	c.beginScope()

	c.consume(token.LPA, "Expect '(' after function name.")
	if !c.check(token.RPA) {
		for {
			c.fc.arity++
			if c.fc.arity > 255 {
				c.error("Can't have more than 255 parameters.")
			}
			paramConst := c.parseVariable("Expect parameter name.")
			c.defineVariable(paramConst)
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPA, "Expect ')' after parameters.")
	c.consume(token.LCUR, "Expect '{' before function body.")
	c.block()

	inner := c.fc
	fn := c.endCompiler()

	constIdx := c.makeConstant(bytecode.HandleValue(bytecode.KindFunction, fn))
	c.emitOpByte(bytecode.OP_CLOSURE, constIdx)
	c.emitByte(byte(len(inner.upvalues)))
	for _, u := range inner.upvalues {
		if u.isLocal {
			c.emitByte(1)
		} else {
			c.emitByte(0)
		}
		c.emitByte(byte(u.index))
	}
}
