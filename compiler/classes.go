package compiler

import (
	"loxvm/bytecode"
	"loxvm/token"
)

// classDeclaration compiles `class Name (<| Super)? { method* }`. The
// class value itself is built at runtime (CLASS then, for each
// method, CLOSURE + METHOD); INHERIT eagerly copies the superclass's
// method table so a subclass lookup is always a single table hit.
func (c *Compiler) classDeclaration() {
	c.consume(token.IDENTIFIER, "Expect class name.")
	className := c.prev
	nameConst := c.identifierConstant(className.Lexeme)
	c.declareVariable()

	c.emitOpByte(bytecode.OP_CLASS, nameConst)
	c.defineVariable(nameConst)

	cc := &classCompiler{enclosing: c.class}
	c.class = cc

	if c.match(token.SUPER_ARROW) {
		c.consume(token.IDENTIFIER, "Expect superclass name.")
		if c.prev.Lexeme == className.Lexeme {
			c.error("A class can't inherit from itself.")
		}
		c.variableNamed(c.prev.Lexeme, false)

		c.beginScope()
		c.addLocal("super")
		c.defineVariable(0)

		c.variableNamed(className.Lexeme, false)
		c.emitOp(bytecode.OP_INHERIT)
		cc.hasSuperclass = true
	}

	c.variableNamed(className.Lexeme, false)
	c.consume(token.LCUR, "Expect '{' before class body.")
	for !c.check(token.RCUR) && !c.check(token.EOF) {
		c.method()
	}
	c.consume(token.RCUR, "Expect '}' after class body.")
	c.emitOp(bytecode.OP_POP) // the class value pushed for method installation

	if cc.hasSuperclass {
		c.endScope()
	}
	c.class = cc.enclosing
}

func (c *Compiler) method() {
	c.consume(token.IDENTIFIER, "Expect method name.")
	name := c.prev.Lexeme
	nameConst := c.identifierConstant(name)

	kind := typeMethod
	if name == "init" {
		kind = typeInitializer
	}
	c.function(kind, name)
	c.emitOpByte(bytecode.OP_METHOD, nameConst)
}
