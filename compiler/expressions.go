package compiler

import (
	"strconv"

	"loxvm/bytecode"
	"loxvm/token"
)

// buildRules constructs the per-token prefix/infix/precedence table
// the Pratt parser dispatches through. It is built once per Compiler
// rather than as a package-level map because prefix/infix rules are
// bound methods on *Compiler.
func (c *Compiler) buildRules() {
	c.rules = map[token.TokenType]parseRule{
		token.LPA:          {prefix: (*Compiler).grouping, infix: (*Compiler).call, precedence: PrecCall},
		token.LBRACKET:     {prefix: (*Compiler).arrayLiteral, infix: (*Compiler).index, precedence: PrecCall},
		token.DOT:          {infix: (*Compiler).dot, precedence: PrecCall},
		token.SUB:          {prefix: (*Compiler).unary, infix: (*Compiler).binary, precedence: PrecTerm},
		token.ADD:          {infix: (*Compiler).binary, precedence: PrecTerm},
		token.DIV:          {infix: (*Compiler).binary, precedence: PrecFactor},
		token.MULT:         {infix: (*Compiler).binary, precedence: PrecFactor},
		token.REM:          {infix: (*Compiler).binary, precedence: PrecFactor},
		token.BANG:         {prefix: (*Compiler).unary},
		token.NOT_EQUAL:    {infix: (*Compiler).binary, precedence: PrecEquality},
		token.EQUAL_EQUAL:  {infix: (*Compiler).binary, precedence: PrecEquality},
		token.LESS:         {infix: (*Compiler).binary, precedence: PrecComparison},
		token.LESS_EQUAL:   {infix: (*Compiler).binary, precedence: PrecComparison},
		token.LARGER:       {infix: (*Compiler).binary, precedence: PrecComparison},
		token.LARGER_EQUAL: {infix: (*Compiler).binary, precedence: PrecComparison},
		token.IDENTIFIER:   {prefix: (*Compiler).variable},
		token.STRING:       {prefix: (*Compiler).stringLiteral},
		token.NUMBER:       {prefix: (*Compiler).number},
		token.AND:          {infix: (*Compiler).and, precedence: PrecAnd},
		token.OR:           {infix: (*Compiler).or, precedence: PrecOr},
		token.FALSE:        {prefix: (*Compiler).literal},
		token.TRUE:         {prefix: (*Compiler).literal},
		token.NIL:          {prefix: (*Compiler).literal},
		token.THIS:         {prefix: (*Compiler).this},
		token.SUPER:        {prefix: (*Compiler).super},
	}
}

func (c *Compiler) getRule(tt token.TokenType) parseRule { return c.rules[tt] }

// expression compiles one expression at PrecAssignment, the lowest
// precedence assignment targets are legal at.
func (c *Compiler) expression() { c.parsePrecedence(PrecAssignment) }

func (c *Compiler) parsePrecedence(prec Precedence) {
	c.advance()
	prefix := c.getRule(c.prev.TokenType).prefix
	if prefix == nil {
		c.error("Expect expression.")
		return
	}
	canAssign := prec <= PrecAssignment
	prefix(c, canAssign)

	for prec <= c.getRule(c.current.TokenType).precedence {
		c.advance()
		infix := c.getRule(c.prev.TokenType).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(token.ASSIGN) {
		c.error("Invalid assignment target.")
	}
}

func (c *Compiler) number(canAssign bool) {
	n, _ := strconv.ParseFloat(c.prev.Lexeme, 64)
	c.emitConstant(bytecode.Number(n))
}

func (c *Compiler) stringLiteral(canAssign bool) {
	s, _ := c.prev.Literal.(string)
	c.emitConstant(bytecode.HandleValue(bytecode.KindString, c.internString(s)))
}

func (c *Compiler) literal(canAssign bool) {
	switch c.prev.TokenType {
	case token.FALSE:
		c.emitOp(bytecode.OP_FALSE)
	case token.TRUE:
		c.emitOp(bytecode.OP_TRUE)
	case token.NIL:
		c.emitOp(bytecode.OP_NIL)
	}
}

func (c *Compiler) grouping(canAssign bool) {
	c.expression()
	c.consume(token.RPA, "Expect ')' after expression.")
}

func (c *Compiler) unary(canAssign bool) {
	opType := c.prev.TokenType
	c.parsePrecedence(PrecUnary)
	switch opType {
	case token.SUB:
		c.emitOp(bytecode.OP_NEGATE)
	case token.BANG:
		c.emitOp(bytecode.OP_NOT)
	}
}

// binary compiles the right-hand operand at one precedence level
// higher than the operator's own (so `+` is left-associative) and
// emits the opcode. Operators the bytecode set has no direct opcode
// for (!=, <=, >=) are synthesized from their complement.
func (c *Compiler) binary(canAssign bool) {
	opType := c.prev.TokenType
	rule := c.getRule(opType)
	c.parsePrecedence(rule.precedence + 1)

	switch opType {
	case token.ADD:
		c.emitOp(bytecode.OP_ADD)
	case token.SUB:
		c.emitOp(bytecode.OP_SUBTRACT)
	case token.MULT:
		c.emitOp(bytecode.OP_MULTIPLY)
	case token.DIV:
		c.emitOp(bytecode.OP_DIVIDE)
	case token.REM:
		c.emitOp(bytecode.OP_MODULO)
	case token.EQUAL_EQUAL:
		c.emitOp(bytecode.OP_EQUAL)
	case token.NOT_EQUAL:
		c.emitOps(bytecode.OP_EQUAL, bytecode.OP_NOT)
	case token.LARGER:
		c.emitOp(bytecode.OP_GREATER)
	case token.LARGER_EQUAL:
		c.emitOps(bytecode.OP_LESS, bytecode.OP_NOT)
	case token.LESS:
		c.emitOp(bytecode.OP_LESS)
	case token.LESS_EQUAL:
		c.emitOps(bytecode.OP_GREATER, bytecode.OP_NOT)
	}
}

// and compiles `left and right`: if left is falsey, short-circuit and
// leave it as the result; otherwise discard it and evaluate right.
func (c *Compiler) and(canAssign bool) {
	endJump := c.emitJump(bytecode.OP_JUMP_IF_FALSE)
	c.emitOp(bytecode.OP_POP)
	c.parsePrecedence(PrecAnd)
	c.patchJump(endJump)
}

// or compiles `left or right`: if left is truthy, short-circuit and
// leave it as the result; otherwise discard it and evaluate right.
func (c *Compiler) or(canAssign bool) {
	elseJump := c.emitJump(bytecode.OP_JUMP_IF_FALSE)
	endJump := c.emitJump(bytecode.OP_JUMP)
	c.patchJump(elseJump)
	c.emitOp(bytecode.OP_POP)
	c.parsePrecedence(PrecOr)
	c.patchJump(endJump)
}

func (c *Compiler) call(canAssign bool) {
	argc := c.argumentList(token.RPA)
	c.emitOpByte(bytecode.OP_CALL, argc)
}

// argumentList compiles a comma-separated expression list terminated
// by close, used for both call arguments and array-literal elements.
func (c *Compiler) argumentList(close token.TokenType) byte {
	var argc int
	if !c.check(close) {
		for {
			c.expression()
			if argc == 255 {
				c.error("Can't have more than 255 arguments.")
			}
			argc++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(close, "Expect closing delimiter after arguments.")
	return byte(argc)
}

func (c *Compiler) arrayLiteral(canAssign bool) {
	n := c.argumentList(token.RBRACKET)
	c.emitOpByte(bytecode.OP_ARRAY, n)
}

func (c *Compiler) index(canAssign bool) {
	c.expression()
	c.consume(token.RBRACKET, "Expect ']' after index.")
	if canAssign && c.match(token.ASSIGN) {
		c.expression()
		c.emitOp(bytecode.OP_INDEX_SET)
		return
	}
	c.emitOp(bytecode.OP_INDEX_GET)
}

// dot compiles a property access, assignment, or fused method
// invocation (`obj.name`, `obj.name = v`, `obj.name(args)`).
func (c *Compiler) dot(canAssign bool) {
	c.consume(token.IDENTIFIER, "Expect property name after '.'.")
	name := c.identifierConstant(c.prev.Lexeme)

	switch {
	case canAssign && c.match(token.ASSIGN):
		c.expression()
		c.emitOpByte(bytecode.OP_SET_PROPERTY, name)
	case c.match(token.LPA):
		argc := c.argumentList(token.RPA)
		c.emitOp(bytecode.OP_INVOKE)
		c.emitByte(name)
		c.emitByte(argc)
	default:
		c.emitOpByte(bytecode.OP_GET_PROPERTY, name)
	}
}

func (c *Compiler) this(canAssign bool) {
	if c.class == nil {
		c.error("Can't use 'this' outside of a class.")
		return
	}
	c.variableNamed("this", false)
}

func (c *Compiler) super(canAssign bool) {
	if c.class == nil {
		c.error("Can't use 'super' outside of a class.")
	} else if !c.class.hasSuperclass {
		c.error("Can't use 'super' in a class with no superclass.")
	}
	c.consume(token.DOT, "Expect '.' after 'super'.")
	c.consume(token.IDENTIFIER, "Expect superclass method name.")
	name := c.identifierConstant(c.prev.Lexeme)

	c.variableNamed("this", false)
	if c.match(token.LPA) {
		argc := c.argumentList(token.RPA)
		c.variableNamed("super", false)
		c.emitOp(bytecode.OP_SUPER_INVOKE)
		c.emitByte(name)
		c.emitByte(argc)
		return
	}
	c.variableNamed("super", false)
	c.emitOpByte(bytecode.OP_GET_SUPER, name)
}

func (c *Compiler) variable(canAssign bool) {
	c.variableNamed(c.prev.Lexeme, canAssign)
}

// variableNamed resolves name as a local, an upvalue, or (failing
// both) a global, and emits the matching GET or, when canAssign and
// the next token is an assignment operator, SET opcode. Compound
// assignment (`+=` and friends) and `++`/`--` desugar here into a
// read, an operation, and a write, since the bytecode set has no
// dedicated opcodes for them.
func (c *Compiler) variableNamed(name string, canAssign bool) {
	var getOp, setOp bytecode.Op
	var arg byte

	if slot := resolveLocalChecked(c, c.fc, name); slot != -1 {
		getOp, setOp, arg = bytecode.OP_GET_LOCAL, bytecode.OP_SET_LOCAL, byte(slot)
	} else if slot := resolveUpvalue(c, c.fc, name); slot != -1 {
		getOp, setOp, arg = bytecode.OP_GET_UPVALUE, bytecode.OP_SET_UPVALUE, byte(slot)
	} else {
		arg = c.identifierConstant(name)
		getOp, setOp = bytecode.OP_GET_GLOBAL, bytecode.OP_SET_GLOBAL
	}

	if !canAssign {
		c.emitOpByte(getOp, arg)
		return
	}

	switch {
	case c.match(token.ASSIGN):
		c.expression()
		c.emitOpByte(setOp, arg)
	case c.match(token.PLUS_EQUAL):
		c.emitOpByte(getOp, arg)
		c.expression()
		c.emitOp(bytecode.OP_ADD)
		c.emitOpByte(setOp, arg)
	case c.match(token.MINUS_EQUAL):
		c.emitOpByte(getOp, arg)
		c.expression()
		c.emitOp(bytecode.OP_SUBTRACT)
		c.emitOpByte(setOp, arg)
	case c.match(token.STAR_EQUAL):
		c.emitOpByte(getOp, arg)
		c.expression()
		c.emitOp(bytecode.OP_MULTIPLY)
		c.emitOpByte(setOp, arg)
	case c.match(token.SLASH_EQUAL):
		c.emitOpByte(getOp, arg)
		c.expression()
		c.emitOp(bytecode.OP_DIVIDE)
		c.emitOpByte(setOp, arg)
	case c.match(token.PLUS_PLUS):
		c.emitOpByte(getOp, arg)
		c.emitConstant(bytecode.Number(1))
		c.emitOp(bytecode.OP_ADD)
		c.emitOpByte(setOp, arg)
	case c.match(token.MINUS_MINUS):
		c.emitOpByte(getOp, arg)
		c.emitConstant(bytecode.Number(1))
		c.emitOp(bytecode.OP_SUBTRACT)
		c.emitOpByte(setOp, arg)
	default:
		c.emitOpByte(getOp, arg)
	}
}
