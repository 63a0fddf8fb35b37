package compiler

import (
	"github.com/kristofer/ember/pkg/chunk"
	"github.com/kristofer/ember/pkg/lexer"
	"github.com/kristofer/ember/pkg/value"
)

// Precedence mirrors clox's precedence enum, lowest to highest; each
// binary operator's infix rule is registered at the precedence one
// below which it should stop parsing a right operand (left-associative)
// or at its own precedence (right-associative, none of which Ember has
// besides assignment).
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

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

var rules map[lexer.TokenType]parseRule

func init() {
	rules = map[lexer.TokenType]parseRule{
		lexer.TokenLeftParen:  {prefix: (*Compiler).grouping, infix: (*Compiler).call, precedence: PrecCall},
		lexer.TokenDot:        {infix: (*Compiler).dot, precedence: PrecCall},
		lexer.TokenMinus:      {prefix: (*Compiler).unary, infix: (*Compiler).binary, precedence: PrecTerm},
		lexer.TokenPlus:       {infix: (*Compiler).binary, precedence: PrecTerm},
		lexer.TokenSlash:      {infix: (*Compiler).binary, precedence: PrecFactor},
		lexer.TokenStar:       {infix: (*Compiler).binary, precedence: PrecFactor},
		lexer.TokenBang:       {prefix: (*Compiler).unary},
		lexer.TokenBangEqual:  {infix: (*Compiler).binary, precedence: PrecEquality},
		lexer.TokenEqualEqual: {infix: (*Compiler).binary, precedence: PrecEquality},
		lexer.TokenGreater:       {infix: (*Compiler).binary, precedence: PrecComparison},
		lexer.TokenGreaterEqual:  {infix: (*Compiler).binary, precedence: PrecComparison},
		lexer.TokenLess:          {infix: (*Compiler).binary, precedence: PrecComparison},
		lexer.TokenLessEqual:     {infix: (*Compiler).binary, precedence: PrecComparison},
		lexer.TokenIdentifier: {prefix: func(c *Compiler, canAssign bool) { c.variable(canAssign, c.previous) }},
		lexer.TokenString:     {prefix: (*Compiler).string_},
		lexer.TokenNumber:     {prefix: (*Compiler).number},
		lexer.TokenAnd:        {infix: (*Compiler).and_, precedence: PrecAnd},
		lexer.TokenOr:         {infix: (*Compiler).or_, precedence: PrecOr},
		lexer.TokenFalse:      {prefix: (*Compiler).literal},
		lexer.TokenNil:        {prefix: (*Compiler).literal},
		lexer.TokenTrue:       {prefix: (*Compiler).literal},
		lexer.TokenThis:       {prefix: (*Compiler).this_},
		lexer.TokenSuper:      {prefix: (*Compiler).super_},
	}
}

func getRule(t lexer.TokenType) parseRule { return rules[t] }

func (c *Compiler) expression() { c.parsePrecedence(PrecAssignment) }

func (c *Compiler) parsePrecedence(prec Precedence) {
	c.advance()
	prefix := getRule(c.previous.Type).prefix
	if prefix == nil {
		c.error("Expect expression.")
		return
	}
	canAssign := prec <= PrecAssignment
	prefix(c, canAssign)

	for prec <= getRule(c.curTok.Type).precedence {
		c.advance()
		infix := getRule(c.previous.Type).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(lexer.TokenEqual) {
		c.error("Invalid assignment target.")
	}
}

func (c *Compiler) grouping(canAssign bool) {
	c.expression()
	c.consume(lexer.TokenRightParen, "Expect ')' after expression.")
}

func (c *Compiler) number(canAssign bool) {
	c.emitConstant(value.Number(parseNumber(c.previous.Lexeme)))
}

func (c *Compiler) string_(canAssign bool) {
	raw := c.previous.Lexeme
	s := raw[1 : len(raw)-1] // strip surrounding quotes
	c.emitConstant(value.Obj(c.heap.NewString(s)))
}

func (c *Compiler) literal(canAssign bool) {
	switch c.previous.Type {
	case lexer.TokenFalse:
		c.emitOp(chunk.OpFalse)
	case lexer.TokenTrue:
		c.emitOp(chunk.OpTrue)
	case lexer.TokenNil:
		c.emitOp(chunk.OpNil)
	}
}

func (c *Compiler) unary(canAssign bool) {
	opType := c.previous.Type
	c.parsePrecedence(PrecUnary)
	switch opType {
	case lexer.TokenBang:
		c.emitOp(chunk.OpNot)
	case lexer.TokenMinus:
		c.emitOp(chunk.OpNegate)
	}
}

func (c *Compiler) binary(canAssign bool) {
	opType := c.previous.Type
	rule := getRule(opType)
	c.parsePrecedence(rule.precedence + 1)

	switch opType {
	case lexer.TokenBangEqual:
		c.emitOp(chunk.OpEqual)
		c.emitOp(chunk.OpNot)
	case lexer.TokenEqualEqual:
		c.emitOp(chunk.OpEqual)
	case lexer.TokenGreater:
		c.emitOp(chunk.OpGreater)
	case lexer.TokenGreaterEqual:
		c.emitOp(chunk.OpLess)
		c.emitOp(chunk.OpNot)
	case lexer.TokenLess:
		c.emitOp(chunk.OpLess)
	case lexer.TokenLessEqual:
		c.emitOp(chunk.OpGreater)
		c.emitOp(chunk.OpNot)
	case lexer.TokenPlus:
		c.emitOp(chunk.OpAdd)
	case lexer.TokenMinus:
		c.emitOp(chunk.OpSubtract)
	case lexer.TokenStar:
		c.emitOp(chunk.OpMultiply)
	case lexer.TokenSlash:
		c.emitOp(chunk.OpDivide)
	}
}

func (c *Compiler) and_(canAssign bool) {
	endJump := c.emitJump(chunk.OpJumpIfFalse)
	c.emitOp(chunk.OpPop)
	c.parsePrecedence(PrecAnd)
	c.patchJump(endJump)
}

func (c *Compiler) or_(canAssign bool) {
	elseJump := c.emitJump(chunk.OpJumpIfFalse)
	endJump := c.emitJump(chunk.OpJump)
	c.patchJump(elseJump)
	c.emitOp(chunk.OpPop)
	c.parsePrecedence(PrecOr)
	c.patchJump(endJump)
}

func (c *Compiler) call(canAssign bool) {
	argCount := c.argumentList()
	c.emitOpByte(chunk.OpCall, argCount)
}

func (c *Compiler) argumentList() byte {
	var count int
	if !c.check(lexer.TokenRightParen) {
		for {
			c.expression()
			if count == 255 {
				c.error("Can't have more than 255 arguments.")
			}
			count++
			if !c.match(lexer.TokenComma) {
				break
			}
		}
	}
	c.consume(lexer.TokenRightParen, "Expect ')' after arguments.")
	return byte(count)
}

func (c *Compiler) dot(canAssign bool) {
	c.consume(lexer.TokenIdentifier, "Expect property name after '.'.")
	name := c.identifierConstant(c.previous)

	switch {
	case canAssign && c.match(lexer.TokenEqual):
		c.expression()
		c.emitOpByte(chunk.OpSetProperty, name)
	case c.match(lexer.TokenLeftParen):
		argCount := c.argumentList()
		c.emitOpByte(chunk.OpInvoke, name)
		c.emitByte(argCount)
	default:
		c.emitOpByte(chunk.OpGetProperty, name)
	}
}

func (c *Compiler) variable(canAssign bool, name lexer.Token) {
	c.namedVariable(name, canAssign)
}

func (c *Compiler) namedVariable(name lexer.Token, canAssign bool) {
	var getOp, setOp chunk.OpCode
	arg, ok := c.resolveLocal(c.current, name)
	if ok {
		getOp, setOp = chunk.OpGetLocal, chunk.OpSetLocal
	} else if up, ok := c.resolveUpvalue(c.current, name); ok {
		arg = up
		getOp, setOp = chunk.OpGetUpvalue, chunk.OpSetUpvalue
	} else {
		arg = int(c.identifierConstant(name))
		getOp, setOp = chunk.OpGetGlobal, chunk.OpSetGlobal
	}

	if canAssign && c.match(lexer.TokenEqual) {
		c.expression()
		c.emitOpByte(setOp, byte(arg))
	} else {
		c.emitOpByte(getOp, byte(arg))
	}
}

func (c *Compiler) resolveLocal(fc *FunctionCompiler, name lexer.Token) (int, bool) {
	for i := len(fc.locals) - 1; i >= 0; i-- {
		if fc.locals[i].Name == name.Lexeme {
			if fc.locals[i].Depth == -1 {
				c.error("Can't read local variable in its own initializer.")
			}
			return i, true
		}
	}
	return 0, false
}

func (c *Compiler) resolveUpvalue(fc *FunctionCompiler, name lexer.Token) (int, bool) {
	if fc.enclosing == nil {
		return 0, false
	}
	if local, ok := c.resolveLocal(fc.enclosing, name); ok {
		fc.enclosing.locals[local].IsCaptured = true
		return c.addUpvalue(fc, byte(local), true), true
	}
	if up, ok := c.resolveUpvalue(fc.enclosing, name); ok {
		return c.addUpvalue(fc, byte(up), false), true
	}
	return 0, false
}

func (c *Compiler) addUpvalue(fc *FunctionCompiler, index byte, isLocal bool) int {
	for i, existing := range fc.upvalues {
		if existing.Index == index && existing.IsLocal == isLocal {
			return i
		}
	}
	if len(fc.upvalues) >= maxUpvalues {
		c.error("Too many closure variables in function.")
		return 0
	}
	fc.upvalues = append(fc.upvalues, Upvalue{Index: index, IsLocal: isLocal})
	return len(fc.upvalues) - 1
}

func (c *Compiler) this_(canAssign bool) {
	if c.class == nil {
		c.error("Can't use 'this' outside of a class.")
		return
	}
	c.variable(false, lexer.Token{Type: lexer.TokenThis, Lexeme: "this"})
}

func (c *Compiler) super_(canAssign bool) {
	if c.class == nil {
		c.error("Can't use 'super' outside of a class.")
	} else if !c.class.hasSuperclass {
		c.error("Can't use 'super' in a class with no superclass.")
	}
	c.consume(lexer.TokenDot, "Expect '.' after 'super'.")
	c.consume(lexer.TokenIdentifier, "Expect superclass method name.")
	name := c.identifierConstant(c.previous)

	c.namedVariable(lexer.Token{Type: lexer.TokenThis, Lexeme: "this"}, false)
	if c.match(lexer.TokenLeftParen) {
		argCount := c.argumentList()
		c.namedVariable(lexer.Token{Type: lexer.TokenSuper, Lexeme: "super"}, false)
		c.emitOpByte(chunk.OpSuperInvoke, name)
		c.emitByte(argCount)
	} else {
		c.namedVariable(lexer.Token{Type: lexer.TokenSuper, Lexeme: "super"}, false)
		c.emitOpByte(chunk.OpGetSuper, name)
	}
}
