// Package compiler implements Ember's single-pass compiler: it scans
// and parses source with a Pratt expression parser and emits bytecode
// directly into a chunk as it goes, with no separate AST stage.
package compiler

import (
	"fmt"
	"io"
	"strconv"

	"github.com/kristofer/ember/pkg/chunk"
	"github.com/kristofer/ember/pkg/lexer"
	"github.com/kristofer/ember/pkg/object"
	"github.com/kristofer/ember/pkg/value"
)

const maxLocals = 256
const maxUpvalues = 256

// FunctionType distinguishes the kind of callable currently being
// compiled, since scripts, functions, methods, and initializers each
// have slightly different rules (e.g. only methods and initializers
// reserve slot zero for "this"; only initializers default-return the
// receiver; only the script may not contain "return").
type FunctionType int

const (
	TypeFunction FunctionType = iota
	TypeScript
	TypeMethod
	TypeInitializer
)

// Local tracks one declared local variable's name, the lexical depth it
// was declared at, and whether any nested function captures it as an
// upvalue (which forces it to be closed over rather than popped bare).
type Local struct {
	Name       string
	Depth      int // -1 means "declared but not yet defined"
	IsCaptured bool
}

// Upvalue records how a compiled function reaches a variable from an
// enclosing function: either directly from the enclosing function's
// locals (IsLocal true) or transitively through the enclosing
// function's own upvalues.
type Upvalue struct {
	Index   byte
	IsLocal bool
}

// FunctionCompiler holds the state for compiling a single function
// body: its own locals/upvalues/scope depth, the function object being
// built, and a link to the compiler for the lexically enclosing
// function so name resolution can walk outward.
type FunctionCompiler struct {
	enclosing   *FunctionCompiler
	function    *object.ObjFunction
	kind        FunctionType
	locals      []Local
	upvalues    []Upvalue
	scopeDepth  int
}

// ClassCompiler tracks the class currently being compiled, chained to
// any enclosing class, so "this" and "super" resolve correctly inside
// nested class declarations and so a class body knows whether it has a
// superclass (for "super" resolution and for closing the scope that
// holds the "super" local).
type ClassCompiler struct {
	enclosing      *ClassCompiler
	hasSuperclass  bool
}

// Compiler drives a single compilation: it owns the lexer, the
// current/previous token pair a Pratt parser needs, the chain of
// FunctionCompilers (one per nested function currently being compiled),
// and the chain of ClassCompilers (one per nested class body).
type Compiler struct {
	lexer   *lexer.Lexer
	heap    *object.Heap
	current *FunctionCompiler
	class   *ClassCompiler

	previous lexer.Token
	curTok   lexer.Token

	hadError  bool
	panicMode bool
	errOut    io.Writer
}

// Compile compiles source into a top-level ObjFunction (the implicit
// script function), or returns ok=false if any compile error occurred;
// diagnostics are written to errOut in the same pass.
func Compile(source string, heap *object.Heap, errOut io.Writer) (*object.ObjFunction, bool) {
	c := &Compiler{
		lexer:  lexer.New(source),
		heap:   heap,
		errOut: errOut,
	}
	c.beginFunctionCompiler(TypeScript, "")
	heap.AddRoot(c)
	defer heap.RemoveRoot(c)

	c.advance()
	for !c.match(lexer.TokenEOF) {
		c.declaration()
	}
	fn, _ := c.endFunctionCompiler()
	return fn, !c.hadError
}

// MarkRoots lets the heap trace a live compilation's reachable
// function chain, so a GC triggered mid-compile (e.g. while interning
// a long literal) doesn't collect functions still under construction.
func (c *Compiler) MarkRoots(h *object.Heap) {
	for fc := c.current; fc != nil; fc = fc.enclosing {
		h.Mark(fc.function)
	}
}

func (c *Compiler) beginFunctionCompiler(kind FunctionType, name string) {
	fn := c.heap.NewFunction()
	fc := &FunctionCompiler{
		enclosing: c.current,
		function:  fn,
		kind:      kind,
	}
	// Put fn on the chain before allocating its name, so a collection
	// triggered by that allocation marks fn through MarkRoots.
	c.current = fc
	if name != "" {
		fn.Name = c.heap.NewString(name)
	}
	// Slot zero is reserved: for methods and initializers it holds the
	// receiver ("this"); for plain functions and the script it is an
	// unnamed slot the user can never reference.
	slotName := ""
	if kind == TypeMethod || kind == TypeInitializer {
		slotName = "this"
	}
	fc.locals = append(fc.locals, Local{Name: slotName, Depth: 0})
	c.current = fc
}

func (c *Compiler) endFunctionCompiler() (*object.ObjFunction, []Upvalue) {
	c.emitReturn()
	fn := c.current.function
	ups := c.current.upvalues
	fn.UpvalueCount = len(ups)
	c.current = c.current.enclosing
	return fn, ups
}

func (c *Compiler) chunk() *chunk.Chunk { return c.current.function.Chunk }

// --- token stream ---

func (c *Compiler) advance() {
	c.previous = c.curTok
	for {
		c.curTok = c.lexer.NextToken()
		if c.curTok.Type != lexer.TokenError {
			break
		}
		c.errorAtCurrent(c.curTok.Lexeme)
	}
}

func (c *Compiler) check(t lexer.TokenType) bool { return c.curTok.Type == t }

func (c *Compiler) match(t lexer.TokenType) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(t lexer.TokenType, msg string) {
	if c.curTok.Type == t {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

func (c *Compiler) errorAtCurrent(msg string) { c.errorAt(c.curTok, msg) }
func (c *Compiler) error(msg string)          { c.errorAt(c.previous, msg) }

func (c *Compiler) errorAt(tok lexer.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true
	if c.errOut == nil {
		return
	}
	fmt.Fprintf(c.errOut, "[line %d] Error", tok.Line)
	switch tok.Type {
	case lexer.TokenEOF:
		fmt.Fprint(c.errOut, " at end")
	case lexer.TokenError:
		// lexeme already is the message
	default:
		fmt.Fprintf(c.errOut, " at '%s'", tok.Lexeme)
	}
	fmt.Fprintf(c.errOut, ": %s\n", msg)
}

// synchronize discards tokens until it reaches a likely statement
// boundary, so one error doesn't cascade into a wall of spurious ones.
func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.curTok.Type != lexer.TokenEOF {
		if c.previous.Type == lexer.TokenSemicolon {
			return
		}
		switch c.curTok.Type {
		case lexer.TokenClass, lexer.TokenFun, lexer.TokenVar, lexer.TokenFor,
			lexer.TokenIf, lexer.TokenWhile, lexer.TokenPrint, lexer.TokenReturn:
			return
		}
		c.advance()
	}
}

// --- emission helpers ---

func (c *Compiler) emitByte(b byte)         { c.chunk().Write(b, c.previous.Line) }
func (c *Compiler) emitOp(op chunk.OpCode)  { c.chunk().WriteOp(op, c.previous.Line) }
func (c *Compiler) emitOpByte(op chunk.OpCode, b byte) {
	c.emitOp(op)
	c.emitByte(b)
}

func (c *Compiler) emitReturn() {
	if c.current.kind == TypeInitializer {
		c.emitOpByte(chunk.OpGetLocal, 0)
	} else {
		c.emitOp(chunk.OpNil)
	}
	c.emitOp(chunk.OpReturn)
}

func (c *Compiler) makeConstant(v value.Value) byte {
	idx := c.chunk().AddConstant(v)
	if idx > 255 {
		c.error("Too many constants in one chunk.")
		return 0
	}
	return byte(idx)
}

func (c *Compiler) emitConstant(v value.Value) {
	c.emitOpByte(chunk.OpConstant, c.makeConstant(v))
}

// emitJump emits a jump opcode with a placeholder 2-byte operand and
// returns the offset of the first placeholder byte, for later patching.
func (c *Compiler) emitJump(op chunk.OpCode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return c.chunk().Len() - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := c.chunk().Len() - offset - 2
	if jump > 0xffff {
		c.error("Too much code to jump over.")
	}
	c.chunk().Code[offset] = byte((jump >> 8) & 0xff)
	c.chunk().Code[offset+1] = byte(jump & 0xff)
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(chunk.OpLoop)
	offset := c.chunk().Len() - loopStart + 2
	if offset > 0xffff {
		c.error("Loop body too large.")
	}
	c.emitByte(byte((offset >> 8) & 0xff))
	c.emitByte(byte(offset & 0xff))
}

func (c *Compiler) identifierConstant(tok lexer.Token) byte {
	return c.makeConstant(value.Obj(c.heap.NewString(tok.Lexeme)))
}

func identifiersEqual(a, b lexer.Token) bool { return a.Lexeme == b.Lexeme }

// --- number/string literal parsing ---

func parseNumber(lexeme string) float64 {
	n, _ := strconv.ParseFloat(lexeme, 64)
	return n
}
