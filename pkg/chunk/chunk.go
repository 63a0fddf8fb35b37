// Package chunk defines the bytecode container: the opcode stream, the
// per-instruction line table, and the constant pool a compiled function
// draws its literals from.
package chunk

import "github.com/kristofer/ember/pkg/value"

// OpCode enumerates every instruction the virtual machine can execute.
// Operands, where present, follow the opcode byte in the code stream;
// see each constant's comment for its operand shape.
type OpCode byte

const (
	// OpConstant pushes chunk.Constants[operand] (1-byte index).
	OpConstant OpCode = iota
	// OpNil pushes the nil value.
	OpNil
	// OpTrue pushes the boolean true.
	OpTrue
	// OpFalse pushes the boolean false.
	OpFalse
	// OpPop discards the top of the stack.
	OpPop
	// OpGetLocal pushes a copy of stack slot (1-byte index).
	OpGetLocal
	// OpSetLocal stores the top of the stack into a local slot without popping.
	OpSetLocal
	// OpGetGlobal looks up a global by name (1-byte constant index).
	OpGetGlobal
	// OpDefineGlobal binds the top of the stack to a global name, then pops.
	OpDefineGlobal
	// OpSetGlobal assigns to an existing global; errors if undefined.
	OpSetGlobal
	// OpGetUpvalue pushes the value captured in upvalue slot (1-byte index).
	OpGetUpvalue
	// OpSetUpvalue stores into the captured upvalue slot.
	OpSetUpvalue
	// OpGetProperty looks up a field or bound method on the instance on top of stack.
	OpGetProperty
	// OpSetProperty assigns a field on the instance one slot below the value.
	OpSetProperty
	// OpGetSuper binds a superclass method onto the instance below it on the stack.
	OpGetSuper
	OpEqual
	OpGreater
	OpLess
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNot
	OpNegate
	// OpPrint pops and prints the top of the stack.
	OpPrint
	// OpJump unconditionally advances ip by a 2-byte big-endian offset.
	OpJump
	// OpJumpIfFalse advances ip by a 2-byte offset if the top of stack is falsey; does not pop.
	OpJumpIfFalse
	// OpLoop subtracts a 2-byte offset from ip, implementing backward branches.
	OpLoop
	// OpCall invokes the callable below its argc operand-many arguments (1-byte argc).
	OpCall
	// OpInvoke fuses OpGetProperty+OpCall: 1-byte method-name constant index, 1-byte argc.
	OpInvoke
	// OpSuperInvoke fuses a superclass method lookup with a call: name index, argc.
	OpSuperInvoke
	// OpClosure wraps a function constant (1-byte index) in a closure, followed
	// by one (isLocal byte, index byte) pair per upvalue the function captures.
	OpClosure
	// OpCloseUpvalue closes the upvalue pointing at the top stack slot, then pops.
	OpCloseUpvalue
	// OpReturn returns from the current function with the top of stack as the result.
	OpReturn
	// OpClass creates a new class object (1-byte name constant index).
	OpClass
	// OpInherit copies the method table of the superclass (one slot down) into
	// the subclass on top of the stack, then pops the subclass.
	OpInherit
	// OpMethod binds the closure on top of stack as a method (1-byte name index).
	OpMethod
)

var opNames = [...]string{
	OpConstant:     "OP_CONSTANT",
	OpNil:          "OP_NIL",
	OpTrue:         "OP_TRUE",
	OpFalse:        "OP_FALSE",
	OpPop:          "OP_POP",
	OpGetLocal:     "OP_GET_LOCAL",
	OpSetLocal:     "OP_SET_LOCAL",
	OpGetGlobal:    "OP_GET_GLOBAL",
	OpDefineGlobal: "OP_DEFINE_GLOBAL",
	OpSetGlobal:    "OP_SET_GLOBAL",
	OpGetUpvalue:   "OP_GET_UPVALUE",
	OpSetUpvalue:   "OP_SET_UPVALUE",
	OpGetProperty:  "OP_GET_PROPERTY",
	OpSetProperty:  "OP_SET_PROPERTY",
	OpGetSuper:     "OP_GET_SUPER",
	OpEqual:        "OP_EQUAL",
	OpGreater:      "OP_GREATER",
	OpLess:         "OP_LESS",
	OpAdd:          "OP_ADD",
	OpSubtract:     "OP_SUBTRACT",
	OpMultiply:     "OP_MULTIPLY",
	OpDivide:       "OP_DIVIDE",
	OpNot:          "OP_NOT",
	OpNegate:       "OP_NEGATE",
	OpPrint:        "OP_PRINT",
	OpJump:         "OP_JUMP",
	OpJumpIfFalse:  "OP_JUMP_IF_FALSE",
	OpLoop:         "OP_LOOP",
	OpCall:         "OP_CALL",
	OpInvoke:       "OP_INVOKE",
	OpSuperInvoke:  "OP_SUPER_INVOKE",
	OpClosure:      "OP_CLOSURE",
	OpCloseUpvalue: "OP_CLOSE_UPVALUE",
	OpReturn:       "OP_RETURN",
	OpClass:        "OP_CLASS",
	OpInherit:      "OP_INHERIT",
	OpMethod:       "OP_METHOD",
}

// String renders the opcode's mnemonic, for disassembly and trace output.
func (op OpCode) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return "OP_UNKNOWN"
}

// Chunk is a function's compiled bytecode: a flat instruction stream, a
// parallel line-number table for error reporting, and the constant pool
// OP_CONSTANT and friends index into.
type Chunk struct {
	Code      []byte
	Lines     []int
	Constants []value.Value
}

// New returns an empty chunk ready to be appended to.
func New() *Chunk {
	return &Chunk{}
}

// Write appends a single byte (an opcode or an operand byte) along with
// the source line it was compiled from.
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// WriteOp appends an opcode byte.
func (c *Chunk) WriteOp(op OpCode, line int) {
	c.Write(byte(op), line)
}

// AddConstant appends v to the constant pool and returns its index.
// Callers are responsible for ensuring the pool never exceeds 256
// entries, since constant operands are single bytes.
func (c *Chunk) AddConstant(v value.Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// Len returns the number of bytes currently in the code stream.
func (c *Chunk) Len() int { return len(c.Code) }
