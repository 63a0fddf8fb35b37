// Package debug implements an opt-in bytecode disassembler, wired to
// cmd/ember's disassemble command and -trace flag. No stable format is
// guaranteed here; this exists purely as a development aid, the way
// clox's debug.c does.
package debug

import (
	"fmt"
	"io"

	"github.com/kristofer/ember/pkg/chunk"
	"github.com/kristofer/ember/pkg/object"
)

// DisassembleChunk writes a human-readable listing of every
// instruction in c to w, labeled with name.
func DisassembleChunk(w io.Writer, c *chunk.Chunk, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)
	offset := 0
	for offset < c.Len() {
		offset = DisassembleInstruction(w, c, offset)
	}
}

// DisassembleInstruction writes one instruction at offset and returns
// the offset of the next instruction.
func DisassembleInstruction(w io.Writer, c *chunk.Chunk, offset int) int {
	fmt.Fprintf(w, "%04d ", offset)
	if offset > 0 && c.Lines[offset] == c.Lines[offset-1] {
		fmt.Fprint(w, "   | ")
	} else {
		fmt.Fprintf(w, "%4d ", c.Lines[offset])
	}

	op := chunk.OpCode(c.Code[offset])
	switch op {
	case chunk.OpConstant, chunk.OpGetGlobal, chunk.OpDefineGlobal, chunk.OpSetGlobal,
		chunk.OpGetProperty, chunk.OpSetProperty, chunk.OpGetSuper, chunk.OpClass, chunk.OpMethod:
		return constantInstruction(w, op, c, offset)
	case chunk.OpGetLocal, chunk.OpSetLocal, chunk.OpGetUpvalue, chunk.OpSetUpvalue, chunk.OpCall:
		return byteInstruction(w, op, c, offset)
	case chunk.OpJump, chunk.OpJumpIfFalse:
		return jumpInstruction(w, op, c, offset, 1)
	case chunk.OpLoop:
		return jumpInstruction(w, op, c, offset, -1)
	case chunk.OpInvoke, chunk.OpSuperInvoke:
		return invokeInstruction(w, op, c, offset)
	case chunk.OpClosure:
		return closureInstruction(w, c, offset)
	default:
		return simpleInstruction(w, op, offset)
	}
}

func simpleInstruction(w io.Writer, op chunk.OpCode, offset int) int {
	fmt.Fprintln(w, op.String())
	return offset + 1
}

func constantInstruction(w io.Writer, op chunk.OpCode, c *chunk.Chunk, offset int) int {
	idx := c.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d '%s'\n", op.String(), idx, c.Constants[idx].String())
	return offset + 2
}

func byteInstruction(w io.Writer, op chunk.OpCode, c *chunk.Chunk, offset int) int {
	slot := c.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d\n", op.String(), slot)
	return offset + 2
}

func jumpInstruction(w io.Writer, op chunk.OpCode, c *chunk.Chunk, offset int, sign int) int {
	jump := int(c.Code[offset+1])<<8 | int(c.Code[offset+2])
	fmt.Fprintf(w, "%-16s %4d -> %d\n", op.String(), offset, offset+3+sign*jump)
	return offset + 3
}

func invokeInstruction(w io.Writer, op chunk.OpCode, c *chunk.Chunk, offset int) int {
	constant := c.Code[offset+1]
	argCount := c.Code[offset+2]
	fmt.Fprintf(w, "%-16s (%d args) %4d '%s'\n", op.String(), argCount, constant, c.Constants[constant].String())
	return offset + 3
}

func closureInstruction(w io.Writer, c *chunk.Chunk, offset int) int {
	offset++
	constant := c.Code[offset]
	offset++
	fn := c.Constants[constant]
	fmt.Fprintf(w, "%-16s %4d '%s'\n", chunk.OpClosure.String(), constant, fn.String())

	if fn.IsObj() {
		if f, ok := fn.AsObj().(*object.ObjFunction); ok {
			for i := 0; i < f.UpvalueCount; i++ {
				isLocal := c.Code[offset]
				index := c.Code[offset+1]
				kind := "upvalue"
				if isLocal != 0 {
					kind = "local"
				}
				fmt.Fprintf(w, "%04d      |                     %s %d\n", offset, kind, index)
				offset += 2
			}
		}
	}
	return offset
}
