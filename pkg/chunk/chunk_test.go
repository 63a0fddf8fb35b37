package chunk

import (
	"testing"

	"github.com/kristofer/ember/pkg/value"
)

func TestWriteAndAddConstant(t *testing.T) {
	c := New()
	idx := c.AddConstant(value.Number(1.2))
	c.WriteOp(OpConstant, 1)
	c.Write(byte(idx), 1)
	c.WriteOp(OpReturn, 1)

	if c.Len() != 3 {
		t.Fatalf("expected 3 bytes, got %d", c.Len())
	}
	if c.Constants[idx].AsNumber() != 1.2 {
		t.Fatalf("expected constant 1.2, got %v", c.Constants[idx])
	}
	if c.Lines[0] != 1 || c.Lines[2] != 1 {
		t.Fatalf("line table not recorded correctly: %v", c.Lines)
	}
}

func TestOpCodeString(t *testing.T) {
	if OpAdd.String() != "OP_ADD" {
		t.Fatalf("expected OP_ADD, got %s", OpAdd.String())
	}
	if OpCode(200).String() != "OP_UNKNOWN" {
		t.Fatalf("expected OP_UNKNOWN for out-of-range opcode")
	}
}
