package compiler

import (
	"bytes"
	"testing"

	"github.com/kristofer/ember/pkg/chunk"
	"github.com/kristofer/ember/pkg/object"
)

func TestCompileSimpleExpression(t *testing.T) {
	heap := object.NewHeap()
	var errs bytes.Buffer
	fn, ok := Compile("1 + 2;", heap, &errs)
	if !ok {
		t.Fatalf("unexpected compile error: %s", errs.String())
	}
	if len(fn.Chunk.Code) == 0 {
		t.Fatal("expected non-empty bytecode")
	}
	lastOp := chunk.OpCode(fn.Chunk.Code[len(fn.Chunk.Code)-1])
	if lastOp != chunk.OpReturn {
		t.Fatalf("expected script to end in OP_RETURN, got %s", lastOp)
	}
}

func TestCompileSyntaxErrorReported(t *testing.T) {
	heap := object.NewHeap()
	var errs bytes.Buffer
	_, ok := Compile("var = ;", heap, &errs)
	if ok {
		t.Fatal("expected compile failure for invalid syntax")
	}
	if errs.Len() == 0 {
		t.Fatal("expected a diagnostic to be written")
	}
}

func TestCompileRedeclareLocalIsError(t *testing.T) {
	heap := object.NewHeap()
	var errs bytes.Buffer
	_, ok := Compile("{ var a = 1; var a = 2; }", heap, &errs)
	if ok {
		t.Fatal("expected redeclaration in the same scope to fail")
	}
}

func TestCompileReturnAtTopLevelIsError(t *testing.T) {
	heap := object.NewHeap()
	var errs bytes.Buffer
	_, ok := Compile("return 1;", heap, &errs)
	if ok {
		t.Fatal("expected top-level return to fail")
	}
}

func TestCompileFunctionAndClass(t *testing.T) {
	heap := object.NewHeap()
	var errs bytes.Buffer
	src := `
	class Greeter {
		init(name) {
			this.name = name;
		}
		hello() {
			return "hi " + this.name;
		}
	}
	fun make() {
		return Greeter("world");
	}
	`
	_, ok := Compile(src, heap, &errs)
	if !ok {
		t.Fatalf("unexpected compile error: %s", errs.String())
	}
}
