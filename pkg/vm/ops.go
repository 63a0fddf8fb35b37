package vm

import (
	"fmt"

	"github.com/kristofer/ember/pkg/object"
	"github.com/kristofer/ember/pkg/value"
)

// runtimeError builds a RuntimeError capturing the current call stack,
// innermost frame first, the way the stable diagnostic format requires.
func (v *VM) runtimeError(format string, args ...interface{}) *RuntimeError {
	message := fmt.Sprintf(format, args...)
	var frames []StackFrame
	for i := v.frameCount - 1; i >= 0; i-- {
		f := &v.frames[i]
		fn := f.closure.Function
		line := 0
		if f.ip-1 >= 0 && f.ip-1 < len(fn.Chunk.Lines) {
			line = fn.Chunk.Lines[f.ip-1]
		}
		name := "script"
		if fn.Name != nil {
			name = fn.Name.Chars
		}
		frames = append(frames, StackFrame{FunctionName: name, Line: line})
	}
	v.resetStack()
	return newRuntimeError(message, frames)
}

func (v *VM) resetStack() {
	v.stackTop = 0
	v.frameCount = 0
	v.openUpvalues = nil
}

func (v *VM) binaryNumberOp(op func(a, b float64) value.Value) *RuntimeError {
	if !v.peek(0).IsNumber() || !v.peek(1).IsNumber() {
		return v.runtimeError("Operands must be numbers.")
	}
	b := v.pop().AsNumber()
	a := v.pop().AsNumber()
	v.push(op(a, b))
	return nil
}

// add implements OP_ADD, which is overloaded over numbers and strings
// exactly as clox's concatenate-or-add dispatch is.
func (v *VM) add() *RuntimeError {
	switch {
	case v.peek(0).Is(value.ObjStringType) && v.peek(1).Is(value.ObjStringType):
		v.concatenate()
	case v.peek(0).IsNumber() && v.peek(1).IsNumber():
		b := v.pop().AsNumber()
		a := v.pop().AsNumber()
		v.push(value.Number(a + b))
	default:
		return v.runtimeError("Operands must be two numbers or two strings.")
	}
	return nil
}

// concatenate builds the result string while both operands are still
// on the value stack, so they stay reachable (and thus unmarked-safe)
// across any GC the allocation itself might trigger, matching clox's
// concatenate ordering in vm.c.
func (v *VM) concatenate() {
	b := v.peek(0).AsObj().(*object.ObjString)
	a := v.peek(1).AsObj().(*object.ObjString)
	result := v.heap.NewString(a.Chars + b.Chars)
	v.pop()
	v.pop()
	v.push(value.Obj(result))
}
