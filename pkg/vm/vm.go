// Package vm implements the stack-based virtual machine that executes
// compiled chunks: the call-frame stack, the value stack, globals, open
// upvalues, and the opcode dispatch loop.
package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/kristofer/ember/pkg/chunk"
	"github.com/kristofer/ember/pkg/debug"
	"github.com/kristofer/ember/pkg/object"
	"github.com/kristofer/ember/pkg/value"
)

const framesMax = 64
const stackMax = framesMax * 256

// CallFrame is one activation record: the closure being executed, its
// instruction pointer, and the base index into the VM's value stack
// where its locals begin.
type CallFrame struct {
	closure *object.ObjClosure
	ip      int
	slots   int
}

// VM executes compiled Ember bytecode. Construct one with New and run a
// script with Interpret.
type VM struct {
	heap   *object.Heap
	frames [framesMax]CallFrame
	frameCount int

	stack    [stackMax]value.Value
	stackTop int

	globals      *object.Table
	openUpvalues *object.ObjUpvalue
	initString   *object.ObjString

	// Out is where OP_PRINT writes; defaults to os.Stdout and can be
	// redirected by the embedder with WithOutput.
	Out io.Writer
	// Trace, when true, logs each executed instruction; wired to
	// cmd/ember's -trace flag.
	Trace bool
}

// Option configures a VM at construction time.
type Option func(*VM)

// WithOutput redirects print statements to w instead of the default.
func WithOutput(w io.Writer) Option {
	return func(v *VM) { v.Out = w }
}

// WithStressGC forces a collection on every single allocation, for
// exercising the garbage collector under the heaviest possible load.
func WithStressGC() Option {
	return func(v *VM) { v.heap.StressGC = true }
}

// New constructs a VM with its own heap and registers the VM itself as
// a GC root so a collection triggered mid-run can see every live value.
func New(opts ...Option) *VM {
	v := &VM{
		heap:    object.NewHeap(),
		globals: object.NewTable(),
		Out:     os.Stdout,
	}
	v.initString = v.heap.NewString("init")
	v.heap.AddRoot(v)
	v.defineNative("clock", nativeClock)
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Heap exposes the VM's heap, e.g. so an embedder can compile into it.
func (v *VM) Heap() *object.Heap { return v.heap }

// MarkRoots implements object.RootMarker: the value stack, every call
// frame's closure, the open-upvalue list, the globals table, and the
// reserved "init" string are all roots a collection must trace from.
func (v *VM) MarkRoots(h *object.Heap) {
	for i := 0; i < v.stackTop; i++ {
		h.MarkValue(v.stack[i])
	}
	for i := 0; i < v.frameCount; i++ {
		h.Mark(v.frames[i].closure)
	}
	for u := v.openUpvalues; u != nil; u = u.Next {
		h.Mark(u)
	}
	v.globals.Each(func(name *object.ObjString, val value.Value) {
		h.Mark(name)
		h.MarkValue(val)
	})
	h.Mark(v.initString)
}

func (v *VM) push(val value.Value) {
	v.stack[v.stackTop] = val
	v.stackTop++
}

func (v *VM) pop() value.Value {
	v.stackTop--
	return v.stack[v.stackTop]
}

func (v *VM) peek(distance int) value.Value {
	return v.stack[v.stackTop-1-distance]
}

// Interpret compiles and runs source as a fresh top-level script,
// returning a *RuntimeError if the program raised one. Compile errors
// are reported through errOut (see pkg/compiler) and surfaced here as
// a plain error so callers have one failure path to check.
func (v *VM) Interpret(source string, errOut io.Writer) error {
	fn, ok := compileSource(source, v.heap, errOut)
	if !ok {
		return fmt.Errorf("compilation failed")
	}
	closure := v.heap.NewClosure(fn)
	v.push(value.Obj(closure))
	if err := v.call(closure, 0); err != nil {
		return err
	}
	return v.run()
}

func (v *VM) frame() *CallFrame { return &v.frames[v.frameCount-1] }

func (v *VM) readByte(f *CallFrame) byte {
	b := f.closure.Function.Chunk.Code[f.ip]
	f.ip++
	return b
}

func (v *VM) readShort(f *CallFrame) int {
	hi := v.readByte(f)
	lo := v.readByte(f)
	return int(hi)<<8 | int(lo)
}

func (v *VM) readConstant(f *CallFrame) value.Value {
	return f.closure.Function.Chunk.Constants[v.readByte(f)]
}

func (v *VM) readString(f *CallFrame) *object.ObjString {
	return v.readConstant(f).AsObj().(*object.ObjString)
}

// run executes instructions from the current frame until the outermost
// call returns or a runtime error occurs.
func (v *VM) run() error {
	f := v.frame()
	for {
		if v.Trace {
			debug.DisassembleInstruction(v.Out, f.closure.Function.Chunk, f.ip)
		}
		op := chunk.OpCode(v.readByte(f))
		switch op {
		case chunk.OpConstant:
			v.push(v.readConstant(f))
		case chunk.OpNil:
			v.push(value.Nil)
		case chunk.OpTrue:
			v.push(value.Bool(true))
		case chunk.OpFalse:
			v.push(value.Bool(false))
		case chunk.OpPop:
			v.pop()
		case chunk.OpGetLocal:
			slot := v.readByte(f)
			v.push(v.stack[f.slots+int(slot)])
		case chunk.OpSetLocal:
			slot := v.readByte(f)
			v.stack[f.slots+int(slot)] = v.peek(0)
		case chunk.OpGetGlobal:
			name := v.readString(f)
			val, ok := v.globals.Get(name)
			if !ok {
				return v.runtimeError("Undefined variable '%s'.", name.Chars)
			}
			v.push(val)
		case chunk.OpDefineGlobal:
			name := v.readString(f)
			v.globals.Set(name, v.peek(0))
			v.pop()
		case chunk.OpSetGlobal:
			name := v.readString(f)
			if v.globals.Set(name, v.peek(0)) {
				v.globals.Delete(name)
				return v.runtimeError("Undefined variable '%s'.", name.Chars)
			}
		case chunk.OpGetUpvalue:
			slot := v.readByte(f)
			v.push(*f.closure.Upvalues[slot].Location)
		case chunk.OpSetUpvalue:
			slot := v.readByte(f)
			*f.closure.Upvalues[slot].Location = v.peek(0)
		case chunk.OpGetProperty:
			if err := v.getProperty(f); err != nil {
				return err
			}
		case chunk.OpSetProperty:
			if err := v.setProperty(f); err != nil {
				return err
			}
		case chunk.OpGetSuper:
			name := v.readString(f)
			superclass := v.pop().AsObj().(*object.ObjClass)
			instance := v.pop()
			if err := v.bindMethod(superclass, name, instance); err != nil {
				return err
			}
		case chunk.OpEqual:
			b := v.pop()
			a := v.pop()
			v.push(value.Bool(value.Equal(a, b)))
		case chunk.OpGreater:
			if err := v.binaryNumberOp(func(a, b float64) value.Value { return value.Bool(a > b) }); err != nil {
				return err
			}
		case chunk.OpLess:
			if err := v.binaryNumberOp(func(a, b float64) value.Value { return value.Bool(a < b) }); err != nil {
				return err
			}
		case chunk.OpAdd:
			if err := v.add(); err != nil {
				return err
			}
		case chunk.OpSubtract:
			if err := v.binaryNumberOp(func(a, b float64) value.Value { return value.Number(a - b) }); err != nil {
				return err
			}
		case chunk.OpMultiply:
			if err := v.binaryNumberOp(func(a, b float64) value.Value { return value.Number(a * b) }); err != nil {
				return err
			}
		case chunk.OpDivide:
			if err := v.binaryNumberOp(func(a, b float64) value.Value { return value.Number(a / b) }); err != nil {
				return err
			}
		case chunk.OpNot:
			v.push(value.Bool(v.pop().IsFalsey()))
		case chunk.OpNegate:
			if !v.peek(0).IsNumber() {
				return v.runtimeError("Operand must be a number.")
			}
			v.push(value.Number(-v.pop().AsNumber()))
		case chunk.OpPrint:
			fmt.Fprintln(v.Out, v.pop().String())
		case chunk.OpJump:
			offset := v.readShort(f)
			f.ip += offset
		case chunk.OpJumpIfFalse:
			offset := v.readShort(f)
			if v.peek(0).IsFalsey() {
				f.ip += offset
			}
		case chunk.OpLoop:
			offset := v.readShort(f)
			f.ip -= offset
		case chunk.OpCall:
			argCount := int(v.readByte(f))
			if err := v.callValue(v.peek(argCount), argCount); err != nil {
				return err
			}
			f = v.frame()
		case chunk.OpInvoke:
			method := v.readString(f)
			argCount := int(v.readByte(f))
			if err := v.invoke(method, argCount); err != nil {
				return err
			}
			f = v.frame()
		case chunk.OpSuperInvoke:
			method := v.readString(f)
			argCount := int(v.readByte(f))
			superclass := v.pop().AsObj().(*object.ObjClass)
			if err := v.invokeFromClass(superclass, method, argCount); err != nil {
				return err
			}
			f = v.frame()
		case chunk.OpClosure:
			fn := v.readConstant(f).AsObj().(*object.ObjFunction)
			closure := v.heap.NewClosure(fn)
			v.push(value.Obj(closure))
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := v.readByte(f)
				index := v.readByte(f)
				if isLocal != 0 {
					closure.Upvalues[i] = v.captureUpvalue(f.slots + int(index))
				} else {
					closure.Upvalues[i] = f.closure.Upvalues[index]
				}
			}
		case chunk.OpCloseUpvalue:
			v.closeUpvalues(v.stackTop - 1)
			v.pop()
		case chunk.OpReturn:
			result := v.pop()
			v.closeUpvalues(f.slots)
			v.frameCount--
			if v.frameCount == 0 {
				v.pop()
				return nil
			}
			v.stackTop = f.slots
			v.push(result)
			f = v.frame()
		case chunk.OpClass:
			name := v.readString(f)
			v.push(value.Obj(v.heap.NewClass(name)))
		case chunk.OpInherit:
			superVal := v.peek(1)
			if !superVal.Is(value.ObjClassType) {
				return v.runtimeError("Superclass must be a class.")
			}
			subclass := v.peek(0).AsObj().(*object.ObjClass)
			subclass.Methods.AddAll(superVal.AsObj().(*object.ObjClass).Methods)
			v.pop() // pop the subclass; the superclass underneath is the "super" local
		case chunk.OpMethod:
			name := v.readString(f)
			v.defineMethod(name)
		default:
			return v.runtimeError("Unknown opcode %d.", op)
		}
	}
}
