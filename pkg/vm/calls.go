package vm

import (
	"github.com/kristofer/ember/pkg/object"
	"github.com/kristofer/ember/pkg/value"
)

// callValue dispatches OP_CALL's callee, which may be a closure, a
// native function, a class (constructing an instance), or a bound
// method — anything else is a runtime error.
func (v *VM) callValue(callee value.Value, argCount int) *RuntimeError {
	if callee.IsObj() {
		switch obj := callee.AsObj().(type) {
		case *object.ObjClosure:
			return v.call(obj, argCount)
		case *object.ObjNative:
			return v.callNative(obj, argCount)
		case *object.ObjClass:
			instance := v.heap.NewInstance(obj)
			v.stack[v.stackTop-argCount-1] = value.Obj(instance)
			if initializer, ok := obj.Methods.Get(v.initString); ok {
				return v.call(initializer.AsObj().(*object.ObjClosure), argCount)
			} else if argCount != 0 {
				return v.runtimeError("Expected 0 arguments but got %d.", argCount)
			}
			return nil
		case *object.ObjBoundMethod:
			v.stack[v.stackTop-argCount-1] = obj.Receiver
			return v.call(obj.Method, argCount)
		}
	}
	return v.runtimeError("Can only call functions and classes.")
}

// call pushes a new CallFrame for closure, validating arity and the
// fixed frame-stack depth.
func (v *VM) call(closure *object.ObjClosure, argCount int) *RuntimeError {
	if argCount != closure.Function.Arity {
		return v.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argCount)
	}
	if v.frameCount == framesMax {
		return v.runtimeError("Stack overflow.")
	}
	v.frames[v.frameCount] = CallFrame{
		closure: closure,
		ip:      0,
		slots:   v.stackTop - argCount - 1,
	}
	v.frameCount++
	return nil
}

func (v *VM) callNative(native *object.ObjNative, argCount int) *RuntimeError {
	args := v.stack[v.stackTop-argCount : v.stackTop]
	result, err := native.Fn(args)
	if err != nil {
		return v.runtimeError("%s", err.Error())
	}
	v.stackTop -= argCount + 1
	v.push(result)
	return nil
}
