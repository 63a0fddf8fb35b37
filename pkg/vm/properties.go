package vm

import (
	"github.com/kristofer/ember/pkg/object"
	"github.com/kristofer/ember/pkg/value"
)

func (v *VM) getProperty(f *CallFrame) *RuntimeError {
	if !v.peek(0).Is(value.ObjInstanceType) {
		return v.runtimeError("Only instances have properties.")
	}
	instance := v.peek(0).AsObj().(*object.ObjInstance)
	name := v.readString(f)

	if val, ok := instance.Fields.Get(name); ok {
		v.pop()
		v.push(val)
		return nil
	}
	return v.bindMethod(instance.Class, name, v.pop())
}

func (v *VM) setProperty(f *CallFrame) *RuntimeError {
	if !v.peek(1).Is(value.ObjInstanceType) {
		return v.runtimeError("Only instances have fields.")
	}
	instance := v.peek(1).AsObj().(*object.ObjInstance)
	name := v.readString(f)
	instance.Fields.Set(name, v.peek(0))

	val := v.pop()
	v.pop()
	v.push(val)
	return nil
}

// bindMethod looks up name on class and, if found, wraps it with
// receiver as an ObjBoundMethod pushed onto the stack.
func (v *VM) bindMethod(class *object.ObjClass, name *object.ObjString, receiver value.Value) *RuntimeError {
	method, ok := class.Methods.Get(name)
	if !ok {
		return v.runtimeError("Undefined property '%s'.", name.Chars)
	}
	bound := v.heap.NewBoundMethod(receiver, method.AsObj().(*object.ObjClosure))
	v.push(value.Obj(bound))
	return nil
}

// invoke fuses OP_GET_PROPERTY+OP_CALL: it avoids allocating an
// ObjBoundMethod for the common case of an immediate method call.
func (v *VM) invoke(name *object.ObjString, argCount int) *RuntimeError {
	receiver := v.peek(argCount)
	if !receiver.Is(value.ObjInstanceType) {
		return v.runtimeError("Only instances have methods.")
	}
	instance := receiver.AsObj().(*object.ObjInstance)

	if val, ok := instance.Fields.Get(name); ok {
		v.stack[v.stackTop-argCount-1] = val
		return v.callValue(val, argCount)
	}
	return v.invokeFromClass(instance.Class, name, argCount)
}

func (v *VM) invokeFromClass(class *object.ObjClass, name *object.ObjString, argCount int) *RuntimeError {
	method, ok := class.Methods.Get(name)
	if !ok {
		return v.runtimeError("Undefined property '%s'.", name.Chars)
	}
	return v.call(method.AsObj().(*object.ObjClosure), argCount)
}

func (v *VM) defineMethod(name *object.ObjString) {
	method := v.peek(0)
	class := v.peek(1).AsObj().(*object.ObjClass)
	class.Methods.Set(name, method)
	v.pop()
}
