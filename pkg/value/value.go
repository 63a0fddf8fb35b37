// Package value defines the tagged runtime value representation shared
// by the compiler, the heap, and the virtual machine.
package value

import (
	"fmt"
	"math"
)

// ValueType tags which variant of Value is live.
type ValueType int

const (
	ValNil ValueType = iota
	ValBool
	ValNumber
	ValObj
)

// Object is implemented by every heap-allocated type (strings, functions,
// closures, classes, instances, ...). The GC walks values through this
// interface without needing to know the concrete object type.
type Object interface {
	// Type reports which concrete object kind this is.
	Type() ObjType
	// String renders the object the way Lox's built-in print would.
	String() string
}

// ObjType discriminates the concrete kind behind an Object.
type ObjType int

const (
	ObjStringType ObjType = iota
	ObjFunctionType
	ObjNativeType
	ObjClosureType
	ObjUpvalueType
	ObjClassType
	ObjInstanceType
	ObjBoundMethodType
)

// Value is a small tagged union: a number or boolean lives inline, an
// object lives on the heap and is referenced through Obj. This mirrors
// clox's NaN-boxed/tagged-union Value but uses an explicit Go struct
// instead of a C union, which is the idiomatic tradeoff in Go.
type Value struct {
	typ    ValueType
	boolean bool
	number float64
	obj    Object
}

// Nil is the singleton nil value.
var Nil = Value{typ: ValNil}

// Bool wraps a boolean into a Value.
func Bool(b bool) Value { return Value{typ: ValBool, boolean: b} }

// Number wraps a float64 into a Value.
func Number(n float64) Value { return Value{typ: ValNumber, number: n} }

// Obj wraps a heap Object into a Value.
func Obj(o Object) Value { return Value{typ: ValObj, obj: o} }

func (v Value) IsNil() bool    { return v.typ == ValNil }
func (v Value) IsBool() bool   { return v.typ == ValBool }
func (v Value) IsNumber() bool { return v.typ == ValNumber }
func (v Value) IsObj() bool    { return v.typ == ValObj }

func (v Value) AsBool() bool     { return v.boolean }
func (v Value) AsNumber() float64 { return v.number }
func (v Value) AsObj() Object     { return v.obj }

// Is reports whether the value is a heap object of the given kind.
func (v Value) Is(t ObjType) bool {
	return v.typ == ValObj && v.obj.Type() == t
}

// IsFalsey implements Lox's truthiness rule: nil and false are falsey,
// everything else (including 0 and "") is truthy.
func (v Value) IsFalsey() bool {
	return v.IsNil() || (v.IsBool() && !v.AsBool())
}

// Equal implements Lox's == for values, comparing objects by identity
// except for strings, which compare by interned pointer identity too
// (interning guarantees equal contents share one *ObjString).
func Equal(a, b Value) bool {
	if a.typ != b.typ {
		return false
	}
	switch a.typ {
	case ValNil:
		return true
	case ValBool:
		return a.boolean == b.boolean
	case ValNumber:
		return a.number == b.number
	case ValObj:
		return a.obj == b.obj
	default:
		return false
	}
}

// String renders a value the way the VM's print statement does.
func (v Value) String() string {
	switch v.typ {
	case ValNil:
		return "nil"
	case ValBool:
		if v.boolean {
			return "true"
		}
		return "false"
	case ValNumber:
		return formatNumber(v.number)
	case ValObj:
		return v.obj.String()
	default:
		return "<invalid value>"
	}
}

func formatNumber(n float64) string {
	if math.IsInf(n, 1) {
		return "inf"
	}
	if math.IsInf(n, -1) {
		return "-inf"
	}
	if math.IsNaN(n) {
		return "nan"
	}
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%g", n)
}
