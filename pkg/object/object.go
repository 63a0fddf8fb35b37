// Package object implements the heap object model: interned strings,
// functions, closures, upvalues, classes, instances and bound methods,
// plus the Table type and the tricolor mark-sweep collector that owns
// them all.
package object

import (
	"fmt"

	"github.com/kristofer/ember/pkg/chunk"
	"github.com/kristofer/ember/pkg/value"
)

// header is embedded in every heap object. It carries the GC mark bit
// and the intrusive next-pointer the Heap uses to walk every live
// allocation during a sweep, the way clox's Obj struct does.
type header struct {
	marked bool
	next   value.Object
	size   int
}

// ObjString is an interned, immutable string. Two ObjStrings with equal
// contents are always the same pointer once produced through a Heap,
// so value.Equal can compare strings by pointer identity.
type ObjString struct {
	header
	Chars string
	hash  uint32
}

func (s *ObjString) Type() value.ObjType { return value.ObjStringType }
func (s *ObjString) String() string      { return s.Chars }

func hashString(s string) uint32 {
	// FNV-1a, the same hash clox's table.c uses.
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

// ObjFunction is a compiled function: its arity, its bytecode chunk,
// the number of upvalues it captures, and a name for stack traces (nil
// for the implicit top-level script).
type ObjFunction struct {
	header
	Arity        int
	UpvalueCount int
	Chunk        *chunk.Chunk
	Name         *ObjString
}

func (f *ObjFunction) Type() value.ObjType { return value.ObjFunctionType }
func (f *ObjFunction) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Chars)
}

// NativeFn is the Go-side implementation of a native function. It
// receives its arguments and returns a result value or an error; a
// non-nil error becomes a runtime error at the call site.
type NativeFn func(args []value.Value) (value.Value, error)

// ObjNative wraps a Go function so Lox code can call it like any other
// callable.
type ObjNative struct {
	header
	Name *ObjString
	Fn   NativeFn
}

func (n *ObjNative) Type() value.ObjType { return value.ObjNativeType }
func (n *ObjNative) String() string      { return "<native fn>" }

// ObjUpvalue is a reference to a stack slot that may later be "closed":
// once the frame that owns the slot returns, the value is copied into
// Closed and Location is repointed at it, so closures keep working.
type ObjUpvalue struct {
	header
	Location *value.Value
	Closed   value.Value
	Next     *ObjUpvalue // intrusive link in the VM's open-upvalue list
	// SlotIndex is the stack slot Location currently points at, valid
	// only while the upvalue is open. The VM keeps its open-upvalue
	// list sorted by descending SlotIndex, the Go-idiomatic stand-in
	// for clox's raw pointer-address ordering (Go forbids ordered
	// comparison of pointers, so an index plays the same role).
	SlotIndex int
}

func (u *ObjUpvalue) Type() value.ObjType { return value.ObjUpvalueType }
func (u *ObjUpvalue) String() string      { return "upvalue" }

// ObjClosure pairs a compiled function with the upvalues it captured at
// creation time.
type ObjClosure struct {
	header
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

func (c *ObjClosure) Type() value.ObjType { return value.ObjClosureType }
func (c *ObjClosure) String() string      { return c.Function.String() }

// ObjClass is a class: a name and its own method table (method name ->
// closure). Inherited methods are copied in at OP_INHERIT time rather
// than looked up through a superclass chain at call time.
type ObjClass struct {
	header
	Name    *ObjString
	Methods *Table
}

func (c *ObjClass) Type() value.ObjType { return value.ObjClassType }
func (c *ObjClass) String() string      { return c.Name.Chars }

// ObjInstance is an instance of a class: a back-pointer to its class
// plus its own field table.
type ObjInstance struct {
	header
	Class  *ObjClass
	Fields *Table
}

func (i *ObjInstance) Type() value.ObjType { return value.ObjInstanceType }
func (i *ObjInstance) String() string      { return i.Class.Name.Chars + " instance" }

// ObjBoundMethod pairs a receiver instance with the closure to invoke,
// produced by OP_GET_PROPERTY when the property names a method.
type ObjBoundMethod struct {
	header
	Receiver value.Value
	Method   *ObjClosure
}

func (b *ObjBoundMethod) Type() value.ObjType { return value.ObjBoundMethodType }
func (b *ObjBoundMethod) String() string      { return b.Method.String() }

// Table is a hash table keyed by interned string identity, used for
// globals, class method tables and instance fields (the Heap's intern
// table is a separate map keyed by string contents).
// clox hand-rolls open addressing here; Ember uses a native Go map
// keyed on the *ObjString pointer, which already gives O(1amortized)
// lookup and respects identity equality once strings are interned (see
// DESIGN.md for why no third-party hash-table library applies here).
type Table struct {
	entries map[*ObjString]value.Value
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[*ObjString]value.Value)}
}

// Get looks up key, returning the value and whether it was present.
func (t *Table) Get(key *ObjString) (value.Value, bool) {
	v, ok := t.entries[key]
	return v, ok
}

// Set stores value under key, returning true if this created a new
// entry rather than overwriting one.
func (t *Table) Set(key *ObjString, v value.Value) bool {
	_, existed := t.entries[key]
	t.entries[key] = v
	return !existed
}

// Delete removes key, reporting whether it was present.
func (t *Table) Delete(key *ObjString) bool {
	if _, ok := t.entries[key]; !ok {
		return false
	}
	delete(t.entries, key)
	return true
}

// AddAll copies every entry of src into t, overwriting any existing
// entry of the same name. Used by OP_INHERIT to seed a subclass's
// method table from its superclass before the subclass's own OP_METHOD
// instructions run and shadow the inherited ones, exactly as clox's
// tableAddAll does.
func (t *Table) AddAll(src *Table) {
	for k, v := range src.entries {
		t.entries[k] = v
	}
}

// Len reports the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// Each calls fn for every entry; used by the GC to mark a table's
// keys and values.
func (t *Table) Each(fn func(key *ObjString, v value.Value)) {
	for k, v := range t.entries {
		fn(k, v)
	}
}
