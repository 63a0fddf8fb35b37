package object

import (
	"fmt"
	"os"

	"github.com/kristofer/ember/pkg/chunk"
	"github.com/kristofer/ember/pkg/value"
)

const initialGCThreshold = 1 << 20 // 1 MiB, matching clox's GC_HEAP_GROW_FACTOR starting point
const gcGrowFactor = 2

// RootMarker is implemented by anything that owns live references into
// the heap — the VM and, while compilation is in progress, the
// compiler. The Heap asks each registered marker to mark its roots
// instead of reaching into VM internals itself, keeping the collector
// decoupled from its callers.
type RootMarker interface {
	MarkRoots(h *Heap)
}

// Heap owns every object allocated during a run, the string-intern
// table, and the tricolor mark-sweep collector over them. Allocation
// triggers a collection once allocated crosses nextGC, exactly as
// clox's collectGarbage gate in memory.c does.
type Heap struct {
	objects   value.Object // intrusive singly-linked list of every live allocation
	strings   map[string]*ObjString
	gray      []value.Object
	allocated int
	nextGC    int
	markers   []RootMarker

	// StressGC, when set, forces a collection on every allocation
	// instead of waiting for nextGC — used by the GC stress scenario.
	StressGC bool
	// LogGC, when set, writes a line per collection's before/after byte
	// counts to os.Stderr; used for diagnosing collector behavior, never for
	// anything a test asserts byte-for-byte.
	LogGC bool
}

// NewHeap returns an empty heap.
func NewHeap() *Heap {
	return &Heap{
		strings: make(map[string]*ObjString),
		nextGC:  initialGCThreshold,
	}
}

// AddRoot registers a RootMarker the collector will consult on every
// collection. The VM registers itself once at construction; the
// compiler registers itself only while actively compiling.
func (h *Heap) AddRoot(m RootMarker) {
	h.markers = append(h.markers, m)
}

// RemoveRoot unregisters a previously-added marker.
func (h *Heap) RemoveRoot(m RootMarker) {
	for i, existing := range h.markers {
		if existing == m {
			h.markers = append(h.markers[:i], h.markers[i+1:]...)
			return
		}
	}
}

// track accounts o's size and, if that crosses the GC threshold, runs a
// collection *before* o is linked into h.objects — exactly as clox's
// reallocate() triggers collectGarbage from inside the raw allocator,
// strictly before the new Obj is linked into vm.objects. Collecting
// first means the sweep that a fresh allocation itself triggers can
// never see (and free) that same allocation, since it isn't reachable
// through h.objects yet; the caller still gets a chance to root it
// afterward.
func (h *Heap) track(o value.Object, size int) {
	h.allocated += size
	setSize(o, size)
	if h.StressGC || h.allocated > h.nextGC {
		h.Collect()
	}
	linkNext(o, h.objects)
	h.objects = o
}

// linkNext stores prev into o's intrusive header.next field. Every
// concrete object type embeds header, so a small type switch suffices.
func linkNext(o value.Object, prev value.Object) {
	switch v := o.(type) {
	case *ObjString:
		v.next = prev
	case *ObjFunction:
		v.next = prev
	case *ObjNative:
		v.next = prev
	case *ObjClosure:
		v.next = prev
	case *ObjUpvalue:
		v.next = prev
	case *ObjClass:
		v.next = prev
	case *ObjInstance:
		v.next = prev
	case *ObjBoundMethod:
		v.next = prev
	}
}

func nextOf(o value.Object) value.Object {
	switch v := o.(type) {
	case *ObjString:
		return v.next
	case *ObjFunction:
		return v.next
	case *ObjNative:
		return v.next
	case *ObjClosure:
		return v.next
	case *ObjUpvalue:
		return v.next
	case *ObjClass:
		return v.next
	case *ObjInstance:
		return v.next
	case *ObjBoundMethod:
		return v.next
	}
	return nil
}

func isMarked(o value.Object) bool {
	switch v := o.(type) {
	case *ObjString:
		return v.marked
	case *ObjFunction:
		return v.marked
	case *ObjNative:
		return v.marked
	case *ObjClosure:
		return v.marked
	case *ObjUpvalue:
		return v.marked
	case *ObjClass:
		return v.marked
	case *ObjInstance:
		return v.marked
	case *ObjBoundMethod:
		return v.marked
	}
	return true
}

func setMarked(o value.Object, m bool) {
	switch v := o.(type) {
	case *ObjString:
		v.marked = m
	case *ObjFunction:
		v.marked = m
	case *ObjNative:
		v.marked = m
	case *ObjClosure:
		v.marked = m
	case *ObjUpvalue:
		v.marked = m
	case *ObjClass:
		v.marked = m
	case *ObjInstance:
		v.marked = m
	case *ObjBoundMethod:
		v.marked = m
	}
}

func setSize(o value.Object, n int) {
	switch v := o.(type) {
	case *ObjString:
		v.size = n
	case *ObjFunction:
		v.size = n
	case *ObjNative:
		v.size = n
	case *ObjClosure:
		v.size = n
	case *ObjUpvalue:
		v.size = n
	case *ObjClass:
		v.size = n
	case *ObjInstance:
		v.size = n
	case *ObjBoundMethod:
		v.size = n
	}
}

func sizeOf(o value.Object) int {
	switch v := o.(type) {
	case *ObjString:
		return v.size
	case *ObjFunction:
		return v.size
	case *ObjNative:
		return v.size
	case *ObjClosure:
		return v.size
	case *ObjUpvalue:
		return v.size
	case *ObjClass:
		return v.size
	case *ObjInstance:
		return v.size
	case *ObjBoundMethod:
		return v.size
	}
	return 0
}

// --- allocation ---

// NewString interns s, returning the existing ObjString if an equal
// one was already produced by this heap, or allocating a fresh one
// otherwise. Every string Value in the system flows through here so
// that value.Equal's pointer comparison is sound.
func (h *Heap) NewString(s string) *ObjString {
	if existing, ok := h.strings[s]; ok {
		return existing
	}
	str := &ObjString{Chars: s, hash: hashString(s)}
	h.strings[s] = str
	h.track(str, len(s)+24)
	return str
}

// NewFunction allocates a fresh, empty function with its own chunk.
func (h *Heap) NewFunction() *ObjFunction {
	f := &ObjFunction{Chunk: chunk.New()}
	h.track(f, 64)
	return f
}

// NewNative wraps fn as a callable native function named name.
func (h *Heap) NewNative(name *ObjString, fn NativeFn) *ObjNative {
	n := &ObjNative{Name: name, Fn: fn}
	h.track(n, 32)
	return n
}

// NewClosure wraps function with space for its upvalue slots.
func (h *Heap) NewClosure(function *ObjFunction) *ObjClosure {
	c := &ObjClosure{Function: function, Upvalues: make([]*ObjUpvalue, function.UpvalueCount)}
	h.track(c, 32+8*function.UpvalueCount)
	return c
}

// NewUpvalue creates an open upvalue pointing at slot.
func (h *Heap) NewUpvalue(slot *value.Value) *ObjUpvalue {
	u := &ObjUpvalue{Location: slot}
	h.track(u, 32)
	return u
}

// NewClass allocates an empty class named name.
func (h *Heap) NewClass(name *ObjString) *ObjClass {
	c := &ObjClass{Name: name, Methods: NewTable()}
	h.track(c, 48)
	return c
}

// NewInstance allocates a fresh instance of class with no fields set.
func (h *Heap) NewInstance(class *ObjClass) *ObjInstance {
	i := &ObjInstance{Class: class, Fields: NewTable()}
	h.track(i, 48)
	return i
}

// NewBoundMethod binds method to receiver.
func (h *Heap) NewBoundMethod(receiver value.Value, method *ObjClosure) *ObjBoundMethod {
	b := &ObjBoundMethod{Receiver: receiver, Method: method}
	h.track(b, 32)
	return b
}

// --- collection ---

// Mark grays o: a freshly-grayed object is pushed on the worklist so
// blacken (below) can later mark what it reaches.
func (h *Heap) Mark(o value.Object) {
	if o == nil || isMarked(o) {
		return
	}
	setMarked(o, true)
	h.gray = append(h.gray, o)
}

// MarkValue marks v's underlying object, if it has one.
func (h *Heap) MarkValue(v value.Value) {
	if v.IsObj() {
		h.Mark(v.AsObj())
	}
}

// Collect runs one full tricolor mark-sweep cycle: mark every
// registered root, trace the gray worklist to black, sweep every
// object that never got marked, then grow nextGC from the resulting
// live size — the same cadence as clox's collectGarbage.
func (h *Heap) Collect() {
	before := h.allocated
	for _, m := range h.markers {
		m.MarkRoots(h)
	}
	h.traceReferences()
	h.sweep()
	h.nextGC = h.allocated * gcGrowFactor
	if h.nextGC < initialGCThreshold {
		h.nextGC = initialGCThreshold
	}
	if h.LogGC {
		fmt.Fprintf(os.Stderr, "gc: %d -> %d bytes, next at %d\n", before, h.allocated, h.nextGC)
	}
}

func (h *Heap) traceReferences() {
	for len(h.gray) > 0 {
		o := h.gray[len(h.gray)-1]
		h.gray = h.gray[:len(h.gray)-1]
		h.blacken(o)
	}
}

func (h *Heap) blacken(o value.Object) {
	switch v := o.(type) {
	case *ObjString, *ObjNative:
		// leaf objects: nothing further to mark
	case *ObjFunction:
		if v.Name != nil {
			h.Mark(v.Name)
		}
		for _, c := range v.Chunk.Constants {
			h.MarkValue(c)
		}
	case *ObjClosure:
		h.Mark(v.Function)
		for _, u := range v.Upvalues {
			// OP_CLOSURE fills the slots one by one, so a collection
			// triggered mid-fill sees nil entries.
			if u != nil {
				h.Mark(u)
			}
		}
	case *ObjUpvalue:
		h.MarkValue(v.Closed)
	case *ObjClass:
		h.Mark(v.Name)
		v.Methods.Each(func(k *ObjString, mv value.Value) {
			h.Mark(k)
			h.MarkValue(mv)
		})
	case *ObjInstance:
		h.Mark(v.Class)
		v.Fields.Each(func(k *ObjString, fv value.Value) {
			h.Mark(k)
			h.MarkValue(fv)
		})
	case *ObjBoundMethod:
		h.MarkValue(v.Receiver)
		h.Mark(v.Method)
	}
}

func (h *Heap) sweep() {
	var prev value.Object
	obj := h.objects
	for obj != nil {
		if isMarked(obj) {
			setMarked(obj, false)
			prev = obj
			obj = nextOf(obj)
			continue
		}
		unreached := obj
		obj = nextOf(obj)
		if prev != nil {
			linkNext(prev, obj)
		} else {
			h.objects = obj
		}
		h.allocated -= sizeOf(unreached)
		if str, ok := unreached.(*ObjString); ok {
			delete(h.strings, str.Chars)
		}
	}
}
