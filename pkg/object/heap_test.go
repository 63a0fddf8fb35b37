package object

import (
	"testing"

	"github.com/kristofer/ember/pkg/value"
)

func TestStringInterning(t *testing.T) {
	h := NewHeap()
	a := h.NewString("hello")
	b := h.NewString("hello")
	if a != b {
		t.Fatal("equal strings should be interned to the same pointer")
	}
	c := h.NewString("world")
	if a == c {
		t.Fatal("different strings must not share an ObjString")
	}
}

func TestTableAddAllOverwrites(t *testing.T) {
	h := NewHeap()
	base := NewTable()
	sub := NewTable()

	name := h.NewString("greet")
	base.Set(name, value.Number(1))
	sub.AddAll(base)

	got, ok := sub.Get(name)
	if !ok || got.AsNumber() != 1 {
		t.Fatal("AddAll should copy the superclass's entries")
	}

	sub.Set(name, value.Number(2))
	got, _ = sub.Get(name)
	if got.AsNumber() != 2 {
		t.Fatal("a later Set should shadow the inherited entry")
	}
	baseVal, _ := base.Get(name)
	if baseVal.AsNumber() != 1 {
		t.Fatal("shadowing the subclass copy must not mutate the superclass table")
	}
}

// recordingRoot marks nothing, simulating a root with no live references,
// so unreached allocations get swept.
type recordingRoot struct{}

func (recordingRoot) MarkRoots(h *Heap) {}

func TestCollectSweepsUnreachableStrings(t *testing.T) {
	h := NewHeap()
	h.AddRoot(recordingRoot{})
	h.NewString("garbage")
	if _, ok := h.strings["garbage"]; !ok {
		t.Fatal("string should be interned before collection")
	}
	h.Collect()
	if _, ok := h.strings["garbage"]; ok {
		t.Fatal("unreachable string should be swept and un-interned")
	}
}

type keepAliveRoot struct{ obj *ObjString }

func (r keepAliveRoot) MarkRoots(h *Heap) { h.Mark(r.obj) }

func TestCollectKeepsMarkedObjectsAlive(t *testing.T) {
	h := NewHeap()
	kept := h.NewString("kept")
	h.AddRoot(keepAliveRoot{obj: kept})
	h.NewString("discarded")

	h.Collect()

	if _, ok := h.strings["kept"]; !ok {
		t.Fatal("a marked string must survive collection")
	}
	if _, ok := h.strings["discarded"]; ok {
		t.Fatal("an unmarked string must not survive collection")
	}
}
