package vm

import "github.com/kristofer/ember/pkg/object"

// captureUpvalue returns an open upvalue pointing at stack slot index,
// reusing an existing one if some other closure already captured that
// exact slot. The VM's open-upvalue list stays sorted by descending
// SlotIndex, mirroring clox's descending-address invariant.
func (v *VM) captureUpvalue(slotIndex int) *object.ObjUpvalue {
	var prev *object.ObjUpvalue
	cur := v.openUpvalues
	for cur != nil && cur.SlotIndex > slotIndex {
		prev = cur
		cur = cur.Next
	}
	if cur != nil && cur.SlotIndex == slotIndex {
		return cur
	}

	created := v.heap.NewUpvalue(&v.stack[slotIndex])
	created.SlotIndex = slotIndex
	created.Next = cur
	if prev == nil {
		v.openUpvalues = created
	} else {
		prev.Next = created
	}
	return created
}

// closeUpvalues closes every open upvalue at or above stack index
// last, copying each one's value off the stack so it survives the
// frame that owned it returning.
func (v *VM) closeUpvalues(last int) {
	for v.openUpvalues != nil && v.openUpvalues.SlotIndex >= last {
		u := v.openUpvalues
		u.Closed = *u.Location
		u.Location = &u.Closed
		v.openUpvalues = u.Next
	}
}
