package vm

import (
	"fmt"
	"time"

	"github.com/kristofer/ember/pkg/value"
)

// defineNative registers a Go function as a callable global, the way
// clox's defineNative seeds the "clock" native into a fresh VM.
func (v *VM) defineNative(name string, fn func(args []value.Value) (value.Value, error)) {
	nameStr := v.heap.NewString(name)
	// Push/pop around the allocation below is the idiom clox uses: the
	// name sits on the stack while NewNative runs, so a collection that
	// allocation triggers keeps it, and both stay rooted until the
	// globals table holds them.
	v.push(value.Obj(nameStr))
	native := v.heap.NewNative(nameStr, fn)
	v.push(value.Obj(native))
	v.globals.Set(nameStr, v.stack[v.stackTop-1])
	v.pop()
	v.pop()
}

func nativeClock(args []value.Value) (value.Value, error) {
	if len(args) != 0 {
		return value.Nil, fmt.Errorf("clock() takes no arguments")
	}
	return value.Number(float64(time.Since(startTime)) / float64(time.Second)), nil
}

var startTime = time.Now()
