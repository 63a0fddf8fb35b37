package vm

import (
	"io"

	"github.com/kristofer/ember/pkg/compiler"
	"github.com/kristofer/ember/pkg/object"
)

// compileSource is a thin indirection so vm.go doesn't need to know
// compiler's package name inline at every call site.
func compileSource(source string, heap *object.Heap, errOut io.Writer) (*object.ObjFunction, bool) {
	return compiler.Compile(source, heap, errOut)
}
