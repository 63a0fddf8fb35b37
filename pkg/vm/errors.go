// Package vm - error handling with stack traces.
package vm

import (
	"fmt"
	"strings"
)

// StackFrame captures where execution was at one level of the call
// stack when a runtime error was raised.
type StackFrame struct {
	FunctionName string // "script" for the implicit top-level frame
	Line         int
}

// RuntimeError is returned by Interpret when user code raises an
// error the VM cannot recover from (a type error, an undefined
// variable, an arity mismatch, ...). Its Error() string matches the
// stable two-part format: the message, then one "[line N] in X" line
// per frame, innermost first.
type RuntimeError struct {
	Message    string
	StackTrace []StackFrame
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	for _, frame := range e.StackTrace {
		b.WriteByte('\n')
		b.WriteString(fmt.Sprintf("[line %d] in %s", frame.Line, frame.FunctionName))
	}
	return b.String()
}

func newRuntimeError(message string, stack []StackFrame) *RuntimeError {
	return &RuntimeError{Message: message, StackTrace: stack}
}
