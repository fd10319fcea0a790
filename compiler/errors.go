package compiler

import "fmt"

// CompileError is a single diagnostic raised while scanning or
// compiling a source file: an unexpected token, an invalid assignment
// target, a duplicate local, and so on. The compiler keeps scanning
// and parsing after the first one (see panicMode in compiler.go) so a
// single Compile call can surface more than one.
type CompileError struct {
	Line    int
	Message string
}

func (e CompileError) Error() string {
	return fmt.Sprintf("💥 CompileError: [line %d] %s", e.Line, e.Message)
}
