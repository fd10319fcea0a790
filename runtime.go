package main

import (
	"fmt"
	"io"
	"os"

	"loxvm/compiler"
	"loxvm/vm"
)

// exit codes per the documented CLI contract.
const (
	exitSuccess     = 0
	exitCompileErr  = 65
	exitRuntimeErr  = 70
	exitUsageErr    = 1
)

// compileSource compiles source against the GC owned by machine,
// printing every collected diagnostic to stderr on failure.
func compileSource(machine *vm.VM, source string) (int32, bool) {
	fn, errs := compiler.Compile(source, machine.GC)
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e)
		}
		return -1, false
	}
	return fn, true
}

// runSource compiles and interprets source on a brand-new VM writing
// to out, returning the process exit code the CLI contract specifies.
func runSource(source string, out io.Writer) int {
	machine := vm.New(out)
	fn, ok := compileSource(machine, source)
	if !ok {
		return exitCompileErr
	}
	if err := machine.Interpret(fn); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitRuntimeErr
	}
	return exitSuccess
}
