package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"loxvm/preprocessor"
	"loxvm/vm"
)

// emitBytecodeCmd compiles a file and writes a disassembly of the
// program to a dump-target file: the subcommand form of the bare
// `loxvm <file> <dump-target>` contract.
type emitBytecodeCmd struct{}

func (*emitBytecodeCmd) Name() string     { return "emit" }
func (*emitBytecodeCmd) Synopsis() string { return "Compile a file and dump its disassembly" }
func (*emitBytecodeCmd) Usage() string {
	return `emit <file> <dump-target>:
  Compile <file> and write a disassembly of the top-level chunk and
  every function template to <dump-target>.
`
}
func (cmd *emitBytecodeCmd) SetFlags(f *flag.FlagSet) {}

func (cmd *emitBytecodeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 2 {
		fmt.Fprintf(os.Stderr, "💥 Expected <file> <dump-target>\n")
		return subcommands.ExitUsageError
	}
	return subcommands.ExitStatus(dumpFile(args[0], args[1]))
}

// dumpFile compiles filename and writes the disassembly of every
// function it contains to dumpTarget.
func dumpFile(filename, dumpTarget string) int {
	source, err := preprocessor.Resolve(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to read file: %v\n", err)
		return exitUsageErr
	}

	machine := vm.New(os.Stdout)
	fn, ok := compileSource(machine, source)
	if !ok {
		return exitCompileErr
	}

	dump := disassembleDump(machine, fn)
	if err := os.WriteFile(dumpTarget, []byte(dump), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to write dump: %v\n", err)
		return exitRuntimeErr
	}
	return exitSuccess
}
