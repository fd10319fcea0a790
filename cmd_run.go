package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"loxvm/preprocessor"
)

// runCmd compiles and interprets a single script file through the
// bytecode VM: the subcommand form of the bare `loxvm <file>` contract.
type runCmd struct{}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "Compile and run a Lox script" }
func (*runCmd) Usage() string {
	return `run <file>:
  Compile and interpret a Lox script through the bytecode VM.
`
}
func (r *runCmd) SetFlags(f *flag.FlagSet) {}

func (r *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitUsageError
	}
	return subcommands.ExitStatus(runFile(args[0], os.Stdout))
}

// runFile reads filename, resolves `#include` lines, then compiles
// and interprets the result, returning the process exit code the CLI
// contract specifies.
func runFile(filename string, out io.Writer) int {
	source, err := preprocessor.Resolve(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to read file: %v\n", err)
		return exitUsageErr
	}
	return runSource(source, out)
}
