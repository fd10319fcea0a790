package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"loxvm/interpreter"
	"loxvm/lexer"
	"loxvm/parser"
)

// treeCmd runs a script through the tree-walking reference evaluator
// instead of the bytecode VM. It exists purely as an external
// collaborator for cross-checking the compiled path's semantics, not
// as a supported end-user mode; the compiled `run` subcommand is the
// one the CLI contract documents.
type treeCmd struct{}

func (*treeCmd) Name() string     { return "tree" }
func (*treeCmd) Synopsis() string { return "Run a script through the tree-walking reference evaluator" }
func (*treeCmd) Usage() string {
	return `tree <file>:
  Interpret a Lox script with the tree-walking reference evaluator.
`
}
func (r *treeCmd) SetFlags(f *flag.FlagSet) {}

func (r *treeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitUsageError
	}
	filename := args[0]

	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	tokens := lexer.ScanAll(string(data))
	p := parser.Make(tokens)
	statements, errs := p.Parse()
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e)
		}
		return subcommands.ExitStatus(exitCompileErr)
	}

	interp := interpreter.Make()
	interp.Interpret(statements)
	return subcommands.ExitSuccess
}
