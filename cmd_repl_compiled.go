package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"loxvm/interpreter"
	"loxvm/lexer"
	"loxvm/parser"
)

// treeReplCmd is the tree-walking evaluator's own line-at-a-time shell,
// kept as a reference collaborator alongside the bytecode VM's `repl`.
// Unlike the VM's repl it has no multi-line continuation: each line is
// parsed and executed independently.
type treeReplCmd struct{}

func (*treeReplCmd) Name() string { return "treeRepl" }
func (*treeReplCmd) Synopsis() string {
	return "Start a REPL backed by the tree-walking reference evaluator"
}
func (*treeReplCmd) Usage() string {
	return `treeRepl:
  Start an interactive session backed by the tree-walking evaluator.
`
}
func (cmd *treeReplCmd) SetFlags(f *flag.FlagSet) {}

func (cmd *treeReplCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fmt.Println("loxvm tree-walking REPL")
	scanner := bufio.NewScanner(os.Stdin)
	interp := interpreter.Make()

	for {
		fmt.Fprint(os.Stdout, ">>> ")
		if !scanner.Scan() {
			return subcommands.ExitSuccess
		}
		line := scanner.Text()
		if line == "exit" || line == ":quit" || line == ":q" {
			return subcommands.ExitSuccess
		}

		tokens := lexer.ScanAll(line)
		p := parser.Make(tokens)
		statements, errs := p.Parse()
		if len(errs) > 0 {
			for _, e := range errs {
				fmt.Fprintln(os.Stderr, e)
			}
			continue
		}
		interp.Interpret(statements)
	}
}
