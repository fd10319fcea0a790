package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

// main implements spec.md's §6 positional CLI contract directly: the
// documented interface is "0 args REPL, 1 arg run script, 2 args file
// plus dump target", not a subcommand name. Subcommands are still
// registered underneath for discoverability (`loxvm repl`, `loxvm run
// FILE`, `loxvm emit FILE DUMP`, `loxvm tree FILE`) and take over
// whenever the first argument names one of them.
func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&replCmd{}, "")
	subcommands.Register(&runCmd{}, "")
	subcommands.Register(&emitBytecodeCmd{}, "")
	subcommands.Register(&treeCmd{}, "")
	subcommands.Register(&treeReplCmd{}, "")

	if len(os.Args) > 1 && isRegisteredSubcommand(os.Args[1]) {
		flag.Parse()
		os.Exit(int(subcommands.Execute(context.Background())))
	}

	os.Exit(runPositional(os.Args[1:]))
}

func isRegisteredSubcommand(name string) bool {
	switch name {
	case "help", "flags", "commands", "repl", "run", "emit", "tree", "treeRepl":
		return true
	}
	return false
}

// runPositional implements the bare positional contract: 0 args start
// the REPL, 1 arg runs a script, 2 args compile-and-dump, anything
// else is a usage error.
func runPositional(args []string) int {
	switch len(args) {
	case 0:
		return runREPL(os.Stdin, os.Stdout)
	case 1:
		return runFile(args[0], os.Stdout)
	case 2:
		return dumpFile(args[0], args[1])
	default:
		fmt.Fprintln(os.Stderr, "usage: loxvm [script] | loxvm <script> <dump-target>")
		return exitUsageErr
	}
}
