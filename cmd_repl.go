package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"loxvm/lexer"
	"loxvm/preprocessor"
	"loxvm/token"
	"loxvm/vm"
)

// replCmd starts the interactive shell: the subcommand form of the
// bare `loxvm` (zero-argument) contract.
type replCmd struct{}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start an interactive Lox session" }
func (*replCmd) Usage() string {
	return `repl:
  Start an interactive Lox session.
`
}
func (r *replCmd) SetFlags(f *flag.FlagSet) {}

func (r *replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return subcommands.ExitStatus(runREPL(os.Stdin, os.Stdout))
}

// runREPL drives the line-editing shell built on readline: one VM
// persists for the whole session so globals and function definitions
// declared on one line remain visible to the next. Lines beginning
// with `:` are control commands; everything else is one chunk of Lox
// source, possibly spread across several lines while isInputReady
// holds off evaluation until brackets balance.
func runREPL(in io.Reader, out io.Writer) int {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     historyFilePath(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 %v\n", err)
		return exitRuntimeErr
	}
	defer rl.Close()

	fmt.Fprintln(out, "Welcome to loxvm!")
	machine := vm.New(out)
	var buffer strings.Builder

	for {
		if buffer.Len() == 0 {
			rl.SetPrompt(">>> ")
		} else {
			rl.SetPrompt("... ")
		}

		line, readErr := rl.Readline()
		if readErr == readline.ErrInterrupt {
			buffer.Reset()
			continue
		}
		if readErr == io.EOF {
			return exitSuccess
		}
		if readErr != nil {
			fmt.Fprintf(os.Stderr, "💥 %v\n", readErr)
			return exitRuntimeErr
		}

		if buffer.Len() == 0 && strings.HasPrefix(strings.TrimSpace(line), ":") {
			if shouldExit := runREPLCommand(machine, strings.TrimSpace(line), out); shouldExit {
				return exitSuccess
			}
			continue
		}

		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)
		source := buffer.String()

		if !isInputReady(lexer.ScanAll(source)) {
			continue
		}

		fn, ok := compileSource(machine, source)
		if !ok {
			buffer.Reset()
			continue
		}
		if err := machine.Interpret(fn); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		buffer.Reset()
	}
}

// runREPLCommand handles one `:`-prefixed control line, returning true
// when the REPL should exit.
func runREPLCommand(machine *vm.VM, line string, out io.Writer) bool {
	fields := strings.Fields(line)
	switch {
	case line == ":quit" || line == ":q":
		return true
	case line == ":set debug":
		machine.Debug = true
	case line == ":unset debug":
		machine.Debug = false
	case len(fields) == 2 && fields[0] == ":load":
		source, err := preprocessor.Resolve(fields[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "💥 %v\n", err)
			return false
		}
		fn, ok := compileSource(machine, source)
		if !ok {
			return false
		}
		if err := machine.Interpret(fn); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	default:
		fmt.Fprintf(out, "Unknown command: %s\n", line)
	}
	return false
}

func historyFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".loxvm_history"
	}
	return home + "/.loxvm_history"
}

// isInputReady reports whether the buffered lines so far form a
// complete enough program to attempt compilation: every `{}`/`[]`
// bracket balanced, and the last non-EOF token not one that plainly
// expects a continuation (an operator, an opening bracket, or a
// keyword that always introduces more tokens).
func isInputReady(tokens []token.Token) bool {
	balance := 0
	for _, tok := range tokens {
		switch tok.TokenType {
		case token.LCUR, token.LBRACKET:
			balance++
		case token.RCUR, token.RBRACKET:
			balance--
		}
	}
	if balance > 0 {
		return false
	}

	last := lastNonEOF(tokens)
	if last == nil {
		return true
	}

	switch last.TokenType {
	case token.ASSIGN,
		token.ADD,
		token.SUB,
		token.MULT,
		token.DIV,
		token.REM,
		token.BANG,
		token.EQUAL_EQUAL,
		token.NOT_EQUAL,
		token.LESS,
		token.LESS_EQUAL,
		token.LARGER,
		token.LARGER_EQUAL,
		token.SUPER_ARROW,
		token.COMMA,
		token.LPA,
		token.LCUR,
		token.LBRACKET,
		token.IF,
		token.ELSE,
		token.WHILE,
		token.FOR,
		token.FUN,
		token.CLASS,
		token.RETURN,
		token.VAR,
		token.AND,
		token.OR,
		token.PRINT:
		return false
	}
	return true
}

func lastNonEOF(tokens []token.Token) *token.Token {
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i].TokenType != token.EOF {
			return &tokens[i]
		}
	}
	return nil
}
