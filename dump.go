package main

import (
	"fmt"
	"strings"

	"loxvm/bytecode"
	"loxvm/vm"
)

// disassembleDump renders the top-level chunk plus every function
// template reachable from its constant pool, nested in the order they
// were compiled, wrapped in the `=== BEGIN name ===`/`=== END name ===`
// markers the dump-target file format uses.
func disassembleDump(machine *vm.VM, topLevel int32) string {
	var b strings.Builder
	dumpFunction(machine, &b, topLevel, "script")
	return b.String()
}

func dumpFunction(machine *vm.VM, b *strings.Builder, fnHandle int32, name string) {
	fn := machine.GC.Function(fnHandle)
	fmt.Fprintf(b, "=== BEGIN %s ===\n", name)
	for offset := 0; offset < len(fn.Chunk.Code); {
		line, next := bytecode.DisassembleInstruction(&fn.Chunk, offset, machine.GC.Stringify)
		b.WriteString(line)
		offset = next
	}
	fmt.Fprintf(b, "=== END %s ===\n", name)

	for _, c := range fn.Chunk.Constants {
		if c.Kind != bytecode.KindFunction {
			continue
		}
		nested := machine.GC.Function(c.Handle)
		nestedName := "anonymous"
		if nested.NameHandle >= 0 {
			nestedName = machine.GC.String(nested.NameHandle).Chars
		}
		dumpFunction(machine, b, c.Handle, nestedName)
	}
}
