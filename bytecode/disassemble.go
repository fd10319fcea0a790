package bytecode

import "fmt"

// ValueStringer renders a Value for disassembly output. It is supplied
// by the caller (the vm package) because rendering heap values (a
// string's characters, a function's name) requires dereferencing a
// handle against the GC's object table, which this package knows
// nothing about.
type ValueStringer func(Value) string

// Disassemble renders every instruction in c under the given chunk
// name, one line per instruction, in the classic `OFFSET LINE OP
// OPERANDS` layout.
func Disassemble(c *Chunk, name string, vs ValueStringer) string {
	out := fmt.Sprintf("== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		line, text := DisassembleInstruction(c, offset, vs)
		out += line
		offset = text
	}
	out += fmt.Sprintf("== end %s ==\n", name)
	return out
}

// DisassembleInstruction renders the single instruction at offset and
// returns the rendered line plus the offset of the next instruction.
func DisassembleInstruction(c *Chunk, offset int, vs ValueStringer) (string, int) {
	line := c.GetLine(offset)
	prefix := fmt.Sprintf("%04d ", offset)
	if offset > 0 && c.GetLine(offset-1) == line {
		prefix += "   | "
	} else {
		prefix += fmt.Sprintf("%4d ", line)
	}

	op := Op(c.Code[offset])
	switch op {
	case OP_CONSTANT, OP_GET_GLOBAL, OP_DEFINE_GLOBAL, OP_SET_GLOBAL,
		OP_CLASS, OP_GET_PROPERTY, OP_SET_PROPERTY, OP_METHOD, OP_GET_SUPER:
		return constantInstruction(prefix, op, c, offset, vs)
	case OP_GET_LOCAL, OP_SET_LOCAL, OP_GET_UPVALUE, OP_SET_UPVALUE, OP_CALL, OP_ARRAY:
		return byteInstruction(prefix, op, c, offset)
	case OP_INVOKE, OP_SUPER_INVOKE:
		return invokeInstruction(prefix, op, c, offset, vs)
	case OP_JUMP, OP_JUMP_IF_FALSE:
		return jumpInstruction(prefix, op, 1, c, offset)
	case OP_LOOP:
		return jumpInstruction(prefix, op, -1, c, offset)
	case OP_CLOSURE:
		return closureInstruction(prefix, c, offset, vs)
	default:
		return prefix + op.String() + "\n", offset + 1
	}
}

func constantInstruction(prefix string, op Op, c *Chunk, offset int, vs ValueStringer) (string, int) {
	idx := c.Code[offset+1]
	return fmt.Sprintf("%s%-18s %4d '%s'\n", prefix, op.String(), idx, vs(c.Constants[idx])), offset + 2
}

func byteInstruction(prefix string, op Op, c *Chunk, offset int) (string, int) {
	slot := c.Code[offset+1]
	return fmt.Sprintf("%s%-18s %4d\n", prefix, op.String(), slot), offset + 2
}

func invokeInstruction(prefix string, op Op, c *Chunk, offset int, vs ValueStringer) (string, int) {
	idx := c.Code[offset+1]
	argc := c.Code[offset+2]
	return fmt.Sprintf("%s%-18s (%d args) %4d '%s'\n", prefix, op.String(), argc, idx, vs(c.Constants[idx])), offset + 3
}

func jumpInstruction(prefix string, op Op, sign int, c *Chunk, offset int) (string, int) {
	jump := int(c.Code[offset+1])<<8 | int(c.Code[offset+2])
	target := offset + 3 + sign*jump
	return fmt.Sprintf("%s%-18s %4d -> %d\n", prefix, op.String(), offset, target), offset + 3
}

func closureInstruction(prefix string, c *Chunk, offset int, vs ValueStringer) (string, int) {
	idx := c.Code[offset+1]
	next := offset + 2
	line := fmt.Sprintf("%s%-18s %4d '%s'\n", prefix, OP_CLOSURE.String(), idx, vs(c.Constants[idx]))
	upvalueCount := int(c.Code[next])
	next++
	for i := 0; i < upvalueCount; i++ {
		isLocal := c.Code[next]
		index := c.Code[next+1]
		kind := "upvalue"
		if isLocal != 0 {
			kind = "local"
		}
		line += fmt.Sprintf("%04d      |                     %s %d\n", next, kind, index)
		next += 2
	}
	return line, next
}
