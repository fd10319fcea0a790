package bytecode

import (
	"fmt"
	"testing"
)

// vsFixed is the ValueStringer used throughout this file: every
// constant-pool entry renders as the same placeholder, which keeps the
// expected text for every row a pure function of the opcode's shape
// instead of the specific value stored (mirroring chunk_test.go's
// TestDisassembleInstruction, which does the same).
func vsFixed(v Value) string { return "k" }

const opcodeTestLine = 7

func opcodePrefix(offset int) string {
	return fmt.Sprintf("%04d ", offset) + fmt.Sprintf("%4d ", opcodeTestLine)
}

// TestChunkRoundTripsEveryOpcode builds one instruction per opcode
// defined in this package by hand through Chunk.WriteOp/Chunk.Write -
// exactly as the compiler assembles instructions, since this package
// has no separate encoder function - and checks that
// DisassembleInstruction decodes the result back to the expected text
// and advances by the expected instruction width. Every value in the
// Op enum appears in exactly one of the lists below; a newly added
// opcode with no row here is a silent gap in disassembler coverage.
//
// OP_END is included even though nothing in this repo ever emits or
// dispatches on it (a leftover enum value, unlike the reference
// compiler this package is grounded on, where OP_END is an active
// end-of-program marker) - it still decodes like any other no-operand
// opcode, so it gets the same round-trip coverage as the rest.
func TestChunkRoundTripsEveryOpcode(t *testing.T) {
	noOperand := []Op{
		OP_NIL, OP_TRUE, OP_FALSE, OP_POP,
		OP_EQUAL, OP_GREATER, OP_LESS,
		OP_ADD, OP_SUBTRACT, OP_MULTIPLY, OP_DIVIDE, OP_MODULO,
		OP_NOT, OP_NEGATE, OP_PRINT,
		OP_CLOSE_UPVALUE, OP_RETURN, OP_INHERIT,
		OP_INDEX_GET, OP_INDEX_SET, OP_END,
	}
	for _, op := range noOperand {
		op := op
		t.Run(op.String(), func(t *testing.T) {
			var c Chunk
			c.WriteOp(op, opcodeTestLine)

			wantBytes := []byte{byte(op)}
			if string(c.Code) != string(wantBytes) {
				t.Fatalf("encoded bytes = %v, want %v", c.Code, wantBytes)
			}

			text, next := DisassembleInstruction(&c, 0, vsFixed)
			wantText := opcodePrefix(0) + op.String() + "\n"
			if text != wantText {
				t.Errorf("text = %q, want %q", text, wantText)
			}
			if next != 1 {
				t.Errorf("next offset = %d, want 1", next)
			}
		})
	}

	constantOps := []Op{
		OP_CONSTANT, OP_GET_GLOBAL, OP_DEFINE_GLOBAL, OP_SET_GLOBAL,
		OP_CLASS, OP_GET_PROPERTY, OP_SET_PROPERTY, OP_METHOD, OP_GET_SUPER,
	}
	for _, op := range constantOps {
		op := op
		t.Run(op.String(), func(t *testing.T) {
			var c Chunk
			idx := c.AddConstant(Number(0))
			c.WriteOp(op, opcodeTestLine)
			c.Write(byte(idx), opcodeTestLine)

			wantBytes := []byte{byte(op), byte(idx)}
			if string(c.Code) != string(wantBytes) {
				t.Fatalf("encoded bytes = %v, want %v", c.Code, wantBytes)
			}

			text, next := DisassembleInstruction(&c, 0, vsFixed)
			wantText := fmt.Sprintf("%s%-18s %4d '%s'\n", opcodePrefix(0), op.String(), idx, "k")
			if text != wantText {
				t.Errorf("text = %q, want %q", text, wantText)
			}
			if next != 2 {
				t.Errorf("next offset = %d, want 2", next)
			}
		})
	}

	byteOps := []Op{
		OP_GET_LOCAL, OP_SET_LOCAL, OP_GET_UPVALUE, OP_SET_UPVALUE, OP_CALL, OP_ARRAY,
	}
	for _, op := range byteOps {
		op := op
		t.Run(op.String(), func(t *testing.T) {
			var c Chunk
			c.WriteOp(op, opcodeTestLine)
			c.Write(3, opcodeTestLine)

			wantBytes := []byte{byte(op), 3}
			if string(c.Code) != string(wantBytes) {
				t.Fatalf("encoded bytes = %v, want %v", c.Code, wantBytes)
			}

			text, next := DisassembleInstruction(&c, 0, vsFixed)
			wantText := fmt.Sprintf("%s%-18s %4d\n", opcodePrefix(0), op.String(), 3)
			if text != wantText {
				t.Errorf("text = %q, want %q", text, wantText)
			}
			if next != 2 {
				t.Errorf("next offset = %d, want 2", next)
			}
		})
	}

	invokeOps := []Op{OP_INVOKE, OP_SUPER_INVOKE}
	for _, op := range invokeOps {
		op := op
		t.Run(op.String(), func(t *testing.T) {
			var c Chunk
			idx := c.AddConstant(Number(0))
			c.WriteOp(op, opcodeTestLine)
			c.Write(byte(idx), opcodeTestLine)
			c.Write(2, opcodeTestLine) // argc

			wantBytes := []byte{byte(op), byte(idx), 2}
			if string(c.Code) != string(wantBytes) {
				t.Fatalf("encoded bytes = %v, want %v", c.Code, wantBytes)
			}

			text, next := DisassembleInstruction(&c, 0, vsFixed)
			wantText := fmt.Sprintf("%s%-18s (%d args) %4d '%s'\n", opcodePrefix(0), op.String(), 2, idx, "k")
			if text != wantText {
				t.Errorf("text = %q, want %q", text, wantText)
			}
			if next != 3 {
				t.Errorf("next offset = %d, want 3", next)
			}
		})
	}

	t.Run("OP_JUMP", func(t *testing.T) {
		var c Chunk
		c.WriteOp(OP_JUMP, opcodeTestLine)
		c.WriteUint16(5, opcodeTestLine)

		wantBytes := []byte{byte(OP_JUMP), 0, 5}
		if string(c.Code) != string(wantBytes) {
			t.Fatalf("encoded bytes = %v, want %v", c.Code, wantBytes)
		}

		text, next := DisassembleInstruction(&c, 0, vsFixed)
		wantText := fmt.Sprintf("%s%-18s %4d -> %d\n", opcodePrefix(0), OP_JUMP.String(), 0, 8)
		if text != wantText {
			t.Errorf("text = %q, want %q", text, wantText)
		}
		if next != 3 {
			t.Errorf("next offset = %d, want 3", next)
		}
	})

	t.Run("OP_JUMP_IF_FALSE", func(t *testing.T) {
		var c Chunk
		c.WriteOp(OP_JUMP_IF_FALSE, opcodeTestLine)
		c.WriteUint16(5, opcodeTestLine)

		wantBytes := []byte{byte(OP_JUMP_IF_FALSE), 0, 5}
		if string(c.Code) != string(wantBytes) {
			t.Fatalf("encoded bytes = %v, want %v", c.Code, wantBytes)
		}

		text, next := DisassembleInstruction(&c, 0, vsFixed)
		wantText := fmt.Sprintf("%s%-18s %4d -> %d\n", opcodePrefix(0), OP_JUMP_IF_FALSE.String(), 0, 8)
		if text != wantText {
			t.Errorf("text = %q, want %q", text, wantText)
		}
		if next != 3 {
			t.Errorf("next offset = %d, want 3", next)
		}
	})

	t.Run("OP_LOOP", func(t *testing.T) {
		var c Chunk
		c.WriteOp(OP_LOOP, opcodeTestLine)
		c.WriteUint16(3, opcodeTestLine)

		wantBytes := []byte{byte(OP_LOOP), 0, 3}
		if string(c.Code) != string(wantBytes) {
			t.Fatalf("encoded bytes = %v, want %v", c.Code, wantBytes)
		}

		text, next := DisassembleInstruction(&c, 0, vsFixed)
		wantText := fmt.Sprintf("%s%-18s %4d -> %d\n", opcodePrefix(0), OP_LOOP.String(), 0, 0)
		if text != wantText {
			t.Errorf("text = %q, want %q", text, wantText)
		}
		if next != 3 {
			t.Errorf("next offset = %d, want 3", next)
		}
	})

	t.Run("OP_CLOSURE", func(t *testing.T) {
		var c Chunk
		idx := c.AddConstant(Number(0))
		c.WriteOp(OP_CLOSURE, opcodeTestLine)
		c.Write(byte(idx), opcodeTestLine)
		c.Write(2, opcodeTestLine) // upvalue count
		c.Write(1, opcodeTestLine) // upvalue 0: isLocal
		c.Write(0, opcodeTestLine) // upvalue 0: index
		c.Write(0, opcodeTestLine) // upvalue 1: isLocal
		c.Write(1, opcodeTestLine) // upvalue 1: index

		wantBytes := []byte{byte(OP_CLOSURE), byte(idx), 2, 1, 0, 0, 1}
		if string(c.Code) != string(wantBytes) {
			t.Fatalf("encoded bytes = %v, want %v", c.Code, wantBytes)
		}

		text, next := DisassembleInstruction(&c, 0, vsFixed)
		wantText := fmt.Sprintf("%s%-18s %4d '%s'\n", opcodePrefix(0), OP_CLOSURE.String(), idx, "k") +
			fmt.Sprintf("%04d      |                     %s %d\n", 3, "local", 0) +
			fmt.Sprintf("%04d      |                     %s %d\n", 5, "upvalue", 1)
		if text != wantText {
			t.Errorf("text = %q, want %q", text, wantText)
		}
		if next != 7 {
			t.Errorf("next offset = %d, want 7", next)
		}
	})
}
