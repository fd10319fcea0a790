package bytecode

import "testing"

func TestWriteRunLengthEncodesLines(t *testing.T) {
	var c Chunk
	c.WriteOp(OP_NIL, 1)
	c.WriteOp(OP_TRUE, 1)
	c.WriteOp(OP_POP, 2)

	if got := c.GetLine(0); got != 1 {
		t.Errorf("GetLine(0) = %d, want 1", got)
	}
	if got := c.GetLine(1); got != 1 {
		t.Errorf("GetLine(1) = %d, want 1", got)
	}
	if got := c.GetLine(2); got != 2 {
		t.Errorf("GetLine(2) = %d, want 2", got)
	}
}

func TestAddConstant(t *testing.T) {
	var c Chunk
	idx := c.AddConstant(Number(42))
	if idx != 0 {
		t.Fatalf("AddConstant returned %d, want 0", idx)
	}
	if c.Constants[idx].Number != 42 {
		t.Errorf("constant = %v, want 42", c.Constants[idx])
	}
}

func TestValueEqualAndFalsey(t *testing.T) {
	if !Equal(Number(1), Number(1)) {
		t.Error("1 should equal 1")
	}
	if Equal(Number(1), Bool_(true)) {
		t.Error("different kinds should never be equal")
	}
	if !IsFalsey(Nil) || !IsFalsey(Bool_(false)) {
		t.Error("nil and false should be falsey")
	}
	if IsFalsey(Number(0)) || IsFalsey(Bool_(true)) {
		t.Error("0 and true should be truthy")
	}
}

func TestDisassembleInstruction(t *testing.T) {
	var c Chunk
	idx := c.AddConstant(Number(1.5))
	c.WriteOp(OP_CONSTANT, 1)
	c.Write(byte(idx), 1)
	c.WriteOp(OP_RETURN, 1)

	out := Disassemble(&c, "test", func(v Value) string {
		return "1.5"
	})
	if len(out) == 0 {
		t.Fatal("Disassemble produced no output")
	}
}
