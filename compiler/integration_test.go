package compiler

import (
	"bytes"
	"strings"
	"testing"

	"loxvm/vm"
)

// runScript compiles and runs source against a fresh VM, returning stdout
// with a trailing newline trimmed for comparison convenience.
func runScript(t *testing.T, source string) string {
	t.Helper()
	var out bytes.Buffer
	machine := vm.New(&out)

	fn, errs := Compile(source, machine.GC)
	if len(errs) > 0 {
		t.Fatalf("Compile(%q) errors: %v", source, errs)
	}
	if err := machine.Interpret(fn); err != nil {
		t.Fatalf("Interpret(%q) error: %v", source, err)
	}
	return strings.TrimRight(out.String(), "\n")
}

func TestFullPipelineFibonacci(t *testing.T) {
	source := `fun fib(n){ if (n<2) return n; return fib(n-1)+fib(n-2);} print fib(10);`
	if got, want := runScript(t, source), "55"; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
}

func TestFullPipelineClosureCaptureMutation(t *testing.T) {
	source := `fun makeCounter(){ var i=0; fun c(){ i=i+1; return i;} return c;} var c=makeCounter(); print c(); print c(); print c();`
	if got, want := runScript(t, source), "1\n2\n3"; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
}

func TestFullPipelineClassesInheritanceSuper(t *testing.T) {
	source := `class A{ greet(){ print "A";} } class B <| A { greet(){ super.greet(); print "B";} } B().greet();`
	if got, want := runScript(t, source), "A\nB"; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
}

func TestFullPipelineInitializerReturnsThis(t *testing.T) {
	source := `class P{ init(x){ this.x=x;} } var p=P(7); print p.x;`
	if got, want := runScript(t, source), "7"; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
}

func TestFullPipelineShortCircuitTruthiness(t *testing.T) {
	source := `print nil or "x"; print false and 1; print 0 and "y";`
	if got, want := runScript(t, source), "x\nfalse\ny"; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
}

func TestFullPipelineStringNumberCoercionAsymmetry(t *testing.T) {
	source := `print "n=" + 3; print 3 + "!";`
	if got, want := runScript(t, source), "n=3\n3!"; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
}

func TestFullPipelineArityMismatchIsRuntimeError(t *testing.T) {
	var out bytes.Buffer
	machine := vm.New(&out)
	fn, errs := Compile(`fun f(a,b){ return a+b;} f(1);`, machine.GC)
	if len(errs) > 0 {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
	if err := machine.Interpret(fn); err == nil {
		t.Fatal("expected a runtime error for an arity mismatch")
	}
}

func TestFullPipelineForLoopEmptyConditionDefaultsTrue(t *testing.T) {
	source := `fun run(){ for (var i=0; ; i=i+1) { if (i>=3) return; print i; } } run();`
	if got, want := runScript(t, source), "0\n1\n2"; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
}

func TestFullPipelineModuloTruncatesToInteger(t *testing.T) {
	source := `print 10 % 3; print 7 % 2;`
	if got, want := runScript(t, source), "1\n1"; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
}

func TestFullPipelineUndefinedVariableIsNotCompileError(t *testing.T) {
	var out bytes.Buffer
	machine := vm.New(&out)
	_, errs := Compile(`print nope;`, machine.GC)
	// `nope` resolves as a global lookup at compile time; the miss only
	// surfaces once the GET_GLOBAL executes, so this should compile clean
	// and fail at runtime instead.
	if len(errs) > 0 {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
}
