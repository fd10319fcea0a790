package compiler

import (
	"bytes"
	"strings"
	"testing"

	"loxvm/vm"
)

// TestCompileSurvivesStressGC runs Compile with GC.Stress enabled, the
// mode spec.md calls a correctness feature for exposing missed
// mark-roots rather than a performance knob. Before the compiler
// registered its own root source, every Intern/NewFunction call made
// while compiling this program (nested functions, several string
// constants) ran a full collection against zero VM-owned roots - stack,
// frames and globals are all still empty at compile time - so a
// collection mid-compile would sweep away already-interned strings and
// already-built nested function templates, corrupting the result.
func TestCompileSurvivesStressGC(t *testing.T) {
	var out bytes.Buffer
	machine := vm.New(&out)
	machine.GC.Stress = true

	source := `
		fun outer() {
			var greeting = "hello";
			var name = "world";
			fun middle() {
				fun inner() {
					return greeting + ", " + name + "!";
				}
				return inner();
			}
			return middle();
		}
		print outer();
		print "second constant";
		print "third constant, interned well after the nested functions above";
	`

	fn, errs := Compile(source, machine.GC)
	if len(errs) > 0 {
		t.Fatalf("Compile under Stress=true produced errors: %v", errs)
	}
	if err := machine.Interpret(fn); err != nil {
		t.Fatalf("Interpret after a stress-GC compile failed: %v", err)
	}

	got := strings.TrimRight(out.String(), "\n")
	want := "hello, world!\nsecond constant\nthird constant, interned well after the nested functions above"
	if got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
}

// TestCompileDoesNotLeakRootSourceOnError exercises the defer path:
// even when compilation fails outright, PushRootSource's matching Pop
// must still run so a later, unrelated Compile call on the same GC
// doesn't inherit a stale root source pointing at a discarded Compiler.
func TestCompileDoesNotLeakRootSourceOnError(t *testing.T) {
	machine := vm.New(&bytes.Buffer{})
	machine.GC.Stress = true

	if _, errs := Compile(`fun f(a, a) {}`, machine.GC); len(errs) == 0 {
		t.Fatal("expected a compile error for the duplicate parameter")
	}

	// A second, unrelated compile on the same GC must still succeed and
	// must not be influenced by the first Compiler's (now-stale) roots.
	fn, errs := Compile(`print "ok";`, machine.GC)
	if len(errs) > 0 {
		t.Fatalf("second Compile on the same GC produced errors: %v", errs)
	}
	var out bytes.Buffer
	machine.Out = &out
	if err := machine.Interpret(fn); err != nil {
		t.Fatalf("Interpret failed: %v", err)
	}
	if got, want := strings.TrimRight(out.String(), "\n"), "ok"; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
}
