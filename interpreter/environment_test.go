package interpreter

import (
	"testing"

	"loxvm/token"
)

func identifier(name string) token.Token {
	return token.CreateLiteralToken(token.IDENTIFIER, nil, name, 0, 0)
}

func TestEnvironmentGetWalksEnclosingScopes(t *testing.T) {
	outer := MakeEnvironment()
	outer.set("x", 1.0)
	inner := MakeNestedEnvironment(outer)

	got, err := inner.get(identifier("x"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != 1.0 {
		t.Errorf("got = %v, want 1.0", got)
	}
}

func TestEnvironmentGetUndefinedIsRuntimeError(t *testing.T) {
	env := MakeEnvironment()
	if _, err := env.get(identifier("nope")); err == nil {
		t.Fatal("expected a runtime error for an undefined variable")
	}
}

func TestEnvironmentShadowingDoesNotMutateOuter(t *testing.T) {
	outer := MakeEnvironment()
	outer.set("x", 1.0)
	inner := MakeNestedEnvironment(outer)
	inner.set("x", 2.0)

	innerVal, _ := inner.get(identifier("x"))
	outerVal, _ := outer.get(identifier("x"))
	if innerVal != 2.0 {
		t.Errorf("inner x = %v, want 2.0", innerVal)
	}
	if outerVal != 1.0 {
		t.Errorf("outer x = %v, want 1.0 (shadowing must not mutate the outer binding)", outerVal)
	}
}

func TestEnvironmentAssignWalksEnclosingScopes(t *testing.T) {
	outer := MakeEnvironment()
	outer.set("x", 1.0)
	inner := MakeNestedEnvironment(outer)

	if err := inner.assign(identifier("x"), 5.0); err != nil {
		t.Fatalf("assign: %v", err)
	}
	got, _ := outer.get(identifier("x"))
	if got != 5.0 {
		t.Errorf("outer x after nested assign = %v, want 5.0", got)
	}
}

func TestEnvironmentAssignUndefinedIsRuntimeError(t *testing.T) {
	env := MakeEnvironment()
	if err := env.assign(identifier("nope"), 1.0); err == nil {
		t.Fatal("expected a runtime error assigning to an undefined variable")
	}
}
