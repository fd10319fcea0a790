package preprocessor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// withTempCwd creates a temp directory, chdirs into it for the duration of
// the test, and restores the original working directory afterward. Includes
// are resolved relative to cwd, so every test needs its own sandbox.
func withTempCwd(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(old) })
	return dir
}

func writeFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0644); err != nil {
		t.Fatalf("WriteFile(%s): %v", name, err)
	}
}

func TestResolveExpandsLeadingInclude(t *testing.T) {
	dir := withTempCwd(t)
	writeFile(t, dir, "lib.lox", `fun greet(){ print "hi"; }`)
	writeFile(t, dir, "main.lox", "#include lib.lox\ngreet();")

	got, err := Resolve("main.lox")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !strings.Contains(got, `fun greet(){ print "hi"; }`) {
		t.Errorf("expanded source missing included contents: %q", got)
	}
	if !strings.Contains(got, "greet();") {
		t.Errorf("expanded source missing trailing statement: %q", got)
	}
}

func TestResolveAllowsBlankLinesBeforeInclude(t *testing.T) {
	dir := withTempCwd(t)
	writeFile(t, dir, "lib.lox", `var x = 1;`)
	writeFile(t, dir, "main.lox", "\n\n#include lib.lox\nprint x;")

	got, err := Resolve("main.lox")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !strings.Contains(got, "var x = 1;") {
		t.Errorf("expanded source missing included contents: %q", got)
	}
}

func TestResolveOnlyRecognizesLeadingIncludeRegion(t *testing.T) {
	dir := withTempCwd(t)
	writeFile(t, dir, "lib.lox", `var x = 1;`)
	source := "print \"go\";\n#include lib.lox\n"
	writeFile(t, dir, "main.lox", source)

	got, err := Resolve("main.lox")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != source {
		t.Errorf("a non-leading #include should be left verbatim, got %q want %q", got, source)
	}
}

func TestResolveDetectsIncludeCycles(t *testing.T) {
	dir := withTempCwd(t)
	writeFile(t, dir, "a.lox", "#include b.lox\n")
	writeFile(t, dir, "b.lox", "#include a.lox\nprint \"b\";")

	got, err := Resolve("a.lox")
	if err != nil {
		t.Fatalf("Resolve should not error on a cycle, it should just stop re-expanding: %v", err)
	}
	if strings.Count(got, `print "b"`) != 1 {
		t.Errorf("cyclic include should be expanded exactly once, got %q", got)
	}
}

func TestResolveMissingIncludeIsError(t *testing.T) {
	withTempCwd(t)
	writeFile(t, ".", "main.lox", "#include nope.lox\n")

	if _, err := Resolve("main.lox"); err == nil {
		t.Fatal("expected an error for a missing included file")
	}
}

func TestResolveMalformedIncludeIsError(t *testing.T) {
	dir := withTempCwd(t)
	writeFile(t, dir, "main.lox", "#include not-a-lox-file\n")

	if _, err := Resolve("main.lox"); err == nil {
		t.Fatal("expected an error for a malformed #include line")
	}
}

func TestResolveStringExpandsWithoutBackingFile(t *testing.T) {
	dir := withTempCwd(t)
	writeFile(t, dir, "lib.lox", `var greeting = "hi";`)

	got, err := ResolveString("#include lib.lox\nprint greeting;")
	if err != nil {
		t.Fatalf("ResolveString: %v", err)
	}
	if !strings.Contains(got, `var greeting = "hi";`) {
		t.Errorf("expanded source missing included contents: %q", got)
	}
}
