// Package preprocessor implements the `#include` textual splice: a
// simple line-based macro that runs before compilation, with cycle
// detection so a file can't recursively include itself into an
// infinite expansion.
package preprocessor

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var includePattern = regexp.MustCompile(`^#include ([A-Za-z_]\w*\.lox)$`)

// Resolve reads filename and expands any leading `#include` lines,
// recursively. It is the entry point the CLI driver and the REPL's
// `:load` command both use.
func Resolve(filename string) (string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return "", err
	}
	imported := map[string]bool{filename: true}
	return expand(string(data), imported)
}

// ResolveString expands `#include` lines in an already-in-memory
// source string that has no backing file of its own.
func ResolveString(source string) (string, error) {
	return expand(source, map[string]bool{})
}

// expand replaces every leading `#include FILE` line with FILE's own
// (recursively expanded) contents. Only lines at the very start of
// the file, possibly preceded by blank lines, are recognized: the
// first non-blank, non-#include line ends the inclusion region.
func expand(source string, imported map[string]bool) (string, error) {
	lines := strings.Split(source, "\n")
	done := false
	for i, line := range lines {
		if done {
			break
		}
		switch {
		case strings.TrimSpace(line) == "":
			continue
		case strings.HasPrefix(line, "#include"):
			match := includePattern.FindStringSubmatch(line)
			if match == nil {
				return "", fmt.Errorf("INCLUDE Error: expected filename, found %q", line)
			}
			file := match[1]
			if imported[file] {
				lines[i] = ""
				continue
			}
			imported[file] = true
			contents, err := os.ReadFile(file)
			if err != nil {
				return "", fmt.Errorf("INCLUDE Error: %w", err)
			}
			expanded, err := expand(string(contents), imported)
			if err != nil {
				return "", err
			}
			lines[i] = expanded
		default:
			done = true
		}
	}
	return strings.Join(lines, "\n"), nil
}
