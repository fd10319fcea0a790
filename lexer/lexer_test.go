package lexer

import (
	"loxvm/token"
	"testing"
)

func tokenTypes(tokens []token.Token) []token.TokenType {
	types := make([]token.TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.TokenType
	}
	return types
}

func assertTypes(t *testing.T, source string, want []token.TokenType) {
	t.Helper()
	got := tokenTypes(ScanAll(source))
	if len(got) != len(want) {
		t.Fatalf("ScanAll(%q) = %v, want %v", source, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ScanAll(%q)[%d] = %v, want %v", source, i, got[i], want[i])
		}
	}
}

func TestOperators(t *testing.T) {
	assertTypes(t, "==/=*+>-<!=<=>=!<|", []token.TokenType{
		token.EQUAL_EQUAL, token.SLASH_EQUAL, token.MULT, token.ADD,
		token.LARGER, token.SUB, token.LESS, token.NOT_EQUAL, token.LESS_EQUAL,
		token.LARGER_EQUAL, token.BANG, token.SUPER_ARROW, token.EOF,
	})
}

func TestPunctuation(t *testing.T) {
	assertTypes(t, "(){}[];,.%", []token.TokenType{
		token.LPA, token.RPA, token.LCUR, token.RCUR, token.LBRACKET,
		token.RBRACKET, token.SEMICOLON, token.COMMA, token.DOT, token.REM,
		token.EOF,
	})
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	assertTypes(t, "class fun var x if else while for return this super nil true false and or print",
		[]token.TokenType{
			token.CLASS, token.FUN, token.VAR, token.IDENTIFIER, token.IF,
			token.ELSE, token.WHILE, token.FOR, token.RETURN, token.THIS,
			token.SUPER, token.NIL, token.TRUE, token.FALSE, token.AND,
			token.OR, token.PRINT, token.EOF,
		})
}

func TestNumberLiterals(t *testing.T) {
	tokens := ScanAll("123 3.14")
	if tokens[0].TokenType != token.NUMBER || tokens[0].Literal != 123.0 {
		t.Errorf("first token = %v, want NUMBER 123", tokens[0])
	}
	if tokens[1].TokenType != token.NUMBER || tokens[1].Literal != 3.14 {
		t.Errorf("second token = %v, want NUMBER 3.14", tokens[1])
	}
}

func TestNumberHasNoLeadingDotForm(t *testing.T) {
	tokens := ScanAll(".5")
	if tokens[0].TokenType != token.DOT {
		t.Errorf("leading dot should scan as DOT, got %v", tokens[0])
	}
}

func TestStringLiteral(t *testing.T) {
	tokens := ScanAll(`"hello world"`)
	if tokens[0].TokenType != token.STRING || tokens[0].Literal != "hello world" {
		t.Errorf("got %v, want STRING \"hello world\"", tokens[0])
	}
}

func TestUnterminatedString(t *testing.T) {
	tokens := ScanAll(`"hello`)
	if tokens[0].TokenType != token.ERROR {
		t.Errorf("got %v, want ERROR token", tokens[0])
	}
}

func TestCommentsAreSkipped(t *testing.T) {
	assertTypes(t, "1 // this is a comment\n2", []token.TokenType{
		token.NUMBER, token.NUMBER, token.EOF,
	})
}

func TestLineTracking(t *testing.T) {
	tokens := ScanAll("1\n2\n3")
	wantLines := []int{1, 2, 3}
	for i, line := range wantLines {
		if tokens[i].Line != line {
			t.Errorf("tokens[%d].Line = %d, want %d", i, tokens[i].Line, line)
		}
	}
}
