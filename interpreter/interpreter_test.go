package interpreter

import (
	"testing"

	"loxvm/ast"
	"loxvm/token"
)

func numberLiteral(v float64) ast.Literal { return ast.Literal{Value: v} }

func opToken(tt token.TokenType, lexeme string) token.Token {
	return token.CreateToken(tt, lexeme, 0, 0)
}

func TestVisitLogicalOrShortCircuitsOnTruthyLeft(t *testing.T) {
	i := Make()
	expr := ast.Logical{
		Left:     ast.Literal{Value: true},
		Operator: opToken(token.OR, "or"),
		Right:    numberLiteral(99), // would panic evaluate path if reached incorrectly, but numeric is fine to evaluate too
	}
	got := i.VisitLogicalExpression(expr)
	if got != true {
		t.Errorf("got = %v, want true (left operand, short-circuited)", got)
	}
}

func TestVisitLogicalAndEvaluatesRightWhenLeftTruthy(t *testing.T) {
	i := Make()
	expr := ast.Logical{
		Left:     ast.Literal{Value: true},
		Operator: opToken(token.AND, "and"),
		Right:    numberLiteral(7),
	}
	got := i.VisitLogicalExpression(expr)
	if got != 7.0 {
		t.Errorf("got = %v, want 7.0", got)
	}
}

func TestVisitLogicalAndShortCircuitsOnFalsyLeft(t *testing.T) {
	i := Make()
	expr := ast.Logical{
		Left:     ast.Literal{Value: nil},
		Operator: opToken(token.AND, "and"),
		Right:    numberLiteral(7),
	}
	got := i.VisitLogicalExpression(expr)
	if got != nil {
		t.Errorf("got = %v, want nil (left operand, short-circuited)", got)
	}
}

// TestVisitWhileStmtLoopsUntilConditionIsFalse counts iterations by
// assigning into a variable pre-declared in the interpreter's environment,
// mirroring how the compiler desugars a `while` body that mutates a
// counter.
func TestVisitWhileStmtLoopsUntilConditionIsFalse(t *testing.T) {
	i := Make()
	i.environment.set("i", 0.0)

	condition := ast.Binary{
		Left:     ast.Variable{Name: identifier("i")},
		Operator: opToken(token.LESS, "<"),
		Right:    numberLiteral(3),
	}
	body := ast.ExpressionStmt{
		Expression: ast.Assign{
			Name: identifier("i"),
			Value: ast.Binary{
				Left:     ast.Variable{Name: identifier("i")},
				Operator: opToken(token.ADD, "+"),
				Right:    numberLiteral(1),
			},
		},
	}

	i.VisitWhileStmt(ast.WhileStmt{Condition: condition, Body: body})

	got, err := i.environment.get(identifier("i"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != 3.0 {
		t.Errorf("i after loop = %v, want 3.0", got)
	}
}

func TestVisitIfStmtExecutesElseBranch(t *testing.T) {
	i := Make()
	i.environment.set("taken", "")

	stmt := ast.IfStmt{
		Condition: ast.Literal{Value: false},
		Then: ast.ExpressionStmt{Expression: ast.Assign{
			Name:  identifier("taken"),
			Value: ast.Literal{Value: "then"},
		}},
		Else: ast.ExpressionStmt{Expression: ast.Assign{
			Name:  identifier("taken"),
			Value: ast.Literal{Value: "else"},
		}},
	}
	i.VisitIfStmt(stmt)

	got, _ := i.environment.get(identifier("taken"))
	if got != "else" {
		t.Errorf("taken = %v, want \"else\"", got)
	}
}
