package program

import (
	"math"
	"strings"

	"retrobasic/internal/ast"
	berr "retrobasic/internal/errors"
	"retrobasic/internal/parser"
	"retrobasic/internal/value"
)

// foldConst reduces a CONST's right-hand expression at index time. Only
// literals, previously defined CONSTs, and the arithmetic/unary operators
// are understood; anything else (a variable reference, a function call)
// is rejected with Syntax, since CONST must be resolvable without a scope
// chain (spec.md §3).
func foldConst(exprText string, known map[string]value.Value, line int) (value.Value, *berr.Error) {
	e, err := parser.ParseExpr(exprText, line)
	if err != nil {
		return value.Value{}, err
	}
	return evalConstExpr(e, known, line)
}

func evalConstExpr(e ast.Expr, known map[string]value.Value, line int) (value.Value, *berr.Error) {
	switch n := e.(type) {
	case *ast.Literal:
		v, ok := n.Value.(value.Value)
		if !ok {
			return value.Value{}, berr.New(berr.Syntax, line, "invalid constant literal")
		}
		return v, nil
	case *ast.Name:
		if v, ok := known[strings.ToUpper(n.Ident)]; ok {
			return v, nil
		}
		return value.Value{}, berr.New(berr.Syntax, line, "CONST references undefined name %s", n.Ident)
	case *ast.Unary:
		operand, err := evalConstExpr(n.Operand, known, line)
		if err != nil {
			return value.Value{}, err
		}
		switch n.Op {
		case "-":
			if operand.IsNumeric() {
				return foldNegate(operand), nil
			}
			return value.Value{}, berr.New(berr.TypeMismatch, line, "cannot negate a string constant")
		case "NOT":
			if operand.IsNumeric() {
				return value.Long(^operand.Int32()), nil
			}
			return value.Value{}, berr.New(berr.TypeMismatch, line, "NOT requires a numeric operand")
		}
		return value.Value{}, berr.New(berr.Syntax, line, "unsupported CONST unary operator %s", n.Op)
	case *ast.Binary:
		left, err := evalConstExpr(n.Left, known, line)
		if err != nil {
			return value.Value{}, err
		}
		right, err := evalConstExpr(n.Right, known, line)
		if err != nil {
			return value.Value{}, err
		}
		return foldBinary(left, n.Op, right, line)
	default:
		return value.Value{}, berr.New(berr.Syntax, line, "CONST expression must be a literal constant")
	}
}

func foldNegate(v value.Value) value.Value {
	switch v.Kind {
	case value.KindInteger:
		return value.Int(int16(-v.Int32()))
	case value.KindLong:
		return value.Long(-v.Int32())
	case value.KindDouble:
		return value.Double(-v.Float64())
	default:
		return value.Single(float32(-v.Float64()))
	}
}

func foldBinary(left value.Value, op string, right value.Value, line int) (value.Value, *berr.Error) {
	if op == "+" && (left.Kind == value.KindString || right.Kind == value.KindString) {
		if left.Kind != value.KindString || right.Kind != value.KindString {
			return value.Value{}, berr.New(berr.TypeMismatch, line, "cannot mix string and numeric constants")
		}
		return value.Str(left.String() + right.String()), nil
	}
	if !left.IsNumeric() || !right.IsNumeric() {
		return value.Value{}, berr.New(berr.TypeMismatch, line, "CONST arithmetic requires numeric operands")
	}
	widest := value.Widest(left.Kind, right.Kind)
	lf, rf := left.Float64(), right.Float64()
	var result float64
	switch op {
	case "+":
		result = lf + rf
	case "-":
		result = lf - rf
	case "*":
		result = lf * rf
	case "/":
		if rf == 0 {
			return value.Value{}, berr.New(berr.DivisionByZero, line, "division by zero in CONST expression")
		}
		result = lf / rf
		widest = value.Widest(widest, value.KindSingle)
	case "^":
		result = math.Pow(lf, rf)
	default:
		return value.Value{}, berr.New(berr.Syntax, line, "unsupported CONST operator %s", op)
	}
	return value.CoerceTo(value.Double(result), widest, line)
}
