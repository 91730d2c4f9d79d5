package interp

import (
	"math"
	"strings"

	"retrobasic/internal/ast"
	berr "retrobasic/internal/errors"
	"retrobasic/internal/value"
)

// evaluator implements ast.Visitor, reducing one parsed expression tree
// against the interpreter's live store, built-in table, and user
// FUNCTION/DEF FN definitions (spec.md §4.2).
type evaluator struct {
	it   *Interp
	line int
}

func (e *evaluator) VisitLiteral(n *ast.Literal) (interface{}, error) {
	v, ok := n.Value.(value.Value)
	if !ok {
		return nil, berr.New(berr.Syntax, e.line, "malformed literal")
	}
	return v, nil
}

func (e *evaluator) VisitName(n *ast.Name) (interface{}, error) {
	return e.it.Store.Get(n.Ident), nil
}

func (e *evaluator) VisitField(n *ast.Field) (interface{}, error) {
	objAny, err := n.Object.Accept(e)
	if err != nil {
		return nil, err
	}
	obj, ok := objAny.(value.Value)
	if !ok || obj.Kind != value.KindRecord {
		return nil, berr.New(berr.TypeMismatch, e.line, "'.' requires a RECORD value")
	}
	idx := obj.RecordType.IndexOf(n.Name)
	if idx < 0 {
		return nil, berr.New(berr.UndefinedName, e.line, "unknown field %s", n.Name)
	}
	return obj.Fields[idx], nil
}

func (e *evaluator) VisitUnary(n *ast.Unary) (interface{}, error) {
	operandAny, err := n.Operand.Accept(e)
	if err != nil {
		return nil, err
	}
	operand, ok := operandAny.(value.Value)
	if !ok {
		return nil, berr.New(berr.Syntax, e.line, "malformed operand")
	}
	switch n.Op {
	case "-":
		if !operand.IsNumeric() {
			return nil, berr.New(berr.TypeMismatch, e.line, "unary '-' requires a numeric operand")
		}
		return negate(operand), nil
	case "NOT":
		if !operand.IsNumeric() {
			return nil, berr.New(berr.TypeMismatch, e.line, "NOT requires a numeric operand")
		}
		result := ^operand.Int32()
		if operand.Kind == value.KindInteger {
			return value.Int(int16(result)), nil
		}
		return value.Long(result), nil
	}
	return nil, berr.New(berr.Syntax, e.line, "unsupported unary operator %s", n.Op)
}

func negate(v value.Value) value.Value {
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

func (e *evaluator) VisitBinary(n *ast.Binary) (interface{}, error) {
	leftAny, err := n.Left.Accept(e)
	if err != nil {
		return nil, err
	}
	rightAny, err := n.Right.Accept(e)
	if err != nil {
		return nil, err
	}
	left, lok := leftAny.(value.Value)
	right, rok := rightAny.(value.Value)
	if !lok || !rok {
		return nil, berr.New(berr.Syntax, e.line, "malformed operand")
	}
	v, berrV := e.binary(left, n.Op, right)
	if berrV != nil {
		return nil, berrV
	}
	return v, nil
}

func (e *evaluator) binary(left value.Value, op string, right value.Value) (value.Value, *berr.Error) {
	switch op {
	case "+":
		if left.Kind == value.KindString || right.Kind == value.KindString {
			if left.Kind != value.KindString || right.Kind != value.KindString {
				return value.Value{}, berr.New(berr.TypeMismatch, e.line, "cannot mix string and numeric operands")
			}
			return value.Str(left.String() + right.String()), nil
		}
		return e.arith(left, right, func(a, b float64) float64 { return a + b })
	case "-":
		return e.arith(left, right, func(a, b float64) float64 { return a - b })
	case "*":
		return e.arith(left, right, func(a, b float64) float64 { return a * b })
	case "/":
		if right.Float64() == 0 {
			return value.Value{}, berr.New(berr.DivisionByZero, e.line, "division by zero")
		}
		widest := value.Widest(value.Widest(left.Kind, right.Kind), value.KindSingle)
		return value.CoerceTo(value.Double(left.Float64()/right.Float64()), widest, e.line)
	case "\\":
		li, err := requireIntDiv(left, e.line)
		if err != nil {
			return value.Value{}, err
		}
		ri, err := requireIntDiv(right, e.line)
		if err != nil {
			return value.Value{}, err
		}
		if ri == 0 {
			return value.Value{}, berr.New(berr.DivisionByZero, e.line, "integer division by zero")
		}
		return value.Long(li / ri), nil
	case "MOD":
		li, err := requireIntDiv(left, e.line)
		if err != nil {
			return value.Value{}, err
		}
		ri, err := requireIntDiv(right, e.line)
		if err != nil {
			return value.Value{}, err
		}
		if ri == 0 {
			return value.Value{}, berr.New(berr.DivisionByZero, e.line, "MOD by zero")
		}
		return value.Long(li % ri), nil
	case "^":
		if !left.IsNumeric() || !right.IsNumeric() {
			return value.Value{}, berr.New(berr.TypeMismatch, e.line, "'^' requires numeric operands")
		}
		widest := value.Widest(left.Kind, right.Kind)
		return value.CoerceTo(value.Double(math.Pow(left.Float64(), right.Float64())), widest, e.line)
	case "=", "<>", "<", "<=", ">", ">=":
		return e.compare(left, op, right)
	case "AND", "OR", "XOR", "EQV", "IMP":
		li, err := requireIntDiv(left, e.line)
		if err != nil {
			return value.Value{}, err
		}
		ri, err := requireIntDiv(right, e.line)
		if err != nil {
			return value.Value{}, err
		}
		return value.Long(bitwise(li, op, ri)), nil
	}
	return value.Value{}, berr.New(berr.Syntax, e.line, "unsupported operator %s", op)
}

func bitwise(a int32, op string, b int32) int32 {
	switch op {
	case "AND":
		return a & b
	case "OR":
		return a | b
	case "XOR":
		return a ^ b
	case "EQV":
		return ^(a ^ b)
	case "IMP":
		return ^a | b
	}
	return 0
}

func requireIntDiv(v value.Value, line int) (int32, *berr.Error) {
	if !v.IsNumeric() {
		return 0, berr.New(berr.TypeMismatch, line, "operator requires a numeric operand")
	}
	return int32(math.Trunc(v.Float64())), nil
}

func (e *evaluator) arith(left, right value.Value, f func(a, b float64) float64) (value.Value, *berr.Error) {
	if !left.IsNumeric() || !right.IsNumeric() {
		return value.Value{}, berr.New(berr.TypeMismatch, e.line, "arithmetic requires numeric operands")
	}
	widest := value.Widest(left.Kind, right.Kind)
	return value.CoerceTo(value.Double(f(left.Float64(), right.Float64())), widest, e.line)
}

func (e *evaluator) compare(left value.Value, op string, right value.Value) (value.Value, *berr.Error) {
	var lt, eq bool
	if left.Kind == value.KindString || right.Kind == value.KindString {
		if left.Kind != value.KindString || right.Kind != value.KindString {
			return value.Value{}, berr.New(berr.TypeMismatch, e.line, "cannot compare string and numeric operands")
		}
		c := strings.Compare(left.String(), right.String())
		lt, eq = c < 0, c == 0
	} else {
		if !left.IsNumeric() || !right.IsNumeric() {
			return value.Value{}, berr.New(berr.TypeMismatch, e.line, "comparison requires numeric operands")
		}
		lf, rf := left.Float64(), right.Float64()
		lt, eq = lf < rf, lf == rf
	}
	var result bool
	switch op {
	case "=":
		result = eq
	case "<>":
		result = !eq
	case "<":
		result = lt
	case "<=":
		result = lt || eq
	case ">":
		result = !lt && !eq
	case ">=":
		result = !lt
	}
	if result {
		return value.Int(-1), nil // QBasic TRUE is -1
	}
	return value.Int(0), nil
}

func (e *evaluator) VisitFnCall(n *ast.FnCall) (interface{}, error) {
	return e.it.callDefFn(n.Ident, n.Args, e)
}

// VisitCall resolves the name/args ambiguity at evaluation time: an array
// index, a user FUNCTION call, or a built-in (spec.md §4.2).
func (e *evaluator) VisitCall(n *ast.Call) (interface{}, error) {
	args := make([]value.Value, len(n.Args))
	for i, a := range n.Args {
		vAny, err := a.Accept(e)
		if err != nil {
			return nil, err
		}
		v, ok := vAny.(value.Value)
		if !ok {
			return nil, berr.New(berr.Syntax, e.line, "malformed argument")
		}
		args[i] = v
	}

	if v, handled, herr := e.it.hostFunc(n.Ident, args, e.line); handled {
		if herr != nil {
			return nil, herr
		}
		return v, nil
	}

	if cur := e.it.Store.Get(n.Ident); cur.Kind == value.KindArray {
		subs := make([]int32, len(args))
		for i, a := range args {
			subs[i] = a.Int32()
		}
		idx, berrV := cur.Index(subs, e.line)
		if berrV != nil {
			return nil, berrV
		}
		return cur.Elems[idx], nil
	}

	if proc, ok := e.it.Prog.Procedures[strings.ToUpper(n.Ident)]; ok && proc.IsFunction {
		return e.it.callUserFunction(proc, args, e.line)
	}

	if entry, ok := e.it.Builtins.Lookup(n.Ident); ok {
		v, berrV := entry.Call(e.it.Builtins, args, e.line)
		if berrV != nil {
			return nil, berrV
		}
		return v, nil
	}

	return nil, berr.New(berr.UndefinedName, e.line, "undefined name %s", n.Ident)
}
