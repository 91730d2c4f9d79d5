// Package ast defines the parsed expression tree the evaluator reduces,
// and is the compiled form the expression cache (internal/exprcache) keys
// on and reuses across invocations (spec.md §4.2 performance contract).
package ast

// Expr is any parsed expression node. The visitor pattern mirrors the
// teacher's parser/ast.go shape: each node accepts a Visitor and dispatches
// to the matching Visit* method, so the evaluator (and any future tooling,
// e.g. the formatter) implements Visitor once instead of a type switch
// repeated at every call site.
type Expr interface {
	Accept(v Visitor) (interface{}, error)
}

// Literal is a numeric or string constant, already reduced to its kind and
// narrowest-fitting representation by the parser.
type Literal struct {
	// Value is a value.Value, stored as interface{} to avoid an import
	// cycle between ast and value (value.Value has no dependency on ast).
	Value interface{}
}

func (l *Literal) Accept(v Visitor) (interface{}, error) { return v.VisitLiteral(l) }

// Name is a bare identifier reference: a variable, CONST, or a zero-arg
// function/array reference that parses indistinguishably from a variable
// until name resolution happens at evaluation time.
type Name struct {
	Ident string // normalized (upper-cased, sigil retained)
}

func (n *Name) Accept(v Visitor) (interface{}, error) { return v.VisitName(n) }

// Call is `name(args...)`: ambiguously an array index, a user FUNCTION
// call, a DEF FN invocation, or a built-in call until the evaluator
// resolves `name` against the current scope chain (spec.md §4.2).
type Call struct {
	Ident string
	Args  []Expr
}

func (c *Call) Accept(v Visitor) (interface{}, error) { return v.VisitCall(c) }

// Field is `record.field` or `record.field.nested`.
type Field struct {
	Object Expr
	Name   string
}

func (f *Field) Accept(v Visitor) (interface{}, error) { return v.VisitField(f) }

// Unary is a prefix operator: -x or NOT x.
type Unary struct {
	Op      string // "-" or "NOT"
	Operand Expr
}

func (u *Unary) Accept(v Visitor) (interface{}, error) { return v.VisitUnary(u) }

// Binary is any infix operator at any precedence level (arithmetic,
// relational, AND/OR/XOR/EQV/IMP, and string concatenation `+`).
type Binary struct {
	Left  Expr
	Op    string
	Right Expr
}

func (b *Binary) Accept(v Visitor) (interface{}, error) { return v.VisitBinary(b) }

// FnCall is `FN name(args)`, the explicit DEF FN invocation form.
type FnCall struct {
	Ident string
	Args  []Expr
}

func (f *FnCall) Accept(v Visitor) (interface{}, error) { return v.VisitFnCall(f) }

// Visitor is implemented once by the evaluator (internal/interp) and
// reused by any future static tooling (formatter, linter) that needs to
// walk an expression without a type switch at every call site.
type Visitor interface {
	VisitLiteral(e *Literal) (interface{}, error)
	VisitName(e *Name) (interface{}, error)
	VisitCall(e *Call) (interface{}, error)
	VisitField(e *Field) (interface{}, error)
	VisitUnary(e *Unary) (interface{}, error)
	VisitBinary(e *Binary) (interface{}, error)
	VisitFnCall(e *FnCall) (interface{}, error)
}
