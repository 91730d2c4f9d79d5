// Package errors defines the runtime error taxonomy shared by every layer
// of the interpreter (spec.md §7).
package errors

import (
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// Kind is one of the twelve semantic error kinds spec.md §7 requires every
// statement handler to report.
type Kind string

const (
	Syntax              Kind = "Syntax"
	TypeMismatch        Kind = "TypeMismatch"
	Overflow            Kind = "Overflow"
	Subscript           Kind = "Subscript"
	DivisionByZero      Kind = "DivisionByZero"
	IllegalCall         Kind = "IllegalCall"
	UndefinedName       Kind = "UndefinedName"
	DuplicateDefinition Kind = "DuplicateDefinition"
	BlockMismatch       Kind = "BlockMismatch"
	StackOverflow       Kind = "StackOverflow"
	IOError             Kind = "IOError"
	FeatureUnsupported  Kind = "FeatureUnsupported"
)

// Code is the QBasic-compatible numeric error code carried alongside Kind,
// readable from BASIC via the ERR function.
type Code int

// Canonical QBasic error codes for the kinds this runtime raises directly.
const (
	CodeBlockMismatch       Code = 1
	CodeSyntax              Code = 2
	CodeUndefinedName       Code = 3
	CodeIllegalCall         Code = 5
	CodeOverflow            Code = 6
	CodeSubscript           Code = 9
	CodeDuplicateDefinition Code = 10
	CodeDivisionByZero      Code = 11
	CodeTypeMismatch        Code = 13
	CodeStackOverflow       Code = 28
	CodeIOError             Code = 64
	CodeFeatureUnsupported  Code = 73
)

var defaultCode = map[Kind]Code{
	BlockMismatch:       CodeBlockMismatch,
	Syntax:              CodeSyntax,
	UndefinedName:       CodeUndefinedName,
	IllegalCall:         CodeIllegalCall,
	Overflow:            CodeOverflow,
	Subscript:           CodeSubscript,
	DuplicateDefinition: CodeDuplicateDefinition,
	DivisionByZero:      CodeDivisionByZero,
	TypeMismatch:        CodeTypeMismatch,
	StackOverflow:       CodeStackOverflow,
	IOError:             CodeIOError,
	FeatureUnsupported:  CodeFeatureUnsupported,
}

var kindForCode = map[Code]Kind{
	CodeBlockMismatch:       BlockMismatch,
	CodeSyntax:              Syntax,
	CodeUndefinedName:       UndefinedName,
	CodeIllegalCall:         IllegalCall,
	CodeOverflow:            Overflow,
	CodeSubscript:           Subscript,
	CodeDuplicateDefinition: DuplicateDefinition,
	CodeDivisionByZero:      DivisionByZero,
	CodeTypeMismatch:        TypeMismatch,
	CodeStackOverflow:       StackOverflow,
	CodeIOError:             IOError,
	CodeFeatureUnsupported:  FeatureUnsupported,
}

// StackFrame is one level of the call stack captured when an error crosses
// a procedure boundary.
type StackFrame struct {
	Procedure string
	Line      int
}

// Error is the runtime error value that flows through the evaluator, the
// statement executor, and the ON ERROR trap dispatcher.
type Error struct {
	Kind      Kind
	Code      Code
	Message   string
	Line      int // ERL: the line where the error arose
	Source    string
	CallStack []StackFrame
	cause     error
}

// New constructs an Error of the given kind at the given source line.
func New(kind Kind, line int, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Code:    defaultCode[kind],
		Message: fmt.Sprintf(format, args...),
		Line:    line,
	}
}

// Raised constructs the Error produced by the BASIC `ERROR n` statement,
// which names a numeric code directly rather than one of our Kinds.
func Raised(code Code, line int) *Error {
	kind, ok := kindForCode[code]
	if !ok {
		kind = FeatureUnsupported
	}
	return &Error{
		Kind:    kind,
		Code:    code,
		Message: fmt.Sprintf("error %d", code),
		Line:    line,
	}
}

// Wrap re-expresses a lower-level failure (typically from the file
// collaborator) as an IOError. The original cause stays retrievable via
// errors.Unwrap so it is never silently dropped.
func Wrap(err error, line int) *Error {
	return &Error{
		Kind:    IOError,
		Code:    CodeIOError,
		Message: err.Error(),
		Line:    line,
		cause:   pkgerrors.WithStack(err),
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s in line %d: %s", e.Kind, e.Line, e.Message)
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/As.
func (e *Error) Unwrap() error { return e.cause }

// WithStack attaches the procedure call stack active when the error arose.
func (e *Error) WithStack(stack []StackFrame) *Error {
	e.CallStack = stack
	return e
}

// WithSource attaches the offending source line's text for diagnostics.
func (e *Error) WithSource(src string) *Error {
	e.Source = src
	return e
}

// Diagnostic renders the single-line, user-visible failure report spec.md
// §7 requires: "<Kind> in line <N>: <detail>", followed by any call stack.
func (e *Error) Diagnostic() string {
	var b strings.Builder
	b.WriteString(e.Error())
	for _, f := range e.CallStack {
		fmt.Fprintf(&b, "\n  in %s, line %d", f.Procedure, f.Line)
	}
	return b.String()
}
