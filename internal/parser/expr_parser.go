// internal/parser/expr_parser.go
//
// Expression parser: reduces a token stream into an internal/ast tree,
// honoring the operator precedence table in spec.md §4.2 (high to low):
// call/index, unary -/NOT, ^, * /, \, MOD, + -, relational, AND, OR,
// XOR/EQV/IMP.
package parser

import (
	"strconv"
	"strings"

	"retrobasic/internal/ast"
	berr "retrobasic/internal/errors"
	"retrobasic/internal/lexer"
	"retrobasic/internal/value"
)

// ExprParser parses one expression from a pre-scanned token list.
type ExprParser struct {
	toks    []lexer.Token
	current int
	line    int
}

func NewExprParser(toks []lexer.Token, line int) *ExprParser {
	return &ExprParser{toks: toks, line: line}
}

// ParseExpr parses a complete expression and reports a Syntax error if
// trailing tokens remain (other than EOF).
func ParseExpr(src string, line int) (ast.Expr, *berr.Error) {
	toks, bad := lexer.ScanAll(src, line)
	if bad != nil {
		return nil, berr.New(berr.Syntax, line, "unexpected character %q", bad.Lexeme)
	}
	p := NewExprParser(toks, line)
	e, err := p.parseOrLevel()
	if err != nil {
		return nil, err
	}
	if p.peek().Type != lexer.TokenEOF {
		return nil, berr.New(berr.Syntax, line, "unexpected token %q", p.peek().Lexeme)
	}
	return e, nil
}

func (p *ExprParser) peek() lexer.Token  { return p.toks[p.current] }
func (p *ExprParser) prev() lexer.Token  { return p.toks[p.current-1] }
func (p *ExprParser) atEnd() bool        { return p.peek().Type == lexer.TokenEOF }
func (p *ExprParser) advance() lexer.Token {
	if !p.atEnd() {
		p.current++
	}
	return p.prev()
}

func (p *ExprParser) checkWord(word string) bool {
	t := p.peek()
	return t.Type == lexer.TokenIdent && t.Upper == word
}

func (p *ExprParser) matchWord(words ...string) bool {
	for _, w := range words {
		if p.checkWord(w) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *ExprParser) match(types ...lexer.TokenType) bool {
	for _, t := range types {
		if p.peek().Type == t {
			p.advance()
			return true
		}
	}
	return false
}

// Precedence chain, lowest to highest; each level calls the next.

func (p *ExprParser) parseOrLevel() (ast.Expr, *berr.Error) {
	// XOR, EQV, IMP share OR's rough precedence band in classic BASIC and
	// are left-associative with it.
	left, err := p.parseAndLevel()
	if err != nil {
		return nil, err
	}
	for p.matchWord("OR", "XOR", "EQV", "IMP") {
		op := p.prev().Upper
		right, err := p.parseAndLevel()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Left: left, Op: op, Right: right}
	}
	return left, nil
}

func (p *ExprParser) parseAndLevel() (ast.Expr, *berr.Error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for p.matchWord("AND") {
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Left: left, Op: "AND", Right: right}
	}
	return left, nil
}

func (p *ExprParser) parseRelational() (ast.Expr, *berr.Error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.match(lexer.TokenEq, lexer.TokenNe, lexer.TokenLt, lexer.TokenLe, lexer.TokenGt, lexer.TokenGe) {
		op := string(p.prev().Type)
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Left: left, Op: op, Right: right}
	}
	return left, nil
}

func (p *ExprParser) parseAdditive() (ast.Expr, *berr.Error) {
	left, err := p.parseModLevel()
	if err != nil {
		return nil, err
	}
	for p.match(lexer.TokenPlus, lexer.TokenMinus) {
		op := string(p.prev().Type)
		right, err := p.parseModLevel()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Left: left, Op: op, Right: right}
	}
	return left, nil
}

func (p *ExprParser) parseModLevel() (ast.Expr, *berr.Error) {
	left, err := p.parseIntDivLevel()
	if err != nil {
		return nil, err
	}
	for p.matchWord("MOD") {
		right, err := p.parseIntDivLevel()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Left: left, Op: "MOD", Right: right}
	}
	return left, nil
}

func (p *ExprParser) parseIntDivLevel() (ast.Expr, *berr.Error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.match(lexer.TokenBackDiv) {
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Left: left, Op: "\\", Right: right}
	}
	return left, nil
}

func (p *ExprParser) parseMultiplicative() (ast.Expr, *berr.Error) {
	left, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	for p.match(lexer.TokenStar, lexer.TokenSlash) {
		op := string(p.prev().Type)
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Left: left, Op: op, Right: right}
	}
	return left, nil
}

func (p *ExprParser) parsePower() (ast.Expr, *berr.Error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.match(lexer.TokenCaret) {
		right, err := p.parsePower() // right-associative
		if err != nil {
			return nil, err
		}
		return &ast.Binary{Left: left, Op: "^", Right: right}, nil
	}
	return left, nil
}

func (p *ExprParser) parseUnary() (ast.Expr, *berr.Error) {
	if p.match(lexer.TokenMinus) {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: "-", Operand: operand}, nil
	}
	if p.match(lexer.TokenPlus) {
		return p.parseUnary()
	}
	if p.matchWord("NOT") {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: "NOT", Operand: operand}, nil
	}
	return p.parsePostfix()
}

// parsePostfix handles call/index and record-field access, the highest
// precedence level.
func (p *ExprParser) parsePostfix() (ast.Expr, *berr.Error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		if p.match(lexer.TokenDot) {
			if p.peek().Type != lexer.TokenIdent {
				return nil, berr.New(berr.Syntax, p.line, "expected field name after '.'")
			}
			name := p.advance().Upper
			e = &ast.Field{Object: e, Name: name}
			continue
		}
		break
	}
	return e, nil
}

func (p *ExprParser) parsePrimary() (ast.Expr, *berr.Error) {
	t := p.peek()
	switch t.Type {
	case lexer.TokenNumber:
		p.advance()
		v, perr := parseNumberLiteral(t.Upper)
		if perr != nil {
			return nil, berr.New(berr.Syntax, p.line, "invalid numeric literal %q", t.Lexeme)
		}
		return &ast.Literal{Value: v}, nil
	case lexer.TokenString:
		p.advance()
		return &ast.Literal{Value: value.Str(t.Lexeme)}, nil
	case lexer.TokenLParen:
		p.advance()
		inner, err := p.parseOrLevel()
		if err != nil {
			return nil, err
		}
		if !p.match(lexer.TokenRParen) {
			return nil, berr.New(berr.Syntax, p.line, "expected ')'")
		}
		return inner, nil
	case lexer.TokenIdent:
		if t.Upper == "FN" {
			p.advance()
			if p.peek().Type != lexer.TokenIdent {
				return nil, berr.New(berr.Syntax, p.line, "expected function name after FN")
			}
			name := p.advance().Upper
			args, err := p.parseArgsIfAny()
			if err != nil {
				return nil, err
			}
			return &ast.FnCall{Ident: name, Args: args}, nil
		}
		p.advance()
		ident := t.Upper
		if p.peek().Type == lexer.TokenLParen {
			args, err := p.parseArgsIfAny()
			if err != nil {
				return nil, err
			}
			return &ast.Call{Ident: ident, Args: args}, nil
		}
		return &ast.Name{Ident: ident}, nil
	}
	return nil, berr.New(berr.Syntax, p.line, "unexpected token %q", t.Lexeme)
}

func (p *ExprParser) parseArgsIfAny() ([]ast.Expr, *berr.Error) {
	if !p.match(lexer.TokenLParen) {
		return nil, nil
	}
	var args []ast.Expr
	if p.peek().Type != lexer.TokenRParen {
		for {
			a, err := p.parseOrLevel()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	if !p.match(lexer.TokenRParen) {
		return nil, berr.New(berr.Syntax, p.line, "expected ')'")
	}
	return args, nil
}

// parseNumberLiteral reduces a scanned numeric lexeme to the narrowest
// scalar kind that fits, honoring &H/&O/&B radix prefixes, an explicit
// trailing type-suffix character, and the float-vs-integer distinction
// from the presence of '.', 'E', or 'D' (spec.md §4.2 literal forms).
func parseNumberLiteral(text string) (value.Value, error) {
	suffix := byte(0)
	if n := len(text); n > 0 {
		switch text[n-1] {
		case '%', '&', '!', '#':
			suffix = text[n-1]
			text = text[:n-1]
		}
	}
	if strings.HasPrefix(text, "&") && len(text) > 1 {
		radixCh := text[1]
		digits := text[2:]
		var base int
		switch radixCh {
		case 'H':
			base = 16
		case 'O':
			base = 8
		case 'B':
			base = 2
		}
		n, err := strconv.ParseInt(digits, base, 64)
		if err != nil {
			return value.Value{}, err
		}
		return applySuffixInt(n, suffix), nil
	}
	if strings.ContainsAny(text, ".ED") {
		normalized := strings.ReplaceAll(text, "D", "E")
		f, err := strconv.ParseFloat(normalized, 64)
		if err != nil {
			return value.Value{}, err
		}
		switch suffix {
		case '!':
			return value.Single(float32(f)), nil
		case '#':
			return value.Double(f), nil
		}
		if strings.ContainsAny(text, "dD") {
			return value.Double(f), nil
		}
		return value.Single(float32(f)), nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return value.Value{}, err
	}
	return applySuffixInt(n, suffix), nil
}

func applySuffixInt(n int64, suffix byte) value.Value {
	switch suffix {
	case '%':
		return value.Int(int16(n))
	case '&':
		return value.Long(int32(n))
	case '!':
		return value.Single(float32(n))
	case '#':
		return value.Double(float64(n))
	}
	if n >= -32768 && n <= 32767 {
		return value.Int(int16(n))
	}
	if n >= -2147483648 && n <= 2147483647 {
		return value.Long(int32(n))
	}
	return value.Double(float64(n))
}
