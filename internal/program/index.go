package program

import (
	"strconv"
	"strings"

	berr "retrobasic/internal/errors"
	"retrobasic/internal/value"
)

// indexProcedures locates every SUB/FUNCTION ... END SUB/END FUNCTION
// range and records its signature, ahead of label indexing so labels can
// be filed into the owning procedure's local table.
func (p *Program) indexProcedures() *berr.Error {
	var open *Procedure
	var openLine int
	for li, sl := range p.Lines {
		for ci, st := range sl.Stmts {
			switch st.Keyword {
			case "SUB", "FUNCTION":
				if open != nil {
					return berr.New(berr.Syntax, st.Line, "nested %s not allowed", st.Keyword)
				}
				name, params, isStatic := parseProcHeader(st.Rest)
				proc := &Procedure{
					Name:       strings.ToUpper(name),
					IsFunction: st.Keyword == "FUNCTION",
					Params:     params,
					Start:      PC{Line: li, Col: ci + 1},
					Labels:     map[string]PC{},
					IsStatic:   isStatic,
				}
				if proc.IsFunction {
					proc.ReturnKind = kindForSigil(proc.Name)
				}
				open = proc
				openLine = li
				_ = openLine
			case "END SUB", "END FUNCTION":
				if open == nil {
					return berr.New(berr.BlockMismatch, st.Line, "%s without matching SUB/FUNCTION", st.Keyword)
				}
				open.End = PC{Line: li, Col: ci}
				if _, dup := p.Procedures[open.Name]; dup {
					return berr.New(berr.DuplicateDefinition, st.Line, "duplicate procedure %s", open.Name)
				}
				p.Procedures[open.Name] = open
				open = nil
			}
		}
	}
	if open != nil {
		return berr.New(berr.Syntax, 0, "unterminated SUB/FUNCTION %s", open.Name)
	}
	return nil
}

func parseProcHeader(rest string) (name string, params []Param, isStatic bool) {
	rest = strings.TrimSpace(rest)
	upper := strings.ToUpper(rest)
	if strings.HasSuffix(upper, " STATIC") {
		isStatic = true
		rest = rest[:len(rest)-len(" STATIC")]
	}
	open := strings.IndexByte(rest, '(')
	if open < 0 {
		return strings.TrimSpace(rest), nil, isStatic
	}
	name = strings.TrimSpace(rest[:open])
	close := strings.LastIndexByte(rest, ')')
	if close < open {
		return name, nil, isStatic
	}
	argsText := rest[open+1 : close]
	for _, part := range splitTopComma(argsText) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		params = append(params, parseParam(part))
	}
	return name, params, isStatic
}

func parseParam(text string) Param {
	isArray := false
	if idx := strings.IndexByte(text, '('); idx >= 0 {
		isArray = true
		text = strings.TrimSpace(text[:idx])
	}
	asIdx := indexWordUpper(text, "AS")
	if asIdx >= 0 {
		name := strings.TrimSpace(text[:asIdx])
		typeName := strings.ToUpper(strings.TrimSpace(text[asIdx+2:]))
		k, recName := kindForTypeName(typeName)
		return Param{Name: strings.ToUpper(name), Kind: k, RecordName: recName, IsArray: isArray}
	}
	name := strings.ToUpper(strings.TrimSpace(text))
	return Param{Name: name, Kind: kindForSigil(name), IsArray: isArray}
}

func indexWordUpper(text, word string) int {
	upper := strings.ToUpper(text)
	for i := 0; i+len(word) <= len(upper); i++ {
		if upper[i:i+len(word)] == word {
			before := i == 0 || text[i-1] == ' '
			after := i+len(word) == len(upper) || upper[i+len(word)] == ' '
			if before && after {
				return i
			}
		}
	}
	return -1
}

func kindForSigil(name string) value.Kind {
	if name == "" {
		return value.KindSingle
	}
	switch name[len(name)-1] {
	case '%':
		return value.KindInteger
	case '&':
		return value.KindLong
	case '!':
		return value.KindSingle
	case '#':
		return value.KindDouble
	case '$':
		return value.KindString
	}
	return value.KindSingle
}

func kindForTypeName(typeName string) (value.Kind, string) {
	switch typeName {
	case "INTEGER":
		return value.KindInteger, ""
	case "LONG":
		return value.KindLong, ""
	case "SINGLE":
		return value.KindSingle, ""
	case "DOUBLE":
		return value.KindDouble, ""
	case "STRING":
		return value.KindString, ""
	default:
		return value.KindRecord, typeName
	}
}

func splitTopComma(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// indexLabels records every name:/numeric label, filing it into the owning
// procedure's local table when inside a SUB/FUNCTION body and into the
// module table otherwise. Duplicates within the same scope are rejected
// (spec.md §4.1: "duplicates fail with DuplicateLabel").
func (p *Program) indexLabels() *berr.Error {
	for li, sl := range p.Lines {
		if sl.Label == "" && sl.Number == 0 {
			continue
		}
		key := ""
		if sl.Label != "" {
			key = strings.ToUpper(sl.Label)
		} else {
			key = strconv.Itoa(sl.Number)
		}
		pc := PC{Line: li, Col: 0}
		owner := p.procedureContaining(pc)
		if owner != nil {
			if _, dup := owner.Labels[key]; dup {
				return berr.New(berr.DuplicateDefinition, li+1, "duplicate label %s", key)
			}
			owner.Labels[key] = pc
		} else {
			if _, dup := p.Labels[key]; dup {
				return berr.New(berr.DuplicateDefinition, li+1, "duplicate label %s", key)
			}
			p.Labels[key] = pc
		}
	}
	return nil
}

func (p *Program) procedureContaining(pc PC) *Procedure {
	for _, proc := range p.Procedures {
		if !pc.Less(proc.Start) && pc.Less(nextPC(proc.End)) {
			return proc
		}
	}
	return nil
}

// indexDeclares parses DECLARE SUB/DECLARE FUNCTION forward declarations,
// used to resolve by-ref/by-value argument binding at a call site that
// textually precedes the procedure's own body.
func (p *Program) indexDeclares() *berr.Error {
	for _, sl := range p.Lines {
		for _, st := range sl.Stmts {
			if st.Keyword != "DECLARE SUB" && st.Keyword != "DECLARE FUNCTION" {
				continue
			}
			name, params, _ := parseProcHeader(st.Rest)
			proc := &Procedure{
				Name:       strings.ToUpper(name),
				IsFunction: st.Keyword == "DECLARE FUNCTION",
				Params:     params,
			}
			if proc.IsFunction {
				proc.ReturnKind = kindForSigil(proc.Name)
			}
			p.Declares[proc.Name] = proc
		}
	}
	return nil
}

// indexTypes parses every TYPE name ... END TYPE block into an ordered
// record layout.
func (p *Program) indexTypes() *berr.Error {
	var open *value.RecordType
	for _, sl := range p.Lines {
		for _, st := range sl.Stmts {
			switch st.Keyword {
			case "TYPE":
				if open != nil {
					return berr.New(berr.Syntax, st.Line, "nested TYPE not allowed")
				}
				open = &value.RecordType{Name: strings.ToUpper(strings.TrimSpace(st.Rest))}
			case "END TYPE":
				if open == nil {
					return berr.New(berr.BlockMismatch, st.Line, "END TYPE without TYPE")
				}
				if _, dup := p.Types[open.Name]; dup {
					return berr.New(berr.DuplicateDefinition, st.Line, "duplicate TYPE %s", open.Name)
				}
				p.Types[open.Name] = open
				open = nil
			default:
				if open != nil && st.Keyword == "LET" {
					// A field declaration line inside TYPE...END TYPE has
					// the shape "name AS type" and is otherwise classified
					// as an implicit LET by the generic splitter.
					asIdx := indexWordUpper(st.Text, "AS")
					if asIdx < 0 {
						return berr.New(berr.Syntax, st.Line, "expected 'AS type' in TYPE body")
					}
					fname := strings.ToUpper(strings.TrimSpace(st.Text[:asIdx]))
					typeName := strings.ToUpper(strings.TrimSpace(st.Text[asIdx+2:]))
					k, recName := kindForTypeName(typeName)
					open.Fields = append(open.Fields, value.Field{Name: fname, Kind: k, RecordName: recName})
				}
			}
		}
	}
	return nil
}

// indexOptionBase honors the last OPTION BASE 0|1 seen before any DIM, and
// $DYNAMIC/$STATIC metacommands (spec.md §4.1 and §9 Open Questions:
// "REDIM on a static array ... reject ... unless $DYNAMIC is in effect").
func (p *Program) indexOptionBase() *berr.Error {
	for _, sl := range p.Lines {
		for _, st := range sl.Stmts {
			switch st.Keyword {
			case "OPTION BASE":
				n := strings.TrimSpace(st.Rest)
				if n == "1" {
					p.OptionBase = 1
				} else {
					p.OptionBase = 0
				}
			case "$DYNAMIC":
				p.Dynamic = true
			case "$STATIC":
				p.Dynamic = false
			}
		}
	}
	return nil
}

// indexConsts folds every CONST binding's literal expression at index
// time, so later lookups are O(1) map reads. CONST expressions may only
// reference literals and previously defined CONSTs (spec.md §3): this is
// enforced implicitly because foldConst only understands those forms.
func (p *Program) indexConsts() *berr.Error {
	for _, sl := range p.Lines {
		for _, st := range sl.Stmts {
			if st.Keyword != "CONST" {
				continue
			}
			for _, decl := range splitTopComma(st.Rest) {
				decl = strings.TrimSpace(decl)
				if decl == "" {
					continue
				}
				eq := strings.IndexByte(decl, '=')
				if eq < 0 {
					return berr.New(berr.Syntax, st.Line, "malformed CONST")
				}
				name := strings.ToUpper(strings.TrimSpace(decl[:eq]))
				exprText := strings.TrimSpace(decl[eq+1:])
				v, err := foldConst(exprText, p.Consts, st.Line)
				if err != nil {
					return err
				}
				if _, dup := p.Consts[name]; dup {
					return berr.New(berr.DuplicateDefinition, st.Line, "duplicate CONST %s", name)
				}
				p.Consts[name] = v
			}
		}
	}
	return nil
}

// indexDefFns parses every DEF FN name(params) = expr declaration. The
// expression text is stored unparsed; it is parsed (and cached) lazily at
// first call like any other expression (spec.md §4.2 performance
// contract).
func (p *Program) indexDefFns() *berr.Error {
	for _, sl := range p.Lines {
		for _, st := range sl.Stmts {
			if st.Keyword != "DEF FN" {
				continue
			}
			eq := strings.IndexByte(st.Rest, '=')
			if eq < 0 {
				return berr.New(berr.Syntax, st.Line, "malformed DEF FN")
			}
			header := strings.TrimSpace(st.Rest[:eq])
			exprText := strings.TrimSpace(st.Rest[eq+1:])
			open := strings.IndexByte(header, '(')
			name := strings.ToUpper(strings.TrimSpace(header))
			var params []string
			if open >= 0 {
				name = strings.ToUpper(strings.TrimSpace(header[:open]))
				close := strings.LastIndexByte(header, ')')
				if close > open {
					for _, part := range splitTopComma(header[open+1 : close]) {
						part = strings.TrimSpace(part)
						if part != "" {
							params = append(params, strings.ToUpper(part))
						}
					}
				}
			}
			if _, dup := p.DefFns[name]; dup {
				return berr.New(berr.DuplicateDefinition, st.Line, "duplicate DEF FN %s", name)
			}
			p.DefFns[name] = &DefFn{Name: name, Params: params, ExprText: exprText, Line: st.Line}
		}
	}
	return nil
}

// indexData flattens every DATA statement's literal tokens into the DATA
// pool in source order, and records each label's pool offset for RESTORE.
func (p *Program) indexData() {
	for _, sl := range p.Lines {
		hasLabel := sl.Label != "" || sl.Number != 0
		labelKey := ""
		if sl.Label != "" {
			labelKey = strings.ToUpper(sl.Label)
		} else if sl.Number != 0 {
			labelKey = strconv.Itoa(sl.Number)
		}
		firstDataOnLine := true
		for _, st := range sl.Stmts {
			if st.Keyword != "DATA" {
				continue
			}
			if hasLabel && firstDataOnLine {
				if _, seen := p.DataLabelOffset[labelKey]; !seen {
					p.DataLabelOffset[labelKey] = len(p.DataPool)
				}
			}
			firstDataOnLine = false
			for _, tok := range splitTopComma(st.Rest) {
				tok = strings.TrimSpace(tok)
				isStr := false
				if len(tok) >= 2 && tok[0] == '"' && tok[len(tok)-1] == '"' {
					isStr = true
					tok = tok[1 : len(tok)-1]
				}
				p.DataPool = append(p.DataPool, DataItem{Text: tok, IsString: isStr})
			}
		}
	}
}
