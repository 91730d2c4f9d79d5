package program

import (
	"strconv"
	"strings"
)

// multiWordKeywords lists every two-word keyword the classifier recognizes
// before falling back to a single leading word (spec.md §4.3: "Multi-word
// keywords ... are recognized at classify time").
var multiWordKeywords = []string{
	"END IF", "END SELECT", "END SUB", "END FUNCTION", "END TYPE",
	"EXIT SUB", "EXIT FUNCTION", "EXIT FOR", "EXIT DO",
	"LINE INPUT", "DIM SHARED", "REDIM SHARED",
	"DECLARE SUB", "DECLARE FUNCTION",
	"ON ERROR", "ON KEY", "ON TIMER", "ON STRIG", "ON PEN", "ON PLAY",
	"OPTION BASE", "SELECT CASE", "CASE ELSE", "CASE IS",
	"RESUME NEXT", "DEF FN",
}

// keywordSet is every recognized single-word leading keyword.
var keywordSet = map[string]bool{
	"PRINT": true, "INPUT": true, "DIM": true, "REDIM": true, "ERASE": true,
	"CONST": true, "TYPE": true, "COMMON": true, "SHARED": true,
	"DECLARE": true, "SUB": true, "FUNCTION": true, "CALL": true,
	"GOTO": true, "GOSUB": true, "RETURN": true, "ON": true,
	"IF": true, "THEN": true, "ELSE": true, "ELSEIF": true,
	"FOR": true, "NEXT": true, "STEP": true, "TO": true,
	"DO": true, "LOOP": true, "WHILE": true, "WEND": true,
	"SELECT": true, "CASE": true, "DATA": true, "READ": true, "RESTORE": true,
	"DEF": true, "END": true, "SYSTEM": true, "CLEAR": true, "RUN": true,
	"STOP": true, "OPTION": true, "RANDOMIZE": true, "SLEEP": true,
	"SWAP": true, "ERROR": true, "RESUME": true, "BEEP": true, "SOUND": true,
	"PLAY": true, "CLS": true, "COLOR": true, "LOCATE": true, "SCREEN": true,
	"PSET": true, "PRESET": true, "LINE": true, "CIRCLE": true, "PAINT": true,
	"GET": true, "PUT": true, "VIEW": true, "WINDOW": true, "PCOPY": true,
	"PALETTE": true, "OPEN": true, "CLOSE": true, "FIELD": true, "KILL": true,
	"NAME": true, "MKDIR": true, "RMDIR": true, "CHDIR": true, "FILES": true,
	"WIDTH": true, "LET": true, "REM": true, "STATIC": true, "EXIT": true,
	"$DYNAMIC": true, "$STATIC": true, "_DELAY": true,
}

// splitLine indexes one logical source line into its numeric/name label
// (if any) and its colon-separated, keyword-classified statements.
func splitLine(raw string, lineNo int) SourceLine {
	sl := SourceLine{Raw: raw}
	n := len(raw)
	pos := 0
	for pos < n && (raw[pos] == ' ' || raw[pos] == '\t') {
		pos++
	}
	start := pos
	for pos < n && isDigitByte(raw[pos]) {
		pos++
	}
	if pos > start {
		if num, err := strconv.Atoi(raw[start:pos]); err == nil {
			sl.Number = num
		}
	} else {
		idStart := pos
		for pos < n && isIdentByte(raw[pos]) {
			pos++
		}
		if pos > idStart && pos < n && raw[pos] == ':' && !(pos+1 < n && raw[pos+1] == ':') {
			sl.Label = raw[idStart:pos]
			pos++
		} else {
			pos = idStart
		}
	}

	rest := raw[pos:]
	for _, seg := range splitStatements(rest) {
		text := strings.TrimSpace(seg)
		if text == "" {
			continue
		}
		kw, restText := classifyKeyword(text)
		st := Statement{
			Line:    lineNo,
			Col:     len(sl.Stmts),
			Text:    text,
			Keyword: kw,
			Rest:    strings.TrimSpace(restText),
		}
		if kw == "IF" {
			st.SingleLine, st.ThenTail = classifyIf(st.Rest)
		}
		sl.Stmts = append(sl.Stmts, st)
	}
	return sl
}

// splitStatements splits on ':' outside string literals, stopping at an
// unquoted apostrophe or a REM token (both run to end of line).
func splitStatements(rest string) []string {
	var segs []string
	n := len(rest)
	i, segStart := 0, 0
	inStr := false
	for i < n {
		if !inStr && i == segStart && remStartsHere(rest, i) {
			segs = append(segs, rest[segStart:])
			return segs
		}
		c := rest[i]
		if inStr {
			if c == '"' {
				inStr = false
			}
			i++
			continue
		}
		switch c {
		case '"':
			inStr = true
			i++
		case '\'':
			segs = append(segs, rest[segStart:i])
			return segs
		case ':':
			segs = append(segs, rest[segStart:i])
			i++
			segStart = i
		default:
			i++
		}
	}
	segs = append(segs, rest[segStart:])
	return segs
}

func remStartsHere(s string, pos int) bool {
	j := pos
	for j < len(s) && (s[j] == ' ' || s[j] == '\t') {
		j++
	}
	if j+3 > len(s) {
		return false
	}
	if !strings.EqualFold(s[j:j+3], "REM") {
		return false
	}
	end := j + 3
	if end == len(s) {
		return true
	}
	return !isIdentByte(s[end])
}

// classifyKeyword extracts the leading keyword (checking the multi-word
// table first, longest match winning) and returns the remaining text.
// An unrecognized leading word falls back to "LET": either an implicit
// assignment or a bare procedure call, disambiguated at execution time
// against the procedure table (spec.md §4.3).
func classifyKeyword(text string) (string, string) {
	upper := strings.ToUpper(text)
	for _, mw := range multiWordKeywords {
		if upper == mw || strings.HasPrefix(upper, mw+" ") || strings.HasPrefix(upper, mw+"(") {
			return mw, text[len(mw):]
		}
	}
	first, rest := splitFirstWord(text)
	firstUpper := strings.ToUpper(first)
	if keywordSet[firstUpper] {
		return firstUpper, rest
	}
	if firstUpper == "END" { // bare END with no tail
		return "END", rest
	}
	return "LET", text
}

func splitFirstWord(text string) (string, string) {
	i := 0
	n := len(text)
	for i < n && isIdentByte(text[i]) {
		i++
	}
	if i == 0 {
		// leading symbol, e.g. "$DYNAMIC" or "'"
		if strings.HasPrefix(text, "$") {
			j := 1
			for j < n && isIdentByte(text[j]) {
				j++
			}
			return text[:j], text[j:]
		}
		return "", text
	}
	return text[:i], text[i:]
}

// classifyIf determines whether an IF's THEN-clause is single-line (a
// non-empty trailing statement list, optionally with ELSE) or multi-line
// (empty trailing text, closed later by ELSEIF/ELSE/END IF). This
// classification is stable per source line and is computed once here
// rather than re-derived on every execution (spec.md §4.3, §9).
func classifyIf(rest string) (singleLine bool, thenTail string) {
	upper := strings.ToUpper(rest)
	idx := findThen(upper)
	if idx < 0 {
		return false, ""
	}
	tail := strings.TrimSpace(rest[idx+4:])
	return tail != "", tail
}

// findThen locates a top-level THEN keyword outside string literals and
// outside parens (a THEN used as a boolean identifier inside a string
// never matches because strings are not scanned by byte equality here).
func findThen(upper string) int {
	depth := 0
	inStr := false
	for i := 0; i+4 <= len(upper); i++ {
		c := upper[i]
		if c == '"' {
			inStr = !inStr
			continue
		}
		if inStr {
			continue
		}
		switch c {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth == 0 && upper[i:i+4] == "THEN" {
			before := i == 0 || !isIdentByte(upper[i-1])
			afterIdx := i + 4
			after := afterIdx == len(upper) || !isIdentByte(upper[afterIdx])
			if before && after {
				return i
			}
		}
	}
	return -1
}

func isDigitByte(c byte) bool { return c >= '0' && c <= '9' }
func isIdentByte(c byte) bool {
	return c == '_' || isDigitByte(c) ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
		c == '%' || c == '&' || c == '!' || c == '#' || c == '$'
}
