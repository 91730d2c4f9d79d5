// Package builtins implements the fixed built-in function table (spec.md
// §4.2): every entry is keyed by case-normalized name and declares its
// arity. The evaluator consults this table for a call only after host
// functions, arrays and user FUNCTIONs have not claimed the name; DEF FN
// closures are resolved on their own FN path.
package builtins

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/golang-sql/civil"

	berr "retrobasic/internal/errors"
	"retrobasic/internal/value"
)

// Fn is one built-in's implementation. args are already evaluated.
type Fn func(b *Table, args []value.Value, line int) (value.Value, *berr.Error)

// Entry declares a built-in's arity (inclusive) and implementation.
type Entry struct {
	MinArgs int
	MaxArgs int // -1 means unbounded
	Call    Fn
}

// Table is the live built-in registry plus the small amount of runtime
// state a few built-ins need (RND's sequence, TIMER's epoch).
type Table struct {
	entries map[string]Entry
	rng     *rand.Rand
	lastRnd float64
	epoch   time.Time
}

func New() *Table {
	t := &Table{rng: rand.New(rand.NewSource(1)), epoch: time.Now()}
	t.lastRnd = t.rng.Float64()
	t.entries = builtinTable()
	return t
}

// Lookup reports whether name is a built-in, and its Entry if so.
func (t *Table) Lookup(name string) (Entry, bool) {
	e, ok := t.entries[strings.ToUpper(name)]
	return e, ok
}

// Call dispatches name with already-evaluated args, checking arity.
func (t *Table) Call(name string, args []value.Value, line int) (value.Value, *berr.Error) {
	e, ok := t.Lookup(name)
	if !ok {
		return value.Value{}, berr.New(berr.UndefinedName, line, "undefined function %s", name)
	}
	if len(args) < e.MinArgs || (e.MaxArgs >= 0 && len(args) > e.MaxArgs) {
		return value.Value{}, berr.New(berr.IllegalCall, line, "wrong number of arguments to %s", name)
	}
	return e.Call(t, args, line)
}

func numArg(args []value.Value, i int, line int) (float64, *berr.Error) {
	if i >= len(args) || !args[i].IsNumeric() {
		return 0, berr.New(berr.TypeMismatch, line, "expected numeric argument")
	}
	return args[i].Float64(), nil
}

func strArg(args []value.Value, i int, line int) (string, *berr.Error) {
	if i >= len(args) || args[i].Kind != value.KindString {
		return "", berr.New(berr.TypeMismatch, line, "expected string argument")
	}
	return args[i].String(), nil
}

func builtinTable() map[string]Entry {
	m := map[string]Entry{}

	m["ABS"] = Entry{1, 1, func(t *Table, a []value.Value, line int) (value.Value, *berr.Error) {
		f, err := numArg(a, 0, line)
		if err != nil {
			return value.Value{}, err
		}
		return value.CoerceTo(value.Double(math.Abs(f)), a[0].Kind, line)
	}}

	m["SGN"] = Entry{1, 1, func(t *Table, a []value.Value, line int) (value.Value, *berr.Error) {
		f, err := numArg(a, 0, line)
		if err != nil {
			return value.Value{}, err
		}
		switch {
		case f > 0:
			return value.Int(1), nil
		case f < 0:
			return value.Int(-1), nil
		default:
			return value.Int(0), nil
		}
	}}

	m["INT"] = Entry{1, 1, func(t *Table, a []value.Value, line int) (value.Value, *berr.Error) {
		f, err := numArg(a, 0, line)
		if err != nil {
			return value.Value{}, err
		}
		return value.CoerceTo(value.Double(value.IntFloor(f)), a[0].Kind, line)
	}}

	m["FIX"] = Entry{1, 1, func(t *Table, a []value.Value, line int) (value.Value, *berr.Error) {
		f, err := numArg(a, 0, line)
		if err != nil {
			return value.Value{}, err
		}
		return value.CoerceTo(value.Double(value.FixTrunc(f)), a[0].Kind, line)
	}}

	m["CINT"] = Entry{1, 1, func(t *Table, a []value.Value, line int) (value.Value, *berr.Error) {
		f, err := numArg(a, 0, line)
		if err != nil {
			return value.Value{}, err
		}
		return value.CInt(f, line)
	}}

	m["CLNG"] = Entry{1, 1, func(t *Table, a []value.Value, line int) (value.Value, *berr.Error) {
		f, err := numArg(a, 0, line)
		if err != nil {
			return value.Value{}, err
		}
		return value.CoerceTo(value.Double(math.RoundToEven(f)), value.KindLong, line)
	}}

	m["CSNG"] = Entry{1, 1, func(t *Table, a []value.Value, line int) (value.Value, *berr.Error) {
		f, err := numArg(a, 0, line)
		if err != nil {
			return value.Value{}, err
		}
		return value.Single(float32(f)), nil
	}}

	m["CDBL"] = Entry{1, 1, func(t *Table, a []value.Value, line int) (value.Value, *berr.Error) {
		f, err := numArg(a, 0, line)
		if err != nil {
			return value.Value{}, err
		}
		return value.Double(f), nil
	}}

	for name, fn := range map[string]func(float64) float64{
		"SQR": math.Sqrt, "SIN": math.Sin, "COS": math.Cos, "TAN": math.Tan,
		"ATN": math.Atan, "EXP": math.Exp, "LOG": math.Log,
	} {
		fn := fn
		m[name] = Entry{1, 1, func(t *Table, a []value.Value, line int) (value.Value, *berr.Error) {
			f, err := numArg(a, 0, line)
			if err != nil {
				return value.Value{}, err
			}
			if name == "SQR" && f < 0 {
				return value.Value{}, berr.New(berr.IllegalCall, line, "SQR of a negative number")
			}
			if name == "LOG" && f <= 0 {
				return value.Value{}, berr.New(berr.IllegalCall, line, "LOG of a non-positive number")
			}
			return value.Single(float32(fn(f))), nil
		}}
	}

	m["RND"] = Entry{0, 1, func(t *Table, a []value.Value, line int) (value.Value, *berr.Error) {
		seed := 0.0
		if len(a) == 1 {
			f, err := numArg(a, 0, line)
			if err != nil {
				return value.Value{}, err
			}
			seed = f
		}
		switch {
		case len(a) == 1 && seed < 0:
			t.rng = rand.New(rand.NewSource(int64(seed)))
			t.lastRnd = t.rng.Float64()
		case len(a) == 1 && seed == 0:
			// RND(0) repeats the last value produced.
		default:
			t.lastRnd = t.rng.Float64()
		}
		return value.Single(float32(t.lastRnd)), nil
	}}

	m["TIMER"] = Entry{0, 0, func(t *Table, a []value.Value, line int) (value.Value, *berr.Error) {
		return value.Single(float32(time.Since(t.epoch).Seconds())), nil
	}}

	m["DATE$"] = Entry{0, 0, func(t *Table, a []value.Value, line int) (value.Value, *berr.Error) {
		d := civil.DateOf(time.Now())
		return value.Str(fmt.Sprintf("%02d-%02d-%04d", d.Month, d.Day, d.Year)), nil
	}}

	m["TIME$"] = Entry{0, 0, func(t *Table, a []value.Value, line int) (value.Value, *berr.Error) {
		tm := civil.TimeOf(time.Now())
		return value.Str(fmt.Sprintf("%02d:%02d:%02d", tm.Hour, tm.Minute, tm.Second)), nil
	}}

	m["LEN"] = Entry{1, 1, func(t *Table, a []value.Value, line int) (value.Value, *berr.Error) {
		if a[0].Kind != value.KindString {
			return value.Value{}, berr.New(berr.TypeMismatch, line, "LEN requires a string")
		}
		return value.Long(int32(len(a[0].String()))), nil
	}}

	m["VAL"] = Entry{1, 1, func(t *Table, a []value.Value, line int) (value.Value, *berr.Error) {
		s, err := strArg(a, 0, line)
		if err != nil {
			return value.Value{}, err
		}
		return value.Double(parseLeadingNumber(s)), nil
	}}

	m["STR$"] = Entry{1, 1, func(t *Table, a []value.Value, line int) (value.Value, *berr.Error) {
		if !a[0].IsNumeric() {
			return value.Value{}, berr.New(berr.TypeMismatch, line, "STR$ requires a numeric argument")
		}
		return value.Str(a[0].String()), nil
	}}

	m["CHR$"] = Entry{1, 1, func(t *Table, a []value.Value, line int) (value.Value, *berr.Error) {
		f, err := numArg(a, 0, line)
		if err != nil {
			return value.Value{}, err
		}
		code := int(f)
		if code < 0 || code > 255 {
			return value.Value{}, berr.New(berr.IllegalCall, line, "CHR$ code out of range")
		}
		return value.Str(string(rune(code))), nil
	}}

	m["ASC"] = Entry{1, 1, func(t *Table, a []value.Value, line int) (value.Value, *berr.Error) {
		s, err := strArg(a, 0, line)
		if err != nil {
			return value.Value{}, err
		}
		if s == "" {
			return value.Value{}, berr.New(berr.IllegalCall, line, "ASC of an empty string")
		}
		return value.Int(int16(s[0])), nil
	}}

	m["LEFT$"] = Entry{2, 2, func(t *Table, a []value.Value, line int) (value.Value, *berr.Error) {
		s, err := strArg(a, 0, line)
		if err != nil {
			return value.Value{}, err
		}
		n, err := numArg(a, 1, line)
		if err != nil {
			return value.Value{}, err
		}
		k := clampLen(int(n), len(s))
		return value.Str(s[:k]), nil
	}}

	m["RIGHT$"] = Entry{2, 2, func(t *Table, a []value.Value, line int) (value.Value, *berr.Error) {
		s, err := strArg(a, 0, line)
		if err != nil {
			return value.Value{}, err
		}
		n, err := numArg(a, 1, line)
		if err != nil {
			return value.Value{}, err
		}
		k := clampLen(int(n), len(s))
		return value.Str(s[len(s)-k:]), nil
	}}

	m["MID$"] = Entry{2, 3, func(t *Table, a []value.Value, line int) (value.Value, *berr.Error) {
		s, err := strArg(a, 0, line)
		if err != nil {
			return value.Value{}, err
		}
		startF, err := numArg(a, 1, line)
		if err != nil {
			return value.Value{}, err
		}
		start := int(startF)
		if start < 1 {
			return value.Value{}, berr.New(berr.IllegalCall, line, "MID$ start must be >= 1")
		}
		if start > len(s) {
			return value.Str(""), nil
		}
		n := len(s) - (start - 1)
		if len(a) == 3 {
			lf, err := numArg(a, 2, line)
			if err != nil {
				return value.Value{}, err
			}
			if int(lf) < n {
				n = int(lf)
			}
		}
		if n < 0 {
			n = 0
		}
		return value.Str(s[start-1 : start-1+n]), nil
	}}

	m["INSTR"] = Entry{2, 3, func(t *Table, a []value.Value, line int) (value.Value, *berr.Error) {
		start := 1
		hayIdx, needleIdx := 0, 1
		if len(a) == 3 {
			f, err := numArg(a, 0, line)
			if err != nil {
				return value.Value{}, err
			}
			start = int(f)
			hayIdx, needleIdx = 1, 2
		}
		hay, err := strArg(a, hayIdx, line)
		if err != nil {
			return value.Value{}, err
		}
		needle, err := strArg(a, needleIdx, line)
		if err != nil {
			return value.Value{}, err
		}
		if start < 1 {
			start = 1
		}
		if start > len(hay)+1 {
			return value.Long(0), nil
		}
		idx := strings.Index(hay[start-1:], needle)
		if idx < 0 {
			return value.Long(0), nil
		}
		return value.Long(int32(start + idx)), nil
	}}

	m["UCASE$"] = Entry{1, 1, func(t *Table, a []value.Value, line int) (value.Value, *berr.Error) {
		s, err := strArg(a, 0, line)
		if err != nil {
			return value.Value{}, err
		}
		return value.Str(strings.ToUpper(s)), nil
	}}

	m["LCASE$"] = Entry{1, 1, func(t *Table, a []value.Value, line int) (value.Value, *berr.Error) {
		s, err := strArg(a, 0, line)
		if err != nil {
			return value.Value{}, err
		}
		return value.Str(strings.ToLower(s)), nil
	}}

	m["LTRIM$"] = Entry{1, 1, func(t *Table, a []value.Value, line int) (value.Value, *berr.Error) {
		s, err := strArg(a, 0, line)
		if err != nil {
			return value.Value{}, err
		}
		return value.Str(strings.TrimLeft(s, " ")), nil
	}}

	m["RTRIM$"] = Entry{1, 1, func(t *Table, a []value.Value, line int) (value.Value, *berr.Error) {
		s, err := strArg(a, 0, line)
		if err != nil {
			return value.Value{}, err
		}
		return value.Str(strings.TrimRight(s, " ")), nil
	}}

	m["SPACE$"] = Entry{1, 1, func(t *Table, a []value.Value, line int) (value.Value, *berr.Error) {
		f, err := numArg(a, 0, line)
		if err != nil {
			return value.Value{}, err
		}
		return value.Str(strings.Repeat(" ", int(f))), nil
	}}

	m["STRING$"] = Entry{2, 2, func(t *Table, a []value.Value, line int) (value.Value, *berr.Error) {
		f, err := numArg(a, 0, line)
		if err != nil {
			return value.Value{}, err
		}
		var ch byte
		if a[1].Kind == value.KindString {
			s := a[1].String()
			if s == "" {
				return value.Value{}, berr.New(berr.IllegalCall, line, "STRING$ fill string is empty")
			}
			ch = s[0]
		} else {
			code, err := numArg(a, 1, line)
			if err != nil {
				return value.Value{}, err
			}
			ch = byte(int(code))
		}
		return value.Str(strings.Repeat(string(ch), int(f))), nil
	}}

	m["TAB"] = Entry{1, 1, func(t *Table, a []value.Value, line int) (value.Value, *berr.Error) {
		f, err := numArg(a, 0, line)
		if err != nil {
			return value.Value{}, err
		}
		return value.Str(strings.Repeat(" ", int(f))), nil
	}}

	m["SPC"] = Entry{1, 1, m["SPACE$"].Call}

	return m
}

func clampLen(n, max int) int {
	if n < 0 {
		n = 0
	}
	if n > max {
		n = max
	}
	return n
}

// parseLeadingNumber implements VAL's "parse as much of a leading numeric
// prefix as is valid, ignoring leading whitespace, zero if none" rule.
func parseLeadingNumber(s string) float64 {
	s = strings.TrimLeft(s, " \t")
	i := 0
	n := len(s)
	if i < n && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digitsStart := i
	for i < n && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i < n && s[i] == '.' {
		i++
		for i < n && s[i] >= '0' && s[i] <= '9' {
			i++
		}
	}
	if i < n && (s[i] == 'E' || s[i] == 'e' || s[i] == 'D' || s[i] == 'd') {
		save := i
		i++
		if i < n && (s[i] == '+' || s[i] == '-') {
			i++
		}
		if i < n && s[i] >= '0' && s[i] <= '9' {
			for i < n && s[i] >= '0' && s[i] <= '9' {
				i++
			}
		} else {
			i = save
		}
	}
	if i == digitsStart {
		return 0
	}
	text := strings.ReplaceAll(s[:i], "D", "E")
	text = strings.ReplaceAll(text, "d", "e")
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0
	}
	return f
}
