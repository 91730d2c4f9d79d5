package interp

import (
	"strings"

	berr "retrobasic/internal/errors"
	"retrobasic/internal/graphics"
	"retrobasic/internal/hostfile"
	"retrobasic/internal/program"
	"retrobasic/internal/value"
)

// This file wires the PRINT-sibling statements spec.md §6 assigns to the
// graphics/audio/file collaborators. Each handler is a no-op when its
// collaborator is unattached, so a program exercising only the language
// core (internal/runtest's fixtures, `retrobasic check`) still runs to
// completion without a Graphics/Audio/Files instance.

func (it *Interp) evalInt(text string, line int) (int, *berr.Error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, nil
	}
	v, err := it.EvalString(text, line)
	if err != nil {
		return 0, err
	}
	return int(v.Int32()), nil
}

func (it *Interp) evalColor(text string, line int, fallback int32) (int32, *berr.Error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return fallback, nil
	}
	v, err := it.EvalString(text, line)
	if err != nil {
		return 0, err
	}
	return v.Int32(), nil
}

func (it *Interp) execScreen(st *program.Statement) *berr.Error {
	if it.Graphics == nil {
		return nil
	}
	mode, err := it.evalInt(splitTopLevelComma(st.Rest)[0], st.Line)
	if err != nil {
		return err
	}
	it.Graphics.ModeSet(mode)
	return nil
}

func (it *Interp) execCls(st *program.Statement) *berr.Error {
	if it.Graphics == nil {
		return nil
	}
	color := int32(0)
	if rest := strings.TrimSpace(st.Rest); rest != "" {
		v, err := it.evalInt(rest, st.Line)
		if err != nil {
			return err
		}
		color = int32(v)
	}
	it.Graphics.Cls(color)
	return nil
}

func (it *Interp) execColor(st *program.Statement) *berr.Error {
	if it.Graphics == nil {
		return nil
	}
	parts := splitTopLevelComma(st.Rest)
	fg, err := it.evalColor(parts[0], st.Line, it.Graphics.Foreground())
	if err != nil {
		return err
	}
	bg := int32(0)
	if len(parts) > 1 {
		bg, err = it.evalColor(parts[1], st.Line, 0)
		if err != nil {
			return err
		}
	}
	it.Graphics.Color(fg, bg)
	return nil
}

func (it *Interp) execLocate(st *program.Statement) *berr.Error {
	if it.Graphics == nil {
		return nil
	}
	parts := splitTopLevelComma(st.Rest)
	row, err := it.evalInt(parts[0], st.Line)
	if err != nil {
		return err
	}
	col := 1
	if len(parts) > 1 {
		col, err = it.evalInt(parts[1], st.Line)
		if err != nil {
			return err
		}
	}
	it.Graphics.Locate(row, col)
	return nil
}

// parsePoint reads a parenthesized "(x,y)" coordinate pair, returning the
// text that follows it unparsed. A leading STEP keyword is recognized
// and stripped so the coordinate parses, but its relative-to-last-point
// semantics are not applied; QBasic's graphics cursor position isn't
// tracked by this core, so STEP coordinates are treated as absolute.
func (it *Interp) parsePoint(s string, line int) (x, y int, tail string, err *berr.Error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(strings.ToUpper(s), "STEP") {
		s = strings.TrimSpace(s[4:])
	}
	point, rest := splitParen(s)
	if point == "" {
		return 0, 0, "", berr.New(berr.Syntax, line, "expected coordinate pair")
	}
	coords := splitTopLevelComma(point)
	if len(coords) != 2 {
		return 0, 0, "", berr.New(berr.Syntax, line, "malformed coordinate pair %q", point)
	}
	x, err = it.evalInt(coords[0], line)
	if err != nil {
		return 0, 0, "", err
	}
	y, err = it.evalInt(coords[1], line)
	if err != nil {
		return 0, 0, "", err
	}
	return x, y, rest, nil
}

// splitParen pulls one balanced "(...)" group off the front of s,
// returning its interior and whatever trails it.
func splitParen(s string) (inside, tail string) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "(") {
		return "", s
	}
	depth := 0
	for i, c := range s {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[1:i], strings.TrimSpace(s[i+1:])
			}
		}
	}
	return "", s
}

func (it *Interp) execPsetPreset(st *program.Statement, preset bool) *berr.Error {
	if it.Graphics == nil {
		return nil
	}
	x, y, tail, err := it.parsePoint(st.Rest, st.Line)
	if err != nil {
		return err
	}
	tail = strings.TrimPrefix(strings.TrimSpace(tail), ",")
	c, err := it.evalColor(tail, st.Line, it.Graphics.Foreground())
	if err != nil {
		return err
	}
	if preset {
		it.Graphics.Preset(x, y, c)
	} else {
		it.Graphics.Pset(x, y, c)
	}
	return nil
}

// execLine handles LINE [(x1,y1)]-(x2,y2)[,color][,B[F]]. STEP-relative
// coordinates and the dotted-line style argument are not modeled; style
// is parsed (to keep comma-position alignment of trailing fields) but
// otherwise ignored.
func (it *Interp) execLine(st *program.Statement) *berr.Error {
	if it.Graphics == nil {
		return nil
	}
	rest := strings.TrimSpace(st.Rest)
	left, right, ok := splitLineCoords(rest)
	if !ok {
		return berr.New(berr.Syntax, st.Line, "malformed LINE statement")
	}
	x1, y1, _, err := it.parsePoint(left, st.Line)
	if err != nil {
		return err
	}
	x2, y2, tail, err := it.parsePoint(right, st.Line)
	if err != nil {
		return err
	}
	tail = strings.TrimPrefix(strings.TrimSpace(tail), ",")
	style := graphics.Line
	colorText := ""
	for i, field := range splitTopLevelComma(tail) {
		f := strings.ToUpper(strings.TrimSpace(field))
		switch f {
		case "B":
			style = graphics.Box
		case "BF":
			style = graphics.BoxFilled
		case "":
		default:
			if i == 0 {
				colorText = field
			}
		}
	}
	c, err := it.evalColor(colorText, st.Line, it.Graphics.Foreground())
	if err != nil {
		return err
	}
	it.Graphics.Line(x1, y1, x2, y2, c, style)
	return nil
}

// splitLineCoords splits "(x1,y1)-(x2,y2),..." at the dash joining the
// two coordinate groups, which is the first '-' appearing right after a
// balanced ')' at nesting depth zero.
func splitLineCoords(s string) (left, right string, ok bool) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i+1 < len(s) && s[i+1] == '-' {
				return s[:i+1], s[i+2:], true
			}
		}
	}
	return "", "", false
}

func (it *Interp) execCircle(st *program.Statement) *berr.Error {
	if it.Graphics == nil {
		return nil
	}
	cx, cy, tail, err := it.parsePoint(st.Rest, st.Line)
	if err != nil {
		return err
	}
	tail = strings.TrimPrefix(strings.TrimSpace(tail), ",")
	fields := splitTopLevelComma(tail)
	radius := 0
	if len(fields) > 0 {
		radius, err = it.evalInt(fields[0], st.Line)
		if err != nil {
			return err
		}
	}
	color := it.Graphics.Foreground()
	if len(fields) > 1 && strings.TrimSpace(fields[1]) != "" {
		color, err = it.evalColor(fields[1], st.Line, color)
		if err != nil {
			return err
		}
	}
	start, end := 0.0, 2*3.141592653589793
	if len(fields) > 2 && strings.TrimSpace(fields[2]) != "" {
		v, ferr := it.EvalString(fields[2], st.Line)
		if ferr != nil {
			return ferr
		}
		start = v.Float64()
	}
	if len(fields) > 3 && strings.TrimSpace(fields[3]) != "" {
		v, ferr := it.EvalString(fields[3], st.Line)
		if ferr != nil {
			return ferr
		}
		end = v.Float64()
	}
	aspect := 1.0
	if len(fields) > 4 && strings.TrimSpace(fields[4]) != "" {
		v, ferr := it.EvalString(fields[4], st.Line)
		if ferr != nil {
			return ferr
		}
		aspect = v.Float64()
	}
	it.Graphics.Circle(cx, cy, radius, color, aspect, start, end, false)
	return nil
}

func (it *Interp) execPaint(st *program.Statement) *berr.Error {
	if it.Graphics == nil {
		return nil
	}
	x, y, tail, err := it.parsePoint(st.Rest, st.Line)
	if err != nil {
		return err
	}
	tail = strings.TrimPrefix(strings.TrimSpace(tail), ",")
	fields := splitTopLevelComma(tail)
	fill := it.Graphics.Foreground()
	if len(fields) > 0 && strings.TrimSpace(fields[0]) != "" {
		fill, err = it.evalColor(fields[0], st.Line, fill)
		if err != nil {
			return err
		}
	}
	border := fill
	if len(fields) > 1 && strings.TrimSpace(fields[1]) != "" {
		border, err = it.evalColor(fields[1], st.Line, fill)
		if err != nil {
			return err
		}
	}
	it.Graphics.Paint(x, y, fill, border)
	return nil
}

// execGet captures a screen rectangle into a named in-memory sprite slot
// (spec.md §6 surface.get). QBasic packs the captured pixels into the
// target numeric array's own storage; this core instead keys the Sprite
// by the array's name directly, since byte-packing it into a
// value.Value array would need to reproduce QBasic's undocumented plane
// layout for no behavioral benefit a BASIC program can observe through
// this core's own GET/PUT pair.
func (it *Interp) execGet(st *program.Statement) *berr.Error {
	if it.Graphics == nil {
		return nil
	}
	rest := strings.TrimSpace(st.Rest)
	left, right, ok := splitLineCoords(rest)
	if !ok {
		return berr.New(berr.Syntax, st.Line, "malformed GET statement")
	}
	x1, y1, _, err := it.parsePoint(left, st.Line)
	if err != nil {
		return err
	}
	x2, y2, tail, err := it.parsePoint(right, st.Line)
	if err != nil {
		return err
	}
	name := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tail), ","))
	if name == "" {
		return berr.New(berr.Syntax, st.Line, "GET requires a target array")
	}
	if it.sprites == nil {
		it.sprites = map[string]graphics.Sprite{}
	}
	it.sprites[strings.ToUpper(name)] = it.Graphics.Get(x1, y1, x2, y2)
	return nil
}

func (it *Interp) execPut(st *program.Statement) *berr.Error {
	if it.Graphics == nil {
		return nil
	}
	x, y, tail, err := it.parsePoint(st.Rest, st.Line)
	if err != nil {
		return err
	}
	fields := splitTopLevelComma(strings.TrimPrefix(strings.TrimSpace(tail), ","))
	if len(fields) == 0 || strings.TrimSpace(fields[0]) == "" {
		return berr.New(berr.Syntax, st.Line, "PUT requires a source array")
	}
	name := strings.ToUpper(strings.TrimSpace(fields[0]))
	sp, ok := it.sprites[name]
	if !ok {
		return berr.New(berr.IllegalCall, st.Line, "no sprite captured into %s", name)
	}
	mode := graphics.PSet
	if len(fields) > 1 {
		switch strings.ToUpper(strings.TrimSpace(fields[1])) {
		case "PRESET":
			mode = graphics.PReset
		case "AND":
			mode = graphics.And
		case "OR":
			mode = graphics.Or
		case "XOR":
			mode = graphics.Xor
		}
	}
	it.Graphics.Put(x, y, sp, mode)
	return nil
}

func (it *Interp) execPalette(st *program.Statement) *berr.Error {
	if it.Graphics == nil {
		return nil
	}
	parts := splitTopLevelComma(st.Rest)
	if strings.TrimSpace(st.Rest) == "" || len(parts) < 2 {
		return nil // PALETTE with no args resets; nothing to reset here
	}
	index, err := it.evalInt(parts[0], st.Line)
	if err != nil {
		return err
	}
	rgb, err := it.evalInt(parts[1], st.Line)
	if err != nil {
		return err
	}
	it.Graphics.PaletteSet(int32(index), uint32(rgb))
	return nil
}

func (it *Interp) execPcopy(st *program.Statement) *berr.Error {
	if it.Graphics == nil {
		return nil
	}
	parts := splitTopLevelComma(st.Rest)
	if len(parts) != 2 {
		return berr.New(berr.Syntax, st.Line, "PCOPY requires two page numbers")
	}
	src, err := it.evalInt(parts[0], st.Line)
	if err != nil {
		return err
	}
	dst, err := it.evalInt(parts[1], st.Line)
	if err != nil {
		return err
	}
	it.Graphics.Pcopy(src, dst)
	return nil
}

func (it *Interp) execSound(st *program.Statement) *berr.Error {
	if it.Audio == nil {
		return nil
	}
	parts := splitTopLevelComma(st.Rest)
	if len(parts) != 2 {
		return berr.New(berr.Syntax, st.Line, "SOUND requires frequency and duration")
	}
	freqV, err := it.EvalString(parts[0], st.Line)
	if err != nil {
		return err
	}
	durV, err := it.EvalString(parts[1], st.Line)
	if err != nil {
		return err
	}
	it.Audio.Tone(freqV.Float64(), durV.Float64())
	return nil
}

func (it *Interp) execPlay(st *program.Statement) *berr.Error {
	if it.Audio == nil {
		return nil
	}
	v, err := it.EvalString(st.Rest, st.Line)
	if err != nil {
		return err
	}
	it.Audio.PlayMML(v.String())
	return nil
}

func (it *Interp) execOpen(st *program.Statement) *berr.Error {
	if it.Files == nil {
		return nil
	}
	rest := st.Rest
	upper := strings.ToUpper(rest)
	forIdx := indexWord(upper, "FOR")
	asIdx := indexWord(upper, "AS")
	if forIdx < 0 || asIdx < 0 || asIdx < forIdx {
		return berr.New(berr.Syntax, st.Line, "malformed OPEN statement")
	}
	pathExpr := strings.TrimSpace(rest[:forIdx])
	modeWord := strings.TrimSpace(rest[forIdx+3 : asIdx])
	tail := strings.TrimSpace(rest[asIdx+2:])

	recordLen := 0
	if lenIdx := indexWord(strings.ToUpper(tail), "LEN"); lenIdx >= 0 {
		eq := strings.IndexByte(tail[lenIdx:], '=')
		if eq >= 0 {
			lv, err := it.EvalString(strings.TrimSpace(tail[lenIdx+eq+1:]), st.Line)
			if err != nil {
				return err
			}
			recordLen = int(lv.Int32())
		}
		tail = strings.TrimSpace(tail[:lenIdx])
	}
	tail = strings.TrimPrefix(strings.TrimSpace(tail), "#")
	handleV, err := it.EvalString(strings.TrimSpace(tail), st.Line)
	if err != nil {
		return err
	}
	pathV, err := it.EvalString(pathExpr, st.Line)
	if err != nil {
		return err
	}

	var mode hostfile.Mode
	switch strings.ToUpper(modeWord) {
	case "INPUT":
		mode = hostfile.Input
	case "OUTPUT":
		mode = hostfile.Output
	case "APPEND":
		mode = hostfile.Append
	case "BINARY":
		mode = hostfile.Binary
	case "RANDOM":
		mode = hostfile.Random
	default:
		return berr.New(berr.Syntax, st.Line, "unknown OPEN mode %s", modeWord)
	}
	return it.Files.Open(pathV.String(), mode, int(handleV.Int32()), recordLen, st.Line)
}

func (it *Interp) execClose(st *program.Statement) *berr.Error {
	if it.Files == nil {
		return nil
	}
	rest := strings.TrimSpace(st.Rest)
	if rest == "" {
		// CLOSE with no arguments closes every open handle; hostfile's
		// Close treats handle 0 as "all".
		return it.Files.Close(0, st.Line)
	}
	for _, part := range splitTopLevelComma(rest) {
		part = strings.TrimPrefix(strings.TrimSpace(part), "#")
		v, err := it.EvalString(part, st.Line)
		if err != nil {
			return err
		}
		if cerr := it.Files.Close(int(v.Int32()), st.Line); cerr != nil {
			return cerr
		}
	}
	return nil
}

func (it *Interp) execKill(st *program.Statement) *berr.Error {
	if it.Files == nil {
		return nil
	}
	v, err := it.EvalString(st.Rest, st.Line)
	if err != nil {
		return err
	}
	return it.Files.Kill(v.String(), st.Line)
}

func (it *Interp) execName(st *program.Statement) *berr.Error {
	if it.Files == nil {
		return nil
	}
	idx := indexWord(strings.ToUpper(st.Rest), "AS")
	if idx < 0 {
		return berr.New(berr.Syntax, st.Line, "malformed NAME statement")
	}
	oldV, err := it.EvalString(strings.TrimSpace(st.Rest[:idx]), st.Line)
	if err != nil {
		return err
	}
	newV, err := it.EvalString(strings.TrimSpace(st.Rest[idx+2:]), st.Line)
	if err != nil {
		return err
	}
	return it.Files.Rename(oldV.String(), newV.String(), st.Line)
}

func (it *Interp) execMkdir(st *program.Statement) *berr.Error {
	if it.Files == nil {
		return nil
	}
	v, err := it.EvalString(st.Rest, st.Line)
	if err != nil {
		return err
	}
	return it.Files.Mkdir(v.String(), st.Line)
}

func (it *Interp) execChdir(st *program.Statement) *berr.Error {
	if it.Files == nil {
		return nil
	}
	v, err := it.EvalString(st.Rest, st.Line)
	if err != nil {
		return err
	}
	return it.Files.Chdir(v.String(), st.Line)
}

// hostFunc intercepts the small set of functions that read live
// input-collaborator state rather than computing from their arguments
// alone (spec.md §6): INKEY$, POINT, STICK, STRIG. These never appear in
// internal/builtins' table since that table's Call signature has no
// access to the Interp's collaborators; handled reports whether ident
// named one of them at all, distinguishing "ran with a nil collaborator
// and returned a neutral value" from "not a host function, keep
// resolving as an array or builtin".
func (it *Interp) hostFunc(ident string, args []value.Value, line int) (value.Value, bool, *berr.Error) {
	switch strings.ToUpper(ident) {
	case "INKEY$":
		if it.Input == nil {
			return value.Str(""), true, nil
		}
		return value.Str(it.Input.Inkey()), true, nil
	case "POINT":
		if len(args) != 2 {
			return value.Value{}, false, nil
		}
		if it.Graphics == nil {
			return value.Long(-1), true, nil
		}
		return value.Long(it.Graphics.Point(int(args[0].Int32()), int(args[1].Int32()))), true, nil
	case "STICK":
		if len(args) != 1 {
			return value.Value{}, false, nil
		}
		if it.Input == nil {
			return value.Int(0), true, nil
		}
		n := int(args[0].Int32())
		x, y := it.Input.Stick(n / 2)
		if n%2 == 0 {
			return value.Int(int16(x)), true, nil
		}
		return value.Int(int16(y)), true, nil
	case "STRIG":
		if len(args) != 1 {
			return value.Value{}, false, nil
		}
		if it.Input == nil {
			return value.Int(0), true, nil
		}
		if it.Input.Strig(int(args[0].Int32())) {
			return value.Int(-1), true, nil
		}
		return value.Int(0), true, nil
	}
	return value.Value{}, false, nil
}

func (it *Interp) execRmdir(st *program.Statement) *berr.Error {
	if it.Files == nil {
		return nil
	}
	v, err := it.EvalString(st.Rest, st.Line)
	if err != nil {
		return err
	}
	return it.Files.Rmdir(v.String(), st.Line)
}
