// Package graphics is the narrow, opaque pixel-surface collaborator
// (spec.md §6): mode set, CLS/COLOR/LOCATE/PRINT text-window state,
// point/line/circle/paint rasterization, sprite GET/PUT, and the
// palette. Bit-exact rasterization fidelity against original QBasic is
// out of scope (spec.md §1 Non-goals do not name this explicitly, but
// the module inventory lists it as an external collaborator behind a
// narrow interface) — this implementation tracks enough state for a
// program to observe its own drawing (PAINT fills, POINT reads back
// what PSET wrote) without matching the exact anti-aliasing/dithering
// behavior of the original renderer.
package graphics

import (
	"math"
	"sync"
)

// PutMode is the raster-op used by surface.put.
type PutMode int

const (
	PSet PutMode = iota
	PReset
	And
	Or
	Xor
)

// LineStyle selects LINE's shape.
type LineStyle int

const (
	Line LineStyle = iota
	Box
	BoxFilled
)

// Sprite is a captured rectangular region, row-major, one color index per
// pixel (spec.md §6 surface.get/put).
type Sprite struct {
	W, H int
	Pix  []int32
}

// Surface is the graphics collaborator the executor holds as an opaque
// handle and drives through PRINT's sibling statements (SCREEN, CLS,
// COLOR, LOCATE, PSET, LINE, CIRCLE, PAINT, GET, PUT, PALETTE, PCOPY).
// VIEW and WINDOW are not modelled: the surface has no viewport clipping
// and no world-coordinate mapping, and those statements leave it as it is.
type Surface struct {
	mu sync.Mutex

	mode        int
	w, h        int
	fg, bg      int32
	row, col    int
	pixels      []int32
	palette     map[int32]uint32
	paletteVers uint32
	pages       map[int][]int32
}

// modeDims are the pixel dimensions of the QBasic SCREEN modes this
// collaborator recognizes (spec.md §6: "modes 0,1,2,7,8,9,10,11,12,13").
var modeDims = map[int][2]int{
	0: {80, 25}, 1: {320, 200}, 2: {640, 200}, 7: {320, 200}, 8: {640, 200},
	9: {640, 350}, 10: {640, 350}, 11: {640, 480}, 12: {640, 480}, 13: {320, 200},
}

func New() *Surface {
	s := &Surface{palette: map[int32]uint32{}, pages: map[int][]int32{}}
	s.ModeSet(0)
	return s
}

func (s *Surface) ModeSet(mode int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dims, ok := modeDims[mode]
	if !ok {
		dims = modeDims[0]
	}
	s.mode = mode
	s.w, s.h = dims[0], dims[1]
	s.pixels = make([]int32, s.w*s.h)
	s.row, s.col = 1, 1
}

func (s *Surface) Cls(color int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.pixels {
		s.pixels[i] = color
	}
}

func (s *Surface) Color(fg, bg int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fg, s.bg = fg, bg
}

func (s *Surface) Locate(row, col int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.row, s.col = row, col
}

// Print advances the text cursor; actual glyph rendering is the host's
// concern (spec.md §1: pixel surface rasterization is out of core scope).
func (s *Surface) Print(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.col += len(text)
}

func (s *Surface) index(x, y int) (int, bool) {
	if x < 0 || y < 0 || x >= s.w || y >= s.h {
		return 0, false
	}
	return y*s.w + x, true
}

func (s *Surface) Pset(x, y int, c int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index(x, y); ok {
		s.pixels[i] = c
	}
}

func (s *Surface) Preset(x, y int, c int32) {
	s.Pset(x, y, c)
}

func (s *Surface) Point(x, y int) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index(x, y); ok {
		return s.pixels[i]
	}
	return -1
}

// Line rasterizes a segment, a box outline, or a filled box (spec.md §6
// style ∈ {line, box, filled-box}) with a plain Bresenham walk.
func (s *Surface) Line(x1, y1, x2, y2 int, c int32, style LineStyle) {
	switch style {
	case Box:
		s.hline(x1, x2, y1, c)
		s.hline(x1, x2, y2, c)
		s.vline(y1, y2, x1, c)
		s.vline(y1, y2, x2, c)
	case BoxFilled:
		lo, hi := y1, y2
		if lo > hi {
			lo, hi = hi, lo
		}
		for y := lo; y <= hi; y++ {
			s.hline(x1, x2, y, c)
		}
	default:
		s.bresenham(x1, y1, x2, y2, c)
	}
}

func (s *Surface) hline(x1, x2 int, y int, c int32) {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	for x := x1; x <= x2; x++ {
		s.Pset(x, y, c)
	}
}

func (s *Surface) vline(y1, y2 int, x int, c int32) {
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	for y := y1; y <= y2; y++ {
		s.Pset(x, y, c)
	}
}

func (s *Surface) bresenham(x1, y1, x2, y2 int, c int32) {
	dx, dy := abs(x2-x1), -abs(y2-y1)
	sx, sy := sign(x2-x1), sign(y2-y1)
	err := dx + dy
	x, y := x1, y1
	for {
		s.Pset(x, y, c)
		if x == x2 && y == y2 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func sign(n int) int {
	if n < 0 {
		return -1
	}
	if n > 0 {
		return 1
	}
	return 0
}

// Circle plots points sampled along the outline with cos/sin; aspect
// stretches the y radius (spec.md §6 "aspect"); start/end (radians, 0 to
// 2π for a full circle) restrict it to an arc; fill draws radii from the
// centre to both arc ends to close a pie slice.
func (s *Surface) Circle(cx, cy int, r int, c int32, aspect float64, start, end float64, fill bool) {
	if aspect <= 0 {
		aspect = 1
	}
	steps := 360
	if r > 0 {
		steps = r * 8
		if steps < 32 {
			steps = 32
		}
	}
	for i := 0; i <= steps; i++ {
		theta := start + (end-start)*float64(i)/float64(steps)
		x := cx + int(float64(r)*math.Cos(theta))
		y := cy + int(float64(r)*aspect*math.Sin(theta))
		s.Pset(x, y, c)
	}
	if fill {
		for _, theta := range []float64{start, end} {
			x := cx + int(float64(r)*math.Cos(theta))
			y := cy + int(float64(r)*aspect*math.Sin(theta))
			s.bresenham(cx, cy, x, y, c)
		}
	}
}

// Paint flood-fills from (x,y) with fill color until it meets border
// color, spreading over any other color on the way (spec.md §6
// surface.paint); callers pass border equal to fill when PAINT names no
// border color.
func (s *Surface) Paint(x, y int, fill, border int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start, ok := s.index(x, y)
	if !ok {
		return
	}
	target := s.pixels[start]
	if target == fill || target == border {
		return
	}
	stack := [][2]int{{x, y}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		i, ok := s.index(p[0], p[1])
		if !ok {
			continue
		}
		if s.pixels[i] == border || s.pixels[i] == fill {
			continue
		}
		s.pixels[i] = fill
		stack = append(stack, [2]int{p[0] + 1, p[1]}, [2]int{p[0] - 1, p[1]}, [2]int{p[0], p[1] + 1}, [2]int{p[0], p[1] - 1})
	}
}

// Get captures a rectangular region into a Sprite (spec.md §6
// surface.get).
func (s *Surface) Get(x1, y1, x2, y2 int) Sprite {
	s.mu.Lock()
	defer s.mu.Unlock()
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	w, h := x2-x1+1, y2-y1+1
	sp := Sprite{W: w, H: h, Pix: make([]int32, w*h)}
	for yy := 0; yy < h; yy++ {
		for xx := 0; xx < w; xx++ {
			if i, ok := s.index(x1+xx, y1+yy); ok {
				sp.Pix[yy*w+xx] = s.pixels[i]
			}
		}
	}
	return sp
}

// Put blits a Sprite at (x,y) under the given raster op (spec.md §6
// surface.put, mode ∈ {PSET, PRESET, AND, OR, XOR}).
func (s *Surface) Put(x, y int, sp Sprite, mode PutMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for yy := 0; yy < sp.H; yy++ {
		for xx := 0; xx < sp.W; xx++ {
			i, ok := s.index(x+xx, y+yy)
			if !ok {
				continue
			}
			src := sp.Pix[yy*sp.W+xx]
			switch mode {
			case PReset:
				s.pixels[i] = ^src
			case And:
				s.pixels[i] &= src
			case Or:
				s.pixels[i] |= src
			case Xor:
				s.pixels[i] ^= src
			default:
				s.pixels[i] = src
			}
		}
	}
}

// PaletteSet remaps a palette index to an RGB triple, bumping the
// monotonic palette version so sprite caches know to invalidate
// (spec.md §6 "palette.version() → u32").
func (s *Surface) PaletteSet(index int32, rgb uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.palette[index] = rgb
	s.paletteVers++
}

func (s *Surface) PaletteVersion() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paletteVers
}

// Pcopy copies one display page's pixel buffer to another (spec.md §6).
func (s *Surface) Pcopy(src, dst int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pages[src] == nil {
		buf := make([]int32, len(s.pixels))
		copy(buf, s.pixels)
		s.pages[src] = buf
	}
	buf := make([]int32, len(s.pages[src]))
	copy(buf, s.pages[src])
	s.pages[dst] = buf
}

func (s *Surface) Dims() (int, int) { return s.w, s.h }

// Foreground reports the color COLOR last set, for statements like PSET
// and CIRCLE that default their own color argument to it when omitted.
func (s *Surface) Foreground() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fg
}
