// Package store implements the variable & scope store (spec.md §4.4): a
// stack of Frames over a shared global frame, with STATIC persistence and
// SHARED aliasing. Cells are pointers so SHARED aliases and by-reference
// parameter bindings observe every write made through any alias.
package store

import (
	"strings"

	berr "retrobasic/internal/errors"
	"retrobasic/internal/program"
	"retrobasic/internal/value"
)

// Frame is one procedure invocation's local scope.
type Frame struct {
	Proc          *program.Procedure
	Locals        map[string]*value.Value
	Statics       map[string]*value.Value
	SharedAliases map[string]*value.Value
}

func newFrame(proc *program.Procedure) *Frame {
	return &Frame{
		Proc:          proc,
		Locals:        map[string]*value.Value{},
		Statics:       map[string]*value.Value{},
		SharedAliases: map[string]*value.Value{},
	}
}

// Store is the full variable/scope store: the global frame, the active
// call-frame stack, each procedure's persistent static pool, and the
// program's CONST table (read-only, never created by first-write).
type Store struct {
	Global map[string]*value.Value
	Consts map[string]value.Value

	frames      []*Frame
	staticPools map[string]map[string]*value.Value

	resolve func(name string) *value.RecordType
}

func New(consts map[string]value.Value, resolve func(string) *value.RecordType) *Store {
	return &Store{
		Global:      map[string]*value.Value{},
		Consts:      consts,
		staticPools: map[string]map[string]*value.Value{},
		resolve:     resolve,
	}
}

// PushFrame enters a new procedure invocation, repopulating STATIC locals
// from that procedure's persistent pool (spec.md §4.3 step 5).
func (s *Store) PushFrame(proc *program.Procedure) *Frame {
	f := newFrame(proc)
	if proc != nil && proc.IsStatic {
		if pool, ok := s.staticPools[proc.Name]; ok {
			for k, v := range pool {
				f.Statics[k] = v
			}
		}
	}
	s.frames = append(s.frames, f)
	return f
}

// PopFrame leaves the current invocation, extracting STATIC locals back
// into the owning procedure's persistent pool.
func (s *Store) PopFrame() {
	if len(s.frames) == 0 {
		return
	}
	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	if f.Proc != nil && f.Proc.IsStatic && len(f.Statics) > 0 {
		pool := s.staticPools[f.Proc.Name]
		if pool == nil {
			pool = map[string]*value.Value{}
			s.staticPools[f.Proc.Name] = pool
		}
		for k, v := range f.Statics {
			pool[k] = v
		}
	}
}

func (s *Store) top() *Frame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// BindShared installs an alias in the current frame pointing at the global
// cell for name, creating the global cell (zeroed to the sigil's default
// kind) if this is its first mention.
func (s *Store) BindShared(name string, defaultKind value.Kind) {
	key := normalize(name)
	f := s.top()
	if f == nil {
		return
	}
	cell, ok := s.Global[key]
	if !ok {
		z := value.Zero(defaultKind)
		cell = &z
		s.Global[key] = cell
	}
	f.SharedAliases[key] = cell
}

// BindParam installs a formal parameter in the current frame: an alias to
// the caller's cell for by-reference binding, or a fresh copy cell for
// by-value binding (spec.md §3 call-by-reference rules).
func (s *Store) BindParam(name string, v value.Value, aliasTo *value.Value) {
	key := normalize(name)
	f := s.top()
	if f == nil {
		return
	}
	if aliasTo != nil {
		f.Locals[key] = aliasTo
		return
	}
	cp := v
	f.Locals[key] = &cp
}

// Get resolves a read, following statics → locals → shared_aliases →
// constants → global (spec.md §4.2; constants are checked ahead of
// globals here, per §4.2's explicit order, even though §4.4 restates the
// chain with const last — a first write to an unresolved name must not be
// able to shadow an existing CONST of the same name). An unresolved name
// reads as the sigil's default-kind zero, never an error.
func (s *Store) Get(name string) value.Value {
	key := normalize(name)
	if f := s.top(); f != nil {
		if cell, ok := f.Statics[key]; ok {
			return *cell
		}
		if cell, ok := f.Locals[key]; ok {
			return *cell
		}
		if cell, ok := f.SharedAliases[key]; ok {
			return *cell
		}
	}
	if v, ok := s.Consts[key]; ok {
		return v
	}
	if cell, ok := s.Global[key]; ok {
		return *cell
	}
	return value.Zero(defaultKindForName(key))
}

// Cell resolves to the live cell pointer for name, creating it if unseen
// (in the current frame's locals, or the global frame at module scope).
// CONST names never resolve here; callers must check Consts first when a
// write target is ambiguous with a constant.
func (s *Store) Cell(name string, kind value.Kind) *value.Value {
	key := normalize(name)
	if f := s.top(); f != nil {
		if cell, ok := f.Statics[key]; ok {
			return cell
		}
		if cell, ok := f.Locals[key]; ok {
			return cell
		}
		if cell, ok := f.SharedAliases[key]; ok {
			return cell
		}
		z := value.Zero(kind)
		cell := &z
		if f.Proc != nil && f.Proc.IsStatic {
			// STATIC procedure: every local persists across calls.
			f.Statics[key] = cell
		} else {
			f.Locals[key] = cell
		}
		return cell
	}
	if cell, ok := s.Global[key]; ok {
		return cell
	}
	z := value.Zero(kind)
	cell := &z
	s.Global[key] = cell
	return cell
}

// Set resolves a write through the same chain used by Get, writing
// through a SHARED alias to the aliased global cell.
func (s *Store) Set(name string, v value.Value) *berr.Error {
	key := normalize(name)
	if _, isConst := s.Consts[key]; isConst {
		return berr.New(berr.DuplicateDefinition, 0, "cannot assign to CONST %s", key)
	}
	cell := s.Cell(name, v.Kind)
	*cell = v
	return nil
}

// Dim creates (or replaces) name as an array cell with the given bounds.
func (s *Store) Dim(name string, elemKind value.Kind, elemRecord *value.RecordType, bounds []value.Bound) {
	key := normalize(name)
	arr := value.NewArray(elemKind, elemRecord, bounds, s.resolve)
	if f := s.top(); f != nil {
		f.Locals[key] = &arr
		return
	}
	s.Global[key] = &arr
}

// Erase removes name's cell entirely, wherever it currently resolves.
func (s *Store) Erase(name string) {
	key := normalize(name)
	if f := s.top(); f != nil {
		delete(f.Locals, key)
		delete(f.Statics, key)
		delete(f.SharedAliases, key)
	}
	delete(s.Global, key)
}

// Clear resets every frame and the global frame to empty, and drops every
// procedure's persistent static pool; procedure and TYPE definitions are
// owned by internal/program and are unaffected (spec.md §4.4).
func (s *Store) Clear() {
	s.frames = nil
	s.Global = map[string]*value.Value{}
	s.staticPools = map[string]map[string]*value.Value{}
}

func normalize(name string) string { return strings.ToUpper(name) }

func defaultKindForName(key string) value.Kind {
	if key == "" {
		return value.KindSingle
	}
	switch key[len(key)-1] {
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
