// Package exprcache memoizes parsed expressions keyed by (procedure id,
// source text), so the hot evaluation path never re-tokenizes or
// re-parses the same textual expression twice (spec.md §4.2 performance
// contract, §9 "Textual expression cache"). A fingerprint of the visible
// scope signature gates reuse: whenever the set of procedures or SHARED
// declarations that could shadow a name changes, every cached entry is
// invalidated in one step by comparing against a freshly computed
// fingerprint, rather than tracked individually.
package exprcache

import (
	"encoding/binary"
	"sort"
	"sync"

	"golang.org/x/crypto/blake2b"

	"retrobasic/internal/ast"
)

type key struct {
	procID string
	text   string
}

// Cache is safe for concurrent use; the inspector's debug surface and the
// statement executor's own goroutine may both query it.
type Cache struct {
	mu          sync.RWMutex
	fingerprint [32]byte
	entries     map[key]ast.Expr
}

func New() *Cache {
	return &Cache{entries: map[key]ast.Expr{}}
}

// Fingerprint hashes the names that participate in scope resolution for
// the current program: every procedure name plus every SHARED name
// declared anywhere. Two programs (or two points in one program's life,
// before/after a DIM SHARED) with the same set hash identically.
func Fingerprint(procNames, sharedNames []string) [32]byte {
	all := make([]string, 0, len(procNames)+len(sharedNames))
	all = append(all, procNames...)
	all = append(all, sharedNames...)
	sort.Strings(all)
	h, _ := blake2b.New256(nil)
	for _, n := range all {
		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(n)))
		h.Write(lenBuf[:])
		h.Write([]byte(n))
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Reset drops every cached entry and adopts fp as the current
// fingerprint, called once whenever the visible scope signature changes.
func (c *Cache) Reset(fp [32]byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fingerprint = fp
	c.entries = map[key]ast.Expr{}
}

// Sync invalidates the whole cache iff fp differs from the fingerprint
// most recently adopted by Reset/Sync, then adopts fp.
func (c *Cache) Sync(fp [32]byte) {
	c.mu.RLock()
	stale := fp != c.fingerprint
	c.mu.RUnlock()
	if stale {
		c.Reset(fp)
	}
}

// Get returns the cached parse for (procID, text), if any.
func (c *Cache) Get(procID, text string) (ast.Expr, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key{procID, text}]
	return e, ok
}

// Put stores a freshly parsed expression under (procID, text).
func (c *Cache) Put(procID, text string, e ast.Expr) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key{procID, text}] = e
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
