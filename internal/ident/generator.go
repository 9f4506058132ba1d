// Package ident issues unique node identifiers for filter expressions.
//
// The generator is explicitly owned and injected into the editing session -
// never ambient global state. IDs are monotonically increasing int64 values
// starting at 1, so a freshly constructed generator is already deterministic
// for tests.
package ident

import (
	"sync/atomic"

	"github.com/siftql/sift/internal/expr"
)

// Generator issues process-lifetime unique, monotonically increasing IDs.
//
// Thread-safety: safe for concurrent use via atomics, although the editing
// session applies operations strictly one at a time.
type Generator struct {
	last atomic.Int64
}

// NewGenerator returns a generator whose first Next is 1.
func NewGenerator() *Generator {
	return &Generator{}
}

// Next returns a previously unused ID and advances the counter.
func (g *Generator) Next() expr.ID {
	return expr.ID(g.last.Add(1))
}

// SetNext raises the counter so that the next call to Next returns at least
// next. Called when loading a persisted expression, with one past the maximum
// ID found in the loaded tree.
//
// Lowering the counter is ignored: handing out an already-issued ID would
// break process-lifetime uniqueness.
func (g *Generator) SetNext(next expr.ID) {
	floor := int64(next) - 1
	for {
		cur := g.last.Load()
		if cur >= floor {
			return
		}
		if g.last.CompareAndSwap(cur, floor) {
			return
		}
	}
}
