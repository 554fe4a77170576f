// Package cleaner defines the per-table transformation hook applied between
// projection and combination, plus reusable built-in cleaners. The default
// cleaner is the identity; dataset families inject their own business rules
// through this seam without touching the projector or combiner.
package cleaner

import "tablejig/pkg/table"

// Cleaner rewrites a projected table. Implementations may return the input
// unchanged, mutate it in place, or return a replacement.
type Cleaner interface {
	Clean(t *table.Table) (*table.Table, error)
}

// Func adapts a function to the Cleaner interface.
type Func func(t *table.Table) (*table.Table, error)

func (f Func) Clean(t *table.Table) (*table.Table, error) { return f(t) }

// Identity returns its input untouched.
var Identity = Func(func(t *table.Table) (*table.Table, error) { return t, nil })

// Chain is an ordered list of cleaners applied left to right.
type Chain []Cleaner

func (c Chain) Clean(t *table.Table) (*table.Table, error) {
	out := t
	var err error
	for _, cl := range c {
		out, err = cl.Clean(out)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
