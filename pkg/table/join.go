package table

import (
	"fmt"
	"strings"
)

// How selects the relational join semantics.
type How string

const (
	HowInner How = "inner"
	HowLeft  How = "left"
	HowRight How = "right"
	HowOuter How = "outer"
)

// JoinSpec configures a Join. Keys come from On (same names both sides),
// LeftOn/RightOn (positionally paired names), or the row index on either or
// both sides. Suffixes disambiguate non-key column names present on both
// sides; with two empty suffixes a name collision is an error.
type JoinSpec struct {
	How        How
	On         []string
	LeftOn     []string
	RightOn    []string
	LeftIndex  bool
	RightIndex bool
	Suffixes   [2]string
}

type joinPair struct{ li, ri int } // -1 marks the missing side

// Join relationally combines t (left) and o (right) according to spec.
// Output rows follow left order for inner/left joins, right order for right
// joins, and left order followed by unmatched right rows for outer joins.
// Duplicate keys produce one output row per matching pair.
//
// The row index survives only when both sides join on it; the joined key
// becomes the result's index.
func (t *Table) Join(o *Table, spec JoinSpec) (*Table, error) {
	how := spec.How
	if how == "" {
		how = HowInner
	}
	switch how {
	case HowInner, HowLeft, HowRight, HowOuter:
	default:
		return nil, &CombineError{Reason: fmt.Sprintf("unknown join method %q", how)}
	}

	leftOn, rightOn := spec.LeftOn, spec.RightOn
	leftIndex, rightIndex := spec.LeftIndex, spec.RightIndex
	if len(spec.On) > 0 {
		leftOn, rightOn = spec.On, spec.On
		leftIndex, rightIndex = false, false
	}

	if !leftIndex && len(leftOn) == 0 {
		return nil, &CombineError{Reason: "no join key configured for left side"}
	}
	if !rightIndex && len(rightOn) == 0 {
		return nil, &CombineError{Reason: "no join key configured for right side"}
	}
	leftParts, rightParts := len(leftOn), len(rightOn)
	if leftIndex {
		leftParts = 1
	}
	if rightIndex {
		rightParts = 1
	}
	if leftParts != rightParts {
		return nil, &CombineError{Reason: fmt.Sprintf("join key arity mismatch: %d left vs %d right", leftParts, rightParts)}
	}
	if leftIndex && t.index == nil {
		return nil, &CombineError{Reason: "left side has no row index to join on"}
	}
	if rightIndex && o.index == nil {
		return nil, &CombineError{Reason: "right side has no row index to join on"}
	}
	for _, name := range leftOn {
		if !t.HasColumn(name) {
			return nil, &CombineError{Reason: fmt.Sprintf("join key %q missing on left side", name)}
		}
	}
	for _, name := range rightOn {
		if !o.HasColumn(name) {
			return nil, &CombineError{Reason: fmt.Sprintf("join key %q missing on right side", name)}
		}
	}

	// Key columns sharing one name on both sides appear once in the result,
	// coalesced across sides.
	shared := map[string]bool{}
	if !leftIndex && !rightIndex {
		for k := range leftOn {
			if leftOn[k] == rightOn[k] {
				shared[leftOn[k]] = true
			}
		}
	}

	leftKey := keyFunc(t, leftOn, leftIndex)
	rightKey := keyFunc(o, rightOn, rightIndex)
	pairs := matchRows(t, o, leftKey, rightKey, how)

	// Plan output names, applying collision suffixes.
	rightOut := make([]string, 0, o.NumCols())
	for _, name := range o.ColumnNames() {
		if !shared[name] {
			rightOut = append(rightOut, name)
		}
	}
	rightSet := make(map[string]bool, len(rightOut))
	for _, name := range rightOut {
		rightSet[name] = true
	}

	out := &Table{byName: make(map[string]int)}
	appendCol := func(name string, vals []any) error {
		if _, dup := out.byName[name]; dup {
			return &CombineError{Reason: fmt.Sprintf("column %q overlaps between sides and no suffixes are configured", name)}
		}
		out.byName[name] = len(out.cols)
		out.cols = append(out.cols, Column{Name: name, Values: vals})
		return nil
	}

	for _, c := range t.cols {
		name := c.Name
		if rightSet[name] {
			name += spec.Suffixes[0]
		}
		vals := make([]any, len(pairs))
		if shared[c.Name] {
			rc, _ := o.Column(c.Name)
			for k, p := range pairs {
				if p.li >= 0 {
					vals[k] = c.Values[p.li]
				} else {
					vals[k] = rc.Values[p.ri]
				}
			}
		} else {
			for k, p := range pairs {
				if p.li >= 0 {
					vals[k] = c.Values[p.li]
				}
			}
		}
		if err := appendCol(name, vals); err != nil {
			return nil, err
		}
	}
	for _, rname := range rightOut {
		name := rname
		if t.HasColumn(rname) {
			name += spec.Suffixes[1]
		}
		rc, _ := o.Column(rname)
		vals := make([]any, len(pairs))
		for k, p := range pairs {
			if p.ri >= 0 {
				vals[k] = rc.Values[p.ri]
			}
		}
		if err := appendCol(name, vals); err != nil {
			return nil, err
		}
	}

	if leftIndex && rightIndex {
		vals := make([]any, len(pairs))
		for k, p := range pairs {
			if p.li >= 0 {
				vals[k] = t.index.Values[p.li]
			} else {
				vals[k] = o.index.Values[p.ri]
			}
		}
		name := t.index.Name
		if name == "" {
			name = o.index.Name
		}
		out.index = &Column{Name: name, Values: vals}
	}
	return out, nil
}

// keyFunc returns a function mapping a row to its join key string.
func keyFunc(t *Table, on []string, useIndex bool) func(int) string {
	if useIndex {
		idx := t.index
		return func(i int) string { return keyString(idx.Values[i]) }
	}
	cols := make([]Column, len(on))
	for k, name := range on {
		cols[k], _ = t.Column(name)
	}
	return func(i int) string {
		parts := make([]any, len(cols))
		for k, c := range cols {
			parts[k] = c.Values[i]
		}
		return keyString(parts...)
	}
}

// keyString builds a stable composite key. Values coerced earlier in the
// pipeline keep distinct representations via fmt.
func keyString(vals ...any) string {
	var b strings.Builder
	for k, v := range vals {
		if k > 0 {
			b.WriteByte('\x1f')
		}
		switch t := v.(type) {
		case nil:
			b.WriteByte('\x00')
		case string:
			b.WriteString(t)
		default:
			b.WriteString(fmt.Sprint(t))
		}
	}
	return b.String()
}

func matchRows(t, o *Table, leftKey, rightKey func(int) string, how How) []joinPair {
	var pairs []joinPair
	if how == HowRight {
		lmap := make(map[string][]int, t.NumRows())
		for li := 0; li < t.NumRows(); li++ {
			k := leftKey(li)
			lmap[k] = append(lmap[k], li)
		}
		for ri := 0; ri < o.NumRows(); ri++ {
			if ls, ok := lmap[rightKey(ri)]; ok {
				for _, li := range ls {
					pairs = append(pairs, joinPair{li: li, ri: ri})
				}
			} else {
				pairs = append(pairs, joinPair{li: -1, ri: ri})
			}
		}
		return pairs
	}

	rmap := make(map[string][]int, o.NumRows())
	for ri := 0; ri < o.NumRows(); ri++ {
		k := rightKey(ri)
		rmap[k] = append(rmap[k], ri)
	}
	matched := make([]bool, o.NumRows())
	for li := 0; li < t.NumRows(); li++ {
		if rs, ok := rmap[leftKey(li)]; ok {
			for _, ri := range rs {
				pairs = append(pairs, joinPair{li: li, ri: ri})
				matched[ri] = true
			}
		} else if how == HowLeft || how == HowOuter {
			pairs = append(pairs, joinPair{li: li, ri: -1})
		}
	}
	if how == HowOuter {
		for ri, m := range matched {
			if !m {
				pairs = append(pairs, joinPair{li: -1, ri: ri})
			}
		}
	}
	return pairs
}
