package cleaner

import (
	"strings"

	"github.com/zeebo/xxh3"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"tablejig/pkg/table"
)

// DropNA removes rows with a missing or empty value in any of Fields.
// An empty Fields list checks every column.
type DropNA struct {
	Fields []string
}

func (d DropNA) Clean(t *table.Table) (*table.Table, error) {
	fields := d.Fields
	if len(fields) == 0 {
		fields = t.ColumnNames()
	}
	cols := make([]table.Column, 0, len(fields))
	for _, f := range fields {
		c, ok := t.Column(f)
		if !ok {
			return nil, &table.SchemaError{Column: f}
		}
		cols = append(cols, c)
	}

	var keep []int
	for i := 0; i < t.NumRows(); i++ {
		ok := true
		for _, c := range cols {
			v := c.Values[i]
			if v == nil || v == "" {
				ok = false
				break
			}
		}
		if ok {
			keep = append(keep, i)
		}
	}
	if len(keep) == t.NumRows() {
		return t, nil
	}
	return t.SelectRows(keep), nil
}

// nbsp and friends come in malformed in real vendor exports; fold them to
// plain spaces along with NFC normalization.
var scrubber = transform.Chain(norm.NFC, runes.Map(func(r rune) rune {
	switch r {
	case ' ', ' ', ' ':
		return ' '
	}
	return r
}))

// Normalize canonicalizes every string cell: Unicode NFC, non-breaking
// spaces folded to plain ones, surrounding whitespace trimmed.
type Normalize struct{}

func (Normalize) Clean(t *table.Table) (*table.Table, error) {
	for _, name := range t.ColumnNames() {
		c, _ := t.Column(name)
		for i, v := range c.Values {
			s, ok := v.(string)
			if !ok {
				continue
			}
			if fixed, _, err := transform.String(scrubber, s); err == nil {
				s = fixed
			}
			s = strings.TrimSpace(s)
			if s == "" {
				c.Values[i] = nil
			} else {
				c.Values[i] = s
			}
		}
	}
	return t, nil
}

// Coerce converts columns to typed values: explicit Types first, then
// inference for the rest when Auto is set.
type Coerce struct {
	// Types maps column name to one of: int, float, bool, time, string.
	Types map[string]table.Kind

	// Layout is the time layout for KindTime columns.
	Layout string

	// Auto infers a kind for every column not listed in Types.
	Auto bool
}

func (c Coerce) Clean(t *table.Table) (*table.Table, error) {
	for name, kind := range c.Types {
		if err := t.CoerceColumn(name, kind, c.Layout); err != nil {
			return nil, err
		}
	}
	if c.Auto {
		for _, name := range t.ColumnNames() {
			if _, explicit := c.Types[name]; explicit {
				continue
			}
			col, _ := t.Column(name)
			if k := table.InferKind(col.Values); k != table.KindString {
				if err := t.CoerceColumn(name, k, c.Layout); err != nil {
					return nil, err
				}
			}
		}
	}
	return t, nil
}

// DeDup drops duplicate rows sharing one composite key. Policy "keep-first"
// keeps the earliest occurrence, "keep-last" (the default) the latest;
// either way surviving rows stay in their original relative order.
type DeDup struct {
	Keys   []string
	Policy string
}

func (d DeDup) Clean(t *table.Table) (*table.Table, error) {
	if len(d.Keys) == 0 || t.NumRows() == 0 {
		return t, nil
	}
	cols := make([]table.Column, len(d.Keys))
	for k, name := range d.Keys {
		c, ok := t.Column(name)
		if !ok {
			return nil, &table.SchemaError{Column: name}
		}
		cols[k] = c
	}

	policy := strings.ToLower(strings.TrimSpace(d.Policy))
	if policy == "" {
		policy = "keep-last"
	}

	winners := make(map[xxh3.Uint128]int, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		h := hashKey(cols, i)
		if _, seen := winners[h]; seen && policy == "keep-first" {
			continue
		}
		winners[h] = i
	}
	if len(winners) == t.NumRows() {
		return t, nil
	}

	keep := make([]int, 0, len(winners))
	for i := 0; i < t.NumRows(); i++ {
		if winners[hashKey(cols, i)] == i {
			keep = append(keep, i)
		}
	}
	return t.SelectRows(keep), nil
}

func hashKey(cols []table.Column, row int) xxh3.Uint128 {
	var b strings.Builder
	for k, c := range cols {
		if k > 0 {
			b.WriteByte('\x1f')
		}
		switch v := c.Values[row].(type) {
		case nil:
			b.WriteByte('\x00')
		case string:
			b.WriteString(v)
		default:
			b.WriteString(table.FormatCell(v))
		}
	}
	return xxh3.HashString128(b.String())
}
