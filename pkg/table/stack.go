package table

// Stack appends o's rows beneath t's rows, aligning columns by name. Columns
// present on one side only are filled with nil on the other. Row indexes are
// concatenated as-is, never deduplicated or renumbered.
func (t *Table) Stack(o *Table) *Table {
	nLeft, nRight := t.NumRows(), o.NumRows()
	out := &Table{byName: make(map[string]int)}

	addCol := func(name string) {
		vals := make([]any, 0, nLeft+nRight)
		if c, ok := t.Column(name); ok {
			vals = append(vals, c.Values...)
		} else {
			vals = append(vals, make([]any, nLeft)...)
		}
		if c, ok := o.Column(name); ok {
			vals = append(vals, c.Values...)
		} else {
			vals = append(vals, make([]any, nRight)...)
		}
		out.byName[name] = len(out.cols)
		out.cols = append(out.cols, Column{Name: name, Values: vals})
	}

	for _, name := range t.ColumnNames() {
		addCol(name)
	}
	for _, name := range o.ColumnNames() {
		if !t.HasColumn(name) {
			addCol(name)
		}
	}

	if t.index != nil || o.index != nil {
		idx := Column{}
		if t.index != nil {
			idx.Name = t.index.Name
			idx.Values = append(idx.Values, t.index.Values...)
		} else {
			idx.Name = o.index.Name
			idx.Values = append(idx.Values, make([]any, nLeft)...)
		}
		if o.index != nil {
			idx.Values = append(idx.Values, o.index.Values...)
		} else {
			idx.Values = append(idx.Values, make([]any, nRight)...)
		}
		out.index = &idx
	}
	return out
}
