package table

import (
	"strconv"
	"time"
)

// Kind is a coercion target for column values.
type Kind string

const (
	KindString Kind = "string"
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
	KindBool   Kind = "bool"
	KindTime   Kind = "time"
)

// InferKind scans the values and returns the narrowest Kind every non-nil
// string value parses as, in the order int, float, bool, string. Values that
// are already non-string (coerced earlier) pin the matching kind.
func InferKind(vals []any) Kind {
	allInt, allFloat, allBool := true, true, true
	seen := false
	for _, v := range vals {
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			switch v.(type) {
			case int, int64:
				allBool = false
			case float64:
				allInt, allBool = false, false
			case bool:
				allInt, allFloat = false, false
			default:
				return KindString
			}
			seen = true
			continue
		}
		seen = true
		if _, err := strconv.ParseInt(s, 10, 64); err != nil {
			allInt = false
		}
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			allFloat = false
		}
		if _, err := strconv.ParseBool(s); err != nil {
			allBool = false
		}
		if !allInt && !allFloat && !allBool {
			return KindString
		}
	}
	if !seen {
		return KindString
	}
	switch {
	case allInt:
		return KindInt
	case allFloat:
		return KindFloat
	case allBool:
		return KindBool
	}
	return KindString
}

// CoerceColumn converts the named column's string values to kind, in place.
// Unparseable cells become nil, matching the lenient coercion used when
// loading real-world exports. layout applies to KindTime only; when empty,
// RFC 3339 is assumed.
func (t *Table) CoerceColumn(name string, kind Kind, layout string) error {
	c, ok := t.Column(name)
	if !ok {
		return &SchemaError{Column: name}
	}
	if layout == "" {
		layout = time.RFC3339
	}
	for i, v := range c.Values {
		s, isStr := v.(string)
		if !isStr {
			continue
		}
		switch kind {
		case KindInt:
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				c.Values[i] = n
			} else {
				c.Values[i] = nil
			}
		case KindFloat:
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				c.Values[i] = f
			} else {
				c.Values[i] = nil
			}
		case KindBool:
			if b, err := strconv.ParseBool(s); err == nil {
				c.Values[i] = b
			} else {
				c.Values[i] = nil
			}
		case KindTime:
			if ts, err := time.Parse(layout, s); err == nil {
				c.Values[i] = ts
			} else {
				c.Values[i] = nil
			}
		case KindString:
			// already string
		}
	}
	return nil
}

// InferTypes coerces every column to its inferred kind. Time columns are not
// inferred; use CoerceColumn with an explicit layout for those.
func (t *Table) InferTypes() {
	for _, name := range t.ColumnNames() {
		c, _ := t.Column(name)
		if k := InferKind(c.Values); k != KindString {
			_ = t.CoerceColumn(name, k, "")
		}
	}
}
