package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
)

// WriteCSV serializes the table to w as CSV: one header row, then data rows.
// The index, when present, is emitted as the first field. Nil cells become
// empty fields; time values use RFC 3339.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, t.NumCols()+1)
	if t.index != nil {
		header = append(header, t.index.Name)
	}
	header = append(header, t.ColumnNames()...)
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "writing csv header")
	}

	row := make([]string, len(header))
	for i := 0; i < t.NumRows(); i++ {
		row = row[:0]
		if t.index != nil {
			row = append(row, FormatCell(t.index.Values[i]))
		}
		for _, c := range t.cols {
			row = append(row, FormatCell(c.Values[i]))
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "writing csv row %d", i)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing csv")
}

// FormatCell renders one cell value the way WriteCSV does: nil as the empty
// string, time values as RFC 3339, everything else via fmt.
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}
