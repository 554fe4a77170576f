package table

import (
	"strings"
	"testing"
	"time"
)

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	tbl := mustNew(t,
		Column{Name: "name", Values: []any{"a", "b"}},
		Column{Name: "n", Values: []any{int64(1), nil}},
		Column{Name: "ts", Values: []any{time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), nil}},
	)
	tbl.SetIndex(Column{Name: "id", Values: []any{"r1", "r2"}})

	var sb strings.Builder
	if err := tbl.WriteCSV(&sb); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	want := "id,name,n,ts\n" +
		"r1,a,1,2024-06-01T00:00:00Z\n" +
		"r2,b,,\n"
	if sb.String() != want {
		t.Fatalf("csv output =\n%s\nwant\n%s", sb.String(), want)
	}
}

func TestWriteCSV_NoIndex(t *testing.T) {
	t.Parallel()

	tbl := mustNew(t, Column{Name: "a", Values: []any{"x"}})

	var sb strings.Builder
	if err := tbl.WriteCSV(&sb); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if want := "a\nx\n"; sb.String() != want {
		t.Fatalf("csv output = %q, want %q", sb.String(), want)
	}
}
