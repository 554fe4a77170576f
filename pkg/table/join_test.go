package table

import (
	"errors"
	"reflect"
	"testing"
)

/*
TestJoin_On covers the keyed-join core:

  - inner keeps only matching rows, in left order
  - left keeps all left rows, nil-filling the right side
  - right keeps all right rows, in right order
  - outer is left rows then unmatched right rows
  - a same-name key appears once in the output, coalesced across sides
*/
func TestJoin_On(t *testing.T) {
	t.Parallel()

	left := mustNew(t,
		Column{Name: "id", Values: []any{"1", "2", "3"}},
		Column{Name: "val", Values: []any{"a", "b", "c"}},
	)
	right := mustNew(t,
		Column{Name: "id", Values: []any{"2", "3", "4"}},
		Column{Name: "score", Values: []any{"20", "30", "40"}},
	)

	tests := []struct {
		how      How
		wantRows []map[string]any
	}{
		{
			how: HowInner,
			wantRows: []map[string]any{
				{"id": "2", "val": "b", "score": "20"},
				{"id": "3", "val": "c", "score": "30"},
			},
		},
		{
			how: HowLeft,
			wantRows: []map[string]any{
				{"id": "1", "val": "a", "score": nil},
				{"id": "2", "val": "b", "score": "20"},
				{"id": "3", "val": "c", "score": "30"},
			},
		},
		{
			how: HowRight,
			wantRows: []map[string]any{
				{"id": "2", "val": "b", "score": "20"},
				{"id": "3", "val": "c", "score": "30"},
				{"id": "4", "val": nil, "score": "40"},
			},
		},
		{
			how: HowOuter,
			wantRows: []map[string]any{
				{"id": "1", "val": "a", "score": nil},
				{"id": "2", "val": "b", "score": "20"},
				{"id": "3", "val": "c", "score": "30"},
				{"id": "4", "val": nil, "score": "40"},
			},
		},
	}

	for _, tc := range tests {
		t.Run(string(tc.how), func(t *testing.T) {
			got, err := left.Join(right, JoinSpec{How: tc.how, On: []string{"id"}})
			if err != nil {
				t.Fatalf("Join: %v", err)
			}
			if want := []string{"id", "val", "score"}; !reflect.DeepEqual(got.ColumnNames(), want) {
				t.Fatalf("columns = %v, want %v", got.ColumnNames(), want)
			}
			if got.NumRows() != len(tc.wantRows) {
				t.Fatalf("rows = %d, want %d", got.NumRows(), len(tc.wantRows))
			}
			for i, want := range tc.wantRows {
				if !reflect.DeepEqual(got.Row(i), want) {
					t.Fatalf("row %d = %v, want %v", i, got.Row(i), want)
				}
			}
		})
	}
}

func TestJoin_DefaultsToInner(t *testing.T) {
	t.Parallel()

	left := mustNew(t,
		Column{Name: "id", Values: []any{"1", "2"}},
		Column{Name: "val", Values: []any{"a", "b"}},
	)
	right := mustNew(t,
		Column{Name: "id", Values: []any{"2"}},
		Column{Name: "score", Values: []any{"20"}},
	)

	got, err := left.Join(right, JoinSpec{On: []string{"id"}})
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if got.NumRows() != 1 {
		t.Fatalf("rows = %d, want 1", got.NumRows())
	}
}

func TestJoin_Suffixes(t *testing.T) {
	t.Parallel()

	left := mustNew(t,
		Column{Name: "id", Values: []any{"1"}},
		Column{Name: "val", Values: []any{"10"}},
	)
	right := mustNew(t,
		Column{Name: "id", Values: []any{"1"}},
		Column{Name: "val", Values: []any{"100"}},
	)

	got, err := left.Join(right, JoinSpec{
		How:      HowInner,
		On:       []string{"id"},
		Suffixes: [2]string{"_x", "_y"},
	})
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	want := map[string]any{"id": "1", "val_x": "10", "val_y": "100"}
	if !reflect.DeepEqual(got.Row(0), want) {
		t.Fatalf("row = %v, want %v", got.Row(0), want)
	}
}

func TestJoin_CollisionWithoutSuffixes(t *testing.T) {
	t.Parallel()

	left := mustNew(t,
		Column{Name: "id", Values: []any{"1"}},
		Column{Name: "val", Values: []any{"a"}},
	)
	right := mustNew(t,
		Column{Name: "id", Values: []any{"1"}},
		Column{Name: "val", Values: []any{"b"}},
	)

	_, err := left.Join(right, JoinSpec{On: []string{"id"}})
	var ce *CombineError
	if !errors.As(err, &ce) {
		t.Fatalf("got %v, want CombineError for unsuffixed collision", err)
	}
}

func TestJoin_LeftOnRightOn(t *testing.T) {
	t.Parallel()

	left := mustNew(t,
		Column{Name: "placekey", Values: []any{"p1", "p2"}},
		Column{Name: "visits", Values: []any{"5", "6"}},
	)
	right := mustNew(t,
		Column{Name: "key", Values: []any{"p2", "p1"}},
		Column{Name: "name", Values: []any{"B", "A"}},
	)

	got, err := left.Join(right, JoinSpec{
		How:     HowInner,
		LeftOn:  []string{"placekey"},
		RightOn: []string{"key"},
	})
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	// Differently named keys both survive; output follows left order.
	wantRows := []map[string]any{
		{"placekey": "p1", "visits": "5", "key": "p1", "name": "A"},
		{"placekey": "p2", "visits": "6", "key": "p2", "name": "B"},
	}
	for i, want := range wantRows {
		if !reflect.DeepEqual(got.Row(i), want) {
			t.Fatalf("row %d = %v, want %v", i, got.Row(i), want)
		}
	}
}

func TestJoin_OnIndex(t *testing.T) {
	t.Parallel()

	left := mustNew(t, Column{Name: "val", Values: []any{"a", "b"}})
	left.SetIndex(Column{Name: "id", Values: []any{"1", "2"}})
	right := mustNew(t, Column{Name: "score", Values: []any{"20", "30"}})
	right.SetIndex(Column{Name: "id", Values: []any{"2", "3"}})

	got, err := left.Join(right, JoinSpec{How: HowInner, LeftIndex: true, RightIndex: true})
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if got.NumRows() != 1 {
		t.Fatalf("rows = %d, want 1", got.NumRows())
	}
	if got.Index() == nil || !reflect.DeepEqual(got.Index().Values, []any{"2"}) {
		t.Fatalf("index = %+v, want [2]", got.Index())
	}
	want := map[string]any{"val": "b", "score": "20"}
	if !reflect.DeepEqual(got.Row(0), want) {
		t.Fatalf("row = %v, want %v", got.Row(0), want)
	}
}

func TestJoin_DuplicateKeysFanOut(t *testing.T) {
	t.Parallel()

	left := mustNew(t,
		Column{Name: "id", Values: []any{"1", "1"}},
		Column{Name: "val", Values: []any{"a", "b"}},
	)
	right := mustNew(t,
		Column{Name: "id", Values: []any{"1", "1"}},
		Column{Name: "score", Values: []any{"x", "y"}},
	)

	got, err := left.Join(right, JoinSpec{How: HowInner, On: []string{"id"}})
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	// One output row per matching pair: 2 x 2.
	if got.NumRows() != 4 {
		t.Fatalf("rows = %d, want 4", got.NumRows())
	}
}

func TestJoin_KeyErrors(t *testing.T) {
	t.Parallel()

	left := mustNew(t, Column{Name: "a", Values: []any{"1"}})
	right := mustNew(t, Column{Name: "b", Values: []any{"1"}})

	tests := []struct {
		name string
		spec JoinSpec
	}{
		{name: "unknown_how", spec: JoinSpec{How: "cross", On: []string{"a"}}},
		{name: "no_keys", spec: JoinSpec{How: HowInner}},
		{name: "left_key_only", spec: JoinSpec{How: HowInner, LeftOn: []string{"a"}}},
		{name: "arity_mismatch", spec: JoinSpec{How: HowInner, LeftOn: []string{"a"}, RightOn: []string{"b", "b"}}},
		{name: "missing_left_key", spec: JoinSpec{How: HowInner, On: []string{"zzz"}}},
		{name: "left_index_absent", spec: JoinSpec{How: HowInner, LeftIndex: true, RightOn: []string{"b"}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := left.Join(right, tc.spec)
			var ce *CombineError
			if !errors.As(err, &ce) {
				t.Fatalf("got %v, want CombineError", err)
			}
		})
	}
}

func TestJoin_NilKeysMatchEachOther(t *testing.T) {
	t.Parallel()

	left := mustNew(t,
		Column{Name: "id", Values: []any{nil}},
		Column{Name: "val", Values: []any{"a"}},
	)
	right := mustNew(t,
		Column{Name: "id", Values: []any{nil}},
		Column{Name: "score", Values: []any{"s"}},
	)

	got, err := left.Join(right, JoinSpec{How: HowInner, On: []string{"id"}})
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if got.NumRows() != 1 {
		t.Fatalf("rows = %d, want 1", got.NumRows())
	}
	// nil keys are distinct from empty strings.
	right2 := mustNew(t,
		Column{Name: "id", Values: []any{""}},
		Column{Name: "score", Values: []any{"s"}},
	)
	got, err = left.Join(right2, JoinSpec{How: HowInner, On: []string{"id"}})
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if got.NumRows() != 0 {
		t.Fatalf("rows = %d, want 0 (nil must not match empty string)", got.NumRows())
	}
}
