package csv

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
)

func colorsTable() *Table[[]string] {
	return FromRows([][]string{
		{"red", "1", "sam"},
		{"orange", "2", "jill"},
		{"yellow", "3", "beth"},
	}, Identity())
}

func peopleTable() *Table[[]string] {
	return FromRows([][]string{
		{"name", "age"},
		{"Sam", "10"},
		{"Jill", "12"},
	}, Identity())
}

// ----------------------------------------------------------------------------
// ByColumnIndex Tests
// ----------------------------------------------------------------------------

func TestByColumnIndex(t *testing.T) {
	tests := []struct {
		name       string
		table      *Table[[]string]
		hasHeaders bool
		value      string
		index      int
		want       [][]string
	}{
		{
			name:  "case insensitive match",
			table: colorsTable(),
			value: "JILL",
			index: 2,
			want:  [][]string{{"orange", "2", "jill"}},
		},
		{
			name:  "no match",
			table: colorsTable(),
			value: "green",
			index: 0,
			want:  [][]string{},
		},
		{
			name:  "substring is not a match",
			table: colorsTable(),
			value: "ora",
			index: 0,
			want:  [][]string{},
		},
		{
			name:  "several matches keep row order",
			table: FromRows([][]string{{"a", "x"}, {"b", "y"}, {"c", "x"}}, Identity()),
			value: "x",
			index: 1,
			want:  [][]string{{"a", "x"}, {"c", "x"}},
		},
		{
			name:       "header row is not scanned",
			table:      peopleTable(),
			hasHeaders: true,
			value:      "name",
			index:      0,
			want:       [][]string{},
		},
		{
			name:       "data rows scanned with headers",
			table:      peopleTable(),
			hasHeaders: true,
			value:      "12",
			index:      1,
			want:       [][]string{{"Jill", "12"}},
		},
		{
			name:  "without headers row 0 is data",
			table: peopleTable(),
			value: "NAME",
			index: 0,
			want:  [][]string{{"name", "age"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSearcher(tt.table, tt.hasHeaders)
			got, err := s.ByColumnIndex(tt.value, tt.index)
			if err != nil {
				t.Fatalf("ByColumnIndex() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ByColumnIndex(%q, %d) = %q, want %q", tt.value, tt.index, got, tt.want)
			}
		})
	}
}

func TestByColumnIndex_OutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		table *Table[[]string]
		index int
	}{
		{"beyond every row", colorsTable(), 5},
		{"negative index", colorsTable(), -1},
		{"ragged row", FromRows([][]string{{"a", "b"}, {"c"}}, Identity()), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewSearcher(tt.table, false).ByColumnIndex("x", tt.index)
			if got != nil {
				t.Errorf("partial result returned: %q", got)
			}

			var rangeErr *IndexOutOfRangeError
			if !errors.As(err, &rangeErr) {
				t.Fatalf("error type = %T, want *IndexOutOfRangeError", err)
			}
			if err.Error() != "column index input is not a valid row index" {
				t.Errorf("message = %q", err.Error())
			}
			if !errors.Is(err, ErrIndexOutOfRange) {
				t.Error("errors.Is(err, ErrIndexOutOfRange) = false")
			}
		})
	}
}

func TestByColumnIndex_EmptyTable(t *testing.T) {
	s := NewSearcher(FromRows[[]string](nil, Identity()), true)

	got, err := s.ByColumnIndex("x", 3)
	if err != nil {
		t.Fatalf("ByColumnIndex() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("ByColumnIndex() = %#v, want empty non-nil slice", got)
	}
}

// ----------------------------------------------------------------------------
// ByColumnName Tests
// ----------------------------------------------------------------------------

func TestByColumnName(t *testing.T) {
	s := NewSearcher(peopleTable(), true)

	got, err := s.ByColumnName("jill", "NAME")
	if err != nil {
		t.Fatalf("ByColumnName() error = %v", err)
	}
	want := [][]string{{"Jill", "12"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ByColumnName() = %q, want %q", got, want)
	}
}

func TestByColumnName_FirstHeaderWins(t *testing.T) {
	table := FromRows([][]string{
		{"id", "Name", "name"},
		{"1", "a", "b"},
		{"2", "b", "a"},
	}, Identity())

	got, err := NewSearcher(table, true).ByColumnName("a", "name")
	if err != nil {
		t.Fatalf("ByColumnName() error = %v", err)
	}
	want := [][]string{{"1", "a", "b"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ByColumnName() = %q, want %q", got, want)
	}
}

func TestByColumnName_NoHeaders(t *testing.T) {
	_, err := NewSearcher(peopleTable(), false).ByColumnName("jill", "name")

	var queryErr *InvalidQueryError
	if !errors.As(err, &queryErr) {
		t.Fatalf("error type = %T, want *InvalidQueryError", err)
	}
	if !errors.Is(err, ErrInvalidQuery) {
		t.Error("errors.Is(err, ErrInvalidQuery) = false")
	}
}

func TestByColumnName_UnknownColumn(t *testing.T) {
	_, err := NewSearcher(peopleTable(), true).ByColumnName("jill", "email")

	var rangeErr *IndexOutOfRangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("error type = %T, want *IndexOutOfRangeError", err)
	}
	if rangeErr.Column != "email" {
		t.Errorf("Column = %q, want %q", rangeErr.Column, "email")
	}
	if !strings.Contains(err.Error(), "no such column") {
		t.Errorf("message = %q, want it to mention the missing column", err.Error())
	}
}

// ----------------------------------------------------------------------------
// AllColumns Tests
// ----------------------------------------------------------------------------

func TestAllColumns(t *testing.T) {
	table := FromRows([][]string{
		{"a", "a", "b"},
		{"c", "d", "A"},
		{"e", "f", "g"},
	}, Identity())

	got, err := NewSearcher(table, false).AllColumns("a")
	if err != nil {
		t.Fatalf("AllColumns() error = %v", err)
	}
	want := [][]string{{"a", "a", "b"}, {"c", "d", "A"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AllColumns() = %q, want %q", got, want)
	}
}

func TestAllColumns_SkipsHeader(t *testing.T) {
	got, err := NewSearcher(peopleTable(), true).AllColumns("age")
	if err != nil {
		t.Fatalf("AllColumns() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("AllColumns() = %q, want no matches", got)
	}
}

func TestAllColumns_QuotesArePartOfTheField(t *testing.T) {
	table, err := Parse(strings.NewReader(`x,"y,z"`), Identity())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	s := NewSearcher(table, false)

	got, err := s.AllColumns("y,z")
	if err != nil {
		t.Fatalf("AllColumns() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("AllColumns(unquoted) = %q, want no matches", got)
	}

	got, err = s.AllColumns(`"Y,Z"`)
	if err != nil {
		t.Fatalf("AllColumns() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("AllColumns(quoted) = %q, want one match", got)
	}
}

// ----------------------------------------------------------------------------
// Conversion Failure Tests
// ----------------------------------------------------------------------------

func TestSearch_ConversionFailurePropagates(t *testing.T) {
	rows := [][]string{{"name", "age"}, {"Sam", "10"}}
	table := FromRows(rows, alwaysFail())
	s := NewSearcher(table, true)

	searches := map[string]func() ([]string, error){
		"by name":  func() ([]string, error) { return s.ByColumnName("sam", "name") },
		"by index": func() ([]string, error) { return s.ByColumnIndex("sam", 0) },
		"all":      func() ([]string, error) { return s.AllColumns("sam") },
	}

	for name, search := range searches {
		t.Run(name, func(t *testing.T) {
			got, err := search()
			if got != nil {
				t.Errorf("partial result returned: %q", got)
			}
			var convErr *ConversionError
			if !errors.As(err, &convErr) {
				t.Fatalf("error type = %T, want *ConversionError", err)
			}
			if !reflect.DeepEqual(convErr.Row, rows[1]) {
				t.Errorf("Row = %q, want %q", convErr.Row, rows[1])
			}
		})
	}
}

func TestSearch_RenderFactory(t *testing.T) {
	table := FromRows([][]string{{"red", "1", "sam"}, {"orange", "2", "jill"}}, Render())

	got, err := NewSearcher(table, false).ByColumnIndex("jill", 2)
	if err != nil {
		t.Fatalf("ByColumnIndex() error = %v", err)
	}
	want := []string{"[orange, 2, jill]"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ByColumnIndex() = %q, want %q", got, want)
	}
}

func TestSearch_ConcurrentReaders(t *testing.T) {
	table := colorsTable()

	var wg sync.WaitGroup
	errs := make(chan error, 30)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := NewSearcher(table, false)
			if got, err := s.ByColumnIndex("jill", 2); err != nil || len(got) != 1 {
				errs <- errors.New("ByColumnIndex mismatch")
			}
			if got, err := s.AllColumns("3"); err != nil || len(got) != 1 {
				errs <- errors.New("AllColumns mismatch")
			}
			if _, err := s.ByColumnName("jill", "x"); !errors.Is(err, ErrInvalidQuery) {
				errs <- errors.New("ByColumnName should fail without headers")
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
