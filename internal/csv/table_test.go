package csv

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"testing/iotest"
)

// closeTracker records whether Close was called.
type closeTracker struct {
	*strings.Reader
	closed   bool
	closeErr error
}

func (c *closeTracker) Close() error {
	c.closed = true
	return c.closeErr
}

func alwaysFail() RowFactory[string] {
	return FactoryFunc[string](func(row []string) (string, error) {
		return "", errors.New("rejected")
	})
}

// ----------------------------------------------------------------------------
// Parse Tests
// ----------------------------------------------------------------------------

func TestParse_RowCountMatchesLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"empty source", "", 0},
		{"single line no newline", "a,b", 1},
		{"single line with newline", "a,b\n", 1},
		{"three lines", "a\nb\nc\n", 3},
		{"crlf line endings", "a,b\r\nc,d\r\n", 2},
		{"blank lines count", "a\n\nb\n", 3},
		{"header and data", "name,age\nSam,10\nJill,12", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Parse(strings.NewReader(tt.input), Identity())
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got := table.Len(); got != tt.want {
				t.Errorf("Len() = %d, want %d", got, tt.want)
			}
			if got := len(table.Rows()); got != tt.want {
				t.Errorf("len(Rows()) = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParse_Rows(t *testing.T) {
	table, err := Parse(strings.NewReader("x,\"y,z\"\r\n  a , b \n\n"), Identity())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := [][]string{
		{"x", `"y,z"`},
		{"a", "b"},
		{""},
	}
	if got := table.Rows(); !reflect.DeepEqual(got, want) {
		t.Errorf("Rows() = %q, want %q", got, want)
	}
}

func TestParse_RowsIsACopy(t *testing.T) {
	table, err := Parse(strings.NewReader("a,b\n"), Identity())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	rows := table.Rows()
	rows[0][0] = "changed"

	if got := table.Rows()[0][0]; got != "a" {
		t.Errorf("table mutated through Rows(): got %q, want %q", got, "a")
	}
}

func TestParse_ClosesSource(t *testing.T) {
	src := &closeTracker{Reader: strings.NewReader("a,b\n")}

	if _, err := Parse(src, Identity()); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !src.closed {
		t.Error("source was not closed after a successful read")
	}
}

func TestParse_ClosesSourceOnReadError(t *testing.T) {
	tracker := &closeTracker{Reader: strings.NewReader("")}
	r := &erroringCloser{tracker: tracker, err: errors.New("disk gone")}

	_, err := Parse(r, Identity())
	if err == nil {
		t.Fatal("Parse() expected error")
	}
	if !tracker.closed {
		t.Error("source was not closed after a failed read")
	}
}

// erroringCloser fails every Read and records Close.
type erroringCloser struct {
	tracker *closeTracker
	err     error
}

func (e *erroringCloser) Read(p []byte) (int, error) { return 0, e.err }
func (e *erroringCloser) Close() error              { return e.tracker.Close() }

func TestParse_ReadError(t *testing.T) {
	boom := errors.New("boom")

	_, err := Parse(iotest.ErrReader(boom), Identity())
	if err == nil {
		t.Fatal("Parse() expected error")
	}

	var srcErr *SourceError
	if !errors.As(err, &srcErr) {
		t.Fatalf("error type = %T, want *SourceError", err)
	}
	if srcErr.Op != "read" {
		t.Errorf("Op = %q, want %q", srcErr.Op, "read")
	}
	if !errors.Is(err, ErrSourceAccess) {
		t.Error("errors.Is(err, ErrSourceAccess) = false")
	}
	if !errors.Is(err, boom) {
		t.Error("errors.Is(err, boom) = false, cause should be wrapped")
	}
}

func TestParse_CloseError(t *testing.T) {
	src := &closeTracker{Reader: strings.NewReader("a\n"), closeErr: errors.New("close failed")}

	table, err := Parse(src, Identity())
	if err == nil {
		t.Fatal("Parse() expected error from Close")
	}
	if table != nil {
		t.Error("Parse() returned a table alongside an error")
	}
	if !errors.Is(err, ErrSourceAccess) {
		t.Errorf("errors.Is(err, ErrSourceAccess) = false: %v", err)
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stars.csv")
	if err := os.WriteFile(path, []byte("StarID,ProperName\n0,Sol\n1,\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := ParseFile(path, Identity())
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if got := table.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}
}

func TestParseFile_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.csv")

	_, err := ParseFile(path, Identity())

	var srcErr *SourceError
	if !errors.As(err, &srcErr) {
		t.Fatalf("error type = %T, want *SourceError", err)
	}
	if srcErr.Op != "open" || srcErr.Path != path {
		t.Errorf("SourceError = {Op: %q, Path: %q}, want {open, %q}", srcErr.Op, srcErr.Path, path)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Error("errors.Is(err, os.ErrNotExist) = false")
	}
}

// ----------------------------------------------------------------------------
// Objects Tests
// ----------------------------------------------------------------------------

func TestObjects_SkipFirstRow(t *testing.T) {
	table := FromRows([][]string{{"name", "age"}, {"Sam", "10"}, {"Jill", "12"}}, Render())

	all, err := table.Objects(false)
	if err != nil {
		t.Fatalf("Objects(false) error = %v", err)
	}
	wantAll := []string{"[name, age]", "[Sam, 10]", "[Jill, 12]"}
	if !reflect.DeepEqual(all, wantAll) {
		t.Errorf("Objects(false) = %q, want %q", all, wantAll)
	}

	data, err := table.Objects(true)
	if err != nil {
		t.Fatalf("Objects(true) error = %v", err)
	}
	wantData := []string{"[Sam, 10]", "[Jill, 12]"}
	if !reflect.DeepEqual(data, wantData) {
		t.Errorf("Objects(true) = %q, want %q", data, wantData)
	}
}

func TestObjects_EmptyTable(t *testing.T) {
	table := FromRows[string](nil, Render())

	for _, skip := range []bool{false, true} {
		got, err := table.Objects(skip)
		if err != nil {
			t.Fatalf("Objects(%v) error = %v", skip, err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("Objects(%v) = %#v, want empty non-nil slice", skip, got)
		}
	}
}

func TestObjects_Idempotent(t *testing.T) {
	table, err := Parse(strings.NewReader("a,b\nc,d\n"), Identity())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	first, err := table.Objects(false)
	if err != nil {
		t.Fatalf("Objects() error = %v", err)
	}
	second, err := table.Objects(false)
	if err != nil {
		t.Fatalf("Objects() error = %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Objects() not idempotent: %q vs %q", first, second)
	}

	// Independently computed: changing one result leaves the other alone.
	first[0][0] = "changed"
	if second[0][0] != "a" {
		t.Error("Objects() results share storage")
	}
}

func TestObjects_FactoryFailure(t *testing.T) {
	table := FromRows([][]string{{"h1", "h2"}, {"a", "b"}}, alwaysFail())

	tests := []struct {
		name    string
		skip    bool
		wantRow []string
	}{
		{"all rows", false, []string{"h1", "h2"}},
		{"skip header", true, []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := table.Objects(tt.skip)
			if got != nil {
				t.Errorf("Objects() returned partial result %q", got)
			}

			var convErr *ConversionError
			if !errors.As(err, &convErr) {
				t.Fatalf("error type = %T, want *ConversionError", err)
			}
			if !reflect.DeepEqual(convErr.Row, tt.wantRow) {
				t.Errorf("Row = %q, want %q", convErr.Row, tt.wantRow)
			}
			if !errors.Is(err, ErrConversion) {
				t.Error("errors.Is(err, ErrConversion) = false")
			}
		})
	}
}

func TestObjects_CustomFactoryCauseIsWrappedGenerically(t *testing.T) {
	type star struct {
		Name string
		Dist int
	}
	factory := FactoryFunc[star](func(row []string) (star, error) {
		d, err := strconv.Atoi(row[1])
		if err != nil {
			return star{}, err
		}
		return star{Name: row[0], Dist: d}, nil
	})

	table := FromRows([][]string{{"Sol", "0"}, {"Andreas", "far"}}, factory)

	_, err := table.Objects(false)

	var convErr *ConversionError
	if !errors.As(err, &convErr) {
		t.Fatalf("error type = %T, want *ConversionError", err)
	}
	if strings.Contains(err.Error(), "invalid syntax") {
		t.Errorf("message leaks factory cause: %q", err.Error())
	}
	if !strings.Contains(err.Error(), "[Andreas, far]") {
		t.Errorf("message should name the row: %q", err.Error())
	}

	var numErr *strconv.NumError
	if !errors.As(err, &numErr) {
		t.Error("cause should stay reachable through Unwrap")
	}
}

func TestConversionError_RowIsCopied(t *testing.T) {
	row := []string{"a"}
	err := newConversionError(row, nil)
	row[0] = "changed"

	if err.Row[0] != "a" {
		t.Errorf("Row = %q, want copy of original", err.Row)
	}
}

func TestHeader(t *testing.T) {
	table := FromRows([][]string{{"name", "age"}, {"Sam", "10"}}, Identity())

	h, ok := table.Header()
	if !ok {
		t.Fatal("Header() ok = false")
	}
	if !reflect.DeepEqual(h, []string{"name", "age"}) {
		t.Errorf("Header() = %q", h)
	}

	if _, ok := FromRows[[]string](nil, Identity()).Header(); ok {
		t.Error("Header() on empty table ok = true, want false")
	}
}
