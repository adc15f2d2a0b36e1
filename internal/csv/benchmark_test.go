package csv

import (
	"bytes"
	"fmt"
	"testing"
)

// ============================================================================
// Tokenizer Benchmarks
// ============================================================================

// BenchmarkSplitLine benchmarks line splitting. Every line of a loaded
// file goes through it once.
func BenchmarkSplitLine(b *testing.B) {
	tests := []struct {
		name string
		line string
	}{
		{"plain", "1001,John Doe,john@example.com,2024-01-15,1234.56,active"},
		{"quoted", `1001,"Doe, John",john@example.com,2024-01-15,"$1,234.56",active`},
		{"empty", ""},
		{"wide", string(bytes.Repeat([]byte("value,"), 100))},
	}

	for _, tt := range tests {
		b.Run(tt.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				SplitLine(tt.line)
			}
		})
	}
}

// BenchmarkSplitLineParallel verifies the tokenizer holds no shared state.
func BenchmarkSplitLineParallel(b *testing.B) {
	line := `1001,"Doe, John",john@example.com,2024-01-15,"$1,234.56",active`

	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			SplitLine(line)
		}
	})
}

// ============================================================================
// Parsing Benchmarks
// ============================================================================

// BenchmarkParse benchmarks parsing memory usage.
func BenchmarkParse(b *testing.B) {
	data := generateTestCSV(100)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Parse(bytes.NewReader(data), Identity())
	}
}

// BenchmarkParse_Large benchmarks parsing a larger file.
func BenchmarkParse_Large(b *testing.B) {
	data := generateTestCSV(10000)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Parse(bytes.NewReader(data), Identity())
	}
}

// BenchmarkObjects compares the built-in factories.
func BenchmarkObjects(b *testing.B) {
	data := generateTestCSV(1000)

	b.Run("Identity", func(b *testing.B) {
		table, _ := Parse(bytes.NewReader(data), Identity())
		b.ResetTimer()
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			table.Objects(true)
		}
	})

	b.Run("Render", func(b *testing.B) {
		table, _ := Parse(bytes.NewReader(data), Render())
		b.ResetTimer()
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			table.Objects(true)
		}
	})
}

// ============================================================================
// Search Benchmarks
// ============================================================================

// BenchmarkSearch benchmarks the three search modes over the same table.
func BenchmarkSearch(b *testing.B) {
	table, _ := Parse(bytes.NewReader(generateTestCSV(1000)), Identity())
	s := NewSearcher(table, true)

	b.Run("ByColumnName", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			s.ByColumnName("inactive", "status")
		}
	})

	b.Run("ByColumnIndex", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			s.ByColumnIndex("inactive", 5)
		}
	})

	b.Run("AllColumns", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			s.AllColumns("inactive")
		}
	})
}

// BenchmarkSearchParallel runs concurrent searches against one table.
func BenchmarkSearchParallel(b *testing.B) {
	table, _ := Parse(bytes.NewReader(generateTestCSV(1000)), Identity())
	s := NewSearcher(table, true)

	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			s.AllColumns("user7@example.com")
		}
	})
}

// ============================================================================
// Helper Functions
// ============================================================================

// generateTestCSV generates CSV data with a header and the specified number
// of rows. Every tenth row is inactive.
func generateTestCSV(rows int) []byte {
	var buf bytes.Buffer
	buf.WriteString("ID,Name,Email,Date,Amount,Status\n")

	for i := 0; i < rows; i++ {
		status := "active"
		if i%10 == 0 {
			status = "inactive"
		}
		fmt.Fprintf(&buf, "%d,\"Doe, John\",user%d@example.com,2024-01-15,\"$1,234.56\",%s\n", 1000+i, i, status)
	}

	return buf.Bytes()
}
