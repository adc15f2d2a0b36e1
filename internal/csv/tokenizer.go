package csv

import "strings"

// SplitLine splits one line into trimmed fields.
//
// A comma is a delimiter only when an even number of double quotes follows it
// on the rest of the line. This treats commas inside a quoted span as literal
// text without removing the quotes themselves.
//
// Trailing empty fields are dropped when the line contains at least one
// delimiter, so "a,b,," yields [a b]. A line with no delimiter always yields
// exactly one field, which may be empty.
func SplitLine(line string) []string {
	cuts := delimiters(line)
	if len(cuts) == 0 {
		return []string{strings.TrimSpace(line)}
	}

	raw := make([]string, 0, len(cuts)+1)
	start := 0
	for _, c := range cuts {
		raw = append(raw, line[start:c])
		start = c + 1
	}
	raw = append(raw, line[start:])

	// Trailing empties are judged before trimming, so "a, " keeps its
	// second (blank) field.
	end := len(raw)
	for end > 0 && raw[end-1] == "" {
		end--
	}

	fields := make([]string, end)
	for i := 0; i < end; i++ {
		fields[i] = strings.TrimSpace(raw[i])
	}
	return fields
}

// delimiters returns the byte offsets of every comma that splits the line.
func delimiters(line string) []int {
	var cuts []int
	quotesAfter := 0
	for i := len(line) - 1; i >= 0; i-- {
		switch line[i] {
		case '"':
			quotesAfter++
		case ',':
			if quotesAfter%2 == 0 {
				cuts = append(cuts, i)
			}
		}
	}
	for l, r := 0, len(cuts)-1; l < r; l, r = l+1, r-1 {
		cuts[l], cuts[r] = cuts[r], cuts[l]
	}
	return cuts
}
