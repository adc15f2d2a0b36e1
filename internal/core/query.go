package core

import (
	"strconv"
	"strings"

	"github.com/JonMunkholm/csvsearch/internal/csv"
)

// SearchMode selects which Searcher operation a Query runs.
type SearchMode string

const (
	ModeName  SearchMode = "name"
	ModeIndex SearchMode = "index"
	ModeAll   SearchMode = "all"
)

// ParseSearchMode accepts "name", "index" or "all" in any case.
func ParseSearchMode(s string) (SearchMode, error) {
	switch mode := SearchMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case ModeName, ModeIndex, ModeAll:
		return mode, nil
	}
	return "", &csv.InvalidQueryError{Reason: "search type must be index, name or all"}
}

// ParseHeaderFlag accepts "true" or "false" in any case.
func ParseHeaderFlag(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, &csv.InvalidQueryError{Reason: "hasHeaders must be true or false"}
}

// Query is a parsed search request.
type Query struct {
	Mode   SearchMode `json:"searchType"`
	Value  string     `json:"searchVal"`
	Column string     `json:"columnIdentifier,omitempty"`
}

// NewQuery validates mode and, for index searches, the column number.
func NewQuery(mode, value, column string) (Query, error) {
	m, err := ParseSearchMode(mode)
	if err != nil {
		return Query{}, err
	}
	q := Query{Mode: m, Value: value, Column: strings.TrimSpace(column)}
	if m == ModeIndex {
		if _, err := q.index(); err != nil {
			return Query{}, err
		}
	}
	return q, nil
}

func (q Query) index() (int, error) {
	i, err := strconv.Atoi(q.Column)
	if err != nil {
		return 0, &csv.InvalidQueryError{Reason: "column identifier must be a number when searching by index"}
	}
	return i, nil
}

// RunQuery executes q against s.
func RunQuery[T any](s *csv.Searcher[T], q Query) ([]T, error) {
	switch q.Mode {
	case ModeName:
		return s.ByColumnName(q.Value, q.Column)
	case ModeIndex:
		i, err := q.index()
		if err != nil {
			return nil, err
		}
		return s.ByColumnIndex(q.Value, i)
	case ModeAll:
		return s.AllColumns(q.Value)
	}
	return nil, &csv.InvalidQueryError{Reason: "search type must be index, name or all"}
}
