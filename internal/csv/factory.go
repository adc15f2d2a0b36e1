package csv

// RowFactory converts one raw row into a value of type T.
//
// Implementations must be stateless or safe for concurrent use when a single
// factory is shared by tables searched from several goroutines.
type RowFactory[T any] interface {
	Create(row []string) (T, error)
}

// FactoryFunc adapts an ordinary function to RowFactory.
type FactoryFunc[T any] func(row []string) (T, error)

// Create calls f(row).
func (f FactoryFunc[T]) Create(row []string) (T, error) {
	return f(row)
}

// Identity returns a factory whose objects are the rows themselves.
// Each object is a copy, so callers may keep or modify it freely.
func Identity() RowFactory[[]string] {
	return FactoryFunc[[]string](func(row []string) ([]string, error) {
		return append(make([]string, 0, len(row)), row...), nil
	})
}

// Render returns a factory that formats a row for display as "[a, b, c]".
func Render() RowFactory[string] {
	return FactoryFunc[string](func(row []string) (string, error) {
		return formatRow(row), nil
	})
}
