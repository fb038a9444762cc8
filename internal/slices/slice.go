package slices

// Shrink trims the capacity of a to its length so appends by a caller never
// write into a shared backing array.
func Shrink[T any](a []T) []T {
	if cap(a) == len(a) {
		return a
	}
	return append(make([]T, 0, len(a)), a...)
}
