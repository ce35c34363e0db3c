// internal/sliceutil.go
//
//
//   • Pure – no side effects.
//   • Safe – never modify the input slice in-place.
//   • Generic – work with any comparable / ordered type.
//   • Allocation-friendly – minimal copies.
// ----------------------------------------------------------------------------

package internal

import "golang.org/x/exp/constraints"

// ---------------------------------------------------------------------
// Basic predicates / membership
// ---------------------------------------------------------------------

// Contains reports whether v E xs (O(n)).
func Contains[T comparable](xs []T, v T) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------
// Transformations
// ---------------------------------------------------------------------

// Map applies f to each element and returns a new slice.
func Map[A any, B any](xs []A, f func(A) B) []B {
	out := make([]B, len(xs))
	for i, x := range xs {
		out[i] = f(x)
	}
	return out
}

// Filter keeps values where pred(x) == true.
func Filter[T any](xs []T, pred func(T) bool) []T {
	out := make([]T, 0, len(xs))
	for _, x := range xs {
		if pred(x) {
			out = append(out, x)
		}
	}
	return out
}

// Reduce folds xs into an accumulator acc with f.
func Reduce[T any, R any](xs []T, acc R, f func(R, T) R) R {
	for _, x := range xs {
		acc = f(acc, x)
	}
	return acc
}

// ---------------------------------------------------------------------
// Set-like helpers (require comparable)
// ---------------------------------------------------------------------

// Unique dedups while preserving first-seen order.
func Unique[T comparable](xs []T) []T {
	seen := make(map[T]struct{}, len(xs))
	out := make([]T, 0, len(xs))
	for _, x := range xs {
		if _, ok := seen[x]; !ok {
			seen[x] = struct{}{}
			out = append(out, x)
		}
	}
	return out
}

// ---------------------------------------------------------------------
// Chunking
// ---------------------------------------------------------------------

// Chunk splits xs into sub-slices of size =< n.
func Chunk[T any](xs []T, n int) [][]T {
	if n <= 0 {
		return nil
	}
	var out [][]T
	for i := 0; i < len(xs); i += n {
		end := i + n
		if end > len(xs) {
			end = len(xs)
		}
		out = append(out, xs[i:end])
	}
	return out
}

// ---------------------------------------------------------------------
// Numeric helpers (ordered constraint: ints, floats, strings, …)
// ---------------------------------------------------------------------

// Min returns the smallest element. Panics on empty slice.
func Min[T constraints.Ordered](xs []T) T {
	if len(xs) == 0 {
		panic("sliceutil.Min: empty slice")
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

// Max returns the largest element. Panics on empty slice.
func Max[T constraints.Ordered](xs []T) T {
	if len(xs) == 0 {
		panic("sliceutil.Max: empty slice")
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

// Sum accumulates numeric values (int, float…).
func Sum[T constraints.Integer | constraints.Float](xs []T) T {
	var total T
	for _, x := range xs {
		total += x
	}
	return total
}
