// Package util holds small generic helpers shared across the analysis
// pipeline: deterministic map iteration (relation emission must not depend
// on Go's randomized map order) and slice transforms for flattening typed
// rows into report output.
package util

import (
	"iter"
	"sort"
)

// TransformSlice applies converter to each element of in and returns the
// results in the same order.
func TransformSlice[T any, R any](in []T, converter func(T) R) []R {
	out := make([]R, len(in))
	for i, v := range in {
		out[i] = converter(v)
	}
	return out
}

// SortedKeys returns an iterator over m's entries in ascending key order, so
// that relation emission is reproducible across runs rather than depending
// on Go's randomized map order.
func SortedKeys[T any](m map[string]T) iter.Seq2[string, T] {
	return func(yield func(string, T) bool) {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			if !yield(k, m[k]) {
				return
			}
		}
	}
}
