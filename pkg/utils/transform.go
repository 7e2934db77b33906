package utils

import "strings"

// LowerAddress normalizes a hex address for use as a map/persistence key.
func LowerAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

func Dedup(in []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, e := range in {
		e = strings.TrimRight(e, "/")
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}

// Chunk splits xs into consecutive slices of at most size elements.
// Order is preserved; size <= 0 yields a single chunk.
func Chunk[T any](xs []T, size int) [][]T {
	if size <= 0 || len(xs) <= size {
		return [][]T{xs}
	}
	out := make([][]T, 0, (len(xs)+size-1)/size)
	for start := 0; start < len(xs); start += size {
		end := start + size
		if end > len(xs) {
			end = len(xs)
		}
		out = append(out, xs[start:end])
	}
	return out
}
