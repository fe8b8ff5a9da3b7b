// Package perm generates index tuples for Cartesian and zipper expansion.
//
// A map expansion with properties of sizes [2, 3] produces the tuples
//
//	[0 0] [0 1] [0 2] [1 0] [1 1] [1 2]
//
// in odometer order: the last position varies fastest, so the first property
// forms the outer loop. Callers turn each tuple into one permutation by
// picking the indexed alternative of every property.
package perm

import (
	"iter"
	"math"
)

// Count returns the number of tuples in the Cartesian product of sizes, the
// product of all sizes. An empty sizes slice has exactly one (empty) tuple.
// Count saturates at math.MaxInt instead of overflowing.
func Count(sizes []int) int {
	total := 1
	for _, n := range sizes {
		if n <= 0 {
			return 0
		}
		if total > math.MaxInt/n {
			return math.MaxInt
		}
		total *= n
	}
	return total
}

// All yields every tuple of the Cartesian product of sizes in odometer order.
// The yielded slice is reused between iterations; clone it to keep it.
//
// If any size is zero there are no tuples. If sizes is empty a single empty
// tuple is yielded.
func All(sizes []int) iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		if Count(sizes) == 0 {
			return
		}
		tuple := make([]int, len(sizes))
		for {
			if !yield(tuple) {
				return
			}
			i := len(tuple) - 1
			for ; i >= 0; i-- {
				tuple[i]++
				if tuple[i] < sizes[i] {
					break
				}
				tuple[i] = 0
			}
			if i < 0 {
				return
			}
		}
	}
}

// Zip returns, for every position up to the longest size, the indices of the
// sources that have an element at that position. Zip([]int{2, 0, 3}) is
// [[0 2] [0 2] [2]]: sources are visited in order and short ones drop out.
func Zip(sizes []int) [][]int {
	longest := 0
	for _, n := range sizes {
		longest = max(longest, n)
	}
	result := make([][]int, longest)
	for pos := range result {
		for src, n := range sizes {
			if pos < n {
				result[pos] = append(result[pos], src)
			}
		}
	}
	return result
}
