package perm

import (
	"fmt"
	"math"
	"slices"
	"testing"
)

func TestCount(t *testing.T) {
	tests := []struct {
		sizes []int
		want  int
	}{
		{nil, 1},
		{[]int{3}, 3},
		{[]int{2, 2}, 4},
		{[]int{2, 3, 4}, 24},
		{[]int{2, 0, 4}, 0},
		{[]int{math.MaxInt / 2, 3}, math.MaxInt},
	}
	for _, tt := range tests {
		if got := Count(tt.sizes); got != tt.want {
			t.Errorf("Count(%v) = %d, want %d", tt.sizes, got, tt.want)
		}
	}
}

// collect clones every tuple yielded by All.
func collect(sizes []int) [][]int {
	var out [][]int
	for tuple := range All(sizes) {
		out = append(out, slices.Clone(tuple))
	}
	return out
}

func TestAll(t *testing.T) {
	tests := []struct {
		sizes []int
		want  string
	}{
		{nil, "[[]]"},
		{[]int{2}, "[[0] [1]]"},
		{[]int{2, 2}, "[[0 0] [0 1] [1 0] [1 1]]"},
		{[]int{1, 3}, "[[0 0] [0 1] [0 2]]"},
		{[]int{2, 0}, "[]"},
	}
	for _, tt := range tests {
		got := collect(tt.sizes)
		if got == nil {
			got = [][]int{}
		}
		if s := fmt.Sprint(got); s != tt.want {
			t.Errorf("All(%v) = %s, want %s", tt.sizes, s, tt.want)
		}
	}
}

func TestAllSizeLaw(t *testing.T) {
	sizes := []int{3, 1, 4, 2}
	tuples := collect(sizes)
	if len(tuples) != Count(sizes) {
		t.Fatalf("len = %d, want %d", len(tuples), Count(sizes))
	}
	seen := make(map[string]bool)
	for _, tuple := range tuples {
		key := fmt.Sprint(tuple)
		if seen[key] {
			t.Errorf("duplicate tuple %s", key)
		}
		seen[key] = true
		for i, idx := range tuple {
			if idx < 0 || idx >= sizes[i] {
				t.Errorf("tuple %s out of range at %d", key, i)
			}
		}
	}
}

func TestAllStopsEarly(t *testing.T) {
	n := 0
	for range All([]int{10, 10}) {
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 {
		t.Errorf("iterations = %d, want 3", n)
	}
}

func TestZip(t *testing.T) {
	tests := []struct {
		sizes []int
		want  string
	}{
		{nil, "[]"},
		{[]int{2, 2}, "[[0 1] [0 1]]"},
		{[]int{2, 0, 3}, "[[0 2] [0 2] [2]]"},
		{[]int{0, 0}, "[]"},
	}
	for _, tt := range tests {
		if got := fmt.Sprint(Zip(tt.sizes)); got != tt.want {
			t.Errorf("Zip(%v) = %s, want %s", tt.sizes, got, tt.want)
		}
	}
}
