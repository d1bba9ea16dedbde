package optimizer

import (
	"sort"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// subsetsOfSize enumerates every size-k subset of {0..n-1}, the
// classic Selinger enumeration order: the DP prices all subsets of
// size k before any of size k+1, so every sub-plan a subset extends is
// already cached.
func subsetsOfSize(n, k int) []mapset.Set[int] {
	var out []mapset.Set[int]
	var build func(start int, current []int)
	build = func(start int, current []int) {
		if len(current) == k {
			out = append(out, mapset.NewSet[int](current...))
			return
		}
		for i := start; i <= n-(k-len(current)); i++ {
			build(i+1, append(current, i))
		}
	}
	build(0, nil)
	return out
}

// sortedSlice returns the subset's members in ascending order so
// iteration order, and with it tie-breaking, is deterministic.
func sortedSlice(s mapset.Set[int]) []int {
	out := s.ToSlice()
	sort.Ints(out)
	return out
}

// subsetKey is the canonical cache key of a subset.
func subsetKey(s mapset.Set[int]) string {
	members := sortedSlice(s)
	parts := make([]string, len(members))
	for i, m := range members {
		parts[i] = strconv.Itoa(m)
	}
	return strings.Join(parts, ",")
}
