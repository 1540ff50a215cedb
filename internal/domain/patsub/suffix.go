package patsub

import (
	"cmp"
	"slices"
	"strings"
)

// sortSuffixes fills sa with the offsets 0..len(src)-1 ordered by the
// unbounded byte-lexicographic order of src[off:]. A suffix that ends sorts
// before any byte, which matches strings.Compare.
//
// Suffixes are ranked by prefix doubling so that highly repetitive input
// does not degrade into quadratic string comparisons. rank and tmp are
// scratch space of the same length as sa.
func sortSuffixes(src string, sa, rank, tmp []int) {
	n := len(src)
	if n == 0 {
		return
	}
	for i := 0; i < n; i++ {
		sa[i] = i
		rank[i] = int(src[i])
	}

	for k := 1; ; k <<= 1 {
		second := func(i int) int {
			if i+k < n {
				return rank[i+k]
			}
			return -1
		}
		order := func(a, b int) int {
			if c := cmp.Compare(rank[a], rank[b]); c != 0 {
				return c
			}
			return cmp.Compare(second(a), second(b))
		}
		slices.SortFunc(sa, order)

		tmp[sa[0]] = 0
		for i := 1; i < n; i++ {
			tmp[sa[i]] = tmp[sa[i-1]]
			if order(sa[i-1], sa[i]) < 0 {
				tmp[sa[i]]++
			}
		}
		copy(rank, tmp)

		if rank[sa[n-1]] == n-1 || k >= n {
			return
		}
	}
}

// compare is the bounded comparison of a pattern name against a suffix.
// Only the first len(name) bytes of the suffix take part; a suffix that ends
// before that sorts before the name. Zero means name is a prefix of suffix.
func compare(name, suffix string) int {
	if len(suffix) >= len(name) {
		return strings.Compare(name, suffix[:len(name)])
	}
	if c := strings.Compare(name[:len(suffix)], suffix); c != 0 {
		return c
	}
	return 1
}
