// Package suffixarray builds suffix arrays and LCP arrays over arbitrary
// uint32 token sequences.
//
// Go's standard library ships index/suffixarray, but it operates on byte
// slices and strings only — it cannot index a sequence of 32-bit token IDs
// without a lossy byte-projection, and none of the third-party packages
// pulled into this module's dependency graph provide a generic suffix
// array either. This package is therefore hand-rolled; see DESIGN.md.
package suffixarray

import "sort"

// Index holds a suffix array and its LCP array over a fixed token
// sequence. Both are permutations/derived arrays of length len(tokens);
// SA[i] is the starting position of the i-th suffix in lexicographic
// order, and LCP[i] is the length of the longest common prefix between the
// suffixes at SA[i-1] and SA[i] (LCP[0] is always 0).
type Index struct {
	tokens []uint32
	SA     []int
	LCP    []int
	// isa is the inverse suffix array: isa[SA[i]] == i. Used by Kasai's
	// algorithm and retained for LCPIntervals-adjacent lookups.
	isa []int
}

// Tokens returns the sequence this index was built over.
func (idx *Index) Tokens() []uint32 { return idx.tokens }

// Build constructs a suffix array and LCP array for tokens using
// prefix-doubling (O(n log n)) followed by Kasai's algorithm (O(n)) for
// the LCP array, per spec §4.1.
func Build(tokens []uint32) *Index {
	n := len(tokens)
	idx := &Index{tokens: tokens, SA: make([]int, n), LCP: make([]int, n), isa: make([]int, n)}
	if n == 0 {
		return idx
	}
	if n == 1 {
		idx.SA[0] = 0
		idx.LCP[0] = 0
		idx.isa[0] = 0
		return idx
	}

	sa := prefixDoublingSA(tokens)
	idx.SA = sa
	isa := make([]int, n)
	for i, s := range sa {
		isa[s] = i
	}
	idx.isa = isa
	idx.LCP = kasaiLCP(tokens, sa, isa)
	return idx
}

// prefixDoublingSA implements the classic rank-doubling suffix array
// construction: initial ranks come from sorting single tokens, then at
// each round suffixes are ordered by the pair (rank[i], rank[i+k]) with k
// doubling every round until it exceeds n.
func prefixDoublingSA(tokens []uint32) []int {
	n := len(tokens)
	sa := make([]int, n)
	rank := make([]int64, n)
	tmp := make([]int64, n)

	// Initial ranks: order by token value directly. Using the full 32-bit
	// value (no modular reduction), per spec §4.1 "Large tokens" edge
	// case.
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return tokens[order[i]] < tokens[order[j]] })
	rank[order[0]] = 0
	for i := 1; i < n; i++ {
		r := rank[order[i-1]]
		if tokens[order[i]] != tokens[order[i-1]] {
			r++
		}
		rank[order[i]] = r
	}
	copy(sa, order)

	for k := 1; k < n; k <<= 1 {
		keyAt := func(i, offset int) int64 {
			j := i + offset
			if j >= n {
				return -1
			}
			return rank[j] + 1
		}
		sort.Slice(sa, func(i, j int) bool {
			a, b := sa[i], sa[j]
			if rank[a] != rank[b] {
				return rank[a] < rank[b]
			}
			return keyAt(a, k) < keyAt(b, k)
		})

		tmp[sa[0]] = 0
		for i := 1; i < n; i++ {
			prev, cur := sa[i-1], sa[i]
			same := rank[prev] == rank[cur] && keyAt(prev, k) == keyAt(cur, k)
			if same {
				tmp[cur] = tmp[prev]
			} else {
				tmp[cur] = tmp[prev] + 1
			}
		}
		copy(rank, tmp)

		if rank[sa[n-1]] == int64(n-1) {
			break
		}
	}
	return sa
}

// kasaiLCP computes the LCP array from a token sequence, its suffix array,
// and inverse suffix array in O(n).
func kasaiLCP(tokens []uint32, sa, isa []int) []int {
	n := len(tokens)
	lcp := make([]int, n)
	h := 0
	for i := 0; i < n; i++ {
		if isa[i] == 0 {
			h = 0
			continue
		}
		j := sa[isa[i]-1]
		for i+h < n && j+h < n && tokens[i+h] == tokens[j+h] {
			h++
		}
		lcp[isa[i]] = h
		if h > 0 {
			h--
		}
	}
	return lcp
}

// Interval names a maximal run of consecutive suffix-array positions
// [Start, End] all sharing a common prefix of length at least LCPLen —
// the grouping discovery walks per spec §4.2.
type Interval struct {
	Start, End int
	LCPLen     int
}

// LCPIntervals returns every maximal run where LCP[i] >= minLen, for i in
// (Start, End]. Each run identifies a group of suffixes (size End-Start+1)
// that share a prefix of length at least minLen. Mirrors the retrieved
// Python reference's lcp_intervals helper (small/discovery_sa.py).
func (idx *Index) LCPIntervals(minLen int) []Interval {
	n := len(idx.SA)
	var out []Interval
	i := 1
	for i < n {
		if idx.LCP[i] < minLen {
			i++
			continue
		}
		start := i - 1
		minRun := idx.LCP[i]
		j := i
		for j < n && idx.LCP[j] >= minLen {
			if idx.LCP[j] < minRun {
				minRun = idx.LCP[j]
			}
			j++
		}
		out = append(out, Interval{Start: start, End: j - 1, LCPLen: minRun})
		i = j
	}
	return out
}
