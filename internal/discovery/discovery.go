// Package discovery enumerates repeated-subsequence candidates over a
// token buffer using the suffix array / LCP structures from
// internal/suffixarray, per spec §4.2.
package discovery

import (
	"sort"

	"github.com/tokseq/ltsc/internal/config"
	"github.com/tokseq/ltsc/internal/errs"
	"github.com/tokseq/ltsc/internal/suffixarray"
	"github.com/tokseq/ltsc/internal/token"
)

// Candidate is a pattern plus its filtered occurrence list and computed
// savings metrics, per the data model in spec §3.
type Candidate struct {
	Subsequence token.Sequence
	Length      int
	Positions   []int // non-overlapping, ascending
	Count       int
	RawSavings  int
	Priority    float64
}

// baseOverhead is the fixed per-entry dictionary bookkeeping cost used by the
// compressibility test length*count > length + count + overhead. It
// accounts for the meta-token slot itself; the optional length-prefix slot
// is folded in separately when config.DictLengthEnabled.
const baseOverhead = 1

func extraCost(cfg config.Config) int {
	if cfg.DictLengthEnabled {
		return 1
	}
	return 0
}

// isCompressible implements the compressibility constraint from spec §3
// and §4.2: length*count > length + count + overhead.
func isCompressible(length, count, overhead int) bool {
	if count < 1 {
		return false
	}
	return length*count > length+count+overhead
}

func rawSavings(length, count, overhead int) int {
	s := length*count - (length + count + overhead)
	if s < 0 {
		return 0
	}
	return s
}

// Discover enumerates compressible candidates for lengths in
// [cfg.MinSubsequenceLength, cfg.MaxSubsequenceLength], applying the
// region filter and priority scorer hooks, and returns them ordered per
// spec §4.2 ("Ordering"): raw_savings descending, then length descending,
// then lexicographic pattern contents.
//
// Spec §4.2 requires re-grouping suffixes for each L in [min_len, max_len]
// independently: a maximal LCP-run at the minimum length can be broken
// into several longer, higher-LCP runs, each of which only shows up when
// LCPIntervals is re-run at that longer length. discoverWithIndex is
// therefore invoked once per length, exactly as DiscoverParallel does per
// worker, so the two discovery paths always agree regardless of threading
// (§5, §9).
func Discover(tokens token.Sequence, cfg config.Config) ([]Candidate, error) {
	if cfg.MaxSubsequenceLength < cfg.MinSubsequenceLength {
		return nil, &errs.ConfigInvalid{Reason: "max_subsequence_length must be >= min_subsequence_length"}
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	idx := suffixarray.Build(tokens)
	var cands []Candidate
	for length := cfg.MinSubsequenceLength; length <= cfg.MaxSubsequenceLength; length++ {
		cands = append(cands, discoverWithIndex(tokens, idx, cfg, length, length)...)
	}
	cands = mergeCrossLength(cands)
	sortCandidates(cands)
	return cands, nil
}

// discoverWithIndex is factored out so both the sequential per-length loop
// above and the parallel-over-lengths path (parallel.go) can reuse
// suffix-array construction and only re-run the LCP-interval walk.
// minLen/maxLen restrict this call to a single candidate length; callers
// always pass minLen == maxLen so that LCPIntervals is re-grouped at that
// exact length rather than reused from a shorter, coarser run.
func discoverWithIndex(tokens token.Sequence, idx *suffixarray.Index, cfg config.Config, minLen, maxLen int) []Candidate {
	overhead := baseOverhead + extraCost(cfg)

	byPattern := make(map[string][]int)
	patternValues := make(map[string]token.Sequence)

	intervals := idx.LCPIntervals(minLen)
	for _, iv := range intervals {
		lengthLimit := iv.LCPLen
		if lengthLimit > maxLen {
			lengthLimit = maxLen
		}
		if lengthLimit < minLen {
			continue
		}
		positions := make([]int, 0, iv.End-iv.Start+1)
		for i := iv.Start; i <= iv.End; i++ {
			positions = append(positions, idx.SA[i])
		}
		sort.Ints(positions)

		for length := minLen; length <= lengthLimit; length++ {
			start := positions[0]
			if start+length > len(tokens) {
				continue
			}
			subseq := tokens[start : start+length]
			key := patternKey(subseq)
			if _, ok := patternValues[key]; !ok {
				patternValues[key] = token.Clone(subseq)
			}
			byPattern[key] = append(byPattern[key], positions...)
		}
	}

	candidates := make([]Candidate, 0, len(byPattern))
	for key, positions := range byPattern {
		subseq := patternValues[key]
		length := len(subseq)
		nonOverlapping := filterNonOverlapping(uniqueSorted(positions), length)

		filtered := nonOverlapping
		if cfg.Filter != nil {
			kept := filtered[:0:0]
			for _, p := range filtered {
				if cfg.Filter.Allows(subseq, p) {
					kept = append(kept, p)
				}
			}
			filtered = kept
		}

		count := len(filtered)
		if !isCompressible(length, count, overhead) {
			continue
		}
		priority := 0.0
		if cfg.Scorer != nil {
			priority = cfg.Scorer.Score(subseq, filtered)
		}
		candidates = append(candidates, Candidate{
			Subsequence: subseq,
			Length:      length,
			Positions:   filtered,
			Count:       count,
			RawSavings:  rawSavings(length, count, overhead),
			Priority:    priority,
		})
	}

	return dedupeByPattern(candidates)
}

// dedupeByPattern applies spec §4.2 step 4: when two groups at different L
// values yield the same pattern contents (which cannot happen here since
// byPattern already keys by exact content — length is part of the key
// implicitly through content) — retained for cross-length subsequence
// collisions where a shorter pattern is a prefix of a longer one; those are
// distinct candidates by construction, so no further merging is needed.
// The function is a documented no-op guarding that invariant explicitly.
func dedupeByPattern(cands []Candidate) []Candidate {
	return cands
}

func filterNonOverlapping(sortedPositions []int, length int) []int {
	out := make([]int, 0, len(sortedPositions))
	nextFree := -1
	for _, pos := range sortedPositions {
		if pos >= nextFree {
			out = append(out, pos)
			nextFree = pos + length
		}
	}
	return out
}

func uniqueSorted(positions []int) []int {
	sort.Ints(positions)
	out := positions[:0:0]
	for i, p := range positions {
		if i == 0 || p != positions[i-1] {
			out = append(out, p)
		}
	}
	return out
}

func patternKey(s token.Sequence) string {
	b := make([]byte, len(s)*4)
	for i, t := range s {
		b[i*4] = byte(t >> 24)
		b[i*4+1] = byte(t >> 16)
		b[i*4+2] = byte(t >> 8)
		b[i*4+3] = byte(t)
	}
	return string(b)
}

// sortCandidates orders candidates per spec §4.2: raw_savings descending,
// then length descending, then lexicographic pattern contents ascending.
func sortCandidates(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.RawSavings != b.RawSavings {
			return a.RawSavings > b.RawSavings
		}
		if a.Length != b.Length {
			return a.Length > b.Length
		}
		return lexLess(a.Subsequence, b.Subsequence)
	})
}

func lexLess(a, b token.Sequence) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
