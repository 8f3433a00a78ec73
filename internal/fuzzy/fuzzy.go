// Package fuzzy implements the optional near-duplicate discovery extension
// from SPEC_FULL.md §4.9: candidates whose occurrences sit within a bounded
// Hamming distance of a canonical form are grouped under one dictionary
// entry, with each non-canonical occurrence carrying an inline patch list.
// Nothing in the retrieved corpus implements approximate matching over
// token streams, so this stage is built from scratch on top of
// internal/suffixarray's exact-match primitives, run as a discovery stage
// ahead of exact suffix-array discovery (mirroring the pre-distillation
// reference's FuzzyDiscoveryStage ordering).
package fuzzy

import (
	"sort"

	"github.com/tokseq/ltsc/internal/config"
	"github.com/tokseq/ltsc/internal/suffixarray"
	"github.com/tokseq/ltsc/internal/token"
)

// Occurrence is one placement of a fuzzy candidate: an exact occurrence has
// an empty Patches list, a near-duplicate carries the corrections needed to
// turn Canonical into the actual tokens found at Start.
type Occurrence struct {
	Start   int
	Patches []token.Patch
}

// Candidate is a canonical pattern plus every occurrence (exact or patched)
// found within cfg.FuzzyMaxHamming of it.
type Candidate struct {
	Canonical   token.Sequence
	Length      int
	Occurrences []Occurrence
}

// Discover finds fuzzy candidates by seeding canonical forms from exact
// suffix-array matches at cfg.FuzzyMinBaseLength and then scanning the full
// token buffer for windows of the same length within cfg.FuzzyMaxHamming
// Hamming distance, per §4.9.
func Discover(tokens token.Sequence, cfg config.Config) []Candidate {
	if !cfg.FuzzyEnabled || len(tokens) == 0 {
		return nil
	}
	minLen := cfg.FuzzyMinBaseLength
	if minLen < 1 {
		minLen = 1
	}
	maxLen := cfg.MaxSubsequenceLength
	if maxLen < minLen {
		maxLen = minLen
	}

	idx := suffixarray.Build(tokens)
	seeds := seedCanonicals(tokens, idx, minLen, maxLen)

	seen := make(map[string]bool, len(seeds))
	var candidates []Candidate
	for _, canon := range seeds {
		key := patternKey(canon)
		if seen[key] {
			continue
		}
		seen[key] = true

		occs := scanWithinHamming(tokens, canon, cfg.FuzzyMaxHamming)
		occs = filterNonOverlapping(occs, len(canon))
		if !worthCompressing(canon, occs) {
			continue
		}
		candidates = append(candidates, Candidate{
			Canonical:   canon,
			Length:      len(canon),
			Occurrences: occs,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i].Occurrences) > len(candidates[j].Occurrences)
	})
	return candidates
}

// seedCanonicals takes one canonical form per LCP interval at minLen,
// capped at maxLen, the same way discovery.discoverWithIndex seeds exact
// patterns — fuzzy discovery only needs a representative shape per run to
// then search for its near-duplicates.
func seedCanonicals(tokens token.Sequence, idx *suffixarray.Index, minLen, maxLen int) []token.Sequence {
	var out []token.Sequence
	for _, iv := range idx.LCPIntervals(minLen) {
		length := iv.LCPLen
		if length > maxLen {
			length = maxLen
		}
		start := idx.SA[iv.Start]
		if start+length > len(tokens) {
			continue
		}
		out = append(out, token.Clone(tokens[start:start+length]))
	}
	return out
}

// scanWithinHamming does a brute-force scan for every window of len(canon)
// tokens whose Hamming distance to canon is within maxHamming. The fuzzy
// extension operates on top of a heavily-pruned suffix-array seed set (only
// one canonical per LCP interval), so this stays a small number of scans
// over the buffer rather than one scan per raw candidate.
func scanWithinHamming(tokens, canon token.Sequence, maxHamming int) []Occurrence {
	length := len(canon)
	if length == 0 || length > len(tokens) {
		return nil
	}
	var occs []Occurrence
	for start := 0; start+length <= len(tokens); start++ {
		var patches []token.Patch
		mismatches := 0
		for i := 0; i < length; i++ {
			if tokens[start+i] != canon[i] {
				mismatches++
				if mismatches > maxHamming {
					break
				}
				patches = append(patches, token.Patch{Offset: i, Replacement: tokens[start+i]})
			}
		}
		if mismatches <= maxHamming {
			occs = append(occs, Occurrence{Start: start, Patches: patches})
		}
	}
	return occs
}

// filterNonOverlapping keeps occurrences left-to-right, preferring exact
// matches over patched ones at the same start, matching the
// exact-discovery module's greedy non-overlap resolution.
func filterNonOverlapping(occs []Occurrence, length int) []Occurrence {
	sort.SliceStable(occs, func(i, j int) bool {
		if occs[i].Start != occs[j].Start {
			return occs[i].Start < occs[j].Start
		}
		return len(occs[i].Patches) < len(occs[j].Patches)
	})
	var out []Occurrence
	nextFree := -1
	for _, o := range occs {
		if o.Start >= nextFree {
			out = append(out, o)
			nextFree = o.Start + length
		}
	}
	return out
}

// worthCompressing applies a fuzzy-specific compressibility test: an exact
// occurrence costs 1 wire token (the meta-token), a patched occurrence
// costs 3 (marker, meta, count) plus 2 per patch.
func worthCompressing(canon token.Sequence, occs []Occurrence) bool {
	if len(occs) < 2 {
		return false
	}
	length := len(canon)
	dictCost := length + 2
	saved := 0
	for _, o := range occs {
		occCost := 1
		if len(o.Patches) > 0 {
			occCost = 3 + 2*len(o.Patches)
		}
		saved += length - occCost
	}
	return saved > dictCost
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
