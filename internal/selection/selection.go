// Package selection implements the four candidate-selection strategies
// from spec §4.3 as a dispatched sum type (per spec §9's "Polymorphic
// selection strategy" design note): Greedy, Optimal, Beam, and Ilp.
package selection

import (
	"sort"

	"github.com/tokseq/ltsc/internal/config"
	"github.com/tokseq/ltsc/internal/discovery"
	"github.com/tokseq/ltsc/internal/metrics"
	"github.com/tokseq/ltsc/internal/token"
)

// Occurrence is a single (start, length) placement of a pattern chosen for
// replacement, tagged with the subsequence it belongs to so the serializer
// can group occurrences back into dictionary entries.
type Occurrence struct {
	Start       int
	Length      int
	Subsequence token.Sequence
	Priority    float64
}

func (o Occurrence) end() int { return o.Start + o.Length }

// Result is the output of Select: a set of pairwise non-overlapping
// occurrences, each belonging to exactly one candidate, per spec §4.3.
type Result struct {
	Selected []Occurrence
	// PatternOrder lists each distinct selected pattern in the order the
	// strategy first accepted an occurrence of it (after tie-breaking,
	// before the final sort by start position). The serializer allocates
	// meta-tokens in this order, per spec §4.4 ("assigned in selection
	// order after tie-breaking — not in discovery order").
	PatternOrder []token.Sequence
}

// Solver is the optional external ILP solver hook named in spec §4.3's
// mode table. This module fabricates no optimization dependency (none is
// present anywhere in the retrieved corpus); with Solver unset, Ilp mode
// degrades to Optimal, exactly as spec §6 requires.
type Solver interface {
	Solve(occurrences []Occurrence, weights []float64) (chosen []int, ok bool)
}

// Select dispatches to the strategy named by cfg.SelectionMode. The
// tie-break rules of tieBreakLess are applied only by greedy mode, when it
// orders candidates of equal density; optimal, beam and ilp do not call
// tieBreakLess and settle ties through their own ordering.
func Select(candidates []discovery.Candidate, cfg config.Config, solver Solver) Result {
	occurrences := buildOccurrences(candidates)
	if len(occurrences) == 0 {
		return Result{}
	}

	var selected []Occurrence
	switch cfg.SelectionMode {
	case config.SelectionOptimal:
		selected = selectOptimal(occurrences, cfg)
	case config.SelectionBeam:
		selected = selectBeam(occurrences, cfg)
	case config.SelectionILP:
		if solver != nil {
			weights := make([]float64, len(occurrences))
			for i, occ := range occurrences {
				weights[i] = float64(occ.Length-1) + occ.Priority*cfg.PriorityAlpha
			}
			if chosen, ok := solver.Solve(occurrences, weights); ok {
				selected = pickNonOverlapping(occurrences, chosen)
				break
			}
		}
		// No solver supplied, or it declined: ilp degrades to optimal,
		// per spec §6.
		metrics.Get().SolverDegradedTotal.Inc()
		selected = selectOptimal(occurrences, cfg)
	default:
		selected = selectGreedy(candidates, cfg)
	}

	selected = enforceCompressibility(selected, cfg)

	order := patternOrder(selected)

	sort.SliceStable(selected, func(i, j int) bool { return selected[i].Start < selected[j].Start })
	return Result{Selected: selected, PatternOrder: order}
}

// patternOrder derives each distinct pattern's first-appearance order in
// occs, which is in the strategy's own acceptance order since occs has not
// yet been re-sorted by start position.
func patternOrder(occs []Occurrence) []token.Sequence {
	seen := make(map[string]bool, len(occs))
	var order []token.Sequence
	for _, occ := range occs {
		k := patternKey(occ.Subsequence)
		if !seen[k] {
			seen[k] = true
			order = append(order, occ.Subsequence)
		}
	}
	return order
}

func buildOccurrences(candidates []discovery.Candidate) []Occurrence {
	var occs []Occurrence
	for _, c := range candidates {
		for _, pos := range c.Positions {
			occs = append(occs, Occurrence{
				Start:       pos,
				Length:      c.Length,
				Subsequence: c.Subsequence,
				Priority:    c.Priority,
			})
		}
	}
	return occs
}

func pickNonOverlapping(all []Occurrence, chosenIdx []int) []Occurrence {
	idxSet := make(map[int]bool, len(chosenIdx))
	for _, i := range chosenIdx {
		idxSet[i] = true
	}
	occupied := newIntervalSet()
	var out []Occurrence
	for i, occ := range all {
		if !idxSet[i] {
			continue
		}
		if occupied.overlaps(occ.Start, occ.end()) {
			continue
		}
		occupied.add(occ.Start, occ.end())
		out = append(out, occ)
	}
	return out
}

// enforceCompressibility groups a selection by subsequence and drops any
// group that fails the compressibility constraint once the final
// non-overlapping count is known — a pattern that looked promising before
// overlap resolution can still end up with too few surviving occurrences.
func enforceCompressibility(selected []Occurrence, cfg config.Config) []Occurrence {
	overhead := 1
	if cfg.DictLengthEnabled {
		overhead = 2
	}
	counts := make(map[string]int)
	keys := make(map[int]string, len(selected))
	for i, occ := range selected {
		k := patternKey(occ.Subsequence)
		keys[i] = k
		counts[k]++
	}
	var out []Occurrence
	for i, occ := range selected {
		k := keys[i]
		length := occ.Length
		count := counts[k]
		if length*count > length+count+overhead {
			out = append(out, occ)
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

// tieBreakLess implements spec §4.3's uniform tie-break rules: prefer (1)
// longer pattern, (2) higher occurrence count, (3) lex-smaller pattern
// contents, (4) smaller first occurrence position.
func tieBreakLess(a, b Occurrence, countA, countB int) bool {
	if a.Length != b.Length {
		return a.Length > b.Length
	}
	if countA != countB {
		return countA > countB
	}
	if cmp := lexCompare(a.Subsequence, b.Subsequence); cmp != 0 {
		return cmp < 0
	}
	return a.Start < b.Start
}

func lexCompare(a, b token.Sequence) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}
