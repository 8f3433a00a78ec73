package selection

import (
	"sort"

	"github.com/tokseq/ltsc/internal/config"
	"github.com/tokseq/ltsc/internal/discovery"
)

// density is the savings-density score from spec §4.3's greedy row:
// (length-1)*count / (length+count+overhead).
func density(c discovery.Candidate, overhead int) float64 {
	num := float64(c.Length-1) * float64(c.Count)
	den := float64(c.Length + c.Count + overhead)
	if den == 0 {
		return 0
	}
	return num / den
}

// selectGreedy sorts candidates by savings density descending (applying
// the priority multiplier from §4.3's "Priority hooks") and, for each
// candidate in order, accepts every occurrence not yet covered by an
// already-selected interval.
func selectGreedy(candidates []discovery.Candidate, cfg config.Config) []Occurrence {
	overhead := 1
	if cfg.DictLengthEnabled {
		overhead = 2
	}

	type scored struct {
		cand  discovery.Candidate
		score float64
	}
	scoredCands := make([]scored, len(candidates))
	for i, c := range candidates {
		scoredCands[i] = scored{cand: c, score: density(c, overhead) * (1 + cfg.PriorityAlpha*c.Priority)}
	}

	sort.SliceStable(scoredCands, func(i, j int) bool {
		a, b := scoredCands[i], scoredCands[j]
		if a.score != b.score {
			return a.score > b.score
		}
		return tieBreakLess(
			Occurrence{Length: a.cand.Length, Subsequence: a.cand.Subsequence, Start: a.cand.Positions[0]},
			Occurrence{Length: b.cand.Length, Subsequence: b.cand.Subsequence, Start: b.cand.Positions[0]},
			a.cand.Count, b.cand.Count,
		)
	})

	occupied := newIntervalSet()
	var selected []Occurrence
	for _, sc := range scoredCands {
		c := sc.cand
		for _, pos := range c.Positions {
			end := pos + c.Length
			if occupied.overlaps(pos, end) {
				continue
			}
			occupied.add(pos, end)
			selected = append(selected, Occurrence{
				Start:       pos,
				Length:      c.Length,
				Subsequence: c.Subsequence,
				Priority:    c.Priority,
			})
		}
	}
	return selected
}
