package selection

import (
	"sort"

	"github.com/tokseq/ltsc/internal/config"
)

type beamState struct {
	score        float64
	lastEnd      int
	selected     []Occurrence
	subseqCounts map[string]int
}

func cloneCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// marginalSavings is the change in net savings from adding one more
// occurrence of a pattern with the given length, going from currentCount
// to currentCount+1 occurrences, per spec §4.3's beam row.
func marginalSavings(length, currentCount, overhead int) float64 {
	saving := func(count int) float64 {
		if count == 0 {
			return 0
		}
		s := length*count - (length + count + overhead)
		if s < 0 {
			return 0
		}
		return float64(s)
	}
	return saving(currentCount+1) - saving(currentCount)
}

// selectBeam maintains cfg.BeamWidth partial selections ordered by total
// savings, expanding by include/exclude at each occurrence and keeping the
// top-k states, per spec §4.3's beam row.
func selectBeam(occurrences []Occurrence, cfg config.Config) []Occurrence {
	if len(occurrences) == 0 {
		return nil
	}
	overhead := 1
	if cfg.DictLengthEnabled {
		overhead = 2
	}
	width := cfg.BeamWidth
	if width < 1 {
		width = 1
	}

	occs := make([]Occurrence, len(occurrences))
	copy(occs, occurrences)
	sort.SliceStable(occs, func(i, j int) bool {
		if occs[i].Start != occs[j].Start {
			return occs[i].Start < occs[j].Start
		}
		return occs[i].Length < occs[j].Length
	})

	states := []beamState{{score: 0, lastEnd: -1, subseqCounts: map[string]int{}}}

	for _, occ := range occs {
		next := make([]beamState, 0, len(states)*2)
		for _, st := range states {
			// Option 1: skip.
			next = append(next, st)

			// Option 2: take, if non-overlapping.
			if occ.Start >= st.lastEnd {
				key := patternKey(occ.Subsequence)
				current := st.subseqCounts[key]
				marginal := marginalSavings(occ.Length, current, overhead)
				newCounts := cloneCounts(st.subseqCounts)
				newCounts[key] = current + 1
				newSelected := make([]Occurrence, len(st.selected)+1)
				copy(newSelected, st.selected)
				newSelected[len(st.selected)] = occ
				next = append(next, beamState{
					score:        st.score + marginal + occ.Priority*cfg.PriorityAlpha*0.5,
					lastEnd:      occ.end(),
					selected:     newSelected,
					subseqCounts: newCounts,
				})
			}
		}

		sort.SliceStable(next, func(i, j int) bool {
			if next[i].score != next[j].score {
				return next[i].score > next[j].score
			}
			// Equal savings: prefer the state holding more occurrences, so
			// early takes whose marginal saving is still zero survive pruning.
			if len(next[i].selected) != len(next[j].selected) {
				return len(next[i].selected) > len(next[j].selected)
			}
			return next[i].lastEnd < next[j].lastEnd
		})
		if len(next) > width {
			next = next[:width]
		}
		states = next
	}

	sort.SliceStable(states, func(i, j int) bool { return states[i].score > states[j].score })
	return states[0].selected
}
