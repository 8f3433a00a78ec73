package selection

import (
	"sort"

	"github.com/tokseq/ltsc/internal/config"
)

// selectOptimal solves weighted interval scheduling over occurrences: each
// occurrence is an interval [start, start+length) with weight (length-1)
// minus an amortized share of its pattern's dictionary cost, per spec
// §4.3's optimal row. Sorted by end position; DP with predecessor binary
// search runs in O(m log m).
func selectOptimal(occurrences []Occurrence, cfg config.Config) []Occurrence {
	if len(occurrences) == 0 {
		return nil
	}
	overhead := 1
	if cfg.DictLengthEnabled {
		overhead = 2
	}

	occs := make([]Occurrence, len(occurrences))
	copy(occs, occurrences)
	sort.SliceStable(occs, func(i, j int) bool {
		ei, ej := occs[i].end(), occs[j].end()
		if ei != ej {
			return ei < ej
		}
		return occs[i].Start < occs[j].Start
	})

	n := len(occs)
	ends := make([]int, n)
	for i, o := range occs {
		ends[i] = o.end()
	}

	totalBySubseq := make(map[string]int, n)
	for _, o := range occs {
		totalBySubseq[patternKey(o.Subsequence)]++
	}

	weights := make([]float64, n)
	for i, o := range occs {
		total := totalBySubseq[patternKey(o.Subsequence)]
		dictCostPerOcc := float64(1+o.Length+overhead-1) / float64(total)
		savings := float64(o.Length-1) - dictCostPerOcc
		if savings < 0 {
			savings = 0
		}
		weights[i] = savings + o.Priority*cfg.PriorityAlpha*0.5
	}

	pred := make([]int, n)
	for i, o := range occs {
		lo, hi, idx := 0, i-1, -1
		for lo <= hi {
			mid := (lo + hi) / 2
			if ends[mid] <= o.Start {
				idx = mid
				lo = mid + 1
			} else {
				hi = mid - 1
			}
		}
		pred[i] = idx
	}

	dp := make([]float64, n)
	choose := make([]bool, n)
	for i := 0; i < n; i++ {
		take := weights[i]
		if pred[i] >= 0 {
			take += dp[pred[i]]
		}
		var skip float64
		if i > 0 {
			skip = dp[i-1]
		}
		if take > skip {
			dp[i] = take
			choose[i] = true
		} else {
			dp[i] = skip
			choose[i] = false
		}
	}

	var selected []Occurrence
	for i := n - 1; i >= 0; {
		if choose[i] {
			selected = append(selected, occs[i])
			i = pred[i]
		} else {
			i--
		}
	}
	for l, r := 0, len(selected)-1; l < r; l, r = l+1, r-1 {
		selected[l], selected[r] = selected[r], selected[l]
	}
	return selected
}
