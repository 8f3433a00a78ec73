package selection

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tokseq/ltsc/internal/config"
	"github.com/tokseq/ltsc/internal/discovery"
	"github.com/tokseq/ltsc/internal/token"
)

func discoverOrFail(t *testing.T, tokens token.Sequence, cfg config.Config) []discovery.Candidate {
	t.Helper()
	cands, err := discovery.Discover(tokens, cfg)
	require.NoError(t, err)
	return cands
}

func TestSelectGreedyRepeatedTriple(t *testing.T) {
	tokens := token.Sequence{1, 2, 3, 1, 2, 3, 1, 2, 3}
	cfg := config.Default()
	cands := discoverOrFail(t, tokens, cfg)
	require.Len(t, cands, 1)

	result := Select(cands, cfg, nil)
	require.Len(t, result.Selected, 3)
	require.Equal(t, []int{0, 3, 6}, []int{result.Selected[0].Start, result.Selected[1].Start, result.Selected[2].Start})
	require.Len(t, result.PatternOrder, 1)
	require.Equal(t, token.Sequence{1, 2, 3}, result.PatternOrder[0])
}

func TestSelectEmptyCandidatesYieldsEmptyResult(t *testing.T) {
	cfg := config.Default()
	result := Select(nil, cfg, nil)
	require.Empty(t, result.Selected)
	require.Empty(t, result.PatternOrder)
}

func TestSelectNoCompressibleCandidatesIsNoop(t *testing.T) {
	tokens := token.Sequence{1, 2, 3, 4, 5}
	cfg := config.Default()
	cands := discoverOrFail(t, tokens, cfg)
	require.Empty(t, cands)
	result := Select(cands, cfg, nil)
	require.Empty(t, result.Selected)
}

func TestSelectOptimalAtLeastAsGoodAsGreedy(t *testing.T) {
	// [1,2,1,2,1,2,1,2] admits both an [1,2] length-2 reading and a
	// [2,1,2,1] length-4 reading; optimal weighted-interval scheduling
	// must not do worse than greedy's density-ordered pick.
	tokens := token.Sequence{1, 2, 1, 2, 1, 2, 1, 2}

	greedyCfg := config.Default()
	greedyCfg.SelectionMode = config.SelectionGreedy
	greedyCands := discoverOrFail(t, tokens, greedyCfg)
	greedyResult := Select(greedyCands, greedyCfg, nil)
	greedySavings := savingsOf(greedyResult.Selected)

	optimalCfg := config.Default()
	optimalCfg.SelectionMode = config.SelectionOptimal
	optimalCands := discoverOrFail(t, tokens, optimalCfg)
	optimalResult := Select(optimalCands, optimalCfg, nil)
	optimalSavings := savingsOf(optimalResult.Selected)

	require.GreaterOrEqual(t, optimalSavings, greedySavings)
}

func TestSelectBeamProducesNonOverlappingResult(t *testing.T) {
	tokens := token.Sequence{1, 2, 3, 1, 2, 3, 1, 2, 3, 1, 2, 3}
	cfg := config.Default()
	cfg.SelectionMode = config.SelectionBeam
	cfg.BeamWidth = 4
	cands := discoverOrFail(t, tokens, cfg)
	result := Select(cands, cfg, nil)
	require.NotEmpty(t, result.Selected)
	requireNonOverlapping(t, result.Selected)
}

func TestSelectIlpDegradesToOptimalWithoutSolver(t *testing.T) {
	tokens := token.Sequence{1, 2, 3, 1, 2, 3, 1, 2, 3}
	cfg := config.Default()
	cfg.SelectionMode = config.SelectionILP
	cands := discoverOrFail(t, tokens, cfg)
	result := Select(cands, cfg, nil)
	require.NotEmpty(t, result.Selected)
}

func TestTieBreakLessOrdersLongerThenCountThenLexThenPosition(t *testing.T) {
	longer := Occurrence{Length: 4, Subsequence: token.Sequence{9, 9, 9, 9}, Start: 5}
	shorter := Occurrence{Length: 2, Subsequence: token.Sequence{1, 1}, Start: 0}
	require.True(t, tieBreakLess(longer, shorter, 1, 1))

	moreCount := Occurrence{Length: 2, Subsequence: token.Sequence{2, 2}, Start: 3}
	lessCount := Occurrence{Length: 2, Subsequence: token.Sequence{1, 1}, Start: 0}
	require.True(t, tieBreakLess(moreCount, lessCount, 5, 2))

	lexSmaller := Occurrence{Length: 2, Subsequence: token.Sequence{1, 9}, Start: 10}
	lexLarger := Occurrence{Length: 2, Subsequence: token.Sequence{2, 0}, Start: 0}
	require.True(t, tieBreakLess(lexSmaller, lexLarger, 3, 3))

	earlier := Occurrence{Length: 2, Subsequence: token.Sequence{1, 1}, Start: 0}
	later := Occurrence{Length: 2, Subsequence: token.Sequence{1, 1}, Start: 4}
	require.True(t, tieBreakLess(earlier, later, 2, 2))
}

func savingsOf(occs []Occurrence) int {
	total := 0
	for _, o := range occs {
		total += o.Length - 1
	}
	return total
}

func requireNonOverlapping(t *testing.T, occs []Occurrence) {
	t.Helper()
	for i := 0; i < len(occs); i++ {
		for j := i + 1; j < len(occs); j++ {
			a, b := occs[i], occs[j]
			overlap := a.Start < b.end() && b.Start < a.end()
			require.False(t, overlap, "occurrences %+v and %+v overlap", a, b)
		}
	}
}
