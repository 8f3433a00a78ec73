package discovery

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tokseq/ltsc/internal/config"
	"github.com/tokseq/ltsc/internal/token"
)

func TestDiscoverEmptyInput(t *testing.T) {
	cands, err := Discover(nil, config.Default())
	require.NoError(t, err)
	require.Nil(t, cands)
}

func TestDiscoverRejectsInvertedLengthBounds(t *testing.T) {
	cfg := config.Default()
	cfg.MinSubsequenceLength = 5
	cfg.MaxSubsequenceLength = 2
	_, err := Discover(token.Sequence{1, 2, 3}, cfg)
	require.Error(t, err)
}

func TestDiscoverFindsRepeatedTriple(t *testing.T) {
	tokens := token.Sequence{1, 2, 3, 1, 2, 3, 1, 2, 3}
	cands, err := Discover(tokens, config.Default())
	require.NoError(t, err)
	require.Len(t, cands, 1)

	c := cands[0]
	require.Equal(t, token.Sequence{1, 2, 3}, c.Subsequence)
	require.Equal(t, 3, c.Length)
	require.Equal(t, 3, c.Count)
	require.Equal(t, []int{0, 3, 6}, c.Positions)
	require.Equal(t, 1, c.RawSavings)
}

func TestDiscoverNoRepeatsYieldsNothing(t *testing.T) {
	tokens := token.Sequence{1, 2, 3, 4, 5}
	cands, err := Discover(tokens, config.Default())
	require.NoError(t, err)
	require.Empty(t, cands)
}

func TestDiscoverSingleTokenRunCompressesOnlyPastBoundary(t *testing.T) {
	// length=2,count=2 never clears length*count > length+count+overhead
	// (4 is never > 4+overhead) regardless of overhead; see DESIGN.md's
	// Open Questions entry on the small-count boundary case. Ten repeats
	// (count=5) does clear it.
	four := token.Sequence{7, 7, 7, 7}
	cands, err := Discover(four, config.Default())
	require.NoError(t, err)
	require.Empty(t, cands)

	// The length bound is 2 here: with the default bound of 8, [7,7,7] and
	// [7,7,7,7,7] tie with [7,7] on raw savings and sort ahead of it as
	// longer patterns.
	ten := token.Sequence{7, 7, 7, 7, 7, 7, 7, 7, 7, 7}
	boundTwo := config.Default()
	boundTwo.MaxSubsequenceLength = 2
	cands, err = Discover(ten, boundTwo)
	require.NoError(t, err)
	require.NotEmpty(t, cands)
	require.Equal(t, token.Sequence{7, 7}, cands[0].Subsequence)
	require.Equal(t, 5, cands[0].Count)
}

func TestDiscoverOrderingIsRawSavingsThenLengthThenLex(t *testing.T) {
	// Five repeats of a length-2 pattern (small raw savings) followed by
	// four repeats of a length-4 pattern (larger raw savings) gives two
	// candidate families with distinct raw-savings values.
	tokens := token.Sequence{
		1, 2, 1, 2, 1, 2, 1, 2, 1, 2,
		3, 4, 5, 6, 3, 4, 5, 6, 3, 4, 5, 6, 3, 4, 5, 6,
	}
	cands, err := Discover(tokens, config.Default())
	require.NoError(t, err)
	require.NotEmpty(t, cands)
	for i := 1; i < len(cands); i++ {
		a, b := cands[i-1], cands[i]
		require.True(t, a.RawSavings > b.RawSavings ||
			(a.RawSavings == b.RawSavings && a.Length >= b.Length))
	}
}

func TestDiscoverRegionFilterExcludesPositions(t *testing.T) {
	tokens := token.Sequence{1, 2, 3, 1, 2, 3, 1, 2, 3, 1, 2, 3}
	cfg := config.Default()
	cfg.Filter = rejectAt{pos: 0}
	cands, err := Discover(tokens, cfg)
	require.NoError(t, err)
	// With position 0 rejected: [1,2,3] (3,6,9), [2,3,1] (1,4,7),
	// [3,1,2] (2,5,8) and [2,3,1,2,3] (1,7) remain compressible.
	require.Len(t, cands, 4)
	for _, c := range cands {
		for _, p := range c.Positions {
			require.NotEqual(t, 0, p)
		}
	}
}

type rejectAt struct{ pos int }

func (r rejectAt) Allows(_ token.Sequence, start int) bool { return start != r.pos }
