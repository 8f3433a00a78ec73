package suffixarray

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildEmpty(t *testing.T) {
	idx := Build(nil)
	require.Empty(t, idx.SA)
	require.Empty(t, idx.LCP)
}

func TestBuildSingleToken(t *testing.T) {
	idx := Build([]uint32{42})
	require.Equal(t, []int{0}, idx.SA)
	require.Equal(t, []int{0}, idx.LCP)
}

func TestBuildOrdersSuffixesLexicographically(t *testing.T) {
	tokens := []uint32{2, 1, 3, 1, 2, 1, 3}
	idx := Build(tokens)
	require.Len(t, idx.SA, len(tokens))

	for i := 1; i < len(idx.SA); i++ {
		require.True(t, suffixLess(tokens, idx.SA[i-1], idx.SA[i]) || equalSuffix(tokens, idx.SA[i-1], idx.SA[i]))
	}
}

func TestLCPArray(t *testing.T) {
	tokens := []uint32{1, 2, 1, 2, 1}
	idx := Build(tokens)
	require.Equal(t, 0, idx.LCP[0])
	for i := 1; i < len(idx.LCP); i++ {
		require.Equal(t, commonPrefixLen(tokens, idx.SA[i-1], idx.SA[i]), idx.LCP[i])
	}
}

func TestLCPIntervalsGroupsRepeatedRuns(t *testing.T) {
	tokens := []uint32{1, 2, 3, 1, 2, 3, 1, 2, 3}
	idx := Build(tokens)
	intervals := idx.LCPIntervals(3)
	require.NotEmpty(t, intervals)
	for _, iv := range intervals {
		require.GreaterOrEqual(t, iv.LCPLen, 3)
		require.Greater(t, iv.End, iv.Start)
	}
}

func suffixLess(tokens []uint32, a, b int) bool {
	for a < len(tokens) && b < len(tokens) {
		if tokens[a] != tokens[b] {
			return tokens[a] < tokens[b]
		}
		a++
		b++
	}
	return len(tokens)-a < len(tokens)-b
}

func equalSuffix(tokens []uint32, a, b int) bool {
	return commonPrefixLen(tokens, a, b) == len(tokens)-max(a, b)
}

func commonPrefixLen(tokens []uint32, a, b int) int {
	n := 0
	for a+n < len(tokens) && b+n < len(tokens) && tokens[a+n] == tokens[b+n] {
		n++
	}
	return n
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
