package discovery

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tokseq/ltsc/internal/config"
	"github.com/tokseq/ltsc/internal/token"
)

// TestDiscoverParallelMatchesSequential is spec §9's headline testable
// property: discovery's output must be byte-identical regardless of how
// many threads it used. It also exercises §4.2's "results are merged and
// re-sorted before emission" equivalence between DiscoverParallel and the
// sequential Discover, across a couple of worker counts.
func TestDiscoverParallelMatchesSequential(t *testing.T) {
	tokens := token.Sequence{
		1, 2, 3, 4, 9,
		1, 2, 3, 4, 9,
		1, 2, 3, 4, 9,
		1, 2, 7,
		5, 6, 5, 6, 5, 6, 5, 6, 5, 6,
		8, 8, 8, 8, 8, 8, 8, 8,
	}
	cfg := config.Default()
	cfg.MinSubsequenceLength = 2
	cfg.MaxSubsequenceLength = 4

	want, err := Discover(tokens, cfg)
	require.NoError(t, err)
	require.NotEmpty(t, want)

	for _, workers := range []int{1, 2, 3, 8} {
		cfg := cfg
		cfg.ParallelWorkers = workers
		got, err := DiscoverParallel(tokens, cfg)
		require.NoError(t, err)
		require.Equal(t, want, got, "worker count %d produced a different result than sequential Discover", workers)
	}
}

// TestDiscoverParallelEmptyAndInvertedBounds mirrors the sequential
// path's edge-case handling so both entry points agree there too.
func TestDiscoverParallelEmptyAndInvertedBounds(t *testing.T) {
	cands, err := DiscoverParallel(nil, config.Default())
	require.NoError(t, err)
	require.Nil(t, cands)

	cfg := config.Default()
	cfg.MinSubsequenceLength = 5
	cfg.MaxSubsequenceLength = 2
	_, err = DiscoverParallel(token.Sequence{1, 2, 3}, cfg)
	require.Error(t, err)
}
