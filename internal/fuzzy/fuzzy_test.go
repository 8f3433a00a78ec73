package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tokseq/ltsc/internal/config"
	"github.com/tokseq/ltsc/internal/token"
)

func fuzzyConfig() config.Config {
	c := config.Default()
	c.FuzzyEnabled = true
	c.FuzzyMinBaseLength = 4
	c.FuzzyMaxHamming = 1
	return c
}

func TestDiscoverDisabledReturnsNil(t *testing.T) {
	tokens := token.Sequence{1, 2, 3, 4, 1, 2, 3, 4}
	require.Nil(t, Discover(tokens, config.Default()))
}

func TestDiscoverFindsNearDuplicateWithSinglePatch(t *testing.T) {
	// Three exact occurrences of [1,2,3,4] plus one near-duplicate
	// [1,9,3,4] differing at offset 1 — enough occurrences for
	// worthCompressing's fixed dictionary cost to clear.
	tokens := token.Sequence{
		1, 2, 3, 4, // exact
		0, 0,
		1, 9, 3, 4, // patched at offset 1
		0, 0,
		1, 2, 3, 4, // exact
		0, 0,
		1, 2, 3, 4, // exact
	}
	cands := Discover(tokens, fuzzyConfig())
	require.NotEmpty(t, cands)

	c := cands[0]
	require.Equal(t, token.Sequence{1, 2, 3, 4}, c.Canonical)
	require.Len(t, c.Occurrences, 4)

	patched := 0
	for _, o := range c.Occurrences {
		if len(o.Patches) > 0 {
			patched++
			require.Equal(t, []token.Patch{{Offset: 1, Replacement: 9}}, o.Patches)
		}
	}
	require.Equal(t, 1, patched)
}

func TestDiscoverRejectsPureExactRunsBelowFuzzyThreshold(t *testing.T) {
	// Only two occurrences, both exact and short: not worth the fuzzy
	// dictionary entry's fixed cost.
	tokens := token.Sequence{1, 2, 3, 4, 1, 2, 3, 4}
	cfg := fuzzyConfig()
	cands := Discover(tokens, cfg)
	require.Empty(t, cands)
}

func TestScanWithinHammingRespectsBound(t *testing.T) {
	tokens := token.Sequence{1, 2, 3, 4}
	canon := token.Sequence{1, 9, 9, 4}
	occs := scanWithinHamming(tokens, canon, 1)
	require.Empty(t, occs, "two mismatches exceeds maxHamming=1")

	occs = scanWithinHamming(tokens, canon, 2)
	require.Len(t, occs, 1)
	require.Len(t, occs[0].Patches, 2)
}

func TestFilterNonOverlappingPrefersExactOverPatched(t *testing.T) {
	occs := []Occurrence{
		{Start: 0, Patches: []token.Patch{{Offset: 0, Replacement: 9}}},
		{Start: 0, Patches: nil},
	}
	out := filterNonOverlapping(occs, 4)
	require.Len(t, out, 1)
	require.Empty(t, out[0].Patches)
}
