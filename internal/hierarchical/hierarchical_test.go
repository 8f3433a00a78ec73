package hierarchical

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tokseq/ltsc/internal/config"
	"github.com/tokseq/ltsc/internal/token"
	"github.com/tokseq/ltsc/internal/wire"
)

func TestRunRoundTripsRepeatedTriple(t *testing.T) {
	tokens := token.Sequence{1, 2, 3, 1, 2, 3, 1, 2, 3}
	cfg := config.Default()
	result, err := Run(tokens, cfg, nil)
	require.NoError(t, err)
	require.Less(t, len(result.Output.Stream), len(tokens)+2) // dict overhead (7) + 3-token body = 10 < original length + 2

	back, err := wire.Deserialize(result.Output.Stream, cfg.Ranges())
	require.NoError(t, err)
	require.Equal(t, tokens, back)
	require.NotEmpty(t, result.Passes)
}

func TestRunNoCompressibleInputPassesThrough(t *testing.T) {
	tokens := token.Sequence{1, 2, 3, 4, 5}
	cfg := config.Default()
	result, err := Run(tokens, cfg, nil)
	require.NoError(t, err)
	require.Equal(t, tokens, result.Output.Stream)
	require.Empty(t, result.Passes)
}

func TestRunRejectsCollidingInput(t *testing.T) {
	cfg := config.Default()
	tokens := token.Sequence{1, cfg.NextMetaToken}
	_, err := Run(tokens, cfg, nil)
	require.Error(t, err)
}

func TestRunAppliesStaticDictionaryBeforeDiscovery(t *testing.T) {
	cfg := config.Default()
	staticMeta := cfg.NextMetaToken
	cfg.StaticDictionary = []config.StaticBinding{
		{MetaToken: staticMeta, Definition: token.Sequence{1, 2, 3}},
	}
	tokens := token.Sequence{1, 2, 3, 9, 1, 2, 3}

	result, err := Run(tokens, cfg, nil)
	require.NoError(t, err)

	back, err := wire.Deserialize(result.Output.Stream, cfg.Ranges())
	require.NoError(t, err)
	require.Equal(t, tokens, back)
	require.Contains(t, result.Output.Map, staticMeta)
	require.Equal(t, token.Sequence{1, 2, 3}, result.Output.Map[staticMeta])
}

func TestRunFuzzyPassWiredAheadOfExactPasses(t *testing.T) {
	cfg := config.Default()
	cfg.FuzzyEnabled = true
	cfg.FuzzyMinBaseLength = 4
	cfg.FuzzyMaxHamming = 1

	tokens := token.Sequence{
		1, 2, 3, 4,
		0, 0,
		1, 9, 3, 4,
		0, 0,
		1, 2, 3, 4,
		0, 0,
		1, 2, 3, 4,
	}
	result, err := Run(tokens, cfg, nil)
	require.NoError(t, err)

	back, err := wire.Deserialize(result.Output.Stream, cfg.Ranges())
	require.NoError(t, err)
	require.Equal(t, tokens, back)
}

func TestRunHierarchicalDisabledStopsAfterOnePass(t *testing.T) {
	cfg := config.Default()
	cfg.HierarchicalEnabled = false
	tokens := token.Sequence{1, 2, 3, 1, 2, 3, 1, 2, 3}
	result, err := Run(tokens, cfg, nil)
	require.NoError(t, err)
	require.Len(t, result.Passes, 1)

	back, err := wire.Deserialize(result.Output.Stream, cfg.Ranges())
	require.NoError(t, err)
	require.Equal(t, tokens, back)
}
