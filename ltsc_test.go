package ltsc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tokseq/ltsc/internal/errs"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	tokens := []uint32{1, 2, 3, 1, 2, 3, 1, 2, 3}
	cfg := DefaultConfig()

	result, err := Compress(tokens, cfg)
	require.NoError(t, err)
	require.Less(t, result.CompressedLength, result.OriginalLength+2)

	back, err := Decompress(result.Stream, cfg)
	require.NoError(t, err)
	require.Equal(t, tokens, back)
}

func TestCompressWithVerifySucceeds(t *testing.T) {
	tokens := []uint32{1, 2, 3, 1, 2, 3, 1, 2, 3}
	cfg := DefaultConfig()
	cfg.Verify = true

	_, err := Compress(tokens, cfg)
	require.NoError(t, err)
}

func TestCompressRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSubsequenceLength = 1
	cfg.MinSubsequenceLength = 5
	_, err := Compress([]uint32{1, 2, 3}, cfg)
	require.Error(t, err)
	var invalid *errs.ConfigInvalid
	require.ErrorAs(t, err, &invalid)
}

func TestCompressRejectsMemoryBudget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxMemoryBytes = 1
	_, err := Compress([]uint32{1, 2, 3, 4, 5}, cfg)
	require.Error(t, err)
	var exceeded *errs.MemoryExceeded
	require.ErrorAs(t, err, &exceeded)
}

func TestDecompressRejectsTruncatedStream(t *testing.T) {
	cfg := DefaultConfig()
	stream := []uint32{cfg.DictStartToken, cfg.NextMetaToken, 5, 1, 2, cfg.DictEndToken, cfg.NextMetaToken}
	_, err := Decompress(stream, cfg)
	require.Error(t, err)
	var trunc *errs.Truncated
	require.ErrorAs(t, err, &trunc)
	require.Equal(t, 5, trunc.Offset)
}

func TestDiscoverReturnsCompressibleCandidates(t *testing.T) {
	tokens := []uint32{1, 2, 3, 1, 2, 3, 1, 2, 3}
	cands, err := Discover(tokens, 2, 8, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, cands, 1)
	require.Equal(t, []uint32{1, 2, 3}, []uint32(cands[0].Subsequence))
}

func TestCompressNoCompressibleInputIsIdentity(t *testing.T) {
	tokens := []uint32{1, 2, 3, 4, 5}
	result, err := Compress(tokens, DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, tokens, result.Stream)
	require.Equal(t, 1.0, result.Ratio)
}
