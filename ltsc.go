// Package ltsc is the compression engine's facade: a thin, function-level
// API over internal/config, internal/hierarchical, internal/wire and
// internal/selection, matching the shape spec §6's Core API table
// describes. It holds no state of its own; every call constructs its own
// suffix array, discovery pool and dictionary from scratch (§5).
package ltsc

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tokseq/ltsc/internal/config"
	"github.com/tokseq/ltsc/internal/discovery"
	"github.com/tokseq/ltsc/internal/errs"
	"github.com/tokseq/ltsc/internal/hierarchical"
	"github.com/tokseq/ltsc/internal/logging"
	"github.com/tokseq/ltsc/internal/metrics"
	"github.com/tokseq/ltsc/internal/selection"
	"github.com/tokseq/ltsc/internal/token"
	"github.com/tokseq/ltsc/internal/wire"
)

// Config is re-exported so callers never need to import internal/config
// directly.
type Config = config.Config

// Solver is re-exported for callers supplying an external ILP backend to
// SelectionILP mode.
type Solver = selection.Solver

// DefaultConfig returns spec §6's default configuration surface.
func DefaultConfig() Config {
	return config.Default()
}

// Result is the concrete type behind spec §3's CompressionResult.
type Result struct {
	OriginalLength   int
	CompressedLength int
	Ratio            float64
	Stream           []uint32
	Dictionary       []uint32
	Body             []uint32
	Map              map[uint32][]uint32
	StaticDictionaryID string
	Passes           []hierarchical.PassStats
}

// Logger, when non-nil, receives structured events at pipeline stage
// boundaries. It is a pure side channel: no Compress/Decompress/Discover
// return value depends on whether a logger is supplied.
var Logger = logging.Nop()

// SetLogger installs the package-level logger used by Compress, Decompress
// and Discover.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = logging.Nop()
	}
	Logger = l
}

// Compress runs the full pipeline: static-dictionary injection, up to
// cfg.HierarchicalMaxDepth compression passes (or one, when hierarchical
// compression is disabled), and final framing, per spec §4.6. When
// cfg.Verify is set, it decompresses its own output and fails with
// *errs.VerificationFailure on any mismatch, per spec §6's verify option.
func Compress(tokens []uint32, cfg Config) (Result, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	seq := token.Sequence(tokens)
	if err := checkMemoryBudget(len(seq), cfg); err != nil {
		return Result{}, err
	}

	Logger.Info("compress: start",
		zap.Int("input_length", len(seq)),
		zap.String("selection_mode", string(cfg.SelectionMode)),
		zap.Bool("hierarchical_enabled", cfg.HierarchicalEnabled),
		zap.Bool("fuzzy_enabled", cfg.FuzzyEnabled),
	)

	hres, err := hierarchical.Run(seq, cfg, nil)
	if err != nil {
		Logger.Error("compress: failed", zap.Error(err))
		return Result{}, err
	}

	out := hres.Output
	result := Result{
		OriginalLength:     len(seq),
		CompressedLength:   len(out.Stream),
		Stream:             []uint32(out.Stream),
		Dictionary:         []uint32(out.Dictionary),
		Body:               []uint32(out.Body),
		Map:                mapToUint32(out.Map),
		StaticDictionaryID: cfg.StaticDictionaryID,
		Passes:             hres.Passes,
	}
	if result.OriginalLength > 0 {
		result.Ratio = float64(result.CompressedLength) / float64(result.OriginalLength)
	}

	if cfg.Verify {
		roundTripped, derr := Decompress(result.Stream, cfg)
		if derr != nil {
			return Result{}, fmt.Errorf("verify: decompress failed: %w", derr)
		}
		if !token.Equal(token.Sequence(roundTripped), seq) {
			firstDiff := firstMismatch(seq, token.Sequence(roundTripped))
			metrics.Get().VerificationFailure.Inc()
			err := &errs.VerificationFailure{FirstDiffOffset: firstDiff}
			Logger.Error("compress: verification failed", zap.Int("offset", firstDiff))
			return Result{}, err
		}
	}

	Logger.Info("compress: done",
		zap.Int("output_length", result.CompressedLength),
		zap.Float64("ratio", result.Ratio),
		zap.Int("passes", len(hres.Passes)),
	)
	metrics.Get().RecordCompression(string(cfg.SelectionMode), result.OriginalLength, result.CompressedLength, len(hres.Passes))

	return result, nil
}

// Decompress reconstructs the original token sequence from a compressed
// stream, per spec §4.5.
func Decompress(stream []uint32, cfg Config) ([]uint32, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	out, err := wire.Deserialize(token.Sequence(stream), cfg.Ranges())
	metrics.Get().RecordDecompression(err)
	if err != nil {
		Logger.Error("decompress: failed", zap.Error(err))
		return nil, err
	}
	Logger.Info("decompress: done", zap.Int("output_length", len(out)))
	return []uint32(out), nil
}

// Discover runs pattern discovery alone, without selection or
// serialization, per spec §6's discover(T, min, max) operation.
func Discover(tokens []uint32, minLen, maxLen int, cfg Config) ([]discovery.Candidate, error) {
	cfg = cfg.WithDefaults()
	cfg.MinSubsequenceLength = minLen
	cfg.MaxSubsequenceLength = maxLen
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		candidates []discovery.Candidate
		err        error
	)
	if cfg.ParallelDiscovery {
		candidates, err = discovery.DiscoverParallel(token.Sequence(tokens), cfg)
	} else {
		candidates, err = discovery.Discover(token.Sequence(tokens), cfg)
	}
	if err != nil {
		return nil, err
	}
	metrics.Get().RecordDiscovery(len(candidates))
	return candidates, nil
}

// checkMemoryBudget estimates the peak buffer size compression needs (the
// token buffer itself plus a suffix array and LCP array of matching size,
// each counted at 4 bytes per element) and rejects the call before any of it is
// allocated, per spec §5's resource model and cfg.MaxMemoryBytes.
func checkMemoryBudget(n int, cfg config.Config) error {
	if cfg.MaxMemoryBytes == 0 {
		return nil
	}
	const bytesPerElement = 4
	const arraysPerToken = 3 // tokens + SA + LCP
	estimated := uint64(n) * bytesPerElement * arraysPerToken
	if estimated > cfg.MaxMemoryBytes {
		return &errs.MemoryExceeded{Estimated: estimated, Limit: cfg.MaxMemoryBytes}
	}
	return nil
}

func mapToUint32(m map[token.Token]token.Sequence) map[uint32][]uint32 {
	if m == nil {
		return nil
	}
	out := make(map[uint32][]uint32, len(m))
	for k, v := range m {
		out[k] = []uint32(v)
	}
	return out
}

func firstMismatch(a, b token.Sequence) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}
