// Package config holds the compression engine's configuration surface: the
// options table from spec §6, given concrete field names and defaults
// carried over verbatim from the retrieved corpus's Rust/WASM binding
// (packages/core/src/config.rs), which is the authoritative source for this
// public surface at the language-neutral level spec.md describes it.
package config

import (
	"github.com/tokseq/ltsc/internal/errs"
	"github.com/tokseq/ltsc/internal/token"
)

// SelectionMode names one of the four selection strategies from spec §4.3.
type SelectionMode string

const (
	SelectionGreedy  SelectionMode = "greedy"
	SelectionOptimal SelectionMode = "optimal"
	SelectionBeam    SelectionMode = "beam"
	SelectionILP     SelectionMode = "ilp"
)

func (m SelectionMode) valid() bool {
	switch m {
	case SelectionGreedy, SelectionOptimal, SelectionBeam, SelectionILP:
		return true
	}
	return false
}

// StaticBinding is a caller-supplied (pattern, meta-token) binding applied
// before dynamic discovery runs (§6 "Static dictionary injection").
type StaticBinding struct {
	MetaToken  token.Token
	Definition token.Sequence
}

// PriorityScorer assigns a priority in [0,1] to a candidate; consumed by
// selection's priority hooks (§4.3). The default is the identity scorer,
// which always returns 0.
type PriorityScorer interface {
	Score(subsequence token.Sequence, positions []int) float64
}

// RegionFilter excludes occurrences that fall in a protected span (§6
// "Region filter"): discovery drops every occurrence start for which Allows
// returns false. The default allows everything.
type RegionFilter interface {
	Allows(subsequence token.Sequence, start int) bool
}

type identityScorer struct{}

func (identityScorer) Score(token.Sequence, []int) float64 { return 0 }

type allowAllFilter struct{}

func (allowAllFilter) Allows(token.Sequence, int) bool { return true }

// DefaultScorer is the identity scorer (priority 0 for every candidate).
var DefaultScorer PriorityScorer = identityScorer{}

// DefaultFilter is the allow-all region filter.
var DefaultFilter RegionFilter = allowAllFilter{}

// Config is the full configuration surface accepted by Compress, Decompress
// and Discover.
type Config struct {
	MinSubsequenceLength int
	MaxSubsequenceLength int

	SelectionMode SelectionMode
	BeamWidth     int

	HierarchicalEnabled  bool
	HierarchicalMaxDepth int

	Verify bool

	DictStartToken  token.Token
	DictEndToken    token.Token
	FuzzyMarkToken  token.Token
	NextMetaToken   token.Token

	// PriorityAlpha is the α constant in the priority-hook savings
	// multiplier (1 + α·p), §4.3.
	PriorityAlpha float64

	// DictLengthEnabled controls whether a dictionary entry pays an extra
	// "length" overhead token per §4.4's wire layout. It is on by default,
	// matching the wire format's explicit length field.
	DictLengthEnabled bool

	// FuzzyEnabled turns on the optional near-duplicate discovery
	// extension (SPEC_FULL.md §4.9). Off by default, per spec.md's
	// Non-goals for the mandatory path.
	FuzzyEnabled       bool
	FuzzyMaxHamming    int
	FuzzyMinBaseLength int

	StaticDictionary  []StaticBinding
	StaticDictionaryID string

	Scorer PriorityScorer
	Filter RegionFilter

	// ParallelDiscovery enables the work-stealing parallel-over-lengths
	// discovery mode (§4.2 "Optional parallel mode").
	ParallelDiscovery bool
	// ParallelWorkers bounds the number of goroutines used when
	// ParallelDiscovery is set. Zero means runtime.GOMAXPROCS(0).
	ParallelWorkers int

	// MaxMemoryBytes caps the estimated peak buffer size (token array +
	// suffix array + LCP array; the candidate list is not counted) before
	// compression begins.
	// Zero means unbounded.
	MaxMemoryBytes uint64
}

// Default returns a Config populated with spec §6's default values.
func Default() Config {
	return Config{
		MinSubsequenceLength: 2,
		MaxSubsequenceLength: 8,
		SelectionMode:        SelectionGreedy,
		BeamWidth:            8,
		HierarchicalEnabled:  true,
		HierarchicalMaxDepth: 3,
		Verify:               false,
		DictStartToken:       0xFFFFFFF0,
		DictEndToken:         0xFFFFFFF1,
		FuzzyMarkToken:       0xFFFFFFF2,
		NextMetaToken:        0xFFFF0000,
		PriorityAlpha:        1.0,
		DictLengthEnabled:    true,
		FuzzyEnabled:         false,
		FuzzyMaxHamming:      1,
		FuzzyMinBaseLength:   4,
		Scorer:               DefaultScorer,
		Filter:               DefaultFilter,
		ParallelDiscovery:    false,
		ParallelWorkers:      0,
		MaxMemoryBytes:       0,
	}
}

// Validate checks the configuration for internal contradictions, returning
// an *errs.ConfigInvalid describing the first one found.
func (c Config) Validate() error {
	if c.MinSubsequenceLength < 1 {
		return &errs.ConfigInvalid{Reason: "min_subsequence_length must be >= 1"}
	}
	if c.MaxSubsequenceLength < c.MinSubsequenceLength {
		return &errs.ConfigInvalid{Reason: "max_subsequence_length must be >= min_subsequence_length"}
	}
	if !c.SelectionMode.valid() {
		return &errs.ConfigInvalid{Reason: "selection_mode must be one of greedy, optimal, beam, ilp"}
	}
	if c.SelectionMode == SelectionBeam && c.BeamWidth < 1 {
		return &errs.ConfigInvalid{Reason: "beam_width must be >= 1 in beam mode"}
	}
	if c.HierarchicalEnabled && c.HierarchicalMaxDepth < 1 {
		return &errs.ConfigInvalid{Reason: "hierarchical_max_depth must be >= 1 when hierarchical_enabled"}
	}
	if _, err := token.NewRanges(c.NextMetaToken, c.DictStartToken, c.DictEndToken, c.FuzzyMarkToken); err != nil {
		return err
	}
	if c.NextMetaToken == 0 && len(c.StaticDictionary) == 0 {
		return &errs.ConfigInvalid{Reason: "next_meta_token must leave a non-empty meta range"}
	}
	if uint64(c.NextMetaToken)+uint64(len(c.StaticDictionary)) > 0xFFFFFFFF {
		return &errs.ConfigInvalid{Reason: "meta range exhausted by static dictionary"}
	}
	return nil
}

// Ranges builds a token.Ranges from this configuration's control/meta
// fields. Validate should be called first.
func (c Config) Ranges() token.Ranges {
	r, _ := token.NewRanges(c.NextMetaToken, c.DictStartToken, c.DictEndToken, c.FuzzyMarkToken)
	return r
}

// WithDefaults fills any zero-valued optional hooks with their defaults.
// Used by the facade so callers may construct a Config with only the
// fields they care about set.
func (c Config) WithDefaults() Config {
	if c.Scorer == nil {
		c.Scorer = DefaultScorer
	}
	if c.Filter == nil {
		c.Filter = DefaultFilter
	}
	return c
}
