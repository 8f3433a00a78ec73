// Package hierarchical drives the multi-pass compression loop from spec
// §4.6: each pass compresses the previous pass's body, so a dictionary
// entry from an outer pass can itself contain meta-tokens from an inner
// pass once those become ordinary input to the next round. The package
// accumulates dictionary entries outer-to-inner and defers the one
// topological/framing step to wire.Frame at the very end.
package hierarchical

import (
	"sort"

	"github.com/tokseq/ltsc/internal/config"
	"github.com/tokseq/ltsc/internal/discovery"
	"github.com/tokseq/ltsc/internal/fuzzy"
	"github.com/tokseq/ltsc/internal/selection"
	"github.com/tokseq/ltsc/internal/token"
	"github.com/tokseq/ltsc/internal/wire"
)

// PassStats records one pass's contribution, surfaced to the facade for
// logging and metrics without threading a logger through this package.
type PassStats struct {
	PatternsSelected int
	OccurrencesReplaced int
	InputLength      int
	OutputLength     int
}

// Result is the outcome of Run: the framed wire output plus a per-pass
// trace of what each round contributed.
type Result struct {
	Output wire.Output
	Passes []PassStats
}

// Run executes static-dictionary injection followed by up to
// cfg.HierarchicalMaxDepth dynamic compression passes (or exactly one pass
// when cfg.HierarchicalEnabled is false), then frames the accumulated
// dictionary in outer-to-inner order. Run checks tokens with
// wire.CheckNoCollisions itself before the first pass, so callers never
// need to duplicate that check.
func Run(tokens token.Sequence, cfg config.Config, solver selection.Solver) (Result, error) {
	ranges := cfg.Ranges()
	if err := wire.CheckNoCollisions(tokens, ranges); err != nil {
		return Result{}, err
	}

	var entries []wire.DictionaryEntry
	current := token.Clone(tokens)

	staticEntries, afterStatic := injectStaticDictionary(current, cfg.StaticDictionary, ranges)
	entries = append(entries, staticEntries...)
	current = afterStatic

	// Static bindings reserve their meta-tokens ahead of dynamic
	// allocation: the dynamic counter starts past the highest of them.
	nextMeta := cfg.NextMetaToken
	for _, b := range cfg.StaticDictionary {
		if b.MetaToken >= nextMeta && b.MetaToken < 0xFFFFFFFF {
			nextMeta = b.MetaToken + 1
		}
	}
	maxPasses := 1
	if cfg.HierarchicalEnabled {
		maxPasses = cfg.HierarchicalMaxDepth
	}

	var passes []PassStats

	if cfg.FuzzyEnabled {
		fuzzyEntries, fuzzyBody, fuzzyPass, advanced, err := runFuzzyPass(current, cfg, nextMeta, ranges)
		if err != nil {
			return Result{}, err
		}
		if len(fuzzyEntries) > 0 {
			entries = append(entries, fuzzyEntries...)
			current = fuzzyBody
			nextMeta = advanced
			passes = append(passes, fuzzyPass)
		}
	}

	for pass := 0; pass < maxPasses; pass++ {
		candidates, err := discoverPass(current, cfg)
		if err != nil {
			return Result{}, err
		}
		if len(candidates) == 0 {
			break
		}

		result := selection.Select(candidates, cfg, solver)
		if len(result.Selected) == 0 {
			break
		}

		groups := groupsFromResult(result)
		newEntries, metaTokens, advanced, err := wire.AllocateEntries(groups, nextMeta, ranges)
		if err != nil {
			return Result{}, err
		}
		nextMeta = advanced

		rewritten := wire.RewriteBody(current, groups, metaTokens, ranges)

		passes = append(passes, PassStats{
			PatternsSelected:    len(groups),
			OccurrencesReplaced: len(result.Selected),
			InputLength:         len(current),
			OutputLength:        len(rewritten),
		})

		entries = append(entries, newEntries...)
		current = rewritten

		if !cfg.HierarchicalEnabled {
			break
		}
	}

	out, err := wire.Frame(entries, current, ranges)
	if err != nil {
		return Result{}, err
	}
	return Result{Output: out, Passes: passes}, nil
}

// runFuzzyPass discovers near-duplicate candidates and rewrites the body
// with one dictionary entry per canonical form, patched occurrences
// carrying their corrections inline (§4.9). It runs once, ahead of every
// exact-match pass, since a fuzzy-collapsed region is no longer available
// for exact discovery to also claim.
func runFuzzyPass(tokens token.Sequence, cfg config.Config, nextMeta token.Token, ranges token.Ranges) ([]wire.DictionaryEntry, token.Sequence, PassStats, token.Token, error) {
	candidates := fuzzy.Discover(tokens, cfg)
	if len(candidates) == 0 {
		return nil, tokens, PassStats{}, nextMeta, nil
	}

	// Candidates are discovered independently and may overlap each other;
	// candidates arrive ordered by occurrence count descending (fuzzy.
	// Discover), so a simple greedy claim in that order resolves overlaps
	// the same way exact discovery's non-overlap filter does.
	var claimedEnds []int // ends of claimed [start,end) ranges in claim order, parallel to claimedStarts
	var claimedStarts []int
	overlaps := func(start, end int) bool {
		for i := range claimedStarts {
			if start < claimedEnds[i] && claimedStarts[i] < end {
				return true
			}
		}
		return false
	}

	groups := make([]wire.Group, 0, len(candidates))
	occurrenceCount := 0
	for _, c := range candidates {
		length := len(c.Canonical)
		var positions []int
		patches := make(map[int][]token.Patch)
		for _, o := range c.Occurrences {
			end := o.Start + length
			if overlaps(o.Start, end) {
				continue
			}
			claimedStarts = append(claimedStarts, o.Start)
			claimedEnds = append(claimedEnds, end)
			positions = append(positions, o.Start)
			if len(o.Patches) > 0 {
				patches[o.Start] = o.Patches
			}
		}
		if len(positions) < 2 {
			continue
		}
		occurrenceCount += len(positions)
		groups = append(groups, wire.Group{Definition: c.Canonical, Positions: positions, Patches: patches})
	}
	if len(groups) == 0 {
		return nil, tokens, PassStats{}, nextMeta, nil
	}

	entries, metaTokens, advanced, err := wire.AllocateEntries(groups, nextMeta, ranges)
	if err != nil {
		return nil, nil, PassStats{}, nextMeta, err
	}
	rewritten := wire.RewriteBody(tokens, groups, metaTokens, ranges)

	stats := PassStats{
		PatternsSelected:    len(groups),
		OccurrencesReplaced: occurrenceCount,
		InputLength:         len(tokens),
		OutputLength:        len(rewritten),
	}
	return entries, rewritten, stats, advanced, nil
}

func discoverPass(tokens token.Sequence, cfg config.Config) ([]discovery.Candidate, error) {
	if cfg.ParallelDiscovery {
		return discovery.DiscoverParallel(tokens, cfg)
	}
	return discovery.Discover(tokens, cfg)
}

// groupsFromResult turns a selection.Result into wire.Groups ordered per
// result.PatternOrder (spec §4.4's meta-token allocation order), each
// carrying its occurrences' start positions in ascending order.
func groupsFromResult(result selection.Result) []wire.Group {
	byPattern := make(map[string][]int, len(result.PatternOrder))
	defs := make(map[string]token.Sequence, len(result.PatternOrder))
	for _, occ := range result.Selected {
		k := patternKey(occ.Subsequence)
		if _, ok := defs[k]; !ok {
			defs[k] = occ.Subsequence
		}
		byPattern[k] = append(byPattern[k], occ.Start)
	}

	groups := make([]wire.Group, 0, len(result.PatternOrder))
	for _, pat := range result.PatternOrder {
		k := patternKey(pat)
		positions := byPattern[k]
		sort.Ints(positions)
		groups = append(groups, wire.Group{Definition: defs[k], Positions: positions})
	}
	return groups
}

// injectStaticDictionary applies caller-supplied static bindings before any
// dynamic discovery runs, per the config Open Question resolution recorded
// in DESIGN.md: static entries reserve their meta-tokens first, and dynamic
// discovery only ever sees the post-injection body. A binding whose
// definition does not occur in tokens contributes no entry.
func injectStaticDictionary(tokens token.Sequence, bindings []config.StaticBinding, ranges token.Ranges) ([]wire.DictionaryEntry, token.Sequence) {
	if len(bindings) == 0 {
		return nil, token.Clone(tokens)
	}

	var entries []wire.DictionaryEntry
	current := tokens
	for _, b := range bindings {
		positions := findNonOverlapping(current, b.Definition)
		if len(positions) == 0 {
			continue
		}
		entries = append(entries, wire.DictionaryEntry{MetaToken: b.MetaToken, Definition: token.Clone(b.Definition)})
		metaTokens := make([]token.Token, len(positions))
		for i := range metaTokens {
			metaTokens[i] = b.MetaToken
		}
		current = wire.RewriteBody(current, []wire.Group{{Definition: b.Definition, Positions: positions}}, metaTokens, ranges)
	}
	return entries, current
}

// findNonOverlapping does a plain left-to-right scan for def in tokens; the
// static dictionary is expected to be small (caller-authored, not
// discovery-sized), so this need not be suffix-array accelerated.
func findNonOverlapping(tokens, def token.Sequence) []int {
	if len(def) == 0 || len(def) > len(tokens) {
		return nil
	}
	var out []int
	i := 0
	for i+len(def) <= len(tokens) {
		if token.Equal(tokens[i:i+len(def)], def) {
			out = append(out, i)
			i += len(def)
			continue
		}
		i++
	}
	return out
}

func patternKey(s token.Sequence) string {
	b := make([]byte, len(s)*4)
	for i, t := range s {
		b[i*4] = byte(t >> 24)
		b[i*4+1] = byte(t >> 16)
		b[i*4+2] = byte(t >> 8)
		b[i*4+3] = byte(t)
	}
	return string(b)
}
