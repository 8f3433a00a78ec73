// Package wire implements the dictionary+body wire format from spec §4.4
// and its inverse from spec §4.5, modeled on the retrieved teacher's
// core/format.go WriteHeader/ReadHeader pair: the same shape of an
// explicit magic/length-prefixed section written and read by dedicated
// encode/decode functions with wrapped errors, adapted from a byte/
// encoding-binary framing to a plain []uint32 token framing where the
// control tokens themselves double as the section markers.
package wire

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tokseq/ltsc/internal/errs"
	"github.com/tokseq/ltsc/internal/token"
)

// DictionaryEntry is a (meta_token, definition) pair, per spec §3.
type DictionaryEntry struct {
	MetaToken  token.Token
	Definition token.Sequence
}

// Group is a pattern together with the ascending, non-overlapping start
// positions selection chose for it. The serializer turns each Group into
// one DictionaryEntry and rewrites the body at every listed position.
type Group struct {
	Definition token.Sequence
	Positions  []int
	// Patches maps a position in Positions to the patch list needed to turn
	// Definition into the actual occurrence found there. A position that is
	// absent, or maps to an empty slice, is an exact occurrence and is
	// rewritten as a bare meta-token reference. A position with a non-empty
	// patch list is rewritten as [FUZZY_MARK, meta, count, patches...], per
	// the near-duplicate discovery extension (§4.9).
	Patches map[int][]token.Patch
}

// Output is the serialized artifact: the full token stream plus its
// sectioned views, mirroring spec §3's CompressionResult.
type Output struct {
	Stream     token.Sequence
	Dictionary token.Sequence
	Body       token.Sequence
	Map        map[token.Token]token.Sequence
	MetaTokens []token.Token
}

// CheckNoCollisions validates that no token in tokens falls in the meta or
// control range, per spec §4.4 validation step (i). It must be run once,
// against the true original input, before the first compression pass —
// intermediate hierarchical passes legitimately see meta-tokens from
// earlier passes in their working buffer, so this is a caller-invoked step
// rather than something every internal call re-checks.
func CheckNoCollisions(tokens token.Sequence, ranges token.Ranges) error {
	for i, t := range tokens {
		if ranges.IsReserved(t) {
			return &errs.TokenRangeCollision{Token: t, Position: i}
		}
	}
	return nil
}

// AllocateEntries turns groups (already ordered per spec §4.4's "selection
// order after tie-breaking") into dictionary entries, drawing meta-tokens
// starting at nextMeta, and returns the meta-token assigned to each group
// in the same order plus the advanced allocation frontier.
//
// The default control tokens (DICT_START, DICT_END, FUZZY_MARK) sit inside
// the reserved meta-token tail rather than below it, so [nextMeta,
// 0xFFFFFFFF] is not entirely free: the three control values within that
// span are never handed out as meta-tokens, and validation step (ii) must
// size the selection against the control-free span, not the raw span —
// otherwise a large enough selection silently receives a meta-token equal
// to a control token.
func AllocateEntries(groups []Group, nextMeta token.Token, ranges token.Ranges) (entries []DictionaryEntry, metaTokens []token.Token, advanced token.Token, err error) {
	if len(groups) == 0 {
		return nil, nil, nextMeta, nil
	}
	span := uint64(0xFFFFFFFF) - uint64(nextMeta) + 1
	for _, c := range [3]token.Token{ranges.DictStart, ranges.DictEnd, ranges.FuzzyMark} {
		if c >= nextMeta {
			span--
		}
	}
	if uint64(len(groups)) > span {
		return nil, nil, nextMeta, &errs.ConfigInvalid{Reason: "meta range does not have enough free values for this selection"}
	}

	meta := nextMeta
	entries = make([]DictionaryEntry, len(groups))
	metaTokens = make([]token.Token, len(groups))
	for i, g := range groups {
		for ranges.IsControl(meta) {
			meta++
		}
		entries[i] = DictionaryEntry{MetaToken: meta, Definition: token.Clone(g.Definition)}
		metaTokens[i] = meta
		meta++
	}
	for ranges.IsControl(meta) {
		meta++
	}
	return entries, metaTokens, meta, nil
}

// RewriteBody replaces every occurrence position in each group with that
// group's assigned meta-token (or, for a patched fuzzy occurrence, the
// [FUZZY_MARK, meta, count, patches...] wrapper), leaving everything else
// untouched.
func RewriteBody(tokens token.Sequence, groups []Group, metaTokens []token.Token, ranges token.Ranges) token.Sequence {
	return rewriteBody(tokens, groups, metaTokens, ranges)
}

// Frame assembles the final wire stream from the complete, ordered list of
// dictionary entries accumulated across every pass (outer-to-inner, per
// spec §4.6) and the final pass's body. It performs the topological-order
// validation from spec §4.4 validation step (iii) exactly once, over the
// combined entry list. An empty entries list yields an unframed stream
// equal to body, per spec §4.4's "Empty selection" rule.
func Frame(entries []DictionaryEntry, body token.Sequence, ranges token.Ranges) (Output, error) {
	if len(entries) == 0 {
		return Output{Stream: token.Clone(body), Body: token.Clone(body)}, nil
	}
	if err := checkAcyclic(entries, ranges); err != nil {
		return Output{}, err
	}

	dict := buildDictionarySection(entries, ranges)
	stream := make(token.Sequence, 0, len(dict)+len(body))
	stream = append(stream, dict...)
	stream = append(stream, body...)

	m := make(map[token.Token]token.Sequence, len(entries))
	metaTokens := make([]token.Token, len(entries))
	for i, e := range entries {
		m[e.MetaToken] = e.Definition
		metaTokens[i] = e.MetaToken
	}

	return Output{
		Stream:     stream,
		Dictionary: dict,
		Body:       token.Clone(body),
		Map:        m,
		MetaTokens: metaTokens,
	}, nil
}

// Serialize is the single-pass convenience path: allocate entries for
// groups, rewrite the body, and frame the result. Hierarchical compression
// instead calls AllocateEntries/RewriteBody once per pass and Frame once
// at the end over the accumulated entries (see internal/hierarchical).
func Serialize(tokens token.Sequence, groups []Group, ranges token.Ranges, nextMeta token.Token) (Output, error) {
	if err := CheckNoCollisions(tokens, ranges); err != nil {
		return Output{}, err
	}
	entries, metaTokens, _, err := AllocateEntries(groups, nextMeta, ranges)
	if err != nil {
		return Output{}, err
	}
	body := RewriteBody(tokens, groups, metaTokens, ranges)
	return Frame(entries, body, ranges)
}

func rewriteBody(tokens token.Sequence, groups []Group, metaTokens []token.Token, ranges token.Ranges) token.Sequence {
	replacement := make(map[int]token.Token)
	skip := make(map[int]int) // start -> length to skip
	patches := make(map[int][]token.Patch)
	for gi, g := range groups {
		for _, pos := range g.Positions {
			replacement[pos] = metaTokens[gi]
			skip[pos] = len(g.Definition)
			if len(g.Patches[pos]) > 0 {
				patches[pos] = g.Patches[pos]
			}
		}
	}

	body := make(token.Sequence, 0, len(tokens))
	i := 0
	for i < len(tokens) {
		if mt, ok := replacement[i]; ok {
			if ps, hasPatches := patches[i]; hasPatches {
				body = append(body, ranges.FuzzyMark, mt, token.Token(len(ps)))
				for _, p := range ps {
					body = append(body, token.Token(p.Offset), p.Replacement)
				}
			} else {
				body = append(body, mt)
			}
			i += skip[i]
			continue
		}
		body = append(body, tokens[i])
		i++
	}
	return body
}

// buildDictionarySection writes [DICT_START] [meta length def...]* [DICT_END].
func buildDictionarySection(entries []DictionaryEntry, ranges token.Ranges) token.Sequence {
	size := 2
	for _, e := range entries {
		size += 2 + len(e.Definition)
	}
	out := make(token.Sequence, 0, size)
	out = append(out, ranges.DictStart)
	for _, e := range entries {
		out = append(out, e.MetaToken, token.Token(len(e.Definition)))
		out = append(out, e.Definition...)
	}
	out = append(out, ranges.DictEnd)
	return out
}

// checkAcyclic runs a color-marking DFS over the definition graph (an
// entry points to every meta-token its definition mentions) and confirms
// that entries already appear in the topological order required by spec
// §3 and §4.4: every meta-token referenced in a definition must have a
// defined entry appearing earlier in entries.
func checkAcyclic(entries []DictionaryEntry, ranges token.Ranges) error {
	defined := make(map[token.Token]int, len(entries)) // meta-token -> index
	for i, e := range entries {
		defined[e.MetaToken] = i
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[token.Token]int, len(entries))
	var path []token.Token

	var visit func(mt token.Token) error
	visit = func(mt token.Token) error {
		switch color[mt] {
		case gray:
			return &errs.Cycle{Path: append(append([]token.Token{}, path...), mt)}
		case black:
			return nil
		}
		idx, ok := defined[mt]
		if !ok {
			return &errs.UndefinedMetaToken{MetaToken: mt}
		}
		color[mt] = gray
		path = append(path, mt)
		for _, t := range entries[idx].Definition {
			if ranges.IsMeta(t) {
				if err := visit(t); err != nil {
					return err
				}
			}
		}
		path = path[:len(path)-1]
		color[mt] = black
		return nil
	}

	for i, e := range entries {
		if color[e.MetaToken] == white {
			if err := visit(e.MetaToken); err != nil {
				return err
			}
		}
		// entries must reference only earlier entries: verify any
		// meta-token in this definition was defined at a smaller index.
		for _, t := range e.Definition {
			if ranges.IsMeta(t) {
				if di, ok := defined[t]; !ok || di >= i {
					if !ok {
						return &errs.UndefinedMetaToken{MetaToken: t}
					}
					return &errs.MalformedStream{Offset: i, Reason: "definition references a meta-token defined later in the stream"}
				}
			}
		}
	}
	return nil
}

// Deserialize reconstructs the original token sequence from stream, per
// spec §4.5. If stream contains no DICT_START, it is returned unchanged.
func Deserialize(stream token.Sequence, ranges token.Ranges) (token.Sequence, error) {
	start := indexOf(stream, ranges.DictStart)
	if start < 0 {
		return token.Clone(stream), nil
	}

	dict := make(map[token.Token]token.Sequence)
	order := make([]token.Token, 0)
	i := start + 1
	for {
		if i >= len(stream) {
			return nil, &errs.Truncated{Offset: i, Reason: "dictionary section missing DICT_END"}
		}
		if stream[i] == ranges.DictEnd {
			i++
			break
		}
		if i+1 >= len(stream) {
			return nil, &errs.Truncated{Offset: i, Reason: "dictionary entry missing length field"}
		}
		mt := stream[i]
		length := int(stream[i+1])
		defStart := i + 2
		def := make(token.Sequence, 0, length)
		pos := defStart
		for k := 0; k < length; k++ {
			if pos >= len(stream) || stream[pos] == ranges.DictEnd {
				return nil, &errs.Truncated{Offset: pos, Reason: "dictionary entry definition ended before its declared length"}
			}
			def = append(def, stream[pos])
			pos++
		}
		defEnd := pos
		if _, exists := dict[mt]; exists {
			return nil, &errs.MalformedStream{Offset: i, Reason: "duplicate meta-token entry"}
		}
		dict[mt] = def
		order = append(order, mt)
		i = defEnd
	}

	body := stream[i:]

	if err := verifyNoForwardReferences(dict, order, ranges); err != nil {
		return nil, err
	}

	cache, _ := lru.New[token.Token, token.Sequence](maxInt(len(dict), 1))

	return expandSequence(body, dict, cache, map[token.Token]bool{}, ranges, 0)
}

// applyPatches returns a copy of def with each patch's replacement applied
// at its offset. def comes from the memoization cache and must never be
// mutated in place, since patches vary per occurrence.
func applyPatches(def token.Sequence, patches []token.Patch) token.Sequence {
	if len(patches) == 0 {
		return def
	}
	out := token.Clone(def)
	for _, p := range patches {
		if p.Offset >= 0 && p.Offset < len(out) {
			out[p.Offset] = p.Replacement
		}
	}
	return out
}

func verifyNoForwardReferences(dict map[token.Token]token.Sequence, order []token.Token, ranges token.Ranges) error {
	seen := make(map[token.Token]bool, len(order))
	for _, mt := range order {
		def := dict[mt]
		for _, t := range def {
			if ranges.IsMeta(t) {
				if _, ok := dict[t]; !ok {
					return &errs.UndefinedMetaToken{MetaToken: t}
				}
				if !seen[t] {
					return &errs.MalformedStream{Reason: "definition references a meta-token defined later in the stream"}
				}
			}
		}
		seen[mt] = true
	}
	return nil
}

// expand recursively expands a meta-token into ordinary tokens, memoizing
// per meta-token via cache to guarantee linear total work (spec §4.5), and
// tracking the active recursion path in visiting to detect cycles with a
// color-marking depth-first expansion — decompression must be safe for
// arbitrary (possibly corrupt) input even though this system never
// produces cyclic streams itself.
func expand(mt token.Token, dict map[token.Token]token.Sequence, cache *lru.Cache[token.Token, token.Sequence], visiting map[token.Token]bool, ranges token.Ranges, offset int) (token.Sequence, error) {
	if v, ok := cache.Get(mt); ok {
		return v, nil
	}
	if visiting[mt] {
		return nil, &errs.Cycle{Path: []token.Token{mt}}
	}
	def, ok := dict[mt]
	if !ok {
		return nil, &errs.UndefinedMetaToken{MetaToken: mt, Offset: offset}
	}
	visiting[mt] = true

	out, err := expandSequence(def, dict, cache, visiting, ranges, offset)
	if err != nil {
		return nil, err
	}

	visiting[mt] = false
	cache.Add(mt, out)
	return out, nil
}

// expandSequence walks seq — either the stream body or a dictionary entry's
// own definition — replacing meta-tokens with their expansions and
// interpreting any FuzzyMark occurrence markers it finds along the way.
// A hierarchical pass can group a repeated FuzzyMark-tagged region into a
// new dictionary entry, so a marker can end up nested arbitrarily deep
// inside another entry's definition; expand calls back into this same
// function for every definition it expands, so markers are recognized no
// matter how deep the hierarchy buried them (spec §9, "fuzzy extension must
// not affect the round-trip invariant").
func expandSequence(seq token.Sequence, dict map[token.Token]token.Sequence, cache *lru.Cache[token.Token, token.Sequence], visiting map[token.Token]bool, ranges token.Ranges, baseOffset int) (token.Sequence, error) {
	out := make(token.Sequence, 0, len(seq))
	pos := 0
	for pos < len(seq) {
		t := seq[pos]
		occOffset := baseOffset + pos

		if t == ranges.FuzzyMark {
			if pos+2 >= len(seq) {
				return nil, &errs.Truncated{Offset: occOffset, Reason: "fuzzy occurrence marker missing meta-token or patch count"}
			}
			mt := seq[pos+1]
			count := int(seq[pos+2])
			patchStart := pos + 3
			ps := make([]token.Patch, 0, count)
			for k := 0; k < count; k++ {
				if patchStart+1 >= len(seq) {
					return nil, &errs.Truncated{Offset: baseOffset + patchStart, Reason: "fuzzy occurrence patch list ended before its declared count"}
				}
				ps = append(ps, token.Patch{Offset: int(seq[patchStart]), Replacement: seq[patchStart+1]})
				patchStart += 2
			}
			expanded, err := expand(mt, dict, cache, visiting, ranges, occOffset)
			if err != nil {
				return nil, err
			}
			out = append(out, applyPatches(expanded, ps)...)
			pos = patchStart
			continue
		}

		if !ranges.IsMeta(t) {
			out = append(out, t)
			pos++
			continue
		}
		expanded, err := expand(t, dict, cache, visiting, ranges, occOffset)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
		pos++
	}
	return out, nil
}

func indexOf(s token.Sequence, t token.Token) int {
	for i, v := range s {
		if v == t {
			return i
		}
	}
	return -1
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
