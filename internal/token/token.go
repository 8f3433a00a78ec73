// Package token defines the token type and the ordinary/meta/control range
// partitioning shared by every stage of the compression pipeline.
package token

import "github.com/tokseq/ltsc/internal/errs"

// Token is a single element of a compressed or uncompressed sequence.
type Token = uint32

// Sequence is an immutable, element-wise-comparable run of tokens. Callers
// must not mutate a Sequence obtained from this package's constructors;
// every function here returns freshly allocated backing arrays.
type Sequence []Token

// Equal reports whether two sequences contain the same tokens in the same
// order.
func Equal(a, b Sequence) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of s with its own backing array.
func Clone(s Sequence) Sequence {
	out := make(Sequence, len(s))
	copy(out, s)
	return out
}

// Patch is an inline (offset, replacement) correction applied to a
// fuzzy-matched occurrence's canonical definition at expansion time, per
// the optional near-duplicate discovery extension. Offset is relative to
// the start of the definition being patched.
type Patch struct {
	Offset      int
	Replacement Token
}

// Ranges partitions the 32-bit token space into ordinary, meta, and control
// values. It must be constructed via NewRanges, which enforces the
// non-overlap invariant demanded by the data model.
type Ranges struct {
	// MetaStart is the first token value reserved for meta-tokens
	// (config.next_meta_token). Meta-tokens are allocated upward from here.
	MetaStart Token
	// DictStart and DictEnd are the two fixed control tokens.
	DictStart Token
	DictEnd   Token
	// FuzzyMark prefixes a body reference to a fuzzy-matched occurrence
	// that needs patches applied after expansion (§4.9). Present even when
	// the fuzzy extension is disabled, since Ranges only describes the
	// token space partition, not which extensions a given call enables.
	FuzzyMark Token
}

// NewRanges validates and constructs a Ranges. It rejects only the fatal
// case: a control token coinciding with metaStart itself, or with another
// control token. The three control tokens legitimately sit inside the
// reserved meta-token tail with the defaults (0xFFFF0000, 0xFFFFFFF0,
// 0xFFFFFFF1, 0xFFFFFFF2) — that envelope is a ceiling on where
// meta-tokens may be drawn from, not a promise that every value in it is
// free. wire.AllocateEntries is responsible for excluding the control
// tokens from both its free-space count and its actual allocation.
func NewRanges(metaStart, dictStart, dictEnd, fuzzyMark Token) (Ranges, error) {
	if dictStart == dictEnd || dictStart == fuzzyMark || dictEnd == fuzzyMark {
		return Ranges{}, &errs.ConfigInvalid{Reason: "dict_start_token, dict_end_token and fuzzy_mark_token must all differ"}
	}
	r := Ranges{MetaStart: metaStart, DictStart: dictStart, DictEnd: dictEnd, FuzzyMark: fuzzyMark}
	if r.IsControl(metaStart) {
		return Ranges{}, &errs.ConfigInvalid{Reason: "next_meta_token collides with a control token"}
	}
	return r, nil
}

// IsControl reports whether t is one of the three fixed control tokens.
func (r Ranges) IsControl(t Token) bool {
	return t == r.DictStart || t == r.DictEnd || t == r.FuzzyMark
}

// IsReserved reports whether t falls in the meta range or is a control
// token — i.e. whether an ordinary input token with this value would be a
// TokenRangeCollision. Per the conservative reading recorded in
// SPEC_FULL.md §9, this is true for the entire tail of the space from
// MetaStart onward, not merely tokens actually allocated during a given
// call.
func (r Ranges) IsReserved(t Token) bool {
	return t >= r.MetaStart || r.IsControl(t)
}

// IsMeta reports whether t lies in the meta range (t >= MetaStart) and is
// not a control token. Ranges alone cannot tell an allocated
// meta-token from an unallocated one in the reserved tail; callers that
// need that distinction consult the dictionary map instead.
func (r Ranges) IsMeta(t Token) bool {
	return t >= r.MetaStart && !r.IsControl(t)
}
