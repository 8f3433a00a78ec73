// Package errs defines the error taxonomy from the compression engine's
// error handling design: one exported type per failure kind, each carrying
// enough context (an offset, an offending token) to let a caller report
// exactly where a stream went wrong.
package errs

import "fmt"

// ConfigInvalid signals contradictory or out-of-range configuration, such
// as max_subsequence_length < min_subsequence_length or an exhausted meta
// range.
type ConfigInvalid struct {
	Reason string
}

func (e *ConfigInvalid) Error() string { return "ltsc: config invalid: " + e.Reason }

// TokenRangeCollision signals that an ordinary input token landed inside
// the meta or control range.
type TokenRangeCollision struct {
	Token    uint32
	Position int
}

func (e *TokenRangeCollision) Error() string {
	return fmt.Sprintf("ltsc: token range collision: token %#x at position %d falls in the reserved range", e.Token, e.Position)
}

// MemoryExceeded signals that an estimated buffer size exceeded the
// configured cap before any allocation was attempted.
type MemoryExceeded struct {
	Estimated uint64
	Limit     uint64
}

func (e *MemoryExceeded) Error() string {
	return fmt.Sprintf("ltsc: memory exceeded: estimated %d bytes exceeds limit %d", e.Estimated, e.Limit)
}

// MalformedStream signals a corrupt dictionary section detected at a
// specific token offset during decompression.
type MalformedStream struct {
	Offset int
	Reason string
}

func (e *MalformedStream) Error() string {
	return fmt.Sprintf("ltsc: malformed stream at offset %d: %s", e.Offset, e.Reason)
}

// UndefinedMetaToken signals that the body, or another entry's definition,
// referenced a meta-token with no earlier dictionary entry.
type UndefinedMetaToken struct {
	MetaToken uint32
	Offset    int
}

func (e *UndefinedMetaToken) Error() string {
	return fmt.Sprintf("ltsc: undefined meta-token %#x referenced at offset %d", e.MetaToken, e.Offset)
}

// Cycle signals a back-edge in the dictionary's definition graph.
type Cycle struct {
	Path []uint32
}

func (e *Cycle) Error() string {
	return fmt.Sprintf("ltsc: cycle detected in dictionary definitions: %v", e.Path)
}

// Truncated signals a stream that ended mid-entry or mid-definition.
type Truncated struct {
	Offset int
	Reason string
}

func (e *Truncated) Error() string {
	return fmt.Sprintf("ltsc: truncated stream at offset %d: %s", e.Offset, e.Reason)
}

// VerificationFailure signals that config.Verify was set and the
// round-trip decompress(compress(T)) did not reproduce T.
type VerificationFailure struct {
	FirstDiffOffset int
}

func (e *VerificationFailure) Error() string {
	return fmt.Sprintf("ltsc: verification failed: first differing offset %d", e.FirstDiffOffset)
}
