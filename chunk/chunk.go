// Package chunk defines the byte-range value types shared by every stage of
// the extraction pipeline: Chunk, ValidChunk, UnknownChunk, Task and
// TaskResult.
package chunk

import (
	"fmt"

	"github.com/dchest/blake2b"

	"github.com/ARDIEY21/unblob/report"
)

// Chunk is a half-open byte range [Start, End) within a blob.
type Chunk struct {
	Start int64
	End   int64
}

// New validates and returns a Chunk. It fails with ErrInvalidInputFormat if
// the bounds are malformed.
func New(start, end int64) (Chunk, error) {
	c := Chunk{Start: start, End: end}
	if start < 0 || end < 0 {
		return Chunk{}, fmt.Errorf("%w: chunk has negative offset: %s", report.ErrInvalidInputFormat, c)
	}
	if start >= end {
		return Chunk{}, fmt.Errorf("%w: chunk has start_offset >= end_offset: %s", report.ErrInvalidInputFormat, c)
	}
	return c, nil
}

// Size returns End - Start.
func (c Chunk) Size() int64 {
	return c.End - c.Start
}

// RangeHex renders the chunk as "0x{start:x}-0x{end:x}", lowercase and
// unpadded, matching the carved filename convention.
func (c Chunk) RangeHex() string {
	return fmt.Sprintf("0x%x-0x%x", c.Start, c.End)
}

// Contains reports whether other lies strictly within c: c starts before
// other and ends at or after other's end.
func (c Chunk) Contains(other Chunk) bool {
	return c.Start < other.Start && c.End >= other.End
}

// ContainsOffset reports whether offset falls within [Start, End).
func (c Chunk) ContainsOffset(offset int64) bool {
	return c.Start <= offset && offset < c.End
}

func (c Chunk) String() string {
	return c.RangeHex()
}

// ValidChunk is a Chunk a Handler has validated as belonging to a known
// artifact type. It is produced during chunk discovery and consumed by the
// carver; it is never mutated afterward.
type ValidChunk struct {
	Chunk
	HandlerName string
	IsEncrypted bool
}

// UnknownChunk is a Chunk with no owning handler: a gap between valid
// chunks, or an entire file no handler matched.
type UnknownChunk struct {
	Chunk
}

// ContentHash returns a blake2b-256 hash of data, used as a ValidChunk's
// identity for the run manifest and the Merkle tamper-evidence root.
func ContentHash(data []byte) [32]byte {
	return blake2b.Sum256(data)
}
