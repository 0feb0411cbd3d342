// Package handler defines the contract that format-specific handlers
// implement, and the priority-tiered registry the pattern finder and
// dispatcher consume. Handler bodies themselves (dozens of real formats)
// are out of scope, per spec.md §1 — this package only the interface they
// implement, plus a small registry mirroring the teacher's
// models.Handlers / with_prepended design (original_source/unblob/models.py).
package handler

import (
	"io"

	"github.com/ARDIEY21/unblob/chunk"
)

// Pattern is a byte pattern the finder scans for. Bytes with Wildcard set
// match any byte at that position, giving handlers a simple way to declare
// masked magic numbers without carrying a full regex-over-bytes engine.
type Pattern struct {
	Bytes    []byte
	Wildcard []bool // same length as Bytes; true marks a don't-care byte
}

// Literal returns a Pattern with no wildcard positions.
func Literal(b []byte) Pattern {
	return Pattern{Bytes: b}
}

// Extractor is the optional capability a Handler may expose: invoking an
// external (or in-process) unpacker against a carved chunk. A Handler with
// no Extractor returns nil from its Extractor() method rather than
// inheriting a default that raises, per spec.md §9.
type Extractor interface {
	// Dependencies returns the external command names this extractor needs
	// to be available on PATH. Empty for in-process extractors.
	Dependencies() []string
	// Extract unpacks inpath into outdir, which the caller has already
	// created. It must fail with a report.ExtractError on failure.
	Extract(inpath, outdir string) error
}

// Handler recognizes, validates and (optionally) extracts one artifact
// type.
type Handler interface {
	// Name is a unique identifier, used verbatim in carved filenames.
	Name() string
	// Patterns are scanned by the finder; a match at a raw offset is
	// adjusted by MatchOffset before CalculateChunk is invoked.
	Patterns() []Pattern
	// MatchOffset is added to a raw pattern-match offset to locate the
	// artifact's true start (a pattern's magic bytes are not always at
	// offset 0 of the header).
	MatchOffset() int64
	// CalculateChunk parses the header (and handler-specific trailer) of
	// the artifact starting at startOffset within file, returning the
	// chunk it occupies. A (nil, nil) return means "pattern matched, but
	// this isn't really an instance of the format" (discard silently). A
	// non-nil error means the candidate was actively rejected (should wrap
	// report.ErrInvalidInputFormat for a debug-level report).
	CalculateChunk(file io.ReaderAt, startOffset int64) (*chunk.ValidChunk, error)
	// Extractor returns the handler's extractor, or nil if this format has
	// none (e.g. it is only useful for carving, not unpacking).
	Extractor() Extractor
}

// Dependencies returns the external command dependencies of h, empty if h
// has no extractor.
func Dependencies(h Handler) []string {
	if e := h.Extractor(); e != nil {
		return e.Dependencies()
	}
	return nil
}
