// Package reconcile removes chunks nested inside larger chunks and computes
// the gap regions between what remains. Grounded directly on
// original_source/unblob/processing.py's remove_inner_chunks and
// calculate_unknown_chunks.
package reconcile

import (
	"sort"

	"github.com/ARDIEY21/unblob/chunk"
)

// RemoveInnerChunks removes every chunk that lies within another, larger
// chunk. Complexity is O(n^2), acceptable because per-file chunk counts are
// small. Ties (equal size) keep discovery order, since sort.SliceStable is
// used and only a strict Contains (strict `<` on start) ever discards one.
func RemoveInnerChunks(chunks []chunk.ValidChunk) []chunk.ValidChunk {
	if len(chunks) == 0 {
		return nil
	}

	bySize := make([]chunk.ValidChunk, len(chunks))
	copy(bySize, chunks)
	sort.SliceStable(bySize, func(i, j int) bool {
		return bySize[i].Size() > bySize[j].Size()
	})

	outer := []chunk.ValidChunk{bySize[0]}
	for _, c := range bySize[1:] {
		contained := false
		for _, o := range outer {
			if o.Contains(c.Chunk) {
				contained = true
				break
			}
		}
		if !contained {
			outer = append(outer, c)
		}
	}
	return outer
}

// CalculateUnknownChunks computes the gaps between the given (already
// reconciled, non-overlapping) chunks and the edges of a file of fileSize
// bytes. It is invariant under reordering of chunks, since the input is
// re-sorted by start offset before gaps are derived.
func CalculateUnknownChunks(chunks []chunk.ValidChunk, fileSize int64) []chunk.UnknownChunk {
	if len(chunks) == 0 || fileSize == 0 {
		return nil
	}

	sorted := make([]chunk.ValidChunk, len(chunks))
	copy(sorted, chunks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var gaps []chunk.UnknownChunk

	first := sorted[0]
	if first.Start != 0 {
		gaps = append(gaps, mustGap(0, first.Start))
	}

	for i := 0; i < len(sorted)-1; i++ {
		cur, next := sorted[i], sorted[i+1]
		if next.Start > cur.End {
			gaps = append(gaps, mustGap(cur.End, next.Start))
		}
	}

	last := sorted[len(sorted)-1]
	if last.End < fileSize {
		gaps = append(gaps, mustGap(last.End, fileSize))
	}

	return gaps
}

func mustGap(start, end int64) chunk.UnknownChunk {
	c, err := chunk.New(start, end)
	if err != nil {
		// Gaps are derived from already-validated chunk boundaries and a
		// known file size; a malformed gap here means an invariant
		// elsewhere (chunk ordering, overlap) was violated.
		panic(err)
	}
	return chunk.UnknownChunk{Chunk: c}
}
