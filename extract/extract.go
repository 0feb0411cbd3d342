// Package extract drives a Handler's external (or in-process) extractor
// against a carved ValidChunk and normalizes its output directory.
// Grounded on original_source/unblob/models.py's ValidChunk.extract /
// Handler.extract and processing.py's _FileTask._extract_chunk.
package extract

import (
	"errors"
	"fmt"
	"os"

	"github.com/ARDIEY21/unblob/chunk"
	"github.com/ARDIEY21/unblob/handler"
	"github.com/ARDIEY21/unblob/report"
)

// Run drives h's extractor against the carved file at inpath, placing
// output in outdir (which must not already exist), and appends any
// resulting reports to result. It always calls FixExtractedDirectory on
// outdir afterward, even on failure, so partial output stays consistent.
// If outdir exists once finished, it returns true so the caller can enqueue
// a child Task.
func Run(h handler.Handler, vc chunk.ValidChunk, inpath, outdir string, result report.Appender) (enqueueChild bool) {
	if vc.IsEncrypted {
		result.AddReport(report.Report{
			Severity:   report.SeverityWarning,
			Kind:       report.KindExtractError,
			Path:       inpath,
			ChunkRange: vc.RangeHex(),
			Message:    "encrypted chunk is not extracted",
		})
		return false
	}

	ext := h.Extractor()
	if ext == nil {
		result.AddReport(report.Report{
			Severity:   report.SeverityInfo,
			Kind:       report.KindInfo,
			Path:       inpath,
			ChunkRange: vc.RangeHex(),
			Message:    "no extractor for handler " + h.Name() + "; skipping",
		})
		return false
	}

	if err := os.Mkdir(outdir, 0755); err != nil {
		result.AddReport(report.UnknownErrorReport(inpath, fmt.Errorf("extract: output directory collision: %w", err)))
		return false
	}

	if err := ext.Extract(inpath, outdir); err != nil {
		var extErr *report.ExtractError
		if errors.As(err, &extErr) {
			for _, rep := range extErr.Reports {
				result.AddReport(rep)
			}
		} else {
			result.AddReport(report.UnknownErrorReport(inpath, err))
		}
	}

	FixExtractedDirectory(outdir, result)

	if _, err := os.Stat(outdir); err == nil {
		return true
	}
	return false
}
