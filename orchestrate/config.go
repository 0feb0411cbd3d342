// Package orchestrate drives a single input path through the full
// extraction pipeline: directory walking, pattern search, chunk
// reconciliation, carving, extraction and entropy analysis, resubmitting
// discovered sub-artifacts as new Tasks. Grounded directly on
// original_source/unblob/processing.py's ExtractionConfig/process_file/
// Processor/_FileTask.
package orchestrate

import (
	"runtime"

	"github.com/ARDIEY21/unblob/handler"
	"github.com/ARDIEY21/unblob/ledger"
	"github.com/ARDIEY21/unblob/manifest"
	"github.com/ARDIEY21/unblob/persist"
)

const defaultMaxDepth = 10

// ExtractionConfig holds the run-wide settings a Processor consults on
// every Task, mirroring processing.py's ExtractionConfig dataclass.
type ExtractionConfig struct {
	ExtractRoot         string
	EntropyDepth        int
	EntropyPlot         bool
	MaxDepth            int
	Workers             int
	KeepExtractedChunks bool
	Handlers            handler.Handlers
	Logger              *persist.Logger
	Verbosity           int

	// Manifest, if non-nil, accumulates every carved chunk's content hash
	// and is written to ExtractRoot/MANIFEST.json at the end of ProcessFile.
	Manifest *manifest.Manifest

	// Ledger, if non-nil, is consulted before a Task is processed (skipping
	// work a prior, interrupted run already finished) and updated once a
	// Task completes, so a killed run can resume without redoing it.
	Ledger *ledger.Ledger
}

// DefaultConfig returns an ExtractionConfig with the teacher-style defaults:
// max depth 10, one worker per CPU, no entropy plot, nothing kept after
// extraction, and a fresh Manifest so every run produces a MANIFEST.json
// unless the caller clears the field. Callers override fields (extract
// root, handlers) before use.
func DefaultConfig() ExtractionConfig {
	return ExtractionConfig{
		MaxDepth: defaultMaxDepth,
		Workers:  runtime.NumCPU(),
		Manifest: manifest.New(),
	}
}
