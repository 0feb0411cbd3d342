package orchestrate

import (
	"os"
	"path/filepath"

	"github.com/ARDIEY21/unblob/chunk"
	"github.com/ARDIEY21/unblob/pool"
	"github.com/ARDIEY21/unblob/report"
)

// ProcessFile is the top-level entrypoint: it seeds the pool with a root
// Task for path, drains results into one aggregated report.Reports, and
// returns once every discovered sub-artifact has been processed. Grounded
// on processing.py's process_file.
func ProcessFile(config ExtractionConfig, path string) (*report.Reports, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	root := path
	if !info.IsDir() {
		root = filepath.Dir(path)
	}

	rootTask := chunk.Task{Root: root, Path: path, Depth: 0}

	processor := NewProcessor(config)
	allReports := &report.Reports{}

	// handle consults the ledger before doing any real work, so a Task a
	// prior, interrupted run already finished is skipped rather than
	// redone; onDone below then records every Task's completion.
	handle := processor.ProcessTask
	if config.Ledger != nil {
		handle = func(t chunk.Task) chunk.TaskResult {
			if done, err := config.Ledger.IsDone(t); err == nil && done {
				return *chunk.NewTaskResult(t)
			}
			return processor.ProcessTask(t)
		}
	}

	onDone := func(res chunk.TaskResult) {
		allReports.Extend(res.Reports)
		if config.Ledger != nil {
			if err := config.Ledger.MarkDone(res.Task); err != nil {
				allReports.AddReport(report.UnknownErrorReport(res.Task.Path, err))
			}
		}
	}

	p := pool.New(config.Workers, handle, onDone)
	p.ProcessUntilDone([]chunk.Task{rootTask})

	if config.Manifest != nil {
		if err := config.Manifest.Write(config.ExtractRoot); err != nil {
			allReports.AddReport(report.UnknownErrorReport(config.ExtractRoot, err))
		}
	}

	return allReports, nil
}
