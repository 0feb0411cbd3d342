package orchestrate

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ARDIEY21/unblob/carve"
	"github.com/ARDIEY21/unblob/chunk"
	"github.com/ARDIEY21/unblob/entropy"
	"github.com/ARDIEY21/unblob/extract"
	"github.com/ARDIEY21/unblob/finder"
	"github.com/ARDIEY21/unblob/reconcile"
	"github.com/ARDIEY21/unblob/report"
)

// recordManifestEntry reads back a carved file and adds it to cfg.Manifest,
// if the run has one configured. Errors reading the carved file are
// reported rather than silently dropped, since a missing manifest entry
// would otherwise go unnoticed.
func recordManifestEntry(result *chunk.TaskResult, cfg ExtractionConfig, path string, add func(data []byte)) {
	if cfg.Manifest == nil {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		result.AddReport(report.UnknownErrorReport(path, err))
		return
	}
	add(data)
}

// Processor turns each Task into a TaskResult, catching any error that
// escapes a sub-step and converting it to an UnknownError report so the
// pool always receives a well-formed result, per spec.md §4.6.
type Processor struct {
	config ExtractionConfig
}

// NewProcessor returns a Processor bound to config.
func NewProcessor(config ExtractionConfig) *Processor {
	return &Processor{config: config}
}

// ProcessTask implements pool.HandlerFunc.
func (p *Processor) ProcessTask(t chunk.Task) chunk.TaskResult {
	result := chunk.NewTaskResult(t)

	perf := report.NewPerfCounter(result, "Process Task", nil)
	defer perf.Stop()

	func() {
		defer func() {
			if r := recover(); r != nil {
				result.AddReport(report.UnknownErrorReport(t.Path, panicToError(r)))
			}
		}()
		p.processTask(result, t)
	}()

	return *result
}

func panicToError(r interface{}) error {
	if err, ok := r.(error); ok {
		return err
	}
	return &panicValue{r}
}

type panicValue struct{ v interface{} }

func (p *panicValue) Error() string { return "panic: " + toString(p.v) }

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return "unknown panic value"
}

// processTask implements the Start/PathCheck/Stat branch of the state
// machine described in spec.md §4.6.
func (p *Processor) processTask(result *chunk.TaskResult, t chunk.Task) {
	if t.Depth >= p.config.MaxDepth {
		if p.config.Logger != nil {
			p.config.Logger.Debugf(p.config.Verbosity, 1, "path=%s reached maximum depth, stop further processing", t.Path)
		}
		return
	}

	if !validPath(t.Path) {
		result.AddReport(report.Report{
			Severity: report.SeverityWarning,
			Kind:     report.KindUnsafePath,
			Path:     t.Path,
			Message:  "path contains invalid characters, it won't be processed",
		})
		return
	}

	info, err := os.Lstat(t.Path)
	if err != nil {
		result.AddReport(report.UnknownErrorReport(t.Path, err))
		return
	}

	switch {
	case info.Mode().IsDir():
		p.processDir(result, t)
		return
	case info.Mode()&os.ModeSymlink != 0:
		return
	case info.Size() == 0:
		return
	}

	perf := report.NewPerfCounter(result, "Process Regular File", map[string]interface{}{"name": filepath.Base(t.Path)})
	defer perf.Stop()

	ft := &fileTask{config: p.config, task: t, size: info.Size(), result: result}
	ft.process()
}

func (p *Processor) processDir(result *chunk.TaskResult, t chunk.Task) {
	entries, err := os.ReadDir(t.Path)
	if err != nil {
		result.AddReport(report.UnknownErrorReport(t.Path, err))
		return
	}
	for _, e := range entries {
		result.AddNewTask(chunk.Task{
			Root:  t.Root,
			Path:  filepath.Join(t.Path, e.Name()),
			Depth: t.Depth,
		})
	}
}

// validPath rejects paths containing invalid UTF-8 or control characters
// that would break downstream tooling (shell invocations, filesystem
// calls), per spec.md §4.6's PathCheck step.
func validPath(path string) bool {
	if !utf8.ValidString(path) {
		return false
	}
	return !strings.ContainsFunc(path, func(r rune) bool {
		return r < 0x20 && r != '\t'
	})
}

// fileTask drives the Search/Reconcile/Branch/CarveUnknown/ExtractEach
// steps for one regular file, mirroring processing.py's _FileTask.
type fileTask struct {
	config ExtractionConfig
	task   chunk.Task
	size   int64
	result *chunk.TaskResult
}

func (ft *fileTask) process() {
	f, err := os.Open(ft.task.Path)
	if err != nil {
		ft.result.AddReport(report.UnknownErrorReport(ft.task.Path, err))
		return
	}
	defer f.Close()

	searchPerf := report.NewPerfCounter(ft.result, "Search Chunks", nil)
	allChunks, err := finder.Search(f, ft.size, ft.config.Handlers, ft.result)
	searchPerf.Stop()
	if err != nil {
		ft.result.AddReport(report.UnknownErrorReport(ft.task.Path, err))
		return
	}

	outer := reconcile.RemoveInnerChunks(allChunks)
	unknown := reconcile.CalculateUnknownChunks(outer, ft.size)

	if len(outer) == 0 && len(unknown) == 0 {
		perf := report.NewPerfCounter(ft.result, "Calculate Entropy", map[string]interface{}{"whole_file": true})
		ft.calculateEntropies([]string{ft.task.Path})
		perf.Stop()
		return
	}

	ft.processChunks(f, outer, unknown)
}

func (ft *fileTask) processChunks(f *os.File, outer []chunk.ValidChunk, unknown []chunk.UnknownChunk) {
	extractDir, err := carve.MakeExtractDir(ft.task.Root, ft.task.Path, ft.config.ExtractRoot)
	if err != nil {
		ft.result.AddReport(report.UnknownErrorReport(ft.task.Path, err))
		return
	}

	carvedUnknownPaths, err := carve.CarveUnknownChunks(extractDir, f, unknown)
	if err != nil {
		ft.result.AddReport(report.UnknownErrorReport(ft.task.Path, err))
	}

	for i, path := range carvedUnknownPaths {
		if i >= len(unknown) {
			break
		}
		c := unknown[i]
		recordManifestEntry(ft.result, ft.config, path, func(data []byte) {
			ft.config.Manifest.AddUnknownChunk(path, c, data)
		})
	}

	entropyPerf := report.NewPerfCounter(ft.result, "Calculate Entropy", map[string]interface{}{"whole_file": false})
	ft.calculateEntropies(carvedUnknownPaths)
	entropyPerf.Stop()

	for _, c := range outer {
		carvePerf := report.NewPerfCounter(ft.result, "Carve Valid Chunks", nil)
		ft.extractChunk(extractDir, f, c)
		carvePerf.Stop()
	}
}

func (ft *fileTask) calculateEntropies(paths []string) {
	if ft.task.Depth >= ft.config.EntropyDepth {
		return
	}
	for _, path := range paths {
		if _, err := entropy.CalculateEntropy(ft.config.Logger, path, ft.config.EntropyPlot); err != nil {
			ft.result.AddReport(report.UnknownErrorReport(path, err))
		}
	}
}

func (ft *fileTask) extractChunk(extractDir string, f *os.File, c chunk.ValidChunk) {
	carvedPath, err := carve.CarveValidChunk(extractDir, f, c)
	if err != nil {
		ft.result.AddReport(report.UnknownErrorReport(ft.task.Path, err))
		return
	}
	inpath, outdir := carve.GetExtractPaths(extractDir, carvedPath)

	recordManifestEntry(ft.result, ft.config, carvedPath, func(data []byte) {
		ft.config.Manifest.AddValidChunk(carvedPath, c, data)
	})

	h := findHandler(ft.config.Handlers, c.HandlerName)
	if h == nil {
		ft.result.AddReport(report.UnknownErrorReport(inpath, errHandlerMissing(c.HandlerName)))
		return
	}

	enqueue := extract.Run(h, c, inpath, outdir, ft.result)

	if !ft.config.KeepExtractedChunks {
		_ = os.Remove(inpath)
	}

	if enqueue {
		ft.result.AddNewTask(chunk.Task{
			Root:  ft.config.ExtractRoot,
			Path:  outdir,
			Depth: ft.task.Depth + 1,
		})
	}
}
