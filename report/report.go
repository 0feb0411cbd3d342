// Package report defines the structured reporting protocol produced by
// every pipeline stage and aggregated by the pool coordinator into a final
// exit code. It is grounded on the teacher's build.ComposeErrors /
// github.com/NebulousLabs/errors composition style and demotemutex-guarded
// aggregation.
package report

import (
	"errors"

	"github.com/NebulousLabs/demotemutex"
	nlerrors "github.com/NebulousLabs/errors"
)

// Severity classifies a Report. WARNING never elevates the process exit
// code; only ERROR does.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
	SeverityInfo    Severity = "INFO"
)

// Kind identifies the category of a Report for programmatic filtering.
type Kind string

const (
	KindInvalidInputFormat Kind = "invalid_input_format"
	KindExtractError       Kind = "extract_error"
	KindUnknownError       Kind = "unknown_error"
	KindMaxDepthReached    Kind = "max_depth_reached"
	KindUnsafePath         Kind = "unsafe_path"
	KindPerf               Kind = "perf"
	KindInfo               Kind = "info"
)

// Report is one structured finding produced while processing a Task.
type Report struct {
	Severity   Severity
	Kind       Kind
	Path       string
	ChunkRange string
	Message    string
	Details    map[string]interface{}
}

// Sentinel errors used throughout the pipeline. Handlers and internal
// stages return these (optionally wrapped) so that call sites can branch on
// errors.Is without string matching.
var (
	ErrInvalidInputFormat = errors.New("invalid input format")
	ErrUnsafePath         = errors.New("unsafe path")
)

// ExtractError carries the reports an extractor wants attached to the
// TaskResult when its invocation fails. It mirrors the teacher-adjacent
// Python ExtractError(*reports), letting the extractor driver collect
// structured detail instead of a bare error string.
type ExtractError struct {
	Reports []Report
	cause   error
}

func NewExtractError(cause error, reports ...Report) *ExtractError {
	return &ExtractError{Reports: reports, cause: cause}
}

func (e *ExtractError) Error() string {
	if e.cause != nil {
		return "extraction failed: " + e.cause.Error()
	}
	return "extraction failed"
}

func (e *ExtractError) Unwrap() error { return e.cause }

// UnknownErrorReport converts an arbitrary error caught at a task or
// sub-step boundary into a single ERROR-severity Report, composing
// multiple causes with github.com/NebulousLabs/errors when more than one
// error contributed.
func UnknownErrorReport(path string, errs ...error) Report {
	composed := nlerrors.Compose(errs...)
	msg := "unknown error"
	if composed != nil {
		msg = composed.Error()
	}
	return Report{
		Severity: SeverityError,
		Kind:     KindUnknownError,
		Path:     path,
		Message:  msg,
	}
}

// Reports is an ordered, append-only sequence of Report, safe for
// concurrent Extend calls from multiple producers while a reader takes a
// stable Snapshot — the aggregator is owned solely by the pool coordinator,
// but a status surface (statusapi) may read it concurrently while a run is
// in flight, hence the demoted lock instead of a plain mutex.
type Reports struct {
	mu   demotemutex.DemoteMutex
	list []Report
}

// Extend appends rs to the end of the sequence, preserving order.
func (r *Reports) Extend(rs []Report) {
	r.mu.Lock()
	r.list = append(r.list, rs...)
	r.mu.Unlock()
}

// Append appends a single report.
func (r *Reports) Append(rep Report) {
	r.mu.Lock()
	r.list = append(r.list, rep)
	r.mu.Unlock()
}

// AddReport satisfies Appender, letting a Reports aggregate itself stand in
// as a PerfCounter target for phases that aren't scoped to one Task.
func (r *Reports) AddReport(rep Report) {
	r.Append(rep)
}

// Snapshot returns a read-only copy of the accumulated reports so far. It
// takes only the read lock, so concurrent snapshots do not block each
// other; a snapshot does wait for an in-progress Extend or Append.
func (r *Reports) Snapshot() []Report {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Report, len(r.list))
	copy(out, r.list)
	return out
}

// severities returns the severities present across all reports, used to derive
// the process exit code.
func (r *Reports) severities() map[Severity]struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := make(map[Severity]struct{})
	for _, rep := range r.list {
		set[rep.Severity] = struct{}{}
	}
	return set
}

// ExitCode derives the process exit code from the accumulated reports:
// ERROR present -> 1; otherwise 0. WARNING never elevates the exit code.
func (r *Reports) ExitCode() int {
	severities := r.severities()
	if _, ok := severities[SeverityError]; ok {
		return 1
	}
	return 0
}
