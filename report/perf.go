package report

import "time"

// PerfCounter times a pipeline phase and, on Stop, appends an INFO report
// carrying the duration. It is the Go analogue of the original
// implementation's Speedscope-feeding PerfCounter: this repo does not emit
// a Speedscope profile (out of scope, see spec.md §1), but the per-phase
// timing hook it relied on is cheap to keep and useful to any report
// consumer that wants phase latencies.
type PerfCounter struct {
	name    string
	details map[string]interface{}
	start   time.Time
	target  Appender
}

// Appender is satisfied by anything that can receive a Report, in
// particular *chunk.TaskResult. Kept as an interface here (rather than
// importing chunk, which imports report) to avoid a dependency cycle.
type Appender interface {
	AddReport(Report)
}

// NewPerfCounter starts timing name against target, recording the optional
// key/value pairs in details when it stops.
func NewPerfCounter(target Appender, name string, details map[string]interface{}) *PerfCounter {
	return &PerfCounter{
		target:  target,
		name:    name,
		details: details,
		start:   time.Now(),
	}
}

// Stop records the elapsed duration as an INFO report on the bound target.
func (p *PerfCounter) Stop() {
	elapsed := time.Since(p.start)
	details := map[string]interface{}{"duration_ms": elapsed.Milliseconds()}
	for k, v := range p.details {
		details[k] = v
	}
	p.target.AddReport(Report{
		Severity: SeverityInfo,
		Kind:     KindPerf,
		Message:  p.name,
		Details:  details,
	})
}
