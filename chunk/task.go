package chunk

import (
	"github.com/ARDIEY21/unblob/report"
)

// Task is a unit of work for the pool: "process this path at this depth
// under this root." Root is the original input root; Path is the current
// artifact (which may itself be a carved sub-artifact). Once submitted a
// Task is never mutated.
type Task struct {
	Root  string
	Path  string
	Depth int
}

// TaskResult is the whole-value result shipped back across the worker
// boundary: the reports produced while processing Task, and any new Tasks
// the processing discovered (directory children, extracted sub-artifacts).
// It is mutated only by the worker executing Task.
type TaskResult struct {
	Task     Task
	Reports  []report.Report
	NewTasks []Task
}

// NewTaskResult returns an empty TaskResult bound to task.
func NewTaskResult(task Task) *TaskResult {
	return &TaskResult{Task: task}
}

// AddReport appends a report to the result in the order it was produced.
func (r *TaskResult) AddReport(rep report.Report) {
	r.Reports = append(r.Reports, rep)
}

// AddNewTask enqueues a child task to be submitted once this result is
// handed back to the pool coordinator.
func (r *TaskResult) AddNewTask(t Task) {
	r.NewTasks = append(r.NewTasks, t)
}
