package pool

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/ARDIEY21/unblob/chunk"
)

// HandlerFunc processes one Task and returns its TaskResult. It must not
// itself call Pool.Submit — new tasks are returned via TaskResult.NewTasks
// and enqueued by the coordinator after ResultFunc runs, keeping all
// submission on a single goroutine.
type HandlerFunc func(t chunk.Task) chunk.TaskResult

// ResultFunc is invoked once per completed Task, always on the coordinator
// goroutine (never from inside a worker), so it may safely mutate shared
// aggregation state such as a report.Reports or a ledger without its own
// locking. Grounded on spec.md §4.7's "owner thread drains the result
// channel, invokes result_callback" contract.
type ResultFunc func(res chunk.TaskResult)

// Pool runs Tasks across N workers (or inline when Workers == 1) and drains
// their results on the coordinator goroutine, dispatching ResultFunc and
// tracking outstanding work until ProcessUntilDone's submitted-but-not-
// completed count reaches zero.
type Pool struct {
	workers int
	handle  HandlerFunc
	onDone  ResultFunc

	rg *RunGroup

	tasks   chan chunk.Task
	results chan chunk.TaskResult

	mu          sync.Mutex
	outstanding int
	submitDone  bool
}

// New constructs a Pool with workers parallel workers (workers == 1 selects
// the inline, deterministic-order fast path used for debugging).
func New(workers int, handle HandlerFunc, onDone ResultFunc) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		workers: workers,
		handle:  handle,
		onDone:  onDone,
		rg:      NewRunGroup(),
		tasks:   make(chan chunk.Task, workers*4),
		results: make(chan chunk.TaskResult, workers*4),
	}
}

// Submit enqueues t for processing. It may be called at any time, including
// from within ResultFunc. It returns ErrStopped if the pool is shutting
// down.
func (p *Pool) Submit(t chunk.Task) error {
	p.mu.Lock()
	if p.submitDone {
		p.mu.Unlock()
		return ErrStopped
	}
	p.outstanding++
	p.mu.Unlock()

	select {
	case p.tasks <- t:
		return nil
	case <-p.rg.StopChan():
		p.mu.Lock()
		p.outstanding--
		p.mu.Unlock()
		return ErrStopped
	}
}

// ProcessUntilDone starts workers (or runs inline for a single worker),
// installs a SIGINT/SIGTERM handler for graceful termination, and blocks
// until the outstanding-task counter reaches zero. It always leaves the
// pool stopped on return, per the scoped-acquisition contract in spec.md
// §4.7: entering runs workers, returning guarantees they are stopped.
func (p *Pool) ProcessUntilDone(seed []chunk.Task) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	done := make(chan struct{})
	go func() {
		select {
		case <-sigCh:
			p.rg.Stop()
		case <-done:
		}
	}()
	defer close(done)

	if p.workers == 1 {
		p.runInline(seed)
		return
	}
	p.runParallel(seed)
}

// runInline processes tasks one at a time in submission order on the
// calling goroutine, for deterministic, debuggable single-worker runs.
func (p *Pool) runInline(seed []chunk.Task) {
	queue := append([]chunk.Task(nil), seed...)
	p.outstanding = len(queue)

	for len(queue) > 0 {
		if p.stopRequested() {
			break
		}

		t := queue[0]
		queue = queue[1:]

		res := p.handle(t)
		p.onDone(res)
		p.outstanding += len(res.NewTasks) - 1
		queue = append(queue, res.NewTasks...)
	}

	p.mu.Lock()
	p.submitDone = true
	p.mu.Unlock()
	p.rg.Stop()
}

func (p *Pool) stopRequested() bool {
	select {
	case <-p.rg.StopChan():
		return true
	default:
		return false
	}
}

// runParallel starts p.workers goroutines pulling from p.tasks, feeding
// p.results, while the calling goroutine drains results and dispatches
// ResultFunc, resubmitting any new tasks the callback (indirectly, via
// TaskResult.NewTasks) produces.
func (p *Pool) runParallel(seed []chunk.Task) {
	var workerWG sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		workerWG.Add(1)
		go func() {
			defer workerWG.Done()
			for {
				select {
				case t, ok := <-p.tasks:
					if !ok {
						return
					}
					p.results <- p.handle(t)
				case <-p.rg.StopChan():
					return
				}
			}
		}()
	}

	go func() {
		workerWG.Wait()
		close(p.results)
	}()

	p.mu.Lock()
	p.outstanding = len(seed)
	p.mu.Unlock()
	for _, t := range seed {
		select {
		case p.tasks <- t:
		case <-p.rg.StopChan():
		}
	}

drain:
	for {
		p.mu.Lock()
		remaining := p.outstanding
		p.mu.Unlock()
		if remaining <= 0 {
			break
		}

		select {
		case res, ok := <-p.results:
			if !ok {
				p.mu.Lock()
				p.outstanding = 0
				p.mu.Unlock()
				break drain
			}
			p.onDone(res)

			p.mu.Lock()
			p.outstanding--
			p.mu.Unlock()

			for _, nt := range res.NewTasks {
				if err := p.Submit(nt); err != nil {
					break
				}
			}
		case <-p.rg.StopChan():
			p.mu.Lock()
			p.submitDone = true
			p.mu.Unlock()
		}
	}

	p.mu.Lock()
	p.submitDone = true
	p.mu.Unlock()
	close(p.tasks)
	p.rg.Stop()
}
