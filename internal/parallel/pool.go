// Package parallel provides the row fan-out used by the merge kernel.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool is a pool of goroutines for row-parallel pixel work.
//
// The pool distributes work items across multiple workers, each with their own
// queue. Workers can steal work from other workers when their own queue is empty.
// This helps balance load when some row ranges finish faster than others.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	// workers is the number of worker goroutines.
	workers int

	// workQueues holds per-worker work queues.
	// Each worker primarily pulls from its own queue but can steal from others.
	workQueues []chan func()

	// done signals workers to stop.
	done chan struct{}

	// wg waits for all workers to finish.
	wg sync.WaitGroup

	// submitMu orders enqueueing against Close: ExecuteAll holds it shared
	// while sending, Close holds it exclusively while closing done.
	submitMu sync.RWMutex

	// running indicates whether the pool is accepting work.
	running atomic.Bool
}

// NewWorkerPool creates a new worker pool with the specified number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
// The pool starts immediately and workers begin waiting for work.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	queueSize := workers * 4
	if queueSize < 8 {
		queueSize = 8
	}

	p := &WorkerPool{
		workers:    workers,
		workQueues: make([]chan func(), workers),
		done:       make(chan struct{}),
	}

	for i := range workers {
		p.workQueues[i] = make(chan func(), queueSize)
	}

	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}

	return p
}

// worker is the main loop for each worker goroutine.
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	myQueue := p.workQueues[id]

	for {
		select {
		case <-p.done:
			p.drainQueue(myQueue)
			return

		case work := <-myQueue:
			if work != nil {
				work()
			}

		default:
			if stolen := p.steal(id); stolen != nil {
				stolen()
				continue
			}
			// Nothing anywhere, block on own queue.
			select {
			case <-p.done:
				p.drainQueue(myQueue)
				return
			case work := <-myQueue:
				if work != nil {
					work()
				}
			}
		}
	}
}

// drainQueue executes all remaining work in a queue.
func (p *WorkerPool) drainQueue(queue chan func()) {
	for {
		select {
		case work := <-queue:
			if work != nil {
				work()
			}
		default:
			return
		}
	}
}

// steal attempts to take work from another worker's queue.
// Returns nil if no work is available.
func (p *WorkerPool) steal(myID int) func() {
	for i := range p.workers {
		if i == myID {
			continue
		}

		select {
		case work := <-p.workQueues[i]:
			return work
		default:
		}
	}
	return nil
}

// ExecuteAll distributes work across workers and waits for all to complete.
// Work submitted after Close runs on the calling goroutine. Close may run
// concurrently with ExecuteAll; items already queued are drained by their
// workers, so every item has executed when ExecuteAll returns.
func (p *WorkerPool) ExecuteAll(work []func()) {
	if len(work) == 0 {
		return
	}

	p.submitMu.RLock()
	if !p.running.Load() {
		p.submitMu.RUnlock()
		for _, fn := range work {
			fn()
		}
		return
	}

	var completionWG sync.WaitGroup
	completionWG.Add(len(work))

	for i, fn := range work {
		p.workQueues[i%p.workers] <- func() {
			defer completionWG.Done()
			fn()
		}
	}
	p.submitMu.RUnlock()

	completionWG.Wait()
}

// ForRows splits [0, height) into contiguous ranges of at most chunk rows and
// calls fn once per range, in parallel. Ranges never overlap, so fn may write
// the rows it is given without locking. A chunk of 0 or less picks one range
// per worker task slot (four per worker).
//
// ForRows blocks until every range has been processed.
func (p *WorkerPool) ForRows(height, chunk int, fn func(y0, y1 int)) {
	if height <= 0 {
		return
	}
	if chunk <= 0 {
		chunk = RowChunk(height, p.workers)
	}
	if p.workers == 1 || chunk >= height || !p.running.Load() {
		fn(0, height)
		return
	}

	work := make([]func(), 0, (height+chunk-1)/chunk)
	for y0 := 0; y0 < height; y0 += chunk {
		y1 := min(y0+chunk, height)
		work = append(work, func() { fn(y0, y1) })
	}
	p.ExecuteAll(work)
}

// RowChunk returns the default rows-per-task for height rows on workers
// goroutines: four tasks per worker so stealing can even out slow ranges.
func RowChunk(height, workers int) int {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	tasks := workers * 4
	chunk := (height + tasks - 1) / tasks
	if chunk < 1 {
		chunk = 1
	}
	return chunk
}

// Close gracefully shuts down the pool.
// It stops accepting new work, waits for all queued work to complete,
// and then stops all workers.
// Close is safe to call multiple times and while ExecuteAll is running.
func (p *WorkerPool) Close() {
	p.submitMu.Lock()
	if !p.running.CompareAndSwap(true, false) {
		p.submitMu.Unlock()
		return
	}
	close(p.done)
	p.submitMu.Unlock()

	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning returns true if the pool is still accepting work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}
