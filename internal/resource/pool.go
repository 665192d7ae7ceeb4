package resource

import (
	"log"
	"sync"

	"github.com/19taurus79/EridonAPI/internal/logger"
	"github.com/19taurus79/EridonAPI/internal/serviceiface"
)

// WorkerPool runs CPU-bound table work (spreadsheet parsing, the auto-match
// pass) on a fixed set of workers so the HTTP serving goroutines stay
// responsive. There is no intra-task parallelism; a task is single-threaded
// within its worker.
type WorkerPool struct {
	workers int
	tasks   chan func()
	wg      sync.WaitGroup
	once    sync.Once
}

func NewWorkerPoolService(cfg map[string]interface{}) serviceiface.Service {
	workers := 4
	if v, ok := cfg["workers"]; ok {
		switch n := v.(type) {
		case int:
			workers = n
		case float64:
			workers = int(n)
		}
	}
	if workers < 1 {
		workers = 1
	}
	queue := workers * 8
	if v, ok := cfg["queue"]; ok {
		if n, ok := v.(int); ok && n > 0 {
			queue = n
		}
	}
	return &WorkerPool{workers: workers, tasks: make(chan func(), queue)}
}

func (p *WorkerPool) Name() string { return "workerpool" }

func (p *WorkerPool) Start() error {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogAudit("WorkerPool started")
	}
	log.Printf("Worker pool started with %d workers", p.workers)
	return nil
}

func (p *WorkerPool) Stop() error {
	p.once.Do(func() { close(p.tasks) })
	p.wg.Wait()
	return nil
}

func (p *WorkerPool) run() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
	}
}

// Submit queues a task, blocking when the queue is full. With a nil pool the
// task runs inline, which keeps handlers usable in tests.
func (p *WorkerPool) Submit(task func()) {
	if p == nil {
		task()
		return
	}
	p.tasks <- task
}

var (
	globalPool *WorkerPool
	poolOnce   sync.Once
)

func SetGlobalPool(p *WorkerPool) {
	poolOnce.Do(func() { globalPool = p })
}

func GlobalPool() *WorkerPool {
	return globalPool
}
