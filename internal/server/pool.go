package server

import (
	"sync"
)

// workerPool bounds dispatcher concurrency. Each connection goroutine
// submits one task at a time and waits for its result, so the queue never
// grows past the number of live connections.
type workerPool struct {
	tasks chan func()
	wg    sync.WaitGroup
}

func newWorkerPool(size int) *workerPool {
	p := &workerPool{
		tasks: make(chan func(), size),
	}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for task := range p.tasks {
				task()
			}
		}()
	}
	return p
}

// Submit queues a task, blocking while all workers are busy and the queue
// is full.
func (p *workerPool) Submit(task func()) {
	p.tasks <- task
}

// Stop drains in-flight tasks and releases the workers. No Submit may be
// in flight or follow.
func (p *workerPool) Stop() {
	close(p.tasks)
	p.wg.Wait()
}
