package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/GoMudEngine/npcchat/internal/mudlog"
)

var (
	ErrClientStopped = errors.New(`llm client stopped`)
	ErrQueueFull     = errors.New(`llm request queue full`)
)

// workerPool runs outbound requests on a fixed number of goroutines.
// Submit never blocks the caller.
type workerPool struct {
	size   int
	tasks  chan func()
	lock   sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func newWorkerPool(workers int, queueSize int) *workerPool {
	if workers < 1 {
		workers = 1
	}

	p := &workerPool{
		size:  workers,
		tasks: make(chan func(), queueSize),
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.work(i)
	}

	return p
}

func (p *workerPool) work(workerNum int) {
	defer p.wg.Done()
	for task := range p.tasks {
		p.run(workerNum, task)
	}
}

func (p *workerPool) run(workerNum int, task func()) {
	defer func() {
		if r := recover(); r != nil {
			mudlog.Error("LLM", "worker", workerNum, "panic", fmt.Sprint(r))
		}
	}()
	task()
}

func (p *workerPool) Submit(task func()) error {
	p.lock.RLock()
	defer p.lock.RUnlock()

	if p.closed {
		return ErrClientStopped
	}

	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop refuses new work and waits for queued work to finish, or for ctx to end.
// Whatever is still running when ctx ends is abandoned.
func (p *workerPool) Stop(ctx context.Context) error {
	p.lock.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.lock.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
