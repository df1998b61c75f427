// File: internal/infra/worker/pool.go
package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// ErrQueueFull is returned by Submit when every worker is busy and the
// queue has no room.
var ErrQueueFull = errors.New("worker queue full")

type Task func(ctx context.Context) error

// Pool runs submitted tasks on a fixed number of goroutines. A task holds
// a slot from Submit until it returns.
type Pool struct {
	wg       sync.WaitGroup
	jobs     chan Task
	slots    chan struct{}
	quit     chan struct{}
	stopOnce sync.Once
	n        int
	log      *zerolog.Logger
}

// NewPool creates a pool of workers goroutines with room for queue tasks
// waiting behind them.
func NewPool(workers, queue int, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queue < 0 {
		queue = 0
	}
	capacity := workers + queue
	return &Pool{
		jobs:  make(chan Task, capacity),
		slots: make(chan struct{}, capacity),
		quit:  make(chan struct{}),
		n:     workers,
		log:   logger,
	}
}

func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-p.quit:
					return
				case task := <-p.jobs:
					if err := task(ctx); err != nil {
						p.log.Debug().Err(err).Int("worker", id).Msg("task finished with error")
					}
					<-p.slots
				}
			}
		}(i)
	}
}

// Stop waits for running tasks to return. Queued tasks are dropped.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.quit) })
	p.wg.Wait()
}

// Submit hands task to an idle worker or queues it, without blocking.
func (p *Pool) Submit(task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	select {
	case <-p.quit:
		return errors.New("worker pool stopped")
	default:
	}
	select {
	case p.slots <- struct{}{}:
	default:
		return ErrQueueFull
	}
	p.jobs <- task
	return nil
}
