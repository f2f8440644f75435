package tasks

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
)

const (
	// DefaultWorkers is the pool size when none is configured.
	DefaultWorkers = 4

	// MaxWorkers caps the pool size; more buys nothing against rate-limited
	// upstreams.
	MaxWorkers = 16

	// queueDepth buffers submissions per worker before Submit starts
	// spawning units directly.
	queueDepth = 16
)

// Pool runs pipeline units on a fixed set of workers fed by a buffered
// queue. Request acceptance never blocks on pipeline work: when the queue is
// full, Submit degrades to spawning the unit in its own goroutine rather
// than stalling or dropping it.
type Pool struct {
	units  chan func(context.Context)
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *log.Logger
}

// NewPool starts workers and returns the pool. The worker count is clamped
// to [1, MaxWorkers]; non-positive values fall back to DefaultWorkers.
func NewPool(workers int, logger *log.Logger) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > MaxWorkers {
		workers = MaxWorkers
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		units:  make(chan func(context.Context), workers*queueDepth),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case unit, ok := <-p.units:
			if !ok {
				return
			}
			unit(p.ctx)
		}
	}
}

// Submit hands a unit to the pool without ever blocking the caller. Units
// receive the pool context; shutdown cancels it for in-flight work. Units
// submitted after shutdown are dropped.
func (p *Pool) Submit(unit func(context.Context)) {
	select {
	case <-p.ctx.Done():
		if p.logger != nil {
			p.logger.Warn("pool is shut down, dropping unit")
		}
		return
	default:
	}

	select {
	case p.units <- unit:
	default:
		// Queue full: overflow into a dedicated goroutine.
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			unit(p.ctx)
		}()
	}
}

// Shutdown cancels the pool context and waits for workers and overflow units
// to finish, up to the deadline of ctx.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.cancel()

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
