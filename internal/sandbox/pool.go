package sandbox

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrPoolClosed     = errors.New("sandbox pool is closed")
	ErrAcquireTimeout = errors.New("sandbox acquisition timeout")
)

// Pool bounds the number of concurrent runs. Slots are reused, runtimes are
// not: every run still gets a fresh one.
type Pool struct {
	engine         *Engine
	slots          chan struct{}
	size           int
	acquireTimeout time.Duration

	active    atomic.Int64
	completed atomic.Int64

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewPool creates a pool running requests on engine
func NewPool(engine *Engine, size int, acquireTimeout time.Duration) *Pool {
	if size <= 0 {
		size = 4
	}
	if acquireTimeout <= 0 {
		acquireTimeout = 5 * time.Second
	}

	pool := &Pool{
		engine:         engine,
		slots:          make(chan struct{}, size),
		size:           size,
		acquireTimeout: acquireTimeout,
		done:           make(chan struct{}),
	}
	for i := 0; i < size; i++ {
		pool.slots <- struct{}{}
	}

	return pool
}

// NewPoolFromConfig builds the engine and the pool from cfg
func NewPoolFromConfig(cfg Config) *Pool {
	return NewPool(NewEngine(cfg.Limits), cfg.MaxParallel, cfg.AcquireTimeout)
}

// Acquire takes a slot, waiting at most the acquire timeout
func (p *Pool) Acquire(ctx context.Context) error {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return ErrPoolClosed
	}

	timer := time.NewTimer(p.acquireTimeout)
	defer timer.Stop()

	select {
	case <-p.slots:
		p.active.Add(1)
		return nil
	case <-p.done:
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrAcquireTimeout
	}
}

// Release returns a slot taken by Acquire
func (p *Pool) Release() {
	p.active.Add(-1)
	p.completed.Add(1)
	select {
	case p.slots <- struct{}{}:
	default:
	}
}

// Execute runs req in a slot
func (p *Pool) Execute(ctx context.Context, req Request) (*Result, error) {
	if err := p.Acquire(ctx); err != nil {
		return nil, err
	}
	defer p.Release()

	return p.engine.Run(ctx, req), nil
}

// Engine returns the underlying engine
func (p *Pool) Engine() *Engine {
	return p.engine
}

// Close stops handing out slots. Runs in progress finish normally.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	close(p.done)
	return nil
}

// Stats returns pool statistics
func (p *Pool) Stats() map[string]interface{} {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return map[string]interface{}{
		"size":      p.size,
		"available": len(p.slots),
		"in_use":    p.active.Load(),
		"completed": p.completed.Load(),
		"closed":    p.closed,
	}
}
