package task

import (
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

// DefaultIdleTimeout is how long a pool worker waits for work before exiting.
const DefaultIdleTimeout = 100 * time.Millisecond

// PoolConfig configures NewPool.
type PoolConfig struct {
	// Size is the maximum number of concurrent workers.
	Size int
	// IdleTimeout is how long an idle worker lingers before exiting.
	IdleTimeout time.Duration
	Logger      hclog.Logger
}

// Pool is a bounded set of goroutines draining a FIFO queue. Workers start
// on demand and exit after IdleTimeout without work, so an idle pool holds
// no goroutines.
type Pool struct {
	size        int
	idleTimeout time.Duration
	logger      hclog.Logger

	mu      sync.Mutex
	pending []func()
	workers int
	wake    chan struct{}
}

// NewPool creates a pool.
func NewPool(cfg PoolConfig) (*Pool, error) {
	if cfg.Size < 1 {
		return nil, errors.New("pool size must be at least 1")
	}
	if cfg.IdleTimeout <= 0 {
		return nil, errors.New("pool idle timeout must be positive")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Pool{
		size:        cfg.Size,
		idleTimeout: cfg.IdleTimeout,
		logger:      logger,
		wake:        make(chan struct{}, cfg.Size),
	}, nil
}

// Run queues a task.
func (p *Pool) Run(req Request) *Future {
	f := newFuture()
	p.submit(func() {
		f.resolve(safeExecute(p.logger, req))
	})
	return f
}

func (p *Pool) Mode() Mode { return ModeShared }

// Workers returns the number of live worker goroutines.
func (p *Pool) Workers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.workers
}

func (p *Pool) submit(job func()) {
	p.mu.Lock()
	p.pending = append(p.pending, job)
	if p.workers < p.size {
		p.workers++
		go p.work()
	}
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *Pool) work() {
	timer := time.NewTimer(p.idleTimeout)
	defer timer.Stop()

	for {
		if job, ok := p.next(); ok {
			job()
			continue
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(p.idleTimeout)

		select {
		case <-p.wake:
		case <-timer.C:
			p.mu.Lock()
			if len(p.pending) == 0 {
				p.workers--
				p.mu.Unlock()
				return
			}
			p.mu.Unlock()
		}
	}
}

// next pops the oldest queued job.
func (p *Pool) next() (func(), bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.pending) == 0 {
		return nil, false
	}
	job := p.pending[0]
	p.pending[0] = nil
	p.pending = p.pending[1:]
	return job, true
}

var (
	sharedMu   sync.Mutex
	sharedPool *Pool

	newSharedPool = func(logger hclog.Logger) (*Pool, error) {
		return NewPool(PoolConfig{
			Size:        runtime.GOMAXPROCS(0),
			IdleTimeout: DefaultIdleTimeout,
			Logger:      logger,
		})
	}
)

// Shared returns the process-wide pool, creating it on first use. If the
// pool cannot be created, tasks fall back to dedicated goroutines.
func Shared(logger hclog.Logger) Dispatcher {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if sharedPool == nil {
		p, err := newSharedPool(logger)
		if err != nil {
			logger.Warn("shared worker pool unavailable, using dedicated workers", "error", err)
			return NewDedicated(logger)
		}
		sharedPool = p
	}
	return sharedPool
}
