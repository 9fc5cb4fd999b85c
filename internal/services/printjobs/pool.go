// -----------------------------------------------------------------------
// Worker Pool - bounded admission and FIFO dispatch of print jobs
// -----------------------------------------------------------------------

package printjobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/charta/internal/models"
)

// jobFunc executes one admitted job to completion.
type jobFunc func(ctx context.Context, jobID string)

// Pool runs a fixed set of long-lived workers fed from a FIFO queue.
// Admission is atomic with queue state: at most workers+queueSize jobs are
// in flight at once, and a submission beyond that is rejected rather than
// blocked. The queue channel is sized to the full capacity so an admitted
// send never blocks.
type Pool struct {
	workers   int
	capacity  int
	execute   jobFunc
	logger    arbor.ILogger
	queue     chan string
	mu        sync.Mutex
	inflight  int
	closed    bool
	wg        sync.WaitGroup
	baseCtx   context.Context
	cancelAll context.CancelFunc
}

// NewPool creates a pool with the given concurrency and queue depth.
// Workers start immediately and run until Shutdown.
func NewPool(workers, queueSize int, execute jobFunc, logger arbor.ILogger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		workers:   workers,
		capacity:  workers + queueSize,
		execute:   execute,
		logger:    logger,
		queue:     make(chan string, workers+queueSize),
		baseCtx:   ctx,
		cancelAll: cancel,
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	logger.Info().
		Int("workers", workers).
		Int("queue_size", queueSize).
		Msg("Print worker pool started")

	return p
}

// Submit admits a job id for execution. Returns models.ErrCapacityExceeded
// when running plus queued jobs already fill the pool's capacity.
func (p *Pool) Submit(jobID string) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return models.ErrCapacityExceeded
	}
	if p.inflight >= p.capacity {
		p.mu.Unlock()
		return models.ErrCapacityExceeded
	}
	p.inflight++
	p.mu.Unlock()

	// Buffered to capacity, so this never blocks for an admitted job.
	p.queue <- jobID
	return nil
}

// Inflight returns the number of jobs admitted and not yet finished.
func (p *Pool) Inflight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inflight
}

func (p *Pool) worker(index int) {
	defer p.wg.Done()

	for jobID := range p.queue {
		p.run(jobID)
	}

	p.logger.Debug().Int("worker", index).Msg("Print worker stopped")
}

func (p *Pool) run(jobID string) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().
				Str("job_id", jobID).
				Str("panic", fmt.Sprint(r)).
				Msg("Print worker recovered from panic")
		}
		p.mu.Lock()
		p.inflight--
		p.mu.Unlock()
	}()

	p.execute(p.baseCtx, jobID)
}

// Shutdown stops accepting work and waits up to grace for in-flight jobs
// to finish. Jobs still running after the grace period have their contexts
// cancelled and are abandoned to settle via their completion paths.
func (p *Pool) Shutdown(grace time.Duration) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	close(p.queue)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info().Msg("Print worker pool drained")
	case <-time.After(grace):
		p.cancelAll()
		<-done
		p.logger.Warn().Msg("Print worker pool shutdown grace exceeded, cancelled remaining jobs")
	}
	p.cancelAll()
}
