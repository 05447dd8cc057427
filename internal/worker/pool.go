// Package worker runs the decision side of the pipeline: a fixed pool of
// independent workers, each with its own dequeue-process-commit loop over
// the durable queue. Workers share no in-process state; the queue's
// transactional claim is the only serialization point.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"origination-engine/internal/audit"
	"origination-engine/internal/config"
	"origination-engine/internal/domain/application"
	"origination-engine/internal/domain/client"
	"origination-engine/internal/queue"
)

type Pool struct {
	cfg        config.WorkerConfig
	repo       application.Repository
	clientRepo client.Repository
	q          queue.Queue
	sink       audit.Sink
	cache      application.Cache
	logger     *slog.Logger
	wg         sync.WaitGroup
	cancelFunc context.CancelFunc
}

func NewPool(cfg config.WorkerConfig, repo application.Repository, clientRepo client.Repository, q queue.Queue, sink audit.Sink, cache application.Cache, logger *slog.Logger) *Pool {
	if repo == nil {
		panic("application repository cannot be nil")
	}
	if clientRepo == nil {
		panic("client repository cannot be nil")
	}
	if q == nil {
		panic("queue cannot be nil")
	}
	if sink == nil {
		panic("audit sink cannot be nil")
	}

	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 5
	}
	if cfg.DequeueTimeout <= 0 {
		cfg.DequeueTimeout = 1 * time.Second
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = 5 * time.Second
	}

	return &Pool{
		cfg:        cfg,
		repo:       repo,
		clientRepo: clientRepo,
		q:          q,
		sink:       sink,
		cache:      cache,
		logger:     logger.With(slog.String("component", "workerPool")),
	}
}

func (p *Pool) Start(ctx context.Context) {
	loopCtx, cancel := context.WithCancel(ctx)
	p.cancelFunc = cancel

	p.logger.InfoContext(ctx, "Starting decision worker pool",
		slog.Int("size", p.cfg.PoolSize),
		slog.Duration("dequeueTimeout", p.cfg.DequeueTimeout))

	for i := 1; i <= p.cfg.PoolSize; i++ {
		w := newWorker(i, p.repo, p.clientRepo, p.q, p.sink, p.cache, p.cfg, p.logger)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			w.run(loopCtx)
		}()
	}
}

// Stop signals every worker and waits for each to exit at its next
// timeout-or-completion boundary.
func (p *Pool) Stop() {
	if p.cancelFunc == nil {
		p.logger.Warn("Worker pool stop called but pool was never started")
		return
	}
	p.logger.Info("Stopping decision worker pool...")
	p.cancelFunc()
	p.wg.Wait()
	p.logger.Info("Decision worker pool stopped.")
}
