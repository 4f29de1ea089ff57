package uploader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultConcurrencyCap = 4
	// fallbackConcurrency is used when the runtime cannot report its parallelism.
	fallbackConcurrency = 3
)

// parallelism reports how many goroutines can run at once. Swapped in tests.
var parallelism = func() int { return runtime.GOMAXPROCS(0) }

// Concurrency returns min(available parallelism, limit).
func Concurrency(limit int) int {
	n := parallelism()
	if n < 1 {
		return max(min(fallbackConcurrency, limit), 1)
	}
	return max(min(n, limit), 1)
}

// PoolConfig configures a WorkerPool.
type PoolConfig struct {
	Transferer Transferer
	// Concurrency is the number of parts moving at once. 1 selects the sequential strategy.
	Concurrency int
	// PartTimeout bounds each attempt of a single part upload.
	PartTimeout time.Duration
	// Retries is the number of extra attempts per part. Zero fails the pool on the first error.
	Retries       int
	RetryInterval time.Duration
	Logger        *slog.Logger
}

// WorkerPool uploads part jobs with bounded concurrency. The first failing part
// stops dispatch of the remaining jobs and cancels the ones in flight.
type WorkerPool struct {
	transferer    Transferer
	strategy      strategy
	partTimeout   time.Duration
	retries       int
	retryInterval time.Duration
	logger        *slog.Logger
}

func NewWorkerPool(cfg PoolConfig) (*WorkerPool, error) {
	if cfg.Transferer == nil {
		return nil, invalidInput("transferer is required")
	}
	if cfg.Concurrency < 1 {
		return nil, invalidInput("concurrency must be at least 1, got %d", cfg.Concurrency)
	}
	if cfg.PartTimeout <= 0 {
		return nil, invalidInput("part timeout must be positive, got %s", cfg.PartTimeout)
	}
	if cfg.Retries < 0 {
		return nil, invalidInput("retries must not be negative, got %d", cfg.Retries)
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 500 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	var s strategy = sequential{}
	if cfg.Concurrency > 1 {
		s = parallel{limit: cfg.Concurrency}
	}

	return &WorkerPool{
		transferer:    cfg.Transferer,
		strategy:      s,
		partTimeout:   cfg.PartTimeout,
		retries:       cfg.Retries,
		retryInterval: cfg.RetryInterval,
		logger:        cfg.Logger,
	}, nil
}

// Run uploads the byte range of every job from src and returns the tags in
// completion order. onDone is called for each part after its bytes are
// accepted and before the job is marked PartDone.
func (p *WorkerPool) Run(ctx context.Context, jobs []*PartJob, src Source, onDone func(*PartJob)) ([]PartTag, error) {
	var (
		mu   sync.Mutex
		tags = make([]PartTag, 0, len(jobs))
	)

	err := p.strategy.run(ctx, jobs, func(ctx context.Context, job *PartJob) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		job.Status = PartInFlight

		tag, err := p.upload(ctx, job, src)
		if err != nil {
			job.Status = PartFailed
			return &TransferError{PartNumber: job.PartNumber, Err: err}
		}

		if onDone != nil {
			onDone(job)
		}
		job.Tag, job.Status = tag, PartDone

		mu.Lock()
		tags = append(tags, PartTag{PartNumber: job.PartNumber, Tag: tag})
		mu.Unlock()
		return nil
	})
	return tags, err
}

func (p *WorkerPool) upload(ctx context.Context, job *PartJob, src Source) (string, error) {
	if p.retries == 0 {
		return p.attempt(ctx, job, src)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.retryInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.retries)), ctx)

	return backoff.RetryNotifyWithData(func() (string, error) {
		tag, err := p.attempt(ctx, job, src)
		if err != nil && ctx.Err() != nil {
			return "", backoff.Permanent(err)
		}
		return tag, err
	}, policy, func(err error, wait time.Duration) {
		p.logger.Warn("retrying part upload", "part_number", job.PartNumber, "wait", wait, "error", err)
	})
}

func (p *WorkerPool) attempt(ctx context.Context, job *PartJob, src Source) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, p.partTimeout)
	defer cancel()

	body := io.NewSectionReader(src, job.Start, job.Size())
	tag, err := p.transferer.Transfer(attemptCtx, job.Address, body, job.Size())
	if err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("timed out after %s: %w", p.partTimeout, err)
	}
	return tag, err
}

// strategy decides how jobs are scheduled onto goroutines.
type strategy interface {
	run(ctx context.Context, jobs []*PartJob, do func(context.Context, *PartJob) error) error
}

// parallel keeps limit jobs in flight and starts the next pending job as soon
// as a slot frees up.
type parallel struct {
	limit int
}

func (s parallel) run(ctx context.Context, jobs []*PartJob, do func(context.Context, *PartJob) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)

	for _, job := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return do(gctx, job)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

type sequential struct{}

func (sequential) run(ctx context.Context, jobs []*PartJob, do func(context.Context, *PartJob) error) error {
	for _, job := range jobs {
		if err := do(ctx, job); err != nil {
			return err
		}
	}
	return nil
}
