// Package processor classifies batches of inputs on a bounded worker pool.
package processor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/domain"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/logger"
)

const defaultConcurrency = 8

// Classifier is the engine the pool drives.
type Classifier interface {
	Classify(in domain.ClassificationInput) domain.ClassificationResult
}

// Metrics receives batch-level measurements.
type Metrics interface {
	RecordBatch(size int)
	SetActiveWorkers(n int)
}

// Recorder persists each classification. Failures are logged, never fatal.
type Recorder interface {
	Record(ctx context.Context, in domain.ClassificationInput, res domain.ClassificationResult) error
}

// ProcessResult pairs an input with its verdict. Index is the input position.
type ProcessResult struct {
	Index  int
	Input  domain.ClassificationInput
	Result domain.ClassificationResult
}

// BatchProcessor classifies inputs in parallel. Results keep input order.
type BatchProcessor struct {
	classifier  Classifier
	concurrency int
	logger      logger.Logger
	metrics     Metrics
	recorder    Recorder
	active      atomic.Int64
}

// Option configures a BatchProcessor.
type Option func(*BatchProcessor)

// WithMetrics attaches batch metrics.
func WithMetrics(m Metrics) Option {
	return func(b *BatchProcessor) {
		b.metrics = m
	}
}

// WithRecorder persists every result.
func WithRecorder(r Recorder) Option {
	return func(b *BatchProcessor) {
		b.recorder = r
	}
}

// NewBatchProcessor creates a batch processor.
func NewBatchProcessor(c Classifier, concurrency int, log logger.Logger, opts ...Option) *BatchProcessor {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if log == nil {
		log = logger.NewNop()
	}

	b := &BatchProcessor{
		classifier:  c,
		concurrency: concurrency,
		logger:      log,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Concurrency returns the worker count.
func (b *BatchProcessor) Concurrency() int {
	return b.concurrency
}

type job struct {
	index int
	input domain.ClassificationInput
}

// Process classifies every input. Items not reached before ctx is cancelled
// are missing from the result, and ctx.Err() is returned alongside the
// partial slice.
func (b *BatchProcessor) Process(ctx context.Context, inputs []domain.ClassificationInput) ([]ProcessResult, error) {
	if len(inputs) == 0 {
		return []ProcessResult{}, nil
	}

	start := time.Now()
	if b.metrics != nil {
		b.metrics.RecordBatch(len(inputs))
	}

	workers := min(b.concurrency, len(inputs))
	jobs := make(chan job, len(inputs))
	results := make(chan ProcessResult, len(inputs))

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go b.worker(ctx, i, jobs, results, &wg)
	}

	for i, in := range inputs {
		jobs <- job{index: i, input: in}
	}
	close(jobs)

	wg.Wait()
	close(results)

	slots := make([]*ProcessResult, len(inputs))
	for r := range results {
		slots[r.Index] = &r
	}

	out := make([]ProcessResult, 0, len(inputs))
	for _, s := range slots {
		if s != nil {
			out = append(out, *s)
		}
	}

	b.logger.Info("Batch classification complete",
		logger.Int("total", len(inputs)),
		logger.Int("classified", len(out)),
		logger.Int("workers", workers),
		logger.Duration("duration", time.Since(start)),
	)

	if len(out) < len(inputs) {
		return out, ctx.Err()
	}
	return out, nil
}

func (b *BatchProcessor) worker(
	ctx context.Context,
	id int,
	jobs <-chan job,
	results chan<- ProcessResult,
	wg *sync.WaitGroup,
) {
	defer wg.Done()

	for j := range jobs {
		select {
		case <-ctx.Done():
			b.logger.Warn("Worker stopping due to context cancellation", logger.Int("worker_id", id))
			return
		default:
		}

		b.setActive(b.active.Add(1))
		res := b.classifier.Classify(j.input)
		b.setActive(b.active.Add(-1))

		if b.recorder != nil {
			if err := b.recorder.Record(ctx, j.input, res); err != nil {
				b.logger.Warn("Failed to record classification",
					logger.Int("index", j.index),
					logger.Error(err),
				)
			}
		}

		results <- ProcessResult{Index: j.index, Input: j.input, Result: res}
	}
}

func (b *BatchProcessor) setActive(n int64) {
	if b.metrics != nil {
		b.metrics.SetActiveWorkers(int(n))
	}
}
