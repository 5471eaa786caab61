package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/mediahub/account-service/internal/pkg/metrics"
	"github.com/mediahub/account-service/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256

	defaultRetryBase = 500 * time.Millisecond
	defaultRetryCap  = 30 * time.Second
	defaultRetries   = 5
)

// Deleter is the part of the asset store the dispatcher needs.
type Deleter interface {
	Delete(ctx context.Context, key string) error
}

var _ ports.AssetCleaner = (*Dispatcher)(nil)

// Dispatcher retries deletions of orphaned assets on a fixed set of workers.
// Jobs are sharded by key so repeated schedules of one key stay on one worker.
type Dispatcher struct {
	workers []chan ports.AssetCleanupJob
	store   Deleter
	log     zerolog.Logger
	backoff func() retry.Backoff
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, store Deleter, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.AssetCleanupJob, numWorkers),
		store:   store,
		log:     log,
		backoff: func() retry.Backoff {
			b := retry.NewExponential(defaultRetryBase)
			b = retry.WithCappedDuration(defaultRetryCap, b)
			return retry.WithMaxRetries(defaultRetries, b)
		},
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.AssetCleanupJob, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Schedule hands a job to the worker responsible for its key. It never blocks:
// when that worker's buffer is full the job is dropped and the object stays
// orphaned.
func (d *Dispatcher) Schedule(job ports.AssetCleanupJob) {
	if job.Key == "" {
		return
	}
	idx := d.shardIndex(job.Key)
	select {
	case d.workers[idx] <- job:
		metrics.CleanupQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.CleanupJobsTotal.WithLabelValues("dropped").Inc()
		d.log.Error().Str("key", job.Key).Int("worker_id", idx).Msg("cleanup queue full, dropping job")
	}
}

// shardIndex maps a key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.AssetCleanupJob) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-ch:
			if !ok {
				return
			}
			metrics.CleanupQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.process(ctx, id, job)
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, id int, job ports.AssetCleanupJob) {
	attempts := 0
	err := retry.Do(ctx, d.backoff(), func(ctx context.Context) error {
		attempts++
		if err := d.store.Delete(ctx, job.Key); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		metrics.CleanupJobsTotal.WithLabelValues("failed").Inc()
		d.log.Error().Err(err).
			Str("key", job.Key).
			Str("reason", job.Reason).
			Int("attempts", attempts).
			Int("worker_id", id).
			Msg("asset cleanup failed")
		return
	}
	metrics.CleanupJobsTotal.WithLabelValues("deleted").Inc()
	d.log.Debug().Str("key", job.Key).Int("attempts", attempts).Msg("orphaned asset deleted")
}
