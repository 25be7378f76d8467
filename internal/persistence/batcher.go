// Package persistence buffers per-topic samples in memory and flushes
// them to durable storage as bounded, periodic batches.
package persistence

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wardenmq/warden-core/internal/ingest"
)

const (
	// BatchSize is how many samples are appended per topic per flush.
	BatchSize = 10
	// BatchInterval is how often the background flush ticker fires.
	BatchInterval = 1000 * time.Millisecond
	// MaxQueueSize is the bound on each topic's pending sample queue;
	// beyond it, the oldest samples are dropped.
	MaxQueueSize = 100
)

// Logger is the minimal logging interface Batcher needs.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Repository is the external persistence store's contract.
type Repository interface {
	BulkAppendSamples(ctx context.Context, topic string, records []Record) error
}

// Archiver optionally mirrors flushed samples into a secondary store.
// A nil Archiver disables mirroring entirely.
type Archiver interface {
	WriteSample(topic string, value float64, timestamp time.Time) error
}

// Batcher buffers samples per topic and periodically flushes them as
// bounded upsert batches.
//
// Thread Safety: all methods are safe for concurrent use. Flushing is
// single-flight — a tick that arrives while a flush is in progress is
// skipped rather than queued.
type Batcher struct {
	repo     Repository
	archiver Archiver
	logger   Logger

	mu     sync.Mutex
	queues map[string][]ingest.Sample

	flushing  atomic.Bool
	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewBatcher builds a Batcher backed by repo, with an optional archiver
// mirror.
func NewBatcher(repo Repository, archiver Archiver) *Batcher {
	return &Batcher{
		repo:     repo,
		archiver: archiver,
		logger:   noopLogger{},
		queues:   make(map[string][]ingest.Sample),
		done:     make(chan struct{}),
	}
}

// SetLogger sets the logger used for flush failures.
func (b *Batcher) SetLogger(logger Logger) {
	b.logger = logger
}

// Start begins the background flush ticker.
func (b *Batcher) Start() {
	b.startOnce.Do(func() {
		b.wg.Add(1)
		go b.flushLoop()
	})
}

// Stop halts the background flush ticker and performs a final flush.
func (b *Batcher) Stop() {
	b.stopOnce.Do(func() {
		close(b.done)
	})
	b.wg.Wait()
	b.Flush(context.Background())
}

func (b *Batcher) flushLoop() {
	defer b.wg.Done()
	ticker := time.NewTicker(BatchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			b.Flush(context.Background())
		case <-b.done:
			return
		}
	}
}

// Enqueue appends sample to topic's queue, dropping the oldest entries
// if the bound is exceeded.
func (b *Batcher) Enqueue(topic string, sample ingest.Sample) {
	b.mu.Lock()
	defer b.mu.Unlock()

	q := append(b.queues[topic], sample)
	if overflow := len(q) - MaxQueueSize; overflow > 0 {
		q = q[overflow:]
	}
	b.queues[topic] = q
}

// Drop discards topic's pending queue entirely, on unsubscribe.
func (b *Batcher) Drop(topic string) {
	b.mu.Lock()
	delete(b.queues, topic)
	b.mu.Unlock()
}

// QueueLen returns the current queue depth for topic, for tests and
// diagnostics.
func (b *Batcher) QueueLen(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queues[topic])
}

// Flush drains up to BatchSize samples per non-empty topic queue and
// persists them. A flush already in progress causes this call to return
// immediately without doing anything.
func (b *Batcher) Flush(ctx context.Context) {
	if !b.flushing.CompareAndSwap(false, true) {
		return
	}
	defer b.flushing.Store(false)

	batches := b.drainBatches()
	var wg sync.WaitGroup
	for topic, samples := range batches {
		wg.Add(1)
		go func(topic string, samples []ingest.Sample) {
			defer wg.Done()
			b.flushTopic(ctx, topic, samples)
		}(topic, samples)
	}
	wg.Wait()
}

func (b *Batcher) drainBatches() map[string][]ingest.Sample {
	b.mu.Lock()
	defer b.mu.Unlock()

	batches := make(map[string][]ingest.Sample)
	for topic, q := range b.queues {
		if len(q) == 0 {
			continue
		}
		n := BatchSize
		if n > len(q) {
			n = len(q)
		}
		batches[topic] = q[:n]
		b.queues[topic] = q[n:]
	}
	return batches
}

func (b *Batcher) flushTopic(ctx context.Context, topic string, samples []ingest.Sample) {
	records := make([]Record, len(samples))
	for i, s := range samples {
		records[i] = Record{Message: s.Value, Timestamp: s.Timestamp}
	}

	if err := b.repo.BulkAppendSamples(ctx, topic, records); err != nil {
		b.logger.Warn("persistence batch failed", "topic", topic, "error", err)
		return
	}

	if b.archiver == nil {
		return
	}
	for _, s := range samples {
		if err := b.archiver.WriteSample(topic, s.Value, s.Timestamp); err != nil {
			b.logger.Warn("archive mirror failed", "topic", topic, "error", err)
		}
	}
}
