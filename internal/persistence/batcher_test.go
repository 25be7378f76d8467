package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/wardenmq/warden-core/internal/ingest"
)

type fakeRepo struct {
	mu    sync.Mutex
	calls [][]Record
}

func (f *fakeRepo) BulkAppendSamples(ctx context.Context, topic string, records []Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]Record, len(records))
	copy(cp, records)
	f.calls = append(f.calls, cp)
	return nil
}

func (f *fakeRepo) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeRepo) lastCall() []Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}

func sampleAt(v float64) ingest.Sample {
	return ingest.Sample{Value: v, Timestamp: time.Now()}
}

// TestBatchFlush mirrors the spec's literal batch-flush scenario: 12
// samples delivered before any flush, first flush persists 10, the
// queue retains 2, the next flush persists those.
func TestBatchFlush(t *testing.T) {
	repo := &fakeRepo{}
	b := NewBatcher(repo, nil)

	for i := 1; i <= 12; i++ {
		b.Enqueue("sensors/a", sampleAt(float64(i)))
	}
	if got := b.QueueLen("sensors/a"); got != 12 {
		t.Fatalf("QueueLen before flush = %d, want 12", got)
	}

	b.Flush(context.Background())
	if got := repo.callCount(); got != 1 {
		t.Fatalf("BulkAppendSamples called %d times, want 1", got)
	}
	if got := len(repo.lastCall()); got != 10 {
		t.Fatalf("first flush persisted %d records, want 10", got)
	}
	if got := b.QueueLen("sensors/a"); got != 2 {
		t.Fatalf("QueueLen after first flush = %d, want 2", got)
	}

	b.Flush(context.Background())
	if got := repo.callCount(); got != 2 {
		t.Fatalf("BulkAppendSamples called %d times, want 2", got)
	}
	if got := len(repo.lastCall()); got != 2 {
		t.Fatalf("second flush persisted %d records, want 2", got)
	}
	if got := b.QueueLen("sensors/a"); got != 0 {
		t.Fatalf("QueueLen after second flush = %d, want 0", got)
	}
}

// TestDropOldest mirrors the spec's drop-oldest scenario: 150 samples
// enqueued before any flush leaves a queue of 100 holding only the last
// 100 values, specifically 51-150, not merely 100 of some 100 values.
func TestDropOldest(t *testing.T) {
	repo := &fakeRepo{}
	b := NewBatcher(repo, nil)

	for i := 1; i <= 150; i++ {
		b.Enqueue("t", sampleAt(float64(i)))
	}

	if got := b.QueueLen("t"); got != MaxQueueSize {
		t.Fatalf("QueueLen = %d, want %d", got, MaxQueueSize)
	}

	for b.QueueLen("t") > 0 {
		b.Flush(context.Background())
	}

	var got []float64
	for _, call := range repo.calls {
		for _, rec := range call {
			got = append(got, rec.Message)
		}
	}
	if len(got) != MaxQueueSize {
		t.Fatalf("flushed %d records total, want %d", len(got), MaxQueueSize)
	}
	for i, v := range got {
		want := float64(51 + i)
		if v != want {
			t.Fatalf("record %d = %v, want %v (retained samples should be the newest %d, oldest 50 dropped)", i, v, want, MaxQueueSize)
		}
	}
}

func TestFlushSkipsEmptyQueues(t *testing.T) {
	repo := &fakeRepo{}
	b := NewBatcher(repo, nil)
	b.Flush(context.Background())
	if got := repo.callCount(); got != 0 {
		t.Fatalf("BulkAppendSamples called %d times, want 0 for empty queues", got)
	}
}

func TestDropClearsQueue(t *testing.T) {
	b := NewBatcher(&fakeRepo{}, nil)
	b.Enqueue("t", sampleAt(1))
	b.Drop("t")
	if got := b.QueueLen("t"); got != 0 {
		t.Fatalf("QueueLen after Drop = %d, want 0", got)
	}
}

type fakeArchiver struct {
	mu    sync.Mutex
	count int
}

func (f *fakeArchiver) WriteSample(topic string, value float64, timestamp time.Time) error {
	f.mu.Lock()
	f.count++
	f.mu.Unlock()
	return nil
}

func TestFlushMirrorsToArchiver(t *testing.T) {
	archiver := &fakeArchiver{}
	b := NewBatcher(&fakeRepo{}, archiver)
	b.Enqueue("t", sampleAt(1))
	b.Enqueue("t", sampleAt(2))

	b.Flush(context.Background())

	archiver.mu.Lock()
	defer archiver.mu.Unlock()
	if archiver.count != 2 {
		t.Fatalf("archiver.WriteSample called %d times, want 2", archiver.count)
	}
}
