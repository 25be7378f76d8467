// Package mailqueue is a FIFO of pending alert emails, dispatched by a
// single worker loop with bounded per-item retries.
package mailqueue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxRetries is how many delivery attempts an item gets before it is
	// dropped.
	MaxRetries = 3
	// RetryDelay is the minimum elapsed time before a failed item is
	// eligible for redispatch.
	RetryDelay = 1000 * time.Millisecond
)

// Logger is the minimal logging interface Queue needs.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Sender delivers a single email to a single recipient. Any error is
// treated as a delivery failure for that recipient.
type Sender interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// Queue is a FIFO of pending Items, drained by a single worker loop.
// Enqueue wakes the worker immediately rather than relying on a poll
// interval.
//
// Thread Safety: Enqueue and Len are safe for concurrent use.
type Queue struct {
	sender Sender
	logger Logger
	now    func() time.Time

	mu    sync.Mutex
	items []Item

	wake      chan struct{}
	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// New builds a Queue that dispatches through sender.
func New(sender Sender) *Queue {
	return &Queue{
		sender: sender,
		logger: noopLogger{},
		now:    time.Now,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// SetLogger sets the logger used for retries and drops.
func (q *Queue) SetLogger(logger Logger) {
	q.logger = logger
}

// SetClock overrides the time source, for deterministic tests.
func (q *Queue) SetClock(now func() time.Time) {
	q.now = now
}

// Start begins the background worker loop.
func (q *Queue) Start() {
	q.startOnce.Do(func() {
		q.wg.Add(1)
		go q.run()
	})
}

// Stop halts the background worker loop.
func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		close(q.done)
	})
	q.wg.Wait()
}

// Enqueue adds subject/body addressed to recipients to the tail of the
// queue and wakes the worker.
func (q *Queue) Enqueue(recipients []string, subject, body string) {
	q.mu.Lock()
	q.items = append(q.items, Item{
		ID:           uuid.New(),
		Recipients:   recipients,
		Subject:      subject,
		Body:         body,
		NextEligible: q.now(),
	})
	q.mu.Unlock()
	q.signal()
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Len returns the number of pending items, for tests and diagnostics.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
