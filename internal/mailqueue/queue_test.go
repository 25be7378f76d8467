package mailqueue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeSender struct {
	mu       sync.Mutex
	attempts map[string]int
	failFor  map[string]int // recipient -> number of leading failures before success
}

func newFakeSender() *fakeSender {
	return &fakeSender{attempts: make(map[string]int), failFor: make(map[string]int)}
}

func (f *fakeSender) Send(ctx context.Context, recipient, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts[recipient]++
	if f.attempts[recipient] <= f.failFor[recipient] {
		return errors.New("smtp: temporary failure")
	}
	return nil
}

func (f *fakeSender) attemptsFor(recipient string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts[recipient]
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !cond() {
		t.Fatal("condition not met before timeout")
	}
}

// TestEmailRetryDeliversAfterFailures mirrors the spec's email-retry
// scenario: recipient b fails twice then succeeds, and the item is
// removed from the queue only once every recipient has succeeded.
func TestEmailRetryDeliversAfterFailures(t *testing.T) {
	sender := newFakeSender()
	sender.failFor["b@x"] = 2

	q := New(sender)
	q.Start()
	defer q.Stop()

	q.Enqueue([]string{"a@x", "b@x"}, "Warning: t Threshold Exceeded", "body")

	waitFor(t, 5*time.Second, func() bool { return q.Len() == 0 })

	if got := sender.attemptsFor("b@x"); got != 3 {
		t.Errorf("attempts for b@x = %d, want 3", got)
	}
	if got := sender.attemptsFor("a@x"); got < 1 {
		t.Errorf("attempts for a@x = %d, want at least 1", got)
	}
}

func TestEmailDroppedAfterMaxRetries(t *testing.T) {
	sender := newFakeSender()
	sender.failFor["c@x"] = 100 // always fails

	q := New(sender)
	q.Start()
	defer q.Stop()

	q.Enqueue([]string{"c@x"}, "sub", "body")

	waitFor(t, 5*time.Second, func() bool { return q.Len() == 0 })

	if got := sender.attemptsFor("c@x"); got != MaxRetries+1 {
		t.Errorf("attempts for c@x = %d, want %d (initial try + %d retries)", got, MaxRetries+1, MaxRetries)
	}
}

func TestEnqueueWakesWorkerImmediately(t *testing.T) {
	sender := newFakeSender()
	q := New(sender)
	q.Start()
	defer q.Stop()

	start := time.Now()
	q.Enqueue([]string{"a@x"}, "sub", "body")
	waitFor(t, time.Second, func() bool { return q.Len() == 0 })

	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("delivery took %v, want well under the 1h idle wait (wake signal should fire immediately)", elapsed)
	}
}
