package threshold

import (
	"context"
	"strings"
	"testing"
	"time"
)

type fakeDirectory struct {
	recipients []string
}

func (f *fakeDirectory) Recipients(ctx context.Context, topic string) []string {
	return f.recipients
}

type fakeSink struct {
	alerts []Alert
}

func (f *fakeSink) Enqueue(alert Alert) {
	f.alerts = append(f.alerts, alert)
}

func newTestEvaluator(t *testing.T, levels Config, recipients []string) (*Evaluator, *fakeSink, *time.Time) {
	t.Helper()
	repo := &fakeRepo{loaded: map[string]Config{"t": levels}}
	registry := NewRegistry(repo)
	registry.Start()
	t.Cleanup(registry.Stop)

	dir := &fakeDirectory{recipients: recipients}
	sink := &fakeSink{}
	eval := NewEvaluator(registry, dir, sink)

	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	eval.SetClock(func() time.Time { return clock })
	return eval, sink, &clock
}

// TestThresholdLadderWithHysteresis walks the literal scenario from the
// spec's testable-properties section: yellow/red ladder, red suppresses
// yellow, dead-band leaves state, and dropping below reset re-arms.
func TestThresholdLadderWithHysteresis(t *testing.T) {
	levels := Config{
		{Color: "yellow", Value: 50, ResetValue: 40},
		{Color: "red", Value: 90, ResetValue: 80},
	}
	eval, sink, clock := newTestEvaluator(t, levels, []string{"u@x"})
	ctx := context.Background()

	advance := func(d time.Duration) { *clock = clock.Add(d) }

	eval.Evaluate(ctx, "t", 45) // below yellow, no alert
	if len(sink.alerts) != 0 {
		t.Fatalf("after 45: got %d alerts, want 0", len(sink.alerts))
	}

	advance(time.Second)
	eval.Evaluate(ctx, "t", 55) // crosses yellow: Warning
	if len(sink.alerts) != 1 || !strings.HasPrefix(sink.alerts[0].Subject, "Warning") {
		t.Fatalf("after 55: alerts = %+v, want one Warning", sink.alerts)
	}

	advance(time.Second)
	eval.Evaluate(ctx, "t", 95) // crosses red: Danger, yellow suppressed
	if len(sink.alerts) != 2 || !strings.HasPrefix(sink.alerts[1].Subject, "Danger") {
		t.Fatalf("after 95: alerts = %+v, want a second Danger alert", sink.alerts)
	}

	advance(time.Second)
	eval.Evaluate(ctx, "t", 70) // below red's reset (re-arms red); yellow crossed but still in cooldown
	if len(sink.alerts) != 2 {
		t.Fatalf("after 70: got %d alerts, want still 2 (yellow within cooldown)", len(sink.alerts))
	}

	advance(time.Second)
	eval.Evaluate(ctx, "t", 35) // below both reset values: re-arm
	if len(sink.alerts) != 2 {
		t.Fatalf("after 35: got %d alerts, want still 2 (reset only)", len(sink.alerts))
	}

	advance(time.Second)
	eval.Evaluate(ctx, "t", 55) // re-crosses yellow after re-arm
	if len(sink.alerts) != 3 || !strings.HasPrefix(sink.alerts[2].Subject, "Warning") {
		t.Fatalf("after final 55: alerts = %+v, want a third Warning alert", sink.alerts)
	}
}

// TestThresholdCooldown mirrors the spec's cooldown scenario: an alert at
// t=0, none at t=10s (within the 30s cooldown), and a re-alert at t=31s.
func TestThresholdCooldown(t *testing.T) {
	levels := Config{{Color: "yellow", Value: 50, ResetValue: 40}}
	eval, sink, clock := newTestEvaluator(t, levels, []string{"u@x"})
	ctx := context.Background()

	eval.Evaluate(ctx, "t", 55)
	if len(sink.alerts) != 1 {
		t.Fatalf("at t=0: got %d alerts, want 1", len(sink.alerts))
	}

	*clock = clock.Add(10 * time.Second)
	eval.Evaluate(ctx, "t", 60)
	if len(sink.alerts) != 1 {
		t.Fatalf("at t=10s: got %d alerts, want still 1 (within cooldown)", len(sink.alerts))
	}

	*clock = clock.Add(21 * time.Second) // total 31s
	eval.Evaluate(ctx, "t", 60)
	if len(sink.alerts) != 2 {
		t.Fatalf("at t=31s: got %d alerts, want 2 (cooldown elapsed)", len(sink.alerts))
	}
}

func TestEvaluateNoThresholdsIsNoop(t *testing.T) {
	eval, sink, _ := newTestEvaluator(t, nil, []string{"u@x"})
	eval.Evaluate(context.Background(), "t", 1000)
	if len(sink.alerts) != 0 {
		t.Fatalf("got %d alerts, want 0 with no configured thresholds", len(sink.alerts))
	}
}

func TestEvaluateNoRecipientsSkipsAlert(t *testing.T) {
	levels := Config{{Color: "red", Value: 90, ResetValue: 80}}
	eval, sink, _ := newTestEvaluator(t, levels, nil)
	eval.Evaluate(context.Background(), "t", 95)
	if len(sink.alerts) != 0 {
		t.Fatalf("got %d alerts, want 0 with no recipients", len(sink.alerts))
	}
}

type fakeAlertArchiver struct {
	events []string
	err    error
}

func (f *fakeAlertArchiver) WriteAlertEvent(topic, color string, value, thresholdValue float64, timestamp time.Time) error {
	f.events = append(f.events, topic+":"+color)
	return f.err
}

func TestEvaluateMirrorsFiringAlertsToArchiver(t *testing.T) {
	levels := Config{{Color: "red", Value: 90, ResetValue: 80}}
	eval, _, _ := newTestEvaluator(t, levels, []string{"u@x"})
	archiver := &fakeAlertArchiver{}
	eval.SetArchiver(archiver)

	eval.Evaluate(context.Background(), "t", 95)

	if len(archiver.events) != 1 || archiver.events[0] != "t:red" {
		t.Fatalf("archiver events = %v, want one t:red event", archiver.events)
	}
}

func TestEvaluateArchivesEvenWithoutRecipients(t *testing.T) {
	levels := Config{{Color: "red", Value: 90, ResetValue: 80}}
	eval, sink, _ := newTestEvaluator(t, levels, nil)
	archiver := &fakeAlertArchiver{}
	eval.SetArchiver(archiver)

	eval.Evaluate(context.Background(), "t", 95)

	if len(sink.alerts) != 0 {
		t.Fatalf("got %d emails, want 0 with no recipients", len(sink.alerts))
	}
	if len(archiver.events) != 1 {
		t.Fatalf("archiver events = %v, want one event even without recipients", archiver.events)
	}
}

func TestClearTopicResetsState(t *testing.T) {
	levels := Config{{Color: "yellow", Value: 50, ResetValue: 40}}
	eval, sink, _ := newTestEvaluator(t, levels, []string{"u@x"})
	ctx := context.Background()

	eval.Evaluate(ctx, "t", 55)
	eval.ClearTopic("t")
	eval.Evaluate(ctx, "t", 55) // cooldown would otherwise suppress this

	if len(sink.alerts) != 2 {
		t.Fatalf("got %d alerts, want 2 (state cleared between calls)", len(sink.alerts))
	}
}
