package threshold

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// CooldownPeriod is the minimum elapsed time between two consecutive
// alerts for the same already-triggered level.
const CooldownPeriod = 30 * time.Second

// Alert is a fully-built email ready for the queue.
type Alert struct {
	Topic      string
	Recipients []string
	Subject    string
	Body       string
}

// Directory resolves the recipients that should be alerted for a topic.
type Directory interface {
	Recipients(ctx context.Context, topic string) []string
}

// EmailSink accepts a built Alert for dispatch.
type EmailSink interface {
	Enqueue(alert Alert)
}

// AlertArchiver optionally mirrors a firing alert into a secondary store,
// alongside the sample history that triggered it. A nil AlertArchiver
// disables mirroring entirely.
type AlertArchiver interface {
	WriteAlertEvent(topic, color string, value, thresholdValue float64, timestamp time.Time) error
}

// Evaluator is the per-topic, per-level threshold state machine. It
// decides whether a freshly received sample should emit an alert.
//
// Thread Safety: Evaluate is safe for concurrent use across topics;
// evaluation for a single topic is serialized internally.
type Evaluator struct {
	registry  *Registry
	directory Directory
	emails    EmailSink
	archiver  AlertArchiver
	logger    Logger
	now       func() time.Time

	mu     sync.Mutex
	states map[string]map[StateKey]State
}

// NewEvaluator builds an Evaluator over registry, directory and emails.
func NewEvaluator(registry *Registry, directory Directory, emails EmailSink) *Evaluator {
	return &Evaluator{
		registry:  registry,
		directory: directory,
		emails:    emails,
		logger:    noopLogger{},
		now:       time.Now,
		states:    make(map[string]map[StateKey]State),
	}
}

// SetClock overrides the time source, for deterministic tests.
func (e *Evaluator) SetClock(now func() time.Time) {
	e.now = now
}

// SetLogger sets the logger used for archive-mirror failures.
func (e *Evaluator) SetLogger(logger Logger) {
	e.logger = logger
}

// SetArchiver sets the optional secondary store that alert firings are
// mirrored into.
func (e *Evaluator) SetArchiver(archiver AlertArchiver) {
	e.archiver = archiver
}

// Evaluate decides whether sample v on topic crosses any threshold level
// and enqueues the resulting alerts.
func (e *Evaluator) Evaluate(ctx context.Context, topic string, v float64) {
	levels := e.registry.Thresholds(ctx, topic)
	if len(levels) == 0 {
		return
	}

	sorted := make(Config, len(levels))
	copy(sorted, levels)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Value > sorted[j].Value
	})

	now := e.now()

	e.mu.Lock()
	topicStates := e.states[topic]
	if topicStates == nil {
		topicStates = make(map[StateKey]State)
		e.states[topic] = topicStates
	}

	dangerTriggered := false
	var toAlert []Level
levels:
	for _, level := range sorted {
		key := StateKey{Color: level.Color, Value: level.Value}
		s := topicStates[key]

		switch {
		case v >= level.Value:
			if level.Color == "red" {
				dangerTriggered = true
			} else if dangerTriggered {
				continue
			}

			if !s.Triggered || now.Sub(s.LastAlertTime) >= CooldownPeriod {
				topicStates[key] = State{Triggered: true, LastAlertTime: now}
				toAlert = append(toAlert, level)
				if level.Color == "red" {
					break levels
				}
			}

		case v < level.ResetValue:
			topicStates[key] = State{}

		default:
			// dead-band: leave state unchanged
		}
	}
	e.mu.Unlock()

	for _, level := range toAlert {
		if e.archiver != nil {
			if err := e.archiver.WriteAlertEvent(topic, level.Color, v, level.Value, now); err != nil {
				e.logger.Warn("alert archive mirror failed", "topic", topic, "error", err)
			}
		}

		recipients := e.directory.Recipients(ctx, topic)
		if len(recipients) == 0 {
			continue
		}
		e.emails.Enqueue(buildAlert(topic, level, v, now, recipients))
	}
}

func buildAlert(topic string, level Level, v float64, at time.Time, recipients []string) Alert {
	isRed := level.Color == "red"

	alertType := "Warning"
	severity := "warning"
	action := "WARNING: Monitor situation closely."
	if isRed {
		alertType = "Danger"
		severity = "critical"
		action = "IMMEDIATE ACTION REQUIRED: Critical threshold exceeded!"
	}

	subject := fmt.Sprintf("%s: %s Threshold Exceeded", alertType, topic)
	body := fmt.Sprintf(
		"%s Alert: %s\nCurrent value: %g\nThreshold value: %g\nSeverity: %s\nTime: %s\n%s",
		alertType, topic, v, level.Value, severity, at.UTC().Format(time.RFC3339), action,
	)

	return Alert{
		Topic:      topic,
		Recipients: recipients,
		Subject:    subject,
		Body:       body,
	}
}

// ClearTopic drops all threshold state held for topic, on unsubscribe.
func (e *Evaluator) ClearTopic(topic string) {
	e.mu.Lock()
	delete(e.states, topic)
	e.mu.Unlock()
}
