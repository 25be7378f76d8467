// Package coordinator ties the ingest pipeline together: it owns the
// MQTT session and the per-topic state derived from it, dispatching
// each inbound message through decoding, persistence, and threshold
// evaluation.
package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/wardenmq/warden-core/internal/infrastructure/mqtt"
	"github.com/wardenmq/warden-core/internal/ingest"
	"github.com/wardenmq/warden-core/internal/threshold"
)

// Logger is the minimal logging interface Coordinator needs.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// MQTTClient is the transport surface Coordinator drives. Satisfied by
// *mqtt.Client; declared as an interface so tests can substitute a fake
// broker.
type MQTTClient interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	SetOnConnect(callback func())
	SetOnDisconnect(callback func(err error))
	IsConnected() bool
}

// Persistence is the sample-buffering surface Coordinator drives.
// Satisfied by *persistence.Batcher.
type Persistence interface {
	Enqueue(topic string, sample ingest.Sample)
	Drop(topic string)
}

// Evaluator is the threshold-evaluation surface Coordinator drives.
// Satisfied by *threshold.Evaluator.
type Evaluator interface {
	Evaluate(ctx context.Context, topic string, v float64)
	ClearTopic(topic string)
}

// Coordinator owns the MQTT session's subscribed-topic set, the
// latest-message cache, and the connection lifecycle state machine. It
// is the single place per-topic state is mutated.
//
// Thread Safety: all exported methods are safe for concurrent use.
type Coordinator struct {
	mqttClient  MQTTClient
	persistence Persistence
	evaluator   Evaluator
	registry    *threshold.Registry
	logger      Logger
	qos         byte
	now         func() time.Time

	mu         sync.RWMutex
	subscribed map[string]struct{}
	latest     map[string]ingest.LatestMessage

	stateMu sync.Mutex
	state   ConnectionState
}

// New builds a Coordinator over mqttClient, persistence, evaluator and
// registry, registering itself for connect/disconnect notifications so
// it can restore subscriptions after a reconnect.
//
// mqttClient is typically already connected by the time New is called
// (mqtt.Connect blocks until the initial session is established), so its
// one-shot OnConnect callback would otherwise fire before this Coordinator
// exists to receive it. New seeds state from mqttClient.IsConnected()
// itself to cover exactly that race, rather than relying on ever
// observing that first callback.
func New(mqttClient MQTTClient, persistence Persistence, evaluator Evaluator, registry *threshold.Registry, qos byte) *Coordinator {
	c := &Coordinator{
		mqttClient:  mqttClient,
		persistence: persistence,
		evaluator:   evaluator,
		registry:    registry,
		logger:      noopLogger{},
		qos:         qos,
		now:         time.Now,
		subscribed:  make(map[string]struct{}),
		latest:      make(map[string]ingest.LatestMessage),
		state:       Connecting,
	}
	mqttClient.SetOnConnect(c.handleConnect)
	mqttClient.SetOnDisconnect(c.handleDisconnect)
	if mqttClient.IsConnected() {
		c.setState(Connected)
	}
	return c
}

// SetLogger sets the logger used across the ingress and control-plane
// paths.
func (c *Coordinator) SetLogger(logger Logger) {
	c.logger = logger
}

// SetClock overrides the time source, for deterministic tests.
func (c *Coordinator) SetClock(now func() time.Time) {
	c.now = now
}

// State returns the coordinator's current connection lifecycle state.
func (c *Coordinator) State() ConnectionState {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state
}

func (c *Coordinator) setState(s ConnectionState) {
	c.stateMu.Lock()
	c.state = s
	c.stateMu.Unlock()
}

// handleConnect fires on every successful (re)connect. It re-issues a
// broker subscribe for every topic in the authoritative subscribed set;
// a subscribe failure is logged and the topic is left in the set so the
// next reconnect retries it.
func (c *Coordinator) handleConnect() {
	c.setState(Connected)

	c.mu.RLock()
	topics := make([]string, 0, len(c.subscribed))
	for topic := range c.subscribed {
		topics = append(topics, topic)
	}
	c.mu.RUnlock()

	for _, topic := range topics {
		if err := c.mqttClient.Subscribe(topic, c.qos, c.HandleMessage); err != nil {
			c.logger.Warn("resubscribe failed", "topic", topic, "error", err)
		}
	}
}

// handleDisconnect fires when the broker session drops. Buffered queues
// persist; inbound messages simply stop arriving until reconnection.
func (c *Coordinator) handleDisconnect(err error) {
	if err != nil {
		c.setState(Reconnecting)
	} else {
		c.setState(Offline)
	}
}

// HandleMessage is the message ingress handler for (topic, payload). It
// updates LatestMessage unconditionally, then — for numeric samples
// under the payload-length cutoff — enqueues persistence and runs
// threshold evaluation. All errors are caught and logged; it never
// returns an error that could terminate the MQTT session.
func (c *Coordinator) HandleMessage(topic string, payload []byte) error {
	c.mu.Lock()
	c.latest[topic] = ingest.LatestMessage{Payload: string(payload), Timestamp: c.now()}
	c.mu.Unlock()

	if len(payload) >= MaxSamplePayloadBytes {
		return nil
	}

	result := ingest.Decode(payload)
	if !result.IsNumber() {
		return nil
	}

	sample := ingest.Sample{Value: result.Value, Timestamp: c.now()}
	c.persistence.Enqueue(topic, sample)
	c.evaluator.Evaluate(context.Background(), topic, result.Value)
	return nil
}

// SubscribeToTopic idempotently subscribes to topic. On broker ACK, the
// topic is added to the authoritative subscribed set. On NACK, the
// failure is logged and state is left unchanged.
func (c *Coordinator) SubscribeToTopic(topic string) {
	if c.IsTopicSubscribed(topic) {
		return
	}

	if err := c.mqttClient.Subscribe(topic, c.qos, c.HandleMessage); err != nil {
		c.logger.Warn("subscribe failed", "topic", topic, "error", err)
		return
	}

	c.mu.Lock()
	c.subscribed[topic] = struct{}{}
	c.mu.Unlock()
}

// UnsubscribeFromTopic idempotently unsubscribes from topic. On broker
// ACK, the topic and all its per-topic state (queued samples, latest
// message, threshold state) are torn down.
func (c *Coordinator) UnsubscribeFromTopic(topic string) {
	if !c.IsTopicSubscribed(topic) {
		return
	}

	if err := c.mqttClient.Unsubscribe(topic); err != nil {
		c.logger.Warn("unsubscribe failed", "topic", topic, "error", err)
		return
	}

	c.mu.Lock()
	delete(c.subscribed, topic)
	delete(c.latest, topic)
	c.mu.Unlock()

	c.persistence.Drop(topic)
	c.evaluator.ClearTopic(topic)
}

// IsTopicSubscribed reports whether topic is currently in the
// authoritative subscribed set.
func (c *Coordinator) IsTopicSubscribed(topic string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subscribed[topic]
	return ok
}

// GetLatestLiveMessage returns the most recently received payload for
// topic, decoded into its message.message shape, or false if no message
// has ever arrived for topic (or it has since been unsubscribed).
func (c *Coordinator) GetLatestLiveMessage(topic string) (LiveMessage, bool) {
	c.mu.RLock()
	lm, ok := c.latest[topic]
	c.mu.RUnlock()
	if !ok {
		return LiveMessage{}, false
	}

	decoded := ingest.Decode([]byte(lm.Payload))
	var value any
	switch decoded.Kind {
	case ingest.KindNumber:
		value = decoded.Value
	case ingest.KindPassthrough:
		value = decoded.Raw
	default:
		value = lm.Payload
	}

	return LiveMessage{
		Message:   InnerMessage{Message: value},
		Timestamp: lm.Timestamp,
	}, true
}

// UpdateThresholds writes newLevels through to the threshold store and
// invalidates the cached config for topic.
func (c *Coordinator) UpdateThresholds(ctx context.Context, topic string, newLevels threshold.Config) {
	c.registry.UpdateThresholds(ctx, topic, newLevels)
}
