package feed

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/sgerhart/aegisrange/internal/bus"
	"github.com/sgerhart/aegisrange/internal/model"
)

// SubjectPrefix namespaces every mirrored topic on the wire.
const SubjectPrefix = "range."

// mirroredTopics is the full set of core bus topics bridged outward.
var mirroredTopics = []string{
	model.TopicEventAdded,
	model.TopicEventHandled,
	model.TopicEventsEscalated,
	model.TopicScoreUpdated,
	model.TopicUptimeUpdated,
	model.TopicLevelChanged,
	model.TopicGameStarted,
	model.TopicGamePaused,
	model.TopicGameReset,
	model.TopicGameCompleted,
	model.TopicGameOver,
	model.TopicRuleAdded,
	model.TopicRulesTriggered,
}

// Publisher bridges the in-process bus to NATS so external presentation
// layers can subscribe to the session feed. It is strictly an observer: a nil
// or disconnected connection downgrades every publish to a no-op, never a
// failure of the originating operation.
type Publisher struct {
	nc     *nats.Conn
	logger *slog.Logger
}

// NewPublisher creates a feed publisher. nc may be nil (feed disabled).
func NewPublisher(nc *nats.Conn, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{nc: nc, logger: logger}
}

// Subject converts a bus topic to its wire subject: range.<topic> with the
// colon separator replaced by a dot (e.g. event:added -> range.event.added).
func Subject(topic string) string {
	return SubjectPrefix + strings.ReplaceAll(topic, ":", ".")
}

// Attach subscribes the publisher to every mirrored topic and returns a
// closure that unsubscribes all of them.
func (p *Publisher) Attach(b *bus.Bus) func() {
	unsubs := make([]func(), 0, len(mirroredTopics))
	for _, topic := range mirroredTopics {
		topic := topic
		unsubs = append(unsubs, b.Subscribe(topic, func(payload any) {
			p.publish(topic, payload)
		}))
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

// publish mirrors one bus fan-out to NATS.
func (p *Publisher) publish(topic string, payload any) {
	if p.nc == nil || !p.nc.IsConnected() {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Warn("Failed to marshal feed payload", "topic", topic, "error", err)
		return
	}

	msg := &nats.Msg{
		Subject: Subject(topic),
		Data:    data,
		Header:  nats.Header{},
	}
	msg.Header.Set("x-range-topic", topic)

	if err := p.nc.PublishMsg(msg); err != nil {
		p.logger.Warn("Failed to publish feed message", "subject", msg.Subject, "error", err)
	}
}
