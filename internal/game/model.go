package game

import (
	"log/slog"
	"math"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sgerhart/aegisrange/internal/bus"
	"github.com/sgerhart/aegisrange/internal/catalog"
	"github.com/sgerhart/aegisrange/internal/metrics"
	"github.com/sgerhart/aegisrange/internal/model"
)

const (
	// trafficCap bounds the rolling traffic sample buffer (FIFO eviction).
	trafficCap = 100

	// responseCeiling caps the latency window that converts into a speed
	// bonus when a malicious event is handled.
	responseCeiling = 30 * time.Second

	// terminalCacheSize bounds the cache of recently terminal event keys
	// that keeps MarkEventAsHandled idempotent after pending-queue removal.
	terminalCacheSize = 2048
)

// SnapshotStore persists the minimal session snapshot. Nil disables
// persistence.
type SnapshotStore interface {
	Save(model.Snapshot) error
}

// pendingEntry wraps a malicious event awaiting either handling or
// escalation. An entry exists in the pending queue iff its event is
// malicious, unhandled, and not yet escalated.
type pendingEntry struct {
	Event      *model.Event
	EnqueuedAt time.Time
	Handled    bool
}

// Model owns the canonical mutable session state. It is single-threaded by
// design: the loop controller serializes every entrypoint through the session
// lock, so Model performs no internal locking and every method runs to
// completion (including its synchronous bus fan-outs) before the next begins.
type Model struct {
	bus     *bus.Bus
	logger  *slog.Logger
	metrics *metrics.Metrics
	store   SnapshotStore
	levels  []model.Level
	now     func() time.Time

	escalationTimeout time.Duration

	running       bool
	level         int // 1-based ordinal into levels
	score         int
	uptime        float64
	levelProgress int
	rules         []model.Rule
	events        []*model.Event
	pending       []*pendingEntry
	pendingByID   map[string]*pendingEntry
	pendingByKey  map[string]*pendingEntry
	traffic       []model.TrafficSample

	// terminal remembers event keys that already reached a terminal state
	// (handled or escalated) so late MarkEventAsHandled calls stay no-ops.
	terminal *lru.Cache[string, string]

	// falsePositives accumulates player mistakes since the last score
	// computation; the next detection pays for them.
	falsePositives int
}

// Config wires a Model's collaborators. Bus is required; everything else has
// a usable default.
type Config struct {
	Bus               *bus.Bus
	Logger            *slog.Logger
	Metrics           *metrics.Metrics
	Store             SnapshotStore
	EscalationTimeout time.Duration
	Now               func() time.Time
}

// NewModel creates a session model in its default (level 1, full uptime)
// state.
func NewModel(cfg Config) *Model {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.EscalationTimeout <= 0 {
		cfg.EscalationTimeout = 45 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	terminal, _ := lru.New[string, string](terminalCacheSize)

	m := &Model{
		bus:               cfg.Bus,
		logger:            cfg.Logger,
		metrics:           cfg.Metrics,
		store:             cfg.Store,
		levels:            catalog.Levels(),
		now:               cfg.Now,
		escalationTimeout: cfg.EscalationTimeout,
		terminal:          terminal,
	}
	m.resetState()
	return m
}

// Restore applies a persisted snapshot. A level outside the table range falls
// back to level 1; uptime is clamped to [0,100]. Rules are restored as-is
// (they were validated before they were ever saved).
func (m *Model) Restore(snap model.Snapshot) {
	if snap.Level >= 1 && snap.Level <= len(m.levels) {
		m.level = snap.Level
	} else {
		m.logger.Warn("Snapshot level out of range, defaulting to level 1", "level", snap.Level)
		m.level = 1
	}
	m.score = snap.Score
	m.uptime = math.Min(100, math.Max(0, snap.Uptime))
	m.levelProgress = snap.LevelProgress
	m.rules = append([]model.Rule(nil), snap.Rules...)

	m.logger.Info("Session restored from snapshot",
		"level", m.level,
		"score", m.score,
		"uptime", m.uptime,
		"rules", len(m.rules))
}

// AddEvent appends the event to the log, enqueues it for escalation tracking
// when malicious, records a traffic sample, and publishes event:added.
func (m *Model) AddEvent(ev *model.Event) {
	m.events = append(m.events, ev)

	if ev.Category == model.CategoryMalicious {
		entry := &pendingEntry{Event: ev, EnqueuedAt: m.now()}
		m.pending = append(m.pending, entry)
		m.pendingByID[ev.ID] = entry
		m.pendingByKey[ev.CompositeKey()] = entry
	}

	m.addTrafficSample(ev)

	if m.metrics != nil {
		m.metrics.EventsGeneratedTotal.WithLabelValues(string(ev.Category)).Inc()
		m.metrics.PendingEvents.Set(float64(len(m.pending)))
	}

	m.bus.Publish(model.TopicEventAdded, model.EventAddedPayload{Event: ev})
}

// addTrafficSample appends one sample and evicts the oldest past the cap.
func (m *Model) addTrafficSample(ev *model.Event) {
	volume := ev.Volume
	if volume == 0 {
		volume = 20 + ev.Severity*10
	}
	m.traffic = append(m.traffic, model.TrafficSample{
		Timestamp: ev.Timestamp,
		Volume:    volume,
		Malicious: ev.Category == model.CategoryMalicious,
	})
	if len(m.traffic) > trafficCap {
		m.traffic = m.traffic[len(m.traffic)-trafficCap:]
	}
}

// MarkEventAsHandled transitions a pending malicious event to its handled
// terminal state. The entry is located by unique ID first, then by the
// composite (timestamp, type, source IP) key for events that crossed a
// serialization boundary. Returns false without side effect when the event is
// unknown or already terminal; marking twice scores once.
func (m *Model) MarkEventAsHandled(ev *model.Event) bool {
	entry := m.pendingByID[ev.ID]
	if entry == nil {
		entry = m.pendingByKey[ev.CompositeKey()]
	}
	if entry == nil {
		if state, ok := m.TerminalState(ev); ok {
			m.logger.Debug("Event already terminal, mark ignored",
				"event_id", ev.ID,
				"state", state)
		}
		return false
	}
	if entry.Handled {
		return false
	}

	entry.Handled = true
	m.removePending(entry, "handled")

	latency := m.now().Sub(entry.EnqueuedAt)
	if latency > responseCeiling {
		latency = responseCeiling
	}
	speedBonus := int(responseCeiling.Seconds() - latency.Seconds())
	if speedBonus < 0 {
		speedBonus = 0
	}

	fp := m.falsePositives
	m.falsePositives = 0
	earned := m.CalculateScore(1, speedBonus, m.uptime, fp)

	if m.metrics != nil {
		m.metrics.EventsHandledTotal.Inc()
		m.metrics.PendingEvents.Set(float64(len(m.pending)))
	}

	m.logger.Info("Event handled",
		"event_id", entry.Event.ID,
		"event_type", entry.Event.Type,
		"latency_ms", latency.Milliseconds(),
		"speed_bonus", speedBonus,
		"earned_points", earned)

	m.bus.Publish(model.TopicEventHandled, model.EventAddedPayload{Event: entry.Event})
	return true
}

// removePending drops an entry from the queue and indexes and records its
// terminal state.
func (m *Model) removePending(entry *pendingEntry, state string) {
	for i, e := range m.pending {
		if e == entry {
			m.pending = append(m.pending[:i:i], m.pending[i+1:]...)
			break
		}
	}
	delete(m.pendingByID, entry.Event.ID)
	delete(m.pendingByKey, entry.Event.CompositeKey())
	m.terminal.Add(entry.Event.ID, state)
	m.terminal.Add(entry.Event.CompositeKey(), state)
}

// CalculateScore converts a detection outcome into points, adds them to the
// cumulative score, persists, publishes score:updated, and advances the level
// when the target is reached. Earned points are clamped to zero so the
// cumulative score never decreases outside a reset.
func (m *Model) CalculateScore(detectedCount, speedBonus int, uptime float64, falsePositiveCount int) int {
	points := float64(detectedCount*100) +
		float64(speedBonus*5) +
		uptime*10 -
		float64(falsePositiveCount*50)
	if points < 0 {
		points = 0
	}
	earned := int(math.Round(points))

	m.score += earned
	m.levelProgress += earned

	if m.metrics != nil {
		m.metrics.Score.Set(float64(m.score))
	}

	m.bus.Publish(model.TopicScoreUpdated, model.ScoreUpdatedPayload{
		TotalScore:   m.score,
		EarnedPoints: earned,
	})

	m.persist()
	m.maybeAdvanceLevel()

	return earned
}

// maybeAdvanceLevel promotes the session while the per-level progress has met
// the current target. Advancing past the final level publishes
// game:completed, then resets the whole session state and publishes
// game:reset, in that order.
func (m *Model) maybeAdvanceLevel() {
	for m.levelProgress >= m.CurrentLevel().TargetScore {
		if m.level >= len(m.levels) {
			m.logger.Info("Final level cleared, session complete", "score", m.score)
			m.bus.Publish(model.TopicGameCompleted, nil)
			m.resetState()
			m.persist()
			m.bus.Publish(model.TopicGameReset, nil)
			return
		}

		m.level++
		m.levelProgress = 0
		lvl := m.CurrentLevel()

		m.logger.Info("Level advanced", "level", lvl.Ordinal, "name", lvl.Name)
		if m.metrics != nil {
			m.metrics.Level.Set(float64(lvl.Ordinal))
		}
		m.bus.Publish(model.TopicLevelChanged, model.LevelChangedPayload{Level: lvl})
		m.persist()
	}
}

// CheckEscalations sweeps the pending queue: entries already handled are
// removed without escalating, entries past the escalation timeout are removed
// and escalated, and everything else stays pending. events:escalated is
// published only when the escalated list is non-empty.
func (m *Model) CheckEscalations() []*model.Event {
	now := m.now()

	var escalated []*model.Event
	remaining := m.pending[:0]
	for _, entry := range m.pending {
		switch {
		case entry.Handled:
			delete(m.pendingByID, entry.Event.ID)
			delete(m.pendingByKey, entry.Event.CompositeKey())
			m.terminal.Add(entry.Event.ID, "handled")
			m.terminal.Add(entry.Event.CompositeKey(), "handled")
		case now.Sub(entry.EnqueuedAt) >= m.escalationTimeout:
			escalated = append(escalated, entry.Event)
			delete(m.pendingByID, entry.Event.ID)
			delete(m.pendingByKey, entry.Event.CompositeKey())
			m.terminal.Add(entry.Event.ID, "escalated")
			m.terminal.Add(entry.Event.CompositeKey(), "escalated")
		default:
			remaining = append(remaining, entry)
		}
	}
	m.pending = remaining

	if m.metrics != nil {
		m.metrics.PendingEvents.Set(float64(len(m.pending)))
		m.metrics.EventsEscalatedTotal.Add(float64(len(escalated)))
	}

	if len(escalated) > 0 {
		m.logger.Warn("Events escalated past timeout", "count", len(escalated))
		m.bus.Publish(model.TopicEventsEscalated, model.EventsEscalatedPayload{Events: escalated})
	}

	return escalated
}

// DegradeUptime subtracts an escalation penalty from uptime (clamped at 0),
// publishes uptime:updated, and ends the session with game:over the first
// time uptime reaches 0.
func (m *Model) DegradeUptime(penalty float64, cause string, ev *model.Event) {
	before := m.uptime
	m.uptime = math.Max(0, m.uptime-penalty)

	if m.metrics != nil {
		m.metrics.Uptime.Set(m.uptime)
	}

	m.bus.Publish(model.TopicUptimeUpdated, model.UptimeUpdatedPayload{
		Uptime: m.uptime,
		Cause:  cause,
	})
	m.persist()

	// game:over marks the transition to zero, not the zero state itself; a
	// batch of escalations past exhaustion ends the session exactly once.
	if m.uptime <= 0 && before > 0 {
		m.logger.Warn("Uptime exhausted, session over", "cause", cause)
		m.bus.Publish(model.TopicGameOver, model.GameOverPayload{
			Reason: "uptime_exhausted",
			Event:  ev,
		})
	}
}

// RecordFalsePositive charges a player mistake (an action applied to a
// non-malicious event) against the next score computation.
func (m *Model) RecordFalsePositive(ev *model.Event) {
	m.falsePositives++
	if m.metrics != nil {
		m.metrics.FalsePositivesTotal.Inc()
	}
	m.logger.Info("False positive recorded",
		"event_id", ev.ID,
		"event_type", ev.Type,
		"outstanding", m.falsePositives)
}

// AddRule appends a validated rule (insertion order is evaluation order) and
// publishes rule:added.
func (m *Model) AddRule(r model.Rule) {
	m.rules = append(m.rules, r)
	m.persist()
	m.bus.Publish(model.TopicRuleAdded, model.RuleAddedPayload{Rule: r})
}

// ResetState returns the session to its default state and persists it. The
// caller is responsible for publishing game:reset.
func (m *Model) ResetState() {
	m.resetState()
	m.persist()
}

func (m *Model) resetState() {
	m.running = false
	m.level = 1
	m.score = 0
	m.uptime = 100
	m.levelProgress = 0
	m.rules = nil
	m.events = nil
	m.pending = nil
	m.pendingByID = make(map[string]*pendingEntry)
	m.pendingByKey = make(map[string]*pendingEntry)
	m.traffic = nil
	m.falsePositives = 0
	m.terminal.Purge()

	if m.metrics != nil {
		m.metrics.Score.Set(0)
		m.metrics.Uptime.Set(100)
		m.metrics.Level.Set(1)
		m.metrics.PendingEvents.Set(0)
	}
}

// persist writes the current snapshot, logging failures and carrying on.
func (m *Model) persist() {
	if m.store == nil {
		return
	}
	if err := m.store.Save(m.SnapshotState()); err != nil {
		m.logger.Warn("Failed to persist snapshot", "error", err)
	}
}

// SnapshotState captures the persisted subset of the session.
func (m *Model) SnapshotState() model.Snapshot {
	return model.Snapshot{
		Level:         m.level,
		Score:         m.score,
		Uptime:        m.uptime,
		Rules:         append([]model.Rule(nil), m.rules...),
		LevelProgress: m.levelProgress,
	}
}

// Accessors. All of these run under the session lock like every other
// entrypoint.

// IsRunning reports whether the simulation loop is active.
func (m *Model) IsRunning() bool { return m.running }

// SetRunning flips the run flag.
func (m *Model) SetRunning(running bool) { m.running = running }

// CurrentLevel returns the active level descriptor.
func (m *Model) CurrentLevel() model.Level {
	return catalog.LevelByOrdinal(m.level)
}

// Score returns the cumulative session score.
func (m *Model) Score() int { return m.score }

// Uptime returns the current uptime percentage.
func (m *Model) Uptime() float64 { return m.uptime }

// LevelProgress returns points earned toward the current level target.
func (m *Model) LevelProgress() int { return m.levelProgress }

// Rules returns the stored rules in insertion order.
func (m *Model) Rules() []model.Rule {
	return append([]model.Rule(nil), m.rules...)
}

// Events returns up to limit most recent events (all of them when limit <= 0).
func (m *Model) Events(limit int) []*model.Event {
	if limit <= 0 || limit >= len(m.events) {
		return append([]*model.Event(nil), m.events...)
	}
	return append([]*model.Event(nil), m.events[len(m.events)-limit:]...)
}

// EventByID locates an event in the log.
func (m *Model) EventByID(id string) (*model.Event, bool) {
	for _, ev := range m.events {
		if ev.ID == id {
			return ev, true
		}
	}
	return nil, false
}

// TerminalState reports how an event left the pending queue ("handled" or
// "escalated"). Events still pending, or old enough to have been evicted from
// the terminal cache, report false; callers treat that the same as unknown.
func (m *Model) TerminalState(ev *model.Event) (string, bool) {
	if state, ok := m.terminal.Get(ev.ID); ok {
		return state, true
	}
	return m.terminal.Get(ev.CompositeKey())
}

// PendingEvents returns the events currently awaiting handling or escalation.
func (m *Model) PendingEvents() []*model.Event {
	out := make([]*model.Event, 0, len(m.pending))
	for _, entry := range m.pending {
		out = append(out, entry.Event)
	}
	return out
}

// Traffic returns the rolling traffic samples, oldest first.
func (m *Model) Traffic() []model.TrafficSample {
	return append([]model.TrafficSample(nil), m.traffic...)
}
