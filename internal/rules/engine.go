package rules

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sgerhart/aegisrange/internal/bus"
	"github.com/sgerhart/aegisrange/internal/metrics"
	"github.com/sgerhart/aegisrange/internal/model"
)

// Validation errors reported to the presentation layer. Rejected submissions
// leave no state behind.
var (
	ErrUnknownConditionType = errors.New("unknown condition type")
	ErrThresholdNotInteger  = errors.New("threshold must parse as an integer")
	ErrThresholdNegative    = errors.New("threshold must not be negative")
	ErrCodeOutOfRange       = errors.New("http code threshold must lie in [100,599]")
	ErrEmptyPattern         = errors.New("pattern must not be empty")
)

// Submission is a raw rule as submitted by the player: the predicate
// parameter arrives as an untyped string and is parsed during validation.
type Submission struct {
	ConditionType string `json:"condition_type"`
	Value         string `json:"value"`
	Combinator    string `json:"combinator,omitempty"`
}

// Store is the slice of the game model the engine needs: rule storage and the
// handled transition. The engine never mutates game state directly.
type Store interface {
	Rules() []model.Rule
	AddRule(model.Rule)
	Events(limit int) []*model.Event
	MarkEventAsHandled(*model.Event) bool
}

// Engine validates player-authored detection rules and evaluates them against
// events, either one-shot (test mode) or continuously against the live
// event:added feed.
type Engine struct {
	store   Store
	bus     *bus.Bus
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewEngine creates a rule engine over the given store.
func NewEngine(store Store, b *bus.Bus, m *metrics.Metrics, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, bus: b, logger: logger, metrics: m}
}

// conditionKind classifies how a condition type compares its parameter.
type conditionKind int

const (
	kindCountThreshold  conditionKind = iota // strict > on Count
	kindVolumeThreshold                      // strict > on Volume
	kindCodeThreshold                        // >= on Code
	kindExactMatch                           // string equality
	kindSubstring                            // substring containment
)

// conditionKinds is the exhaustive table of rule-eligible event types. Types
// absent here (noise, duplicate alerts) cannot be targeted by rules.
var conditionKinds = map[model.EventType]conditionKind{
	model.EventLoginFail:          kindCountThreshold,
	model.EventTrafficSpike:       kindVolumeThreshold,
	model.EventProcessSpawn:       kindExactMatch,
	model.EventServiceFailure:     kindExactMatch,
	model.EventDNSQuery:           kindSubstring,
	model.EventUnauthorizedAccess: kindSubstring,
	model.EventHTTPError:          kindCodeThreshold,
	model.EventSQLInjection:       kindSubstring,
}

// Validate parses and checks a submission, returning the storable rule. On
// any failure the submission is rejected with a reason and nothing is stored.
func (e *Engine) Validate(sub Submission) (model.Rule, error) {
	condType := model.EventType(strings.TrimSpace(sub.ConditionType))
	kind, ok := conditionKinds[condType]
	if !ok {
		return model.Rule{}, fmt.Errorf("%w: %q", ErrUnknownConditionType, sub.ConditionType)
	}

	rule := model.Rule{
		ID:            uuid.NewString(),
		ConditionType: condType,
		Combinator:    sub.Combinator,
		Enabled:       true,
		CreatedAt:     time.Now(),
	}

	switch kind {
	case kindCountThreshold, kindVolumeThreshold:
		n, err := strconv.Atoi(strings.TrimSpace(sub.Value))
		if err != nil {
			return model.Rule{}, fmt.Errorf("%w: %q", ErrThresholdNotInteger, sub.Value)
		}
		if n < 0 {
			return model.Rule{}, fmt.Errorf("%w: %d", ErrThresholdNegative, n)
		}
		rule.Threshold = n
	case kindCodeThreshold:
		n, err := strconv.Atoi(strings.TrimSpace(sub.Value))
		if err != nil {
			return model.Rule{}, fmt.Errorf("%w: %q", ErrThresholdNotInteger, sub.Value)
		}
		if n < 100 || n > 599 {
			return model.Rule{}, fmt.Errorf("%w: %d", ErrCodeOutOfRange, n)
		}
		rule.Threshold = n
	case kindExactMatch, kindSubstring:
		v := strings.TrimSpace(sub.Value)
		if v == "" {
			return model.Rule{}, ErrEmptyPattern
		}
		rule.Pattern = v
	}

	return rule, nil
}

// SaveRule validates a submission and stores the resulting rule. The store
// publishes rule:added on success.
func (e *Engine) SaveRule(sub Submission) (model.Rule, error) {
	rule, err := e.Validate(sub)
	if err != nil {
		e.logger.Info("Rule submission rejected", "condition_type", sub.ConditionType, "error", err)
		return model.Rule{}, err
	}

	e.store.AddRule(rule)
	e.logger.Info("Rule saved",
		"rule_id", rule.ID,
		"condition_type", rule.ConditionType,
		"threshold", rule.Threshold,
		"pattern", rule.Pattern)
	return rule, nil
}

// Evaluate reports whether a rule matches an event. A rule never matches an
// event of a different type; beyond that precondition each condition type has
// its own comparison semantics.
func Evaluate(rule model.Rule, ev *model.Event) bool {
	if ev == nil || ev.Type != rule.ConditionType {
		return false
	}

	switch rule.ConditionType {
	case model.EventLoginFail:
		return ev.Count > rule.Threshold
	case model.EventTrafficSpike:
		return ev.Volume > rule.Threshold
	case model.EventProcessSpawn:
		return ev.Process == rule.Pattern
	case model.EventServiceFailure:
		return ev.Service == rule.Pattern
	case model.EventDNSQuery:
		return strings.Contains(ev.Domain, rule.Pattern)
	case model.EventUnauthorizedAccess:
		return strings.Contains(ev.Resource, rule.Pattern)
	case model.EventHTTPError:
		return ev.Code >= rule.Threshold
	case model.EventSQLInjection:
		return strings.Contains(ev.URL, rule.Pattern)
	default:
		return false
	}
}

// CheckEventAgainstRules evaluates every stored rule in insertion order and
// returns all matches, not just the first.
func (e *Engine) CheckEventAgainstRules(ev *model.Event) []model.Rule {
	var matched []model.Rule
	for _, rule := range e.store.Rules() {
		if e.metrics != nil {
			e.metrics.RulesEvaluatedTotal.Inc()
		}
		if Evaluate(rule, ev) {
			matched = append(matched, rule)
		}
	}
	return matched
}

// TestRule validates a submission and evaluates it one-shot against the
// current event log, returning the matching events without storing anything.
func (e *Engine) TestRule(sub Submission) ([]*model.Event, error) {
	rule, err := e.Validate(sub)
	if err != nil {
		return nil, err
	}

	var matches []*model.Event
	for _, ev := range e.store.Events(0) {
		if Evaluate(rule, ev) {
			matches = append(matches, ev)
		}
	}
	return matches, nil
}

// Attach subscribes the engine's live evaluation to event:added on the bus
// and returns the unsubscribe closure. On a live match the engine publishes
// rules:triggered and instructs the model to mark the event handled; the
// model only needs at least one match for that, and marking is idempotent.
func (e *Engine) Attach(b *bus.Bus) func() {
	return b.Subscribe(model.TopicEventAdded, func(payload any) {
		added, ok := payload.(model.EventAddedPayload)
		if !ok || added.Event == nil {
			return
		}
		e.onEvent(added.Event)
	})
}

func (e *Engine) onEvent(ev *model.Event) {
	matched := e.CheckEventAgainstRules(ev)
	if len(matched) == 0 {
		return
	}

	if e.metrics != nil {
		e.metrics.RulesTriggeredTotal.Add(float64(len(matched)))
	}

	e.logger.Info("Rules triggered",
		"event_id", ev.ID,
		"event_type", ev.Type,
		"matched_rules", len(matched))

	// Publish before the handled transition so subscribers observe the
	// trigger first, then the score update from marking. Publish is
	// synchronous, so the whole chain completes before the generation tick
	// that produced the event returns.
	e.bus.Publish(model.TopicRulesTriggered, model.RulesTriggeredPayload{
		Event: ev,
		Rules: matched,
	})
	e.store.MarkEventAsHandled(ev)
}
