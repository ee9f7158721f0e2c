package model

// Bus topics produced and consumed by the simulation core. Together with the
// payload types below they form the contract with the presentation layer.
const (
	TopicEventAdded      = "event:added"
	TopicEventHandled    = "event:handled"
	TopicEventsEscalated = "events:escalated"
	TopicScoreUpdated    = "score:updated"
	TopicUptimeUpdated   = "uptime:updated"
	TopicLevelChanged    = "level:changed"
	TopicGameStarted     = "game:started"
	TopicGamePaused      = "game:paused"
	TopicGameReset       = "game:reset"
	TopicGameCompleted   = "game:completed"
	TopicGameOver        = "game:over"
	TopicRuleAdded       = "rule:added"
	TopicRulesTriggered  = "rules:triggered"
)

// EventAddedPayload accompanies event:added and event:handled.
type EventAddedPayload struct {
	Event *Event `json:"event"`
}

// EventsEscalatedPayload accompanies events:escalated.
type EventsEscalatedPayload struct {
	Events []*Event `json:"events"`
}

// ScoreUpdatedPayload accompanies score:updated.
type ScoreUpdatedPayload struct {
	TotalScore   int `json:"total_score"`
	EarnedPoints int `json:"earned_points"`
}

// UptimeUpdatedPayload accompanies uptime:updated.
type UptimeUpdatedPayload struct {
	Uptime float64 `json:"uptime"`
	Cause  string  `json:"cause"`
}

// LevelChangedPayload accompanies level:changed.
type LevelChangedPayload struct {
	Level Level `json:"level"`
}

// GameOverPayload accompanies game:over.
type GameOverPayload struct {
	Reason string `json:"reason"`
	Event  *Event `json:"event,omitempty"`
}

// RuleAddedPayload accompanies rule:added.
type RuleAddedPayload struct {
	Rule Rule `json:"rule"`
}

// RulesTriggeredPayload accompanies rules:triggered.
type RulesTriggeredPayload struct {
	Event *Event `json:"event"`
	Rules []Rule `json:"rules"`
}
