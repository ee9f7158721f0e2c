package model

import (
	"fmt"
	"time"
)

// Category classifies an event by intent.
type Category string

const (
	CategoryMalicious     Category = "malicious"
	CategoryNoise         Category = "noise"
	CategoryFalsePositive Category = "false_positive"
)

// EventType tags a simulated security event. Every switch over EventType in
// this module enumerates the known constants; unrecognized types fall through
// to a documented default rather than an error.
type EventType string

const (
	EventLoginFail          EventType = "login_fail"
	EventTrafficSpike       EventType = "traffic_spike"
	EventProcessSpawn       EventType = "process_spawn"
	EventServiceFailure     EventType = "service_failure"
	EventDNSQuery           EventType = "dns_query"
	EventUnauthorizedAccess EventType = "unauthorized_access"
	EventHTTPError          EventType = "http_error"
	EventSQLInjection       EventType = "sql_injection"

	EventScheduledBackup EventType = "scheduled_backup"
	EventCertRenewal     EventType = "cert_renewal"
	EventSoftwareUpdate  EventType = "software_update"
	EventRoutineScan     EventType = "routine_scan"

	// EventDuplicateAlert is only produced by the loop controller's
	// false-positive dice roll, never drawn from the catalog.
	EventDuplicateAlert EventType = "duplicate_alert"
)

// ActionTag identifies a remediation action a player can apply to an event.
type ActionTag string

const (
	ActionBlockIP        ActionTag = "block_ip"
	ActionLockAccount    ActionTag = "lock_account"
	ActionRateLimit      ActionTag = "rate_limit"
	ActionKillProcess    ActionTag = "kill_process"
	ActionIsolateHost    ActionTag = "isolate_host"
	ActionRestartService ActionTag = "restart_service"
	ActionBlockDomain    ActionTag = "block_domain"
	ActionRevokeAccess   ActionTag = "revoke_access"
	ActionPatchWAF       ActionTag = "patch_waf"
)

// Event is one simulated security occurrence. Events are immutable once
// created; the generator fills in every field and nothing mutates them
// afterwards. The type-specific fields (User, Process, ...) are zero for
// types they do not apply to.
type Event struct {
	ID          string      `json:"id"`
	Timestamp   time.Time   `json:"timestamp"`
	Type        EventType   `json:"type"`
	Category    Category    `json:"category"`
	Severity    int         `json:"severity"` // 1-10
	IsNoise     bool        `json:"is_noise"`
	Description string      `json:"description"`
	Remediation []ActionTag `json:"remediation,omitempty"`

	SourceIP string `json:"source_ip"`
	User     string `json:"user,omitempty"`
	Process  string `json:"process,omitempty"`
	Domain   string `json:"domain,omitempty"`
	URL      string `json:"url,omitempty"`
	Resource string `json:"resource,omitempty"`
	Service  string `json:"service,omitempty"`
	Code     int    `json:"code,omitempty"`
	Count    int    `json:"count,omitempty"`
	Volume   int    `json:"volume,omitempty"` // Mbps
}

// CompositeKey is the external matching contract for pending events:
// creation instant, type, and source IP. Internally the unique ID is
// authoritative; the composite key exists for callers that round-tripped an
// event through serialization and lost the ID.
func (e *Event) CompositeKey() string {
	return fmt.Sprintf("%d|%s|%s", e.Timestamp.UnixMilli(), e.Type, e.SourceIP)
}

// Rule is a player-authored detection predicate. Exactly one of Threshold or
// Pattern is meaningful, depending on ConditionType. Rules are immutable once
// saved except for Enabled, which is owned by the presentation layer.
type Rule struct {
	ID            string    `json:"id"`
	ConditionType EventType `json:"condition_type"`
	Threshold     int       `json:"threshold,omitempty"`
	Pattern       string    `json:"pattern,omitempty"`
	Combinator    string    `json:"combinator,omitempty"` // reserved for compound conditions
	Enabled       bool      `json:"enabled"`
	CreatedAt     time.Time `json:"created_at"`
}

// Level is a static difficulty descriptor. Levels form a fixed ordered table;
// advancing past the last one wraps the whole session back to level 1.
type Level struct {
	Ordinal                  int     `json:"ordinal"`
	Name                     string  `json:"name"`
	Description              string  `json:"description"`
	EventFrequencyMultiplier float64 `json:"event_frequency_multiplier"`
	NoiseEventProbability    float64 `json:"noise_event_probability"`
	AttackSophistication     string  `json:"attack_sophistication"`
	TargetScore              int     `json:"target_score"`
}

// TrafficSample is one point in the rolling traffic chart feed.
type TrafficSample struct {
	Timestamp time.Time `json:"timestamp"`
	Volume    int       `json:"volume"`
	Malicious bool      `json:"malicious"`
}

// Snapshot is the persisted session state. The event log and pending queue
// are deliberately ephemeral and excluded; loading drops any other keys.
type Snapshot struct {
	Level         int     `json:"level"`
	Score         int     `json:"score"`
	Uptime        float64 `json:"uptime"`
	Rules         []Rule  `json:"rules"`
	LevelProgress int     `json:"level_progress"`
}
