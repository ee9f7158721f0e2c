package catalog

import (
	"github.com/sgerhart/aegisrange/internal/model"
)

// DamageProfile describes the simulated blast radius of an escalated event.
// UptimeMultiplier scales the base penalty of severity * 2 uptime points.
type DamageProfile struct {
	UptimeMultiplier    float64
	FinancialMultiplier float64
	RecoveryMinutes     int
	DataBreach          bool
}

// defaultDamage is used for types without a registered profile (unknown-type
// lookup misses resolve to this, never to an error).
var defaultDamage = DamageProfile{
	UptimeMultiplier:    1.0,
	FinancialMultiplier: 1.0,
	RecoveryMinutes:     30,
	DataBreach:          false,
}

var damageProfiles = map[model.EventType]DamageProfile{
	model.EventLoginFail: {
		UptimeMultiplier:    1.0,
		FinancialMultiplier: 1.5,
		RecoveryMinutes:     20,
		DataBreach:          false,
	},
	// Traffic spikes hit availability harder than anything else they touch
	// and never count as a data breach.
	model.EventTrafficSpike: {
		UptimeMultiplier:    1.5,
		FinancialMultiplier: 1.0,
		RecoveryMinutes:     45,
		DataBreach:          false,
	},
	model.EventProcessSpawn: {
		UptimeMultiplier:    1.0,
		FinancialMultiplier: 2.0,
		RecoveryMinutes:     60,
		DataBreach:          true,
	},
	// Service failures carry the heaviest uptime hit and the longest
	// recovery window.
	model.EventServiceFailure: {
		UptimeMultiplier:    2.0,
		FinancialMultiplier: 1.5,
		RecoveryMinutes:     120,
		DataBreach:          false,
	},
	model.EventDNSQuery: {
		UptimeMultiplier:    1.0,
		FinancialMultiplier: 1.5,
		RecoveryMinutes:     30,
		DataBreach:          false,
	},
	model.EventUnauthorizedAccess: {
		UptimeMultiplier:    1.0,
		FinancialMultiplier: 2.0,
		RecoveryMinutes:     90,
		DataBreach:          true,
	},
	model.EventHTTPError: {
		UptimeMultiplier:    1.0,
		FinancialMultiplier: 1.0,
		RecoveryMinutes:     15,
		DataBreach:          false,
	},
	model.EventSQLInjection: {
		UptimeMultiplier:    1.2,
		FinancialMultiplier: 2.0,
		RecoveryMinutes:     90,
		DataBreach:          true,
	},
}

// DamageFor returns the escalation damage profile for an event type, falling
// back to a conservative default for unknown types.
func DamageFor(t model.EventType) DamageProfile {
	if profile, ok := damageProfiles[t]; ok {
		return profile
	}
	return defaultDamage
}

// FallbackActions maps a remediation action to additional event types it is
// considered effective against, beyond each event's explicit remediation set.
// Blocking an IP helps against anything network-adjacent; isolating a host
// contains anything running on it.
var FallbackActions = map[model.ActionTag][]model.EventType{
	model.ActionBlockIP: {
		model.EventLoginFail,
		model.EventTrafficSpike,
		model.EventDNSQuery,
		model.EventUnauthorizedAccess,
		model.EventHTTPError,
		model.EventSQLInjection,
	},
	model.ActionIsolateHost: {
		model.EventProcessSpawn,
		model.EventServiceFailure,
	},
	model.ActionRateLimit: {
		model.EventHTTPError,
		model.EventLoginFail,
	},
}
