package escalation

import (
	"fmt"
	"log/slog"

	"github.com/sgerhart/aegisrange/internal/bus"
	"github.com/sgerhart/aegisrange/internal/catalog"
	"github.com/sgerhart/aegisrange/internal/model"
)

// UptimeDegrader is the slice of the game model the impactor drives. The
// impactor never touches game state directly.
type UptimeDegrader interface {
	DegradeUptime(penalty float64, cause string, ev *model.Event)
}

// Impact describes the simulated consequences of one escalated event.
type Impact struct {
	Event           *model.Event
	UptimePenalty   float64
	FinancialImpact float64
	RecoveryMinutes int
	DataBreach      bool
}

// Impactor applies scripted damage when unhandled malicious events escalate.
// Each escalated event is applied independently, in the order supplied, with
// no rollback and no batching.
type Impactor struct {
	model  UptimeDegrader
	logger *slog.Logger
}

// NewImpactor creates an impactor over the given model.
func NewImpactor(m UptimeDegrader, logger *slog.Logger) *Impactor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Impactor{model: m, logger: logger}
}

// Assess computes the damage of a single escalated event from its static
// per-type profile. Unknown types resolve to the default profile, never to an
// error. The base uptime penalty is severity * 2, scaled by the profile's
// type multiplier.
func Assess(ev *model.Event) Impact {
	profile := catalog.DamageFor(ev.Type)

	return Impact{
		Event:           ev,
		UptimePenalty:   float64(ev.Severity) * 2 * profile.UptimeMultiplier,
		FinancialImpact: float64(ev.Severity) * 10000 * profile.FinancialMultiplier,
		RecoveryMinutes: profile.RecoveryMinutes,
		DataBreach:      profile.DataBreach,
	}
}

// Apply degrades uptime for every escalated event in order. Fire-and-forget
// per event: the model publishes uptime:updated per application and game:over
// if uptime bottoms out.
func (i *Impactor) Apply(events []*model.Event) {
	for _, ev := range events {
		impact := Assess(ev)

		i.logger.Warn("Escalation impact applied",
			"event_id", ev.ID,
			"event_type", ev.Type,
			"uptime_penalty", impact.UptimePenalty,
			"financial_impact", impact.FinancialImpact,
			"recovery_minutes", impact.RecoveryMinutes,
			"data_breach", impact.DataBreach)

		cause := fmt.Sprintf("%s escalation", ev.Type)
		i.model.DegradeUptime(impact.UptimePenalty, cause, ev)
	}
}

// Attach subscribes the impactor to events:escalated and returns the
// unsubscribe closure.
func (i *Impactor) Attach(b *bus.Bus) func() {
	return b.Subscribe(model.TopicEventsEscalated, func(payload any) {
		escalated, ok := payload.(model.EventsEscalatedPayload)
		if !ok {
			return
		}
		i.Apply(escalated.Events)
	})
}
