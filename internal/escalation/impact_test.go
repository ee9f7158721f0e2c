package escalation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgerhart/aegisrange/internal/bus"
	"github.com/sgerhart/aegisrange/internal/model"
)

type degradeCall struct {
	penalty float64
	cause   string
	event   *model.Event
}

type fakeModel struct {
	calls []degradeCall
}

func (m *fakeModel) DegradeUptime(penalty float64, cause string, ev *model.Event) {
	m.calls = append(m.calls, degradeCall{penalty: penalty, cause: cause, event: ev})
}

func TestAssess_BasePenaltyIsSeverityTimesTwo(t *testing.T) {
	impact := Assess(&model.Event{Type: model.EventLoginFail, Severity: 5})

	assert.Equal(t, 10.0, impact.UptimePenalty)
	assert.False(t, impact.DataBreach)
}

func TestAssess_TypeAdjustments(t *testing.T) {
	spike := Assess(&model.Event{Type: model.EventTrafficSpike, Severity: 6})
	assert.Equal(t, 18.0, spike.UptimePenalty, "traffic spikes hit uptime 1.5x harder")
	assert.False(t, spike.DataBreach, "traffic spikes never count as breaches")

	access := Assess(&model.Event{Type: model.EventUnauthorizedAccess, Severity: 8})
	assert.True(t, access.DataBreach)
	assert.Equal(t, 160000.0, access.FinancialImpact, "breach types double financial impact")

	failure := Assess(&model.Event{Type: model.EventServiceFailure, Severity: 8})
	assert.Equal(t, 32.0, failure.UptimePenalty, "service failures hit uptime hardest")
	assert.GreaterOrEqual(t, failure.RecoveryMinutes, 120)
}

func TestAssess_UnknownTypeUsesDefaultProfile(t *testing.T) {
	impact := Assess(&model.Event{Type: model.EventType("mystery"), Severity: 4})

	assert.Equal(t, 8.0, impact.UptimePenalty)
	assert.False(t, impact.DataBreach)
}

func TestApply_EachEventIndependentlyInOrder(t *testing.T) {
	m := &fakeModel{}
	imp := NewImpactor(m, nil)

	events := []*model.Event{
		{ID: "a", Type: model.EventTrafficSpike, Severity: 5},
		{ID: "b", Type: model.EventServiceFailure, Severity: 7},
	}
	imp.Apply(events)

	require.Len(t, m.calls, 2)
	assert.Equal(t, "a", m.calls[0].event.ID)
	assert.Equal(t, 15.0, m.calls[0].penalty)
	assert.Equal(t, "traffic_spike escalation", m.calls[0].cause)
	assert.Equal(t, "b", m.calls[1].event.ID)
	assert.Equal(t, 28.0, m.calls[1].penalty)
}

func TestAttach_RespondsToEscalatedTopic(t *testing.T) {
	m := &fakeModel{}
	imp := NewImpactor(m, nil)
	b := bus.New(nil)
	imp.Attach(b)

	b.Publish(model.TopicEventsEscalated, model.EventsEscalatedPayload{
		Events: []*model.Event{{ID: "x", Type: model.EventDNSQuery, Severity: 5}},
	})

	require.Len(t, m.calls, 1)
	assert.Equal(t, "x", m.calls[0].event.ID)
}
