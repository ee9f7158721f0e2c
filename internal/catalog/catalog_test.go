package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgerhart/aegisrange/internal/model"
)

func TestTemplates_MaliciousHaveRemediationAndDamage(t *testing.T) {
	for _, tmpl := range Templates() {
		if tmpl.Category != model.CategoryMalicious {
			continue
		}
		assert.NotEmpty(t, tmpl.Remediation, "malicious template %s must have remediation", tmpl.Type)

		profile := DamageFor(tmpl.Type)
		assert.Greater(t, profile.UptimeMultiplier, 0.0, "malicious template %s must have a damage profile", tmpl.Type)
	}
}

func TestTemplates_NoiseFlagsMatchCategory(t *testing.T) {
	for _, tmpl := range Templates() {
		assert.Positive(t, tmpl.BaseLikelihood, "template %s needs a positive weight", tmpl.Type)
		assert.GreaterOrEqual(t, tmpl.Severity, 1)
		assert.LessOrEqual(t, tmpl.Severity, 10)
	}
}

func TestDamageFor_UnknownTypeFallsBack(t *testing.T) {
	profile := DamageFor(model.EventType("not_a_real_type"))

	assert.Equal(t, 1.0, profile.UptimeMultiplier)
	assert.False(t, profile.DataBreach)
}

func TestDamageFor_TypeAdjustments(t *testing.T) {
	assert.False(t, DamageFor(model.EventTrafficSpike).DataBreach, "traffic spikes never count as breaches")
	assert.Greater(t, DamageFor(model.EventTrafficSpike).UptimeMultiplier, 1.0)

	assert.True(t, DamageFor(model.EventUnauthorizedAccess).DataBreach)
	assert.Equal(t, 2.0, DamageFor(model.EventUnauthorizedAccess).FinancialMultiplier)
	assert.True(t, DamageFor(model.EventSQLInjection).DataBreach)
	assert.Equal(t, 2.0, DamageFor(model.EventSQLInjection).FinancialMultiplier)

	assert.Equal(t, 2.0, DamageFor(model.EventServiceFailure).UptimeMultiplier)
	assert.GreaterOrEqual(t, DamageFor(model.EventServiceFailure).RecoveryMinutes, 120)
}

func TestLevelByOrdinal_OutOfRangeDefaultsToFirst(t *testing.T) {
	levels := Levels()
	require.NotEmpty(t, levels)

	assert.Equal(t, levels[0], LevelByOrdinal(0))
	assert.Equal(t, levels[0], LevelByOrdinal(len(levels)+1))
	assert.Equal(t, levels[2], LevelByOrdinal(3))
}

func TestLevels_OrderedAndScored(t *testing.T) {
	levels := Levels()

	prevTarget := 0
	for i, lvl := range levels {
		assert.Equal(t, i+1, lvl.Ordinal)
		assert.Greater(t, lvl.TargetScore, prevTarget, "target scores must increase per level")
		prevTarget = lvl.TargetScore
	}
}
