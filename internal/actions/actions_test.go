package actions

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sgerhart/aegisrange/internal/model"
)

func TestEffective_ExplicitRemediation(t *testing.T) {
	ev := &model.Event{
		Type:        model.EventProcessSpawn,
		Remediation: []model.ActionTag{model.ActionKillProcess, model.ActionIsolateHost},
	}

	assert.True(t, Effective(ev, model.ActionKillProcess))
	assert.False(t, Effective(ev, model.ActionBlockDomain))
}

func TestEffective_FallbackEquivalence(t *testing.T) {
	// block_ip is not in the event's explicit set but the type is
	// network-adjacent.
	ev := &model.Event{
		Type:        model.EventDNSQuery,
		Remediation: []model.ActionTag{model.ActionBlockDomain},
	}

	assert.True(t, Effective(ev, model.ActionBlockIP))
}

func TestEffective_NoiseEventResistsEverything(t *testing.T) {
	ev := &model.Event{Type: model.EventScheduledBackup}

	for _, action := range []model.ActionTag{
		model.ActionBlockIP, model.ActionKillProcess, model.ActionRestartService,
		model.ActionIsolateHost, model.ActionPatchWAF,
	} {
		assert.False(t, Effective(ev, action), "%s must not be effective against noise", action)
	}
}
