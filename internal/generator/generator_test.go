package generator

import (
	"math/rand"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgerhart/aegisrange/internal/catalog"
	"github.com/sgerhart/aegisrange/internal/model"
)

func newTestGenerator(seed int64) *Generator {
	return New(rand.New(rand.NewSource(seed)), nil, nil)
}

func TestChooseTemplate_WeightedDistribution(t *testing.T) {
	g := newTestGenerator(42)
	lvl := catalog.LevelByOrdinal(1)

	total := 0.0
	for _, tmpl := range catalog.Templates() {
		total += Weight(tmpl, lvl)
	}

	const draws = 10000
	counts := make(map[model.EventType]int)
	for i := 0; i < draws; i++ {
		counts[g.ChooseTemplate(lvl).Type]++
	}

	// Empirical frequency of each template should track weight/total within
	// a tolerance loose enough for 10k draws.
	for _, tmpl := range catalog.Templates() {
		expected := Weight(tmpl, lvl) / total
		actual := float64(counts[tmpl.Type]) / draws
		assert.InDelta(t, expected, actual, 0.02,
			"template %s: expected freq %.3f, got %.3f", tmpl.Type, expected, actual)
	}
}

func TestWeight_ScalingFactors(t *testing.T) {
	lvl := model.Level{EventFrequencyMultiplier: 2.0, NoiseEventProbability: 0.25}

	noise := catalog.Template{Category: model.CategoryNoise, BaseLikelihood: 1.0}
	assert.Equal(t, 0.25, Weight(noise, lvl))

	plain := catalog.Template{Category: model.CategoryMalicious, BaseLikelihood: 0.5}
	assert.Equal(t, 1.0, Weight(plain, lvl))

	scaled := catalog.Template{Category: model.CategoryMalicious, BaseLikelihood: 0.5, ScalingFrequency: 1.5}
	assert.Equal(t, 1.5, Weight(scaled, lvl))
}

func TestGenerateEvent_EveryEventHasSourceIP(t *testing.T) {
	g := newTestGenerator(7)
	lvl := catalog.LevelByOrdinal(1)

	for i := 0; i < 200; i++ {
		ev := g.GenerateEvent(lvl)
		require.NotEmpty(t, ev.ID)
		require.False(t, ev.Timestamp.IsZero())
		assert.NotNil(t, net.ParseIP(ev.SourceIP), "source IP %q must parse", ev.SourceIP)
	}
}

func TestGenerateEvent_TypeSpecificFields(t *testing.T) {
	g := newTestGenerator(11)
	lvl := catalog.LevelByOrdinal(5) // low noise, more malicious variety

	seen := make(map[model.EventType]bool)
	for i := 0; i < 2000; i++ {
		ev := g.GenerateEvent(lvl)
		seen[ev.Type] = true

		switch ev.Type {
		case model.EventLoginFail:
			assert.NotEmpty(t, ev.User)
			assert.Greater(t, ev.Count, 0)
		case model.EventTrafficSpike:
			assert.Greater(t, ev.Volume, 0)
		case model.EventProcessSpawn:
			assert.NotEmpty(t, ev.Process)
		case model.EventServiceFailure:
			assert.NotEmpty(t, ev.Service)
		case model.EventDNSQuery:
			assert.NotEmpty(t, ev.Domain)
		case model.EventUnauthorizedAccess:
			assert.NotEmpty(t, ev.Resource)
		case model.EventHTTPError:
			assert.GreaterOrEqual(t, ev.Code, 400)
			assert.NotEmpty(t, ev.URL)
		case model.EventSQLInjection:
			assert.Contains(t, ev.URL, "?")
		}
	}

	// With 2000 seeded draws every malicious type should appear.
	for _, typ := range []model.EventType{
		model.EventLoginFail, model.EventTrafficSpike, model.EventProcessSpawn,
		model.EventDNSQuery, model.EventHTTPError,
	} {
		assert.True(t, seen[typ], "expected at least one %s in 2000 draws", typ)
	}
}

func TestGenerateEvent_MaliciousHaveRemediation(t *testing.T) {
	g := newTestGenerator(3)
	lvl := catalog.LevelByOrdinal(3)

	for i := 0; i < 500; i++ {
		ev := g.GenerateEvent(lvl)
		if ev.Category == model.CategoryMalicious {
			assert.NotEmpty(t, ev.Remediation, "malicious event %s must carry remediation", ev.Type)
		}
		assert.Equal(t, ev.Category == model.CategoryNoise, ev.IsNoise)
	}
}

func TestGenerateEvent_UsesInjectedClock(t *testing.T) {
	frozen := time.Unix(1700000000, 0)
	g := New(rand.New(rand.NewSource(5)), func() time.Time { return frozen }, nil)
	lvl := catalog.LevelByOrdinal(1)

	ev := g.GenerateEvent(lvl)
	assert.Equal(t, frozen, ev.Timestamp)

	dup := g.GenerateDuplicateAlert(ev)
	assert.Equal(t, frozen, dup.Timestamp)
}

func TestGenerateDuplicateAlert(t *testing.T) {
	g := newTestGenerator(9)
	source := g.GenerateEvent(catalog.LevelByOrdinal(1))

	dup := g.GenerateDuplicateAlert(source)

	assert.Equal(t, model.EventDuplicateAlert, dup.Type)
	assert.Equal(t, model.CategoryFalsePositive, dup.Category)
	assert.Equal(t, source.SourceIP, dup.SourceIP)
	assert.NotEqual(t, source.ID, dup.ID)
	assert.Empty(t, dup.Remediation)
}
