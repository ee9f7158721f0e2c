package generator

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/sgerhart/aegisrange/internal/catalog"
	"github.com/sgerhart/aegisrange/internal/model"
)

// Generator draws synthetic security events from the threat catalog using
// weighted random selection scaled by the current level. It is not safe for
// concurrent use; the loop controller is its only caller and serializes
// access through the session lock.
type Generator struct {
	rng       *rand.Rand
	templates []catalog.Template
	now       func() time.Time
	logger    *slog.Logger
}

// New creates a generator over the full catalog. The rand source and clock
// are injected so tests can seed and advance them deterministically; nil
// picks a time-seeded source and the wall clock.
func New(rng *rand.Rand, now func() time.Time, logger *slog.Logger) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		rng:       rng,
		templates: catalog.Templates(),
		now:       now,
		logger:    logger,
	}
}

// Weight computes the draw weight of a template under the given level
// settings: noise templates scale with the level's noise probability,
// malicious templates with the frequency multiplier, further amplified by the
// template's own scaling factor when one is declared.
func Weight(tmpl catalog.Template, lvl model.Level) float64 {
	scaling := lvl.EventFrequencyMultiplier
	if tmpl.Category == model.CategoryNoise {
		scaling = lvl.NoiseEventProbability
	} else if tmpl.ScalingFrequency > 0 {
		scaling = lvl.EventFrequencyMultiplier * tmpl.ScalingFrequency
	}
	return tmpl.BaseLikelihood * scaling
}

// ChooseTemplate performs one weighted draw over the catalog. If
// floating-point rounding leaves the cumulative walk short of the draw, the
// first template is returned deterministically (fallback, not an error).
func (g *Generator) ChooseTemplate(lvl model.Level) catalog.Template {
	total := 0.0
	for _, tmpl := range g.templates {
		total += Weight(tmpl, lvl)
	}

	draw := g.rng.Float64() * total
	running := 0.0
	for _, tmpl := range g.templates {
		running += Weight(tmpl, lvl)
		if running >= draw {
			return tmpl
		}
	}
	return g.templates[0]
}

// GenerateEvent draws a template and materializes one event from it: creation
// instant, unique ID, a synthetic source IP regardless of type, and
// type-specific fields via an exhaustive switch. Types the switch does not
// recognize simply get no extra fields.
func (g *Generator) GenerateEvent(lvl model.Level) *model.Event {
	tmpl := g.ChooseTemplate(lvl)

	ev := &model.Event{
		ID:          uuid.NewString(),
		Timestamp:   g.now(),
		Type:        tmpl.Type,
		Category:    tmpl.Category,
		Severity:    tmpl.Severity,
		IsNoise:     tmpl.Category == model.CategoryNoise,
		Description: tmpl.Description,
		Remediation: tmpl.Remediation,
		SourceIP:    g.randomIP(),
	}

	switch ev.Type {
	case model.EventLoginFail:
		ev.User = g.pickString(usernames)
		ev.Count = 3 + g.rng.Intn(18)
	case model.EventTrafficSpike:
		ev.Volume = 200 + g.rng.Intn(1800)
	case model.EventProcessSpawn:
		ev.Process = g.pickString(processes)
		ev.User = g.pickString(usernames)
	case model.EventServiceFailure:
		ev.Service = g.pickString(services)
	case model.EventDNSQuery:
		ev.Domain = g.randomDomain()
	case model.EventUnauthorizedAccess:
		ev.Resource = g.pickString(resources)
		ev.User = g.pickString(usernames)
	case model.EventHTTPError:
		ev.Code = httpCodes[g.rng.Intn(len(httpCodes))]
		ev.URL = g.randomURL()
	case model.EventSQLInjection:
		ev.URL = g.randomURL() + "?id=1%27%20OR%201=1--"
	case model.EventScheduledBackup:
		ev.Volume = 50 + g.rng.Intn(150)
		ev.Service = "backup-agent"
	case model.EventCertRenewal:
		ev.Domain = g.randomDomain()
	case model.EventSoftwareUpdate:
		ev.Service = g.pickString(services)
	case model.EventRoutineScan:
		ev.Process = "vuln-scanner"
	default:
		// Unrecognized types get no extra fields.
	}

	g.logger.Debug("Generated event",
		"event_id", ev.ID,
		"event_type", ev.Type,
		"category", ev.Category,
		"severity", ev.Severity,
		"source_ip", ev.SourceIP)

	return ev
}

// GenerateDuplicateAlert fabricates a false-positive duplicate of a noise
// event: same surface fields, flagged as a false positive, with no
// remediation because there is nothing to remediate.
func (g *Generator) GenerateDuplicateAlert(source *model.Event) *model.Event {
	return &model.Event{
		ID:          uuid.NewString(),
		Timestamp:   g.now(),
		Type:        model.EventDuplicateAlert,
		Category:    model.CategoryFalsePositive,
		Severity:    source.Severity,
		IsNoise:     false,
		Description: fmt.Sprintf("Duplicate alert raised for %s activity", source.Type),
		SourceIP:    source.SourceIP,
		Service:     source.Service,
		Domain:      source.Domain,
	}
}

func (g *Generator) randomIP() string {
	return fmt.Sprintf("%d.%d.%d.%d",
		1+g.rng.Intn(223), g.rng.Intn(256), g.rng.Intn(256), 1+g.rng.Intn(254))
}

func (g *Generator) randomDomain() string {
	return g.pickString(domainNames) + g.pickString(domainTLDs)
}

func (g *Generator) randomURL() string {
	return "/" + g.pickString(urlSegments) + "/" + g.pickString(urlLeaves)
}

func (g *Generator) pickString(pool []string) string {
	return pool[g.rng.Intn(len(pool))]
}
