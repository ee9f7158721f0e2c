package catalog

import (
	"github.com/sgerhart/aegisrange/internal/model"
)

// Template is one weighted entry in the threat catalog. BaseLikelihood is the
// unscaled draw weight; ScalingFrequency, when non-zero, amplifies the
// level's frequency multiplier for types that become more common as the
// attacker grows more sophisticated.
type Template struct {
	Type             model.EventType
	Category         model.Category
	BaseLikelihood   float64
	Severity         int
	ScalingFrequency float64
	Description      string
	Remediation      []model.ActionTag
}

// Templates returns the full static threat catalog. Every malicious template
// carries a non-empty remediation set and has a damage profile registered in
// this package.
func Templates() []Template {
	return []Template{
		{
			Type:           model.EventLoginFail,
			Category:       model.CategoryMalicious,
			BaseLikelihood: 0.9,
			Severity:       5,
			Description:    "Burst of failed login attempts against a privileged account",
			Remediation:    []model.ActionTag{model.ActionBlockIP, model.ActionLockAccount},
		},
		{
			Type:             model.EventTrafficSpike,
			Category:         model.CategoryMalicious,
			BaseLikelihood:   0.6,
			Severity:         6,
			ScalingFrequency: 1.4,
			Description:      "Inbound traffic volume far above baseline",
			Remediation:      []model.ActionTag{model.ActionRateLimit, model.ActionBlockIP},
		},
		{
			Type:           model.EventProcessSpawn,
			Category:       model.CategoryMalicious,
			BaseLikelihood: 0.5,
			Severity:       7,
			Description:    "Suspicious process spawned from a user context",
			Remediation:    []model.ActionTag{model.ActionKillProcess, model.ActionIsolateHost},
		},
		{
			Type:           model.EventServiceFailure,
			Category:       model.CategoryMalicious,
			BaseLikelihood: 0.35,
			Severity:       8,
			Description:    "Core service crashed under anomalous load",
			Remediation:    []model.ActionTag{model.ActionRestartService, model.ActionIsolateHost},
		},
		{
			Type:           model.EventDNSQuery,
			Category:       model.CategoryMalicious,
			BaseLikelihood: 0.7,
			Severity:       5,
			Description:    "DNS lookups to a known command-and-control domain",
			Remediation:    []model.ActionTag{model.ActionBlockDomain, model.ActionBlockIP},
		},
		{
			Type:             model.EventUnauthorizedAccess,
			Category:         model.CategoryMalicious,
			BaseLikelihood:   0.45,
			Severity:         8,
			ScalingFrequency: 1.6,
			Description:      "Access to a restricted resource without authorization",
			Remediation:      []model.ActionTag{model.ActionRevokeAccess, model.ActionBlockIP, model.ActionLockAccount},
		},
		{
			Type:           model.EventHTTPError,
			Category:       model.CategoryMalicious,
			BaseLikelihood: 0.8,
			Severity:       4,
			Description:    "Sustained burst of HTTP errors from a single client",
			Remediation:    []model.ActionTag{model.ActionBlockIP, model.ActionPatchWAF},
		},
		{
			Type:             model.EventSQLInjection,
			Category:         model.CategoryMalicious,
			BaseLikelihood:   0.3,
			Severity:         9,
			ScalingFrequency: 1.8,
			Description:      "SQL injection payload detected in request parameters",
			Remediation:      []model.ActionTag{model.ActionPatchWAF, model.ActionBlockIP},
		},

		{
			Type:           model.EventScheduledBackup,
			Category:       model.CategoryNoise,
			BaseLikelihood: 1.0,
			Severity:       1,
			Description:    "Nightly backup job transferring data off-host",
			Remediation:    nil,
		},
		{
			Type:           model.EventCertRenewal,
			Category:       model.CategoryNoise,
			BaseLikelihood: 0.5,
			Severity:       1,
			Description:    "Automated certificate renewal check-in",
			Remediation:    nil,
		},
		{
			Type:           model.EventSoftwareUpdate,
			Category:       model.CategoryNoise,
			BaseLikelihood: 0.8,
			Severity:       2,
			Description:    "Package manager pulling vendor updates",
			Remediation:    nil,
		},
		{
			Type:           model.EventRoutineScan,
			Category:       model.CategoryNoise,
			BaseLikelihood: 0.7,
			Severity:       2,
			Description:    "Scheduled internal vulnerability scan sweep",
			Remediation:    nil,
		},
	}
}

// TemplateFor returns the catalog template for a type.
func TemplateFor(t model.EventType) (Template, bool) {
	for _, tmpl := range Templates() {
		if tmpl.Type == t {
			return tmpl, true
		}
	}
	return Template{}, false
}
