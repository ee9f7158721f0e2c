package catalog

import (
	"github.com/sgerhart/aegisrange/internal/model"
)

// Levels returns the fixed ordered difficulty table. Frequency multipliers
// shrink per level (the loop controller multiplies them into the tick period,
// so smaller means faster ticks) while the malicious share of draws grows as
// the noise probability falls.
func Levels() []model.Level {
	return []model.Level{
		{
			Ordinal:                  1,
			Name:                     "Onboarding Shift",
			Description:              "Mostly routine traffic with the occasional opportunistic probe",
			EventFrequencyMultiplier: 1.0,
			NoiseEventProbability:    0.5,
			AttackSophistication:     "opportunistic",
			TargetScore:              2500,
		},
		{
			Ordinal:                  2,
			Name:                     "Night Watch",
			Description:              "Scripted attacks start mixing into the background noise",
			EventFrequencyMultiplier: 0.9,
			NoiseEventProbability:    0.35,
			AttackSophistication:     "scripted",
			TargetScore:              5000,
		},
		{
			Ordinal:                  3,
			Name:                     "Coordinated Probe",
			Description:              "A coordinated actor probes multiple services at once",
			EventFrequencyMultiplier: 0.8,
			NoiseEventProbability:    0.25,
			AttackSophistication:     "coordinated",
			TargetScore:              9000,
		},
		{
			Ordinal:                  4,
			Name:                     "Targeted Campaign",
			Description:              "Persistent targeted attacks with little cover noise",
			EventFrequencyMultiplier: 0.7,
			NoiseEventProbability:    0.15,
			AttackSophistication:     "targeted",
			TargetScore:              14000,
		},
		{
			Ordinal:                  5,
			Name:                     "Full Breach Drill",
			Description:              "Sustained multi-vector assault at drill intensity",
			EventFrequencyMultiplier: 0.55,
			NoiseEventProbability:    0.08,
			AttackSophistication:     "advanced",
			TargetScore:              20000,
		},
	}
}

// LevelByOrdinal returns the level descriptor for a 1-based ordinal, or the
// first level when the ordinal is outside the table (defaults fallback, not
// an error).
func LevelByOrdinal(ordinal int) model.Level {
	levels := Levels()
	if ordinal < 1 || ordinal > len(levels) {
		return levels[0]
	}
	return levels[ordinal-1]
}
