package autoplay

import (
	"github.com/talgya/undercurrent/internal/api"
	"github.com/talgya/undercurrent/internal/pulse"
)

// Crisis levels, worst first.
const (
	Critical = "CRITICAL"
	Warning  = "WARNING"
	Watch    = "WATCH"
	Healthy  = "HEALTHY"
)

// Health holds derived signals about the family, computed before deciding.
type Health struct {
	Stress      float64
	Cohesion    float64
	Visibility  float64
	Network     float64
	Exposure    float64 // current neighborhood enforcement visibility
	CrisisLevel string
	DaysLeft    int
}

// Triage reads a session view into a Health. Levels track distance from the
// failure ending: stress at or above 95 with cohesion at or below 10.
func Triage(v api.SessionView) Health {
	f := v.Family
	h := Health{
		Stress:     f.Stress,
		Cohesion:   f.Cohesion,
		Visibility: f.Visibility,
		Network:    f.TrustNetworkStrength,
		DaysLeft:   v.MaxTurns - v.Turn,
	}
	if n, ok := v.CurrentNeighborhood(); ok {
		h.Exposure = n.Pulse.EnforcementVisibility
	}

	switch {
	case f.Stress >= 85 || f.Cohesion <= 20:
		h.CrisisLevel = Critical
	case f.Stress >= 70 || f.Cohesion <= 35:
		h.CrisisLevel = Warning
	case f.Stress >= 50 || f.Visibility >= 70 || h.Exposure >= 60:
		h.CrisisLevel = Watch
	default:
		h.CrisisLevel = Healthy
	}
	return h
}

// weights scores family effects for a crisis level. Positive is good.
func weights(level string) map[pulse.FamilyField]float64 {
	switch level {
	case Critical:
		return map[pulse.FamilyField]float64{pulse.Stress: -3, pulse.Cohesion: 2, pulse.Visibility: -0.5, pulse.TrustNetworkStrength: 0.5}
	case Warning:
		return map[pulse.FamilyField]float64{pulse.Stress: -2, pulse.Cohesion: 1.5, pulse.Visibility: -1, pulse.TrustNetworkStrength: 0.5}
	default:
		return map[pulse.FamilyField]float64{pulse.Stress: -1, pulse.Cohesion: 1, pulse.Visibility: -1, pulse.TrustNetworkStrength: 1}
	}
}
