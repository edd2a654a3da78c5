package events

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/talgya/undercurrent/internal/entropy"
	"github.com/talgya/undercurrent/internal/pulse"
)

// NeighborhoodTriggerProbability is the daily chance of a block-level shock.
func NeighborhoodTriggerProbability(p pulse.NeighborhoodPulse) float64 {
	return 0.3 + p.EnforcementVisibility*0.002 + p.Suspicion*0.001 - p.Trust*0.001
}

// CityTriggerProbability is the daily chance of a municipal shock.
func CityTriggerProbability(p pulse.CityPulse) float64 {
	return 0.15 - p.PoliticalCover*0.001 + p.BureaucraticInertia*0.001
}

// GlobalTriggerProbability is the daily chance of a national shock, roughly 2% to 8%.
func GlobalTriggerProbability(p pulse.GlobalPulse) float64 {
	return 0.02 + p.PoliticalVolatility*0.0006
}

// ShouldTriggerNeighborhoodEvent rolls one Bernoulli draw.
func ShouldTriggerNeighborhoodEvent(p pulse.NeighborhoodPulse, rng entropy.Source) bool {
	return rng.Float() < NeighborhoodTriggerProbability(p)
}

// ShouldTriggerCityEvent rolls one Bernoulli draw.
func ShouldTriggerCityEvent(p pulse.CityPulse, rng entropy.Source) bool {
	return rng.Float() < CityTriggerProbability(p)
}

// ShouldTriggerGlobalEvent rolls one Bernoulli draw.
func ShouldTriggerGlobalEvent(p pulse.GlobalPulse, rng entropy.Source) bool {
	return rng.Float() < GlobalTriggerProbability(p)
}

// parseTrigger splits "minSuspicion" into ("min", suspicion).
func parseTrigger(key string) (string, pulse.NeighborhoodField, bool) {
	var op string
	switch {
	case strings.HasPrefix(key, "min"):
		op = "min"
	case strings.HasPrefix(key, "max"):
		op = "max"
	default:
		return "", "", false
	}
	rest := key[len(op):]
	r, size := utf8.DecodeRuneInString(rest)
	if r == utf8.RuneError || !unicode.IsUpper(r) {
		return "", "", false
	}
	return op, pulse.NeighborhoodField(string(unicode.ToLower(r)) + rest[size:]), true
}

// IsEligible reports whether every trigger threshold on t holds against p.
// Templates without triggers are always eligible. A key that does not name a
// pulse field can never be satisfied.
func IsEligible(t NeighborhoodEventTemplate, p pulse.NeighborhoodPulse) bool {
	for key, threshold := range t.Triggers {
		op, field, ok := parseTrigger(key)
		if !ok {
			return false
		}
		v, ok := p.Value(field)
		if !ok {
			return false
		}
		if op == "min" && v < threshold {
			return false
		}
		if op == "max" && v > threshold {
			return false
		}
	}
	return true
}
