package events

import (
	"github.com/talgya/undercurrent/internal/entropy"
	"github.com/talgya/undercurrent/internal/pulse"
)

// AdjustedWeight scales a template's authored weight by the current pulse.
// Enforcement events grow with visible enforcement, meetings with community
// density, and everything except meetings with suspicion.
func AdjustedWeight(t NeighborhoodEventTemplate, p pulse.NeighborhoodPulse) float64 {
	w := t.Weight
	if t.Type.IsEnforcement() {
		w *= 1 + p.EnforcementVisibility/100
	}
	if t.Type == Meeting {
		w *= 1 + p.CommunityDensity/100
	} else {
		w *= 1 + p.Suspicion/200
	}
	return w
}

// SelectWeighted draws an index with probability proportional to its weight,
// walking the list in order. Returns -1 for an empty list or a zero total,
// without consuming a draw.
func SelectWeighted(weights []float64, rng entropy.Source) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	if len(weights) == 0 || total <= 0 {
		return -1
	}

	r := rng.Float() * total
	for i, w := range weights {
		r -= w
		if r <= 0 {
			return i
		}
	}
	return len(weights) - 1
}

// SelectNeighborhoodEvent filters templates by their triggers, re-weights the
// survivors against the pulse and draws one. Nil means no event fires.
func SelectNeighborhoodEvent(templates []NeighborhoodEventTemplate, p pulse.NeighborhoodPulse, rng entropy.Source) *NeighborhoodEventTemplate {
	eligible := make([]NeighborhoodEventTemplate, 0, len(templates))
	for _, t := range templates {
		if IsEligible(t, p) {
			eligible = append(eligible, t)
		}
	}

	weights := make([]float64, len(eligible))
	for i, t := range eligible {
		weights[i] = AdjustedWeight(t, p)
	}

	i := SelectWeighted(weights, rng)
	if i < 0 {
		return nil
	}
	chosen := eligible[i]
	return &chosen
}

// SelectCityEvent draws a city template by authored weight.
func SelectCityEvent(templates []CityEventTemplate, rng entropy.Source) *CityEventTemplate {
	weights := make([]float64, len(templates))
	for i, t := range templates {
		weights[i] = t.Weight
	}
	i := SelectWeighted(weights, rng)
	if i < 0 {
		return nil
	}
	chosen := templates[i]
	return &chosen
}

// SelectGlobalEvent draws from the national pool.
func SelectGlobalEvent(pool []GlobalEventTemplate, rng entropy.Source) *GlobalEventTemplate {
	weights := make([]float64, len(pool))
	for i, t := range pool {
		weights[i] = t.Weight
	}
	i := SelectWeighted(weights, rng)
	if i < 0 {
		return nil
	}
	chosen := pool[i]
	return &chosen
}
