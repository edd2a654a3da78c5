package events

import (
	"math"
	"strconv"
	"strings"

	"github.com/talgya/undercurrent/internal/entropy"
	"github.com/talgya/undercurrent/internal/pulse"
)

// Id prefixes per layer.
const (
	prefixGlobal       = "global"
	prefixCity         = "city"
	prefixNeighborhood = "nbhd"
)

// cityWideChance is the share of city events that reach every neighborhood.
const cityWideChance = 0.6

// RandomInRange draws an integer uniformly from [lo, hi].
func RandomInRange(lo, hi int, rng entropy.Source) int {
	return int(math.Floor(rng.Float()*float64(hi-lo+1))) + lo
}

// RandomSeverity draws from [lo, hi] and clamps the result to 1..5.
func RandomSeverity(lo, hi int, rng entropy.Source) int {
	s := RandomInRange(lo, hi, rng)
	if s < 1 {
		return 1
	}
	if s > 5 {
		return 5
	}
	return s
}

// expandDescription fills {neighborhood}, {target} and {severity} placeholders.
func expandDescription(tmpl, neighborhood string, target Target, severity int) string {
	r := strings.NewReplacer(
		"{neighborhood}", neighborhood,
		"{target}", strings.ToLower(string(target)),
		"{severity}", strconv.Itoa(severity),
	)
	return r.Replace(tmpl)
}

// NewNeighborhoodEvent materializes t in neighborhood n at turn.
func NewNeighborhoodEvent(t NeighborhoodEventTemplate, n pulse.NeighborhoodState, turn int, rng entropy.Source, ids IDSource) NeighborhoodEvent {
	severity := RandomSeverity(t.SeverityRange.Lo(), t.SeverityRange.Hi(), rng)

	target := TargetFamily
	if len(t.Targets) > 0 {
		target = t.Targets[int(math.Floor(rng.Float()*float64(len(t.Targets))))]
	}

	name := n.Name
	if name == "" {
		name = n.ID
	}

	return NeighborhoodEvent{
		ID:             ids.NextID(prefixNeighborhood),
		Type:           t.Type,
		Severity:       severity,
		Target:         target,
		NeighborhoodID: n.ID,
		Title:          t.Title,
		Description:    expandDescription(t.DescriptionTemplate, name, target, severity),
		StartTurn:      turn,
		Effects:        copyDeltas(t.Effects),
	}
}

// NewCityEvent materializes t at turn. Most city events reach every
// neighborhood; the rest reach a random subset, never an empty one.
func NewCityEvent(t CityEventTemplate, neighborhoodIDs []string, turn int, rng entropy.Source, ids IDSource) CityEvent {
	visibility := RandomInRange(t.VisibilityRange.Lo(), t.VisibilityRange.Hi(), rng)
	duration := RandomInRange(t.DurationRange.Lo(), t.DurationRange.Hi(), rng)

	radius := AllNeighborhoods
	if rng.Float() >= cityWideChance {
		var picked []string
		for _, id := range neighborhoodIDs {
			if rng.Float() < 0.5 {
				picked = append(picked, id)
			}
		}
		if len(picked) > 0 {
			radius = ImpactRadius{NeighborhoodIDs: picked}
		}
	}

	return CityEvent{
		ID:           ids.NextID(prefixCity),
		Category:     t.Category,
		Visibility:   visibility,
		ImpactRadius: radius,
		Title:        t.Title,
		Description:  t.Description,
		StartTurn:    turn,
		DurationDays: duration,
		Effects:      copyDeltas(t.Effects),
	}
}

// GlobalMaxMagnitude is the top of the magnitude draw for a volatility level.
func GlobalMaxMagnitude(volatility float64) int {
	return 3 + int(math.Floor(volatility/30))
}

// NewGlobalEvent materializes a pool entry. Magnitude scales both the
// effects and the duration (7 days plus a week per magnitude point).
func NewGlobalEvent(t GlobalEventTemplate, volatility float64, turn int, rng entropy.Source, ids IDSource) GlobalEvent {
	magnitude := RandomSeverity(1, GlobalMaxMagnitude(volatility), rng)
	return GlobalEvent{
		ID:           ids.NextID(prefixGlobal),
		Type:         t.Type,
		Magnitude:    magnitude,
		DurationDays: 7 + magnitude*7,
		Title:        t.Title,
		Description:  t.Description,
		StartTurn:    turn,
		Effects:      pulse.ScaleDeltas(t.BaseEffects, float64(magnitude)),
	}
}

func copyDeltas[F ~string](in map[F]float64) map[F]float64 {
	return pulse.ScaleDeltas(in, 1)
}
