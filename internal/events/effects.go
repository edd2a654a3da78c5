package events

import "github.com/talgya/undercurrent/internal/pulse"

// ApplyGlobalEventEffects adds e's effects to p, clamped per field.
func ApplyGlobalEventEffects(p pulse.GlobalPulse, e GlobalEvent) pulse.GlobalPulse {
	return pulse.ApplyDeltas(p, e.Effects)
}

// ApplyCityEventEffects adds e's effects to p, clamped per field.
func ApplyCityEventEffects(p pulse.CityPulse, e CityEvent) pulse.CityPulse {
	return pulse.ApplyDeltas(p, e.Effects)
}

// ApplyNeighborhoodEventEffects adds e's effects to p, clamped per field.
func ApplyNeighborhoodEventEffects(p pulse.NeighborhoodPulse, e NeighborhoodEvent) pulse.NeighborhoodPulse {
	return pulse.ApplyDeltas(p, e.Effects)
}

// PruneExpiredEvents keeps global and city events while
// currentTurn < startTurn+durationDays, and neighborhood events only on their
// start turn. The input is not modified.
func PruneExpiredEvents(active ActiveEvents, currentTurn int) ActiveEvents {
	out := ActiveEvents{
		Global:       []GlobalEvent{},
		City:         []CityEvent{},
		Neighborhood: []NeighborhoodEvent{},
	}
	for _, e := range active.Global {
		if currentTurn < e.StartTurn+e.DurationDays {
			out.Global = append(out.Global, e)
		}
	}
	for _, e := range active.City {
		if currentTurn < e.StartTurn+e.DurationDays {
			out.City = append(out.City, e)
		}
	}
	for _, e := range active.Neighborhood {
		if currentTurn == e.StartTurn {
			out.Neighborhood = append(out.Neighborhood, e)
		}
	}
	return out
}
