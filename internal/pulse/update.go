package pulse

import "github.com/talgya/undercurrent/internal/entropy"

// Cadence for the slow layers, in turns (one turn is one in-game day).
const (
	CityUpdateEvery   = 7
	GlobalIntervalMax = 28 // at volatility 0
	GlobalIntervalMin = 14 // at volatility 100
)

// ShouldUpdateGlobalPulse reports whether the national climate moves this
// turn. Volatile politics shorten the interval linearly from 28 to 14 turns.
func ShouldUpdateGlobalPulse(turn, lastUpdate int, volatility float64) bool {
	interval := GlobalIntervalMax - (volatility/100)*(GlobalIntervalMax-GlobalIntervalMin)
	return float64(turn-lastUpdate) >= interval
}

// ShouldUpdateCityPulse reports whether the weekly city drift runs.
func ShouldUpdateCityPulse(turn int) bool {
	return turn%CityUpdateEvery == 0
}

// UpdateGlobalPulse drifts the national climate. Volatility widens every step.
func UpdateGlobalPulse(g GlobalPulse, rng entropy.Source) GlobalPulse {
	span := 5 + g.PoliticalVolatility/100*10
	return GlobalPulse{
		EnforcementClimate:  Drift(g.EnforcementClimate, span, 0, globalBounds[EnforcementClimate], rng),
		MediaNarrative:      Drift(g.MediaNarrative, span*2, 0, globalBounds[MediaNarrative], rng),
		JudicialAlignment:   Drift(g.JudicialAlignment, span, 0, globalBounds[JudicialAlignment], rng),
		PoliticalVolatility: Drift(g.PoliticalVolatility, 3, 0, globalBounds[PoliticalVolatility], rng),
	}
}

// UpdateCityPulse drifts the city. Federal cooperation leans with the national
// enforcement climate; political cover shrinks as media turns hostile.
func UpdateCityPulse(c CityPulse, g GlobalPulse, rng entropy.Source) CityPulse {
	cooperationBias := (g.EnforcementClimate - 50) * 0.05
	coverBias := (g.MediaNarrative / 100) * -2
	return CityPulse{
		FederalCooperation:   Drift(c.FederalCooperation, 3, cooperationBias, Percent, rng),
		DataDensity:          Drift(c.DataDensity, 1, 0, Percent, rng),
		PoliticalCover:       Drift(c.PoliticalCover, 3, coverBias, Percent, rng),
		CivilSocietyCapacity: Drift(c.CivilSocietyCapacity, 2, 0, Percent, rng),
		BureaucraticInertia:  Drift(c.BureaucraticInertia, 2, 0, Percent, rng),
	}
}

// UpdateNeighborhoodPulse drifts one neighborhood. The family's own network
// and visibility leak upward through a damped pass-through; pass a zero
// FamilyImpact for neighborhoods the family does not live in.
func UpdateNeighborhoodPulse(n NeighborhoodPulse, c CityPulse, g GlobalPulse, family FamilyImpact, rng entropy.Source) NeighborhoodPulse {
	trustTerm := family.TrustNetworkStrength * 0.15 * 0.1
	suspicionTerm := family.Visibility * 0.1 * 0.1
	visibilityBias := (0.2*c.FederalCooperation + 0.1*g.EnforcementClimate - 30) * 0.05

	return NeighborhoodPulse{
		Trust:                 Percent.Clamp(n.Trust + (rng.Float()-0.5)*2 + trustTerm),
		Suspicion:             Percent.Clamp(n.Suspicion + (rng.Float()-0.5)*2 + suspicionTerm),
		EnforcementVisibility: Drift(n.EnforcementVisibility, 2, visibilityBias, Percent, rng),
		CommunityDensity:      Drift(n.CommunityDensity, 1, 0, Percent, rng),
		EconomicPrecarity:     Drift(n.EconomicPrecarity, 1.5, 0, Percent, rng),
	}
}

// StressPressure is the per-turn stress the neighborhood puts on a family,
// scaled by how visible the family is.
func StressPressure(n NeighborhoodPulse, f FamilyImpact) float64 {
	return (n.EnforcementVisibility*0.02 + n.EconomicPrecarity*0.01) * (f.Visibility / 50)
}

// UpdateFamily drifts the household against its neighborhood. Cohesion
// recovers while stress stays at or under 60 and decays above it.
func UpdateFamily(f FamilyImpact, n NeighborhoodPulse, rng entropy.Source) FamilyImpact {
	pressure := StressPressure(n, f)
	cohesionBias := 0.2
	if f.Stress > 60 {
		cohesionBias = -0.5
	}
	networkBias := (n.CommunityDensity - 50) * 0.01

	return FamilyImpact{
		Visibility:           Drift(f.Visibility, 1, 0, Percent, rng),
		Stress:               Percent.Clamp(f.Stress + (rng.Float()-0.5)*2 + pressure),
		Cohesion:             Drift(f.Cohesion, 1, cohesionBias, Percent, rng),
		TrustNetworkStrength: Drift(f.TrustNetworkStrength, 1, networkBias, Percent, rng),
	}
}

// Update is the result of one drift pass over every layer.
type Update struct {
	Global        GlobalPulse
	City          CityState
	Family        FamilyImpact
	UpdatedLayers []Layer
	GlobalUpdated bool
}

// UpdateAllPulses drifts every layer top-down. Global and city move only when
// their cadence fires; every neighborhood and the family move every turn.
// The input world is not modified.
func UpdateAllPulses(w World, turn, lastGlobalUpdate int, currentNeighborhoodID string, rng entropy.Source) Update {
	out := Update{
		Global: w.Global,
		City:   w.City.Clone(),
	}

	if ShouldUpdateGlobalPulse(turn, lastGlobalUpdate, w.Global.PoliticalVolatility) {
		out.Global = UpdateGlobalPulse(w.Global, rng)
		out.GlobalUpdated = true
		out.UpdatedLayers = append(out.UpdatedLayers, LayerGlobal)
	}

	if ShouldUpdateCityPulse(turn) {
		out.City.Pulse = UpdateCityPulse(w.City.Pulse, out.Global, rng)
		out.UpdatedLayers = append(out.UpdatedLayers, LayerCity)
	}

	current := DefaultNeighborhood()
	for i, n := range out.City.Neighborhoods {
		influence := FamilyImpact{}
		if n.ID == currentNeighborhoodID {
			influence = w.Family
		}
		out.City.Neighborhoods[i].Pulse = UpdateNeighborhoodPulse(n.Pulse, out.City.Pulse, out.Global, influence, rng)
		if n.ID == currentNeighborhoodID {
			current = out.City.Neighborhoods[i].Pulse
		}
	}
	out.UpdatedLayers = append(out.UpdatedLayers, LayerNeighborhood)

	out.Family = UpdateFamily(w.Family, current, rng)
	out.UpdatedLayers = append(out.UpdatedLayers, LayerFamily)

	return out
}
