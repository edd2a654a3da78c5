package engine

import "log/slog"

// Ending thresholds.
const (
	failureStress    = 95
	failureCohesion  = 10
	outlastClimate   = 40
	sanctuaryTrust   = 80
	sanctuaryDensity = 70
	sanctuaryNetwork = 80
	transformCover   = 80
	transformFedCoop = 20
	transformNarr    = -50
)

// CheckGameEnding sets state.Ending on the first matching condition, in order:
// failure, outlast, sanctuary, transform. A state that already has an ending
// is returned as is.
func CheckGameEnding(state GameState) GameState {
	if state.Ending != nil {
		return state
	}

	ending := evaluateEnding(state)
	if ending == nil {
		return state
	}

	slog.Info("session ended", "session", state.SessionID, "turn", state.Turn, "type", ending.Type, "victory", ending.VictoryType)
	next := state.Clone()
	next.Ending = ending
	return next
}

func evaluateEnding(s GameState) *Ending {
	f := s.Family
	if f.Stress >= failureStress && f.Cohesion <= failureCohesion {
		return &Ending{Type: EndingFailure, Reason: "Family could not endure the pressure.", Turn: s.Turn}
	}

	if s.Turn >= s.MaxTurns && s.GlobalPulse.EnforcementClimate < outlastClimate {
		return &Ending{Type: EndingVictory, VictoryType: VictoryOutlast, Turn: s.Turn}
	}

	if n, ok := s.City.Current(); ok &&
		n.Pulse.Trust >= sanctuaryTrust &&
		n.Pulse.CommunityDensity >= sanctuaryDensity &&
		f.TrustNetworkStrength >= sanctuaryNetwork {
		return &Ending{Type: EndingVictory, VictoryType: VictorySanctuary, Turn: s.Turn}
	}

	c := s.City.Pulse
	if c.PoliticalCover >= transformCover &&
		c.FederalCooperation <= transformFedCoop &&
		s.GlobalPulse.MediaNarrative <= transformNarr {
		return &Ending{Type: EndingVictory, VictoryType: VictoryTransform, Turn: s.Turn}
	}

	return nil
}
