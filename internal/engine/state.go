package engine

import (
	"github.com/talgya/undercurrent/internal/events"
	"github.com/talgya/undercurrent/internal/pulse"
)

// Phase is a step of the daily turn cycle.
type Phase string

const (
	PhasePlan        Phase = "plan"
	PhasePulseUpdate Phase = "pulse_update"
	PhaseEvent       Phase = "event"
	PhaseDecision    Phase = "decision"
	PhaseConsequence Phase = "consequence"
)

// DefaultMaxTurns is the length of a session in days.
const DefaultMaxTurns = 80

// Choice is one response the player can pick.
type Choice struct {
	ID               string                        `json:"id"`
	Label            string                        `json:"label"`
	Description      string                        `json:"description"`
	Effects          map[pulse.FamilyField]float64 `json:"effects"`
	UnlockConditions *UnlockConditions             `json:"unlockConditions,omitempty"`
}

// UnlockConditions gate a choice on flags earned by earlier choices.
type UnlockConditions struct {
	RequiresFlags []string `json:"requiresFlags"`
}

// Decision is a player-facing prompt raised by a neighborhood event.
type Decision struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Narrative      string   `json:"narrative"`
	Choices        []Choice `json:"choices"`
	MultiSelect    bool     `json:"multiSelect"`
	TriggerEventID string   `json:"triggerEventId,omitempty"`
}

// ChoiceRecord is one entry of the append-only choice history.
type ChoiceRecord struct {
	Turn       int                           `json:"turn"`
	DecisionID string                        `json:"decisionId"`
	ChoiceIDs  []string                      `json:"choiceIds"`
	Effects    map[pulse.FamilyField]float64 `json:"effects"`
}

// EndingType is the terminal classification of a session.
type EndingType string

const (
	EndingVictory EndingType = "victory"
	EndingFailure EndingType = "failure"
)

// VictoryType names which victory condition was met.
type VictoryType string

const (
	VictoryOutlast   VictoryType = "outlast"
	VictorySanctuary VictoryType = "sanctuary"
	VictoryTransform VictoryType = "transform"
)

// Ending is set once and never rewritten.
type Ending struct {
	Type        EndingType  `json:"type"`
	VictoryType VictoryType `json:"victoryType,omitempty"`
	Reason      string      `json:"reason,omitempty"`
	Turn        int         `json:"turn"`
}

// GameState is the root aggregate. It round-trips through JSON and is
// treated as a value: every engine call returns a new one.
type GameState struct {
	SessionID        string              `json:"sessionId"`
	Turn             int                 `json:"turn"`
	Phase            Phase               `json:"phase"`
	MaxTurns         int                 `json:"maxTurns"`
	LastGlobalUpdate int                 `json:"lastGlobalUpdate"`
	GlobalPulse      pulse.GlobalPulse   `json:"globalPulse"`
	City             pulse.CityState     `json:"city"`
	Family           pulse.FamilyImpact  `json:"family"`
	ActiveEvents     events.ActiveEvents `json:"activeEvents"`
	CurrentDecision  *Decision           `json:"currentDecision"`
	ChoiceHistory    []ChoiceRecord      `json:"choiceHistory"`
	Ending           *Ending             `json:"ending"`
	UpdatedLayers    []pulse.Layer       `json:"updatedLayers,omitempty"`
}

// NewGameState starts a session on day 1 in the plan phase.
func NewGameState(sessionID string, city pulse.CityState, maxTurns int) GameState {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	if city.CurrentNeighborhoodID == "" && len(city.Neighborhoods) > 0 {
		city.CurrentNeighborhoodID = city.Neighborhoods[0].ID
	}
	return GameState{
		SessionID:   sessionID,
		Turn:        1,
		Phase:       PhasePlan,
		MaxTurns:    maxTurns,
		GlobalPulse: pulse.DefaultGlobal(),
		City:        city.Clone(),
		Family:      pulse.DefaultFamily(),
		ActiveEvents: events.ActiveEvents{
			Global:       []events.GlobalEvent{},
			City:         []events.CityEvent{},
			Neighborhood: []events.NeighborhoodEvent{},
		},
		ChoiceHistory: []ChoiceRecord{},
	}
}

// Clone copies every slice the engine appends to or rewrites. Decisions and
// endings are immutable once created and are shared.
func (s GameState) Clone() GameState {
	s.City = s.City.Clone()
	s.ActiveEvents = s.ActiveEvents.Clone()
	s.ChoiceHistory = append([]ChoiceRecord{}, s.ChoiceHistory...)
	s.UpdatedLayers = append([]pulse.Layer(nil), s.UpdatedLayers...)
	return s
}

// CurrentNeighborhood returns the pulse of the family's neighborhood.
func (s GameState) CurrentNeighborhood() (pulse.NeighborhoodState, bool) {
	return s.City.Current()
}

// Ended reports whether an ending has been reached.
func (s GameState) Ended() bool {
	return s.Ending != nil
}

// TurnContext carries the authored templates for the session's city.
type TurnContext struct {
	NeighborhoodEventTemplates []events.NeighborhoodEventTemplate `json:"neighborhoodEventTemplates"`
	CityEventTemplates         []events.CityEventTemplate         `json:"cityEventTemplates"`
}
