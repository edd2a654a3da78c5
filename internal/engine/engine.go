// Package engine runs the daily five-phase turn cycle over a GameState and
// evaluates endings. It performs no I/O: every call takes a state snapshot
// and returns a new one.
package engine

import (
	"log/slog"

	"github.com/talgya/undercurrent/internal/entropy"
	"github.com/talgya/undercurrent/internal/events"
	"github.com/talgya/undercurrent/internal/pulse"
)

// Engine holds the injected sources one session draws from.
type Engine struct {
	Rand       entropy.Source
	IDs        events.IDSource
	GlobalPool []events.GlobalEventTemplate // nil means events.GlobalPool()
}

// New returns an Engine over rng and ids.
func New(rng entropy.Source, ids events.IDSource) *Engine {
	return &Engine{Rand: rng, IDs: ids}
}

func (e *Engine) globalPool() []events.GlobalEventTemplate {
	if e.GlobalPool != nil {
		return e.GlobalPool
	}
	return events.GlobalPool()
}

// AdvancePhase moves state one step through
// plan → pulse_update → event → decision → consequence → plan (turn+1).
//
// The decision phase is a suspension point: while a decision is pending and
// no choices are supplied, the state comes back unchanged. Supplying
// selectedChoiceIDs with a pending decision resolves it immediately.
// An unrecognized phase returns the input unchanged.
func (e *Engine) AdvancePhase(state GameState, ctx TurnContext, lastGlobalUpdate int, selectedChoiceIDs []string) GameState {
	switch state.Phase {
	case PhasePlan:
		next := state.Clone()
		next.Phase = PhasePulseUpdate
		return next

	case PhasePulseUpdate:
		return e.updatePulses(state, lastGlobalUpdate)

	case PhaseEvent:
		return e.rollEvents(state, ctx)

	case PhaseDecision:
		if selectedChoiceIDs != nil && state.CurrentDecision != nil {
			return applyConsequence(state, selectedChoiceIDs)
		}
		return raiseDecision(state)

	case PhaseConsequence:
		return applyConsequence(state, selectedChoiceIDs)
	}

	slog.Warn("unrecognized phase, state left unchanged", "session", state.SessionID, "phase", state.Phase)
	return state
}

func (e *Engine) updatePulses(state GameState, lastGlobalUpdate int) GameState {
	next := state.Clone()
	world := pulse.World{Global: state.GlobalPulse, City: state.City, Family: state.Family}
	u := pulse.UpdateAllPulses(world, state.Turn, lastGlobalUpdate, state.City.CurrentNeighborhoodID, e.Rand)

	next.GlobalPulse = u.Global
	next.City = u.City
	next.Family = u.Family
	next.UpdatedLayers = u.UpdatedLayers
	next.LastGlobalUpdate = lastGlobalUpdate
	if u.GlobalUpdated {
		next.LastGlobalUpdate = state.Turn
	}
	next.Phase = PhaseEvent
	return next
}

// rollEvents prunes expired events, then rolls global, city and the family's
// neighborhood in that order. Other neighborhoods drift but never roll.
func (e *Engine) rollEvents(state GameState, ctx TurnContext) GameState {
	next := state.Clone()
	next.ActiveEvents = events.PruneExpiredEvents(state.ActiveEvents, state.Turn)
	turn := state.Turn

	if events.ShouldTriggerGlobalEvent(next.GlobalPulse, e.Rand) {
		if tpl := events.SelectGlobalEvent(e.globalPool(), e.Rand); tpl != nil {
			ev := events.NewGlobalEvent(*tpl, next.GlobalPulse.PoliticalVolatility, turn, e.Rand, e.IDs)
			next.GlobalPulse = events.ApplyGlobalEventEffects(next.GlobalPulse, ev)
			next.ActiveEvents.Global = append(next.ActiveEvents.Global, ev)
			slog.Debug("event fired", "session", state.SessionID, "turn", turn, "layer", ev.Layer(), "id", ev.ID, "title", ev.Title, "magnitude", ev.Magnitude)
		}
	}

	if events.ShouldTriggerCityEvent(next.City.Pulse, e.Rand) {
		if tpl := events.SelectCityEvent(ctx.CityEventTemplates, e.Rand); tpl != nil {
			ev := events.NewCityEvent(*tpl, next.City.NeighborhoodIDs(), turn, e.Rand, e.IDs)
			next.City.Pulse = events.ApplyCityEventEffects(next.City.Pulse, ev)
			next.ActiveEvents.City = append(next.ActiveEvents.City, ev)
			slog.Debug("event fired", "session", state.SessionID, "turn", turn, "layer", ev.Layer(), "id", ev.ID, "title", ev.Title)
		}
	}

	if current, ok := next.City.Current(); ok && events.ShouldTriggerNeighborhoodEvent(current.Pulse, e.Rand) {
		if tpl := events.SelectNeighborhoodEvent(ctx.NeighborhoodEventTemplates, current.Pulse, e.Rand); tpl != nil {
			ev := events.NewNeighborhoodEvent(*tpl, current, turn, e.Rand, e.IDs)
			next.City = next.City.WithNeighborhoodPulse(current.ID, events.ApplyNeighborhoodEventEffects(current.Pulse, ev))
			next.ActiveEvents.Neighborhood = append(next.ActiveEvents.Neighborhood, ev)
			slog.Debug("event fired", "session", state.SessionID, "turn", turn, "layer", ev.Layer(), "id", ev.ID, "type", ev.Type, "severity", ev.Severity)
		}
	}

	next.Phase = PhaseDecision
	return next
}

// raiseDecision suspends on a decision when a neighborhood event started this
// turn, and otherwise moves on to consequence.
func raiseDecision(state GameState) GameState {
	if state.CurrentDecision != nil {
		return state
	}

	var trigger *events.NeighborhoodEvent
	for i := range state.ActiveEvents.Neighborhood {
		if state.ActiveEvents.Neighborhood[i].StartTurn == state.Turn {
			trigger = &state.ActiveEvents.Neighborhood[i]
		}
	}

	next := state.Clone()
	if trigger != nil {
		if d := GenerateDecision(*trigger); d != nil {
			next.CurrentDecision = d
			return next
		}
	}

	next.CurrentDecision = nil
	next.Phase = PhaseConsequence
	return next
}

// applyConsequence resolves the pending decision, if any, and closes the turn.
// Unknown choice ids are dropped.
func applyConsequence(state GameState, selectedChoiceIDs []string) GameState {
	next := state.Clone()

	if d := state.CurrentDecision; d != nil {
		selected := make(map[string]bool, len(selectedChoiceIDs))
		for _, id := range selectedChoiceIDs {
			selected[id] = true
		}

		matched := []string{}
		total := map[pulse.FamilyField]float64{}
		for _, c := range d.Choices {
			if !selected[c.ID] {
				continue
			}
			matched = append(matched, c.ID)
			next.Family = pulse.ApplyDeltas(next.Family, c.Effects)
			for f, v := range c.Effects {
				total[f] += v
			}
		}

		next.ChoiceHistory = append(next.ChoiceHistory, ChoiceRecord{
			Turn:       state.Turn,
			DecisionID: d.ID,
			ChoiceIDs:  matched,
			Effects:    total,
		})
		next.CurrentDecision = nil
	}

	next.Turn = state.Turn + 1
	next.Phase = PhasePlan
	return next
}

// RunCompleteTurn advances until a decision needs input, the turn closes, or
// the phase stops changing.
func (e *Engine) RunCompleteTurn(state GameState, ctx TurnContext, selectedChoiceIDs []string) GameState {
	startTurn := state.Turn
	cur := state
	for {
		next := e.AdvancePhase(cur, ctx, cur.LastGlobalUpdate, selectedChoiceIDs)
		switch {
		case next.Phase == PhaseDecision && next.CurrentDecision != nil:
			return next
		case next.Phase == PhasePlan && next.Turn > startTurn:
			return next
		case next.Phase == cur.Phase:
			return next
		}
		cur = next
	}
}
