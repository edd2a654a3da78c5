package autoplay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/talgya/undercurrent/internal/api"
	"github.com/talgya/undercurrent/internal/entropy"
)

// overtime is how far past maxTurns a session may run before the player
// gives up on it. Outlast needs a calm enforcement climate, so a session can
// outlive its nominal length.
const overtime = 2

// Player plays sessions to an ending.
type Player struct {
	Client   *Client
	Strategy Strategy
	Rand     entropy.Source
	Journal  *Journal
	Pause    time.Duration
}

// Play creates a session in cityID and plays it until it ends, the turn cap
// is reached, or ctx is done.
func (p *Player) Play(ctx context.Context, cityID string) (Outcome, error) {
	v, err := p.Client.Create(ctx, cityID)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{SessionID: v.SessionID}
	slog.Info("autoplay session started", "session", v.SessionID, "city", cityID, "strategy", p.Strategy)

	limit := v.MaxTurns * overtime
	for v.Ending == nil && v.Turn <= limit {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		if v.CurrentDecision != nil {
			v, err = p.decide(ctx, v)
			out.Decisions++
		} else {
			v, err = p.Client.Advance(ctx, v.SessionID)
		}
		if err != nil {
			return out, fmt.Errorf("session %s turn %d: %w", out.SessionID, out.Turns, err)
		}
		out.Turns = v.Turn

		if p.Pause > 0 {
			select {
			case <-ctx.Done():
				return out, ctx.Err()
			case <-time.After(p.Pause):
			}
		}
	}

	out.Ending = "unresolved"
	if v.Ending != nil {
		out.Ending = string(v.Ending.Type)
		out.VictoryType = string(v.Ending.VictoryType)
	}
	if p.Journal != nil {
		p.Journal.Finish(out)
	}
	slog.Info("autoplay session finished",
		"session", out.SessionID,
		"turns", out.Turns,
		"decisions", out.Decisions,
		"ending", out.Ending,
		"victory", out.VictoryType,
	)
	return out, nil
}

// decide runs one triage, decide and act cycle on a pending decision.
func (p *Player) decide(ctx context.Context, v api.SessionView) (api.SessionView, error) {
	h := Triage(v)
	d, err := Decide(p.Strategy, v, h, p.Rand)
	if err != nil {
		return v, err
	}
	slog.Debug("decision made",
		"session", v.SessionID,
		"decision", v.CurrentDecision.ID,
		"choice", d.ChoiceID,
		"crisis", h.CrisisLevel,
		"rationale", d.Rationale,
	)

	if p.Journal != nil {
		p.Journal.Record(Record{
			SessionID:   v.SessionID,
			Turn:        v.Turn,
			DecisionID:  v.CurrentDecision.ID,
			ChoiceID:    d.ChoiceID,
			CrisisLevel: h.CrisisLevel,
			Stress:      h.Stress,
			Cohesion:    h.Cohesion,
			Rationale:   d.Rationale,
		})
	}
	return p.Client.Choose(ctx, v.SessionID, []string{d.ChoiceID})
}
