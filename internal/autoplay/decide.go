package autoplay

import (
	"errors"
	"fmt"
	"strings"

	"github.com/talgya/undercurrent/internal/api"
	"github.com/talgya/undercurrent/internal/engine"
	"github.com/talgya/undercurrent/internal/entropy"
	"github.com/talgya/undercurrent/internal/pulse"
)

// Strategy names how the player weighs choices.
type Strategy string

const (
	// Cautious keeps the family calm and out of sight, weighting stress
	// harder as the crisis level worsens.
	Cautious Strategy = "cautious"
	// Bold builds the trust network and cohesion unless the family is in crisis.
	Bold Strategy = "bold"
	// Random picks uniformly among the available choices.
	Random Strategy = "random"
)

// ErrNoChoices means a decision arrived with nothing unlocked.
var ErrNoChoices = errors.New("no available choices")

// ParseStrategy validates a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case Cautious, Bold, Random:
		return st, nil
	}
	return "", fmt.Errorf("unknown strategy %q (want cautious, bold or random)", s)
}

// Decision is the player's pick for one pending decision.
type Decision struct {
	ChoiceID  string
	Score     float64
	Rationale string
}

// Decide picks one of v's available choices.
func Decide(st Strategy, v api.SessionView, h Health, rng entropy.Source) (Decision, error) {
	choices := v.AvailableChoices
	if len(choices) == 0 {
		return Decision{}, ErrNoChoices
	}

	switch st {
	case Random:
		i := int(rng.Float() * float64(len(choices)))
		if i >= len(choices) {
			i = len(choices) - 1
		}
		return Decision{ChoiceID: choices[i].ID, Rationale: "random pick"}, nil
	case Bold:
		if h.CrisisLevel != Critical {
			return best(choices, boldWeights, "building the network at "+h.CrisisLevel), nil
		}
	}
	return best(choices, weights(h.CrisisLevel), "keeping the family steady at "+h.CrisisLevel), nil
}

var boldWeights = map[pulse.FamilyField]float64{
	pulse.TrustNetworkStrength: 2,
	pulse.Cohesion:             1,
	pulse.Stress:               -0.5,
}

// best returns the highest scoring choice; ties keep the earlier one.
func best(choices []engine.Choice, w map[pulse.FamilyField]float64, why string) Decision {
	var d Decision
	for i, c := range choices {
		score := 0.0
		for f, delta := range c.Effects {
			score += w[f] * delta
		}
		if i == 0 || score > d.Score {
			d = Decision{ChoiceID: c.ID, Score: score}
		}
	}
	d.Rationale = fmt.Sprintf("%s (score %.1f)", why, d.Score)
	return d
}
