package engine

import (
	"github.com/talgya/undercurrent/internal/events"
	"github.com/talgya/undercurrent/internal/pulse"
)

// Flags earned through earlier choices.
const (
	FlagLearnedRights = "learned_rights"
	FlagLegalContact  = "legal_contact"
)

// flagSources maps a choice id to the flag picking it earns.
var flagSources = map[string]string{
	"attend":      FlagLearnedRights,
	"seek_help":   FlagLegalContact,
	"warn_others": FlagLegalContact,
}

func requires(flags ...string) *UnlockConditions {
	return &UnlockConditions{RequiresFlags: flags}
}

type fx = map[pulse.FamilyField]float64

// choiceSets are the fixed responses per neighborhood event type.
var choiceSets = map[events.NeighborhoodEventType]struct {
	prompt  string
	choices []Choice
}{
	events.Checkpoint: {
		prompt: "The checkpoint sits on the only road to work and school.",
		choices: []Choice{
			{ID: "comply", Label: "Comply", Description: "Show what they ask for and keep moving.",
				Effects: fx{pulse.Stress: 5, pulse.Visibility: 5}},
			{ID: "assert_rights", Label: "Assert your rights", Description: "Decline to answer and ask whether you are free to go.",
				Effects: fx{pulse.Stress: 10, pulse.Visibility: -5, pulse.Cohesion: 5}, UnlockConditions: requires(FlagLearnedRights)},
			{ID: "avoid", Label: "Take the long way", Description: "Go around, lose an hour, and arrive late.",
				Effects: fx{pulse.Stress: 8, pulse.Visibility: -3, pulse.TrustNetworkStrength: -2}},
		},
	},
	events.RaidRumor: {
		prompt: "Nobody knows if it is true.",
		choices: []Choice{
			{ID: "stay_home", Label: "Stay home", Description: "Keep everyone inside until it passes.",
				Effects: fx{pulse.Stress: 5, pulse.Visibility: -10, pulse.Cohesion: 3}},
			{ID: "warn_others", Label: "Warn others", Description: "Pass the word along the block and the group chat.",
				Effects: fx{pulse.TrustNetworkStrength: 8, pulse.Visibility: 5}},
			{ID: "continue_normal", Label: "Carry on", Description: "Go to work and school as usual.",
				Effects: fx{pulse.Stress: -2, pulse.Visibility: 8}},
		},
	},
	events.Audit: {
		prompt: "The letter gives you ten days to respond.",
		choices: []Choice{
			{ID: "provide_documents", Label: "Provide documents", Description: "Hand over what you have and hope it is enough.",
				Effects: fx{pulse.Stress: 8, pulse.Visibility: 10}},
			{ID: "request_lawyer", Label: "Call your lawyer", Description: "Let counsel answer on your behalf.",
				Effects: fx{pulse.Stress: -5, pulse.Visibility: -5}, UnlockConditions: requires(FlagLegalContact)},
		},
	},
	events.Meeting: {
		prompt: "Neighbors are gathering tonight in the church basement.",
		choices: []Choice{
			{ID: "attend", Label: "Attend", Description: "Go, listen, and learn what others know.",
				Effects: fx{pulse.TrustNetworkStrength: 10, pulse.Cohesion: 5, pulse.Visibility: 3}},
			{ID: "skip", Label: "Stay away", Description: "Rest tonight and keep a low profile.",
				Effects: fx{pulse.TrustNetworkStrength: -3, pulse.Stress: -2}},
		},
	},
	events.Detention: {
		prompt: "Someone close to you has been taken.",
		choices: []Choice{
			{ID: "seek_help", Label: "Seek help", Description: "Call the hotline and the people who know how this works.",
				Effects: fx{pulse.Stress: 10, pulse.TrustNetworkStrength: 5, pulse.Visibility: 8}},
			{ID: "stay_silent", Label: "Stay silent", Description: "Say nothing and wait for a call from the facility.",
				Effects: fx{pulse.Stress: 15, pulse.Cohesion: 5, pulse.Visibility: -5}, UnlockConditions: requires(FlagLearnedRights)},
		},
	},
}

// GenerateDecision builds the single-select decision for ev, or nil when its
// type has no choice set.
func GenerateDecision(ev events.NeighborhoodEvent) *Decision {
	set, ok := choiceSets[ev.Type]
	if !ok {
		return nil
	}

	choices := make([]Choice, len(set.choices))
	for i, c := range set.choices {
		c.Effects = copyEffects(c.Effects)
		choices[i] = c
	}

	narrative := set.prompt
	if ev.Description != "" {
		narrative = ev.Description + " " + set.prompt
	}

	return &Decision{
		ID:             "decision-" + ev.ID,
		Title:          ev.Title,
		Narrative:      narrative,
		Choices:        choices,
		MultiSelect:    false,
		TriggerEventID: ev.ID,
	}
}

func copyEffects(in fx) fx {
	out := make(fx, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Flags returns the set of flags earned by the choices in history.
func Flags(history []ChoiceRecord) map[string]bool {
	flags := map[string]bool{}
	for _, rec := range history {
		for _, id := range rec.ChoiceIDs {
			if f, ok := flagSources[id]; ok {
				flags[f] = true
			}
		}
	}
	return flags
}

// Unlocked reports whether every flag c requires is present.
func (c Choice) Unlocked(flags map[string]bool) bool {
	if c.UnlockConditions == nil {
		return true
	}
	for _, f := range c.UnlockConditions.RequiresFlags {
		if !flags[f] {
			return false
		}
	}
	return true
}

// AvailableChoices filters d's choices down to those history has unlocked.
func AvailableChoices(d Decision, history []ChoiceRecord) []Choice {
	flags := Flags(history)
	var out []Choice
	for _, c := range d.Choices {
		if c.Unlocked(flags) {
			out = append(out, c)
		}
	}
	return out
}
