package engine

import (
	"testing"

	"github.com/talgya/undercurrent/internal/events"
	"github.com/talgya/undercurrent/internal/pulse"
)

func TestCheckGameEnding(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*GameState)
		want    EndingType
		victory VictoryType
	}{
		{
			name:   "no ending",
			mutate: func(s *GameState) {},
		},
		{
			name: "failure",
			mutate: func(s *GameState) {
				s.Family.Stress = 95
				s.Family.Cohesion = 10
			},
			want: EndingFailure,
		},
		{
			name: "stressed but cohesive",
			mutate: func(s *GameState) {
				s.Family.Stress = 99
				s.Family.Cohesion = 11
			},
		},
		{
			name: "outlast",
			mutate: func(s *GameState) {
				s.Turn, s.MaxTurns = 80, 80
				s.GlobalPulse.EnforcementClimate = 30
			},
			want: EndingVictory, victory: VictoryOutlast,
		},
		{
			name: "outlast blocked by enforcement",
			mutate: func(s *GameState) {
				s.Turn, s.MaxTurns = 80, 80
				s.GlobalPulse.EnforcementClimate = 60
			},
		},
		{
			name: "sanctuary",
			mutate: func(s *GameState) {
				s.City = s.City.WithNeighborhoodPulse("eastside", pulse.NeighborhoodPulse{Trust: 85, CommunityDensity: 75})
				s.Family.TrustNetworkStrength = 85
			},
			want: EndingVictory, victory: VictorySanctuary,
		},
		{
			name: "sanctuary only counts the current neighborhood",
			mutate: func(s *GameState) {
				s.City = s.City.WithNeighborhoodPulse("northgate", pulse.NeighborhoodPulse{Trust: 85, CommunityDensity: 75})
				s.Family.TrustNetworkStrength = 85
			},
		},
		{
			name: "transform",
			mutate: func(s *GameState) {
				s.City.Pulse.PoliticalCover = 85
				s.City.Pulse.FederalCooperation = 15
				s.GlobalPulse.MediaNarrative = -60
			},
			want: EndingVictory, victory: VictoryTransform,
		},
		{
			name: "transform needs a sympathetic press",
			mutate: func(s *GameState) {
				s.City.Pulse.PoliticalCover = 85
				s.City.Pulse.FederalCooperation = 15
				s.GlobalPulse.MediaNarrative = -40
			},
		},
		{
			name: "failure beats victory",
			mutate: func(s *GameState) {
				s.Family.Stress = 97
				s.Family.Cohesion = 5
				s.City = s.City.WithNeighborhoodPulse("eastside", pulse.NeighborhoodPulse{Trust: 90, CommunityDensity: 90})
				s.Family.TrustNetworkStrength = 90
			},
			want: EndingFailure,
		},
		{
			name: "outlast beats sanctuary and transform",
			mutate: func(s *GameState) {
				s.Turn, s.MaxTurns = 80, 80
				s.GlobalPulse.EnforcementClimate = 10
				s.GlobalPulse.MediaNarrative = -90
				s.City.Pulse.PoliticalCover = 90
				s.City.Pulse.FederalCooperation = 5
				s.City = s.City.WithNeighborhoodPulse("eastside", pulse.NeighborhoodPulse{Trust: 90, CommunityDensity: 90})
				s.Family.TrustNetworkStrength = 90
			},
			want: EndingVictory, victory: VictoryOutlast,
		},
		{
			name: "sanctuary beats transform",
			mutate: func(s *GameState) {
				s.GlobalPulse.MediaNarrative = -90
				s.City.Pulse.PoliticalCover = 90
				s.City.Pulse.FederalCooperation = 5
				s.City = s.City.WithNeighborhoodPulse("eastside", pulse.NeighborhoodPulse{Trust: 90, CommunityDensity: 90})
				s.Family.TrustNetworkStrength = 90
			},
			want: EndingVictory, victory: VictorySanctuary,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewGameState("s1", testCity(), 0)
			tt.mutate(&s)

			got := CheckGameEnding(s)
			if tt.want == "" {
				if got.Ending != nil {
					t.Fatalf("unexpected ending %+v", got.Ending)
				}
				return
			}
			if got.Ending == nil {
				t.Fatal("expected an ending")
			}
			if got.Ending.Type != tt.want || got.Ending.VictoryType != tt.victory {
				t.Fatalf("ending = %+v, want %s/%s", got.Ending, tt.want, tt.victory)
			}
			if got.Ending.Turn != s.Turn {
				t.Fatalf("ending turn = %d, want %d", got.Ending.Turn, s.Turn)
			}
			if s.Ending != nil {
				t.Fatal("input state was modified")
			}
		})
	}
}

func TestFailureReason(t *testing.T) {
	s := NewGameState("s1", testCity(), 0)
	s.Family.Stress = 100
	s.Family.Cohesion = 0
	got := CheckGameEnding(s)
	if got.Ending == nil || got.Ending.Reason != "Family could not endure the pressure." {
		t.Fatalf("ending = %+v", got.Ending)
	}
}

func TestCheckGameEndingIdempotent(t *testing.T) {
	s := NewGameState("s1", testCity(), 0)
	s.Family.Stress = 96
	s.Family.Cohesion = 3
	ended := CheckGameEnding(s)
	first := ended.Ending

	// Conditions change afterwards; the recorded ending must not.
	ended.Family.Stress = 10
	ended.Family.Cohesion = 90
	ended.Turn, ended.MaxTurns = 80, 80
	ended.GlobalPulse.EnforcementClimate = 5

	again := CheckGameEnding(ended)
	if again.Ending != first {
		t.Fatalf("ending replaced: %+v vs %+v", again.Ending, first)
	}
	if again.Ending.Type != EndingFailure {
		t.Fatalf("type = %s", again.Ending.Type)
	}
}

func TestDecisionForEveryNeighborhoodType(t *testing.T) {
	tests := []struct {
		typ  events.NeighborhoodEventType
		want []string
	}{
		{events.Checkpoint, []string{"comply", "assert_rights", "avoid"}},
		{events.RaidRumor, []string{"stay_home", "warn_others", "continue_normal"}},
		{events.Audit, []string{"provide_documents", "request_lawyer"}},
		{events.Meeting, []string{"attend", "skip"}},
		{events.Detention, []string{"seek_help", "stay_silent"}},
	}
	for _, tt := range tests {
		ev := events.NeighborhoodEvent{ID: "nbhd-1", Type: tt.typ, Title: "t", Description: "Something happened."}
		d := GenerateDecision(ev)
		if d == nil {
			t.Fatalf("%s: no decision", tt.typ)
		}
		if d.MultiSelect || d.TriggerEventID != "nbhd-1" || d.ID != "decision-nbhd-1" {
			t.Errorf("%s: decision = %+v", tt.typ, d)
		}
		var ids []string
		for _, c := range d.Choices {
			ids = append(ids, c.ID)
		}
		if len(ids) != len(tt.want) {
			t.Fatalf("%s: choices = %v, want %v", tt.typ, ids, tt.want)
		}
		for i := range ids {
			if ids[i] != tt.want[i] {
				t.Errorf("%s: choices = %v, want %v", tt.typ, ids, tt.want)
			}
		}
	}

	if d := GenerateDecision(events.NeighborhoodEvent{Type: "Parade"}); d != nil {
		t.Fatalf("unknown type produced %+v", d)
	}
}

func TestDecisionEffectsAreIndependent(t *testing.T) {
	a := GenerateDecision(events.NeighborhoodEvent{ID: "a", Type: events.Meeting})
	a.Choices[0].Effects[pulse.Stress] = 99

	b := GenerateDecision(events.NeighborhoodEvent{ID: "b", Type: events.Meeting})
	if _, ok := b.Choices[0].Effects[pulse.Stress]; ok {
		t.Fatal("choice effects shared between decisions")
	}
}

func TestAvailableChoicesRespectFlags(t *testing.T) {
	checkpoint := *GenerateDecision(events.NeighborhoodEvent{ID: "e1", Type: events.Checkpoint})
	audit := *GenerateDecision(events.NeighborhoodEvent{ID: "e2", Type: events.Audit})

	ids := func(cs []Choice) map[string]bool {
		m := map[string]bool{}
		for _, c := range cs {
			m[c.ID] = true
		}
		return m
	}

	got := ids(AvailableChoices(checkpoint, nil))
	if got["assert_rights"] || !got["comply"] || !got["avoid"] {
		t.Fatalf("fresh checkpoint choices = %v", got)
	}

	history := []ChoiceRecord{{Turn: 3, DecisionID: "d", ChoiceIDs: []string{"attend"}}}
	if got := ids(AvailableChoices(checkpoint, history)); !got["assert_rights"] {
		t.Fatalf("attend should unlock assert_rights: %v", got)
	}
	if got := ids(AvailableChoices(audit, history)); got["request_lawyer"] {
		t.Fatalf("request_lawyer unlocked without legal contact: %v", got)
	}

	history = append(history, ChoiceRecord{Turn: 5, DecisionID: "d2", ChoiceIDs: []string{"warn_others"}})
	if got := ids(AvailableChoices(audit, history)); !got["request_lawyer"] {
		t.Fatalf("warn_others should unlock request_lawyer: %v", got)
	}
}

func TestFlags(t *testing.T) {
	flags := Flags([]ChoiceRecord{
		{ChoiceIDs: []string{"skip"}},
		{ChoiceIDs: []string{"seek_help"}},
	})
	if !flags[FlagLegalContact] || flags[FlagLearnedRights] {
		t.Fatalf("flags = %v", flags)
	}
	if len(Flags(nil)) != 0 {
		t.Fatal("empty history should earn nothing")
	}
}
