// Package events decides when shocks fire at each layer, picks a template by
// weighted draw, materializes concrete event instances, and applies or
// expires their effects on the pulses.
package events

import (
	"encoding/json"
	"fmt"

	"github.com/talgya/undercurrent/internal/pulse"
)

// GlobalEventType classifies national shocks.
type GlobalEventType string

const (
	GlobalExecutive GlobalEventType = "Executive"
	GlobalJudicial  GlobalEventType = "Judicial"
	GlobalMedia     GlobalEventType = "Media"
	GlobalSecurity  GlobalEventType = "Security"
)

// CityEventCategory classifies municipal shocks.
type CityEventCategory string

const (
	CityPolicy         CityEventCategory = "Policy"
	CityBudget         CityEventCategory = "Budget"
	CityInfrastructure CityEventCategory = "Infrastructure"
	CityMedia          CityEventCategory = "Media"
)

// NeighborhoodEventType classifies block-level shocks.
type NeighborhoodEventType string

const (
	Audit      NeighborhoodEventType = "Audit"
	Checkpoint NeighborhoodEventType = "Checkpoint"
	RaidRumor  NeighborhoodEventType = "RaidRumor"
	Meeting    NeighborhoodEventType = "Meeting"
	Detention  NeighborhoodEventType = "Detention"
)

// IsEnforcement reports whether t is an enforcement-flavored event.
func (t NeighborhoodEventType) IsEnforcement() bool {
	switch t {
	case Checkpoint, Audit, RaidRumor, Detention:
		return true
	}
	return false
}

// Target is who a neighborhood event lands on.
type Target string

const (
	TargetFamily   Target = "Family"
	TargetEmployer Target = "Employer"
	TargetSchool   Target = "School"
	TargetBlock    Target = "Block"
)

// Range is an inclusive integer [lo, hi] pair, encoded as a two-element array.
type Range [2]int

// Lo returns the lower bound.
func (r Range) Lo() int { return r[0] }

// Hi returns the upper bound.
func (r Range) Hi() int { return r[1] }

// ── Instances ─────────────────────────────────────────────────────────

// GlobalEvent is a national shock with a duration.
type GlobalEvent struct {
	ID           string                        `json:"id"`
	Type         GlobalEventType               `json:"type"`
	Magnitude    int                           `json:"magnitude"`
	DurationDays int                           `json:"durationDays"`
	Title        string                        `json:"title"`
	Description  string                        `json:"description"`
	StartTurn    int                           `json:"startTurn"`
	Effects      map[pulse.GlobalField]float64 `json:"effects"`
}

// Layer implements Event.
func (GlobalEvent) Layer() pulse.Layer { return pulse.LayerGlobal }

// CityEvent is a municipal shock with a duration and a reach.
type CityEvent struct {
	ID           string                      `json:"id"`
	Category     CityEventCategory           `json:"category"`
	Visibility   int                         `json:"visibility"`
	ImpactRadius ImpactRadius                `json:"impactRadius"`
	Title        string                      `json:"title"`
	Description  string                      `json:"description"`
	StartTurn    int                         `json:"startTurn"`
	DurationDays int                         `json:"durationDays"`
	Effects      map[pulse.CityField]float64 `json:"effects"`
}

// Layer implements Event.
func (CityEvent) Layer() pulse.Layer { return pulse.LayerCity }

// NeighborhoodEvent is an instantaneous block-level shock. It is live only on
// its start turn.
type NeighborhoodEvent struct {
	ID             string                              `json:"id"`
	Type           NeighborhoodEventType               `json:"type"`
	Severity       int                                 `json:"severity"`
	Target         Target                              `json:"target"`
	NeighborhoodID string                              `json:"neighborhoodId"`
	Title          string                              `json:"title"`
	Description    string                              `json:"description"`
	StartTurn      int                                 `json:"startTurn"`
	Effects        map[pulse.NeighborhoodField]float64 `json:"effects"`
}

// Layer implements Event.
func (NeighborhoodEvent) Layer() pulse.Layer { return pulse.LayerNeighborhood }

// Event is implemented by every instance kind; Layer is the dispatch tag.
type Event interface {
	Layer() pulse.Layer
}

// ActiveEvents is the per-turn working set, pruned every event phase.
type ActiveEvents struct {
	Global       []GlobalEvent       `json:"global"`
	City         []CityEvent         `json:"city"`
	Neighborhood []NeighborhoodEvent `json:"neighborhood"`
}

// Clone copies the slices so the result can be appended to freely.
func (a ActiveEvents) Clone() ActiveEvents {
	return ActiveEvents{
		Global:       append([]GlobalEvent{}, a.Global...),
		City:         append([]CityEvent{}, a.City...),
		Neighborhood: append([]NeighborhoodEvent{}, a.Neighborhood...),
	}
}

// Len is the total number of live events.
func (a ActiveEvents) Len() int {
	return len(a.Global) + len(a.City) + len(a.Neighborhood)
}

// ImpactRadius is either every neighborhood ("All") or an explicit list.
type ImpactRadius struct {
	All             bool
	NeighborhoodIDs []string
}

// AllNeighborhoods is the city-wide radius.
var AllNeighborhoods = ImpactRadius{All: true}

// Covers reports whether the radius reaches neighborhood id.
func (r ImpactRadius) Covers(id string) bool {
	if r.All {
		return true
	}
	for _, n := range r.NeighborhoodIDs {
		if n == id {
			return true
		}
	}
	return false
}

// MarshalJSON encodes "All" or the id array.
func (r ImpactRadius) MarshalJSON() ([]byte, error) {
	if r.All {
		return json.Marshal("All")
	}
	ids := r.NeighborhoodIDs
	if ids == nil {
		ids = []string{}
	}
	return json.Marshal(ids)
}

// UnmarshalJSON accepts "All" or an array of ids.
func (r *ImpactRadius) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "All" {
			return fmt.Errorf("impact radius: unknown keyword %q", s)
		}
		*r = AllNeighborhoods
		return nil
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return fmt.Errorf("impact radius: %w", err)
	}
	*r = ImpactRadius{NeighborhoodIDs: ids}
	return nil
}

// ── Templates ─────────────────────────────────────────────────────────

// NeighborhoodEventTemplate is authored content for block-level shocks.
// Triggers map "min<Field>"/"max<Field>" keys to thresholds on the pulse.
type NeighborhoodEventTemplate struct {
	ID                  string                              `json:"id"`
	Type                NeighborhoodEventType               `json:"type"`
	SeverityRange       Range                               `json:"severityRange"`
	Targets             []Target                            `json:"targets"`
	Title               string                              `json:"title"`
	DescriptionTemplate string                              `json:"descriptionTemplate"`
	Weight              float64                             `json:"weight"`
	Effects             map[pulse.NeighborhoodField]float64 `json:"effects"`
	Triggers            map[string]float64                  `json:"triggers,omitempty"`
}

// CityEventTemplate is authored content for municipal shocks.
type CityEventTemplate struct {
	ID              string                      `json:"id"`
	Category        CityEventCategory           `json:"category"`
	Title           string                      `json:"title"`
	Description     string                      `json:"description"`
	VisibilityRange Range                       `json:"visibilityRange"`
	DurationRange   Range                       `json:"durationRange"`
	Weight          float64                     `json:"weight"`
	Effects         map[pulse.CityField]float64 `json:"effects"`
}

// GlobalEventTemplate is one entry of the built-in national pool. Effects are
// per unit of magnitude.
type GlobalEventTemplate struct {
	Type        GlobalEventType
	Title       string
	Description string
	Weight      float64
	BaseEffects map[pulse.GlobalField]float64
}
