// Package content loads authored city definitions: the city and
// neighborhood starting pulses plus the event templates the engine draws from.
// Files are YAML, checked against an embedded JSON Schema before decoding.
package content

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/talgya/undercurrent/internal/engine"
	"github.com/talgya/undercurrent/internal/events"
	"github.com/talgya/undercurrent/internal/pulse"
)

//go:embed city.schema.json
var citySchemaJSON string

var citySchema = jsonschema.MustCompileString("city.schema.json", citySchemaJSON)

// Neighborhood is one authored neighborhood. Pulse lists only the fields that
// differ from the defaults.
type Neighborhood struct {
	ID          string                              `json:"id"`
	Name        string                              `json:"name"`
	Description string                              `json:"description,omitempty"`
	Pulse       map[pulse.NeighborhoodField]float64 `json:"pulse,omitempty"`
}

// City is one authored city file.
type City struct {
	ID                 string                             `json:"id"`
	Name               string                             `json:"name"`
	Description        string                             `json:"description,omitempty"`
	StartNeighborhood  string                             `json:"startNeighborhood,omitempty"`
	Pulse              map[pulse.CityField]float64        `json:"pulse,omitempty"`
	Neighborhoods      []Neighborhood                     `json:"neighborhoods"`
	NeighborhoodEvents []events.NeighborhoodEventTemplate `json:"neighborhoodEvents"`
	CityEvents         []events.CityEventTemplate         `json:"cityEvents"`
}

// Summary is the listing view of a city.
type Summary struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Neighborhoods int    `json:"neighborhoods"`
}

// Parse decodes and validates one YAML city definition.
func Parse(data []byte) (City, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return City{}, fmt.Errorf("parse yaml: %w", err)
	}

	// Normalize through JSON so the schema and the json tags see the same document.
	raw, err := json.Marshal(doc)
	if err != nil {
		return City{}, fmt.Errorf("normalize: %w", err)
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return City{}, fmt.Errorf("normalize: %w", err)
	}
	if err := citySchema.Validate(instance); err != nil {
		return City{}, fmt.Errorf("schema: %w", err)
	}

	var c City
	if err := json.Unmarshal(raw, &c); err != nil {
		return City{}, fmt.Errorf("decode city: %w", err)
	}
	if err := c.check(); err != nil {
		return City{}, fmt.Errorf("city %s: %w", c.ID, err)
	}
	return c, nil
}

// check covers what the schema cannot express.
func (c City) check() error {
	seen := map[string]bool{}
	for _, n := range c.Neighborhoods {
		if seen[n.ID] {
			return fmt.Errorf("duplicate neighborhood %q", n.ID)
		}
		seen[n.ID] = true
	}
	if c.StartNeighborhood != "" && !seen[c.StartNeighborhood] {
		return fmt.Errorf("start neighborhood %q is not defined", c.StartNeighborhood)
	}

	ids := map[string]bool{}
	for _, t := range c.NeighborhoodEvents {
		if ids[t.ID] {
			return fmt.Errorf("duplicate event template %q", t.ID)
		}
		ids[t.ID] = true
		if t.SeverityRange.Lo() > t.SeverityRange.Hi() {
			return fmt.Errorf("template %s: severity range %v is inverted", t.ID, t.SeverityRange)
		}
	}
	for _, t := range c.CityEvents {
		if ids[t.ID] {
			return fmt.Errorf("duplicate event template %q", t.ID)
		}
		ids[t.ID] = true
		if t.VisibilityRange.Lo() > t.VisibilityRange.Hi() || t.DurationRange.Lo() > t.DurationRange.Hi() {
			return fmt.Errorf("template %s: inverted range", t.ID)
		}
		if t.DurationRange.Lo() < 1 {
			return fmt.Errorf("template %s: duration must be at least one day", t.ID)
		}
	}
	return nil
}

func overlay[F ~string, R pulse.Record[F, R]](base R, values map[F]float64) R {
	for f, v := range values {
		base = base.WithValue(f, v)
	}
	return base
}

// State builds the starting city state. The family starts in
// StartNeighborhood, or the first neighborhood when none is named.
func (c City) State() pulse.CityState {
	s := pulse.CityState{
		ID:    c.ID,
		Name:  c.Name,
		Pulse: overlay(pulse.DefaultCity(), c.Pulse),
	}
	for _, n := range c.Neighborhoods {
		s.Neighborhoods = append(s.Neighborhoods, pulse.NeighborhoodState{
			ID:    n.ID,
			Name:  n.Name,
			Pulse: overlay(pulse.DefaultNeighborhood(), n.Pulse),
		})
	}
	s.CurrentNeighborhoodID = c.StartNeighborhood
	if s.CurrentNeighborhoodID == "" && len(s.Neighborhoods) > 0 {
		s.CurrentNeighborhoodID = s.Neighborhoods[0].ID
	}
	return s
}

// TurnContext returns the template pools for this city.
func (c City) TurnContext() engine.TurnContext {
	return engine.TurnContext{
		NeighborhoodEventTemplates: append([]events.NeighborhoodEventTemplate(nil), c.NeighborhoodEvents...),
		CityEventTemplates:         append([]events.CityEventTemplate(nil), c.CityEvents...),
	}
}

func (c City) summary() Summary {
	return Summary{ID: c.ID, Name: c.Name, Description: c.Description, Neighborhoods: len(c.Neighborhoods)}
}
