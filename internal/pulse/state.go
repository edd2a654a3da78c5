package pulse

// NeighborhoodState is one neighborhood's identity and pulse.
type NeighborhoodState struct {
	ID    string            `json:"id"`
	Name  string            `json:"name,omitempty"`
	Pulse NeighborhoodPulse `json:"pulse"`
}

// CityState is the city pulse plus its neighborhoods and where the family lives.
type CityState struct {
	ID                    string              `json:"id,omitempty"`
	Name                  string              `json:"name,omitempty"`
	Pulse                 CityPulse           `json:"pulse"`
	Neighborhoods         []NeighborhoodState `json:"neighborhoods"`
	CurrentNeighborhoodID string              `json:"currentNeighborhoodId"`
}

// Clone copies the neighborhood slice so the result can be edited without
// touching the receiver. Pulse records are values and need no deep copy.
func (c CityState) Clone() CityState {
	c.Neighborhoods = append([]NeighborhoodState(nil), c.Neighborhoods...)
	return c
}

// Neighborhood looks up a neighborhood by id.
func (c CityState) Neighborhood(id string) (NeighborhoodState, bool) {
	for _, n := range c.Neighborhoods {
		if n.ID == id {
			return n, true
		}
	}
	return NeighborhoodState{}, false
}

// Current returns the neighborhood the family lives in.
func (c CityState) Current() (NeighborhoodState, bool) {
	return c.Neighborhood(c.CurrentNeighborhoodID)
}

// NeighborhoodIDs lists ids in declaration order.
func (c CityState) NeighborhoodIDs() []string {
	ids := make([]string, 0, len(c.Neighborhoods))
	for _, n := range c.Neighborhoods {
		ids = append(ids, n.ID)
	}
	return ids
}

// WithNeighborhoodPulse returns a clone with neighborhood id's pulse replaced.
func (c CityState) WithNeighborhoodPulse(id string, p NeighborhoodPulse) CityState {
	out := c.Clone()
	for i := range out.Neighborhoods {
		if out.Neighborhoods[i].ID == id {
			out.Neighborhoods[i].Pulse = p
		}
	}
	return out
}

// World is the full set of pulses the drift step reads.
type World struct {
	Global GlobalPulse
	City   CityState
	Family FamilyImpact
}
