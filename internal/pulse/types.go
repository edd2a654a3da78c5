// Package pulse holds the four layered indicator records (global, city,
// neighborhood, family) and the drift rules that move them each turn.
// Downward coupling is strong and fast; upward coupling is weak and slow.
package pulse

// Layer tags which world scope a record or event belongs to.
type Layer string

const (
	LayerGlobal       Layer = "global"
	LayerCity         Layer = "city"
	LayerNeighborhood Layer = "neighborhood"
	LayerFamily       Layer = "family"
)

// Bound is an inclusive numeric range.
type Bound struct {
	Min float64
	Max float64
}

// Clamp pins v into the bound.
func (b Bound) Clamp(v float64) float64 {
	if v < b.Min {
		return b.Min
	}
	if v > b.Max {
		return b.Max
	}
	return v
}

// Percent is the default [0,100] bound.
var Percent = Bound{Min: 0, Max: 100}

// ── Global ────────────────────────────────────────────────────────────

// GlobalField names a GlobalPulse field.
type GlobalField string

const (
	EnforcementClimate  GlobalField = "enforcementClimate"
	MediaNarrative      GlobalField = "mediaNarrative"
	JudicialAlignment   GlobalField = "judicialAlignment"
	PoliticalVolatility GlobalField = "politicalVolatility"
)

var globalBounds = map[GlobalField]Bound{
	EnforcementClimate:  Percent,
	MediaNarrative:      {Min: -100, Max: 100},
	JudicialAlignment:   {Min: -50, Max: 50},
	PoliticalVolatility: Percent,
}

// GlobalPulse is the national climate.
type GlobalPulse struct {
	EnforcementClimate  float64 `json:"enforcementClimate"`
	MediaNarrative      float64 `json:"mediaNarrative"`
	JudicialAlignment   float64 `json:"judicialAlignment"`
	PoliticalVolatility float64 `json:"politicalVolatility"`
}

// Bound returns the declared range of f.
func (f GlobalField) Bound() (Bound, bool) {
	b, ok := globalBounds[f]
	return b, ok
}

// Value reads a field by name.
func (g GlobalPulse) Value(f GlobalField) (float64, bool) {
	switch f {
	case EnforcementClimate:
		return g.EnforcementClimate, true
	case MediaNarrative:
		return g.MediaNarrative, true
	case JudicialAlignment:
		return g.JudicialAlignment, true
	case PoliticalVolatility:
		return g.PoliticalVolatility, true
	}
	return 0, false
}

// WithValue returns a copy with f set to v, clamped. Unknown fields are ignored.
func (g GlobalPulse) WithValue(f GlobalField, v float64) GlobalPulse {
	b, ok := f.Bound()
	if !ok {
		return g
	}
	v = b.Clamp(v)
	switch f {
	case EnforcementClimate:
		g.EnforcementClimate = v
	case MediaNarrative:
		g.MediaNarrative = v
	case JudicialAlignment:
		g.JudicialAlignment = v
	case PoliticalVolatility:
		g.PoliticalVolatility = v
	}
	return g
}

// ── City ──────────────────────────────────────────────────────────────

// CityField names a CityPulse field.
type CityField string

const (
	FederalCooperation   CityField = "federalCooperation"
	DataDensity          CityField = "dataDensity"
	PoliticalCover       CityField = "politicalCover"
	CivilSocietyCapacity CityField = "civilSocietyCapacity"
	BureaucraticInertia  CityField = "bureaucraticInertia"
)

// CityPulse is the municipal climate.
type CityPulse struct {
	FederalCooperation   float64 `json:"federalCooperation"`
	DataDensity          float64 `json:"dataDensity"`
	PoliticalCover       float64 `json:"politicalCover"`
	CivilSocietyCapacity float64 `json:"civilSocietyCapacity"`
	BureaucraticInertia  float64 `json:"bureaucraticInertia"`
}

// Bound returns the declared range of f.
func (f CityField) Bound() (Bound, bool) {
	switch f {
	case FederalCooperation, DataDensity, PoliticalCover, CivilSocietyCapacity, BureaucraticInertia:
		return Percent, true
	}
	return Bound{}, false
}

// Value reads a field by name.
func (c CityPulse) Value(f CityField) (float64, bool) {
	switch f {
	case FederalCooperation:
		return c.FederalCooperation, true
	case DataDensity:
		return c.DataDensity, true
	case PoliticalCover:
		return c.PoliticalCover, true
	case CivilSocietyCapacity:
		return c.CivilSocietyCapacity, true
	case BureaucraticInertia:
		return c.BureaucraticInertia, true
	}
	return 0, false
}

// WithValue returns a copy with f set to v, clamped. Unknown fields are ignored.
func (c CityPulse) WithValue(f CityField, v float64) CityPulse {
	v = Percent.Clamp(v)
	switch f {
	case FederalCooperation:
		c.FederalCooperation = v
	case DataDensity:
		c.DataDensity = v
	case PoliticalCover:
		c.PoliticalCover = v
	case CivilSocietyCapacity:
		c.CivilSocietyCapacity = v
	case BureaucraticInertia:
		c.BureaucraticInertia = v
	}
	return c
}

// ── Neighborhood ──────────────────────────────────────────────────────

// NeighborhoodField names a NeighborhoodPulse field.
type NeighborhoodField string

const (
	Trust                 NeighborhoodField = "trust"
	Suspicion             NeighborhoodField = "suspicion"
	EnforcementVisibility NeighborhoodField = "enforcementVisibility"
	CommunityDensity      NeighborhoodField = "communityDensity"
	EconomicPrecarity     NeighborhoodField = "economicPrecarity"
)

// NeighborhoodPulse is the block-level climate. Trust and suspicion are
// independent: a tight block can be both trusting and watchful.
type NeighborhoodPulse struct {
	Trust                 float64 `json:"trust"`
	Suspicion             float64 `json:"suspicion"`
	EnforcementVisibility float64 `json:"enforcementVisibility"`
	CommunityDensity      float64 `json:"communityDensity"`
	EconomicPrecarity     float64 `json:"economicPrecarity"`
}

// Bound returns the declared range of f.
func (f NeighborhoodField) Bound() (Bound, bool) {
	switch f {
	case Trust, Suspicion, EnforcementVisibility, CommunityDensity, EconomicPrecarity:
		return Percent, true
	}
	return Bound{}, false
}

// Value reads a field by name.
func (n NeighborhoodPulse) Value(f NeighborhoodField) (float64, bool) {
	switch f {
	case Trust:
		return n.Trust, true
	case Suspicion:
		return n.Suspicion, true
	case EnforcementVisibility:
		return n.EnforcementVisibility, true
	case CommunityDensity:
		return n.CommunityDensity, true
	case EconomicPrecarity:
		return n.EconomicPrecarity, true
	}
	return 0, false
}

// WithValue returns a copy with f set to v, clamped. Unknown fields are ignored.
func (n NeighborhoodPulse) WithValue(f NeighborhoodField, v float64) NeighborhoodPulse {
	v = Percent.Clamp(v)
	switch f {
	case Trust:
		n.Trust = v
	case Suspicion:
		n.Suspicion = v
	case EnforcementVisibility:
		n.EnforcementVisibility = v
	case CommunityDensity:
		n.CommunityDensity = v
	case EconomicPrecarity:
		n.EconomicPrecarity = v
	}
	return n
}

// ── Family ────────────────────────────────────────────────────────────

// FamilyField names a FamilyImpact field.
type FamilyField string

const (
	Visibility           FamilyField = "visibility"
	Stress               FamilyField = "stress"
	Cohesion             FamilyField = "cohesion"
	TrustNetworkStrength FamilyField = "trustNetworkStrength"
)

// FamilyImpact is the household's own condition.
type FamilyImpact struct {
	Visibility           float64 `json:"visibility"`
	Stress               float64 `json:"stress"`
	Cohesion             float64 `json:"cohesion"`
	TrustNetworkStrength float64 `json:"trustNetworkStrength"`
}

// Bound returns the declared range of f.
func (f FamilyField) Bound() (Bound, bool) {
	switch f {
	case Visibility, Stress, Cohesion, TrustNetworkStrength:
		return Percent, true
	}
	return Bound{}, false
}

// Value reads a field by name.
func (fi FamilyImpact) Value(f FamilyField) (float64, bool) {
	switch f {
	case Visibility:
		return fi.Visibility, true
	case Stress:
		return fi.Stress, true
	case Cohesion:
		return fi.Cohesion, true
	case TrustNetworkStrength:
		return fi.TrustNetworkStrength, true
	}
	return 0, false
}

// WithValue returns a copy with f set to v, clamped. Unknown fields are ignored.
func (fi FamilyImpact) WithValue(f FamilyField, v float64) FamilyImpact {
	v = Percent.Clamp(v)
	switch f {
	case Visibility:
		fi.Visibility = v
	case Stress:
		fi.Stress = v
	case Cohesion:
		fi.Cohesion = v
	case TrustNetworkStrength:
		fi.TrustNetworkStrength = v
	}
	return fi
}

// ── Defaults ──────────────────────────────────────────────────────────

// DefaultGlobal is the national climate at session start.
func DefaultGlobal() GlobalPulse {
	return GlobalPulse{EnforcementClimate: 50, MediaNarrative: 0, JudicialAlignment: 0, PoliticalVolatility: 30}
}

// DefaultCity is used when content does not define a city pulse.
func DefaultCity() CityPulse {
	return CityPulse{FederalCooperation: 50, DataDensity: 50, PoliticalCover: 50, CivilSocietyCapacity: 50, BureaucraticInertia: 50}
}

// DefaultNeighborhood is used when content does not define a neighborhood pulse.
func DefaultNeighborhood() NeighborhoodPulse {
	return NeighborhoodPulse{Trust: 50, Suspicion: 30, EnforcementVisibility: 30, CommunityDensity: 60, EconomicPrecarity: 50}
}

// DefaultFamily is the household at session start.
func DefaultFamily() FamilyImpact {
	return FamilyImpact{Visibility: 30, Stress: 30, Cohesion: 70, TrustNetworkStrength: 40}
}
