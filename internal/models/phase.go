package models

// PhaseID identifies one of the built-in climate phases.
type PhaseID int

const (
	PhaseGermination PhaseID = 0
	PhaseFruiting    PhaseID = 1
)

// Phase is a named climate target band.
type Phase struct {
	ID      PhaseID `json:"id"`
	Name    string  `json:"name"`
	TempMin float64 `json:"temp_min_c"`
	TempMax float64 `json:"temp_max_c"`
	HumMin  float64 `json:"hum_min_pct"`
	HumMax  float64 `json:"hum_max_pct"`
}

var phases = [...]Phase{
	PhaseGermination: {ID: PhaseGermination, Name: "Germination", TempMin: 24, TempMax: 28, HumMin: 60, HumMax: 70},
	PhaseFruiting:    {ID: PhaseFruiting, Name: "Fruiting", TempMin: 18, TempMax: 23, HumMin: 90, HumMax: 95},
}

// PhaseByID returns the phase for id. Anything other than a known id
// resolves to Germination.
func PhaseByID(id PhaseID) Phase {
	if id < 0 || int(id) >= len(phases) {
		return phases[PhaseGermination]
	}
	return phases[id]
}

// Phase returns the band this id refers to.
func (id PhaseID) Phase() Phase { return PhaseByID(id) }

func (id PhaseID) String() string { return PhaseByID(id).Name }

// Normalize coerces unknown ids to Germination.
func (id PhaseID) Normalize() PhaseID { return PhaseByID(id).ID }
