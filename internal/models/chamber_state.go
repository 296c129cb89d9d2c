package models

import "time"

// Actuators holds the two binary outputs.
type Actuators struct {
	Fan        bool `json:"fan"`
	Humidifier bool `json:"humidifier"`
}

// OperatingState is the mutable state shared by the tick loop and the
// command processor.
type OperatingState struct {
	Phase PhaseID `json:"phase_id"`
	Mode  Mode    `json:"mode"`
	Actuators
}

// DefaultOperatingState is the first-boot state.
func DefaultOperatingState() OperatingState {
	return OperatingState{Phase: PhaseGermination, Mode: ModeAutomatic}
}

// Measurement is a single sensor sample. Pressure is in hPa, gas in ohms.
type Measurement struct {
	TemperatureC float64   `json:"temperature_c"`
	HumidityPct  float64   `json:"humidity_pct"`
	PressureHPa  float64   `json:"pressure_hpa"`
	GasOhms      float64   `json:"gas_ohms"`
	TakenAt      time.Time `json:"taken_at"`
}

// PersistedRecord is the on-disk projection of OperatingState.
type PersistedRecord struct {
	PhaseID    int
	ModeID     int
	Fan        bool
	Humidifier bool
}

// Record projects s onto its persisted encoding.
func (s OperatingState) Record() PersistedRecord {
	return PersistedRecord{
		PhaseID:    int(s.Phase.Normalize()),
		ModeID:     s.Mode.ID(),
		Fan:        s.Fan,
		Humidifier: s.Humidifier,
	}
}

// State rebuilds an OperatingState, coercing unknown ids.
func (r PersistedRecord) State() OperatingState {
	return OperatingState{
		Phase: PhaseID(r.PhaseID).Normalize(),
		Mode:  ModeFromID(r.ModeID),
		Actuators: Actuators{
			Fan:        r.Fan,
			Humidifier: r.Humidifier,
		},
	}
}

// Snapshot is the read-only view served over the local API and websocket.
type Snapshot struct {
	State         OperatingState `json:"state"`
	Phase         Phase          `json:"phase"`
	Measurement   *Measurement   `json:"measurement,omitempty"`
	DisplayAwake  bool           `json:"display_awake"`
	LinkConnected bool           `json:"link_connected"`
	UpdatedAt     time.Time      `json:"updated_at"`
}
