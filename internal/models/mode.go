package models

// Mode selects who drives the actuators.
type Mode uint8

const (
	// ModeAutomatic lets the climate controller drive the actuators.
	ModeAutomatic Mode = iota
	// ModeManual hands the actuators to the operator.
	ModeManual
)

func (m Mode) String() string {
	if m == ModeManual {
		return "MANUAL"
	}
	return "AUTO"
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// ID is the persisted/telemetry encoding: 1 automatic, 0 manual.
func (m Mode) ID() int {
	if m == ModeAutomatic {
		return 1
	}
	return 0
}

// ModeFromID decodes the persisted encoding. Anything but 0 is automatic.
func ModeFromID(id int) Mode {
	if id == 0 {
		return ModeManual
	}
	return ModeAutomatic
}

func (m *Mode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "MANUAL", "manual":
		*m = ModeManual
	default:
		*m = ModeAutomatic
	}
	return nil
}
