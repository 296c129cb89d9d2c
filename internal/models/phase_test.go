package models

import "testing"

func TestPhaseByID_KnownPhases(t *testing.T) {
	g := PhaseByID(PhaseGermination)
	if g.Name != "Germination" || g.TempMin != 24 || g.TempMax != 28 || g.HumMin != 60 || g.HumMax != 70 {
		t.Fatalf("unexpected germination band: %+v", g)
	}
	f := PhaseByID(PhaseFruiting)
	if f.Name != "Fruiting" || f.TempMin != 18 || f.TempMax != 23 || f.HumMin != 90 || f.HumMax != 95 {
		t.Fatalf("unexpected fruiting band: %+v", f)
	}
}

func TestPhaseByID_UnknownCoercesToGermination(t *testing.T) {
	for _, id := range []PhaseID{-1, 2, 7, 127} {
		if got := PhaseByID(id); got.ID != PhaseGermination {
			t.Fatalf("id %d: expected germination, got %+v", id, got)
		}
	}
}

func TestRecordRoundTrip(t *testing.T) {
	s := OperatingState{Phase: PhaseFruiting, Mode: ModeManual, Actuators: Actuators{Fan: true}}
	r := s.Record()
	if r.PhaseID != 1 || r.ModeID != 0 || !r.Fan || r.Humidifier {
		t.Fatalf("unexpected record: %+v", r)
	}
	if got := r.State(); got != s {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, s)
	}
}

func TestModeFromID(t *testing.T) {
	if ModeFromID(1) != ModeAutomatic || ModeFromID(0) != ModeManual || ModeFromID(5) != ModeAutomatic {
		t.Fatalf("unexpected mode decoding")
	}
}
