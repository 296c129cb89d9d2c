package hardware

import (
	"context"
	"math"
	"sync"
	"time"

	"chamberctl/internal/models"
)

// ----------- Simulation constants -----------
const (
	AmbientC           = 26.0   // ambient temperature °C
	AmbientHumidityPct = 62.0   // ambient relative humidity
	AmbientPressureHPa = 1013.0 // hPa
	FanDeltaC          = 6.0    // °C the fan pulls below ambient
	HumidifierPct      = 97.0   // saturation reached with the humidifier on
	DriftPerSec        = 0.01   // fraction of the gap closed per second, passive
	ForcedPerSec       = 0.03   // fraction of the gap closed per second, actuator on
)

// Sim is a chamber model that responds to its own actuators. It backs every
// device handle of the simulated board.
type Sim struct {
	mu         sync.Mutex
	tempC      float64
	humidity   float64
	fan        bool
	humidifier bool
	pressed    bool
	displayOn  bool
	lines      map[int]string
	last       time.Time
	now        func() time.Time
}

// NewSim starts the model at ambient conditions.
func NewSim() *Sim {
	return &Sim{
		tempC:    AmbientC,
		humidity: AmbientHumidityPct,
		lines:    map[int]string{},
		now:      time.Now,
	}
}

// OpenSim returns a board backed by a fresh simulation.
func OpenSim() (*Board, *Sim) {
	s := NewSim()
	return &Board{
		Sensor:     s,
		Display:    simDisplay{s},
		Fan:        simRelay{s, &s.fan},
		Humidifier: simRelay{s, &s.humidifier},
		Button:     s,
	}, s
}

// Read advances the model to now and returns a sample.
func (s *Sim) Read(ctx context.Context) (models.Measurement, error) {
	if err := ctx.Err(); err != nil {
		return models.Measurement{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if !s.last.IsZero() {
		s.advance(now.Sub(s.last).Seconds())
	}
	s.last = now
	return models.Measurement{
		TemperatureC: s.tempC,
		HumidityPct:  s.humidity,
		PressureHPa:  AmbientPressureHPa,
		TakenAt:      now,
	}, nil
}

// Press queues one button press for the next poll.
func (s *Sim) Press() {
	s.mu.Lock()
	s.pressed = true
	s.mu.Unlock()
}

func (s *Sim) Pressed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.pressed
	s.pressed = false
	return p
}

// Set forces the climate, for tests and demos.
func (s *Sim) Set(tempC, humidity float64) {
	s.mu.Lock()
	s.tempC, s.humidity = tempC, humidity
	s.mu.Unlock()
}

// Lines returns what the simulated display shows; empty when powered off.
func (s *Sim) Lines() map[int]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]string, len(s.lines))
	if !s.displayOn {
		return out
	}
	for k, v := range s.lines {
		out[k] = v
	}
	return out
}

// advance moves temperature and humidity toward their targets.
func (s *Sim) advance(elapsed float64) {
	if elapsed <= 0 {
		return
	}
	targetT, rateT := AmbientC, DriftPerSec
	if s.fan {
		targetT, rateT = AmbientC-FanDeltaC, ForcedPerSec
	}
	s.tempC = approach(s.tempC, targetT, rateT, elapsed)

	targetH, rateH := AmbientHumidityPct, DriftPerSec
	if s.humidifier {
		targetH, rateH = HumidifierPct, ForcedPerSec
	}
	s.humidity = approach(s.humidity, targetH, rateH, elapsed)
}

// approach closes the gap to target exponentially; it never overshoots.
func approach(cur, target, ratePerSec, elapsed float64) float64 {
	k := 1 - math.Exp(-ratePerSec*elapsed)
	return cur + (target-cur)*k
}

type simRelay struct {
	s     *Sim
	level *bool
}

func (r simRelay) Set(on bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	if !r.s.last.IsZero() {
		r.s.advance(now.Sub(r.s.last).Seconds())
	}
	r.s.last = now
	*r.level = on
	return nil
}

type simDisplay struct{ s *Sim }

func (d simDisplay) Power(on bool) {
	d.s.mu.Lock()
	d.s.displayOn = on
	d.s.mu.Unlock()
}

func (d simDisplay) Clear() {
	d.s.mu.Lock()
	d.s.lines = map[int]string{}
	d.s.mu.Unlock()
}

func (d simDisplay) WriteLine(row int, text string) {
	d.s.mu.Lock()
	d.s.lines[row] = text
	d.s.mu.Unlock()
}
