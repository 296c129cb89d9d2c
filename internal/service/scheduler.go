package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"chamberctl/internal/logger"
	"chamberctl/internal/metrics"
	"chamberctl/internal/models"
)

// Tick defaults.
const (
	DefaultTick        = 100 * time.Millisecond
	DefaultSampleEvery = 50
)

// Scheduler is the cooperative control loop: button, sampling, climate
// control, display and telemetry, once per tick.
type Scheduler struct {
	chamber     *Chamber
	sensor      Sensor
	button      Button
	telemetry   *TelemetryPublisher
	sampleEvery int
	log         *logger.Logger

	counter  int
	lastTick atomic.Int64
}

func NewScheduler(chamber *Chamber, sensor Sensor, button Button, telemetry *TelemetryPublisher, sampleEvery int, log *logger.Logger) *Scheduler {
	if sampleEvery < 1 {
		sampleEvery = DefaultSampleEvery
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		chamber:     chamber,
		sensor:      sensor,
		button:      button,
		telemetry:   telemetry,
		sampleEvery: sampleEvery,
		log:         log,
	}
}

// Run ticks at the given interval until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		tick = DefaultTick
	}
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Tick(ctx)
		}
	}
}

// LastTick is when the loop last completed a tick. Zero before the first.
func (s *Scheduler) LastTick() time.Time {
	n := s.lastTick.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// Tick runs one iteration. Not safe for concurrent use.
func (s *Scheduler) Tick(ctx context.Context) {
	defer s.lastTick.Store(time.Now().UnixNano())

	if s.button != nil && s.button.Pressed() {
		s.chamber.Wake()
	}
	woke := s.chamber.consumeWake()

	s.counter++
	var publish, refresh bool
	if s.counter >= s.sampleEvery {
		publish = true
		s.counter = 0
	} else if s.chamber.refreshDue(s.counter) {
		refresh = true
	}

	var (
		m       models.Measurement
		st      models.OperatingState
		sampled bool
	)
	if woke || refresh || publish {
		m, st, sampled = s.sample(ctx)
	}

	s.chamber.stepDisplay(refresh)

	if publish && sampled {
		s.telemetry.Publish(m, st)
	}
}

func (s *Scheduler) sample(ctx context.Context) (models.Measurement, models.OperatingState, bool) {
	m, err := s.sensor.Read(ctx)
	if err != nil {
		metrics.SensorErrors.Inc()
		s.log.Warnw("sensor_read_failed", "error", fmt.Errorf("%w: %v", ErrSensorRead, err))
		return models.Measurement{}, models.OperatingState{}, false
	}
	st := s.chamber.ApplyMeasurement(m)
	s.log.Debugw("sample",
		"temperature_c", m.TemperatureC,
		"humidity_pct", m.HumidityPct,
		"pressure_hpa", m.PressureHPa,
		"mode", st.Mode.String(),
		"fan", st.Fan,
		"humidifier", st.Humidifier,
	)
	return m, st, true
}
