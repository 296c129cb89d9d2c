package service

import (
	"context"
	"sync"
	"time"

	"chamberctl/internal/logger"
	"chamberctl/internal/metrics"
	"chamberctl/internal/models"
	"chamberctl/internal/repository"
)

// Chamber owns the operating state, the display timer and the last
// measurement. The tick scheduler, the command processor and the HTTP
// API all go through it.
type Chamber struct {
	mu          sync.Mutex
	state       models.OperatingState
	display     *DisplayScheduler
	last        *models.Measurement
	pendingWake bool
	updatedAt   time.Time

	fan        Actuator
	humidifier Actuator
	link       Link

	saveMu sync.Mutex
	store  repository.StateRepo

	log *logger.Logger
	now func() time.Time
}

func NewChamber(store repository.StateRepo, display *DisplayScheduler, fan, humidifier Actuator, link Link, log *logger.Logger) *Chamber {
	if log == nil {
		log = logger.Nop()
	}
	return &Chamber{
		state:      models.DefaultOperatingState(),
		display:    display,
		fan:        fan,
		humidifier: humidifier,
		link:       link,
		store:      store,
		log:        log,
		now:        time.Now,
	}
}

// Restore loads the persisted state. Defaults are used on first boot or
// when storage is unreadable. Manual mode brings the stored actuator levels
// back; Automatic starts with both off and lets the controller decide.
func (c *Chamber) Restore(ctx context.Context) models.OperatingState {
	st := models.DefaultOperatingState()
	rec, found, err := c.store.Load(ctx)
	switch {
	case err != nil:
		c.log.Errorw("state_load_failed", "error", err)
	case !found:
		c.log.Infow("state_first_boot")
	default:
		st = rec.State()
	}

	desired := st.Actuators
	if st.Mode == models.ModeAutomatic {
		desired = models.Actuators{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = st
	c.state.Actuators = models.Actuators{}
	c.driveLocked(desired, true)
	c.publishStateLocked()
	c.log.Infow("state_restored",
		"phase", c.state.Phase.String(),
		"mode", c.state.Mode.String(),
		"fan", c.state.Fan,
		"humidifier", c.state.Humidifier,
	)
	return c.state
}

// State returns a copy of the operating state.
func (c *Chamber) State() models.OperatingState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastMeasurement returns the last successful sample, if any.
func (c *Chamber) LastMeasurement() (models.Measurement, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return models.Measurement{}, false
	}
	return *c.last, true
}

func (c *Chamber) Snapshot() models.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := models.Snapshot{
		State:         c.state,
		Phase:         c.state.Phase.Phase(),
		DisplayAwake:  c.display.Awake(),
		LinkConnected: c.linkUp(),
		UpdatedAt:     c.updatedAt,
	}
	if c.last != nil {
		m := *c.last
		snap.Measurement = &m
	}
	return snap
}

// Mutate applies fn to a copy of the state and commits it. Actuator levels
// requested by fn are driven to the outputs; a failed output keeps its
// previous level. The committed state is returned.
func (c *Chamber) Mutate(fn func(*models.OperatingState)) models.OperatingState {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.state
	fn(&next)
	c.state.Phase = next.Phase.Normalize()
	c.state.Mode = next.Mode
	c.driveLocked(next.Actuators, false)
	c.publishStateLocked()
	c.updatedAt = c.now()
	return c.state
}

// ApplyMeasurement records m and, in Automatic mode only, runs the climate
// controller and drives the outputs.
func (c *Chamber) ApplyMeasurement(m models.Measurement) models.OperatingState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m.TakenAt.IsZero() {
		m.TakenAt = c.now()
	}
	c.last = &m
	c.updatedAt = m.TakenAt

	metrics.Temperature.Set(m.TemperatureC)
	metrics.Humidity.Set(m.HumidityPct)
	metrics.Pressure.Set(m.PressureHPa)

	if c.state.Mode == models.ModeAutomatic {
		c.driveLocked(Decide(m, c.state.Phase.Phase(), c.state.Actuators), false)
	}
	return c.state
}

// Persist writes the current state. Concurrent callers are serialised so
// the last snapshot taken is the last one written.
func (c *Chamber) Persist(ctx context.Context) error {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()
	st := c.State()
	if err := c.store.Save(ctx, st); err != nil {
		metrics.SaveErrors.Inc()
		c.log.Errorw("state_save_failed", "error", err)
		return err
	}
	return nil
}

// Wake restarts the display timer.
func (c *Chamber) Wake() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.display.Wake() {
		c.pendingWake = true
	}
}

// consumeWake reports whether a wake from sleep happened since the last call.
func (c *Chamber) consumeWake() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	w := c.pendingWake
	c.pendingWake = false
	return w
}

func (c *Chamber) refreshDue(counter int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.display.RefreshDue(counter)
}

// stepDisplay advances the display timer by one tick.
func (c *Chamber) stepDisplay(refresh bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := Frame{State: c.state, LinkUp: c.linkUp()}
	if c.last != nil {
		f.Measurement = *c.last
	}
	c.display.Step(refresh, f)
}

// Splash shows a boot or configuration message outside the status cycle.
func (c *Chamber) Splash(lines ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.display.Splash(lines...)
}

// Sleep blanks the display.
func (c *Chamber) Sleep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.display.Sleep()
}

func (c *Chamber) linkUp() bool {
	return c.link != nil && c.link.Connected()
}

// driveLocked moves the outputs to want. Only changed outputs are written
// unless force is set.
func (c *Chamber) driveLocked(want models.Actuators, force bool) {
	if force || want.Fan != c.state.Fan {
		if c.setOutput("fan", c.fan, want.Fan) {
			c.state.Fan = want.Fan
		}
	}
	if force || want.Humidifier != c.state.Humidifier {
		if c.setOutput("humidifier", c.humidifier, want.Humidifier) {
			c.state.Humidifier = want.Humidifier
		}
	}
	metrics.Actuator.WithLabelValues("fan").Set(metrics.Bool(c.state.Fan))
	metrics.Actuator.WithLabelValues("humidifier").Set(metrics.Bool(c.state.Humidifier))
}

func (c *Chamber) setOutput(name string, a Actuator, on bool) bool {
	if a == nil {
		return true
	}
	if err := a.Set(on); err != nil {
		c.log.Errorw("actuator_write_failed", "actuator", name, "on", on, "error", err)
		return false
	}
	return true
}

func (c *Chamber) publishStateLocked() {
	metrics.Automatic.Set(metrics.Bool(c.state.Mode == models.ModeAutomatic))
	metrics.Phase.Set(float64(c.state.Phase))
}
