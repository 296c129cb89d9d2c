package service

import (
	"fmt"

	"chamberctl/internal/models"
)

// Display cadence defaults, in ticks.
const (
	DefaultWakeDuration = 100
	DefaultRefreshEvery = 10
)

// Display rows used by the status screen.
const (
	rowMode        = 0
	rowMeasurement = 2
	rowPhase       = 4
	rowActuators   = 6
)

// Frame is everything the status screen shows.
type Frame struct {
	State       models.OperatingState
	Measurement models.Measurement
	LinkUp      bool
}

// Lines renders f as display rows.
func (f Frame) Lines() map[int]string {
	mode := "AUTO"
	if f.State.Mode == models.ModeManual {
		mode = "MAN"
	}
	link := "."
	if f.LinkUp {
		link = "*"
	}
	return map[int]string{
		rowMode:        fmt.Sprintf("%s %s", mode, link),
		rowMeasurement: fmt.Sprintf("T: %.1fC H: %.0f%%", f.Measurement.TemperatureC, f.Measurement.HumidityPct),
		rowPhase:       f.State.Phase.String(),
		rowActuators:   fmt.Sprintf("V:%d H:%d", boolDigit(f.State.Fan), boolDigit(f.State.Humidifier)),
	}
}

type nopDisplay struct{}

func (nopDisplay) Power(bool)            {}
func (nopDisplay) Clear()                {}
func (nopDisplay) WriteLine(int, string) {}

func boolDigit(b bool) int {
	if b {
		return 1
	}
	return 0
}

// DisplayScheduler powers the display on for WakeDuration ticks after a
// wake trigger and keeps it refreshed while awake. It is not safe for
// concurrent use; Chamber serialises access.
type DisplayScheduler struct {
	display      Display
	wakeDuration int
	refreshEvery int

	remaining   int
	awake       bool
	forceRender bool
}

func NewDisplayScheduler(d Display, wakeDuration, refreshEvery int) *DisplayScheduler {
	if wakeDuration < 1 {
		wakeDuration = DefaultWakeDuration
	}
	if refreshEvery < 1 {
		refreshEvery = DefaultRefreshEvery
	}
	if d == nil {
		d = nopDisplay{}
	}
	return &DisplayScheduler{display: d, wakeDuration: wakeDuration, refreshEvery: refreshEvery}
}

// Wake restarts the countdown and forces a render on the next step. It
// returns true when the display was asleep.
func (d *DisplayScheduler) Wake() bool {
	wasAsleep := d.remaining == 0
	d.remaining = d.wakeDuration
	d.forceRender = true
	return wasAsleep
}

// Active reports whether the countdown is running.
func (d *DisplayScheduler) Active() bool { return d.remaining > 0 }

// Awake reports the physical power state.
func (d *DisplayScheduler) Awake() bool { return d.awake }

// RefreshDue reports whether tick counter value n falls on the sub-refresh
// cadence while the display is active.
func (d *DisplayScheduler) RefreshDue(n int) bool {
	return d.remaining > 0 && n%d.refreshEvery == 0
}

// Step advances the countdown by one tick. refresh asks for a redraw; a
// redraw also happens on power-up and after Wake.
func (d *DisplayScheduler) Step(refresh bool, f Frame) {
	if d.remaining == 0 {
		if d.awake {
			d.sleep()
		}
		return
	}

	d.remaining--
	render := refresh || d.forceRender
	d.forceRender = false
	if !d.awake {
		d.display.Power(true)
		d.awake = true
		render = true
	}

	if d.remaining == 0 {
		d.sleep()
		return
	}
	if render {
		d.render(f)
	}
}

// Sleep blanks and powers the display off immediately.
func (d *DisplayScheduler) Sleep() {
	d.remaining = 0
	d.forceRender = false
	d.sleep()
}

// Splash shows a single message outside the status cycle (boot, config mode).
func (d *DisplayScheduler) Splash(lines ...string) {
	d.display.Power(true)
	d.awake = true
	d.display.Clear()
	for i, l := range lines {
		d.display.WriteLine(i*2, l)
	}
}

func (d *DisplayScheduler) sleep() {
	d.display.Clear()
	d.display.Power(false)
	d.awake = false
}

func (d *DisplayScheduler) render(f Frame) {
	lines := f.Lines()
	d.display.Clear()
	for _, row := range []int{rowMode, rowMeasurement, rowPhase, rowActuators} {
		d.display.WriteLine(row, lines[row])
	}
}
