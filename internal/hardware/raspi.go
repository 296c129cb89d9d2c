package hardware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"chamberctl/internal/config"
	"chamberctl/internal/logger"
	"chamberctl/internal/models"

	"gobot.io/x/gobot/v2"
	"gobot.io/x/gobot/v2/drivers/gpio"
	"gobot.io/x/gobot/v2/drivers/i2c"
	"gobot.io/x/gobot/v2/platforms/raspi"
)

// OpenRaspi connects the relays, button, BME280 and SSD1306 on a Raspberry Pi.
func OpenRaspi(cfg config.HardwareConfig, log *logger.Logger) (*Board, error) {
	a := raspi.NewAdaptor()

	fan := gpio.NewRelayDriver(a, cfg.FanPin)
	humidifier := gpio.NewRelayDriver(a, cfg.HumidifierPin)
	button := gpio.NewDirectPinDriver(a, cfg.ButtonPin)
	bme := i2c.NewBME280Driver(a, i2c.WithBus(cfg.I2CBus), i2c.WithAddress(cfg.SensorAddress))
	oled := i2c.NewSSD1306Driver(a, i2c.WithBus(cfg.I2CBus), i2c.WithAddress(cfg.DisplayAddress))

	robot := gobot.NewRobot("chamber",
		[]gobot.Connection{a},
		[]gobot.Device{fan, humidifier, button, bme, oled},
	)
	if err := robot.Start(false); err != nil {
		return nil, fmt.Errorf("start board: %w", err)
	}
	log.Infow("board_started", "driver", "raspi", "i2c_bus", cfg.I2CBus,
		"fan_pin", cfg.FanPin, "humidifier_pin", cfg.HumidifierPin, "button_pin", cfg.ButtonPin)

	return &Board{
		Sensor:     &bmeSensor{dev: bme},
		Display:    &oledDisplay{dev: oled, canvas: NewCanvas(), log: log},
		Fan:        &relay{dev: fan},
		Humidifier: &relay{dev: humidifier},
		Button:     &pinButton{dev: button},
		close:      robot.Stop,
	}, nil
}

type bmeSensor struct {
	dev *i2c.BME280Driver
}

// Read samples the BME280. Pressure is converted from Pa to hPa; the
// sensor has no gas channel.
func (s *bmeSensor) Read(ctx context.Context) (models.Measurement, error) {
	if err := ctx.Err(); err != nil {
		return models.Measurement{}, err
	}
	t, err := s.dev.Temperature()
	if err != nil {
		return models.Measurement{}, fmt.Errorf("temperature: %w", err)
	}
	h, err := s.dev.Humidity()
	if err != nil {
		return models.Measurement{}, fmt.Errorf("humidity: %w", err)
	}
	p, err := s.dev.Pressure()
	if err != nil {
		return models.Measurement{}, fmt.Errorf("pressure: %w", err)
	}
	return models.Measurement{
		TemperatureC: float64(t),
		HumidityPct:  float64(h),
		PressureHPa:  float64(p) / 100,
		TakenAt:      time.Now(),
	}, nil
}

type relay struct {
	dev *gpio.RelayDriver
}

func (r *relay) Set(on bool) error {
	if on {
		return r.dev.On()
	}
	return r.dev.Off()
}

type pinButton struct {
	dev *gpio.DirectPinDriver
}

// Pressed reads the pull-down button; a read error counts as released.
func (b *pinButton) Pressed() bool {
	v, err := b.dev.DigitalRead()
	return err == nil && v == 1
}

type oledDisplay struct {
	mu     sync.Mutex
	dev    *i2c.SSD1306Driver
	canvas *Canvas
	log    *logger.Logger
}

func (d *oledDisplay) Power(on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var err error
	if on {
		err = d.dev.On()
	} else {
		err = d.dev.Off()
	}
	if err != nil {
		d.log.Debugw("display_power_failed", "on", on, "error", err)
	}
}

func (d *oledDisplay) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.canvas.Clear()
	d.flush()
}

func (d *oledDisplay) WriteLine(row int, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.canvas.WriteLine(row, text)
	d.flush()
}

func (d *oledDisplay) flush() {
	if err := d.dev.ShowImage(d.canvas.Image()); err != nil {
		d.log.Debugw("display_write_failed", "error", err)
	}
}
