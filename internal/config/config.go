package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "CHAMBER"

// Config is the full application configuration (configs/config.yml + CHAMBER_* env).
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	DB       DBConfig       `mapstructure:"db"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Device   DeviceConfig   `mapstructure:"device"`
	Control  ControlConfig  `mapstructure:"control"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	MQTT     MQTTConfig     `mapstructure:"mqtt"`
	Link     LinkConfig     `mapstructure:"link"`
	Hardware HardwareConfig `mapstructure:"hardware"`
	OTA      OTAConfig      `mapstructure:"ota"`
	API      APIConfig      `mapstructure:"api"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console | json | logfmt
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type HTTPConfig struct {
	Port string `mapstructure:"port"`
}

type DeviceConfig struct {
	Version string `mapstructure:"version"`
}

// ControlConfig holds the scheduler cadence. Counts are in ticks.
type ControlConfig struct {
	Tick         time.Duration `mapstructure:"tick"`
	SampleEvery  int           `mapstructure:"sample_every"`
	RefreshEvery int           `mapstructure:"refresh_every"`
	WakeDuration int           `mapstructure:"wake_duration"`
}

type TelegramConfig struct {
	Token        string        `mapstructure:"token"`
	DefaultChat  string        `mapstructure:"default_chat"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	PollTimeout  time.Duration `mapstructure:"poll_timeout"`
}

type MQTTConfig struct {
	Broker   string `mapstructure:"broker"`
	Token    string `mapstructure:"token"`
	Topic    string `mapstructure:"topic"`
	ClientID string `mapstructure:"client_id"`
}

type LinkConfig struct {
	ProbeAddr     string        `mapstructure:"probe_addr"`
	ProbeInterval time.Duration `mapstructure:"probe_interval"`
	ProbeTimeout  time.Duration `mapstructure:"probe_timeout"`
}

type HardwareConfig struct {
	Driver         string `mapstructure:"driver"` // raspi | sim
	I2CBus         int    `mapstructure:"i2c_bus"`
	SensorAddress  int    `mapstructure:"sensor_address"`
	DisplayAddress int    `mapstructure:"display_address"`
	FanPin         string `mapstructure:"fan_pin"`
	HumidifierPin  string `mapstructure:"humidifier_pin"`
	ButtonPin      string `mapstructure:"button_pin"`
}

type OTAConfig struct {
	URL     string        `mapstructure:"url"`
	Target  string        `mapstructure:"target"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type APIConfig struct {
	AdminPasswordHash string        `mapstructure:"admin_password_hash"`
	JWTSecret         string        `mapstructure:"jwt_secret"`
	TokenTTL          time.Duration `mapstructure:"token_ttl"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("db.path", "chamber.db")
	v.SetDefault("http.port", "8080")
	v.SetDefault("device.version", "v4.0.5")

	v.SetDefault("control.tick", 100*time.Millisecond)
	v.SetDefault("control.sample_every", 50)
	v.SetDefault("control.refresh_every", 10)
	v.SetDefault("control.wake_duration", 100)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.default_chat", "")
	v.SetDefault("telegram.poll_interval", 4*time.Second)
	v.SetDefault("telegram.poll_timeout", 5*time.Second)

	v.SetDefault("mqtt.broker", "tcp://demo.thingsboard.io:1883")
	v.SetDefault("mqtt.token", "")
	v.SetDefault("mqtt.topic", "v1/devices/me/telemetry")
	v.SetDefault("mqtt.client_id", "")

	v.SetDefault("link.probe_addr", "api.telegram.org:443")
	v.SetDefault("link.probe_interval", 10*time.Second)
	v.SetDefault("link.probe_timeout", 3*time.Second)

	v.SetDefault("hardware.driver", "sim")
	v.SetDefault("hardware.i2c_bus", 1)
	v.SetDefault("hardware.sensor_address", 0x76)
	v.SetDefault("hardware.display_address", 0x3C)
	v.SetDefault("hardware.fan_pin", "37")        // BCM 26
	v.SetDefault("hardware.humidifier_pin", "13") // BCM 27
	v.SetDefault("hardware.button_pin", "7")      // BCM 4

	v.SetDefault("ota.url", "")
	v.SetDefault("ota.target", "")
	v.SetDefault("ota.timeout", 30*time.Second)

	v.SetDefault("api.admin_password_hash", "")
	v.SetDefault("api.jwt_secret", "")
	v.SetDefault("api.token_ttl", time.Hour)
}

// Load reads config.yml from dir (missing file is fine) and applies
// environment overrides such as CHAMBER_TELEGRAM_TOKEN.
func Load(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks values the control loop cannot run without.
func (c *Config) Validate() error {
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)
	switch c.Log.Format {
	case "console", "json", "logfmt":
	default:
		return fmt.Errorf("log.format must be console, json or logfmt, got %q", c.Log.Format)
	}

	if c.Control.Tick <= 0 {
		return fmt.Errorf("control.tick must be positive, got %s", c.Control.Tick)
	}
	if c.Control.SampleEvery < 1 || c.Control.RefreshEvery < 1 || c.Control.WakeDuration < 1 {
		return errors.New("control.sample_every, refresh_every and wake_duration must be at least 1 tick")
	}
	if c.Telegram.PollInterval <= 0 {
		return fmt.Errorf("telegram.poll_interval must be positive, got %s", c.Telegram.PollInterval)
	}

	c.Hardware.Driver = strings.ToLower(c.Hardware.Driver)
	if c.Hardware.Driver != "sim" && c.Hardware.Driver != "raspi" {
		return fmt.Errorf("hardware.driver must be sim or raspi, got %q", c.Hardware.Driver)
	}
	if c.OTA.URL != "" && c.OTA.Target == "" {
		return errors.New("ota.target is required when ota.url is set")
	}
	return nil
}
