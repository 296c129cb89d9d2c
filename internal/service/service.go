package service

import (
	"context"
	"time"

	"chamberctl/internal/logger"
	"chamberctl/internal/models"
	"chamberctl/internal/repository"
)

type Authorization interface {
	Enabled() bool
	GenerateToken(password string) (string, error)
	ParseToken(accessToken string) error
}

// Monitoring exposes the read-only live view.
type Monitoring interface {
	Snapshot() models.Snapshot
}

// Commands runs operator commands outside the chat channel.
type Commands interface {
	Execute(ctx context.Context, text string) (string, error)
}

// Provisioning stores uplink credentials from the configuration portal.
type Provisioning interface {
	SaveCredentials(ctx context.Context, c models.Credentials) error
}

// Deps are the device and network collaborators.
type Deps struct {
	Sensor     Sensor
	Display    Display
	Fan        Actuator
	Humidifier Actuator
	Button     Button
	Messenger  Messenger
	Chat       ChatTransport
	Link       Link
	Downloader Downloader
	// Restart is called after a firmware update is installed.
	Restart func()
}

// Options carries the tunables from configuration.
type Options struct {
	Version        string
	SampleEvery    int
	RefreshEvery   int
	WakeDuration   int
	DefaultChat    string
	TelemetryTopic string
	UpdateTimeout  time.Duration

	AdminPasswordHash string
	JWTSecret         string
	TokenTTL          time.Duration
}

// Service aggregates the sub-services for the handlers and main.
type Service struct {
	Monitoring
	Commands
	Authorization
	Provisioning

	Chamber   *Chamber
	Scheduler *Scheduler
	Poller    *CommandProcessor
	Updater   *Updater
}

// NewService wires the repository layer and collaborators into services.
// Nil collaborators degrade to offline operation; no updater is built
// without a downloader.
func NewService(repos *repository.Repository, deps Deps, opts Options, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	display := NewDisplayScheduler(deps.Display, opts.WakeDuration, opts.RefreshEvery)
	chamber := NewChamber(repos.StateRepo, display, deps.Fan, deps.Humidifier, deps.Link, log)

	var (
		updater *Updater
		trigger UpdateTrigger
	)
	if deps.Downloader != nil {
		updater = NewUpdater(deps.Downloader, deps.Restart, opts.UpdateTimeout, log)
		trigger = updater
	}

	poller := NewCommandProcessor(chamber, deps.Chat, deps.Link, trigger, CommandOptions{
		DefaultChat: opts.DefaultChat,
		Version:     opts.Version,
	}, log)
	telemetry := NewTelemetryPublisher(deps.Messenger, deps.Link, opts.TelemetryTopic, log)

	return &Service{
		Monitoring:    chamber,
		Commands:      poller,
		Authorization: NewAuthService(opts.AdminPasswordHash, opts.JWTSecret, opts.TokenTTL),
		Provisioning:  NewProvisioningService(repos.CredentialsRepo, log),
		Chamber:       chamber,
		Scheduler:     NewScheduler(chamber, deps.Sensor, deps.Button, telemetry, opts.SampleEvery, log),
		Poller:        poller,
		Updater:       updater,
	}
}
