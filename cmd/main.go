package main

import (
	"context"
	"database/sql"
	"os/signal"
	"syscall"
	"time"

	"chamberctl/internal/config"
	"chamberctl/internal/handlers"
	"chamberctl/internal/hardware"
	"chamberctl/internal/logger"
	"chamberctl/internal/netlink"
	"chamberctl/internal/ota"
	"chamberctl/internal/repository"
	"chamberctl/internal/repository/db"
	"chamberctl/internal/server"
	"chamberctl/internal/service"
	"chamberctl/internal/telegram"
	"chamberctl/internal/thingsboard"

	"github.com/google/uuid"
)

const (
	configDir       = "configs"
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load(configDir)
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	log := logger.Configure(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	bootID := uuid.NewString()
	log.Infow("starting", "version", cfg.Device.Version, "boot_id", bootID, "driver", cfg.Hardware.Driver)

	conn := openDB(cfg.DB.Path, log)
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()
	repos := repository.NewRepository(conn)

	board, err := openBoard(cfg.Hardware, log)
	if err != nil {
		log.Fatalw("failed to open hardware", "err", err)
	}
	defer func() { _ = board.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	buttonHeld := board.Button.Pressed()
	prov := service.NewProvisioningService(repos.CredentialsRepo, log)
	if prov.Decide(ctx, buttonHeld) {
		runConfigMode(ctx, cfg, repos, board, log)
		return
	}

	runController(ctx, cfg, bootID, repos, board, log)
}

// openDB opens the state database. An unusable medium falls back to an
// in-memory database so the controller still runs on defaults.
func openDB(path string, log *logger.Logger) *sql.DB {
	conn, err := db.InitDB(path)
	if err == nil {
		return conn
	}
	log.Errorw("failed to init sqlite, state will not survive a restart", "path", path, "err", err)
	conn, err = db.InitDB(":memory:")
	if err != nil {
		log.Fatalw("failed to init in-memory sqlite", "err", err)
	}
	return conn
}

func openBoard(cfg config.HardwareConfig, log *logger.Logger) (*hardware.Board, error) {
	if cfg.Driver == "raspi" {
		return hardware.OpenRaspi(cfg, log)
	}
	board, _ := hardware.OpenSim()
	log.Infow("board_started", "driver", "sim")
	return board, nil
}

// runConfigMode serves the provisioning portal until credentials are saved
// or the process is stopped. It never returns to normal operation.
func runConfigMode(ctx context.Context, cfg *config.Config, repos *repository.Repository, board *hardware.Board, log *logger.Logger) {
	log.Infow("config_mode", "port", cfg.HTTP.Port)
	svc := service.NewService(repos, service.Deps{
		Display:    board.Display,
		Fan:        board.Fan,
		Humidifier: board.Humidifier,
		Button:     board.Button,
		Link:       netlink.Static(false),
	}, service.Options{}, log)
	svc.Chamber.Splash("CONFIG MODE", "Open the portal", "port "+cfg.HTTP.Port)

	ctx, done := context.WithCancel(ctx)
	defer done()
	portal := handlers.NewPortal(svc.Provisioning, done, log)
	srv := server.New(cfg.HTTP.Port, portal.InitRoutes())
	go runHTTPServer(srv, log)

	notifyReady(log)
	<-ctx.Done()
	notifyStopping()
	shutdownHTTP(srv, log)
	svc.Chamber.Sleep()
	log.Infow("config_mode_finished")
}

func runController(ctx context.Context, cfg *config.Config, bootID string, repos *repository.Repository, board *hardware.Board, log *logger.Logger) {
	var link service.Link = netlink.Static(true)
	var prober *netlink.Prober
	if cfg.Link.ProbeAddr != "" {
		prober = netlink.NewProber(cfg.Link.ProbeAddr, cfg.Link.ProbeInterval, cfg.Link.ProbeTimeout, log)
		link = prober
	}

	var chat service.ChatTransport
	if cfg.Telegram.Token != "" {
		chat = telegram.New(cfg.Telegram.Token, "", cfg.Telegram.PollTimeout)
	} else {
		log.Warnw("telegram.token not set; remote commands disabled")
	}

	var messenger service.Messenger
	if cfg.MQTT.Broker != "" {
		clientID := cfg.MQTT.ClientID
		if clientID == "" {
			clientID = "chamber-" + bootID
		}
		m, disconnect := thingsboard.Dial(thingsboard.Config{
			Broker:   cfg.MQTT.Broker,
			Token:    cfg.MQTT.Token,
			ClientID: clientID,
		}, log)
		defer disconnect()
		messenger = m
	}

	restart := make(chan struct{}, 1)
	var downloader service.Downloader
	if cfg.OTA.URL != "" {
		downloader = ota.New(cfg.OTA.URL, cfg.OTA.Target)
	}

	svc := service.NewService(repos, service.Deps{
		Sensor:     board.Sensor,
		Display:    board.Display,
		Fan:        board.Fan,
		Humidifier: board.Humidifier,
		Button:     board.Button,
		Messenger:  messenger,
		Chat:       chat,
		Link:       link,
		Downloader: downloader,
		Restart: func() {
			select {
			case restart <- struct{}{}:
			default:
			}
		},
	}, service.Options{
		Version:           cfg.Device.Version,
		SampleEvery:       cfg.Control.SampleEvery,
		RefreshEvery:      cfg.Control.RefreshEvery,
		WakeDuration:      cfg.Control.WakeDuration,
		DefaultChat:       cfg.Telegram.DefaultChat,
		TelemetryTopic:    cfg.MQTT.Topic,
		UpdateTimeout:     cfg.OTA.Timeout,
		AdminPasswordHash: cfg.API.AdminPasswordHash,
		JWTSecret:         cfg.API.JWTSecret,
		TokenTTL:          cfg.API.TokenTTL,
	}, log)
	if !svc.Enabled() {
		log.Warnw("api.admin_password_hash not set; local API is unauthenticated")
	}

	svc.Chamber.Restore(ctx)
	svc.Chamber.Wake()

	// context for background goroutines
	bg, cancel := context.WithCancel(ctx)
	defer cancel()

	if prober != nil {
		go prober.Run(bg)
	}
	go svc.Scheduler.Run(bg, cfg.Control.Tick)
	go svc.Poller.Run(bg, cfg.Telegram.PollInterval)
	if svc.Updater != nil {
		go svc.Updater.Run(bg)
	}

	apiHandler := handlers.NewHandler(svc, log)
	srv := server.New(cfg.HTTP.Port, apiHandler.InitRoutes())
	go runHTTPServer(srv, log)

	notifyReady(log)
	go runWatchdog(bg, svc.Scheduler, cfg.Control.Tick, log)

	select {
	case <-ctx.Done():
		log.Infow("shutting down")
	case <-restart:
		log.Infow("restarting after firmware update")
	}

	notifyStopping()
	// stop background goroutines
	cancel()
	shutdownHTTP(srv, log)
	svc.Chamber.Sleep()
}

// runHTTPServer runs until the server is shut down.
func runHTTPServer(srv *server.Server, log *logger.Logger) {
	log.Infow("http_listening", "addr", srv.Addr())
	if err := srv.Run(); err != nil {
		log.Errorw("error starting server", "err", err)
	}
}

// shutdownHTTP allows in-flight requests to complete.
func shutdownHTTP(srv *server.Server, log *logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
