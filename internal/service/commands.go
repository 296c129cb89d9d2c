package service

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"chamberctl/internal/logger"
	"chamberctl/internal/metrics"
	"chamberctl/internal/models"

	"github.com/dustin/go-humanize"
)

// DefaultPollInterval is the command poll cadence.
const DefaultPollInterval = 4 * time.Second

// saveTimeout bounds the synchronous save after a state-changing command.
const saveTimeout = 5 * time.Second

const helpText = `Commands:
/status - current state
/germination, /fruiting - select phase (automatic)
/auto, /manual - select mode
/fan_on, /fan_off - drive the fan (manual)
/humidifier_on, /humidifier_off - drive the humidifier (manual)
/update - install the latest firmware`

// aliases maps alternative spellings onto canonical command names.
var aliases = map[string]string{
	"/germinacion":            "/germination",
	"/fructificacion":         "/fruiting",
	"/encender_ventilador":    "/fan_on",
	"/apagar_ventilador":      "/fan_off",
	"/encender_humidificador": "/humidifier_on",
	"/apagar_humidificador":   "/humidifier_off",
	"/actualizar":             "/update",
	"/start":                  "/help",
}

// mutation is a state-changing command. All of them are persisted before
// the reply goes out.
type mutation struct {
	apply func(*models.OperatingState)
	reply func(models.OperatingState) string
}

var mutations = map[string]mutation{
	"/germination": {
		apply: func(s *models.OperatingState) { s.Phase, s.Mode = models.PhaseGermination, models.ModeAutomatic },
		reply: phaseReply,
	},
	"/fruiting": {
		apply: func(s *models.OperatingState) { s.Phase, s.Mode = models.PhaseFruiting, models.ModeAutomatic },
		reply: phaseReply,
	},
	"/auto": {
		apply: func(s *models.OperatingState) { s.Mode = models.ModeAutomatic },
		reply: func(models.OperatingState) string { return "Automatic mode enabled." },
	},
	"/manual": {
		apply: func(s *models.OperatingState) { s.Mode = models.ModeManual },
		reply: func(models.OperatingState) string { return "Manual mode enabled." },
	},
	"/fan_on": {
		apply: func(s *models.OperatingState) { s.Mode, s.Fan = models.ModeManual, true },
		reply: fanReply,
	},
	"/fan_off": {
		apply: func(s *models.OperatingState) { s.Mode, s.Fan = models.ModeManual, false },
		reply: fanReply,
	},
	"/humidifier_on": {
		apply: func(s *models.OperatingState) { s.Mode, s.Humidifier = models.ModeManual, true },
		reply: humidifierReply,
	},
	"/humidifier_off": {
		apply: func(s *models.OperatingState) { s.Mode, s.Humidifier = models.ModeManual, false },
		reply: humidifierReply,
	},
}

func phaseReply(s models.OperatingState) string {
	return fmt.Sprintf("Phase set to %s (automatic mode).", s.Phase)
}

func fanReply(s models.OperatingState) string {
	return fmt.Sprintf("Fan %s (manual mode).", onOff(s.Fan))
}

func humidifierReply(s models.OperatingState) string {
	return fmt.Sprintf("Humidifier %s (manual mode).", onOff(s.Humidifier))
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

// CommandOptions configures the command processor.
type CommandOptions struct {
	// DefaultChat receives the one-shot startup announcement. Empty disables it.
	DefaultChat string
	Version     string
}

// CommandProcessor is the only consumer of the chat transport. It tracks
// the update offset in memory; after a restart already handled updates may
// be delivered again and every command is safe to repeat.
type CommandProcessor struct {
	chamber *Chamber
	chat    ChatTransport
	link    Link
	updates UpdateTrigger
	opts    CommandOptions
	log     *logger.Logger

	offset    atomic.Int64
	announced atomic.Bool
}

func NewCommandProcessor(chamber *Chamber, chat ChatTransport, link Link, updates UpdateTrigger, opts CommandOptions, log *logger.Logger) *CommandProcessor {
	if log == nil {
		log = logger.Nop()
	}
	return &CommandProcessor{
		chamber: chamber,
		chat:    chat,
		link:    link,
		updates: updates,
		opts:    opts,
		log:     log,
	}
}

// Offset is the id of the last update seen.
func (p *CommandProcessor) Offset() int64 { return p.offset.Load() }

// Run polls every interval until ctx is canceled.
func (p *CommandProcessor) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.Cycle(ctx)
		}
	}
}

// Cycle runs one poll: announce once, fetch updates after the offset and
// handle them in order. Transport errors mean no updates this cycle.
func (p *CommandProcessor) Cycle(ctx context.Context) {
	if p.chat == nil || (p.link != nil && !p.link.Connected()) {
		return
	}
	p.announce(ctx)

	updates, err := p.chat.Poll(ctx, p.offset.Load())
	if err != nil {
		p.log.Warnw("command_poll_failed", "offset", p.offset.Load(), "error", err)
		return
	}
	for _, u := range updates {
		p.Handle(ctx, u)
	}
}

// Handle processes one update. The offset advances before the command is
// looked at, so unparsable text is never fetched again. Updates at or below
// the offset were already handled this session and are skipped.
func (p *CommandProcessor) Handle(ctx context.Context, u models.Update) {
	if !p.advance(u.ID) {
		p.log.Debugw("command_replay_skipped", "update_id", u.ID, "offset", p.offset.Load())
		return
	}
	if u.Channel == "" {
		p.log.Debugw("command_dropped_no_channel", "update_id", u.ID)
		return
	}

	reply, err := p.Execute(ctx, u.Text)
	if err != nil {
		p.log.Infow("command_rejected", "update_id", u.ID, "channel", u.Channel, "text", u.Text, "error", err)
	} else {
		p.log.Infow("command_handled", "update_id", u.ID, "channel", u.Channel, "text", strings.TrimSpace(u.Text))
	}
	if err := p.chat.Send(ctx, u.Channel, reply); err != nil {
		p.log.Warnw("command_reply_failed", "channel", u.Channel, "error", err)
	}
}

// Execute runs a command and returns the reply text. Unknown text returns
// ErrUnknownCommand together with a reply for the operator.
func (p *CommandProcessor) Execute(ctx context.Context, text string) (string, error) {
	name := strings.TrimSpace(text)
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}

	switch name {
	case "/status":
		p.count(name)
		p.chamber.Wake()
		return p.status(), nil
	case "/help":
		p.count(name)
		p.chamber.Wake()
		return helpText, nil
	case "/update":
		p.count(name)
		p.chamber.Wake()
		return p.triggerUpdate(), nil
	}

	m, ok := mutations[name]
	if !ok {
		p.count("unknown")
		return "Unknown command.", fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	p.count(name)
	st := p.chamber.Mutate(m.apply)
	p.chamber.Wake()
	// the state already changed, so the save outlives a caller that hung up
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()
	// the failure is logged by Persist; the in-memory state stays authoritative
	_ = p.chamber.Persist(saveCtx)
	return m.reply(st), nil
}

func (p *CommandProcessor) status() string {
	snap := p.chamber.Snapshot()
	ph := snap.Phase

	var b strings.Builder
	fmt.Fprintf(&b, "Mode: %s\n", snap.State.Mode)
	fmt.Fprintf(&b, "Phase: %s\n", ph.Name)
	fmt.Fprintf(&b, "Limits T: %.1f-%.1f C\n", ph.TempMin, ph.TempMax)
	fmt.Fprintf(&b, "Limits H: %.1f-%.1f %%\n", ph.HumMin, ph.HumMax)
	fmt.Fprintf(&b, "Fan: %s\n", onOff(snap.State.Fan))
	fmt.Fprintf(&b, "Humidifier: %s\n", onOff(snap.State.Humidifier))
	if m := snap.Measurement; m != nil {
		fmt.Fprintf(&b, "Last reading: T %.1fC H %.0f%% P %.0f hPa (%s)",
			m.TemperatureC, m.HumidityPct, m.PressureHPa, humanize.Time(m.TakenAt))
	} else {
		b.WriteString("Last reading: none yet")
	}
	return b.String()
}

func (p *CommandProcessor) triggerUpdate() string {
	if p.updates == nil {
		return "Firmware update is not configured."
	}
	if !p.updates.Trigger() {
		return "Firmware update already in progress."
	}
	return "Firmware update started."
}

// announce sends the startup message once, the first time the link is up.
// Delivery is best effort.
func (p *CommandProcessor) announce(ctx context.Context) {
	if p.opts.DefaultChat == "" || !p.announced.CompareAndSwap(false, true) {
		return
	}
	st := p.chamber.State()
	msg := fmt.Sprintf("System online %s.\n%s | %s", p.opts.Version, st.Phase, st.Mode)
	if err := p.chat.Send(ctx, p.opts.DefaultChat, msg); err != nil {
		p.log.Warnw("startup_announcement_failed", "channel", p.opts.DefaultChat, "error", err)
		return
	}
	p.log.Infow("startup_announced", "channel", p.opts.DefaultChat, "version", p.opts.Version)
}

// advance moves the offset up to id and reports whether it moved.
func (p *CommandProcessor) advance(id int64) bool {
	for {
		cur := p.offset.Load()
		if id <= cur {
			return false
		}
		if p.offset.CompareAndSwap(cur, id) {
			return true
		}
	}
}

func (p *CommandProcessor) count(name string) {
	metrics.Commands.WithLabelValues(strings.TrimPrefix(name, "/")).Inc()
}
