// Package telegram adapts the Telegram Bot API to the chat transport used
// by the command processor.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"chamberctl/internal/models"
	"chamberctl/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const defaultPollTimeout = 5 * time.Second

// Client long-polls getUpdates. The bot handle is created on first use so
// an offline boot does not fail.
type Client struct {
	token    string
	endpoint string
	timeout  time.Duration
	http     *http.Client

	mu  sync.Mutex
	bot *tgbotapi.BotAPI
}

// New returns a client for token. endpoint may be empty for the public API.
func New(token, endpoint string, pollTimeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if pollTimeout <= 0 {
		pollTimeout = defaultPollTimeout
	}
	return &Client{
		token:    token,
		endpoint: endpoint,
		timeout:  pollTimeout,
		// the server holds the request for up to pollTimeout
		http: &http.Client{Timeout: pollTimeout + 5*time.Second},
	}
}

func (c *Client) api() (*tgbotapi.BotAPI, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bot != nil {
		return c.bot, nil
	}
	bot, err := tgbotapi.NewBotAPIWithClient(c.token, c.endpoint, c.http)
	if err != nil {
		return nil, fmt.Errorf("%w: connect bot: %v", service.ErrTransport, err)
	}
	c.bot = bot
	return bot, nil
}

// Poll returns updates with id > afterID. Updates that carry no message
// come back with an empty channel so the caller can still advance past them.
func (c *Client) Poll(ctx context.Context, afterID int64) ([]models.Update, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bot, err := c.api()
	if err != nil {
		return nil, err
	}

	cfg := tgbotapi.NewUpdate(int(afterID + 1))
	cfg.Timeout = int(c.timeout / time.Second)
	raw, err := bot.GetUpdates(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: getUpdates: %v", service.ErrTransport, err)
	}

	out := make([]models.Update, 0, len(raw))
	for _, u := range raw {
		upd := models.Update{ID: int64(u.UpdateID)}
		if u.Message != nil && u.Message.Chat != nil {
			upd.Channel = strconv.FormatInt(u.Message.Chat.ID, 10)
			upd.Text = u.Message.Text
		}
		out = append(out, upd)
	}
	return out, nil
}

// Send posts text to the chat identified by channel.
func (c *Client) Send(ctx context.Context, channel, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	chatID, err := strconv.ParseInt(channel, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", channel, err)
	}
	bot, err := c.api()
	if err != nil {
		return err
	}
	if _, err := bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("%w: sendMessage: %v", service.ErrTransport, err)
	}
	return nil
}
