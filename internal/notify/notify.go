// Package notify delivers maintenance alerts to a driver's Telegram chat.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/nicholas-fedor/shoutrrr"
	"github.com/sirupsen/logrus"
)

// ErrNoChannel is returned when the recipient has no linked chat.
var ErrNoChannel = errors.New("notify: no channel")

// ErrNotConfigured is returned when no bot token is set.
var ErrNotConfigured = errors.New("notify: telegram bot token not configured")

// Sender abstracts message dispatch so the notifier can be tested
// without hitting real services.
type Sender interface {
	Send(serviceURL, message string) error
}

// ShoutrrrSender dispatches via the Shoutrrr library.
type ShoutrrrSender struct{}

func (ShoutrrrSender) Send(serviceURL, message string) error {
	return shoutrrr.Send(serviceURL, message)
}

// TelegramURL builds the shoutrrr service URL for a bot token and chat.
func TelegramURL(token, chatID string) string {
	q := url.Values{}
	q.Set("chats", chatID)
	return fmt.Sprintf("telegram://%s@telegram?%s", token, q.Encode())
}

// Telegram sends alerts through a Telegram bot.
type Telegram struct {
	token   string
	timeout time.Duration
	sender  Sender
	log     logrus.FieldLogger
}

// NewTelegram creates a notifier. A nil sender uses ShoutrrrSender; a
// non-positive timeout defaults to 5s.
func NewTelegram(token string, timeout time.Duration, sender Sender, log logrus.FieldLogger) *Telegram {
	if sender == nil {
		sender = ShoutrrrSender{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Telegram{token: strings.TrimSpace(token), timeout: timeout, sender: sender, log: log}
}

// Send delivers text to channel. shoutrrr has no context support, so the
// call runs in its own goroutine and is abandoned once the timeout or ctx
// expires.
func (t *Telegram) Send(ctx context.Context, channel, text string) error {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return ErrNoChannel
	}
	if t.token == "" {
		return ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- t.sender.Send(TelegramURL(t.token, channel), text)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("telegram send: %w", err)
		}
		t.log.WithField("chat_id", channel).Debug("telegram message delivered")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("telegram send: %w", ctx.Err())
	}
}
