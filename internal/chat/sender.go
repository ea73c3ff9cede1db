package chat

import (
	"context"
	"errors"
	"time"

	"label-relay/internal/config"
	"label-relay/internal/models"
)

// Sender delivers one chat message. A nil error means the platform accepted it.
type Sender interface {
	SendMessage(ctx context.Context, msg *models.ChatMessage) error
}

// Fanout delivers to every sender once and fails if any of them fails.
type Fanout []Sender

func (f Fanout) SendMessage(ctx context.Context, msg *models.ChatMessage) error {
	var errs []error
	for _, s := range f {
		if err := s.SendMessage(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type timeoutSender struct {
	Sender
	timeout time.Duration
}

// WithTimeout bounds each delivery by d. A non-positive d returns s unchanged.
func WithTimeout(s Sender, d time.Duration) Sender {
	if d <= 0 {
		return s
	}
	return &timeoutSender{Sender: s, timeout: d}
}

func (t *timeoutSender) SendMessage(ctx context.Context, msg *models.ChatMessage) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.Sender.SendMessage(ctx, msg)
}

// FromConfig builds the Slack and/or Telegram senders the configuration enables.
func FromConfig(cfg *config.Config) (Sender, error) {
	var senders Fanout

	if cfg.SlackWebhookURL != "" {
		s := NewSlackSender(cfg.SlackWebhookURL)
		s.Channel = cfg.SlackChannel
		s.IconEmoji = cfg.SlackIconEmoji
		senders = append(senders, s)
	}

	if cfg.TelegramToken != "" {
		t, err := NewTelegramSender(cfg.TelegramToken, cfg.TelegramChatID, nil)
		if err != nil {
			return nil, err
		}
		t.ThreadID = cfg.TelegramThreadID
		senders = append(senders, t)
	}

	switch len(senders) {
	case 0:
		return nil, errors.New("no chat backend configured")
	case 1:
		return WithTimeout(senders[0], cfg.SendTimeout), nil
	default:
		return WithTimeout(senders, cfg.SendTimeout), nil
	}
}
