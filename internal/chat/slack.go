package chat

import (
	"context"
	"fmt"
	"net/http"

	"label-relay/internal/models"

	"github.com/slack-go/slack"
)

// SlackSender posts messages to a Slack incoming webhook.
type SlackSender struct {
	WebhookURL string
	Channel    string
	IconEmoji  string
	Client     *http.Client
}

func NewSlackSender(webhookURL string) *SlackSender {
	return &SlackSender{
		WebhookURL: webhookURL,
		Client:     &http.Client{},
	}
}

func (s *SlackSender) SendMessage(ctx context.Context, msg *models.ChatMessage) error {
	if err := slack.PostWebhookCustomHTTPContext(ctx, s.WebhookURL, s.Client, s.webhookMessage(msg)); err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	return nil
}

func (s *SlackSender) webhookMessage(msg *models.ChatMessage) *slack.WebhookMessage {
	channel := msg.Channel
	if channel == "" {
		channel = s.Channel
	}

	attachments := make([]slack.Attachment, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		attachments = append(attachments, slack.Attachment{
			Color:     a.Color,
			Title:     a.Title,
			Text:      a.Text,
			TitleLink: a.TitleLink,
			Fallback:  a.Fallback,
		})
	}

	return &slack.WebhookMessage{
		Username:    msg.Username,
		Channel:     channel,
		IconEmoji:   s.IconEmoji,
		Attachments: attachments,
	}
}
