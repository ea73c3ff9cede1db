package chat

import (
	"context"
	"fmt"

	"label-relay/internal/models"

	"github.com/PaulSonOfLars/gotgbot/v2"
)

// TelegramSender posts messages to one Telegram chat, optionally inside a forum topic.
type TelegramSender struct {
	Bot      *gotgbot.Bot
	ChatID   int64
	ThreadID int64
}

func NewTelegramSender(token string, chatID int64, opts *gotgbot.BotOpts) (*TelegramSender, error) {
	b, err := gotgbot.NewBot(token, opts)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramSender{Bot: b, ChatID: chatID}, nil
}

func (t *TelegramSender) SendMessage(ctx context.Context, msg *models.ChatMessage) error {
	text, markup := FormatTelegramMessage(msg)

	opts := &gotgbot.SendMessageOpts{
		ParseMode:       "MarkdownV2",
		MessageThreadId: t.ThreadID,
		LinkPreviewOptions: &gotgbot.LinkPreviewOptions{
			IsDisabled: true,
		},
	}
	if markup != nil {
		opts.ReplyMarkup = markup
	}

	if _, err := t.Bot.SendMessageWithContext(ctx, t.ChatID, text, opts); err != nil {
		return fmt.Errorf("telegram send to chat %d: %w", t.ChatID, err)
	}
	return nil
}

// FormatTelegramMessage renders msg as MarkdownV2 with a button to the first attachment link.
func FormatTelegramMessage(msg *models.ChatMessage) (string, *gotgbot.InlineKeyboardMarkup) {
	text := fmt.Sprintf("*%s*\n", EscapeMarkdownV2(msg.Username))

	var link string
	for _, a := range msg.Attachments {
		text += fmt.Sprintf("\n🏷️ *%s*", EscapeMarkdownV2(a.Title))
		if a.Color != "" && a.Color != "#" {
			text += fmt.Sprintf(" `%s`", EscapeMarkdownV2Code(a.Color))
		}
		text += "\n"
		if a.Text != "" {
			text += EscapeMarkdownV2(a.Text) + "\n"
		}
		if link == "" {
			link = a.TitleLink
		}
	}

	return FormatMessageWithButton(text, "View", link)
}
