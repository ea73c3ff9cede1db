package chat

import (
	"strings"

	"github.com/PaulSonOfLars/gotgbot/v2"
)

var (
	markdownV2Replacer = strings.NewReplacer(
		`\`, `\\`,
		"_", `\_`, "*", `\*`, "[", `\[`, "]", `\]`, "(", `\(`, ")", `\)`,
		"~", `\~`, "`", "\\`", ">", `\>`, "#", `\#`, "+", `\+`, "-", `\-`,
		"=", `\=`, "|", `\|`, "{", `\{`, "}", `\}`, ".", `\.`, "!", `\!`,
	)
	markdownV2URLReplacer  = strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)
	markdownV2CodeReplacer = strings.NewReplacer(`\`, `\\`, "`", "\\`")
)

// EscapeMarkdownV2 escapes every character Telegram reserves in MarkdownV2 text.
func EscapeMarkdownV2(s string) string {
	return markdownV2Replacer.Replace(s)
}

// EscapeMarkdownV2URL escapes the inside of a (...) link target.
func EscapeMarkdownV2URL(s string) string {
	return markdownV2URLReplacer.Replace(s)
}

// EscapeMarkdownV2Code escapes the inside of a `code` span.
func EscapeMarkdownV2Code(s string) string {
	return markdownV2CodeReplacer.Replace(s)
}

// FormatMessageWithButton attaches a single URL button; no button when url is empty.
func FormatMessageWithButton(msg, text, url string) (string, *gotgbot.InlineKeyboardMarkup) {
	if url == "" {
		return msg, nil
	}
	return msg, &gotgbot.InlineKeyboardMarkup{
		InlineKeyboard: [][]gotgbot.InlineKeyboardButton{
			{{Text: text, Url: url}},
		},
	}
}
