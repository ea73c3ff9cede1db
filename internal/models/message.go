package models

// ChatMessage is a chat-platform-neutral message with Slack-style attachments
type ChatMessage struct {
	Username    string
	Channel     string
	Attachments []Attachment
}

type Attachment struct {
	Color     string
	Title     string
	Text      string
	TitleLink string
	Fallback  string
}

// Ack is the relay's answer for one webhook delivery.
type Ack struct {
	Success bool `json:"ok"`

	// Delegated is set when a continuation produced the result and already answered the request.
	Delegated bool `json:"-"`
}
