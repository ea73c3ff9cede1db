package relay

import (
	"context"
	"fmt"
	"log"
	"os"

	"label-relay/internal/chat"
	"label-relay/internal/models"
)

const actionLabeled = "labeled"

// Continuation is the next handler in the chain, invoked when the relay declines an event.
type Continuation func(ctx context.Context, event *models.LabelEvent) (models.Ack, error)

// Relay announces newly applied labels that match its Filter.
type Relay struct {
	Filter *Filter
	Sender chat.Sender
	Logger *log.Logger
}

func New(filter *Filter, sender chat.Sender) *Relay {
	return &Relay{
		Filter: filter,
		Sender: sender,
		Logger: log.New(os.Stderr, "relay: ", log.LstdFlags),
	}
}

// Handle relays an actionable event and acknowledges with the delivery outcome. Other
// events go to next and its result is returned unchanged. The only error Handle produces
// itself is models.ErrMissingTarget.
func (r *Relay) Handle(ctx context.Context, event *models.LabelEvent, next Continuation) (models.Ack, error) {
	if !r.IsActionable(event) {
		return next(ctx, event)
	}

	target, err := event.Target()
	if err != nil {
		return models.Ack{}, err
	}

	msg := BuildMessage(event, target)
	if err := r.Sender.SendMessage(ctx, msg); err != nil {
		r.Logger.Printf("Error sending label %q for %s %s: %v", event.Label.GetName(), target.Kind, msg.Username, err)
		return models.Ack{Success: false}, nil
	}

	return models.Ack{Success: true}, nil
}

func (r *Relay) IsActionable(event *models.LabelEvent) bool {
	if event == nil || event.Action != actionLabeled {
		return false
	}
	if event.Label == nil {
		return false
	}
	return r.Filter.Match(event.Label.GetName())
}

// BuildMessage renders the announcement for a label applied to target.
func BuildMessage(event *models.LabelEvent, target *models.Target) *models.ChatMessage {
	label := event.Label

	return &models.ChatMessage{
		Username: fmt.Sprintf("[%s] #%d", event.Repo.GetName(), target.Number),
		Attachments: []models.Attachment{
			{
				Color:     "#" + label.GetColor(),
				Title:     label.GetName(),
				Text:      fmt.Sprintf("%s by %s", target.Title, target.Author),
				TitleLink: target.HTMLURL,
				Fallback:  fmt.Sprintf("%s (%s) %s", target.Title, target.Author, label.GetName()),
			},
		},
	}
}
