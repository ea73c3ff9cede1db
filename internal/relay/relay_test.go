package relay

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"label-relay/internal/models"

	"github.com/google/go-github/v80/github"
)

type fakeSender struct {
	sent []*models.ChatMessage
	err  error
}

func (f *fakeSender) SendMessage(ctx context.Context, msg *models.ChatMessage) error {
	f.sent = append(f.sent, msg)
	return f.err
}

func newTestRelay(pattern string, sender *fakeSender) *Relay {
	r := New(NewFilter(pattern), sender)
	r.Logger = log.New(io.Discard, "", 0)
	return r
}

func labeledPullRequest() *models.LabelEvent {
	return &models.LabelEvent{
		Action: "labeled",
		Label:  &github.Label{Name: github.Ptr("bug"), Color: github.Ptr("ff0000")},
		Repo:   &github.Repository{Name: github.Ptr("repo1")},
		PullRequest: &github.PullRequest{
			Title:   github.Ptr("Fix crash"),
			Number:  github.Ptr(42),
			HTMLURL: github.Ptr("http://x/42"),
			User:    &github.User{Login: github.Ptr("alice")},
		},
	}
}

// nextRecorder returns a continuation that counts calls and answers with ack.
func nextRecorder(calls *int, ack models.Ack) Continuation {
	return func(ctx context.Context, event *models.LabelEvent) (models.Ack, error) {
		*calls++
		return ack, nil
	}
}

func TestHandleDelegates(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		mutate  func(e *models.LabelEvent)
	}{
		{
			name:    "Unlabeled action",
			pattern: "bug",
			mutate:  func(e *models.LabelEvent) { e.Action = "unlabeled" },
		},
		{
			name:    "Opened action",
			pattern: "bug",
			mutate:  func(e *models.LabelEvent) { e.Action = "opened" },
		},
		{
			name:    "Label not matching",
			pattern: "^security$",
			mutate:  func(e *models.LabelEvent) {},
		},
		{
			name:    "Malformed pattern",
			pattern: "(bug",
			mutate:  func(e *models.LabelEvent) {},
		},
		{
			name:    "No label",
			pattern: ".*",
			mutate:  func(e *models.LabelEvent) { e.Label = nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeSender{}
			r := newTestRelay(tt.pattern, sender)
			event := labeledPullRequest()
			tt.mutate(event)

			var calls int
			want := models.Ack{Success: true, Delegated: true}
			got, err := r.Handle(context.Background(), event, nextRecorder(&calls, want))
			if err != nil {
				t.Fatalf("Handle() error = %v", err)
			}
			if got != want {
				t.Errorf("Handle() = %+v, want continuation result %+v", got, want)
			}
			if calls != 1 {
				t.Errorf("continuation called %d times, want 1", calls)
			}
			if len(sender.sent) != 0 {
				t.Errorf("sender called %d times, want 0", len(sender.sent))
			}
		})
	}
}

func TestHandleReturnsContinuationError(t *testing.T) {
	errNext := errors.New("next failed")
	r := newTestRelay("bug", &fakeSender{})
	event := labeledPullRequest()
	event.Action = "closed"

	_, err := r.Handle(context.Background(), event, func(ctx context.Context, e *models.LabelEvent) (models.Ack, error) {
		return models.Ack{}, errNext
	})
	if !errors.Is(err, errNext) {
		t.Errorf("Handle() error = %v, want %v", err, errNext)
	}
}

func TestHandleRelaysPullRequest(t *testing.T) {
	sender := &fakeSender{}
	r := newTestRelay("bug", sender)

	var calls int
	ack, err := r.Handle(context.Background(), labeledPullRequest(), nextRecorder(&calls, models.Ack{}))
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if !ack.Success || ack.Delegated {
		t.Errorf("Handle() = %+v, want success", ack)
	}
	if calls != 0 {
		t.Errorf("continuation called %d times, want 0", calls)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sender called %d times, want 1", len(sender.sent))
	}

	msg := sender.sent[0]
	if msg.Username != "[repo1] #42" {
		t.Errorf("Username = %q", msg.Username)
	}
	want := models.Attachment{
		Color:     "#ff0000",
		Title:     "bug",
		Text:      "Fix crash by alice",
		TitleLink: "http://x/42",
		Fallback:  "Fix crash (alice) bug",
	}
	if len(msg.Attachments) != 1 || msg.Attachments[0] != want {
		t.Errorf("Attachments = %+v, want [%+v]", msg.Attachments, want)
	}
}

func TestHandleRelaysIssue(t *testing.T) {
	sender := &fakeSender{}
	r := newTestRelay("/^BUG$/i", sender)

	event := labeledPullRequest()
	event.PullRequest = nil
	event.Issue = &github.Issue{
		Title:   github.Ptr("Crash on start"),
		Number:  github.Ptr(7),
		HTMLURL: github.Ptr("http://x/7"),
		User:    &github.User{Login: github.Ptr("bob")},
	}

	ack, err := r.Handle(context.Background(), event, nextRecorder(new(int), models.Ack{}))
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if !ack.Success {
		t.Errorf("Handle() = %+v, want success", ack)
	}

	msg := sender.sent[0]
	if msg.Username != "[repo1] #7" {
		t.Errorf("Username = %q", msg.Username)
	}
	if got := msg.Attachments[0].Text; got != "Crash on start by bob" {
		t.Errorf("Text = %q", got)
	}
	if got := msg.Attachments[0].TitleLink; got != "http://x/7" {
		t.Errorf("TitleLink = %q", got)
	}
}

func TestHandlePrefersPullRequest(t *testing.T) {
	sender := &fakeSender{}
	r := newTestRelay("bug", sender)

	event := labeledPullRequest()
	event.Issue = &github.Issue{Title: github.Ptr("Other"), Number: github.Ptr(1)}

	if _, err := r.Handle(context.Background(), event, nextRecorder(new(int), models.Ack{})); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if got := sender.sent[0].Username; got != "[repo1] #42" {
		t.Errorf("Username = %q, want pull request number", got)
	}
}

func TestHandleDeliveryFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("channel_not_found")}
	r := newTestRelay("bug", sender)
	var logs bytes.Buffer
	r.Logger = log.New(&logs, "", 0)

	ack, err := r.Handle(context.Background(), labeledPullRequest(), nextRecorder(new(int), models.Ack{}))
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if ack.Success {
		t.Error("Handle() success = true after failed delivery")
	}
	if len(sender.sent) != 1 {
		t.Errorf("sender called %d times, want exactly 1", len(sender.sent))
	}

	want := `Error sending label "bug" for pull_request [repo1] #42: channel_not_found`
	if !strings.Contains(logs.String(), want) {
		t.Errorf("log = %q, want it to contain %q", logs.String(), want)
	}
}

func TestHandleMissingTarget(t *testing.T) {
	sender := &fakeSender{}
	r := newTestRelay("bug", sender)

	event := labeledPullRequest()
	event.PullRequest = nil

	_, err := r.Handle(context.Background(), event, nextRecorder(new(int), models.Ack{}))
	if !errors.Is(err, models.ErrMissingTarget) {
		t.Errorf("Handle() error = %v, want %v", err, models.ErrMissingTarget)
	}
	if len(sender.sent) != 0 {
		t.Errorf("sender called %d times, want 0", len(sender.sent))
	}
}

func TestBuildMessageKeepsColorVerbatim(t *testing.T) {
	for _, color := range []string{"zzz", "", "FF00FF00"} {
		event := labeledPullRequest()
		event.Label.Color = github.Ptr(color)
		target, err := event.Target()
		if err != nil {
			t.Fatal(err)
		}

		msg := BuildMessage(event, target)
		if got := msg.Attachments[0].Color; got != "#"+color {
			t.Errorf("Color = %q, want %q", got, "#"+color)
		}
	}
}
