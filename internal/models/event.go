package models

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/go-github/v80/github"
)

// ErrMissingTarget is returned when a label event carries neither a pull request nor an issue.
var ErrMissingTarget = errors.New("label event has neither pull_request nor issue")

const (
	TargetPullRequest = "pull_request"
	TargetIssue       = "issue"
)

// LabelEvent is the subset of a GitHub "issues" or "pull_request" webhook payload the relay reads.
type LabelEvent struct {
	Action      string              `json:"action"`
	Label       *github.Label       `json:"label,omitempty"`
	Repo        *github.Repository  `json:"repository,omitempty"`
	PullRequest *github.PullRequest `json:"pull_request,omitempty"`
	Issue       *github.Issue       `json:"issue,omitempty"`
}

// Target is the pull request or issue a label was applied to
type Target struct {
	Kind    string
	Title   string
	Number  int
	HTMLURL string
	Author  string
}

func ParseLabelEvent(payload []byte) (*LabelEvent, error) {
	var event LabelEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("decode label event: %w", err)
	}
	return &event, nil
}

// Target returns the pull request when present, otherwise the issue.
func (e *LabelEvent) Target() (*Target, error) {
	if pr := e.PullRequest; pr != nil {
		return &Target{
			Kind:    TargetPullRequest,
			Title:   pr.GetTitle(),
			Number:  pr.GetNumber(),
			HTMLURL: pr.GetHTMLURL(),
			Author:  pr.GetUser().GetLogin(),
		}, nil
	}

	if issue := e.Issue; issue != nil {
		return &Target{
			Kind:    TargetIssue,
			Title:   issue.GetTitle(),
			Number:  issue.GetNumber(),
			HTMLURL: issue.GetHTMLURL(),
			Author:  issue.GetUser().GetLogin(),
		}, nil
	}

	return nil, ErrMissingTarget
}
