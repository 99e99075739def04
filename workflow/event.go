package workflow

import (
	"os"
	"strings"
)

// Event names a workflow can react to. Manual invocations use
// EventManual, which never matches a trigger and is gated by the caller
// instead.
const (
	EventPush        = "push"
	EventPullRequest = "pull_request"
	EventSchedule    = "schedule"
	EventManual      = "workflow_dispatch"
)

// Event is the occurrence a run is evaluated against.
type Event struct {
	Name    string
	Ref     string // refs/heads/<branch> for push events
	BaseRef string // target branch for pull_request events
}

// EventFromEnv resolves the current event from the variables GitHub
// Actions sets on every run. Outside Actions all three are empty and the
// event is a manual invocation.
func EventFromEnv() Event {
	name := os.Getenv("GITHUB_EVENT_NAME")
	if name == "" {
		name = EventManual
	}
	return Event{
		Name:    name,
		Ref:     os.Getenv("GITHUB_REF"),
		BaseRef: os.Getenv("GITHUB_BASE_REF"),
	}
}

// Branch returns the branch the event refers to: the pushed branch for
// push events, the target branch for pull requests.
func (e Event) Branch() string {
	ref := e.Ref
	if e.Name == EventPullRequest {
		ref = e.BaseRef
	}
	return strings.TrimPrefix(ref, "refs/heads/")
}

// Matches reports whether the event fires this workflow. Only the three
// declared trigger types can match; everything else is rejected.
func (d *Definition) Matches(e Event) bool {
	switch e.Name {
	case EventPush:
		return d.On.Push != nil && d.On.Push.matches(e.Branch())
	case EventPullRequest:
		return d.On.PullRequest != nil && d.On.PullRequest.matches(e.Branch())
	case EventSchedule:
		return len(d.On.Schedule) > 0
	default:
		return false
	}
}
