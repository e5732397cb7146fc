package actions

import (
	"context"
	"html/template"
	"log/slog"
	"time"

	"github.com/gi8lino/jiraactions/internal/dialog"
	"github.com/gi8lino/jiraactions/internal/gateway"
	"github.com/gi8lino/jiraactions/internal/jira"
	"github.com/gi8lino/jiraactions/internal/render"
)

// DefaultDismissDelay is how long a success dialog stays open.
const DefaultDismissDelay = 3 * time.Second

// Service is one user-facing capability driven through a dialog.
type Service interface {
	ID() string
	Action(ctx context.Context, ev Event) error
	Open(ctx context.Context, ev Event) error
	Submit(ctx context.Context, ev Event) error
	Close(ctx context.Context) error
}

// Tracker is the part of the JIRA client the services call.
type Tracker interface {
	SearchAssignableUsers(ctx context.Context, cred jira.Credentials, issueKey, username string) ([]jira.User, error)
	AssignIssue(ctx context.Context, cred jira.Credentials, issueKey, username string) error
	CommentIssue(ctx context.Context, cred jira.Credentials, issueKey, comment string) (jira.Comment, error)
	GetIssue(ctx context.Context, cred jira.Credentials, issueKey string) (jira.Issue, error)
}

// Deps are the collaborators of the services of one conversation.
type Deps struct {
	Host         dialog.Host
	Authorizer   gateway.Authorizer
	Tracker      Tracker
	Renderer     *render.Renderer
	Logger       *slog.Logger
	DismissDelay time.Duration
}

// variant is what differs between the services sharing a flow.
type variant interface {
	// body renders the editable dialog content.
	body(issue IssueContext, disabled bool) (template.HTML, error)
	// bindings returns the host action data of the editable dialog.
	bindings(entity IssueContext) map[string]any
	// reset drops pending input on a fresh open.
	reset()
	// closed is called when the user closes the dialog.
	closed()
	// capture validates pending input. A non-empty message rejects it.
	capture() (submission, string)
}

// submission is one validated remote mutation.
type submission struct {
	run      func(ctx context.Context, cred jira.Credentials, issueKey string) error
	success  func(issueKey string) (template.HTML, error)
	username string // shown when the tracker answers 401
	done     func()
	rejected func()
}
