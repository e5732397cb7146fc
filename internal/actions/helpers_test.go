package actions

import (
	"context"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gi8lino/jiraactions/internal/gateway"
	"github.com/gi8lino/jiraactions/internal/jira"
	"github.com/gi8lino/jiraactions/internal/render"
	"github.com/gi8lino/jiraactions/internal/templates"
	"github.com/gi8lino/jiraactions/internal/testutils"
	"github.com/stretchr/testify/require"
)

var testEntity = IssueContext{
	BaseURL: "https://jira.example.com",
	Issue: Issue{
		Key:      "JIRA-1",
		Subject:  "Broken build",
		Assignee: &Assignee{DisplayName: "Bob"},
	},
}

// fakeTracker records calls. When gate is set, search and comment block until it is closed.
type fakeTracker struct {
	mu         sync.Mutex
	users      []jira.User
	issue      *jira.Issue
	getErr     error
	searchErr  error
	assignErr  error
	commentErr error
	assignedTo string
	commented  string
	creds      []jira.Credentials

	gate    chan struct{}
	entered chan struct{}

	gets     atomic.Int32
	searches atomic.Int32
	assigns  atomic.Int32
	comments atomic.Int32
}

func (f *fakeTracker) wait(ctx context.Context) error {
	if f.gate == nil {
		return nil
	}
	select {
	case f.entered <- struct{}{}:
	default:
	}
	select {
	case <-f.gate:
		return nil
	case <-ctx.Done():
		return &jira.StatusError{Err: ctx.Err()}
	}
}

func (f *fakeTracker) record(cred jira.Credentials) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creds = append(f.creds, cred)
}

func (f *fakeTracker) SearchAssignableUsers(ctx context.Context, cred jira.Credentials, _, _ string) ([]jira.User, error) {
	f.searches.Add(1)
	f.record(cred)
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.users, f.searchErr
}

func (f *fakeTracker) AssignIssue(_ context.Context, cred jira.Credentials, _, username string) error {
	f.assigns.Add(1)
	f.record(cred)
	f.mu.Lock()
	f.assignedTo = username
	f.mu.Unlock()
	return f.assignErr
}

func (f *fakeTracker) CommentIssue(ctx context.Context, cred jira.Credentials, _, comment string) (jira.Comment, error) {
	f.comments.Add(1)
	f.record(cred)
	if err := f.wait(ctx); err != nil {
		return jira.Comment{}, err
	}
	if f.commentErr != nil {
		return jira.Comment{}, f.commentErr
	}
	f.mu.Lock()
	f.commented = comment
	f.mu.Unlock()
	return jira.Comment{ID: "10000", Body: comment}, nil
}

func (f *fakeTracker) GetIssue(_ context.Context, _ jira.Credentials, issueKey string) (jira.Issue, error) {
	f.gets.Add(1)
	if f.getErr != nil {
		return jira.Issue{}, f.getErr
	}
	if f.issue == nil {
		return jira.Issue{}, &jira.StatusError{Code: 500, Body: "no snapshot"}
	}
	return *f.issue, nil
}

// countingAuth issues a session for every base URL and counts calls.
type countingAuth struct {
	calls atomic.Int32
	err   error
	exp   time.Time
}

func (a *countingAuth) Authorize(_ context.Context, baseURL string) (gateway.Session, error) {
	a.calls.Add(1)
	if a.err != nil {
		return gateway.Session{}, a.err
	}
	return gateway.Session{JWT: "user-token", BaseURL: baseURL, ExpiresAt: a.exp}, nil
}

func newTestRenderer(t *testing.T) *render.Renderer {
	t.Helper()

	tmpl, err := templates.ParseDialogTemplates(os.DirFS("../../"), "web/templates", templates.TemplateFuncMap())
	require.NoError(t, err)
	return render.NewRenderer(tmpl)
}

func newTestDeps(t *testing.T, tr *fakeTracker, auth gateway.Authorizer) (Deps, *testutils.DialogHost) {
	t.Helper()

	host := testutils.NewDialogHost()
	return Deps{
		Host:         host,
		Authorizer:   auth,
		Tracker:      tr,
		Renderer:     newTestRenderer(t),
		Logger:       testutils.DiscardLogger(),
		DismissDelay: time.Hour,
	}, host
}

func event(service, typ string) Event {
	return Event{Service: service, Type: typ, Entity: testEntity}
}

func lastTemplate(t *testing.T, host *testutils.DialogHost) string {
	t.Helper()

	last, ok := host.LastShow()
	require.True(t, ok, "no dialog shown")
	return last.Payload.Template
}

func containsFooter(markup string) bool {
	return strings.Contains(markup, "<footer>")
}
