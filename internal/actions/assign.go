package actions

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	"sync"

	"github.com/gi8lino/jiraactions/internal/jira"
)

const (
	// ServiceAssign routes events to the AssignService.
	ServiceAssign = "assignUserService"

	assignDialogID = "assignIssue"
)

// AssignService assigns the issue to the user picked in its dialog.
type AssignService struct {
	*flow

	mu       sync.Mutex
	selected SelectedUser
}

// NewAssignService returns an idle AssignService.
func NewAssignService(deps Deps) *AssignService {
	s := &AssignService{}
	s.flow = newFlow(deps, ServiceAssign, assignDialogID, "Assign issue")
	s.flow.v = s
	return s
}

// Selected records the user picked in the person selector.
func (s *AssignService) Selected(user SelectedUser) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selected = user
}

// Deselected clears the picked user.
func (s *AssignService) Deselected() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selected = SelectedUser{}
}

// Selection returns the picked user.
func (s *AssignService) Selection() SelectedUser {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.selected
}

func (s *AssignService) body(issue IssueContext, disabled bool) (template.HTML, error) {
	data := map[string]any{"Assignee": "", "Disabled": disabled}
	if a := issue.Issue.Assignee; a != nil {
		data["Assignee"] = a.DisplayName
	}
	return s.renderer.Fragment("assign_body", data)
}

func (s *AssignService) bindings(entity IssueContext) map[string]any {
	data := bind(ServiceAssign, entity,
		binding{id: TypeSubmit, typ: TypeSubmit, subtype: "assignIssue", label: "ASSIGN"},
		binding{id: TypeClose, typ: TypeClose, subtype: "closeAssignDialog", label: "Cancel"},
	)
	data["user"] = map[string]any{"service": ServiceAssign, "crossPod": "NONE"}
	return data
}

func (s *AssignService) reset()  { s.Deselected() }
func (s *AssignService) closed() { s.Deselected() }

func (s *AssignService) capture() (submission, string) {
	user := s.Selection()
	if strings.TrimSpace(user.Email) == "" {
		return submission{}, "Select a user to assign the issue to."
	}

	name := user.PrettyName
	if name == "" {
		name = user.Email
	}

	return submission{
		run: func(ctx context.Context, cred jira.Credentials, issueKey string) error {
			return s.assign(ctx, cred, issueKey, user.Email)
		},
		success: func(issueKey string) (template.HTML, error) {
			return s.renderer.Fragment("assign_success", map[string]any{
				"IssueKey":   issueKey,
				"PrettyName": name,
			})
		},
		username: name,
		done:     s.Deselected,
		rejected: s.Deselected,
	}, ""
}

// assign resolves email to an assignable JIRA user and assigns the issue.
func (s *AssignService) assign(ctx context.Context, cred jira.Credentials, issueKey, email string) error {
	users, err := s.tracker.SearchAssignableUsers(ctx, cred, issueKey, email)
	if err != nil {
		return fmt.Errorf("search assignable users: %w", err)
	}
	if len(users) == 0 {
		return errNoMatch
	}
	if err := s.tracker.AssignIssue(ctx, cred, issueKey, users[0].Name); err != nil {
		return fmt.Errorf("assign %s to %s: %w", issueKey, users[0].Name, err)
	}
	return nil
}
