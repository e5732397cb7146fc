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
	// ServiceComment routes events to the CommentService.
	ServiceComment = "commentService"

	commentDialogID = "commentIssue"
)

// CommentService posts the comment drafted in its dialog.
// The draft survives failed submits and closing the dialog; it is cleared
// after a successful comment or when the dialog is opened again.
type CommentService struct {
	*flow

	mu    sync.Mutex
	draft string
}

// NewCommentService returns an idle CommentService.
func NewCommentService(deps Deps) *CommentService {
	s := &CommentService{}
	s.flow = newFlow(deps, ServiceComment, commentDialogID, "Comment issue")
	s.flow.v = s
	return s
}

// Changed records the text typed into the comment box.
func (s *CommentService) Changed(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.draft = text
}

// Draft returns the pending comment.
func (s *CommentService) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.draft
}

func (s *CommentService) body(_ IssueContext, disabled bool) (template.HTML, error) {
	return s.renderer.Fragment("comment_body", map[string]any{
		"Draft":    s.Draft(),
		"Disabled": disabled,
	})
}

func (s *CommentService) bindings(entity IssueContext) map[string]any {
	data := bind(ServiceComment, entity,
		binding{id: TypeSubmit, typ: TypeSubmit, subtype: "commentIssue", label: "COMMENT"},
		binding{id: TypeClose, typ: TypeClose, subtype: "closeCommentDialog", label: "Cancel"},
	)
	data["comment"] = map[string]any{"service": ServiceComment}
	return data
}

func (s *CommentService) reset()  { s.Changed("") }
func (s *CommentService) closed() {}

func (s *CommentService) capture() (submission, string) {
	text := s.Draft()
	if strings.TrimSpace(text) == "" {
		return submission{}, "Write a comment before submitting."
	}

	return submission{
		run: func(ctx context.Context, cred jira.Credentials, issueKey string) error {
			if _, err := s.tracker.CommentIssue(ctx, cred, issueKey, text); err != nil {
				return fmt.Errorf("comment on %s: %w", issueKey, err)
			}
			return nil
		},
		success: func(issueKey string) (template.HTML, error) {
			return s.renderer.Fragment("comment_success", map[string]any{"IssueKey": issueKey, "Comment": text})
		},
		done: func() { s.Changed("") },
	}, ""
}
