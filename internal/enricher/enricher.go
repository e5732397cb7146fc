// Package enricher renders JIRA issue messages with action buttons and hands
// the resulting action events to the conversation's router.
package enricher

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/gi8lino/jiraactions/internal/actions"
	"github.com/gi8lino/jiraactions/internal/render"
)

// Name identifies the enricher to the host.
const Name = actions.RouterService

// DefaultMessageEvents are the message types rendered when none are configured.
var DefaultMessageEvents = []string{"com.symphony.integration.jira.event.v2.state"}

// ErrUnsupportedType is returned by Enrich for message types the enricher does not render.
var ErrUnsupportedType = errors.New("unsupported message type")

// Result is the message rendering returned to the host.
type Result struct {
	Template string         `json:"template"`
	Data     map[string]any `json:"data"`
}

// Enricher renders issue state messages for one conversation.
type Enricher struct {
	events   []string
	renderer *render.Renderer
	router   *actions.Router
}

// New returns an Enricher reacting to events. An empty list means DefaultMessageEvents.
func New(router *actions.Router, renderer *render.Renderer, events []string) *Enricher {
	if len(events) == 0 {
		events = DefaultMessageEvents
	}
	return &Enricher{events: slices.Clone(events), renderer: renderer, router: router}
}

// Name returns the enricher name.
func (e *Enricher) Name() string { return Name }

// MessageEvents returns the message types this enricher renders.
func (e *Enricher) MessageEvents() []string { return slices.Clone(e.events) }

// Supports reports whether typ is rendered by this enricher.
func (e *Enricher) Supports(typ string) bool { return slices.Contains(e.events, typ) }

// Enrich renders the issue card for entity and binds the assign and comment buttons.
func (e *Enricher) Enrich(typ string, entity actions.IssueContext) (Result, error) {
	if !e.Supports(typ) {
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedType, typ)
	}

	view := render.IssueView{
		BaseURL: entity.BaseURL,
		Key:     entity.Issue.Key,
		URL:     entity.Issue.URL,
		Subject: entity.Issue.Subject,
	}
	if a := entity.Issue.Assignee; a != nil {
		view.Assignee = a.DisplayName
	}

	markup, err := e.renderer.Message(view)
	if err != nil {
		return Result{}, fmt.Errorf("render message: %w", err)
	}

	return Result{
		Template: markup,
		Data: map[string]any{
			"assignTo":     openAction(actions.ServiceAssign, "Assign To", "assignDialog", entity),
			"commentIssue": openAction(actions.ServiceComment, "Comment", "commentDialog", entity),
		},
	}, nil
}

// Router returns the conversation's router.
func (e *Enricher) Router() *actions.Router { return e.router }

// Action forwards an action event to the router.
func (e *Enricher) Action(ctx context.Context, ev actions.Event) error {
	return e.router.Dispatch(ctx, ev)
}

// Selected forwards a person-selector pick.
func (e *Enricher) Selected(user actions.SelectedUser) { e.router.SelectionChanged(user) }

// Deselected forwards a cleared person selector.
func (e *Enricher) Deselected() { e.router.SelectionCleared() }

// Changed forwards comment box edits.
func (e *Enricher) Changed(text string) { e.router.CommentTextChanged(text) }

// Close closes every dialog of the conversation.
func (e *Enricher) Close(ctx context.Context) error { return e.router.Close(ctx) }

func openAction(service, label, subtype string, entity actions.IssueContext) map[string]any {
	return map[string]any{
		"service": service,
		"label":   label,
		"data": map[string]any{
			"entity":  entity,
			"type":    actions.TypeOpen,
			"subtype": subtype,
		},
	}
}
