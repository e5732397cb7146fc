package actions

import (
	"context"
	"log/slog"

	"github.com/gi8lino/jiraactions/internal/dialog"
	"github.com/gi8lino/jiraactions/internal/render"
)

// RouterService owns dialogs the router opens itself.
const RouterService = "issueState-renderer"

// Router dispatches action events to the service they name.
type Router struct {
	assign    *AssignService
	comment   *CommentService
	services  map[string]Service
	presenter *dialog.Presenter
	renderer  *render.Renderer
	logger    *slog.Logger
}

// NewRouter builds the assign and comment services of one conversation.
func NewRouter(deps Deps) *Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := &Router{
		assign:    NewAssignService(deps),
		comment:   NewCommentService(deps),
		presenter: dialog.NewPresenter(deps.Host, RouterService, logger),
		renderer:  deps.Renderer,
		logger:    logger,
	}
	r.services = map[string]Service{
		r.assign.ID():  r.assign,
		r.comment.ID(): r.comment,
	}
	return r
}

// Register adds s, replacing any service with the same id.
// It must not race with Dispatch.
func (r *Router) Register(s Service) {
	r.services[s.ID()] = s
}

// Dispatch hands ev to its service. Events for unknown services open the
// generic error dialog and reach no service.
func (r *Router) Dispatch(ctx context.Context, ev Event) error {
	svc, ok := r.services[ev.Service]
	if !ok {
		r.logger.Warn("no service for action", "service", ev.Service, "type", ev.Type)
		return showGenericError(ctx, r.presenter, r.renderer, ev.Entity)
	}
	return svc.Action(ctx, ev)
}

// SelectionChanged forwards the picked user to the assign service.
func (r *Router) SelectionChanged(user SelectedUser) { r.assign.Selected(user) }

// SelectionCleared clears the assign service's picked user.
func (r *Router) SelectionCleared() { r.assign.Deselected() }

// CommentTextChanged forwards the comment draft to the comment service.
func (r *Router) CommentTextChanged(text string) { r.comment.Changed(text) }

// Assign returns the assign service.
func (r *Router) Assign() *AssignService { return r.assign }

// Comment returns the comment service.
func (r *Router) Comment() *CommentService { return r.comment }

// Close closes every service dialog.
func (r *Router) Close(ctx context.Context) error {
	if err := r.assign.Close(ctx); err != nil {
		return err
	}
	return r.comment.Close(ctx)
}
