package actions

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"sync"
	"time"

	"github.com/gi8lino/jiraactions/internal/dialog"
	"github.com/gi8lino/jiraactions/internal/gateway"
	"github.com/gi8lino/jiraactions/internal/jira"
	"github.com/gi8lino/jiraactions/internal/render"

	"github.com/google/uuid"
)

// ErrorDialogID is the dialog used for events no service can handle.
const ErrorDialogID = "error"

// flow is the dialog state machine shared by the services.
// mu guards state and is held while a dialog is shown, never across
// authorization or tracker calls.
type flow struct {
	service    string
	dialogID   string
	title      string
	actionText string
	v          variant

	presenter *dialog.Presenter
	auth      gateway.Authorizer
	tracker   Tracker
	renderer  *render.Renderer
	logger    *slog.Logger
	dismiss   time.Duration
	now       func() time.Time
	newID     func() string

	mu    sync.Mutex
	state state
}

func newFlow(deps Deps, service, dialogID, title string) *flow {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("service", service)

	dismiss := deps.DismissDelay
	if dismiss <= 0 {
		dismiss = DefaultDismissDelay
	}

	return &flow{
		service:    service,
		dialogID:   dialogID,
		title:      title,
		actionText: title,
		presenter:  dialog.NewPresenter(deps.Host, service, logger),
		auth:       deps.Authorizer,
		tracker:    deps.Tracker,
		renderer:   deps.Renderer,
		logger:     logger,
		dismiss:    dismiss,
		now:        time.Now,
		newID:      uuid.NewString,
		state:      idle{},
	}
}

// ID returns the service identifier events are routed by.
func (f *flow) ID() string { return f.service }

// Phase returns the current dialog phase.
func (f *flow) Phase() Phase {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.state.phase()
}

// Action routes ev to Open, Submit or Close. Unknown types show the generic error dialog.
func (f *flow) Action(ctx context.Context, ev Event) error {
	switch intentOf(ev) {
	case intentOpen:
		return f.Open(ctx, ev)
	case intentSubmit:
		return f.Submit(ctx, ev)
	case intentClose:
		return f.Close(ctx)
	default:
		f.logger.Warn("unknown action type", "type", ev.Type, "subtype", ev.Subtype)
		return showGenericError(ctx, f.presenter, f.renderer, ev.Entity)
	}
}

// Open authorizes against the issue's JIRA instance and shows the editable dialog.
func (f *flow) Open(ctx context.Context, ev Event) error {
	ctx = context.WithoutCancel(ctx)
	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	id := f.newID()
	issue := ev.Entity
	logger := f.logger.With("flow", id, "issue", issue.Issue.Key)

	f.v.reset()

	f.mu.Lock()
	f.stopLocked()
	err := f.showLocked(ctx, authorizing{id: id, cancel: cancel}, func() (dialog.Payload, error) {
		return f.loading(issue)
	})
	f.mu.Unlock()
	if err != nil {
		return err
	}

	session, err := f.auth.Authorize(callCtx, issue.BaseURL)
	if callCtx.Err() != nil {
		logger.Debug("open abandoned")
		return nil
	}
	if err != nil {
		kind := authErrorKind(err)
		logger.Warn("authorization failed", "baseUrl", issue.BaseURL, "kind", kind, "error", err)
		return f.commit(ctx, id, failed{id: id, kind: kind}, func() (dialog.Payload, error) {
			return f.failure(issue, kind)
		})
	}

	fresh, err := f.refresh(callCtx, session, issue)
	if callCtx.Err() != nil {
		logger.Debug("open abandoned")
		return nil
	}
	if err != nil {
		if jira.KindOf(err) == jira.KindNotFound {
			logger.Info("issue not found")
			return f.commit(ctx, id, failed{id: id, kind: KindNotFound}, func() (dialog.Payload, error) {
				return f.failure(issue, KindNotFound)
			})
		}
		logger.Warn("issue refresh failed, using snapshot", "error", err)
	}

	return f.commit(ctx, id, rendered{id: id, session: session, issue: fresh}, func() (dialog.Payload, error) {
		return f.editable(fresh, false, "")
	})
}

// Submit validates pending input and runs the remote mutation.
// It does nothing unless the editable dialog is showing.
func (f *flow) Submit(ctx context.Context, _ Event) error {
	ctx = context.WithoutCancel(ctx)

	f.mu.Lock()
	st, ok := f.state.(rendered)
	if !ok {
		phase := f.state.phase()
		f.mu.Unlock()
		f.logger.Debug("submit ignored", "phase", phase)
		return nil
	}

	sub, invalid := f.v.capture()
	if invalid != "" {
		err := f.showLocked(ctx, st, func() (dialog.Payload, error) {
			notice, err := f.notice(st.issue, KindValidation, invalid)
			if err != nil {
				return dialog.Payload{}, err
			}
			return f.editable(st.issue, false, notice)
		})
		f.mu.Unlock()
		return err
	}

	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	err := f.showLocked(ctx, submitting{id: st.id, session: st.session, issue: st.issue, cancel: cancel}, func() (dialog.Payload, error) {
		return f.editable(st.issue, true, "")
	})
	f.mu.Unlock()
	if err != nil {
		return err
	}

	id, issue, session := st.id, st.issue, st.session
	logger := f.logger.With("flow", id, "issue", issue.Issue.Key)

	if session.JWT == "" || session.Expired(f.now()) {
		logger.Debug("session expired, authorizing again")
		session, err = f.auth.Authorize(callCtx, issue.BaseURL)
		if callCtx.Err() != nil {
			return nil
		}
		if err != nil {
			kind := authErrorKind(err)
			logger.Warn("authorization failed", "baseUrl", issue.BaseURL, "kind", kind, "error", err)
			return f.commit(ctx, id, failed{id: id, kind: kind}, func() (dialog.Payload, error) {
				return f.failure(issue, kind)
			})
		}
	}

	err = sub.run(callCtx, session.Credentials(), issue.Issue.Key)
	if callCtx.Err() != nil {
		logger.Debug("submit abandoned")
		return nil
	}
	if err == nil {
		if sub.done != nil {
			sub.done()
		}
		logger.Info("action completed")
		return f.commit(ctx, id, succeeded{id: id}, func() (dialog.Payload, error) {
			content, err := sub.success(issue.Issue.Key)
			if err != nil {
				return dialog.Payload{}, err
			}
			return f.success(issue, content)
		})
	}

	kind := submitErrorKind(err)
	logger.Warn("action failed", "kind", kind, "status", jira.StatusOf(err), "error", err)

	if kind.terminal() {
		return f.commit(ctx, id, failed{id: id, kind: kind}, func() (dialog.Payload, error) {
			return f.failure(issue, kind)
		})
	}
	if kind == KindForbidden {
		if sub.rejected != nil {
			sub.rejected()
		}
		// A 401 invalidates the session; the next submit authorizes again.
		session = gateway.Session{}
	}

	return f.commit(ctx, id, rendered{id: id, session: session, issue: issue}, func() (dialog.Payload, error) {
		notice, err := f.notice(issue, kind, sub.username)
		if err != nil {
			return dialog.Payload{}, err
		}
		return f.editable(issue, false, notice)
	})
}

// Close closes the dialog and abandons any in-flight call. Closing twice is harmless.
func (f *flow) Close(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stopLocked()
	f.state = idle{}
	f.v.closed()
	return f.presenter.Close(ctx, f.dialogID)
}

// commit moves flow id to next and shows the dialog built by build.
// A flow that is no longer current is dropped silently.
func (f *flow) commit(ctx context.Context, id string, next state, build func() (dialog.Payload, error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state.flow() != id {
		f.logger.Debug("dropping stale completion", "flow", id, "phase", f.state.phase())
		return nil
	}
	return f.showLocked(ctx, next, build)
}

func (f *flow) showLocked(ctx context.Context, next state, build func() (dialog.Payload, error)) error {
	p, err := build()
	if err != nil {
		f.state = idle{}
		return fmt.Errorf("render %s dialog: %w", next.phase(), err)
	}

	if s, ok := next.(succeeded); ok {
		s.timer = time.AfterFunc(f.dismiss, func() { f.autoClose(s.id) })
		next = s
	}
	f.state = next

	if err := f.presenter.Update(ctx, f.dialogID, p); err != nil {
		f.stopLocked()
		f.state = idle{}
		return err
	}
	return nil
}

// stopLocked cancels whatever the current state still has running.
func (f *flow) stopLocked() {
	switch s := f.state.(type) {
	case authorizing:
		s.cancel()
	case submitting:
		s.cancel()
	case succeeded:
		if s.timer != nil {
			s.timer.Stop()
		}
	}
}

func (f *flow) autoClose(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if s, ok := f.state.(succeeded); !ok || s.id != id {
		return
	}
	f.state = idle{}
	if err := f.presenter.Close(context.Background(), f.dialogID); err != nil {
		f.logger.Warn("auto-close failed", "error", err)
	}
}

// refresh replaces the snapshot's subject and assignee with the live issue.
func (f *flow) refresh(ctx context.Context, session gateway.Session, issue IssueContext) (IssueContext, error) {
	got, err := f.tracker.GetIssue(ctx, session.Credentials(), issue.Issue.Key)
	if err != nil {
		return issue, err
	}
	if got.Fields.Summary != "" {
		issue.Issue.Subject = got.Fields.Summary
	}
	issue.Issue.Assignee = nil
	if a := got.Fields.Assignee; a != nil {
		issue.Issue.Assignee = &Assignee{DisplayName: a.DisplayName, EmailAddress: a.EmailAddress}
	}
	return issue, nil
}

func (f *flow) payload(markup string, data map[string]any) dialog.Payload {
	return dialog.Payload{Template: markup, Data: data, Options: dialog.Options{Title: f.title}}
}

func (f *flow) loading(issue IssueContext) (dialog.Payload, error) {
	body, err := f.renderer.Fragment("loading_body", "Authorizing...")
	if err != nil {
		return dialog.Payload{}, err
	}
	markup, err := f.renderer.NewBuilder(f.actionText, body).Loading(true).Build(viewOf(issue))
	if err != nil {
		return dialog.Payload{}, err
	}
	return f.payload(markup, f.v.bindings(issue)), nil
}

// editable renders the input dialog, annotated with notice when set.
func (f *flow) editable(issue IssueContext, disabled bool, notice template.HTML) (dialog.Payload, error) {
	body, err := f.v.body(issue, disabled)
	if err != nil {
		return dialog.Payload{}, err
	}
	markup, err := f.renderer.NewBuilder(f.actionText, body).Loading(disabled).Error(notice).Build(viewOf(issue))
	if err != nil {
		return dialog.Payload{}, err
	}
	return f.payload(markup, f.v.bindings(issue)), nil
}

// failure renders a read-only dialog for kind.
func (f *flow) failure(issue IssueContext, kind ErrorKind) (dialog.Payload, error) {
	notice, err := f.notice(issue, kind, "")
	if err != nil {
		return dialog.Payload{}, err
	}
	markup, err := f.renderer.NewBuilder(f.actionText, "").Error(notice).Footer(false).Build(viewOf(issue))
	if err != nil {
		return dialog.Payload{}, err
	}
	return f.payload(markup, nil), nil
}

func (f *flow) success(issue IssueContext, content template.HTML) (dialog.Payload, error) {
	markup, err := f.renderer.NewBuilder(f.actionText, content).Footer(false).Build(viewOf(issue))
	if err != nil {
		return dialog.Payload{}, err
	}
	return f.payload(markup, nil), nil
}

// notice renders the error fragment of kind. detail is the username for
// forbidden and the message for validation.
func (f *flow) notice(issue IssueContext, kind ErrorKind, detail string) (template.HTML, error) {
	var data any
	switch kind {
	case KindUnauthorized, KindMisconfigured, KindUnexpected:
		data = map[string]any{"BaseURL": issue.BaseURL}
	case KindNotFound:
		data = map[string]any{"IssueKey": issue.Issue.Key}
	case KindForbidden:
		data = map[string]any{"Username": detail}
	case KindValidation:
		data = detail
	}
	return f.renderer.Fragment(kind.template(), data)
}

// showGenericError opens the error dialog on p.
func showGenericError(ctx context.Context, p *dialog.Presenter, r *render.Renderer, issue IssueContext) error {
	notice, err := r.Fragment(KindGeneric.template(), nil)
	if err != nil {
		return err
	}
	markup, err := r.NewBuilder("Error", "").Error(notice).Footer(false).Build(viewOf(issue))
	if err != nil {
		return err
	}
	return p.Open(ctx, ErrorDialogID, dialog.Payload{Template: markup, Options: dialog.Options{Title: "Error"}})
}

func viewOf(ic IssueContext) render.IssueView {
	v := render.IssueView{
		BaseURL: ic.BaseURL,
		Key:     ic.Issue.Key,
		URL:     ic.Issue.URL,
		Subject: ic.Issue.Subject,
	}
	if a := ic.Issue.Assignee; a != nil {
		v.Assignee = a.DisplayName
	}
	return v
}
