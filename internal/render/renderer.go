package render

import (
	"html/template"

	"github.com/gi8lino/jiraactions/internal/templates"
)

// IssueView is the issue header shown on every dialog and message card.
type IssueView struct {
	BaseURL  string
	Key      string
	URL      string
	Subject  string
	Assignee string
}

// Dialog is the data bound to the "dialog" template.
type Dialog struct {
	Issue        IssueView
	ActionText   string
	Content      template.HTML
	ErrorMessage template.HTML
	ShowError    bool
	Footer       bool
	Loading      bool
}

// Renderer executes the parsed dialog template set.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer wraps a template set parsed by templates.ParseDialogTemplates.
func NewRenderer(tmpl *template.Template) *Renderer {
	return &Renderer{tmpl: tmpl}
}

// Fragment renders a named partial (bodies, results, error messages).
func (r *Renderer) Fragment(name string, data any) (template.HTML, error) {
	return templates.Execute(r.tmpl, name, data)
}

// Dialog renders the full dialog markup.
func (r *Renderer) Dialog(d Dialog) (string, error) {
	out, err := templates.Execute(r.tmpl, "dialog", d)
	return string(out), err
}

// Message renders the message card offered by the enricher.
func (r *Renderer) Message(issue IssueView) (string, error) {
	out, err := templates.Execute(r.tmpl, "issue_message", issue)
	return string(out), err
}

// Builder assembles a Dialog step by step; the zero footer/loading/error
// state matches an editable dialog.
type Builder struct {
	r *Renderer
	d Dialog
}

// NewBuilder starts a dialog with the action text and inner content.
func (r *Renderer) NewBuilder(actionText string, content template.HTML) *Builder {
	return &Builder{
		r: r,
		d: Dialog{ActionText: actionText, Content: content, Footer: true},
	}
}

// Error annotates the dialog with message. An empty message clears it.
func (b *Builder) Error(message template.HTML) *Builder {
	b.d.ErrorMessage = message
	b.d.ShowError = message != ""
	return b
}

// Footer toggles the action buttons.
func (b *Builder) Footer(show bool) *Builder {
	b.d.Footer = show
	return b
}

// Loading disables the action buttons.
func (b *Builder) Loading(loading bool) *Builder {
	b.d.Loading = loading
	return b
}

// Build renders the dialog for issue.
func (b *Builder) Build(issue IssueView) (string, error) {
	d := b.d
	d.Issue = issue
	return b.r.Dialog(d)
}
