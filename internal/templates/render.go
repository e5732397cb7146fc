package templates

import (
	"bytes"
	"fmt"
	"html/template"
)

// RenderError describes a failed template execution.
type RenderError struct {
	Type    string
	Message string
	Detail  string
}

// NewRenderError builds a RenderError.
func NewRenderError(typ, msg, detail string) *RenderError {
	return &RenderError{Type: typ, Message: msg, Detail: detail}
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Detail)
}

// Execute runs the named template and returns its output.
func Execute(tmpl *template.Template, name string, data any) (template.HTML, error) {
	if tmpl == nil || tmpl.Lookup(name) == nil {
		return "", NewRenderError("template", "Template not found", name)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", NewRenderError("template", "Template rendering failed", err.Error())
	}
	return template.HTML(buf.String()), nil // nolint:gosec // output of html/template
}
