package templates

import (
	"fmt"
	"html/template"
	"io/fs"
)

// Names every dialog template set must define.
var Required = []string{
	"dialog",
	"loading_body",
	"assign_body",
	"comment_body",
	"assign_success",
	"comment_success",
	"error_generic",
	"error_unauthorized",
	"error_misconfigured",
	"error_unexpected",
	"error_forbidden",
	"error_not_found",
	"error_network",
	"error_validation",
	"issue_message",
}

// ParseDialogTemplates parses all templates under dir and checks the required names exist.
func ParseDialogTemplates(fsys fs.FS, dir string, funcMap template.FuncMap) (*template.Template, error) {
	tmpl, err := template.New("").Funcs(funcMap).ParseFS(fsys, dir+"/*.gohtml")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	for _, name := range Required {
		if tmpl.Lookup(name) == nil {
			return nil, fmt.Errorf("template %q not found", name)
		}
	}
	return tmpl, nil
}
