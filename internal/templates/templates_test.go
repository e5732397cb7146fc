package templates_test

import (
	"html/template"
	"os"
	"testing"
	"testing/fstest"

	"github.com/gi8lino/jiraactions/internal/templates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDialogTemplates(t *testing.T) {
	t.Parallel()

	t.Run("parses real dialog templates successfully", func(t *testing.T) {
		t.Parallel()

		webFS := os.DirFS("../../")

		tmpl, err := templates.ParseDialogTemplates(webFS, "web/templates", templates.TemplateFuncMap())
		require.NoError(t, err)

		for _, name := range templates.Required {
			assert.NotNil(t, tmpl.Lookup(name), "template %q should be parsed", name)
		}
	})

	t.Run("fails when a required template is missing", func(t *testing.T) {
		t.Parallel()

		webFS := fstest.MapFS{
			"web/templates/dialog.gohtml": &fstest.MapFile{Data: []byte(`{{define "dialog"}}d{{end}}`)},
		}

		_, err := templates.ParseDialogTemplates(webFS, "web/templates", template.FuncMap{})
		require.Error(t, err)
		assert.EqualError(t, err, `template "loading_body" not found`)
	})

	t.Run("fails on empty directory", func(t *testing.T) {
		t.Parallel()

		_, err := templates.ParseDialogTemplates(fstest.MapFS{}, "web/templates", template.FuncMap{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse templates")
	})
}

func TestExecute(t *testing.T) {
	t.Parallel()

	t.Run("renders named template", func(t *testing.T) {
		t.Parallel()

		tmpl := template.Must(template.New("").Parse(`{{define "t"}}<b>{{.}}</b>{{end}}`))
		out, err := templates.Execute(tmpl, "t", "x")
		require.NoError(t, err)
		assert.Equal(t, template.HTML("<b>x</b>"), out)
	})

	t.Run("missing template", func(t *testing.T) {
		t.Parallel()

		tmpl := template.Must(template.New("").Parse(`{{define "only"}}only{{end}}`))
		_, err := templates.Execute(tmpl, "t", nil)
		assert.EqualError(t, err, "template: Template not found (t)")
	})

	t.Run("execution failure", func(t *testing.T) {
		t.Parallel()

		tmpl := template.Must(template.New("").Parse(`{{define "t"}}{{.Missing.Field}}{{end}}`))
		_, err := templates.Execute(tmpl, "t", map[string]any{"Missing": 1})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Template rendering failed")
	})

	t.Run("nil template set", func(t *testing.T) {
		t.Parallel()

		_, err := templates.Execute(nil, "t", nil)
		assert.Error(t, err)
	})
}
