package templates

import (
	"html/template"
	"strings"

	"github.com/Masterminds/sprig/v3"
)

// TemplateFuncMap returns sprig plus the dialog helpers.
func TemplateFuncMap() template.FuncMap {
	fm := sprig.HtmlFuncMap()
	fm["excerpt"] = excerpt
	fm["issueLink"] = issueLink
	return fm
}

// excerpt collapses whitespace in s and cuts it to n runes.
func excerpt(n int, s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "..."
}

// issueLink returns url when set, otherwise "<base>/browse/<key>".
func issueLink(url, base, key string) string {
	if strings.TrimSpace(url) != "" {
		return url
	}
	if base == "" || key == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/browse/" + key
}
