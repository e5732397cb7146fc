package utils

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gi8lino/jiraactions/internal/jira"
)

// NormalizeRoutePrefix turns a raw path or full URL into "" or "/prefix".
func NormalizeRoutePrefix(input string) string {
	s := strings.TrimSpace(input)
	if strings.Contains(s, "://") {
		if u, err := url.Parse(s); err == nil {
			s = u.Path
		}
	}
	s = strings.Trim(s, "/ ")
	if s == "" {
		return ""
	}
	return "/" + s
}

// ObfuscateHeader masks an Authorization header value for logging.
// It keeps the scheme plus the first and last two token characters.
// Example: "Bearer ey******J9"
func ObfuscateHeader(auth string) string {
	if auth == "" {
		return ""
	}

	scheme, token, ok := strings.Cut(auth, " ")
	if !ok {
		return "[invalid header]"
	}

	token = strings.TrimSpace(token)
	n := len(token)
	if n <= 4 {
		return scheme + " " + strings.Repeat("*", n)
	}
	return scheme + " " + token[:2] + strings.Repeat("*", n-4) + token[n-2:]
}

// GetAuthorizationHeader returns the Authorization header the AuthFunc sets.
func GetAuthorizationHeader(authFunc jira.AuthFunc) string {
	req, _ := http.NewRequest(http.MethodGet, "https://localhost", nil)
	authFunc(req)
	return req.Header.Get("Authorization")
}

// ObfuscateToken masks a raw bearer token for logging.
func ObfuscateToken(token string) string {
	if token == "" {
		return ""
	}
	return ObfuscateHeader(GetAuthorizationHeader(jira.NewBearerAuth(token)))
}
