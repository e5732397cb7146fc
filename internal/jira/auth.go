package jira

import (
	"net/http"
	"strings"
)

// AuthFunc applies authentication to an outgoing request.
type AuthFunc func(r *http.Request)

// NewBearerAuth returns an AuthFunc setting "Authorization: Bearer <token>".
func NewBearerAuth(token string) AuthFunc {
	token = strings.TrimSpace(token)
	return func(r *http.Request) {
		if token == "" {
			return
		}
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

// Credentials identify the JIRA instance and the user token for one call.
type Credentials struct {
	BaseURL string // JIRA instance URL, sent as ?url=
	JWT     string // short-lived token from the authorization gateway
}

// auth returns the bearer AuthFunc for these credentials.
func (c Credentials) auth() AuthFunc {
	return NewBearerAuth(c.JWT)
}
