// Package gateway exchanges a JIRA base URL for a short-lived user token.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gi8lino/jiraactions/internal/jira"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMisconfigured means the gateway answered but refused to issue a token
// (success:false). It is a configuration problem at the target, not a transport failure.
var ErrMisconfigured = errors.New("integration is not configured for this JIRA instance")

// Session is the token issued for one JIRA instance.
type Session struct {
	JWT       string
	BaseURL   string
	ExpiresAt time.Time // zero when the token carries no exp claim
}

// Expired reports whether the session must not be used at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Credentials returns the tracker credentials for this session.
func (s Session) Credentials() jira.Credentials {
	return jira.Credentials{BaseURL: s.BaseURL, JWT: s.JWT}
}

// Authorizer issues sessions per JIRA base URL.
type Authorizer interface {
	Authorize(ctx context.Context, baseURL string) (Session, error)
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context, baseURL string) (Session, error)

// Authorize calls f.
func (f AuthorizerFunc) Authorize(ctx context.Context, baseURL string) (Session, error) {
	return f(ctx, baseURL)
}

// authorizeResponse is the gateway wire format.
type authorizeResponse struct {
	Success bool   `json:"success"`
	JWT     string `json:"jwt"`
}

// Client talks to the integration backend's authorization endpoint.
type Client struct {
	APIURL *url.URL
	AppID  string
	Client *http.Client
	auth   jira.AuthFunc
}

// NewClient returns a gateway client. podToken authenticates this plugin to the backend.
func NewClient(apiURL *url.URL, appID, podToken string, httpClient *http.Client) *Client {
	base := *apiURL
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		APIURL: &base,
		AppID:  appID,
		Client: httpClient,
		auth:   jira.NewBearerAuth(podToken),
	}
}

// Authorize requests a user token for baseURL.
// Transport and HTTP failures are *jira.StatusError; a refusal is ErrMisconfigured.
func (c *Client) Authorize(ctx context.Context, baseURL string) (Session, error) {
	rel := &url.URL{Path: "v1/application/" + url.PathEscape(c.AppID) + "/authorization/token"}
	q := url.Values{}
	q.Set("url", baseURL)
	rel.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIURL.ResolveReference(rel).String(), nil)
	if err != nil {
		return Session{}, fmt.Errorf("create request: %w", err)
	}
	c.auth(req)
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return Session{}, &jira.StatusError{Err: fmt.Errorf("authorize: %w", err)}
	}
	defer resp.Body.Close() // nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Session{}, &jira.StatusError{Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Session{}, &jira.StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(raw))}
	}

	var out authorizeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return Session{}, fmt.Errorf("decode authorization: %w", err)
	}
	if !out.Success || strings.TrimSpace(out.JWT) == "" {
		return Session{}, fmt.Errorf("authorize %s: %w", baseURL, ErrMisconfigured)
	}

	return Session{
		JWT:       out.JWT,
		BaseURL:   baseURL,
		ExpiresAt: tokenExpiry(out.JWT),
	}, nil
}

// tokenExpiry reads the exp claim without verifying the signature; the gateway is trusted
// and only it holds the signing key. Opaque tokens yield the zero time.
func tokenExpiry(raw string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
