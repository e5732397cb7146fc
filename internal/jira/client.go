package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gi8lino/jiraactions/internal/cache"
	"github.com/gi8lino/jiraactions/internal/hash"
)

const (
	apiPrefix          = "v1/jira/rest/api/"
	assignableMaxLimit = 10
	maxErrorBody       = 2048
)

// Client calls the JIRA REST proxy exposed by the integration backend.
type Client struct {
	APIURL *url.URL     // Integration base URL (the proxy lives under v1/jira/rest/api/)
	Client *http.Client // Underlying HTTP client

	lookups   *cache.MemCache[[]User]
	lookupTTL time.Duration
}

// NewClient returns a Client for the integration base URL.
// A positive lookupTTL caches assignable-user searches.
func NewClient(apiURL *url.URL, httpClient *http.Client, lookupTTL time.Duration) *Client {
	base := *apiURL
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		APIURL:    &base,
		Client:    httpClient,
		lookups:   cache.NewMemCache[[]User](),
		lookupTTL: lookupTTL,
	}
}

// SearchAssignableUsers lists users assignable to issueKey matching username (usually an email).
func (c *Client) SearchAssignableUsers(ctx context.Context, cred Credentials, issueKey, username string) ([]User, error) {
	if strings.TrimSpace(issueKey) == "" {
		return nil, &StatusError{Code: http.StatusBadRequest, Err: ErrMissingIssueKey}
	}

	key, keyErr := hash.Key("assignable", []string{cred.BaseURL, issueKey, username})
	if keyErr == nil {
		if users, ok := c.lookups.Get(key); ok {
			return slices.Clone(users), nil
		}
	}

	params := url.Values{}
	params.Set("url", cred.BaseURL)
	params.Set("issueKey", issueKey)
	params.Set("username", username)
	params.Set("maxResults", strconv.Itoa(assignableMaxLimit))

	body, _, err := c.doRequest(ctx, cred, http.MethodGet, "user/assignable/search", params, nil)
	if err != nil {
		return nil, err
	}

	var users []User
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &users); err != nil {
			return nil, fmt.Errorf("decode assignable users: %w", err)
		}
	}

	if keyErr == nil {
		c.lookups.Set(key, slices.Clone(users), c.lookupTTL)
	}
	return users, nil
}

// AssignIssue assigns issueKey to the JIRA user name.
func (c *Client) AssignIssue(ctx context.Context, cred Credentials, issueKey, username string) error {
	if strings.TrimSpace(issueKey) == "" {
		return &StatusError{Code: http.StatusBadRequest, Err: ErrMissingIssueKey}
	}

	params := url.Values{}
	params.Set("url", cred.BaseURL)
	params.Set("username", username)

	_, _, err := c.doRequest(ctx, cred, http.MethodPut, issuePath(issueKey, "assignee"), params, nil)
	return err
}

// CommentIssue adds comment to issueKey.
func (c *Client) CommentIssue(ctx context.Context, cred Credentials, issueKey, comment string) (Comment, error) {
	if strings.TrimSpace(issueKey) == "" {
		return Comment{}, &StatusError{Code: http.StatusBadRequest, Err: ErrMissingIssueKey}
	}

	params := url.Values{}
	params.Set("url", cred.BaseURL)

	body, _, err := c.doRequest(ctx, cred, http.MethodPost, issuePath(issueKey, "comment"), params, map[string]string{"body": comment})
	if err != nil {
		return Comment{}, err
	}

	var out Comment
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &out); err != nil {
			return Comment{}, fmt.Errorf("decode comment: %w", err)
		}
	}
	return out, nil
}

// GetIssue fetches the current snapshot of issueKey.
func (c *Client) GetIssue(ctx context.Context, cred Credentials, issueKey string) (Issue, error) {
	if strings.TrimSpace(issueKey) == "" {
		return Issue{}, &StatusError{Code: http.StatusBadRequest, Err: ErrMissingIssueKey}
	}

	params := url.Values{}
	params.Set("url", cred.BaseURL)

	body, _, err := c.doRequest(ctx, cred, http.MethodGet, issuePath(issueKey, ""), params, nil)
	if err != nil {
		return Issue{}, err
	}

	var issue Issue
	if err := json.Unmarshal(body, &issue); err != nil {
		return Issue{}, fmt.Errorf("decode issue: %w", err)
	}
	return issue, nil
}

// issuePath builds "issue/{key}[/suffix]" with the key path-escaped.
func issuePath(issueKey, suffix string) string {
	p := "issue/" + url.PathEscape(issueKey)
	if suffix != "" {
		p += "/" + suffix
	}
	return p
}

// doRequest performs an authenticated HTTP request and returns response body, status, and error.
// Failures are always *StatusError so callers can classify them with KindOf.
func (c *Client) doRequest(ctx context.Context, cred Credentials, method, path string, query url.Values, body any) (response []byte, statusCode int, err error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	relURL, err := url.Parse(apiPrefix + path)
	if err != nil {
		return nil, 0, fmt.Errorf("parse path: %w", err)
	}
	if len(query) > 0 {
		relURL.RawQuery = query.Encode()
	}
	fullURL := c.APIURL.ResolveReference(relURL).String()

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	cred.auth()(req)

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, 0, &StatusError{Err: fmt.Errorf("do request: %w", err)}
	}
	defer resp.Body.Close() // nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, &StatusError{Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return respBody, resp.StatusCode, &StatusError{Code: resp.StatusCode, Body: string(trim(respBody, maxErrorBody))}
	}
	return respBody, resp.StatusCode, nil
}

// trim returns b truncated to n bytes.
func trim(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
