package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCred = Credentials{BaseURL: "https://jira.example.com", JWT: "token-1"}

func TestNewClient(t *testing.T) {
	t.Parallel()

	t.Run("adds trailing slash to base path", func(t *testing.T) {
		t.Parallel()

		c := NewClient(mustParseURL(t, "https://integration.example.com/integration"), nil, 0)

		assert.Equal(t, "/integration/", c.APIURL.Path)
		assert.NotNil(t, c.Client)
	})
}

func TestSearchAssignableUsers(t *testing.T) {
	t.Parallel()

	t.Run("sends query, auth and decodes users", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/integration/v1/jira/rest/api/user/assignable/search", r.URL.Path)
			assert.Equal(t, "https://jira.example.com", r.URL.Query().Get("url"))
			assert.Equal(t, "JIRA-1", r.URL.Query().Get("issueKey"))
			assert.Equal(t, "a@b.com", r.URL.Query().Get("username"))
			assert.Equal(t, "10", r.URL.Query().Get("maxResults"))
			assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
			w.Write([]byte(`[{"name":"alice","displayName":"Alice"}]`)) // nolint:errcheck
		}))
		defer srv.Close()

		c := NewClient(mustParseURL(t, srv.URL+"/integration"), srv.Client(), 0)
		users, err := c.SearchAssignableUsers(context.Background(), testCred, "JIRA-1", "a@b.com")

		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "alice", users[0].Name)
		assert.Equal(t, "Alice", users[0].DisplayName)
	})

	t.Run("empty body yields no users", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		c := NewClient(mustParseURL(t, srv.URL), srv.Client(), 0)
		users, err := c.SearchAssignableUsers(context.Background(), testCred, "JIRA-1", "a@b.com")

		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("caches lookups when TTL is set", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.Write([]byte(`[{"name":"alice"}]`)) // nolint:errcheck
		}))
		defer srv.Close()

		c := NewClient(mustParseURL(t, srv.URL), srv.Client(), time.Minute)
		for range 3 {
			users, err := c.SearchAssignableUsers(context.Background(), testCred, "JIRA-1", "a@b.com")
			require.NoError(t, err)
			require.Len(t, users, 1)
		}

		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("missing issue key fails without request", func(t *testing.T) {
		t.Parallel()

		c := &Client{
			APIURL: mustParseURL(t, "https://example.com/"),
			Client: &http.Client{
				Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
					t.Fatal("unexpected request")
					return nil, nil
				}),
			},
		}
		_, err := c.SearchAssignableUsers(context.Background(), testCred, "  ", "a@b.com")

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMissingIssueKey)
		assert.Equal(t, KindBadRequest, KindOf(err))
	})

	t.Run("invalid JSON", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{oops`)) // nolint:errcheck
		}))
		defer srv.Close()

		c := NewClient(mustParseURL(t, srv.URL), srv.Client(), 0)
		_, err := c.SearchAssignableUsers(context.Background(), testCred, "JIRA-1", "a@b.com")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode assignable users")
	})
}

func TestAssignIssue(t *testing.T) {
	t.Parallel()

	t.Run("PUT with username", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/v1/jira/rest/api/issue/JIRA-1/assignee", r.URL.Path)
			assert.Equal(t, "alice", r.URL.Query().Get("username"))
			assert.Equal(t, "https://jira.example.com", r.URL.Query().Get("url"))
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()

		c := NewClient(mustParseURL(t, srv.URL), srv.Client(), 0)
		err := c.AssignIssue(context.Background(), testCred, "JIRA-1", "alice")

		assert.NoError(t, err)
	})

	t.Run("404 maps to not found", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "issue does not exist", http.StatusNotFound)
		}))
		defer srv.Close()

		c := NewClient(mustParseURL(t, srv.URL), srv.Client(), 0)
		err := c.AssignIssue(context.Background(), testCred, "JIRA-1", "alice")

		require.Error(t, err)
		assert.Equal(t, KindNotFound, KindOf(err))
		assert.Contains(t, err.Error(), "issue does not exist")
	})
}

func TestCommentIssue(t *testing.T) {
	t.Parallel()

	t.Run("POST body", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v1/jira/rest/api/issue/JIRA-1/comment", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var payload map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "looks good", payload["body"])

			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":"10001","body":"looks good"}`)) // nolint:errcheck
		}))
		defer srv.Close()

		c := NewClient(mustParseURL(t, srv.URL), srv.Client(), 0)
		comment, err := c.CommentIssue(context.Background(), testCred, "JIRA-1", "looks good")

		require.NoError(t, err)
		assert.Equal(t, "10001", comment.ID)
	})

	t.Run("401 maps to unauthorized", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		c := NewClient(mustParseURL(t, srv.URL), srv.Client(), 0)
		_, err := c.CommentIssue(context.Background(), testCred, "JIRA-1", "x")

		assert.Equal(t, KindUnauthorized, KindOf(err))
	})
}

func TestGetIssue(t *testing.T) {
	t.Parallel()

	t.Run("decodes issue", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/jira/rest/api/issue/JIRA-1", r.URL.Path)
			w.Write([]byte(`{"key":"JIRA-1","fields":{"summary":"Fix it","assignee":{"name":"bob","displayName":"Bob"}}}`)) // nolint:errcheck
		}))
		defer srv.Close()

		c := NewClient(mustParseURL(t, srv.URL), srv.Client(), 0)
		issue, err := c.GetIssue(context.Background(), testCred, "JIRA-1")

		require.NoError(t, err)
		assert.Equal(t, "Fix it", issue.Fields.Summary)
		require.NotNil(t, issue.Fields.Assignee)
		assert.Equal(t, "Bob", issue.Fields.Assignee.DisplayName)
	})

	t.Run("escapes issue key", func(t *testing.T) {
		t.Parallel()

		var gotPath string
		c := &Client{
			APIURL: mustParseURL(t, "https://example.com/"),
			Client: &http.Client{
				Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
					gotPath = r.URL.EscapedPath()
					return &http.Response{
						StatusCode: http.StatusOK,
						Body:       io.NopCloser(bytes.NewBufferString(`{"key":"A/B"}`)),
					}, nil
				}),
			},
		}

		_, err := c.GetIssue(context.Background(), testCred, "A/B")
		require.NoError(t, err)
		assert.Equal(t, "/v1/jira/rest/api/issue/A%2FB", gotPath)
	})
}

func TestDoRequest(t *testing.T) {
	t.Parallel()

	t.Run("returns error on marshaling failure", func(t *testing.T) {
		t.Parallel()

		c := NewClient(mustParseURL(t, "https://example.com"), nil, 0)
		_, _, err := c.doRequest(context.Background(), testCred, http.MethodPost, "foo", nil, func() {})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "marshal body")
	})

	t.Run("transport failure is a status error without code", func(t *testing.T) {
		t.Parallel()

		c := &Client{
			APIURL: mustParseURL(t, "https://example.com/"),
			Client: &http.Client{
				Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
					return nil, errors.New("connection refused")
				}),
			},
		}

		_, code, err := c.doRequest(context.Background(), testCred, http.MethodGet, "foo", nil, nil)

		require.Error(t, err)
		assert.Equal(t, 0, code)
		assert.Equal(t, 0, StatusOf(err))
		assert.Contains(t, err.Error(), "do request")
	})

	t.Run("read failure", func(t *testing.T) {
		t.Parallel()

		c := &Client{
			APIURL: mustParseURL(t, "https://example.com/"),
			Client: &http.Client{
				Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
					return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(brokenReader{})}, nil
				}),
			},
		}

		_, code, err := c.doRequest(context.Background(), testCred, http.MethodGet, "foo", nil, nil)

		require.Error(t, err)
		assert.Equal(t, http.StatusOK, code)
		assert.Contains(t, err.Error(), "read response")
	})

	t.Run("truncates long error bodies", func(t *testing.T) {
		t.Parallel()

		long := bytes.Repeat([]byte("x"), maxErrorBody+100)
		c := &Client{
			APIURL: mustParseURL(t, "https://example.com/"),
			Client: &http.Client{
				Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
					return &http.Response{StatusCode: http.StatusBadGateway, Body: io.NopCloser(bytes.NewReader(long))}, nil
				}),
			},
		}

		body, code, err := c.doRequest(context.Background(), testCred, http.MethodGet, "foo", nil, nil)

		require.Error(t, err)
		assert.Equal(t, http.StatusBadGateway, code)
		assert.Len(t, body, len(long))
		var se *StatusError
		require.ErrorAs(t, err, &se)
		assert.Len(t, se.Body, maxErrorBody)
	})
}

// brokenReader always fails
type brokenReader struct{}

func (brokenReader) Read(p []byte) (int, error) { return 0, errors.New("fail") }

type roundTripperFunc func(r *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()

	u, err := url.Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}
