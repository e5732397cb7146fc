package dialog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gi8lino/jiraactions/internal/jira"
)

// showRequest is the host wire format for a dialog.
type showRequest struct {
	ID       string         `json:"id"`
	Service  string         `json:"service"`
	Template string         `json:"template"`
	Data     map[string]any `json:"data"`
	Options  Options        `json:"options"`
}

// HTTPHost drives the host's dialog API over HTTP.
type HTTPHost struct {
	APIURL *url.URL
	Client *http.Client
	auth   jira.AuthFunc
}

// NewHTTPHost returns a Host posting to apiURL.
func NewHTTPHost(apiURL *url.URL, token string, httpClient *http.Client) *HTTPHost {
	base := *apiURL
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPHost{APIURL: &base, Client: httpClient, auth: jira.NewBearerAuth(token)}
}

// Show implements Host.
func (h *HTTPHost) Show(ctx context.Context, id, service string, p Payload) error {
	body, err := json.Marshal(showRequest{
		ID:       id,
		Service:  service,
		Template: p.Template,
		Data:     p.Data,
		Options:  p.Options,
	})
	if err != nil {
		return fmt.Errorf("marshal dialog: %w", err)
	}
	_, err = h.do(ctx, http.MethodPost, "v1/dialogs", bytes.NewReader(body))
	return err
}

// Close implements Host. A 404 means the dialog is already gone.
func (h *HTTPHost) Close(ctx context.Context, id string) error {
	code, err := h.do(ctx, http.MethodDelete, "v1/dialogs/"+url.PathEscape(id), nil)
	if code == http.StatusNotFound {
		return nil
	}
	return err
}

func (h *HTTPHost) do(ctx context.Context, method, path string, body io.Reader) (int, error) {
	rel, err := url.Parse(path)
	if err != nil {
		return 0, fmt.Errorf("parse path: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, h.APIURL.ResolveReference(rel).String(), body)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	h.auth(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return 0, &jira.StatusError{Err: fmt.Errorf("do request: %w", err)}
	}
	defer resp.Body.Close() // nolint:errcheck

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, &jira.StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(raw))}
	}
	return resp.StatusCode, nil
}
