package testutils

import (
	"context"
	"sync"

	"github.com/gi8lino/jiraactions/internal/dialog"
)

// HostCall is one recorded dialog host call.
type HostCall struct {
	Op      string // "show" or "close"
	ID      string
	Service string
	Payload dialog.Payload
}

// DialogHost is an in-memory dialog.Host that records every call.
type DialogHost struct {
	mu      sync.Mutex
	calls   []HostCall
	open    map[string]dialog.Payload
	ShowErr error
}

// NewDialogHost returns an empty recording host.
func NewDialogHost() *DialogHost {
	return &DialogHost{open: make(map[string]dialog.Payload)}
}

// Show implements dialog.Host.
func (h *DialogHost) Show(_ context.Context, id, service string, p dialog.Payload) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ShowErr != nil {
		return h.ShowErr
	}
	h.calls = append(h.calls, HostCall{Op: "show", ID: id, Service: service, Payload: p})
	h.open[id] = p
	return nil
}

// Close implements dialog.Host.
func (h *DialogHost) Close(_ context.Context, id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.calls = append(h.calls, HostCall{Op: "close", ID: id})
	delete(h.open, id)
	return nil
}

// Calls returns a copy of all recorded calls.
func (h *DialogHost) Calls() []HostCall {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]HostCall(nil), h.calls...)
}

// Shows returns the recorded show calls.
func (h *DialogHost) Shows() []HostCall {
	var out []HostCall
	for _, c := range h.Calls() {
		if c.Op == "show" {
			out = append(out, c)
		}
	}
	return out
}

// LastShow returns the most recent show call.
func (h *DialogHost) LastShow() (HostCall, bool) {
	shows := h.Shows()
	if len(shows) == 0 {
		return HostCall{}, false
	}
	return shows[len(shows)-1], true
}

// Open returns the payload currently displayed under id.
func (h *DialogHost) Open(id string) (dialog.Payload, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.open[id]
	return p, ok
}

// OpenCount returns the number of dialogs currently displayed.
func (h *DialogHost) OpenCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.open)
}
