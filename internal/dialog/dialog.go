// Package dialog drives modal dialogs hosted by the chat client.
package dialog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Options are host display options for a dialog.
type Options struct {
	Title string `json:"title,omitempty"`
}

// Payload is everything the host needs to display one dialog.
type Payload struct {
	Template string         `json:"template"`
	Data     map[string]any `json:"data"`
	Options  Options        `json:"options"`
}

// Host is the dialog surface of the chat client.
// Close of an unknown id must succeed.
type Host interface {
	Show(ctx context.Context, id, service string, p Payload) error
	Close(ctx context.Context, id string) error
}

// Presenter opens, updates and closes dialogs on behalf of one service.
type Presenter struct {
	host    Host
	service string
	logger  *slog.Logger

	mu   sync.Mutex
	open map[string]bool
}

// NewPresenter returns a Presenter owned by service.
func NewPresenter(host Host, service string, logger *slog.Logger) *Presenter {
	return &Presenter{
		host:    host,
		service: service,
		logger:  logger,
		open:    make(map[string]bool),
	}
}

// Service returns the owning service name.
func (p *Presenter) Service() string { return p.service }

// Open shows a dialog. An already open dialog with the same id is closed first.
func (p *Presenter) Open(ctx context.Context, id string, payload Payload) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.open[id] {
		if err := p.closeLocked(ctx, id); err != nil {
			return err
		}
	}
	return p.showLocked(ctx, id, payload)
}

// Update replaces the dialog id with payload. The host has no in-place update,
// so this closes and shows again; both steps run under one lock.
func (p *Presenter) Update(ctx context.Context, id string, payload Payload) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.closeLocked(ctx, id); err != nil {
		return err
	}
	return p.showLocked(ctx, id, payload)
}

// Close closes the dialog id. Closing a closed dialog is a no-op for the caller.
func (p *Presenter) Close(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.closeLocked(ctx, id)
}

// IsOpen reports whether id was last shown and not closed by this presenter.
func (p *Presenter) IsOpen(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.open[id]
}

func (p *Presenter) showLocked(ctx context.Context, id string, payload Payload) error {
	if payload.Data == nil {
		payload.Data = map[string]any{}
	}
	if err := p.host.Show(ctx, id, p.service, payload); err != nil {
		return fmt.Errorf("show dialog %q: %w", id, err)
	}
	p.open[id] = true
	p.logger.Debug("dialog shown", "service", p.service, "dialog", id)
	return nil
}

func (p *Presenter) closeLocked(ctx context.Context, id string) error {
	if err := p.host.Close(ctx, id); err != nil {
		return fmt.Errorf("close dialog %q: %w", id, err)
	}
	delete(p.open, id)
	return nil
}
