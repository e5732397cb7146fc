package enricher

import (
	"context"
	"sync"
)

// Registry keeps one Enricher per conversation.
type Registry struct {
	mu        sync.Mutex
	enrichers map[string]*Enricher
	factory   func(conversation string) *Enricher
}

// NewRegistry returns a Registry creating enrichers with factory on first use.
func NewRegistry(factory func(conversation string) *Enricher) *Registry {
	return &Registry{enrichers: make(map[string]*Enricher), factory: factory}
}

// Get returns the enricher of conversation, creating it if needed.
func (r *Registry) Get(conversation string) *Enricher {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.enrichers[conversation]
	if !ok {
		e = r.factory(conversation)
		r.enrichers[conversation] = e
	}
	return e
}

// Remove closes the conversation's dialogs and forgets its enricher.
func (r *Registry) Remove(ctx context.Context, conversation string) error {
	r.mu.Lock()
	e, ok := r.enrichers[conversation]
	delete(r.enrichers, conversation)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	return e.Close(ctx)
}

// Len returns the number of live conversations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.enrichers)
}
