// Package provider defines the interface and implementations for enrichment
// providers. An adapter turns a lead snapshot into a single enrichment
// outcome; it never touches the store.
package provider

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sells-group/lead-enrichment/internal/model"
)

// Outcome is the result of one adapter run. A Failure is a recorded task
// failure, not an infrastructure error: unmet preconditions and upstream
// rejections both land here.
type Outcome struct {
	OK      bool
	Payload json.RawMessage
	Updates []model.FieldUpdate
	Reason  string
}

// Success builds a completed outcome with the payload to store under the
// adapter's kind and the field fill-ins to propose.
func Success(payload json.RawMessage, updates []model.FieldUpdate) Outcome {
	return Outcome{OK: true, Payload: payload, Updates: updates}
}

// Failure builds a failed outcome with the reason recorded on the task.
func Failure(reason string) Outcome {
	return Outcome{Reason: reason}
}

// Adapter defines the interface for enrichment providers.
type Adapter interface {
	// Name returns the enrichment kind this adapter serves.
	Name() model.Kind
	// Enrich runs the enrichment for one lead.
	Enrich(ctx context.Context, lead model.LeadSnapshot) Outcome
}

// Registry manages available adapters by kind.
type Registry struct {
	mu       sync.RWMutex
	adapters map[model.Kind]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[model.Kind]Adapter),
	}
}

// Register adds an adapter to the registry.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Name()] = a
}

// Get returns the adapter for a kind, or nil if not registered.
func (r *Registry) Get(kind model.Kind) Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.adapters[kind]
}

// Kinds returns all registered kinds.
func (r *Registry) Kinds() []model.Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]model.Kind, 0, len(r.adapters))
	for k := range r.adapters {
		kinds = append(kinds, k)
	}
	return kinds
}
