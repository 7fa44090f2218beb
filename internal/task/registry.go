package task

import (
	"fmt"
	"sync"
)

// Registry maps task type tags to their handlers. Handlers are registered
// once at startup; lookups happen on every dispatch.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register adds a handler for its type tag.
// Returns an error if the tag is empty or already registered.
func (r *Registry) Register(h Handler) error {
	tag := h.Type()
	if tag == "" {
		return fmt.Errorf("handler has empty type tag")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[tag]; exists {
		return fmt.Errorf("handler already registered for type %q", tag)
	}

	r.handlers[tag] = h
	return nil
}

// Get returns the handler for the given type tag.
func (r *Registry) Get(tag string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[tag]
	return h, ok
}

// Recurring returns all handlers with a non-empty cron schedule.
func (r *Registry) Recurring() []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Handler
	for _, h := range r.handlers {
		if h.Schedule() != "" {
			out = append(out, h)
		}
	}
	return out
}
