package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/mediachain/internal/component"
	"github.com/vk/mediachain/internal/metrics"
)

// Module is the interface that all modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Deps are the shared services handed to every factory.
type Deps struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// RegisteredComponent holds the compiled Go parts of a component kind.
type RegisteredComponent struct {
	// NewArgs returns a pointer to an argument struct filled with defaults.
	// Fields are bound by their `cty` tags.
	NewArgs func() any
	// New creates and initializes a component from decoded arguments.
	New func(ctx context.Context, name string, args any, deps Deps) (component.Component, error)
	// Description is shown in logs.
	Description string
}

// Registry holds all registered component kinds for a single application
// instance.
type Registry struct {
	components map[string]*RegisteredComponent
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{components: make(map[string]*RegisteredComponent)}
}

// RegisterComponent registers the factory for a component kind.
func (r *Registry) RegisterComponent(kind string, rc *RegisteredComponent) {
	if _, exists := r.components[kind]; exists {
		panic(fmt.Sprintf("component kind '%s' already registered", kind))
	}
	slog.Debug("Registering component kind.", "kind", kind)
	r.components[kind] = rc
}

// Component returns the factory registered for kind.
func (r *Registry) Component(kind string) (*RegisteredComponent, bool) {
	rc, ok := r.components[kind]
	return rc, ok
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.components))
	for k := range r.components {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
