package registry

import (
	"reflect"
	"sort"
	"sync"

	"github.com/specialistvlad/objgraph/internal/rules"
)

// Module is the interface that all type modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds every registered type for a single application instance.
// It is safe for concurrent use; registration normally finishes before the
// first lookup.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Type
	byType map[reflect.Type]*Type
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		byName: make(map[string]*Type),
		byType: make(map[reflect.Type]*Type),
	}
}

// Lookup returns the type registered under name. The name is matched the way
// rule names are: case-insensitive, with leading separators ignored.
func (r *Registry) Lookup(name string) (*Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[key(name)]
	return t, ok
}

// LookupType returns the registration for a Go type. Pointer types are
// looked up by their element type.
func (r *Registry) LookupType(t reflect.Type) (*Type, bool) {
	if t == nil {
		return nil, false
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.byType[t]
	return rt, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// IsType is Has, under the name the rule set expects.
func (r *Registry) IsType(name string) bool {
	return r.Has(name)
}

// NameOf returns the name a Go type is known by. Unregistered types get
// their default name, so that a later lookup reports them as not found.
func (r *Registry) NameOf(t reflect.Type) string {
	if rt, ok := r.LookupType(t); ok {
		return rt.Name
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.String()
}

// Names returns every registered name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byName))
	for _, t := range r.byName {
		out = append(out, t.Name)
	}
	sort.Strings(out)
	return out
}

func key(name string) string {
	return rules.Normalize(name)
}
